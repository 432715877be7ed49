package query

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Query_Execute(t *testing.T) {
	testCases := []struct {
		set string
		sub int
		tem string
		sql string
	}{
		// Case 000
		{
			set: "train",
			sub: 0,
			tem: "create table engage_{{ .Set }}_feats as select * from user_engagement_{{ .Set }};",
			sql: "create table engage_train_feats as select * from user_engagement_train;",
		},
		// Case 001
		{
			set: "train",
			sub: 500,
			tem: "select * from t{{ if gt .Subsample 0 }} limit {{ .Subsample }}{{ end }}",
			sql: "select * from t limit 500",
		},
		// Case 002
		{
			set: "val",
			sub: 500,
			tem: "select * from t{{ if and (eq .Set \"train\") (gt .Subsample 0) }} limit {{ .Subsample }}{{ end }}",
			sql: "select * from t",
		},
		// Case 003
		{
			set: "test",
			tem: "select * from {{ ident (printf \"%s_%s\" \"user_churn\" .Set) }}",
			sql: "select * from user_churn_test",
		},
		// Case 004
		{
			set: "val",
			tem: "-- {{ .Set | upper }}",
			sql: "-- VAL",
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			q := &Query{
				Set: tc.set,
				Sub: tc.sub,
				Tem: tc.tem,
			}

			byt, err := q.Execute()
			if err != nil {
				t.Fatal(err)
			}

			if string(byt) != tc.sql {
				t.Fatalf("\n\n%s\n", cmp.Diff(tc.sql, string(byt)))
			}
		})
	}
}

func Test_Query_Execute_Invalid(t *testing.T) {
	testCases := []struct {
		set   string
		sub   int
		tem   string
		match func(error) bool
	}{
		// Case 000, unknown split.
		{
			set:   "holdout",
			tem:   "select 1",
			match: IsInvalidContext,
		},
		// Case 001, negative subsample.
		{
			set:   "train",
			sub:   -1,
			tem:   "select 1",
			match: IsInvalidContext,
		},
		// Case 002, identifier injection.
		{
			set:   "train",
			tem:   "select * from {{ ident \"users; drop table users\" }}",
			match: IsInvalidIdentifier,
		},
		// Case 003, field outside of the substitution context.
		{
			set:   "train",
			tem:   "select * from {{ .Table }}",
			match: func(err error) bool { return err != nil },
		},
		// Case 004, environment access is not available.
		{
			set:   "train",
			tem:   "select '{{ env \"HOME\" }}'",
			match: func(err error) bool { return err != nil },
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			q := &Query{
				Set: tc.set,
				Sub: tc.sub,
				Tem: tc.tem,
			}

			_, err := q.Execute()
			if !tc.match(err) {
				t.Fatalf("unexpected error %#v", err)
			}
		})
	}
}
