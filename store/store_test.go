package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/xh3b4sd/relboost/registry"
	"github.com/xh3b4sd/relboost/table"
)

func Test_Store_Create_Table(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)

	tab := table.Table{
		Col: []string{"id", "score", "name", "Weird Name"},
		Row: [][]any{
			{int64(3), 0.5, "c", nil},
			{int64(1), nil, "a", int64(7)},
			{int64(2), 1.25, nil, int64(8)},
		},
	}

	require.NoError(t, sto.Create(ctx, "scores", tab))

	out, err := sto.Table(ctx, "scores")
	require.NoError(t, err)

	if !cmp.Equal(out, tab) {
		t.Fatalf("\n\n%s\n", cmp.Diff(tab, out))
	}

	// Creating the same table again replaces it.
	require.NoError(t, sto.Create(ctx, "scores", table.Table{Col: []string{"id"}, Row: [][]any{{int64(9)}}}))

	out, err = sto.Table(ctx, "scores")
	require.NoError(t, err)

	if out.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", out.Len())
	}
}

func Test_Store_Create_Batches(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)

	tab := table.Table{Col: []string{"a", "b", "c"}}
	for i := 0; i < 2500; i++ {
		tab.Row = append(tab.Row, []any{int64(2500 - i), float64(i) / 2, fmt.Sprintf("r%d", i)})
	}

	require.NoError(t, sto.Create(ctx, "big", tab))

	out, err := sto.Table(ctx, "big")
	require.NoError(t, err)

	if !cmp.Equal(out, tab) {
		t.Fatalf("expected %d rows in insertion order, got %d", tab.Len(), out.Len())
	}
}

func Test_Store_Exec(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)

	lab := table.Table{
		Col: []string{"user", "ts", "label"},
		Row: [][]any{
			{"a", int64(1), int64(0)},
			{"b", int64(2), int64(1)},
			{"c", int64(3), int64(1)},
		},
	}

	require.NoError(t, sto.Create(ctx, "task_train", lab))

	que := `
		DROP TABLE IF EXISTS task_train_feats;
		CREATE TABLE task_train_feats AS
		SELECT user, ts, label, ts * 10 AS feat FROM task_train ORDER BY user DESC;
	`
	require.NoError(t, sto.Exec(ctx, que))

	exi, err := sto.Exists(ctx, "task_train_feats")
	require.NoError(t, err)
	require.True(t, exi)

	out, err := sto.Table(ctx, "task_train_feats")
	require.NoError(t, err)

	exp := table.Table{
		Col: []string{"user", "ts", "label", "feat"},
		Row: [][]any{
			{"c", int64(3), int64(1), int64(30)},
			{"b", int64(2), int64(1), int64(20)},
			{"a", int64(1), int64(0), int64(10)},
		},
	}
	if !cmp.Equal(out, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
	}

	require.NoError(t, sto.Drop(ctx, "task_train_feats"))

	exi, err = sto.Exists(ctx, "task_train_feats")
	require.NoError(t, err)
	require.False(t, exi)
}

func Test_Store_InvalidTable(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)

	testCases := []struct {
		nam string
	}{
		// Case 000
		{
			nam: "users; DROP TABLE users",
		},
		// Case 001
		{
			nam: "",
		},
		// Case 002
		{
			nam: "1users",
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			{
				_, err := sto.Table(ctx, tc.nam)
				if !IsInvalidTable(err) {
					t.Fatalf("expected invalid table error, got %#v", err)
				}
			}

			{
				err := sto.Create(ctx, tc.nam, table.Table{Col: []string{"a"}})
				if !IsInvalidTable(err) {
					t.Fatalf("expected invalid table error, got %#v", err)
				}
			}

			{
				err := sto.Drop(ctx, tc.nam)
				if !IsInvalidTable(err) {
					t.Fatalf("expected invalid table error, got %#v", err)
				}
			}
		})
	}
}

func Test_Store_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	if !IsInvalidConfig(err) {
		t.Fatalf("expected invalid config error, got %#v", err)
	}
}

func Test_Store_Setup(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)
	dir := t.TempDir()

	tesFil(t, filepath.Join(dir, "customer.csv"), "customer_id,name\n1,ann\n2,bob\n")
	tesFil(t, filepath.Join(dir, "review.csv"), "customer_id,rating\n1,4.5\n2,\n1,3\n")
	for _, spl := range []string{"train", "val", "test"} {
		tesFil(t, filepath.Join(dir, "tasks", "user-churn", spl+".csv"), "customer_id,timestamp,churn\n1,100,0\n2,100,1\n")
	}

	dat := registry.Dataset{
		Name:   "rel-test",
		Tables: []string{"customer", "review"},
		Tasks:  []string{"user-churn"},
	}

	require.NoError(t, sto.Setup(ctx, dat, dir))

	for _, nam := range []string{"customer", "review", "user_churn_train", "user_churn_val", "user_churn_test"} {
		exi, err := sto.Exists(ctx, nam)
		require.NoError(t, err)
		require.True(t, exi, nam)
	}

	out, err := sto.Table(ctx, "review")
	require.NoError(t, err)

	exp := table.Table{
		Col: []string{"customer_id", "rating"},
		Row: [][]any{
			{int64(1), 4.5},
			{int64(2), nil},
			{int64(1), float64(3)},
		},
	}
	if !cmp.Equal(out, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
	}
}

func Test_Store_Setup_Missing(t *testing.T) {
	sto := tesSto(t)

	dat := registry.Dataset{
		Name:   "rel-test",
		Tables: []string{"customer"},
	}

	err := sto.Setup(context.Background(), dat, t.TempDir())
	if !IsSourceNotFound(err) {
		t.Fatalf("expected source not found error, got %#v", err)
	}
}

func Test_Store_Read_CSV(t *testing.T) {
	pat := filepath.Join(t.TempDir(), "mixed.csv")
	tesFil(t, pat, "a,b,c,d\n1,1.5,x,\n2,2,7,\n")

	out, err := Read(pat)
	require.NoError(t, err)

	exp := table.Table{
		Col: []string{"a", "b", "c", "d"},
		Row: [][]any{
			{int64(1), 1.5, "x", nil},
			{int64(2), float64(2), "7", nil},
		},
	}
	if !cmp.Equal(out, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
	}
}

func Test_Store_Read_Parquet(t *testing.T) {
	type record struct {
		ID    int64    `parquet:"id"`
		Name  string   `parquet:"name"`
		Score *float64 `parquet:"score,optional"`
	}

	sco := 0.75

	pat := filepath.Join(t.TempDir(), "records.parquet")
	require.NoError(t, parquet.WriteFile(pat, []record{
		{ID: 2, Name: "b", Score: &sco},
		{ID: 1, Name: "a"},
	}))

	out, err := Read(pat)
	require.NoError(t, err)

	exp := table.Table{
		Col: []string{"id", "name", "score"},
		Row: [][]any{
			{int64(2), "b", 0.75},
			{int64(1), "a", nil},
		},
	}
	if !cmp.Equal(out, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
	}
}

func Test_Store_Timestamp(t *testing.T) {
	ctx := context.Background()
	sto := tesSto(t)

	ber := time.FixedZone("CET", 3600)

	lab := table.Table{
		Col: []string{"id", "seen", "label"},
		Row: [][]any{
			{int64(1), time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), int64(0)},
			{int64(2), time.Date(2021, 1, 1, 1, 30, 0, 0, ber), int64(1)},
			{int64(3), time.Date(2021, 6, 1, 12, 0, 0, 123456789, time.UTC), int64(1)},
			{int64(4), nil, int64(0)},
		},
	}

	require.NoError(t, sto.Create(ctx, "events_val", lab))

	exp := table.Table{
		Col: []string{"id", "seen", "label"},
		Row: [][]any{
			{int64(1), time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), int64(0)},
			{int64(2), time.Date(2021, 1, 1, 0, 30, 0, 0, time.UTC), int64(1)},
			{int64(3), time.Date(2021, 6, 1, 12, 0, 0, 123456789, time.UTC), int64(1)},
			{int64(4), nil, int64(0)},
		},
	}

	var out table.Table
	{
		out, err := sto.Table(ctx, "events_val")
		require.NoError(t, err)

		if !cmp.Equal(out, exp) {
			t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
		}

		for _, r := range out.Row[:3] {
			if r[1].(time.Time).Location() != time.UTC {
				t.Fatalf("expected %#v got %#v", time.UTC, r[1].(time.Time).Location())
			}
		}
	}

	{
		que := `
			CREATE TABLE events_val_feats AS
			SELECT id, seen, label, seen AS seen_copy, date(seen) AS day FROM events_val ORDER BY id DESC;
		`
		require.NoError(t, sto.Exec(ctx, que))

		var err error
		out, err = sto.Table(ctx, "events_val_feats")
		require.NoError(t, err)
	}

	{
		fea := table.Table{
			Col: []string{"id", "seen", "label", "seen_copy", "day"},
			Row: [][]any{
				{int64(4), nil, int64(0), nil, nil},
				{int64(3), exp.Row[2][1], int64(1), exp.Row[2][1], "2021-06-01"},
				{int64(2), exp.Row[1][1], int64(1), exp.Row[1][1], "2021-01-01"},
				{int64(1), exp.Row[0][1], int64(0), exp.Row[0][1], "2021-01-01"},
			},
		}

		if !cmp.Equal(out, fea) {
			t.Fatalf("\n\n%s\n", cmp.Diff(fea, out))
		}
	}

	{
		lid, err := exp.Index("id", "seen")
		require.NoError(t, err)
		fid, err := out.Index("id", "seen")
		require.NoError(t, err)

		key := map[string]bool{}
		for _, r := range out.Row {
			key[table.Key(r, fid)] = true
		}

		for i, r := range exp.Row {
			if !key[table.Key(r, lid)] {
				t.Fatalf("expected label row %d to have a feature row", i)
			}
		}
	}
}

func Test_Store_Read_Parquet_Timestamp(t *testing.T) {
	type record struct {
		ID    int64 `parquet:"id"`
		Milli int64 `parquet:"milli,timestamp(millisecond)"`
		Micro int64 `parquet:"micro,timestamp(microsecond)"`
		Nano  int64 `parquet:"nano,timestamp(nanosecond)"`
	}

	tim := time.Date(2022, 3, 4, 5, 6, 7, 891234567, time.UTC)
	pat := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, parquet.WriteFile(pat, []record{
		{ID: 1, Milli: tim.UnixMilli(), Micro: tim.UnixMicro(), Nano: tim.UnixNano()},
		{ID: 2, Milli: tim.Add(time.Hour).UnixMilli(), Micro: tim.UnixMicro(), Nano: tim.UnixNano()},
	}))

	out, err := Read(pat)
	require.NoError(t, err)

	exp := table.Table{
		Col: []string{"id", "milli", "micro", "nano"},
		Row: [][]any{
			{int64(1), tim.Truncate(time.Millisecond), tim.Truncate(time.Microsecond), tim},
			{int64(2), tim.Add(time.Hour).Truncate(time.Millisecond), tim.Truncate(time.Microsecond), tim},
		},
	}
	if !cmp.Equal(out, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, out))
	}

	ctx := context.Background()
	sto := tesSto(t)

	require.NoError(t, sto.Create(ctx, "events", out))

	rou, err := sto.Table(ctx, "events")
	require.NoError(t, err)

	if !cmp.Equal(rou, exp) {
		t.Fatalf("\n\n%s\n", cmp.Diff(exp, rou))
	}
}

func Test_Store_Read_Unsupported(t *testing.T) {
	_, err := Read("data.json")
	if !IsUnsupportedFormat(err) {
		t.Fatalf("expected unsupported format error, got %#v", err)
	}
}

func tesFil(t *testing.T, pat string, con string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(pat), 0755))
	require.NoError(t, os.WriteFile(pat, []byte(con), 0600))
}

func tesSto(t *testing.T) *Store {
	t.Helper()

	sto, err := New(Config{Pat: ":memory:"})
	require.NoError(t, err)

	t.Cleanup(func() { sto.Close() })

	return sto
}
