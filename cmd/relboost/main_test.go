package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xh3b4sd/relboost/query"
	"github.com/xh3b4sd/relboost/store"
)

func Test_Main_Format(t *testing.T) {
	testCases := []struct {
		met map[string]float64
		str string
	}{
		// Case 000
		{
			met: map[string]float64{},
			str: "",
		},
		// Case 001
		{
			met: map[string]float64{"roc_auc": 0.81234, "accuracy": 0.75},
			str: "accuracy=0.7500 roc_auc=0.8123",
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			str := format(tc.met)
			if str != tc.str {
				t.Fatalf("expected %#v got %#v", tc.str, str)
			}
		})
	}
}

func Test_Main_Train_InvalidBooster(t *testing.T) {
	rootCmd.SetArgs([]string{"train", "-d", "rel-f1", "-t", "driver-dnf", "-b", "catboost"})
	defer rootCmd.SetArgs(nil)
	defer func() { trainBooster = "lgbm" }()

	_, err := rootCmd.ExecuteC()
	if !IsInvalidFlag(err) {
		t.Fatalf("expected %#v got %#v", true, false)
	}
}

func Test_Main_Setup_Summary(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	yam := filepath.Join(dir, "registry.yaml")

	reg := fmt.Sprintf(`
datasets:
  - name: rel-toy
    database: %s
    tables: [drivers]
    tasks: [driver-dnf]

tasks:
  - dataset: rel-toy
    name: driver-dnf
    dir: %s
    target: did_not_finish
    prefix: dnf
    identifiers: [driverId, date]
    metric: roc_auc
    type: binary_classification
`, filepath.Join(dir, "toy.db"), filepath.Join(dir, "dnf"))

	tesFil(t, yam, reg)
	tesFil(t, filepath.Join(src, "drivers.csv"), "driverId,name\n1,a\n2,b\n")
	for _, s := range []string{"train", "val", "test"} {
		tesFil(t, filepath.Join(src, "tasks", "driver-dnf", s+".csv"), "driverId,date,did_not_finish\n1,2020-01-01,1\n2,2020-01-01,0\n3,2020-01-01,1\n4,2020-01-01,0\n")
	}

	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetOut(nil)

	{
		rootCmd.SetArgs([]string{"setup", "--registry", yam, "-d", "rel-toy", "--source", src})
		_, err := rootCmd.ExecuteC()
		require.NoError(t, err)
	}

	{
		sto, err := store.New(store.Config{Pat: filepath.Join(dir, "toy.db")})
		require.NoError(t, err)

		q := &query.Query{
			Set: "val",
			Tem: `
create table dnf_{{ .Set }}_feats as
select driverId, date, did_not_finish, did_not_finish * 2.0 as twice, driverId > 2 as late
from driver_dnf_{{ .Set }};
`,
		}

		byt, err := q.Execute()
		require.NoError(t, err)
		require.NoError(t, sto.Exec(context.Background(), string(byt)))
		require.NoError(t, sto.Close())
	}

	var out bytes.Buffer
	{
		rootCmd.SetArgs([]string{"summary", "--registry", yam, "-d", "rel-toy", "-t", "driver-dnf", "--split", "val"})
		rootCmd.SetOut(&out)
		_, err := rootCmd.ExecuteC()
		require.NoError(t, err)
	}

	lin := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lin) != 3 {
		t.Fatalf("expected %#v got %#v", 3, len(lin))
	}
	if !strings.HasPrefix(lin[1], "twice") {
		t.Fatalf("expected %#v got %#v", "twice", lin[1])
	}
	if !strings.HasPrefix(lin[2], "late") {
		t.Fatalf("expected %#v got %#v", "late", lin[2])
	}
}

func tesFil(t *testing.T, pat string, con string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(pat), 0755))
	require.NoError(t, os.WriteFile(pat, []byte(con), 0600))
}
