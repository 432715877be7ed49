package summary

import (
	"math"
	"sort"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/stat"

	"github.com/xh3b4sd/relboost/table"
)

// Bins is the number of equal frequency bins continuous values are
// discretized into for estimating mutual information.
const Bins = 10

// Feature describes how a single feature column relates to the label.
type Feature struct {
	Name string
	// Cor is the Pearson correlation with the label over all rows where both
	// values are present.
	Cor float64
	// Mut is the mutual information with the label in nats.
	Mut float64
	// Nan is the share of rows without a value.
	Nan float64
}

// Summarize describes every numeric feature column of tab with respect to the
// label column tar, sorted by mutual information in descending order. The
// label is treated as discrete if cla is true. Columns holding any value
// without numeric representation are skipped.
func Summarize(tab table.Table, tar string, cla bool) ([]Feature, error) {
	y, err := tab.Float(tar)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	var yla []int
	if cla {
		yla = discrete(y)
	} else {
		yla = binned(y, Bins)
	}

	var out []Feature
	for i, c := range tab.Col {
		if c == tar || !numeric(tab, i) {
			continue
		}

		x, err := tab.Float(c)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		out = append(out, Feature{
			Name: c,
			Cor:  correlation(x, y),
			Mut:  mutual(binned(fill(x, -1), Bins), yla),
			Nan:  missing(x),
		})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Mut > out[b].Mut })

	return out, nil
}

func numeric(tab table.Table, i int) bool {
	for _, r := range tab.Row {
		if r[i] == nil {
			continue
		}

		switch r[i].(type) {
		case string, []byte:
			return false
		}

		_, ok := table.Float(r[i])
		if !ok {
			return false
		}
	}

	return true
}

func correlation(x []float64, y []float64) float64 {
	var a, b []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}

		a = append(a, x[i])
		b = append(b, y[i])
	}

	if len(a) < 2 {
		return math.NaN()
	}

	return stat.Correlation(a, b, nil)
}

func missing(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var n float64
	for _, v := range x {
		if math.IsNaN(v) {
			n++
		}
	}

	return n / float64(len(x))
}

func fill(x []float64, v float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if math.IsNaN(x[i]) {
			out[i] = v
		} else {
			out[i] = x[i]
		}
	}

	return out
}
