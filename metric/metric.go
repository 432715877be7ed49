package metric

import (
	"math"
	"sort"

	"github.com/xh3b4sd/tracer"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/xh3b4sd/relboost/registry"
)

// Threshold is the probability at and above which a binary prediction counts
// as positive.
const Threshold = 0.5

var scorers = map[string]func(y []float64, p []float64) float64{
	"accuracy":          Accuracy,
	"average_precision": AveragePrecision,
	"f1":                F1,
	"mae":               MAE,
	"r2":                R2,
	"rmse":              RMSE,
	"roc_auc":           ROCAUC,
}

var suites = map[string][]string{
	registry.BinaryClassification: {"accuracy", "average_precision", "f1", "roc_auc"},
	registry.Regression:           {"mae", "r2", "rmse"},
}

// Evaluate computes every metric applicable to the task type typ. The labels y
// and the predictions p must be aligned and of equal length.
func Evaluate(typ string, y []float64, p []float64) (map[string]float64, error) {
	nam, ok := suites[typ]
	if !ok {
		return nil, tracer.Maskf(unknownMetricError, "task type %q", typ)
	}

	out := map[string]float64{}
	for _, n := range nam {
		s, err := Score(n, y, p)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		out[n] = s
	}

	return out, nil
}

// Names returns the metric names Evaluate computes for the task type typ.
func Names(typ string) []string {
	return append([]string(nil), suites[typ]...)
}

// Score computes the single metric nam.
func Score(nam string, y []float64, p []float64) (float64, error) {
	fun, ok := scorers[nam]
	if !ok {
		return 0, tracer.Maskf(unknownMetricError, "%q", nam)
	}

	if len(y) != len(p) {
		return 0, tracer.Maskf(invalidInputError, "%d labels but %d predictions", len(y), len(p))
	}
	if len(y) == 0 {
		return 0, tracer.Maskf(invalidInputError, "no labels")
	}

	for i := range y {
		if math.IsNaN(y[i]) || math.IsNaN(p[i]) {
			return 0, tracer.Maskf(invalidInputError, "NaN at position %d", i)
		}
	}

	return fun(y, p), nil
}

// ROCAUC is the area under the receiver operating characteristic curve of the
// scores p against the binary labels y. Labels must be 0 or 1. The result is
// NaN if only one class is present.
func ROCAUC(y []float64, p []float64) float64 {
	sco := append([]float64(nil), p...)
	cla := make([]bool, len(y))
	for i := range y {
		cla[i] = y[i] == 1
	}

	stat.SortWeightedLabeled(sco, cla, nil)

	tpr, fpr, _ := stat.ROC(nil, sco, cla, nil)
	if len(tpr) < 2 || math.IsNaN(tpr[len(tpr)-1]) || math.IsNaN(fpr[len(fpr)-1]) {
		return math.NaN()
	}

	return integrate.Trapezoidal(fpr, tpr)
}

// AveragePrecision summarizes the precision-recall curve as the mean of the
// precision values at the rank of every positive label. Tied scores are
// ranked together.
func AveragePrecision(y []float64, p []float64) float64 {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] > p[idx[b]] })

	var pos float64
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}
	if pos == 0 {
		return math.NaN()
	}

	var tp, fp, sum float64
	for i := 0; i < len(idx); {
		j := i
		var gtp float64
		for j < len(idx) && p[idx[j]] == p[idx[i]] {
			if y[idx[j]] == 1 {
				gtp++
			} else {
				fp++
			}
			j++
		}

		tp += gtp
		sum += gtp * tp / (tp + fp)

		i = j
	}

	return sum / pos
}

func Accuracy(y []float64, p []float64) float64 {
	var hit float64
	for i := range y {
		if class(p[i]) == y[i] {
			hit++
		}
	}

	return hit / float64(len(y))
}

func F1(y []float64, p []float64) float64 {
	var tp, fp, fn float64
	for i := range y {
		c := class(p[i])

		switch {
		case c == 1 && y[i] == 1:
			tp++
		case c == 1 && y[i] == 0:
			fp++
		case c == 0 && y[i] == 1:
			fn++
		}
	}

	if tp == 0 {
		return 0
	}

	return 2 * tp / (2*tp + fp + fn)
}

func MAE(y []float64, p []float64) float64 {
	d := make([]float64, len(y))
	for i := range y {
		d[i] = math.Abs(p[i] - y[i])
	}

	return stat.Mean(d, nil)
}

func RMSE(y []float64, p []float64) float64 {
	d := make([]float64, len(y))
	for i := range y {
		d[i] = (p[i] - y[i]) * (p[i] - y[i])
	}

	return math.Sqrt(stat.Mean(d, nil))
}

func R2(y []float64, p []float64) float64 {
	return stat.RSquaredFrom(p, y, nil)
}

func class(p float64) float64 {
	if p >= Threshold {
		return 1
	}

	return 0
}
