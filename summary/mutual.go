package summary

import (
	"math"
	"sort"
)

// mutual computes the plug-in estimate of the mutual information between two
// discrete variables given as label sequences of equal length. Values are in
// nats and not on the scale of k-nearest-neighbour estimators.
func mutual(x []int, y []int) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}

	px := map[int]float64{}
	py := map[int]float64{}
	pxy := map[[2]int]float64{}
	for i := range x {
		px[x[i]]++
		py[y[i]]++
		pxy[[2]int{x[i], y[i]}]++
	}

	var mi float64
	for k, c := range pxy {
		mi += c / n * math.Log(c*n/(px[k[0]]*py[k[1]]))
	}

	if mi < 0 {
		return 0
	}

	return mi
}

// discrete maps every distinct value to its own label. NaN values share a
// label.
func discrete(v []float64) []int {
	lab := map[float64]int{}
	out := make([]int, len(v))

	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = -1
			continue
		}

		l, ok := lab[x]
		if !ok {
			l = len(lab)
			lab[x] = l
		}

		out[i] = l
	}

	return out
}

// binned assigns every value to one of at most k equal frequency bins. Equal
// values always share a bin. NaN values share a separate bin.
func binned(v []float64, k int) []int {
	var val []float64
	for _, x := range v {
		if !math.IsNaN(x) {
			val = append(val, x)
		}
	}

	if len(val) == 0 {
		return make([]int, len(v))
	}

	sort.Float64s(val)

	var edg []float64
	for i := 1; i < k; i++ {
		e := val[i*len(val)/k]
		if len(edg) == 0 || e > edg[len(edg)-1] {
			edg = append(edg, e)
		}
	}

	out := make([]int, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = -1
			continue
		}

		out[i] = sort.Search(len(edg), func(j int) bool { return edg[j] > x })
	}

	return out
}
