package table

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/xh3b4sd/tracer"
)

// Table is an ordered, in-memory sequence of rows. Every row carries one value
// per column in Col. Values are whatever the underlying store or file reader
// produced, usually int64, float64, string, []byte, bool, time.Time or nil.
type Table struct {
	Col []string
	Row [][]any
}

func (t Table) Len() int {
	return len(t.Row)
}

// Index resolves the positions of the given columns. The order of the
// returned positions follows the order of the given column names.
func (t Table) Index(col ...string) ([]int, error) {
	var idx []int

	for _, c := range col {
		i := t.position(c)
		if i < 0 {
			return nil, tracer.Maskf(missingColumnError, "%s", c)
		}

		idx = append(idx, i)
	}

	return idx, nil
}

// Has returns whether the table carries the given column.
func (t Table) Has(col string) bool {
	return t.position(col) >= 0
}

// Column returns all values of a single column in row order.
func (t Table) Column(col string) ([]any, error) {
	idx, err := t.Index(col)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	val := make([]any, len(t.Row))
	for i, r := range t.Row {
		val[i] = r[idx[0]]
	}

	return val, nil
}

// Float returns all values of a single column converted to float64. Null
// values and values without numeric representation become NaN.
func (t Table) Float(col string) ([]float64, error) {
	val, err := t.Column(col)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	flo := make([]float64, len(val))
	for i, v := range val {
		f, ok := Float(v)
		if !ok {
			f = math.NaN()
		}

		flo[i] = f
	}

	return flo, nil
}

// Drop returns a copy of the table without the given columns. Unknown columns
// are ignored. Row order is preserved.
func (t Table) Drop(col ...string) Table {
	rem := map[string]bool{}
	for _, c := range col {
		rem[c] = true
	}

	var kee []int
	var out Table
	for i, c := range t.Col {
		if rem[c] {
			continue
		}

		kee = append(kee, i)
		out.Col = append(out.Col, c)
	}

	out.Row = make([][]any, len(t.Row))
	for i, r := range t.Row {
		row := make([]any, len(kee))
		for j, k := range kee {
			row[j] = r[k]
		}

		out.Row[i] = row
	}

	return out
}

// Sample returns n rows drawn without replacement using a deterministic
// source seeded with see. The sampled rows keep their relative order. If n is
// not smaller than the number of rows the table is returned as is.
func (t Table) Sample(n int, see int64) Table {
	if n <= 0 || n >= len(t.Row) {
		return t
	}

	var sel []bool
	{
		sel = make([]bool, len(t.Row))
		for _, i := range rand.New(rand.NewSource(see)).Perm(len(t.Row))[:n] {
			sel[i] = true
		}
	}

	out := Table{Col: t.Col}
	for i, r := range t.Row {
		if sel[i] {
			out.Row = append(out.Row, r)
		}
	}

	return out
}

// Float converts a single cell value to float64. The second return value is
// false for null and non-numeric values.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case time.Time:
		return float64(x.Unix()), true
	}

	return 0, false
}

func (t Table) position(col string) int {
	for i, c := range t.Col {
		if c == col {
			return i
		}
	}

	return -1
}
