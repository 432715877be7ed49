package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Key encodes the values found at the given positions of row into a single
// comparable string. Every value is type tagged and length prefixed so that
// distinct tuples never collide, e.g. ("a:b", "c") and ("a", "b:c").
//
//	i3:101|t19:1700000000000000000|
//
// Integral floats encode like integers, so 7 and 7.0 identify the same row.
// Strings and byte slices encode alike. Times are compared as UTC instants.
// All NaN values share one key, so two rows differing only by a NaN
// identifier are duplicates.
func Key(row []any, idx []int) string {
	var sb strings.Builder

	for _, i := range idx {
		tag, val := encode(row[i])

		sb.WriteString(tag)
		sb.WriteString(strconv.Itoa(len(val)))
		sb.WriteByte(':')
		sb.WriteString(val)
		sb.WriteByte('|')
	}

	return sb.String()
}

func encode(v any) (string, string) {
	switch x := v.(type) {
	case nil:
		return "n", ""
	case int:
		return "i", strconv.FormatInt(int64(x), 10)
	case int8:
		return "i", strconv.FormatInt(int64(x), 10)
	case int16:
		return "i", strconv.FormatInt(int64(x), 10)
	case int32:
		return "i", strconv.FormatInt(int64(x), 10)
	case int64:
		return "i", strconv.FormatInt(x, 10)
	case uint:
		return "i", strconv.FormatUint(uint64(x), 10)
	case uint8:
		return "i", strconv.FormatUint(uint64(x), 10)
	case uint16:
		return "i", strconv.FormatUint(uint64(x), 10)
	case uint32:
		return "i", strconv.FormatUint(uint64(x), 10)
	case uint64:
		return "i", strconv.FormatUint(x, 10)
	case uintptr:
		return "i", strconv.FormatUint(uint64(x), 10)
	case float32:
		return number(float64(x))
	case float64:
		return number(x)
	case bool:
		return "b", strconv.FormatBool(x)
	case string:
		return "s", x
	case []byte:
		return "s", string(x)
	case time.Time:
		return "t", strconv.FormatInt(x.UTC().UnixNano(), 10)
	}

	return "v", fmt.Sprintf("%T:%v", v, v)
}

func number(f float64) (string, string) {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return "i", strconv.FormatInt(int64(f), 10)
	}

	return "f", strconv.FormatFloat(f, 'g', -1, 64)
}
