package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
	"github.com/xh3b4sd/tracer"

	"github.com/xh3b4sd/relboost/table"
)

// Extensions lists the file formats Read understands, in lookup order.
var Extensions = []string{".parquet", ".csv"}

// Read loads a parquet or CSV file into memory. Parquet files must have a
// flat schema. CSV files must carry a header row. CSV cells are typed per
// column as int64, float64 or string, empty cells become null.
func Read(pat string) (table.Table, error) {
	switch strings.ToLower(filepath.Ext(pat)) {
	case ".parquet":
		tab, err := readParquet(pat)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
		return tab, nil
	case ".csv":
		tab, err := readCSV(pat)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
		return tab, nil
	}

	return table.Table{}, tracer.Maskf(unsupportedFormatError, "%s", pat)
}

// Find returns the first existing file pat+ext for the supported extensions.
func Find(pat string) (string, error) {
	for _, e := range Extensions {
		if exists(pat + e) {
			return pat + e, nil
		}
	}

	return "", tracer.Maskf(sourceNotFoundError, "%s%v", pat, Extensions)
}

func readParquet(pat string) (table.Table, error) {
	var err error

	var fil *os.File
	{
		fil, err = os.Open(pat)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
		defer fil.Close()
	}

	var inf os.FileInfo
	{
		inf, err = fil.Stat()
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	var pqt *parquet.File
	{
		pqt, err = parquet.OpenFile(fil, inf.Size())
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	var out table.Table
	var uni []*format.TimeUnit
	for _, p := range pqt.Schema().Columns() {
		out.Col = append(out.Col, strings.Join(p, "."))
		uni = append(uni, timestamp(pqt.Schema(), p))
	}

	rea := parquet.NewReader(pqt)
	defer rea.Close()

	buf := make([]parquet.Row, 256)
	for {
		n, err := rea.ReadRows(buf)

		for _, r := range buf[:n] {
			val := make([]any, len(out.Col))
			for _, v := range r {
				c := v.Column()
				if c < 0 || c >= len(val) {
					continue
				}

				val[c] = value(v, uni[c])
			}

			out.Row = append(out.Row, val)
		}

		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	return out, nil
}

func timestamp(sch *parquet.Schema, pat []string) *format.TimeUnit {
	lea, ok := sch.Lookup(pat...)
	if !ok {
		return nil
	}

	lt := lea.Node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return nil
	}

	return &lt.Timestamp.Unit
}

func value(v parquet.Value, uni *format.TimeUnit) any {
	if v.IsNull() {
		return nil
	}

	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		if uni != nil {
			return unix(v.Int64(), *uni)
		}
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}

	return fmt.Sprint(v)
}

func unix(n int64, uni format.TimeUnit) time.Time {
	switch {
	case uni.Millis != nil:
		return time.UnixMilli(n).UTC()
	case uni.Micros != nil:
		return time.UnixMicro(n).UTC()
	}

	return time.Unix(0, n).UTC()
}

func readCSV(pat string) (table.Table, error) {
	var err error

	var fil *os.File
	{
		fil, err = os.Open(pat)
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
		defer fil.Close()
	}

	var rec [][]string
	{
		rec, err = csv.NewReader(fil).ReadAll()
		if err != nil {
			return table.Table{}, tracer.Mask(err)
		}
	}

	if len(rec) == 0 {
		return table.Table{}, tracer.Maskf(unsupportedFormatError, "%s has no header", pat)
	}

	out := table.Table{
		Col: rec[0],
		Row: make([][]any, len(rec)-1),
	}

	for i := range out.Row {
		out.Row[i] = make([]any, len(out.Col))
	}

	for c := range out.Col {
		kin := column(rec[1:], c)

		for i, r := range rec[1:] {
			out.Row[i][c] = cell(r[c], kin)
		}
	}

	return out, nil
}

const (
	kindInt = iota
	kindFloat
	kindString
)

// column determines the narrowest kind all non-empty cells of column c can be
// parsed as.
func column(rec [][]string, c int) int {
	kin := kindInt

	for _, r := range rec {
		s := r[c]
		if s == "" {
			continue
		}

		if kin == kindInt {
			_, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				continue
			}
			kin = kindFloat
		}

		if kin == kindFloat {
			_, err := strconv.ParseFloat(s, 64)
			if err == nil {
				continue
			}
			kin = kindString
		}

		return kindString
	}

	return kin
}

func cell(s string, kin int) any {
	if s == "" {
		return nil
	}

	switch kin {
	case kindInt:
		i, _ := strconv.ParseInt(s, 10, 64)
		return i
	case kindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}

	return s
}
