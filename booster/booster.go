package booster

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/xh3b4sd/relboost"
	"github.com/xh3b4sd/relboost/registry"
	"github.com/xh3b4sd/relboost/table"
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"
)

const (
	LightGBM = "lgbm"
	XGBoost  = "xgb"
)

const (
	Categorical = "categorical"
	Numerical   = "numerical"
	Timestamp   = "timestamp"
)

// Seed is rendered into the training script for reproducible tuning.
const Seed = 42

var tunable = map[string]string{
	"accuracy": "ACCURACY",
	"mae":      "MAE",
	"r2":       "R2",
	"rmse":     "RMSE",
	"roc_auc":  "ROCAUC",
}

type Booster struct {
	// Boo is the gradient boosting library used for tuning, either "lgbm" or
	// "xgb". Defaults to "lgbm".
	Boo string
	Cmd *exec.Cmd
	Deb bool
	// Dro are additional feature columns removed before training.
	Dro []string
	Fil *os.File
	// Ide are the required identifier columns of the task. They are removed
	// from the training data but remain in the caller's tables so that
	// predictions can be realigned afterwards.
	Ide []string
	Log *zap.Logger
	// Met is the required task metric, e.g. "roc_auc" or "mae". It is the
	// objective of hyperparameter tuning.
	Met string
	// Pat is the required working directory in which the training data, the
	// tuned model and its predictions will be put in.
	//
	//	$ tree -L 1 /tmp/relboost/rel-f1/driver-dnf
	//	/tmp/relboost/rel-f1/driver-dnf
	//	├── model.json
	//	├── pre.json
	//	├── tes.csv
	//	├── tra.csv
	//	└── val.csv
	Pat string
	// Pyt is the interpreter executing the rendered script. Defaults to
	// "python3".
	Pyt string
	// Tar is the required target column.
	Tar string
	// Tem is the script template that is first being rendered and persisted,
	// and then executed in a child process.
	Tem string
	// Tri is the number of hyperparameter trials. Defaults to 10.
	Tri int
	// Typ is the required task type, either "binary_classification" or
	// "regression".
	Typ string

	sty []Stype
}

// Stype is the semantic type of a single training column.
type Stype struct {
	Col string
	Sty string
}

func (b *Booster) Execute() ([]byte, error) {
	{
		b.configs()
	}

	if b.tunable() == "" {
		return nil, tracer.Maskf(unsupportedMetricError, "%s", b.Met)
	}

	var buf bytes.Buffer
	{
		t, err := template.New("booster").Funcs(template.FuncMap{"py": literal}).Option("missingkey=error").Parse(b.Tem)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		err = t.Execute(&buf, b.mapping())
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	return buf.Bytes(), nil
}

func (b *Booster) Train(ctx context.Context, tra table.Table, val table.Table, tes table.Table) (relboost.Prediction, error) {
	var err error

	{
		b.configs()
		b.cleanup()
	}

	if !tra.Has(b.Tar) {
		return relboost.Prediction{}, tracer.Maskf(missingTargetError, "%s", b.Tar)
	}

	{
		err = os.MkdirAll(b.Pat, 0755)
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		err = os.Remove(filepath.Join(b.Pat, "pre.json"))
		if err != nil && !os.IsNotExist(err) {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		tra = tra.Drop(b.removed()...)
		val = val.Drop(b.removed()...)
		tes = tes.Drop(b.removed()...)
	}

	{
		b.sty = Stypes(tra, b.Tar, b.Typ)
	}

	for nam, tab := range map[string]table.Table{"tra": tra, "val": val, "tes": tes} {
		err = write(filepath.Join(b.Pat, nam+".csv"), tab)
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	var byt []byte
	{
		byt, err = b.Execute()
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		b.Fil, err = os.CreateTemp("", "relboost-booster-template-*")
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		_, err := b.Fil.Write(byt)
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		err := b.Fil.Close()
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		err = os.WriteFile(b.temfilp(), b.temfilb(), 0664)
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		b.Cmd = exec.CommandContext(ctx, b.Pyt, b.Fil.Name())
	}

	if b.Deb {
		b.Cmd.Stdout = os.Stdout
		b.Cmd.Stderr = os.Stderr
	}

	{
		b.Log.Info("training booster",
			zap.String("booster", b.Boo),
			zap.String("metric", b.Met),
			zap.Int("trials", b.Tri),
			zap.Int("rows", tra.Len()),
			zap.Int("columns", len(b.sty)),
		)
	}

	{
		err := b.Cmd.Start()
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		err := b.Cmd.Wait()
		if ctx.Err() != nil {
			b.cleanup()
			return relboost.Prediction{}, tracer.Maskf(canceledError, "%s", ctx.Err().Error())
		} else if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	{
		b.cleanup()
	}

	var pre relboost.Prediction
	{
		pre, err = read(filepath.Join(b.Pat, "pre.json"))
		if err != nil {
			return relboost.Prediction{}, tracer.Mask(err)
		}
	}

	if len(pre.Val) != val.Len() {
		return relboost.Prediction{}, tracer.Maskf(invalidPredictionError, "val has %d predictions for %d rows", len(pre.Val), val.Len())
	}
	if len(pre.Tes) != tes.Len() {
		return relboost.Prediction{}, tracer.Maskf(invalidPredictionError, "test has %d predictions for %d rows", len(pre.Tes), tes.Len())
	}

	return pre, nil
}

// Stypes infers the semantic type of every column of tab from its first
// non-null value. Columns that only hold nulls are left out. The target column
// is categorical for classification and numerical for regression.
func Stypes(tab table.Table, tar string, typ string) []Stype {
	var out []Stype

	for i, c := range tab.Col {
		var sty string

		if c == tar {
			if typ == registry.BinaryClassification {
				sty = Categorical
			} else {
				sty = Numerical
			}
		} else {
			for _, r := range tab.Row {
				if r[i] == nil {
					continue
				}

				sty = stype(r[i])
				break
			}
		}

		if sty == "" {
			continue
		}

		out = append(out, Stype{Col: c, Sty: sty})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Col < out[j].Col })

	return out
}

func (b *Booster) cleanup() {
	if exists(b.temfilp()) {
		if exists(b.temfilc()) {
			err := os.Remove(b.temfilc())
			if err != nil {
				panic(err)
			}
		}

		err := os.Remove(b.temfilp())
		if err != nil {
			panic(err)
		}
	}
}

func (b *Booster) configs() {
	if len(b.Ide) == 0 {
		panic("Booster.Ide must not be empty")
	}

	if b.Met == "" {
		panic("Booster.Met must not be empty")
	}

	if b.Pat == "" {
		panic("Booster.Pat must not be empty")
	}

	if b.Tar == "" {
		panic("Booster.Tar must not be empty")
	}

	if b.Typ == "" {
		panic("Booster.Typ must not be empty")
	}

	if b.Boo == "" {
		b.Boo = LightGBM
	}

	if b.Log == nil {
		b.Log = zap.NewNop()
	}

	if b.Pyt == "" {
		b.Pyt = "python3"
	}

	if b.Tem == "" {
		b.Tem = deftem
	}

	if b.Tri == 0 {
		b.Tri = 10
	}
}

func (b *Booster) mapping() map[string]interface{} {
	return map[string]interface{}{
		"Boo": b.Boo,
		"Met": b.tunable(),
		"Pat": strings.TrimSuffix(b.Pat, "/"),
		"See": Seed,
		"Sty": b.sty,
		"Tar": b.Tar,
		"Tri": b.Tri,
		"Typ": b.Typ,
	}
}

func (b *Booster) removed() []string {
	var out []string

	out = append(out, b.Ide...)
	out = append(out, b.Dro...)

	return out
}

func (b *Booster) temfilb() []byte {
	return []byte(b.Fil.Name())
}

func (b *Booster) temfilc() string {
	byt, err := os.ReadFile(b.temfilp())
	if err != nil {
		panic(err)
	}

	return strings.TrimSpace(string(byt))
}

func (b *Booster) temfilp() string {
	return filepath.Join(b.Pat, "booster.pat")
}

func (b *Booster) tunable() string {
	return tunable[b.Met]
}

// literal renders s as a quoted string literal that is valid in the rendered
// script.
func literal(s string) (string, error) {
	byt, err := json.Marshal(s)
	if err != nil {
		return "", tracer.Mask(err)
	}

	return string(byt), nil
}

func stype(v any) string {
	switch v.(type) {
	case string, []byte:
		return Categorical
	case time.Time:
		return Timestamp
	}

	_, ok := table.Float(v)
	if ok {
		return Numerical
	}

	return Categorical
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}

	return fmt.Sprint(v)
}

func write(pat string, tab table.Table) error {
	f, err := os.Create(pat)
	if err != nil {
		return tracer.Mask(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	{
		err = w.Write(tab.Col)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	for _, r := range tab.Row {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = cell(v)
		}

		err = w.Write(rec)
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		w.Flush()

		err = w.Error()
		if err != nil {
			return tracer.Mask(err)
		}
	}

	{
		err = f.Close()
		if err != nil {
			return tracer.Mask(err)
		}
	}

	return nil
}

func read(pat string) (relboost.Prediction, error) {
	byt, err := os.ReadFile(pat)
	if err != nil {
		return relboost.Prediction{}, tracer.Maskf(invalidPredictionError, "%s", err.Error())
	}

	var pre relboost.Prediction
	{
		err = json.Unmarshal(byt, &pre)
		if err != nil {
			return relboost.Prediction{}, tracer.Maskf(invalidPredictionError, "%s", err.Error())
		}
	}

	return pre, nil
}
