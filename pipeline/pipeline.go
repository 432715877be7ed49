package pipeline

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xh3b4sd/relboost"
	"github.com/xh3b4sd/relboost/metric"
	"github.com/xh3b4sd/relboost/query"
	"github.com/xh3b4sd/relboost/realign"
	"github.com/xh3b4sd/relboost/registry"
	"github.com/xh3b4sd/relboost/table"
)

// Seed drives the deterministic subsampling of the train features.
const Seed = 42

type Pipeline struct {
	// Boo is the required booster tuned on the train features.
	Boo relboost.Booster
	// Gen generates the feature tables of all splits from Tem before loading
	// them. Otherwise the feature tables must already exist in Sto.
	Gen bool
	Log *zap.Logger
	Met *Metrics
	// Sto is the required store holding label and feature tables.
	Sto relboost.Store
	// Sub restricts training to this many train rows. Zero means all rows.
	// With Gen the restriction is left to the feature template, otherwise the
	// loaded train features are sampled.
	Sub int
	// Tas is the required task to train and evaluate.
	Tas registry.Task
	// Tem is the feature SQL template, required with Gen.
	Tem string
}

// Result holds the evaluation metrics of a single task, keyed by metric name.
type Result struct {
	Tas registry.Task
	Val map[string]float64
	Tes map[string]float64
}

func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	{
		p.configs()
	}

	var err error

	if p.Gen {
		err = p.stage("generate", func() error { return p.generate(ctx) })
		if err != nil {
			return Result{}, tracer.Mask(err)
		}
	}

	fea := map[string]table.Table{}
	lab := map[string]table.Table{}
	{
		err = p.stage("load", func() error {
			for _, s := range relboost.Splits {
				fea[s], err = p.Sto.Table(ctx, p.Tas.Features(s))
				if err != nil {
					return tracer.Mask(err)
				}
			}

			for _, s := range []string{relboost.Val, relboost.Test} {
				lab[s], err = p.Sto.Table(ctx, p.Tas.Labels(s))
				if err != nil {
					return tracer.Mask(err)
				}
			}

			return nil
		})
		if err != nil {
			return Result{}, tracer.Mask(err)
		}
	}

	if p.Sub > 0 && !p.Gen {
		fea[relboost.Train] = fea[relboost.Train].Sample(p.Sub, Seed)
	}

	{
		p.Log.Info("loaded features",
			zap.String("task", p.Tas.Name),
			zap.Int("train", fea[relboost.Train].Len()),
			zap.Int("val", fea[relboost.Val].Len()),
			zap.Int("test", fea[relboost.Test].Len()),
		)
	}

	var pre relboost.Prediction
	{
		err = p.stage("train", func() error {
			pre, err = p.Boo.Train(ctx, fea[relboost.Train], fea[relboost.Val], fea[relboost.Test])
			if err != nil {
				return tracer.Mask(err)
			}

			return nil
		})
		if err != nil {
			return Result{}, tracer.Mask(err)
		}
	}

	res := Result{
		Tas: p.Tas,
	}

	{
		g := &errgroup.Group{}

		g.Go(func() error {
			var err error

			res.Val, err = p.evaluate(relboost.Val, fea[relboost.Val], lab[relboost.Val], pre.Val)
			if err != nil {
				return tracer.Mask(err)
			}

			return nil
		})

		g.Go(func() error {
			var err error

			res.Tes, err = p.evaluate(relboost.Test, fea[relboost.Test], lab[relboost.Test], pre.Tes)
			if err != nil {
				return tracer.Mask(err)
			}

			return nil
		})

		err = g.Wait()
		if err != nil {
			return Result{}, tracer.Mask(err)
		}
	}

	return res, nil
}

func (p *Pipeline) configs() {
	if p.Boo == nil {
		panic("Pipeline.Boo must not be empty")
	}

	if p.Sto == nil {
		panic("Pipeline.Sto must not be empty")
	}

	if p.Tas.Name == "" {
		panic("Pipeline.Tas must not be empty")
	}

	if p.Gen && p.Tem == "" {
		panic("Pipeline.Tem must not be empty")
	}

	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	if p.Met == nil {
		p.Met = NewMetrics(prometheus.NewRegistry())
	}
}

// evaluate realigns the predictions of a single split onto its label rows and
// scores them against the task target.
func (p *Pipeline) evaluate(spl string, fea table.Table, lab table.Table, pre []float64) (map[string]float64, error) {
	var err error

	var ali []float64
	{
		ali, err = p.realign(spl, fea, lab, pre)
		if err != nil {
			p.Met.fai.WithLabelValues(p.Tas.Name, spl).Inc()
			return nil, tracer.Mask(err)
		}
	}

	var y []float64
	{
		y, err = lab.Float(p.Tas.Target)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var out map[string]float64
	{
		out, err = metric.Evaluate(p.Tas.Type, y, ali)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	{
		fie := []zap.Field{
			zap.String("task", p.Tas.Name),
			zap.String("split", spl),
		}

		for _, k := range metric.Names(p.Tas.Type) {
			fie = append(fie, zap.Float64(k, out[k]))
		}

		p.Log.Info("evaluated predictions", fie...)
	}

	return out, nil
}

func (p *Pipeline) generate(ctx context.Context) error {
	for _, s := range relboost.Splits {
		q := &query.Query{
			Set: s,
			Sub: p.Sub,
			Tem: p.Tem,
		}

		byt, err := q.Execute()
		if err != nil {
			return tracer.Mask(err)
		}

		p.Log.Debug("generating features",
			zap.String("task", p.Tas.Name),
			zap.String("split", s),
			zap.String("table", p.Tas.Features(s)),
		)

		err = p.Sto.Exec(ctx, string(byt))
		if err != nil {
			return tracer.Mask(err)
		}
	}

	return nil
}

func (p *Pipeline) realign(spl string, fea table.Table, lab table.Table, pre []float64) ([]float64, error) {
	{
		err := realign.Size(lab, fea)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	if len(pre) != fea.Len() {
		return nil, tracer.Maskf(predictionCountError, "%s has %d predictions for %d feature rows", spl, len(pre), fea.Len())
	}

	r := &realign.Realigner{
		Hoo: func(per []int) {
			p.Met.row.WithLabelValues(p.Tas.Name, spl).Add(float64(len(per)))
		},
		Ide: p.Tas.Identifiers,
		Log: p.Log.With(zap.String("task", p.Tas.Name), zap.String("split", spl)),
	}

	per, err := r.Permutation(fea, lab)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	out, err := realign.Apply(per, pre)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return out, nil
}

func (p *Pipeline) stage(nam string, fun func() error) error {
	sta := time.Now()

	err := fun()

	p.Met.dur.WithLabelValues(p.Tas.Name, nam).Observe(time.Since(sta).Seconds())

	return err
}
