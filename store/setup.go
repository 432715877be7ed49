package store

import (
	"context"
	"path/filepath"

	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"

	"github.com/xh3b4sd/relboost"
	"github.com/xh3b4sd/relboost/registry"
)

// Setup materializes the dataset dat into the store. The dataset must already
// be available locally in dir, laid out as follows.
//
//	$ tree dir
//	dir
//	├── customer.parquet
//	├── product.parquet
//	├── review.parquet
//	└── tasks
//	    ├── user-churn
//	    │   ├── test.parquet
//	    │   ├── train.parquet
//	    │   └── val.parquet
//	    └── user-ltv
//	        └── ...
//
// Dataset tables keep their names. Task splits become label tables named like
// user_churn_train. CSV files may be used instead of parquet files.
func (s *Store) Setup(ctx context.Context, dat registry.Dataset, dir string) error {
	for _, t := range dat.Tables {
		err := s.ingest(ctx, t, filepath.Join(dir, t))
		if err != nil {
			return tracer.Mask(err)
		}
	}

	for _, t := range dat.Tasks {
		for _, spl := range relboost.Splits {
			err := s.ingest(ctx, registry.Labels(t, spl), filepath.Join(dir, "tasks", t, spl))
			if err != nil {
				return tracer.Mask(err)
			}
		}
	}

	s.log.Info("materialized dataset", zap.String("dataset", dat.Name), zap.Int("tables", len(dat.Tables)), zap.Int("tasks", len(dat.Tasks)))

	return nil
}

func (s *Store) ingest(ctx context.Context, nam string, pat string) error {
	fil, err := Find(pat)
	if err != nil {
		return tracer.Mask(err)
	}

	tab, err := Read(fil)
	if err != nil {
		return tracer.Mask(err)
	}

	err = s.Create(ctx, nam, tab)
	if err != nil {
		return tracer.Mask(err)
	}

	s.log.Debug("ingested table", zap.String("table", nam), zap.String("file", fil), zap.Int("rows", tab.Len()))

	return nil
}
