package relboost

import (
	"context"

	"github.com/xh3b4sd/relboost/table"
)

const (
	Train = "train"
	Val   = "val"
	Test  = "test"
)

// Splits lists the evaluation splits in the order they are generated.
var Splits = []string{Train, Val, Test}

// Prediction holds the model outputs for the validation and test splits,
// each positionally aligned with the feature table it was computed from.
type Prediction struct {
	Val []float64 `json:"val"`
	Tes []float64 `json:"tes"`
}

// Store describes the analytical database that feature and label tables are
// materialized into and read from.
type Store interface {
	// Exec runs a rendered SQL script, typically creating a feature table for
	// a single split.
	Exec(context.Context, string) error
	// Table reads all rows of the named table in insertion order.
	Table(context.Context, string) (table.Table, error)
}

// Booster describes how a gradient boosted tree model is tuned on the train
// split and used for predictions on the validation and test splits.
//
//	pre, err := boo.Train(ctx, tra, val, tes)
//
// The returned predictions follow the row order of the given val and tes
// tables. They must be realigned before being compared to label tables.
type Booster interface {
	Train(ctx context.Context, tra table.Table, val table.Table, tes table.Table) (Prediction, error)
}
