package pipeline

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var predictionCountError = &tracer.Error{
	Kind: "predictionCountError",
}

func IsPredictionCount(err error) bool {
	return errors.Is(err, predictionCountError)
}
