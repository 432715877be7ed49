package booster

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidPredictionError = &tracer.Error{
	Kind: "invalidPredictionError",
}

func IsInvalidPrediction(err error) bool {
	return errors.Is(err, invalidPredictionError)
}

var missingTargetError = &tracer.Error{
	Kind: "missingTargetError",
}

func IsMissingTarget(err error) bool {
	return errors.Is(err, missingTargetError)
}

var canceledError = &tracer.Error{
	Kind: "canceledError",
}

func IsCanceled(err error) bool {
	return errors.Is(err, canceledError)
}

var unsupportedMetricError = &tracer.Error{
	Kind: "unsupportedMetricError",
}

func IsUnsupportedMetric(err error) bool {
	return errors.Is(err, unsupportedMetricError)
}
