package table

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var missingColumnError = &tracer.Error{
	Kind: "missingColumnError",
}

func IsMissingColumn(err error) bool {
	return errors.Is(err, missingColumnError)
}
