package query

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidContextError = &tracer.Error{
	Kind: "invalidContextError",
}

func IsInvalidContext(err error) bool {
	return errors.Is(err, invalidContextError)
}

var invalidIdentifierError = &tracer.Error{
	Kind: "invalidIdentifierError",
}

func IsInvalidIdentifier(err error) bool {
	return errors.Is(err, invalidIdentifierError)
}
