package store

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidConfigError = &tracer.Error{
	Kind: "invalidConfigError",
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, invalidConfigError)
}

var invalidTableError = &tracer.Error{
	Kind: "invalidTableError",
}

func IsInvalidTable(err error) bool {
	return errors.Is(err, invalidTableError)
}

var sourceNotFoundError = &tracer.Error{
	Kind: "sourceNotFoundError",
}

func IsSourceNotFound(err error) bool {
	return errors.Is(err, sourceNotFoundError)
}

var unsupportedFormatError = &tracer.Error{
	Kind: "unsupportedFormatError",
}

func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, unsupportedFormatError)
}
