package registry

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidRegistryError = &tracer.Error{
	Kind: "invalidRegistryError",
}

func IsInvalidRegistry(err error) bool {
	return errors.Is(err, invalidRegistryError)
}

var notFoundError = &tracer.Error{
	Kind: "notFoundError",
}

func IsNotFound(err error) bool {
	return errors.Is(err, notFoundError)
}
