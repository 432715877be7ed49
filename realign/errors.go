package realign

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

// alignmentKeyError is returned when a label row carries an identifier key
// that no feature row carries.
var alignmentKeyError = &tracer.Error{
	Kind: "alignmentKeyError",
}

func IsAlignmentKey(err error) bool {
	return errors.Is(err, alignmentKeyError)
}

// duplicateKeyError is returned when the identifier columns do not uniquely
// identify the rows of either the feature or the label table.
var duplicateKeyError = &tracer.Error{
	Kind: "duplicateKeyError",
}

func IsDuplicateKey(err error) bool {
	return errors.Is(err, duplicateKeyError)
}

// sizeMismatchError is returned when two sequences that must correspond row
// by row differ in length.
var sizeMismatchError = &tracer.Error{
	Kind: "sizeMismatchError",
}

func IsSizeMismatch(err error) bool {
	return errors.Is(err, sizeMismatchError)
}
