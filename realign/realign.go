package realign

import (
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"

	"github.com/xh3b4sd/relboost/table"
)

type Realigner struct {
	// Hoo is the optional diagnostic hook called with every permutation
	// computed by Permutation. It must not modify the given slice.
	Hoo func(per []int)
	// Ide is the required ordered list of identifier columns, e.g. user ID and
	// timestamp. Their values must uniquely identify the rows of the feature
	// table as well as the rows of the label table.
	//
	//	[]string{"OwnerUserId", "timestamp"}
	Ide []string
	// Log is the optional logger used for diagnostics.
	Log *zap.Logger
}

// Permutation computes how the feature rows map onto the label rows. For
// every label row i, per[i] is the position of the feature row carrying the
// same identifier key. Every label key must be present in the feature table
// and keys must be unique within each table.
func (r *Realigner) Permutation(fea table.Table, lab table.Table) ([]int, error) {
	{
		r.configs()
	}

	var err error

	var fid []int
	{
		fid, err = fea.Index(r.Ide...)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	var lid []int
	{
		lid, err = lab.Index(r.Ide...)
		if err != nil {
			return nil, tracer.Mask(err)
		}
	}

	pos := make(map[string]int, fea.Len())
	for i, row := range fea.Row {
		k := table.Key(row, fid)

		j, ok := pos[k]
		if ok {
			return nil, tracer.Maskf(duplicateKeyError, "feature rows %d and %d share key %s", j, i, k)
		}

		pos[k] = i
	}

	see := make(map[string]int, lab.Len())
	per := make([]int, lab.Len())
	for i, row := range lab.Row {
		k := table.Key(row, lid)

		j, ok := see[k]
		if ok {
			return nil, tracer.Maskf(duplicateKeyError, "label rows %d and %d share key %s", j, i, k)
		}

		see[k] = i

		p, ok := pos[k]
		if !ok {
			return nil, tracer.Maskf(alignmentKeyError, "label row %d with key %s has no feature row", i, k)
		}

		per[i] = p
	}

	{
		r.diagnose(per)
	}

	return per, nil
}

// Apply reorders pre according to per as computed by Permutation, such that
// the returned sequence is aligned with the label table.
func Apply[T any](per []int, pre []T) ([]T, error) {
	out := make([]T, len(per))

	for i, p := range per {
		if p < 0 || p >= len(pre) {
			return nil, tracer.Maskf(sizeMismatchError, "position %d out of range for %d predictions", p, len(pre))
		}

		out[i] = pre[p]
	}

	return out, nil
}

// Realign returns the predictions pre, computed in the row order of fea, in
// the row order of lab. Rows are matched by the identifier columns ide. The
// result has exactly lab.Len() elements, or an error is returned.
//
//	fea  (A,1) (C,3) (B,2)
//	pre   10    30    20
//	lab  (A,1) (B,2) (C,3)
//	out   10    20    30
func Realign[T any](fea table.Table, lab table.Table, ide []string, pre []T) ([]T, error) {
	if len(pre) != fea.Len() {
		return nil, tracer.Maskf(sizeMismatchError, "%d predictions for %d feature rows", len(pre), fea.Len())
	}

	r := &Realigner{
		Ide: ide,
	}

	per, err := r.Permutation(fea, lab)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	out, err := Apply(per, pre)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return out, nil
}

// Size verifies that the label and feature tables of a split have the same
// number of rows. Callers check this before realigning so that gross upstream
// defects surface with a clear message.
func Size(lab table.Table, fea table.Table) error {
	if lab.Len() != fea.Len() {
		return tracer.Maskf(sizeMismatchError, "%d label rows but %d feature rows", lab.Len(), fea.Len())
	}

	return nil
}

func (r *Realigner) configs() {
	if len(r.Ide) == 0 {
		panic("Realigner.Ide must not be empty")
	}

	if r.Log == nil {
		r.Log = zap.NewNop()
	}
}

func (r *Realigner) diagnose(per []int) {
	var mov int
	for i, p := range per {
		if i != p {
			mov++
		}
	}

	r.Log.Debug("realigned predictions",
		zap.Strings("identifiers", r.Ide),
		zap.Int("rows", len(per)),
		zap.Int("moved", mov),
	)

	if r.Hoo != nil {
		r.Hoo(per)
	}
}
