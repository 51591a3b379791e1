package report

import (
	"cmp"
	"slices"

	"github.com/agentstation/placemap/pkg/errors"
)

// SortField names a report column that entries can be ordered by.
type SortField string

const (
	SortAlignedIDs       SortField = "aligned_ids"
	SortHash             SortField = "hash"
	SortCentroidDistance SortField = "centroid_distance"
	SortModes            SortField = "modes"
)

// SortKey orders entries by one field.
type SortKey struct {
	Field   SortField
	Reverse bool
}

// ParseSortKey reads a field name and an order of "forward" or "reverse".
// An empty order means forward.
func ParseSortKey(field, order string) (SortKey, error) {
	key := SortKey{Field: SortField(field)}
	if _, err := key.compare(); err != nil {
		return SortKey{}, err
	}
	switch order {
	case "", "forward":
	case "reverse":
		key.Reverse = true
	default:
		return SortKey{}, errors.NewValidationError("sort.order", order, "must be forward or reverse")
	}
	return key, nil
}

func (k SortKey) compare() (func(a, b Entry) int, error) {
	switch k.Field {
	case SortAlignedIDs:
		return func(a, b Entry) int { return slices.Compare(a.AlignedIDs, b.AlignedIDs) }, nil
	case SortHash:
		return func(a, b Entry) int { return cmp.Compare(a.Hash, b.Hash) }, nil
	case SortCentroidDistance:
		return func(a, b Entry) int { return cmp.Compare(a.CentroidDistance, b.CentroidDistance) }, nil
	case SortModes:
		return func(a, b Entry) int { return slices.Compare(a.Modes, b.Modes) }, nil
	default:
		return nil, errors.NewValidationError("sort.field", string(k.Field),
			"must be one of aligned_ids, hash, centroid_distance, modes")
	}
}

// Sort orders entries in place, applying keys in sequence with a stable
// sort each time.
func Sort(entries []Entry, keys []SortKey) error {
	for _, k := range keys {
		fn, err := k.compare()
		if err != nil {
			return err
		}
		if k.Reverse {
			forward := fn
			fn = func(a, b Entry) int { return forward(b, a) }
		}
		slices.SortStableFunc(entries, fn)
	}
	return nil
}
