package differ

import (
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/placemap/pkg/alignment"
)

// Differ handles change detection between runs.
type Differ interface {
	// Records compares the alignment records of two runs.
	Records(existing, updated []alignment.Record) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
	// distances closer than this many meters are equal
	tolerance float64
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
		tolerance:    0.01,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Records compares two sets of alignment records and returns changes.
// Records are matched by their aligned id pair.
func (diff *differ) Records(existing, updated []alignment.Record) *Changeset {
	changeset := &Changeset{
		Added:   []alignment.Record{},
		Updated: []AlignmentUpdate{},
		Removed: []alignment.Record{},
	}

	existingMap := keyed(existing)
	newMap := keyed(updated)

	for _, key := range sortedKeys(newMap) {
		newRecord := newMap[key]
		if existingRecord, exists := existingMap[key]; exists {
			if update := diff.record(key, existingRecord, newRecord); update != nil {
				changeset.Updated = append(changeset.Updated, *update)
			}
			continue
		}
		changeset.Added = append(changeset.Added, newRecord)
	}

	for _, key := range sortedKeys(existingMap) {
		if _, exists := newMap[key]; !exists {
			changeset.Removed = append(changeset.Removed, existingMap[key])
		}
	}

	changeset.Summary = calculateSummary(changeset)
	return changeset
}

// record compares one alignment present in both runs.
func (diff *differ) record(key alignment.Key, existing, updated alignment.Record) *AlignmentUpdate {
	var changes []FieldChange

	if !diff.ignoreFields[FieldAuthorities] {
		changes = appendSetChange(changes, FieldAuthorities, existing.Authorities, updated.Authorities)
	}
	if !diff.ignoreFields[FieldModes] {
		changes = appendSetChange(changes, FieldModes, existing.Modes, updated.Modes)
	}
	if !diff.ignoreFields[FieldProximity] && existing.Proximity != updated.Proximity {
		changes = append(changes, change(FieldProximity, existing.Proximity, updated.Proximity))
	}
	if !diff.ignoreFields[FieldDistance] && !diff.sameDistance(existing.CentroidDistanceM, updated.CentroidDistanceM) {
		changes = append(changes, change(FieldDistance, formatDistance(existing.CentroidDistanceM), formatDistance(updated.CentroidDistanceM)))
	}

	if len(changes) == 0 {
		return nil
	}
	return &AlignmentUpdate{
		Key:      key,
		Existing: existing,
		New:      updated,
		Changes:  changes,
	}
}

func (diff *differ) sameDistance(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	d := *a - *b
	return d <= diff.tolerance && -d <= diff.tolerance
}

// keyed indexes records by their id pair. Records that do not align two
// ids are ignored.
func keyed(records []alignment.Record) map[alignment.Key]alignment.Record {
	out := make(map[alignment.Key]alignment.Record, len(records))
	for _, r := range records {
		if len(r.AlignedIDs) != 2 {
			continue
		}
		out[alignment.NewKey(r.AlignedIDs[0], r.AlignedIDs[1])] = r
	}
	return out
}

func sortedKeys(m map[alignment.Key]alignment.Record) []alignment.Key {
	keys := make([]alignment.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y alignment.Key) int {
		switch {
		case x.Less(y):
			return -1
		case y.Less(x):
			return 1
		default:
			return 0
		}
	})
	return keys
}

// appendSetChange records a change when the two sorted sets differ.
func appendSetChange(changes []FieldChange, path string, old, updated []string) []FieldChange {
	if slices.Equal(old, updated) {
		return changes
	}
	return append(changes, change(path, strings.Join(old, ","), strings.Join(updated, ",")))
}

func change(path, old, updated string) FieldChange {
	t := ChangeTypeUpdate
	switch {
	case old == "":
		t = ChangeTypeAdd
	case updated == "":
		t = ChangeTypeRemove
	}
	return FieldChange{Path: path, OldValue: old, NewValue: updated, Type: t}
}

func formatDistance(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', 2, 64)
}
