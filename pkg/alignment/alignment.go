// Package alignment defines the Alignment entity: an assertion that two
// namespace-qualified place ids denote the same real-world place, together
// with the evidence (authorities, modes, proximity) gathered for it.
//
// The identity of an Alignment is the unordered pair of its ids and
// nothing else, so detections of the same pair by different strategies
// collapse into one record when registered with an aligner.
package alignment

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
)

// Key is the identity of an alignment: its two ids in sorted order.
type Key struct {
	A, B string
}

// NewKey builds the key of an unordered pair.
func NewKey(id1, id2 string) Key {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return Key{A: id1, B: id2}
}

// String renders the key as "a >< b".
func (k Key) String() string {
	return k.A + " >< " + k.B
}

// Hash is a stable FNV-64a digest of the key.
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.String()))
	return h.Sum64()
}

// Less orders keys lexically.
func (k Key) Less(o Key) bool {
	if k.A != o.A {
		return k.A < o.A
	}
	return k.B < o.B
}

// Distances are the centroid-to-centroid separations recorded by a
// proximity detection.
type Distances struct {
	DecimalDegrees float64
	Meters         float64
}

// Alignment is a detected correspondence between exactly two places.
type Alignment struct {
	key         Key
	namespaces  set
	authorities set
	authorityNS set
	modes       map[Mode]struct{}
	proximity   set
	distances   *Distances
}

// Option configures a new alignment.
type Option func(*Alignment) error

// WithAuthority records the qualified id vouching for the alignment.
func WithAuthority(qid string) Option {
	return func(a *Alignment) error {
		return a.AddAuthority(qid)
	}
}

// WithProximity attaches a proximity category label.
func WithProximity(label string) Option {
	return func(a *Alignment) error {
		a.AddProximity(label)
		return nil
	}
}

// WithDistances attaches precomputed centroid distances.
func WithDistances(dd, meters float64) Option {
	return func(a *Alignment) error {
		a.distances = &Distances{DecimalDegrees: dd, Meters: meters}
		return nil
	}
}

// New creates an alignment between two distinct qualified ids.
func New(id1, id2 string, mode Mode, opts ...Option) (*Alignment, error) {
	if !mode.Valid() {
		return nil, unsupported(string(mode))
	}
	if id1 == id2 {
		return nil, errors.NewValidationError("aligned_ids", id1, "an alignment needs two distinct ids")
	}
	ns1, err := places.Namespace(id1)
	if err != nil {
		return nil, err
	}
	ns2, err := places.Namespace(id2)
	if err != nil {
		return nil, err
	}

	a := &Alignment{
		key:         NewKey(id1, id2),
		namespaces:  newSet(ns1, ns2),
		authorities: newSet(),
		authorityNS: newSet(),
		modes:       map[Mode]struct{}{mode: {}},
		proximity:   newSet(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if mode != ModeProximity && (len(a.proximity) > 0 || a.distances != nil) {
		return nil, errors.NewValidationError("proximity", mode, "proximity evidence requires the proximity mode")
	}
	return a, nil
}

// Key returns the identity of the alignment.
func (a *Alignment) Key() Key {
	return a.key
}

// Hash returns the digest of the identity.
func (a *Alignment) Hash() uint64 {
	return a.key.Hash()
}

// String implements fmt.Stringer.
func (a *Alignment) String() string {
	return fmt.Sprintf("<Alignment: %s>", a.key)
}

// AlignedIDs returns the two ids, sorted.
func (a *Alignment) AlignedIDs() []string {
	return []string{a.key.A, a.key.B}
}

// Other returns the endpoint opposite id, or "" if id is not an endpoint.
func (a *Alignment) Other(id string) string {
	switch id {
	case a.key.A:
		return a.key.B
	case a.key.B:
		return a.key.A
	}
	return ""
}

// Contains reports whether id is one of the endpoints.
func (a *Alignment) Contains(id string) bool {
	return id == a.key.A || id == a.key.B
}

// IDNamespaces returns the namespaces of the two ids, sorted.
func (a *Alignment) IDNamespaces() []string {
	return a.namespaces.sorted()
}

// HasIDNamespace reports whether either id belongs to namespace.
func (a *Alignment) HasIDNamespace(namespace string) bool {
	return a.namespaces.has(namespace)
}

// Authorities returns the vouching ids, sorted.
func (a *Alignment) Authorities() []string {
	return a.authorities.sorted()
}

// AuthorityNamespaces returns the namespaces of the authorities, sorted.
func (a *Alignment) AuthorityNamespaces() []string {
	return a.authorityNS.sorted()
}

// HasAuthorityNamespace reports whether any authority is in namespace.
func (a *Alignment) HasAuthorityNamespace(namespace string) bool {
	return a.authorityNS.has(namespace)
}

// AddAuthority records a vouching id. Adding a known id is a no-op.
func (a *Alignment) AddAuthority(qid string) error {
	ns, err := places.Namespace(qid)
	if err != nil {
		return err
	}
	a.authorities.add(qid)
	a.authorityNS.add(ns)
	return nil
}

// Modes returns the modes, sorted.
func (a *Alignment) Modes() []Mode {
	out := make([]Mode, 0, len(a.modes))
	for m := range a.modes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasMode reports whether the alignment carries mode.
func (a *Alignment) HasMode(mode Mode) bool {
	_, ok := a.modes[mode]
	return ok
}

// AddMode adds a mode, failing with UnsupportedModeError for unknown names.
func (a *Alignment) AddMode(mode Mode) error {
	if !mode.Valid() {
		return unsupported(string(mode))
	}
	a.modes[mode] = struct{}{}
	return nil
}

// Proximity returns the proximity labels, sorted.
func (a *Alignment) Proximity() []string {
	return a.proximity.sorted()
}

// AddProximity attaches a proximity label.
func (a *Alignment) AddProximity(label string) {
	if label != "" {
		a.proximity.add(label)
	}
}

// Distances returns the recorded centroid distances, if any.
func (a *Alignment) Distances() (Distances, bool) {
	if a.distances == nil {
		return Distances{}, false
	}
	return *a.distances, true
}

// Clone returns a deep copy.
func (a *Alignment) Clone() *Alignment {
	c := &Alignment{
		key:         a.key,
		namespaces:  a.namespaces.clone(),
		authorities: a.authorities.clone(),
		authorityNS: a.authorityNS.clone(),
		modes:       make(map[Mode]struct{}, len(a.modes)),
		proximity:   a.proximity.clone(),
	}
	for m := range a.modes {
		c.modes[m] = struct{}{}
	}
	if a.distances != nil {
		d := *a.distances
		c.distances = &d
	}
	return c
}

// Merge returns a new alignment carrying the union of the evidence of a
// and other. Distances already on a are kept; otherwise other's are
// copied, so a recorded distance is never dropped. Merging alignments
// with different keys is an error.
func (a *Alignment) Merge(other *Alignment) (*Alignment, error) {
	if a.key != other.key {
		return nil, errors.NewValidationError("key", other.key.String(), "cannot merge alignments of different pairs "+a.key.String())
	}
	merged := a.Clone()
	for qid := range other.authorities {
		merged.authorities.add(qid)
	}
	for ns := range other.authorityNS {
		merged.authorityNS.add(ns)
	}
	for m := range other.modes {
		merged.modes[m] = struct{}{}
	}
	for label := range other.proximity {
		merged.proximity.add(label)
	}
	if merged.distances == nil && other.distances != nil {
		d := *other.distances
		merged.distances = &d
	}
	return merged, nil
}
