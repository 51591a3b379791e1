// Package aligner implements the alignment engine: a single store of
// pairwise place alignments, indexed by mode, namespace and id, which a
// sequence of strategies fills and annotates.
package aligner

import (
	"maps"
	"runtime"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

type keySet map[alignment.Key]struct{}

// Aligner holds the registered alignments of one run and the lookup
// indexes over them. All writes are serialized and the indexes only
// ever grow.
type Aligner struct {
	registry    *places.Registry
	redirects   map[string]string
	dataSources map[string]string
	logger      *zerolog.Logger
	workers     int
	hooks       *hooks

	mu                   sync.RWMutex
	alignments           map[alignment.Key]*alignment.Alignment
	byMode               map[alignment.Mode]keySet
	byIDNamespace        map[string]keySet
	byAuthorityNamespace map[string]keySet
	byFullID             map[string]keySet
}

// New creates an engine over the datasets of registry.
func New(registry *places.Registry, opts ...Option) (*Aligner, error) {
	if registry == nil {
		return nil, errors.NewValidationError("registry", nil, "cannot be nil")
	}
	o, err := (&options{}).apply(opts...)
	if err != nil {
		return nil, err
	}

	a := &Aligner{
		registry:             registry,
		redirects:            o.redirects,
		dataSources:          o.dataSources,
		logger:               o.logger,
		workers:              o.workers,
		hooks:                newHooks(),
		alignments:           make(map[alignment.Key]*alignment.Alignment),
		byMode:               make(map[alignment.Mode]keySet),
		byIDNamespace:        make(map[string]keySet),
		byAuthorityNamespace: make(map[string]keySet),
		byFullID:             make(map[string]keySet),
	}
	if a.redirects == nil {
		a.redirects = map[string]string{}
	}
	if a.dataSources == nil {
		a.dataSources = map[string]string{}
	}
	if a.workers == 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	for _, h := range o.hooks {
		if h.AlignmentAdded != nil {
			a.OnAlignmentAdded(h.AlignmentAdded)
		}
		if h.AlignmentMerged != nil {
			a.OnAlignmentMerged(h.AlignmentMerged)
		}
		if h.AlignmentAnnotated != nil {
			a.OnAlignmentAnnotated(h.AlignmentAnnotated)
		}
		if h.StrategyFinished != nil {
			a.OnStrategyFinished(h.StrategyFinished)
		}
	}
	return a, nil
}

// Logger returns the engine logger, falling back to the default logger.
func (a *Aligner) Logger() *zerolog.Logger {
	if a.logger == nil {
		return logging.Default()
	}
	return a.logger
}

// Registry returns the datasets the engine aligns.
func (a *Aligner) Registry() *places.Registry {
	return a.registry
}

// DataSources returns a copy of the data-source descriptors by namespace.
func (a *Aligner) DataSources() map[string]string {
	return maps.Clone(a.dataSources)
}

// Redirect resolves qid through the redirect table. Chains are followed
// until they end or loop back.
func (a *Aligner) Redirect(qid string) string {
	seen := map[string]struct{}{qid: {}}
	for {
		next, ok := a.redirects[qid]
		if !ok {
			return qid
		}
		if _, loop := seen[next]; loop {
			return qid
		}
		seen[next] = struct{}{}
		qid = next
	}
}

// Register inserts draft, or merges its evidence into the alignment
// already stored under the same key. It returns the stored alignment.
// Registering the same draft twice leaves the engine unchanged.
func (a *Aligner) Register(draft *alignment.Alignment) (*alignment.Alignment, error) {
	if draft == nil {
		return nil, errors.NewValidationError("alignment", nil, "cannot be nil")
	}

	a.mu.Lock()
	key := draft.Key()
	prior, exists := a.alignments[key]
	stored := draft
	if exists {
		merged, err := prior.Merge(draft)
		if err != nil {
			a.mu.Unlock()
			return nil, err
		}
		stored = merged
	}
	a.alignments[key] = stored
	a.index(stored)
	a.mu.Unlock()

	if exists {
		a.hooks.merged(prior, stored)
	} else {
		a.hooks.added(stored)
	}
	return stored, nil
}

// annotate adds mode to an already registered alignment. It reports
// whether the alignment exists; it never creates one. Stored values are
// replaced rather than mutated so readers never observe a partial update.
func (a *Aligner) annotate(key alignment.Key, mode alignment.Mode) (bool, error) {
	a.mu.Lock()
	stored, ok := a.alignments[key]
	if !ok {
		a.mu.Unlock()
		return false, nil
	}
	if stored.HasMode(mode) {
		a.mu.Unlock()
		return true, nil
	}
	updated := stored.Clone()
	if err := updated.AddMode(mode); err != nil {
		a.mu.Unlock()
		return false, err
	}
	a.alignments[key] = updated
	addKey(a.byMode, mode, key)
	a.mu.Unlock()

	a.hooks.annotated(stored, updated, mode)
	return true, nil
}

// index records stored under every index it qualifies for. Caller holds mu.
func (a *Aligner) index(stored *alignment.Alignment) {
	key := stored.Key()
	for _, m := range stored.Modes() {
		addKey(a.byMode, m, key)
	}
	for _, ns := range stored.IDNamespaces() {
		addKey(a.byIDNamespace, ns, key)
	}
	for _, ns := range stored.AuthorityNamespaces() {
		addKey(a.byAuthorityNamespace, ns, key)
	}
	for _, id := range stored.AlignedIDs() {
		addKey(a.byFullID, id, key)
	}
}

func addKey[K comparable](idx map[K]keySet, k K, key alignment.Key) {
	set, ok := idx[k]
	if !ok {
		set = make(keySet)
		idx[k] = set
	}
	set[key] = struct{}{}
}

// collect returns the alignments for keys sorted by key. Caller holds mu.
func (a *Aligner) collect(keys keySet) []*alignment.Alignment {
	sorted := slices.SortedFunc(maps.Keys(keys), compareKeys)
	out := make([]*alignment.Alignment, 0, len(sorted))
	for _, k := range sorted {
		out = append(out, a.alignments[k])
	}
	return out
}

func compareKeys(x, y alignment.Key) int {
	switch {
	case x.Less(y):
		return -1
	case y.Less(x):
		return 1
	default:
		return 0
	}
}

// The query methods below return stored alignments sorted by key. The
// returned values are shared with the engine and must be treated as
// read-only. Unknown keys yield an empty slice.

// ByMode returns the alignments carrying mode.
func (a *Aligner) ByMode(mode alignment.Mode) []*alignment.Alignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.collect(a.byMode[mode])
}

// ByIDNamespace returns the alignments with an endpoint in namespace.
func (a *Aligner) ByIDNamespace(namespace string) []*alignment.Alignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.collect(a.byIDNamespace[namespace])
}

// ByAuthorityNamespace returns the alignments asserted by a record of namespace.
func (a *Aligner) ByAuthorityNamespace(namespace string) []*alignment.Alignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.collect(a.byAuthorityNamespace[namespace])
}

// ByFullID returns the alignments that have qid as an endpoint.
func (a *Aligner) ByFullID(qid string) []*alignment.Alignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.collect(a.byFullID[qid])
}

// Alignments returns every registered alignment.
func (a *Aligner) Alignments() []*alignment.Alignment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make(keySet, len(a.alignments))
	for k := range a.alignments {
		keys[k] = struct{}{}
	}
	return a.collect(keys)
}

// Get returns the alignment stored under key.
func (a *Aligner) Get(key alignment.Key) (*alignment.Alignment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	al, ok := a.alignments[key]
	return al, ok
}

// Len returns the number of registered alignments.
func (a *Aligner) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.alignments)
}

// Records returns the serializable form of every alignment.
func (a *Aligner) Records() []alignment.Record {
	all := a.Alignments()
	out := make([]alignment.Record, len(all))
	for i, al := range all {
		out[i] = al.Record()
	}
	return out
}
