package aligner

import (
	"sync"
	"time"

	"github.com/agentstation/placemap/pkg/alignment"
)

// Hook function types for alignment events
type (
	// AlignmentAddedHook is called when a new pair is registered
	AlignmentAddedHook func(a *alignment.Alignment)

	// AlignmentMergedHook is called when evidence is merged into a known pair
	AlignmentMergedHook func(old, merged *alignment.Alignment)

	// AlignmentAnnotatedHook is called when a boost strategy adds mode to
	// a known pair
	AlignmentAnnotatedHook func(old, annotated *alignment.Alignment, mode alignment.Mode)

	// StrategyFinishedHook is called after each strategy of a run
	StrategyFinishedHook func(name string, elapsed time.Duration, err error)
)

// hooks manages event callbacks for engine changes
type hooks struct {
	mu                   sync.RWMutex
	onAlignmentAdded     []AlignmentAddedHook
	onAlignmentMerged    []AlignmentMergedHook
	onAlignmentAnnotated []AlignmentAnnotatedHook
	onStrategyFinished   []StrategyFinishedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnAlignmentAdded registers a callback for newly registered pairs.
func (a *Aligner) OnAlignmentAdded(fn AlignmentAddedHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onAlignmentAdded = append(a.hooks.onAlignmentAdded, fn)
}

// OnAlignmentMerged registers a callback for merges into known pairs.
func (a *Aligner) OnAlignmentMerged(fn AlignmentMergedHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onAlignmentMerged = append(a.hooks.onAlignmentMerged, fn)
}

// OnAlignmentAnnotated registers a callback for boost annotations.
// Annotations never go through Register and do not fire the merge hooks.
func (a *Aligner) OnAlignmentAnnotated(fn AlignmentAnnotatedHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onAlignmentAnnotated = append(a.hooks.onAlignmentAnnotated, fn)
}

// OnStrategyFinished registers a callback run after every strategy.
func (a *Aligner) OnStrategyFinished(fn StrategyFinishedHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStrategyFinished = append(a.hooks.onStrategyFinished, fn)
}

func (h *hooks) added(a *alignment.Alignment) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAlignmentAdded {
		fn(a)
	}
}

func (h *hooks) merged(old, merged *alignment.Alignment) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAlignmentMerged {
		fn(old, merged)
	}
}

func (h *hooks) annotated(old, annotated *alignment.Alignment, mode alignment.Mode) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAlignmentAnnotated {
		fn(old, annotated, mode)
	}
}

func (h *hooks) strategyFinished(name string, elapsed time.Duration, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStrategyFinished {
		fn(name, elapsed, err)
	}
}
