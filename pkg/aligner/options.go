package aligner

import (
	"maps"

	"github.com/rs/zerolog"

	"github.com/agentstation/placemap/pkg/errors"
)

type options struct {
	redirects   map[string]string
	dataSources map[string]string
	logger      *zerolog.Logger
	workers     int
	hooks       []Hooks
}

// Option is a function that configures an Aligner.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRedirects sets the redirect table applied to asserted target ids.
// Keys and values are qualified ids.
func WithRedirects(redirects map[string]string) Option {
	return func(o *options) error {
		o.redirects = maps.Clone(redirects)
		return nil
	}
}

// WithDataSources records the data-source descriptor of each namespace.
func WithDataSources(sources map[string]string) Option {
	return func(o *options) error {
		o.dataSources = maps.Clone(sources)
		return nil
	}
}

// WithLogger sets the logger used by the engine and its strategies.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithWorkers bounds the number of grid cells scanned concurrently by the
// proximity strategy.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "must be at least 1"}
		}
		o.workers = n
		return nil
	}
}

// Hooks bundles event callbacks installed at construction time.
type Hooks struct {
	AlignmentAdded     AlignmentAddedHook
	AlignmentMerged    AlignmentMergedHook
	AlignmentAnnotated AlignmentAnnotatedHook
	StrategyFinished   StrategyFinishedHook
}

// WithHooks installs event callbacks. Nil fields are ignored.
func WithHooks(h Hooks) Option {
	return func(o *options) error {
		o.hooks = append(o.hooks, h)
		return nil
	}
}
