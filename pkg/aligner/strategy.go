package aligner

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
)

// Strategy detects or corroborates alignments and registers them with
// the engine.
type Strategy interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	// Mode is the alignment mode the strategy contributes.
	Mode() alignment.Mode

	// Run executes the strategy against the engine.
	Run(ctx context.Context, a *Aligner) error
}

// Align runs strategies in the given order. The first failure aborts
// the run and is returned wrapped in a StrategyError.
func (a *Aligner) Align(ctx context.Context, strategies ...Strategy) error {
	if a.logger != nil {
		ctx = logging.WithLogger(ctx, a.logger)
	}
	a.logRunStart(ctx, strategies)

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		sctx := logging.WithStrategy(ctx, s.Name())
		logger := logging.FromContext(sctx)
		before := a.Len()
		logger.Info().Str("mode", s.Mode().String()).Msg("Running alignment strategy")

		start := time.Now()
		err := s.Run(sctx, a)
		elapsed := time.Since(start)
		a.hooks.strategyFinished(s.Name(), elapsed, err)

		if err != nil {
			logger.Error().Err(err).Dur("elapsed", elapsed).Msg("Alignment strategy failed")
			return errors.NewStrategyError(s.Name(), err)
		}
		logger.Info().
			Dur("elapsed", elapsed).
			Int("new", a.Len()-before).
			Int("total", a.Len()).
			Msg("Alignment strategy finished")
	}
	return nil
}

func (a *Aligner) logRunStart(ctx context.Context, strategies []Strategy) {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	sources := zerolog.Dict()
	for _, ns := range slices.Sorted(maps.Keys(a.dataSources)) {
		sources.Str(ns, a.dataSources[ns])
	}
	logging.FromContext(ctx).Info().
		Strs("strategies", names).
		Dict("data_sources", sources).
		Msg("Starting alignment run")
}

// Plan describes an alignment run in configuration terms.
type Plan struct {
	// Modes lists strategy names in execution order.
	Modes []string
	// ProximityCategories are tried in order; the first match wins.
	ProximityCategories []ProximityCategory
	// BoostModes are the modes toponymy and typology scan.
	BoostModes []alignment.Mode
	// Inferences run where "inference" appears in Modes, or after all
	// other strategies when it does not.
	Inferences []Inference
}

// Strategies builds the ordered strategy list for p.
func (p Plan) Strategies() ([]Strategy, error) {
	var (
		out      []Strategy
		inferred bool
	)
	for _, name := range p.Modes {
		mode, err := parseStrategyMode(name)
		if err != nil {
			return nil, err
		}
		switch mode {
		case alignment.ModeAssertion:
			out = append(out, Assertions{})
		case alignment.ModeProximity:
			out = append(out, Proximity{Categories: p.ProximityCategories})
		case alignment.ModeToponymy:
			out = append(out, Toponymy{Modes: p.BoostModes})
		case alignment.ModeTypology:
			out = append(out, Typology{Modes: p.BoostModes})
		case alignment.ModeInference:
			if inferred {
				continue
			}
			inferred = true
			for _, inf := range p.Inferences {
				out = append(out, inf)
			}
		}
	}
	if !inferred {
		for _, inf := range p.Inferences {
			out = append(out, inf)
		}
	}
	return out, nil
}

// parseStrategyMode accepts the mode vocabulary plus the plural
// "assertions" used by older configurations.
func parseStrategyMode(name string) (alignment.Mode, error) {
	if name == "assertions" {
		return alignment.ModeAssertion, nil
	}
	return alignment.ParseMode(name)
}
