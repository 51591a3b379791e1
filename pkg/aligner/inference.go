package aligner

import (
	"context"
	"slices"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// Inference chains alignments through a bridge namespace: when a Primary
// place is aligned to an Aligned place, and that Aligned place asserts an
// Inferred place, the Primary and Inferred places are aligned with the
// bridge id as authority.
type Inference struct {
	Primary  string
	Aligned  string
	Inferred string
}

// Name implements Strategy.
func (s Inference) Name() string {
	return "inference(" + s.Primary + "<" + s.Aligned + ">" + s.Inferred + ")"
}

// Mode implements Strategy.
func (Inference) Mode() alignment.Mode { return alignment.ModeInference }

// Validate checks that the three namespaces are set and distinct.
func (s Inference) Validate() error {
	switch {
	case s.Primary == "":
		return errors.NewValidationError("primary_namespace", s.Primary, "cannot be empty")
	case s.Aligned == "":
		return errors.NewValidationError("aligned_namespace", s.Aligned, "cannot be empty")
	case s.Inferred == "":
		return errors.NewValidationError("inferred_namespace", s.Inferred, "cannot be empty")
	case s.Primary == s.Aligned, s.Primary == s.Inferred, s.Aligned == s.Inferred:
		return errors.NewValidationError("infer", s, "namespaces must be distinct")
	}
	return nil
}

// Run implements Strategy. Every primary alignment sharing a bridge id
// with a candidate yields one inferred pair, so two primaries and three
// candidates on one bridge infer six alignments.
func (s Inference) Run(ctx context.Context, a *Aligner) error {
	if err := s.Validate(); err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	// bridge id -> primary-namespace endpoints
	primaries := make(map[string][]string)
	for _, al := range a.ByIDNamespace(s.Primary) {
		bridge, ok := endpointIn(al, s.Aligned)
		if !ok {
			continue
		}
		if primary, ok := endpointIn(al, s.Primary); ok {
			primaries[bridge] = append(primaries[bridge], primary)
		}
	}

	// bridge id -> inferred-namespace endpoints asserted through it
	candidates := make(map[string][]string)
	for _, al := range a.ByIDNamespace(s.Inferred) {
		if !al.HasMode(alignment.ModeAssertion) {
			continue
		}
		bridge, ok := endpointIn(al, s.Aligned)
		if !ok {
			continue
		}
		if inferred, ok := endpointIn(al, s.Inferred); ok {
			candidates[bridge] = append(candidates[bridge], inferred)
		}
	}

	bridges := make([]string, 0, len(candidates))
	for bridge := range candidates {
		if _, ok := primaries[bridge]; ok {
			bridges = append(bridges, bridge)
		}
	}
	slices.Sort(bridges)

	count := 0
	for _, bridge := range bridges {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, primary := range primaries[bridge] {
			for _, inferred := range candidates[bridge] {
				draft, err := alignment.New(primary, inferred, alignment.ModeInference, alignment.WithAuthority(bridge))
				if err != nil {
					logger.Warn().Err(err).Str("bridge", bridge).Msg("Skipping inferred alignment")
					continue
				}
				if _, err := a.Register(draft); err != nil {
					return err
				}
				count++
			}
		}
	}
	logger.Debug().
		Int("bridges", len(bridges)).
		Int("inferred", count).
		Msg("Registered inferred alignments")
	return nil
}

// endpointIn returns the endpoint of al that lives in namespace.
func endpointIn(al *alignment.Alignment, namespace string) (string, bool) {
	for _, id := range al.AlignedIDs() {
		if ns, err := places.Namespace(id); err == nil && ns == namespace {
			return id, true
		}
	}
	return "", false
}
