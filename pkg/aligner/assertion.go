package aligner

import (
	"context"
	"fmt"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// Assertions registers the alignments that source records declare
// themselves. The asserting record is kept as the authority.
type Assertions struct{}

// Name implements Strategy.
func (Assertions) Name() string { return "assertions" }

// Mode implements Strategy.
func (Assertions) Mode() alignment.Mode { return alignment.ModeAssertion }

// Run implements Strategy.
func (s Assertions) Run(ctx context.Context, a *Aligner) error {
	logger := logging.FromContext(ctx)
	registry := a.Registry()

	for _, ns := range registry.Namespaces() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds, err := registry.DataSet(ns)
		if err != nil {
			return err
		}

		count := 0
		for _, p := range ds.Places() {
			source := places.QualifiedID(ns, p.ID)
			for _, asserted := range p.Alignments {
				if _, _, err := places.SplitQualifiedID(asserted); err != nil {
					return fmt.Errorf("place %s: %w", source, err)
				}
				target := a.Redirect(asserted)
				if target == source {
					logger.Warn().
						Str("place", source).
						Str("asserted", asserted).
						Msg("Skipping self-assertion")
					continue
				}
				draft, err := alignment.New(source, target, alignment.ModeAssertion, alignment.WithAuthority(source))
				if err != nil {
					return fmt.Errorf("place %s: %w", source, err)
				}
				if _, err := a.Register(draft); err != nil {
					return err
				}
				count++
			}
		}
		logger.Debug().Str("namespace", ns).Int("assertions", count).Msg("Registered asserted alignments")
	}
	return nil
}
