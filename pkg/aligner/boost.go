package aligner

import (
	"context"
	"maps"
	"slices"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// Toponymy corroborates existing alignments whose places share a
// normalized name. It never creates alignments.
type Toponymy struct {
	// Modes selects the alignments to examine.
	Modes []alignment.Mode
}

// Name implements Strategy.
func (Toponymy) Name() string { return "toponymy" }

// Mode implements Strategy.
func (Toponymy) Mode() alignment.Mode { return alignment.ModeToponymy }

// Run implements Strategy.
func (s Toponymy) Run(ctx context.Context, a *Aligner) error {
	return boost(ctx, a, alignment.ModeToponymy, s.Modes, func(p *places.Place) []string {
		return p.Names
	})
}

// Typology corroborates existing alignments whose places share a
// normalized feature type.
type Typology struct {
	Modes []alignment.Mode
}

// Name implements Strategy.
func (Typology) Name() string { return "typology" }

// Mode implements Strategy.
func (Typology) Mode() alignment.Mode { return alignment.ModeTypology }

// Run implements Strategy.
func (s Typology) Run(ctx context.Context, a *Aligner) error {
	return boost(ctx, a, alignment.ModeTypology, s.Modes, func(p *places.Place) []string {
		return p.FeatureTypes
	})
}

func boost(ctx context.Context, a *Aligner, mode alignment.Mode, scan []alignment.Mode, values func(*places.Place) []string) error {
	if len(scan) == 0 {
		return errors.NewValidationError("boost_modes", nil, "at least one mode to scan is required")
	}
	logger := logging.FromContext(ctx)

	candidates := make(map[alignment.Key]*alignment.Alignment)
	for _, m := range scan {
		if _, err := alignment.ParseMode(string(m)); err != nil {
			return err
		}
		for _, al := range a.ByMode(m) {
			candidates[al.Key()] = al
		}
	}
	keys := slices.SortedFunc(maps.Keys(candidates), compareKeys)

	boosted := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		al := candidates[key]
		if al.HasMode(mode) {
			continue
		}

		x, y, err := a.resolvePair(al)
		if errors.IsNotFound(err) {
			logger.Debug().Err(err).Str("alignment", key.String()).Msg("Skipping alignment with unresolvable place")
			continue
		}
		if err != nil {
			return err
		}
		if !places.Intersects(places.NormalizeNames(values(x)), places.NormalizeNames(values(y))) {
			continue
		}

		if _, err := a.annotate(key, mode); err != nil {
			return err
		}
		boosted++
	}
	logger.Debug().Int("examined", len(keys)).Int("boosted", boosted).Msg("Annotated alignments")
	return nil
}

// resolvePair looks up both places of an alignment.
func (a *Aligner) resolvePair(al *alignment.Alignment) (*places.Place, *places.Place, error) {
	ids := al.AlignedIDs()
	x, err := a.registry.Resolve(ids[0])
	if err != nil {
		return nil, nil, err
	}
	y, err := a.registry.Resolve(ids[1])
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
