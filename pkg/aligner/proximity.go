package aligner

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// ProximityCategory labels pairs whose geometry attribute lies within
// Threshold decimal degrees.
type ProximityCategory struct {
	Name      string
	Attribute places.Attribute
	Threshold float64
}

// Proximity aligns places from different namespaces that share a
// grid cell and fall within one of the categories. Categories are
// tried in order and the first match labels the pair.
type Proximity struct {
	Categories []ProximityCategory
}

// Name implements Strategy.
func (Proximity) Name() string { return "proximity" }

// Mode implements Strategy.
func (Proximity) Mode() alignment.Mode { return alignment.ModeProximity }

// Validate checks the category list.
func (s Proximity) Validate() error {
	if len(s.Categories) == 0 {
		return errors.NewValidationError("proximity_categories", nil, "at least one category is required")
	}
	seen := make(map[string]struct{}, len(s.Categories))
	for i, c := range s.Categories {
		field := fmt.Sprintf("proximity_categories[%d]", i)
		if c.Name == "" {
			return errors.NewValidationError(field+".name", c.Name, "cannot be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return errors.NewValidationError(field+".name", c.Name, "duplicate category")
		}
		seen[c.Name] = struct{}{}
		if _, err := places.ParseAttribute(string(c.Attribute)); err != nil {
			return errors.WrapValidation(field+".attribute", err)
		}
		if c.Threshold < 0 {
			return errors.NewValidationError(field+".threshold", c.Threshold, "cannot be negative")
		}
	}
	return nil
}

type binned struct {
	qid   string
	ns    string
	place *places.Place
}

// Run implements Strategy. Cells are scanned concurrently; the drafts
// they produce are registered afterwards in cell order. A pair sharing
// several cells is registered once.
func (s Proximity) Run(ctx context.Context, a *Aligner) error {
	if err := s.Validate(); err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	cells, err := s.bin(a.Registry())
	if err != nil {
		return err
	}
	keys := slices.SortedFunc(maps.Keys(cells), places.Cell.Compare)

	results := make([][]*alignment.Alignment, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			drafts, err := s.scan(cells[key])
			if err != nil {
				return fmt.Errorf("cell %s: %w", key, err)
			}
			results[i] = drafts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	seen := make(map[alignment.Key]struct{})
	for _, drafts := range results {
		for _, d := range drafts {
			if _, dup := seen[d.Key()]; dup {
				continue
			}
			seen[d.Key()] = struct{}{}
			if _, err := a.Register(d); err != nil {
				return err
			}
		}
	}
	logger.Debug().Int("cells", len(keys)).Int("matches", len(seen)).Msg("Registered proximity alignments")
	return nil
}

// bin files each located place under every cell its padded extent
// covers. Unbinned places are skipped.
func (s Proximity) bin(registry *places.Registry) (map[places.Cell][]binned, error) {
	cells := make(map[places.Cell][]binned)
	for _, ns := range registry.Namespaces() {
		ds, err := registry.DataSet(ns)
		if err != nil {
			return nil, err
		}
		for _, p := range ds.Places() {
			member := binned{
				qid:   places.QualifiedID(ns, p.ID),
				ns:    ns,
				place: p,
			}
			for _, c := range p.Bin.Cells() {
				cells[c] = append(cells[c], member)
			}
		}
	}
	return cells, nil
}

// scan compares every cross-namespace pair in one cell.
func (s Proximity) scan(members []binned) ([]*alignment.Alignment, error) {
	var drafts []*alignment.Alignment
	for i := range members {
		for j := i + 1; j < len(members); j++ {
			x, y := members[i], members[j]
			if x.ns == y.ns {
				continue
			}
			cat, ok := s.match(x.place, y.place)
			if !ok {
				continue
			}
			draft, err := alignment.New(x.qid, y.qid, alignment.ModeProximity,
				alignment.WithProximity(cat.Name),
				alignment.WithDistances(
					planar.Distance(x.place.Centroid, y.place.Centroid),
					geo.DistanceHaversine(x.place.Centroid, y.place.Centroid),
				),
			)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, draft)
		}
	}
	return drafts, nil
}

func (s Proximity) match(x, y *places.Place) (ProximityCategory, bool) {
	for _, c := range s.Categories {
		if places.Distance(x, y, c.Attribute) <= c.Threshold {
			return c, true
		}
	}
	return ProximityCategory{}, false
}
