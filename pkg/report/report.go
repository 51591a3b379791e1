// Package report turns registered alignments into a filtered, enriched
// and sorted list suitable for review.
package report

import (
	"context"
	"slices"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// Options filter and order a report.
type Options struct {
	// IgnoreAuthorityNamespaces drops alignments asserted by any record
	// of these namespaces.
	IgnoreAuthorityNamespaces []string
	// RequireModes keeps only alignments carrying all of these modes.
	RequireModes []alignment.Mode
	// IgnorePlaceNamespaces drops alignments with an endpoint in any of
	// these namespaces.
	IgnorePlaceNamespaces []string
	// Sort is applied key by key, each a stable sort, so the last key
	// is the primary order.
	Sort []SortKey
	// Limit truncates the sorted report when positive.
	Limit int
}

// PlaceSummary is the reviewable description of one aligned place.
type PlaceSummary struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Names     []string `json:"names" yaml:"names"`
	URI       string   `json:"uri" yaml:"uri"`
	Centroid  string   `json:"centroid" yaml:"centroid"`
	Footprint string   `json:"footprint" yaml:"footprint"`
}

// Entry is one reported alignment.
type Entry struct {
	alignment.Record `yaml:",inline"`

	// Places maps each endpoint namespace to its place.
	Places map[string]PlaceSummary `json:"places" yaml:"places"`
	// CentroidDistance is the haversine distance in meters between the
	// two centroids, whatever the alignment modes.
	CentroidDistance float64 `json:"centroid_distance" yaml:"centroid_distance"`
}

// Build filters, enriches and sorts alignments. Alignments whose places
// cannot be resolved in registry, and alignments within one namespace,
// are dropped and logged at debug level.
func Build(ctx context.Context, alignments []*alignment.Alignment, registry *places.Registry, opts Options) ([]Entry, error) {
	if registry == nil {
		return nil, errors.NewValidationError("registry", nil, "cannot be nil")
	}
	for _, m := range opts.RequireModes {
		if _, err := alignment.ParseMode(string(m)); err != nil {
			return nil, err
		}
	}
	logger := logging.FromContext(ctx)

	entries := make([]Entry, 0, len(alignments))
	for _, al := range alignments {
		if !keep(al, opts) {
			continue
		}
		if len(al.IDNamespaces()) < 2 {
			logger.Debug().Str("alignment", al.Key().String()).Msg("Dropping same-namespace alignment")
			continue
		}
		entry, err := enrich(al, registry)
		if errors.IsNotFound(err) {
			logger.Debug().Err(err).Str("alignment", al.Key().String()).Msg("Dropping alignment with unresolvable place")
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := Sort(entries, opts.Sort); err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

func keep(al *alignment.Alignment, opts Options) bool {
	for _, ns := range opts.IgnoreAuthorityNamespaces {
		if al.HasAuthorityNamespace(ns) {
			return false
		}
	}
	for _, m := range opts.RequireModes {
		if !al.HasMode(m) {
			return false
		}
	}
	for _, ns := range opts.IgnorePlaceNamespaces {
		if al.HasIDNamespace(ns) {
			return false
		}
	}
	return true
}

func enrich(al *alignment.Alignment, registry *places.Registry) (Entry, error) {
	entry := Entry{
		Record: al.Record(),
		Places: make(map[string]PlaceSummary, 2),
	}
	var located []*places.Place
	for _, qid := range al.AlignedIDs() {
		ns, id, err := places.SplitQualifiedID(qid)
		if err != nil {
			return Entry{}, err
		}
		ds, err := registry.DataSet(ns)
		if err != nil {
			return Entry{}, err
		}
		p, err := ds.PlaceByID(id)
		if err != nil {
			return Entry{}, err
		}
		entry.Places[ns] = summarize(ds, p)
		if p.Located() {
			located = append(located, p)
		}
	}
	if len(located) == 2 {
		entry.CentroidDistance = geo.DistanceHaversine(located[0].Centroid, located[1].Centroid)
	}
	return entry, nil
}

func summarize(ds *places.DataSet, p *places.Place) PlaceSummary {
	s := PlaceSummary{
		ID:    p.ID,
		Title: p.Title,
		Names: slices.Clone(p.Names),
		URI:   ds.URI(p.ID),
	}
	if s.Names == nil {
		s.Names = []string{}
	}
	if p.Located() {
		s.Centroid = wkt.MarshalString(p.Centroid)
		s.Footprint = wkt.MarshalString(p.Geometry)
	}
	return s
}
