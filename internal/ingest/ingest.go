// Package ingest reads gazetteer files into place datasets. Each data
// source is described by a config.DataSource and becomes one namespace.
package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// Source loads the places of one namespace.
type Source interface {
	// Namespace is the namespace the loaded places belong to.
	Namespace() string

	// Load reads the source into a dataset.
	Load(ctx context.Context) (*places.DataSet, error)
}

// New creates the source for a data source description.
func New(cfg config.DataSource) (Source, error) {
	d, err := newDigester(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Format {
	case config.FormatCSV:
		return &CSVSource{cfg: cfg, digest: d}, nil
	case config.FormatGeoJSON:
		return &GeoJSONSource{cfg: cfg, digest: d}, nil
	default:
		return nil, errors.NewValidationError("format", cfg.Format, "must be csv or geojson")
	}
}

// LoadAll loads every data source concurrently and returns them as a
// registry. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, sources []config.DataSource) (*places.Registry, error) {
	loaded := make([]*places.DataSet, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range sources {
		src, err := New(cfg)
		if err != nil {
			return nil, errors.WrapResource("configure", "data source", cfg.Namespace, err)
		}
		g.Go(func() error {
			lctx := logging.WithNamespace(gctx, src.Namespace())
			ds, err := src.Load(lctx)
			if err != nil {
				return errors.WrapResource("load", "data source", src.Namespace(), err)
			}
			logging.FromContext(lctx).Info().
				Int("places", ds.Len()).
				Str("path", cfg.Path).
				Msg("Ingested data source")
			loaded[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return places.NewRegistry(loaded...), nil
}
