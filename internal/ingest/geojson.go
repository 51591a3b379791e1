package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// GeoJSONSource reads places from a GeoJSON FeatureCollection. Feature
// properties play the role of CSV columns.
type GeoJSONSource struct {
	cfg    config.DataSource
	digest *digester
}

// Namespace implements Source.
func (s *GeoJSONSource) Namespace() string { return s.cfg.Namespace }

// Load implements Source.
func (s *GeoJSONSource) Load(ctx context.Context) (*places.DataSet, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, errors.WrapIO("open", s.cfg.Path, err)
	}
	defer func() { _ = f.Close() }()
	return s.Read(ctx, f)
}

// Read parses a FeatureCollection from r.
func (s *GeoJSONSource) Read(ctx context.Context, r io.Reader) (*places.DataSet, error) {
	logger := logging.FromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", s.cfg.Path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.WrapParse("geojson", s.cfg.Path, err)
	}

	ds := places.NewDataSet(s.cfg.Namespace, s.cfg.BaseURI)
	for i, f := range fc.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := properties(f.Properties)
		id := s.digest.cleanID(s.featureID(f, rec))
		if id == "" {
			logger.Warn().Int("feature", i).Msg("Skipping feature without id")
			continue
		}

		p := places.NewPlace(id)
		if f.Geometry != nil {
			p.SetGeometry(f.Geometry)
		}
		if err := s.digest.apply(p, rec, logger); err != nil {
			return nil, errors.NewParseError("geojson", s.cfg.Path, err.Error(), err)
		}
		ds.Add(p)
	}
	return ds, nil
}

// featureID takes the id from the configured property, the feature id,
// or a guessed property, in that order.
func (s *GeoJSONSource) featureID(f *geojson.Feature, rec record) string {
	if s.cfg.IDField != "" {
		return first(rec[s.cfg.IDField])
	}
	if f.ID != nil {
		return scalar(f.ID)
	}
	headers := make([]string, 0, len(rec))
	for k := range rec {
		headers = append(headers, k)
	}
	slices.Sort(headers)
	if key := guessField(headers, "", idGuesses); key != "" {
		return first(rec[key])
	}
	return ""
}

// properties flattens feature properties into string values. Arrays
// become multiple values; nested objects are ignored.
func properties(props geojson.Properties) record {
	rec := make(record, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case nil:
			rec[k] = nil
		case []any:
			values := make([]string, 0, len(val))
			for _, item := range val {
				if s := scalar(item); s != "" {
					values = append(values, s)
				}
			}
			rec[k] = values
		case map[string]any:
		default:
			rec[k] = []string{scalar(val)}
		}
	}
	return rec
}

func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
