package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads places from a delimited text file with a header row.
type CSVSource struct {
	cfg    config.DataSource
	digest *digester
}

// Namespace implements Source.
func (s *CSVSource) Namespace() string { return s.cfg.Namespace }

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) (*places.DataSet, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, errors.WrapIO("open", s.cfg.Path, err)
	}
	defer func() { _ = f.Close() }()
	return s.Read(ctx, f)
}

// Read parses CSV content from r.
func (s *CSVSource) Read(ctx context.Context, r io.Reader) (*places.DataSet, error) {
	logger := logging.FromContext(ctx)

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return places.NewDataSet(s.cfg.Namespace, s.cfg.BaseURI), nil
	}
	if err != nil {
		return nil, s.parseError(err)
	}
	headers := dedupeHeaders(header)
	if err := s.checkColumns(headers); err != nil {
		return nil, err
	}

	idKey := guessField(headers, s.cfg.IDField, idGuesses)
	if idKey == "" {
		return nil, errors.NewParseError("csv", s.cfg.Path, "no id column found", nil)
	}
	latKey := guessField(headers, s.cfg.LatField, latGuesses)
	lonKey := guessField(headers, s.cfg.LonField, lonGuesses)

	type row struct {
		place  *places.Place
		rec    record
		points []orb.Point
	}
	var (
		order []string
		rows  = make(map[string]*row)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.parseError(err)
		}

		rec := make(record, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(fields) {
				value = fields[i]
			}
			rec[h] = []string{value}
		}
		id := s.digest.cleanID(rec[idKey][0])
		if id == "" {
			line, _ := reader.FieldPos(0)
			logger.Warn().Int("line", line).Msg("Skipping row without id")
			continue
		}

		pt, located, err := point(rec, latKey, lonKey)
		if err != nil {
			line, col := reader.FieldPos(0)
			return nil, &errors.ParseError{Format: "csv", File: s.cfg.Path, Line: line, Column: col, Message: err.Error(), Err: err}
		}

		existing, seen := rows[id]
		switch {
		case !seen:
			existing = &row{place: places.NewPlace(id), rec: rec}
			rows[id] = existing
			order = append(order, id)
		case s.cfg.MergeRows:
			for k, vs := range rec {
				for _, v := range vs {
					existing.rec.add(k, v)
				}
			}
		default:
			logger.Warn().Str("id", id).Msg("Replacing duplicate row")
			existing.rec = rec
			existing.points = nil
		}
		if located {
			existing.points = append(existing.points, pt)
		}
	}

	ds := places.NewDataSet(s.cfg.Namespace, s.cfg.BaseURI)
	for _, id := range order {
		r := rows[id]
		switch len(r.points) {
		case 0:
		case 1:
			r.place.SetGeometry(r.points[0])
		default:
			r.place.SetGeometry(orb.MultiPoint(r.points))
		}
		if err := s.digest.apply(r.place, r.rec, logger); err != nil {
			return nil, errors.NewParseError("csv", s.cfg.Path, err.Error(), err)
		}
		ds.Add(r.place)
	}
	return ds, nil
}

// checkColumns verifies that every explicitly configured column is
// present in the header row.
func (s *CSVSource) checkColumns(headers []string) error {
	for _, col := range []struct{ option, name string }{
		{"id_field", s.cfg.IDField},
		{"lat_field", s.cfg.LatField},
		{"lon_field", s.cfg.LonField},
	} {
		if col.name != "" && !slices.Contains(headers, col.name) {
			msg := fmt.Sprintf("%s column %q not found", col.option, col.name)
			return errors.NewParseError("csv", s.cfg.Path, msg, nil)
		}
	}
	return nil
}

func (s *CSVSource) parseError(err error) error {
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		return &errors.ParseError{Format: "csv", File: s.cfg.Path, Line: pe.Line, Column: pe.Column, Message: pe.Err.Error(), Err: err}
	}
	return errors.WrapParse("csv", s.cfg.Path, err)
}

// point parses the coordinate columns of a row. Rows with empty or
// missing coordinates are unlocated.
func point(rec record, latKey, lonKey string) (orb.Point, bool, error) {
	if latKey == "" || lonKey == "" {
		return orb.Point{}, false, nil
	}
	rawLat, rawLon := strings.TrimSpace(rec[latKey][0]), strings.TrimSpace(rec[lonKey][0])
	if rawLat == "" || rawLon == "" {
		return orb.Point{}, false, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("invalid latitude %q", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("invalid longitude %q", rawLon)
	}
	return orb.Point{lon, lat}, true, nil
}

// dedupeHeaders suffixes repeated column names with their occurrence
// index, so "name,name" becomes "name_0,name_1".
func dedupeHeaders(header []string) []string {
	counts := make(map[string]int, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		counts[header[i]]++
	}
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		if counts[h] == 1 {
			out[i] = h
			continue
		}
		out[i] = fmt.Sprintf("%s_%d", h, seen[h])
		seen[h]++
	}
	return out
}
