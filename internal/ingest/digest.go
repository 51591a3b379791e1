package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
)

// Header names tried, case-insensitively, when a field is not configured.
var (
	idGuesses  = []string{"id", "Object ID", "item"}
	latGuesses = []string{"lat", "latitude"}
	lonGuesses = []string{"lon", "long", "longitude"}
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// record holds the raw property values of one source row or feature.
type record map[string][]string

func (r record) add(field, value string) {
	for _, v := range r[field] {
		if v == value {
			return
		}
	}
	r[field] = append(r[field], value)
}

// digester turns raw records into places following a data source's
// field mapping.
type digester struct {
	cfg          config.DataSource
	featureTypes map[string]string
	// alignment fields grouped by column, in configuration order
	alignments map[string][]config.AlignmentField
	fields     []string
}

func newDigester(cfg config.DataSource) (*digester, error) {
	d := &digester{cfg: cfg, alignments: make(map[string][]config.AlignmentField)}
	if len(cfg.FeatureTypes) > 0 {
		d.featureTypes = make(map[string]string, len(cfg.FeatureTypes))
		for code, ft := range cfg.FeatureTypes {
			d.featureTypes[places.NormalizeName(code)] = ft
		}
	}
	for _, af := range cfg.AlignmentFields {
		if _, ok := d.alignments[af.Field]; !ok {
			d.fields = append(d.fields, af.Field)
		}
		d.alignments[af.Field] = append(d.alignments[af.Field], af)
	}
	if cfg.TitleFormat != "" && !placeholder.MatchString(cfg.TitleFormat) {
		return nil, errors.NewValidationError("title_format", cfg.TitleFormat, "contains no {field} placeholder")
	}
	return d, nil
}

// cleanID applies the configured prefix strip.
func (d *digester) cleanID(raw string) string {
	return strings.TrimPrefix(clean(raw), d.cfg.IDStripPrefix)
}

// apply fills p's descriptive fields from its raw record.
func (d *digester) apply(p *places.Place, r record, logger *zerolog.Logger) error {
	if d.cfg.TitleFormat != "" {
		title, err := d.title(p.ID, r)
		if err != nil {
			return err
		}
		p.Title = title
	}

	for _, field := range d.cfg.NameFields {
		for _, name := range splitValues(r[field]) {
			p.AddName(name)
		}
	}

	if field := d.cfg.FeatureTypeField; field != "" {
		for _, code := range splitValues(r[field]) {
			ft := code
			if d.featureTypes != nil {
				mapped, ok := d.featureTypes[places.NormalizeName(code)]
				if !ok {
					return fmt.Errorf("place %s: unsupported feature type code %q in field %s", p.ID, code, field)
				}
				ft = mapped
			}
			p.AddFeatureType(ft)
		}
	}

	for _, field := range d.fields {
		for _, value := range splitValues(r[field]) {
			qid, ok := d.alignmentID(field, value)
			if !ok {
				logger.Warn().
					Str("place", p.ID).
					Str("field", field).
					Str("value", value).
					Msg("Ignoring alignment value without an expected prefix")
				continue
			}
			p.AddAlignment(qid)
		}
	}
	return nil
}

// alignmentID maps a raw asserted value to a qualified id using the first
// configured entry for field whose prefix matches.
func (d *digester) alignmentID(field, value string) (string, bool) {
	for _, af := range d.alignments[field] {
		if !strings.HasPrefix(value, af.Prefix) {
			continue
		}
		id := strings.TrimPrefix(value, af.Prefix)
		if id == "" {
			return "", false
		}
		return places.QualifiedID(af.Namespace, id), true
	}
	return "", false
}

// title expands {field} placeholders; {id} is the cleaned local id.
func (d *digester) title(id string, r record) (string, error) {
	var missing string
	out := placeholder.ReplaceAllStringFunc(d.cfg.TitleFormat, func(m string) string {
		field := m[1 : len(m)-1]
		if field == "id" {
			return id
		}
		values, ok := r[field]
		if !ok {
			missing = field
			return m
		}
		return clean(strings.Join(values, ", "))
	})
	if missing != "" {
		return "", fmt.Errorf("place %s: title format references unknown field %q", id, missing)
	}
	return out, nil
}

// clean applies NFC normalization and collapses whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// splitValues splits comma separated values, cleans them and drops
// empty and parenthesized entries.
func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			v := clean(part)
			if v == "" || strings.HasPrefix(v, "(") || strings.HasSuffix(v, ")") {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// guessField returns the first header matching a candidate, ignoring case.
func guessField(headers []string, configured string, candidates []string) string {
	if configured != "" {
		return configured
	}
	for _, c := range candidates {
		for _, h := range headers {
			if strings.EqualFold(h, c) {
				return h
			}
		}
	}
	return ""
}
