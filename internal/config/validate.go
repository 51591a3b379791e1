package config

import (
	"fmt"
	"strings"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
	"github.com/agentstation/placemap/pkg/report"
)

// Supported data source formats.
const (
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.DataSources) == 0 {
		return errors.NewValidationError("data_sources", nil, "at least one data source is required")
	}
	seen := make(map[string]struct{}, len(c.DataSources))
	for i, ds := range c.DataSources {
		field := fmt.Sprintf("data_sources[%d]", i)
		if err := ds.validate(field); err != nil {
			return err
		}
		if _, dup := seen[ds.Namespace]; dup {
			return errors.NewValidationError(field+".namespace", ds.Namespace, "duplicate namespace")
		}
		seen[ds.Namespace] = struct{}{}
	}

	for i, r := range c.Redirects {
		field := fmt.Sprintf("redirects[%d]", i)
		if _, _, err := places.SplitQualifiedID(r.From); err != nil {
			return errors.WrapValidation(field+".from", err)
		}
		if _, _, err := places.SplitQualifiedID(r.To); err != nil {
			return errors.WrapValidation(field+".to", err)
		}
	}

	if len(c.AlignmentModes) == 0 {
		return errors.NewValidationError("alignment_modes", nil, "at least one mode is required")
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", c.Workers, "cannot be negative")
	}

	// Building the plan validates modes, categories and inference rules
	// with the rules the engine itself applies.
	if _, err := c.Plan(); err != nil {
		return err
	}
	if _, err := c.ReportOptions(); err != nil {
		return err
	}
	return nil
}

func (ds DataSource) validate(field string) error {
	if ds.Namespace == "" {
		return errors.NewValidationError(field+".namespace", ds.Namespace, "cannot be empty")
	}
	if strings.Contains(ds.Namespace, places.Separator) {
		return errors.NewValidationError(field+".namespace", ds.Namespace, "cannot contain "+places.Separator)
	}
	switch ds.Format {
	case FormatCSV, FormatGeoJSON:
	default:
		return errors.NewValidationError(field+".format", ds.Format, "must be csv or geojson")
	}
	if ds.Path == "" {
		return errors.NewValidationError(field+".path", ds.Path, "cannot be empty")
	}
	for j, af := range ds.AlignmentFields {
		if af.Field == "" || af.Namespace == "" {
			return errors.NewValidationError(fmt.Sprintf("%s.alignment_fields[%d]", field, j), af, "field and namespace are required")
		}
	}
	return nil
}

// ReportOptions converts the report section.
func (c *Config) ReportOptions() (report.Options, error) {
	opts := report.Options{
		IgnoreAuthorityNamespaces: c.Report.IgnoreAuthorityNamespaces,
		IgnorePlaceNamespaces:     c.Report.IgnorePlaceNamespaces,
		Limit:                     c.Report.Limit,
	}
	for _, m := range c.Report.RequireModes {
		mode, err := alignment.ParseMode(m)
		if err != nil {
			return report.Options{}, err
		}
		opts.RequireModes = append(opts.RequireModes, mode)
	}
	for _, s := range c.Report.Sort {
		key, err := report.ParseSortKey(s.Field, s.Order)
		if err != nil {
			return report.Options{}, err
		}
		opts.Sort = append(opts.Sort, key)
	}
	return opts, nil
}
