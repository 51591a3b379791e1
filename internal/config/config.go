// Package config defines the alignment run configuration and loads it
// with viper from YAML, JSON or TOML files plus PLACEMAP_ environment
// overrides.
package config

// Config is the full description of one alignment run.
type Config struct {
	DataSources         []DataSource        `mapstructure:"data_sources"`
	Redirects           []Redirect          `mapstructure:"redirects"`
	AlignmentModes      []string            `mapstructure:"alignment_modes"`
	BoostModes          []string            `mapstructure:"boost_modes"`
	ProximityCategories []ProximityCategory `mapstructure:"proximity_categories"`
	Infer               []InferenceRule     `mapstructure:"infer"`
	Workers             int                 `mapstructure:"workers"`
	Report              ReportConfig        `mapstructure:"report"`
}

// DataSource describes how to ingest one gazetteer.
type DataSource struct {
	Namespace string `mapstructure:"namespace"`
	// Format is "csv" or "geojson".
	Format  string `mapstructure:"format"`
	Path    string `mapstructure:"path"`
	BaseURI string `mapstructure:"base_uri"`

	// IDField, LatField and LonField are guessed from common header
	// names when empty.
	IDField       string `mapstructure:"id_field"`
	IDStripPrefix string `mapstructure:"id_strip_prefix"`
	LatField      string `mapstructure:"lat_field"`
	LonField      string `mapstructure:"lon_field"`
	// MergeRows folds CSV rows sharing an id into one multi-point place.
	MergeRows bool `mapstructure:"merge_rows"`

	// TitleFormat is a template such as "Toponym {id}: {Full_name}".
	TitleFormat      string            `mapstructure:"title_format"`
	NameFields       []string          `mapstructure:"name_fields"`
	FeatureTypeField string            `mapstructure:"feature_type_field"`
	FeatureTypes     map[string]string `mapstructure:"feature_types"`
	AlignmentFields  []AlignmentField  `mapstructure:"alignment_fields"`
}

// AlignmentField maps a column of asserted ids onto a namespace. Values
// must start with Prefix, which is removed.
type AlignmentField struct {
	Field     string `mapstructure:"field"`
	Namespace string `mapstructure:"namespace"`
	Prefix    string `mapstructure:"prefix"`
}

// Redirect replaces a superseded qualified id.
type Redirect struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// ProximityCategory is one labelled distance threshold.
type ProximityCategory struct {
	Name      string  `mapstructure:"name"`
	Attribute string  `mapstructure:"attribute"`
	Threshold float64 `mapstructure:"threshold"`
}

// InferenceRule chains alignments through a bridge namespace.
type InferenceRule struct {
	PrimaryNamespace  string `mapstructure:"primary_namespace"`
	AlignedNamespace  string `mapstructure:"aligned_namespace"`
	InferredNamespace string `mapstructure:"inferred_namespace"`
}

// ReportConfig selects and orders the alignments reported.
type ReportConfig struct {
	IgnoreAuthorityNamespaces []string   `mapstructure:"ignore_authority_namespaces"`
	RequireModes              []string   `mapstructure:"require_modes"`
	IgnorePlaceNamespaces     []string   `mapstructure:"ignore_place_namespaces"`
	Sort                      []SortSpec `mapstructure:"sort"`
	Limit                     int        `mapstructure:"limit"`
}

// SortSpec orders the report by Field, "forward" or "reverse".
type SortSpec struct {
	Field string `mapstructure:"field"`
	Order string `mapstructure:"order"`
}

// RedirectMap returns the redirect table keyed by superseded id.
func (c *Config) RedirectMap() map[string]string {
	out := make(map[string]string, len(c.Redirects))
	for _, r := range c.Redirects {
		out[r.From] = r.To
	}
	return out
}

// DataSourceMap returns each namespace's data file path.
func (c *Config) DataSourceMap() map[string]string {
	out := make(map[string]string, len(c.DataSources))
	for _, ds := range c.DataSources {
		out[ds.Namespace] = ds.Path
	}
	return out
}
