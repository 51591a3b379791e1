package alignment

// Record is the plain serializable form of an alignment handed to
// reporting and persistence.
type Record struct {
	AlignedIDs         []string `json:"aligned_ids" yaml:"aligned_ids"`
	AlignedNamespaces  []string `json:"aligned_namespaces" yaml:"aligned_namespaces"`
	Authorities        []string `json:"authorities" yaml:"authorities"`
	Modes              []string `json:"modes" yaml:"modes"`
	Hash               uint64   `json:"hash" yaml:"hash"`
	Proximity          string   `json:"proximity,omitempty" yaml:"proximity,omitempty"`
	CentroidDistanceDD *float64 `json:"centroid_distance_dd,omitempty" yaml:"centroid_distance_dd,omitempty"`
	CentroidDistanceM  *float64 `json:"centroid_distance_m,omitempty" yaml:"centroid_distance_m,omitempty"`
}

// Record serializes the alignment. Proximity details appear only when the
// proximity mode is present; if several labels accumulated, the lexically
// first is reported.
func (a *Alignment) Record() Record {
	modes := a.Modes()
	r := Record{
		AlignedIDs:        a.AlignedIDs(),
		AlignedNamespaces: a.IDNamespaces(),
		Authorities:       a.Authorities(),
		Modes:             make([]string, len(modes)),
		Hash:              a.Hash(),
	}
	for i, m := range modes {
		r.Modes[i] = string(m)
	}
	if a.HasMode(ModeProximity) {
		if labels := a.Proximity(); len(labels) > 0 {
			r.Proximity = labels[0]
		}
		if d, ok := a.Distances(); ok {
			dd, m := d.DecimalDegrees, d.Meters
			r.CentroidDistanceDD = &dd
			r.CentroidDistanceM = &m
		}
	}
	return r
}

// HasMode reports whether the record lists mode.
func (r Record) HasMode(mode Mode) bool {
	for _, m := range r.Modes {
		if m == string(mode) {
			return true
		}
	}
	return false
}
