package places

import (
	"sort"

	"github.com/agentstation/placemap/pkg/errors"
)

// DataSet is the collection of places ingested for a single namespace.
type DataSet struct {
	Namespace string
	// BaseURI prefixes a local id to form the record's web address.
	BaseURI string

	order  []string
	places map[string]*Place
}

// NewDataSet creates an empty dataset.
func NewDataSet(namespace, baseURI string) *DataSet {
	return &DataSet{
		Namespace: namespace,
		BaseURI:   baseURI,
		places:    make(map[string]*Place),
	}
}

// Add inserts or replaces a place, keeping first-insertion order.
func (d *DataSet) Add(p *Place) {
	if _, exists := d.places[p.ID]; !exists {
		d.order = append(d.order, p.ID)
	}
	d.places[p.ID] = p
}

// Places returns all places in insertion order.
func (d *DataSet) Places() []*Place {
	out := make([]*Place, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.places[id])
	}
	return out
}

// Len returns the number of places.
func (d *DataSet) Len() int {
	return len(d.order)
}

// PlaceByID looks up a place by local id.
func (d *DataSet) PlaceByID(id string) (*Place, error) {
	p, ok := d.places[id]
	if !ok {
		return nil, errors.NewNotFoundError("place", QualifiedID(d.Namespace, id))
	}
	return p, nil
}

// URI returns the web address of a local id in this dataset.
func (d *DataSet) URI(id string) string {
	if d.BaseURI == "" {
		return ""
	}
	return d.BaseURI + id
}

// Registry holds the datasets of every configured namespace.
type Registry struct {
	datasets map[string]*DataSet
}

// NewRegistry creates a registry from datasets. A later dataset with the
// same namespace replaces an earlier one.
func NewRegistry(datasets ...*DataSet) *Registry {
	r := &Registry{datasets: make(map[string]*DataSet, len(datasets))}
	for _, ds := range datasets {
		r.Add(ds)
	}
	return r
}

// Add registers a dataset under its namespace.
func (r *Registry) Add(ds *DataSet) {
	r.datasets[ds.Namespace] = ds
}

// DataSet returns the dataset for a namespace.
func (r *Registry) DataSet(namespace string) (*DataSet, error) {
	ds, ok := r.datasets[namespace]
	if !ok {
		return nil, errors.NewNotFoundError("namespace", namespace)
	}
	return ds, nil
}

// Namespaces returns the configured namespaces sorted.
func (r *Registry) Namespaces() []string {
	out := make([]string, 0, len(r.datasets))
	for ns := range r.datasets {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// GetPlaceByID resolves a place within a namespace.
func (r *Registry) GetPlaceByID(namespace, id string) (*Place, error) {
	ds, err := r.DataSet(namespace)
	if err != nil {
		return nil, err
	}
	return ds.PlaceByID(id)
}

// Resolve looks up a place by qualified id.
func (r *Registry) Resolve(qid string) (*Place, error) {
	ns, id, err := SplitQualifiedID(qid)
	if err != nil {
		return nil, err
	}
	return r.GetPlaceByID(ns, id)
}
