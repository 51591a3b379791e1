package places

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Attribute names the geometry a proximity category measures.
type Attribute string

const (
	// AttributeCentroid compares the representative points.
	AttributeCentroid Attribute = "centroid"
	// AttributeFootprint compares the representative areas.
	AttributeFootprint Attribute = "footprint"
)

// ParseAttribute validates a geometry attribute name.
func ParseAttribute(s string) (Attribute, error) {
	switch a := Attribute(s); a {
	case AttributeCentroid, AttributeFootprint:
		return a, nil
	default:
		return "", fmt.Errorf("unknown geometry attribute %q (want centroid or footprint)", s)
	}
}

// Place is one normalized record from a gazetteer.
type Place struct {
	ID           string
	Title        string
	Names        []string
	FeatureTypes []string
	// Alignments holds qualified ids the source record itself asserts.
	Alignments []string

	// Geometry is the source geometry; nil for unlocated places.
	Geometry  orb.Geometry
	Centroid  orb.Point
	Footprint orb.Bound
	Bin       BinKey
}

// NewPlace creates a place with the given local id.
func NewPlace(id string) *Place {
	return &Place{ID: id}
}

// NewPlaceAt creates a place located by the given geometry.
func NewPlaceAt(id string, g orb.Geometry) *Place {
	p := NewPlace(id)
	p.SetGeometry(g)
	return p
}

// SetGeometry stores g and derives centroid, footprint and bin from it.
func (p *Place) SetGeometry(g orb.Geometry) {
	if g == nil {
		p.Geometry = nil
		p.Centroid = orb.Point{}
		p.Footprint = orb.Bound{}
		p.Bin = BinKey{}
		return
	}
	p.Geometry = g
	p.Footprint = g.Bound()
	p.Centroid, _ = planar.CentroidArea(g)
	p.Bin = BinFor(p.Footprint)
}

// Located reports whether the place has geometry.
func (p *Place) Located() bool {
	return p.Geometry != nil
}

// AddName adds a name if it is not already present.
func (p *Place) AddName(name string) {
	p.Names = appendUnique(p.Names, name)
}

// AddFeatureType adds a feature type if it is not already present.
func (p *Place) AddFeatureType(ft string) {
	p.FeatureTypes = appendUnique(p.FeatureTypes, ft)
}

// AddAlignment records a qualified id asserted by this place.
func (p *Place) AddAlignment(qid string) {
	p.Alignments = appendUnique(p.Alignments, qid)
}

func appendUnique(s []string, v string) []string {
	if v == "" || slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// Distance is the plane distance in decimal degrees between the chosen
// geometry attribute of two places. Footprints that touch or overlap are
// at distance zero.
func Distance(a, b *Place, attr Attribute) float64 {
	if attr == AttributeFootprint {
		return boundDistance(a.Footprint, b.Footprint)
	}
	return planar.Distance(a.Centroid, b.Centroid)
}

func boundDistance(a, b orb.Bound) float64 {
	dx := math.Max(0, math.Max(b.Min.X()-a.Max.X(), a.Min.X()-b.Max.X()))
	dy := math.Max(0, math.Max(b.Min.Y()-a.Max.Y(), a.Min.Y()-b.Max.Y()))
	return math.Hypot(dx, dy)
}
