package places

import (
	"cmp"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BinPadding is added on every side of a footprint's rounded bounds.
const BinPadding = 1

// BinKey is the padded integer-degree extent of a footprint. Proximity
// compares places whose extents share at least one Cell. The zero value
// means the place is not binned.
type BinKey struct {
	MinLon, MinLat, MaxLon, MaxLat int
}

// IsZero reports whether the key is the unbinned zero value.
func (k BinKey) IsZero() bool {
	return k == BinKey{}
}

// String renders the key as "minlon,minlat,maxlon,maxlat".
func (k BinKey) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", k.MinLon, k.MinLat, k.MaxLon, k.MaxLat)
}

// Less orders keys for deterministic iteration.
func (k BinKey) Less(o BinKey) bool {
	switch {
	case k.MinLon != o.MinLon:
		return k.MinLon < o.MinLon
	case k.MinLat != o.MinLat:
		return k.MinLat < o.MinLat
	case k.MaxLon != o.MaxLon:
		return k.MaxLon < o.MaxLon
	default:
		return k.MaxLat < o.MaxLat
	}
}

// BinFor derives the bin of a footprint: floor of the minimum corner and
// ceiling of the maximum corner, each widened by BinPadding.
func BinFor(footprint orb.Bound) BinKey {
	return BinKey{
		MinLon: int(math.Floor(footprint.Min.Lon())) - BinPadding,
		MinLat: int(math.Floor(footprint.Min.Lat())) - BinPadding,
		MaxLon: int(math.Ceil(footprint.Max.Lon())) + BinPadding,
		MaxLat: int(math.Ceil(footprint.Max.Lat())) + BinPadding,
	}
}

// Cell is one 1-degree grid square, named by its south-west corner.
type Cell struct {
	Lon, Lat int
}

// String renders the cell as "lon,lat".
func (c Cell) String() string {
	return fmt.Sprintf("%d,%d", c.Lon, c.Lat)
}

// Compare orders cells by longitude, then latitude.
func (c Cell) Compare(o Cell) int {
	if c.Lon != o.Lon {
		return cmp.Compare(c.Lon, o.Lon)
	}
	return cmp.Compare(c.Lat, o.Lat)
}

// Cells lists every grid cell the extent covers, in Compare order.
// An unbinned key covers none.
func (k BinKey) Cells() []Cell {
	if k.IsZero() {
		return nil
	}
	cells := make([]Cell, 0, (k.MaxLon-k.MinLon)*(k.MaxLat-k.MinLat))
	for lon := k.MinLon; lon < k.MaxLon; lon++ {
		for lat := k.MinLat; lat < k.MaxLat; lat++ {
			cells = append(cells, Cell{Lon: lon, Lat: lat})
		}
	}
	return cells
}
