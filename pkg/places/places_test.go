package places_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
)

func TestSplitQualifiedID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		ns, id  string
		wantErr bool
	}{
		{name: "simple", in: "pleiades:589704", ns: "pleiades", id: "589704"},
		{name: "colon in local id", in: "wikidata:Q1:extra", ns: "wikidata", id: "Q1:extra"},
		{name: "missing separator", in: "589704", wantErr: true},
		{name: "empty namespace", in: ":1", wantErr: true},
		{name: "empty id", in: "manto:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, id, err := places.SplitQualifiedID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				var qerr *errors.QualifiedIDError
				assert.ErrorAs(t, err, &qerr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ns, ns)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.in, places.QualifiedID(ns, id))
		})
	}
}

func TestBinFor(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		p := orb.Point{23.4, 38.6}
		key := places.BinFor(p.Bound())
		assert.Equal(t, places.BinKey{MinLon: 22, MinLat: 37, MaxLon: 25, MaxLat: 40}, key)
		assert.False(t, key.IsZero())
	})

	t.Run("nearby points share a bin", func(t *testing.T) {
		a := places.BinFor(orb.Point{23.41, 38.61}.Bound())
		b := places.BinFor(orb.Point{23.42, 38.62}.Bound())
		assert.Equal(t, a, b)
	})

	t.Run("cells cover the padded extent", func(t *testing.T) {
		key := places.BinFor(orb.Point{23.4, 38.6}.Bound())
		cells := key.Cells()
		assert.Len(t, cells, 9)
		assert.Equal(t, places.Cell{Lon: 22, Lat: 37}, cells[0])
		assert.Equal(t, places.Cell{Lon: 24, Lat: 39}, cells[8])
		assert.Nil(t, places.BinKey{}.Cells())
	})

	t.Run("points across a degree line share a cell", func(t *testing.T) {
		west := places.BinFor(orb.Point{23.9995, 38.5}.Bound()).Cells()
		east := places.BinFor(orb.Point{24.0005, 38.5}.Bound()).Cells()
		assert.NotEqual(t, west, east)
		assert.Contains(t, east, places.Cell{Lon: 23, Lat: 38})
		assert.Contains(t, west, places.Cell{Lon: 23, Lat: 38})
	})

	t.Run("ordering", func(t *testing.T) {
		a := places.BinKey{MinLon: 1}
		b := places.BinKey{MinLon: 2}
		assert.True(t, a.Less(b))
		assert.False(t, b.Less(a))
		assert.Equal(t, "1,0,0,0", a.String())
	})
}

func TestPlaceGeometry(t *testing.T) {
	p := places.NewPlace("1")
	assert.False(t, p.Located())
	assert.True(t, p.Bin.IsZero())

	p.SetGeometry(orb.Polygon{orb.Ring{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}})
	assert.True(t, p.Located())
	assert.InDelta(t, 1.0, p.Centroid.X(), 1e-9)
	assert.InDelta(t, 1.0, p.Centroid.Y(), 1e-9)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}, p.Footprint)

	p.SetGeometry(nil)
	assert.False(t, p.Located())
	assert.True(t, p.Bin.IsZero())
}

func TestDistance(t *testing.T) {
	a := places.NewPlace("a")
	a.SetGeometry(orb.Point{0, 0})
	b := places.NewPlace("b")
	b.SetGeometry(orb.Point{3, 4})

	assert.InDelta(t, 5.0, places.Distance(a, b, places.AttributeCentroid), 1e-9)
	assert.InDelta(t, 5.0, places.Distance(a, b, places.AttributeFootprint), 1e-9)

	c := places.NewPlace("c")
	c.SetGeometry(orb.Polygon{orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}})
	assert.Zero(t, places.Distance(a, c, places.AttributeFootprint))
	assert.InDelta(t, 2.0, places.Distance(c, places.NewPlaceAt("d", orb.Point{3, 0}), places.AttributeFootprint), 1e-9)
}

func TestParseAttribute(t *testing.T) {
	a, err := places.ParseAttribute("footprint")
	require.NoError(t, err)
	assert.Equal(t, places.AttributeFootprint, a)

	_, err = places.ParseAttribute("area")
	assert.Error(t, err)
}

func TestPlaceSetters(t *testing.T) {
	p := places.NewPlace("1")
	p.AddName("Delphi")
	p.AddName("Delphi")
	p.AddName("")
	p.AddFeatureType("settlement")
	p.AddAlignment("pleiades:1")
	p.AddAlignment("pleiades:1")
	assert.Equal(t, []string{"Delphi"}, p.Names)
	assert.Equal(t, []string{"settlement"}, p.FeatureTypes)
	assert.Equal(t, []string{"pleiades:1"}, p.Alignments)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "athenai", places.NormalizeName("  ATHENAI "))
	assert.Equal(t, "nea paphos", places.NormalizeName("Nea\t  Paphos"))
	// decomposed and precomposed forms compare equal
	assert.Equal(t, places.NormalizeName("\u1f08\u03b8\u1fc6\u03bd\u03b1\u03b9"), places.NormalizeName("\u0391\u0313\u03b8\u03b7\u0342\u03bd\u03b1\u03b9"))

	a := places.NormalizeNames([]string{"Delphi", " "})
	b := places.NormalizeNames([]string{"DELPHI", "Pytho"})
	assert.Len(t, a, 1)
	assert.True(t, places.Intersects(a, b))
	assert.False(t, places.Intersects(a, places.NormalizeNames([]string{"Pytho"})))
}

func TestRegistry(t *testing.T) {
	ds := places.NewDataSet("chronique", "https://chronique.efa.gr/?kroute=topo_public&id=")
	ds.Add(places.NewPlace("3891"))
	ds.Add(places.NewPlace("12"))
	ds.Add(places.NewPlace("3891"))

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "3891", ds.Places()[0].ID)
	assert.Equal(t, "https://chronique.efa.gr/?kroute=topo_public&id=3891", ds.URI("3891"))

	reg := places.NewRegistry(ds, places.NewDataSet("pleiades", ""))
	assert.Equal(t, []string{"chronique", "pleiades"}, reg.Namespaces())

	p, err := reg.Resolve("chronique:3891")
	require.NoError(t, err)
	assert.Equal(t, "3891", p.ID)

	_, err = reg.GetPlaceByID("chronique", "nope")
	assert.True(t, errors.IsNotFound(err))

	_, err = reg.GetPlaceByID("manto", "1")
	assert.True(t, errors.IsNotFound(err))

	_, err = reg.Resolve("garbage")
	assert.True(t, errors.IsValidationError(err))
}
