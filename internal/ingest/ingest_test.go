package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/internal/config"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

const chroniqueCSV = "\xEF\xBB\xBFid,Full_name,Greekname,Pleiades_id,Geoname_id,lat,lon\n" +
	`GA_OPE_EDIT" target="_blank">3891,Delphi,"Δελφοί, (Kastri)",589704,"264637, 264638",38.4824,22.5009` + "\n" +
	`GA_OPE_EDIT" target="_blank">3892,Krisa,,,,,` + "\n"

func chroniqueSource() config.DataSource {
	return config.DataSource{
		Namespace:     "chronique",
		Format:        config.FormatCSV,
		Path:          "chronique.csv",
		BaseURI:       "https://chronique.efa.gr/?kroute=topo_public&id=",
		IDStripPrefix: `GA_OPE_EDIT" target="_blank">`,
		TitleFormat:   "Toponym {id}: {Full_name}",
		NameFields:    []string{"Greekname", "Full_name"},
		AlignmentFields: []config.AlignmentField{
			{Field: "Pleiades_id", Namespace: "pleiades"},
			{Field: "Geoname_id", Namespace: "geonames"},
		},
	}
}

func readCSV(t *testing.T, cfg config.DataSource, body string) (*places.DataSet, error) {
	t.Helper()
	src, err := New(cfg)
	require.NoError(t, err)
	ctx := logging.WithLogger(context.Background(), logging.NewNopLogger())
	return src.(*CSVSource).Read(ctx, strings.NewReader(body))
}

func TestCSVSource(t *testing.T) {
	ds, err := readCSV(t, chroniqueSource(), chroniqueCSV)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	p, err := ds.PlaceByID("3891")
	require.NoError(t, err)
	assert.Equal(t, "Toponym 3891: Delphi", p.Title)
	assert.Equal(t, []string{"Δελφοί", "Delphi"}, p.Names)
	assert.Equal(t, []string{"pleiades:589704", "geonames:264637", "geonames:264638"}, p.Alignments)
	assert.Equal(t, orb.Point{22.5009, 38.4824}, p.Centroid)
	assert.Equal(t, places.BinKey{MinLon: 21, MinLat: 37, MaxLon: 24, MaxLat: 40}, p.Bin)
	assert.Equal(t, "https://chronique.efa.gr/?kroute=topo_public&id=3891", ds.URI(p.ID))

	unlocated, err := ds.PlaceByID("3892")
	require.NoError(t, err)
	assert.False(t, unlocated.Located())
	assert.True(t, unlocated.Bin.IsZero())
	assert.Empty(t, unlocated.Alignments)
}

func TestCSVMergeRows(t *testing.T) {
	cfg := config.DataSource{
		Namespace:   "manto",
		Format:      config.FormatCSV,
		Path:        "manto.csv",
		IDField:     "Object ID",
		TitleFormat: "{id}: {Name_0}",
		NameFields:  []string{"Name_0", "Name_1"},
		MergeRows:   true,
	}
	body := "Object ID,Name,Name,Latitude,Longitude\n" +
		"8000,Athens,Athenai,37.97,23.72\n" +
		"8000,Athens,Ἀθῆναι,37.98,23.73\n"

	ds, err := readCSV(t, cfg, body)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	p := ds.Places()[0]
	assert.Equal(t, "8000: Athens", p.Title)
	assert.ElementsMatch(t, []string{"Athens", "Athenai", "Ἀθῆναι"}, p.Names)
	assert.Equal(t, orb.MultiPoint{{23.72, 37.97}, {23.73, 37.98}}, p.Geometry)
	assert.InDelta(t, 23.725, p.Centroid.Lon(), 1e-9)
}

func TestCSVFeatureTypes(t *testing.T) {
	cfg := config.DataSource{
		Namespace:        "manto",
		Format:           config.FormatCSV,
		Path:             "manto.csv",
		FeatureTypeField: "kind",
		FeatureTypes:     map[string]string{"city": "settlement", "River": "river"},
	}

	ds, err := readCSV(t, cfg, "id,kind\n1,City\n2,river\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"settlement"}, ds.Places()[0].FeatureTypes)
	assert.Equal(t, []string{"river"}, ds.Places()[1].FeatureTypes)

	_, err = readCSV(t, cfg, "id,kind\n1,volcano\n")
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestCSVAlignmentPrefixes(t *testing.T) {
	cfg := config.DataSource{
		Namespace: "topostext",
		Format:    config.FormatCSV,
		Path:      "topostext.csv",
		AlignmentFields: []config.AlignmentField{
			{Field: "matches", Namespace: "pleiades", Prefix: "https://pleiades.stoa.org/places/"},
			{Field: "matches", Namespace: "pleiades", Prefix: "http://pleiades.stoa.org/places/"},
			{Field: "matches", Namespace: "wikidata", Prefix: "https://www.wikidata.org/wiki/"},
		},
	}
	body := "id,matches\n" +
		`1,"http://pleiades.stoa.org/places/579885, https://www.wikidata.org/wiki/Q1524, https://example.org/x"` + "\n"

	ds, err := readCSV(t, cfg, body)
	require.NoError(t, err)
	assert.Equal(t, []string{"pleiades:579885", "wikidata:Q1524"}, ds.Places()[0].Alignments)
}

func TestCSVErrors(t *testing.T) {
	_, err := readCSV(t, chroniqueSource(), "name,lat,lon\nDelphi,1,2\n")
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)

	_, err = readCSV(t, chroniqueSource(), "id,Full_name,lat,lon\n1,Delphi,north,22\n")
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)

	cfg := chroniqueSource()
	cfg.TitleFormat = "{id}: {Missing}"
	_, err = readCSV(t, cfg, "id,Full_name\n1,Delphi\n")
	require.ErrorAs(t, err, &parseErr)

	ds, err := readCSV(t, chroniqueSource(), "")
	require.NoError(t, err)
	assert.Zero(t, ds.Len())
}

func TestCSVMissingConfiguredColumn(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.DataSource)
		want   string
	}{
		{"id", func(c *config.DataSource) { c.IDField = "Object_ID" }, `id_field column "Object_ID" not found`},
		{"lat", func(c *config.DataSource) { c.LatField = "Latitude_dd" }, `lat_field column "Latitude_dd" not found`},
		{"lon", func(c *config.DataSource) { c.LonField = "Longitude_dd" }, `lon_field column "Longitude_dd" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := chroniqueSource()
			tt.modify(&cfg)
			var ds *places.DataSet
			var err error
			require.NotPanics(t, func() {
				ds, err = readCSV(t, cfg, "id,Full_name,lat,lon\n1,Delphi,38.48,22.50\n")
			})
			assert.Nil(t, ds)
			var parseErr *errors.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Message, tt.want)
		})
	}
}

func TestDedupeHeaders(t *testing.T) {
	assert.Equal(t, []string{"id", "Name_0", "lat", "Name_1"}, dedupeHeaders([]string{"id", " Name", "lat", "Name "}))
}

func TestSplitValues(t *testing.T) {
	got := splitValues([]string{"  Delphi ,(Kastri),  Pytho  ", "", "Krisa)"})
	assert.Equal(t, []string{"Delphi", "Pytho"}, got)
}

const pleiadesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": 589704,
      "geometry": {"type": "Polygon", "coordinates": [[[22.49, 38.47], [22.51, 38.47], [22.51, 38.49], [22.49, 38.49], [22.49, 38.47]]]},
      "properties": {"title": "Delphi", "names": ["Delphi", "Pytho"], "featureTypes": ["sanctuary", "settlement"], "chronique": 3891}
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"id": "1", "title": "Unlocated", "names": null}
    }
  ]
}`

func TestGeoJSONSource(t *testing.T) {
	cfg := config.DataSource{
		Namespace:        "pleiades",
		Format:           config.FormatGeoJSON,
		Path:             "pleiades.geojson",
		BaseURI:          "https://pleiades.stoa.org/places/",
		TitleFormat:      "{title}",
		NameFields:       []string{"names"},
		FeatureTypeField: "featureTypes",
		AlignmentFields:  []config.AlignmentField{{Field: "chronique", Namespace: "chronique"}},
	}
	src, err := New(cfg)
	require.NoError(t, err)
	ds, err := src.(*GeoJSONSource).Read(context.Background(), strings.NewReader(pleiadesGeoJSON))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	delphi, err := ds.PlaceByID("589704")
	require.NoError(t, err)
	assert.Equal(t, "Delphi", delphi.Title)
	assert.Equal(t, []string{"Delphi", "Pytho"}, delphi.Names)
	assert.Equal(t, []string{"sanctuary", "settlement"}, delphi.FeatureTypes)
	assert.Equal(t, []string{"chronique:3891"}, delphi.Alignments)
	assert.InDelta(t, 22.50, delphi.Centroid.Lon(), 1e-9)
	assert.InDelta(t, 38.48, delphi.Centroid.Lat(), 1e-9)

	unlocated, err := ds.PlaceByID("1")
	require.NoError(t, err)
	assert.False(t, unlocated.Located())
	assert.Empty(t, unlocated.Names)

	_, err = src.(*GeoJSONSource).Read(context.Background(), strings.NewReader("{"))
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "chronique.csv")
	geoPath := filepath.Join(dir, "pleiades.geojson")
	require.NoError(t, os.WriteFile(csvPath, []byte(chroniqueCSV), 0o600))
	require.NoError(t, os.WriteFile(geoPath, []byte(pleiadesGeoJSON), 0o600))

	chronique := chroniqueSource()
	chronique.Path = csvPath
	pleiades := config.DataSource{Namespace: "pleiades", Format: config.FormatGeoJSON, Path: geoPath}

	ctx := logging.WithLogger(context.Background(), logging.NewNopLogger())
	registry, err := LoadAll(ctx, []config.DataSource{chronique, pleiades})
	require.NoError(t, err)
	assert.Equal(t, []string{"chronique", "pleiades"}, registry.Namespaces())

	p, err := registry.Resolve("pleiades:589704")
	require.NoError(t, err)
	assert.True(t, p.Located())

	missing := pleiades
	missing.Path = filepath.Join(dir, "missing.geojson")
	_, err = LoadAll(ctx, []config.DataSource{chronique, missing})
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.DataSource{Namespace: "x", Format: "xlsx"})
	assert.True(t, errors.IsValidationError(err))

	_, err = New(config.DataSource{Namespace: "x", Format: config.FormatCSV, TitleFormat: "plain"})
	assert.True(t, errors.IsValidationError(err))
}
