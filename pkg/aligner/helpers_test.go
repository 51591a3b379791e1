package aligner

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/logging"
	"github.com/agentstation/placemap/pkg/places"
)

// placeAt builds a located point place with the given names.
func placeAt(id string, lon, lat float64, names ...string) *places.Place {
	p := places.NewPlaceAt(id, orb.Point{lon, lat})
	for _, n := range names {
		p.AddName(n)
	}
	return p
}

func dataset(ns string, ps ...*places.Place) *places.DataSet {
	ds := places.NewDataSet(ns, "https://example.org/"+ns+"/")
	for _, p := range ps {
		ds.Add(p)
	}
	return ds
}

func newAligner(t *testing.T, datasets []*places.DataSet, opts ...Option) *Aligner {
	t.Helper()
	logger := logging.NewNopLogger()
	a, err := New(places.NewRegistry(datasets...), append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return a
}

func mustAlignment(t *testing.T, id1, id2 string, mode alignment.Mode, opts ...alignment.Option) *alignment.Alignment {
	t.Helper()
	al, err := alignment.New(id1, id2, mode, opts...)
	require.NoError(t, err)
	return al
}

func mustRegister(t *testing.T, a *Aligner, id1, id2 string, mode alignment.Mode, opts ...alignment.Option) *alignment.Alignment {
	t.Helper()
	stored, err := a.Register(mustAlignment(t, id1, id2, mode, opts...))
	require.NoError(t, err)
	return stored
}

func keys(als []*alignment.Alignment) []string {
	out := make([]string, len(als))
	for i, al := range als {
		out[i] = al.Key().String()
	}
	return out
}
