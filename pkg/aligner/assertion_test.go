package aligner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
)

func TestAssertionsMutual(t *testing.T) {
	pleiades := placeAt("589704", 22.5, 38.5)
	pleiades.AddAlignment("chronique:3891")
	chronique := placeAt("3891", 22.5, 38.5)
	chronique.AddAlignment("pleiades:589704")

	a := newAligner(t, []*places.DataSet{dataset("pleiades", pleiades), dataset("chronique", chronique)})
	require.NoError(t, a.Align(context.Background(), Assertions{}))

	require.Equal(t, 1, a.Len())
	al := a.Alignments()[0]
	assert.Equal(t, []string{"chronique:3891", "pleiades:589704"}, al.AlignedIDs())
	assert.Equal(t, []alignment.Mode{alignment.ModeAssertion}, al.Modes())
	assert.Equal(t, []string{"chronique:3891", "pleiades:589704"}, al.Authorities())
}

func TestAssertionsUnconfiguredNamespace(t *testing.T) {
	p := placeAt("1", 22.5, 38.5)
	p.AddAlignment("geonames:264637")
	a := newAligner(t, []*places.DataSet{dataset("chronique", p)})

	require.NoError(t, a.Align(context.Background(), Assertions{}))
	assert.Equal(t, []string{"chronique:1 >< geonames:264637"}, keys(a.ByIDNamespace("geonames")))
	assert.Equal(t, []string{"chronique:1 >< geonames:264637"}, keys(a.ByAuthorityNamespace("chronique")))
}

func TestAssertionsRedirects(t *testing.T) {
	p := placeAt("1", 22.5, 38.5)
	p.AddAlignment("pleiades:100")
	self := placeAt("7", 22.5, 38.5)
	self.AddAlignment("manto:8")

	a := newAligner(t, []*places.DataSet{dataset("manto", p, self)}, WithRedirects(map[string]string{
		"pleiades:100": "pleiades:200",
		"manto:8":      "manto:7",
	}))
	require.NoError(t, a.Align(context.Background(), Assertions{}))

	assert.Equal(t, []string{"manto:1 >< pleiades:200"}, keys(a.Alignments()))
	assert.Empty(t, a.ByFullID("pleiades:100"))
}

func TestAssertionsMalformedTarget(t *testing.T) {
	p := placeAt("1", 22.5, 38.5)
	p.AddAlignment("no-namespace")
	a := newAligner(t, []*places.DataSet{dataset("manto", p)})

	err := a.Align(context.Background(), Assertions{})
	require.Error(t, err)
	var qidErr *errors.QualifiedIDError
	require.ErrorAs(t, err, &qidErr)
	assert.Equal(t, "no-namespace", qidErr.Value)
	assert.Zero(t, a.Len())
}
