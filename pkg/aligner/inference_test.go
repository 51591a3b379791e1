package aligner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
)

var inferGeonames = Inference{Primary: "pleiades", Aligned: "chronique", Inferred: "geonames"}

func TestInferenceBridging(t *testing.T) {
	a := newAligner(t, nil)
	mustRegister(t, a, "pleiades:589704", "chronique:3891", alignment.ModeProximity, alignment.WithProximity("tight"))
	mustRegister(t, a, "chronique:3891", "geonames:264637", alignment.ModeAssertion, alignment.WithAuthority("chronique:3891"))

	require.NoError(t, a.Align(context.Background(), inferGeonames))

	inferred := a.ByMode(alignment.ModeInference)
	require.Len(t, inferred, 1)
	al := inferred[0]
	assert.Equal(t, []string{"geonames:264637", "pleiades:589704"}, al.AlignedIDs())
	assert.Equal(t, []alignment.Mode{alignment.ModeInference}, al.Modes())
	assert.Equal(t, []string{"chronique:3891"}, al.Authorities())
	assert.Equal(t, 3, a.Len())
}

func TestInferenceFullJoin(t *testing.T) {
	a := newAligner(t, nil)
	for _, p := range []string{"pleiades:1", "pleiades:2"} {
		mustRegister(t, a, p, "chronique:10", alignment.ModeAssertion)
	}
	for _, g := range []string{"geonames:100", "geonames:200", "geonames:300"} {
		mustRegister(t, a, "chronique:10", g, alignment.ModeAssertion, alignment.WithAuthority("chronique:10"))
	}

	require.NoError(t, a.Align(context.Background(), inferGeonames))
	assert.Len(t, a.ByMode(alignment.ModeInference), 6)
}

func TestInferenceMultipleBridges(t *testing.T) {
	a := newAligner(t, nil)
	for _, bridge := range []string{"chronique:10", "chronique:11"} {
		mustRegister(t, a, "pleiades:1", bridge, alignment.ModeAssertion)
		mustRegister(t, a, bridge, "geonames:100", alignment.ModeAssertion, alignment.WithAuthority(bridge))
	}

	require.NoError(t, a.Align(context.Background(), inferGeonames))

	inferred := a.ByMode(alignment.ModeInference)
	require.Len(t, inferred, 1)
	assert.Equal(t, []string{"chronique:10", "chronique:11"}, inferred[0].Authorities())
}

func TestInferenceIgnoresNonAssertedCandidates(t *testing.T) {
	a := newAligner(t, nil)
	mustRegister(t, a, "pleiades:1", "chronique:10", alignment.ModeAssertion)
	mustRegister(t, a, "chronique:10", "geonames:100", alignment.ModeProximity, alignment.WithProximity("close"))

	require.NoError(t, a.Align(context.Background(), inferGeonames))
	assert.Empty(t, a.ByMode(alignment.ModeInference))
}

func TestInferenceDoesNotChainInferred(t *testing.T) {
	a := newAligner(t, nil)
	mustRegister(t, a, "pleiades:1", "chronique:10", alignment.ModeAssertion)
	mustRegister(t, a, "chronique:10", "geonames:100", alignment.ModeAssertion)

	second := Inference{Primary: "manto", Aligned: "pleiades", Inferred: "geonames"}
	mustRegister(t, a, "manto:5", "pleiades:1", alignment.ModeAssertion)

	require.NoError(t, a.Align(context.Background(), inferGeonames, second))
	assert.Equal(t, []string{"geonames:100 >< pleiades:1"}, keys(a.ByMode(alignment.ModeInference)))
}

func TestInferenceValidate(t *testing.T) {
	for _, inf := range []Inference{
		{},
		{Primary: "pleiades", Aligned: "chronique"},
		{Primary: "pleiades", Aligned: "pleiades", Inferred: "geonames"},
	} {
		assert.True(t, errors.IsValidationError(inf.Validate()), "%+v", inf)
	}
	assert.NoError(t, inferGeonames.Validate())
	assert.Equal(t, "inference(pleiades<chronique>geonames)", inferGeonames.Name())
}
