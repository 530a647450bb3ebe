package harvest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleInstanceIsValid(t *testing.T) {
	inst := SampleInstance()

	require.NoError(t, inst.Validate())
	assert.Equal(t, 8, inst.Lots)
	assert.Equal(t, 3, inst.Plots)
	assert.Equal(t, []int{3, 3, 2}, PlotSizes(inst))
	assert.InDelta(t, 1.15*0.78, inst.Return[0], 1e-12)
	assert.Equal(t, 3.03, inst.Displace(0, 1))
}

func TestDisplaceDepotIsFree(t *testing.T) {
	inst := SampleInstance()

	assert.Zero(t, inst.Displace(DepotStart, 2))
	assert.Zero(t, inst.Displace(1, DepotEnd))
	assert.Zero(t, inst.Displace(DepotStart, DepotEnd))
}

func TestValidateRejectsMalformedInstances(t *testing.T) {
	valid := func() *Instance {
		inst, err := NewInstance(2, 1, 0.5, []int{0, 0, 1}, []float64{1, 1, 2}, [][]float64{{0, 1}, {1, 0}}, 1)
		require.NoError(t, err)
		return inst
	}

	cases := []struct {
		name   string
		mutate func(*Instance)
	}{
		{"no vehicles", func(i *Instance) { i.Vehicles = 0 }},
		{"no forklifts", func(i *Instance) { i.Forklifts = -1 }},
		{"negative load", func(i *Instance) { i.LoadTime = -0.1 }},
		{"nan load", func(i *Instance) { i.LoadTime = math.NaN() }},
		{"plot out of range", func(i *Instance) { i.Plot[2] = 5 }},
		{"empty plot", func(i *Instance) { i.Plot[2] = 0 }},
		{"short membership", func(i *Instance) { i.Plot = i.Plot[:2] }},
		{"negative outbound", func(i *Instance) { i.Outbound[1] = -1 }},
		{"infinite return", func(i *Instance) { i.Return[0] = math.Inf(1) }},
		{"ragged displacement", func(i *Instance) { i.Displacement[1] = []float64{0} }},
		{"negative displacement", func(i *Instance) { i.Displacement[0][1] = -2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inst := valid()
			tc.mutate(inst)
			assert.ErrorIs(t, inst.Validate(), ErrInvalidInstance)
		})
	}

	var nilInst *Instance
	assert.ErrorIs(t, nilInst.Validate(), ErrInvalidInstance)
}

func TestNewInstanceRejectsNegativeReturnFactor(t *testing.T) {
	_, err := NewInstance(1, 1, 1, []int{0}, []float64{1}, [][]float64{{0}}, -1)
	assert.ErrorIs(t, err, ErrInvalidInstance)
}

func TestRandomInstanceIsReproducible(t *testing.T) {
	a := RandomInstance(20, 5, 4, 2, rand.New(rand.NewSource(7)))
	b := RandomInstance(20, 5, 4, 2, rand.New(rand.NewSource(7)))

	require.NoError(t, a.Validate())
	assert.Equal(t, a, b)
	for p, n := range PlotSizes(a) {
		assert.Positive(t, n, "plot %d", p)
	}
	for i := 0; i < a.Plots; i++ {
		assert.Zero(t, a.Displacement[i][i])
	}
}
