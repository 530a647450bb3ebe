package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvestSched/internal/harvest"
	"harvestSched/internal/sa"
	"harvestSched/internal/ts"
)

const minimal = `
instance:
  vehicles: 2
  forklifts: 1
  load_time: 0.5
  lots:
    - {plot: 0, outbound: 1}
    - {plot: 1, outbound: 2}
  displacement:
    - [0, 1]
    - [1, 0]
`

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "sample.yaml"))
	require.NoError(t, err)

	inst, err := cfg.BuildInstance()
	require.NoError(t, err)
	assert.Equal(t, harvest.SampleInstance(), inst)

	assert.Equal(t, 5*time.Second, cfg.SA().TimeLimit)
	assert.Equal(t, 400, cfg.TS().Iterations)
	assert.NoError(t, cfg.RS().Validate())
	assert.NoError(t, cfg.SA().Validate())
	assert.NoError(t, cfg.TS().Validate())
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(write(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, sa.DefaultConfig(), cfg.SA())

	inst, err := cfg.BuildInstance()
	require.NoError(t, err)
	assert.InDelta(t, 2*harvest.DefaultReturnFactor, inst.Return[1], 1e-12)
	assert.Nil(t, cfg.Search.Target)
}

func TestLoadOverridesSearch(t *testing.T) {
	body := minimal + `
search:
  time_limit: 250ms
  target: 4.5
  ts:
    memory: 7
`
	cfg, err := Load(write(t, body))
	require.NoError(t, err)

	tsCfg := cfg.TS()
	assert.Equal(t, 7, tsCfg.Memory)
	assert.Equal(t, 250*time.Millisecond, tsCfg.TimeLimit)
	require.NotNil(t, tsCfg.Target)
	assert.Equal(t, 4.5, *tsCfg.Target)
}

func TestIterationsPerLotOverridesDefaultTotal(t *testing.T) {
	body := minimal + `
search:
  sa:
    iterations_per_lot: 40
`
	cfg, err := Load(write(t, body))
	require.NoError(t, err)

	s := cfg.SA()
	assert.Zero(t, s.Iterations)
	assert.Equal(t, 40, s.IterationsPerLot)
	assert.NoError(t, s.Validate())

	// a section without any budget keeps the driver defaults
	assert.Equal(t, ts.DefaultConfig().IterationsPerLot, cfg.TS().IterationsPerLot)
	assert.Zero(t, cfg.TS().Iterations)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no vehicles": `
instance:
  vehicles: 0
  forklifts: 1
  lots: [{plot: 0, outbound: 1}]
  displacement: [[0]]
`,
		"empty plot": `
instance:
  vehicles: 1
  forklifts: 1
  lots: [{plot: 0, outbound: 1}]
  displacement: [[0, 1], [1, 0]]
`,
		"plot out of range": `
instance:
  vehicles: 1
  forklifts: 1
  lots: [{plot: 3, outbound: 1}]
  displacement: [[0]]
`,
		"ragged displacement": `
instance:
  vehicles: 1
  forklifts: 1
  lots: [{plot: 0, outbound: 1}, {plot: 1, outbound: 1}]
  displacement: [[0, 1], [1]]
`,
		"negative outbound": `
instance:
  vehicles: 1
  forklifts: 1
  lots: [{plot: 0, outbound: -1}]
  displacement: [[0]]
`,
		"bad alpha": minimal + `
search:
  sa:
    alpha: 1.5
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse([]byte("instance: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
