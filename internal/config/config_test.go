package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-granular/dsp/interp"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yamlContent := `
engine:
  sample_rate: 44100
  block_size: 256
  interpolation: hermite
  seed: 7

params:
  pitch: 2
  density: 8
  reverse: 1

spectrum:
  size: 4096
  window: blackman-harris

render:
  tail_ms: 500
  bit_depth: 24

logging:
  level: debug
  json: true
`

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 44100.0, cfg.Engine.SampleRate)
	require.Equal(t, 256, cfg.Engine.BlockSize)
	require.Equal(t, "hermite", cfg.Engine.Interpolation)
	require.Equal(t, int64(7), cfg.Engine.Seed)
	require.True(t, cfg.Engine.CollisionDetection, "unset fields keep their defaults")
	require.Equal(t, Default().Engine.BufferSize, cfg.Engine.BufferSize)
	require.Equal(t, 4096, cfg.Spectrum.Size)
	require.Equal(t, 24, cfg.Render.BitDepth)
	require.True(t, cfg.Logging.JSON)

	v, err := cfg.Values()
	require.NoError(t, err)
	require.Equal(t, 2.0, v.Get(params.Pitch))
	require.Equal(t, 8.0, v.Get(params.Density))
	require.True(t, v.Bool(params.Reverse))
	require.Equal(t, params.Mix.Spec().Default, v.Get(params.Mix))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "engine: [", "parse yaml"},
		{"block size", "engine: {block_size: -1}", "engine"},
		{"buffer size", "engine: {buffer_size: 1000}", "power of two"},
		{"interpolation", "engine: {interpolation: sinc}", "interpolation"},
		{"unknown param", "params: {warp: 1}", "warp"},
		{"param range", "params: {pitch: 9}", "params"},
		{"spectrum size", "spectrum: {size: 1000}", "spectrum"},
		{"window", "spectrum: {window: kaiser}", "window"},
		{"bit depth", "render: {bit_depth: 12}", "bit_depth"},
		{"log level", "logging: {level: loud}", "logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUnknownParamIsSentinel(t *testing.T) {
	_, err := Parse([]byte("params: {warp: 1}"))
	require.ErrorIs(t, err, params.ErrUnknownKey)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.SampleRate = 96000
	cfg.Params["splice"] = 120
	cfg.Logging.Level = "warn"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestNewEngine(t *testing.T) {
	cfg, err := Parse([]byte("engine: {sample_rate: 8000, block_size: 64, buffer_size: 65536}\nparams: {density: 10}"))
	require.NoError(t, err)

	g, err := cfg.NewEngine()
	require.NoError(t, err)
	require.Equal(t, 8000.0, g.SampleRate())
	require.Equal(t, 64, g.BlockSize())
	require.Equal(t, 10.0, g.Params().Get(params.Density))

	a, err := cfg.NewAnalyzer()
	require.NoError(t, err)
	require.Equal(t, cfg.Spectrum.Size, a.Size())
}

func TestHermiteEngineGuardsReads(t *testing.T) {
	cfg, err := Parse([]byte("engine: {buffer_size: 65536, interpolation: hermite}"))
	require.NoError(t, err)

	mode, err := cfg.Engine.InterpolationMode()
	require.NoError(t, err)
	require.Equal(t, interp.Hermite, mode)

	g, err := cfg.NewEngine()
	require.NoError(t, err)
	require.Equal(t, 2, g.Scheduler().Guard())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	LoggingConfig{Level: "warn"}.Logger(&buf).Info("hidden")
	require.Zero(t, buf.Len())

	LoggingConfig{Level: "debug", JSON: true}.Logger(&buf).Debug("shown", "grains", 3)
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "{"), out)
	require.Contains(t, out, `"grains":3`)
}
