// Package config loads the YAML configuration shared by the granular
// commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/effects"
	"github.com/cwbudde/algo-granular/dsp/interp"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/dsp/spectrum"
	"github.com/cwbudde/algo-granular/dsp/window"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration shared by the commands.
type Config struct {
	Engine   EngineConfig       `yaml:"engine"`
	Params   map[string]float64 `yaml:"params"`
	Spectrum SpectrumConfig     `yaml:"spectrum"`
	Render   RenderConfig       `yaml:"render"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// EngineConfig sizes the delay line and sets engine construction options.
type EngineConfig struct {
	SampleRate         float64 `yaml:"sample_rate"`
	BlockSize          int     `yaml:"block_size"`
	BufferSize         int     `yaml:"buffer_size"`
	SmoothingMs        float64 `yaml:"smoothing_ms"`
	Seed               int64   `yaml:"seed"`
	ReverseMargin      int     `yaml:"reverse_margin"`
	Interpolation      string  `yaml:"interpolation"`
	CollisionDetection bool    `yaml:"collision_detection"`
	OverviewBins       int     `yaml:"overview_bins"`
}

// SpectrumConfig configures the output spectrum analyzer.
type SpectrumConfig struct {
	Size      int     `yaml:"size"`
	Smoothing float64 `yaml:"smoothing"`
	Window    string  `yaml:"window"`
}

// RenderConfig holds offline rendering settings.
type RenderConfig struct {
	TailMs   float64 `yaml:"tail_ms"`
	BitDepth int     `yaml:"bit_depth"`
}

// LoggingConfig selects the command log level and format.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	proc := core.DefaultProcessorConfig()

	return &Config{
		Engine: EngineConfig{
			SampleRate:         proc.SampleRate,
			BlockSize:          proc.BlockSize,
			BufferSize:         proc.BufferSize,
			SmoothingMs:        20,
			Seed:               1,
			ReverseMargin:      64,
			Interpolation:      interp.Linear.String(),
			CollisionDetection: true,
			OverviewBins:       1024,
		},
		Params: map[string]float64{},
		Spectrum: SpectrumConfig{
			Size:      2048,
			Smoothing: 0.5,
			Window:    window.TypeHann.String(),
		},
		Render: RenderConfig{
			TailMs:   2000,
			BitDepth: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}

	return data, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ProcessorConfig().Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if _, err := interpolationMode(c.Engine.Interpolation); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if c.Engine.SmoothingMs < 0 {
		return fmt.Errorf("engine: smoothing_ms must be >= 0: %g", c.Engine.SmoothingMs)
	}

	for key, v := range c.Params {
		s, err := params.Lookup(key)
		if err != nil {
			return fmt.Errorf("params: %w", err)
		}

		if err := s.Validate(v); err != nil {
			return fmt.Errorf("params: %w", err)
		}
	}

	if !core.IsPowerOfTwo(c.Spectrum.Size) || c.Spectrum.Size < 16 {
		return fmt.Errorf("spectrum: size must be a power of two >= 16: %d", c.Spectrum.Size)
	}

	if _, err := window.ParseType(c.Spectrum.Window); err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	if c.Render.TailMs < 0 {
		return fmt.Errorf("render: tail_ms must be >= 0: %g", c.Render.TailMs)
	}

	switch c.Render.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("render: bit_depth must be 16, 24 or 32: %d", c.Render.BitDepth)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

// ProcessorConfig returns the engine's processor settings.
func (c *Config) ProcessorConfig() core.ProcessorConfig {
	return core.ProcessorConfig{
		SampleRate: c.Engine.SampleRate,
		BlockSize:  c.Engine.BlockSize,
		Channels:   2,
		BufferSize: c.Engine.BufferSize,
	}
}

// Values returns the defaults overlaid with the params section.
func (c *Config) Values() (params.Values, error) {
	v := params.Defaults()
	if err := v.Apply(c.Params); err != nil {
		return v, fmt.Errorf("params: %w", err)
	}

	return v, nil
}

// InterpolationMode returns the delay-line read kernel named by
// Interpolation.
func (e EngineConfig) InterpolationMode() (interp.Mode, error) {
	return interpolationMode(e.Interpolation)
}

// EngineOptions returns the construction options for effects.GranularDelay.
func (c *Config) EngineOptions() ([]effects.GranularDelayOption, error) {
	mode, err := c.Engine.InterpolationMode()
	if err != nil {
		return nil, err
	}

	v, err := c.Values()
	if err != nil {
		return nil, err
	}

	return []effects.GranularDelayOption{
		effects.WithGranularSmoothingMs(c.Engine.SmoothingMs),
		effects.WithGranularSeed(c.Engine.Seed),
		effects.WithGranularReverseMargin(c.Engine.ReverseMargin),
		effects.WithGranularInterpolation(mode),
		effects.WithGranularCollisionDetection(c.Engine.CollisionDetection),
		effects.WithGranularOverviewBins(c.Engine.OverviewBins),
		effects.WithGranularAnalysisSize(c.Spectrum.Size),
		effects.WithGranularParams(v),
	}, nil
}

// NewEngine builds a GranularDelay from the engine and params sections.
func (c *Config) NewEngine() (*effects.GranularDelay, error) {
	opts, err := c.EngineOptions()
	if err != nil {
		return nil, err
	}

	g, err := effects.NewGranularDelay(c.ProcessorConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return g, nil
}

// NewAnalyzer builds a spectrum analyzer from the spectrum section.
func (c *Config) NewAnalyzer() (*spectrum.Analyzer, error) {
	t, err := window.ParseType(c.Spectrum.Window)
	if err != nil {
		return nil, err
	}

	a, err := spectrum.NewAnalyzer(c.Spectrum.Size, c.Engine.SampleRate,
		spectrum.WithAnalyzerWindow(t),
		spectrum.WithAnalyzerSmoothing(c.Spectrum.Smoothing))
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	return a, nil
}

// Logger returns a slog.Logger writing to w at the configured level.
func (l LoggingConfig) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

var errUnknownLevel = errors.New("unknown log level")

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", errUnknownLevel, s)
	}
}

func interpolationMode(s string) (interp.Mode, error) {
	switch s {
	case interp.Linear.String():
		return interp.Linear, nil
	case interp.Hermite.String():
		return interp.Hermite, nil
	default:
		return 0, fmt.Errorf("interpolation unknown: %q", s)
	}
}
