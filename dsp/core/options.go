package core

import "fmt"

const (
	// DefaultBufferSize is the delay history length: 2^20 samples. Grains
	// read at most half of it, about 10.9 s at 48 kHz.
	DefaultBufferSize = 1 << 20

	maxChannels = 2
)

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
	BufferSize int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for offline and streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
		Channels:   2,
		BufferSize: DefaultBufferSize,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the largest block the processor is prepared for.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the channel count (1 or 2).
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithBufferSize sets the delay history length in samples. The value is
// stored as given; Validate rejects sizes that are not a power of two.
func WithBufferSize(size int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if size > 0 {
			cfg.BufferSize = size
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks that the configuration can back a real-time processor.
func (cfg ProcessorConfig) Validate() error {
	if cfg.SampleRate <= 0 || !IsFinite(cfg.SampleRate) {
		return fmt.Errorf("processor sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	if cfg.BlockSize <= 0 {
		return fmt.Errorf("processor block size must be > 0: %d", cfg.BlockSize)
	}

	if cfg.Channels < 1 || cfg.Channels > maxChannels {
		return fmt.Errorf("processor channels must be in [1, %d]: %d", maxChannels, cfg.Channels)
	}

	if cfg.BufferSize < 2 || !IsPowerOfTwo(cfg.BufferSize) {
		return fmt.Errorf("processor buffer size must be a power of two >= 2: %d", cfg.BufferSize)
	}

	return nil
}
