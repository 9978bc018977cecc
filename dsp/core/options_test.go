package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(2048), WithChannels(1), WithBufferSize(1<<16))
	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}
	if cfg.BlockSize != 2048 {
		t.Fatalf("block size = %d, want 2048", cfg.BlockSize)
	}
	if cfg.Channels != 1 {
		t.Fatalf("channels = %d, want 1", cfg.Channels)
	}
	if cfg.BufferSize != 1<<16 {
		t.Fatalf("buffer size = %d, want %d", cfg.BufferSize, 1<<16)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), WithChannels(0), WithBufferSize(-4))
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	if err := DefaultProcessorConfig().Validate(); err != nil {
		t.Fatalf("default config Validate() = %v", err)
	}

	invalid := []struct {
		name string
		cfg  ProcessorConfig
	}{
		{name: "non power of two buffer", cfg: ApplyProcessorOptions(WithBufferSize(1000))},
		{name: "three channels", cfg: ApplyProcessorOptions(WithChannels(3))},
		{name: "zero rate", cfg: ProcessorConfig{BlockSize: 1, Channels: 1, BufferSize: 8}},
		{name: "zero block", cfg: ProcessorConfig{SampleRate: 48000, Channels: 1, BufferSize: 8}},
		{name: "buffer of one", cfg: ProcessorConfig{SampleRate: 48000, BlockSize: 1, Channels: 1, BufferSize: 1}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatalf("Validate() expected error for %#v", tt.cfg)
			}
		})
	}
}
