// Package wavio reads and writes PCM WAV files as float64 channel slices.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// ErrInvalidFile is returned when the input is not a WAV file.
var ErrInvalidFile = errors.New("invalid wav file")

// Clip is a decoded mono or stereo signal in [-1, 1]. Right is nil for
// mono clips.
type Clip struct {
	SampleRate int
	Channels   int
	Left       []float64
	Right      []float64
}

// NewClip returns a silent clip of frames frames.
func NewClip(sampleRate, channels, frames int) *Clip {
	c := &Clip{
		SampleRate: sampleRate,
		Channels:   channels,
		Left:       make([]float64, frames),
	}
	if channels > 1 {
		c.Right = make([]float64, frames)
	}

	return c
}

// Frames returns the clip length in samples per channel.
func (c *Clip) Frames() int { return len(c.Left) }

// Stereo returns both channels; a mono clip returns Left twice.
func (c *Clip) Stereo() (left, right []float64) {
	if c.Right == nil {
		return c.Left, c.Left
	}

	return c.Left, c.Right
}

// Append adds frames to the end of the clip. right is ignored for mono
// clips and may be nil for stereo ones, in which case left is duplicated.
func (c *Clip) Append(left, right []float64) {
	c.Left = append(c.Left, left...)
	if c.Channels < 2 {
		return
	}

	if right == nil {
		right = left
	}
	c.Right = append(c.Right, right[:len(left)]...)
}

// Read decodes the WAV file at path.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a PCM WAV stream. Channels beyond the second are dropped.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		return nil, fmt.Errorf("%w: unknown bit depth", ErrInvalidFile)
	}

	src := buf.Format.NumChannels
	if src < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}

	channels := min(src, 2)
	frames := len(buf.Data) / src
	clip := NewClip(buf.Format.SampleRate, channels, frames)

	scale := 1 / math.Exp2(float64(bitDepth-1))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		for i := range frames {
			clip.Left[i] = float64(buf.Data[i*src]-128) / 128
			if channels > 1 {
				clip.Right[i] = float64(buf.Data[i*src+1]-128) / 128
			}
		}

		return clip, nil
	}

	for i := range frames {
		clip.Left[i] = float64(buf.Data[i*src]) * scale
		if channels > 1 {
			clip.Right[i] = float64(buf.Data[i*src+1]) * scale
		}
	}

	return clip, nil
}

// Write encodes clip to path at bitDepth (16, 24 or 32).
func Write(path string, clip *Clip, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	if err := Encode(f, clip, bitDepth); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}

	return nil
}

// Encode writes clip as interleaved PCM. Samples are clipped to [-1, 1].
func Encode(w io.WriteSeeker, clip *Clip, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("wav bit depth must be 16, 24 or 32: %d", bitDepth)
	}

	if clip.SampleRate <= 0 {
		return fmt.Errorf("wav sample rate must be > 0: %d", clip.SampleRate)
	}

	if clip.Channels < 1 || clip.Channels > 2 {
		return fmt.Errorf("wav channels must be 1 or 2: %d", clip.Channels)
	}

	if clip.Channels == 2 && len(clip.Right) != len(clip.Left) {
		return fmt.Errorf("wav channel lengths differ: %d and %d", len(clip.Left), len(clip.Right))
	}

	enc := wav.NewEncoder(w, clip.SampleRate, bitDepth, clip.Channels, wavFormatPCM)

	full := math.Exp2(float64(bitDepth-1)) - 1
	frames := clip.Frames()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           make([]int, frames*clip.Channels),
		SourceBitDepth: bitDepth,
	}

	for i := range frames {
		buf.Data[i*clip.Channels] = quantize(clip.Left[i], full)
		if clip.Channels > 1 {
			buf.Data[i*clip.Channels+1] = quantize(clip.Right[i], full)
		}
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}

	return nil
}

func quantize(x, full float64) int {
	if !core.IsFinite(x) {
		return 0
	}

	return int(math.Round(core.Clamp(x, -1, 1) * full))
}
