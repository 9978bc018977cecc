// Package report summarises a rendered signal and the engine state that
// produced it.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/effects"
	"github.com/cwbudde/algo-granular/dsp/spectrum"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/sugawarayuuta/sonnet"
)

// SilenceDB is reported for silent signals, which have no finite level.
const SilenceDB = spectrum.FloorDB

// Levels holds the peak and RMS level of one channel.
type Levels struct {
	PeakDBFS float64 `json:"peak_dbfs"`
	RMSDBFS  float64 `json:"rms_dbfs"`
}

// Spectrum describes the frame-averaged magnitude spectrum of the output.
type Spectrum struct {
	CentroidHz float64 `json:"centroid_hz"`
	PeakHz     float64 `json:"peak_hz"`
	Frames     int     `json:"frames"`
}

// Grains holds the engine's lifetime grain counters.
type Grains struct {
	Triggered         uint64 `json:"triggered"`
	Dropped           uint64 `json:"dropped"`
	Collisions        uint64 `json:"collisions"`
	Collision         bool   `json:"collision"`
	CollisionDistance int    `json:"collision_distance,omitempty"`
}

// Report is the JSON summary written by grainrender.
type Report struct {
	Input      string             `json:"input,omitempty"`
	Output     string             `json:"output,omitempty"`
	Automation string             `json:"automation,omitempty"`
	SampleRate float64            `json:"sample_rate"`
	Frames     int                `json:"frames"`
	Seconds    float64            `json:"seconds"`
	Left       Levels             `json:"left"`
	Right      Levels             `json:"right"`
	Spectrum   Spectrum           `json:"spectrum"`
	Grains     Grains             `json:"grains"`
	Params     map[string]float64 `json:"params"`
}

// New measures left and right and records the final state of g. The
// analyzer is reset and then used to average the spectrum of the mono sum.
func New(g *effects.GranularDelay, a *spectrum.Analyzer, left, right []float64) (*Report, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("report channel lengths differ: %d and %d", len(left), len(right))
	}

	r := &Report{
		SampleRate: g.SampleRate(),
		Frames:     len(left),
		Seconds:    float64(len(left)) / g.SampleRate(),
		Left:       MeasureLevels(left),
		Right:      MeasureLevels(right),
	}

	mono := make([]float64, len(left))
	vecmath.AddBlock(mono, left, right)
	vecmath.ScaleBlockInPlace(mono, 0.5)

	spec, err := MeasureSpectrum(a, mono)
	if err != nil {
		return nil, err
	}
	r.Spectrum = spec

	c := g.Diagnostics().Counters()
	collided, dist := g.Diagnostics().Collision()
	r.Grains = Grains{
		Triggered:         c.Triggered,
		Dropped:           c.Dropped,
		Collisions:        c.Collisions,
		Collision:         collided,
		CollisionDistance: dist,
	}

	v := g.Params().Snapshot()
	r.Params = v.Map()

	return r, nil
}

// MeasureLevels returns the peak and RMS level of x in dBFS.
func MeasureLevels(x []float64) Levels {
	if len(x) == 0 {
		return Levels{PeakDBFS: SilenceDB, RMSDBFS: SilenceDB}
	}

	peak := vecmath.MaxAbs(x)
	rms := math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))

	return Levels{PeakDBFS: toDB(peak), RMSDBFS: toDB(rms)}
}

// MeasureSpectrum averages the magnitude spectra of consecutive
// non-overlapping frames of x. A trailing partial frame is analysed
// zero-padded.
func MeasureSpectrum(a *spectrum.Analyzer, x []float64) (Spectrum, error) {
	a.Reset()

	avg := make([]float64, a.Bins())

	var frames int
	for start := 0; start < len(x); start += a.Size() {
		end := min(start+a.Size(), len(x))
		if err := a.Analyze(x[start:end]); err != nil {
			return Spectrum{}, fmt.Errorf("analyze frame at %d: %w", start, err)
		}

		vecmath.AddBlockInPlace(avg, a.Magnitudes())
		frames++
	}

	out := Spectrum{Frames: frames}
	if frames == 0 {
		return out, nil
	}

	binHz := a.BinHz()

	var num, den float64
	best := 1
	for k, m := range avg {
		num += float64(k) * binHz * m
		den += m
		if k > 0 && m > avg[best] {
			best = k
		}
	}

	if den > 0 {
		out.CentroidHz = num / den
		out.PeakHz = float64(best) * binHz
	}

	return out, nil
}

// Write encodes r as JSON followed by a newline.
func (r *Report) Write(w io.Writer) error {
	data, err := sonnet.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// Read decodes a report written by Write.
func Read(rd io.Reader) (*Report, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var r Report
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return &r, nil
}

func toDB(x float64) float64 {
	if x <= 0 || !core.IsFinite(x) {
		return SilenceDB
	}

	return math.Max(SilenceDB, core.LinearToDB(x))
}
