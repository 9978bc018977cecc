package effects

import (
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/filter/onepole"
	"github.com/cwbudde/algo-granular/dsp/grain"
	"github.com/cwbudde/algo-granular/dsp/params"
)

const (
	minToneHz = 200.0
	maxToneHz = 20000.0
)

// ToneCutoff maps the normalised tone control to the feedback low-pass
// cutoff: 200 Hz at 0, 20 kHz at 1.
func ToneCutoff(tone float64) float64 {
	return core.Lerp(minToneHz, maxToneHz, core.Clamp(tone, 0, 1))
}

// DensityScale returns the wet gain compensation 1/sqrt(max(1, density))
// for overlapping grains.
func DensityScale(density float64) float64 {
	if !(density > 1) {
		return 1
	}

	return 1 / math.Sqrt(density)
}

// EqualPowerGains returns the dry and wet gains cos(mix*π/2), sin(mix*π/2).
// The end points are exact: mix <= 0 gives (1, 0) and mix >= 1 gives (0, 1).
func EqualPowerGains(mix float64) (dry, wet float64) {
	switch {
	case mix <= 0 || math.IsNaN(mix):
		return 1, 0
	case mix >= 1:
		return 0, 1
	}

	rad := mix * math.Pi / 2

	return math.Cos(rad), math.Sin(rad)
}

// GrainSettings converts a parameter set into scheduler settings.
func GrainSettings(v *params.Values) grain.Settings {
	return grain.Settings{
		SpliceMs:            v[params.Splice],
		DelayMs:             v[params.Delay],
		Density:             v[params.Density],
		Pitch:               v[params.Pitch],
		SpreadMs:            v[params.Spread],
		Width:               v[params.Width],
		PitchOffsetCents:    v[params.PitchOffset],
		SpliceOffsetPercent: v[params.SpliceOffset],
		DelayOffsetPercent:  v[params.DelayOffset],
		Reverse:             v.Bool(params.Reverse),
	}
}

// feedbackPath conditions the signal written into the delay line:
// tanh(lowpass(dcblock(input + lastWet*amount))). Each ring channel owns one.
type feedbackPath struct {
	hp onepole.DCBlocker
	lp onepole.LowPass
}

func newFeedbackPath() feedbackPath {
	return feedbackPath{hp: onepole.NewDCBlocker(onepole.DefaultDCBlockerPole)}
}

func (p *feedbackPath) setAlpha(alpha float64) { p.lp.SetAlpha(alpha) }

func (p *feedbackPath) Process(input, lastWet, amount float64) float64 {
	x := p.hp.Process(input + lastWet*amount)
	x = p.lp.Process(x)

	return math.Tanh(x)
}

func (p *feedbackPath) Reset() {
	p.hp.Reset()
	p.lp.Reset()
}
