package grain

import "github.com/cwbudde/algo-granular/dsp/delay"

// PoolSize is the number of concurrently playable grains.
const PoolSize = 32

// Pool is a fixed arena of grains. Acquisition scans for the first inactive
// slot; release happens when a grain deactivates itself.
type Pool struct {
	grains [PoolSize]Grain
}

// Len returns the slot count.
func (p *Pool) Len() int { return PoolSize }

// At returns slot i.
func (p *Pool) At(i int) *Grain { return &p.grains[i] }

// Acquire returns the first inactive slot, or nil when every slot is busy.
func (p *Pool) Acquire() *Grain {
	for i := range p.grains {
		if !p.grains[i].active {
			return &p.grains[i]
		}
	}

	return nil
}

// ActiveCount returns the number of playing grains.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.grains {
		if p.grains[i].active {
			n++
		}
	}

	return n
}

// Process advances every active grain by one sample and returns the summed
// stereo output.
func (p *Pool) Process(r *delay.Ring, writePos int, diag *Diagnostics) (sumL, sumR float64) {
	for i := range p.grains {
		g := &p.grains[i]
		if !g.active {
			continue
		}

		l, rr := g.Process(r, writePos, diag)
		sumL += l
		sumR += rr
	}

	return sumL, sumR
}

// Reset deactivates every grain.
func (p *Pool) Reset() {
	for i := range p.grains {
		p.grains[i] = Grain{}
	}
}
