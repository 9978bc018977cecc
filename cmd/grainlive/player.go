package main

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-granular/dsp/effects"
)

const bytesPerFrame = 8 // two float32 channels

// player adapts the engine to oto's pull model. Read runs on oto's
// goroutine, which makes it the audio thread: it must not block or
// allocate.
type player struct {
	engine *effects.GranularDelay
	src    source

	left, right []float64
	// pending holds rendered frames not yet copied out.
	pending, offset int
}

func newPlayer(g *effects.GranularDelay, src source) *player {
	return &player{
		engine: g,
		src:    src,
		left:   make([]float64, g.BlockSize()),
		right:  make([]float64, g.BlockSize()),
	}
}

// Read fills p with interleaved float32 little-endian stereo frames.
func (p *player) Read(buf []byte) (int, error) {
	n := 0
	for len(buf)-n >= bytesPerFrame {
		if p.offset == p.pending {
			p.render()
		}

		frames := min(p.pending-p.offset, (len(buf)-n)/bytesPerFrame)
		for i := range frames {
			j := p.offset + i
			binary.LittleEndian.PutUint32(buf[n:], math.Float32bits(float32(p.left[j])))
			binary.LittleEndian.PutUint32(buf[n+4:], math.Float32bits(float32(p.right[j])))
			n += bytesPerFrame
		}

		p.offset += frames
	}

	return n, nil
}

func (p *player) render() {
	p.src.Fill(p.left, p.right)
	p.engine.ProcessBlock(p.left, p.right)
	p.pending = len(p.left)
	p.offset = 0
}
