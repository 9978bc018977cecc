package main

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/effects"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/dsp/spectrum"
	"github.com/cwbudde/algo-granular/internal/wavio"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, mix float64) *effects.GranularDelay {
	t.Helper()

	v := params.Defaults()
	v.Set(params.Mix, mix)

	cfg := core.ApplyProcessorOptions(core.WithSampleRate(8000), core.WithBlockSize(32), core.WithBufferSize(1<<14))
	g, err := effects.NewGranularDelay(cfg, effects.WithGranularParams(v), effects.WithGranularAnalysisSize(256))
	require.NoError(t, err)

	return g
}

func TestClipSourceLoops(t *testing.T) {
	clip := wavio.NewClip(8000, 2, 0)
	clip.Append([]float64{1, 2, 3}, []float64{-1, -2, -3})

	src := newClipSource(clip)
	l := make([]float64, 7)
	r := make([]float64, 7)
	src.Fill(l, r)

	require.Equal(t, []float64{1, 2, 3, 1, 2, 3, 1}, l)
	require.Equal(t, []float64{-1, -2, -3, -1, -2, -3, -1}, r)

	empty := newClipSource(wavio.NewClip(8000, 1, 0))
	l[0] = 5
	empty.Fill(l, r)
	require.Zero(t, l[0])
}

func TestPluckSource(t *testing.T) {
	src := newPluckSource(8000, 4, 1)
	l := make([]float64, 8000)
	r := make([]float64, 8000)
	src.Fill(l, r)

	require.Equal(t, l, r)

	var peak float64
	for _, x := range l {
		require.False(t, math.IsNaN(x))
		peak = math.Max(peak, math.Abs(x))
	}
	require.Greater(t, peak, 0.1)
	require.LessOrEqual(t, peak, pluckGain)
}

func TestPlayerReadIsDryAtMixZero(t *testing.T) {
	clip := wavio.NewClip(8000, 2, 0)
	for i := range 50 {
		clip.Append([]float64{float64(i) / 64}, []float64{-float64(i) / 64})
	}

	p := newPlayer(newEngine(t, 0), newClipSource(clip))

	// 70 frames plus a partial frame that must be left unfilled.
	buf := make([]byte, 70*bytesPerFrame+3)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 70*bytesPerFrame, n)

	for i := range 70 {
		l := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*bytesPerFrame:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*bytesPerFrame+4:]))
		want := float32(float64(i%50) / 64)
		require.Equal(t, want, l, "frame %d", i)
		require.Equal(t, -want, r, "frame %d", i)
	}
}

func TestPlayerReadDoesNotAllocate(t *testing.T) {
	p := newPlayer(newEngine(t, 0.5), newPluckSource(8000, 8, 2))
	buf := make([]byte, 512*bytesPerFrame)

	allocs := testing.AllocsPerRun(20, func() {
		if _, err := p.Read(buf); err != nil {
			t.Fatal(err)
		}
	})
	require.Zero(t, allocs)
}

func TestHandleKey(t *testing.T) {
	store := params.NewStore()

	id, changed, quit := handleKey(store, 'P')
	require.Equal(t, params.Pitch, id)
	require.True(t, changed)
	require.False(t, quit)
	require.InDelta(t, 1.05, store.Get(params.Pitch), 1e-12)

	for range 100 {
		handleKey(store, 'm')
	}
	require.Equal(t, 0.0, store.Get(params.Mix), "store clamps")

	_, changed, _ = handleKey(store, keyReverse)
	require.True(t, changed)
	require.Equal(t, 1.0, store.Get(params.Reverse))
	handleKey(store, keyReverse)
	require.Equal(t, 0.0, store.Get(params.Reverse))

	_, changed, quit = handleKey(store, '?')
	require.False(t, changed)
	require.False(t, quit)

	_, _, quit = handleKey(store, keyQuit)
	require.True(t, quit)
}

func TestKeyHelpNamesEveryBinding(t *testing.T) {
	help := keyHelp()
	for _, b := range bindings {
		require.Contains(t, help, b.id.Spec().Key)
	}
}

func TestReadKeys(t *testing.T) {
	store := params.NewStore()
	changes := make(chan params.ID, 16)
	ctx, cancel := context.WithCancel(context.Background())

	readKeys(strings.NewReader("NNq"), store, changes, cancel)

	require.Error(t, ctx.Err())
	require.Equal(t, params.Density.Spec().Default+2, store.Get(params.Density))
	require.Len(t, changes, 2)
}

func TestReadKeysStopsAtEOF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	readKeys(io.LimitReader(strings.NewReader("d"), 1), params.NewStore(), make(chan params.ID), cancel)
	require.Error(t, ctx.Err())
}

func TestStatusLine(t *testing.T) {
	g := newEngine(t, 1)
	src := newPluckSource(8000, 8, 3)

	l := make([]float64, 32)
	r := make([]float64, 32)
	for range 100 {
		src.Fill(l, r)
		g.ProcessBlock(l, r)
	}

	snap, ok := g.Snapshot()
	require.True(t, ok)

	a, err := spectrum.NewAnalyzer(256, 8000)
	require.NoError(t, err)

	line, err := statusLine(snap, a)
	require.NoError(t, err)
	require.Contains(t, line, "grains")
	require.Contains(t, line, "Hz")
}
