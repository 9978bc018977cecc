// Command grainlive plays audio through the granular delay in real time.
//
// Usage:
//
//	grainlive [flags]
//
// Without -in a built-in plucked string feeds the engine. Parameters are
// changed from the keyboard; press q to quit.
//
// Examples:
//
//	grainlive
//	grainlive -in loop.wav
//	grainlive -config granular.yaml -plucks 4 -duration 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/internal/config"
	"github.com/cwbudde/algo-granular/internal/wavio"
	"github.com/ebitengine/oto/v3"
	"golang.org/x/term"
)

const (
	statusInterval = 100 * time.Millisecond
	outputLatency  = 40 * time.Millisecond
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "grainlive: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML configuration file")
	in := flag.String("in", "", "WAV file to loop (default: plucked string)")
	plucks := flag.Float64("plucks", 2, "plucks per second of the built-in source")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until q)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	log := cfg.Logging.Logger(os.Stderr)

	var src source
	if *in != "" {
		clip, err := wavio.Read(*in)
		if err != nil {
			return err
		}

		cfg.Engine.SampleRate = float64(clip.SampleRate)
		src = newClipSource(clip)
		log.Info("looping input", "path", *in, "rate", clip.SampleRate, "frames", clip.Frames())
	} else {
		if *plucks <= 0 {
			return fmt.Errorf("plucks must be > 0: %g", *plucks)
		}
		src = newPluckSource(cfg.Engine.SampleRate, *plucks, cfg.Engine.Seed)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := cfg.NewEngine()
	if err != nil {
		return err
	}

	analyzer, err := cfg.NewAnalyzer()
	if err != nil {
		return err
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.Engine.SampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   outputLatency,
	})
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	<-ready

	out := otoCtx.NewPlayer(newPlayer(g, src))
	out.Play()
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	ctx, quit := context.WithCancel(ctx)
	defer quit()

	changes := make(chan params.ID, 16)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(fd, old)

		go readKeys(os.Stdin, g.Params(), changes, quit)
	}

	fmt.Fprintf(os.Stdout, "%s\r\n", keyHelp())
	log.Debug("playing", "rate", cfg.Engine.SampleRate, "block", cfg.Engine.BlockSize)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stdout, "\r\n")
			return out.Err()
		case id := <-changes:
			spec := id.Spec()
			last = fmt.Sprintf("%s=%.3g%s", spec.Key, g.Params().Get(id), spec.Unit)
		case <-ticker.C:
			snap, ok := g.Snapshot()
			if !ok {
				continue
			}

			line, err := statusLine(snap, analyzer)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "\r%s  %s\x1b[K", line, last)
			g.Diagnostics().ClearCollision()
		}
	}
}

// readKeys runs on the control side: it writes the parameter store and
// never touches the engine otherwise.
func readKeys(r io.Reader, store *params.Store, changes chan<- params.ID, quit context.CancelFunc) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			quit()
			return
		}

		if n == 0 {
			continue
		}

		id, changed, done := handleKey(store, buf[0])
		if done {
			quit()
			return
		}

		if changed {
			select {
			case changes <- id:
			default:
			}
		}
	}
}
