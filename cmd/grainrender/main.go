// Command grainrender runs a WAV file through the granular delay offline.
//
// Usage:
//
//	grainrender [flags] -in input.wav -out output.wav
//
// Examples:
//
//	grainrender -in voice.wav -out voice-grains.wav
//	grainrender -config granular.yaml -in drums.wav -out out.wav -report out.json
//	grainrender -in pad.wav -out pad.wav -automation sweep.lua -tail 4000
//	grainrender -in gtr.wav -out gtr.wav -set pitch=2 -set reverse=1
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/internal/automation"
	"github.com/cwbudde/algo-granular/internal/config"
	"github.com/cwbudde/algo-granular/internal/report"
	"github.com/cwbudde/algo-granular/internal/wavio"
)

type options struct {
	configPath string
	in         string
	out        string
	reportPath string
	automation string
	tailMs     float64
	set        map[string]float64
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "grainrender: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	for key, v := range opts.set {
		cfg.Params[key] = v
	}

	if opts.tailMs >= 0 {
		cfg.Render.TailMs = opts.tailMs
	}

	log := cfg.Logging.Logger(stderr)

	res, err := render(cfg, opts, log)
	if err != nil {
		return err
	}

	log.Info("rendered",
		"out", opts.out,
		"frames", res.Frames,
		"peak_l", res.Left.PeakDBFS,
		"peak_r", res.Right.PeakDBFS,
		"grains", res.Grains.Triggered,
		"dropped", res.Grains.Dropped,
		"collisions", res.Grains.Collisions,
	)

	return nil
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{set: map[string]float64{}}

	fs := flag.NewFlagSet("grainrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.in, "in", "", "input WAV file")
	fs.StringVar(&opts.out, "out", "", "output WAV file")
	fs.StringVar(&opts.reportPath, "report", "", "write a JSON render report to this file")
	fs.StringVar(&opts.automation, "automation", "", "Lua automation script")
	fs.Float64Var(&opts.tailMs, "tail", -1, "silence appended after the input in ms (default from config)")
	fs.Func("set", "set a parameter, key=value (repeatable; keys: "+strings.Join(params.Keys(), ", ")+")", func(s string) error {
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("want key=value: %q", s)
		}

		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", key, err)
		}

		opts.set[key] = x

		return nil
	})
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: grainrender [flags] -in input.wav -out output.wav\n\n")
		fmt.Fprintf(stderr, "Renders a WAV file through the granular delay.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.in == "" || opts.out == "" {
		fs.Usage()
		return opts, errors.New("-in and -out are required")
	}

	return opts, nil
}

func render(cfg *config.Config, opts options, log *slog.Logger) (*report.Report, error) {
	clip, err := wavio.Read(opts.in)
	if err != nil {
		return nil, err
	}

	log.Debug("read input", "path", opts.in, "rate", clip.SampleRate, "channels", clip.Channels, "frames", clip.Frames())

	cfg.Engine.SampleRate = float64(clip.SampleRate)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := cfg.NewEngine()
	if err != nil {
		return nil, err
	}

	analyzer, err := cfg.NewAnalyzer()
	if err != nil {
		return nil, err
	}

	var script *automation.Script
	if opts.automation != "" {
		script, err = automation.Load(opts.automation)
		if err != nil {
			return nil, err
		}
		defer script.Close()
	}

	srcL, srcR := clip.Stereo()
	tail := int(core.MillisecondsToSamples(cfg.Render.TailMs, cfg.Engine.SampleRate))
	frames := clip.Frames() + tail

	out := wavio.NewClip(clip.SampleRate, 2, frames)
	copy(out.Left, srcL)
	copy(out.Right, srcR)

	start := time.Now()
	block := cfg.Engine.BlockSize

	for pos := 0; pos < frames; pos += block {
		end := min(pos+block, frames)

		if script != nil {
			if err := script.Apply(g.Params(), float64(pos)/cfg.Engine.SampleRate); err != nil {
				return nil, err
			}
		}

		g.ProcessBlock(out.Left[pos:end], out.Right[pos:end])
	}

	log.Debug("processed", "frames", frames, "elapsed", time.Since(start))

	if err := wavio.Write(opts.out, out, cfg.Render.BitDepth); err != nil {
		return nil, err
	}

	res, err := report.New(g, analyzer, out.Left, out.Right)
	if err != nil {
		return nil, err
	}

	res.Input = opts.in
	res.Output = opts.out
	res.Automation = opts.automation

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func writeReport(path string, r *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
