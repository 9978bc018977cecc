// Command graininfo prints the grain scheduling plan for a parameter set.
//
// Usage:
//
//	graininfo [flags] [pitch ...]
//
// Without arguments it prints one row for the configured pitch. Each
// positional argument adds a row for that pitch ratio.
//
// Examples:
//
//	graininfo
//	graininfo 0.5 1 2 4
//	graininfo -rate 44100 -set splice=50 -set reverse=1 0.25 4
//	graininfo -interp hermite -set splice=50 4
//	graininfo -config granular.yaml -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/effects"
	"github.com/cwbudde/algo-granular/dsp/grain"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	set := map[string]float64{}

	fs := flag.NewFlagSet("graininfo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	rate := fs.Float64("rate", 0, "sample rate in Hz (default from config)")
	bufferSize := fs.Int("buffer", 0, "delay line length in samples (default from config)")
	interpolation := fs.String("interp", "", "delay line interpolation, linear or hermite (default from config)")
	list := fs.Bool("list", false, "list parameters with ranges and defaults")
	fs.Func("set", "set a parameter, key=value (repeatable)", func(s string) error {
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("want key=value: %q", s)
		}

		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", key, err)
		}

		set[key] = x

		return nil
	})
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: graininfo [flags] [pitch ...]\n\n")
		fmt.Fprintf(stderr, "Prints splice length, trigger interval and safe delay range.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  graininfo 0.5 1 2 4\n")
		fmt.Fprintf(stderr, "  graininfo -rate 44100 -set splice=50 -set reverse=1 0.25 4\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		return printParams(stdout)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	if *rate > 0 {
		cfg.Engine.SampleRate = *rate
	}

	if *bufferSize > 0 {
		cfg.Engine.BufferSize = *bufferSize
	}

	if *interpolation != "" {
		cfg.Engine.Interpolation = *interpolation
	}

	for key, v := range set {
		cfg.Params[key] = v
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	v, err := cfg.Values()
	if err != nil {
		return err
	}

	pitches := []float64{v.Get(params.Pitch)}
	if fs.NArg() > 0 {
		pitches = pitches[:0]
		spec := params.Pitch.Spec()

		for _, arg := range fs.Args() {
			p, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("pitch %q: %w", arg, err)
			}

			if err := spec.Validate(p); err != nil {
				return err
			}

			pitches = append(pitches, p)
		}
	}

	mode, err := cfg.Engine.InterpolationMode()
	if err != nil {
		return err
	}

	return printPlans(stdout, v, pitches, cfg.Engine.SampleRate, cfg.Engine.BufferSize, cfg.Engine.ReverseMargin, grain.ReadGuard(mode))
}

func printPlans(w io.Writer, v params.Values, pitches []float64, sampleRate float64, bufferSize, margin, guard int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Pitch\tL/R Ratio\tSplice L/R\tInterval\tOverlap\tMin Safe [ms]\tDelay [ms]\tMax Delay [ms]\n")
	fmt.Fprintf(tw, "-----\t---------\t----------\t--------\t-------\t-------------\t----------\t--------------\n")

	for _, pitch := range pitches {
		v.Set(params.Pitch, pitch)
		s := effects.GrainSettings(&v)
		p := grain.NewPlan(&s, sampleRate, bufferSize, margin, guard)

		spliceR := grain.SpliceSamples(s.SpliceMs*(1-s.SpliceOffsetPercent/100), sampleRate)
		toMs := func(n float64) float64 { return core.SamplesToMilliseconds(n, sampleRate) }

		if _, err := fmt.Fprintf(tw, "%.3f\t%.3f/%.3f\t%d/%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			pitch,
			p.PitchL, p.PitchR,
			p.SpliceSamples, spliceR,
			p.IntervalSamples,
			float64(p.SpliceSamples)/float64(p.IntervalSamples),
			toMs(p.MinSafeDelaySamples),
			toMs(p.DelaySamples),
			toMs(p.MaxDelaySamples),
		); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return tw.Flush()
}

func printParams(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Key\tName\tUnit\tMin\tMax\tDefault\n")
	fmt.Fprintf(tw, "---\t----\t----\t---\t---\t-------\n")

	for _, s := range params.All() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%g\n", s.Key, s.Name, s.Unit, s.Min, s.Max, s.Default); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return tw.Flush()
}
