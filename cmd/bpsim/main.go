// Package main provides the bpsim command, which replays a branch trace
// through a branch predictor and reports its misprediction rate.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// cli holds the command line of one bpsim invocation.
type cli struct {
	flags *flag.FlagSet
	out   io.Writer

	modeName     *string
	ghistory     *int
	tourGHistory *int
	lhistory     *int
	pcIndex      *int
	configPath   *string
	compare      *bool
	window       *uint64
	strict       *bool
	verbose      *bool
}

func newCLI(flags *flag.FlagSet, out io.Writer) *cli {
	return &cli{
		flags: flags,
		out:   out,

		modeName:     flags.String("mode", "static", "Predictor: static, gshare, tournament or custom"),
		ghistory:     flags.Int("ghistory", 0, "Gshare global history bits"),
		tourGHistory: flags.Int("tour-ghistory", 0, "Tournament global history bits"),
		lhistory:     flags.Int("lhistory", 0, "Tournament local history bits"),
		pcIndex:      flags.Int("pcindex", 0, "Tournament local history table index bits"),
		configPath:   flags.String("config", "", "Path to predictor configuration JSON file"),
		compare:      flags.Bool("compare", false, "Replay the trace through every predictor"),
		window:       flags.Uint64("window", 0, "Report misprediction statistics over windows of this many branches"),
		strict:       flags.Bool("strict", false, "Check that every train follows a matching predict"),
		verbose:      flags.Bool("v", false, "Verbose output"),
	}
}

func main() {
	c := newCLI(flag.CommandLine, os.Stdout)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bpsim [options] [trace]\n")
		fmt.Fprintf(os.Stderr, "Reads the trace from stdin when no file is given.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	setupLogging(*c.verbose)

	if err := c.run(c.openTrace); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	log.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	log.SetOutput(os.Stderr)

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// traceOpener opens the trace to replay together with what closes it.
type traceOpener func() (trace.Source, io.Closer, error)

// run replays the trace and returns only after the trace is closed.
func (c *cli) run(open traceOpener) error {
	config, err := c.buildConfig()
	if err != nil {
		return err
	}

	src, closer, err := open()
	if err != nil {
		return err
	}
	defer closer.Close()

	if *c.compare {
		return c.runCompare(src, config)
	}
	return c.runSingle(src, config)
}

// buildConfig starts from the defaults, applies the config file if any and
// then every sizing flag given on the command line.
func (c *cli) buildConfig() (predictor.Config, error) {
	config := predictor.DefaultConfig()

	if *c.configPath != "" {
		loaded, err := predictor.LoadConfig(*c.configPath)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	c.flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ghistory":
			config.GHistoryBits = *c.ghistory
		case "tour-ghistory":
			config.TourHistoryBits = *c.tourGHistory
		case "lhistory":
			config.LocalHistoryBits = *c.lhistory
		case "pcindex":
			config.PCIndexBits = *c.pcIndex
		}
	})

	return config, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (c *cli) openTrace() (trace.Source, io.Closer, error) {
	if c.flags.NArg() < 1 {
		return trace.NewReader(os.Stdin), nopCloser{}, nil
	}

	f, err := trace.Open(c.flags.Arg(0))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func (c *cli) predictorOptions() []predictor.Option {
	opts := []predictor.Option{predictor.WithLogger(log.StandardLogger())}
	if *c.strict {
		opts = append(opts, predictor.WithStrictOrder())
	}
	return opts
}

func (c *cli) replayOptions() []trace.ReplayOption {
	if *c.window == 0 {
		return nil
	}
	return []trace.ReplayOption{trace.WithWindow(*c.window)}
}

func (c *cli) runSingle(src trace.Source, config predictor.Config) error {
	mode, err := predictor.ParseMode(*c.modeName)
	if err != nil {
		return err
	}

	p, err := predictor.New(mode, config, c.predictorOptions()...)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	log.WithFields(log.Fields{"mode": mode.String()}).Debug("Replaying trace")

	result, err := trace.Replay(src, p, c.replayOptions()...)
	if err != nil {
		return err
	}

	c.printResult(result)
	printDiagnostics(mode, p.Diagnostics())
	return nil
}

func (c *cli) runCompare(src trace.Source, config predictor.Config) error {
	modes := []predictor.Mode{
		predictor.ModeStatic,
		predictor.ModeGshare,
		predictor.ModeTournament,
		predictor.ModeCustom,
	}

	entrants := make([]trace.Entrant, 0, len(modes))
	predictors := make([]*predictor.Predictor, 0, len(modes))
	for _, mode := range modes {
		p, err := predictor.New(mode, config, c.predictorOptions()...)
		if err != nil {
			return err
		}
		defer p.Cleanup()

		predictors = append(predictors, p)
		entrants = append(entrants, trace.Entrant{Name: mode.String(), Target: p})
	}

	results, err := trace.Compare(src, entrants, c.replayOptions()...)
	if err != nil {
		return err
	}

	for i, result := range results {
		fmt.Fprintf(c.out, "== %s\n", result.Name)
		c.printResult(result)
		printDiagnostics(modes[i], predictors[i].Diagnostics())
	}
	return nil
}

func (c *cli) printResult(result trace.Result) {
	fmt.Fprintf(c.out, "Branches:        %10d\n", result.Stats.Branches)
	fmt.Fprintf(c.out, "Incorrect:       %10d\n", result.Stats.Mispredictions)
	fmt.Fprintf(c.out, "Misprediction Rate: %10.3f\n", result.Stats.MispredictionRate())

	if len(result.WindowRates) == 0 {
		return
	}

	summary, err := result.Summary()
	if err != nil {
		log.WithError(err).Warn("Cannot summarize windows")
		return
	}
	fmt.Fprintf(c.out, "Windows:         %10d\n", summary.Windows)
	fmt.Fprintf(c.out, "Window Mean:     %10.3f\n", summary.Mean)
	fmt.Fprintf(c.out, "Window StdDev:   %10.3f\n", summary.StdDev)
	fmt.Fprintf(c.out, "Window P90:      %10.3f\n", summary.P90)
	fmt.Fprintf(c.out, "Window Max:      %10.3f\n", summary.Max)
}

func printDiagnostics(mode predictor.Mode, diag predictor.Diagnostics) {
	if diag.InvalidCounters == 0 && diag.OrderViolations == 0 {
		return
	}
	log.WithFields(log.Fields{
		"mode":            mode.String(),
		"invalidCounters": diag.InvalidCounters,
		"orderViolations": diag.OrderViolations,
	}).Warn("Predictor reported diagnostics")
}
