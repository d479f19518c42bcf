package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jessevdk/go-flags"

	"perftdiff/config"
	"perftdiff/diverge"
	"perftdiff/engine"
	"perftdiff/epd"
	"perftdiff/fen"
	"perftdiff/logger"
	"perftdiff/perft"
	"perftdiff/report"
	"perftdiff/rules"
)

const (
	exitPassed       = 0
	exitMismatch     = 1
	exitFatal        = 2
	exitNoDivergence = 3
)

type options struct {
	Config           string        `short:"c" long:"config" description:"YAML file with engine and run settings"`
	Test             string        `short:"t" long:"test" description:"Engine under test executable"`
	TestDialect      string        `long:"test-dialect" choice:"info" choice:"divide" description:"Perft output dialect of the engine under test (default: info)"`
	Reference        string        `short:"r" long:"reference" description:"Reference engine executable"`
	ReferenceDialect string        `long:"reference-dialect" choice:"info" choice:"divide" description:"Perft output dialect of the reference engine (default: divide)"`
	MaxDepth         int           `short:"d" long:"max-depth" description:"Deepest perft to compare (default: 5)"`
	FEN              string        `short:"f" long:"fen" description:"Root position (default: start position)"`
	EPD              string        `short:"e" long:"epd" description:"Perft suite file; every position in it is checked in turn"`
	Rules            string        `long:"rules" choice:"notnil" choice:"dragontooth" description:"Move application backend used while localizing"`
	AllBranches      bool          `long:"all-branches" description:"Localize every mismatching move instead of the first"`
	Timeout          time.Duration `long:"timeout" description:"Per perft call timeout for both engines, e.g. 30s"`
	Color            string        `long:"color" choice:"auto" choice:"always" choice:"never" description:"Colorize the report"`
	Debug            bool          `long:"debug" description:"Log engine invocations"`
}

var errHelp = errors.New("help requested")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseOptions(args []string, stdout io.Writer) (*options, error) {
	var opt options
	parser := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			fmt.Fprintln(stdout, err)
			return nil, errHelp
		}
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", rest)
	}

	return &opt, nil
}

// config loads the config file, if any, and applies the flags on top.
func (o *options) config() (config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return cfg, err
		}
	}

	if o.Test != "" {
		cfg.Test.Path = o.Test
	}
	if o.TestDialect != "" {
		if err := cfg.Test.Dialect.UnmarshalText([]byte(o.TestDialect)); err != nil {
			return cfg, err
		}
	}
	if o.Reference != "" {
		cfg.Reference.Path = o.Reference
	}
	if o.ReferenceDialect != "" {
		if err := cfg.Reference.Dialect.UnmarshalText([]byte(o.ReferenceDialect)); err != nil {
			return cfg, err
		}
	}
	if o.MaxDepth != 0 {
		cfg.MaxDepth = o.MaxDepth
	}
	if o.FEN != "" {
		cfg.FEN = o.FEN
	}
	if o.EPD != "" {
		cfg.EPD = o.EPD
	}
	if o.Rules != "" {
		cfg.Rules = o.Rules
	}
	if o.AllBranches {
		cfg.AllBranches = true
	}
	if o.Timeout != 0 {
		cfg.Test.Timeout = o.Timeout
		cfg.Reference.Timeout = o.Timeout
	}
	if o.Color != "" {
		cfg.Color = o.Color
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opt, err := parseOptions(args, stdout)
	if errors.Is(err, errHelp) {
		return exitPassed
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}

	log := logger.New(stderr, opt.Debug)

	cfg, err := opt.config()
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return exitFatal
	}

	h, err := newHarness(cfg, log, stdout)
	if err != nil {
		log.Error("setup", "err", err)
		return exitFatal
	}

	positions, err := loadPositions(cfg)
	if err != nil {
		log.Error("positions", "err", err)
		return exitFatal
	}

	for i, p := range positions {
		if i > 0 {
			h.printer.Separator()
		}
		if code := h.check(ctx, p); code != exitPassed {
			return code
		}
	}

	return exitPassed
}

// loadPositions returns the suite named by cfg.EPD, or cfg.FEN alone.
func loadPositions(cfg config.Config) ([]*epd.Position, error) {
	if cfg.EPD == "" {
		board, err := fen.Parse(cfg.FEN)
		if err != nil {
			return nil, err
		}
		return []*epd.Position{{FEN: board.FEN()}}, nil
	}

	positions, err := epd.LoadFile(cfg.EPD)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("'%s' has no positions", cfg.EPD)
	}
	return positions, nil
}

type harness struct {
	pair        diverge.Pair
	rules       rules.Rules
	printer     *report.Printer
	log         *slog.Logger
	names       [2]string // test, reference
	maxDepth    int
	allBranches bool
}

func newHarness(cfg config.Config, log *slog.Logger, stdout io.Writer) (*harness, error) {
	test := cfg.Test.Engine(log)
	ref := cfg.Reference.Engine(log)
	rls, err := rules.New(cfg.Rules)
	if err != nil {
		return nil, err
	}

	return &harness{
		pair:        diverge.Pair{Test: test, Reference: ref, Log: log},
		rules:       rls,
		printer:     report.New(stdout, report.ColorEnabled(cfg.Color, stdout)),
		log:         log,
		names:       [2]string{describe(test), describe(ref)},
		maxDepth:    cfg.MaxDepth,
		allBranches: cfg.AllBranches,
	}, nil
}

// check sweeps one root position and, on a mismatch, localizes and reports it.
func (h *harness) check(ctx context.Context, p *epd.Position) int {
	maxDepth := h.maxDepth
	if d := p.Depth(); d > 0 && d < maxDepth {
		maxDepth = d
	}

	if p.Line > 0 {
		h.printer.Suite(p.Line, p.String())
	}
	h.printer.Header(p.FEN, maxDepth, h.names[0], h.names[1])

	sweeper := &diverge.Sweeper{
		Pair: h.pair,
		Progress: func(step diverge.Step) {
			h.printer.Depth(step)
			if want, ok := p.Expected(step.Depth); ok && want != step.Reference.Total {
				h.log.Warn("reference count differs from suite", "line", p.Line, "depth", step.Depth, "want", want, "got", step.Reference.Total)
			}
		},
	}
	outcome, err := sweeper.Sweep(ctx, p.FEN, maxDepth)
	if err != nil {
		return fatal(h.printer, h.log, err)
	}
	if outcome.Passed {
		h.printer.Passed(maxDepth)
		return exitPassed
	}

	h.printer.Mismatch(outcome)

	localizer := &diverge.Localizer{Pair: h.pair, Rules: h.rules}
	var faults []*diverge.Fault
	if h.allBranches {
		faults, err = localizer.LocalizeAll(ctx, p.FEN, outcome.Depth, outcome.Test, outcome.Reference)
	} else {
		var fault *diverge.Fault
		fault, err = localizer.Localize(ctx, p.FEN, outcome.Depth, outcome.Test, outcome.Reference)
		faults = append(faults, fault)
	}
	if err != nil {
		return fatal(h.printer, h.log, err)
	}

	classifier := &diverge.Classifier{Pair: h.pair}
	for _, f := range faults {
		diagram, err := h.rules.Render(f.Position)
		if err != nil {
			return fatal(h.printer, h.log, err)
		}
		list, err := classifier.Classify(ctx, f.Position)
		if err != nil {
			return fatal(h.printer, h.log, err)
		}

		h.printer.Fault(f, diagram)
		h.printer.Classification(list)
	}

	return exitMismatch
}

// fatal reports err and picks the exit code for it.
func fatal(printer *report.Printer, log *slog.Logger, err error) int {
	var noDivergence *diverge.NoDivergenceError
	if errors.As(err, &noDivergence) {
		log.Error("localization failed", "err", err)
		return exitNoDivergence
	}

	log.Error("perft failed", "err", err)

	var failure *engine.FailureError
	if errors.As(err, &failure) {
		printer.EngineOutput(failure.Engine, failure.Output)
	}
	var malformed *perft.MalformedOutputError
	if errors.As(err, &malformed) {
		printer.EngineOutput(malformed.Engine, malformed.Output)
	}

	return exitFatal
}

func describe(e *engine.Engine) string {
	return fmt.Sprintf("%s (%s dialect)", e.DisplayName(), e.Dialect)
}
