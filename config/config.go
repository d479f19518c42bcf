package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"perftdiff/engine"
	"perftdiff/fen"
	"perftdiff/perft"
	"perftdiff/rules"
)

const DefaultMaxDepth = 5

type Engine struct {
	Name    string        `yaml:"name,omitempty"`
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args,omitempty"`
	Dir     string        `yaml:"dir,omitempty"`
	Dialect perft.Dialect `yaml:"dialect"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type Config struct {
	Test        Engine `yaml:"test"`
	Reference   Engine `yaml:"reference"`
	MaxDepth    int    `yaml:"max_depth"`
	FEN         string `yaml:"fen"`
	EPD         string `yaml:"epd,omitempty"` // perft suite; replaces FEN when set
	Rules       string `yaml:"rules"`
	AllBranches bool   `yaml:"all_branches"`
	Color       string `yaml:"color"`
}

// Default is used as is when no config file is given, and underneath a file's values.
func Default() Config {
	return Config{
		Test:      Engine{Name: "test", Dialect: perft.DialectInfo},
		Reference: Engine{Name: "reference", Dialect: perft.DialectDivide},
		MaxDepth:  DefaultMaxDepth,
		FEN:       fen.StartPos,
		Rules:     rules.BackendNotnil,
		Color:     "auto",
	}
}

func Load(filename string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("'%s': %v", filename, err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("'%s': %v", filename, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Test.Path == "" {
		errs = append(errs, errors.New("test engine executable is required (--test or 'test.path')"))
	}
	if c.Reference.Path == "" {
		errs = append(errs, errors.New("reference engine executable is required (--reference or 'reference.path')"))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max depth must be at least 1, got %d", c.MaxDepth))
	}
	if _, err := fen.Parse(c.FEN); err != nil {
		errs = append(errs, err)
	}
	if _, err := rules.New(c.Rules); err != nil {
		errs = append(errs, err)
	}
	for _, e := range []Engine{c.Test, c.Reference} {
		if e.Dialect != perft.DialectInfo && e.Dialect != perft.DialectDivide {
			errs = append(errs, fmt.Errorf("%s engine: unknown %s", e.Name, e.Dialect))
		}
		if e.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s engine: negative timeout %v", e.Name, e.Timeout))
		}
	}
	switch strings.ToLower(c.Color) {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("unknown color mode '%s' (want auto, always or never)", c.Color))
	}

	return errors.Join(errs...)
}

// Engine builds the process adapter described by e.
func (e Engine) Engine(log *slog.Logger) *engine.Engine {
	return &engine.Engine{
		Name:    e.Name,
		Path:    e.Path,
		Args:    e.Args,
		Dir:     e.Dir,
		Dialect: e.Dialect,
		Timeout: e.Timeout,
		Log:     log,
	}
}
