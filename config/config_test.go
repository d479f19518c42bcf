package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftdiff/fen"
	"perftdiff/perft"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "perftdiff.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoad(t *testing.T) {
	// arrange
	filename := writeFile(t, `
test:
  path: ./build/swordfish
  timeout: 30s
reference:
  name: stockfish
  path: /usr/games/stockfish
  args: ["--threads", "1"]
  dir: /tmp
max_depth: 6
fen: "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
rules: dragontooth
all_branches: true
`)

	// act
	cfg, err := Load(filename)

	// assert
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "test", cfg.Test.Name)
	assert.Equal(t, "./build/swordfish", cfg.Test.Path)
	assert.Equal(t, perft.DialectInfo, cfg.Test.Dialect)
	assert.Equal(t, 30*time.Second, cfg.Test.Timeout)
	assert.Equal(t, "stockfish", cfg.Reference.Name)
	assert.Equal(t, []string{"--threads", "1"}, cfg.Reference.Args)
	assert.Equal(t, "/tmp", cfg.Reference.Dir)
	assert.Equal(t, perft.DialectDivide, cfg.Reference.Dialect)
	assert.Equal(t, 6, cfg.MaxDepth)
	assert.Equal(t, "dragontooth", cfg.Rules)
	assert.True(t, cfg.AllBranches)
	assert.Equal(t, "auto", cfg.Color)
}

func TestLoadDialect(t *testing.T) {
	cases := []struct {
		doc     string
		want    perft.Dialect
		wantErr string
	}{
		{doc: "test:\n  dialect: divide\n", want: perft.DialectDivide},
		{doc: "test:\n  dialect: Info\n", want: perft.DialectInfo},
		{doc: "test:\n  dialect: uci\n", wantErr: "unknown dialect 'uci'"},
	}

	for _, c := range cases {
		t.Run(c.doc, func(t *testing.T) {
			cfg, err := Load(writeFile(t, c.doc))

			if c.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, cfg.Test.Dialect)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "max_depth: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Test.Path = "swordfish"
		cfg.Reference.Path = "stockfish"
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with paths", mutate: func(*Config) {}},
		{name: "no test path", mutate: func(c *Config) { c.Test.Path = "" }, wantErr: "test engine executable is required"},
		{name: "no reference path", mutate: func(c *Config) { c.Reference.Path = "" }, wantErr: "reference engine executable is required"},
		{name: "zero depth", mutate: func(c *Config) { c.MaxDepth = 0 }, wantErr: "max depth"},
		{name: "bad fen", mutate: func(c *Config) { c.FEN = "8/8 w" }, wantErr: "fen"},
		{name: "bad rules", mutate: func(c *Config) { c.Rules = "shogi" }, wantErr: "rules backend"},
		{name: "bad dialect", mutate: func(c *Config) { c.Reference.Dialect = perft.Dialect(7) }, wantErr: "reference engine"},
		{name: "negative timeout", mutate: func(c *Config) { c.Test.Timeout = -time.Second }, wantErr: "negative timeout"},
		{name: "bad color", mutate: func(c *Config) { c.Color = "rainbow" }, wantErr: "color mode"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := valid()
			c.mutate(&cfg)

			err := cfg.Validate()

			if c.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}

func TestEngine(t *testing.T) {
	cfg := Default()
	cfg.Reference.Path = "/usr/games/stockfish"
	cfg.Reference.Timeout = time.Minute

	e := cfg.Reference.Engine(nil)

	assert.Equal(t, "reference", e.Name)
	assert.Equal(t, "/usr/games/stockfish", e.Path)
	assert.Equal(t, perft.DialectDivide, e.Dialect)
	assert.Equal(t, time.Minute, e.Timeout)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, fen.StartPos, cfg.FEN)
	assert.Equal(t, perft.DialectInfo, cfg.Test.Dialect)
	assert.Equal(t, perft.DialectDivide, cfg.Reference.Dialect)
}
