package epd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suite = `# perft suite
rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 ;D1 20 ;D2 400 ;D3 8902

r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - ;D1 48 ;D2 2039
8/8/8/8/8/8/8/K6k w - - acd 2; acn 9; c0 "bare kings";
`

func TestParse(t *testing.T) {
	// act
	positions, err := Parse(strings.NewReader(suite))

	// assert
	require.NoError(t, err)
	require.Len(t, positions, 3)

	cases := []struct {
		fen   string
		line  int
		depth int
		ops   int
	}{
		{fen: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", line: 2, depth: 3, ops: 3},
		{fen: "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", line: 4, depth: 2, ops: 2},
		{fen: "8/8/8/8/8/8/8/K6k w - - 0 1", line: 5, depth: 2, ops: 3},
	}

	for i, c := range cases {
		p := positions[i]
		if p.FEN != c.fen {
			t.Errorf("want: %s got: %s", c.fen, p.FEN)
		}
		assert.Equal(t, c.line, p.Line)
		assert.Equal(t, c.depth, p.Depth())
		assert.Len(t, p.Ops, c.ops)
	}

	assert.Equal(t, "bare kings", positions[2].GetString(OpCodeComment))
}

func TestExpected(t *testing.T) {
	positions, err := Parse(strings.NewReader(suite))
	require.NoError(t, err)

	n, ok := positions[0].Expected(3)
	assert.True(t, ok)
	assert.Equal(t, uint64(8902), n)

	_, ok = positions[0].Expected(4)
	assert.False(t, ok)

	n, ok = positions[2].Expected(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), n)

	_, ok = positions[2].Expected(1)
	assert.False(t, ok)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"rnbqkbnr/pppppppp/8/8 ;D1 20",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - ;D1 20",
	}

	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			_, err := Parse(strings.NewReader("\n" + c + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "suite.epd")
	require.NoError(t, os.WriteFile(filename, []byte(suite), 0o600))

	positions, err := LoadFile(filename)

	require.NoError(t, err)
	assert.Len(t, positions, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.epd"))
	assert.Error(t, err)
}

func TestPositionString(t *testing.T) {
	p := &Position{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Ops: []Operation{{OpCode: "D1", Value: "3"}, {OpCode: "id"}}}

	assert.Equal(t, "8/8/8/8/8/8/8/K6k w - - 0 1 ;D1 3 ;id", p.String())
}
