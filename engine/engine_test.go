package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftdiff/fen"
	"perftdiff/perft"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

// TestHelperProcess is not a real test. It is the engine the other tests launch.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	in, _ := io.ReadAll(os.Stdin)

	switch os.Getenv("HELPER_MODE") {
	case "echo":
		for _, line := range strings.Split(strings.TrimSpace(string(in)), "\n") {
			fmt.Printf("received %s\n", line)
		}
		fmt.Fprintln(os.Stderr, "diagnostic on stderr")
		fmt.Println("a2a3: 1")
		fmt.Println("a2a4: 1")
		fmt.Println("Nodes searched: 2")
	case "garbage":
		fmt.Println("hello, I am not a chess engine")
	case "crash":
		fmt.Println("a2a3: 1")
		fmt.Fprintln(os.Stderr, "move generator exploded")
		os.Exit(2)
	case "hang":
		time.Sleep(time.Minute)
	}

	os.Exit(0)
}

func helperEngine(mode string) *Engine {
	return &Engine{
		Name:    "helper-" + mode,
		Path:    os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		Dialect: perft.DialectDivide,
	}
}

func TestCommands(t *testing.T) {
	cases := []struct {
		position string
		depth    int
		want     string
	}{
		{position: fen.StartPos, depth: 1, want: "go perft 1\n"},
		{position: "", depth: 3, want: "go perft 3\n"},
		{position: kiwipete, depth: 2, want: "position fen " + kiwipete + "\ngo perft 2\n"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%s_%d", c.position, c.depth), func(t *testing.T) {
			assert.Equal(t, c.want, Commands(c.position, c.depth))
		})
	}
}

func TestRunPerftSendsCommandsAndMergesStderr(t *testing.T) {
	// arrange
	e := helperEngine("echo")

	// act
	out, elapsed, err := e.RunPerft(context.Background(), kiwipete, 2)

	// assert
	require.NoError(t, err)
	assert.Contains(t, out, "received position fen "+kiwipete+"\n")
	assert.Contains(t, out, "received go perft 2\n")
	assert.Contains(t, out, "diagnostic on stderr")
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestRunPerftOmitsStartPosition(t *testing.T) {
	e := helperEngine("echo")

	out, _, err := e.RunPerft(context.Background(), fen.StartPos, 1)

	require.NoError(t, err)
	assert.NotContains(t, out, "position fen")
	assert.Contains(t, out, "received go perft 1\n")
}

func TestPerftParsesWithDialect(t *testing.T) {
	e := helperEngine("echo")

	res, err := e.Perft(context.Background(), fen.StartPos, 1)

	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
	assert.Equal(t, map[string]uint64{"a2a3": 1, "a2a4": 1}, res.Moves)
}

func TestPerftMalformedOutput(t *testing.T) {
	e := helperEngine("garbage")

	res, err := e.Perft(context.Background(), fen.StartPos, 1)

	assert.Nil(t, res)
	var malformed *perft.MalformedOutputError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Contains(t, malformed.Output, "not a chess engine")
	assert.Equal(t, "helper-garbage", malformed.Engine)
	assert.Contains(t, err.Error(), "from helper-garbage")
}

func TestRunPerftNonZeroExit(t *testing.T) {
	// arrange
	e := helperEngine("crash")

	// act
	out, _, err := e.RunPerft(context.Background(), fen.StartPos, 3)

	// assert
	var failure *FailureError
	require.True(t, errors.As(err, &failure), "got %v", err)
	assert.Equal(t, 2, failure.ExitCode)
	assert.Equal(t, "helper-crash", failure.Engine)
	assert.Contains(t, failure.Output, "move generator exploded")
	assert.Contains(t, failure.Output, "a2a3: 1")
	assert.Equal(t, out, failure.Output)
}

func TestPerftNonZeroExitIsNotParsed(t *testing.T) {
	e := helperEngine("crash")

	res, err := e.Perft(context.Background(), fen.StartPos, 1)

	assert.Nil(t, res)
	var failure *FailureError
	assert.True(t, errors.As(err, &failure))
}

func TestRunPerftTimeout(t *testing.T) {
	e := helperEngine("hang")
	e.Timeout = 200 * time.Millisecond

	_, _, err := e.RunPerft(context.Background(), fen.StartPos, 1)

	var failure *FailureError
	require.True(t, errors.As(err, &failure), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, failure.ExitCode)
}

func TestRunPerftTimeoutKillsWrapperScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}

	// arrange
	script := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\necho 'Nodes searched: 20'\n"), 0o755))
	e := &Engine{Name: "wrapped", Path: script, Dialect: perft.DialectDivide, Timeout: 200 * time.Millisecond}

	// act
	start := time.Now()
	_, _, err := e.RunPerft(context.Background(), fen.StartPos, 1)
	elapsed := time.Since(start)

	// assert
	var failure *FailureError
	require.True(t, errors.As(err, &failure), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestRunPerftMissingExecutable(t *testing.T) {
	e := &Engine{Path: "/nonexistent/engine-binary"}

	_, _, err := e.RunPerft(context.Background(), fen.StartPos, 1)

	require.Error(t, err)
	var failure *FailureError
	assert.False(t, errors.As(err, &failure))
	assert.Contains(t, err.Error(), "engine-binary")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "stockfish", (&Engine{Path: "/usr/games/stockfish"}).DisplayName())
	assert.Equal(t, "reference", (&Engine{Name: "reference", Path: "/usr/games/stockfish"}).DisplayName())
}
