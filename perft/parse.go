package perft

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the textual format an engine uses to answer "go perft".
type Dialect int

const (
	// DialectInfo: "info ... currmove e2e4 ... nodes 20" per move and
	// "info depth 2 ... nodes 400" for the total.
	DialectInfo Dialect = iota
	// DialectDivide: "e2e4: 20" per move and "Nodes searched: 400" for the total.
	DialectDivide
)

// minElapsed is the shortest measurement NPS is derived from.
const minElapsed = time.Microsecond

func (d Dialect) String() string {
	switch d {
	case DialectInfo:
		return "info"
	case DialectDivide:
		return "divide"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// ParseDialect maps a configuration name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return DialectInfo, nil
	case "divide":
		return DialectDivide, nil
	default:
		return 0, fmt.Errorf("unknown dialect '%s' (want info or divide)", name)
	}
}

// UnmarshalText lets config files and flags use dialect names.
func (d *Dialect) UnmarshalText(text []byte) error {
	v, err := ParseDialect(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MalformedOutputError means no total node count was found in the engine output.
type MalformedOutputError struct {
	Engine  string // set by the caller that knows which engine replied
	Dialect Dialect
	Output  string
}

func (e *MalformedOutputError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("malformed perft output from %s: no total node count found (%s dialect)", e.Engine, e.Dialect)
	}
	return fmt.Sprintf("malformed perft output: no total node count found (%s dialect)", e.Dialect)
}

// Warning accompanies a usable Result whose throughput or per-move counts look wrong.
type Warning struct {
	Reasons []string
}

func (w *Warning) Error() string {
	return "perft: " + strings.Join(w.Reasons, "; ")
}

// Parse converts raw engine output into a Result. Lines that carry no perft
// data are skipped. If the returned error is a *Warning the Result is still
// valid; any other error comes with a nil Result.
func Parse(dialect Dialect, raw string, elapsed time.Duration) (*Result, error) {
	res := &Result{
		Moves:   make(map[string]uint64),
		Elapsed: elapsed,
	}

	var scan func(tokens []string, line string) bool
	switch dialect {
	case DialectInfo:
		scan = res.scanInfo
	case DialectDivide:
		scan = res.scanDivide
	default:
		return nil, fmt.Errorf("perft: unsupported dialect %s", dialect)
	}

	var foundTotal bool
	r := bufio.NewScanner(strings.NewReader(raw))
	r.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for r.Scan() {
		line := r.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if scan(tokens, line) {
			foundTotal = true
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("perft: reading output: %w", err)
	}

	if !foundTotal {
		return nil, &MalformedOutputError{Dialect: dialect, Output: raw}
	}

	var warn Warning
	if elapsed < minElapsed {
		warn.Reasons = append(warn.Reasons, fmt.Sprintf("elapsed time %v too small to derive nodes per second", elapsed))
	} else {
		res.NPS = float64(res.Total) / elapsed.Seconds()
	}

	if len(res.Moves) > 0 {
		if sum := res.MoveSum(); sum != res.Total {
			warn.Reasons = append(warn.Reasons, fmt.Sprintf("per-move counts sum to %d, total is %d", sum, res.Total))
		}
	}

	if len(warn.Reasons) > 0 {
		return res, &warn
	}
	return res, nil
}

// scanInfo handles one line of the info dialect and reports whether it set the total.
func (r *Result) scanInfo(tokens []string, _ string) bool {
	if i := indexOf(tokens, "currmove", 0); i >= 0 && i+1 < len(tokens) {
		move := tokens[i+1]
		if n, ok := valueAfter(tokens, "nodes", i+2); ok {
			r.Moves[move] = n
		}
		return false
	}

	if i := indexOf(tokens, "depth", 0); i >= 0 {
		if n, ok := valueAfter(tokens, "nodes", i+1); ok {
			r.Total = n
			return true
		}
	}

	return false
}

// scanDivide handles one line of the divide dialect and reports whether it set the total.
func (r *Result) scanDivide(tokens []string, line string) bool {
	if strings.Contains(line, "searched") {
		n, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 64)
		if err != nil {
			return false
		}
		r.Total = n
		return true
	}

	first := tokens[0]
	if len(tokens) < 2 || len(first) < 2 || !strings.HasSuffix(first, ":") {
		return false
	}

	n, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 64)
	if err != nil {
		return false
	}
	r.Moves[strings.TrimSuffix(first, ":")] = n

	return false
}

func indexOf(tokens []string, token string, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i] == token {
			return i
		}
	}
	return -1
}

// valueAfter finds key at or after index from and parses the token following it.
func valueAfter(tokens []string, key string, from int) (uint64, bool) {
	i := indexOf(tokens, key, from)
	if i < 0 || i+1 >= len(tokens) {
		return 0, false
	}
	n, err := strconv.ParseUint(tokens[i+1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
