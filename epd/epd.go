// Package epd reads perft suites: one position per line in EPD form followed by
// semicolon separated operations, e.g.
//
//	rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 ;D1 20 ;D2 400
//	8/8/8/8/8/8/8/K6k w - - acd 3; acn 25;
package epd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"perftdiff/fen"
)

const (
	OpCodeAnalysisCountDepth = "acd"
	OpCodeAnalysisCountNodes = "acn"
	OpCodeComment            = "c0"
)

type Operation struct {
	OpCode string
	Value  string
}

func (op Operation) atoi() int {
	n, err := strconv.Atoi(op.Value)
	if err != nil {
		return 0
	}
	return n
}

type Position struct {
	FEN  string
	Ops  []Operation
	Line int
}

func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString(p.FEN)
	for _, op := range p.Ops {
		sb.WriteString(" ;")
		sb.WriteString(op.OpCode)
		if op.Value != "" {
			sb.WriteByte(' ')
			sb.WriteString(op.Value)
		}
	}
	return sb.String()
}

func (p *Position) GetString(opCode string) string {
	for _, op := range p.Ops {
		if op.OpCode == opCode {
			return op.Value
		}
	}
	return ""
}

func (p *Position) GetInt(opCode string) int {
	for _, op := range p.Ops {
		if op.OpCode == opCode {
			return op.atoi()
		}
	}
	return 0
}

// Depth is the deepest perft the line records a count for, or 0.
func (p *Position) Depth() int {
	depth := p.GetInt(OpCodeAnalysisCountDepth)
	for _, op := range p.Ops {
		if d, ok := perftDepth(op.OpCode); ok && d > depth {
			depth = d
		}
	}
	return depth
}

// Expected returns the node count the line records for depth.
func (p *Position) Expected(depth int) (uint64, bool) {
	for _, op := range p.Ops {
		if d, ok := perftDepth(op.OpCode); ok && d == depth {
			n, err := strconv.ParseUint(op.Value, 10, 64)
			return n, err == nil
		}
	}
	if p.GetInt(OpCodeAnalysisCountDepth) == depth {
		n, err := strconv.ParseUint(p.GetString(OpCodeAnalysisCountNodes), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func LoadFile(filename string) ([]*Position, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("file '%s': %v", filename, err)
	}
	defer f.Close()

	positions, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("file '%s': %w", filename, err)
	}
	return positions, nil
}

// Parse reads every position in r. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]*Position, error) {
	var positions []*Position

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		p.Line = n
		positions = append(positions, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

func parseLine(line string) (*Position, error) {
	sections := strings.Split(line, ";")

	fields := strings.Fields(sections[0])
	if len(fields) < 4 {
		return nil, fmt.Errorf("'%s': want at least 4 FEN fields", line)
	}

	fenText := strings.Join(fields[:4], " ")
	rest := fields[4:]
	if len(rest) >= 2 && isNumber(rest[0]) && isNumber(rest[1]) {
		fenText += " " + rest[0] + " " + rest[1]
		rest = rest[2:]
	}

	board, err := fen.Parse(fenText)
	if err != nil {
		return nil, err
	}

	p := &Position{FEN: board.FEN()}
	if len(rest) > 0 {
		p.Ops = append(p.Ops, newOperation(strings.Join(rest, " ")))
	}

	for _, section := range sections[1:] {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		p.Ops = append(p.Ops, newOperation(section))
	}

	return p, nil
}

func newOperation(section string) Operation {
	parts := strings.SplitN(section, " ", 2)
	op := Operation{OpCode: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		op.Value = strings.Trim(strings.TrimSpace(parts[1]), `"`)
	}
	return op
}

// perftDepth reads the depth out of a "D<n>" opcode.
func perftDepth(opCode string) (int, bool) {
	if len(opCode) < 2 || opCode[0] != 'D' {
		return 0, false
	}
	d, err := strconv.Atoi(opCode[1:])
	if err != nil || d < 1 {
		return 0, false
	}
	return d, true
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
