package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"perftdiff/commas"
	"perftdiff/diverge"
	"perftdiff/logger"
	"perftdiff/perft"
)

// Printer writes the human-readable report.
type Printer struct {
	w io.Writer

	red    func(a ...any) string
	green  func(a ...any) string
	yellow func(a ...any) string
	bold   func(a ...any) string
}

// New returns a Printer writing to w. Colors are used only when colored is set,
// regardless of the global color.NoColor.
func New(w io.Writer, colored bool) *Printer {
	return &Printer{
		w:      w,
		red:    sprint(colored, color.FgRed),
		green:  sprint(colored, color.FgGreen),
		yellow: sprint(colored, color.FgYellow),
		bold:   sprint(colored, color.Bold),
	}
}

func sprint(colored bool, attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// ColorEnabled resolves a --color mode for w. In auto mode color is used when
// w is a terminal and NO_COLOR or TERM=dumb have not turned it off.
func ColorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	default:
		return !color.NoColor && logger.IsTerminal(w)
	}
}

func (p *Printer) Header(position string, maxDepth int, test, ref string) {
	p.printf("Move generation accuracy and performance test:\n")
	p.printf("- Position: %s\n", position)
	p.printf("- Depth: %d\n", maxDepth)
	p.printf("- Test engine: %s\n", test)
	p.printf("- Reference engine: %s\n", ref)
	p.printf("\n")
}

// Separator goes between the reports of two root positions.
func (p *Printer) Separator() {
	p.printf("\n%s\n\n", strings.Repeat("-", 40))
}

// Suite names the suite line the next report is for.
func (p *Printer) Suite(line int, entry string) {
	p.printf("Suite line %d: %s\n", line, entry)
}

// Depth prints one depth where both engines agreed.
func (p *Printer) Depth(step diverge.Step) {
	p.printf("- Depth %d: nodes=%s, reference_nps=%s, test_nps=%s\n",
		step.Depth, commas.Int(step.Test.Total), nps(step.Reference), nps(step.Test))
}

func (p *Printer) Passed(maxDepth int) {
	p.printf("\n%s\n", p.green(fmt.Sprintf("All depths up to %d match.", maxDepth)))
}

// Mismatch prints the depth where the totals first differed.
func (p *Printer) Mismatch(outcome *diverge.Outcome) {
	p.printf("- Depth %d: %s test_nodes=%s, reference_nodes=%s\n",
		outcome.Depth, p.red("Incorrect:"), commas.Int(outcome.Test.Total), commas.Int(outcome.Reference.Total))
}

// Fault prints the localized position and its diagram.
func (p *Printer) Fault(f *diverge.Fault, diagram string) {
	p.printf("\n%s\n", p.bold("Move generators disagree:"))
	p.printf("- Position: %s\n", f.Position)
	p.printf("- Moves from start: %s\n", pathString(f.Path))
	p.printf("- Remaining depth: %d\n", f.Depth)
	if f.Test != nil && f.Reference != nil {
		p.printf("- Nodes: test=%s, reference=%s\n", commas.Int(f.Test.Total), commas.Int(f.Reference.Total))
	}
	p.printf("\n%s\n", strings.TrimRight(diagram, "\n"))
}

// Classification prints the labelled moves of a fault position.
func (p *Printer) Classification(list []diverge.Classification) {
	counts := make(map[diverge.Label]int)

	p.printf("\nMoves:\n")
	for _, c := range list {
		counts[c.Label]++
		p.printf("  %-6s %s\n", c.Move, p.label(c.Label))
	}
	p.printf("\n%d correct, %d incorrect, %d missing\n", counts[diverge.Correct], counts[diverge.Incorrect], counts[diverge.Missing])
}

// EngineOutput prints what a failing engine wrote, verbatim.
func (p *Printer) EngineOutput(engine, output string) {
	p.printf("\n%s\n", p.red(fmt.Sprintf("Output of %s:", engine)))
	p.printf("%s", output)
	if output != "" && !strings.HasSuffix(output, "\n") {
		p.printf("\n")
	}
}

func (p *Printer) label(l diverge.Label) string {
	s := l.String()
	switch l {
	case diverge.Correct:
		return p.green(s)
	case diverge.Incorrect:
		return p.red(s)
	case diverge.Missing:
		return p.yellow(s)
	default:
		return s
	}
}

func (p *Printer) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.w, format, a...)
}

func nps(r *perft.Result) string {
	if r.NPS == 0 {
		return "n/a"
	}
	return commas.Float(r.NPS)
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "(none)"
	}
	return strings.Join(path, " ")
}
