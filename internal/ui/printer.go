package ui

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/ddddddO/gtree"
	"github.com/fatih/color"

	"github.com/MarshallNickolauson/mern-builder-script/internal/preflight"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

// Printer writes progress for one run.
type Printer struct {
	w      io.Writer
	cyan   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	bold   *color.Color

	// Verbose also prints passing preflight reports.
	Verbose bool
}

// New returns a Printer on w. noColor strips all escape sequences.
func New(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:      w,
		cyan:   color.New(color.FgCyan),
		green:  color.New(color.FgGreen, color.Bold),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.cyan, p.green, p.yellow, p.red, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

// Step announces a scaffold step.
func (p *Printer) Step(tier templates.Tier, step string) {
	p.cyan.Fprintf(p.w, "==> [%s] ", tier)
	fmt.Fprintln(p.w, step)
}

// Preflight prints the toolchain report. Passing reports are kept quiet
// unless verbose is set on the printer.
func (p *Printer) Preflight(report *preflight.Report) {
	if report.OK() && !p.Verbose {
		return
	}
	report.Print(p.w)
}

// Heading prints a bold line.
func (p *Printer) Heading(format string, args ...interface{}) {
	p.bold.Fprintf(p.w, format+"\n", args...)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.green.Fprintf(p.w, "✓ "+format+"\n", args...)
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.yellow.Fprintf(p.w, "! "+format+"\n", args...)
}

// Error prints err in red.
func (p *Printer) Error(err error) {
	p.red.Fprintf(p.w, "Error: %v\n", err)
}

// Println prints plain text.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.w, s)
}

// Tree prints rel (slash-separated paths below root) as a tree.
func (p *Printer) Tree(root string, rel []string) error {
	return WriteTree(p.w, root, rel)
}

// WriteTree renders rel as a tree rooted at root.
func WriteTree(w io.Writer, root string, rel []string) error {
	paths := append([]string(nil), rel...)
	sort.Strings(paths)

	tree := gtree.NewRoot(root)
	for _, rp := range paths {
		rp = strings.Trim(path.Clean(rp), "/")
		if rp == "." || rp == "" {
			continue
		}
		node := tree
		for _, part := range strings.Split(rp, "/") {
			node = node.Add(part)
		}
	}
	if err := gtree.OutputFromRoot(w, tree); err != nil {
		return fmt.Errorf("rendering tree: %w", err)
	}
	return nil
}
