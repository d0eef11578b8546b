package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
)

var (
	// ErrToolMissing is returned when a required executable is not on PATH.
	ErrToolMissing = errors.New("required tool not found")
	// ErrToolVersion is returned when a tool is older than required or its
	// version cannot be determined.
	ErrToolVersion = errors.New("required tool version not satisfied")
)

// DefaultConstraints are the minimum versions Vite and the generated
// project need.
var DefaultConstraints = map[string]string{
	"node": ">= 18",
	"npm":  ">= 9",
}

// Status is the outcome of one check.
type Status int

const (
	StatusOK Status = iota
	StatusMissing
	StatusVersion
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	default:
		return "version"
	}
}

// Check is the result for one tool.
type Check struct {
	Tool       string
	Path       string
	Version    string
	Constraint string
	Status     Status
	Detail     string
}

// Report collects checks in tool order.
type Report struct {
	Checks []Check
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status != StatusOK {
			return false
		}
	}
	return true
}

// Err returns nil for a passing report, otherwise an error wrapping
// ErrToolMissing or ErrToolVersion for each failing tool.
func (r *Report) Err() error {
	var errs []error
	for _, c := range r.Checks {
		switch c.Status {
		case StatusMissing:
			errs = append(errs, fmt.Errorf("%w: %s", ErrToolMissing, c.Tool))
		case StatusVersion:
			errs = append(errs, fmt.Errorf("%w: %s %s", ErrToolVersion, c.Tool, c.Detail))
		}
	}
	return errors.Join(errs...)
}

// Print writes the report in the doctor format.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "Toolchain check:")
	for _, c := range r.Checks {
		switch c.Status {
		case StatusOK:
			if c.Version != "" {
				fmt.Fprintf(w, "  [ OK ] %s %s found at %s\n", c.Tool, c.Version, c.Path)
			} else {
				fmt.Fprintf(w, "  [ OK ] %s found at %s\n", c.Tool, c.Path)
			}
		case StatusMissing:
			fmt.Fprintf(w, "  [MISS] %s not found\n", c.Tool)
		case StatusVersion:
			fmt.Fprintf(w, "  [FAIL] %s: %s\n", c.Tool, c.Detail)
		}
	}
}

// Checker runs the checks. LookPath and Runner are swappable for tests.
type Checker struct {
	Runner      runner.Runner
	LookPath    func(file string) (string, error)
	Constraints map[string]string
	Log         *zap.Logger
}

// New returns a Checker using exec.LookPath and DefaultConstraints.
func New(r runner.Runner, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		Runner:      r,
		LookPath:    exec.LookPath,
		Constraints: DefaultConstraints,
		Log:         log,
	}
}

// Run checks node plus every tool in tools. Checks run concurrently; the
// report is sorted by tool name. The error return is reserved for context
// cancellation; tool problems are reported in the Report.
func (c *Checker) Run(ctx context.Context, tools []string) (*Report, error) {
	names := unique(append([]string{"node"}, tools...))
	checks := make([]Check, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			checks[i] = c.check(ctx, name)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running preflight: %w", err)
	}

	for _, ch := range checks {
		c.Log.Debug("preflight",
			zap.String("tool", ch.Tool),
			zap.String("status", ch.Status.String()),
			zap.String("version", ch.Version),
		)
	}
	return &Report{Checks: checks}, nil
}

func (c *Checker) check(ctx context.Context, tool string) Check {
	ch := Check{Tool: tool, Constraint: c.Constraints[tool]}

	path, err := c.LookPath(tool)
	if err != nil {
		ch.Status = StatusMissing
		ch.Detail = err.Error()
		return ch
	}
	ch.Path = path
	if ch.Constraint == "" {
		return ch
	}

	constraint, err := semver.NewConstraint(ch.Constraint)
	if err != nil {
		ch.Status = StatusVersion
		ch.Detail = fmt.Sprintf("invalid constraint %q: %v", ch.Constraint, err)
		return ch
	}

	out, err := c.Runner.Output(ctx, runner.Command{Name: tool, Args: []string{"--version"}})
	if err != nil {
		ch.Status = StatusVersion
		ch.Detail = fmt.Sprintf("could not determine version: %v", err)
		return ch
	}
	v, err := ParseVersion(out)
	if err != nil {
		ch.Status = StatusVersion
		ch.Detail = fmt.Sprintf("unrecognized version output %q", out)
		return ch
	}
	ch.Version = v.String()
	if !constraint.Check(v) {
		ch.Status = StatusVersion
		ch.Detail = fmt.Sprintf("version %s does not satisfy %s", v, ch.Constraint)
	}
	return ch
}

// ParseVersion extracts a semantic version from --version output such as
// "v20.11.1" or "10.2.4".
func ParseVersion(out string) (*semver.Version, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return nil, errors.New("empty version output")
	}
	for _, f := range fields {
		if v, err := semver.NewVersion(strings.TrimPrefix(f, "v")); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("no version in %q", out)
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
