package scaffold

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MarshallNickolauson/mern-builder-script/internal/manifest"
	"github.com/MarshallNickolauson/mern-builder-script/internal/platform"
	"github.com/MarshallNickolauson/mern-builder-script/internal/preflight"
	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

// StepError records which step of which tier failed.
type StepError struct {
	Tier templates.Tier
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tier, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Reporter receives progress as the engine moves through its steps.
type Reporter interface {
	Step(tier templates.Tier, step string)
	Preflight(report *preflight.Report)
}

type nopReporter struct{}

func (nopReporter) Step(templates.Tier, string) {}
func (nopReporter) Preflight(*preflight.Report) {}

// Result holds the outcome of a scaffold run. Paths are slash-separated and
// relative to Root.
type Result struct {
	Root        string
	Directories []string
	Files       []string
	Manifests   []string
	Removed     []string
	Commands    []string
	Warnings    []string
	DevPID      int
}

// Engine runs scaffolds against one template set.
type Engine struct {
	Runner   runner.Runner
	Set      *templates.Set
	Checker  *preflight.Checker // nil disables preflight
	Reporter Reporter
	Log      *zap.Logger
}

// New returns an Engine. log may be nil.
func New(r runner.Runner, set *templates.Set, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Runner:   r,
		Set:      set,
		Reporter: nopReporter{},
		Log:      log,
	}
}

func (e *Engine) reporter() Reporter {
	if e.Reporter == nil {
		return nopReporter{}
	}
	return e.Reporter
}

func (e *Engine) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// tierDir returns the absolute directory of tier under root.
func (e *Engine) tierDir(root string, tier templates.Tier) (string, error) {
	return platform.Resolve(root, e.Set.Tier(tier).Dir)
}

// rel joins a tier-relative path onto the tier's directory, relative to the
// project root.
func (e *Engine) rel(tier templates.Tier, p string) string {
	return path.Clean(path.Join(e.Set.Tier(tier).Dir, filepath.ToSlash(p)))
}

func checkRoot(root string) error {
	if !filepath.IsAbs(root) {
		return fmt.Errorf("project root %q must be an absolute path", root)
	}
	return nil
}

// run executes one set command inside dir.
func (e *Engine) run(ctx context.Context, res *Result, tier templates.Tier, dir string, c templates.Command) error {
	if len(c.Args) == 0 {
		return &StepError{Tier: tier, Step: "run", Err: errors.New("empty command")}
	}
	cmd := runner.Command{Name: c.Args[0], Args: c.Args[1:], Dir: dir, Env: c.Env}
	e.reporter().Step(tier, cmd.String())
	e.logger().Info("running", zap.String("tier", string(tier)), zap.String("cmd", cmd.String()), zap.String("dir", dir))
	res.Commands = append(res.Commands, cmd.String())
	if err := e.Runner.Run(ctx, cmd); err != nil {
		return &StepError{Tier: tier, Step: "run " + cmd.String(), Err: err}
	}
	return nil
}

// install runs the runtime install, then the dev install. Empty sets are
// skipped.
func (e *Engine) install(ctx context.Context, res *Result, tier templates.Tier, dir string, opts templates.Options) error {
	spec := e.Set.Tier(tier)
	if pkgs := templates.Select(spec.Packages.Runtime, opts); len(pkgs) > 0 {
		if err := e.run(ctx, res, tier, dir, e.Set.Install.With(pkgs...)); err != nil {
			return err
		}
	}
	if pkgs := templates.Select(spec.Packages.Dev, opts); len(pkgs) > 0 {
		if err := e.run(ctx, res, tier, dir, e.Set.InstallDev.With(pkgs...)); err != nil {
			return err
		}
	}
	return nil
}

// updateManifest applies the tier's scripts and module type to its
// package.json.
func (e *Engine) updateManifest(res *Result, tier templates.Tier, dir string) error {
	muts := e.Set.Tier(tier).Mutations()
	if len(muts) == 0 {
		return nil
	}
	e.reporter().Step(tier, "update "+manifest.FileName)
	if err := manifest.Update(filepath.Join(dir, manifest.FileName), muts...); err != nil {
		return &StepError{Tier: tier, Step: "update " + manifest.FileName, Err: err}
	}
	res.Manifests = append(res.Manifests, e.rel(tier, manifest.FileName))
	return nil
}

func (e *Engine) ensureDirs(res *Result, tier templates.Tier, dir string) error {
	dirs := e.Set.Tier(tier).Directories
	if len(dirs) == 0 {
		return nil
	}
	e.reporter().Step(tier, "create directories")
	if _, err := platform.EnsureTree(dir, dirs...); err != nil {
		return &StepError{Tier: tier, Step: "create directories", Err: err}
	}
	for _, d := range dirs {
		res.Directories = append(res.Directories, e.rel(tier, d))
	}
	return nil
}

// writeFiles renders and writes every file of the tier enabled by the data's
// options.
func (e *Engine) writeFiles(res *Result, tier templates.Tier, dir string, data templates.Data) error {
	files := e.Set.Files(tier, data.Options)
	for _, f := range files {
		step := "write " + f.Path
		content, err := e.Set.Render(f.ID, data)
		if err != nil {
			return &StepError{Tier: tier, Step: step, Err: err}
		}
		if _, err := platform.WriteFile(dir, f.Path, content, f.Perm()); err != nil {
			return &StepError{Tier: tier, Step: step, Err: err}
		}
		e.logger().Debug("wrote file", zap.String("tier", string(tier)), zap.String("path", f.Path), zap.Int("bytes", len(content)))
		res.Files = append(res.Files, e.rel(tier, f.Path))
	}
	if len(files) > 0 {
		e.reporter().Step(tier, fmt.Sprintf("wrote %d files", len(files)))
	}
	return nil
}

// remove deletes generator defaults. Absent files are skipped; other
// failures are fatal.
func (e *Engine) remove(res *Result, tier templates.Tier, dir string, paths []string) error {
	for _, p := range paths {
		removed, err := platform.RemoveIfExists(dir, p)
		if err != nil {
			return &StepError{Tier: tier, Step: "remove " + p, Err: err}
		}
		if removed {
			e.reporter().Step(tier, "removed "+p)
			res.Removed = append(res.Removed, e.rel(tier, p))
		}
	}
	return nil
}

// cleanup is remove without the failure: problems become warnings.
func (e *Engine) cleanup(res *Result, tier templates.Tier, dir string, paths []string) {
	for _, p := range paths {
		removed, err := platform.RemoveIfExists(dir, p)
		if err != nil {
			e.logger().Warn("cleanup failed", zap.String("path", p), zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not remove %s: %v", e.rel(tier, p), err))
			continue
		}
		if removed {
			e.reporter().Step(tier, "removed "+p)
			res.Removed = append(res.Removed, e.rel(tier, p))
		}
	}
}

// ensureTierDir creates the tier's own directory.
func (e *Engine) ensureTierDir(res *Result, root string, tier templates.Tier) (string, error) {
	dir, err := e.tierDir(root, tier)
	if err != nil {
		return "", &StepError{Tier: tier, Step: "resolve directory", Err: err}
	}
	if _, err := platform.EnsureTree(dir); err != nil {
		return "", &StepError{Tier: tier, Step: "create " + dir, Err: err}
	}
	if rel := e.Set.Tier(tier).Dir; path.Clean(rel) != "." {
		res.Directories = append(res.Directories, path.Clean(filepath.ToSlash(rel)))
	}
	return dir, nil
}
