package scaffold

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MarshallNickolauson/mern-builder-script/internal/platform"
	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
	"github.com/MarshallNickolauson/mern-builder-script/internal/vcs"
)

// ErrRootNotEmpty is returned when the project directory already has
// content and Force is not set.
var ErrRootNotEmpty = errors.New("project directory is not empty")

// Request describes a full project run.
type Request struct {
	// Parent is the directory the project directory is created in.
	Parent string
	Data   templates.Data
	// Force allows scaffolding into a non-empty project directory.
	Force bool
	// Git initializes a repository and extends .gitignore.
	Git bool
	// StartDev launches the dev command detached once scaffolding succeeds.
	StartDev bool
	// SkipPreflight bypasses the toolchain check.
	SkipPreflight bool
}

// Root returns the absolute project directory for r.
func (r Request) Root() (string, error) {
	parent, err := filepath.Abs(r.Parent)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", r.Parent, err)
	}
	return filepath.Join(parent, r.Data.Project.Name), nil
}

// Generate validates the request, runs preflight, then the backend and
// frontend scaffolders, optionally initializes git, and finally launches the
// dev command without waiting for it.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Data.Project.Validate(); err != nil {
		return nil, err
	}
	root, err := req.Root()
	if err != nil {
		return nil, err
	}
	log := e.logger().With(zap.String("project", req.Data.Project.Name))

	empty, err := platform.IsEmptyDir(root)
	if err != nil {
		return nil, err
	}
	if !empty && !req.Force {
		return nil, fmt.Errorf("%w: %s (use --force to scaffold into it anyway)", ErrRootNotEmpty, root)
	}

	if e.Checker != nil && !req.SkipPreflight {
		report, err := e.Checker.Run(ctx, e.Set.Executables())
		if err != nil {
			return nil, err
		}
		e.reporter().Preflight(report)
		if err := report.Err(); err != nil {
			return nil, err
		}
	}

	res := &Result{Root: root}
	if err := e.backend(ctx, res, root, req.Data); err != nil {
		return res, err
	}
	if err := e.frontend(ctx, res, root, req.Data); err != nil {
		return res, err
	}

	if req.Git {
		if err := e.initGit(res, root); err != nil {
			return res, err
		}
	}

	if req.StartDev {
		pid, err := e.StartDev(root)
		if err != nil {
			// The skeleton is complete; a failed launch is only reported.
			log.Warn("dev command did not start", zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not start the dev command: %v", err))
		} else {
			res.DevPID = pid
		}
	}

	log.Info("project scaffolded", zap.String("root", root), zap.Int("files", len(res.Files)))
	return res, nil
}

func (e *Engine) initGit(res *Result, root string) error {
	const tier = templates.TierRoot
	e.reporter().Step(tier, "git init")
	created, err := vcs.Init(root)
	if err != nil {
		return &StepError{Tier: tier, Step: "git init", Err: err}
	}
	if !created {
		res.Warnings = append(res.Warnings, "git repository already exists; left as is")
	}
	if _, err := vcs.EnsureIgnored(root, vcs.DefaultIgnores...); err != nil {
		return &StepError{Tier: tier, Step: "update .gitignore", Err: err}
	}
	return nil
}

// StartDev launches the set's dev command in root and returns its pid.
// The process is not waited for.
func (e *Engine) StartDev(root string) (int, error) {
	dev := e.Set.Dev
	if len(dev.Args) == 0 {
		return 0, errors.New("template set has no dev command")
	}
	cmd := runner.Command{Name: dev.Args[0], Args: dev.Args[1:], Dir: root, Env: dev.Env}
	e.reporter().Step(templates.TierRoot, "start "+cmd.String())
	return e.Runner.Start(cmd)
}
