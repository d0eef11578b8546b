package scaffold

import (
	"context"

	"go.uber.org/zap"

	"github.com/MarshallNickolauson/mern-builder-script/internal/platform"
	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

// Backend scaffolds the project root and the server tier under root:
//
//  1. create root and initialize its package.json
//  2. install the root dev tooling and register the root scripts
//  3. write the root files
//  4. create backend/, initialize its package.json, install runtime then
//     dev packages
//  5. register the backend scripts and module type
//  6. create the backend directory tree and write the backend files
//
// Running it again over a populated root succeeds and rewrites the same
// files with the same content.
func (e *Engine) Backend(ctx context.Context, root string, data templates.Data) (*Result, error) {
	if err := data.Project.Validate(); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	res := &Result{Root: root}
	if err := e.backend(ctx, res, root, data); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) backend(ctx context.Context, res *Result, root string, data templates.Data) error {
	log := e.logger().With(zap.String("project", data.Project.Name))
	log.Info("scaffolding backend", zap.String("root", root))

	if _, err := platform.EnsureTree(root); err != nil {
		return &StepError{Tier: templates.TierRoot, Step: "create project root", Err: err}
	}
	if err := e.tier(ctx, res, root, templates.TierRoot, data); err != nil {
		return err
	}
	if err := e.tier(ctx, res, root, templates.TierBackend, data); err != nil {
		return err
	}

	log.Info("backend scaffolded", zap.Int("files", len(res.Files)))
	return nil
}

// tier runs the fixed create/install/setup/manifest/layout sequence used by
// the root and backend tiers.
func (e *Engine) tier(ctx context.Context, res *Result, root string, tier templates.Tier, data templates.Data) error {
	spec := e.Set.Tier(tier)

	dir, err := e.ensureTierDir(res, root, tier)
	if err != nil {
		return err
	}
	for _, c := range spec.Create {
		if err := e.run(ctx, res, tier, dir, c); err != nil {
			return err
		}
	}
	if err := e.install(ctx, res, tier, dir, data.Options); err != nil {
		return err
	}
	for _, c := range spec.Setup {
		if err := e.run(ctx, res, tier, dir, c); err != nil {
			return err
		}
	}
	if err := e.updateManifest(res, tier, dir); err != nil {
		return err
	}
	if err := e.remove(res, tier, dir, spec.Remove); err != nil {
		return err
	}
	if err := e.ensureDirs(res, tier, dir); err != nil {
		return err
	}
	if err := e.writeFiles(res, tier, dir, data); err != nil {
		return err
	}
	e.cleanup(res, tier, dir, spec.Cleanup)
	return nil
}
