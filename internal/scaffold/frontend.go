package scaffold

import (
	"context"

	"go.uber.org/zap"

	"github.com/MarshallNickolauson/mern-builder-script/internal/templates"
)

// Frontend scaffolds the client tier under root:
//
//  1. create frontend/ and run the client generator inside it
//  2. install runtime then dev packages, then run the setup commands
//     (styling framework init)
//  3. delete the generator's default stylesheet and root component
//  4. create the screens, layouts, components and slices directories and
//     write every frontend file
//  5. drop the leftover generator asset, best effort
//  6. register the test script in package.json
func (e *Engine) Frontend(ctx context.Context, root string, data templates.Data) (*Result, error) {
	if err := data.Project.Validate(); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	res := &Result{Root: root}
	if err := e.frontend(ctx, res, root, data); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) frontend(ctx context.Context, res *Result, root string, data templates.Data) error {
	const tier = templates.TierFrontend
	log := e.logger().With(zap.String("project", data.Project.Name))
	log.Info("scaffolding frontend", zap.String("root", root))
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
	if err := e.updateManifest(res, tier, dir); err != nil {
		return err
	}

	log.Info("frontend scaffolded", zap.Int("files", len(res.Files)))
	return nil
}
