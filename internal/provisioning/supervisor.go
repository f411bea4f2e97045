package provisioning

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/stackprov/internal/platform/pm2"
)

// SupervisorPhase starts every app that ships a process descriptor, then
// registers the supervisor for boot and saves its process list.
type SupervisorPhase struct{}

func (p *SupervisorPhase) Name() string { return "supervisor" }
func (p *SupervisorPhase) Stage() Stage { return StageStartingSupervisor }

func (p *SupervisorPhase) Provision(ctx *Context) error {
	cfg := ctx.Config.Supervisor

	for _, app := range cfg.Apps {
		dir := filepath.Join(ctx.Config.InstallDir, app)

		if !ctx.DryRun {
			_, err := os.Stat(filepath.Join(dir, cfg.Descriptor))
			if errors.Is(err, os.ErrNotExist) {
				LogSkipped(ctx.Observer, p.Name(), app+" declares no "+cfg.Descriptor)
				continue
			}
			if err != nil {
				return &pm2.SupervisorError{Op: "start", Target: dir, Err: err}
			}
		}

		if err := ctx.Deps.Supervisor.Start(ctx, cfg.Descriptor, dir); err != nil {
			return err
		}
		ctx.State.Started = append(ctx.State.Started, app)
	}

	if len(ctx.State.Started) == 0 {
		return &pm2.SupervisorError{
			Op:     "start",
			Target: ctx.Config.InstallDir,
			Err:    errors.New("no application declares " + cfg.Descriptor),
		}
	}

	if err := ctx.Deps.Supervisor.Startup(ctx, cfg.InitSystem, cfg.User); err != nil {
		return err
	}
	if err := ctx.Deps.Supervisor.Save(ctx); err != nil {
		return err
	}

	LogStep(ctx.Observer, p.Name(), "processes supervised", map[string]string{
		"apps": strings.Join(ctx.State.Started, ","),
	})
	return nil
}
