package provisioning

import (
	"fmt"
	"strings"

	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// ToolsPhase installs the missing system tools in one batch.
type ToolsPhase struct {
	// Tools overrides prerequisites.DefaultTools.
	Tools []prerequisites.Tool
}

func (p *ToolsPhase) Name() string { return "tools" }
func (p *ToolsPhase) Stage() Stage { return StageProvisioningTools }

func (p *ToolsPhase) Provision(ctx *Context) error {
	tools := p.Tools
	if tools == nil {
		tools = prerequisites.DefaultTools()
	}

	results, err := ctx.Deps.Tools.Ensure(ctx, tools)
	ctx.State.Tools = results
	if err != nil {
		return err
	}

	if pkgs := results.MissingPackages(); len(pkgs) > 0 {
		LogStep(ctx.Observer, p.Name(), "installed missing packages", map[string]string{
			"packages": strings.Join(pkgs, " "),
		})
		return nil
	}
	LogSkipped(ctx.Observer, p.Name(), "all tools present")
	return nil
}

// RuntimePhase installs the pinned Node.js major.
type RuntimePhase struct{}

func (p *RuntimePhase) Name() string { return "runtime" }
func (p *RuntimePhase) Stage() Stage { return StageInstallingRuntime }

func (p *RuntimePhase) Provision(ctx *Context) error {
	major := ctx.Config.Runtime.NodeMajor
	installed, err := ctx.Deps.Runtime.Install(ctx, major)
	if err != nil {
		return err
	}
	ctx.State.RuntimeInstalled = installed

	if installed {
		LogStep(ctx.Observer, p.Name(), fmt.Sprintf("installed node %d.x", major), nil)
	} else {
		LogSkipped(ctx.Observer, p.Name(), fmt.Sprintf("node %d.x already installed", major))
	}
	return nil
}

// GlobalDepsPhase installs global npm packages such as pm2.
type GlobalDepsPhase struct{}

func (p *GlobalDepsPhase) Name() string { return "global-deps" }
func (p *GlobalDepsPhase) Stage() Stage { return StageInstallingGlobalDeps }

func (p *GlobalDepsPhase) Provision(ctx *Context) error {
	pkgs := ctx.Config.Runtime.GlobalPackages
	if len(pkgs) == 0 {
		LogSkipped(ctx.Observer, p.Name(), "no global packages configured")
		return nil
	}
	if err := ctx.Deps.Dependencies.InstallGlobal(ctx, pkgs...); err != nil {
		return err
	}
	LogStep(ctx.Observer, p.Name(), "installed global packages", map[string]string{
		"packages": strings.Join(pkgs, " "),
	})
	return nil
}
