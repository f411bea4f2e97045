package provisioning

import (
	"fmt"

	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/preflight"
)

// EnvironmentPhase probes the host and rejects unsupported ones. It runs
// before anything is changed.
type EnvironmentPhase struct{}

func (p *EnvironmentPhase) Name() string { return "environment" }
func (p *EnvironmentPhase) Stage() Stage { return StageCheckingEnvironment }

func (p *EnvironmentPhase) Provision(ctx *Context) error {
	facts, err := ctx.Deps.ProbeHost()
	if err != nil {
		return fmt.Errorf("failed to probe host: %w", err)
	}
	ctx.State.Facts = facts

	ctx.Observer.Event(Event{
		Type:    EventHostFacts,
		Phase:   p.Name(),
		Message: facts.String(),
		Fields:  facts.Fields(),
	})

	req := preflight.Requirement{
		Distro:       ctx.Config.Requirement.Distro,
		MajorVersion: ctx.Config.Requirement.MajorVersion,
		Architecture: host.ArchX86_64,
	}
	if err := preflight.VerifyEnvironment(facts, req); err != nil {
		return err
	}

	LogStep(ctx.Observer, p.Name(), "host matches "+req.String(), nil)
	return nil
}

// PrivilegePhase requires root.
type PrivilegePhase struct{}

func (p *PrivilegePhase) Name() string { return "privilege" }
func (p *PrivilegePhase) Stage() Stage { return StageCheckingPrivilege }

func (p *PrivilegePhase) Provision(ctx *Context) error {
	euid := ctx.Deps.EffectiveUID()
	ctx.State.EUID = euid
	return preflight.CheckPrivilege(euid)
}
