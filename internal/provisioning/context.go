package provisioning

import (
	"context"

	"github.com/google/uuid"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/metrics"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/platform/shell"
)

// Collaborators are everything phases use to inspect or change the host.
type Collaborators struct {
	ProbeHost    func() (*host.Facts, error)
	EffectiveUID func() int

	Tools        ToolEnsurer
	Runtime      RuntimeInstaller
	Dependencies DependencyInstaller
	Identity     IdentityResolver
	Releases     ReleaseFetcher
	Supervisor   Supervisor

	// Runner executes the remaining one-off commands (permission fix-up).
	Runner shell.Runner
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Deps     Collaborators
	Observer Observer
	Metrics  *metrics.Recorder
	RunID    string

	// DryRun skips file and network mutations that do not go through the
	// shell runner. The runner itself is expected to be a dry-run runner.
	DryRun bool
}

// NewContext creates a new provisioning context with a fresh run ID.
func NewContext(ctx context.Context, cfg *config.Config, deps Collaborators) *Context {
	runID := uuid.NewString()
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Deps:     deps,
		Observer: NewConsoleObserver().WithFields(map[string]string{"run_id": runID}),
		RunID:    runID,
	}
}
