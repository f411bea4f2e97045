package provisioning

import (
	"context"

	"github.com/imamik/stackprov/internal/netident"
	"github.com/imamik/stackprov/internal/platform/npm"
	"github.com/imamik/stackprov/internal/release"
	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Stage returns the state machine stage the phase runs in.
	Stage() Stage

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// ToolEnsurer installs missing command-line tools.
// Implemented by prerequisites.Provisioner.
type ToolEnsurer interface {
	Ensure(ctx context.Context, tools []prerequisites.Tool) (*prerequisites.CheckResults, error)
}

// RuntimeInstaller installs the pinned language runtime.
// Implemented by nodejs.Installer.
type RuntimeInstaller interface {
	// Install returns false when the runtime was already at major.
	Install(ctx context.Context, major uint64) (bool, error)
}

// DependencyInstaller installs application and global packages.
// Implemented by npm.Client.
type DependencyInstaller interface {
	Install(ctx context.Context, dir string, opts npm.InstallOptions) error
	InstallGlobal(ctx context.Context, packages ...string) error
}

// IdentityResolver obtains the validated public address.
// Implemented by netident.Resolver.
type IdentityResolver interface {
	Resolve(ctx context.Context) (netident.Identity, error)
}

// ReleaseFetcher downloads and unpacks archives.
// Implemented by release.Fetcher.
type ReleaseFetcher interface {
	FetchLatest(ctx context.Context, repo, destDir string) (*release.Artifact, error)
	DownloadAndExtract(ctx context.Context, url, destDir, digest string) (*release.Artifact, error)
}

// Supervisor hands processes to the process manager.
// Implemented by pm2.Client.
type Supervisor interface {
	Start(ctx context.Context, descriptor, dir string) error
	Startup(ctx context.Context, initSystem, user string) error
	Save(ctx context.Context) error
}
