// Package nodejs installs a pinned major version of the Node.js runtime
// from the NodeSource apt repository.
package nodejs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/imamik/stackprov/internal/platform/shell"
)

// DefaultSetupURL is the NodeSource repository setup script; %d is the major version.
const DefaultSetupURL = "https://deb.nodesource.com/setup_%d.x"

// PackageInstaller installs distribution packages.
type PackageInstaller interface {
	Install(ctx context.Context, packages []string) error
}

// Installer adds the NodeSource repository and installs nodejs (which
// bundles npm).
type Installer struct {
	Runner   shell.Runner
	Packages PackageInstaller
	SetupURL string
}

// NewInstaller creates an installer using the default setup URL.
func NewInstaller(runner shell.Runner, packages PackageInstaller) *Installer {
	return &Installer{Runner: runner, Packages: packages, SetupURL: DefaultSetupURL}
}

// InstalledVersion returns the version reported by `node --version`,
// or nil when node is absent or unparsable.
func (i *Installer) InstalledVersion(ctx context.Context) *semver.Version {
	res, err := i.Runner.Run(ctx, shell.Command{Name: "node", Args: []string{"--version"}})
	if err != nil || res == nil {
		return nil
	}
	v, err := semver.NewVersion(strings.TrimSpace(string(res.Stdout)))
	if err != nil {
		return nil
	}
	return v
}

// Install makes sure node of the given major version is present. It
// returns false when the runtime was already at that major.
func (i *Installer) Install(ctx context.Context, major uint64) (bool, error) {
	if major == 0 {
		return false, fmt.Errorf("runtime major version must be set")
	}
	if v := i.InstalledVersion(ctx); v != nil && v.Major() == major {
		return false, nil
	}

	setupURL := i.SetupURL
	if setupURL == "" {
		setupURL = DefaultSetupURL
	}
	if strings.Contains(setupURL, "%d") {
		setupURL = fmt.Sprintf(setupURL, major)
	}

	script := fmt.Sprintf("set -o pipefail; curl -fsSL %s | bash -", setupURL)
	if _, err := i.Runner.Run(ctx, shell.Command{Name: "bash", Args: []string{"-c", script}}); err != nil {
		return false, fmt.Errorf("failed to add runtime repository: %w", err)
	}

	if err := i.Packages.Install(ctx, []string{"nodejs"}); err != nil {
		return false, fmt.Errorf("failed to install nodejs: %w", err)
	}

	return true, nil
}
