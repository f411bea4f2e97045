// Package apt drives the Debian/Ubuntu package manager.
package apt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/stackprov/internal/platform/shell"
)

var nonInteractive = []string{"DEBIAN_FRONTEND=noninteractive"}

// Manager implements prerequisites.PackageManager with apt-get and dpkg.
type Manager struct {
	Runner shell.Runner
}

// NewManager creates an apt manager on top of runner.
func NewManager(runner shell.Runner) *Manager {
	return &Manager{Runner: runner}
}

// Refresh runs apt-get update.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.Runner.Run(ctx, shell.Command{
		Name: "apt-get",
		Args: []string{"update"},
		Env:  nonInteractive,
	})
	if err != nil {
		return fmt.Errorf("failed to refresh package index: %w", err)
	}
	return nil
}

// Install installs packages in one apt-get transaction.
func (m *Manager) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	args := append([]string{"install", "-y", "--no-install-recommends"}, packages...)
	_, err := m.Runner.Run(ctx, shell.Command{
		Name: "apt-get",
		Args: args,
		Env:  nonInteractive,
	})
	if err != nil {
		return fmt.Errorf("failed to install %s: %w", strings.Join(packages, ", "), err)
	}
	return nil
}

// IsInstalled asks dpkg whether pkg is fully installed.
func (m *Manager) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	res, err := m.Runner.Run(ctx, shell.Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f=${Status}", pkg},
	})
	if err != nil {
		// dpkg-query exits 1 for unknown packages.
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode == 1 {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s: %w", pkg, err)
	}
	return strings.Contains(string(res.Stdout), "install ok installed"), nil
}
