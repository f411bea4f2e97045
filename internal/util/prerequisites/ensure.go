package prerequisites

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/stackprov/internal/platform/shell"
)

// PackageManager is the narrow contract of the system package manager.
type PackageManager interface {
	// Refresh updates the package index.
	Refresh(ctx context.Context) error
	// Install installs all packages in a single transaction.
	Install(ctx context.Context, packages []string) error
	// IsInstalled reports whether a package is installed.
	IsInstalled(ctx context.Context, pkg string) (bool, error)
}

// PackageManagerError reports a failed refresh or install of the missing set.
type PackageManagerError struct {
	Op       string
	Packages []string
	ExitCode int
	Err      error
}

func (e *PackageManagerError) Error() string {
	return fmt.Sprintf("package manager %s failed for [%s] (exit code %d): %v",
		e.Op, strings.Join(e.Packages, " "), e.ExitCode, e.Err)
}

func (e *PackageManagerError) Unwrap() error {
	return e.Err
}

// Provisioner installs missing tools through Packages.
type Provisioner struct {
	Packages PackageManager
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// SkipVerify skips the lookup after installing. Dry runs set it since
	// nothing is actually installed.
	SkipVerify bool
}

// Ensure installs the packages providing any missing tool. The index is
// refreshed once and all missing packages go in one batch, so a failure
// surfaces as a single combined error. Nothing happens when every tool
// is already present. The returned results describe the host before the
// install.
func (p *Provisioner) Ensure(ctx context.Context, tools []Tool) (*CheckResults, error) {
	results := CheckWith(tools, p.LookPath)
	pkgs := results.MissingPackages()
	if len(pkgs) == 0 {
		return results, nil
	}

	pm := p.Packages
	if err := pm.Refresh(ctx); err != nil {
		return results, &PackageManagerError{Op: "refresh", Packages: pkgs, ExitCode: shell.ExitCodeOf(err), Err: err}
	}
	if err := pm.Install(ctx, pkgs); err != nil {
		return results, &PackageManagerError{Op: "install", Packages: pkgs, ExitCode: shell.ExitCodeOf(err), Err: err}
	}

	if p.SkipVerify {
		return results, nil
	}
	// A package can install cleanly without providing the expected binary.
	if after := CheckWith(tools, p.LookPath); after.HasErrors() {
		return results, fmt.Errorf("after installing %s: %w", strings.Join(pkgs, " "), after.Error())
	}
	return results, nil
}
