package provisioning

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/stackprov/internal/envfile"
	"github.com/imamik/stackprov/internal/platform/npm"
	"github.com/imamik/stackprov/internal/platform/shell"
)

// ErrMissingComponent is returned when the release lacks an application directory.
var ErrMissingComponent = errors.New("application directory missing from release")

// CorePhase installs the core application's dependencies without running
// install scripts and restores its precompiled native module instead.
type CorePhase struct{}

func (p *CorePhase) Name() string { return "core" }
func (p *CorePhase) Stage() Stage { return StageConfiguringCore }

func (p *CorePhase) Provision(ctx *Context) error {
	cfg := ctx.Config.Core
	dir := filepath.Join(ctx.Config.InstallDir, cfg.Dir)

	if err := prepareAppDir(ctx, dir); err != nil {
		return err
	}
	if err := ctx.Deps.Dependencies.Install(ctx, dir, npm.InstallOptions{IgnoreScripts: true}); err != nil {
		return err
	}
	LogStep(ctx.Observer, p.Name(), "dependencies installed without scripts", map[string]string{"dir": dir})

	if cfg.BinaryAssetURL == "" {
		LogSkipped(ctx.Observer, p.Name(), "no native asset configured")
		return nil
	}

	dest := filepath.Join(dir, cfg.BinaryAssetDest)
	if ctx.DryRun {
		LogSkipped(ctx.Observer, p.Name(), fmt.Sprintf("dry run: would restore %s into %s", cfg.BinaryAssetURL, dest))
		return nil
	}

	digest := ""
	if cfg.BinaryAssetSHA256 != "" {
		digest = "sha256:" + cfg.BinaryAssetSHA256
	} else {
		LogWarning(ctx.Observer, p.Name(), "no sha256 configured for the native asset; its integrity is not verified")
	}

	asset, err := ctx.Deps.Releases.DownloadAndExtract(ctx, cfg.BinaryAssetURL, dest, digest)
	if err != nil {
		return fmt.Errorf("failed to restore native asset: %w", err)
	}
	ctx.State.NativeAsset = asset
	LogStep(ctx.Observer, p.Name(), "native asset restored", map[string]string{"dest": dest})
	return nil
}

// ServerPhase installs the server's dependencies and binds it to the
// resolved public address.
type ServerPhase struct{}

func (p *ServerPhase) Name() string { return "server" }
func (p *ServerPhase) Stage() Stage { return StageConfiguringServer }

func (p *ServerPhase) Provision(ctx *Context) error {
	cfg := ctx.Config.Server
	dir := filepath.Join(ctx.Config.InstallDir, cfg.Dir)

	if err := prepareAppDir(ctx, dir); err != nil {
		return err
	}
	if err := ctx.Deps.Dependencies.Install(ctx, dir, npm.InstallOptions{}); err != nil {
		return err
	}
	LogStep(ctx.Observer, p.Name(), "dependencies installed", map[string]string{"dir": dir})

	address := ctx.State.Identity.Address
	if address == "" {
		return fmt.Errorf("no public address resolved before configuring %s", cfg.Dir)
	}

	envPath := filepath.Join(dir, cfg.EnvFile)
	if ctx.DryRun {
		LogSkipped(ctx.Observer, p.Name(), fmt.Sprintf("dry run: would set %s=%s in %s", cfg.ConfigKey, address, envPath))
		return nil
	}
	if err := envfile.PatchKey(envPath, cfg.ConfigKey, address); err != nil {
		return err
	}
	LogStep(ctx.Observer, p.Name(), "configuration patched", map[string]string{
		"file": envPath,
		"key":  cfg.ConfigKey,
	})
	return nil
}

// prepareAppDir checks that dir came with the release and makes it
// readable by the service user.
func prepareAppDir(ctx *Context, dir string) error {
	if !ctx.DryRun {
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrMissingComponent, dir)
			}
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrMissingComponent, dir)
		}
	}

	_, err := ctx.Deps.Runner.Run(ctx, shell.Command{Name: "chmod", Args: []string{"-R", "u+rwX,go+rX", dir}})
	if err != nil {
		return fmt.Errorf("failed to fix permissions of %s: %w", dir, err)
	}
	return nil
}
