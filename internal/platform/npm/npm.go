// Package npm wraps the npm commands used to install sub-application
// dependencies and global tooling.
package npm

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/stackprov/internal/platform/shell"
)

// Client runs npm through a shell.Runner.
type Client struct {
	Runner shell.Runner
}

// NewClient creates an npm client.
func NewClient(runner shell.Runner) *Client {
	return &Client{Runner: runner}
}

// InstallOptions tunes a project install.
type InstallOptions struct {
	// IgnoreScripts disables install-time lifecycle scripts, so native
	// modules are not compiled on the host.
	IgnoreScripts bool
	// Production skips devDependencies.
	Production bool
}

// Install runs `npm install` in dir.
func (c *Client) Install(ctx context.Context, dir string, opts InstallOptions) error {
	args := []string{"install", "--no-audit", "--no-fund"}
	if opts.IgnoreScripts {
		args = append(args, "--ignore-scripts")
	}
	if opts.Production {
		args = append(args, "--omit=dev")
	}

	if _, err := c.Runner.Run(ctx, shell.Command{Name: "npm", Args: args, Dir: dir}); err != nil {
		return fmt.Errorf("npm install in %s: %w", dir, err)
	}
	return nil
}

// InstallGlobal installs packages globally.
func (c *Client) InstallGlobal(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install", "-g"}, packages...)
	if _, err := c.Runner.Run(ctx, shell.Command{Name: "npm", Args: args}); err != nil {
		return fmt.Errorf("npm install -g %s: %w", strings.Join(packages, " "), err)
	}
	return nil
}
