// Package pm2 drives the PM2 process supervisor that keeps the
// sub-applications running and restarts them on boot.
package pm2

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imamik/stackprov/internal/platform/shell"
)

// DefaultDescriptor is the PM2 ecosystem file each sub-application ships.
const DefaultDescriptor = "ecosystem.config.js"

// SupervisorError reports a failed supervisor operation.
type SupervisorError struct {
	Op     string
	Target string
	Err    error
}

func (e *SupervisorError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("pm2 %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pm2 %s %s failed: %v", e.Op, e.Target, e.Err)
}

func (e *SupervisorError) Unwrap() error {
	return e.Err
}

// Process is one entry of `pm2 jlist`.
type Process struct {
	Name string `json:"name"`
	PID  int    `json:"pid"`
	PMID int    `json:"pm_id"`
	Env  struct {
		Status   string `json:"status"`
		Restarts int    `json:"restart_time"`
		Cwd      string `json:"pm_cwd"`
	} `json:"pm2_env"`
}

// Status returns the supervisor-reported state (online, stopped, errored...).
func (p Process) Status() string {
	return p.Env.Status
}

// Client runs pm2 through a shell.Runner.
type Client struct {
	Runner shell.Runner
}

// NewClient creates a pm2 client.
func NewClient(runner shell.Runner) *Client {
	return &Client{Runner: runner}
}

// Start starts the processes declared in descriptor, relative to dir.
func (c *Client) Start(ctx context.Context, descriptor, dir string) error {
	if _, err := c.Runner.Run(ctx, shell.Command{Name: "pm2", Args: []string{"start", descriptor}, Dir: dir}); err != nil {
		return &SupervisorError{Op: "start", Target: dir, Err: err}
	}
	return nil
}

// Startup registers pm2 with the init system so it resurrects the saved
// process list on boot.
func (c *Client) Startup(ctx context.Context, initSystem, user string) error {
	args := []string{"startup"}
	if initSystem != "" {
		args = append(args, initSystem)
	}
	if user != "" {
		args = append(args, "-u", user)
	}
	if _, err := c.Runner.Run(ctx, shell.Command{Name: "pm2", Args: args}); err != nil {
		return &SupervisorError{Op: "startup", Err: err}
	}
	return nil
}

// Save persists the current process list.
func (c *Client) Save(ctx context.Context) error {
	if _, err := c.Runner.Run(ctx, shell.Command{Name: "pm2", Args: []string{"save"}}); err != nil {
		return &SupervisorError{Op: "save", Err: err}
	}
	return nil
}

// List returns the supervised processes.
func (c *Client) List(ctx context.Context) ([]Process, error) {
	res, err := c.Runner.Run(ctx, shell.Command{Name: "pm2", Args: []string{"jlist"}})
	if err != nil {
		return nil, &SupervisorError{Op: "jlist", Err: err}
	}
	if res == nil || len(res.Stdout) == 0 {
		return nil, nil
	}

	var procs []Process
	if err := json.Unmarshal(res.Stdout, &procs); err != nil {
		return nil, &SupervisorError{Op: "jlist", Err: fmt.Errorf("failed to parse output: %w", err)}
	}
	return procs, nil
}
