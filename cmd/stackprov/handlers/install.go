// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/metrics"
	"github.com/imamik/stackprov/internal/netident"
	"github.com/imamik/stackprov/internal/platform/apt"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/platform/nodejs"
	"github.com/imamik/stackprov/internal/platform/npm"
	"github.com/imamik/stackprov/internal/platform/pm2"
	"github.com/imamik/stackprov/internal/platform/shell"
	"github.com/imamik/stackprov/internal/preflight"
	"github.com/imamik/stackprov/internal/provisioning"
	"github.com/imamik/stackprov/internal/release"
	"github.com/imamik/stackprov/internal/ui/prompt"
	"github.com/imamik/stackprov/internal/util/ipv4"
	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// InstallOptions are the install command's flags. Empty strings leave
// the configured value alone.
type InstallOptions struct {
	ConfigPath string
	PublicIP   string
	Dir        string
	Repo       string
	DryRun     bool
	AssumeYes  bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads the configuration file, defaults and environment.
	loadConfig = config.Load

	// probeHost reads the operating system and architecture.
	probeHost = func() (*host.Facts, error) {
		return host.Probe(host.DefaultOSReleasePath)
	}

	// effectiveUID reports the process's effective user ID.
	effectiveUID = func() int { return preflight.EffectiveUID() }

	// lookPath resolves tool binaries.
	lookPath = exec.LookPath

	// newRunner creates the shell runner for a run.
	newRunner = func(dryRun bool, out io.Writer) shell.Runner {
		if dryRun {
			return &shell.DryRunRunner{Out: out}
		}
		return shell.NewExecRunner(out)
	}

	// newPrompter asks the operator questions on the controlling terminal.
	newPrompter = func() netident.Prompter {
		return prompt.New(os.Stdin, os.Stdout)
	}

	// newLookup detects the public address.
	newLookup = func(url string, timeout time.Duration) netident.Lookup {
		return netident.NewHTTPLookup(url, timeout)
	}

	// newReleaseFetcher creates the release client.
	newReleaseFetcher = func(cfg *config.Config, rec *metrics.Recorder) provisioning.ReleaseFetcher {
		return newFetcher(cfg, rec)
	}

	// now is the clock used for run metrics.
	now = time.Now

	// stdout receives command output and the final summary.
	stdout io.Writer = os.Stdout
)

// Install provisions this host with the application stack.
//
// The configuration is loaded from the file (optional unless named
// explicitly), defaults and STACKPROV_* variables; flags then override it
// and the result is validated before any phase runs. Every phase failure
// aborts the run. The run's outcome is recorded in the metrics textfile
// when one is configured, and a summary is printed in both cases.
func Install(ctx context.Context, opts InstallOptions) error {
	cfg, err := loadInstallConfig(opts)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	pctx := provisioning.NewContext(ctx, cfg, newCollaborators(cfg, opts, rec))
	pctx.Metrics = rec
	pctx.DryRun = opts.DryRun

	phases := provisioning.DefaultPhases()
	report, runErr := provisioning.RunPhases(pctx, phases)

	if !opts.DryRun {
		rec.RecordRun(runErr == nil, now())
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	printInstallSummary(stdout, cfg, pctx.State, report, phaseNames(phases))
	return runErr
}

// loadInstallConfig applies flag overrides on top of the loaded config.
func loadInstallConfig(opts InstallOptions) (*config.Config, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Dir != "" {
		cfg.InstallDir = opts.Dir
	}
	if opts.Repo != "" {
		cfg.Repo = opts.Repo
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.PublicIP != "" && !ipv4.IsValid(opts.PublicIP) {
		return nil, fmt.Errorf("--public-ip %q: %w (%s)", opts.PublicIP, netident.ErrInvalidAddress, ipv4.FormatHint)
	}
	return cfg, nil
}

// newCollaborators wires the real platform clients around one runner.
func newCollaborators(cfg *config.Config, opts InstallOptions, rec *metrics.Recorder) provisioning.Collaborators {
	runner := newRunner(opts.DryRun, stdout)
	packages := apt.NewManager(runner)

	runtime := nodejs.NewInstaller(runner, packages)
	runtime.SetupURL = cfg.Runtime.SetupURL

	return provisioning.Collaborators{
		ProbeHost:    probeHost,
		EffectiveUID: effectiveUID,
		Tools:        &prerequisites.Provisioner{Packages: packages, LookPath: lookPath, SkipVerify: opts.DryRun},
		Runtime:      runtime,
		Dependencies: npm.NewClient(runner),
		Identity: &netident.Resolver{
			Lookup:    newLookup(cfg.Identity.EchoURL, cfg.Timeouts.Lookup),
			Prompter:  newPrompter(),
			Out:       stdout,
			Preset:    opts.PublicIP,
			AssumeYes: opts.AssumeYes,
		},
		Releases:   newReleaseFetcher(cfg, rec),
		Supervisor: pm2.NewClient(runner),
		Runner:     runner,
	}
}

// newFetcher builds the release client. Each metadata request is bounded
// by the HTTP timeout and the client by the download timeout, so large
// archives are not cut short.
func newFetcher(cfg *config.Config, rec *metrics.Recorder) *release.Fetcher {
	f := release.NewFetcher(cfg.Timeouts.Download)
	f.BaseURL = cfg.Release.APIBaseURL
	f.Token = cfg.Release.Token
	f.MaxRetries = cfg.Timeouts.RetryMaxAttempts
	f.RetryDelay = cfg.Timeouts.RetryInitialDelay
	f.HTTPClient = &http.Client{Timeout: cfg.Timeouts.Download}
	f.MetadataTimeout = cfg.Timeouts.HTTP
	f.OnRetry = func(attempt int, err error) {
		rec.RecordRetry("release-metadata")
		log.Printf("Release metadata request failed (attempt %d), retrying: %v", attempt, err)
	}
	return f
}

func phaseNames(phases []provisioning.Phase) []string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.Name()
	}
	return names
}
