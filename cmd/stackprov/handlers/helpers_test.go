package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/metrics"
	"github.com/imamik/stackprov/internal/netident"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/platform/shell"
	"github.com/imamik/stackprov/internal/provisioning"
	"github.com/imamik/stackprov/internal/release"
)

// fakeFetcher writes a fixed release tree instead of downloading.
type fakeFetcher struct {
	mu     sync.Mutex
	tree   map[string]string
	err    error
	assets []string
}

func (f *fakeFetcher) FetchLatest(_ context.Context, _, destDir string) (*release.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	for name, body := range f.tree {
		path := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, err
		}
	}
	return &release.Artifact{Tag: "v2.0.0", FileName: "stack.zip", Verified: true}, nil
}

func (f *fakeFetcher) DownloadAndExtract(_ context.Context, url, destDir, _ string) (*release.Artifact, error) {
	f.mu.Lock()
	f.assets = append(f.assets, destDir)
	f.mu.Unlock()
	return &release.Artifact{DownloadURL: url, Verified: true}, nil
}

// stubPrompter fails every question, so tests notice unexpected prompts.
type stubPrompter struct{}

func (stubPrompter) Confirm(context.Context, string, bool) (bool, error) {
	return false, errors.New("unexpected prompt")
}

func (stubPrompter) Input(context.Context, string, string) (string, error) {
	return "", errors.New("unexpected prompt")
}

type staticLookup string

func (s staticLookup) PublicIPv4(context.Context) (string, error) { return string(s), nil }

// env replaces every factory variable with a hermetic stand-in.
type env struct {
	cfg     *config.Config
	runner  *shell.MockRunner
	fetcher *fakeFetcher
	out     *bytes.Buffer
	euid    int
	dryRun  *bool
	nodeOut string
	pm2Out  string
	present map[string]bool
	pkgs    map[string]bool
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		cfg:     config.Default(),
		out:     &bytes.Buffer{},
		nodeOut: "v20.11.1\n",
		present: map[string]bool{"curl": true, "unzip": true, "gpg": true, "update-ca-certificates": true},
		fetcher: &fakeFetcher{tree: map[string]string{
			"core/package.json":          `{"name":"core"}`,
			"core/ecosystem.config.js":   "module.exports = {}",
			"server/package.json":        `{"name":"server"}`,
			"server/ecosystem.config.js": "module.exports = {}",
			"server/.env":                "PORT=8080\nALLOWED_DOMAIN=old\n",
		}},
	}
	e.cfg.Repo = "acme/stack"
	e.cfg.InstallDir = t.TempDir()
	e.runner = &shell.MockRunner{RunFunc: func(cmd shell.Command) (*shell.Result, error) {
		switch {
		case cmd.Name == "node":
			if e.nodeOut == "" {
				return nil, &shell.ExitError{Command: cmd.String(), ExitCode: 127}
			}
			return &shell.Result{Stdout: []byte(e.nodeOut)}, nil
		case cmd.Name == "pm2" && len(cmd.Args) > 0 && cmd.Args[0] == "jlist":
			if e.pm2Out == "" {
				return nil, &shell.ExitError{Command: cmd.String(), ExitCode: 127}
			}
			return &shell.Result{Stdout: []byte(e.pm2Out)}, nil
		case cmd.Name == "dpkg-query":
			if e.pkgs[cmd.Args[len(cmd.Args)-1]] {
				return &shell.Result{Stdout: []byte("install ok installed")}, nil
			}
			return nil, &shell.ExitError{Command: cmd.String(), ExitCode: 1}
		}
		return &shell.Result{}, nil
	}}

	origLoad, origProbe, origUID, origLook := loadConfig, probeHost, effectiveUID, lookPath
	origRunner, origPrompter, origLookup, origFetcher := newRunner, newPrompter, newLookup, newReleaseFetcher
	origDoctorRunner, origNow, origStdout, origTTY := newDoctorRunner, now, stdout, isInteractiveTTY
	t.Cleanup(func() {
		loadConfig, probeHost, effectiveUID, lookPath = origLoad, origProbe, origUID, origLook
		newRunner, newPrompter, newLookup, newReleaseFetcher = origRunner, origPrompter, origLookup, origFetcher
		newDoctorRunner, now, stdout, isInteractiveTTY = origDoctorRunner, origNow, origStdout, origTTY
	})

	loadConfig = func(string) (*config.Config, error) {
		cp := *e.cfg
		return &cp, nil
	}
	probeHost = func() (*host.Facts, error) {
		return host.ParseOSString("Ubuntu 24.04.1 LTS", "x86_64")
	}
	effectiveUID = func() int { return e.euid }
	lookPath = func(name string) (string, error) {
		if e.present[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	newRunner = func(dryRun bool, _ io.Writer) shell.Runner {
		e.dryRun = &dryRun
		return e.runner
	}
	newPrompter = func() netident.Prompter { return stubPrompter{} }
	newLookup = func(string, time.Duration) netident.Lookup { return staticLookup("198.51.100.7") }
	newReleaseFetcher = func(*config.Config, *metrics.Recorder) provisioning.ReleaseFetcher { return e.fetcher }
	newDoctorRunner = func() shell.Runner { return e.runner }
	now = func() time.Time { return time.Unix(1700000000, 0) }
	stdout = e.out
	isInteractiveTTY = func() bool { return false }

	return e
}

func (e *env) envFile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.cfg.InstallDir, "server", ".env"))
	require.NoError(t, err)
	return string(data)
}

// commandsNamed returns recorded command lines starting with name.
func (e *env) commandsNamed(name string) []string {
	var out []string
	for _, line := range e.runner.CommandLines() {
		if strings.HasPrefix(line, name+" ") || line == name {
			out = append(out, line)
		}
	}
	return out
}
