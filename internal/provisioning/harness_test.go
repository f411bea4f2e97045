package provisioning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/metrics"
	"github.com/imamik/stackprov/internal/netident"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/platform/npm"
	"github.com/imamik/stackprov/internal/platform/shell"
	"github.com/imamik/stackprov/internal/release"
	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// journal records every host side effect in order, across all fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// withPrefix returns the entries starting with prefix.
func (j *journal) withPrefix(prefix string) []string {
	var out []string
	for _, e := range j.all() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// failures maps a fake operation name to the error it returns.
type failures map[string]error

func (f failures) check(op string) error {
	return f[op]
}

type fakeTools struct {
	j    *journal
	fail failures
}

func (f *fakeTools) Ensure(_ context.Context, tools []prerequisites.Tool) (*prerequisites.CheckResults, error) {
	f.j.add("tools:ensure %d", len(tools))
	res := &prerequisites.CheckResults{Missing: []prerequisites.Tool{{Name: "unzip"}}}
	return res, f.fail.check("tools")
}

type fakeRuntime struct {
	j    *journal
	fail failures
}

func (f *fakeRuntime) Install(_ context.Context, major uint64) (bool, error) {
	f.j.add("runtime:install %d", major)
	if err := f.fail.check("runtime"); err != nil {
		return false, err
	}
	return true, nil
}

type fakeDeps struct {
	j    *journal
	fail failures
}

func (f *fakeDeps) Install(_ context.Context, dir string, opts npm.InstallOptions) error {
	f.j.add("npm:install %s scripts=%t", filepath.Base(dir), !opts.IgnoreScripts)
	return f.fail.check("npm:" + filepath.Base(dir))
}

func (f *fakeDeps) InstallGlobal(_ context.Context, packages ...string) error {
	f.j.add("npm:global %s", strings.Join(packages, " "))
	return f.fail.check("global")
}

type fakeIdentity struct {
	j    *journal
	fail failures
	addr string
}

func (f *fakeIdentity) Resolve(context.Context) (netident.Identity, error) {
	f.j.add("identity:resolve")
	if err := f.fail.check("identity"); err != nil {
		return netident.Identity{}, err
	}
	return netident.Identity{Address: f.addr, Source: netident.SourceAuto}, nil
}

// fakeReleases lays out a release tree in the destination directory.
type fakeReleases struct {
	j       *journal
	fail    failures
	tree    map[string]string
	digests []string
}

func (f *fakeReleases) FetchLatest(_ context.Context, repo, destDir string) (*release.Artifact, error) {
	f.j.add("release:fetch %s", repo)
	if err := f.fail.check("release"); err != nil {
		return nil, err
	}
	for name, body := range f.tree {
		path := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, err
		}
	}
	return &release.Artifact{Tag: "v1.2.3", FileName: "stack.zip", ExtractedEntries: []string{"client", "core", "server"}}, nil
}

func (f *fakeReleases) DownloadAndExtract(_ context.Context, url, destDir, digest string) (*release.Artifact, error) {
	f.j.add("release:asset %s", filepath.Base(url))
	f.digests = append(f.digests, digest)
	if err := f.fail.check("asset"); err != nil {
		return nil, err
	}
	return &release.Artifact{DownloadURL: url, FileName: filepath.Base(url), Verified: digest != ""}, nil
}

type fakeSupervisor struct {
	j    *journal
	fail failures
}

func (f *fakeSupervisor) Start(_ context.Context, descriptor, dir string) error {
	f.j.add("pm2:start %s/%s", filepath.Base(dir), descriptor)
	return f.fail.check("pm2:start")
}

func (f *fakeSupervisor) Startup(_ context.Context, initSystem, user string) error {
	f.j.add("pm2:startup %s %s", initSystem, user)
	return f.fail.check("pm2:startup")
}

func (f *fakeSupervisor) Save(context.Context) error {
	f.j.add("pm2:save")
	return f.fail.check("pm2:save")
}

// harness wires a Context against fakes and a temporary install dir.
type harness struct {
	t        *testing.T
	j        *journal
	fail     failures
	facts    *host.Facts
	euid     int
	releases *fakeReleases
	runner   *shell.MockRunner
	observer *MockObserver
	metrics  *metrics.Recorder
	ctx      *Context
}

func defaultTree() map[string]string {
	return map[string]string{
		"core/package.json":          `{"name":"core"}`,
		"core/ecosystem.config.js":   "module.exports = {apps: [{name: 'core'}]}",
		"server/package.json":        `{"name":"server"}`,
		"server/ecosystem.config.js": "module.exports = {apps: [{name: 'server'}]}",
		"server/.env":                "PORT=8080\nALLOWED_DOMAIN=old\n",
		"client/index.html":          "<html></html>",
	}
}

func ubuntu2404(t *testing.T) *host.Facts {
	t.Helper()
	facts, err := host.ParseOSString("Ubuntu 24.04 LTS", "x86_64")
	require.NoError(t, err)
	return facts
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Repo = "acme/stack"
	cfg.InstallDir = t.TempDir()
	cfg.Core.BinaryAssetSHA256 = strings.Repeat("ab", 32)

	h := &harness{
		t:        t,
		j:        &journal{},
		fail:     failures{},
		facts:    ubuntu2404(t),
		euid:     0,
		observer: NewMockObserver(),
		metrics:  metrics.NewRecorder(),
	}
	h.releases = &fakeReleases{j: h.j, fail: h.fail, tree: defaultTree()}
	h.runner = &shell.MockRunner{RunFunc: func(cmd shell.Command) (*shell.Result, error) {
		h.j.add("shell:%s", cmd.Name+" "+filepath.Base(cmd.Args[len(cmd.Args)-1]))
		if err := h.fail.check("shell:" + cmd.Name); err != nil {
			return nil, err
		}
		return &shell.Result{}, nil
	}}

	h.ctx = &Context{
		Context: context.Background(),
		Config:  cfg,
		State:   NewState(),
		Deps: Collaborators{
			ProbeHost: func() (*host.Facts, error) {
				h.j.add("host:probe")
				if err := h.fail.check("probe"); err != nil {
					return nil, err
				}
				return h.facts, nil
			},
			EffectiveUID: func() int { return h.euid },
			Tools:        &fakeTools{j: h.j, fail: h.fail},
			Runtime:      &fakeRuntime{j: h.j, fail: h.fail},
			Dependencies: &fakeDeps{j: h.j, fail: h.fail},
			Identity:     &fakeIdentity{j: h.j, fail: h.fail, addr: "203.0.113.9"},
			Releases:     h.releases,
			Supervisor:   &fakeSupervisor{j: h.j, fail: h.fail},
			Runner:       h.runner,
		},
		Observer: h.observer,
		Metrics:  h.metrics,
		RunID:    "test-run",
	}
	return h
}

func (h *harness) run() (*Report, error) {
	return RunPhases(h.ctx, DefaultPhases())
}

func (h *harness) envFile() string {
	data, err := os.ReadFile(filepath.Join(h.ctx.Config.InstallDir, "server", ".env"))
	require.NoError(h.t, err)
	return string(data)
}

var errBoom = errors.New("boom")
