package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/envfile"
	"github.com/imamik/stackprov/internal/platform/apt"
	"github.com/imamik/stackprov/internal/platform/host"
	"github.com/imamik/stackprov/internal/platform/nodejs"
	"github.com/imamik/stackprov/internal/platform/pm2"
	"github.com/imamik/stackprov/internal/platform/shell"
	"github.com/imamik/stackprov/internal/preflight"
	"github.com/imamik/stackprov/internal/ui/tui"
	"github.com/imamik/stackprov/internal/util/prerequisites"
)

// DoctorStatus is the read-only diagnosis of a host.
type DoctorStatus struct {
	Host       HostStatus       `json:"host"`
	Privilege  PrivilegeStatus  `json:"privilege"`
	Tools      []ToolStatus     `json:"tools"`
	Runtime    RuntimeStatus    `json:"runtime"`
	Config     ConfigStatus     `json:"config"`
	Supervisor SupervisorStatus `json:"supervisor"`
}

// HostStatus reports the probed host and the environment gate verdict.
type HostStatus struct {
	OS           string `json:"os,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	Supported    bool   `json:"supported"`
	Requirement  string `json:"requirement"`
	Message      string `json:"message,omitempty"`
}

// PrivilegeStatus reports the effective user.
type PrivilegeStatus struct {
	EUID int  `json:"euid"`
	Root bool `json:"root"`
}

// ToolStatus reports one base tool. The package state is only queried
// for tools missing from PATH.
type ToolStatus struct {
	Name             string `json:"name"`
	Found            bool   `json:"found"`
	Path             string `json:"path,omitempty"`
	Package          string `json:"package"`
	PackageInstalled bool   `json:"package_installed,omitempty"`
}

// RuntimeStatus reports the installed Node.js version against the pin.
type RuntimeStatus struct {
	Installed string `json:"installed,omitempty"`
	Pinned    uint64 `json:"pinned"`
	Matches   bool   `json:"matches"`
}

// ConfigStatus reports the value the installer patches into the server
// configuration.
type ConfigStatus struct {
	Path    string `json:"path"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Present bool   `json:"present"`
	Message string `json:"message,omitempty"`
}

// SupervisorStatus reports the processes pm2 knows about.
type SupervisorStatus struct {
	Available bool            `json:"available"`
	Processes []ProcessStatus `json:"processes,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// ProcessStatus is one supervised process.
type ProcessStatus struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	PID      int    `json:"pid"`
	Restarts int    `json:"restarts"`
}

// newDoctorRunner runs the read-only probes quietly.
var newDoctorRunner = func() shell.Runner {
	return shell.NewExecRunner(nil)
}

// Doctor diagnoses the host without changing it.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	status := diagnose(ctx, cfg, newDoctorRunner())

	if jsonOutput {
		return printDoctorJSON(status)
	}
	_, _ = fmt.Fprint(stdout, render(doctorReport(cfg, status)))
	return nil
}

func diagnose(ctx context.Context, cfg *config.Config, runner shell.Runner) *DoctorStatus {
	status := &DoctorStatus{}

	req := preflight.Requirement{
		Distro:       cfg.Requirement.Distro,
		MajorVersion: cfg.Requirement.MajorVersion,
		Architecture: host.ArchX86_64,
	}
	status.Host.Requirement = req.String()
	if facts, err := probeHost(); err != nil {
		status.Host.Message = err.Error()
	} else {
		status.Host.OS = facts.PrettyName
		if facts.OSVersion != nil {
			status.Host.Version = facts.OSVersion.String()
		}
		status.Host.Architecture = facts.RawArchitecture
		if err := preflight.VerifyEnvironment(facts, req); err != nil {
			status.Host.Message = err.Error()
		} else {
			status.Host.Supported = true
		}
	}

	euid := effectiveUID()
	status.Privilege = PrivilegeStatus{EUID: euid, Root: preflight.CheckPrivilege(euid) == nil}

	status.Tools = toolStatus(ctx, apt.NewManager(runner))

	status.Runtime.Pinned = cfg.Runtime.NodeMajor
	if v := nodejs.NewInstaller(runner, nil).InstalledVersion(ctx); v != nil {
		status.Runtime.Installed = v.String()
		status.Runtime.Matches = v.Major() == cfg.Runtime.NodeMajor
	}

	status.Config = configStatus(cfg)
	status.Supervisor = supervisorStatus(ctx, runner)
	return status
}

func toolStatus(ctx context.Context, packages prerequisites.PackageManager) []ToolStatus {
	var out []ToolStatus
	for _, r := range prerequisites.CheckWith(prerequisites.DefaultTools(), lookPath).Results {
		ts := ToolStatus{Name: r.Tool.Name, Found: r.Found, Path: r.Path, Package: r.Tool.PackageName()}
		if !r.Found {
			// A failed query reads as not installed.
			ts.PackageInstalled, _ = packages.IsInstalled(ctx, ts.Package)
		}
		out = append(out, ts)
	}
	return out
}

func configStatus(cfg *config.Config) ConfigStatus {
	path := filepath.Join(cfg.InstallDir, cfg.Server.Dir, cfg.Server.EnvFile)
	cs := ConfigStatus{Path: path, Key: cfg.Server.ConfigKey}

	value, ok, err := envfile.Lookup(path, cfg.Server.ConfigKey)
	switch {
	case errors.Is(err, envfile.ErrMissingConfigFile):
		cs.Message = "not installed"
	case err != nil:
		cs.Message = err.Error()
	case !ok:
		cs.Message = "key not set"
	default:
		cs.Value = value
		cs.Present = true
	}
	return cs
}

func supervisorStatus(ctx context.Context, runner shell.Runner) SupervisorStatus {
	procs, err := pm2.NewClient(runner).List(ctx)
	if err != nil {
		return SupervisorStatus{Message: err.Error()}
	}

	ss := SupervisorStatus{Available: true}
	for _, p := range procs {
		ss.Processes = append(ss.Processes, ProcessStatus{
			Name:     p.Name,
			Status:   p.Status(),
			PID:      p.PID,
			Restarts: p.Env.Restarts,
		})
	}
	return ss
}

func printDoctorJSON(status *DoctorStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, string(data))
	return nil
}

func doctorReport(cfg *config.Config, s *DoctorStatus) tui.Report {
	hostDetail := s.Host.Message
	if s.Host.Supported {
		hostDetail = fmt.Sprintf("%s (%s)", s.Host.OS, s.Host.Architecture)
	}

	privDetail := fmt.Sprintf("euid %d", s.Privilege.EUID)
	if !s.Privilege.Root {
		privDetail += ", install requires root"
	}

	toolRows := make([]tui.Row, 0, len(s.Tools)+1)
	for _, t := range s.Tools {
		detail := t.Path
		switch {
		case t.Found:
		case t.PackageInstalled:
			detail = fmt.Sprintf("package %s installed, binary not on PATH", t.Package)
		default:
			detail = fmt.Sprintf("package %s not installed", t.Package)
		}
		toolRows = append(toolRows, tui.Row{Name: t.Name, Status: okOr(t.Found, tui.StatusWarning), Detail: detail})
	}
	runtimeRow := tui.Row{Name: "node", Status: tui.StatusWarning, Detail: fmt.Sprintf("not installed, pinned %d.x", s.Runtime.Pinned)}
	if s.Runtime.Installed != "" {
		runtimeRow.Status = okOr(s.Runtime.Matches, tui.StatusWarning)
		runtimeRow.Detail = fmt.Sprintf("%s, pinned %d.x", s.Runtime.Installed, s.Runtime.Pinned)
	}
	toolRows = append(toolRows, runtimeRow)

	configDetail := s.Config.Message
	if s.Config.Present {
		configDetail = s.Config.Value
	}

	var procRows []tui.Row
	switch {
	case !s.Supervisor.Available:
		procRows = []tui.Row{{Name: "pm2", Status: tui.StatusWarning, Detail: s.Supervisor.Message}}
	case len(s.Supervisor.Processes) == 0:
		procRows = []tui.Row{{Name: "pm2", Status: tui.StatusWarning, Detail: "no processes"}}
	default:
		for _, p := range s.Supervisor.Processes {
			procRows = append(procRows, tui.Row{
				Name:   p.Name,
				Status: okOr(p.Status == "online", tui.StatusFailed),
				Detail: fmt.Sprintf("%s, pid %d, %d restarts", p.Status, p.PID, p.Restarts),
			})
		}
	}

	r := tui.Report{
		Title:    "stackprov doctor",
		Subtitle: fmt.Sprintf("(%s)", cfg.InstallDir),
		Sections: []tui.Section{
			{Title: "Host", Rows: []tui.Row{
				{Name: "Operating system", Status: okOr(s.Host.Supported, tui.StatusFailed), Detail: hostDetail},
				{Name: "Privilege", Status: okOr(s.Privilege.Root, tui.StatusWarning), Detail: privDetail},
			}},
			{Title: "Tools", Rows: toolRows},
			{Title: "Configuration", Rows: []tui.Row{
				{Name: s.Config.Key, Status: okOr(s.Config.Present, tui.StatusWarning), Detail: configDetail},
			}},
			{Title: "Supervisor", Rows: procRows},
		},
	}

	switch r.Overall() {
	case tui.StatusOK:
		r.Footer = "Everything looks healthy."
	case tui.StatusFailed:
		r.Footer = "Some checks failed."
	default:
		r.Footer = "Run 'stackprov install' to provision this host."
	}
	return r
}

func okOr(ok bool, otherwise tui.Status) tui.Status {
	if ok {
		return tui.StatusOK
	}
	return otherwise
}
