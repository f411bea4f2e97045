package handlers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/imamik/stackprov/internal/config"
	"github.com/imamik/stackprov/internal/provisioning"
	"github.com/imamik/stackprov/internal/ui/prompt"
	"github.com/imamik/stackprov/internal/ui/tui"
)

// isInteractiveTTY decides between styled and plain output.
var isInteractiveTTY = func() bool {
	return prompt.IsTerminal(os.Stdout)
}

func render(r tui.Report) string {
	if isInteractiveTTY() {
		return tui.RenderReport(r)
	}
	return tui.RenderPlain(r)
}

// installReport turns a finished run into a printable report.
func installReport(cfg *config.Config, state *provisioning.State, report *provisioning.Report, phases []string) tui.Report {
	completed := make(map[string]bool, len(report.Completed))
	for _, name := range report.Completed {
		completed[name] = true
	}

	phaseRows := make([]tui.Row, 0, len(phases))
	for _, name := range phases {
		row := tui.Row{Name: name, Status: tui.StatusPending}
		switch {
		case completed[name]:
			row.Status = tui.StatusOK
		case name == report.Failed:
			row.Status = tui.StatusFailed
			if report.Err != nil {
				row.Detail = report.Err.Error()
			}
		}
		phaseRows = append(phaseRows, row)
	}

	r := tui.Report{
		Title:    "stackprov install",
		Subtitle: fmt.Sprintf("(run %s)", shortID(report.RunID)),
		Sections: []tui.Section{
			{Title: "Phases", Rows: phaseRows},
			{Title: "Deployment", Rows: deploymentRows(cfg, state)},
		},
	}

	if report.Stage == provisioning.StageDone {
		r.Footer = fmt.Sprintf("%s in %s", report.Stage, tui.FormatDuration(report.Duration))
	} else {
		r.Footer = fmt.Sprintf("%s at %s after %s", report.Stage, report.Reached, tui.FormatDuration(report.Duration))
	}
	return r
}

func deploymentRows(cfg *config.Config, state *provisioning.State) []tui.Row {
	rows := []tui.Row{
		{Name: "Install directory", Status: tui.StatusOK, Detail: cfg.InstallDir},
	}

	if state.Identity.Address != "" {
		rows = append(rows, tui.Row{Name: "Public address", Status: tui.StatusOK, Detail: state.Identity.String()})
	} else {
		rows = append(rows, tui.Row{Name: "Public address", Status: tui.StatusPending})
	}

	switch a := state.Artifact; {
	case a == nil:
		rows = append(rows, tui.Row{Name: "Release", Status: tui.StatusPending, Detail: cfg.Repo})
	case a.Verified:
		rows = append(rows, tui.Row{Name: "Release", Status: tui.StatusOK, Detail: cfg.Repo + " " + a.Tag})
	default:
		rows = append(rows, tui.Row{Name: "Release", Status: tui.StatusWarning, Detail: cfg.Repo + " " + a.Tag + " (unverified)"})
	}

	if len(state.Started) > 0 {
		rows = append(rows, tui.Row{Name: "Supervised apps", Status: tui.StatusOK, Detail: strings.Join(state.Started, ", ")})
	} else {
		rows = append(rows, tui.Row{Name: "Supervised apps", Status: tui.StatusPending})
	}
	return rows
}

func printInstallSummary(out io.Writer, cfg *config.Config, state *provisioning.State, report *provisioning.Report, phases []string) {
	if report == nil {
		return
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, render(installReport(cfg, state, report, phases)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
