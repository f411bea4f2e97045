package tui

import (
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of a single check row.
type Status int

const (
	StatusPending Status = iota
	StatusOK
	StatusWarning
	StatusFailed
)

// Mark returns the bracketed plain-text marker for a status.
func (s Status) Mark() string {
	switch s {
	case StatusOK:
		return checkMark
	case StatusWarning:
		return warnMark
	case StatusFailed:
		return crossMark
	default:
		return pending
	}
}

// Row is one line of a report section.
type Row struct {
	Name   string
	Status Status
	Detail string
}

// Section groups rows under a heading.
type Section struct {
	Title string
	Rows  []Row
}

// Report is a titled list of sections with an optional footer line.
type Report struct {
	Title    string
	Subtitle string
	Sections []Section
	Footer   string
}

// styleFunc is a single-string styling function.
type styleFunc func(...string) string

func statusStyle(s Status) styleFunc {
	switch s {
	case StatusOK:
		return readyStyle.Render
	case StatusWarning:
		return warningStyle.Render
	case StatusFailed:
		return failedStyle.Render
	default:
		return dimStyle.Render
	}
}

// RenderReport renders r with lipgloss styles.
func RenderReport(r Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.Title))
	if r.Subtitle != "" {
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(r.Subtitle))
	}
	b.WriteString("\n")

	for _, s := range r.Sections {
		b.WriteString(sectionStyle.Render("  " + s.Title))
		b.WriteString("\n")
		for _, row := range s.Rows {
			style := statusStyle(row.Status)
			fmt.Fprintf(&b, "    %s %-22s %s\n",
				style(row.Status.Mark()), row.Name, dimStyle.Render(row.Detail))
		}
	}

	if r.Footer != "" {
		b.WriteString(footerStyle.Render("  " + r.Footer))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPlain renders r without any escape sequences, for pipes and logs.
func RenderPlain(r Report) string {
	var b strings.Builder

	title := r.Title
	if r.Subtitle != "" {
		title += " " + r.Subtitle
	}
	fmt.Fprintf(&b, "  %s\n", title)
	b.WriteString("  " + strings.Repeat("=", len(title)) + "\n")

	for _, s := range r.Sections {
		fmt.Fprintf(&b, "\n  %s\n", s.Title)
		for _, row := range s.Rows {
			if row.Detail != "" {
				fmt.Fprintf(&b, "  %s  %-22s %s\n", row.Status.Mark(), row.Name, row.Detail)
			} else {
				fmt.Fprintf(&b, "  %s  %s\n", row.Status.Mark(), row.Name)
			}
		}
	}

	if r.Footer != "" {
		fmt.Fprintf(&b, "\n  %s\n", r.Footer)
	}
	return b.String()
}

// Overall is the worst status across all rows.
func (r Report) Overall() Status {
	worst := StatusOK
	for _, s := range r.Sections {
		for _, row := range s.Rows {
			if row.Status > worst {
				worst = row.Status
			}
		}
	}
	return worst
}

// FormatDuration renders d compactly: 42s, 3m5s or 1h2m.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
