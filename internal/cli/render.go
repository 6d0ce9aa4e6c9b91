package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func modeName(t model.ModeType) string {
	if def, err := catalog.Lookup(t); err == nil {
		return def.Name
	}
	return string(t)
}

func renderActive(modes []model.ActiveMode, now time.Time) string {
	if len(modes) == 0 {
		return labelStyle.Render("no active modes")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Active modes (%d)", len(modes))) + "\n")
	for _, m := range modes {
		until := "until deactivated"
		if m.EndTime != nil {
			until = "ends " + humanize.Time(*m.EndTime)
			if rem := m.Remaining(now); rem <= 0 {
				until = warnStyle.Render("expired, awaiting sweep")
			}
		}
		fmt.Fprintf(&b, "%s %s  %s  %s\n",
			activeStyle.Render("●"),
			modeName(m.Type),
			labelStyle.Render(m.ID),
			until)
		fmt.Fprintf(&b, "  %s started %s, %s\n", labelStyle.Render("·"), humanize.Time(m.StartTime), switches(m.Settings))
	}
	return strings.TrimRight(b.String(), "\n")
}

func switches(s model.ModeSettings) string {
	var on []string
	if s.AutoSilence {
		on = append(on, "silence")
	}
	if s.AutoReply {
		on = append(on, "auto-reply")
	}
	if s.ReplyToContactsOnly {
		on = append(on, "contacts only")
	}
	if s.VibrateOnly {
		on = append(on, "vibrate")
	}
	if len(on) == 0 {
		return "no switches"
	}
	return strings.Join(on, ", ")
}

func renderHistory(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return labelStyle.Render("no history")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("History (%d)", len(entries))) + "\n")
	for _, h := range entries {
		fmt.Fprintf(&b, "%-16s %4d min  %s  %s\n",
			modeName(h.Type),
			h.DurationMinutes,
			h.StartTime.Local().Format("2006-01-02 15:04"),
			labelStyle.Render(humanize.Time(h.EndTime)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(s engine.Stats) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Usage") + "\n")
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%s %v\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), value)
	}
	row("sessions", humanize.Comma(int64(s.TotalSessions)))
	row("total minutes", humanize.Comma(int64(s.TotalDurationMinutes)))
	row("average minutes", s.AverageSessionMinutes)
	row("hours saved", s.HoursSaved)
	row("active now", s.CurrentActive)
	most := "none"
	if s.MostUsedType != nil {
		most = modeName(*s.MostUsedType)
	}
	row("most used", most)
	if len(s.ByType) > 0 {
		b.WriteString(headerStyle.Render("By mode") + "\n")
		for _, ts := range s.ByType {
			fmt.Fprintf(&b, "%-16s %3d sessions %6d min\n", modeName(ts.Type), ts.Sessions, ts.TotalMinutes)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCalls(logs []model.CallLog) string {
	if len(logs) == 0 {
		return labelStyle.Render("no calls")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Calls (%d)", len(logs))) + "\n")
	for _, c := range logs {
		status := activeStyle.Render(string(c.Status))
		switch c.Status {
		case model.CallFailed:
			status = errorStyle.Render(string(c.Status))
		case model.CallPending:
			status = warnStyle.Render(string(c.Status))
		}
		fmt.Fprintf(&b, "%-14s %-8s %-16s %s\n", c.PhoneNumber, status, modeName(c.ModeType), labelStyle.Render(humanize.Time(c.Timestamp)))
	}
	return strings.TrimRight(b.String(), "\n")
}
