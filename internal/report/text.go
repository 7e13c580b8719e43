// Package report renders analysis reports for terminals and log files.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TextRenderer writes reports as plain text. Counts are printed with the
// digit grouping of the configured language.
type TextRenderer struct {
	printer *message.Printer
	// ShowInactive lists modules whose preconditions did not hold.
	ShowInactive bool
}

// NewTextRenderer creates a renderer for the given language.
func NewTextRenderer(tag language.Tag) *TextRenderer {
	return &TextRenderer{printer: message.NewPrinter(tag)}
}

// Render writes one report.
func (r *TextRenderer) Render(w io.Writer, rep *session.Report) error {
	var b strings.Builder

	r.printer.Fprintf(&b, "Session %s\n", rep.SessionID)
	if rep.PlayerName != "" {
		r.printer.Fprintf(&b, "Player: %s (%s)\n", rep.PlayerName, rep.Spec)
	} else {
		r.printer.Fprintf(&b, "Player: #%d (%s)\n", rep.PlayerID, rep.Spec)
	}
	r.printer.Fprintf(&b, "Duration: %s, %d events\n", formatDuration(rep.DurationMs), rep.EventCount)

	for _, m := range rep.Modules {
		if !m.Active {
			if r.ShowInactive {
				fmt.Fprintf(&b, "\n[%s] inactive\n", m.ID)
			}
			continue
		}
		fmt.Fprintf(&b, "\n[%s]\n", m.ID)
		for _, s := range m.Statistics {
			fmt.Fprintf(&b, "  %-24s %s\n", s.Name, r.FormatStatistic(s))
		}
		for _, s := range m.Suggestions {
			fmt.Fprintf(&b, "  ! %-7s %s\n", s.Severity, s.Text)
			fmt.Fprintf(&b, "            %s (%s)\n", s.Actual, s.Recommended)
		}
	}

	if d := rep.Diagnostics; d.MalformedEvents > 0 || len(d.Warnings) > 0 {
		b.WriteString("\nDiagnostics\n")
		if d.MalformedEvents > 0 {
			r.printer.Fprintf(&b, "  %d malformed events dropped\n", d.MalformedEvents)
		}
		for _, warning := range d.Warnings {
			fmt.Fprintf(&b, "  warning: %s\n", warning)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatStatistic returns the display form of a statistic. Whole numbers are
// grouped per language; everything else keeps its pre-formatted value.
func (r *TextRenderer) FormatStatistic(s session.StatisticReport) string {
	if s.Style == "number" && s.Value == math.Trunc(s.Value) && math.Abs(s.Value) < 1e15 {
		return r.printer.Sprintf("%d", int64(s.Value))
	}
	if s.Formatted != "" {
		return s.Formatted
	}
	return r.printer.Sprintf("%v", s.Value)
}

func formatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
