// Package report renders solve results for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/bcolloran/system-solver/solver"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
)

// Render formats the full solve outcome: solved parameters, per-constraint
// scores, and any diagnostics.
func Render(res *solver.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("solved parameters"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(renderParams(res)))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("constraint scores"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(renderBreakdown(res)))
	b.WriteString("\n\n")

	b.WriteString(renderSummary(res))

	if len(res.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("diagnostics"))
		b.WriteString("\n")
		for _, d := range res.Diagnostics {
			b.WriteString(fmt.Sprintf("  %s %s\n", warnStyle.Render("!"), d))
		}
	}

	return b.String()
}

func renderParams(res *solver.Result) string {
	names := make([]string, 0, len(res.NamedParams))
	for name := range res.NamedParams {
		names = append(names, name)
	}
	sort.Strings(names)

	weak := map[string]bool{}
	if res.Identifiability != nil {
		for _, name := range res.Identifiability.WeakParams {
			weak[name] = true
		}
	}

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-14s", name)), valueStyle.Render(fmt.Sprintf("%12.6g", res.NamedParams[name])))
		if weak[name] {
			line += "  " + warnStyle.Render("(poorly identified)")
		}
		b.WriteString(line)
	}
	return b.String()
}

func renderBreakdown(res *solver.Result) string {
	var b strings.Builder
	for i, c := range res.Breakdown.Components {
		if i > 0 {
			b.WriteString("\n")
		}
		mark := okStyle.Render("ok")
		if !c.Met {
			mark = warnStyle.Render("unmet")
		}
		b.WriteString(fmt.Sprintf("%s %s residual=%s  %s",
			labelStyle.Render(fmt.Sprintf("%-28s", c.Name)),
			mark,
			valueStyle.Render(fmt.Sprintf("%10.3e", c.Residual)),
			labelStyle.Render(fmt.Sprintf("loss=%.3e", c.Loss)),
		))
	}
	if len(res.Breakdown.Components) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s",
			labelStyle.Render(fmt.Sprintf("%-28s", "total")),
			valueStyle.Render(fmt.Sprintf("%.6e", res.Breakdown.Total)),
		))
	}
	return b.String()
}

func renderSummary(res *solver.Result) string {
	status := okStyle.Render(string(res.Status))
	if !res.Converged {
		status = warnStyle.Render(string(res.Status))
	}
	return fmt.Sprintf("%s %s  %s %d  %s %v\n",
		labelStyle.Render("status"), status,
		labelStyle.Render("iterations"), res.Iterations,
		labelStyle.Render("runtime"), res.Runtime.Round(time.Millisecond),
	)
}

// PlotHistory draws the loss of each accepted iteration on a log-friendly
// ascii chart.
func PlotHistory(history []float64) string {
	if len(history) < 2 {
		return ""
	}
	return asciigraph.Plot(history,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption("loss per accepted iteration"),
	)
}
