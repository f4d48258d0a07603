package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"sensex-pulse/internal/models"
	"sensex-pulse/pkg/utils"
)

const bannerWidth = 110

var (
	headingColor    = color.New(color.FgCyan, color.Bold)
	headerCellColor = color.New(color.Bold)
	gainColor       = color.New(color.FgGreen)
	lossColor       = color.New(color.FgRed)
	cautionColor    = color.New(color.FgYellow)
	dimColor        = color.New(color.Faint)

	ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")
)

// RenderConsole writes the full report as terminal text. Coloring
// follows the usual terminal detection, so piped output stays plain.
func RenderConsole(w io.Writer, rep *Report) {
	banner(w, rep)

	if len(rep.Rows) == 0 {
		fmt.Fprintln(w, "No actionable signals today.")
	} else {
		renderTable(w, rep.Rows)
	}

	renderSnapshot(w, rep.Snapshot)
	renderSkipped(w, rep.Skipped)
	renderCommentary(w, rep.Commentary)

	fmt.Fprintln(w)
	dimColor.Fprintf(w, "%d symbols evaluated, %d skipped, %d actionable.\n",
		rep.Evaluated, len(rep.Skipped), len(rep.Rows))
}

func banner(w io.Writer, rep *Report) {
	line := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(w, line)
	headingColor.Fprintf(w, "SENSEX/NSE POST-MARKET ACTIONABLE REPORT - %s\n", rep.AsOf.Format("2006-01-02"))
	fmt.Fprintln(w, line)

	if rep.Benchmark != nil {
		b := rep.Benchmark
		change := ""
		if b.HasChange {
			change = "  " + paintChange(b.ChangePct)
		}
		fmt.Fprintf(w, "%s  %s%s\n", b.Symbol, utils.FormatPrice(b.LastClose), change)
	}
	fmt.Fprintln(w)
}

func renderTable(w io.Writer, rows []Row) {
	header := make([]string, len(signalHeaders))
	for i, h := range signalHeaders {
		header[i] = headerCellColor.Sprint(h)
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Symbol,
			paintDirection(r.Direction),
			fmt.Sprintf("%.2f", r.LastClose),
			r.EntryZone,
			fmt.Sprintf("%.2f", r.TargetPrice),
			fmt.Sprintf("%.2f", r.StopLoss),
			paintRisk(r.RiskLevel),
			fmt.Sprintf("%.1f", r.ProbabilityPct),
			r.Reasons,
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = visibleLen(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if l := visibleLen(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}

	printTableRow(w, header, widths)
	printSeparator(w, widths)
	for _, row := range cells {
		printTableRow(w, row, widths)
	}
}

func printTableRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		padding := widths[i] - visibleLen(cell)
		if padding < 0 {
			padding = 0
		}
		parts[i] = cell + strings.Repeat(" ", padding)
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

func printSeparator(w io.Writer, widths []int) {
	parts := make([]string, len(widths))
	for i, wd := range widths {
		parts[i] = strings.Repeat("-", wd)
	}
	fmt.Fprintln(w, strings.Join(parts, "--"))
}

// visibleLen is the printed width of a cell, ignoring color codes.
func visibleLen(s string) int {
	return len(ansiPattern.ReplaceAllString(s, ""))
}

func paintDirection(d string) string {
	switch d {
	case string(models.DirectionBuy):
		return gainColor.Sprint(d)
	case string(models.DirectionSell):
		return lossColor.Sprint(d)
	}
	return d
}

func paintRisk(level string) string {
	switch level {
	case string(models.RiskLow):
		return gainColor.Sprint(level)
	case string(models.RiskMedium):
		return cautionColor.Sprint(level)
	case string(models.RiskHigh):
		return lossColor.Sprint(level)
	}
	return level
}

func paintChange(pct float64) string {
	formatted := utils.FormatPercent(pct)
	switch {
	case pct > 0:
		return gainColor.Sprint(formatted)
	case pct < 0:
		return lossColor.Sprint(formatted)
	}
	return formatted
}

func renderSnapshot(w io.Writer, snap Snapshot) {
	if snap.Empty() {
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, "Market Snapshot")
	writeMovers(w, "Top Gainers", snap.Gainers)
	writeMovers(w, "Top Losers", snap.Losers)

	if len(snap.VolumeLeaders) > 0 {
		entries := make([]string, 0, len(snap.VolumeLeaders))
		for _, o := range snap.VolumeLeaders {
			entries = append(entries, fmt.Sprintf("%s %s", o.Symbol, utils.FormatVolume(o.Volume)))
		}
		fmt.Fprintf(w, "  %-14s %s\n", "Volume Leaders", strings.Join(entries, ", "))
	}
}

func writeMovers(w io.Writer, label string, movers []models.SymbolOverview) {
	if len(movers) == 0 {
		return
	}
	entries := make([]string, 0, len(movers))
	for _, o := range movers {
		entries = append(entries, fmt.Sprintf("%s %s", o.Symbol, paintChange(o.ChangePct)))
	}
	fmt.Fprintf(w, "  %-14s %s\n", label, strings.Join(entries, ", "))
}

func renderSkipped(w io.Writer, skipped []models.SkippedSymbol) {
	if len(skipped) == 0 {
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintf(w, "Skipped Symbols (%d)\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(w, "  %s: %s\n", s.Symbol, s.Reason)
	}
}

func renderCommentary(w io.Writer, commentary string) {
	if commentary == "" {
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, "Market Wrap")
	for _, line := range strings.Split(strings.TrimSpace(commentary), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
