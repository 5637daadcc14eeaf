package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

var stockColumns = []string{"CODE", "NAME", "OPEN", "HIGH", "LOW", "CLOSE"}
var stockWidths = []int{6, 12, 9, 9, 9, 9}

// PrintHeader prints a titled block
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, "      "+strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row. Widths count runes so CJK names stay aligned enough.
func PrintTableRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("      ")
	for i, val := range values {
		b.WriteString(val)
		if pad := widths[i] - utf8.RuneCountInString(val); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// FormatPrice renders an optional price; "-" marks no trade or no data
func FormatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// PrintReport prints a reconciled report as grouped tables
func PrintReport(w io.Writer, report *contracts.Report) {
	PrintHeader(w, fmt.Sprintf("Industry Momentum · %s", report.Period))
	PrintKeyValue(w, "Source", report.Source, 12)
	PrintKeyValue(w, "Trading date", string(report.TradingDate), 12)
	PrintKeyValue(w, "Generated", report.GeneratedAt.Format("2006-01-02 15:04:05"), 12)

	printSection(w, "▲ Increase", report.Result.Increase)
	printSection(w, "▼ Reduce", report.Result.Reduce)
	fmt.Fprintln(w, doubleLine)
}

func printSection(w io.Writer, title string, entries []contracts.ReconciledGroupEntry) {
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  %s\n", title)

	if len(entries) == 0 {
		fmt.Fprintln(w, "   (none)")
		return
	}

	for i, entry := range entries {
		fmt.Fprintf(w, "   %d. %s\n", i+1, entry.Group)
		if len(entry.Stocks) == 0 {
			fmt.Fprintln(w, "      (no stocks)")
			continue
		}

		PrintTableHeader(w, stockColumns, stockWidths)
		for _, stock := range entry.Stocks {
			PrintTableRow(w, stockRow(stock), stockWidths)
		}
	}
}

func stockRow(stock contracts.PriceRecord) []string {
	name := stock.Name
	if !stock.Matched {
		name += " *"
	}
	return []string{
		stock.Code,
		name,
		FormatPrice(stock.OpeningPrice),
		FormatPrice(stock.HighestPrice),
		FormatPrice(stock.LowestPrice),
		FormatPrice(stock.ClosingPrice),
	}
}

var jobColumns = []string{"JOB", "RUNS", "OK", "FAIL", "RATE", "LAST RUN", "NEXT RUN"}
var jobWidths = []int{16, 4, 4, 4, 6, 16, 16}

// PrintJobStats prints a run summary per scheduled job
func PrintJobStats(w io.Writer, stats []scheduler.JobStats) {
	PrintHeader(w, "Scheduler Summary")
	if len(stats) == 0 {
		fmt.Fprintln(w, "   (no jobs)")
		return
	}

	PrintTableHeader(w, jobColumns, jobWidths)
	for _, stat := range stats {
		PrintTableRow(w, []string{
			stat.JobName,
			strconv.Itoa(stat.TotalRuns),
			strconv.Itoa(stat.SuccessCount),
			strconv.Itoa(stat.FailureCount),
			fmt.Sprintf("%.0f%%", stat.SuccessRate*100),
			formatTime(stat.LastRun),
			formatTime(stat.NextRun),
		}, jobWidths)
	}

	for _, stat := range stats {
		if stat.LastError != "" {
			PrintWarning(w, fmt.Sprintf("%s last error: %s", stat.JobName, stat.LastError))
		}
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
