// Package report turns benchmark results into the text lines, tables and documents printed by the harness.
// Every Format* function is pure, the Printer only adds an io.Writer and a record of what it printed.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

const (
	kib = 1024
	mib = 1024 * 1024
)

// numbers are grouped by thousands: 1,234.500
var numbers = message.NewPrinter(language.English)

// Number formats v with three decimals and a thousands separator
func Number(v float64) string {
	return numbers.Sprintf("%.3f", v)
}

// Integer formats v rounded to a whole number with a thousands separator
func Integer(v float64) string {
	return numbers.Sprintf("%d", int64(math.Round(v)))
}

// Throughput returns rows per second for an average duration in milliseconds, 0 when avgMs is not positive
func Throughput(rows int, avgMs float64) float64 {
	if avgMs <= 0 {
		return 0
	}
	return math.Round(float64(rows) / (avgMs / 1000))
}

// FormatBytes prints n in B, KB or MB with at most two decimals, trailing zeros are dropped: 2048 is "2 KB"
func FormatBytes(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < kib:
		return strconv.FormatInt(n, 10) + " B"
	case abs < mib:
		return trimmed(float64(n)/kib) + " KB"
	}
	return trimmed(float64(n)/mib) + " MB"
}

func trimmed(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Header is a blank line, the title and a dash underline of the same length
func Header(title string) string {
	return "\n" + title + "\n" + strings.Repeat("-", len(title))
}

// FormatResult is the latency line of r
func FormatResult(r cx.Result) string {
	return formatResult(r, nil)
}

// FormatResultRows is the latency line of r with rows/sec, rows are the rows handled by one trial
func FormatResultRows(r cx.Result, rows int) string {
	return formatResult(r, &rows)
}

func formatResult(r cx.Result, rows *int) string {
	if r.Error {
		return fmt.Sprintf("  %s: FAILED", r.Name)
	}
	line := fmt.Sprintf("  %s: %s ms (min: %s, max: %s", r.Name, Number(r.Avg), Number(r.Min), Number(r.Max))
	if rows != nil && r.Avg > 0 {
		line += fmt.Sprintf(", %s rows/sec", Integer(Throughput(*rows, r.Avg)))
	}
	return line + ")"
}

// FormatMemoryResult is the time and peak memory line of r
func FormatMemoryResult(r cx.MemoryResult) string {
	return formatMemoryResult(r, nil)
}

// FormatMemoryResultRows is the memory line of r with rows/sec
func FormatMemoryResultRows(r cx.MemoryResult, rows int) string {
	return formatMemoryResult(r, &rows)
}

func formatMemoryResult(r cx.MemoryResult, rows *int) string {
	if r.Error {
		if r.ErrorMsg == "" {
			return fmt.Sprintf("  %s: FAILED", r.Name)
		}
		return fmt.Sprintf("  %s: FAILED (%s)", r.Name, r.ErrorMsg)
	}
	line := fmt.Sprintf("  %s: %s ms, peak: %s", r.Name, Number(r.TimeMs), FormatBytes(int64(r.PeakMemory)))
	if rows != nil && r.TimeMs > 0 {
		line += fmt.Sprintf(" (%s rows/sec)", Integer(Throughput(*rows, r.TimeMs)))
	}
	return line
}
