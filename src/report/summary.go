package report

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

const (
	statusOk     = "ok"
	statusFailed = "FAILED"
)

// RenderSummary writes one table of latency results and one of memory results, empty tables are skipped
func RenderSummary(w io.Writer, results []cx.Result, memory []cx.MemoryResult) {
	if len(results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.Style().Format.Header = text.FormatDefault
		t.AppendHeader(table.Row{"Benchmark", "Avg ms", "Min ms", "Max ms", "Iterations", "Status"})
		for _, r := range results {
			if r.Error {
				t.AppendRow(table.Row{r.Name, "-", "-", "-", r.Iterations, statusFailed})
				continue
			}
			t.AppendRow(table.Row{r.Name, Number(r.Avg), Number(r.Min), Number(r.Max), r.Iterations, statusOk})
		}
		t.Render()
	}
	if len(memory) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.Style().Format.Header = text.FormatDefault
		t.AppendHeader(table.Row{"Benchmark", "Time ms", "Peak", "Used", "Status"})
		for _, r := range memory {
			if r.Error {
				t.AppendRow(table.Row{r.Name, "-", "-", "-", statusFailed})
				continue
			}
			t.AppendRow(table.Row{
				r.Name, Number(r.TimeMs), FormatBytes(int64(r.PeakMemory)), FormatBytes(r.MemoryUsed), statusOk,
			})
		}
		t.Render()
	}
}

// Document is the machine readable record of one run
type Document struct {
	RunID      string            `json:"run_id"`
	Driver     string            `json:"driver"`
	Server     string            `json:"server,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Results    []cx.Result       `json:"results"`
	Memory     []cx.MemoryResult `json:"memory"`
	Failures   int               `json:"failures"`
}

// NewDocument collects the results recorded by p
func NewDocument(runID, driver, server string, startedAt time.Time, p *Printer) Document {
	doc := Document{
		RunID:      runID,
		Driver:     driver,
		Server:     server,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Results:    p.Results(),
		Memory:     p.MemoryResults(),
	}
	if doc.Results == nil {
		doc.Results = []cx.Result{}
	}
	if doc.Memory == nil {
		doc.Memory = []cx.MemoryResult{}
	}
	for _, r := range doc.Results {
		if r.Error {
			doc.Failures++
		}
	}
	for _, r := range doc.Memory {
		if r.Error {
			doc.Failures++
		}
	}
	return doc
}

// GenerateJSON writes doc as indented JSON
func GenerateJSON(w io.Writer, doc Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "encode report "+strconv.Quote(doc.RunID))
	}
	return nil
}
