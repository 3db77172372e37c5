package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

// Printer writes result lines to w and remembers the printed results for the summary
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	results []cx.Result
	memory  []cx.MemoryResult
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) Header(title string) {
	p.Println(Header(title))
}

func (p *Printer) Result(r cx.Result) {
	p.Record(r)
	p.Println(FormatResult(r))
}

func (p *Printer) ResultRows(r cx.Result, rows int) {
	p.Record(r)
	p.Println(FormatResultRows(r, rows))
}

func (p *Printer) MemoryResult(r cx.MemoryResult) {
	p.RecordMemory(r)
	p.Println(FormatMemoryResult(r))
}

func (p *Printer) MemoryResultRows(r cx.MemoryResult, rows int) {
	p.RecordMemory(r)
	p.Println(FormatMemoryResultRows(r, rows))
}

func (p *Printer) Println(line string) {
	_, _ = fmt.Fprintln(p.w, line)
}

func (p *Printer) Printf(format string, v ...interface{}) {
	_, _ = fmt.Fprintf(p.w, format, v...)
}

// Results returns a copy of every latency result printed so far
func (p *Printer) Results() []cx.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]cx.Result(nil), p.results...)
}

// MemoryResults returns a copy of every memory result printed so far
func (p *Printer) MemoryResults() []cx.MemoryResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]cx.MemoryResult(nil), p.memory...)
}

// Record keeps r for the summary without printing it
func (p *Printer) Record(r cx.Result) {
	p.mu.Lock()
	p.results = append(p.results, r)
	p.mu.Unlock()
}

// RecordMemory keeps r for the summary without printing it
func (p *Printer) RecordMemory(r cx.MemoryResult) {
	p.mu.Lock()
	p.memory = append(p.memory, r)
	p.mu.Unlock()
}
