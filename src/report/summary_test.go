package report

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf,
		[]cx.Result{
			{Name: "Ping", Avg: 0.5, Min: 0.25, Max: 1, Iterations: 50},
			{Name: "Reconnect", Error: true},
		},
		[]cx.MemoryResult{{Name: "Query() 500 rows", TimeMs: 3, PeakMemory: 4096, MemoryUsed: 1024}},
	)
	out := buf.String()
	assert.Contains(t, out, "Benchmark")
	assert.Contains(t, out, "Ping")
	assert.Contains(t, out, "0.500")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "4 KB")

	buf.Reset()
	RenderSummary(&buf, nil, nil)
	assert.Empty(t, buf.String())
}

func TestGenerateJSON(t *testing.T) {
	p := NewPrinter(io.Discard)
	p.Result(cx.Result{Name: "Ping", Avg: 1, Min: 1, Max: 1, Iterations: 1})
	p.Result(cx.Result{Name: "Broken", Error: true, ErrorMsg: "EOF"})

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := NewDocument("run-1", "mock", "ClickHouse 24.3.1", started, p)

	var buf bytes.Buffer
	require.NoError(t, GenerateJSON(&buf, doc))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, float64(1), decoded["failures"])
	assert.Len(t, decoded["results"], 2)
	assert.Len(t, decoded["memory"], 0)
}
