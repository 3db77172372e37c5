package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSectionsCommand(t *testing.T) {
	out, err := execute(t, "sections")
	require.NoError(t, err)
	assert.Equal(t, "connection\nquery\ntypes\ninsert\niterator\ncompression\nadvanced\nsummary\n", out)
}

func TestRunCommand(t *testing.T) {
	t.Run("it should run against the mock driver", func(t *testing.T) {
		out, err := execute(t, "run", "--driver", "mock", "--sampler", "runtime", "--sections", "query,summary", "--summary")
		require.NoError(t, err)
		assert.Contains(t, out, "=== ClickHouse Client Benchmarks ===")
		assert.Contains(t, out, "2. Query Benchmarks")
		assert.Contains(t, out, "=== Benchmark Complete ===")
		assert.Contains(t, out, "Iterations")
	})

	t.Run("it should print a JSON document", func(t *testing.T) {
		out, err := execute(t, "run", "--driver", "mock", "--sampler", "runtime", "--sections", "advanced", "--json")
		require.NoError(t, err)
		start := strings.Index(out, "{")
		require.GreaterOrEqual(t, start, 0)
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out[start:]), &doc))
		assert.Equal(t, "mock", doc["driver"])
		assert.Len(t, doc["results"], 3)
	})

	t.Run("it should reject an unknown driver", func(t *testing.T) {
		_, err := execute(t, "run", "--driver", "odbc")
		assert.Error(t, err)
	})

	t.Run("it should reject an unknown section", func(t *testing.T) {
		_, err := execute(t, "run", "--driver", "mock", "--sampler", "runtime", "--sections", "nope")
		assert.Error(t, err)
	})
}

func TestExtremeCommand(t *testing.T) {
	out, err := execute(t, "extreme", "--driver", "mock", "--sampler", "runtime",
		"--single-column", "1000,2000", "--multi-column", "1000", "--integrity-rows", "100",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "ClickHouse Extreme Performance Benchmark")
	assert.Contains(t, out, "PASS - ")
	assert.Contains(t, out, "Last row (99): OK")
	assert.Contains(t, out, "Done!")
}
