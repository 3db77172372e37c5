package cx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompression(t *testing.T) {
	assert.Equal(t, []Compression{CompressionNone, CompressionLZ4, CompressionZSTD}, Compressions())
	assert.Equal(t, "None", CompressionNone.String())
	assert.Equal(t, "LZ4", CompressionLZ4.String())
	assert.Equal(t, "ZSTD", CompressionZSTD.String())

	for input, expected := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, " zstd ": CompressionZSTD} {
		method, err := ParseCompression(input)
		require.NoError(t, err)
		assert.Equal(t, expected, method)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}

func TestServerInfo(t *testing.T) {
	assert.Equal(t, "ClickHouse 24.3.1", ServerInfo{Name: "ClickHouse", Major: 24, Minor: 3, Patch: 1}.String())
}

func TestRuntimeOptions(t *testing.T) {
	var empty *RuntimeOptions
	assert.Equal(t, 15*time.Second, empty.GetWriteTimeout())
	assert.Equal(t, time.Duration(0), empty.GetQueryTimeout())

	ctx, cancel := empty.WithQueryTimeout(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	options := &RuntimeOptions{WriteTimeout: time.Second, QueryTimeout: time.Minute}
	assert.Equal(t, time.Second, options.GetWriteTimeout())
	ctx, cancel = options.WithQueryTimeout(context.Background())
	defer cancel()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}

func TestRowSet(t *testing.T) {
	var empty *RowSet
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Value(0, "a")
	assert.False(t, ok)

	set := &RowSet{Columns: []string{"a", "b"}, Rows: []Row{{1, "x"}, {2, "y"}}}
	assert.Equal(t, 2, set.Len())
	value, ok := set.Value(1, "b")
	assert.True(t, ok)
	assert.Equal(t, "y", value)
	_, ok = set.Value(2, "a")
	assert.False(t, ok)
	_, ok = set.Value(0, "c")
	assert.False(t, ok)
}

func TestView(t *testing.T) {
	view := NewView("benchmark_test", []string{"id", "name"})
	assert.Equal(t, "INSERT INTO benchmark_test (id, name)", view.InsertQuery())
}

func TestCounter(t *testing.T) {
	counter := NewCounter()
	assert.Equal(t, uint64(1), counter.Inc())
	counter.Inc()
	assert.Equal(t, uint64(2), counter.Val())
	counter.Reset()
	assert.Equal(t, uint64(0), counter.Val())
}
