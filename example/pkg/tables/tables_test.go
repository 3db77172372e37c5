package tables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zikwall/clickhouse-bench/src/db/cxmock"
)

func TestTables(t *testing.T) {
	t.Run("it should keep the default names without suffix", func(t *testing.T) {
		assert.Equal(t, Default(), WithSuffix(""))
		assert.Equal(t, "benchmark_test", Default().Benchmark)
	})

	t.Run("it should suffix the names", func(t *testing.T) {
		suffix := UniqueSuffix()
		assert.Len(t, suffix, 12)
		tables := WithSuffix(suffix)
		assert.Equal(t, "benchmark_test_"+suffix, tables.Benchmark)
		assert.Equal(t, "benchmark_complex_"+suffix, tables.Complex)
		assert.NotEqual(t, suffix, UniqueSuffix())
	})

	t.Run("it should create, fill and drop the tables", func(t *testing.T) {
		ctx := context.Background()
		client := cxmock.NewClient()
		tables := WithSuffix("test")
		require.NoError(t, tables.CreateBenchmark(ctx, client))
		require.NoError(t, tables.CreateComplex(ctx, client))

		n, err := client.Insert(ctx, tables.BenchmarkView(), BenchmarkRows(1, 100))
		require.NoError(t, err)
		assert.Equal(t, uint64(100), n)
		n, err = client.Insert(ctx, tables.ComplexView(), ComplexRows(1, 10))
		require.NoError(t, err)
		assert.Equal(t, uint64(10), n)
		assert.Equal(t, uint64(100), client.Rows(tables.Benchmark))

		require.NoError(t, tables.Drop(ctx, client))
		_, err = client.Insert(ctx, tables.BenchmarkView(), SingleRow(1))
		assert.Error(t, err)
	})
}

func TestRows(t *testing.T) {
	rows := BenchmarkRows(10, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(12), rows[2][0])
	assert.Equal(t, "test_name_2", rows[2][1])

	padded := PaddedRows(0, 1)
	assert.Len(t, padded[0][1], 102)

	complexRows := ComplexRows(0, 2)
	require.Len(t, complexRows[0], len(ComplexColumns()))
	assert.NotNil(t, complexRows[0][7])
	assert.Nil(t, complexRows[1][7])
}
