package bench

import (
	"context"
	"fmt"
	"testing"

	clickhousebench "github.com/zikwall/clickhouse-bench"
	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/db/cxmock"
	"github.com/zikwall/clickhouse-bench/src/memory"
	"github.com/zikwall/clickhouse-bench/src/report"
)

func newHarness(b *testing.B) (clickhousebench.Harness, *cxmock.Connector) {
	b.Helper()
	connector := cxmock.NewConnector()
	h, err := clickhousebench.NewHarness(context.Background(), connector,
		clickhousebench.DefaultOptions().SetSampler(memory.NewRuntimeSampler()),
	)
	if err != nil {
		b.Fatal(err)
	}
	return h, connector
}

// Overhead of the harness itself around an operation that does nothing
func BenchmarkRunShared(b *testing.B) {
	ctx := context.Background()
	h, _ := newHarness(b)
	defer h.Close()
	op := cx.OperationFunc(func(_ context.Context, _ cx.Client) error {
		return nil
	})
	policy := clickhousebench.NewPolicy(10)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Run(ctx, "noop", policy, op)
	}
}

func BenchmarkRunFresh(b *testing.B) {
	ctx := context.Background()
	h, _ := newHarness(b)
	defer h.Close()
	op := cx.OperationFunc(func(ctx context.Context, client cx.Client) error {
		return client.Ping(ctx)
	})
	policy := clickhousebench.NewPolicy(10).SetFreshConnectionPerTrial(true)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Run(ctx, "ping", policy, op)
	}
}

func BenchmarkInsertMock(b *testing.B) {
	ctx := context.Background()
	h, _ := newHarness(b)
	defer h.Close()
	t := tables.Default()
	if err := t.CreateBenchmark(ctx, h.Client()); err != nil {
		b.Fatal(err)
	}
	for _, size := range []int{1, 100, 1000, 10000} {
		rows := tables.BenchmarkRows(1, size)
		b.Run(fmt.Sprintf("%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := h.Client().Insert(ctx, t.BenchmarkView(), rows); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFormatResult(b *testing.B) {
	result := cx.Result{Name: "SELECT 1000 rows", Avg: 12.345, Min: 10.1, Max: 15.9, Iterations: 10}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = report.FormatResultRows(result, 1000)
	}
}

func BenchmarkRunWithMemory(b *testing.B) {
	ctx := context.Background()
	h, _ := newHarness(b)
	defer h.Close()
	producer := cx.ProducerFunc(func(ctx context.Context) (interface{}, error) {
		return h.Client().Query(ctx, "SELECT number FROM system.numbers LIMIT 1000")
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.RunWithMemory(ctx, "query", producer)
	}
}
