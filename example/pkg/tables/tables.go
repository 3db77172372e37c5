// Package tables holds the DDL and row generators of the insert benchmarks
package tables

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

const (
	benchmarkTable = "benchmark_test"
	complexTable   = "benchmark_complex"
)

// Tables names the tables a run creates, a suffix keeps concurrent runs on one server apart
type Tables struct {
	Benchmark string
	Complex   string
}

func Default() Tables {
	return Tables{
		Benchmark: benchmarkTable,
		Complex:   complexTable,
	}
}

func WithSuffix(suffix string) Tables {
	if suffix == "" {
		return Default()
	}
	return Tables{
		Benchmark: benchmarkTable + "_" + suffix,
		Complex:   complexTable + "_" + suffix,
	}
}

// UniqueSuffix is a short random identifier usable in a table name
func UniqueSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func (t Tables) BenchmarkView() cx.View {
	return cx.NewView(t.Benchmark, BenchmarkColumns())
}

func (t Tables) ComplexView() cx.View {
	return cx.NewView(t.Complex, ComplexColumns())
}

// CreateBenchmark recreates the plain insert table
func (t Tables) CreateBenchmark(ctx context.Context, client cx.Client) error {
	return recreate(ctx, client, t.Benchmark, fmt.Sprintf(createBenchmarkTableQuery, t.Benchmark))
}

// CreateComplex recreates the mixed types insert table
func (t Tables) CreateComplex(ctx context.Context, client cx.Client) error {
	return recreate(ctx, client, t.Complex, fmt.Sprintf(createComplexTableQuery, t.Complex))
}

// Drop removes both tables
func (t Tables) Drop(ctx context.Context, client cx.Client) error {
	for _, name := range []string{t.Benchmark, t.Complex} {
		if err := client.Execute(ctx, dropTableQuery(name)); err != nil {
			return errors.Wrapf(err, "drop table %s", name)
		}
	}
	return nil
}

func recreate(ctx context.Context, client cx.Client, name, create string) error {
	if err := client.Execute(ctx, dropTableQuery(name)); err != nil {
		return errors.Wrapf(err, "drop table %s", name)
	}
	if err := client.Execute(ctx, create); err != nil {
		return errors.Wrapf(err, "create table %s", name)
	}
	return nil
}

func dropTableQuery(name string) string {
	return "DROP TABLE IF EXISTS " + name
}
