package suite

import (
	"context"
	"fmt"

	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/cx"
)

func (s *Suite) insert(ctx context.Context) {
	s.printer.Header("3. Insert Benchmarks")

	// a missing table only fails the inserts below, it does not stop the run
	if err := s.withClient(ctx, func(client cx.Client) error {
		return s.tables.CreateBenchmark(ctx, client)
	}); err != nil {
		s.printer.Printf("  Warning: Could not create test table: %v\n", err)
	} else {
		s.printer.Println("  Test table created")
	}

	view := s.tables.BenchmarkView()
	s.printer.ResultRows(s.harness.Run(ctx, "Insert 1 row", fresh(20), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			_, err := client.Insert(ctx, view, tables.SingleRow(s.baseID(1000000)))
			return err
		},
	)), 1)

	for _, size := range []int{100, 1000, 5000} {
		rows := tables.BenchmarkRows(s.baseID(1000000), size)
		name := fmt.Sprintf("Insert %d rows", size)
		s.printer.ResultRows(s.harness.Run(ctx, name, fresh(5), insert(view, rows)), size)
	}

	s.printer.Header("3.1 Insert with Different Data Types")

	if err := s.withClient(ctx, func(client cx.Client) error {
		return s.tables.CreateComplex(ctx, client)
	}); err != nil {
		s.printer.Printf("  Warning: Could not create complex table: %v\n", err)
	}

	const size = 1000
	rows := tables.ComplexRows(s.baseID(1000000), size)
	name := fmt.Sprintf("Insert complex types (%d rows)", size)
	s.printer.ResultRows(s.harness.Run(ctx, name, fresh(5), insert(s.tables.ComplexView(), rows)), size)
}
