package suite

import (
	"context"
	"fmt"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

func (s *Suite) advanced(ctx context.Context) {
	s.printer.Header("6. Advanced Benchmarks")
	s.printer.Println("  Prepared Statements")

	s.printer.Result(s.harness.Run(ctx, "Prepare + Execute (10 times)", fresh(5), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			stmt, err := client.Prepare(ctx, "SELECT number FROM system.numbers WHERE number > {num:UInt64} LIMIT 100")
			if err != nil {
				return err
			}
			for i := 0; i < 10; i++ {
				stmt.Bind("num", uint64(i*100), "UInt64")
				if _, err := stmt.FetchAll(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)))

	s.printer.Result(s.harness.Run(ctx, "Execute DDL", fresh(30), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			return client.Execute(ctx, "SELECT 1")
		},
	)))

	s.printer.Result(s.harness.Run(ctx, "10 sequential queries", fresh(10), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			for i := 0; i < 10; i++ {
				if _, err := client.Query(ctx, fmt.Sprintf("SELECT %d", i)); err != nil {
					return err
				}
			}
			return nil
		},
	)))
}
