package suite

import (
	"context"
	"fmt"

	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/cx"
)

func (s *Suite) compression(ctx context.Context) {
	s.printer.Header("5. Compression Comparison")

	const queryRows = 1000
	s.printer.Printf("  Query benchmark (%d rows)\n", queryRows)
	for _, method := range cx.Compressions() {
		method := method
		result := s.harness.Run(ctx, "Query with "+method.String(), fresh(5), cx.OperationFunc(
			func(ctx context.Context, client cx.Client) error {
				if err := client.SetCompression(ctx, method); err != nil {
					return err
				}
				_, err := client.Query(ctx, numbersQuery(queryRows))
				return err
			},
		))
		s.printCompressionResult(method, result, queryRows)
	}

	const insertRows = 5000
	s.printer.Printf("\n  Insert benchmark (%d rows)\n", insertRows)
	rows := tables.PaddedRows(s.baseID(10000000), insertRows)
	view := s.tables.BenchmarkView()
	for _, method := range cx.Compressions() {
		method := method
		result := s.harness.Run(ctx, "Insert with "+method.String(), fresh(3), cx.OperationFunc(
			func(ctx context.Context, client cx.Client) error {
				if err := client.SetCompression(ctx, method); err != nil {
					return err
				}
				_, err := client.Insert(ctx, view, rows)
				return err
			},
		))
		s.printCompressionResult(method, result, insertRows)
	}
}

func (s *Suite) printCompressionResult(method cx.Compression, result cx.Result, rows int) {
	if result.Error {
		s.printer.Record(result)
		s.printer.Println(fmt.Sprintf("  %s compression not available or failed", method))
		return
	}
	s.printer.ResultRows(result, rows)
}
