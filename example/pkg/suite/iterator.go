package suite

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

func (s *Suite) iterator(ctx context.Context) {
	s.printer.Header("4. Iterator vs Array Comparison")
	s.printer.Println("  Comparing Query() (loads all) vs QueryIterator() (streaming)")

	for _, rows := range []int{500, 1000} {
		s.printer.Printf("\n  === %d rows ===\n", rows)
		s.compareStreaming(ctx, rows)
	}
}

// compareStreaming keeps the collector off between the two runs, so the peak of the
// buffered query is not hidden by a collection in the middle of it
func (s *Suite) compareStreaming(ctx context.Context, rows int) {
	percent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(percent)

	s.printer.MemoryResultRows(s.harness.RunWithMemory(ctx,
		fmt.Sprintf("Query() %d rows", rows), s.queryAll(rows),
	), rows)
	s.printer.MemoryResultRows(s.harness.RunWithMemory(ctx,
		fmt.Sprintf("QueryIterator() %d rows", rows), s.queryIterator(rows),
	), rows)
}

func (s *Suite) queryAll(rows int) cx.ProducerFunc {
	return func(ctx context.Context) (interface{}, error) {
		count := 0
		err := s.withClient(ctx, func(client cx.Client) error {
			set, err := client.Query(ctx, numbersQuery(rows))
			if err != nil {
				return err
			}
			for range set.Rows {
				count++
			}
			return nil
		})
		return count, err
	}
}

func (s *Suite) queryIterator(rows int) cx.ProducerFunc {
	return func(ctx context.Context) (interface{}, error) {
		count := 0
		err := s.withClient(ctx, func(client cx.Client) error {
			it, err := client.QueryIterator(ctx, numbersQuery(rows))
			if err != nil {
				return err
			}
			defer it.Close()
			for it.Next() {
				count++
			}
			return it.Err()
		})
		return count, err
	}
}
