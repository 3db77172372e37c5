package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/memory"
)

const mib = 1024 * 1024

// ExtremeOptions sizes the large result benchmarks
type ExtremeOptions struct {
	SingleColumn  []int
	MultiColumn   []int
	IntegrityRows int
}

func DefaultExtremeOptions() ExtremeOptions {
	return ExtremeOptions{
		SingleColumn:  []int{100000, 250000, 500000, 1000000, 2000000, 5000000},
		MultiColumn:   []int{100000, 250000, 500000},
		IntegrityRows: 1000000,
	}
}

// RunExtreme reads very large results over the shared connection and checks the row counts
func (s *Suite) RunExtreme(ctx context.Context, options ExtremeOptions) error {
	if s.harness.Client() == nil {
		return cx.ErrClosed
	}

	s.printer.Println("Single Column Tests (number only)")
	s.printer.Println("---------------------------------")
	for _, rows := range options.SingleColumn {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.extreme(ctx, "Single column", rows, numbersQuery(rows))
	}

	s.printer.Println("\nMulti-Column Tests (number, string, doubled)")
	s.printer.Println("--------------------------------------------")
	for _, rows := range options.MultiColumn {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := fmt.Sprintf("SELECT number, toString(number) as str, number * 2 as doubled FROM system.numbers LIMIT %d", rows)
		s.extreme(ctx, "Multi column", rows, q)
	}

	if options.IntegrityRows > 0 {
		title := fmt.Sprintf("Data Integrity Check (%s)", describeRows(options.IntegrityRows))
		s.printer.Println("\n" + title)
		s.printer.Println(strings.Repeat("-", len(title)))
		s.integrity(ctx, options.IntegrityRows)
	}

	if sampler := s.harness.Options().Sampler(); sampler != nil {
		if snapshot, err := sampler.Sample(); err == nil {
			s.printer.Printf("\nPeak memory usage: %.1f MB\n", float64(snapshot.Peak)/mib)
		}
	}
	return nil
}

func (s *Suite) extreme(ctx context.Context, kind string, rows int, q string) {
	description := describeRows(rows)
	s.printer.Printf("%-15s: ", description)

	count := 0
	result := s.harness.RunWithMemory(ctx, kind+" "+description, cx.ProducerFunc(
		func(ctx context.Context) (interface{}, error) {
			client := s.harness.Client()
			if client == nil {
				return nil, cx.ErrClosed
			}
			set, err := client.Query(ctx, q)
			if err != nil {
				return nil, err
			}
			count = set.Len()
			return set, nil
		},
	))
	s.printer.RecordMemory(result)

	switch {
	case result.Error:
		s.printer.Printf("FAIL - %s\n", result.ErrorMsg)
	case count != rows:
		s.printer.Printf("FAIL - got %d rows (expected %d)\n", count, rows)
	default:
		seconds := result.TimeMs / 1000
		var perSecond float64
		if seconds > 0 {
			perSecond = float64(count) / seconds
		}
		s.printer.Printf("PASS - %.2fs (%.0f rows/s, %.1f MB)\n", seconds, perSecond, float64(result.MemoryUsed)/mib)
	}
}

func (s *Suite) integrity(ctx context.Context, rows int) {
	defer memory.Compact()
	set, err := s.integrityRows(ctx, rows)
	if err != nil {
		s.printer.Printf("FAIL - %v\n", err)
		return
	}
	if set.Len() != rows {
		s.printer.Printf("FAIL - only got %d rows\n", set.Len())
		return
	}
	checks := []struct {
		label string
		index int
	}{
		{"First row", 0},
		{"Middle row", rows / 2},
		{"Last row", rows - 1},
	}
	for _, check := range checks {
		status := "FAIL"
		if value, ok := set.Value(check.index, "number"); ok && value == uint64(check.index) {
			status = "OK"
		}
		s.printer.Printf("%s (%d): %s\n", check.label, check.index, status)
	}
}

func (s *Suite) integrityRows(ctx context.Context, rows int) (*cx.RowSet, error) {
	client := s.harness.Client()
	if client == nil {
		return nil, cx.ErrClosed
	}
	set, err := client.Query(ctx, numbersQuery(rows))
	if err != nil {
		return nil, errors.Wrap(err, "integrity query")
	}
	return set, nil
}

// describeRows prints 100000 as "100K rows" and 2000000 as "2M rows"
func describeRows(rows int) string {
	switch {
	case rows >= 1000000 && rows%1000000 == 0:
		return fmt.Sprintf("%dM rows", rows/1000000)
	case rows >= 1000 && rows%1000 == 0:
		return fmt.Sprintf("%dK rows", rows/1000)
	}
	return fmt.Sprintf("%d rows", rows)
}
