package suite

import (
	"context"

	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/report"
)

func (s *Suite) summary(ctx context.Context) {
	s.printer.Header("7. Summary Statistics")

	if err := s.withClient(ctx, func(client cx.Client) error {
		return s.tables.Drop(ctx, client)
	}); err != nil {
		s.printer.Printf("  Warning: Could not clean up: %v\n", err)
	} else {
		s.printer.Println("  Test tables cleaned up")
	}

	s.printer.Println("\n  Estimated throughput:")
	if s.select1 != nil && !s.select1.Error && s.select1.Avg > 0 {
		s.printer.Printf("    Simple query: %s queries/sec\n", report.Integer(1000/s.select1.Avg))
	}
	if s.ping != nil && !s.ping.Error && s.ping.Avg > 0 {
		s.printer.Printf("    Ping: %s pings/sec\n", report.Integer(1000/s.ping.Avg))
	}

	if sampler := s.harness.Options().Sampler(); sampler != nil {
		if snapshot, err := sampler.Sample(); err == nil {
			s.printer.Println("\n  Memory usage:")
			s.printer.Printf("    Peak memory: %s\n", report.FormatBytes(int64(snapshot.Peak)))
			s.printer.Printf("    Current memory: %s\n", report.FormatBytes(int64(snapshot.InUse)))
		}
	}

	metrics := s.harness.Metrics()
	s.printer.Println("\n  Connections:")
	s.printer.Printf("    Opened: %d, closed: %d, reconnects: %d, revalidations: %d, failed trials: %d\n",
		metrics.Connects(), metrics.Closes(), metrics.Reconnects(), metrics.Revalidations(), metrics.Failures(),
	)
}
