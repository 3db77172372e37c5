package suite

import (
	"context"

	clickhousebench "github.com/zikwall/clickhouse-bench"
	"github.com/zikwall/clickhouse-bench/src/cx"
)

func (s *Suite) connection(ctx context.Context) {
	s.printer.Header("1. Connection Benchmarks")

	s.printer.Result(s.harness.Run(ctx, "Connect (new)", noReconnect(10), cx.OperationFunc(
		func(ctx context.Context, _ cx.Client) error {
			client, err := s.connector.Connect(ctx)
			if err != nil {
				return err
			}
			return client.Close()
		},
	)))

	if client := s.harness.Client(); client != nil {
		info, err := client.ServerInfo(ctx)
		if err != nil {
			s.printer.Printf("  Server: unknown (%v)\n", err)
		} else {
			s.printer.Printf("  Server: %s\n", info)
		}
	}

	ping := s.harness.Run(ctx, "Ping", noReconnect(50), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			return client.Ping(ctx)
		},
	))
	s.ping = &ping
	s.printer.Result(ping)

	s.printer.Result(s.harness.Run(ctx, "Reconnect", noReconnect(10), cx.OperationFunc(
		func(ctx context.Context, client cx.Client) error {
			return client.Reconnect(ctx)
		},
	)))

	s.printer.Result(s.harness.Run(ctx, "Query (reused conn)", clickhousebench.NewPolicy(30), query("SELECT 1")))
	s.printer.Println("    (one shared connection for all trials, no handshake in the timings)")

	s.printer.Result(s.harness.Run(ctx, "Query (new conn each)", noReconnect(10), cx.OperationFunc(
		func(ctx context.Context, _ cx.Client) error {
			return s.withClient(ctx, func(client cx.Client) error {
				_, err := client.Query(ctx, "SELECT 1")
				return err
			})
		},
	)))
}
