package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	clickhousebench "github.com/zikwall/clickhouse-bench"
	"github.com/zikwall/clickhouse-bench/example/pkg/suite"
	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/config"
	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/memory"
	"github.com/zikwall/clickhouse-bench/src/report"
)

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.New()
	rc := &cobra.Command{
		Use:   "chbench",
		Short: "Benchmarks a ClickHouse client: connections, queries, inserts, streaming and compression",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// only the shared settings come from the environment and the config file
			if err := config.Load(viper.New(), cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		SilenceUsage: true,
	}
	cfg.AddFlags(rc.PersistentFlags())

	rc.AddCommand(newRunCommand(cfg, stdout))
	rc.AddCommand(newExtremeCommand(cfg, stdout))
	rc.AddCommand(newSectionsCommand(stdout))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// session is what both benchmark commands share: an open harness and the printer of the run
type session struct {
	runID     string
	startedAt time.Time
	connector cx.Connector
	harness   clickhousebench.Harness
	printer   *report.Printer
}

func openSession(ctx context.Context, cfg *config.Config, stdout io.Writer) (*session, error) {
	connector, err := cfg.Connector()
	if err != nil {
		return nil, err
	}
	sampler, err := memory.NewSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}
	options := clickhousebench.DefaultOptions().
		SetDebugMode(cfg.Debug).
		SetSampler(sampler)
	// the first connection decides whether there is anything to benchmark at all
	h, err := clickhousebench.NewHarness(ctx, connector, options)
	if err != nil {
		return nil, errors.Wrap(err, "connection error")
	}
	return &session{
		runID:     uuid.New().String(),
		startedAt: time.Now(),
		connector: connector,
		harness:   h,
		printer:   report.NewPrinter(stdout),
	}, nil
}

func (s *session) server(ctx context.Context) string {
	client := s.harness.Client()
	if client == nil {
		return ""
	}
	info, err := client.ServerInfo(ctx)
	if err != nil {
		return ""
	}
	return info.String()
}

func (s *session) finish(ctx context.Context, cfg *config.Config) error {
	if cfg.Summary {
		s.printer.Println("")
		report.RenderSummary(s.printer.Writer(), s.printer.Results(), s.printer.MemoryResults())
	}
	if cfg.JSON {
		doc := report.NewDocument(s.runID, cfg.Driver, s.server(ctx), s.startedAt, s.printer)
		if err := report.GenerateJSON(s.printer.Writer(), doc); err != nil {
			return err
		}
	}
	return s.harness.Close()
}

func newRunCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	var uniqueTables bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cfg, stdout)
			if err != nil {
				return err
			}
			t := tables.Default()
			if uniqueTables {
				t = tables.WithSuffix(tables.UniqueSuffix())
			}

			s.printer.Println("=== ClickHouse Client Benchmarks ===")
			s.printer.Printf("Date: %s\n", s.startedAt.Format("2006-01-02 15:04:05"))
			s.printer.Printf("Go Version: %s\n", runtime.Version())
			s.printer.Printf("Run ID: %s\n", s.runID)
			s.printer.Printf("Host: %s (%s driver)\n", cfg.Addr(), cfg.Driver)

			if err := suite.New(s.harness, s.connector, s.printer, t).Run(ctx, cfg.Sections); err != nil {
				_ = s.harness.Close()
				return err
			}
			s.printer.Println("\n=== Benchmark Complete ===")
			return s.finish(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&uniqueTables, "unique-tables", false, "Suffix the benchmark tables with a random id")
	return cmd
}

func newExtremeCommand(cfg *config.Config, stdout io.Writer) *cobra.Command {
	options := suite.DefaultExtremeOptions()
	cmd := &cobra.Command{
		Use:   "extreme",
		Short: "Read results of up to millions of rows and check their integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cfg, stdout)
			if err != nil {
				return err
			}
			s.printer.Println("ClickHouse Extreme Performance Benchmark")
			s.printer.Println("========================================")
			s.printer.Printf("Host: %s\n", cfg.Addr())
			s.printer.Printf("Memory sampler: %s\n\n", cfg.Sampler)

			if err := suite.New(s.harness, s.connector, s.printer, tables.Default()).RunExtreme(ctx, options); err != nil {
				_ = s.harness.Close()
				return err
			}
			s.printer.Println("Done!")
			return s.finish(ctx, cfg)
		},
	}
	cmd.Flags().IntSliceVar(&options.SingleColumn, "single-column", options.SingleColumn, "Row counts of the single column tests")
	cmd.Flags().IntSliceVar(&options.MultiColumn, "multi-column", options.MultiColumn, "Row counts of the multi column tests")
	cmd.Flags().IntVar(&options.IntegrityRows, "integrity-rows", options.IntegrityRows, "Rows of the integrity check, 0 to skip")
	return cmd
}

func newSectionsCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the benchmark sections accepted by --sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range suite.Sections() {
				if _, err := fmt.Fprintln(stdout, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
