// Package suite is the ClickHouse client benchmark: connection, query, insert, streaming,
// compression and prepared statement scenarios printed section by section.
package suite

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"

	clickhousebench "github.com/zikwall/clickhouse-bench"
	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/report"
)

const (
	SectionConnection  = "connection"
	SectionQuery       = "query"
	SectionTypes       = "types"
	SectionInsert      = "insert"
	SectionIterator    = "iterator"
	SectionCompression = "compression"
	SectionAdvanced    = "advanced"
	SectionSummary     = "summary"
)

// Sections lists every section in the order they run
func Sections() []string {
	return []string{
		SectionConnection,
		SectionQuery,
		SectionTypes,
		SectionInsert,
		SectionIterator,
		SectionCompression,
		SectionAdvanced,
		SectionSummary,
	}
}

type Suite struct {
	harness   clickhousebench.Harness
	connector cx.Connector
	printer   *report.Printer
	tables    tables.Tables
	random    *rand.Rand
	// kept for the throughput estimates of the summary
	select1 *cx.Result
	ping    *cx.Result
}

func New(h clickhousebench.Harness, connector cx.Connector, printer *report.Printer, t tables.Tables) *Suite {
	return &Suite{
		harness:   h,
		connector: connector,
		printer:   printer,
		tables:    t,
		// nolint:gosec // ids of benchmark rows
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the named sections in their natural order, all of them when names is empty
func (s *Suite) Run(ctx context.Context, names []string) error {
	selected, err := selectSections(names)
	if err != nil {
		return err
	}
	runners := map[string]func(context.Context){
		SectionConnection:  s.connection,
		SectionQuery:       s.query,
		SectionTypes:       s.types,
		SectionInsert:      s.insert,
		SectionIterator:    s.iterator,
		SectionCompression: s.compression,
		SectionAdvanced:    s.advanced,
		SectionSummary:     s.summary,
	}
	for _, name := range Sections() {
		if _, ok := selected[name]; !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		runners[name](ctx)
	}
	return nil
}

func selectSections(names []string) (map[string]struct{}, error) {
	selected := map[string]struct{}{}
	known := map[string]struct{}{}
	for _, name := range Sections() {
		known[name] = struct{}{}
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			return nil, errors.Errorf("unknown section %q, expected one of %s", name, strings.Join(Sections(), ", "))
		}
		selected[name] = struct{}{}
	}
	if len(selected) == 0 {
		return known, nil
	}
	return selected, nil
}

// fresh opens a new connection for every trial
func fresh(iterations int) *clickhousebench.Policy {
	return clickhousebench.NewPolicy(iterations).SetFreshConnectionPerTrial(true)
}

// noReconnect runs every trial on the shared connection and leaves it alone on failure
func noReconnect(iterations int) *clickhousebench.Policy {
	return clickhousebench.NewPolicy(iterations).SetReconnectOnFailure(false)
}

func query(q string) cx.OperationFunc {
	return func(ctx context.Context, client cx.Client) error {
		_, err := client.Query(ctx, q)
		return err
	}
}

func insert(view cx.View, rows []cx.Vector) cx.OperationFunc {
	return func(ctx context.Context, client cx.Client) error {
		_, err := client.Insert(ctx, view, rows)
		return err
	}
}

func numbersQuery(rows int) string {
	return fmt.Sprintf("SELECT number FROM system.numbers LIMIT %d", rows)
}

// withClient runs fn on a dedicated connection that is closed afterwards
func (s *Suite) withClient(ctx context.Context, fn func(client cx.Client) error) error {
	client, err := s.connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (s *Suite) baseID(limit int64) uint64 {
	return uint64(s.random.Int63n(limit) + 1)
}
