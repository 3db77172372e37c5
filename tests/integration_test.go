//go:build integration
// +build integration

package tests

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ory/dockertest/v3"

	clickhousebench "github.com/zikwall/clickhouse-bench"
	"github.com/zikwall/clickhouse-bench/example/pkg/tables"
	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/db/cxnative"
	"github.com/zikwall/clickhouse-bench/src/db/cxsql"
	"github.com/zikwall/clickhouse-bench/src/memory"
)

// nolint:gochecknoglobals // it's OK
var options *clickhouse.Options

// A ClickHouse server is started in docker unless CLICKHOUSE_HOST points to a running one
func TestMain(m *testing.M) {
	if host := os.Getenv("CLICKHOUSE_HOST"); host != "" {
		port := os.Getenv("CLICKHOUSE_PORT")
		if port == "" {
			port = "9000"
		}
		options = newOptions(host + ":" + port)
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "clickhouse/clickhouse-server",
		Tag:        "24.3",
		Env:        []string{"CLICKHOUSE_SKIP_USER_SETUP=1"},
	})
	if err != nil {
		log.Fatalf("Could not start clickhouse resource: %s", err)
	}
	options = newOptions("localhost:" + resource.GetPort("9000/tcp"))
	if err := pool.Retry(func() error {
		client, err := cxnative.NewClickhouse(context.Background(), options, nil)
		if err != nil {
			return err
		}
		return client.Close()
	}); err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("Could not connect to clickhouse docker: %s", err)
	}

	code := m.Run()

	// You can't defer this because os.Exit doesn't care for defer
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}
	os.Exit(code)
}

func newOptions(addr string) *clickhouse.Options {
	user := os.Getenv("CLICKHOUSE_USER")
	if user == "" {
		user = "default"
	}
	return &clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: user,
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		},
		DialTimeout: 5 * time.Second,
	}
}

func TestNative(t *testing.T) {
	testConnector(t, cxnative.NewConnector(options, &cx.RuntimeOptions{}))
}

func TestSQL(t *testing.T) {
	testConnector(t, cxsql.NewConnector(options, &cx.RuntimeOptions{}, cxsql.WithMaxOpenConns(2)))
}

// nolint:funlen,gocyclo // it's not important here
func testConnector(t *testing.T, connector cx.Connector) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h, err := clickhousebench.NewHarness(ctx, connector,
		clickhousebench.DefaultOptions().SetDebugMode(true).SetSampler(memory.NewRuntimeSampler()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	client := h.Client()

	t.Run("it should report the server version", func(t *testing.T) {
		info, err := client.ServerInfo(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if info.Major == 0 {
			t.Fatalf("failed, unexpected server info %s", info)
		}
	})

	t.Run("it should time pings", func(t *testing.T) {
		result := h.Run(ctx, "Ping", clickhousebench.NewPolicy(5), cx.OperationFunc(
			func(ctx context.Context, client cx.Client) error {
				return client.Ping(ctx)
			},
		))
		if result.Error || result.Iterations != 5 {
			t.Fatalf("failed, unexpected result %+v", result)
		}
	})

	t.Run("it should materialize and stream the same rows", func(t *testing.T) {
		set, err := client.Query(ctx, "SELECT number FROM system.numbers LIMIT 1000")
		if err != nil {
			t.Fatal(err)
		}
		if set.Len() != 1000 {
			t.Fatalf("failed, expected 1000 rows, received %d", set.Len())
		}
		if value, ok := set.Value(999, "number"); !ok || value != uint64(999) {
			t.Fatalf("failed, unexpected last value %v", value)
		}
		it, err := client.QueryIterator(ctx, "SELECT number FROM system.numbers LIMIT 1000")
		if err != nil {
			t.Fatal(err)
		}
		defer it.Close()
		count := 0
		for it.Next() {
			count++
		}
		if err := it.Err(); err != nil {
			t.Fatal(err)
		}
		if count != 1000 {
			t.Fatalf("failed, expected 1000 streamed rows, received %d", count)
		}
	})

	t.Run("it should insert rows", func(t *testing.T) {
		tbl := tables.WithSuffix(tables.UniqueSuffix())
		if err := tbl.CreateBenchmark(ctx, client); err != nil {
			t.Fatal(err)
		}
		if err := tbl.CreateComplex(ctx, client); err != nil {
			t.Fatal(err)
		}
		defer func() {
			_ = tbl.Drop(ctx, client)
		}()
		affected, err := client.Insert(ctx, tbl.BenchmarkView(), tables.BenchmarkRows(1, 500))
		if err != nil {
			t.Fatal(err)
		}
		if affected != 500 {
			t.Fatalf("failed, expected 500 affected rows, received %d", affected)
		}
		if _, err := client.Insert(ctx, tbl.ComplexView(), tables.ComplexRows(1, 100)); err != nil {
			t.Fatal(err)
		}
		set, err := client.Query(ctx, "SELECT count() AS c FROM "+tbl.Benchmark)
		if err != nil {
			t.Fatal(err)
		}
		if value, _ := set.Value(0, "c"); fmt.Sprint(value) != strconv.Itoa(500) {
			t.Fatalf("failed, expected 500 stored rows, received %v", value)
		}
	})

	t.Run("it should bind statement parameters", func(t *testing.T) {
		stmt, err := client.Prepare(ctx, "SELECT number FROM system.numbers WHERE number > {num:UInt64} LIMIT 10")
		if err != nil {
			t.Fatal(err)
		}
		stmt.Bind("num", uint64(100), "UInt64")
		set, err := stmt.FetchAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if value, ok := set.Value(0, "number"); !ok || value != uint64(101) {
			t.Fatalf("failed, unexpected first value %v", value)
		}
	})

	t.Run("it should switch compression", func(t *testing.T) {
		for _, method := range cx.Compressions() {
			if err := client.SetCompression(ctx, method); err != nil {
				t.Fatalf("%s: %v", method, err)
			}
			if _, err := client.Query(ctx, "SELECT number FROM system.numbers LIMIT 100"); err != nil {
				t.Fatalf("%s: %v", method, err)
			}
		}
	})

	t.Run("it should open a connection per trial", func(t *testing.T) {
		before := h.Metrics().Connects()
		result := h.Run(ctx, "SELECT 1", clickhousebench.NewPolicy(3).SetFreshConnectionPerTrial(true), cx.OperationFunc(
			func(ctx context.Context, client cx.Client) error {
				_, err := client.Query(ctx, "SELECT 1")
				return err
			},
		))
		if result.Error || result.Iterations != 3 {
			t.Fatalf("failed, unexpected result %+v", result)
		}
		if h.Metrics().Connects()-before != 3 {
			t.Fatalf("failed, expected 3 connects, received %d", h.Metrics().Connects()-before)
		}
	})

	t.Run("it should classify server exceptions as operation errors", func(t *testing.T) {
		err := client.Execute(ctx, "SELECT * FROM table_that_does_not_exist")
		if err == nil {
			t.Fatal("failed, expected an exception")
		}
		if cx.IsConnectionError(err) {
			t.Fatalf("failed, unexpected connection error %v", err)
		}
		if err := client.Ping(ctx); err != nil {
			t.Fatal(err)
		}
	})
}
