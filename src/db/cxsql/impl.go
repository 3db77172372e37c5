package cxsql

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

const driverName = "clickhouse"

type clickhouseSQL struct {
	mu      sync.Mutex
	conn    *sqlx.DB
	options clickhouse.Options
	pool    *PoolOptions
	runtime *cx.RuntimeOptions
	closed  bool
}

type connector struct {
	options *clickhouse.Options
	runtime *cx.RuntimeOptions
	pool    []Option
}

// NewConnector returns a cx.Connector opening a new database/sql pool on every Connect
func NewConnector(options *clickhouse.Options, runtime *cx.RuntimeOptions, pool ...Option) cx.Connector {
	return &connector{options: options, runtime: runtime, pool: pool}
}

func (c *connector) Connect(ctx context.Context) (cx.Client, error) {
	return NewClickhouse(ctx, c.options, c.runtime, c.pool...)
}

// NewClickhouse opens a database/sql backed client and pings the server
func NewClickhouse(
	ctx context.Context,
	options *clickhouse.Options,
	runtime *cx.RuntimeOptions,
	pool ...Option,
) (
	cx.Client,
	error,
) {
	client := &clickhouseSQL{
		options: copyOptions(options),
		pool:    newPoolOptions(pool...),
		runtime: runtime,
	}
	conn, err := open(ctx, &client.options, client.pool)
	if err != nil {
		return nil, err
	}
	client.conn = conn
	return client, nil
}

// NewClickhouseWithConn wraps an existing pool, options are used on Reconnect
func NewClickhouseWithConn(conn *sqlx.DB, options *clickhouse.Options, runtime *cx.RuntimeOptions) cx.Client {
	return &clickhouseSQL{
		conn:    conn,
		options: copyOptions(options),
		pool:    newPoolOptions(),
		runtime: runtime,
	}
}

func open(ctx context.Context, options *clickhouse.Options, pool *PoolOptions) (*sqlx.DB, error) {
	conn := sqlx.NewDb(clickhouse.OpenDB(options), driverName)
	if pool.maxIdleConns > 0 {
		conn.SetMaxIdleConns(pool.maxIdleConns)
	}
	if pool.maxOpenConns > 0 {
		conn.SetMaxOpenConns(pool.maxOpenConns)
	}
	if pool.connMaxLifetime > 0 {
		conn.SetConnMaxLifetime(pool.connMaxLifetime)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		if exception, ok := err.(*clickhouse.Exception); ok {
			return nil, errors.Wrapf(err, "ping clickhouse [%d] %s", exception.Code, exception.Message)
		}
		return nil, errors.Wrap(err, "ping clickhouse")
	}
	return conn, nil
}

func copyOptions(options *clickhouse.Options) clickhouse.Options {
	if options == nil {
		return clickhouse.Options{}
	}
	cp := *options
	if options.Compression != nil {
		compression := *options.Compression
		cp.Compression = &compression
	}
	return cp
}

func (c *clickhouseSQL) current() (*sqlx.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		return nil, cx.ErrClosed
	}
	return c.conn, nil
}

func (c *clickhouseSQL) Ping(ctx context.Context) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

func (c *clickhouseSQL) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cx.ErrClosed
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	conn, err := open(ctx, &c.options, c.pool)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *clickhouseSQL) Execute(ctx context.Context, query string) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	defer cancel()
	_, err = conn.ExecContext(ctx, query)
	return err
}

func (c *clickhouseSQL) Query(ctx context.Context, query string) (*cx.RowSet, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	defer cancel()
	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (c *clickhouseSQL) QueryIterator(ctx context.Context, query string) (cx.RowIterator, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		cancel()
		return nil, err
	}
	return &rowIterator{rows: rows, cancel: cancel}, nil
}

// Insert is implemented through so-called "transactions",
// although Clickhouse does not support them - it is only a client solution for preparing requests
func (c *clickhouseSQL) Insert(ctx context.Context, view cx.View, rows []cx.Vector) (uint64, error) {
	conn, err := c.current()
	if err != nil {
		return 0, err
	}
	timeoutContext, cancel := context.WithTimeout(ctx, c.runtime.GetWriteTimeout())
	defer cancel()
	tx, err := conn.BeginTxx(timeoutContext, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PreparexContext(timeoutContext, view.InsertQuery())
	if err != nil {
		// If you do not call the rollback function there will be a memory leak and goroutine
		// Such a leak can occur if there is no access to the table or there is no table itself
		_ = tx.Rollback()
		return 0, err
	}
	defer func() {
		_ = stmt.Close()
	}()
	var affected uint64
	for _, row := range rows {
		if _, err := stmt.ExecContext(timeoutContext, row...); err != nil {
			_ = tx.Rollback()
			return 0, errors.Wrapf(err, "append row %d into %s", affected, view.Name)
		}
		affected++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

func (c *clickhouseSQL) Prepare(_ context.Context, query string) (cx.Statement, error) {
	if _, err := c.current(); err != nil {
		return nil, err
	}
	return &statement{client: c, params: cx.NewParams(query)}, nil
}

func (c *clickhouseSQL) SetCompression(ctx context.Context, method cx.Compression) error {
	target, err := compressionMethod(method)
	if err != nil {
		return err
	}
	c.mu.Lock()
	current := clickhouse.CompressionNone
	if c.options.Compression != nil {
		current = c.options.Compression.Method
	}
	if current == target {
		c.mu.Unlock()
		return nil
	}
	c.options.Compression = &clickhouse.Compression{Method: target}
	c.mu.Unlock()
	return c.Reconnect(ctx)
}

// ServerInfo asks the server for its version, database/sql has no access to the handshake
func (c *clickhouseSQL) ServerInfo(ctx context.Context) (cx.ServerInfo, error) {
	conn, err := c.current()
	if err != nil {
		return cx.ServerInfo{}, err
	}
	var version string
	if err := conn.QueryRowxContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return cx.ServerInfo{}, err
	}
	return parseVersion("ClickHouse", version), nil
}

// Close never fails, the connection is unusable after it whatever the driver reports
func (c *clickhouseSQL) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return nil
}

func parseVersion(name, version string) cx.ServerInfo {
	info := cx.ServerInfo{Name: name}
	parts := strings.SplitN(version, ".", 4)
	fields := []*uint64{&info.Major, &info.Minor, &info.Patch}
	for i := 0; i < len(parts) && i < len(fields); i++ {
		if v, err := strconv.ParseUint(parts[i], 10, 64); err == nil {
			*fields[i] = v
		}
	}
	return info
}

func compressionMethod(method cx.Compression) (clickhouse.CompressionMethod, error) {
	switch method {
	case cx.CompressionNone:
		return clickhouse.CompressionNone, nil
	case cx.CompressionLZ4:
		return clickhouse.CompressionLZ4, nil
	case cx.CompressionZSTD:
		return clickhouse.CompressionZSTD, nil
	}
	return clickhouse.CompressionNone, errors.Errorf("unsupported compression %s", method)
}

func collect(rows *sqlx.Rows) (*cx.RowSet, error) {
	defer func() {
		_ = rows.Close()
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	set := &cx.RowSet{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		set.Rows = append(set.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

type rowIterator struct {
	rows   *sqlx.Rows
	row    cx.Row
	err    error
	cancel context.CancelFunc
	closed bool
}

func (it *rowIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if !it.rows.Next() {
		return false
	}
	values, err := it.rows.SliceScan()
	if err != nil {
		it.err = err
		return false
	}
	it.row = values
	return true
}

func (it *rowIterator) Row() cx.Row {
	return it.row
}

func (it *rowIterator) Columns() []string {
	columns, _ := it.rows.Columns()
	return columns
}

func (it *rowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *rowIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	defer it.cancel()
	return it.rows.Close()
}

type statement struct {
	client *clickhouseSQL
	params *cx.Params
}

func (s *statement) Bind(name string, value interface{}, typeHint string) {
	s.params.Bind(name, value, typeHint)
}

func (s *statement) FetchAll(ctx context.Context) (*cx.RowSet, error) {
	query, params, err := s.params.Compile()
	if err != nil {
		return nil, err
	}
	return s.client.Query(clickhouse.Context(ctx, clickhouse.WithParameters(params)), query)
}
