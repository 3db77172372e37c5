package cxnative

import (
	"context"
	"reflect"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

type clickhouseNative struct {
	mu      sync.Mutex
	conn    driver.Conn
	options clickhouse.Options
	runtime *cx.RuntimeOptions
	closed  bool
}

type connector struct {
	options *clickhouse.Options
	runtime *cx.RuntimeOptions
}

// NewConnector returns a cx.Connector dialing a new native connection on every Connect
func NewConnector(options *clickhouse.Options, runtime *cx.RuntimeOptions) cx.Connector {
	return &connector{options: options, runtime: runtime}
}

func (c *connector) Connect(ctx context.Context) (cx.Client, error) {
	return NewClickhouse(ctx, c.options, c.runtime)
}

// NewClickhouse opens a native connection and makes sure the server answers
func NewClickhouse(ctx context.Context, options *clickhouse.Options, runtime *cx.RuntimeOptions) (cx.Client, error) {
	client := &clickhouseNative{
		options: copyOptions(options),
		runtime: runtime,
	}
	conn, err := open(ctx, &client.options)
	if err != nil {
		return nil, err
	}
	client.conn = conn
	return client, nil
}

// NewClickhouseWithConn wraps an already opened connection, options are used on Reconnect
func NewClickhouseWithConn(conn driver.Conn, options *clickhouse.Options, runtime *cx.RuntimeOptions) cx.Client {
	return &clickhouseNative{
		conn:    conn,
		options: copyOptions(options),
		runtime: runtime,
	}
}

func open(ctx context.Context, options *clickhouse.Options) (driver.Conn, error) {
	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "open clickhouse connection")
	}
	if err := conn.Ping(ctx); err != nil {
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

func (c *clickhouseNative) current() (driver.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		return nil, cx.ErrClosed
	}
	return c.conn, nil
}

func (c *clickhouseNative) Ping(ctx context.Context) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	return conn.Ping(ctx)
}

func (c *clickhouseNative) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cx.ErrClosed
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	conn, err := open(ctx, &c.options)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *clickhouseNative) Execute(ctx context.Context, query string) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	defer cancel()
	return conn.Exec(ctx, query)
}

func (c *clickhouseNative) Query(ctx context.Context, query string) (*cx.RowSet, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	defer cancel()
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (c *clickhouseNative) QueryIterator(ctx context.Context, query string) (cx.RowIterator, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.runtime.WithQueryTimeout(ctx)
	rows, err := conn.Query(ctx, query)
	if err != nil {
		cancel()
		return nil, err
	}
	return &rowIterator{rows: rows, types: rows.ColumnTypes(), cancel: cancel}, nil
}

func (c *clickhouseNative) Insert(ctx context.Context, view cx.View, rows []cx.Vector) (uint64, error) {
	conn, err := c.current()
	if err != nil {
		return 0, err
	}
	timeoutContext, cancel := context.WithTimeout(ctx, c.runtime.GetWriteTimeout())
	defer cancel()
	batch, err := conn.PrepareBatch(timeoutContext, view.InsertQuery())
	if err != nil {
		return 0, err
	}
	var affected uint64
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return affected, errors.Wrapf(err, "append row %d into %s", affected, view.Name)
		}
		affected++
	}
	if err := batch.Send(); err != nil {
		return 0, err
	}
	return affected, nil
}

func (c *clickhouseNative) Prepare(_ context.Context, query string) (cx.Statement, error) {
	if _, err := c.current(); err != nil {
		return nil, err
	}
	return &statement{client: c, params: cx.NewParams(query)}, nil
}

func (c *clickhouseNative) SetCompression(ctx context.Context, method cx.Compression) error {
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
	// compression is negotiated per connection, so the switch needs a new one
	return c.Reconnect(ctx)
}

func (c *clickhouseNative) ServerInfo(_ context.Context) (cx.ServerInfo, error) {
	conn, err := c.current()
	if err != nil {
		return cx.ServerInfo{}, err
	}
	version, err := conn.ServerVersion()
	if err != nil {
		return cx.ServerInfo{}, err
	}
	return cx.ServerInfo{
		Name:  version.Name,
		Major: version.Version.Major,
		Minor: version.Version.Minor,
		Patch: version.Version.Patch,
	}, nil
}

// Close never fails, the connection is unusable after it whatever the driver reports
func (c *clickhouseNative) Close() error {
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

// collect materializes every row, scan targets are allocated per row since
// nullable columns scan into pointers
func collect(rows driver.Rows) (*cx.RowSet, error) {
	defer rows.Close()
	var (
		types = rows.ColumnTypes()
		set   = &cx.RowSet{Columns: rows.Columns()}
	)
	for rows.Next() {
		dest := scanTargets(types)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		set.Rows = append(set.Rows, values(dest))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func scanTargets(types []driver.ColumnType) []interface{} {
	dest := make([]interface{}, len(types))
	for i := range types {
		dest[i] = reflect.New(types[i].ScanType()).Interface()
	}
	return dest
}

func values(dest []interface{}) cx.Row {
	row := make(cx.Row, len(dest))
	for i := range dest {
		row[i] = reflect.ValueOf(dest[i]).Elem().Interface()
	}
	return row
}

type rowIterator struct {
	rows   driver.Rows
	types  []driver.ColumnType
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
	dest := scanTargets(it.types)
	if err := it.rows.Scan(dest...); err != nil {
		it.err = err
		return false
	}
	it.row = values(dest)
	return true
}

func (it *rowIterator) Row() cx.Row {
	return it.row
}

func (it *rowIterator) Columns() []string {
	return it.rows.Columns()
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
	client *clickhouseNative
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
