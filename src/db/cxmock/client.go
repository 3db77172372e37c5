// Package cxmock is an in-memory cx.Client. It fabricates system.numbers style results and
// keeps track of created tables, so scenarios can be dry-run without a server.
package cxmock

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

var (
	limitRe   = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	numbersRe = regexp.MustCompile(`(?i)\bnumbers\((\d+)\)`)
	createRe  = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w.]+)`)
	dropRe    = regexp.MustCompile(`(?i)^\s*DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?([\w.]+)`)
)

// FailureFunc decides whether the n-th call (1-based) of a method fails
type FailureFunc func(method string, n uint64) error

type Option func(c *Client)

// WithLatency makes every call sleep before answering
func WithLatency(latency time.Duration) Option {
	return func(c *Client) {
		c.latency = latency
	}
}

// WithFailures injects errors into calls
func WithFailures(fn FailureFunc) Option {
	return func(c *Client) {
		c.fail = fn
	}
}

// WithServerInfo overrides the reported server version
func WithServerInfo(info cx.ServerInfo) Option {
	return func(c *Client) {
		c.info = info
	}
}

// withCatalog shares the set of created tables between clients of one connector
func withCatalog(catalog *catalog) Option {
	return func(c *Client) {
		c.catalog = catalog
	}
}

type catalog struct {
	mu     sync.Mutex
	tables map[string]uint64
}

func newCatalog() *catalog {
	return &catalog{tables: map[string]uint64{}}
}

type Client struct {
	mu          sync.Mutex
	calls       map[string]uint64
	latency     time.Duration
	fail        FailureFunc
	info        cx.ServerInfo
	compression cx.Compression
	catalog     *catalog
	closed      bool
	onClose     func()
}

func NewClient(options ...Option) *Client {
	c := &Client{
		calls: map[string]uint64{},
		info: cx.ServerInfo{
			Name:  "ClickHouse",
			Major: 24,
			Minor: 3,
			Patch: 1,
		},
	}
	for _, option := range options {
		option(c)
	}
	if c.catalog == nil {
		c.catalog = newCatalog()
	}
	return c
}

// Calls returns how many times method was invoked
func (c *Client) Calls(method string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Rows returns how many rows were inserted into table
func (c *Client) Rows(table string) uint64 {
	c.catalog.mu.Lock()
	defer c.catalog.mu.Unlock()
	return c.catalog.tables[table]
}

func (c *Client) Compression() cx.Compression {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compression
}

func (c *Client) enter(method string) error {
	c.mu.Lock()
	c.calls[method]++
	n := c.calls[method]
	closed := c.closed
	fail := c.fail
	c.mu.Unlock()
	if closed {
		return cx.ErrClosed
	}
	if c.latency > 0 {
		time.Sleep(c.latency)
	}
	if fail != nil {
		return fail(method, n)
	}
	return nil
}

func (c *Client) Ping(_ context.Context) error {
	return c.enter("Ping")
}

func (c *Client) Reconnect(_ context.Context) error {
	return c.enter("Reconnect")
}

func (c *Client) Execute(_ context.Context, query string) error {
	if err := c.enter("Execute"); err != nil {
		return err
	}
	c.catalog.mu.Lock()
	defer c.catalog.mu.Unlock()
	if m := createRe.FindStringSubmatch(query); m != nil {
		if _, ok := c.catalog.tables[m[1]]; !ok {
			c.catalog.tables[m[1]] = 0
		}
	}
	if m := dropRe.FindStringSubmatch(query); m != nil {
		delete(c.catalog.tables, m[1])
	}
	return nil
}

func (c *Client) Query(_ context.Context, query string) (*cx.RowSet, error) {
	if err := c.enter("Query"); err != nil {
		return nil, err
	}
	return fabricate(query), nil
}

func (c *Client) QueryIterator(_ context.Context, query string) (cx.RowIterator, error) {
	if err := c.enter("QueryIterator"); err != nil {
		return nil, err
	}
	return &rowIterator{count: rowCount(query), columns: columns(query)}, nil
}

func (c *Client) Insert(_ context.Context, view cx.View, rows []cx.Vector) (uint64, error) {
	if err := c.enter("Insert"); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if len(row) != len(view.Columns) {
			return 0, &clickhouse.Exception{
				Code:    20,
				Name:    "NUMBER_OF_COLUMNS_DOESNT_MATCH",
				Message: fmt.Sprintf("row %d has %d values, %d columns expected", i, len(row), len(view.Columns)),
			}
		}
	}
	c.catalog.mu.Lock()
	defer c.catalog.mu.Unlock()
	if _, ok := c.catalog.tables[view.Name]; !ok {
		return 0, &clickhouse.Exception{
			Code:    60,
			Name:    "UNKNOWN_TABLE",
			Message: fmt.Sprintf("Table %s doesn't exist", view.Name),
		}
	}
	c.catalog.tables[view.Name] += uint64(len(rows))
	return uint64(len(rows)), nil
}

func (c *Client) Prepare(_ context.Context, query string) (cx.Statement, error) {
	if err := c.enter("Prepare"); err != nil {
		return nil, err
	}
	return &statement{client: c, params: cx.NewParams(query)}, nil
}

func (c *Client) SetCompression(_ context.Context, method cx.Compression) error {
	if err := c.enter("SetCompression"); err != nil {
		return err
	}
	c.mu.Lock()
	c.compression = method
	c.mu.Unlock()
	return nil
}

func (c *Client) ServerInfo(_ context.Context) (cx.ServerInfo, error) {
	if err := c.enter("ServerInfo"); err != nil {
		return cx.ServerInfo{}, err
	}
	return c.info, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.calls["Close"]++
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onClose := c.onClose
	c.mu.Unlock()
	if onClose != nil {
		onClose()
	}
	return nil
}

func rowCount(query string) int {
	for _, re := range []*regexp.Regexp{limitRe, numbersRe} {
		if m := re.FindStringSubmatch(query); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return 1
}

func columns(query string) []string {
	if limitRe.MatchString(query) || numbersRe.MatchString(query) {
		return []string{"number"}
	}
	return []string{strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "SELECT"))}
}

func fabricate(query string) *cx.RowSet {
	if !limitRe.MatchString(query) && !numbersRe.MatchString(query) {
		return &cx.RowSet{Columns: columns(query), Rows: []cx.Row{{uint8(1)}}}
	}
	n := rowCount(query)
	set := &cx.RowSet{
		Columns: columns(query),
		Rows:    make([]cx.Row, 0, n),
	}
	for i := 0; i < n; i++ {
		set.Rows = append(set.Rows, cx.Row{uint64(i)})
	}
	return set
}

type rowIterator struct {
	count   int
	pos     int
	columns []string
	closed  bool
}

func (it *rowIterator) Next() bool {
	if it.closed || it.pos >= it.count {
		return false
	}
	it.pos++
	return true
}

func (it *rowIterator) Row() cx.Row {
	return cx.Row{uint64(it.pos - 1)}
}

func (it *rowIterator) Columns() []string {
	return it.columns
}

func (it *rowIterator) Err() error {
	return nil
}

func (it *rowIterator) Close() error {
	it.closed = true
	return nil
}

type statement struct {
	client *Client
	params *cx.Params
}

func (s *statement) Bind(name string, value interface{}, typeHint string) {
	s.params.Bind(name, value, typeHint)
}

func (s *statement) FetchAll(ctx context.Context) (*cx.RowSet, error) {
	query, _, err := s.params.Compile()
	if err != nil {
		return nil, err
	}
	return s.client.Query(ctx, query)
}
