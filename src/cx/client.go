package cx

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client is the set of capabilities the benchmarks need from a Clickhouse client.
// Implementations live in src/db: a native protocol client and a database/sql client.
type Client interface {
	// Ping checks the connection is alive
	Ping(ctx context.Context) error
	// Reconnect drops the underlying connection and dials a new one with the same settings
	Reconnect(ctx context.Context) error
	// Execute runs a statement that returns no result (DDL and similar)
	Execute(ctx context.Context, query string) error
	// Query runs a query and materializes every row before returning
	Query(ctx context.Context, query string) (*RowSet, error)
	// QueryIterator runs a query and streams its rows
	QueryIterator(ctx context.Context, query string) (RowIterator, error)
	// Insert writes rows into the view, returns the number of appended rows
	Insert(ctx context.Context, view View, rows []Vector) (uint64, error)
	// Prepare creates a statement with {name:Type} placeholders
	Prepare(ctx context.Context, query string) (Statement, error)
	// SetCompression switches the block compression method, it takes effect for subsequent calls
	SetCompression(ctx context.Context, method Compression) error
	// ServerInfo returns the name and version reported by the server on handshake
	ServerInfo(ctx context.Context) (ServerInfo, error)
	// Close releases the connection. It never returns an error and may be called more than once.
	Close() error
}

// Statement is a prepared query whose parameters are bound by name
type Statement interface {
	Bind(name string, value interface{}, typeHint string)
	FetchAll(ctx context.Context) (*RowSet, error)
}

// Connector opens new clients, every call returns an independent connection
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}

// ConnectorFunc adapts a function to the Connector interface
type ConnectorFunc func(ctx context.Context) (Client, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Client, error) {
	return f(ctx)
}

type ServerInfo struct {
	Name  string
	Major uint64
	Minor uint64
	Patch uint64
}

func (s ServerInfo) String() string {
	return fmt.Sprintf("%s %d.%d.%d", s.Name, s.Major, s.Minor, s.Patch)
}

// Compression is the block compression method negotiated with the server
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZSTD
)

// Compressions lists every supported method in the order they are benchmarked
func Compressions() []Compression {
	return []Compression{CompressionNone, CompressionLZ4, CompressionZSTD}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZSTD:
		return "ZSTD"
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

// ParseCompression accepts none, lz4 and zstd in any case
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression method %q", s)
}

const defaultWriteTimeout = 15 * time.Second

// RuntimeOptions holds client side timeouts that are not part of the driver options.
// A zero QueryTimeout leaves queries unbounded.
type RuntimeOptions struct {
	WriteTimeout time.Duration
	QueryTimeout time.Duration
}

func (o *RuntimeOptions) GetWriteTimeout() time.Duration {
	if o == nil || o.WriteTimeout <= 0 {
		return defaultWriteTimeout
	}
	return o.WriteTimeout
}

func (o *RuntimeOptions) GetQueryTimeout() time.Duration {
	if o == nil || o.QueryTimeout < 0 {
		return 0
	}
	return o.QueryTimeout
}

// WithQueryTimeout derives a context bounded by the query timeout, if one is set
func (o *RuntimeOptions) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := o.GetQueryTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
