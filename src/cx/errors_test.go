package cx

import (
	"context"
	"database/sql/driver"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsConnectionError(t *testing.T) {
	for _, err := range []error{
		ErrClosed,
		driver.ErrBadConn,
		io.EOF,
		errors.Wrap(io.ErrUnexpectedEOF, "read block"),
		net.ErrClosed,
		syscall.ECONNREFUSED,
		errors.Wrap(syscall.ECONNRESET, "write"),
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")},
		&clickhouse.Exception{Code: 516, Name: "AUTHENTICATION_FAILED"},
		errors.Wrap(&clickhouse.Exception{Code: 210, Name: "NETWORK_ERROR"}, "insert"),
	} {
		assert.True(t, IsConnectionError(err), "%v", err)
		assert.Equal(t, "connection", ErrorKind(err))
	}
	for _, err := range []error{
		errors.New("boom"),
		context.Canceled,
		&clickhouse.Exception{Code: 60, Name: "UNKNOWN_TABLE"},
		&clickhouse.Exception{Code: 62, Name: "SYNTAX_ERROR"},
	} {
		assert.False(t, IsConnectionError(err), "%v", err)
		assert.Equal(t, "operation", ErrorKind(err))
	}
	assert.False(t, IsConnectionError(nil))
	assert.Equal(t, "none", ErrorKind(nil))
}
