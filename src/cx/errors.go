package cx

import (
	"database/sql/driver"
	"io"
	"net"
	"syscall"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by a client used after Close
	ErrClosed = errors.New("clickhouse client is closed")
	// ErrUnboundParameter is returned when a prepared statement placeholder has no value
	ErrUnboundParameter = errors.New("unbound statement parameter")
)

// Exception codes that mean the session itself is unusable, not just the query.
// see: https://github.com/ClickHouse/ClickHouse/blob/master/src/Common/ErrorCodes.cpp
var connectionErrorCodes = map[int32]struct{}{
	159: {}, // TIMEOUT_EXCEEDED
	192: {}, // UNKNOWN_USER
	193: {}, // WRONG_PASSWORD
	195: {}, // IP_ADDRESS_NOT_ALLOWED
	209: {}, // SOCKET_TIMEOUT
	210: {}, // NETWORK_ERROR
	372: {}, // SESSION_NOT_FOUND
	373: {}, // SESSION_IS_LOCKED
	516: {}, // AUTHENTICATION_FAILED
}

// IsConnectionError reports whether err means the connection has to be re-established,
// as opposed to a failure of the operation itself
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosed) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		_, ok := connectionErrorCodes[exception.Code]
		return ok
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ErrorKind names the error class for logs
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsConnectionError(err):
		return "connection"
	}
	return "operation"
}
