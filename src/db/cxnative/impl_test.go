package cxnative

import (
	"context"
	"errors"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

func TestCompressionMethod(t *testing.T) {
	for method, expected := range map[cx.Compression]clickhouse.CompressionMethod{
		cx.CompressionNone: clickhouse.CompressionNone,
		cx.CompressionLZ4:  clickhouse.CompressionLZ4,
		cx.CompressionZSTD: clickhouse.CompressionZSTD,
	} {
		actual, err := compressionMethod(method)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}
	_, err := compressionMethod(cx.Compression(42))
	assert.Error(t, err)
}

func TestClosedClient(t *testing.T) {
	ctx := context.Background()
	client := NewClickhouseWithConn(nil, nil, nil)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Ping(ctx), cx.ErrClosed)
	_, err := client.QueryIterator(ctx, "SELECT 1")
	assert.ErrorIs(t, err, cx.ErrClosed)
	_, err = client.Prepare(ctx, "SELECT {n:UInt8}")
	assert.ErrorIs(t, err, cx.ErrClosed)
	_, err = client.ServerInfo(ctx)
	assert.ErrorIs(t, err, cx.ErrClosed)
}

func TestSetCompressionWithoutChange(t *testing.T) {
	// the method already in use needs no new connection, so no server is required
	client := NewClickhouseWithConn(nil, &clickhouse.Options{}, nil)
	assert.NoError(t, client.SetCompression(context.Background(), cx.CompressionNone))
}

type brokenConn struct {
	driver.Conn
	closes int
}

func (c *brokenConn) Close() error {
	c.closes++
	return errors.New("connection reset by peer")
}

func TestCloseIgnoresDriverError(t *testing.T) {
	conn := &brokenConn{}
	client := NewClickhouseWithConn(conn, nil, nil)
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.Equal(t, 1, conn.closes)
}
