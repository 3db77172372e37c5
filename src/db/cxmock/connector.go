package cxmock

import (
	"context"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

// Connector hands out mock clients that share one table catalog
type Connector struct {
	options  []Option
	catalog  *catalog
	connects cx.Countable
	closes   cx.Countable
	fail     func(n uint64) error
}

func NewConnector(options ...Option) *Connector {
	return &Connector{
		options:  options,
		catalog:  newCatalog(),
		connects: cx.NewCounter(),
		closes:   cx.NewCounter(),
	}
}

// FailConnect injects an error into the n-th (1-based) Connect call
func (c *Connector) FailConnect(fn func(n uint64) error) *Connector {
	c.fail = fn
	return c
}

func (c *Connector) Connect(_ context.Context) (cx.Client, error) {
	n := c.connects.Inc()
	if c.fail != nil {
		if err := c.fail(n); err != nil {
			return nil, err
		}
	}
	options := append([]Option{withCatalog(c.catalog)}, c.options...)
	client := NewClient(options...)
	client.onClose = func() {
		c.closes.Inc()
	}
	return client, nil
}

// Connects returns the number of Connect attempts, failed ones included
func (c *Connector) Connects() uint64 {
	return c.connects.Val()
}

// Closes returns the number of clients closed
func (c *Connector) Closes() uint64 {
	return c.closes.Val()
}
