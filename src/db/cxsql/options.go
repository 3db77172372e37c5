package cxsql

import "time"

const (
	defaultMaxIdleConns    = 20
	defaultMaxOpenConns    = 21
	defaultConnMaxLifetime = time.Minute * 5
)

type PoolOptions struct {
	maxIdleConns    int
	maxOpenConns    int
	connMaxLifetime time.Duration
}

type Option func(e *PoolOptions)

// WithMaxIdleConns set `maxIdleConns` to PoolOptions
func WithMaxIdleConns(maxIdleConns int) Option {
	return func(opt *PoolOptions) {
		opt.maxIdleConns = maxIdleConns
	}
}

// WithMaxOpenConns set `maxOpenConns` to PoolOptions
func WithMaxOpenConns(maxOpenConns int) Option {
	return func(opt *PoolOptions) {
		opt.maxOpenConns = maxOpenConns
	}
}

// WithConnMaxLifetime set `connMaxLifetime` to PoolOptions
func WithConnMaxLifetime(connMaxLifetime time.Duration) Option {
	return func(opt *PoolOptions) {
		opt.connMaxLifetime = connMaxLifetime
	}
}

func newPoolOptions(options ...Option) *PoolOptions {
	opt := &PoolOptions{
		maxIdleConns:    defaultMaxIdleConns,
		maxOpenConns:    defaultMaxOpenConns,
		connMaxLifetime: defaultConnMaxLifetime,
	}
	for _, option := range options {
		option(opt)
	}
	return opt
}
