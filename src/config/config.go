// Package config collects connection and run settings from flags, CLICKHOUSE_* environment
// variables and an optional TOML file, in that order of priority.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zikwall/clickhouse-bench/src/cx"
	"github.com/zikwall/clickhouse-bench/src/db/cxmock"
	"github.com/zikwall/clickhouse-bench/src/db/cxnative"
	"github.com/zikwall/clickhouse-bench/src/db/cxsql"
)

const EnvPrefix = "CLICKHOUSE"

const (
	DriverNative = "native"
	DriverStd    = "std"
	DriverMock   = "mock"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	Driver      string
	Compression string

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	QueryTimeout time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Debug   bool
	Sampler string

	Sections []string
	Summary  bool
	JSON     bool

	ConfigFile string
}

// New returns the defaults: localhost:9000 as default with an empty password
func New() *Config {
	return &Config{
		Host:            "localhost",
		Port:            9000,
		User:            "default",
		Database:        "default",
		Driver:          DriverNative,
		Compression:     "none",
		DialTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		MaxOpenConns:    21,
		MaxIdleConns:    20,
		ConnMaxLifetime: 5 * time.Minute,
		Sampler:         "process",
	}
}

// AddFlags registers every setting on flags, flag names double as config file keys
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "Path to a TOML configuration file")
	flags.StringVar(&c.Host, "host", c.Host, "Clickhouse host")
	flags.IntVar(&c.Port, "port", c.Port, "Clickhouse native protocol port")
	flags.StringVar(&c.User, "user", c.User, "Clickhouse user")
	flags.StringVar(&c.Password, "password", c.Password, "Clickhouse password")
	flags.StringVar(&c.Database, "database", c.Database, "Clickhouse database")
	flags.StringVar(&c.Driver, "driver", c.Driver, "Client implementation: native, std or mock")
	flags.StringVar(&c.Compression, "compression", c.Compression, "Initial compression: none, lz4 or zstd")
	flags.DurationVar(&c.DialTimeout, "dial-timeout", c.DialTimeout, "Connection dial timeout")
	flags.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "Insert timeout")
	flags.DurationVar(&c.QueryTimeout, "query-timeout", c.QueryTimeout, "Query timeout, zero means unbounded")
	flags.IntVar(&c.MaxOpenConns, "max-open-conns", c.MaxOpenConns, "Maximum open connections of the std driver pool")
	flags.IntVar(&c.MaxIdleConns, "max-idle-conns", c.MaxIdleConns, "Maximum idle connections of the std driver pool")
	flags.DurationVar(&c.ConnMaxLifetime, "conn-max-lifetime", c.ConnMaxLifetime, "Maximum connection lifetime")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Log every failed trial and reconnect")
	flags.StringVar(&c.Sampler, "sampler", c.Sampler, "Memory sampler: process or runtime")
	flags.StringSliceVar(&c.Sections, "sections", c.Sections, "Benchmark sections to run, all when empty")
	flags.BoolVar(&c.Summary, "summary", c.Summary, "Print a summary table at the end")
	flags.BoolVar(&c.JSON, "json", c.JSON, "Print the results as JSON at the end")
}

// Load merges environment variables and the configuration file into flags that were not set
// on the command line. Unknown keys in the configuration file are rejected.
func Load(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read configuration file '%s'", file)
		}
		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = errors.Wrapf(err, "set %s", f.Name)
		}
	})
	return flagErr
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverNative, DriverStd, DriverMock:
	default:
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if _, err := cx.ParseCompression(c.Compression); err != nil {
		return err
	}
	switch c.Sampler {
	case "process", "runtime":
	default:
		return errors.Errorf("unknown memory sampler %q", c.Sampler)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NativeOptions builds the clickhouse-go options shared by the native and std drivers
func (c *Config) NativeOptions() (*clickhouse.Options, error) {
	compression, err := cx.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	options := &clickhouse.Options{
		Addr: []string{c.Addr()},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.User,
			Password: c.Password,
		},
		DialTimeout:     c.DialTimeout,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
	switch compression {
	case cx.CompressionLZ4:
		options.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	case cx.CompressionZSTD:
		options.Compression = &clickhouse.Compression{Method: clickhouse.CompressionZSTD}
	}
	return options, nil
}

func (c *Config) Runtime() *cx.RuntimeOptions {
	return &cx.RuntimeOptions{
		WriteTimeout: c.WriteTimeout,
		QueryTimeout: c.QueryTimeout,
	}
}

// Connector returns the connector of the configured driver
func (c *Config) Connector() (cx.Connector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Driver == DriverMock {
		return cxmock.NewConnector(), nil
	}
	options, err := c.NativeOptions()
	if err != nil {
		return nil, err
	}
	if c.Driver == DriverStd {
		return cxsql.NewConnector(options, c.Runtime(),
			cxsql.WithMaxOpenConns(c.MaxOpenConns),
			cxsql.WithMaxIdleConns(c.MaxIdleConns),
			cxsql.WithConnMaxLifetime(c.ConnMaxLifetime),
		), nil
	}
	return cxnative.NewConnector(options, c.Runtime()), nil
}

// String is the connection line printed at start, the password is never shown
func (c *Config) String() string {
	return fmt.Sprintf("%s@%s/%s (%s driver)", c.User, c.Addr(), c.Database, c.Driver)
}
