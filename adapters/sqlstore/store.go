package sqlstore

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"phmagent/internal/config"
	"phmagent/internal/errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DSN builds the driver-specific connection string.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.URL != "" {
			return cfg.URL, nil
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:   "/" + cfg.Name,
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		q := url.Values{}
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
		return u.String(), nil

	case config.DriverMySQL:
		var mc *mysql.Config
		if cfg.URL != "" {
			parsed, err := mysql.ParseDSN(cfg.URL)
			if err != nil {
				return "", errors.Wrap(err, "invalid DATABASE_URL for mysql")
			}
			mc = parsed
		} else {
			mc = mysql.NewConfig()
			mc.User = cfg.User
			mc.Passwd = cfg.Password
			mc.Net = "tcp"
			mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
			mc.DBName = cfg.Name
		}
		// Time columns must scan as time.Time.
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	}
	return "", errors.ConfigInvalid(fmt.Sprintf("unsupported driver %q", cfg.Driver))
}

// Open connects to the configured database and returns the matching dialect.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, errors.ConfigInvalid(err.Error())
	}
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, nil, errors.DatabaseError("failed to connect to database", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, dialect, nil
}
