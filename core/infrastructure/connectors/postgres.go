package connectors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// PoolConfig describes one KWDB connection pool.
type PoolConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSL            bool
	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

// ConnectionString renders cfg as a postgres:// URL understood by pgx.
func (cfg PoolConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	if cfg.SSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	if cfg.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(max(1, int(cfg.ConnectTimeout/time.Second))))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PostgresConnector executes statements on a pgx pool
type PostgresConnector struct {
	name           string
	pool           *pgxpool.Pool
	connectTimeout time.Duration
}

// NewPostgresConnector creates a pool for cfg. The pool connects lazily; a
// failed ping is logged, not returned, so the service can start while the
// database is still coming up.
func NewPostgresConnector(ctx context.Context, name string, cfg PoolConfig) (*PostgresConnector, error) {
	log := logging.New("connector:" + name)
	log.Debugf("Opening connection pool for database %s on %s:%d", cfg.Database, cfg.Host, cfg.Port)

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string for %s: %w", name, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool for %s: %w", name, err)
	}

	c := &PostgresConnector{name: name, pool: pool, connectTimeout: cfg.ConnectTimeout}

	pingCtx, cancel := c.acquireContext(ctx)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Warnf("Database %s not reachable yet: %v", cfg.Database, err)
	} else {
		log.Debugf("Connection pool ready")
	}

	return c, nil
}

func (p *PostgresConnector) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.connectTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.connectTimeout)
}

// Execute acquires a connection, runs statement with positional args and
// releases the connection. Only the query itself is timed.
func (p *PostgresConnector) Execute(ctx context.Context, statement string, args ...any) (*domain.RowSet, error) {
	acquireCtx, cancel := p.acquireContext(ctx)
	conn, err := p.pool.Acquire(acquireCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeConnectionTimeout,
				fmt.Sprintf("timed out acquiring a %s connection after %s", p.name, p.connectTimeout), err)
		}
		return nil, apperrors.ExecutionFailed(err)
	}
	defer conn.Release()

	start := time.Now()
	rows, err := conn.Query(ctx, statement, args...)
	if err != nil {
		return nil, apperrors.ExecutionFailed(err)
	}

	set, err := collectRows(rows)
	if err != nil {
		return nil, apperrors.ExecutionFailed(err)
	}
	set.Elapsed = time.Since(start)
	return set, nil
}

// Ping checks connectivity within the acquisition timeout
func (p *PostgresConnector) Ping(ctx context.Context) error {
	pingCtx, cancel := p.acquireContext(ctx)
	defer cancel()
	return p.pool.Ping(pingCtx)
}

// Stat reports pool occupancy
func (p *PostgresConnector) Stat() PoolStat {
	s := p.pool.Stat()
	return PoolStat{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}
}

// Close closes the database connection pool
func (p *PostgresConnector) Close() error {
	if p.pool != nil {
		log := logging.New("connector:" + p.name)
		log.Debugf("Closing connection pool")
		p.pool.Close()
		log.Debugf("Connection pool closed")
	}
	return nil
}

// PoolStat is a snapshot of pool occupancy.
type PoolStat struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}
