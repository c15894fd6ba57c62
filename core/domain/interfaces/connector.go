package interfaces

import (
	"context"

	"github.com/meterscope/meterscope/core/domain"
)

// Connector defines the interface for database connectors
type Connector interface {
	// Execute runs a statement with positional arguments. Elapsed on the
	// returned RowSet covers the query only, not connection acquisition.
	Execute(ctx context.Context, statement string, args ...any) (*domain.RowSet, error)

	// Ping checks connectivity
	Ping(ctx context.Context) error

	// Close closes the connector and releases resources
	Close() error
}

// PoolSet resolves logical database names to connectors
type PoolSet interface {
	// Resolve maps rdb, tsdb, mixed and defaultdb to a connector
	Resolve(database domain.Database) (Connector, error)

	// CloseAll closes every pool in parallel
	CloseAll() error
}
