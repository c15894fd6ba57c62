package connectors

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// PhysicalDatabases are the KWDB databases a pool is opened for.
var PhysicalDatabases = []domain.Database{
	domain.DatabaseRelational,
	domain.DatabaseTimeSeries,
	domain.DatabaseDefault,
}

// PoolSet owns one connector per physical database
type PoolSet struct {
	connectors map[domain.Database]interfaces.Connector
	mu         sync.RWMutex
}

// NewPoolSet wraps already opened connectors, keyed by physical database.
func NewPoolSet(conns map[domain.Database]interfaces.Connector) *PoolSet {
	m := make(map[domain.Database]interfaces.Connector, len(conns))
	maps.Copy(m, conns)
	return &PoolSet{connectors: m}
}

// OpenPoolSet opens the rdb, tsdb and defaultdb pools in parallel. base
// supplies everything but the database name. If any pool fails, the ones
// already opened are closed.
func OpenPoolSet(ctx context.Context, base PoolConfig) (*PoolSet, error) {
	log := logging.New("connector")
	log.Debugf("Initializing %d pool(s)", len(PhysicalDatabases))

	set := NewPoolSet(nil)
	g, gctx := errgroup.WithContext(ctx)

	for _, db := range PhysicalDatabases {
		g.Go(func() error {
			cfg := base
			cfg.Database = db.String()

			conn, err := NewPostgresConnector(gctx, db.String(), cfg)
			if err != nil {
				return fmt.Errorf("pool '%s': %w", db, err)
			}

			set.mu.Lock()
			set.connectors[db] = conn
			set.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("Initialization failed, closing all pools: %v", err)
		_ = set.CloseAll()
		return nil, err
	}

	log.Debugf("All pools initialized")
	return set, nil
}

// Resolve maps a logical database name onto its pool
func (s *PoolSet) Resolve(database domain.Database) (interfaces.Connector, error) {
	physical := database
	switch database {
	case domain.DatabaseRelational, domain.DatabaseTimeSeries, domain.DatabaseDefault:
	case domain.DatabaseMixed:
		physical = domain.DatabaseDefault
	default:
		return nil, apperrors.UnknownDatabase(database.String())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.connectors[physical]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInternalError,
			fmt.Sprintf("no pool configured for database '%s'", physical), nil)
	}
	return conn, nil
}

// Stats reports occupancy for every pool that exposes it
func (s *PoolSet) Stats() map[domain.Database]PoolStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Database]PoolStat, len(s.connectors))
	for db, conn := range s.connectors {
		if pc, ok := conn.(*PostgresConnector); ok {
			out[db] = pc.Stat()
		}
	}
	return out
}

// CloseAll closes all pools in parallel
func (s *PoolSet) CloseAll() error {
	s.mu.Lock()
	conns := s.connectors
	s.connectors = make(map[domain.Database]interfaces.Connector)
	s.mu.Unlock()

	if len(conns) == 0 {
		return nil
	}

	log := logging.New("connector")
	log.Debugf("Closing %d pool(s)", len(conns))

	var wg sync.WaitGroup
	errChan := make(chan error, len(conns))
	for db, conn := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := conn.Close(); err != nil {
				errChan <- fmt.Errorf("pool '%s': %w", db, err)
			}
		}()
	}
	wg.Wait()
	close(errChan)

	return collectErrors(errChan)
}

func collectErrors(errChan <-chan error) error {
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
