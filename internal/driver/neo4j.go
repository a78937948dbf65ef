package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/genrefreq/internal/config"
	"github.com/agenthands/genrefreq/internal/logging"
	"github.com/agenthands/genrefreq/internal/observability"
)

// Neo4jConnection implements Connection over the official Bolt driver.
// It works against Neo4j and Memgraph alike.
type Neo4jConnection struct {
	target string
	driver neo4j.DriverWithContext

	mu     sync.Mutex
	closed bool
}

// Open creates the driver and verifies connectivity. The driver is closed
// again on any failure so no handle outlives a failed Open.
func Open(ctx context.Context, cfg config.Neo4jConfig) (conn *Neo4jConnection, err error) {
	target := cfg.Target()
	ctx, span := observability.StartSpan(ctx, "genrefreq.Open", observability.AttrTarget.String(target))
	defer func() {
		if err != nil {
			observability.SetSpanError(span, err)
		} else {
			observability.SetSpanOK(span)
		}
		span.End()
	}()

	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{Target: target, Err: err}
	}

	d, err := neo4j.NewDriverWithContext(target, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionAcquisitionTimeout.Duration > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout.Duration
		}
		if cfg.MaxTransactionRetryTime.Duration > 0 {
			c.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime.Duration
		}
	})
	if err != nil {
		return nil, &ConnectionError{Target: target, Err: err}
	}

	verifyCtx := ctx
	if cfg.ConnectTimeout.Duration > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout.Duration)
		defer cancel()
	}

	if err := d.VerifyConnectivity(verifyCtx); err != nil {
		if closeErr := d.Close(ctx); closeErr != nil {
			logging.Op().Warn("close after failed connect",
				"error", &ResourceReleaseError{Resource: "driver", Err: closeErr})
		}
		return nil, &ConnectionError{Target: target, Err: err}
	}

	logging.Op().Info("connected to graph database", "target", target)
	return &Neo4jConnection{target: target, driver: d}, nil
}

func newConnection(target string, d neo4j.DriverWithContext) *Neo4jConnection {
	return &Neo4jConnection{target: target, driver: d}
}

func (c *Neo4jConnection) Target() string {
	return c.target
}

func (c *Neo4jConnection) NewSession(ctx context.Context, database string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &ConnectionError{Target: c.target, Err: ErrConnectionClosed}
	}

	s := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: database,
	})
	return &neo4jSession{session: s}, nil
}

func (c *Neo4jConnection) VerifyConnectivity(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return &ConnectionError{Target: c.target, Err: ErrConnectionClosed}
	}

	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return &ConnectionError{Target: c.target, Err: err}
	}
	return nil
}

// Close releases the pool. Only the first call reaches the driver.
func (c *Neo4jConnection) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.driver.Close(ctx); err != nil {
		return &ResourceReleaseError{Resource: "connection", Err: err}
	}
	return nil
}

type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) ReadRecords(ctx context.Context, query string, params map[string]any, opts ...ReadOption) ([]*neo4j.Record, error) {
	configurers := make([]func(*neo4j.TransactionConfig), 0, len(opts))
	for _, opt := range opts {
		configurers = append(configurers, opt)
	}

	out, err := s.session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		// Collect drains the stream inside the transaction; a mid-stream
		// failure surfaces here and nothing partial escapes.
		return result.Collect(ctx)
	}, configurers...)
	if err != nil {
		return nil, Classify(err)
	}

	records, ok := out.([]*neo4j.Record)
	if !ok {
		return nil, &QueryExecutionError{Err: fmt.Errorf("unexpected transaction result %T", out)}
	}
	return records, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	if err := s.session.Close(ctx); err != nil {
		return &ResourceReleaseError{Resource: "session", Err: err}
	}
	return nil
}

// WithTxTimeout bounds the server-side transaction.
func WithTxTimeout(timeout time.Duration) ReadOption {
	return ReadOption(neo4j.WithTxTimeout(timeout))
}
