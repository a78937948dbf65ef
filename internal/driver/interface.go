package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Connection is an owned handle to a pool of database links. It must be
// closed exactly once, and NewSession fails after Close.
type Connection interface {
	NewSession(ctx context.Context, database string) (Session, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Session scopes one read transaction against a named database.
type Session interface {
	// ReadRecords runs query in a read transaction and returns every record,
	// or none at all if the transaction fails.
	ReadRecords(ctx context.Context, query string, params map[string]any, opts ...ReadOption) ([]*neo4j.Record, error)
	Close(ctx context.Context) error
}

type ReadOption func(*neo4j.TransactionConfig)
