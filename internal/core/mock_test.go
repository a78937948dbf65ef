package core

import (
	"context"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/genrefreq/internal/driver"
)

// MockConnection counts session acquire/release so tests can check that
// every opened session is closed exactly once.
type MockConnection struct {
	mu sync.Mutex

	Records         []*neo4j.Record
	QueryErr        error
	SessionErr      error
	CloseErr        error
	SessionCloseErr error
	VerifyErr       error

	Opened        int
	SessionClosed int
	Closed        int

	QueryExecuted string
	QueryParams   map[string]any
	Database      string
	Options       int
}

func (m *MockConnection) NewSession(ctx context.Context, database string) (driver.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	m.Opened++
	m.Database = database
	return &MockSession{conn: m}, nil
}

func (m *MockConnection) VerifyConnectivity(ctx context.Context) error {
	return m.VerifyErr
}

func (m *MockConnection) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return m.CloseErr
}

type MockSession struct {
	conn   *MockConnection
	closed bool
}

func (s *MockSession) ReadRecords(ctx context.Context, query string, params map[string]any, opts ...driver.ReadOption) ([]*neo4j.Record, error) {
	m := s.conn
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryExecuted = query
	m.QueryParams = params
	m.Options = len(opts)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.Records, nil
}

func (s *MockSession) Close(ctx context.Context) error {
	m := s.conn
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.closed {
		s.closed = true
		m.SessionClosed++
	}
	return m.SessionCloseErr
}

func genreRecord(genre any, freq any) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"genre", "freq"},
		Values: []any{genre, freq},
	}
}
