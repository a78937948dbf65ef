package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/genrefreq/internal/core/model"
	"github.com/agenthands/genrefreq/internal/driver"
	"github.com/agenthands/genrefreq/internal/logging"
	"github.com/agenthands/genrefreq/internal/metrics"
	"github.com/agenthands/genrefreq/internal/observability"
)

const DefaultDatabase = "neo4j"

// QueryClient runs the genre aggregation against an owned Connection. Each
// call opens and closes its own Session, so a QueryClient is safe for
// concurrent use.
type QueryClient struct {
	conn         driver.Connection
	database     string
	queryTimeout time.Duration
}

type Option func(*QueryClient)

func WithDatabase(name string) Option {
	return func(c *QueryClient) {
		if name != "" {
			c.database = name
		}
	}
}

// WithQueryTimeout bounds each query. Zero keeps the driver's own policy.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *QueryClient) {
		c.queryTimeout = d
	}
}

func NewQueryClient(conn driver.Connection, opts ...Option) *QueryClient {
	c := &QueryClient{
		conn:     conn,
		database: DefaultDatabase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *QueryClient) Database() string {
	return c.database
}

// RunAggregationQuery returns genre frequencies for users in state, highest
// first. The result is never nil; on error no rows are returned.
func (c *QueryClient) RunAggregationQuery(ctx context.Context, state string) (rows []model.GenreFrequency, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "genrefreq.RunAggregationQuery",
		observability.AttrDatabase.String(c.database),
		observability.AttrState.String(state),
	)
	defer func() {
		metrics.RecordQuery(queryStatus(err), time.Since(start), len(rows))
		if err != nil {
			observability.SetSpanError(span, err)
		} else {
			span.SetAttributes(observability.AttrRows.Int(len(rows)))
			observability.SetSpanOK(span)
		}
		span.End()
	}()

	var opts []driver.ReadOption
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
		opts = append(opts, driver.WithTxTimeout(c.queryTimeout))
	}

	session, err := c.conn.NewSession(ctx, c.database)
	if err != nil {
		return nil, driver.Classify(err)
	}
	metrics.SessionOpened()
	defer c.closeSession(ctx, session)

	records, err := session.ReadRecords(ctx, driver.GenreFrequencyQuery, map[string]any{"state": state}, opts...)
	if err != nil {
		return nil, driver.Classify(err)
	}

	rows, err = decodeGenreFrequencies(records)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Genres returns only the genre names, in frequency order.
func (c *QueryClient) Genres(ctx context.Context, state string) ([]string, error) {
	rows, err := c.RunAggregationQuery(ctx, state)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Genre
	}
	return names, nil
}

func (c *QueryClient) Ping(ctx context.Context) error {
	return c.conn.VerifyConnectivity(ctx)
}

// Close releases the Connection. Further queries fail with a ConnectionError.
func (c *QueryClient) Close(ctx context.Context) error {
	if err := c.conn.Close(ctx); err != nil {
		var releaseErr *driver.ResourceReleaseError
		if errors.As(err, &releaseErr) {
			return err
		}
		return &driver.ResourceReleaseError{Resource: "connection", Err: err}
	}
	return nil
}

// closeSession never fails the call: a release error is only logged.
func (c *QueryClient) closeSession(ctx context.Context, session driver.Session) {
	// The query context may already be cancelled; the session must still be returned.
	if err := session.Close(context.WithoutCancel(ctx)); err != nil {
		var releaseErr *driver.ResourceReleaseError
		if !errors.As(err, &releaseErr) {
			err = &driver.ResourceReleaseError{Resource: "session", Err: err}
		}
		logging.Op().Warn("session release failed", "database", c.database, "error", err)
	}
	metrics.SessionClosed()
}

func decodeGenreFrequencies(records []*neo4j.Record) ([]model.GenreFrequency, error) {
	rows := make([]model.GenreFrequency, 0, len(records))
	for i, record := range records {
		// A null genre name is legal data and decodes to "".
		genre, _, err := neo4j.GetRecordValue[string](record, "genre")
		if err != nil {
			return nil, &driver.QueryExecutionError{Err: fmt.Errorf("decode genre of record %d: %w", i, err)}
		}
		freq, isNil, err := neo4j.GetRecordValue[int64](record, "freq")
		if err != nil {
			return nil, &driver.QueryExecutionError{Err: fmt.Errorf("decode freq of record %d: %w", i, err)}
		}
		if isNil {
			return nil, &driver.QueryExecutionError{Err: fmt.Errorf("record %d has null freq", i)}
		}
		rows = append(rows, model.GenreFrequency{Genre: genre, Freq: freq})
	}
	return rows, nil
}

func queryStatus(err error) string {
	if err == nil {
		return metrics.StatusOK
	}
	var connErr *driver.ConnectionError
	if errors.As(err, &connErr) {
		return metrics.StatusConnectionError
	}
	return metrics.StatusQueryError
}
