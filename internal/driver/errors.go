package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var ErrConnectionClosed = errors.New("connection already closed")

// ConnectionError reports an unreachable endpoint, rejected credentials, or use
// of a released Connection.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("graph connection failed: %v", e.Err)
	}
	return fmt.Sprintf("graph connection to %s failed: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryExecutionError reports a query the server rejected or whose records
// could not be decoded.
type QueryExecutionError struct {
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// ResourceReleaseError reports a failed Close. It is logged, never returned in
// place of a query result.
type ResourceReleaseError struct {
	Resource string
	Err      error
}

func (e *ResourceReleaseError) Error() string {
	return fmt.Sprintf("failed to release %s: %v", e.Resource, e.Err)
}

func (e *ResourceReleaseError) Unwrap() error { return e.Err }

// Classify maps a driver error onto ConnectionError or QueryExecutionError.
// Errors that already carry one of those types pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var connErr *ConnectionError
	var queryErr *QueryExecutionError
	if errors.As(err, &connErr) || errors.As(err, &queryErr) {
		return err
	}

	var connectivityErr *neo4j.ConnectivityError
	if errors.As(err, &connectivityErr) {
		return &ConnectionError{Err: err}
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security.") {
		return &ConnectionError{Err: err}
	}

	return &QueryExecutionError{Err: err}
}
