package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	var connErr *ConnectionError
	var queryErr *QueryExecutionError

	err := Classify(fmt.Errorf("routing: %w", &neo4j.ConnectivityError{Inner: errors.New("connection refused")}))
	assert.ErrorAs(t, err, &connErr)

	err = Classify(&neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"})
	assert.ErrorAs(t, err, &connErr)

	err = Classify(&neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "Invalid input"})
	assert.ErrorAs(t, err, &queryErr)
	assert.Contains(t, err.Error(), "Invalid input")

	err = Classify(context.DeadlineExceeded)
	assert.ErrorAs(t, err, &queryErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassify_KeepsTaxonomy(t *testing.T) {
	original := &ConnectionError{Target: "bolt://x:1", Err: ErrConnectionClosed}
	wrapped := fmt.Errorf("open session: %w", original)

	assert.Same(t, wrapped, Classify(wrapped))
	assert.ErrorIs(t, Classify(wrapped), ErrConnectionClosed)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "graph connection to bolt://db:7687 failed: boom",
		(&ConnectionError{Target: "bolt://db:7687", Err: errors.New("boom")}).Error())
	assert.Equal(t, "graph connection failed: boom",
		(&ConnectionError{Err: errors.New("boom")}).Error())
	assert.Equal(t, "failed to release session: boom",
		(&ResourceReleaseError{Resource: "session", Err: errors.New("boom")}).Error())
}
