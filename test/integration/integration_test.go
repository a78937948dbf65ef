//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/genrefreq/internal/config"
	"github.com/agenthands/genrefreq/internal/core"
	"github.com/agenthands/genrefreq/internal/core/model"
	"github.com/agenthands/genrefreq/internal/driver"
)

const seedQuery = `
	UNWIND $views AS v
	MERGE (u:User {uid: v.user})
	SET u.state = $state
	MERGE (m:Movie {uid: v.movie})
	MERGE (g:Genre {name: v.genre})
	MERGE (u)-[:WATCHED]->(m)
	MERGE (m)-[:HAS]->(g)
`

func loadConfig(t *testing.T) config.Neo4jConfig {
	t.Helper()
	_ = godotenv.Load("../../.env")

	if os.Getenv("NEO4J_URI") == "" {
		t.Skip("Skipping integration test: NEO4J_URI not set")
	}
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv())
	return cfg.Neo4j
}

// seed writes a small watch graph under a unique state and removes it afterwards.
func seed(t *testing.T, cfg config.Neo4jConfig, state string, views []map[string]any) {
	t.Helper()
	ctx := context.Background()

	d, err := neo4j.NewDriverWithContext(cfg.Target(), neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = neo4j.ExecuteQuery(ctx, d,
			`MATCH (u:User {state: $state})-[:WATCHED]->(m)
			 OPTIONAL MATCH (m)-[:HAS]->(g:Genre)
			 DETACH DELETE u, m, g`,
			map[string]any{"state": state}, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(cfg.Database))
		d.Close(ctx)
	})

	_, err = neo4j.ExecuteQuery(ctx, d, seedQuery,
		map[string]any{"state": state, "views": views},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(cfg.Database))
	require.NoError(t, err)
}

func view(user, movie, genre string) map[string]any {
	return map[string]any{"user": user, "movie": movie, "genre": genre}
}

func TestGenreFrequencies(t *testing.T) {
	cfg := loadConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	state := "test-state-" + uuid.New().String()
	comedy := "Comedy-" + state
	drama := "Drama-" + state
	seed(t, cfg, state, []map[string]any{
		view(state+"-u1", state+"-m1", comedy),
		view(state+"-u1", state+"-m2", comedy),
		view(state+"-u2", state+"-m3", comedy),
		view(state+"-u2", state+"-m4", drama),
	})

	conn, err := driver.Open(ctx, cfg)
	require.NoError(t, err)
	client := core.NewQueryClient(conn, core.WithDatabase(cfg.Database))
	defer client.Close(context.Background())

	rows, err := client.RunAggregationQuery(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, []model.GenreFrequency{
		{Genre: comedy, Freq: 3},
		{Genre: drama, Freq: 1},
	}, rows)

	again, err := client.RunAggregationQuery(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, rows, again)

	empty, err := client.RunAggregationQuery(ctx, "no-such-state-"+uuid.New().String())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, client.Ping(ctx))
}

func TestWrongCredentials(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Password = "definitely-not-the-password"

	conn, err := driver.Open(context.Background(), cfg)

	var connErr *driver.ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Nil(t, conn)
}

func TestQueryAfterClose(t *testing.T) {
	cfg := loadConfig(t)
	ctx := context.Background()

	conn, err := driver.Open(ctx, cfg)
	require.NoError(t, err)
	client := core.NewQueryClient(conn, core.WithDatabase(cfg.Database))
	require.NoError(t, client.Close(ctx))

	_, err = client.RunAggregationQuery(ctx, "Texas")
	assert.ErrorIs(t, err, driver.ErrConnectionClosed)
}
