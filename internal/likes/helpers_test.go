package likes_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
)

// getSharedTestDatabase returns a shared database pool for all tests in this
// package. Reusing one container keeps the suite fast; each test works in its
// own uniquely named counter table.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:16-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("could not connect to database: %v", err)
		}

		testPool = pool
	})

	return testPool
}

// createCounterTable provisions a counter table with the schema the embedded
// migration creates, quoted the same way the repository quotes it.
func createCounterTable(t *testing.T, pool *pgxpool.Pool, table string) {
	t.Helper()
	sql := fmt.Sprintf(
		`CREATE TABLE %s (item_key TEXT PRIMARY KEY, count BIGINT NOT NULL DEFAULT 0 CHECK (count >= 0))`,
		pgx.Identifier{table}.Sanitize(),
	)
	_, err := pool.Exec(context.Background(), sql)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(),
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pgx.Identifier{table}.Sanitize()))
	})
}

// randomTable generates a unique table name per test.
func randomTable(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err)
	return fmt.Sprintf("likes_%x", n.Int64())
}
