// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"game_theory_arena/internal/db"
	"game_theory_arena/migrations"
)

type PostgresContainer struct {
	container testcontainers.Container
	Pool      *pgxpool.Pool
	DSN       string
}

// NewPostgresContainer starts postgres, applies the embedded migrations and
// returns a connected pool. Skips under -short. Requires Docker.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}

	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "arena",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%d/arena?sslmode=disable", host, port.Int())

	if err := migrations.Up(dsn); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("applying migrations: %v", err)
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Logf("postgres container ready [%s]", time.Since(start))

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return &PostgresContainer{container: container, Pool: pool, DSN: dsn}
}
