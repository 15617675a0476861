// Package testutil provides test helpers: scripted random sources and
// PostgreSQL test databases.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/farkle/internal/config"
	"github.com/cory-johannsen/farkle/internal/storage/postgres"
)

// ContainersEnv enables container-backed integration tests when set to "1".
const ContainersEnv = "FARKLE_TEST_CONTAINERS"

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPool returns a migrated pool for integration tests. TEST_DSN selects an
// existing database; otherwise a container is started when ContainersEnv is
// "1". Without either the test is skipped.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if dsn := os.Getenv("TEST_DSN"); dsn != "" {
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			t.Fatalf("connecting to test DB: %v", err)
		}
		t.Cleanup(pool.Close)
		migrateUp(t, dsn)
		return pool
	}
	if os.Getenv(ContainersEnv) != "1" {
		t.Skipf("TEST_DSN not set and %s != 1; skipping integration test", ContainersEnv)
	}
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "farkle_test",
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
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "farkle_test",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}
	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}
	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})
	return pc
}

// ApplyMigrations runs the repository's migrations/ directory against the
// container.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	migrateUp(t, pc.Config.DSN())
}

func migrateUp(t *testing.T, dsn string) {
	t.Helper()
	start := time.Now()
	res, err := postgres.Migrate(dsn, filepath.Join(RepoRoot(t), "migrations"), postgres.Up, 0)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied (version=%d) [%s]", res.Version, time.Since(start))
}

// RepoRoot walks up from the working directory to the module root.
func RepoRoot(t testing.TB) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}
