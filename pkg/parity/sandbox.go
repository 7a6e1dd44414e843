//go:build parity

// Package parity cross-checks MockDatabase against a disposable real
// PostgreSQL: a testcontainers boot-once-per-process, goose-migrated
// container, with a fresh schema sandboxed per test so concurrent parity
// tests never collide. Gated behind the parity build tag so plain
// `go test ./...` never needs Docker.
package parity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type config struct {
	image    string
	dbName   string
	user     string
	password string
}

var (
	once       sync.Once
	container  *postgres.PostgresContainer
	mu         sync.Mutex
	connString string
	bootErr    error
)

func boot(ctx context.Context) error {
	once.Do(func() {
		cfg := config{
			image:    "docker.io/postgres:16-alpine",
			dbName:   "parity",
			user:     "postgres",
			password: "pass",
		}

		c, err := postgres.Run(ctx,
			cfg.image,
			postgres.WithDatabase(cfg.dbName),
			postgres.WithUsername(cfg.user),
			postgres.WithPassword(cfg.password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			bootErr = err
			return
		}
		container = c

		host, _ := c.Host(ctx)
		port, _ := c.MappedPort(ctx, "5432/tcp")
		connString = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.user, cfg.password, host, port.Port(), cfg.dbName,
		)

		db, err := sql.Open("pgx", connString)
		if err != nil {
			bootErr = err
			return
		}
		defer db.Close()

		sub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			bootErr = err
			return
		}
		goose.SetBaseFS(sub)
		if err := goose.SetDialect("postgres"); err != nil {
			bootErr = err
			return
		}
		if err := goose.Up(db, "."); err != nil {
			bootErr = err
			return
		}
	})
	return bootErr
}

// ShutdownNow tears down the shared container. Call from a package's
// TestMain after m.Run().
func ShutdownNow() error {
	mu.Lock()
	defer mu.Unlock()
	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return container.Terminate(ctx)
}

// sandbox is a throwaway schema on the shared container, torn down on
// t.Cleanup. Every Harness.Check call gets its own sandbox so concurrent
// parity tests don't collide.
type sandbox struct {
	pq     *sql.DB // lib/pq driver
	pgx    *sql.DB // pgx/v5 stdlib driver
	schema string
}

func newSandbox(t *testing.T) *sandbox {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := boot(ctx); err != nil {
		t.Fatalf("parity: container boot failed: %v", err)
	}

	admin, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("parity: open admin: %v", err)
	}
	defer admin.Close()

	schema := fmt.Sprintf("t_%x", randomSeed())
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("parity: create schema: %v", err)
	}

	dsn := withSearchPath(connString, schema)
	pqDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("parity: open lib/pq connection: %v", err)
	}
	pgxDB, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("parity: open pgx connection: %v", err)
	}

	sbx := &sandbox{pq: pqDB, pgx: pgxDB, schema: schema}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dropAdmin, err := sql.Open("pgx", connString)
		if err == nil {
			_, _ = dropAdmin.ExecContext(cleanupCtx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
			_ = dropAdmin.Close()
		}
		_ = pqDB.Close()
		_ = pgxDB.Close()
	})
	return sbx
}

func withSearchPath(base, schema string) string {
	u, _ := url.Parse(base)
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s,public", schema))
	u.RawQuery = q.Encode()
	return u.String()
}

func randomSeed() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}
