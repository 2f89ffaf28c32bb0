package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/testnetstats/internal/config"
	"github.com/gyeh/testnetstats/internal/db"
	"github.com/gyeh/testnetstats/internal/logging"
	"github.com/gyeh/testnetstats/internal/store"
)

const (
	testPort     = 15433
	testDB       = "netstatstest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("NETSTATS_PG_INTEGRATION") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set NETSTATS_PG_INTEGRATION=1 to run Postgres tests")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB connects, drops previous state and applies migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, stmt := range []string{
		"DROP SCHEMA IF EXISTS upload CASCADE",
		"DROP TABLE IF EXISTS public.netstats_migrations",
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	log := logging.Setup("text", "warn")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

const divider = "=========================================="

// writeLog writes a single-node log with one successful and one failed attempt.
func writeLog(t *testing.T) string {
	t.Helper()
	chunk := func(n int) string { return fmt.Sprintf("%064x", n) }
	lines := []string{
		"Jan 15 10:00:00 " + divider,
		"Jan 15 10:00:00 Uploading Content",
		"Jan 15 10:00:01 File/Directory: /data/a.bin",
		"Jan 15 10:00:01 Size: 2048KB",
		"Jan 15 10:00:02 Processing estimated total 2 chunks",
		"Jan 15 10:00:03 (1/2) Chunk stored at: " + chunk(1),
		"Jan 15 10:00:03 (2/2) Chunk stored at: " + chunk(2),
		"Jan 15 10:00:04 Successfully uploaded: a.bin",
		"Jan 15 10:00:04 At address: abcdef0123",
		"Jan 15 10:00:04 Elapsed time: 90.5 seconds",
		"Jan 15 11:00:00 " + divider,
		"Jan 15 11:00:00 Uploading Content",
		"Jan 15 11:00:01 File/Directory: b.bin",
		"Jan 15 11:00:01 Size: 512KB",
		"Jan 15 11:00:02 Processing estimated total 4 chunks",
		"Jan 15 11:00:03 (1/4) Chunk stored at: " + chunk(3),
		"Jan 15 11:00:05 Failed to upload b.bin",
		"Jan 15 11:00:05 Elapsed time: 30 seconds",
	}
	path := filepath.Join(t.TempDir(), "client.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newConfig(logPath string) *config.Config {
	return &config.Config{LogPath: logPath, PaymentType: "single-node"}
}

func TestRun_LoadsAttempts(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text", "warn")

	summary, err := store.Run(ctx, pool, log, newConfig(writeLog(t)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.AlreadyLoaded {
		t.Fatal("first load reported AlreadyLoaded")
	}
	if summary.Attempts != 2 || summary.Successful != 1 || summary.Failed != 1 || summary.RowsStaged != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var status string
	var successful, totalChunks, successfulChunks int64
	err = pool.QueryRow(ctx,
		"SELECT status, successful, total_chunks, successful_chunks FROM upload.runs WHERE run_id = $1",
		uuid.MustParse(summary.RunID),
	).Scan(&status, &successful, &totalChunks, &successfulChunks)
	if err != nil {
		t.Fatalf("query run: %v", err)
	}
	if status != "loaded" || successful != 1 || totalChunks != 6 || successfulChunks != 3 {
		t.Errorf("run row: status=%s successful=%d total=%d stored=%d", status, successful, totalChunks, successfulChunks)
	}

	var name string
	var address *string
	err = pool.QueryRow(ctx,
		"SELECT file_name, address FROM upload.attempts WHERE run_id = $1 AND seq = 2",
		uuid.MustParse(summary.RunID),
	).Scan(&name, &address)
	if err != nil {
		t.Fatalf("query attempt: %v", err)
	}
	if name != "b.bin" || address != nil {
		t.Errorf("second attempt: name=%q address=%v", name, address)
	}
}

func TestRun_SkipsAlreadyLoaded(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text", "warn")
	path := writeLog(t)

	first, err := store.Run(ctx, pool, log, newConfig(path))
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := store.Run(ctx, pool, log, newConfig(path))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.AlreadyLoaded {
		t.Fatal("second load was not skipped")
	}
	if second.RunID != first.RunID {
		t.Errorf("run id changed: %s -> %s", first.RunID, second.RunID)
	}
}

func TestRun_ForceReloads(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text", "warn")
	path := writeLog(t)

	first, err := store.Run(ctx, pool, log, newConfig(path))
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	cfg := newConfig(path)
	cfg.Force = true
	second, err := store.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if second.AlreadyLoaded || second.RunID != first.RunID {
		t.Fatalf("forced reload: %+v", second)
	}
	n, err := store.CountAttempts(ctx, pool, uuid.MustParse(second.RunID))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 attempts after reload, got %d", n)
	}
}

func TestRun_PaymentTypesAreSeparateRuns(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text", "warn")
	path := writeLog(t)

	single, err := store.Run(ctx, pool, log, newConfig(path))
	if err != nil {
		t.Fatal(err)
	}
	cfg := newConfig(path)
	cfg.PaymentType = "merkle"
	merkle, err := store.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if merkle.AlreadyLoaded || merkle.RunID == single.RunID {
		t.Fatalf("merkle run should be new: %+v", merkle)
	}
}

func TestRun_MissingLogIsPreflightError(t *testing.T) {
	pool := setupDB(t)
	log := logging.Setup("text", "warn")

	_, err := store.Run(context.Background(), pool, log, newConfig(filepath.Join(t.TempDir(), "nope.log")))
	var pe *store.PipelineError
	if !errors.As(err, &pe) || pe.Phase != "preflight" {
		t.Fatalf("expected preflight PipelineError, got %v", err)
	}
}
