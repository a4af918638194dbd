package repo

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

func TestOpenSQLite_MissingDirectory(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "cache.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	if !strings.Contains(err.Error(), "database directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenSQLite_PragmasPoolAndSchema(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var journal string
	if err := db.Raw("PRAGMA journal_mode").Row().Scan(&journal); err != nil || strings.ToLower(journal) != "wal" {
		t.Fatalf("journal_mode = %q, %v", journal, err)
	}
	for pragma, want := range map[string]int{"foreign_keys": 1, "busy_timeout": 5000} {
		var got int
		if err := db.Raw("PRAGMA "+pragma).Row().Scan(&got); err != nil || got != want {
			t.Fatalf("%s = %d, %v; want %d", pragma, got, err, want)
		}
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != maxOpenConns {
		t.Fatalf("MaxOpenConnections = %d", got)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}

	el := &domain.Element{ID: "base_water", NameCN: "水", NameEN: "Water", Emoji: "💧", IsBase: true, DiscoveredAt: time.Now().UTC()}
	if err := db.Create(el).Error; err != nil {
		t.Fatalf("insert element: %v", err)
	}
	if err := db.Create(&domain.Element{ID: "base_water", NameEN: "Again"}).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected translated duplicate key, got %v", err)
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("a.db"); !strings.HasPrefix(got, "a.db?_pragma=") || !strings.Contains(got, "_pragma=busy_timeout(5000)") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := withPragmas("file:x?mode=memory"); !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	ql := newQueryLogger(zerolog.New(&buf), 50*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	expect := func(name string, wants ...string) {
		t.Helper()
		out := buf.String()
		buf.Reset()
		if len(wants) == 0 && out != "" {
			t.Fatalf("%s: expected no output, got %s", name, out)
		}
		for _, w := range wants {
			if !strings.Contains(out, w) {
				t.Fatalf("%s: missing %s in %s", name, w, out)
			}
		}
	}

	// Default level is warn: fast queries and not-found lookups stay quiet.
	ql.Trace(ctx, time.Now(), sql, nil)
	ql.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	expect("quiet")

	ql.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	expect("slow", `"level":"warn"`, `"slow":true`)

	ql.Trace(ctx, time.Now(), sql, errors.New("disk I/O error"))
	expect("error", `"level":"error"`, `"sql":"SELECT 1"`)

	ql.LogMode(logger.Silent).Trace(ctx, time.Now(), sql, errors.New("ignored"))
	expect("silent")

	ql.LogMode(logger.Info).Trace(ctx, time.Now(), sql, nil)
	expect("info", `"level":"debug"`)

	// A request-scoped logger in ctx wins over the base logger.
	var reqBuf bytes.Buffer
	reqLog := zerolog.New(&reqBuf).With().Str("request_id", "rid-1").Logger()
	ql.Warn(reqLog.WithContext(ctx), "pool %s", "exhausted")
	expect("ctx logger")
	if out := reqBuf.String(); !strings.Contains(out, `"request_id":"rid-1"`) || !strings.Contains(out, "pool exhausted") {
		t.Fatalf("request logger not used: %s", out)
	}
}
