package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bilancio/config"
	"bilancio/ledger"
	"bilancio/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore always errors, to exercise the best-effort save path.
type failingStore struct{}

func (failingStore) Save(context.Context, []byte) error { return errors.New("disk full") }
func (failingStore) Load(context.Context) ([]byte, error) {
	return nil, errors.New("read error")
}
func (failingStore) Close() error { return nil }

func TestLoad(t *testing.T) {
	t.Run("missing snapshot starts fresh", func(t *testing.T) {
		mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
		if Load(context.Background(), memory.New(), mgr, discardLogger()) {
			t.Fatal("Load reported success for an empty store")
		}
		if mgr.ActivePeriod() != nil {
			t.Fatal("fresh manager has an active period")
		}
	})

	t.Run("corrupt snapshot starts fresh", func(t *testing.T) {
		store := memory.New()
		store.Save(context.Background(), []byte("{corrupt"))
		mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
		if Load(context.Background(), store, mgr, discardLogger()) {
			t.Fatal("Load reported success for a corrupt snapshot")
		}
	})

	t.Run("io failure starts fresh", func(t *testing.T) {
		mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
		if Load(context.Background(), failingStore{}, mgr, discardLogger()) {
			t.Fatal("Load reported success for a failing store")
		}
	})

	t.Run("valid snapshot restored", func(t *testing.T) {
		src := ledger.NewManager(ledger.WithLogger(discardLogger()))
		if _, err := src.CreatePeriod("July", "2024-07-01", "2024-07-31", "10000"); err != nil {
			t.Fatalf("CreatePeriod: %v", err)
		}
		blob, err := src.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		store := memory.New()
		store.Save(context.Background(), blob)

		mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
		if !Load(context.Background(), store, mgr, discardLogger()) {
			t.Fatal("Load reported failure for a valid snapshot")
		}
		if p := mgr.ActivePeriod(); p == nil || p.Name != "July" {
			t.Fatalf("restored period = %+v", p)
		}
	})
}

func TestSaverFlush(t *testing.T) {
	mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
	store := memory.New()
	saver := NewSaver(mgr, store, time.Second, time.Hour, discardLogger())
	ctx := context.Background()

	// Nothing changed yet: flush is a no-op and stores nothing.
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := store.Load(ctx); err == nil {
		t.Fatal("no-op flush wrote a snapshot")
	}

	if _, err := mgr.CreatePeriod("July", "2024-07-01", "2024-07-31", "10000"); err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	blob, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored := ledger.NewManager(ledger.WithLogger(discardLogger()))
	if err := restored.Restore(blob); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if p := restored.ActivePeriod(); p == nil || p.Name != "July" {
		t.Fatalf("persisted period = %+v", p)
	}
}

func TestSaverFlushFailureKeepsState(t *testing.T) {
	mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
	saver := NewSaver(mgr, failingStore{}, time.Second, time.Hour, discardLogger())

	if _, err := mgr.CreatePeriod("July", "2024-07-01", "2024-07-31", "10000"); err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if err := saver.Flush(context.Background()); err == nil {
		t.Fatal("Flush should surface the store error")
	}
	// In-memory state is untouched by persistence failures.
	if p := mgr.ActivePeriod(); p == nil || p.Name != "July" {
		t.Fatalf("state lost after failed flush: %+v", p)
	}
}

func TestSaverRunFlushesOnShutdown(t *testing.T) {
	mgr := ledger.NewManager(ledger.WithLogger(discardLogger()))
	store := memory.New()
	saver := NewSaver(mgr, store, time.Hour, time.Hour, discardLogger())

	if _, err := mgr.CreatePeriod("July", "2024-07-01", "2024-07-31", "10000"); err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- saver.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	// The interval never fired, so the snapshot came from the final flush.
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("shutdown flush missing: %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{StorageBackend: config.MemoryBackend}
		store, err := OpenStore(cfg, discardLogger())
		if err != nil {
			t.Fatalf("OpenStore: %v", err)
		}
		defer store.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			StorageBackend: config.SQLiteBackend,
			SQLiteDBPath:   t.TempDir() + "/bilancio.db",
		}
		store, err := OpenStore(cfg, discardLogger())
		if err != nil {
			t.Fatalf("OpenStore: %v", err)
		}
		defer store.Close()
		if err := store.Save(context.Background(), []byte(`{}`)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := OpenStore(&config.Config{StorageBackend: "redis"}, discardLogger()); err == nil {
			t.Fatal("unknown backend accepted")
		}
	})
}
