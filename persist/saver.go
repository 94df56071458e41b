// Package persist binds a ledger.Manager to a storage.BlobStore. The
// manager's in-memory state is the source of truth; persistence is a
// best-effort side channel that may lag or fail without affecting it.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/ledger"
	"bilancio/storage"
)

// Load restores the manager from the store. A missing snapshot means a
// fresh start; a corrupt one is logged and treated as empty state, never
// propagated. Reports whether a snapshot was restored.
func Load(ctx context.Context, store storage.BlobStore, mgr *ledger.Manager, log *slog.Logger) bool {
	if log == nil {
		log = slog.Default()
	}
	blob, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("no stored snapshot, starting fresh")
		return false
	}
	if err != nil {
		log.Warn("failed to load snapshot, starting fresh", "error", err)
		return false
	}
	if err := mgr.Restore(blob); err != nil {
		log.Warn("stored snapshot is corrupt, starting fresh", "error", err)
		return false
	}
	log.Info("ledger state restored", "bytes", len(blob))
	return true
}

// Saver periodically persists the manager's state when it has changed and
// drives the period-expiry check from a timer.
type Saver struct {
	mgr   *ledger.Manager
	store storage.BlobStore
	log   *slog.Logger

	saveInterval   time.Duration
	expiryInterval time.Duration

	mu        sync.Mutex
	lastSaved uint64
}

func NewSaver(mgr *ledger.Manager, store storage.BlobStore, saveInterval, expiryInterval time.Duration, log *slog.Logger) *Saver {
	if log == nil {
		log = slog.Default()
	}
	return &Saver{
		mgr:            mgr,
		store:          store,
		log:            log,
		saveInterval:   saveInterval,
		expiryInterval: expiryInterval,
		lastSaved:      mgr.Revision(),
	}
}

// Run drives the save and expiry loops until the context is cancelled,
// then flushes once more so no applied mutation is lost on shutdown.
func (s *Saver) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(s.saveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := s.Flush(ctx); err != nil {
					// Best effort: state stays correct in memory.
					s.log.Warn("snapshot save failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		s.checkExpiry()
		ticker := time.NewTicker(s.expiryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.checkExpiry()
			}
		}
	})

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := s.Flush(flushCtx); ferr != nil {
		s.log.Warn("final snapshot save failed", "error", ferr)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Flush saves the current state if it changed since the last save.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := s.mgr.Revision()
	if rev == s.lastSaved {
		return nil
	}
	blob, err := s.mgr.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := s.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.lastSaved = rev
	s.log.Debug("snapshot saved", "revision", rev, "bytes", len(blob))
	return nil
}

func (s *Saver) checkExpiry() {
	if s.mgr.CheckExpiry() {
		s.log.Info("active budget period expired and was archived")
	}
}
