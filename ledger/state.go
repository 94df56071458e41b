package ledger

import (
	"encoding/json"
	"fmt"
)

// Snapshot serializes the full ledger state as one JSON document.
func (m *Manager) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, err := json.Marshal(m.state)
	if err != nil {
		return nil, fmt.Errorf("marshal ledger state: %w", err)
	}
	return blob, nil
}

// Restore replaces the ledger state with a previously persisted snapshot.
// Older persisted shapes are migrated forward by normalizeState before
// use. A malformed blob returns an error and leaves the state untouched.
func (m *Manager) Restore(blob []byte) error {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return fmt.Errorf("unmarshal ledger state: %w", err)
	}
	normalizeState(&s)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.rev++
	return nil
}

// normalizeState is the single load-time migration: it upgrades any older
// persisted shape into the current one. Missing containers are
// synthesized, the fixed category set is guaranteed present, and every
// cached stat is recomputed from the transaction log, which both repairs
// legacy data (shapes without count, others, or the lrt extras) and
// re-establishes the aggregate invariant.
func normalizeState(s *State) {
	if s.Archive == nil {
		s.Archive = []ArchivedPeriod{}
	}
	normalizePeriod(s.ActivePeriod)
	for i := range s.Archive {
		normalizePeriod(&s.Archive[i].Period)
		if s.Archive[i].Status == "" {
			s.Archive[i].Status = StatusIncomplete
		}
	}
	s.SchemaVersion = SchemaVersion
}

func normalizePeriod(p *Period) {
	if p == nil {
		return
	}
	if p.Categories == nil {
		p.Categories = map[string]*CategoryStat{}
	}
	for _, c := range FixedCategories {
		if p.Categories[c] == nil {
			p.Categories[c] = &CategoryStat{}
		}
	}
	if p.Transactions == nil {
		p.Transactions = []Transaction{}
	}
	rebuildStats(p)
}

// rebuildStats recomputes spent/count/trips/saved for every category from
// the transaction log. Budget allocations are the only stat field that is
// not derivable, so they are preserved.
func rebuildStats(p *Period) {
	for _, stat := range p.Categories {
		stat.Spent = 0
		stat.Count = 0
		stat.Trips = 0
		stat.Saved = 0
	}
	for i := range p.Transactions {
		t := &p.Transactions[i]
		if t.Type == TypeExpense && t.FullAmount == 0 {
			// Pre-2.0 expenses carried only the applied amount.
			t.FullAmount = t.Amount + t.SavedAmount
		}
		stat := p.Categories[t.Category]
		if stat == nil {
			stat = &CategoryStat{}
			p.Categories[t.Category] = stat
		}
		stat.Spent += t.Amount
		stat.Count++
		if t.Category == CategoryLRT && t.SavedAmount > 0 {
			stat.Saved += t.SavedAmount
			stat.Trips++
		}
	}
}
