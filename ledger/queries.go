package ledger

import (
	"fmt"
	"sort"
)

type (
	// Summary is the headline view of the active period.
	Summary struct {
		TotalBudget     int64   `json:"totalBudget"`
		TotalSpent      int64   `json:"totalSpent"`
		Remaining       int64   `json:"remaining"`
		PercentageSpent float64 `json:"percentageSpent"`
		AddedMoney      int64   `json:"addedMoney"`
	}

	// CategoryShare is one row of the category breakdown.
	CategoryShare struct {
		Name       string  `json:"name"`
		Budget     int64   `json:"budget"`
		Spent      int64   `json:"spent"`
		Remaining  int64   `json:"remaining"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	// DailySummary aggregates one day's expenses.
	DailySummary struct {
		Date         string           `json:"date"`
		Total        int64            `json:"total"`
		Transactions []Transaction    `json:"transactions"`
		ByCategory   map[string]int64 `json:"byCategory"`
	}

	// Filter narrows FilterTransactions. Zero fields match everything;
	// date bounds are inclusive.
	Filter struct {
		Category string
		Type     string
		DateFrom string
		DateTo   string
	}

	// ArchiveStats summarizes the closed-out periods.
	ArchiveStats struct {
		TotalSaved      int64 `json:"totalSaved"`
		TotalBudgets    int   `json:"totalBudgets"`
		AvgSavings      int64 `json:"avgSavings"`
		CompletedCount  int   `json:"completedCount"`
		IncompleteCount int   `json:"incompleteCount"`
	}

	// Report bundles everything a printable spending report needs.
	Report struct {
		BudgetName   string          `json:"budgetName"`
		Period       string          `json:"period"`
		Summary      Summary         `json:"summary"`
		Categories   []CategoryShare `json:"categories"`
		Biggest      *CategoryShare  `json:"biggestExpense,omitempty"`
		Transactions []Transaction   `json:"transactions"`
	}
)

// ActivePeriod returns a copy of the active period, or nil.
func (m *Manager) ActivePeriod() *Period {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePeriod(m.state.ActivePeriod)
}

// Archive returns a copy of the archived periods, most recent first.
func (m *Manager) Archive() []ArchivedPeriod {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ArchivedPeriod, len(m.state.Archive))
	for i := range m.state.Archive {
		out[i] = m.state.Archive[i]
		out[i].Period = *clonePeriod(&m.state.Archive[i].Period)
	}
	return out
}

// TotalSpent sums spending across all categories except the income
// sentinel. Zero without an active period.
func (m *Manager) TotalSpent() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.ActivePeriod == nil {
		return 0
	}
	return totalSpentOf(m.state.ActivePeriod)
}

// Summary returns the headline numbers for the active period, or nil.
func (m *Manager) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return nil
	}
	spent := totalSpentOf(p)
	var pct float64
	if p.TotalBudget > 0 {
		pct = float64(spent) / float64(p.TotalBudget) * 100
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
	}
	return &Summary{
		TotalBudget:     p.TotalBudget,
		TotalSpent:      spent,
		Remaining:       p.TotalBudget - spent,
		PercentageSpent: pct,
		AddedMoney:      p.AddedMoney,
	}
}

// CategoryBreakdown lists every expense category with spending, sorted by
// spent descending. Equal spending is broken lexicographically by key so
// the order is deterministic.
func (m *Manager) CategoryBreakdown() []CategoryShare {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return []CategoryShare{}
	}
	totalSpent := totalSpentOf(p)

	out := make([]CategoryShare, 0, len(p.Categories))
	for name, stat := range p.Categories {
		if name == CategoryAddedMoney || stat.Spent <= 0 {
			continue
		}
		share := CategoryShare{
			Name:      name,
			Budget:    stat.Budget,
			Spent:     stat.Spent,
			Remaining: stat.Budget - stat.Spent,
			Count:     stat.Count,
		}
		if totalSpent > 0 {
			share.Percentage = float64(stat.Spent) / float64(totalSpent) * 100
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BiggestExpenseCategory returns the top breakdown row, or nil when
// nothing has been spent.
func (m *Manager) BiggestExpenseCategory() *CategoryShare {
	breakdown := m.CategoryBreakdown()
	if len(breakdown) == 0 {
		return nil
	}
	return &breakdown[0]
}

// DailySpending aggregates the expenses attributed to an exact date.
func (m *Manager) DailySpending(date string) DailySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := DailySummary{
		Date:         date,
		Transactions: []Transaction{},
		ByCategory:   map[string]int64{},
	}
	p := m.state.ActivePeriod
	if p == nil {
		return out
	}
	for _, t := range p.Transactions {
		if t.Type != TypeExpense || t.Date != date {
			continue
		}
		out.Total += t.Amount
		out.ByCategory[t.Category] += t.Amount
		out.Transactions = append(out.Transactions, t)
	}
	sortByTimestampDesc(out.Transactions)
	return out
}

// FilterTransactions returns the transactions matching every set filter
// field, newest first. Date bounds compare ISO strings, which is
// chronological.
func (m *Manager) FilterTransactions(f Filter) []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return []Transaction{}
	}
	out := make([]Transaction, 0, len(p.Transactions))
	for _, t := range p.Transactions {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.DateFrom != "" && t.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && t.Date > f.DateTo {
			continue
		}
		out = append(out, t)
	}
	sortByTimestampDesc(out)
	return out
}

// RecentTransactions returns the newest transactions, at most limit.
func (m *Manager) RecentTransactions(limit int) []Transaction {
	all := m.FilterTransactions(Filter{})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// ArchiveStats aggregates savings across the archive.
func (m *Manager) ArchiveStats() ArchiveStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := ArchiveStats{TotalBudgets: len(m.state.Archive)}
	for _, a := range m.state.Archive {
		stats.TotalSaved += a.Savings
		switch a.Status {
		case StatusCompleted:
			stats.CompletedCount++
		default:
			stats.IncompleteCount++
		}
	}
	if stats.TotalBudgets > 0 {
		stats.AvgSavings = stats.TotalSaved / int64(stats.TotalBudgets)
	}
	return stats
}

// SpendingReport assembles the data behind a printable report for the
// active period, or nil without one.
func (m *Manager) SpendingReport() *Report {
	summary := m.Summary()
	if summary == nil {
		return nil
	}
	p := m.ActivePeriod()
	return &Report{
		BudgetName:   p.Name,
		Period:       fmt.Sprintf("%s to %s", p.StartDate, p.EndDate),
		Summary:      *summary,
		Categories:   m.CategoryBreakdown(),
		Biggest:      m.BiggestExpenseCategory(),
		Transactions: m.FilterTransactions(Filter{}),
	}
}

func sortByTimestampDesc(ts []Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Timestamp > ts[j].Timestamp
	})
}
