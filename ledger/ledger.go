package ledger

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultArchiveCapacity bounds the archive; the oldest snapshots are
// evicted once it overflows.
const DefaultArchiveCapacity = 50

// Default allocation of the period budget across categories, applied at
// creation. The remaining 25% stays as an unallocated buffer.
var defaultAllocations = map[string]int64{
	CategoryTransportation: 20,
	CategoryFood:           30,
	CategoryLRT:            15,
	CategoryDrinks:         10,
}

// Manager owns the ledger state and enforces the cached-aggregate
// invariant under every mutation: for every category, the stored spent and
// count always equal the totals recomputable from the transaction log.
// All stat changes funnel through a single apply/reverse pair.
//
// Mutations arrive one at a time from the presentation layer; the mutex
// only exists so a background saver can snapshot concurrently.
type Manager struct {
	mu         sync.Mutex
	state      State
	archiveCap int
	rev        uint64

	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides transaction/period id generation.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithArchiveCapacity overrides the archive bound.
func WithArchiveCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.archiveCap = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager returns an empty ledger: no active period, empty archive.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		state: State{
			Archive:       []ArchivedPeriod{},
			SchemaVersion: SchemaVersion,
		},
		archiveCap: DefaultArchiveCapacity,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Revision increments on every state change. The background saver uses it
// to detect unsaved work.
func (m *Manager) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rev
}

func (m *Manager) today() string {
	return m.now().Format(time.DateOnly)
}

func (m *Manager) touch() {
	m.rev++
	if m.state.ActivePeriod != nil {
		m.state.ActivePeriod.UpdatedAt = m.now().UTC().Format(time.RFC3339)
	}
}

// CreatePeriod starts a new budget period. Any active period is archived
// first, unconditionally. Category stats start zeroed, with default budget
// allocations derived from the total.
func (m *Manager) CreatePeriod(name, startDate, endDate, totalAmount string) (*Period, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := ValidateDate(startDate); err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	if err := ValidateDate(endDate); err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}
	if endDate <= startDate {
		return nil, ErrInvalidPeriod
	}
	total, err := ParseBudgetToCents(totalAmount)
	if err != nil {
		return nil, fmt.Errorf("total budget: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.ActivePeriod != nil {
		m.archiveLocked()
	}

	nowStr := m.now().UTC().Format(time.RFC3339)
	p := &Period{
		ID:           m.newID(),
		Name:         name,
		StartDate:    startDate,
		EndDate:      endDate,
		TotalBudget:  total,
		Categories:   newCategoryStats(),
		Transactions: []Transaction{},
		CreatedAt:    nowStr,
		UpdatedAt:    nowStr,
	}
	allocateDefaultBudgets(p)
	m.state.ActivePeriod = p
	m.touch()

	m.log.Info("budget period created",
		"id", p.ID,
		"name", p.Name,
		"start", p.StartDate,
		"end", p.EndDate,
		"total_cents", p.TotalBudget)
	return clonePeriod(p), nil
}

func newCategoryStats() map[string]*CategoryStat {
	stats := make(map[string]*CategoryStat, len(FixedCategories))
	for _, c := range FixedCategories {
		stats[c] = &CategoryStat{}
	}
	return stats
}

func allocateDefaultBudgets(p *Period) {
	for cat, pct := range defaultAllocations {
		p.Categories[cat].Budget = p.TotalBudget * pct / 100
	}
}

// ArchivePeriod closes the active period and prepends its snapshot to the
// archive. Returns nil when there is no active period, which makes the
// call idempotent.
func (m *Manager) ArchivePeriod() *ArchivedPeriod {
	m.mu.Lock()
	defer m.mu.Unlock()
	archived := m.archiveLocked()
	if archived == nil {
		return nil
	}
	out := *archived
	out.Period = *clonePeriod(&archived.Period)
	return &out
}

func (m *Manager) archiveLocked() *ArchivedPeriod {
	p := m.state.ActivePeriod
	if p == nil {
		return nil
	}

	today := m.today()
	totalSpent := totalSpentOf(p)

	// Archiving early truncates the recorded end date, never extends it.
	endDate := p.EndDate
	if today < endDate {
		endDate = today
	}
	status := StatusIncomplete
	if today >= p.EndDate {
		status = StatusCompleted
	}

	snapshot := ArchivedPeriod{
		Period:     *p,
		TotalSpent: totalSpent,
		Savings:    p.TotalBudget - totalSpent,
		ArchivedAt: m.now().UTC().Format(time.RFC3339),
		Status:     status,
		DaysActive: daysBetween(p.StartDate, endDate),
	}
	snapshot.EndDate = endDate

	m.state.Archive = append([]ArchivedPeriod{snapshot}, m.state.Archive...)
	if len(m.state.Archive) > m.archiveCap {
		m.state.Archive = m.state.Archive[:m.archiveCap]
	}
	m.state.ActivePeriod = nil
	m.rev++

	m.log.Info("budget period archived",
		"id", snapshot.ID,
		"name", snapshot.Name,
		"status", snapshot.Status,
		"spent_cents", snapshot.TotalSpent,
		"savings_cents", snapshot.Savings)
	return &m.state.Archive[0]
}

func daysBetween(start, end string) int {
	s, err1 := time.Parse(time.DateOnly, start)
	e, err2 := time.Parse(time.DateOnly, end)
	if err1 != nil || err2 != nil {
		return 0
	}
	days := int(e.Sub(s).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CheckExpiry archives the active period once today is past its end date.
// Idempotent and safe to call redundantly from a timer or on demand.
func (m *Manager) CheckExpiry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return false
	}
	if m.today() <= p.EndDate {
		return false
	}
	m.archiveLocked()
	return true
}

// AddIncome adds money to the active period: totalBudget grows by the
// amount and addedMoney tracks the cumulative additions separately.
func (m *Manager) AddIncome(amount, source string) (*Transaction, error) {
	cents, err := ParseAmountToCents(amount)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return nil, ErrNoActivePeriod
	}

	if source == "" {
		source = "Added money"
	}
	t := Transaction{
		ID:          m.newID(),
		Type:        TypeIncome,
		Amount:      cents,
		Category:    CategoryAddedMoney,
		Description: source,
		Date:        m.today(),
		Timestamp:   m.now().UnixMilli(),
	}

	p.TotalBudget += cents
	p.AddedMoney += cents
	p.Transactions = append(p.Transactions, t)
	m.applyContribution(p, &t)
	m.touch()

	m.log.Info("income added", "id", t.ID, "amount_cents", cents, "source", source)
	return &t, nil
}

// AddExpense posts an expense against a category, lazily creating the
// category stat on first use. The LRT discount halves the applied amount
// and records the other half as savings.
func (m *Manager) AddExpense(amount, category, description, date string, applyDiscount bool) (*Transaction, error) {
	cents, err := ParseAmountToCents(amount)
	if err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return nil, ErrNoActivePeriod
	}

	applied, saved := applyDiscountRule(cents, category, applyDiscount)
	t := Transaction{
		ID:            m.newID(),
		Type:          TypeExpense,
		Amount:        applied,
		FullAmount:    cents,
		Category:      category,
		Description:   description,
		Date:          date,
		Timestamp:     m.now().UnixMilli(),
		SavedAmount:   saved,
		ApplyDiscount: applyDiscount && category == CategoryLRT,
	}

	p.Transactions = append(p.Transactions, t)
	m.applyContribution(p, &t)
	m.touch()

	m.log.Info("expense added",
		"id", t.ID,
		"category", t.Category,
		"amount_cents", t.Amount,
		"saved_cents", t.SavedAmount,
		"date", t.Date)
	return &t, nil
}

// applyDiscountRule returns the applied and saved portions of an expense.
// Only LRT fares are discountable: half the fare is applied, the rest
// recorded as savings. Integer split keeps applied+saved == full exactly.
func applyDiscountRule(cents int64, category string, applyDiscount bool) (applied, saved int64) {
	if category == CategoryLRT && applyDiscount {
		saved = cents / 2
		return cents - saved, saved
	}
	return cents, 0
}

// applyContribution posts a transaction's effect on its category stat.
// Together with reverseContribution it is the only place stats change.
func (m *Manager) applyContribution(p *Period, t *Transaction) {
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

// reverseContribution undoes applyContribution exactly.
func (m *Manager) reverseContribution(p *Period, t *Transaction) {
	stat := p.Categories[t.Category]
	if stat == nil {
		return
	}
	stat.Spent -= t.Amount
	stat.Count--
	if t.Category == CategoryLRT && t.SavedAmount > 0 {
		stat.Saved -= t.SavedAmount
		stat.Trips--
	}
}

// UpdateExpense replaces an expense wholesale: the old contribution is
// reversed, the replacement computed with the same discount rule as
// AddExpense and applied to the (possibly different) target category.
// Validation happens before any state change, so a failure leaves the
// ledger untouched.
func (m *Manager) UpdateExpense(transactionID string, upd ExpenseUpdate) (*Transaction, error) {
	cents, err := ParseAmountToCents(upd.Amount)
	if err != nil {
		return nil, err
	}
	if err := validateCategory(upd.Category); err != nil {
		return nil, err
	}
	if err := ValidateDate(upd.Date); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return nil, ErrNoActivePeriod
	}
	idx := findTransaction(p, transactionID)
	if idx < 0 || p.Transactions[idx].Type != TypeExpense {
		return nil, ErrNotFound
	}

	old := p.Transactions[idx]
	m.reverseContribution(p, &old)

	applied, saved := applyDiscountRule(cents, upd.Category, upd.ApplyDiscount)
	updated := old
	updated.Amount = applied
	updated.FullAmount = cents
	updated.Category = upd.Category
	updated.Description = upd.Description
	updated.Date = upd.Date
	updated.SavedAmount = saved
	updated.ApplyDiscount = upd.ApplyDiscount && upd.Category == CategoryLRT
	updated.UpdatedAt = m.now().UnixMilli()

	p.Transactions[idx] = updated
	m.applyContribution(p, &updated)
	m.touch()

	m.log.Info("expense updated",
		"id", updated.ID,
		"category", updated.Category,
		"amount_cents", updated.Amount,
		"was_category", old.Category,
		"was_amount_cents", old.Amount)
	return &updated, nil
}

// DeleteTransaction removes a transaction and reverses its category
// contribution. Reports whether a transaction was removed. The period's
// totalBudget and addedMoney are deliberately left alone for income
// entries: addedMoney is a cumulative informational total.
func (m *Manager) DeleteTransaction(transactionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.ActivePeriod
	if p == nil {
		return false
	}
	idx := findTransaction(p, transactionID)
	if idx < 0 {
		return false
	}

	t := p.Transactions[idx]
	m.reverseContribution(p, &t)
	p.Transactions = append(p.Transactions[:idx], p.Transactions[idx+1:]...)
	m.touch()

	m.log.Info("transaction deleted", "id", t.ID, "category", t.Category, "amount_cents", t.Amount)
	return true
}

func findTransaction(p *Period, id string) int {
	for i := range p.Transactions {
		if p.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func totalSpentOf(p *Period) int64 {
	var total int64
	for cat, stat := range p.Categories {
		if cat == CategoryAddedMoney {
			continue
		}
		total += stat.Spent
	}
	return total
}

func clonePeriod(p *Period) *Period {
	if p == nil {
		return nil
	}
	out := *p
	out.Categories = make(map[string]*CategoryStat, len(p.Categories))
	for k, v := range p.Categories {
		stat := *v
		out.Categories[k] = &stat
	}
	out.Transactions = append([]Transaction(nil), p.Transactions...)
	return &out
}
