// Package ledger implements the budgeting core: one optional active budget
// period, a bounded archive of past periods, and all mutations and queries
// over their transactions.
//
// All monetary values are int64 cents. Dates are ISO YYYY-MM-DD strings,
// which makes lexicographic comparison chronological. Ordering timestamps
// are Unix milliseconds.
package ledger

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Fixed category set. Unknown expense categories are lazily created on
// first use; CategoryAddedMoney is the income sentinel and never counts
// as spending.
const (
	CategoryTransportation = "transportation"
	CategoryFood           = "food"
	CategoryLRT            = "lrt"
	CategoryDrinks         = "drinks"
	CategoryOthers         = "others"
	CategoryAddedMoney     = "added_money"
)

// FixedCategories lists the categories every period starts with.
var FixedCategories = []string{
	CategoryTransportation,
	CategoryFood,
	CategoryLRT,
	CategoryDrinks,
	CategoryOthers,
	CategoryAddedMoney,
}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidPeriod  = errors.New("end date must be after start date")
	ErrEmptyName      = errors.New("empty period name")
	ErrEmptyCategory  = errors.New("empty category")
	ErrNoActivePeriod = errors.New("no active budget period")
	ErrNotFound       = errors.New("transaction not found")
	ErrBadImport      = errors.New("invalid import payload")
)

type (
	// CategoryStat is the per-category running aggregate. Budget is the
	// allocation target set at period creation, Spent and Count accumulate
	// posted transactions. Trips and Saved are maintained for the lrt
	// category only.
	CategoryStat struct {
		Budget int64 `json:"budget"`
		Spent  int64 `json:"spent"`
		Count  int   `json:"count"`
		Trips  int   `json:"trips,omitempty"`
		Saved  int64 `json:"saved,omitempty"`
	}

	// Transaction is an atomic ledger entry. For discounted LRT expenses
	// Amount is the post-discount value applied against the budget and
	// FullAmount the pre-discount face value; otherwise they are equal.
	Transaction struct {
		ID            string `json:"id"`
		Type          string `json:"type"`
		Amount        int64  `json:"amount"`
		FullAmount    int64  `json:"fullAmount,omitempty"`
		Category      string `json:"category"`
		Description   string `json:"description"`
		Date          string `json:"date"`
		Timestamp     int64  `json:"timestamp"`
		SavedAmount   int64  `json:"savedAmount,omitempty"`
		ApplyDiscount bool   `json:"applyDiscount,omitempty"`
		UpdatedAt     int64  `json:"updatedAt,omitempty"`
	}

	// Period is the active budget window.
	Period struct {
		ID           string                   `json:"id"`
		Name         string                   `json:"name"`
		StartDate    string                   `json:"startDate"`
		EndDate      string                   `json:"endDate"`
		TotalBudget  int64                    `json:"totalBudget"`
		AddedMoney   int64                    `json:"addedMoney"`
		Categories   map[string]*CategoryStat `json:"categories"`
		Transactions []Transaction            `json:"transactions"`
		CreatedAt    string                   `json:"createdAt,omitempty"`
		UpdatedAt    string                   `json:"updatedAt,omitempty"`
	}

	// ArchivedPeriod is a closed-out period snapshot.
	ArchivedPeriod struct {
		Period
		TotalSpent int64  `json:"totalSpent"`
		Savings    int64  `json:"savings"`
		ArchivedAt string `json:"archivedAt"`
		Status     string `json:"status"`
		DaysActive int    `json:"daysActive"`
	}

	// State is the top-level persisted aggregate. At most one active
	// period; Archive is most-recent-first and bounded.
	State struct {
		ActivePeriod  *Period          `json:"activeBudgetPeriod"`
		Archive       []ArchivedPeriod `json:"archive"`
		SchemaVersion string           `json:"schemaVersion"`
	}
)

const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

// SchemaVersion is the current persisted-state shape version. Older blobs
// ("1.0", "2.0") are normalized forward on load.
const SchemaVersion = "2.1"

// ExpenseUpdate carries the replacement fields for UpdateExpense.
type ExpenseUpdate struct {
	Amount        string
	Category      string
	Description   string
	Date          string
	ApplyDiscount bool
}

// ValidateDate checks an ISO YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
