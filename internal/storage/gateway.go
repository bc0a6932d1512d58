package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"brankas/internal/core"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	// AccountID matches either the source or the destination account.
	AccountID int64
	Category  string
	From      core.Date
	To        core.Date
}

// AccountPatch updates only the non-nil fields.
type AccountPatch struct {
	Name    *string
	Type    *core.AccountType
	Balance *decimal.Decimal
	Savings *bool
	Color   *string
}

// TransactionPatch updates only the non-nil fields. DestinationID 0 clears
// the destination.
type TransactionPatch struct {
	Date            *core.Date
	Description     *string
	Category        *string
	Subcategory     *string
	Amount          *decimal.Decimal
	AccountID       *int64
	AccountName     *string
	DestinationID   *int64
	DestinationName *string
	ReceiptURL      *string
	Struck          *bool
}

// ReplaceTransaction builds a patch that overwrites every editable field with t.
func ReplaceTransaction(t core.Transaction) TransactionPatch {
	return TransactionPatch{
		Date:            &t.Date,
		Description:     &t.Description,
		Category:        &t.Category,
		Subcategory:     &t.Subcategory,
		Amount:          &t.Amount,
		AccountID:       &t.AccountID,
		AccountName:     &t.AccountName,
		DestinationID:   &t.DestinationID,
		DestinationName: &t.DestinationName,
		ReceiptURL:      &t.ReceiptURL,
		Struck:          &t.Struck,
	}
}

type CategoryPatch struct {
	Name   *string
	Active *bool
}

// Outbox event states.
const (
	EventPending   = "pending"
	EventPublished = "published"
	EventFailed    = "failed"
)

// OutboxEvent is a domain event waiting to be handed to the broker. It is
// written in the same store transaction as the change it describes.
type OutboxEvent struct {
	ID          int64
	EventID     string
	Kind        string
	UserID      string
	Payload     []byte
	Status      string
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	PublishedAt time.Time
}

type OutboxStats struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

type AccountGateway interface {
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetAccount(ctx context.Context, userID string, id int64) (core.Account, error)
	InsertAccount(ctx context.Context, a core.Account) (core.Account, error)
	UpdateAccount(ctx context.Context, userID string, id int64, p AccountPatch) (core.Account, error)
	DeleteAccount(ctx context.Context, userID string, id int64) error
}

type TransactionGateway interface {
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error)
	InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, id int64, p TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID string, id int64) error
}

type CategoryGateway interface {
	// ListCategories returns built-in rows plus the user's own, inactive included.
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetCategory(ctx context.Context, userID string, id int64) (core.Category, error)
	InsertCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, userID string, id int64, p CategoryPatch) (core.Category, error)
}

type BudgetGateway interface {
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID string, id int64) (core.Budget, error)
	InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID string, id int64) error
}

type PlanningGateway interface {
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	InsertGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID string, id int64) error
	ListDebts(ctx context.Context, userID string) ([]core.Debt, error)
	InsertDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	DeleteDebt(ctx context.Context, userID string, id int64) error
}

type ProfileGateway interface {
	GetProfile(ctx context.Context, userID string) (core.Profile, error)
	SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error)
}

type OutboxGateway interface {
	EnqueueEvent(ctx context.Context, e OutboxEvent) error
	PendingEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id int64) error
	MarkEventRetry(ctx context.Context, id int64, reason string) error
	MarkEventFailed(ctx context.Context, id int64, reason string) error
	CleanupPublished(ctx context.Context, before time.Time) error
	RetryFailedEvents(ctx context.Context) error
	OutboxStats(ctx context.Context) (OutboxStats, error)
}

// Gateway is the full set of user-scoped row operations.
type Gateway interface {
	AccountGateway
	TransactionGateway
	CategoryGateway
	BudgetGateway
	PlanningGateway
	ProfileGateway
	OutboxGateway
}

// Store is a Gateway that can run several operations as one atomic unit.
type Store interface {
	Gateway
	// WithTx runs fn against a transactional gateway. Any error from fn rolls
	// back every write made through it.
	WithTx(ctx context.Context, fn func(Gateway) error) error
	Ping(ctx context.Context) error
	Close() error
}
