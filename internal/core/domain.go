package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Category labels that drive classification. Matching is byte-exact.
const (
	LabelIncome   = "Income"
	LabelTransfer = "Transfer"
	LabelExpense  = "Expense"

	SubAllocateTo   = "Allocate to"
	SubWithdrawCash = "Withdraw cash from"
)

const maxDescriptionLen = 200

type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

type AccountType string

const (
	AccountBank    AccountType = "Bank Account"
	AccountEWallet AccountType = "E-Wallet"
	AccountCash    AccountType = "Cash"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountEWallet, AccountCash:
		return true
	}
	return false
}

// Account is a money-holding place ("platform"): a bank account, an e-wallet or cash.
type Account struct {
	ID             int64           `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Savings        bool            `json:"savings"`
	Color          string          `json:"color,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !a.Type.Valid() {
		return invalid("type", ErrInvalidAccountType)
	}
	return nil
}

// Transaction is a persisted money movement. Amount is signed: income is
// positive, expense negative, and a transfer stores the negative source leg.
type Transaction struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	Date            Date            `json:"date"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory"`
	Amount          decimal.Decimal `json:"amount"`
	AccountID       int64           `json:"account_id"`
	AccountName     string          `json:"account_name"`
	DestinationID   int64           `json:"destination_account_id,omitempty"`
	DestinationName string          `json:"destination_account_name,omitempty"`
	ReceiptURL      string          `json:"receipt_url,omitempty"`
	Struck          bool            `json:"struck"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Type is derived from the category label on every read.
func (t Transaction) Type() TransactionType {
	return Classify(t.Category)
}

// HasDestination reports whether the transaction credits a second account.
func (t Transaction) HasDestination() bool {
	return t.DestinationID > 0
}

// TransactionDraft is unvalidated user input. Amount is a positive magnitude;
// the sign is applied from the category when the draft is built.
type TransactionDraft struct {
	Date          Date            `json:"date"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     int64           `json:"account_id"`
	DestinationID int64           `json:"destination_account_id,omitempty"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
}

func (d TransactionDraft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return invalid("description", ErrDescriptionTooLong)
	}
	if !d.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(d.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if strings.TrimSpace(d.Subcategory) == "" {
		return invalid("subcategory", ErrEmptySubcategory)
	}
	if d.AccountID <= 0 {
		return invalid("account_id", ErrMissingAccount)
	}
	return nil
}

// FindAccount returns the account with the given id.
func FindAccount(accounts []Account, id int64) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
