package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Classify derives the movement type from a category label.
func Classify(category string) TransactionType {
	switch category {
	case LabelIncome:
		return TypeIncome
	case LabelTransfer:
		return TypeTransfer
	default:
		return TypeExpense
	}
}

// SignedAmount applies the sign convention to a positive magnitude.
func SignedAmount(t TransactionType, magnitude decimal.Decimal) decimal.Decimal {
	m := magnitude.Abs()
	switch t {
	case TypeIncome:
		return m
	default:
		return m.Neg()
	}
}

// ResolveTransfer picks the destination account of a transfer draft.
//
// "Withdraw cash from" always lands in the first Cash account, whatever the
// draft selected. Any other transfer needs an explicit destination.
func ResolveTransfer(d TransactionDraft, accounts []Account) (Account, error) {
	var dest Account
	if d.Subcategory == SubWithdrawCash {
		found := false
		for _, a := range accounts {
			if a.Type == AccountCash {
				dest, found = a, true
				break
			}
		}
		if !found {
			return Account{}, invalid("destination_account_id", ErrNoCashAccount)
		}
	} else {
		if d.DestinationID <= 0 {
			return Account{}, invalid("destination_account_id", ErrMissingDestination)
		}
		a, ok := FindAccount(accounts, d.DestinationID)
		if !ok {
			return Account{}, invalid("destination_account_id", ErrUnknownAccount)
		}
		dest = a
	}
	if dest.ID == d.AccountID {
		return Account{}, invalid("destination_account_id", ErrSelfTransfer)
	}
	return dest, nil
}

// BuildTransaction validates and classifies a draft against the user's
// accounts. It performs no I/O: a rejected draft never reaches storage.
func BuildTransaction(userID string, d TransactionDraft, accounts []Account) (Transaction, error) {
	if err := d.Validate(); err != nil {
		return Transaction{}, err
	}
	src, ok := FindAccount(accounts, d.AccountID)
	if !ok {
		return Transaction{}, invalid("account_id", ErrUnknownAccount)
	}

	txType := Classify(d.Category)
	tx := Transaction{
		UserID:      userID,
		Date:        d.Date,
		Description: strings.TrimSpace(d.Description),
		Category:    d.Category,
		Subcategory: d.Subcategory,
		Amount:      SignedAmount(txType, d.Amount),
		AccountID:   src.ID,
		AccountName: src.Name,
		ReceiptURL:  d.ReceiptURL,
	}
	if txType == TypeTransfer {
		dest, err := ResolveTransfer(d, accounts)
		if err != nil {
			return Transaction{}, err
		}
		tx.DestinationID = dest.ID
		tx.DestinationName = dest.Name
	}
	return tx, nil
}
