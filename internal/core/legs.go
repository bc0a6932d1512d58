package core

import "github.com/shopspring/decimal"

// Leg is a single balance change on one account.
type Leg struct {
	AccountID int64
	Delta     decimal.Decimal
}

// Legs returns the balance changes a transaction applies, source leg first.
// A transfer debits the source by its stored (negative) amount and credits
// the destination by the magnitude.
func Legs(t Transaction) []Leg {
	legs := []Leg{{AccountID: t.AccountID, Delta: t.Amount}}
	if t.Type() == TypeTransfer && t.HasDestination() {
		legs = append(legs, Leg{AccountID: t.DestinationID, Delta: t.Amount.Abs()})
	}
	return legs
}

// Reverse negates every leg, keeping the order.
func Reverse(legs []Leg) []Leg {
	out := make([]Leg, len(legs))
	for i, l := range legs {
		out[i] = Leg{AccountID: l.AccountID, Delta: l.Delta.Neg()}
	}
	return out
}

// NetByAccount folds legs into one delta per account. Accounts whose net
// change is zero are kept so callers can still see they were touched.
func NetByAccount(legs []Leg) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(legs))
	for _, l := range legs {
		out[l.AccountID] = out[l.AccountID].Add(l.Delta)
	}
	return out
}
