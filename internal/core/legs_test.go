package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyLegs(balances map[int64]decimal.Decimal, legs []Leg) {
	for _, l := range legs {
		balances[l.AccountID] = balances[l.AccountID].Add(l.Delta)
	}
}

func TestTransferLegs(t *testing.T) {
	tx := Transaction{Category: LabelTransfer, Subcategory: SubAllocateTo, Amount: dec("-50000"), AccountID: 1, DestinationID: 2}
	legs := Legs(tx)
	require.Len(t, legs, 2)
	assert.Equal(t, int64(1), legs[0].AccountID, "source leg comes first")

	balances := map[int64]decimal.Decimal{1: dec("100000"), 2: dec("0")}
	applyLegs(balances, legs)
	assert.True(t, balances[1].Equal(dec("50000")))
	assert.True(t, balances[2].Equal(dec("50000")))
}

func TestLegsRoundTrip(t *testing.T) {
	txs := []Transaction{
		{Category: LabelIncome, Amount: dec("750000"), AccountID: 1},
		{Category: LabelExpense, Amount: dec("-12500.50"), AccountID: 2},
		{Category: LabelTransfer, Amount: dec("-300"), AccountID: 2, DestinationID: 3},
	}
	start := map[int64]decimal.Decimal{1: dec("10"), 2: dec("20"), 3: dec("30")}
	for _, tx := range txs {
		balances := map[int64]decimal.Decimal{}
		for k, v := range start {
			balances[k] = v
		}
		applyLegs(balances, Legs(tx))
		applyLegs(balances, Reverse(Legs(tx)))
		for id, want := range start {
			assert.True(t, balances[id].Equal(want), "account %d: got %s want %s", id, balances[id], want)
		}
	}
}

func TestNonTransferHasSingleLeg(t *testing.T) {
	legs := Legs(Transaction{Category: "Food", Amount: dec("-5"), AccountID: 7, DestinationID: 8})
	require.Len(t, legs, 1)
	assert.Equal(t, int64(7), legs[0].AccountID)
}

func TestNetByAccount(t *testing.T) {
	old := Transaction{Category: LabelExpense, Amount: dec("-100"), AccountID: 1}
	upd := Transaction{Category: LabelExpense, Amount: dec("-80"), AccountID: 1}
	net := NetByAccount(append(Reverse(Legs(old)), Legs(upd)...))
	assert.True(t, net[1].Equal(dec("20")))
}
