package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	rows := []Category{
		{ID: 1, Name: "Income", Type: CategoryIncome, Default: true, Active: true},
		{ID: 2, Name: "Expense", Type: CategoryExpense, Default: true, Active: true},
		{ID: 3, Name: "Salary", Type: CategoryIncome, ParentID: 1, Default: true, Active: true},
		{ID: 4, Name: "rent", Type: CategoryExpense, ParentID: 2, UserID: "u1", Active: true},
		{ID: 5, Name: "Food", Type: CategoryExpense, ParentID: 2, Default: true, Active: true},
		{ID: 6, Name: "Old", Type: CategoryExpense, ParentID: 2, UserID: "u1", Active: false},
		{ID: 7, Name: "Transfer", Type: CategoryTransfer, UserID: "u1", Active: true},
	}
	tree := BuildTree(rows)
	require.Len(t, tree, 3)
	assert.Equal(t, "Expense", tree[0].Name)
	assert.Equal(t, "Income", tree[1].Name)

	require.Len(t, tree[0].Subcategories, 2)
	assert.Equal(t, "Food", tree[0].Subcategories[0].Name)
	assert.Equal(t, "rent", tree[0].Subcategories[1].Name)

	transfer := tree[2]
	assert.Equal(t, TransferCategory(), transfer, "stored transfer roots are replaced by the synthetic one")
	assert.Equal(t, SubAllocateTo, transfer.Subcategories[0].Name)
	assert.Equal(t, SubWithdrawCash, transfer.Subcategories[1].Name)
}

func TestBuildTreeAlwaysInjectsTransfer(t *testing.T) {
	tree := BuildTree(nil)
	require.Len(t, tree, 1)
	assert.Equal(t, LabelTransfer, tree[0].Name)
}

func TestSubcategoriesOf(t *testing.T) {
	tree := BuildTree([]Category{
		{ID: 1, Name: "Expense", Type: CategoryExpense, Active: true},
		{ID: 2, Name: "Food", Type: CategoryExpense, ParentID: 1, Active: true},
		{ID: 3, Name: "Income", Type: CategoryIncome, Active: true},
		{ID: 4, Name: "Salary", Type: CategoryIncome, ParentID: 3, Active: true},
	})
	subs := SubcategoriesOf(tree, CategoryExpense)
	require.Len(t, subs, 1)
	assert.Equal(t, "Food", subs[0].Name)
	assert.Len(t, SubcategoriesOf(tree, CategoryTransfer), 2)
}

func TestValidateChild(t *testing.T) {
	root := Category{ID: 1, Name: "Expense", Type: CategoryExpense}
	assert.NoError(t, ValidateChild(root, Category{Name: "Food", Type: CategoryExpense}))
	assert.ErrorIs(t, ValidateChild(root, Category{Name: "Bonus", Type: CategoryIncome}), ErrCategoryMismatch)

	child := Category{ID: 2, Name: "Food", Type: CategoryExpense, ParentID: 1}
	assert.ErrorIs(t, ValidateChild(child, Category{Name: "Snacks", Type: CategoryExpense}), ErrNestedCategory)
}

func TestCanDelete(t *testing.T) {
	assert.ErrorIs(t, CanDelete(Category{Default: true, UserID: "u1"}), ErrDefaultCategory)
	assert.ErrorIs(t, CanDelete(Category{}), ErrDefaultCategory)
	assert.NoError(t, CanDelete(Category{UserID: "u1"}))
}
