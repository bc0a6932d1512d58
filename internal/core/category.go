package core

import (
	"sort"
	"strings"
)

type CategoryType string

const (
	CategoryExpense  CategoryType = "expense"
	CategoryIncome   CategoryType = "income"
	CategoryTransfer CategoryType = "transfer"
	CategoryDebt     CategoryType = "debt"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryExpense, CategoryIncome, CategoryTransfer, CategoryDebt:
		return true
	}
	return false
}

// Category is a node of the two-level category tree. Built-in categories
// have an empty UserID and are visible to every user.
type Category struct {
	ID            int64        `json:"id"`
	UserID        string       `json:"user_id,omitempty"`
	Name          string       `json:"name"`
	Type          CategoryType `json:"type"`
	ParentID      int64        `json:"parent_id,omitempty"`
	Default       bool         `json:"is_default"`
	Active        bool         `json:"is_active"`
	Subcategories []Category   `json:"subcategories,omitempty"`
}

func (c Category) IsRoot() bool { return c.ParentID == 0 }

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !c.Type.Valid() {
		return invalid("type", ErrInvalidCategory)
	}
	return nil
}

// ValidateChild checks that child may be attached under parent.
func ValidateChild(parent, child Category) error {
	if !parent.IsRoot() {
		return invalid("parent_id", ErrNestedCategory)
	}
	if parent.Type != child.Type {
		return invalid("type", ErrCategoryMismatch)
	}
	return nil
}

// CanDelete rejects built-in categories.
func CanDelete(c Category) error {
	if c.Default || c.UserID == "" {
		return invalid("id", ErrDefaultCategory)
	}
	return nil
}

// TransferCategory is the synthetic root offered for transfers. It is never
// stored; readers always get this exact node.
func TransferCategory() Category {
	return Category{
		Name:    LabelTransfer,
		Type:    CategoryTransfer,
		Default: true,
		Active:  true,
		Subcategories: []Category{
			{Name: SubAllocateTo, Type: CategoryTransfer, Default: true, Active: true},
			{Name: SubWithdrawCash, Type: CategoryTransfer, Default: true, Active: true},
		},
	}
}

// BuildTree nests active subcategories under their active roots, sorted by
// name, and appends the synthetic Transfer root. A stored root named
// "Transfer" is replaced by the synthetic one.
func BuildTree(rows []Category) []Category {
	children := map[int64][]Category{}
	var roots []Category
	for _, c := range rows {
		if !c.Active {
			continue
		}
		if c.IsRoot() {
			if c.Name == LabelTransfer {
				continue
			}
			c.Subcategories = nil
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}
	sortByName(roots)
	for i := range roots {
		subs := children[roots[i].ID]
		sortByName(subs)
		for j := range subs {
			subs[j].Subcategories = nil
		}
		roots[i].Subcategories = subs
	}
	return append(roots, TransferCategory())
}

// SubcategoriesOf returns the active subcategories of the given type.
func SubcategoriesOf(tree []Category, t CategoryType) []Category {
	var out []Category
	for _, root := range tree {
		if root.Type != t {
			continue
		}
		out = append(out, root.Subcategories...)
	}
	sortByName(out)
	return out
}

func sortByName(cs []Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		return strings.ToLower(cs[i].Name) < strings.ToLower(cs[j].Name)
	})
}
