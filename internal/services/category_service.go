package services

import (
	"context"
	"fmt"
	"strings"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

// CategoryService maintains the two-level category tree.
type CategoryService struct {
	store  storage.Store
	cache  Invalidator
	logger *log.Logger
}

func NewCategoryService(store storage.Store, cache Invalidator, logger *log.Logger) *CategoryService {
	return &CategoryService{store: store, cache: orNoop(cache), logger: orDiscard(logger, log.ComponentCategory)}
}

// Tree returns active roots with their active subcategories, plus the
// synthetic Transfer root.
func (s *CategoryService) Tree(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return core.BuildTree(rows), nil
}

// Subcategories lists the active subcategories offered for a category type.
func (s *CategoryService) Subcategories(ctx context.Context, userID string, t core.CategoryType) ([]core.Category, error) {
	tree, err := s.Tree(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.SubcategoriesOf(tree, t), nil
}

// CategoryInput is a new category. ParentID 0 creates a root.
type CategoryInput struct {
	Name     string            `json:"name"`
	Type     core.CategoryType `json:"type"`
	ParentID int64             `json:"parent_id"`
}

// Create adds a user category. Transfer categories are fixed and cannot be
// added; a subcategory must sit under a root of the same type.
func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (core.Category, error) {
	c := core.Category{
		UserID:   userID,
		Name:     strings.TrimSpace(in.Name),
		Type:     in.Type,
		ParentID: in.ParentID,
		Active:   true,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.Type == core.CategoryTransfer {
		return core.Category{}, core.Invalid("type", core.ErrInvalidCategory)
	}

	var created core.Category
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		if c.ParentID > 0 {
			parent, err := g.GetCategory(ctx, userID, c.ParentID)
			if err != nil {
				return fmt.Errorf("load parent category %d: %w", c.ParentID, err)
			}
			if err := core.ValidateChild(parent, c); err != nil {
				return err
			}
		}
		rows, err := g.ListCategories(ctx, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if nameTaken(rows, c.Type, c.Name, 0) {
			return core.Invalid("name", core.ErrDuplicateName)
		}
		created, err = g.InsertCategory(ctx, c)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Category created", log.FieldUserID, userID, log.FieldCategory, created.Name, "parent_id", created.ParentID)
	return created, nil
}

// Rename changes a user category's name. Built-in categories are read-only.
// Existing transactions keep the label they were booked with.
func (s *CategoryService) Rename(ctx context.Context, userID string, id int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.Invalid("name", core.ErrEmptyName)
	}
	var updated core.Category
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		cur, err := g.GetCategory(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load category %d: %w", id, err)
		}
		if err := core.CanDelete(cur); err != nil {
			return err
		}
		rows, err := g.ListCategories(ctx, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if nameTaken(rows, cur.Type, name, id) {
			return core.Invalid("name", core.ErrDuplicateName)
		}
		updated, err = g.UpdateCategory(ctx, userID, id, storage.CategoryPatch{Name: &name})
		if err != nil {
			return fmt.Errorf("update category %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	s.cache.Invalidate(userID)
	return updated, nil
}

// Delete soft-deletes a user category and, for a root, its subcategories.
func (s *CategoryService) Delete(ctx context.Context, userID string, id int64) error {
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		cur, err := g.GetCategory(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("load category %d: %w", id, err)
		}
		if err := core.CanDelete(cur); err != nil {
			return err
		}
		inactive := false
		if _, err := g.UpdateCategory(ctx, userID, id, storage.CategoryPatch{Active: &inactive}); err != nil {
			return fmt.Errorf("deactivate category %d: %w", id, err)
		}
		if !cur.IsRoot() {
			return nil
		}
		rows, err := g.ListCategories(ctx, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		for _, child := range rows {
			if child.ParentID != id || !child.Active || child.UserID != userID {
				continue
			}
			if _, err := g.UpdateCategory(ctx, userID, child.ID, storage.CategoryPatch{Active: &inactive}); err != nil {
				return fmt.Errorf("deactivate category %d: %w", child.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Category deactivated", log.FieldUserID, userID, "category_id", id)
	return nil
}

// nameTaken reports an active category of type t already named name.
func nameTaken(rows []core.Category, t core.CategoryType, name string, selfID int64) bool {
	for _, r := range rows {
		if r.ID != selfID && r.Active && r.Type == t && strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}
