package services

import (
	"context"
	"fmt"
	"strings"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

// PlanningService stores savings goals and debts. They are plain records:
// nothing else reads or changes them.
type PlanningService struct {
	store  storage.Store
	logger *log.Logger
}

func NewPlanningService(store storage.Store, logger *log.Logger) *PlanningService {
	return &PlanningService{store: store, logger: orDiscard(logger, log.ComponentApp)}
}

func (s *PlanningService) Goals(ctx context.Context, userID string) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *PlanningService) CreateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error) {
	g.ID, g.UserID = 0, userID
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created", log.FieldUserID, userID, "goal_id", created.ID)
	return created, nil
}

// UpdateGoal replaces the stored goal with g.
func (s *PlanningService) UpdateGoal(ctx context.Context, userID string, id int64, g core.Goal) (core.Goal, error) {
	g.ID, g.UserID = id, userID
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	return updated, nil
}

func (s *PlanningService) DeleteGoal(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

func (s *PlanningService) Debts(ctx context.Context, userID string) ([]core.Debt, error) {
	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return debts, nil
}

func (s *PlanningService) CreateDebt(ctx context.Context, userID string, d core.Debt) (core.Debt, error) {
	d.ID, d.UserID = 0, userID
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	created, err := s.store.InsertDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	s.logger.InfoContext(ctx, "Debt created", log.FieldUserID, userID, "debt_id", created.ID)
	return created, nil
}

// UpdateDebt replaces the stored debt with d.
func (s *PlanningService) UpdateDebt(ctx context.Context, userID string, id int64, d core.Debt) (core.Debt, error) {
	d.ID, d.UserID = id, userID
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	updated, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt %d: %w", id, err)
	}
	return updated, nil
}

func (s *PlanningService) DeleteDebt(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteDebt(ctx, userID, id); err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	return nil
}
