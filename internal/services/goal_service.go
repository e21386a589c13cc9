package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type GoalService struct {
	store storage.GoalStore
}

func NewGoalService(store storage.GoalStore) *GoalService {
	return &GoalService{store: store}
}

type CreateGoalInput struct {
	Title        string  `json:"title"`
	TargetAmount float64 `json:"target_amount"`
	Frequency    string  `json:"frequency"`
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

// Create validates and persists a savings goal. Frequency defaults to
// monthly; unknown values are stored as-is.
func (s *GoalService) Create(ctx context.Context, userID int64, in CreateGoalInput) (core.Goal, error) {
	frequency := core.Frequency(strings.TrimSpace(in.Frequency))
	if frequency == "" {
		frequency = core.DefaultFrequency
	}

	goal := core.Goal{
		UserID:       userID,
		Title:        strings.TrimSpace(in.Title),
		TargetAmount: in.TargetAmount,
		Frequency:    frequency,
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}

	return s.store.CreateGoal(ctx, goal)
}

func (s *GoalService) Update(ctx context.Context, userID, id int64, upd core.GoalUpdate) (core.Goal, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return core.Goal{}, core.ErrEmptyTitle
	}
	if upd.TargetAmount != nil && *upd.TargetAmount <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}

	return s.store.UpdateGoal(ctx, userID, id, upd)
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) (core.Goal, error) {
	return s.store.DeleteGoal(ctx, userID, id)
}
