package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher publishes expense change events. *amqp.Client satisfies
// it; a nil publisher disables events.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error
}

type ExpenseService struct {
	store  storage.ExpenseStore
	events EventPublisher
}

func NewExpenseService(store storage.ExpenseStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, events: events}
}

type CreateExpenseInput struct {
	Category string     `json:"category"`
	Amount   float64    `json:"amount"`
	Date     *time.Time `json:"date"`
}

func (s *ExpenseService) List(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID)
}

// Create validates and persists a new expense owned by userID, then
// publishes a change event. Event failures never fail the request.
func (s *ExpenseService) Create(ctx context.Context, userID int64, in CreateExpenseInput) (core.Expense, error) {
	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	expense := core.Expense{
		UserID:   userID,
		Category: strings.TrimSpace(in.Category),
		Amount:   in.Amount,
		Date:     date,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, created.ID, userID, amqp.ActionCreated)
	return created, nil
}

// Update merges the provided fields into the owner's expense.
func (s *ExpenseService) Update(ctx context.Context, userID, id int64, upd core.ExpenseUpdate) (core.Expense, error) {
	if upd.Category != nil && strings.TrimSpace(*upd.Category) == "" {
		return core.Expense{}, core.ErrEmptyCategory
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}

	updated, err := s.store.UpdateExpense(ctx, userID, id, upd)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, id, userID, amqp.ActionUpdated)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) (core.Expense, error) {
	removed, err := s.store.DeleteExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, id, userID, amqp.ActionDeleted)
	return removed, nil
}

func (s *ExpenseService) publish(ctx context.Context, expenseID, userID int64, action string) {
	if s.events == nil {
		return
	}
	msg := amqp.NewExpenseEventMessage(expenseID, userID, action)
	if err := s.events.PublishExpenseEvent(ctx, msg); err != nil {
		// The expense is already saved locally, so the request succeeds.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"error", err,
			"expense_id", expenseID,
			"user_id", userID,
			"action", action)
	}
}
