// Package worker precomputes advice snapshots so the API can serve them
// without running the rules on every request.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/advice"
	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// EventSource consumes expense change events. *amqp.Client satisfies it.
type EventSource interface {
	ConsumeExpenseEvents(ctx context.Context, handler func(context.Context, *amqp.ExpenseEventMessage) error) error
}

// AdviceWorker refreshes a user's advice snapshot when an expense changes
// and sweeps all users periodically to catch missed events.
type AdviceWorker struct {
	store    storage.Store
	advisor  *advice.Advisor
	events   EventSource // nil disables event-driven refresh
	interval time.Duration
	logger   *slog.Logger
}

func NewAdviceWorker(store storage.Store, advisor *advice.Advisor, events EventSource, interval time.Duration, logger *slog.Logger) *AdviceWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdviceWorker{
		store:    store,
		advisor:  advisor,
		events:   events,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, consuming events and running the
// periodic sweep concurrently.
func (w *AdviceWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.events != nil {
		g.Go(func() error {
			return w.events.ConsumeExpenseEvents(ctx, w.HandleExpenseEvent)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.RecomputeAll(ctx); err != nil {
					w.logger.Error("Periodic advice sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleExpenseEvent refreshes the snapshot for the user named in the
// message. Returning an error requeues the message.
func (w *AdviceWorker) HandleExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if err := w.refresh(ctx, msg.UserID); err != nil {
		return fmt.Errorf("refresh advice for user %d: %w", msg.UserID, err)
	}
	w.logger.Info("Advice snapshot refreshed",
		"user_id", msg.UserID, "action", msg.Action, "expense_id", msg.ExpenseID)
	return nil
}

// RecomputeAll refreshes every user's snapshot. A single failing user does
// not stop the sweep.
func (w *AdviceWorker) RecomputeAll(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	failed := 0
	for _, u := range users {
		if err := w.refresh(ctx, u.ID); err != nil {
			failed++
			w.logger.Error("Advice refresh failed", "error", err, "user_id", u.ID)
		}
	}

	w.logger.Info("Advice sweep complete", "users", len(users), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("advice sweep: %d of %d users failed", failed, len(users))
	}
	return nil
}

func (w *AdviceWorker) refresh(ctx context.Context, userID int64) error {
	snapshot, err := w.advisor.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	return w.store.SaveAdvice(ctx, snapshot)
}
