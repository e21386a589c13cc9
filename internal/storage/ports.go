// Package storage defines the persistence ports shared by the jsonfile and
// sqlite backends. Every expense and goal operation is scoped to the owning
// user ID: a record belonging to another user behaves exactly as not found.
package storage

import (
	"context"

	"fintrack/internal/core"
)

type (
	UserStore interface {
		// CreateUser assigns an ID and persists u. Returns
		// core.ErrDuplicateUsername when the username is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)

		// UserByName looks a user up by exact, case-sensitive username.
		UserByName(ctx context.Context, username string) (core.User, error)

		UserByID(ctx context.Context, id int64) (core.User, error)

		// UpdateUser applies fn to the stored record and persists the result.
		UpdateUser(ctx context.Context, id int64, fn func(core.User) core.User) (core.User, error)

		// ListUsers returns every account, for batch jobs.
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, userID, id int64, upd core.ExpenseUpdate) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, userID, id int64, upd core.GoalUpdate) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id int64) (core.Goal, error)
	}

	// AdviceStore holds the advice snapshots the worker precomputes.
	AdviceStore interface {
		SaveAdvice(ctx context.Context, snapshot core.AdviceSnapshot) error
		AdviceFor(ctx context.Context, userID int64) (core.AdviceSnapshot, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		UserStore
		ExpenseStore
		GoalStore
		AdviceStore
	}
)
