package jsonfile

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"fintrack/internal/core"
)

// Store implements the storage ports over one JSON file per collection:
// users.json, expenses.json, goals.json and advice.json under dataDir.
type Store struct {
	users    *Collection[core.User]
	expenses *Collection[core.Expense]
	goals    *Collection[core.Goal]
	advice   *Collection[core.AdviceSnapshot]
}

func New(dataDir string, logger *slog.Logger) *Store {
	userID := func(u core.User) int64 { return u.ID }
	return &Store{
		users: NewCollection(filepath.Join(dataDir, "users.json"),
			userID, userID, logger),
		expenses: NewCollection(filepath.Join(dataDir, "expenses.json"),
			func(e core.Expense) int64 { return e.ID },
			func(e core.Expense) int64 { return e.UserID }, logger),
		goals: NewCollection(filepath.Join(dataDir, "goals.json"),
			func(g core.Goal) int64 { return g.ID },
			func(g core.Goal) int64 { return g.UserID }, logger),
		advice: NewCollection(filepath.Join(dataDir, "advice.json"),
			func(s core.AdviceSnapshot) int64 { return s.ID },
			func(s core.AdviceSnapshot) int64 { return s.UserID }, logger),
	}
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	created, err := s.users.Insert(
		func(existing core.User) bool { return existing.Username == u.Username },
		func(id int64) core.User {
			u.ID = id
			u.CreatedAt = time.Now()
			return u
		})
	if errors.Is(err, ErrConflict) {
		return core.User{}, core.ErrDuplicateUsername
	}
	return created, err
}

func (s *Store) UserByName(_ context.Context, username string) (core.User, error) {
	matches := s.users.Find(func(u core.User) bool { return u.Username == username })
	if len(matches) == 0 {
		return core.User{}, core.ErrNotFound
	}
	return matches[0], nil
}

func (s *Store) UserByID(_ context.Context, id int64) (core.User, error) {
	matches := s.users.Find(func(u core.User) bool { return u.ID == id })
	if len(matches) == 0 {
		return core.User{}, core.ErrNotFound
	}
	return matches[0], nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, fn func(core.User) core.User) (core.User, error) {
	return s.users.UpdateByID(id, id, fn)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	return s.users.LoadAll(), nil
}

func (s *Store) ListExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	return s.expenses.Find(func(e core.Expense) bool { return e.UserID == userID }), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	return s.expenses.Insert(nil, func(id int64) core.Expense {
		e.ID = id
		return e
	})
}

func (s *Store) UpdateExpense(_ context.Context, userID, id int64, upd core.ExpenseUpdate) (core.Expense, error) {
	return s.expenses.UpdateByID(id, userID, func(e core.Expense) core.Expense {
		return e.Merge(upd)
	})
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) (core.Expense, error) {
	return s.expenses.DeleteByID(id, userID)
}

func (s *Store) ListGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	return s.goals.Find(func(g core.Goal) bool { return g.UserID == userID }), nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	return s.goals.Insert(nil, func(id int64) core.Goal {
		g.ID = id
		g.CreatedAt = time.Now()
		return g
	})
}

func (s *Store) UpdateGoal(_ context.Context, userID, id int64, upd core.GoalUpdate) (core.Goal, error) {
	return s.goals.UpdateByID(id, userID, func(g core.Goal) core.Goal {
		return g.Merge(upd)
	})
}

func (s *Store) DeleteGoal(_ context.Context, userID, id int64) (core.Goal, error) {
	return s.goals.DeleteByID(id, userID)
}

func (s *Store) SaveAdvice(_ context.Context, snapshot core.AdviceSnapshot) error {
	_, err := s.advice.Upsert(
		func(existing core.AdviceSnapshot) bool { return existing.UserID == snapshot.UserID },
		func(id int64) core.AdviceSnapshot {
			snapshot.ID = id
			return snapshot
		})
	return err
}

func (s *Store) AdviceFor(_ context.Context, userID int64) (core.AdviceSnapshot, error) {
	matches := s.advice.Find(func(sn core.AdviceSnapshot) bool { return sn.UserID == userID })
	if len(matches) == 0 {
		return core.AdviceSnapshot{}, core.ErrNotFound
	}
	return matches[0], nil
}
