// Package sqlite implements the storage ports over a SQLite database. It is
// the alternate backend for deployments that outgrow the JSON file store;
// semantics match the ports contract, with identifiers assigned by the
// database instead of recomputed from collection contents.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and applies
// migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", u.Username).Scan(&exists)
	if err != nil {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return core.User{}, core.ErrDuplicateUsername
	}

	u.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, salt, password_digest, full_name, email, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Salt, u.PasswordDigest, u.FullName, u.Email, u.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return u, nil
}

func (s *Store) UserByName(ctx context.Context, username string) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, salt, password_digest, full_name, email, created_at FROM users WHERE username = ?",
		username))
}

func (s *Store) UserByID(ctx context.Context, id int64) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, salt, password_digest, full_name, email, created_at FROM users WHERE id = ?",
		id))
}

func (s *Store) UpdateUser(ctx context.Context, id int64, fn func(core.User) core.User) (core.User, error) {
	u, err := s.UserByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}

	updated := fn(u)
	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET salt = ?, password_digest = ?, full_name = ?, email = ? WHERE id = ?",
		updated.Salt, updated.PasswordDigest, updated.FullName, updated.Email, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, salt, password_digest, full_name, email, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Salt, &u.PasswordDigest, &u.FullName, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, category, amount, date FROM expenses WHERE user_id = ? ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, category, amount, date) VALUES (?, ?, ?, ?)",
		e.UserID, e.Category, e.Amount, e.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, userID, id int64, upd core.ExpenseUpdate) (core.Expense, error) {
	e, err := s.expenseByID(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	merged := e.Merge(upd)
	_, err = s.db.ExecContext(ctx,
		"UPDATE expenses SET category = ?, amount = ?, date = ? WHERE id = ? AND user_id = ?",
		merged.Category, merged.Amount, merged.Date, id, userID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return merged, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := s.expenseByID(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, target_amount, frequency, created_at FROM goals WHERE user_id = ? ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &g.Frequency, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO goals (user_id, title, target_amount, frequency, created_at) VALUES (?, ?, ?, ?, ?)",
		g.UserID, g.Title, g.TargetAmount, g.Frequency, g.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal insert id: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID, id int64, upd core.GoalUpdate) (core.Goal, error) {
	g, err := s.goalByID(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	merged := g.Merge(upd)
	_, err = s.db.ExecContext(ctx,
		"UPDATE goals SET title = ?, target_amount = ?, frequency = ? WHERE id = ? AND user_id = ?",
		merged.Title, merged.TargetAmount, merged.Frequency, id, userID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return merged, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := s.goalByID(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return core.Goal{}, fmt.Errorf("delete goal: %w", err)
	}
	return g, nil
}

func (s *Store) SaveAdvice(ctx context.Context, snapshot core.AdviceSnapshot) error {
	tips, err := json.Marshal(snapshot.Tips)
	if err != nil {
		return fmt.Errorf("encode tips: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO advice_snapshots (user_id, tips, source, generated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tips = excluded.tips,
			source = excluded.source,
			generated_at = excluded.generated_at`,
		snapshot.UserID, string(tips), snapshot.Source, snapshot.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save advice snapshot: %w", err)
	}
	return nil
}

func (s *Store) AdviceFor(ctx context.Context, userID int64) (core.AdviceSnapshot, error) {
	var (
		snapshot core.AdviceSnapshot
		tips     string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, tips, source, generated_at FROM advice_snapshots WHERE user_id = ?",
		userID).Scan(&snapshot.ID, &snapshot.UserID, &tips, &snapshot.Source, &snapshot.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AdviceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.AdviceSnapshot{}, fmt.Errorf("load advice snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(tips), &snapshot.Tips); err != nil {
		return core.AdviceSnapshot{}, fmt.Errorf("decode tips: %w", err)
	}
	return snapshot, nil
}

func (s *Store) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Salt, &u.PasswordDigest, &u.FullName, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (s *Store) expenseByID(ctx context.Context, userID, id int64) (core.Expense, error) {
	var e core.Expense
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, category, amount, date FROM expenses WHERE id = ? AND user_id = ?",
		id, userID).Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	return e, nil
}

func (s *Store) goalByID(ctx context.Context, userID, id int64) (core.Goal, error) {
	var g core.Goal
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, target_amount, frequency, created_at FROM goals WHERE id = ? AND user_id = ?",
		id, userID).Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &g.Frequency, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	return g, nil
}
