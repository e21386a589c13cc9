package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"

	// DefaultFrequency applies when a goal is created without one.
	DefaultFrequency = Monthly
)

type (
	// Frequency describes how often a savings goal renews. The set is
	// open-ended: unknown values are stored as-is.
	Frequency string

	// User is the stored account record. Salt and PasswordDigest never
	// leave the storage layer; external views use Profile.
	User struct {
		ID             int64     `json:"id"`
		Username       string    `json:"username"`
		Salt           string    `json:"salt"`
		PasswordDigest string    `json:"password_digest"`
		FullName       string    `json:"full_name,omitempty"`
		Email          string    `json:"email,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	// Profile is the externally visible projection of a User.
	Profile struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		FullName  string    `json:"full_name,omitempty"`
		Email     string    `json:"email,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Expense struct {
		ID       int64     `json:"id"`
		UserID   int64     `json:"user_id"`
		Category string    `json:"category"`
		Amount   float64   `json:"amount"`
		Date     time.Time `json:"date"`
	}

	Goal struct {
		ID           int64     `json:"id"`
		UserID       int64     `json:"user_id"`
		Title        string    `json:"title"`
		TargetAmount float64   `json:"target_amount"`
		Frequency    Frequency `json:"frequency"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// ExpenseUpdate carries a partial update. Nil fields are preserved.
	ExpenseUpdate struct {
		Category *string    `json:"category"`
		Amount   *float64   `json:"amount"`
		Date     *time.Time `json:"date"`
	}

	// GoalUpdate carries a partial update. Nil fields are preserved.
	GoalUpdate struct {
		Title        *string    `json:"title"`
		TargetAmount *float64   `json:"target_amount"`
		Frequency    *Frequency `json:"frequency"`
	}
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// ValidationError marks a request that failed field validation. The message
// is safe to return to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a plain message.
func Validationf(msg string) error { return &ValidationError{Msg: msg} }

// Profile returns the external projection of u.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Merge applies the non-nil fields of upd onto e and returns the result.
func (e Expense) Merge(upd ExpenseUpdate) Expense {
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	return e
}

// Merge applies the non-nil fields of upd onto g and returns the result.
func (g Goal) Merge(upd GoalUpdate) Goal {
	if upd.Title != nil {
		g.Title = *upd.Title
	}
	if upd.TargetAmount != nil {
		g.TargetAmount = *upd.TargetAmount
	}
	if upd.Frequency != nil {
		g.Frequency = *upd.Frequency
	}
	return g
}
