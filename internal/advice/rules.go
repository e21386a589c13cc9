// Package advice turns a user's stored expenses and goals into budgeting
// suggestions, either through local rules or an external advice service.
package advice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Advisor computes rule-based tips from a user's records.
type Advisor struct {
	expenses storage.ExpenseStore
	goals    storage.GoalStore
	now      func() time.Time
}

func NewAdvisor(expenses storage.ExpenseStore, goals storage.GoalStore) *Advisor {
	return &Advisor{expenses: expenses, goals: goals, now: time.Now}
}

// Tips loads the user's expenses and goals and runs the rule set.
func (a *Advisor) Tips(ctx context.Context, userID int64) ([]string, error) {
	expenses, err := a.expenses.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	goals, err := a.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return Rules(expenses, goals, a.now()), nil
}

// Snapshot computes tips and wraps them for persistence.
func (a *Advisor) Snapshot(ctx context.Context, userID int64) (core.AdviceSnapshot, error) {
	tips, err := a.Tips(ctx, userID)
	if err != nil {
		return core.AdviceSnapshot{}, err
	}
	return core.AdviceSnapshot{
		UserID:      userID,
		Tips:        tips,
		Source:      "rules",
		GeneratedAt: a.now(),
	}, nil
}

// Rules derives budgeting tips from the records. Pure: same inputs, same
// tips, in a stable order.
func Rules(expenses []core.Expense, goals []core.Goal, now time.Time) []string {
	var tips []string

	if len(expenses) == 0 {
		tips = append(tips, "Start by recording your daily expenses to get personalized advice.")
		if len(goals) == 0 {
			tips = append(tips, "Set a savings goal to give your budget a target.")
		}
		return tips
	}

	monthTotal, byCategory := monthBreakdown(expenses, now)
	prevTotal, _ := monthBreakdown(expenses, now.AddDate(0, -1, 0))

	if prevTotal > 0 && monthTotal > prevTotal*1.2 {
		tips = append(tips, fmt.Sprintf(
			"Spending this month (%.2f) is up more than 20%% from last month (%.2f). Review what changed.",
			monthTotal, prevTotal))
	}

	if top, share := topCategory(byCategory, monthTotal); share >= 0.4 {
		tips = append(tips, fmt.Sprintf(
			"%.0f%% of this month's spending went to %q. Consider setting a cap for that category.",
			share*100, top))
	}

	if n := smallPurchases(expenses, now); n > 10 {
		tips = append(tips, fmt.Sprintf(
			"You made %d purchases under 5.00 this month. Small expenses add up; try batching them.", n))
	}

	for _, goal := range goals {
		perWeek := goal.TargetAmount / weeksPer(goal.Frequency)
		tips = append(tips, fmt.Sprintf(
			"Setting aside %.2f per week keeps your %q goal (%.2f %s) on track.",
			perWeek, goal.Title, goal.TargetAmount, goal.Frequency))
	}

	if len(tips) == 0 {
		tips = append(tips, "Your spending looks steady. Keep recording expenses to spot trends early.")
	}
	return tips
}

func monthBreakdown(expenses []core.Expense, now time.Time) (total float64, byCategory map[string]float64) {
	byCategory = make(map[string]float64)
	for _, e := range expenses {
		if e.Date.Year() != now.Year() || e.Date.Month() != now.Month() {
			continue
		}
		total += e.Amount
		byCategory[e.Category] += e.Amount
	}
	return total, byCategory
}

func topCategory(byCategory map[string]float64, total float64) (string, float64) {
	if total <= 0 {
		return "", 0
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	// Stable winner when two categories tie.
	sort.Strings(categories)

	var top string
	var max float64
	for _, c := range categories {
		if byCategory[c] > max {
			top, max = c, byCategory[c]
		}
	}
	return top, max / total
}

func smallPurchases(expenses []core.Expense, now time.Time) int {
	n := 0
	for _, e := range expenses {
		if e.Date.Year() == now.Year() && e.Date.Month() == now.Month() && e.Amount < 5 {
			n++
		}
	}
	return n
}

func weeksPer(f core.Frequency) float64 {
	switch f {
	case core.Daily:
		return 1.0 / 7
	case core.Weekly:
		return 1
	case core.Yearly:
		return 52
	default:
		// Monthly and any unknown frequency.
		return 4
	}
}
