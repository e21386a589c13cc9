package advice

import (
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func expenseOn(day int, category string, amount float64) core.Expense {
	return core.Expense{
		UserID:   1,
		Category: category,
		Amount:   amount,
		Date:     time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC),
	}
}

func hasTipContaining(tips []string, substr string) bool {
	for _, tip := range tips {
		if strings.Contains(tip, substr) {
			return true
		}
	}
	return false
}

func TestRules_NoExpenses(t *testing.T) {
	tips := Rules(nil, nil, testNow)
	if !hasTipContaining(tips, "Start by recording") {
		t.Errorf("expected onboarding tip, got %v", tips)
	}
	if !hasTipContaining(tips, "savings goal") {
		t.Errorf("expected goal suggestion, got %v", tips)
	}
}

func TestRules_TopCategoryShare(t *testing.T) {
	expenses := []core.Expense{
		expenseOn(1, "restaurants", 80),
		expenseOn(2, "groceries", 10),
		expenseOn(3, "transport", 10),
	}

	tips := Rules(expenses, nil, testNow)
	if !hasTipContaining(tips, `"restaurants"`) {
		t.Errorf("expected top-category tip for restaurants, got %v", tips)
	}
}

func TestRules_MonthOverMonthIncrease(t *testing.T) {
	lastMonth := core.Expense{
		UserID: 1, Category: "food", Amount: 100,
		Date: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
	}
	expenses := []core.Expense{
		lastMonth,
		expenseOn(5, "food", 90),
		expenseOn(6, "transport", 60),
	}

	tips := Rules(expenses, nil, testNow)
	if !hasTipContaining(tips, "up more than 20%") {
		t.Errorf("expected overspend warning, got %v", tips)
	}
}

func TestRules_SmallPurchases(t *testing.T) {
	var expenses []core.Expense
	for day := 1; day <= 12; day++ {
		expenses = append(expenses, expenseOn(day, "coffee", 3.5))
	}

	tips := Rules(expenses, nil, testNow)
	if !hasTipContaining(tips, "Small expenses add up") {
		t.Errorf("expected small-purchase tip, got %v", tips)
	}
}

func TestRules_GoalPacing(t *testing.T) {
	expenses := []core.Expense{expenseOn(1, "food", 50)}
	goals := []core.Goal{
		{UserID: 1, Title: "vacation", TargetAmount: 520, Frequency: core.Yearly},
	}

	tips := Rules(expenses, goals, testNow)
	if !hasTipContaining(tips, `"vacation"`) {
		t.Errorf("expected goal pacing tip, got %v", tips)
	}
	// 520 per year is 10 per week.
	if !hasTipContaining(tips, "10.00 per week") {
		t.Errorf("expected weekly pacing of 10.00, got %v", tips)
	}
}

func TestRules_SteadySpendingFallback(t *testing.T) {
	expenses := []core.Expense{
		expenseOn(1, "food", 30),
		expenseOn(2, "transport", 28),
		expenseOn(3, "leisure", 29),
	}

	tips := Rules(expenses, nil, testNow)
	if len(tips) != 1 || !strings.Contains(tips[0], "steady") {
		t.Errorf("expected single steady-spending tip, got %v", tips)
	}
}

func TestRules_Deterministic(t *testing.T) {
	expenses := []core.Expense{
		expenseOn(1, "a", 50),
		expenseOn(2, "b", 50),
	}

	first := Rules(expenses, nil, testNow)
	for i := 0; i < 10; i++ {
		again := Rules(expenses, nil, testNow)
		if len(again) != len(first) {
			t.Fatalf("rule output length changed between runs")
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("rule output changed between runs: %q vs %q", again[j], first[j])
			}
		}
	}
}
