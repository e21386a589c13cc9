package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage/jsonfile"
)

type capturingPublisher struct {
	messages []*amqp.ExpenseEventMessage
	err      error
}

func (p *capturingPublisher) PublishExpenseEvent(_ context.Context, msg *amqp.ExpenseEventMessage) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func newExpenseService(t *testing.T, events EventPublisher) *ExpenseService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExpenseService(jsonfile.New(t.TempDir(), logger), events)
}

func TestCreateExpensePublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	svc := newExpenseService(t, pub)

	created, err := svc.Create(ctx, 7, CreateExpenseInput{Category: " groceries ", Amount: 42.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "groceries", created.Category)
	assert.WithinDuration(t, time.Now(), created.Date, time.Minute)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, amqp.ActionCreated, pub.messages[0].Action)
	assert.Equal(t, int64(1), pub.messages[0].ExpenseID)
	assert.Equal(t, int64(7), pub.messages[0].UserID)
}

func TestCreateExpenseKeepsProvidedDate(t *testing.T) {
	ctx := context.Background()
	svc := newExpenseService(t, nil)

	date := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, 1, CreateExpenseInput{Category: "food", Amount: 10, Date: &date})
	require.NoError(t, err)
	assert.True(t, created.Date.Equal(date))
}

func TestCreateExpenseValidation(t *testing.T) {
	ctx := context.Background()
	svc := newExpenseService(t, nil)

	tests := []struct {
		name string
		in   CreateExpenseInput
		want error
	}{
		{"blank category", CreateExpenseInput{Category: "  ", Amount: 10}, core.ErrEmptyCategory},
		{"zero amount", CreateExpenseInput{Category: "food", Amount: 0}, core.ErrInvalidAmount},
		{"negative amount", CreateExpenseInput{Category: "food", Amount: -3}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{err: assert.AnError}
	svc := newExpenseService(t, pub)

	_, err := svc.Create(ctx, 1, CreateExpenseInput{Category: "food", Amount: 10})
	assert.NoError(t, err)
}

func TestUpdateAndDeletePublish(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	svc := newExpenseService(t, pub)

	created, err := svc.Create(ctx, 1, CreateExpenseInput{Category: "food", Amount: 10})
	require.NoError(t, err)

	amount := 12.5
	updated, err := svc.Update(ctx, 1, created.ID, core.ExpenseUpdate{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Amount)

	_, err = svc.Delete(ctx, 1, created.ID)
	require.NoError(t, err)

	require.Len(t, pub.messages, 3)
	assert.Equal(t, amqp.ActionUpdated, pub.messages[1].Action)
	assert.Equal(t, amqp.ActionDeleted, pub.messages[2].Action)
}

func TestUpdateUnknownExpense(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	svc := newExpenseService(t, pub)

	amount := 5.0
	_, err := svc.Update(ctx, 1, 99, core.ExpenseUpdate{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, pub.messages)
}
