package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/advice"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/jsonfile"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := jsonfile.New(t.TempDir(), logger)
	tokens := auth.NewTokenCodec("server-test-secret-0123456789", 24*time.Hour)

	srv := NewServer(":0", Deps{
		Users:       services.NewUserService(store, tokens),
		Expenses:    services.NewExpenseService(store, nil),
		Goals:       services.NewGoalService(store),
		Advisor:     advice.NewAdvisor(store, store),
		AdviceStore: store,
		Tokens:      tokens,
	})
	t.Cleanup(srv.Stop)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func register(t *testing.T, ts *httptest.Server, username, password string) {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[map[string]string](t, resp)["token"]
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "s3cret", "full_name": "Alice Smith",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decodeBody[core.Profile](t, resp)
	assert.Equal(t, int64(1), profile.ID)
	assert.Equal(t, "alice", profile.Username)

	// Same username again conflicts.
	resp = doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password is rejected without hinting which part was wrong.
	resp = doJSON(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "invalid credentials", body["error"])

	token := login(t, ts, "alice", "s3cret")
	require.NotEmpty(t, token)

	resp = doJSON(t, ts, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[core.Profile](t, resp)
	assert.Equal(t, "Alice Smith", me.FullName)
}

func TestExpenseLifecycle(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "s3cret")
	token := login(t, ts, "alice", "s3cret")

	resp := doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"category": "groceries", "amount": 42.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.Expense](t, resp)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "groceries", created.Category)
	assert.Equal(t, 42.5, created.Amount)
	assert.False(t, created.Date.IsZero())

	resp = doJSON(t, ts, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]core.Expense](t, resp)
	require.Len(t, list, 1)

	resp = doJSON(t, ts, http.MethodPut, "/api/expenses/1", token, map[string]any{
		"amount": 50.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[core.Expense](t, resp)
	assert.Equal(t, 50.0, updated.Amount)
	assert.Equal(t, "groceries", updated.Category)

	resp = doJSON(t, ts, http.MethodDelete, "/api/expenses/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decodeBody[[]core.Expense](t, resp)
	assert.Empty(t, list)
}

func TestExpenseValidation(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "s3cret")
	token := login(t, ts, "alice", "s3cret")

	resp := doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"category": "", "amount": 10.0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"category": "food", "amount": -1.0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSessionGate(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "s3cret")
	token := login(t, ts, "alice", "s3cret")

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"malformed token", "not-a-token"},
		{"tampered token", token[:len(token)-2] + "zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, ts, http.MethodGet, "/api/expenses", tt.token, nil)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestOwnerIsolation(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "pw-alice")
	register(t, ts, "bob", "pw-bob")
	alice := login(t, ts, "alice", "pw-alice")
	bob := login(t, ts, "bob", "pw-bob")

	resp := doJSON(t, ts, http.MethodPost, "/api/expenses", bob, map[string]any{
		"category": "rent", "amount": 900.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bobExpense := decodeBody[core.Expense](t, resp)

	// Alice cannot see or touch Bob's expense.
	resp = doJSON(t, ts, http.MethodGet, "/api/expenses", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]core.Expense](t, resp))

	resp = doJSON(t, ts, http.MethodDelete, "/api/expenses/1", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/expenses", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]core.Expense](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, bobExpense.ID, list[0].ID)
}

func TestGoalLifecycle(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "s3cret")
	token := login(t, ts, "alice", "s3cret")

	resp := doJSON(t, ts, http.MethodPost, "/api/goals", token, map[string]any{
		"title": "vacation", "target_amount": 1200.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.Goal](t, resp)
	assert.Equal(t, core.Monthly, created.Frequency)

	resp = doJSON(t, ts, http.MethodPut, "/api/goals/1", token, map[string]any{
		"frequency": "yearly",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[core.Goal](t, resp)
	assert.Equal(t, core.Yearly, updated.Frequency)

	resp = doJSON(t, ts, http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]core.Goal](t, resp), 1)
}

func TestAdviceEndpoint(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "s3cret")
	token := login(t, ts, "alice", "s3cret")

	resp := doJSON(t, ts, http.MethodGet, "/api/advice", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody[adviceView](t, resp)
	assert.Equal(t, "rules", first.Source)
	require.NotEmpty(t, first.Tips)
	assert.Contains(t, first.Tips[0], "recording")

	// A new expense invalidates the cached tips.
	resp = doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"category": "food", "amount": 20.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/advice", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody[adviceView](t, resp)
	assert.NotEqual(t, first.Tips, second.Tips)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
