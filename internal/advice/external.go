package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/core"
)

// ExternalClient proxies advice generation to a remote service. Every call
// carries a bounded deadline; callers fall back to local rules on failure.
type ExternalClient struct {
	url    string
	client *http.Client
}

func NewExternalClient(url string, timeout time.Duration) *ExternalClient {
	return &ExternalClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// adviceRequest summarizes the user's records for the remote service. Raw
// records stay local; only aggregates leave the process.
type adviceRequest struct {
	MonthTotal float64            `json:"month_total"`
	ByCategory map[string]float64 `json:"by_category"`
	Goals      []adviceGoal       `json:"goals"`
}

type adviceGoal struct {
	Title        string  `json:"title"`
	TargetAmount float64 `json:"target_amount"`
	Frequency    string  `json:"frequency"`
}

type adviceResponse struct {
	Advice []string `json:"advice"`
}

// Fetch posts the spending summary and returns the remote tips.
func (c *ExternalClient) Fetch(ctx context.Context, expenses []core.Expense, goals []core.Goal, now time.Time) ([]string, error) {
	monthTotal, byCategory := monthBreakdown(expenses, now)

	payload := adviceRequest{
		MonthTotal: monthTotal,
		ByCategory: byCategory,
	}
	for _, g := range goals {
		payload.Goals = append(payload.Goals, adviceGoal{
			Title:        g.Title,
			TargetAmount: g.TargetAmount,
			Frequency:    string(g.Frequency),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode advice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build advice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call advice service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advice service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read advice response: %w", err)
	}

	var decoded adviceResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode advice response: %w", err)
	}
	if len(decoded.Advice) == 0 {
		return nil, fmt.Errorf("advice service returned no advice")
	}
	return decoded.Advice, nil
}
