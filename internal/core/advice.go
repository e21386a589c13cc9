package core

import "time"

// AdviceSnapshot is a precomputed set of budgeting tips for one user. At
// most one snapshot exists per user; saving replaces the previous one.
type AdviceSnapshot struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Tips        []string  `json:"tips"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}
