package http

import (
	"log/slog"
	"net/http"
	"time"
)

type adviceView struct {
	Tips        []string  `json:"tips"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// handleGetAdvice serves budgeting tips. The default path runs the local
// rules (cached per user); ?source=external proxies to the configured
// advice service with a bounded deadline, falling back to rules on any
// failure; ?source=snapshot returns what the advice worker precomputed.
func (s *Server) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	switch r.URL.Query().Get("source") {
	case "external":
		s.serveExternalAdvice(w, r, userID)
	case "snapshot":
		s.serveSnapshotAdvice(w, r, userID)
	default:
		s.serveRuleAdvice(w, r, userID)
	}
}

func (s *Server) serveRuleAdvice(w http.ResponseWriter, r *http.Request, userID int64) {
	if tips, ok := s.adviceCache.Get(adviceCacheKey(userID)); ok {
		writeJSON(w, http.StatusOK, adviceView{Tips: tips, Source: "rules", GeneratedAt: time.Now()})
		return
	}

	tips, err := s.advisor.Tips(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.adviceCache.Set(adviceCacheKey(userID), tips)
	writeJSON(w, http.StatusOK, adviceView{Tips: tips, Source: "rules", GeneratedAt: time.Now()})
}

func (s *Server) serveExternalAdvice(w http.ResponseWriter, r *http.Request, userID int64) {
	if s.external == nil {
		s.serveRuleAdvice(w, r, userID)
		return
	}

	expenses, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	goals, err := s.goals.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tips, err := s.external.Fetch(r.Context(), expenses, goals, time.Now())
	if err != nil {
		slog.WarnContext(r.Context(), "External advice unavailable, falling back to rules",
			"error", err, "user_id", userID)
		s.serveRuleAdvice(w, r, userID)
		return
	}

	writeJSON(w, http.StatusOK, adviceView{Tips: tips, Source: "external", GeneratedAt: time.Now()})
}

func (s *Server) serveSnapshotAdvice(w http.ResponseWriter, r *http.Request, userID int64) {
	snapshot, err := s.adviceStore.AdviceFor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	source := snapshot.Source
	if source == "" {
		source = "snapshot"
	}
	writeJSON(w, http.StatusOK, adviceView{
		Tips:        snapshot.Tips,
		Source:      source,
		GeneratedAt: snapshot.GeneratedAt,
	})
}
