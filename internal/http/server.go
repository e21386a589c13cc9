// Package http exposes the JSON API. Handlers are thin wrappers: they parse
// the request, let the session gate establish identity and delegate to the
// service layer.
package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/advice"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	loginMaxAttempts = 10
	loginWindow      = time.Minute

	adviceCacheSize = 1024
	adviceCacheTTL  = 5 * time.Minute
)

// Deps carries the collaborators the server needs.
type Deps struct {
	Users       *services.UserService
	Expenses    *services.ExpenseService
	Goals       *services.GoalService
	Advisor     *advice.Advisor
	External    *advice.ExternalClient // nil when no advice URL is configured
	AdviceStore storage.AdviceStore
	Tokens      *auth.TokenCodec
}

type Server struct {
	http.Server

	users       *services.UserService
	expenses    *services.ExpenseService
	goals       *services.GoalService
	advisor     *advice.Advisor
	external    *advice.ExternalClient
	adviceStore storage.AdviceStore
	tokens      *auth.TokenCodec

	loginLimiter *loginLimiter
	adviceCache  *cache.LRU[[]string]
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		users:        deps.Users,
		expenses:     deps.Expenses,
		goals:        deps.Goals,
		advisor:      deps.Advisor,
		external:     deps.External,
		adviceStore:  deps.AdviceStore,
		tokens:       deps.Tokens,
		loginLimiter: newLoginLimiter(loginMaxAttempts, loginWindow),
		adviceCache:  cache.NewLRU[[]string](adviceCacheSize, adviceCacheTTL),
	}

	mux := http.NewServeMux()

	// Public operations: registration, login and the health no-op.
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Everything else passes the session gate first.
	mux.HandleFunc("GET /api/me", s.sessionGate(s.handleGetProfile))
	mux.HandleFunc("PUT /api/me", s.sessionGate(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/expenses", s.sessionGate(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.sessionGate(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.sessionGate(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.sessionGate(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/goals", s.sessionGate(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.sessionGate(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.sessionGate(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.sessionGate(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/advice", s.sessionGate(s.handleGetAdvice))

	s.Server = http.Server{
		Addr:    addr,
		Handler: requestLog(securityHeaders(mux)),
	}
	return s
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// Stop releases background resources owned by the server.
func (s *Server) Stop() {
	s.loginLimiter.stop()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// invalidateAdvice drops the cached tips after a record mutation so the
// next advice request reflects current data.
func (s *Server) invalidateAdvice(userID int64) {
	s.adviceCache.Delete(adviceCacheKey(userID))
}

func adviceCacheKey(userID int64) string {
	return "advice:" + strconv.FormatInt(userID, 10)
}
