// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/zanshin/internal/adapters/ai"
	"github.com/okian/zanshin/internal/adapters/repository"
	service "github.com/okian/zanshin/internal/app"
	"github.com/okian/zanshin/internal/domain/ledger"
	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/stats"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateMatch(ctx context.Context, m model.Match) (string, error)
	GetMatch(ctx context.Context, id string) (model.Match, error)
	DeleteMatch(ctx context.Context, id string) error

	CreateBout(ctx context.Context, b model.Bout) (string, error)
	GetBout(ctx context.Context, id string) (model.Bout, error)
	DeleteBout(ctx context.Context, id string) error

	SaveBoutScore(ctx context.Context, boutID string, candidates []ledger.Candidate, foulsOurs, foulsTheirs int) (service.SaveResult, error)
	OverrideOutcome(ctx context.Context, boutID string, winType model.WinType, winnerID string) error

	PlayerStats(ctx context.Context, playerID string, f stats.Filter, topN int, g stats.Granularity) (stats.PlayerStats, error)
	DailyCounters(ctx context.Context, playerID string) ([]model.Counter, error)
	RebuildCounters(ctx context.Context) (int, error)

	Summarize(ctx context.Context, playerID string, f stats.Filter, g stats.Granularity, notes string) (ai.Result, error)
	FollowUp(ctx context.Context, sessionID, question string) (ai.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	matchesHandler   *MatchesHandler
	boutsHandler     *BoutsHandler
	playersHandler   *PlayersHandler
	summariesHandler *SummariesHandler
	rebuildHandler   *RebuildHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		matchesHandler:   NewMatchesHandler(deps),
		boutsHandler:     NewBoutsHandler(deps),
		playersHandler:   NewPlayersHandler(deps),
		summariesHandler: NewSummariesHandler(deps),
		rebuildHandler:   NewRebuildHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleMatches, "matches"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchesHandler.HandleMatch, "match"))
	mux.HandleFunc("/bouts", MetricsMiddleware(s.boutsHandler.HandleBouts, "bouts"))
	mux.HandleFunc("/bouts/", MetricsMiddleware(s.boutsHandler.HandleBout, "bout"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandlePlayer, "players"))
	mux.HandleFunc("/summaries", MetricsMiddleware(s.summariesHandler.HandleSummarize, "summaries"))
	mux.HandleFunc("/summaries/follow-up", MetricsMiddleware(s.summariesHandler.HandleFollowUp, "summaries_follow_up"))
	mux.HandleFunc("/rebuild", MetricsMiddleware(s.rebuildHandler.HandleRebuild, "rebuild"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError translates repository sentinels to HTTP statuses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrNotEmpty):
		writeError(w, http.StatusConflict, "not_empty", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
