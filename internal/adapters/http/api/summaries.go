// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/zanshin/internal/adapters/ai"
	service "github.com/okian/zanshin/internal/app"
	"github.com/okian/zanshin/internal/domain/stats"
)

// SummaryDependencies defines the interface for AI summary operations.
type SummaryDependencies interface {
	Summarize(ctx context.Context, playerID string, f stats.Filter, g stats.Granularity, notes string) (ai.Result, error)
	FollowUp(ctx context.Context, sessionID, question string) (ai.Result, error)
}

// SummariesHandler handles AI summary requests.
type SummariesHandler struct {
	deps SummaryDependencies
}

// NewSummariesHandler creates a new summaries handler.
func NewSummariesHandler(deps SummaryDependencies) *SummariesHandler {
	return &SummariesHandler{deps: deps}
}

// summarizeRequest mirrors the request schema for POST /summaries.
type summarizeRequest struct {
	PlayerID     string `json:"player_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Officialness string `json:"officialness"`
	Tournament   string `json:"tournament"`
	Granularity  string `json:"granularity"`
	Notes        string `json:"notes"`
}

type summaryResponse struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// HandleSummarize handles POST /summaries requests.
func (h *SummariesHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_summary"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	// The body fields mirror the stats query parameters, so the same parser
	// applies.
	q := url.Values{}
	q.Set("from", req.From)
	q.Set("to", req.To)
	q.Set("officialness", req.Officialness)
	q.Set("tournament", req.Tournament)
	q.Set("granularity", req.Granularity)
	f, _, g, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	res, err := h.deps.Summarize(r.Context(), req.PlayerID, f, g, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrNoSummarizer) {
			writeError(w, http.StatusServiceUnavailable, "summaries_disabled", Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadGateway, "summary_failed", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Text: res.Text, SessionID: res.SessionID})
}

// followUpRequest mirrors the request schema for POST /summaries/follow-up.
type followUpRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// HandleFollowUp handles POST /summaries/follow-up requests.
func (h *SummariesHandler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_follow_up"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	res, err := h.deps.FollowUp(r.Context(), req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, service.ErrNoSummarizer) {
			writeError(w, http.StatusServiceUnavailable, "summaries_disabled", Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadGateway, "summary_failed", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Text: res.Text, SessionID: res.SessionID})
}
