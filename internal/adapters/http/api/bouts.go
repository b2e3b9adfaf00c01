// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/zanshin/internal/app"
	"github.com/okian/zanshin/internal/domain/ledger"
	"github.com/okian/zanshin/internal/domain/model"
)

// BoutDependencies defines the interface for bout operations.
type BoutDependencies interface {
	CreateBout(ctx context.Context, b model.Bout) (string, error)
	GetBout(ctx context.Context, id string) (model.Bout, error)
	DeleteBout(ctx context.Context, id string) error
	SaveBoutScore(ctx context.Context, boutID string, candidates []ledger.Candidate, foulsOurs, foulsTheirs int) (service.SaveResult, error)
	OverrideOutcome(ctx context.Context, boutID string, winType model.WinType, winnerID string) error
}

// BoutsHandler handles bout requests.
type BoutsHandler struct {
	deps BoutDependencies
}

// NewBoutsHandler creates a new bouts handler.
func NewBoutsHandler(deps BoutDependencies) *BoutsHandler {
	return &BoutsHandler{deps: deps}
}

// HandleBouts handles POST /bouts requests.
func (h *BoutsHandler) HandleBouts(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req boutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, err := h.deps.CreateBout(r.Context(), req.toModel())
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleBout routes /bouts/{id}, /bouts/{id}/score and /bouts/{id}/outcome.
func (h *BoutsHandler) HandleBout(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/bouts/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "":
		h.handleBoutResource(w, r, id)
	case "score":
		h.handleScore(w, r, id)
	case "outcome":
		h.handleOutcome(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *BoutsHandler) handleBoutResource(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		b, err := h.deps.GetBout(r.Context(), id)
		if err != nil {
			writeStoreError(w, "api.get_bout", err)
			return
		}
		writeJSON(w, http.StatusOK, toBoutResponse(b))
	case http.MethodDelete:
		if err := h.deps.DeleteBout(r.Context(), id); err != nil {
			writeStoreError(w, "api.delete_bout", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// scoreRequest mirrors the request schema for PUT /bouts/{id}/score.
type scoreRequest struct {
	Points []struct {
		ScorerID string   `json:"scorer_id"`
		TimeSec  int      `json:"time_sec"`
		Target   string   `json:"target"`
		Methods  []string `json:"methods"`
		Encho    bool     `json:"encho"`
		Decisive bool     `json:"decisive"`
	} `json:"points"`
	FoulsOurs   int `json:"fouls_ours"`
	FoulsTheirs int `json:"fouls_theirs"`
}

type skipResponse struct {
	Reason string `json:"reason"`
}

type outcomeResponse struct {
	WinType  string `json:"win_type"`
	WinnerID string `json:"winner_id,omitempty"`
}

type scoreResponse struct {
	Points  []pointResponse `json:"points"`
	Skipped []skipResponse  `json:"skipped"`
	Outcome outcomeResponse `json:"outcome"`
}

func (h *BoutsHandler) handleScore(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.put_score"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.FoulsOurs < 0 || req.FoulsTheirs < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	candidates := make([]ledger.Candidate, 0, len(req.Points))
	for _, p := range req.Points {
		candidates = append(candidates, ledger.Candidate{
			ScorerID: p.ScorerID,
			TimeSec:  p.TimeSec,
			Target:   p.Target,
			Methods:  p.Methods,
			Encho:    p.Encho,
			Decisive: p.Decisive,
		})
	}

	res, err := h.deps.SaveBoutScore(r.Context(), id, candidates, req.FoulsOurs, req.FoulsTheirs)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}

	skips := make([]skipResponse, 0, len(res.Skipped))
	for _, v := range res.Skipped {
		skips = append(skips, skipResponse{Reason: v.Reason})
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Points:  toPointResponses(res.Points),
		Skipped: skips,
		Outcome: outcomeResponse{
			WinType:  string(res.Outcome.WinType),
			WinnerID: res.Outcome.WinnerID,
		},
	})
}

// outcomeRequest mirrors the request schema for PUT /bouts/{id}/outcome.
type outcomeRequest struct {
	WinType  string `json:"win_type"`
	WinnerID string `json:"winner_id"`
}

func (h *BoutsHandler) handleOutcome(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.put_outcome"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	err := h.deps.OverrideOutcome(r.Context(), id, model.WinType(req.WinType), req.WinnerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOutcome) {
			writeError(w, http.StatusBadRequest, "invalid_outcome", Wrap(op, err))
			return
		}
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{WinType: req.WinType, WinnerID: req.WinnerID})
}
