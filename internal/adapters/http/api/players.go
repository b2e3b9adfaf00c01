// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/stats"
)

// PlayerDependencies defines the interface for player read operations.
type PlayerDependencies interface {
	PlayerStats(ctx context.Context, playerID string, f stats.Filter, topN int, g stats.Granularity) (stats.PlayerStats, error)
	DailyCounters(ctx context.Context, playerID string) ([]model.Counter, error)
}

// PlayersHandler handles player read requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandlePlayer routes /players/{id}/stats and /players/{id}/counters.
func (h *PlayersHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/players/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "stats":
		h.handleStats(w, r, id)
	case "counters":
		h.handleCounters(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// parseFilter reads the stats filter from the parameters from, to,
// officialness, tournament, top and granularity.
func parseFilter(q url.Values) (stats.Filter, int, stats.Granularity, error) {
	var f stats.Filter

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, 0, "", NewKind("invalid from", ErrBadRequest)
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, 0, "", NewKind("invalid to", ErrBadRequest)
		}
		f.To = &t
	}

	switch o := stats.Officialness(q.Get("officialness")); o {
	case "", stats.OfficialnessAll:
		f.Officialness = stats.OfficialnessAll
	case stats.OfficialnessOfficial, stats.OfficialnessPractice, stats.OfficialnessIntraSquad:
		f.Officialness = o
	default:
		return f, 0, "", NewKind("invalid officialness", ErrBadRequest)
	}

	f.Tournament = q.Get("tournament")

	topN := 0
	if raw := q.Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, 0, "", NewKind("invalid top", ErrBadRequest)
		}
		topN = n
	}

	var g stats.Granularity
	switch gq := stats.Granularity(q.Get("granularity")); gq {
	case "":
		g = stats.GranularityDetailed
	case stats.GranularityCoarse, stats.GranularityDetailed:
		g = gq
	default:
		return f, 0, "", NewKind("invalid granularity", ErrBadRequest)
	}

	return f, topN, g, nil
}

func (h *PlayersHandler) handleStats(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_player_stats"

	f, topN, g, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	s, err := h.deps.PlayerStats(r.Context(), id, f, topN, g)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *PlayersHandler) handleCounters(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_player_counters"

	rows, err := h.deps.DailyCounters(r.Context(), id)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toCounterResponses(rows))
}
