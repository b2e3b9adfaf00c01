// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/zanshin/internal/domain/model"
)

const dateLayout = "2006-01-02"

// matchRequest mirrors the request schema for POST /matches.
type matchRequest struct {
	Date            string `json:"date"`
	OurUniversity   string `json:"our_university"`
	TheirUniversity string `json:"their_university"`
	Venue           string `json:"venue"`
	Tournament      string `json:"tournament"`
	Practice        bool   `json:"practice"`
}

func (m matchRequest) validate() error {
	switch {
	case strings.TrimSpace(m.Date) == "":
		return errors.New("missing date")
	case strings.TrimSpace(m.OurUniversity) == "":
		return errors.New("missing our_university")
	case strings.TrimSpace(m.TheirUniversity) == "":
		return errors.New("missing their_university")
	}
	if _, err := time.Parse(dateLayout, m.Date); err != nil {
		return errors.New("invalid date; must be YYYY-MM-DD")
	}
	return nil
}

func (m matchRequest) toModel() model.Match {
	date, _ := time.Parse(dateLayout, m.Date)
	return model.Match{
		Date:            date,
		OurUniversity:   m.OurUniversity,
		TheirUniversity: m.TheirUniversity,
		Venue:           m.Venue,
		Tournament:      m.Tournament,
		Practice:        m.Practice,
	}
}

// boutRequest mirrors the request schema for POST /bouts.
type boutRequest struct {
	MatchID       string `json:"match_id"`
	OurPlayerID   string `json:"our_player_id"`
	TheirPlayerID string `json:"their_player_id"`
	Position      string `json:"position"`
	OurStance     string `json:"our_stance"`
	TheirStance   string `json:"their_stance"`
	Seq           int    `json:"seq"`
}

func (b boutRequest) validate() error {
	switch {
	case strings.TrimSpace(b.OurPlayerID) == "":
		return errors.New("missing our_player_id")
	case strings.TrimSpace(b.TheirPlayerID) == "":
		return errors.New("missing their_player_id")
	case b.OurPlayerID == b.TheirPlayerID:
		return errors.New("a player cannot face themselves")
	}
	return nil
}

func (b boutRequest) toModel() model.Bout {
	return model.Bout{
		MatchID:       b.MatchID,
		OurPlayerID:   b.OurPlayerID,
		TheirPlayerID: b.TheirPlayerID,
		Position:      b.Position,
		OurStance:     b.OurStance,
		TheirStance:   b.TheirStance,
		Seq:           b.Seq,
	}
}

type createdResponse struct {
	ID string `json:"id"`
}

// pointResponse is the wire shape of a stored point.
type pointResponse struct {
	ID           string   `json:"id"`
	BoutID       string   `json:"bout_id"`
	TimeSec      int      `json:"time_sec"`
	ScorerID     string   `json:"scorer_id"`
	OpponentID   string   `json:"opponent_id"`
	Target       string   `json:"target,omitempty"`
	Methods      []string `json:"methods,omitempty"`
	Judgement    string   `json:"judgement"`
	Decisive     bool     `json:"decisive"`
	TechniqueKey string   `json:"technique_key"`
	RecordedAt   string   `json:"recorded_at"`
}

func toPointResponse(p model.Point) pointResponse {
	return pointResponse{
		ID:           p.ID,
		BoutID:       p.BoutID,
		TimeSec:      p.TimeSec,
		ScorerID:     p.ScorerID,
		OpponentID:   p.OpponentID,
		Target:       p.Target,
		Methods:      p.Methods,
		Judgement:    string(p.Judgement),
		Decisive:     p.Decisive,
		TechniqueKey: p.TechniqueKey,
		RecordedAt:   p.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func toPointResponses(pts []model.Point) []pointResponse {
	out := make([]pointResponse, 0, len(pts))
	for _, p := range pts {
		out = append(out, toPointResponse(p))
	}
	return out
}

// boutResponse is the wire shape of a bout with its points.
type boutResponse struct {
	ID            string          `json:"id"`
	MatchID       string          `json:"match_id,omitempty"`
	OurPlayerID   string          `json:"our_player_id"`
	TheirPlayerID string          `json:"their_player_id"`
	Position      string          `json:"position,omitempty"`
	OurStance     string          `json:"our_stance,omitempty"`
	TheirStance   string          `json:"their_stance,omitempty"`
	WinnerID      string          `json:"winner_id,omitempty"`
	WinType       string          `json:"win_type,omitempty"`
	Seq           int             `json:"seq"`
	Points        []pointResponse `json:"points"`
}

func toBoutResponse(b model.Bout) boutResponse {
	return boutResponse{
		ID:            b.ID,
		MatchID:       b.MatchID,
		OurPlayerID:   b.OurPlayerID,
		TheirPlayerID: b.TheirPlayerID,
		Position:      b.Position,
		OurStance:     b.OurStance,
		TheirStance:   b.TheirStance,
		WinnerID:      b.WinnerID,
		WinType:       string(b.WinType),
		Seq:           b.Seq,
		Points:        toPointResponses(b.Points),
	}
}

// matchResponse is the wire shape of a hydrated match.
type matchResponse struct {
	ID              string         `json:"id"`
	Date            string         `json:"date"`
	OurUniversity   string         `json:"our_university"`
	TheirUniversity string         `json:"their_university"`
	Venue           string         `json:"venue,omitempty"`
	Tournament      string         `json:"tournament,omitempty"`
	Practice        bool           `json:"practice"`
	Bouts           []boutResponse `json:"bouts"`
}

func toMatchResponse(m model.Match) matchResponse {
	bouts := make([]boutResponse, 0, len(m.Bouts))
	for _, b := range m.Bouts {
		bouts = append(bouts, toBoutResponse(b))
	}
	return matchResponse{
		ID:              m.ID,
		Date:            m.Date.UTC().Format(dateLayout),
		OurUniversity:   m.OurUniversity,
		TheirUniversity: m.TheirUniversity,
		Venue:           m.Venue,
		Tournament:      m.Tournament,
		Practice:        m.Practice,
		Bouts:           bouts,
	}
}

// counterResponse is one daily counter row.
type counterResponse struct {
	PlayerID string `json:"player_id"`
	Date     string `json:"date"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Count    int64  `json:"count"`
}

func toCounterResponses(rows []model.Counter) []counterResponse {
	out := make([]counterResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, counterResponse{
			PlayerID: c.PlayerID,
			Date:     c.Date,
			Kind:     string(c.Kind),
			Name:     c.Name,
			Count:    c.Count,
		})
	}
	return out
}
