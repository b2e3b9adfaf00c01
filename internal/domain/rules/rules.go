// Package rules decides a bout's outcome from its point set and the
// competition rule configuration.
package rules

import (
	"time"

	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/technique"
)

// Fouls convert to an opponent point once a side reaches this count.
const foulsPerPoint = 2

// Config carries the organization's tie-break policy.
type Config struct {
	// AllowSuddenDeath resolves ties into a pending ENCHO extension.
	// Checked before AllowPanelDecision.
	AllowSuddenDeath bool
	// AllowPanelDecision resolves ties into a pending HANTEI decision.
	AllowPanelDecision bool
	// AutoCompute enables automatic outcome recomputation on every save.
	// When false an operator sets the outcome manually and the engine
	// never second-guesses it.
	AutoCompute bool
}

// Outcome is the derived result of a bout. WinnerID is empty for DRAW and for
// the pending ENCHO/HANTEI states.
type Outcome struct {
	WinType  model.WinType
	WinnerID string
}

// Tally holds per-side point counts after foul conversion.
type Tally struct {
	Ours   int
	Theirs int
}

// CountSides tallies valid strikes per side and folds in foul-derived points:
// a side at 2+ fouls hands exactly one point to its opponent. Points that are
// neither valid strikes nor fouls (blank entry rows) are silently excluded.
// Persisted HANSOKU points are ignored here; the foul counts are the source
// of truth, which keeps repeated saves from double-counting converted fouls.
func CountSides(b model.Bout, points []model.Point, foulsOurs, foulsTheirs int) Tally {
	var t Tally
	for _, p := range points {
		if !p.ValidStrike() {
			continue
		}
		switch p.ScorerID {
		case b.OurPlayerID:
			t.Ours++
		case b.TheirPlayerID:
			t.Theirs++
		}
	}
	if foulsTheirs >= foulsPerPoint {
		t.Ours++
	}
	if foulsOurs >= foulsPerPoint {
		t.Theirs++
	}
	return t
}

// Decide computes the outcome for the given tally under cfg. It is total over
// its input domain: every tally maps to exactly one of DRAW, IPPON, NIHON,
// ENCHO or HANTEI.
func Decide(b model.Bout, t Tally, cfg Config) Outcome {
	switch {
	case t.Ours == 0 && t.Theirs == 0:
		return Outcome{WinType: model.WinTypeDraw}
	case t.Ours > t.Theirs:
		return Outcome{WinType: winTypeFor(t.Ours), WinnerID: b.OurPlayerID}
	case t.Theirs > t.Ours:
		return Outcome{WinType: winTypeFor(t.Theirs), WinnerID: b.TheirPlayerID}
	case cfg.AllowSuddenDeath:
		return Outcome{WinType: model.WinTypeEncho}
	case cfg.AllowPanelDecision:
		return Outcome{WinType: model.WinTypeHantei}
	default:
		return Outcome{WinType: model.WinTypeDraw}
	}
}

// winTypeFor maps the winning side's count to a win margin: one point is an
// IPPON win, two or more a NIHON win.
func winTypeFor(winningCount int) model.WinType {
	if winningCount == 1 {
		return model.WinTypeIppon
	}
	return model.WinTypeNihon
}

// FoulPoints materializes the foul-derived points for persistence alongside
// the entered strikes: at most one synthetic HANSOKU point per side,
// timestamped at zero seconds, with no target or methods.
func FoulPoints(b model.Bout, foulsOurs, foulsTheirs int, recordedAt time.Time) []model.Point {
	var pts []model.Point
	if foulsTheirs >= foulsPerPoint {
		pts = append(pts, foulPoint(b, b.OurPlayerID, b.TheirPlayerID, recordedAt))
	}
	if foulsOurs >= foulsPerPoint {
		pts = append(pts, foulPoint(b, b.TheirPlayerID, b.OurPlayerID, recordedAt))
	}
	return pts
}

func foulPoint(b model.Bout, scorerID, foulingID string, recordedAt time.Time) model.Point {
	return model.Point{
		BoutID:       b.ID,
		TimeSec:      0,
		ScorerID:     scorerID,
		OpponentID:   foulingID,
		Judgement:    model.JudgementHansoku,
		TechniqueKey: technique.KeyHansoku,
		RecordedAt:   recordedAt,
	}
}

// ValidateOverride checks a manual outcome assignment: a DRAW carries no
// winner, any other win type requires a winner drawn from the bout's two
// players. Pending states may be set with or without a winner cleared.
func ValidateOverride(b model.Bout, winType model.WinType, winnerID string) bool {
	switch winType {
	case model.WinTypeDraw, model.WinTypeNone:
		return winnerID == ""
	case model.WinTypeEncho, model.WinTypeHantei:
		return winnerID == "" || b.HasPlayer(winnerID)
	case model.WinTypeIppon, model.WinTypeNihon:
		return b.HasPlayer(winnerID)
	default:
		return false
	}
}
