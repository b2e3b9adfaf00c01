// Package model contains domain models passed between layers.
package model

import "time"

// Judgement classifies how a point was awarded.
type Judgement string

// Judgement values. ENCHO marks points scored in the sudden-death period;
// HANSOKU marks a point synthesized from the opponent's fouls.
const (
	JudgementRegular Judgement = "REGULAR"
	JudgementEncho   Judgement = "ENCHO"
	JudgementHansoku Judgement = "HANSOKU"
)

// WinType classifies a bout outcome.
type WinType string

// WinType values. ENCHO and HANTEI leave the winner unassigned, pending
// further points or a manual decision.
const (
	WinTypeNone   WinType = ""
	WinTypeIppon  WinType = "IPPON"
	WinTypeNihon  WinType = "NIHON"
	WinTypeEncho  WinType = "ENCHO"
	WinTypeHantei WinType = "HANTEI"
	WinTypeDraw   WinType = "DRAW"
)

// Pending reports whether the win type awaits a manual resolution.
func (w WinType) Pending() bool {
	return w == WinTypeEncho || w == WinTypeHantei
}

// Point is one scoring or foul event within a bout.
type Point struct {
	ID           string
	BoutID       string
	TimeSec      int // elapsed seconds into the bout, >= 0
	ScorerID     string
	OpponentID   string // conceding player
	Target       string // empty only for foul-awarded points
	Methods      []string
	Judgement    Judgement
	Decisive     bool
	TechniqueKey string
	RecordedAt   time.Time
	Version      int64
}

// IsFoul reports whether the point was awarded from the opponent's fouls.
func (p Point) IsFoul() bool {
	return p.Judgement == JudgementHansoku
}

// ValidStrike reports whether the point is a countable strike: a target plus
// at least one method. Foul points are not strikes.
func (p Point) ValidStrike() bool {
	return !p.IsFoul() && p.Target != "" && len(p.Methods) > 0
}

// Bout is one player-vs-player contest within a match. The two sides are
// semantically symmetric; "ours"/"theirs" only reflects the registering team.
type Bout struct {
	ID            string
	MatchID       string
	OurPlayerID   string
	TheirPlayerID string
	Position      string // optional order label, e.g. "senpo", "taisho"
	OurStance     string
	TheirStance   string
	WinnerID      string // empty until decided
	WinType       WinType
	Seq           int // entry order, used when back-filling historical bouts
	Points        []Point
}

// HasPlayer reports whether id is one of the bout's two players.
func (b Bout) HasPlayer(id string) bool {
	return id != "" && (b.OurPlayerID == id || b.TheirPlayerID == id)
}

// OpponentOf returns the other side's player id, or "" if id is not in the
// bout.
func (b Bout) OpponentOf(id string) string {
	switch id {
	case b.OurPlayerID:
		return b.TheirPlayerID
	case b.TheirPlayerID:
		return b.OurPlayerID
	default:
		return ""
	}
}

// Match is a date-stamped event between two universities containing an
// ordered set of bouts.
type Match struct {
	ID              string
	Date            time.Time
	OurUniversity   string
	TheirUniversity string
	Venue           string
	Tournament      string // free-text grouping label
	Practice        bool   // practice match as opposed to official competition
	Bouts           []Bout
}

// CounterKind discriminates the two daily counter families.
type CounterKind string

// Counter kinds.
const (
	CounterTarget CounterKind = "TARGET"
	CounterMethod CounterKind = "METHOD"
)

// Counter is one (player, day, target-or-method) aggregate row. Maintained by
// both the incremental stream path and the batch rebuild; the two must
// converge over the same point history.
type Counter struct {
	PlayerID string
	Date     string // calendar date, YYYY-MM-DD
	Kind     CounterKind
	Name     string // target code or method code
	Count    int64
}

// PointEvent is the queue payload that fans a persisted point out to the
// stream aggregator.
type PointEvent struct {
	EventID    string // point id + version, used for idempotency
	PointID    string
	ScorerID   string
	Target     string
	Methods    []string
	RecordedAt time.Time
}
