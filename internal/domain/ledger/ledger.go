// Package ledger owns validity checking and storage-shape construction for
// the points belonging to a bout. Persistence mechanics stay with the store;
// the ledger decides what a save writes.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/rules"
	"github.com/okian/zanshin/internal/domain/technique"
)

// Skip reasons reported for dropped candidate rows.
const (
	SkipMissingTarget = "missing_target"
	SkipNoMethods     = "no_methods"
	SkipNegativeTime  = "negative_time"
	SkipUnknownScorer = "unknown_scorer"
)

// Candidate is one scoring form row as entered. Partially filled rows are
// expected and are skipped rather than rejected.
type Candidate struct {
	ScorerID string
	TimeSec  int
	Target   string
	Methods  []string
	Encho    bool // scored during the sudden-death period
	Decisive bool
}

// Verdict is the screening result for a single candidate: either a point
// ready for persistence, or a skip with its reason. Exactly one of the two
// holds.
type Verdict struct {
	Point   model.Point
	Skipped bool
	Reason  string
}

func skipped(reason string) Verdict {
	return Verdict{Skipped: true, Reason: reason}
}

// Screen validates one candidate against the bout. A valid non-foul point has
// a known scorer, a non-empty target, at least one method and a non-negative
// time. Anything else models a blank or half-filled entry row and is dropped
// without error.
func Screen(b model.Bout, c Candidate, recordedAt time.Time) Verdict {
	switch {
	case !b.HasPlayer(c.ScorerID):
		return skipped(SkipUnknownScorer)
	case c.Target == "":
		return skipped(SkipMissingTarget)
	case len(c.Methods) == 0:
		return skipped(SkipNoMethods)
	case c.TimeSec < 0:
		return skipped(SkipNegativeTime)
	}

	judgement := model.JudgementRegular
	if c.Encho {
		judgement = model.JudgementEncho
	}

	return Verdict{Point: model.Point{
		ID:           uuid.NewString(),
		BoutID:       b.ID,
		TimeSec:      c.TimeSec,
		ScorerID:     c.ScorerID,
		OpponentID:   b.OpponentOf(c.ScorerID),
		Target:       c.Target,
		Methods:      append([]string(nil), c.Methods...),
		Judgement:    judgement,
		Decisive:     c.Decisive,
		TechniqueKey: technique.CanonicalKey(c.Target, c.Methods),
		RecordedAt:   recordedAt,
		Version:      1,
	}}
}

// BuildSet screens every candidate and appends the foul-derived points for
// the current foul counts. The returned slice is the complete replacement
// point set for the bout: a save deletes everything existing first, so fouls
// already converted on a previous save cannot accumulate.
func BuildSet(b model.Bout, candidates []Candidate, foulsOurs, foulsTheirs int, recordedAt time.Time) ([]model.Point, []Verdict) {
	points := make([]model.Point, 0, len(candidates)+2)
	skips := make([]Verdict, 0)

	for _, c := range candidates {
		v := Screen(b, c, recordedAt)
		if v.Skipped {
			skips = append(skips, v)
			continue
		}
		points = append(points, v.Point)
	}

	for _, fp := range rules.FoulPoints(b, foulsOurs, foulsTheirs, recordedAt) {
		fp.ID = uuid.NewString()
		fp.Version = 1
		points = append(points, fp)
	}

	return points, skips
}
