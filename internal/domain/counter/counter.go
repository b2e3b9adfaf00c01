// Package counter derives the daily aggregate counter updates for a point.
// The same derivation backs both the incremental stream path and the batch
// rebuild, which is what keeps the two convergent over identical histories.
package counter

import (
	"time"

	"github.com/okian/zanshin/internal/domain/model"
)

// Key identifies one daily counter row.
type Key struct {
	PlayerID string
	Date     string // YYYY-MM-DD
	Kind     model.CounterKind
	Name     string
}

// DateOf derives the calendar-date portion of a recorded timestamp.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Increments returns the counter keys a point contributes one increment each
// to: exactly one target key, plus one key per method. A point missing its
// scorer, target or recorded timestamp contributes nothing at all — no
// partial updates.
func Increments(p model.Point) []Key {
	if p.ScorerID == "" || p.Target == "" || p.RecordedAt.IsZero() {
		return nil
	}
	date := DateOf(p.RecordedAt)

	keys := make([]Key, 0, 1+len(p.Methods))
	keys = append(keys, Key{
		PlayerID: p.ScorerID,
		Date:     date,
		Kind:     model.CounterTarget,
		Name:     p.Target,
	})
	for _, m := range p.Methods {
		keys = append(keys, Key{
			PlayerID: p.ScorerID,
			Date:     date,
			Kind:     model.CounterMethod,
			Name:     m,
		})
	}
	return keys
}

// FromEvent maps a queue event back to the point shape Increments consumes.
func FromEvent(e model.PointEvent) []Key {
	return Increments(model.Point{
		ScorerID:   e.ScorerID,
		Target:     e.Target,
		Methods:    e.Methods,
		RecordedAt: e.RecordedAt,
	})
}

// Rebuild replays the increment derivation over a full point history and
// returns the total per-key counts. Applying the result with overwrite
// upserts is idempotent: re-running over an unchanged history produces
// identical values.
func Rebuild(points []model.Point) map[Key]int64 {
	totals := make(map[Key]int64)
	for _, p := range points {
		for _, k := range Increments(p) {
			totals[k]++
		}
	}
	return totals
}
