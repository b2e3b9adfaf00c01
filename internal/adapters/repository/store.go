// Package repository defines the document store interface and errors.
package repository

import (
	"context"

	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/model"
)

// Store provides create/read/update/delete and indexed-list access over the
// service's entities. List operations return a continuation token; callers
// must drain the token to the end before aggregating, since aggregation
// requires the complete filtered set in memory.
type Store interface {
	// CreateMatch persists a match shell (bouts are registered separately)
	// and returns its id.
	CreateMatch(ctx context.Context, m model.Match) (string, error)
	// GetMatch returns a match hydrated with its bouts and their points.
	// Returns ErrNotFound for an unknown id.
	GetMatch(ctx context.Context, id string) (model.Match, error)
	// ListMatches pages through all matches, hydrated, ordered by date then
	// insertion. An empty token starts from the beginning; an empty returned
	// token means the listing is drained.
	ListMatches(ctx context.Context, token string, limit int) ([]model.Match, string, error)
	// DeleteMatch removes a match shell. Its bouts must be deleted first.
	DeleteMatch(ctx context.Context, id string) error

	// CreateBout registers a match-up and returns its id.
	CreateBout(ctx context.Context, b model.Bout) (string, error)
	// GetBout returns a bout hydrated with its points.
	GetBout(ctx context.Context, id string) (model.Bout, error)
	// UpdateBoutOutcome sets the derived or manually assigned outcome.
	UpdateBoutOutcome(ctx context.Context, boutID string, winType model.WinType, winnerID string) error
	// DeleteBout removes a bout. Its points must be deleted first (replace
	// with an empty set); referential cleanup is the caller's concern.
	DeleteBout(ctx context.Context, id string) error

	// ReplaceBoutPoints atomically swaps the bout's entire point set:
	// deletions complete before insertions begin, and a failed deletion
	// aborts before anything is inserted. Each stored point is stamped with
	// the bout's next version generation; the stamped set is returned.
	ReplaceBoutPoints(ctx context.Context, boutID string, pts []model.Point) ([]model.Point, error)
	// ListBoutPoints returns the bout's current point set.
	ListBoutPoints(ctx context.Context, boutID string) ([]model.Point, error)
	// ListPoints pages through every point ever recorded (batch rebuild
	// input).
	ListPoints(ctx context.Context, token string, limit int) ([]model.Point, string, error)

	// IncrementDailyCounter atomically adds delta to the counter row keyed
	// by key, creating it at delta if absent. Never last-write-wins.
	IncrementDailyCounter(ctx context.Context, key counter.Key, delta int64) error
	// PutDailyCounter overwrites the counter row with an absolute count
	// (batch rebuild path; idempotent).
	PutDailyCounter(ctx context.Context, key counter.Key, count int64) error
	// ListDailyCounters returns a player's counter rows, ordered by date,
	// kind, then name.
	ListDailyCounters(ctx context.Context, playerID string) ([]model.Counter, error)

	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
