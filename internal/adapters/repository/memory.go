package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/model"
)

// MemoryStore implements Store with mutex-guarded maps. It backs tests and
// deployments without a configured document store.
type MemoryStore struct {
	mu sync.RWMutex

	matches    map[string]model.Match // shells, bouts held separately
	matchOrder []string

	bouts     map[string]model.Bout // shells, points held separately
	boutOrder []string

	points     map[string]model.Point
	pointOrder []string

	boutGen  map[string]int64 // per-bout point-set version generation
	counters map[counter.Key]int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{
		matches:  make(map[string]model.Match),
		bouts:    make(map[string]model.Bout),
		points:   make(map[string]model.Point),
		boutGen:  make(map[string]int64),
		counters: make(map[counter.Key]int64),
	}
}

// CreateMatch persists a match shell and returns its id.
func (s *MemoryStore) CreateMatch(_ context.Context, m model.Match) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Bouts = nil
	s.matches[m.ID] = m
	s.matchOrder = append(s.matchOrder, m.ID)
	return m.ID, nil
}

// GetMatch returns a match hydrated with its bouts and points.
func (s *MemoryStore) GetMatch(_ context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, ErrNotFound
	}
	return s.hydrateMatch(m), nil
}

// ListMatches pages through all matches ordered by date then insertion.
func (s *MemoryStore) ListMatches(_ context.Context, token string, limit int) ([]model.Match, string, error) {
	offset, err := parseToken(token)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Match, 0, len(s.matchOrder))
	for _, id := range s.matchOrder {
		all = append(all, s.matches[id])
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })

	if offset >= len(all) {
		return nil, "", nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	page := make([]model.Match, 0, end-offset)
	for _, m := range all[offset:end] {
		page = append(page, s.hydrateMatch(m))
	}

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// DeleteMatch removes a match shell; fails while bouts still reference it.
func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return ErrNotFound
	}
	for _, b := range s.bouts {
		if b.MatchID == id {
			return ErrNotEmpty
		}
	}
	delete(s.matches, id)
	s.matchOrder = removeID(s.matchOrder, id)
	return nil
}

// CreateBout registers a match-up and returns its id.
func (s *MemoryStore) CreateBout(_ context.Context, b model.Bout) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.MatchID != "" {
		if _, ok := s.matches[b.MatchID]; !ok {
			return "", ErrNotFound
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Points = nil
	s.bouts[b.ID] = b
	s.boutOrder = append(s.boutOrder, b.ID)
	return b.ID, nil
}

// GetBout returns a bout hydrated with its points.
func (s *MemoryStore) GetBout(_ context.Context, id string) (model.Bout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bouts[id]
	if !ok {
		return model.Bout{}, ErrNotFound
	}
	b.Points = s.boutPoints(id)
	return b, nil
}

// UpdateBoutOutcome sets the derived or manually assigned outcome.
func (s *MemoryStore) UpdateBoutOutcome(_ context.Context, boutID string, winType model.WinType, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bouts[boutID]
	if !ok {
		return ErrNotFound
	}
	b.WinType = winType
	b.WinnerID = winnerID
	s.bouts[boutID] = b
	return nil
}

// DeleteBout removes a bout; fails while points still reference it.
func (s *MemoryStore) DeleteBout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bouts[id]; !ok {
		return ErrNotFound
	}
	for _, p := range s.points {
		if p.BoutID == id {
			return ErrNotEmpty
		}
	}
	delete(s.bouts, id)
	delete(s.boutGen, id)
	s.boutOrder = removeID(s.boutOrder, id)
	return nil
}

// ReplaceBoutPoints swaps the bout's point set under a single lock: no reader
// ever observes the half-replaced state.
func (s *MemoryStore) ReplaceBoutPoints(_ context.Context, boutID string, pts []model.Point) ([]model.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bouts[boutID]; !ok {
		return nil, ErrNotFound
	}

	for _, id := range s.pointOrder {
		if p, ok := s.points[id]; ok && p.BoutID == boutID {
			delete(s.points, id)
		}
	}
	s.pointOrder = compactPointOrder(s.pointOrder, s.points)

	s.boutGen[boutID]++
	gen := s.boutGen[boutID]

	stamped := make([]model.Point, 0, len(pts))
	for _, p := range pts {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.BoutID = boutID
		p.Version = gen
		p.Methods = append([]string(nil), p.Methods...)
		s.points[p.ID] = p
		s.pointOrder = append(s.pointOrder, p.ID)
		stamped = append(stamped, clonePoint(p))
	}
	return stamped, nil
}

// ListBoutPoints returns the bout's current point set.
func (s *MemoryStore) ListBoutPoints(_ context.Context, boutID string) ([]model.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.bouts[boutID]; !ok {
		return nil, ErrNotFound
	}
	return s.boutPoints(boutID), nil
}

// ListPoints pages through every recorded point in insertion order.
func (s *MemoryStore) ListPoints(_ context.Context, token string, limit int) ([]model.Point, string, error) {
	offset, err := parseToken(token)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.pointOrder) {
		return nil, "", nil
	}
	end := offset + limit
	if end > len(s.pointOrder) {
		end = len(s.pointOrder)
	}

	page := make([]model.Point, 0, end-offset)
	for _, id := range s.pointOrder[offset:end] {
		page = append(page, clonePoint(s.points[id]))
	}

	next := ""
	if end < len(s.pointOrder) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// IncrementDailyCounter atomically adds delta under the store lock.
func (s *MemoryStore) IncrementDailyCounter(_ context.Context, key counter.Key, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += delta
	return nil
}

// PutDailyCounter overwrites the row with an absolute count.
func (s *MemoryStore) PutDailyCounter(_ context.Context, key counter.Key, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = count
	return nil
}

// ListDailyCounters returns a player's counter rows ordered by date, kind,
// then name.
func (s *MemoryStore) ListDailyCounters(_ context.Context, playerID string) ([]model.Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]model.Counter, 0)
	for k, v := range s.counters {
		if k.PlayerID != playerID {
			continue
		}
		rows = append(rows, model.Counter{
			PlayerID: k.PlayerID,
			Date:     k.Date,
			Kind:     k.Kind,
			Name:     k.Name,
			Count:    v,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(_ context.Context) error { return nil }

// hydrateMatch attaches bouts (by seq, then insertion) and their points.
// Called with at least a read lock held.
func (s *MemoryStore) hydrateMatch(m model.Match) model.Match {
	bouts := make([]model.Bout, 0)
	for _, id := range s.boutOrder {
		b, ok := s.bouts[id]
		if !ok || b.MatchID != m.ID {
			continue
		}
		b.Points = s.boutPoints(b.ID)
		bouts = append(bouts, b)
	}
	sort.SliceStable(bouts, func(i, j int) bool { return bouts[i].Seq < bouts[j].Seq })
	m.Bouts = bouts
	return m
}

// boutPoints collects a bout's points in insertion order. Called with at
// least a read lock held.
func (s *MemoryStore) boutPoints(boutID string) []model.Point {
	pts := make([]model.Point, 0)
	for _, id := range s.pointOrder {
		if p, ok := s.points[id]; ok && p.BoutID == boutID {
			pts = append(pts, clonePoint(p))
		}
	}
	return pts
}

func clonePoint(p model.Point) model.Point {
	p.Methods = append([]string(nil), p.Methods...)
	return p
}

func parseToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidToken
	}
	return offset, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func compactPointOrder(order []string, live map[string]model.Point) []string {
	out := order[:0]
	for _, id := range order {
		if _, ok := live[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
