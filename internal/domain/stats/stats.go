// Package stats computes a player's statistics over a filtered set of
// matches. Pure, read-only computation: the full match set is already in
// memory when Compute runs.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/technique"
)

// Officialness selects which match categories the filter keeps.
type Officialness string

// Officialness values. Official means not flagged practice; intra-squad means
// both sides are the configured home university.
const (
	OfficialnessAll        Officialness = "all"
	OfficialnessOfficial   Officialness = "official"
	OfficialnessPractice   Officialness = "practice"
	OfficialnessIntraSquad Officialness = "intra-squad"
)

// Granularity selects the technique breakdown key: target only, or
// target+methods.
type Granularity string

// Granularity values.
const (
	GranularityCoarse   Granularity = "coarse"
	GranularityDetailed Granularity = "detailed"
)

// Head-to-head table cutoff.
const headToHeadLimit = 8

// Filter narrows the match set before aggregation.
type Filter struct {
	From         *time.Time
	To           *time.Time
	Officialness Officialness
	// Tournament is a case-insensitive substring match against the match's
	// tournament label. When set, matches without any label are excluded.
	Tournament string
	// HomeUniversity backs the intra-squad check.
	HomeUniversity string
}

// TechniqueCount is one row of a technique frequency breakdown.
type TechniqueCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// OpponentRecord is one head-to-head row.
type OpponentRecord struct {
	OpponentID    string `json:"opponent_id"`
	Bouts         int    `json:"bouts"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Draws         int    `json:"draws"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
}

// PlayerStats is the aggregation output for one player.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Matches  int    `json:"matches"`
	Bouts    int    `json:"bouts"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`

	PointsFor     int `json:"points_for"`
	PointsAgainst int `json:"points_against"`
	Differential  int `json:"differential"`

	// WinRate and PointsPerBout are 0 when Bouts is 0, never NaN.
	WinRate       float64 `json:"win_rate"`
	PointsPerBout float64 `json:"points_per_bout"`

	// Timing values are nil when no scored strike exists; 0 is never
	// reported as a false average.
	AvgTimeToScoreSec *float64 `json:"avg_time_to_score_sec"`
	FastestScoreSec   *int     `json:"fastest_score_sec"`
	SlowestScoreSec   *int     `json:"slowest_score_sec"`

	TopFor     []TechniqueCount `json:"top_for"`
	TopAgainst []TechniqueCount `json:"top_against"`

	HeadToHead []OpponentRecord `json:"head_to_head"`
}

// orderedTally counts keys while remembering first-occurrence order, so ties
// in the frequency breakdowns resolve deterministically rather than by map
// iteration order.
type orderedTally struct {
	keys   []string
	counts map[string]int
}

func newOrderedTally() *orderedTally {
	return &orderedTally{counts: make(map[string]int)}
}

func (t *orderedTally) add(key string) {
	if _, seen := t.counts[key]; !seen {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
}

// top returns the n most frequent keys, count descending, ties broken by
// first occurrence.
func (t *orderedTally) top(n int) []TechniqueCount {
	out := make([]TechniqueCount, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, TechniqueCount{Key: k, Count: t.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Compute aggregates playerID's record over the matches surviving f. topN
// caps both technique breakdowns; a negative topN means no cap.
func Compute(matches []model.Match, playerID string, f Filter, topN int, g Granularity) PlayerStats {
	s := PlayerStats{PlayerID: playerID}

	topFor := newOrderedTally()
	topAgainst := newOrderedTally()

	opponentOrder := make([]string, 0)
	opponents := make(map[string]*OpponentRecord)

	var times []int

	for _, m := range matches {
		if !matchIncluded(m, f) {
			continue
		}
		playerSeen := false

		for _, b := range m.Bouts {
			if !b.HasPlayer(playerID) {
				continue
			}
			playerSeen = true
			opponentID := b.OpponentOf(playerID)

			rec := opponents[opponentID]
			if rec == nil {
				rec = &OpponentRecord{OpponentID: opponentID}
				opponents[opponentID] = rec
				opponentOrder = append(opponentOrder, opponentID)
			}

			s.Bouts++
			rec.Bouts++

			switch {
			case b.WinType == model.WinTypeDraw:
				s.Draws++
				rec.Draws++
			case b.WinnerID == playerID:
				s.Wins++
				rec.Wins++
			case b.WinnerID != "":
				s.Losses++
				rec.Losses++
			}
			// A pending ENCHO/HANTEI bout counts toward the bout total only.

			for _, p := range b.Points {
				key := pointKey(p, g)
				switch {
				case p.ScorerID == playerID:
					s.PointsFor++
					rec.PointsFor++
					if key != "" {
						topFor.add(key)
					}
					if !p.IsFoul() {
						times = append(times, p.TimeSec)
					}
				case p.ScorerID == opponentID && opponentID != playerID:
					s.PointsAgainst++
					rec.PointsAgainst++
					if key != "" {
						topAgainst.add(key)
					}
				}
			}
		}

		if playerSeen {
			s.Matches++
		}
	}

	s.Differential = s.PointsFor - s.PointsAgainst
	if s.Bouts > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Bouts)
		s.PointsPerBout = float64(s.PointsFor) / float64(s.Bouts)
	}

	if len(times) > 0 {
		sum, fastest, slowest := 0, times[0], times[0]
		for _, t := range times {
			sum += t
			if t < fastest {
				fastest = t
			}
			if t > slowest {
				slowest = t
			}
		}
		avg := float64(sum) / float64(len(times))
		s.AvgTimeToScoreSec = &avg
		s.FastestScoreSec = &fastest
		s.SlowestScoreSec = &slowest
	}

	s.TopFor = topFor.top(topN)
	s.TopAgainst = topAgainst.top(topN)

	h2h := make([]OpponentRecord, 0, len(opponentOrder))
	for _, id := range opponentOrder {
		h2h = append(h2h, *opponents[id])
	}
	sort.SliceStable(h2h, func(i, j int) bool { return h2h[i].Bouts > h2h[j].Bouts })
	if len(h2h) > headToHeadLimit {
		h2h = h2h[:headToHeadLimit]
	}
	s.HeadToHead = h2h

	return s
}

// pointKey maps a point to its breakdown bucket. Foul points land in a
// dedicated HANSOKU bucket at both granularities; incomplete keys are never
// aggregated.
func pointKey(p model.Point, g Granularity) string {
	if p.IsFoul() {
		return technique.KeyHansoku
	}
	var key string
	if g == GranularityCoarse {
		key = technique.CoarseKey(p.Target, p.Methods)
	} else {
		key = p.TechniqueKey
		if key == "" {
			key = technique.CanonicalKey(p.Target, p.Methods)
		}
	}
	if technique.IsIncomplete(key) {
		return ""
	}
	return key
}

func matchIncluded(m model.Match, f Filter) bool {
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}

	switch f.Officialness {
	case OfficialnessOfficial:
		if m.Practice {
			return false
		}
	case OfficialnessPractice:
		if !m.Practice {
			return false
		}
	case OfficialnessIntraSquad:
		if f.HomeUniversity == "" ||
			m.OurUniversity != f.HomeUniversity ||
			m.TheirUniversity != f.HomeUniversity {
			return false
		}
	}

	if f.Tournament != "" {
		if m.Tournament == "" {
			return false
		}
		if !strings.Contains(strings.ToLower(m.Tournament), strings.ToLower(f.Tournament)) {
			return false
		}
	}

	return true
}
