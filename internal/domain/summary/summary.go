// Package summary builds the payload handed to the external AI summarization
// service. Every field is enumerated explicitly; the payload is derived
// deterministically from the aggregation output and nothing in the core
// depends on the AI response content.
package summary

import (
	"time"

	"github.com/okian/zanshin/internal/domain/stats"
)

// FilterEcho restates the applied filter so the generated text can reference
// the sample it describes.
type FilterEcho struct {
	DateFrom     string `json:"date_from,omitempty"`
	DateTo       string `json:"date_to,omitempty"`
	Officialness string `json:"officialness"`
	Tournament   string `json:"tournament,omitempty"`
}

// SampleSizes states how much data backs the statistics.
type SampleSizes struct {
	Matches int `json:"matches"`
	Bouts   int `json:"bouts"`
	Points  int `json:"points"`
}

// Payload is the complete request body for a summarization call.
type Payload struct {
	PlayerID    string                 `json:"player_id"`
	Filter      FilterEcho             `json:"filter"`
	Samples     SampleSizes            `json:"samples"`
	Stats       stats.PlayerStats      `json:"stats"`
	TopFor      []stats.TechniqueCount `json:"top_for"`
	TopAgainst  []stats.TechniqueCount `json:"top_against"`
	HeadToHead  []stats.OpponentRecord `json:"head_to_head"`
	Notes       string                 `json:"notes,omitempty"`
	Granularity string                 `json:"granularity"`
}

// Build assembles the payload from an aggregation result. Identical inputs
// produce identical payloads.
func Build(s stats.PlayerStats, f stats.Filter, g stats.Granularity, notes string) Payload {
	officialness := string(f.Officialness)
	if officialness == "" {
		officialness = string(stats.OfficialnessAll)
	}

	return Payload{
		PlayerID: s.PlayerID,
		Filter: FilterEcho{
			DateFrom:     formatDate(f.From),
			DateTo:       formatDate(f.To),
			Officialness: officialness,
			Tournament:   f.Tournament,
		},
		Samples: SampleSizes{
			Matches: s.Matches,
			Bouts:   s.Bouts,
			Points:  s.PointsFor + s.PointsAgainst,
		},
		Stats:       s,
		TopFor:      s.TopFor,
		TopAgainst:  s.TopAgainst,
		HeadToHead:  s.HeadToHead,
		Notes:       notes,
		Granularity: string(g),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
