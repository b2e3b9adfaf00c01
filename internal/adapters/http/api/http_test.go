package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/zanshin/internal/adapters/http/api"
	service "github.com/okian/zanshin/internal/app"
	"github.com/okian/zanshin/internal/domain/stats"
	"github.com/okian/zanshin/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newTestMux starts a service on the in-memory store and registers the API
// routes against it.
func newTestMux(ctx context.Context) (*http.ServeMux, *service.Service) {
	svc := service.New(service.WithWorkerCount(2))
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	return mux, svc
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createFixture(mux *http.ServeMux) (matchID, boutID string) {
	rec := doJSON(mux, http.MethodPost, "/matches", `{
		"date": "2026-05-10",
		"our_university": "Waseda",
		"their_university": "Keio",
		"tournament": "Kanto League"
	}`)
	if rec.Code != http.StatusCreated {
		panic(fmt.Sprintf("create match: %d %s", rec.Code, rec.Body.String()))
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	matchID = created.ID

	rec = doJSON(mux, http.MethodPost, "/bouts", fmt.Sprintf(`{
		"match_id": %q,
		"our_player_id": "taro",
		"their_player_id": "kenji",
		"seq": 1
	}`, matchID))
	if rec.Code != http.StatusCreated {
		panic(fmt.Sprintf("create bout: %d %s", rec.Code, rec.Body.String()))
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	boutID = created.ID
	return matchID, boutID
}

func TestMatchesEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		Convey("When creating a valid match", func() {
			rec := doJSON(mux, http.MethodPost, "/matches", `{
				"date": "2026-05-10",
				"our_university": "Waseda",
				"their_university": "Keio"
			}`)

			Convey("Then it should return the created id", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(rec.Body.String(), ShouldContainSubstring, `"id"`)
			})
		})

		Convey("When creating a match without a date", func() {
			rec := doJSON(mux, http.MethodPost, "/matches", `{
				"our_university": "Waseda",
				"their_university": "Keio"
			}`)

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching an unknown match", func() {
			rec := doJSON(mux, http.MethodGet, "/matches/nope", "")

			Convey("Then it should return not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When deleting a match that still has bouts", func() {
			matchID, _ := createFixture(mux)
			rec := doJSON(mux, http.MethodDelete, "/matches/"+matchID, "")

			Convey("Then it should report the conflict", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestBoutScoreEndpoint(t *testing.T) {
	Convey("Given a registered API server with a bout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		_, boutID := createFixture(mux)

		Convey("When saving a score sheet", func() {
			rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/score", `{
				"points": [
					{"scorer_id": "taro", "time_sec": 45, "target": "KOTE", "methods": ["KAESHI"]},
					{"scorer_id": "taro", "time_sec": 180, "target": "MEN", "methods": ["DEBANA"], "decisive": true},
					{"scorer_id": "kenji", "time_sec": 30, "target": "", "methods": ["SURIAGE"]}
				],
				"fouls_ours": 0,
				"fouls_theirs": 0
			}`)

			Convey("Then the valid points should be stored and the outcome derived", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var res struct {
					Points  []map[string]any `json:"points"`
					Skipped []struct {
						Reason string `json:"reason"`
					} `json:"skipped"`
					Outcome struct {
						WinType  string `json:"win_type"`
						WinnerID string `json:"winner_id"`
					} `json:"outcome"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.Points, ShouldHaveLength, 2)
				So(res.Skipped, ShouldHaveLength, 1)
				So(res.Skipped[0].Reason, ShouldEqual, "missing_target")
				So(res.Outcome.WinType, ShouldEqual, "NIHON")
				So(res.Outcome.WinnerID, ShouldEqual, "taro")
			})

			Convey("And the bout resource should expose the points", func() {
				getRec := doJSON(mux, http.MethodGet, "/bouts/"+boutID, "")
				So(getRec.Code, ShouldEqual, http.StatusOK)
				So(getRec.Body.String(), ShouldContainSubstring, `"KOTE:KAESHI"`)
			})
		})

		Convey("When saving with negative foul counts", func() {
			rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/score", `{"points": [], "fouls_ours": -1}`)

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When saving against an unknown bout", func() {
			rec := doJSON(mux, http.MethodPut, "/bouts/nope/score", `{"points": []}`)

			Convey("Then it should return not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestBoutOutcomeEndpoint(t *testing.T) {
	Convey("Given a registered API server with a bout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		_, boutID := createFixture(mux)

		Convey("When overriding with a valid panel decision", func() {
			rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/outcome", `{"win_type": "HANTEI", "winner_id": "kenji"}`)

			Convey("Then the override should be persisted", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				getRec := doJSON(mux, http.MethodGet, "/bouts/"+boutID, "")
				So(getRec.Body.String(), ShouldContainSubstring, `"win_type":"HANTEI"`)
			})
		})

		Convey("When overriding with a winner outside the bout", func() {
			rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/outcome", `{"win_type": "IPPON", "winner_id": "stranger"}`)

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "invalid_outcome")
			})
		})
	})
}

func TestPlayerEndpoints(t *testing.T) {
	Convey("Given a registered API server with a scored bout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		_, boutID := createFixture(mux)
		rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/score", `{
			"points": [
				{"scorer_id": "taro", "time_sec": 45, "target": "KOTE", "methods": ["KAESHI"]},
				{"scorer_id": "taro", "time_sec": 180, "target": "MEN", "methods": ["DEBANA"]}
			]
		}`)
		So(rec.Code, ShouldEqual, http.StatusOK)

		Convey("When fetching the scorer's stats", func() {
			rec := doJSON(mux, http.MethodGet, "/players/taro/stats?granularity=detailed", "")

			Convey("Then the aggregates should reflect the bout", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var s stats.PlayerStats
				So(json.Unmarshal(rec.Body.Bytes(), &s), ShouldBeNil)
				So(s.Bouts, ShouldEqual, 1)
				So(s.Wins, ShouldEqual, 1)
				So(s.PointsFor, ShouldEqual, 2)
				So(s.AvgTimeToScoreSec, ShouldNotBeNil)
				So(*s.AvgTimeToScoreSec, ShouldEqual, 112.5)
			})
		})

		Convey("When filtering by a date window with no matches", func() {
			rec := doJSON(mux, http.MethodGet, "/players/taro/stats?from=2030-01-01", "")

			Convey("Then the aggregates should be empty", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var s stats.PlayerStats
				So(json.Unmarshal(rec.Body.Bytes(), &s), ShouldBeNil)
				So(s.Bouts, ShouldEqual, 0)
				So(s.AvgTimeToScoreSec, ShouldBeNil)
			})
		})

		Convey("When using an invalid officialness", func() {
			rec := doJSON(mux, http.MethodGet, "/players/taro/stats?officialness=casual", "")

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching daily counters after the workers drain", func() {
			time.Sleep(200 * time.Millisecond)
			rec := doJSON(mux, http.MethodGet, "/players/taro/counters", "")

			Convey("Then the counter rows should be present", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"TARGET"`)
				So(rec.Body.String(), ShouldContainSubstring, `"KOTE"`)
			})
		})
	})
}

func TestRebuildEndpoint(t *testing.T) {
	Convey("Given a registered API server with a scored bout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		_, boutID := createFixture(mux)
		rec := doJSON(mux, http.MethodPut, "/bouts/"+boutID+"/score", `{
			"points": [{"scorer_id": "taro", "time_sec": 45, "target": "KOTE", "methods": ["KAESHI"]}]
		}`)
		So(rec.Code, ShouldEqual, http.StatusOK)

		Convey("When triggering a batch rebuild", func() {
			rec := doJSON(mux, http.MethodPost, "/rebuild", "")

			Convey("Then it should report the rewritten rows", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var res struct {
					Rows int `json:"rows"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.Rows, ShouldEqual, 2)
			})
		})

		Convey("When using the wrong method", func() {
			rec := doJSON(mux, http.MethodGet, "/rebuild", "")

			Convey("Then it should not be routed", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSummariesEndpoint(t *testing.T) {
	Convey("Given a registered API server without a summarizer", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		Convey("When requesting a summary", func() {
			rec := doJSON(mux, http.MethodPost, "/summaries", `{"player_id": "taro"}`)

			Convey("Then it should report summaries as disabled", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When requesting a summary without a player", func() {
			rec := doJSON(mux, http.MethodPost, "/summaries", `{}`)

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When following up without a session", func() {
			rec := doJSON(mux, http.MethodPost, "/summaries/follow-up", `{"question": "why?"}`)

			Convey("Then it should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mux, svc := newTestMux(ctx)
		defer svc.Stop()

		Convey("When scraping /healthz", func() {
			rec := doJSON(mux, http.MethodGet, "/healthz", "")

			Convey("Then it should serve the metrics registry", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "zanshin_")
			})
		})
	})
}
