package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/http/api"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	service "github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/app"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/entitlement"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/scoring"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
)

// failingDeps returns err from every fallible operation.
type failingDeps struct {
	err error
}

func (f *failingDeps) Score(context.Context, string, string, string) (scoring.Result, error) {
	return scoring.Result{}, f.err
}

func (f *failingDeps) GetScore(context.Context, string, string) (*repository.StoredScore, error) {
	return nil, f.err
}

func (f *failingDeps) CanScore(context.Context, string, string) repository.Eligibility {
	return repository.EligibilityUnknown
}

func (f *failingDeps) DeleteScore(context.Context, string, string) error { return f.err }

func (f *failingDeps) History(context.Context, string) (repository.History, error) {
	return repository.History{}, f.err
}

func (f *failingDeps) ResetHistory(context.Context, string) (int, error) { return 0, f.err }

func (f *failingDeps) CalculateEntitlement(context.Context, entitlement.Profile) (entitlement.Profile, error) {
	return entitlement.Profile{}, f.err
}

func (f *failingDeps) Sweep(context.Context) (repository.SweepReport, error) {
	return repository.SweepReport{}, f.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestScoreRoutes(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		fc := clockwork.NewFakeClockAt(now)
		svc := service.New(
			service.WithClock(fc),
			service.WithLogger(logger.Nop()),
			service.WithSweepInterval(0),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When posting a new score", func() {
			w := do(mux, http.MethodPost, "/scores", `{"userId":"u1","sessionId":"s1","imagePayload":"img"}`)

			Convey("Then 201 and the result are returned", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var body map[string]any
				decode(w, &body)
				So(body["totalScore"], ShouldEqual, 78.0)
				So(body["components"], ShouldResemble, map[string]any{"symmetry": 28.0, "vibe": 28.0, "mystique": 21.0})
				So(body["timestamp"], ShouldEqual, "2025-06-01T09:30:00Z")
				So(body, ShouldContainKey, "processingTime")
			})

			Convey("And a second post for the session conflicts", func() {
				w := do(mux, http.MethodPost, "/scores", `{"userId":"u1","sessionId":"s1","imagePayload":"img"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				var body errorBody
				decode(w, &body)
				So(body.Code, ShouldEqual, "already_scored")
			})

			Convey("And the stored score, eligibility and history are readable", func() {
				w := do(mux, http.MethodGet, "/scores/u1/s1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec map[string]any
				decode(w, &rec)
				So(rec["expiresAt"], ShouldEqual, "2025-06-02T09:30:00Z")

				w = do(mux, http.MethodGet, "/scores/u1/s1/eligibility", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"canScore":false`)
				So(w.Body.String(), ShouldContainSubstring, `"status":"already_scored"`)

				w = do(mux, http.MethodGet, "/history/u1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var hist repository.History
				decode(w, &hist)
				So(hist.TotalScores, ShouldEqual, 1)
			})

			Convey("And deleting the score frees the session", func() {
				w := do(mux, http.MethodDelete, "/scores/u1/s1", "")
				So(w.Code, ShouldEqual, http.StatusNoContent)
				w = do(mux, http.MethodGet, "/scores/u1/s1", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And resetting history removes everything", func() {
				w := do(mux, http.MethodDelete, "/history/u1", "")
				So(w.Code, ShouldEqual, http.StatusNoContent)
				w = do(mux, http.MethodGet, "/scores/u1/s1/eligibility", "")
				So(w.Body.String(), ShouldContainSubstring, `"status":"available"`)
			})
		})

		Convey("When posting invalid bodies", func() {
			cases := []string{
				`not json`,
				`{"sessionId":"s1","imagePayload":"img"}`,
				`{"userId":"a/b","sessionId":"s1","imagePayload":"img"}`,
				`{"userId":"u1","sessionId":"s1"}`,
			}
			for i, body := range cases {
				w := do(mux, http.MethodPost, "/scores", body)

				Convey(fmt.Sprintf("Then case %d is rejected with 400", i), func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					var eb errorBody
					decode(w, &eb)
					So(eb.Code, ShouldEqual, "bad_request")
				})
			}
		})

		Convey("When posting an empty image payload", func() {
			w := do(mux, http.MethodPost, "/scores", `{"userId":"u1","sessionId":"s1","imagePayload":""}`)

			Convey("Then it is scored like any other payload", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var res map[string]any
				decode(w, &res)
				So(res["totalScore"], ShouldBeBetweenOrEqual, 55.0, 95.0)
			})
		})

		Convey("When sweeping after expiry", func() {
			So(do(mux, http.MethodPost, "/scores", `{"userId":"u1","sessionId":"s1","imagePayload":"img"}`).Code, ShouldEqual, http.StatusCreated)
			fc.Advance(48 * time.Hour)
			w := do(mux, http.MethodPost, "/admin/sweep", "")

			Convey("Then the report counts the expired score", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report map[string]any
				decode(w, &report)
				So(report["expired"], ShouldEqual, 1.0)
				So(report["deleted"], ShouldEqual, 1.0)
				So(report["runId"], ShouldNotBeEmpty)
			})
		})

		Convey("When using an unsupported method", func() {
			w := do(mux, http.MethodPut, "/scores/u1/s1", "")

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestEntitlementRoute(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		fc := clockwork.NewFakeClockAt(now)
		svc := service.New(service.WithClock(fc), service.WithLogger(logger.Nop()), service.WithSweepInterval(0))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When computing a male profile with an elite NFT", func() {
			w := do(mux, http.MethodPost, "/entitlements",
				`{"userId":"u1","gender":"male","facialScore":70,"university":"Chulalongkorn University","nftTier":"elite"}`)

			Convey("Then the final score and expiry are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var p map[string]any
				decode(w, &p)
				So(p["finalScore"], ShouldEqual, 100.0)
				So(p["scoreExpiry"], ShouldEqual, "2025-07-01T09:30:00Z")
			})
		})

		Convey("When fields are invalid", func() {
			cases := map[string]string{
				"missing_user_id":      `{"gender":"male","facialScore":70,"university":"X"}`,
				"missing_facial_score": `{"userId":"u1","gender":"male","university":"X"}`,
				"missing_university":   `{"userId":"u1","gender":"male","facialScore":70}`,
				"invalid_gender":       `{"userId":"u1","gender":"other","facialScore":70,"university":"X"}`,
				"unknown_nft_tier":     `{"userId":"u1","gender":"male","facialScore":70,"university":"X","nftTier":"mythic"}`,
				"bad_request":          `[1,2`,
			}
			for code, body := range cases {
				w := do(mux, http.MethodPost, "/entitlements", body)

				Convey("Then "+code+" is reported", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					var eb errorBody
					decode(w, &eb)
					So(eb.Code, ShouldEqual, code)
				})
			}
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given the API over failing dependencies", t, func() {
		stats := &mockStatsProvider{stats: map[string]interface{}{"started": true}}

		Convey("When storage is unavailable", func() {
			deps := &failingDeps{err: fmt.Errorf("%w: %w", repository.ErrStorage, blobstore.ErrUnavailable)}
			mux := newMux(deps, stats)

			Convey("Then score routes answer 503", func() {
				for _, w := range []*httptest.ResponseRecorder{
					do(mux, http.MethodPost, "/scores", `{"userId":"u1","sessionId":"s1","imagePayload":"img"}`),
					do(mux, http.MethodGet, "/scores/u1/s1", ""),
					do(mux, http.MethodGet, "/history/u1", ""),
					do(mux, http.MethodPost, "/admin/sweep", ""),
				} {
					So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
					var eb errorBody
					decode(w, &eb)
					So(eb.Code, ShouldEqual, "storage_unavailable")
				}
			})

			Convey("And eligibility fails open", func() {
				w := do(mux, http.MethodGet, "/scores/u1/s1/eligibility", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"canScore":true`)
				So(w.Body.String(), ShouldContainSubstring, `"status":"unknown"`)
			})
		})

		Convey("When a stored record is corrupt", func() {
			deps := &failingDeps{err: fmt.Errorf("%w: %w", repository.ErrStorage, blobstore.ErrMalformed)}
			w := do(newMux(deps, stats), http.MethodGet, "/scores/u1/s1", "")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When identifiers are invalid", func() {
			deps := &failingDeps{err: repository.ErrInvalidID}
			w := do(newMux(deps, stats), http.MethodDelete, "/scores/u1/s1", "")

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unexpected error occurs", func() {
			deps := &failingDeps{err: errors.New("boom")}
			mux := newMux(deps, stats)

			Convey("Then 500 is returned", func() {
				So(do(mux, http.MethodDelete, "/history/u1", "").Code, ShouldEqual, http.StatusInternalServerError)
				So(do(mux, http.MethodPost, "/entitlements", `{}`).Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When reading stats and health", func() {
			mux := newMux(&failingDeps{}, stats)
			statsResp := do(mux, http.MethodGet, "/stats", "")
			healthResp := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then both respond", func() {
				So(statsResp.Code, ShouldEqual, http.StatusOK)
				So(statsResp.Body.String(), ShouldContainSubstring, `"started":true`)
				So(healthResp.Code, ShouldEqual, http.StatusOK)
				So(healthResp.Body.String(), ShouldContainSubstring, "aurum_scoring_http_requests_total")
			})
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("cause")
		wrapped := api.WrapKind("api.op", api.ErrConflict, cause)

		Convey("Then kind and cause are both matchable", func() {
			So(errors.Is(wrapped, api.ErrConflict), ShouldBeTrue)
			So(errors.Is(wrapped, cause), ShouldBeTrue)
			So(wrapped.Error(), ShouldEqual, "api.op: conflict: cause")
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
			So(errors.Is(api.Wrap("api.op", cause), api.ErrInternal), ShouldBeTrue)
		})
	})
}
