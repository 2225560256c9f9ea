package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/sentiscan/internal/adapters/http/api"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	analyzeErr error
	compareErr error
	versionErr error
	lastRange  types.DateRange
	lastApp    string
	snapshots  []model.SnapshotKey
	cleared    string
}

func (f *fakeDeps) Apps() []types.App {
	return types.SortedApps(types.DefaultApps())
}

func (f *fakeDeps) ResolveApp(ref string) (string, error) {
	return types.ExtractAppID(ref)
}

func (f *fakeDeps) Analyze(_ context.Context, appRef string, dr types.DateRange) (model.PeriodResult, error) {
	f.lastApp, f.lastRange = appRef, dr
	if f.analyzeErr != nil {
		return model.PeriodResult{}, f.analyzeErr
	}
	mean := 0.25
	return model.PeriodResult{
		AppID: appRef,
		Range: dr,
		Metrics: model.Metrics{
			TotalCount:         2,
			MeanPolarity:       &mean,
			RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1},
		},
		Summaries: []model.ThemeSummary{{
			Cluster: model.ThemeCluster{ID: "ux", Label: "User experience", ReviewIDs: []string{"r1", "r2"}},
			Summary: model.Summary{Fingerprint: "fp", Text: "Users like the layout."},
		}},
	}, nil
}

func (f *fakeDeps) Compare(ctx context.Context, appRef string, a, b types.DateRange) (*model.ComparisonResult, error) {
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	pa, _ := f.Analyze(ctx, appRef, a)
	pb, _ := f.Analyze(ctx, appRef, b)
	return &model.ComparisonResult{
		AppID:        appRef,
		A:            pa,
		B:            pb,
		Delta:        model.Diff(pa.Metrics, pb.Metrics),
		DeltaSummary: model.Summary{Text: "No change."},
	}, nil
}

func (f *fakeDeps) CompareApps(ctx context.Context, appA, appB string, dr types.DateRange) (*model.ComparisonResult, error) {
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	pa, _ := f.Analyze(ctx, appA, dr)
	pb, _ := f.Analyze(ctx, appB, dr)
	return &model.ComparisonResult{
		Kind:         model.KindApps,
		A:            pa,
		B:            pb,
		Delta:        model.Diff(pa.Metrics, pb.Metrics),
		DeltaSummary: model.Summary{Text: "B is ahead."},
	}, nil
}

func (f *fakeDeps) Versions(_ context.Context, appRef string, dr types.DateRange) ([]model.VersionStat, error) {
	f.lastApp, f.lastRange = appRef, dr
	if f.versionErr != nil {
		return nil, f.versionErr
	}
	rating := 4.0
	return []model.VersionStat{
		{Version: "1.0.0", Count: 3, MeanRating: &rating, FirstSeen: "2024-01-01", LastSeen: "2024-01-03"},
		{Version: "1.1.0", Count: 1, FirstSeen: "2024-01-04", LastSeen: "2024-01-04"},
	}, nil
}

func (f *fakeDeps) CompareVersions(_ context.Context, appRef string, dr types.DateRange, va, vb string) (*model.VersionComparison, error) {
	if f.versionErr != nil {
		return nil, f.versionErr
	}
	ma, mb := model.Metrics{TotalCount: 3}, model.Metrics{TotalCount: 1}
	return &model.VersionComparison{
		AppID: appRef,
		Range: dr,
		A:     model.VersionMetrics{Version: va, Metrics: ma},
		B:     model.VersionMetrics{Version: vb, Metrics: mb},
		Delta: model.Diff(ma, mb),
	}, nil
}

func (f *fakeDeps) ListSnapshots(_ context.Context, appID string) ([]model.SnapshotKey, error) {
	var out []model.SnapshotKey
	for _, k := range f.snapshots {
		if appID == "" || k.AppID == appID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeDeps) ClearSnapshots(_ context.Context, appID string) (int, error) {
	f.cleared = appID
	n := 0
	for _, k := range f.snapshots {
		if appID == "" || k.AppID == appID {
			n++
		}
	}
	return n, nil
}

type fakeStats struct{}

func (fakeStats) GetStats(context.Context) map[string]any {
	return map[string]any{"started": true}
}

func newMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{}, logger.Nop()).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)

		Convey("Then /healthz serves prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats returns the provider payload", func() {
			w := do(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then /apps lists the catalogue sorted by name", func() {
			w := do(mux, http.MethodGet, "/apps")
			So(w.Code, ShouldEqual, http.StatusOK)
			var apps []types.App
			So(json.NewDecoder(w.Body).Decode(&apps), ShouldBeNil)
			So(len(apps), ShouldEqual, 6)
			So(apps[0].Name, ShouldEqual, "Airtel Thanks")
		})

		Convey("Then /dashboard serves the page", func() {
			w := do(mux, http.MethodGet, "/dashboard")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `id="app-select"`)
			So(w.Body.String(), ShouldContainSubstring, `id="compare-toggle"`)
		})

		Convey("Then responses carry a request id", func() {
			w := do(mux, http.MethodGet, "/apps")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("Then a valid inbound request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/apps", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "5b0f4f3e-1b7c-4c64-9f0e-7f1e1c1d2a3b")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "5b0f4f3e-1b7c-4c64-9f0e-7f1e1c1d2a3b")
		})
	})
}

func TestAnalyzeHandler(t *testing.T) {
	Convey("Given the analyze endpoint", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)

		Convey("When the request is valid", func() {
			w := do(mux, http.MethodGet, "/analyze?app_id=com.singtel.mysingtel&start=2024-01-01&end=2024-01-07")

			Convey("Then it returns metrics and summaries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body["app_id"], ShouldEqual, "com.singtel.mysingtel")
				So(body["start"], ShouldEqual, "2024-01-01")
				So(body["end"], ShouldEqual, "2024-01-07")
				So(body["summaries"], ShouldHaveLength, 1)
				So(deps.lastRange.Days(), ShouldEqual, 7)
			})
		})

		Convey("When app_id is missing", func() {
			w := do(mux, http.MethodGet, "/analyze?start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, api.CodeBadRequest)
		})

		Convey("When the range is inverted", func() {
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=2024-01-07&end=2024-01-01")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a date is malformed", func() {
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=01/01/2024&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a fetch fails", func() {
			deps.analyzeErr = &model.FetchError{AppID: "com.x", Date: "2024-01-03", Err: errors.New("scraper down")}
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decodeError(w)["code"], ShouldEqual, api.CodeFetchFailed)
		})

		Convey("When a summary fails", func() {
			deps.analyzeErr = &model.SummaryError{Fingerprint: "fp", Err: errors.New("llm down")}
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decodeError(w)["code"], ShouldEqual, api.CodeSummaryFailed)
		})

		Convey("When the date is in the future", func() {
			deps.analyzeErr = types.ErrFutureDate
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unexpected error happens", func() {
			deps.analyzeErr = errors.New("disk full")
			w := do(mux, http.MethodGet, "/analyze?app_id=com.x&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(w)["code"], ShouldEqual, api.CodeInternal)
		})

		Convey("When the method is not GET", func() {
			w := do(mux, http.MethodPost, "/analyze?app_id=com.x&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCompareHandler(t *testing.T) {
	Convey("Given the compare endpoint", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)
		target := "/compare?app_id=com.x&a_start=2024-01-01&a_end=2024-01-07&b_start=2024-01-08&b_end=2024-01-14"

		Convey("When both periods succeed", func() {
			w := do(mux, http.MethodGet, target)
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body["delta_summary"], ShouldEqual, "No change.")
			So(body["a"].(map[string]any)["start"], ShouldEqual, "2024-01-01")
			So(body["b"].(map[string]any)["start"], ShouldEqual, "2024-01-08")
		})

		Convey("When period B is missing", func() {
			w := do(mux, http.MethodGet, "/compare?app_id=com.x&a_start=2024-01-01&a_end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When period B fails to fetch", func() {
			deps.compareErr = &model.ComparisonError{
				Period: "B",
				Err:    &model.FetchError{AppID: "com.x", Date: "2024-01-09", Err: errors.New("timeout")},
			}
			w := do(mux, http.MethodGet, target)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decodeError(w)["code"], ShouldEqual, api.CodeFetchFailed)
		})
	})
}

func TestCompareAppsHandler(t *testing.T) {
	Convey("Given the app comparison endpoint", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)

		Convey("When both apps are given", func() {
			w := do(mux, http.MethodGet, "/compare/apps?app_a=com.a&app_b=com.b&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body["kind"], ShouldEqual, model.KindApps)
			So(body, ShouldNotContainKey, "app_id")
			So(body["a"].(map[string]any)["app_id"], ShouldEqual, "com.a")
			So(body["b"].(map[string]any)["app_id"], ShouldEqual, "com.b")
			So(body["delta_summary"], ShouldEqual, "B is ahead.")
		})

		Convey("When the second app is missing", func() {
			w := do(mux, http.MethodGet, "/compare/apps?app_a=com.a&start=2024-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, api.CodeBadRequest)
		})

		Convey("When the range is too long", func() {
			deps.compareErr = &model.ComparisonError{Period: "AB", Err: types.ErrRangeTooLong}
			w := do(mux, http.MethodGet, "/compare/apps?app_a=com.a&app_b=com.b&start=1990-01-01&end=2024-01-07")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestVersionsHandler(t *testing.T) {
	Convey("Given the versions endpoint", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)
		base := "/versions?app_id=com.x&start=2024-01-01&end=2024-01-07"

		Convey("When only a range is given", func() {
			w := do(mux, http.MethodGet, base)
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				AppID    string              `json:"app_id"`
				Versions []model.VersionStat `json:"versions"`
			}
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body.AppID, ShouldEqual, "com.x")
			So(len(body.Versions), ShouldEqual, 2)
			So(body.Versions[0].Version, ShouldEqual, "1.0.0")
			So(*body.Versions[0].MeanRating, ShouldEqual, 4.0)
			So(body.Versions[1].MeanRating, ShouldBeNil)
		})

		Convey("When two versions are given", func() {
			w := do(mux, http.MethodGet, base+"&a=1.0.0&b=1.1.0")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]any
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body["a"].(map[string]any)["version"], ShouldEqual, "1.0.0")
			So(body["delta"].(map[string]any)["total_count"], ShouldEqual, -2)
		})

		Convey("When only one version is given", func() {
			w := do(mux, http.MethodGet, base+"&a=1.0.0")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a version has no reviews", func() {
			deps.versionErr = types.ErrUnknownVersion
			w := do(mux, http.MethodGet, base+"&a=1.0.0&b=9.9")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, api.CodeBadRequest)
		})

		Convey("When the range ends in the future", func() {
			deps.versionErr = types.ErrFutureDate
			w := do(mux, http.MethodGet, base)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSnapshotsHandler(t *testing.T) {
	Convey("Given stored snapshots", t, func() {
		deps := &fakeDeps{snapshots: []model.SnapshotKey{
			{AppID: "com.a", Date: "2024-01-01"},
			{AppID: "com.a", Date: "2024-01-02"},
			{AppID: "com.b", Date: "2024-01-01"},
		}}
		mux := newMux(deps)

		Convey("When listing everything", func() {
			w := do(mux, http.MethodGet, "/snapshots")
			var keys []model.SnapshotKey
			So(json.NewDecoder(w.Body).Decode(&keys), ShouldBeNil)
			So(keys, ShouldHaveLength, 3)
		})

		Convey("When listing one app by URL", func() {
			w := do(mux, http.MethodGet, "/snapshots?app_id=https://play.google.com/store/apps/details?id=com.b")
			var keys []model.SnapshotKey
			So(json.NewDecoder(w.Body).Decode(&keys), ShouldBeNil)
			So(keys, ShouldHaveLength, 1)
		})

		Convey("When clearing one app", func() {
			w := do(mux, http.MethodDelete, "/snapshots?app_id=com.a")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"deleted":2`)
			So(deps.cleared, ShouldEqual, "com.a")
		})

		Convey("When the app reference is invalid", func() {
			w := do(mux, http.MethodGet, "/snapshots?app_id=not%20an%20app")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is unsupported", func() {
			w := do(mux, http.MethodPut, "/snapshots")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
