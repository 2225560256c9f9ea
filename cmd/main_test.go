package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sentiscan/internal/adapters/playstore"
	service "github.com/okian/sentiscan/internal/app"
	"github.com/okian/sentiscan/internal/config"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When metrics are configured off", func() {
			defer metrics.Init()
			cfg := config.New()
			cfg.MetricsEnabled = false
			cfg.MetricsRefreshMS = 500
			initMetrics(cfg)

			convey.Convey("Then recording stops and the refresh interval follows the config", func() {
				convey.So(metrics.Enabled(), convey.ShouldBeFalse)
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 500*time.Millisecond)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a configured service", t, func() {
		dir := t.TempDir()
		_ = os.Setenv("SENTISCAN_ENV_FILE", filepath.Join(dir, "missing.env"))
		_ = os.Setenv("SENTISCAN_DATA_DIR", dir)
		_ = os.Setenv("SENTISCAN_STORAGE_BACKEND", "sqlite")
		defer func() {
			for _, k := range []string{"SENTISCAN_ENV_FILE", "SENTISCAN_DATA_DIR", "SENTISCAN_STORAGE_BACKEND"} {
				_ = os.Unsetenv(k)
			}
		}()

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		opts, err := service.FromConfig(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		empty := playstore.SourceFunc(func(context.Context, playstore.FetchRequest) ([]playstore.RawReview, error) {
			return nil, nil
		})
		svc := service.New(append(opts, service.WithSource(empty))...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc, logger.Nop())

		convey.Convey("Then every route family answers", func() {
			for _, path := range []string{"/apps", "/stats", "/healthz", "/dashboard", "/api-docs", "/openapi.yaml", "/docs/", "/snapshots"} {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then an empty period analyzes without an LLM", func() {
			req := httptest.NewRequest(http.MethodGet, "/analyze?app_id=com.example&start=2024-01-01&end=2024-01-02", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"total_count":0`)
		})

		convey.Convey("Then an empty period has an empty version timeline", func() {
			req := httptest.NewRequest(http.MethodGet, "/versions?app_id=com.example&start=2024-01-01&end=2024-01-02", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"versions":[]`)
		})

		convey.Convey("Then a range over the configured cap is rejected", func() {
			req := httptest.NewRequest(http.MethodGet, "/analyze?app_id=com.example&start=2020-01-01&end=2024-01-02", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}
