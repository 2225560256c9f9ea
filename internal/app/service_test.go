package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/sentiscan/internal/adapters/llm"
	"github.com/okian/sentiscan/internal/adapters/playstore"
	"github.com/okian/sentiscan/internal/adapters/repository"
	service "github.com/okian/sentiscan/internal/app"
	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var now = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func source(calls *atomic.Int32) playstore.Source {
	return playstore.SourceFunc(func(_ context.Context, req playstore.FetchRequest) ([]playstore.RawReview, error) {
		calls.Add(1)
		at := req.Date.Add(6 * time.Hour)
		v := "2.0.0"
		return []playstore.RawReview{
			{ReviewID: req.AppID + types.FormatDate(req.Date), Score: 4, Content: "Nice interface", At: &at, ReviewCreatedVersion: &v},
		}, nil
	})
}

type echoLLM struct{}

func (echoLLM) Complete(context.Context, llm.Prompt) (string, error) { return "summary", nil }

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		var calls atomic.Int32
		svc := service.New(
			service.WithStorage(repository.BackendFile, t.TempDir()),
			service.WithSource(source(&calls)),
			service.WithLLM(echoLLM{}),
			service.WithClock(func() time.Time { return now }),
		)
		defer svc.Stop()
		ctx := context.Background()
		dr, _ := types.ParseDateRange("2024-01-01", "2024-01-02")

		Convey("When used before Start", func() {
			_, err := svc.Analyze(ctx, "com.m1.android.mym1plus", dr)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx)["started"], ShouldEqual, true)

			Convey("Then catalogue names resolve to package ids", func() {
				res, err := svc.Analyze(ctx, "M1", dr)
				So(err, ShouldBeNil)
				So(res.AppID, ShouldEqual, "com.m1.android.mym1plus")
				So(res.Metrics.TotalCount, ShouldEqual, 2)
			})

			Convey("Then Play Store URLs resolve too", func() {
				res, err := svc.Analyze(ctx, "https://play.google.com/store/apps/details?id=com.starhub.happy", dr)
				So(err, ShouldBeNil)
				So(res.AppID, ShouldEqual, "com.starhub.happy")
			})

			Convey("Then snapshots can be listed and cleared", func() {
				_, err := svc.Analyze(ctx, "M1", dr)
				So(err, ShouldBeNil)
				keys, err := svc.ListSnapshots(ctx, "")
				So(err, ShouldBeNil)
				So(len(keys), ShouldEqual, 2)
				So(svc.GetStats(ctx)["stored_snapshots"], ShouldEqual, 2)

				n, err := svc.ClearSnapshots(ctx, "com.m1.android.mym1plus")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				_, err = svc.ClearSummaries(ctx)
				So(err, ShouldBeNil)
			})

			Convey("Then a single snapshot can be fetched", func() {
				snap, err := svc.Snapshot(ctx, "MyJio", now)
				So(err, ShouldBeNil)
				So(snap.AppID, ShouldEqual, "com.jio.myjio")
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("Then compare returns both periods", func() {
				b, _ := types.ParseDateRange("2024-01-03", "2024-01-03")
				res, err := svc.Compare(ctx, "TPG", dr, b)
				So(err, ShouldBeNil)
				So(res.Delta.TotalCount, ShouldEqual, -1)
			})

			Convey("Then two apps can be compared over one range", func() {
				res, err := svc.CompareApps(ctx, "M1", "TPG", dr)
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, model.KindApps)
				So(res.A.AppID, ShouldEqual, "com.m1.android.mym1plus")
				So(res.Delta.TotalCount, ShouldEqual, 0)
			})

			Convey("Then the version timeline is available", func() {
				stats, err := svc.Versions(ctx, "M1", dr)
				So(err, ShouldBeNil)
				So(len(stats), ShouldEqual, 1)
				So(stats[0].Version, ShouldEqual, "2.0.0")
				So(stats[0].Count, ShouldEqual, 2)

				_, err = svc.CompareVersions(ctx, "M1", dr, "2.0.0", "1.0.0")
				So(err, ShouldNotBeNil)
			})

			Convey("Then a bad app reference is rejected", func() {
				_, err := svc.Analyze(ctx, "not a package", dr)
				So(errors.Is(err, types.ErrInvalidAppID), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service capped at a week per range", t, func() {
		var calls atomic.Int32
		svc := service.New(
			service.WithStore(repository.NewMemoryStore()),
			service.WithSource(source(&calls)),
			service.WithLLM(echoLLM{}),
			service.WithMaxRangeDays(7),
			service.WithClock(func() time.Time { return now }),
		)
		defer svc.Stop()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		long, _ := types.ParseDateRange("2024-01-01", "2024-01-08")
		_, err := svc.Analyze(ctx, "M1", long)
		So(errors.Is(err, types.ErrRangeTooLong), ShouldBeTrue)
		So(calls.Load(), ShouldEqual, 0)
		So(svc.GetStats(ctx)["max_range_days"], ShouldEqual, 7)
	})

	Convey("Given a service without a review source", t, func() {
		svc := service.New(service.WithStore(repository.NewMemoryStore()))
		So(svc.Start(context.Background()), ShouldNotBeNil)
	})

	Convey("Given a service without an LLM", t, func() {
		var calls atomic.Int32
		svc := service.New(
			service.WithStore(repository.NewMemoryStore()),
			service.WithSource(source(&calls)),
			service.WithClock(func() time.Time { return now }),
		)
		defer svc.Stop()
		So(svc.Start(context.Background()), ShouldBeNil)
		dr, _ := types.ParseDateRange("2024-01-01", "2024-01-01")

		_, err := svc.Analyze(context.Background(), "M1", dr)
		So(errors.Is(err, model.ErrSummary), ShouldBeTrue)
		So(errors.Is(err, llm.ErrMissingAPIKey), ShouldBeTrue)
	})
}
