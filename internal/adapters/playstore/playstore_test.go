package playstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	playstore "github.com/okian/sentiscan/internal/adapters/playstore"
	"github.com/okian/sentiscan/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(h int) *time.Time {
	t := jan1.Add(time.Duration(h) * time.Hour)
	return &t
}

func str(s string) *string { return &s }

func TestHTTPSource(t *testing.T) {
	Convey("Given a scraper sidecar", t, func() {
		var gotPath, gotQuery string
		status := http.StatusOK
		body := `[
			{"reviewId":"r1","score":5,"content":"Great","at":"2024-01-01T08:00:00Z","thumbsUpCount":2,"reviewCreatedVersion":"5.4.1"},
			{"reviewId":"r2","score":"five","content":"bad type","at":"2024-01-01T09:00:00Z"},
			{"reviewId":"r3","score":2,"content":"Slow","at":"2024-01-01T10:00:00Z","replyContent":"Sorry","repliedAt":"2024-01-02T10:00:00Z"}
		]`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()
		src := playstore.NewHTTPSource(srv.URL+"/", playstore.WithTimeout(time.Second))
		req := playstore.FetchRequest{AppID: "com.singtel.mysingtel", Date: jan1, Count: 50, Lang: "en", Country: "sg"}

		Convey("When the sidecar answers with records", func() {
			raw, err := src.Fetch(context.Background(), req)
			So(err, ShouldBeNil)

			Convey("Then the request carries the date filter", func() {
				So(gotPath, ShouldEqual, "/apps/com.singtel.mysingtel/reviews")
				So(gotQuery, ShouldContainSubstring, "date=2024-01-01")
				So(gotQuery, ShouldContainSubstring, "count=50")
				So(gotQuery, ShouldContainSubstring, "country=sg")
			})

			Convey("Then undecodable records are dropped", func() {
				So(len(raw), ShouldEqual, 2)
				So(raw[0].ReviewID, ShouldEqual, "r1")
				So(*raw[0].ReviewCreatedVersion, ShouldEqual, "5.4.1")
				So(*raw[1].ReplyContent, ShouldEqual, "Sorry")
			})
		})

		Convey("When the body is not an array", func() {
			body = `{"error":"boom"}`
			_, err := src.Fetch(context.Background(), req)
			So(errors.Is(err, playstore.ErrMalformedPayload), ShouldBeTrue)
		})

		Convey("When the sidecar fails", func() {
			status = http.StatusBadGateway
			_, err := src.Fetch(context.Background(), req)
			So(errors.Is(err, playstore.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a shared HTTP client", t, func() {
		shared := &http.Client{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()
		src := playstore.NewHTTPSource(srv.URL, playstore.WithHTTPClient(shared), playstore.WithTimeout(50*time.Millisecond))

		Convey("Then the timeout applies without modifying the shared client", func() {
			_, err := src.Fetch(context.Background(), playstore.FetchRequest{AppID: "x", Date: jan1})
			So(errors.Is(err, playstore.ErrUnavailable), ShouldBeTrue)
			So(shared.Timeout, ShouldEqual, time.Duration(0))
		})
	})

	Convey("Given an unreachable sidecar", t, func() {
		src := playstore.NewHTTPSource("http://127.0.0.1:1")
		_, err := src.Fetch(context.Background(), playstore.FetchRequest{AppID: "x", Date: jan1})
		So(errors.Is(err, playstore.ErrUnavailable), ShouldBeTrue)
	})
}

func TestFetcher(t *testing.T) {
	Convey("Given a fetcher over a canned source", t, func() {
		var calls int
		var lastReq playstore.FetchRequest
		records := []playstore.RawReview{
			{ReviewID: "r1", Score: 5, Content: "<b>Great</b> &amp; fast", At: at(8), ThumbsUpCount: 3, ReviewCreatedVersion: str(" 5.4.1 ")},
			{ReviewID: "", Score: 4, Content: "no id", At: at(9)},
			{ReviewID: "r2", Score: 9, Content: "bad rating", At: at(9)},
			{ReviewID: "r3", Score: 3, Content: "no timestamp"},
			{ReviewID: "r4", Score: 2, Content: "yesterday", At: at(-2)},
			{ReviewID: "r5", Score: 1, Content: "Crashes", At: at(10), ReplyContent: str("We fixed it"), RepliedAt: at(30)},
			{ReviewID: "r1", Score: 1, Content: "duplicate", At: at(11)},
			{ReviewID: "r6", Score: 4, Content: "blank reply", At: at(12), ReplyContent: str("  ")},
		}
		src := playstore.SourceFunc(func(_ context.Context, req playstore.FetchRequest) ([]playstore.RawReview, error) {
			calls++
			lastReq = req
			return records, nil
		})
		now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
		f := playstore.NewFetcher(src,
			playstore.WithCount(50),
			playstore.WithLocale("en", "sg"),
			playstore.WithClock(func() time.Time { return now }),
		)

		Convey("When fetching a past day", func() {
			reviews, err := f.Fetch(context.Background(), "singtel-app", jan1.Add(15*time.Hour))
			So(err, ShouldBeNil)

			Convey("Then the source is asked for that day", func() {
				So(calls, ShouldEqual, 1)
				So(lastReq.Date.Equal(jan1), ShouldBeTrue)
				So(lastReq.Count, ShouldEqual, 50)
				So(lastReq.Country, ShouldEqual, "sg")
			})

			Convey("Then only valid, on-date, unique records survive", func() {
				ids := []string{}
				for _, r := range reviews {
					ids = append(ids, r.ID)
				}
				So(ids, ShouldResemble, []string{"r1", "r5", "r6"})
			})

			Convey("Then records are normalized", func() {
				So(reviews[0].Text, ShouldEqual, "Great & fast")
				So(reviews[0].AppID, ShouldEqual, "singtel-app")
				So(reviews[0].ThumbsUp, ShouldEqual, 3)
				So(reviews[0].Version, ShouldEqual, "5.4.1")
				So(reviews[1].Version, ShouldEqual, "")
				So(reviews[0].FetchedAt.Equal(now), ShouldBeTrue)
				So(reviews[1].HasReply(), ShouldBeTrue)
				So(reviews[1].Reply.Text, ShouldEqual, "We fixed it")
				So(reviews[2].HasReply(), ShouldBeFalse)
			})
		})

		Convey("When fetching today", func() {
			_, err := f.Fetch(context.Background(), "singtel-app", now)
			So(err, ShouldBeNil)
		})

		Convey("When fetching a future day", func() {
			_, err := f.Fetch(context.Background(), "singtel-app", now.AddDate(0, 0, 1))
			So(errors.Is(err, types.ErrFutureDate), ShouldBeTrue)
			So(calls, ShouldEqual, 0)
		})

		Convey("When the source fails", func() {
			boom := errors.New("scraper down")
			f := playstore.NewFetcher(playstore.SourceFunc(func(context.Context, playstore.FetchRequest) ([]playstore.RawReview, error) {
				return nil, boom
			}), playstore.WithClock(func() time.Time { return now }))
			_, err := f.Fetch(context.Background(), "singtel-app", jan1)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}
