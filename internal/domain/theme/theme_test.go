package theme_test

import (
	"context"
	"testing"

	"github.com/okian/sentiscan/internal/domain/model"
	theme "github.com/okian/sentiscan/internal/domain/theme"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeywordClusterer(t *testing.T) {
	Convey("Given a keyword clusterer with default themes", t, func() {
		c := theme.NewKeywordClusterer()
		ctx := context.Background()

		Convey("When clustering mixed reviews", func() {
			reviews := []model.Review{
				{ID: "r1", Text: "App is so slow and the battery drains"},
				{ID: "r2", Text: "Constant crash on startup, very slow"},
				{ID: "r3", Text: "Customer service never gave a response"},
				{ID: "r4", Text: "Love it"},
				{ID: "r5", Text: "Found a bug, error on payment"},
			}
			clusters, err := c.Cluster(ctx, reviews)
			So(err, ShouldBeNil)

			Convey("Then every review lands in exactly one cluster", func() {
				seen := map[string]int{}
				for _, cl := range clusters {
					So(cl.Size(), ShouldBeGreaterThan, 0)
					for _, id := range cl.ReviewIDs {
						seen[id]++
					}
				}
				So(len(seen), ShouldEqual, 5)
				for _, n := range seen {
					So(n, ShouldEqual, 1)
				}
			})

			Convey("Then the largest cluster comes first", func() {
				So(clusters[0].ID, ShouldEqual, "performance")
				So(clusters[0].ReviewIDs, ShouldResemble, []string{"r1", "r2"})
			})

			Convey("Then equal sized clusters are ordered by ID", func() {
				ids := []string{}
				for _, cl := range clusters[1:] {
					ids = append(ids, cl.ID)
				}
				So(ids, ShouldResemble, []string{"bugs", "general", "support"})
			})
		})

		Convey("When there are no reviews", func() {
			clusters, err := c.Cluster(ctx, nil)
			So(err, ShouldBeNil)
			So(clusters, ShouldBeEmpty)
		})

		Convey("When input order changes", func() {
			a, _ := c.Cluster(ctx, []model.Review{{ID: "x", Text: "menu"}, {ID: "y", Text: "layout"}})
			b, _ := c.Cluster(ctx, []model.Review{{ID: "y", Text: "layout"}, {ID: "x", Text: "menu"}})
			So(a, ShouldResemble, b)
		})
	})

	Convey("Given custom themes", t, func() {
		c := theme.NewKeywordClusterer(theme.WithThemes([]theme.Theme{
			{ID: "billing", Label: "Billing", Keywords: []string{"bill", "charge"}},
		}))
		clusters, err := c.Cluster(context.Background(), []model.Review{{ID: "r1", Text: "Wrong charge on my bill"}})
		So(err, ShouldBeNil)
		So(clusters[0].Label, ShouldEqual, "Billing")
	})
}
