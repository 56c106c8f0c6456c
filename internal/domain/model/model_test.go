package model_test

import (
	"testing"

	model "github.com/okian/pairwise/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestOutcomeEncoding(t *testing.T) {
	convey.Convey("Given run totals for a game", t, func() {
		convey.Convey("When the away team outscores the home team", func() {
			g := model.NewGame(1, 2, 3, 2, 7)

			convey.Convey("Then both codes favour the away side", func() {
				convey.So(g.AwayWin, convey.ShouldEqual, 1)
				convey.So(g.Margin, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When the home team wins by one", func() {
			g := model.NewGame(1, 2, 3, 4, 3)

			convey.Convey("Then the away team did not win", func() {
				convey.So(g.AwayWin, convey.ShouldEqual, 0)
				convey.So(g.Margin, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the totals are level", func() {
			convey.Convey("Then a home non-win counts for the away side", func() {
				convey.So(model.AwayWin(5, 5), convey.ShouldEqual, 1)
				convey.So(model.MarginBucket(5, 5), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When margins sit on bucket edges", func() {
			cases := []struct{ home, away, want int }{
				{10, 0, 1}, {5, 0, 1}, {4, 0, 2}, {2, 0, 2}, {1, 0, 3},
				{0, 1, 5}, {0, 2, 6}, {0, 4, 6}, {0, 5, 7}, {0, 12, 7},
			}

			convey.Convey("Then each maps to the documented bucket", func() {
				for _, c := range cases {
					convey.So(model.MarginBucket(c.home, c.away), convey.ShouldEqual, c.want)
				}
			})
		})
	})
}

func TestAbbreviations(t *testing.T) {
	convey.Convey("Given team labels with a duplicated id", t, func() {
		labels := []model.TeamLabel{
			{TeamID: 1, Abbr: "ARI"},
			{TeamID: 2, Abbr: "ATL"},
			{TeamID: 2, Abbr: "ATH"},
		}

		convey.Convey("When the lookup is built", func() {
			m := model.Abbreviations(labels)

			convey.Convey("Then the last label wins", func() {
				convey.So(m, convey.ShouldHaveLength, 2)
				convey.So(m[1], convey.ShouldEqual, "ARI")
				convey.So(m[2], convey.ShouldEqual, "ATH")
			})
		})
	})
}

func TestDrawsSize(t *testing.T) {
	convey.Convey("Given chains of unequal length", t, func() {
		d := model.Draws{Teams: 2, Chains: [][]model.Params{make([]model.Params, 5), make([]model.Params, 3)}}

		convey.Convey("Then Size reports the shortest chain", func() {
			chains, iters := d.Size()
			convey.So(chains, convey.ShouldEqual, 2)
			convey.So(iters, convey.ShouldEqual, 3)
		})

		convey.Convey("Then an empty set is zero by zero", func() {
			chains, iters := model.Draws{}.Size()
			convey.So(chains, convey.ShouldEqual, 0)
			convey.So(iters, convey.ShouldEqual, 0)
		})
	})
}
