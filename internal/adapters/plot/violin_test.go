package plot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pairwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestViolin(t *testing.T) {
	Convey("violin outlines the observed rank range", t, func() {
		pts := violin(2, []int{0, 4, 2, 0})
		So(pts, ShouldHaveLength, 6)

		So(pts[0].X, ShouldEqual, 2)
		So(pts[0].Y, ShouldEqual, 1.5)
		So(pts[1].X, ShouldAlmostEqual, 2+halfWidth)
		So(pts[1].Y, ShouldEqual, 2)
		So(pts[2].X, ShouldAlmostEqual, 2+halfWidth/2)
		So(pts[3].Y, ShouldEqual, 3.5)
		So(pts[5].X, ShouldAlmostEqual, 2-halfWidth)

		Convey("A team without draws has no outline", func() {
			So(violin(0, []int{0, 0, 0}), ShouldBeNil)
		})
	})
}

func TestRender(t *testing.T) {
	summaries := []model.TeamSummary{
		{TeamID: 1, Abbr: "BAL", Median: 2},
		{TeamID: 2, Abbr: "", Median: 1},
		{TeamID: 3, Abbr: "NYY", Median: 3},
	}
	freq := [][]int{{1, 8, 1}, {9, 1, 0}, {0, 1, 9}}

	Convey("NewFigure keeps team id order and fills missing labels", t, func() {
		f := NewFigure("2024 binary", summaries, freq)
		So(f.Teams, ShouldResemble, []string{"BAL", "#2", "NYY"})
		So(f.Medians, ShouldResemble, []float64{2, 1, 3})
	})

	Convey("Render validates its inputs", t, func() {
		_, err := Render(Figure{})
		So(errors.Is(err, ErrEmptyFigure), ShouldBeTrue)

		_, err = Render(Figure{Teams: []string{"A", "B"}, Frequencies: freq, Medians: []float64{1, 2}})
		So(errors.Is(err, ErrShape), ShouldBeTrue)

		p, err := Render(NewFigure("2024 binary", summaries, freq))
		So(err, ShouldBeNil)
		So(p.Y.Min, ShouldEqual, 0.5)
		So(p.Y.Max, ShouldEqual, 3.5)
	})

	Convey("Save writes an svg named after season and variant", t, func() {
		dir := t.TempDir()
		path, err := Save(dir, 2024, "binary_home", NewFigure("2024 binary_home", summaries, freq))
		So(err, ShouldBeNil)
		So(path, ShouldEqual, filepath.Join(dir, "2024_binary_home.svg"))

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, "<svg")
	})
}
