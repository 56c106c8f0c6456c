package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pairwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

func fixture() []model.TeamSummary {
	return []model.TeamSummary{
		{TeamID: 1, Abbr: "BAL", Low: 2, Median: 3, High: 5, Mean: 3.2},
		{TeamID: 2, Abbr: "BOS", Low: 1, Median: 1, High: 2, Mean: 1.3},
		{TeamID: 3, Abbr: "NYY", Low: 1, Median: 2.5, High: 4, Mean: 2.4},
	}
}

func TestParseFormat(t *testing.T) {
	Convey("ParseFormat", t, func() {
		for _, name := range []string{"csv", "json", "yaml"} {
			f, err := ParseFormat(name)
			So(err, ShouldBeNil)
			So(string(f), ShouldEqual, name)
		}
		f, err := ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatCSV)

		_, err = ParseFormat("parquet")
		So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
	})
}

func TestWrite(t *testing.T) {
	Convey("Given three team summaries", t, func() {
		in := fixture()

		Convey("CSV rows are ordered by median with the original header", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatCSV, in), ShouldBeNil)

			recs, err := csv.NewReader(&buf).ReadAll()
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 4)
			So(recs[0], ShouldResemble, []string{"team", "team_id", "ci_low", "median", "ci_high"})
			So(recs[1], ShouldResemble, []string{"BOS", "2", "1", "1", "2"})
			So(recs[2], ShouldResemble, []string{"NYY", "3", "1", "2.5", "4"})
			So(recs[3][0], ShouldEqual, "BAL")
		})

		Convey("The caller's slice keeps its order", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatCSV, in), ShouldBeNil)
			So(in[0].Abbr, ShouldEqual, "BAL")
		})

		Convey("JSON decodes back to the sorted summaries", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatJSON, in), ShouldBeNil)

			var out []model.TeamSummary
			So(json.Unmarshal(buf.Bytes(), &out), ShouldBeNil)
			So(out, ShouldHaveLength, 3)
			So(out[0].Abbr, ShouldEqual, "BOS")
			So(out[2].Mean, ShouldEqual, 3.2)
		})

		Convey("YAML uses the same field names", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatYAML, in), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "ci_low:")

			var out []model.TeamSummary
			So(yaml.Unmarshal(buf.Bytes(), &out), ShouldBeNil)
			So(out[1].Abbr, ShouldEqual, "NYY")
			So(out[1].Median, ShouldEqual, 2.5)
		})

		Convey("Unknown formats are rejected", func() {
			var buf bytes.Buffer
			err := Write(&buf, Format("xml"), in)
			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func TestWriteFile(t *testing.T) {
	Convey("WriteFile names the file after season and variant", t, func() {
		dir := filepath.Join(t.TempDir(), "out")
		path, err := WriteFile(dir, 2024, "ordinal_home", FormatCSV, fixture())
		So(err, ShouldBeNil)
		So(filepath.Base(path), ShouldEqual, "2024_ordinal_home_estimates.csv")

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(data), ShouldStartWith, "team,team_id,ci_low,median,ci_high\n")

		Convey("Empty summaries are an error", func() {
			_, err := WriteFile(dir, 2024, "binary", FormatCSV, nil)
			So(errors.Is(err, ErrNoSummaries), ShouldBeTrue)
		})
	})
}
