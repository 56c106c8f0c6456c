// Package report writes per-team posterior rank estimates to disk.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/internal/domain/ranking"
	"gopkg.in/yaml.v2"
)

// Format selects the encoding of the estimates file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a config value to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

var csvHeader = []string{"team", "team_id", "ci_low", "median", "ci_high"}

// FileName returns {season}_{variant}_estimates.{ext}.
func FileName(season int, variant string, f Format) string {
	return fmt.Sprintf("%d_%s_estimates.%s", season, variant, f)
}

// WriteFile writes the estimates for one fit under dir and returns the path.
// Rows are ordered by median rank.
func WriteFile(dir string, season int, variant string, f Format, summaries []model.TeamSummary) (string, error) {
	if len(summaries) == 0 {
		return "", ErrNoSummaries
	}
	if _, err := ParseFormat(string(f)); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	path := filepath.Join(dir, FileName(season, variant, f))
	fh, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := Write(fh, f, summaries); err != nil {
		_ = fh.Close()
		return "", err
	}
	if err := fh.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return path, nil
}

// Write encodes summaries to w. The input slice is not reordered.
func Write(w io.Writer, f Format, summaries []model.TeamSummary) error {
	rows := slices.Clone(summaries)
	ranking.SortByMedian(rows)

	var err error
	switch f {
	case FormatCSV:
		err = writeCSV(w, rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(rows)
	case FormatYAML:
		var out []byte
		out, err = yaml.Marshal(rows)
		if err == nil {
			_, err = w.Write(out)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func writeCSV(w io.Writer, rows []model.TeamSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Abbr,
			strconv.Itoa(r.TeamID),
			formatRank(r.Low),
			formatRank(r.Median),
			formatRank(r.High),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatRank(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
