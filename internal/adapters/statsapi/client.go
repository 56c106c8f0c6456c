// Package statsapi is a small client for the public MLB Stats API.
package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/pkg/metrics"
)

const (
	defaultBaseURL = "https://statsapi.mlb.com/api/v1"
	defaultTimeout = 30 * time.Second
	sportMLB       = "1"
)

// Endpoint labels used for metrics and errors.
const (
	EndpointSeasons   = "seasons"
	EndpointTeams     = "teams"
	EndpointSchedule  = "schedule"
	EndpointLinescore = "linescore"
)

// Client fetches seasons, teams, schedules and line scores.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the MLB Stats API.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET for path with query and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	metrics.RecordAPIRequest(endpoint)
	err := c.do(ctx, path, query, out)
	if err != nil {
		metrics.RecordAPIError(endpoint)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequest, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s: %d", ErrStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

// Seasons lists every MLB season.
func (c *Client) Seasons(ctx context.Context) ([]model.Season, error) {
	var body seasonsResponse
	q := url.Values{"sportId": {sportMLB}}
	if err := c.get(ctx, EndpointSeasons, "/seasons/all", q, &body); err != nil {
		return nil, err
	}
	out := make([]model.Season, 0, len(body.Seasons))
	for _, s := range body.Seasons {
		out = append(out, model.Season{
			SeasonID:           s.SeasonID,
			HasWildcard:        s.HasWildcard,
			PreseasonStart:     s.PreSeasonStartDate,
			SeasonStart:        s.SeasonStartDate,
			RegularSeasonStart: s.RegularSeasonStartDate,
			RegularSeasonEnd:   s.RegularSeasonEndDate,
			SeasonEnd:          s.SeasonEndDate,
			OffseasonStart:     s.OffseasonStartDate,
			OffseasonEnd:       s.OffSeasonEndDate,
		})
	}
	return out, nil
}

// Teams lists the MLB teams active in season.
func (c *Client) Teams(ctx context.Context, season string) ([]model.Team, error) {
	var body teamsResponse
	q := url.Values{"sportId": {sportMLB}, "season": {season}}
	if err := c.get(ctx, EndpointTeams, "/teams", q, &body); err != nil {
		return nil, err
	}
	out := make([]model.Team, 0, len(body.Teams))
	for _, t := range body.Teams {
		sid := season
		if t.Season != 0 {
			sid = strconv.Itoa(t.Season)
		}
		out = append(out, model.Team{SeasonID: sid, TeamID: t.ID, Name: t.Name, Abbr: t.Abbreviation})
	}
	return out, nil
}

// Schedule flattens a season's schedule to one entry per listed game. A
// season without dates yields an empty slice.
func (c *Client) Schedule(ctx context.Context, season string) ([]model.ScheduledGame, error) {
	var body scheduleResponse
	q := url.Values{"sportId": {sportMLB}, "season": {season}}
	if err := c.get(ctx, EndpointSchedule, "/schedule", q, &body); err != nil {
		return nil, err
	}
	var out []model.ScheduledGame
	for _, d := range body.Dates {
		for _, g := range d.Games {
			sid := g.Season
			if sid == "" {
				sid = season
			}
			out = append(out, model.ScheduledGame{
				SeasonID:     sid,
				GameDate:     d.Date,
				GameID:       g.GamePk,
				DoubleHeader: g.DoubleHeader,
				AwayTeam:     g.Teams.Away.Team.ID,
				AwayWins:     g.Teams.Away.LeagueRecord.Wins,
				AwayLosses:   g.Teams.Away.LeagueRecord.Losses,
				HomeTeam:     g.Teams.Home.Team.ID,
				HomeWins:     g.Teams.Home.LeagueRecord.Wins,
				HomeLosses:   g.Teams.Home.LeagueRecord.Losses,
			})
		}
	}
	return out, nil
}

// Linescore returns the final runs of a game. Games without a final run
// total, e.g. postponed ones, return ErrIncomplete.
func (c *Client) Linescore(ctx context.Context, gamePk int64) (model.LineScore, error) {
	var body linescoreResponse
	path := "/game/" + strconv.FormatInt(gamePk, 10) + "/linescore"
	if err := c.get(ctx, EndpointLinescore, path, nil, &body); err != nil {
		return model.LineScore{}, err
	}
	home, away := body.Teams.Home.Runs, body.Teams.Away.Runs
	if home == nil || away == nil {
		return model.LineScore{}, fmt.Errorf("%w: game %d", ErrIncomplete, gamePk)
	}
	return model.LineScore{GameID: gamePk, HomeRuns: *home, AwayRuns: *away}, nil
}
