package engine

import (
	"context"
	"sort"

	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sirupsen/logrus"
)

// RatedTeam is a team with its rating
type RatedTeam struct {
	Team   string  `json:"team"`
	Rating float64 `json:"rating"`
}

// SeasonSummary is one season of a modality
type SeasonSummary struct {
	Season     string      `json:"season"`
	Teams      int         `json:"teams"`
	Matches    int         `json:"matches"`
	Played     int         `json:"played"`
	Leader     *RatedTeam  `json:"leader,omitempty"`
	TeamRating *float64    `json:"team_rating,omitempty"`
	Top        []RatedTeam `json:"top,omitempty"`
}

const historyTop = 3

// Leaderboard returns every team's latest rating, highest first
func (s *Session) Leaderboard() ([]RatedTeam, error) {
	tl, err := s.Timeline()
	if err != nil {
		return nil, err
	}
	return rank(tl.Final()), nil
}

// History summarizes every season of modality. When team is set each summary
// carries that team's final rating for the season.
func (s *Session) History(ctx context.Context, modality, team string) ([]SeasonSummary, error) {
	seasons, err := s.source.Seasons(ctx)
	if err != nil {
		return nil, err
	}

	var out []SeasonSummary
	for _, name := range seasons {
		sel := season.Selection{Season: name, Modality: modality}
		teams, err := s.source.Teams(ctx, sel)
		if err != nil {
			if season.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		rows, err := s.source.Matches(ctx, sel)
		if err != nil {
			if season.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		final, err := s.finalRatings(ctx, sel, carryOverDepth)
		if err != nil {
			return nil, err
		}

		summary := SeasonSummary{Season: name, Teams: len(teams), Matches: len(rows)}
		for _, m := range match.NormalizeAll(rows, s.logger) {
			if m.Played() && !m.Round.IsAdjustment() {
				summary.Played++
			}
		}
		ranked := rank(final)
		if len(ranked) > 0 {
			summary.Leader = &ranked[0]
		}
		if len(ranked) > historyTop {
			ranked = ranked[:historyTop]
		}
		summary.Top = ranked
		if team != "" {
			if r, ok := final[team]; ok {
				summary.TeamRating = &r
			}
		}
		out = append(out, summary)
	}

	s.logger.WithFields(logrus.Fields{
		"modality": modality,
		"team":     team,
		"seasons":  len(out),
	}).Debug("Built season history")
	return out, nil
}

func rank(ratings map[string]float64) []RatedTeam {
	out := make([]RatedTeam, 0, len(ratings))
	for team, r := range ratings {
		out = append(out, RatedTeam{Team: team, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Team < out[j].Team
	})
	return out
}
