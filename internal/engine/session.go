// Package engine owns the loaded season and runs every phase over it: rating
// timeline, structure analysis, qualification, progression and bracket.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/metrics"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sam-maryland/league-engine-mcp-server/internal/timeline"
	"github.com/sirupsen/logrus"
)

// How many earlier seasons are replayed to carry ratings forward
const carryOverDepth = 3

var (
	// ErrNotLoaded is returned by queries before the first successful Load
	ErrNotLoaded = errors.New("no season loaded")
	// ErrUnknownTeam is returned for teams not in the loaded season
	ErrUnknownTeam = errors.New("unknown team")
)

// Session holds one season/modality. A Load replaces everything at once.
type Session struct {
	source        season.Source
	rulesConfig   *config.RulesConfig
	defaultRating float64
	logger        *logrus.Logger

	mu        sync.RWMutex
	state     *state
	standings *standings.Standings
	cache     progression.Cache
}

type state struct {
	selection season.Selection
	rules     config.Rules
	teams     []season.Team
	matches   []match.Match
	rejected  int
	timeline  *timeline.Timeline
	structure progression.Structure
	deltas    []bracket.RoundDelta
	computed  bool
	loadedAt  time.Time
}

// NewSession creates an empty session over a data source
func NewSession(source season.Source, rules *config.RulesConfig, defaultRating float64, logger *logrus.Logger) *Session {
	if rules == nil {
		rules = config.DefaultRulesConfig()
	}
	return &Session{
		source:        source,
		rulesConfig:   rules,
		defaultRating: defaultRating,
		logger:        logger,
		standings:     standings.New(),
	}
}

// Load reads a season/modality and replaces the session's state
func (s *Session) Load(ctx context.Context, sel season.Selection) error {
	start := time.Now()
	err := s.load(ctx, sel)
	metrics.RecordSeasonLoad(sel.Modality, time.Since(start), err)
	if err != nil {
		s.logger.WithError(err).WithField("selection", sel.String()).Error("Failed to load season")
		return err
	}
	return nil
}

// Reload loads the current selection again
func (s *Session) Reload(ctx context.Context) error {
	sel, ok := s.Selection()
	if !ok {
		return ErrNotLoaded
	}
	return s.Load(ctx, sel)
}

func (s *Session) load(ctx context.Context, sel season.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}

	rules, err := s.rulesConfig.For(sel.Season, sel.Modality)
	if err != nil {
		return fmt.Errorf("failed to resolve rules for %s: %w", sel, err)
	}

	teams, err := s.source.Teams(ctx, sel)
	if err != nil {
		return err
	}
	rows, err := s.source.Matches(ctx, sel)
	if err != nil {
		return err
	}
	matches := match.NormalizeAll(rows, s.logger)
	rejected := len(rows) - len(matches)
	metrics.MatchesRejected.Add(float64(rejected))

	previous, err := s.previousTeams(ctx, sel)
	if err != nil {
		return err
	}
	ratings, err := s.startRatings(ctx, sel, teams, matches)
	if err != nil {
		return err
	}

	tl := timeline.Build(timeline.Input{
		Teams:          teamNames(teams),
		Matches:        matches,
		StartRatings:   ratings,
		PreviousSeason: previous,
	})

	tables, ok, err := s.source.Standings(ctx, sel)
	if err != nil {
		return err
	}
	computed := !ok
	if computed {
		tables = standings.Compute(members(teams), matches, standings.Points(rules.Points))
	}

	deltas, err := s.source.RoundDeltas(ctx, sel)
	if err != nil {
		return err
	}

	keys := make([]standings.TableKey, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	structure := progression.AnalyzeKeys(keys, members(teams))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Standings change and cache invalidation happen under one lock
	s.standings.Replace(tables)
	s.cache.Invalidate()
	s.state = &state{
		selection: sel,
		rules:     rules,
		teams:     teams,
		matches:   matches,
		rejected:  rejected,
		timeline:  tl,
		structure: structure,
		deltas:    deltas,
		computed:  computed,
		loadedAt:  time.Now(),
	}

	metrics.TimelineSlots.Set(float64(len(tl.Slots)))
	metrics.TeamsLoaded.Set(float64(len(tl.Teams())))

	s.logger.WithFields(logrus.Fields{
		"selection":  sel.String(),
		"teams":      len(teams),
		"matches":    len(matches),
		"rejected":   rejected,
		"slots":      len(tl.Slots),
		"structure":  structure.Kind,
		"generation": s.standings.Generation(),
	}).Info("Season loaded")
	return nil
}

// previousTeams returns the teams that played the season before sel
func (s *Session) previousTeams(ctx context.Context, sel season.Selection) (map[string]bool, error) {
	out := make(map[string]bool)
	prev, ok := season.PreviousSeason(sel.Season)
	if !ok {
		return out, nil
	}
	teams, err := s.source.Teams(ctx, season.Selection{Season: prev, Modality: sel.Modality})
	if err != nil {
		if season.IsNotFound(err) {
			return out, nil
		}
		return nil, err
	}
	for _, t := range teams {
		out[t.Name] = true
	}
	return out, nil
}

// startRatings uses the season's ratings file, else last season's final ratings,
// else the default rating.
func (s *Session) startRatings(ctx context.Context, sel season.Selection, teams []season.Team, matches []match.Match) (map[string]float64, error) {
	ratings, ok, err := s.source.StartRatings(ctx, sel)
	if err != nil {
		return nil, err
	}
	if !ok {
		ratings, err = s.carriedOver(ctx, sel, carryOverDepth)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string]float64, len(teams))
	for k, v := range ratings {
		out[k] = v
	}
	fill := func(team string) {
		if _, ok := out[team]; !ok && team != "" {
			out[team] = s.defaultRating
		}
	}
	for _, t := range teams {
		fill(t.Name)
	}
	for _, m := range matches {
		if m.Round.IsAdjustment() || !m.Played() {
			continue
		}
		fill(m.Home)
		fill(m.Away)
	}
	return out, nil
}

// carriedOver replays the previous season to get its final ratings
func (s *Session) carriedOver(ctx context.Context, sel season.Selection, depth int) (map[string]float64, error) {
	prev, ok := season.PreviousSeason(sel.Season)
	if !ok || depth == 0 {
		return nil, nil
	}
	prevSel := season.Selection{Season: prev, Modality: sel.Modality}

	final, err := s.finalRatings(ctx, prevSel, depth-1)
	if err != nil {
		if season.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"selection": sel.String(),
		"from":      prevSel.String(),
		"teams":     len(final),
	}).Debug("Carrying ratings over from previous season")
	return final, nil
}

// finalRatings builds a season's timeline and returns each team's last rating
func (s *Session) finalRatings(ctx context.Context, sel season.Selection, depth int) (map[string]float64, error) {
	teams, err := s.source.Teams(ctx, sel)
	if err != nil {
		return nil, err
	}
	rows, err := s.source.Matches(ctx, sel)
	if err != nil {
		return nil, err
	}
	matches := match.NormalizeAll(rows, s.logger)

	ratings, ok, err := s.source.StartRatings(ctx, sel)
	if err != nil {
		return nil, err
	}
	if !ok {
		if ratings, err = s.carriedOver(ctx, sel, depth); err != nil {
			return nil, err
		}
	}
	start := make(map[string]float64)
	for k, v := range ratings {
		start[k] = v
	}
	for _, t := range teams {
		if _, ok := start[t.Name]; !ok {
			start[t.Name] = s.defaultRating
		}
	}

	tl := timeline.Build(timeline.Input{Teams: teamNames(teams), Matches: matches, StartRatings: start})
	return tl.Final(), nil
}

func teamNames(teams []season.Team) []string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names
}

func members(teams []season.Team) []standings.Member {
	out := make([]standings.Member, len(teams))
	for i, t := range teams {
		out[i] = t.Member()
	}
	return out
}
