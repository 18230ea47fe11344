package engine

import (
	"time"

	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/metrics"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sam-maryland/league-engine-mcp-server/internal/timeline"
)

// Info describes what is currently loaded
type Info struct {
	Selection           season.Selection `json:"selection"`
	Teams               int              `json:"teams"`
	Matches             int              `json:"matches"`
	RejectedRows        int              `json:"rejected_rows"`
	Slots               int              `json:"slots"`
	Structure           progression.Kind `json:"structure"`
	ComputedStandings   bool             `json:"computed_standings"`
	StandingsGeneration uint64           `json:"standings_generation"`
	LoadedAt            time.Time        `json:"loaded_at"`
	Rules               config.Rules     `json:"rules"`
}

// TableRow is a standings row with its progression result
type TableRow struct {
	standings.Entry
	Result progression.Result `json:"result"`
}

// TableView is one standings table ready for display
type TableView struct {
	Key   standings.TableKey `json:"key"`
	Label string             `json:"label"`
	Rows  []TableRow         `json:"rows"`
}

// TeamProgression is a team's table placement and what it leads to
type TeamProgression struct {
	Team     string             `json:"team"`
	Table    string             `json:"table"`
	Position int                `json:"position"`
	Total    int                `json:"total"`
	Result   progression.Result `json:"result"`
}

func (s *Session) current() (*state, error) {
	if s.state == nil {
		return nil, ErrNotLoaded
	}
	return s.state, nil
}

// Selection returns the loaded season/modality
func (s *Session) Selection() (season.Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return season.Selection{}, false
	}
	return s.state.selection, true
}

// Info summarizes the loaded state
func (s *Session) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Selection:           st.selection,
		Teams:               len(st.timeline.Teams()),
		Matches:             len(st.matches),
		RejectedRows:        st.rejected,
		Slots:               len(st.timeline.Slots),
		Structure:           st.structure.Kind,
		ComputedStandings:   st.computed,
		StandingsGeneration: s.standings.Generation(),
		LoadedAt:            st.loadedAt,
		Rules:               st.rules,
	}, nil
}

// Timeline returns the rating timeline
func (s *Session) Timeline() (*timeline.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return st.timeline, nil
}

// Structure returns the competition structure
func (s *Session) Structure() (progression.Structure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return progression.Structure{}, err
	}
	return st.structure, nil
}

// Teams returns the roster
func (s *Session) Teams() ([]season.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return append([]season.Team(nil), st.teams...), nil
}

// Qualified returns the qualified teams, cached per standings generation
func (s *Session) Qualified() (*progression.Qualification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.qualified(st), nil
}

func (s *Session) qualified(st *state) *progression.Qualification {
	q, hit := s.cache.Get(s.standings, st.structure, st.rules, s.logger)
	metrics.RecordCache(hit)
	return q
}

// Progression returns the progression result for one team
func (s *Session) Progression(team string) (TeamProgression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return TeamProgression{}, err
	}

	key, entry, total, ok := s.standings.Position(team)
	if !ok {
		return TeamProgression{}, ErrUnknownTeam
	}
	return TeamProgression{
		Team:     team,
		Table:    key.String(),
		Position: entry.Position,
		Total:    total,
		Result:   s.decide(st, s.qualified(st), key, entry.Team, entry.Position, total),
	}, nil
}

func (s *Session) decide(st *state, q *progression.Qualification, key standings.TableKey, team string, position, total int) progression.Result {
	return progression.Decide(progression.Lookup{
		Team:          team,
		Position:      position,
		Total:         total,
		Table:         key,
		Structure:     st.structure,
		Qualification: q,
		Rules:         st.rules,
	})
}

// StandingsWithProgression returns every table with a result per row
func (s *Session) StandingsWithProgression() ([]TableView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	q := s.qualified(st)
	var views []TableView
	for _, key := range s.standings.Keys() {
		entries, _ := s.standings.Table(key)
		view := TableView{Key: key, Label: key.String(), Rows: make([]TableRow, len(entries))}
		for i, e := range entries {
			view.Rows[i] = TableRow{Entry: e, Result: s.decide(st, q, key, e.Team, e.Position, len(entries))}
		}
		views = append(views, view)
	}
	return views, nil
}

// Bracket resolves the elimination bracket for the loaded season
func (s *Session) Bracket() (bracket.Bracket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.current()
	if err != nil {
		return bracket.Bracket{}, err
	}

	q := s.qualified(st)
	b := bracket.Build(bracket.Input{
		Schedule:  st.matches,
		Deltas:    st.deltas,
		Qualified: q.Playoffs,
		Legend:    q.Legend,
	}, s.logger)

	switch {
	case b.Empty():
		metrics.RecordBracket("empty")
	case b.Predicted:
		metrics.RecordBracket("predicted")
	default:
		metrics.RecordBracket("scheduled")
	}
	return b, nil
}

// Placeholders returns every placeholder spelling the current legend resolves
func (s *Session) Placeholders() (map[string]string, error) {
	q, err := s.Qualified()
	if err != nil {
		return nil, err
	}
	return bracket.NewResolver(q.Legend).Tokens(), nil
}
