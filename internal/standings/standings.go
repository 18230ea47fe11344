// Package standings holds the league tables the progression rules read from.
package standings

import (
	"sort"
	"sync"

	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
)

// Entry is one row of a standings table
type Entry struct {
	Position     int    `json:"position"`
	Team         string `json:"team"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Points       int    `json:"points"`
}

// GoalDifference returns goals for minus goals against
func (e Entry) GoalDifference() int {
	return e.GoalsFor - e.GoalsAgainst
}

// Points awarded per result
type Points struct {
	Win  int
	Draw int
	Loss int
}

// Member places a team in a division and group
type Member struct {
	Team     string
	Division int
	Group    string
}

// Compute builds one table per division/group from played regular-season matches.
// Members without division or group all go to the general table. Matches with an
// unknown result count as neither played nor scored.
func Compute(members []Member, matches []match.Match, pts Points) map[TableKey][]Entry {
	keyOf := make(map[string]TableKey, len(members))
	rows := make(map[TableKey]map[string]*Entry)
	add := func(key TableKey, team string) {
		if rows[key] == nil {
			rows[key] = make(map[string]*Entry)
		}
		if rows[key][team] == nil {
			rows[key][team] = &Entry{Team: team}
		}
	}
	for _, m := range members {
		key := TableKey{Division: m.Division, Group: m.Group}
		keyOf[m.Team] = key
		add(key, m.Team)
	}

	for _, m := range matches {
		if !m.Round.IsRegular() || m.UnknownResult || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		hk, hok := keyOf[m.Home]
		ak, aok := keyOf[m.Away]
		if !hok {
			hk = TableKey{Division: m.Division, Group: m.Group}
			keyOf[m.Home] = hk
		}
		if !aok {
			ak = TableKey{Division: m.Division, Group: m.Group}
			keyOf[m.Away] = ak
		}
		// Cross-table friendlies do not count
		if hk != ak {
			continue
		}
		add(hk, m.Home)
		add(hk, m.Away)
		record(rows[hk][m.Home], *m.HomeScore, *m.AwayScore, pts)
		record(rows[hk][m.Away], *m.AwayScore, *m.HomeScore, pts)
	}

	tables := make(map[TableKey][]Entry, len(rows))
	for key, byTeam := range rows {
		entries := make([]Entry, 0, len(byTeam))
		for _, e := range byTeam {
			entries = append(entries, *e)
		}
		Sort(entries)
		tables[key] = entries
	}
	return tables
}

func record(e *Entry, own, other int, pts Points) {
	e.Played++
	e.GoalsFor += own
	e.GoalsAgainst += other
	switch {
	case own > other:
		e.Won++
		e.Points += pts.Win
	case own < other:
		e.Lost++
		e.Points += pts.Loss
	default:
		e.Drawn++
		e.Points += pts.Draw
	}
}

// Sort orders entries by points, goal difference, goals scored and name, and numbers them
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
}

// Standings is the set of tables for one season/modality. Every mutation bumps the
// generation so memoized results computed from an older set can be detected.
type Standings struct {
	mu         sync.RWMutex
	tables     map[TableKey][]Entry
	generation uint64
}

// New creates an empty standings container
func New() *Standings {
	return &Standings{tables: make(map[TableKey][]Entry)}
}

// Replace swaps every table at once
func (s *Standings) Replace(tables map[TableKey][]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[TableKey][]Entry, len(tables))
	for key, entries := range tables {
		s.tables[key] = append([]Entry(nil), entries...)
	}
	s.generation++
}

// Set replaces a single table
func (s *Standings) Set(key TableKey, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[key] = append([]Entry(nil), entries...)
	s.generation++
}

// Generation returns the mutation counter
func (s *Standings) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Keys returns the table keys in display order
func (s *Standings) Keys() []TableKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]TableKey, 0, len(s.tables))
	for key := range s.tables {
		keys = append(keys, key)
	}
	SortKeys(keys)
	return keys
}

// Labels returns the keys rendered as table labels
func (s *Standings) Labels() []string {
	keys := s.Keys()
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = k.String()
	}
	return labels
}

// Table returns a copy of one table
func (s *Standings) Table(key TableKey) ([]Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.tables[key]
	if !ok {
		return nil, false
	}
	return append([]Entry(nil), entries...), true
}

// Position finds the table a team is ranked in, preferring a division or group
// table over the general one.
func (s *Standings) Position(team string) (key TableKey, entry Entry, total int, ok bool) {
	for _, k := range s.Keys() {
		entries, _ := s.Table(k)
		for _, e := range entries {
			if e.Team != team {
				continue
			}
			if !ok || (key.IsGeneral() && !k.IsGeneral()) {
				key, entry, total, ok = k, e, len(entries), true
			}
		}
	}
	return key, entry, total, ok
}
