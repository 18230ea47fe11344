package engine

import (
	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
)

// Record is a win/draw/loss tally over played regular matches
type Record struct {
	Played       int `json:"played"`
	Won          int `json:"won"`
	Drawn        int `json:"drawn"`
	Lost         int `json:"lost"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// MatchLine is one match from a team's point of view
type MatchLine struct {
	Round    string   `json:"round"`
	Date     string   `json:"date,omitempty"`
	Opponent string   `json:"opponent"`
	Result   string   `json:"result,omitempty"`
	Outcome  string   `json:"outcome,omitempty"`
	Delta    *float64 `json:"delta,omitempty"`
	Played   bool     `json:"played"`
}

// TeamProfile is the full picture of one team in the loaded season
type TeamProfile struct {
	Team          season.Team      `json:"team"`
	Record        Record           `json:"record"`
	Form          []string         `json:"form"`
	CurrentRating *float64         `json:"current_rating"`
	PeakRating    *float64         `json:"peak_rating"`
	LowestRating  *float64         `json:"lowest_rating"`
	Progression   *TeamProgression `json:"progression,omitempty"`
	Matches       []MatchLine      `json:"matches"`
}

// TeamProfile analyzes one team
func (s *Session) TeamProfile(name string) (TeamProfile, error) {
	s.mu.RLock()
	st, err := s.current()
	if err != nil {
		s.mu.RUnlock()
		return TeamProfile{}, err
	}

	series := st.timeline.Series(name)
	if series == nil {
		s.mu.RUnlock()
		return TeamProfile{}, ErrUnknownTeam
	}

	profile := TeamProfile{Team: season.Team{Name: name}, Form: []string{}}
	for _, t := range st.teams {
		if t.Name == name {
			profile.Team = t
			break
		}
	}

	for _, sample := range series {
		if sample.Rating == nil {
			continue
		}
		r := *sample.Rating
		profile.CurrentRating = &r
		if profile.PeakRating == nil || r > *profile.PeakRating {
			profile.PeakRating = &r
		}
		if profile.LowestRating == nil || r < *profile.LowestRating {
			profile.LowestRating = &r
		}
		if sample.Form != nil {
			profile.Form = sample.Form
		}
	}

	for _, m := range st.matches {
		if !m.Involves(name) || m.Round.IsAdjustment() {
			continue
		}
		profile.Matches = append(profile.Matches, matchLine(m, name))
		if m.Round.IsRegular() {
			tally(&profile.Record, m, name)
		}
	}
	s.mu.RUnlock()

	if p, err := s.Progression(name); err == nil {
		profile.Progression = &p
	}
	return profile, nil
}

func matchLine(m match.Match, team string) MatchLine {
	_, delta := m.RatingFor(team)
	line := MatchLine{
		Round:    m.Round.String(),
		Opponent: m.Opponent(team),
		Result:   m.Result(team),
		Outcome:  m.Outcome(team),
		Delta:    delta,
		Played:   m.Played(),
	}
	if m.DayKnown {
		line.Date = m.Time.Format("2006-01-02")
	}
	return line
}

func tally(r *Record, m match.Match, team string) {
	own, other := m.ScoresFor(team)
	switch m.Outcome(team) {
	case match.Win:
		r.Won++
	case match.Draw:
		r.Drawn++
	case match.Loss:
		r.Lost++
	default:
		return
	}
	r.Played++
	r.GoalsFor += *own
	r.GoalsAgainst += *other
}
