// Package bracket resolves the elimination bracket: schedule placeholders are
// replaced with qualified teams, or a bracket is predicted from the seeding.
package bracket

import (
	"fmt"
	"sort"

	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sirupsen/logrus"
)

// Round names in bracket order
const (
	RoundQuarterfinal = "quarterfinal"
	RoundSemifinal    = "semifinal"
	RoundThirdPlace   = "third-place"
	RoundFinal        = "final"
)

// Size is the number of qualifiers a full bracket needs
const Size = 8

var roundOrder = []struct {
	tag  match.RoundTag
	name string
}{
	{match.TagQuarterfinal, RoundQuarterfinal},
	{match.TagSemifinal, RoundSemifinal},
	{match.TagThirdPlace, RoundThirdPlace},
	{match.TagFinal, RoundFinal},
}

// Match is one bracket pairing. Scores are nil until played.
type Match struct {
	Label         string  `json:"label"`
	Team1         string  `json:"team1"`
	Team2         string  `json:"team2"`
	Score1        *int    `json:"score1"`
	Score2        *int    `json:"score2"`
	Winner        *string `json:"winner"`
	UnknownResult bool    `json:"unknown_result,omitempty"`
	Predicted     bool    `json:"predicted,omitempty"`
	Delta1        float64 `json:"delta1"`
	Delta2        float64 `json:"delta2"`
}

// Round is a named bracket round
type Round struct {
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Bracket is the ordered list of rounds. It is empty when neither schedule rows
// nor a full set of qualifiers exist.
type Bracket struct {
	Rounds    []Round `json:"rounds"`
	Predicted bool    `json:"predicted"`
}

// Empty reports whether the bracket has no matches
func (b Bracket) Empty() bool {
	for _, r := range b.Rounds {
		if len(r.Matches) > 0 {
			return false
		}
	}
	return true
}

// Unresolved lists team slots that are still placeholder tokens
func (b Bracket) Unresolved() []string {
	var out []string
	for _, r := range b.Rounds {
		for _, m := range r.Matches {
			for _, team := range []string{m.Team1, m.Team2} {
				if IsPlaceholder(team) {
					out = append(out, team)
				}
			}
		}
	}
	return out
}

// RoundDelta is a rating change recorded for one elimination match
type RoundDelta struct {
	Round     match.Round
	Home      string
	Away      string
	HomeDelta float64
	AwayDelta float64
}

// Resolver maps placeholder tokens to the teams of a qualification legend
type Resolver struct {
	teams map[Placeholder]string
}

// NewResolver indexes the legend by nominal position, division and group
func NewResolver(legend []progression.LegendEntry) *Resolver {
	r := &Resolver{teams: make(map[Placeholder]string, len(legend))}
	for _, e := range legend {
		key := Placeholder{Position: e.Position, Division: e.Division, Group: e.Group}
		if _, taken := r.teams[key]; !taken {
			r.teams[key] = e.Team
		}
	}
	return r
}

// Resolve returns the team a token stands for, or the token itself when it is
// not a placeholder or nothing in the legend matches it.
func (r *Resolver) Resolve(token string) string {
	p, ok := ParsePlaceholder(token)
	if !ok {
		return token
	}
	if team, ok := r.teams[p]; ok {
		return team
	}
	return token
}

// Tokens renders every spelling of every legend placeholder with its team
func (r *Resolver) Tokens() map[string]string {
	out := make(map[string]string)
	for p, team := range r.teams {
		for _, s := range p.Spellings() {
			out[s] = team
		}
	}
	return out
}

// Input is everything Build consumes
type Input struct {
	Schedule  []match.Match
	Deltas    []RoundDelta
	Qualified []string
	Legend    []progression.LegendEntry
}

// Build produces the bracket. Scheduled elimination rows win over prediction; with
// neither rows nor Size qualifiers the bracket is empty.
func Build(in Input, logger *logrus.Logger) Bracket {
	var rows []match.Match
	for _, m := range in.Schedule {
		if m.Round.IsElimination() {
			rows = append(rows, m)
		}
	}

	if len(rows) > 0 {
		return fromSchedule(rows, in, NewResolver(in.Legend))
	}

	if len(in.Qualified) < Size {
		logger.WithFields(logrus.Fields{
			"qualified": len(in.Qualified),
			"required":  Size,
		}).Warn("Not enough qualified teams to predict a bracket")
		return Bracket{Rounds: []Round{}}
	}
	return predict(in.Qualified[:Size])
}

type pairKey struct {
	round string
	a, b  string
}

func newPairKey(round match.Round, t1, t2 string) pairKey {
	if t2 < t1 {
		t1, t2 = t2, t1
	}
	key := pairKey{round: round.String(), a: t1, b: t2}
	if round.Tag != match.TagNone {
		key.round = string(round.Tag)
	}
	return key
}

func fromSchedule(rows []match.Match, in Input, resolver *Resolver) Bracket {
	deltas := make(map[pairKey]RoundDelta, len(in.Deltas))
	for _, d := range in.Deltas {
		deltas[newPairKey(d.Round, d.Home, d.Away)] = d
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	byTag := make(map[match.RoundTag][]Match)
	for _, m := range rows {
		bm := Match{
			Team1:         resolver.Resolve(m.Home),
			Team2:         resolver.Resolve(m.Away),
			Score1:        m.HomeScore,
			Score2:        m.AwayScore,
			UnknownResult: m.UnknownResult,
		}
		bm.Label = fmt.Sprintf("%s%d", m.Round.Tag, len(byTag[m.Round.Tag])+1)
		bm.Winner = winner(bm)
		bm.Delta1, bm.Delta2 = lookupDelta(deltas, m, bm.Team1, bm.Team2)
		byTag[m.Round.Tag] = append(byTag[m.Round.Tag], bm)
	}

	b := Bracket{Rounds: []Round{}}
	for _, r := range roundOrder {
		if matches := byTag[r.tag]; len(matches) > 0 {
			b.Rounds = append(b.Rounds, Round{Name: r.name, Matches: matches})
		}
	}
	return b
}

// lookupDelta prefers the per-round delta dataset, then the row's own deltas, then zero
func lookupDelta(deltas map[pairKey]RoundDelta, m match.Match, team1, team2 string) (float64, float64) {
	if d, ok := deltas[newPairKey(m.Round, team1, team2)]; ok {
		if d.Home == team1 {
			return d.HomeDelta, d.AwayDelta
		}
		return d.AwayDelta, d.HomeDelta
	}

	var d1, d2 float64
	if m.HomeDelta != nil {
		d1 = *m.HomeDelta
	}
	if m.AwayDelta != nil {
		d2 = *m.AwayDelta
	}
	return d1, d2
}

func winner(m Match) *string {
	if m.UnknownResult || m.Score1 == nil || m.Score2 == nil || *m.Score1 == *m.Score2 {
		return nil
	}
	w := m.Team1
	if *m.Score2 > *m.Score1 {
		w = m.Team2
	}
	return &w
}

// predict seeds 1v8, 4v5, 2v7, 3v6 so the top two seeds can only meet in the final
func predict(seeds []string) Bracket {
	pair := func(label, t1, t2 string) Match {
		return Match{Label: label, Team1: t1, Team2: t2, Predicted: true}
	}

	return Bracket{
		Predicted: true,
		Rounds: []Round{
			{Name: RoundQuarterfinal, Matches: []Match{
				pair("QF1", seeds[0], seeds[7]),
				pair("QF2", seeds[3], seeds[4]),
				pair("QF3", seeds[1], seeds[6]),
				pair("QF4", seeds[2], seeds[5]),
			}},
			{Name: RoundSemifinal, Matches: []Match{
				pair("SF1", "Winner QF1", "Winner QF2"),
				pair("SF2", "Winner QF3", "Winner QF4"),
			}},
			{Name: RoundThirdPlace, Matches: []Match{
				pair("3P1", "Loser SF1", "Loser SF2"),
			}},
			{Name: RoundFinal, Matches: []Match{
				pair("F1", "Winner SF1", "Winner SF2"),
			}},
		},
	}
}
