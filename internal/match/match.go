// Package match turns raw result rows into canonical match facts.
package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// UnknownMarker is written in a source field when a result existed but was not recorded.
const UnknownMarker = "?"

// Outcome letters used for form strings.
const (
	Win  = "W"
	Draw = "D"
	Loss = "L"
)

// Row is one already-parsed line of a results table. All fields are raw text.
type Row struct {
	Round      string `json:"round"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomeScore  string `json:"home_score"`
	AwayScore  string `json:"away_score"`
	HomeDelta  string `json:"home_delta"`
	AwayDelta  string `json:"away_delta"`
	HomeRating string `json:"home_rating"`
	AwayRating string `json:"away_rating"`
	Division   string `json:"division"`
	Group      string `json:"group"`
}

func (r Row) fields() []string {
	return []string{
		r.Round, r.Date, r.Time, r.Home, r.Away,
		r.HomeScore, r.AwayScore, r.HomeDelta, r.AwayDelta,
		r.HomeRating, r.AwayRating, r.Division, r.Group,
	}
}

// Match is the canonical, read-only fact derived from one Row.
type Match struct {
	Seq      int       `json:"seq"`
	Home     string    `json:"home"`
	Away     string    `json:"away,omitempty"`
	Round    Round     `json:"round"`
	Time     time.Time `json:"time"`
	DayKnown bool      `json:"day_known"`
	HasTime  bool      `json:"has_time"`

	HomeScore *int `json:"home_score,omitempty"`
	AwayScore *int `json:"away_score,omitempty"`

	// Pre-computed upstream; consumed as data.
	HomeDelta  *float64 `json:"home_delta,omitempty"`
	AwayDelta  *float64 `json:"away_delta,omitempty"`
	HomeRating *float64 `json:"home_rating,omitempty"`
	AwayRating *float64 `json:"away_rating,omitempty"`

	UnknownResult bool   `json:"unknown_result"`
	Division      int    `json:"division,omitempty"`
	Group         string `json:"group,omitempty"`
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006"}
var timeLayouts = []string{"15:04", "15:04:05", "15h04", "15h"}

// Normalize converts a raw row into a Match. Rows without a home team, rows with an
// unparseable round, and opponent-less rows that are not inter-group adjustments are rejected.
func Normalize(row Row) (Match, bool) {
	m := Match{
		Home:  strings.TrimSpace(row.Home),
		Away:  strings.TrimSpace(row.Away),
		Group: strings.ToUpper(strings.TrimSpace(row.Group)),
	}
	if m.Home == "" || m.Home == UnknownMarker {
		return Match{}, false
	}

	round, ok := ParseRound(row.Round)
	if !ok {
		return Match{}, false
	}
	m.Round = round
	if m.Away == "" && !round.IsAdjustment() {
		return Match{}, false
	}

	for _, f := range row.fields() {
		if strings.TrimSpace(f) == UnknownMarker {
			m.UnknownResult = true
			break
		}
	}

	m.Time, m.DayKnown, m.HasTime = parseTimestamp(row.Date, row.Time)
	m.HomeScore = parseInt(row.HomeScore)
	m.AwayScore = parseInt(row.AwayScore)
	m.HomeDelta = parseFloat(row.HomeDelta)
	m.AwayDelta = parseFloat(row.AwayDelta)
	m.HomeRating = parseFloat(row.HomeRating)
	m.AwayRating = parseFloat(row.AwayRating)
	m.Division = ParseDivision(row.Division)

	return m, true
}

// NormalizeAll normalizes every row, logging and skipping the ones that cannot be used.
func NormalizeAll(rows []Row, logger *logrus.Logger) []Match {
	matches := make([]Match, 0, len(rows))
	for i, row := range rows {
		m, ok := Normalize(row)
		if !ok {
			logger.WithFields(logrus.Fields{
				"row":   i + 1,
				"round": row.Round,
				"home":  row.Home,
				"away":  row.Away,
			}).Warn("Skipping unusable match row")
			continue
		}
		m.Seq = i
		matches = append(matches, m)
	}
	return matches
}

// ParseDivision extracts the leading division number from labels like "2", "2ª Div." or "2ª Divisão".
func ParseDivision(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

func parseTimestamp(date, clock string) (time.Time, bool, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	var day time.Time
	found := false
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, date, time.UTC); err == nil {
			day, found = t, true
			break
		}
	}
	if !found {
		return time.Time{}, false, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), true, true
		}
	}
	return day, true, false
}

func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || s == UnknownMarker {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || s == UnknownMarker {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Played reports whether the match has any recorded outcome.
func (m Match) Played() bool {
	return (m.HomeScore != nil && m.AwayScore != nil) || m.UnknownResult ||
		m.HomeRating != nil || m.HomeDelta != nil
}

// Involves reports whether team took part in the match.
func (m Match) Involves(team string) bool {
	return m.Home == team || (m.Away != "" && m.Away == team)
}

// Opponent returns the other side of the match for team.
func (m Match) Opponent(team string) string {
	if m.Home == team {
		return m.Away
	}
	return m.Home
}

// RatingFor returns the post-match rating and delta recorded for team.
func (m Match) RatingFor(team string) (rating, delta *float64) {
	if m.Home == team {
		return m.HomeRating, m.HomeDelta
	}
	return m.AwayRating, m.AwayDelta
}

// ScoresFor returns (own, opponent) scores from team's perspective.
func (m Match) ScoresFor(team string) (own, other *int) {
	if m.Home == team {
		return m.HomeScore, m.AwayScore
	}
	return m.AwayScore, m.HomeScore
}

// Outcome returns W, D or L for team, or "" when the result cannot be decided.
func (m Match) Outcome(team string) string {
	own, other := m.ScoresFor(team)
	if own == nil || other == nil || m.UnknownResult {
		return ""
	}
	switch {
	case *own > *other:
		return Win
	case *own < *other:
		return Loss
	default:
		return Draw
	}
}

// Result renders the score from team's perspective, "?" when unknown.
func (m Match) Result(team string) string {
	own, other := m.ScoresFor(team)
	if own == nil || other == nil {
		if m.UnknownResult {
			return UnknownMarker
		}
		return ""
	}
	return fmt.Sprintf("%d-%d", *own, *other)
}
