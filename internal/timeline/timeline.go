// Package timeline aligns per-team rating histories onto one shared season axis.
//
// Teams play on different days and sometimes several times on the same day, so the
// builder first expands every calendar day into as many slots as the busiest team
// needed, then maps each team's matches onto those slots and carries its rating
// forward through the slots where it did not play. Every team ends up with exactly
// one sample per slot.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
)

// AnchorKind marks slots that are not regular match days.
type AnchorKind string

const (
	AnchorNone           AnchorKind = ""
	AnchorPreviousSeason AnchorKind = "previous-season"
	AnchorSeasonStart    AnchorKind = "season-start"
	AnchorAdjustment     AnchorKind = "adjustment"
)

const (
	// UnknownDayKey buckets matches whose date could not be parsed.
	UnknownDayKey = "unknown"

	// Games starting before this time belong to the previous evening's day.
	midnightCutoff = 2 * time.Hour

	formLength = 5
	dayFormat  = "2006-01-02"
)

// Slot is one position on the shared season axis.
type Slot struct {
	Index  int        `json:"index"`
	Time   time.Time  `json:"time"`
	DayKey string     `json:"day_key,omitempty"`
	Anchor AnchorKind `json:"anchor,omitempty"`
	Label  string     `json:"label"`
}

// Sample is a team's rating at one slot. Rating is nil before the team has any value.
type Sample struct {
	Team     string   `json:"team"`
	Slot     int      `json:"slot"`
	Rating   *float64 `json:"rating"`
	Opponent string   `json:"opponent,omitempty"`
	Round    string   `json:"round,omitempty"`
	Result   string   `json:"result,omitempty"`
	Delta    *float64 `json:"delta,omitempty"`
	Outcome  string   `json:"outcome,omitempty"`
	Form     []string `json:"form,omitempty"`
	Filler   bool     `json:"filler,omitempty"`
}

// Input is everything the builder consumes.
type Input struct {
	Teams          []string
	Matches        []match.Match
	StartRatings   map[string]float64
	PreviousSeason map[string]bool
}

// Timeline holds the slot axis and one aligned sample sequence per team.
type Timeline struct {
	Slots  []Slot
	teams  []string
	series map[string][]Sample
}

type day struct {
	key     string
	start   time.Time
	known   bool
	perTeam map[string]int
	rounds  map[string]bool
	slots   []int
}

func (d *day) slotCount() int {
	n := 0
	for _, c := range d.perTeam {
		if c > n {
			n = c
		}
	}
	if len(d.rounds) > n {
		n = len(d.rounds)
	}
	if n == 0 {
		n = 1
	}
	return n
}

// Build produces the aligned timeline. It never fails: matches with unusable dates
// land in a trailing "day unknown" bucket and missing ratings become nil samples.
func Build(in Input) *Timeline {
	var played, adjustments []match.Match
	for _, m := range in.Matches {
		switch {
		case m.Round.IsAdjustment():
			adjustments = append(adjustments, m)
		case m.Played():
			played = append(played, m)
		}
	}

	// Scheduled rows may name placeholders instead of teams
	counted := make([]match.Match, 0, len(played)+len(adjustments))
	counted = append(append(counted, played...), adjustments...)
	teams := collectTeams(in.Teams, counted)
	days := groupDays(played)

	tl := &Timeline{teams: teams, series: make(map[string][]Sample, len(teams))}

	hasPrevious := false
	for _, team := range teams {
		if in.PreviousSeason[team] {
			hasPrevious = true
			break
		}
	}

	first := time.Time{}
	if len(days) > 0 && days[0].known {
		first = days[0].start
	}
	if hasPrevious {
		tl.addSlot(Slot{Time: anchorTime(first, 2), Anchor: AnchorPreviousSeason, Label: "Previous season"})
	}
	tl.addSlot(Slot{Time: anchorTime(first, 1), Anchor: AnchorSeasonStart, Label: "Season start"})

	dayIndex := make(map[string]*day, len(days))
	for _, d := range days {
		count := d.slotCount()
		label := "Unknown day"
		if d.known {
			label = d.start.Format("02/01")
		}
		for i := 0; i < count; i++ {
			l := label
			if i > 0 {
				l = fmt.Sprintf("%s #%d", label, i+1)
			}
			d.slots = append(d.slots, tl.addSlot(Slot{Time: d.start, DayKey: d.key, Label: l}))
		}
		dayIndex[d.key] = d
	}

	assigned := assignSlots(teams, played, dayIndex)

	for _, team := range teams {
		tl.series[team] = resolveTeam(team, tl.Slots, assigned[team], in)
	}

	tl.applyAdjustments(adjustments)
	return tl
}

func anchorTime(first time.Time, daysBefore int) time.Time {
	if first.IsZero() {
		return first
	}
	return first.AddDate(0, 0, -daysBefore)
}

func (tl *Timeline) addSlot(s Slot) int {
	s.Index = len(tl.Slots)
	tl.Slots = append(tl.Slots, s)
	return s.Index
}

// dayOf returns the corrected day key, the day's midnight and the in-day sort offset.
// Matches between 00:00 and 02:00 count for the previous day and sort after 23:59.
func dayOf(m match.Match) (string, time.Time, time.Duration) {
	if !m.DayKnown {
		return UnknownDayKey, time.Time{}, 0
	}
	start := time.Date(m.Time.Year(), m.Time.Month(), m.Time.Day(), 0, 0, 0, 0, m.Time.Location())
	offset := m.Time.Sub(start)
	if m.HasTime && offset < midnightCutoff {
		start = start.AddDate(0, 0, -1)
		offset += 24 * time.Hour
	}
	return start.Format(dayFormat), start, offset
}

// roundKey is the visual block a playoff round occupies; final and third place share one.
func roundKey(r match.Round) string {
	if r.Tag == match.TagThirdPlace || r.Tag == match.TagFinal {
		return string(match.TagFinal)
	}
	return r.String()
}

func groupDays(matches []match.Match) []*day {
	byKey := make(map[string]*day)
	for _, m := range matches {
		key, start, _ := dayOf(m)
		d, ok := byKey[key]
		if !ok {
			d = &day{key: key, start: start, known: key != UnknownDayKey, perTeam: map[string]int{}, rounds: map[string]bool{}}
			byKey[key] = d
		}
		if m.Round.IsRegular() {
			d.perTeam[m.Home]++
			if m.Away != "" {
				d.perTeam[m.Away]++
			}
		} else {
			d.rounds[roundKey(m.Round)] = true
		}
	}

	days := make([]*day, 0, len(byKey))
	for _, d := range byKey {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].known != days[j].known {
			return days[i].known
		}
		return days[i].start.Before(days[j].start)
	})
	return days
}

// assignSlots maps each team's i-th match of a day onto the day's i-th slot.
// Matches beyond the day's allocation pile onto its last slot.
func assignSlots(teams []string, matches []match.Match, days map[string]*day) map[string]map[int][]match.Match {
	type timed struct {
		m      match.Match
		offset time.Duration
	}
	perTeamDay := make(map[string]map[string][]timed)
	for _, m := range matches {
		key, _, offset := dayOf(m)
		for _, team := range []string{m.Home, m.Away} {
			if team == "" {
				continue
			}
			if perTeamDay[team] == nil {
				perTeamDay[team] = make(map[string][]timed)
			}
			perTeamDay[team][key] = append(perTeamDay[team][key], timed{m: m, offset: offset})
		}
	}

	assigned := make(map[string]map[int][]match.Match, len(teams))
	for team, byDay := range perTeamDay {
		slots := make(map[int][]match.Match)
		for key, list := range byDay {
			sort.SliceStable(list, func(i, j int) bool {
				if list[i].offset != list[j].offset {
					return list[i].offset < list[j].offset
				}
				return list[i].m.Seq < list[j].m.Seq
			})
			allocated := days[key].slots
			for i, t := range list {
				idx := allocated[len(allocated)-1]
				if i < len(allocated) {
					idx = allocated[i]
				}
				slots[idx] = append(slots[idx], t.m)
			}
		}
		assigned[team] = slots
	}
	return assigned
}

func resolveTeam(team string, slots []Slot, matches map[int][]match.Match, in Input) []Sample {
	samples := make([]Sample, len(slots))
	start, hasStart := in.StartRatings[team]

	var last *float64
	var history []string

	for i, slot := range slots {
		s := Sample{Team: team, Slot: i}

		switch slot.Anchor {
		case AnchorPreviousSeason:
			if in.PreviousSeason[team] && hasStart {
				last = ptr(start)
			} else {
				last = nil
			}
			s.Rating = copyPtr(last)
			samples[i] = s
			continue
		case AnchorSeasonStart:
			if hasStart {
				last = ptr(start)
			}
			s.Rating = copyPtr(last)
			samples[i] = s
			continue
		}

		for _, m := range matches[i] {
			rating, delta := m.RatingFor(team)
			switch {
			case rating != nil:
				last = ptr(*rating)
			case delta != nil && last != nil:
				last = ptr(*last + *delta)
			}

			s.Opponent = m.Opponent(team)
			s.Round = m.Round.String()
			s.Result = m.Result(team)
			s.Delta = copyPtr(delta)
			s.Outcome = m.Outcome(team)
			if s.Outcome != "" {
				history = append(history, s.Outcome)
			}
			s.Form = lastN(history, formLength)
		}

		s.Rating = copyPtr(last)
		samples[i] = s
	}
	return samples
}

// applyAdjustments appends one trailing slot when any team carries a non-zero
// inter-group correction. Unaffected teams get a filler sample repeating their value.
func (tl *Timeline) applyAdjustments(adjustments []match.Match) {
	deltas := make(map[string]float64)
	ratings := make(map[string]float64)
	for _, m := range adjustments {
		if m.HomeRating != nil {
			ratings[m.Home] = *m.HomeRating
		}
		if m.HomeDelta != nil {
			deltas[m.Home] += *m.HomeDelta
		}
	}

	needed := false
	for _, d := range deltas {
		if d != 0 {
			needed = true
			break
		}
	}
	if !needed {
		return
	}

	at := time.Time{}
	if n := len(tl.Slots); n > 0 {
		at = tl.Slots[n-1].Time
	}
	idx := tl.addSlot(Slot{Time: at, Anchor: AnchorAdjustment, Label: "Inter-group adjustment"})

	for _, team := range tl.teams {
		series := tl.series[team]
		var last *float64
		if len(series) > 0 {
			last = series[len(series)-1].Rating
		}

		s := Sample{Team: team, Slot: idx}
		d, adjusted := deltas[team]
		switch {
		case adjusted && d != 0:
			s.Round = string(match.TagInterGroup)
			s.Delta = ptr(d)
			if r, ok := ratings[team]; ok {
				s.Rating = ptr(r)
			} else if last != nil {
				s.Rating = ptr(*last + d)
			}
		default:
			s.Rating = copyPtr(last)
			s.Filler = true
		}
		tl.series[team] = append(series, s)
	}
}

func collectTeams(roster []string, matches []match.Match) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, t := range roster {
		if t != "" && !seen[t] {
			seen[t] = true
			teams = append(teams, t)
		}
	}

	var extra []string
	for _, m := range matches {
		for _, t := range []string{m.Home, m.Away} {
			if t != "" && !seen[t] {
				seen[t] = true
				extra = append(extra, t)
			}
		}
	}
	sort.Strings(extra)
	return append(teams, extra...)
}

// Teams returns the teams in the timeline, roster order first.
func (tl *Timeline) Teams() []string {
	return append([]string(nil), tl.teams...)
}

// Series returns the aligned samples for team, or nil for an unknown team.
func (tl *Timeline) Series(team string) []Sample {
	return tl.series[team]
}

// Final returns each team's last non-nil rating.
func (tl *Timeline) Final() map[string]float64 {
	out := make(map[string]float64, len(tl.series))
	for team, series := range tl.series {
		for i := len(series) - 1; i >= 0; i-- {
			if series[i].Rating != nil {
				out[team] = *series[i].Rating
				break
			}
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p)
}

func lastN(s []string, n int) []string {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append([]string(nil), s...)
}
