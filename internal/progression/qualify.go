package progression

import (
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sirupsen/logrus"
)

// Category is the competition a legend entry qualified for
type Category string

const (
	CategoryPlayoff            Category = "playoff"
	CategoryMaintenancePlayoff Category = "maintenance-playoff"
	CategoryMaintenanceLeague  Category = "maintenance-league"
	CategoryPromotionPlayoff   Category = "promotion-playoff"
	CategoryPromotionLeague    Category = "promotion-league"
)

// LegendEntry records where a qualified team came from. Position is the slot the
// team fills (used for placeholders); ActualPosition is where it really finished.
type LegendEntry struct {
	Team           string   `json:"team"`
	Position       int      `json:"position"`
	ActualPosition int      `json:"actual_position"`
	Division       int      `json:"division,omitempty"`
	Group          string   `json:"group,omitempty"`
	Category       Category `json:"category"`
}

// Substitute reports whether the team fills a slot meant for a higher position
func (e LegendEntry) Substitute() bool {
	return e.ActualPosition != e.Position
}

// Qualification is the result of walking the standings for qualified teams
type Qualification struct {
	Playoffs    []string      `json:"playoffs"`
	Maintenance []string      `json:"maintenance"`
	Promotion   []string      `json:"promotion"`
	Legend      []LegendEntry `json:"legend"`
	Generation  uint64        `json:"generation"`
}

// Entry returns the legend entry for team
func (q *Qualification) Entry(team string) (LegendEntry, bool) {
	if q == nil {
		return LegendEntry{}, false
	}
	for _, e := range q.Legend {
		if e.Team == team {
			return e, true
		}
	}
	return LegendEntry{}, false
}

// InPlayoffs reports whether team is in the main playoff list
func (q *Qualification) InPlayoffs(team string) bool {
	return q != nil && contains(q.Playoffs, team)
}

// Contains reports whether team is in any qualified list
func (q *Qualification) Contains(team string) bool {
	return q != nil && (contains(q.Playoffs, team) || contains(q.Maintenance, team) || contains(q.Promotion, team))
}

func contains(list []string, team string) bool {
	for _, t := range list {
		if t == team {
			return true
		}
	}
	return false
}

// Division1Spots is the number of division-1 playoff places for the structure.
// Division 2 sends one qualifier per group (one when it has no groups), taken from
// the main playoff size but never below the configured floor. A fixed cutoff can
// only narrow the result.
func Division1Spots(s Structure, rules config.Rules) int {
	reduce := 0
	switch s.Kind {
	case DivisionsOnly:
		if s.HasDivision(2) {
			reduce = 1
		}
	case DivisionsAndGroups:
		reduce = len(s.DivisionGroups[2])
		if reduce == 0 && s.HasDivision(2) {
			reduce = 1
		}
	}

	spots := rules.PlayoffSpots - reduce
	if spots < rules.MinDivision1Spots {
		spots = rules.MinDivision1Spots
	}
	if rules.Division1PlayoffCutoff > 0 && rules.Division1PlayoffCutoff < spots {
		spots = rules.Division1PlayoffCutoff
	}
	return spots
}

type qualifier struct {
	st        *standings.Standings
	structure Structure
	rules     config.Rules
	logger    *logrus.Logger
	q         *Qualification
}

// Qualify walks the standings and returns the qualified teams for the structure.
// Reserve teams are skipped unless their A team is in division-1 relegation danger.
func Qualify(st *standings.Standings, structure Structure, rules config.Rules, logger *logrus.Logger) *Qualification {
	qu := &qualifier{
		st:        st,
		structure: structure,
		rules:     rules,
		logger:    logger,
		q: &Qualification{
			Playoffs:    []string{},
			Maintenance: []string{},
			Promotion:   []string{},
			Legend:      []LegendEntry{},
			Generation:  st.Generation(),
		},
	}

	switch structure.Kind {
	case SingleLeague:
		qu.singleLeague()
	case GroupsOnly:
		qu.groupsOnly()
	case DivisionsOnly, DivisionsAndGroups:
		qu.divisions()
	}

	return qu.q
}

func (qu *qualifier) singleLeague() {
	key := standings.TableKey{}
	entries, ok := qu.st.Table(key)
	if !ok {
		keys := qu.st.Keys()
		if len(keys) == 0 {
			return
		}
		key = keys[0]
		entries, _ = qu.st.Table(key)
	}
	for _, e := range qu.eligible(key, entries, qu.rules.PlayoffSpots) {
		qu.add(e, CategoryPlayoff)
	}
}

// groupsOnly interleaves group qualifiers by rank: A1, B1, A2, B2, ...
func (qu *qualifier) groupsOnly() {
	var perGroup [][]LegendEntry
	for _, key := range qu.st.Keys() {
		if key.Group == "" {
			continue
		}
		entries, _ := qu.st.Table(key)
		perGroup = append(perGroup, qu.eligible(key, entries, qu.rules.GroupPlayoffSpots))
	}

	for rank := 0; rank < qu.rules.GroupPlayoffSpots; rank++ {
		for _, group := range perGroup {
			if rank < len(group) {
				qu.add(group[rank], CategoryPlayoff)
			}
		}
	}
}

func (qu *qualifier) divisions() {
	div1Key, div1, hasDiv1 := qu.division1()
	if hasDiv1 {
		spots := Division1Spots(qu.structure, qu.rules)
		for _, e := range qu.eligible(div1Key, div1, spots) {
			qu.add(e, CategoryPlayoff)
		}
		qu.maintenance(div1Key, div1)
	}

	for _, key := range qu.st.Keys() {
		if key.Division != 2 {
			continue
		}
		entries, _ := qu.st.Table(key)
		// Group winner goes to the playoffs, runner-up to promotion
		want := 2
		if qu.rules.PromotionMode == config.ModeNone {
			want = 1
		}
		picked := qu.eligible(key, entries, want)
		if len(picked) > 0 {
			qu.add(picked[0], CategoryPlayoff)
		}
		if len(picked) > 1 {
			switch qu.rules.PromotionMode {
			case config.ModePlayoff:
				qu.add(picked[1], CategoryPromotionPlayoff)
			case config.ModeLeague:
				qu.add(picked[1], CategoryPromotionLeague)
			}
		}
	}
}

func (qu *qualifier) division1() (standings.TableKey, []standings.Entry, bool) {
	for _, key := range qu.st.Keys() {
		if key.Division == 1 {
			entries, _ := qu.st.Table(key)
			return key, entries, true
		}
	}
	return standings.TableKey{}, nil, false
}

func (qu *qualifier) maintenance(key standings.TableKey, entries []standings.Entry) {
	var category Category
	switch qu.rules.MaintenanceMode {
	case config.ModePlayoff:
		category = CategoryMaintenancePlayoff
	case config.ModeLeague:
		category = CategoryMaintenanceLeague
	default:
		return
	}

	total := len(entries)
	last := total - qu.rules.DirectRelegation
	first := last - qu.rules.MaintenanceSpots + 1
	for _, e := range entries {
		if e.Position < first || e.Position > last || e.Position <= 0 || contains(qu.q.Playoffs, e.Team) {
			continue
		}
		qu.add(LegendEntry{
			Team:           e.Team,
			Position:       e.Position,
			ActualPosition: e.Position,
			Division:       key.Division,
			Group:          key.Group,
		}, category)
	}
}

// eligible returns up to n qualifiers from a table in rank order, skipping reserve
// teams whose A team is safe. Nominal positions count the slots being filled.
func (qu *qualifier) eligible(key standings.TableKey, entries []standings.Entry, n int) []LegendEntry {
	var out []LegendEntry
	for _, e := range entries {
		if len(out) == n {
			break
		}
		if qu.rules.IsReserve(e.Team) && !qu.inDanger(qu.rules.ATeam(e.Team)) {
			qu.logger.WithFields(logrus.Fields{
				"team":     e.Team,
				"position": e.Position,
				"table":    key.String(),
			}).Debug("Skipping reserve team")
			continue
		}
		out = append(out, LegendEntry{
			Team:           e.Team,
			Position:       len(out) + 1,
			ActualPosition: e.Position,
			Division:       key.Division,
			Group:          key.Group,
		})
	}

	if len(out) < n {
		qu.logger.WithFields(logrus.Fields{
			"table":     key.String(),
			"qualified": len(out),
			"slots":     n,
		}).Warn("Fewer teams qualified than available slots")
	}
	return out
}

// inDanger reports whether team sits in the bottom relegation zone of division 1
func (qu *qualifier) inDanger(team string) bool {
	_, entries, ok := qu.division1()
	if !ok {
		return false
	}
	zone := len(entries) - qu.rules.RelegationDangerZone
	for _, e := range entries {
		if e.Team == team {
			return e.Position > zone
		}
	}
	return false
}

func (qu *qualifier) add(e LegendEntry, category Category) {
	e.Category = category
	switch category {
	case CategoryPlayoff:
		// The playoff cap wins over every per-table allocation
		if len(qu.q.Playoffs) >= qu.rules.PlayoffSpots {
			qu.logger.WithFields(logrus.Fields{
				"team":  e.Team,
				"table": standings.TableKey{Division: e.Division, Group: e.Group}.String(),
				"cap":   qu.rules.PlayoffSpots,
			}).Warn("Playoff places full, qualifier left out")
			return
		}
		qu.q.Playoffs = append(qu.q.Playoffs, e.Team)
	case CategoryMaintenancePlayoff, CategoryMaintenanceLeague:
		qu.q.Maintenance = append(qu.q.Maintenance, e.Team)
	case CategoryPromotionPlayoff, CategoryPromotionLeague:
		qu.q.Promotion = append(qu.q.Promotion, e.Team)
	}
	qu.q.Legend = append(qu.q.Legend, e)
}
