// Package progression classifies the competition and decides what each table
// position leads to: playoffs, promotion, maintenance, relegation or nothing.
package progression

import (
	"sort"

	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
)

// Kind is the competition topology
type Kind string

const (
	SingleLeague       Kind = "single-league"
	GroupsOnly         Kind = "groups-only"
	DivisionsOnly      Kind = "divisions-only"
	DivisionsAndGroups Kind = "divisions-and-groups"
)

// Structure is the topology plus the division and group labels it was derived from
type Structure struct {
	Kind      Kind     `json:"kind"`
	Divisions []int    `json:"divisions,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	// Groups observed inside each division
	DivisionGroups map[int][]string `json:"division_groups,omitempty"`
}

// Analyze classifies the competition from standings table labels. Unrecognised
// labels are ignored; when no label carries a division or group marker the roster's
// own divisions and groups are used instead.
func Analyze(labels []string, roster []standings.Member) Structure {
	keys := make([]standings.TableKey, 0, len(labels))
	for _, label := range labels {
		if key, ok := standings.ParseKey(label); ok {
			keys = append(keys, key)
		}
	}
	return AnalyzeKeys(keys, roster)
}

// AnalyzeKeys is Analyze over already parsed keys
func AnalyzeKeys(keys []standings.TableKey, roster []standings.Member) Structure {
	marked := false
	for _, k := range keys {
		if !k.IsGeneral() {
			marked = true
			break
		}
	}
	if !marked {
		keys = keys[:0:0]
		for _, m := range roster {
			keys = append(keys, standings.TableKey{Division: m.Division, Group: m.Group})
		}
	}

	divisions := make(map[int]bool)
	groups := make(map[string]bool)
	perDivision := make(map[int]map[string]bool)
	for _, k := range keys {
		if k.Division > 0 {
			divisions[k.Division] = true
		}
		if k.Group != "" {
			groups[k.Group] = true
			if perDivision[k.Division] == nil {
				perDivision[k.Division] = make(map[string]bool)
			}
			perDivision[k.Division][k.Group] = true
		}
	}

	s := Structure{}
	for d := range divisions {
		s.Divisions = append(s.Divisions, d)
	}
	sort.Ints(s.Divisions)
	s.Groups = sortedKeys(groups)
	if len(perDivision) > 0 {
		s.DivisionGroups = make(map[int][]string, len(perDivision))
		for d, g := range perDivision {
			s.DivisionGroups[d] = sortedKeys(g)
		}
	}

	switch {
	case len(s.Divisions) > 0 && len(s.Groups) > 0:
		s.Kind = DivisionsAndGroups
	case len(s.Divisions) > 0:
		s.Kind = DivisionsOnly
	case len(s.Groups) > 0:
		s.Kind = GroupsOnly
	default:
		s.Kind = SingleLeague
	}
	return s
}

// HasDivision reports whether division d exists
func (s Structure) HasDivision(d int) bool {
	for _, v := range s.Divisions {
		if v == d {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
