package progression

import (
	"fmt"

	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
)

// ResultKind is what a table position leads to
type ResultKind string

const (
	Playoffs            ResultKind = "playoffs"
	Promotion           ResultKind = "promotion"
	PromotionPlayoffs   ResultKind = "promotion-playoffs"
	PromotionLeague     ResultKind = "promotion-league"
	Relegation          ResultKind = "relegation"
	MaintenancePlayoffs ResultKind = "maintenance-playoffs"
	MaintenanceLeague   ResultKind = "maintenance-league"
	Safe                ResultKind = "safe"
)

// Result is the progression outcome of one team at one position
type Result struct {
	Kind        ResultKind `json:"kind"`
	Description string     `json:"description"`
}

// Lookup carries everything Decide needs. Qualification may be nil, in which case
// only the positional rules apply.
type Lookup struct {
	Team          string
	Position      int
	Total         int
	Table         standings.TableKey
	Structure     Structure
	Qualification *Qualification
	Rules         config.Rules
}

var categoryResults = map[Category]ResultKind{
	CategoryPlayoff:            Playoffs,
	CategoryMaintenancePlayoff: MaintenancePlayoffs,
	CategoryMaintenanceLeague:  MaintenanceLeague,
	CategoryPromotionPlayoff:   PromotionPlayoffs,
	CategoryPromotionLeague:    PromotionLeague,
}

// Decide maps a team's table position to its progression result
func Decide(l Lookup) Result {
	if l.Position <= 0 || l.Total <= 0 || l.Position > l.Total {
		return safe()
	}

	if l.Rules.IsReserve(l.Team) && !l.Qualification.Contains(l.Team) {
		return Result{Kind: Safe, Description: "Reserve team cannot take a qualification place"}
	}

	if entry, ok := l.Qualification.Entry(l.Team); ok {
		kind := categoryResults[entry.Category]
		r := Result{Kind: kind, Description: describe(kind, l.Table.Division)}
		if entry.Substitute() {
			r.Description = fmt.Sprintf("%s (substitutes position %d)", r.Description, entry.Position)
		}
		return r
	}

	var kind ResultKind
	switch l.Structure.Kind {
	case SingleLeague:
		kind = singleLeague(l)
	case GroupsOnly:
		kind = groupsOnly(l)
	case DivisionsOnly, DivisionsAndGroups:
		kind = divisions(l)
	default:
		kind = Safe
	}

	// Positional playoff places not backed by the qualified list were given to someone else
	if kind == Playoffs && l.Qualification != nil && !l.Qualification.InPlayoffs(l.Team) {
		kind = Safe
	}
	return Result{Kind: kind, Description: describe(kind, l.Table.Division)}
}

func singleLeague(l Lookup) ResultKind {
	if l.Position <= l.Rules.PlayoffSpots {
		return Playoffs
	}
	return Safe
}

func groupsOnly(l Lookup) ResultKind {
	if l.Position <= l.Rules.GroupPlayoffSpots {
		return Playoffs
	}
	return Safe
}

func divisions(l Lookup) ResultKind {
	r := l.Rules
	switch d := l.Table.Division; {
	case d == 1:
		if l.Position <= Division1Spots(l.Structure, r) {
			return Playoffs
		}
		return relegationBand(l)
	case d == 2:
		switch l.Position {
		case 1:
			return Playoffs
		case 2:
			switch r.PromotionMode {
			case config.ModePlayoff:
				return PromotionPlayoffs
			case config.ModeLeague:
				return PromotionLeague
			default:
				return Promotion
			}
		}
		if l.Structure.HasDivision(d + 1) && l.Position > l.Total-r.DirectRelegation {
			return Relegation
		}
		return Safe
	case d >= 3:
		if l.Position <= r.LowerDivisionPromotion {
			return Promotion
		}
		if l.Structure.HasDivision(d + 1) && l.Position > l.Total-r.DirectRelegation {
			return Relegation
		}
		return Safe
	}
	return Safe
}

// relegationBand covers the bottom of division 1: direct relegation, then the
// maintenance places, which relegate outright when no maintenance competition exists.
func relegationBand(l Lookup) ResultKind {
	r := l.Rules
	direct := l.Total - r.DirectRelegation
	if l.Position > direct {
		return Relegation
	}
	if l.Position > direct-r.MaintenanceSpots {
		switch r.MaintenanceMode {
		case config.ModePlayoff:
			return MaintenancePlayoffs
		case config.ModeLeague:
			return MaintenanceLeague
		default:
			return Relegation
		}
	}
	return Safe
}

func describe(kind ResultKind, division int) string {
	switch kind {
	case Playoffs:
		return "Qualifies for the playoffs"
	case Promotion:
		if division > 1 {
			return fmt.Sprintf("Promoted to division %d", division-1)
		}
		return "Promoted"
	case PromotionPlayoffs:
		return "Plays the promotion playoff"
	case PromotionLeague:
		return "Plays the promotion league"
	case Relegation:
		if division > 0 {
			return fmt.Sprintf("Relegated to division %d", division+1)
		}
		return "Relegated"
	case MaintenancePlayoffs:
		return "Plays the maintenance playoff"
	case MaintenanceLeague:
		return "Plays the maintenance league"
	}
	return "No change"
}

func safe() Result {
	return Result{Kind: Safe, Description: describe(Safe, 0)}
}
