package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Maintenance and promotion modes
const (
	ModePlayoff = "playoff"
	ModeLeague  = "league"
	ModeNone    = "none"
)

// Points awarded per result when standings are computed from results
type Points struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

// Rules are the administrative progression rules for one season/modality.
// They change between seasons and modalities for historical reasons, so they live
// in data instead of code.
type Rules struct {
	// Main playoff size
	PlayoffSpots int `json:"playoff_spots"`
	// Qualifiers per group when the league is split only into groups
	GroupPlayoffSpots int `json:"group_playoff_spots"`
	// Fixed division-1 cutoff; 0 derives it from PlayoffSpots minus division-2 qualifiers
	Division1PlayoffCutoff int `json:"division1_playoff_cutoff"`
	MinDivision1Spots      int `json:"min_division1_spots"`

	DirectRelegation int    `json:"direct_relegation"`
	MaintenanceSpots int    `json:"maintenance_spots"`
	MaintenanceMode  string `json:"maintenance_mode"`
	PromotionMode    string `json:"promotion_mode"`

	// Teams promoted from divisions below the second
	LowerDivisionPromotion int `json:"lower_division_promotion"`

	// A reserve team may qualify when its A team sits this deep in division 1
	RelegationDangerZone int    `json:"relegation_danger_zone"`
	ReserveSuffix        string `json:"reserve_suffix"`

	Points Points `json:"points"`
}

// DefaultRules returns the rules used when no rules file overrides them
func DefaultRules() Rules {
	return Rules{
		PlayoffSpots:           8,
		GroupPlayoffSpots:      4,
		MinDivision1Spots:      4,
		DirectRelegation:       2,
		MaintenanceSpots:       1,
		MaintenanceMode:        ModePlayoff,
		PromotionMode:          ModePlayoff,
		LowerDivisionPromotion: 2,
		RelegationDangerZone:   3,
		ReserveSuffix:          " B",
		Points:                 Points{Win: 3, Draw: 1, Loss: 0},
	}
}

// Validate checks that the rules can drive the progression engine
func (r Rules) Validate() error {
	if r.PlayoffSpots <= 0 {
		return fmt.Errorf("playoff_spots must be positive")
	}
	if r.GroupPlayoffSpots <= 0 {
		return fmt.Errorf("group_playoff_spots must be positive")
	}
	if r.Division1PlayoffCutoff < 0 || r.Division1PlayoffCutoff > r.PlayoffSpots {
		return fmt.Errorf("division1_playoff_cutoff must be between 0 and playoff_spots")
	}
	if r.DirectRelegation < 0 || r.MaintenanceSpots < 0 || r.LowerDivisionPromotion < 0 {
		return fmt.Errorf("relegation and promotion counts cannot be negative")
	}
	for name, mode := range map[string]string{"maintenance_mode": r.MaintenanceMode, "promotion_mode": r.PromotionMode} {
		switch mode {
		case ModePlayoff, ModeLeague, ModeNone:
		default:
			return fmt.Errorf("%s %q is not one of playoff, league, none", name, mode)
		}
	}
	if strings.TrimSpace(r.ReserveSuffix) == "" {
		return fmt.Errorf("reserve_suffix cannot be empty")
	}
	return nil
}

// IsReserve reports whether team follows the reserve-team naming convention
func (r Rules) IsReserve(team string) bool {
	return len(team) > len(r.ReserveSuffix) &&
		strings.EqualFold(team[len(team)-len(r.ReserveSuffix):], r.ReserveSuffix)
}

// ATeam returns the primary team of a reserve team, or team itself
func (r Rules) ATeam(team string) string {
	if !r.IsReserve(team) {
		return team
	}
	return strings.TrimSpace(team[:len(team)-len(r.ReserveSuffix)])
}

// RulesConfig is the whole rules file. Overrides are partial: only the fields
// present in an override replace the defaults.
type RulesConfig struct {
	Instructions string                     `json:"_instructions,omitempty"`
	Default      Rules                      `json:"default"`
	Overrides    map[string]json.RawMessage `json:"overrides"`
}

// DefaultRulesConfig returns the configuration used when no rules file is found
func DefaultRulesConfig() *RulesConfig {
	return &RulesConfig{
		Default:   DefaultRules(),
		Overrides: make(map[string]json.RawMessage),
	}
}

// LoadRules loads the rules file at path, or searches configs/ when path is empty
func LoadRules(path string) (*RulesConfig, error) {
	var data []byte
	foundPath := ""

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
		}
		data, foundPath = raw, path
	} else {
		for _, candidate := range []string{
			"configs/rules.json",
			"../configs/rules.json",
			"../../configs/rules.json",
		} {
			if raw, err := os.ReadFile(candidate); err == nil {
				data, foundPath = raw, candidate
				break
			}
		}
	}

	if foundPath == "" {
		return DefaultRulesConfig(), nil
	}

	// Fields missing from the file keep their built-in values
	cfg := DefaultRulesConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rules from %s: %w", foundPath, err)
	}
	if cfg.Overrides == nil {
		cfg.Overrides = make(map[string]json.RawMessage)
	}

	if err := cfg.Default.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default rules in %s: %w", foundPath, err)
	}
	for key := range cfg.Overrides {
		season, modality, _ := strings.Cut(key, "/")
		if _, err := cfg.For(season, modality); err != nil {
			return nil, fmt.Errorf("invalid override %q in %s: %w", key, foundPath, err)
		}
	}

	return cfg, nil
}

// For resolves the rules for a season and modality. Overrides apply from the most
// general to the most specific key: modality, season, then "season/modality".
func (c *RulesConfig) For(season, modality string) (Rules, error) {
	rules := c.Default
	for _, key := range []string{modality, season, season + "/" + modality} {
		raw, ok := c.Overrides[key]
		if !ok || key == "" || key == "/" {
			continue
		}
		if err := json.Unmarshal(raw, &rules); err != nil {
			return Rules{}, fmt.Errorf("failed to apply rules override %q: %w", key, err)
		}
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// MustFor is For falling back to the default rules when an override cannot be applied
func (c *RulesConfig) MustFor(season, modality string) Rules {
	rules, err := c.For(season, modality)
	if err != nil {
		return c.Default
	}
	return rules
}
