package match

import (
	"fmt"
	"strconv"
	"strings"
)

// RoundTag identifies a non-numeric round. The zero value marks a regular matchday.
type RoundTag string

const (
	TagNone               RoundTag = ""
	TagQuarterfinal       RoundTag = "QF"
	TagSemifinal          RoundTag = "SF"
	TagThirdPlace         RoundTag = "3P"
	TagFinal              RoundTag = "F"
	TagMaintenancePlayoff RoundTag = "MP"
	TagMaintenanceLeague  RoundTag = "ML"
	TagPromotionPlayoff   RoundTag = "PP"
	TagPromotionLeague    RoundTag = "PL"
	TagInterGroup         RoundTag = "IG"
)

// Round is either a numeric matchday or a tagged playoff/maintenance code.
// Tagged rounds may still carry a number (e.g. the 2nd maintenance-league round).
type Round struct {
	Number int      `json:"number,omitempty"`
	Tag    RoundTag `json:"tag,omitempty"`
}

// aliases maps legacy spellings found in schedules onto the tag vocabulary.
var aliases = map[string]RoundTag{
	"qf":           TagQuarterfinal,
	"e1":           TagQuarterfinal,
	"quartos":      TagQuarterfinal,
	"quarterfinal": TagQuarterfinal,
	"sf":           TagSemifinal,
	"e2":           TagSemifinal,
	"meias":        TagSemifinal,
	"semifinal":    TagSemifinal,
	"3p":           TagThirdPlace,
	"e3l":          TagThirdPlace,
	"3º lugar":     TagThirdPlace,
	"3o lugar":     TagThirdPlace,
	"third-place":  TagThirdPlace,
	"f":            TagFinal,
	"e3":           TagFinal,
	"final":        TagFinal,
	"mp":           TagMaintenancePlayoff,
	"pm":           TagMaintenancePlayoff,
	"ml":           TagMaintenanceLeague,
	"lm":           TagMaintenanceLeague,
	"pp":           TagPromotionPlayoff,
	"pl":           TagPromotionLeague,
	"lp":           TagPromotionLeague,
	"ig":           TagInterGroup,
	"ajuste":       TagInterGroup,
	"inter-group":  TagInterGroup,
}

// ParseRound parses a round label such as "7", "J7", "E1", "QF", "ML2" or "Ajuste".
func ParseRound(label string) (Round, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return Round{}, false
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(s, "j")); err == nil && n > 0 {
		return Round{Number: n}, true
	}

	if tag, ok := aliases[s]; ok {
		return Round{Tag: tag}, true
	}

	// Tag followed by a round number, e.g. "ML2" or "PM 1"
	trimmed := strings.TrimRight(s, "0123456789 ")
	if trimmed != s {
		if tag, ok := aliases[trimmed]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(s[len(trimmed):]))
			if err == nil {
				return Round{Tag: tag, Number: n}, true
			}
		}
	}

	return Round{}, false
}

// IsRegular reports whether the round is a numeric regular-season matchday.
func (r Round) IsRegular() bool {
	return r.Tag == TagNone
}

// IsAdjustment reports whether the round is the inter-group rating correction.
func (r Round) IsAdjustment() bool {
	return r.Tag == TagInterGroup
}

// IsPlayoff reports whether the round belongs to any post-season competition.
func (r Round) IsPlayoff() bool {
	return r.Tag != TagNone && r.Tag != TagInterGroup
}

// IsElimination reports whether the round is part of the main elimination bracket.
func (r Round) IsElimination() bool {
	switch r.Tag {
	case TagQuarterfinal, TagSemifinal, TagThirdPlace, TagFinal:
		return true
	}
	return false
}

func (r Round) String() string {
	if r.Tag == TagNone {
		return strconv.Itoa(r.Number)
	}
	if r.Number > 0 {
		return fmt.Sprintf("%s%d", r.Tag, r.Number)
	}
	return string(r.Tag)
}
