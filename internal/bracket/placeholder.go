package bracket

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder stands for "the team that finished Position in Division/Group" before
// qualification is known. Division 0 means no division; an empty Group means no group.
type Placeholder struct {
	Position int    `json:"position"`
	Division int    `json:"division,omitempty"`
	Group    string `json:"group,omitempty"`
}

var placeholderPattern = regexp.MustCompile(
	`(?i)^(\d+)\s*[ºo°]\s*class\.?` +
		`(?:\s+(\d+)\s*[ªa]\s*(?:div\.?|divis[ãa]o)?)?` +
		`(?:\s*(?:gr\.?|grupo)?\s+([a-z0-9]{1,2}))?\s*$`)

// Spellings renders every historical spelling of the placeholder, canonical first
func (p Placeholder) Spellings() []string {
	head := fmt.Sprintf("%dº Class.", p.Position)
	switch {
	case p.Division > 0 && p.Group != "":
		div := fmt.Sprintf("%s %dª", head, p.Division)
		return []string{
			fmt.Sprintf("%s Div. Gr. %s", div, p.Group),
			fmt.Sprintf("%s Gr. %s", div, p.Group),
			fmt.Sprintf("%s Div. %s", div, p.Group),
			fmt.Sprintf("%s %s", div, p.Group),
		}
	case p.Division > 0:
		div := fmt.Sprintf("%s %dª", head, p.Division)
		return []string{div + " Div.", div}
	case p.Group != "":
		return []string{
			fmt.Sprintf("%s Gr. %s", head, p.Group),
			fmt.Sprintf("%s %s", head, p.Group),
		}
	}
	return []string{head}
}

func (p Placeholder) String() string {
	return p.Spellings()[0]
}

// ParsePlaceholder reads any spelling produced by Spellings, tolerating extra
// whitespace, "o" for "º", "a" for "ª" and the long "Divisão"/"Grupo" words.
func ParsePlaceholder(s string) (Placeholder, bool) {
	s = strings.Join(strings.Fields(s), " ")
	m := placeholderPattern.FindStringSubmatch(s)
	if m == nil {
		return Placeholder{}, false
	}

	p := Placeholder{Group: strings.ToUpper(m[3])}
	p.Position, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		p.Division, _ = strconv.Atoi(m[2])
	}
	if p.Position <= 0 {
		return Placeholder{}, false
	}
	return p, true
}

// IsPlaceholder reports whether s is placeholder-shaped
func IsPlaceholder(s string) bool {
	_, ok := ParsePlaceholder(s)
	return ok
}
