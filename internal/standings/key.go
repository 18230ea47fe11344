package standings

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
)

// GeneralLabel is the key of the single overall table
const GeneralLabel = "geral"

// TableKey identifies one standings table. The zero value is the general table.
type TableKey struct {
	Division int    `json:"division,omitempty"`
	Group    string `json:"group,omitempty"`
}

var groupPattern = regexp.MustCompile(`(?i)(?:^|[\s\-])(?:grupo|group|gr\.?)\s*([a-z0-9]+)\s*$`)

// ParseKey reads a table label such as "geral", "1ª Divisão", "2ª Div.", "Grupo A",
// "Gr. B" or "2ª Divisão - Grupo A".
func ParseKey(label string) (TableKey, bool) {
	s := strings.TrimSpace(label)
	switch strings.ToLower(s) {
	case "", GeneralLabel, "general":
		return TableKey{}, true
	}

	key := TableKey{Division: match.ParseDivision(s)}
	if m := groupPattern.FindStringSubmatch(s); m != nil {
		key.Group = strings.ToUpper(m[1])
	}
	if key.Division == 0 && key.Group == "" {
		return TableKey{}, false
	}
	return key, true
}

// IsGeneral reports whether k is the overall table
func (k TableKey) IsGeneral() bool {
	return k.Division == 0 && k.Group == ""
}

func (k TableKey) String() string {
	switch {
	case k.IsGeneral():
		return GeneralLabel
	case k.Group == "":
		return fmt.Sprintf("%dª Divisão", k.Division)
	case k.Division == 0:
		return "Grupo " + k.Group
	default:
		return fmt.Sprintf("%dª Divisão - Grupo %s", k.Division, k.Group)
	}
}

// MarshalText renders the key as its label so keys can index JSON objects
func (k TableKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a label produced by MarshalText or any accepted spelling
func (k *TableKey) UnmarshalText(b []byte) error {
	parsed, ok := ParseKey(string(b))
	if !ok {
		return fmt.Errorf("unrecognised table key %q", string(b))
	}
	*k = parsed
	return nil
}

// SortKeys orders keys general first, then by division, then by group
func SortKeys(keys []TableKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Division != keys[j].Division {
			return keys[i].Division < keys[j].Division
		}
		return keys[i].Group < keys[j].Group
	})
}
