package season

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
)

// Team is a roster entry for one season/modality
type Team struct {
	Name     string `json:"name"`
	Division int    `json:"division,omitempty"`
	Group    string `json:"group,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Member returns the team's standings placement
func (t Team) Member() standings.Member {
	return standings.Member{Team: t.Name, Division: t.Division, Group: t.Group}
}

// Selection picks one season and modality
type Selection struct {
	Season   string `json:"season"`
	Modality string `json:"modality"`
}

func (s Selection) String() string {
	return s.Season + "/" + s.Modality
}

// Validate rejects selections that do not name a plain season and modality directory
func (s Selection) Validate() error {
	if !config.ValidSeason(s.Season) {
		return &SourceError{Type: ErrInvalidSelection, Message: fmt.Sprintf("invalid season %q", s.Season)}
	}
	m := s.Modality
	if m == "" || m == "." || m == ".." || filepath.Base(m) != m || strings.ContainsAny(m, `/\`) {
		return &SourceError{Type: ErrInvalidSelection, Message: fmt.Sprintf("invalid modality %q", m)}
	}
	return nil
}

// PreviousSeason returns the season before s, e.g. "24_25" for "25_26"
func PreviousSeason(s string) (string, bool) {
	if !config.ValidSeason(s) {
		return "", false
	}
	start, _ := strconv.Atoi(s[:2])
	end, _ := strconv.Atoi(s[3:])
	if start == 0 || end == 0 {
		return "", false
	}
	return fmt.Sprintf("%02d_%02d", start-1, end-1), true
}

// Error types
const (
	ErrNotFound         = "not_found"
	ErrParse            = "parse_error"
	ErrInvalidSelection = "invalid_selection"
)

// SourceError reports a missing or unreadable data file
type SourceError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func (e *SourceError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a missing-data SourceError
func IsNotFound(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Type == ErrNotFound
}
