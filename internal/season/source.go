// Package season reads season data (rosters, results, ratings, standings) for the engine.
package season

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sirupsen/logrus"
)

// File names inside a season/modality directory
const (
	TeamsFile     = "teams.csv"
	MatchesFile   = "matches.csv"
	RatingsFile   = "ratings.csv"
	StandingsFile = "standings.csv"
	DeltasFile    = "deltas.csv"
)

// Source defines where season data comes from
type Source interface {
	// Discovery
	Seasons(ctx context.Context) ([]string, error)
	Modalities(ctx context.Context, season string) ([]string, error)

	// Required data
	Teams(ctx context.Context, sel Selection) ([]Team, error)
	Matches(ctx context.Context, sel Selection) ([]match.Row, error)

	// Optional data; the boolean is false when the season has none
	StartRatings(ctx context.Context, sel Selection) (map[string]float64, bool, error)
	Standings(ctx context.Context, sel Selection) (map[standings.TableKey][]standings.Entry, bool, error)
	RoundDeltas(ctx context.Context, sel Selection) ([]bracket.RoundDelta, error)
}

// FileSource reads CSV files laid out as <root>/<season>/<modality>/<file>
type FileSource struct {
	root   string
	logger *logrus.Logger
}

// NewFileSource creates a Source over a data directory
func NewFileSource(root string, logger *logrus.Logger) Source {
	return &FileSource{root: root, logger: logger}
}

// Seasons lists the season directories, oldest first
func (s *FileSource) Seasons(ctx context.Context) ([]string, error) {
	return s.listDirs(ctx, s.root, config.ValidSeason)
}

// Modalities lists the modalities recorded for a season
func (s *FileSource) Modalities(ctx context.Context, season string) ([]string, error) {
	if !config.ValidSeason(season) {
		return nil, &SourceError{Type: ErrInvalidSelection, Message: fmt.Sprintf("invalid season %q", season)}
	}
	return s.listDirs(ctx, filepath.Join(s.root, season), func(name string) bool { return !strings.HasPrefix(name, ".") })
}

func (s *FileSource) listDirs(ctx context.Context, dir string, keep func(string) bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceError{Type: ErrNotFound, Message: fmt.Sprintf("directory %s not found", dir), Path: dir}
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Teams reads teams.csv: team, division, group, color
func (s *FileSource) Teams(ctx context.Context, sel Selection) ([]Team, error) {
	t, err := s.read(ctx, sel, TeamsFile, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams for %s: %w", sel, err)
	}

	teams := make([]Team, 0, len(t.rows))
	for _, r := range t.rows {
		name := t.get(r, "team", "name", "equipa")
		if name == "" {
			continue
		}
		teams = append(teams, Team{
			Name:     name,
			Division: match.ParseDivision(t.get(r, "division", "divisao")),
			Group:    strings.ToUpper(t.get(r, "group", "grupo")),
			Color:    t.get(r, "color", "cor"),
		})
	}
	return teams, nil
}

// Matches reads matches.csv as raw rows for the normalizer
func (s *FileSource) Matches(ctx context.Context, sel Selection) ([]match.Row, error) {
	t, err := s.read(ctx, sel, MatchesFile, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches for %s: %w", sel, err)
	}

	rows := make([]match.Row, 0, len(t.rows))
	for _, r := range t.rows {
		rows = append(rows, match.Row{
			Round:      t.get(r, "round", "jornada"),
			Date:       t.get(r, "date", "data"),
			Time:       t.get(r, "time", "hora"),
			Home:       t.get(r, "home", "team1", "equipa1"),
			Away:       t.get(r, "away", "team2", "equipa2"),
			HomeScore:  t.get(r, "home_score", "score1", "golos1"),
			AwayScore:  t.get(r, "away_score", "score2", "golos2"),
			HomeDelta:  t.get(r, "home_delta", "delta1"),
			AwayDelta:  t.get(r, "away_delta", "delta2"),
			HomeRating: t.get(r, "home_rating", "elo1"),
			AwayRating: t.get(r, "away_rating", "elo2"),
			Division:   t.get(r, "division", "divisao"),
			Group:      t.get(r, "group", "grupo"),
		})
	}
	return rows, nil
}

// StartRatings reads ratings.csv: team, rating
func (s *FileSource) StartRatings(ctx context.Context, sel Selection) (map[string]float64, bool, error) {
	t, err := s.read(ctx, sel, RatingsFile, false)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get ratings for %s: %w", sel, err)
	}
	if t == nil {
		return nil, false, nil
	}

	ratings := make(map[string]float64, len(t.rows))
	for i, r := range t.rows {
		team := t.get(r, "team", "equipa")
		value, err := parseNumber(t.get(r, "rating", "elo"))
		if team == "" || err != nil {
			s.logger.WithFields(logrus.Fields{
				"file": RatingsFile,
				"line": i + 2,
			}).Warn("Skipping unusable rating row")
			continue
		}
		ratings[team] = value
	}
	return ratings, true, nil
}

// Standings reads standings.csv: table, position, team and the optional totals
func (s *FileSource) Standings(ctx context.Context, sel Selection) (map[standings.TableKey][]standings.Entry, bool, error) {
	t, err := s.read(ctx, sel, StandingsFile, false)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get standings for %s: %w", sel, err)
	}
	if t == nil {
		return nil, false, nil
	}

	tables := make(map[standings.TableKey][]standings.Entry)
	for i, r := range t.rows {
		key, ok := standings.ParseKey(t.get(r, "table", "tabela"))
		team := t.get(r, "team", "equipa")
		if !ok || team == "" {
			s.logger.WithFields(logrus.Fields{
				"file":  StandingsFile,
				"line":  i + 2,
				"table": t.get(r, "table", "tabela"),
			}).Warn("Skipping unusable standings row")
			continue
		}
		tables[key] = append(tables[key], standings.Entry{
			Position:     atoi(t.get(r, "position", "posicao")),
			Team:         team,
			Played:       atoi(t.get(r, "played", "jogos")),
			Won:          atoi(t.get(r, "won", "v")),
			Drawn:        atoi(t.get(r, "drawn", "e")),
			Lost:         atoi(t.get(r, "lost", "d")),
			GoalsFor:     atoi(t.get(r, "goals_for", "gm")),
			GoalsAgainst: atoi(t.get(r, "goals_against", "gs")),
			Points:       atoi(t.get(r, "points", "pontos")),
		})
	}

	for key, entries := range tables {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
		// Renumber so positions are dense even when the file skips or omits them
		for i := range entries {
			entries[i].Position = i + 1
		}
		tables[key] = entries
	}
	return tables, true, nil
}

// RoundDeltas reads deltas.csv: round, home, away, home_delta, away_delta
func (s *FileSource) RoundDeltas(ctx context.Context, sel Selection) ([]bracket.RoundDelta, error) {
	t, err := s.read(ctx, sel, DeltasFile, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get round deltas for %s: %w", sel, err)
	}
	if t == nil {
		return nil, nil
	}

	var deltas []bracket.RoundDelta
	for _, r := range t.rows {
		round, ok := match.ParseRound(t.get(r, "round", "jornada"))
		if !ok {
			continue
		}
		d := bracket.RoundDelta{
			Round: round,
			Home:  t.get(r, "home", "team1"),
			Away:  t.get(r, "away", "team2"),
		}
		d.HomeDelta, _ = parseNumber(t.get(r, "home_delta", "delta1"))
		d.AwayDelta, _ = parseNumber(t.get(r, "away_delta", "delta2"))
		deltas = append(deltas, d)
	}
	return deltas, nil
}

type csvTable struct {
	columns map[string]int
	rows    [][]string
}

// get returns the first present column among names
func (t *csvTable) get(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := t.columns[n]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// read loads one CSV file. Missing optional files return nil without error.
func (s *FileSource) read(ctx context.Context, sel Selection, name string, required bool) (*csvTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, sel.Season, sel.Modality, name)
	s.logger.WithField("path", path).Debug("Reading season file")

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !required {
				return nil, nil
			}
			return nil, &SourceError{Type: ErrNotFound, Message: fmt.Sprintf("%s not found for %s", name, sel), Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := parseCSV(f)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to parse season file")
		return nil, &SourceError{Type: ErrParse, Message: fmt.Sprintf("failed to parse %s: %v", name, err), Path: path}
	}
	return t, nil
}

// parseCSV reads a header-led CSV, accepting ',' or ';' separators
func parseCSV(r io.Reader) (*csvTable, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	firstLine := string(head)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &csvTable{columns: map[string]int{}}, nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	return &csvTable{columns: columns, rows: records[1:]}, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
