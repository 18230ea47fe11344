package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/engine"
	"github.com/sam-maryland/league-engine-mcp-server/internal/match"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sam-maryland/league-engine-mcp-server/internal/timeline"
	"github.com/sirupsen/logrus/hooks/test"
)

// MockEngine is a mock implementation of the Engine interface for testing
type MockEngine struct {
	LoadFunc                     func(sel season.Selection) error
	SelectionFunc                func() (season.Selection, bool)
	InfoFunc                     func() (engine.Info, error)
	TimelineFunc                 func() (*timeline.Timeline, error)
	StructureFunc                func() (progression.Structure, error)
	StandingsWithProgressionFunc func() ([]engine.TableView, error)
	ProgressionFunc              func(team string) (engine.TeamProgression, error)
	QualifiedFunc                func() (*progression.Qualification, error)
	BracketFunc                  func() (bracket.Bracket, error)
	PlaceholdersFunc             func() (map[string]string, error)
	TeamsFunc                    func() ([]season.Team, error)
	TeamProfileFunc              func(team string) (engine.TeamProfile, error)
	LeaderboardFunc              func() ([]engine.RatedTeam, error)
	HistoryFunc                  func(modality, team string) ([]engine.SeasonSummary, error)
}

func (m *MockEngine) Load(ctx context.Context, sel season.Selection) error {
	if m.LoadFunc != nil {
		return m.LoadFunc(sel)
	}
	return errors.New("not implemented")
}

func (m *MockEngine) Selection() (season.Selection, bool) {
	if m.SelectionFunc != nil {
		return m.SelectionFunc()
	}
	return season.Selection{}, false
}

func (m *MockEngine) Info() (engine.Info, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc()
	}
	return engine.Info{}, engine.ErrNotLoaded
}

func (m *MockEngine) Timeline() (*timeline.Timeline, error) {
	if m.TimelineFunc != nil {
		return m.TimelineFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) Structure() (progression.Structure, error) {
	if m.StructureFunc != nil {
		return m.StructureFunc()
	}
	return progression.Structure{}, engine.ErrNotLoaded
}

func (m *MockEngine) StandingsWithProgression() ([]engine.TableView, error) {
	if m.StandingsWithProgressionFunc != nil {
		return m.StandingsWithProgressionFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) Progression(team string) (engine.TeamProgression, error) {
	if m.ProgressionFunc != nil {
		return m.ProgressionFunc(team)
	}
	return engine.TeamProgression{}, engine.ErrNotLoaded
}

func (m *MockEngine) Qualified() (*progression.Qualification, error) {
	if m.QualifiedFunc != nil {
		return m.QualifiedFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) Bracket() (bracket.Bracket, error) {
	if m.BracketFunc != nil {
		return m.BracketFunc()
	}
	return bracket.Bracket{}, engine.ErrNotLoaded
}

func (m *MockEngine) Placeholders() (map[string]string, error) {
	if m.PlaceholdersFunc != nil {
		return m.PlaceholdersFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) Teams() ([]season.Team, error) {
	if m.TeamsFunc != nil {
		return m.TeamsFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) TeamProfile(team string) (engine.TeamProfile, error) {
	if m.TeamProfileFunc != nil {
		return m.TeamProfileFunc(team)
	}
	return engine.TeamProfile{}, engine.ErrNotLoaded
}

func (m *MockEngine) Leaderboard() ([]engine.RatedTeam, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc()
	}
	return nil, engine.ErrNotLoaded
}

func (m *MockEngine) History(ctx context.Context, modality, team string) ([]engine.SeasonSummary, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(modality, team)
	}
	return nil, errors.New("not implemented")
}

func loaded() (season.Selection, bool) {
	return season.Selection{Season: "25_26", Modality: "futsal"}, true
}

// decode unmarshals a successful tool result into an APIResponse
func decode(t *testing.T, result *mcp.CallToolResult, data interface{}) APIResponse {
	t.Helper()
	if result == nil {
		t.Fatal("Expected a result")
	}
	if result.IsError {
		t.Fatalf("Expected success, got error result: %s", resultText(result))
	}
	var response APIResponse
	if data != nil {
		response.Data = data
	}
	if err := json.Unmarshal([]byte(resultText(result)), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

func resultText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if text, ok := result.Content[0].(*mcp.TextContent); ok {
		return text.Text
	}
	return ""
}

func TestSeasonHandler_Tools(t *testing.T) {
	logger, _ := test.NewNullLogger()
	handler := NewSeasonHandler(&MockEngine{}, logger)

	tools := []struct {
		tool     mcp.Tool
		name     string
		required string
	}{
		{handler.LoadSeasonTool(), "load_season", ""},
		{handler.GetRatingTimelineTool(), "get_rating_timeline", ""},
		{handler.GetLeagueStructureTool(), "get_league_structure", ""},
		{handler.GetStandingsTool(), "get_standings", ""},
		{handler.GetProgressionTool(), "get_progression", "team"},
		{handler.GetQualifiedTeamsTool(), "get_qualified_teams", ""},
		{handler.GetBracketTool(), "get_bracket", ""},
	}

	for _, tt := range tools {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.name {
				t.Errorf("Expected tool name '%s', got '%s'", tt.name, tt.tool.Name)
			}
			if tt.tool.Description == "" {
				t.Error("Expected tool description to be set")
			}
			if tt.tool.InputSchema.Type != "object" {
				t.Errorf("Expected input schema type 'object', got '%s'", tt.tool.InputSchema.Type)
			}
			if tt.required == "" {
				return
			}
			prop, ok := tt.tool.InputSchema.Properties[tt.required].(map[string]interface{})
			if !ok {
				t.Fatalf("Expected %s property in input schema", tt.required)
			}
			if prop["required"] != true {
				t.Errorf("Expected %s to be required", tt.required)
			}
		})
	}
}

func TestSeasonHandler_HandleLoadSeason(t *testing.T) {
	tests := []struct {
		name          string
		args          map[string]interface{}
		current       bool
		loadErr       error
		expectError   bool
		expectIsError bool
		expectLoaded  season.Selection
	}{
		{
			name:         "explicit selection",
			args:         map[string]interface{}{"season": "24_25", "modality": "andebol"},
			expectLoaded: season.Selection{Season: "24_25", Modality: "andebol"},
		},
		{
			name:         "keeps current modality",
			args:         map[string]interface{}{"season": "24_25"},
			current:      true,
			expectLoaded: season.Selection{Season: "24_25", Modality: "futsal"},
		},
		{
			name:        "nothing loaded and nothing given",
			args:        map[string]interface{}{},
			expectError: true,
		},
		{
			name:          "load failure",
			args:          map[string]interface{}{"season": "24_25", "modality": "futsal"},
			loadErr:       &season.SourceError{Type: season.ErrNotFound, Message: "missing"},
			expectIsError: true,
			expectLoaded:  season.Selection{Season: "24_25", Modality: "futsal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			var got season.Selection
			mock := &MockEngine{
				SelectionFunc: func() (season.Selection, bool) {
					if tt.current {
						return loaded()
					}
					return season.Selection{}, false
				},
				LoadFunc: func(sel season.Selection) error {
					got = sel
					return tt.loadErr
				},
				InfoFunc: func() (engine.Info, error) {
					return engine.Info{Selection: got, Teams: 4, Matches: 10, Structure: progression.SingleLeague}, nil
				},
			}
			handler := NewSeasonHandler(mock, logger)

			result, err := handler.HandleLoadSeason(context.Background(), tt.args)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expectLoaded {
				t.Errorf("Expected load of %v, got %v", tt.expectLoaded, got)
			}
			if result.IsError != tt.expectIsError {
				t.Errorf("Expected IsError %v, got %v (%s)", tt.expectIsError, result.IsError, resultText(result))
			}
			if !tt.expectIsError {
				response := decode(t, result, nil)
				if !strings.Contains(response.Summary, "4 teams") {
					t.Errorf("Unexpected summary: %s", response.Summary)
				}
			}
		})
	}
}

func TestSeasonHandler_NotLoaded(t *testing.T) {
	logger, _ := test.NewNullLogger()
	handler := NewSeasonHandler(&MockEngine{}, logger)

	calls := map[string]func(context.Context, map[string]interface{}) (*mcp.CallToolResult, error){
		"get_rating_timeline":  handler.HandleGetRatingTimeline,
		"get_league_structure": handler.HandleGetLeagueStructure,
		"get_standings":        handler.HandleGetStandings,
		"get_qualified_teams":  handler.HandleGetQualifiedTeams,
		"get_bracket":          handler.HandleGetBracket,
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			result, err := call(context.Background(), map[string]interface{}{})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected error result")
			}
			if !strings.Contains(resultText(result), "load_season") {
				t.Errorf("Expected hint to call load_season, got %s", resultText(result))
			}
		})
	}
}

func sampleTimeline() *timeline.Timeline {
	rows := []match.Row{
		{Round: "1", Date: "2025-10-01", Time: "20:00", Home: "Alfa", Away: "Beta", HomeScore: "2", AwayScore: "1", HomeDelta: "10", AwayDelta: "-10"},
		{Round: "2", Date: "2025-10-08", Time: "20:00", Home: "Beta", Away: "Alfa", HomeScore: "0", AwayScore: "0", HomeDelta: "1", AwayDelta: "-1"},
	}
	var matches []match.Match
	for _, r := range rows {
		m, _ := match.Normalize(r)
		matches = append(matches, m)
	}
	return timeline.Build(timeline.Input{
		Teams:        []string{"Alfa", "Beta"},
		Matches:      matches,
		StartRatings: map[string]float64{"Alfa": 1500, "Beta": 1500},
	})
}

func TestSeasonHandler_HandleGetRatingTimeline(t *testing.T) {
	tl := sampleTimeline()
	tests := []struct {
		name          string
		args          map[string]interface{}
		expectIsError bool
		expectTeams   int
		expectSlots   int
	}{
		{name: "all teams", args: map[string]interface{}{}, expectTeams: 2, expectSlots: len(tl.Slots)},
		{name: "one team", args: map[string]interface{}{"team": "Alfa"}, expectTeams: 1, expectSlots: len(tl.Slots)},
		{name: "last slots", args: map[string]interface{}{"last": float64(2)}, expectTeams: 2, expectSlots: 2},
		{name: "unknown team", args: map[string]interface{}{"team": "Omega"}, expectIsError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			mock := &MockEngine{
				SelectionFunc: loaded,
				TimelineFunc:  func() (*timeline.Timeline, error) { return tl, nil },
			}
			handler := NewSeasonHandler(mock, logger)

			result, err := handler.HandleGetRatingTimeline(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.expectIsError {
				if !result.IsError {
					t.Error("Expected error result")
				}
				return
			}

			var view TimelineView
			response := decode(t, result, &view)
			if response.Metadata.Season != "25_26" {
				t.Errorf("Expected season metadata 25_26, got %s", response.Metadata.Season)
			}
			if len(view.Series) != tt.expectTeams {
				t.Errorf("Expected %d teams, got %d", tt.expectTeams, len(view.Series))
			}
			if len(view.Slots) != tt.expectSlots {
				t.Errorf("Expected %d slots, got %d", tt.expectSlots, len(view.Slots))
			}
			for team, series := range view.Series {
				if len(series) != len(view.Slots) {
					t.Errorf("Expected %s to have one sample per slot, got %d for %d", team, len(series), len(view.Slots))
				}
			}
		})
	}
}

func TestSeasonHandler_HandleGetLeagueStructure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mock := &MockEngine{
		SelectionFunc: loaded,
		InfoFunc:      func() (engine.Info, error) { return engine.Info{Rules: config.DefaultRules()}, nil },
		StructureFunc: func() (progression.Structure, error) {
			return progression.Structure{Kind: progression.DivisionsAndGroups, Divisions: []int{1, 2}, Groups: []string{"A", "B"}}, nil
		},
	}
	handler := NewSeasonHandler(mock, logger)

	result, err := handler.HandleGetLeagueStructure(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	response := decode(t, result, nil)
	if response.Summary != "divisions-and-groups, 2 divisions, groups A/B" {
		t.Errorf("Unexpected summary: %s", response.Summary)
	}
}

func TestSeasonHandler_HandleGetStandings(t *testing.T) {
	views := []engine.TableView{
		{Key: standings.TableKey{Division: 1}, Label: "1ª Divisão", Rows: []engine.TableRow{
			{Entry: standings.Entry{Position: 1, Team: "Alfa", Points: 9}, Result: progression.Result{Kind: progression.Playoffs}},
			{Entry: standings.Entry{Position: 2, Team: "Beta", Points: 6}, Result: progression.Result{Kind: progression.Relegation}},
		}},
		{Key: standings.TableKey{Division: 2, Group: "A"}, Label: "2ª Divisão - Grupo A", Rows: []engine.TableRow{
			{Entry: standings.Entry{Position: 1, Team: "Gama", Points: 9}, Result: progression.Result{Kind: progression.Promotion}},
		}},
	}

	tests := []struct {
		name          string
		args          map[string]interface{}
		expectIsError bool
		expectTables  int
	}{
		{name: "all tables", args: map[string]interface{}{}, expectTables: 2},
		{name: "one table", args: map[string]interface{}{"table": "2ª Div. Grupo A"}, expectTables: 1},
		{name: "table not present", args: map[string]interface{}{"table": "3ª Divisão"}, expectIsError: true},
		{name: "unparseable table", args: map[string]interface{}{"table": "???"}, expectIsError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			mock := &MockEngine{
				SelectionFunc:                loaded,
				StandingsWithProgressionFunc: func() ([]engine.TableView, error) { return views, nil },
			}
			handler := NewSeasonHandler(mock, logger)

			result, err := handler.HandleGetStandings(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.expectIsError {
				if !result.IsError {
					t.Error("Expected error result")
				}
				return
			}
			var got []engine.TableView
			decode(t, result, &got)
			if len(got) != tt.expectTables {
				t.Errorf("Expected %d tables, got %d", tt.expectTables, len(got))
			}
		})
	}
}

func TestSeasonHandler_HandleGetProgression(t *testing.T) {
	tests := []struct {
		name          string
		args          map[string]interface{}
		mockErr       error
		expectError   bool
		expectIsError bool
	}{
		{name: "known team", args: map[string]interface{}{"team": "Alfa"}},
		{name: "missing team arg", args: map[string]interface{}{}, expectError: true},
		{name: "unknown team", args: map[string]interface{}{"team": "Omega"}, mockErr: engine.ErrUnknownTeam, expectIsError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			mock := &MockEngine{
				SelectionFunc: loaded,
				ProgressionFunc: func(team string) (engine.TeamProgression, error) {
					if tt.mockErr != nil {
						return engine.TeamProgression{}, tt.mockErr
					}
					return engine.TeamProgression{Team: team, Table: "geral", Position: 1, Total: 8,
						Result: progression.Result{Kind: progression.Playoffs, Description: "Qualifies for the playoffs"}}, nil
				},
			}
			handler := NewSeasonHandler(mock, logger)

			result, err := handler.HandleGetProgression(context.Background(), tt.args)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result.IsError != tt.expectIsError {
				t.Fatalf("Expected IsError %v, got %v", tt.expectIsError, result.IsError)
			}
			if !tt.expectIsError {
				response := decode(t, result, nil)
				if response.Summary != "Alfa is 1/8 in geral: Qualifies for the playoffs" {
					t.Errorf("Unexpected summary: %s", response.Summary)
				}
			}
		})
	}
}

func TestSeasonHandler_HandleGetQualifiedTeams(t *testing.T) {
	logger, _ := test.NewNullLogger()
	legend := []progression.LegendEntry{
		{Team: "Alfa", Position: 1, ActualPosition: 1, Division: 1, Category: progression.CategoryPlayoff},
	}
	mock := &MockEngine{
		SelectionFunc: loaded,
		QualifiedFunc: func() (*progression.Qualification, error) {
			return &progression.Qualification{Playoffs: []string{"Alfa"}, Maintenance: []string{}, Promotion: []string{}, Legend: legend}, nil
		},
		PlaceholdersFunc: func() (map[string]string, error) {
			return bracket.NewResolver(legend).Tokens(), nil
		},
	}
	handler := NewSeasonHandler(mock, logger)

	result, err := handler.HandleGetQualifiedTeams(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var view QualifiedView
	response := decode(t, result, &view)
	if response.Summary != "1 playoff, 0 maintenance, 0 promotion places" {
		t.Errorf("Unexpected summary: %s", response.Summary)
	}
	if view.Qualification == nil || len(view.Playoffs) != 1 {
		t.Fatalf("Expected one playoff team, got %+v", view.Qualification)
	}
	if view.Placeholders["1º Class. 1ª Div."] != "Alfa" {
		t.Errorf("Expected placeholder to resolve to Alfa, got %v", view.Placeholders)
	}
}

func TestSeasonHandler_HandleGetBracket(t *testing.T) {
	seeds := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	logger, _ := test.NewNullLogger()

	tests := []struct {
		name          string
		qualified     []string
		expectSummary string
	}{
		{name: "predicted", qualified: seeds, expectSummary: "Predicted bracket with 4 rounds"},
		{name: "empty", qualified: seeds[:3], expectSummary: "No bracket: no elimination matches scheduled and not enough qualified teams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockEngine{
				SelectionFunc: loaded,
				BracketFunc: func() (bracket.Bracket, error) {
					return bracket.Build(bracket.Input{Qualified: tt.qualified}, logger), nil
				},
			}
			handler := NewSeasonHandler(mock, logger)

			result, err := handler.HandleGetBracket(context.Background(), map[string]interface{}{})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			response := decode(t, result, nil)
			if response.Summary != tt.expectSummary {
				t.Errorf("Expected summary %q, got %q", tt.expectSummary, response.Summary)
			}
		})
	}
}
