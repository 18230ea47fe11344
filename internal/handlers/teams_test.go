package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/sam-maryland/league-engine-mcp-server/internal/config"
	"github.com/sam-maryland/league-engine-mcp-server/internal/engine"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sirupsen/logrus/hooks/test"
)

func rosterEngine() *MockEngine {
	return &MockEngine{
		SelectionFunc: loaded,
		InfoFunc: func() (engine.Info, error) {
			return engine.Info{Rules: config.DefaultRules()}, nil
		},
		TeamsFunc: func() ([]season.Team, error) {
			return []season.Team{
				{Name: "Química", Division: 2, Group: "A"},
				{Name: "Física B", Division: 2, Group: "A"},
				{Name: "Física", Division: 1},
				{Name: "Nova"},
			}, nil
		},
		LeaderboardFunc: func() ([]engine.RatedTeam, error) {
			return []engine.RatedTeam{
				{Team: "Física", Rating: 1620},
				{Team: "Química", Rating: 1490},
				{Team: "Física B", Rating: 1450},
			}, nil
		},
	}
}

func TestTeamHandler_HandleGetTeams(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]interface{}
		expectError bool
		expectOrder []string
	}{
		{name: "by name", args: map[string]interface{}{}, expectOrder: []string{"Física", "Física B", "Nova", "Química"}},
		{name: "by rating", args: map[string]interface{}{"sort": "rating"}, expectOrder: []string{"Física", "Química", "Física B", "Nova"}},
		{name: "bad sort", args: map[string]interface{}{"sort": "colour"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			handler := NewTeamHandler(rosterEngine(), logger)

			result, err := handler.HandleGetTeams(context.Background(), tt.args)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			var entries []TeamEntry
			decode(t, result, &entries)
			if len(entries) != len(tt.expectOrder) {
				t.Fatalf("Expected %d teams, got %d", len(tt.expectOrder), len(entries))
			}
			for i, name := range tt.expectOrder {
				if entries[i].Name != name {
					t.Errorf("Position %d: expected %s, got %s", i, name, entries[i].Name)
				}
			}
			for _, e := range entries {
				if e.Reserve != (e.Name == "Física B") {
					t.Errorf("Unexpected reserve flag for %s: %v", e.Name, e.Reserve)
				}
				if e.Name == "Nova" && e.Rating != nil {
					t.Errorf("Expected no rating for Nova, got %v", *e.Rating)
				}
			}
		})
	}
}

func TestTeamHandler_HandleAnalyzeTeam(t *testing.T) {
	current, peak := 1515.0, 1530.0
	profile := engine.TeamProfile{
		Team:          season.Team{Name: "Alfa"},
		Record:        engine.Record{Played: 2, Won: 1, Lost: 1, GoalsFor: 3, GoalsAgainst: 3},
		Form:          []string{"W", "L"},
		CurrentRating: &current,
		PeakRating:    &peak,
		Progression: &engine.TeamProgression{Team: "Alfa", Position: 2, Total: 4,
			Result: progression.Result{Kind: progression.Playoffs, Description: "Qualifies for the playoffs"}},
	}

	tests := []struct {
		name          string
		args          map[string]interface{}
		mockErr       error
		expectError   bool
		expectIsError bool
		expectSummary string
	}{
		{
			name:          "profile",
			args:          map[string]interface{}{"team": "Alfa"},
			expectSummary: "Alfa: 1W 0D 1L, goals 3-3, rating 1515 (peak 1530), form WL, Qualifies for the playoffs",
		},
		{name: "missing team", args: map[string]interface{}{}, expectError: true},
		{name: "unknown team", args: map[string]interface{}{"team": "Omega"}, mockErr: engine.ErrUnknownTeam, expectIsError: true},
		{name: "engine failure", args: map[string]interface{}{"team": "Alfa"}, mockErr: errors.New("boom"), expectIsError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			mock := &MockEngine{
				SelectionFunc: loaded,
				TeamProfileFunc: func(team string) (engine.TeamProfile, error) {
					if tt.mockErr != nil {
						return engine.TeamProfile{}, tt.mockErr
					}
					return profile, nil
				},
			}
			handler := NewTeamHandler(mock, logger)

			result, err := handler.HandleAnalyzeTeam(context.Background(), tt.args)
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
			if tt.expectIsError {
				return
			}
			response := decode(t, result, nil)
			if response.Summary != tt.expectSummary {
				t.Errorf("Expected summary %q, got %q", tt.expectSummary, response.Summary)
			}
		})
	}
}

func TestTeamHandler_HandleGetSeasonHistory(t *testing.T) {
	tests := []struct {
		name           string
		args           map[string]interface{}
		loaded         bool
		history        []engine.SeasonSummary
		expectError    bool
		expectIsError  bool
		expectModality string
	}{
		{
			name:           "defaults to loaded modality",
			args:           map[string]interface{}{"team": "Alfa"},
			loaded:         true,
			history:        []engine.SeasonSummary{{Season: "24_25"}, {Season: "25_26"}},
			expectModality: "futsal",
		},
		{
			name:           "explicit modality",
			args:           map[string]interface{}{"modality": "andebol"},
			history:        []engine.SeasonSummary{{Season: "25_26"}},
			expectModality: "andebol",
		},
		{name: "no modality and nothing loaded", args: map[string]interface{}{}, expectError: true},
		{name: "no seasons", args: map[string]interface{}{"modality": "xadrez"}, expectIsError: true, expectModality: "xadrez"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			var gotModality string
			mock := &MockEngine{
				SelectionFunc: func() (season.Selection, bool) {
					if tt.loaded {
						return loaded()
					}
					return season.Selection{}, false
				},
				HistoryFunc: func(modality, team string) ([]engine.SeasonSummary, error) {
					gotModality = modality
					return tt.history, nil
				},
			}
			handler := NewTeamHandler(mock, logger)

			result, err := handler.HandleGetSeasonHistory(context.Background(), tt.args)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if gotModality != tt.expectModality {
				t.Errorf("Expected modality %s, got %s", tt.expectModality, gotModality)
			}
			if result.IsError != tt.expectIsError {
				t.Fatalf("Expected IsError %v, got %v", tt.expectIsError, result.IsError)
			}
		})
	}
}
