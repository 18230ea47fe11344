package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/engine"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sam-maryland/league-engine-mcp-server/internal/timeline"
)

const responseSource = "league_engine"

// Engine is the part of engine.Session the tools need
type Engine interface {
	Load(ctx context.Context, sel season.Selection) error
	Selection() (season.Selection, bool)
	Info() (engine.Info, error)
	Timeline() (*timeline.Timeline, error)
	Structure() (progression.Structure, error)
	StandingsWithProgression() ([]engine.TableView, error)
	Progression(team string) (engine.TeamProgression, error)
	Qualified() (*progression.Qualification, error)
	Bracket() (bracket.Bracket, error)
	Placeholders() (map[string]string, error)
	Teams() ([]season.Team, error)
	TeamProfile(team string) (engine.TeamProfile, error)
	Leaderboard() ([]engine.RatedTeam, error)
	History(ctx context.Context, modality, team string) ([]engine.SeasonSummary, error)
}

// APIResponse represents the standard response format for our tools
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Summary  string      `json:"summary"`
	Error    string      `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Season    string    `json:"season,omitempty"`
	Modality  string    `json:"modality,omitempty"`
}

func metadata(e Engine) Metadata {
	m := Metadata{Timestamp: time.Now(), Source: responseSource}
	if sel, ok := e.Selection(); ok {
		m.Season = sel.Season
		m.Modality = sel.Modality
	}
	return m
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(format string, a ...interface{}) *mcp.CallToolResult {
	r := textResult(fmt.Sprintf(format, a...))
	r.IsError = true
	return r
}

// success wraps data in the response envelope
func success(e Engine, data interface{}, summary string) *mcp.CallToolResult {
	jsonResponse, err := formatJSONResponse(APIResponse{
		Success:  true,
		Data:     data,
		Summary:  summary,
		Metadata: metadata(e),
	})
	if err != nil {
		return errorResult("Error formatting response: %s", err.Error())
	}
	return textResult(jsonResponse)
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]interface{}, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func stringProp(description string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"required":    required,
	}
}
