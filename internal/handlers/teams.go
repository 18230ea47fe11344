package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/season"
	"github.com/sirupsen/logrus"
)

// TeamEntry is a roster team with its latest rating
type TeamEntry struct {
	season.Team
	Rating  *float64 `json:"rating"`
	Reserve bool     `json:"reserve,omitempty"`
}

// TeamHandler handles team-related MCP tools
type TeamHandler struct {
	engine Engine
	logger *logrus.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(e Engine, logger *logrus.Logger) *TeamHandler {
	return &TeamHandler{
		engine: e,
		logger: logger,
	}
}

// GetTeamsTool returns the MCP tool definition for get_teams
func (h *TeamHandler) GetTeamsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_teams",
		Description: "Get every team in the loaded season with division, group and latest rating",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sort": stringProp("Order by 'name' (default) or 'rating'", false),
			},
		},
	}
}

// HandleGetTeams handles the get_teams tool call
func (h *TeamHandler) HandleGetTeams(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_teams")

	info, err := h.engine.Info()
	if err != nil {
		return failure(h.logger, "get_teams", err), nil
	}
	teams, err := h.engine.Teams()
	if err != nil {
		return failure(h.logger, "get_teams", err), nil
	}
	board, err := h.engine.Leaderboard()
	if err != nil {
		return failure(h.logger, "get_teams", err), nil
	}
	ratings := make(map[string]float64, len(board))
	for _, r := range board {
		ratings[r.Team] = r.Rating
	}

	entries := make([]TeamEntry, len(teams))
	for i, t := range teams {
		entries[i] = TeamEntry{Team: t, Reserve: info.Rules.IsReserve(t.Name)}
		if r, ok := ratings[t.Name]; ok {
			entries[i].Rating = &r
		}
	}

	switch stringArg(args, "sort") {
	case "", "name":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	case "rating":
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].Rating, entries[j].Rating
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return *a > *b
		})
	default:
		return nil, fmt.Errorf("sort must be 'name' or 'rating'")
	}

	return success(h.engine, entries, fmt.Sprintf("%d teams", len(entries))), nil
}

// AnalyzeTeamTool returns the MCP tool definition for analyze_team
func (h *TeamHandler) AnalyzeTeamTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_team",
		Description: "Analyze one team: record, goals, recent form, current/peak/lowest rating, every match and what its table position leads to",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"team": stringProp("Team name", true),
			},
		},
	}
}

// HandleAnalyzeTeam handles the analyze_team tool call
func (h *TeamHandler) HandleAnalyzeTeam(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling analyze_team")

	team := stringArg(args, "team")
	if team == "" {
		return nil, fmt.Errorf("team is required and must be a string")
	}

	p, err := h.engine.TeamProfile(team)
	if err != nil {
		return failure(h.logger, "analyze_team", err), nil
	}

	r := p.Record
	summary := fmt.Sprintf("%s: %dW %dD %dL, goals %d-%d", team, r.Won, r.Drawn, r.Lost, r.GoalsFor, r.GoalsAgainst)
	if p.CurrentRating != nil {
		summary += fmt.Sprintf(", rating %.0f", *p.CurrentRating)
	}
	if p.PeakRating != nil {
		summary += fmt.Sprintf(" (peak %.0f)", *p.PeakRating)
	}
	if len(p.Form) > 0 {
		summary += ", form " + strings.Join(p.Form, "")
	}
	if p.Progression != nil {
		summary += ", " + p.Progression.Result.Description
	}
	return success(h.engine, p, summary), nil
}

// GetSeasonHistoryTool returns the MCP tool definition for get_season_history
func (h *TeamHandler) GetSeasonHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_season_history",
		Description: "Summarize every available season of a modality: teams, matches played, rating leaders and optionally one team's final rating",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"modality": stringProp("Modality, defaults to the loaded one", false),
				"team":     stringProp("Include this team's final rating per season", false),
			},
		},
	}
}

// HandleGetSeasonHistory handles the get_season_history tool call
func (h *TeamHandler) HandleGetSeasonHistory(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_season_history")

	modality := stringArg(args, "modality")
	if modality == "" {
		sel, ok := h.engine.Selection()
		if !ok {
			return nil, fmt.Errorf("modality is required when nothing is loaded")
		}
		modality = sel.Modality
	}

	history, err := h.engine.History(ctx, modality, stringArg(args, "team"))
	if err != nil {
		return failure(h.logger, "get_season_history", err), nil
	}
	if len(history) == 0 {
		return errorResult("No seasons found for %s", modality), nil
	}
	return success(h.engine, history, fmt.Sprintf("%d seasons of %s", len(history), modality)), nil
}
