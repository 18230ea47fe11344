package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sam-maryland/league-engine-mcp-server/internal/handlers"
	"github.com/sam-maryland/league-engine-mcp-server/internal/metrics"
	"github.com/sirupsen/logrus"
)

type toolFunc func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// NewLeagueMCPServer registers every league engine tool on a stdio-ready server
func NewLeagueMCPServer(engine handlers.Engine, logger *logrus.Logger) *server.DefaultServer {
	seasonHandler := handlers.NewSeasonHandler(engine, logger)
	teamHandler := handlers.NewTeamHandler(engine, logger)

	s := server.NewDefaultServer("League Engine", "1.0.0")

	if s == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	tools := []mcp.Tool{
		seasonHandler.LoadSeasonTool(),
		seasonHandler.GetRatingTimelineTool(),
		seasonHandler.GetLeagueStructureTool(),
		seasonHandler.GetStandingsTool(),
		seasonHandler.GetProgressionTool(),
		seasonHandler.GetQualifiedTeamsTool(),
		seasonHandler.GetBracketTool(),
		teamHandler.GetTeamsTool(),
		teamHandler.AnalyzeTeamTool(),
		teamHandler.GetSeasonHistoryTool(),
	}

	routes := map[string]toolFunc{
		"load_season":          seasonHandler.HandleLoadSeason,
		"get_rating_timeline":  seasonHandler.HandleGetRatingTimeline,
		"get_league_structure": seasonHandler.HandleGetLeagueStructure,
		"get_standings":        seasonHandler.HandleGetStandings,
		"get_progression":      seasonHandler.HandleGetProgression,
		"get_qualified_teams":  seasonHandler.HandleGetQualifiedTeams,
		"get_bracket":          seasonHandler.HandleGetBracket,
		"get_teams":            teamHandler.HandleGetTeams,
		"analyze_team":         teamHandler.HandleAnalyzeTeam,
		"get_season_history":   teamHandler.HandleGetSeasonHistory,
	}

	s.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		logger.WithField("tools_count", len(tools)).Info("Listing available tools")

		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	s.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		logger.WithFields(logrus.Fields{
			"tool": name,
			"args": arguments,
		}).Info("Tool called")

		return dispatch(ctx, routes, name, arguments, logger)
	})

	logger.Info("All tools registered successfully")
	return s
}

// dispatch routes a call and records its outcome
func dispatch(ctx context.Context, routes map[string]toolFunc, name string, args map[string]interface{}, logger *logrus.Logger) (*mcp.CallToolResult, error) {
	handle, ok := routes[name]
	if !ok {
		logger.WithField("tool", name).Warn("Unknown tool called")
		metrics.RecordToolCall("unknown", 0, true)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Type: "text",
					Text: "Unknown tool: " + name,
				},
			},
			IsError: true,
		}, nil
	}

	start := time.Now()
	result, err := handle(ctx, args)
	metrics.RecordToolCall(name, time.Since(start), err != nil || (result != nil && result.IsError))
	return result, err
}
