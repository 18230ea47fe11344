package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/league-engine-mcp-server/internal/bracket"
	"github.com/sam-maryland/league-engine-mcp-server/internal/engine"
	"github.com/sam-maryland/league-engine-mcp-server/internal/progression"
	"github.com/sam-maryland/league-engine-mcp-server/internal/standings"
	"github.com/sam-maryland/league-engine-mcp-server/internal/timeline"
	"github.com/sirupsen/logrus"
)

// TimelineView is the rating timeline as returned by get_rating_timeline
type TimelineView struct {
	Slots  []timeline.Slot              `json:"slots"`
	Series map[string][]timeline.Sample `json:"series"`
}

// QualifiedView is the qualification plus the placeholder spellings it resolves
type QualifiedView struct {
	*progression.Qualification
	Placeholders map[string]string `json:"placeholders"`
}

// BracketView is the bracket with any placeholders left unresolved
type BracketView struct {
	bracket.Bracket
	Unresolved []string `json:"unresolved,omitempty"`
}

// SeasonHandler handles the season-wide MCP tools
type SeasonHandler struct {
	engine Engine
	logger *logrus.Logger
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(e Engine, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{
		engine: e,
		logger: logger,
	}
}

// fail turns an engine error into a tool error result
func (h *SeasonHandler) fail(tool string, err error) *mcp.CallToolResult {
	return failure(h.logger, tool, err)
}

func failure(logger *logrus.Logger, tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, engine.ErrNotLoaded):
		return errorResult("No season loaded, call load_season first")
	case errors.Is(err, engine.ErrUnknownTeam):
		return errorResult("Team not found in the loaded season")
	}
	logger.WithError(err).WithField("tool", tool).Error("Tool failed")
	return errorResult("Failed to run %s: %s", tool, err.Error())
}

// LoadSeasonTool returns the MCP tool definition for load_season
func (h *SeasonHandler) LoadSeasonTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_season",
		Description: "Load a season and modality, replacing everything currently loaded. Omitted values keep the current selection.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"season":   stringProp("Season in YY_YY form, e.g. 25_26", false),
				"modality": stringProp("Modality directory name, e.g. futsal", false),
			},
		},
	}
}

// HandleLoadSeason handles the load_season tool call
func (h *SeasonHandler) HandleLoadSeason(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling load_season")

	sel, _ := h.engine.Selection()
	if s := stringArg(args, "season"); s != "" {
		sel.Season = s
	}
	if m := stringArg(args, "modality"); m != "" {
		sel.Modality = m
	}
	if sel.Season == "" || sel.Modality == "" {
		return nil, fmt.Errorf("season and modality are required when nothing is loaded")
	}

	if err := h.engine.Load(ctx, sel); err != nil {
		return errorResult("Failed to load %s: %s", sel, err.Error()), nil
	}

	info, err := h.engine.Info()
	if err != nil {
		return h.fail("load_season", err), nil
	}
	return success(h.engine, info, fmt.Sprintf("Loaded %s: %d teams, %d matches (%d rows skipped), %s",
		info.Selection, info.Teams, info.Matches, info.RejectedRows, info.Structure)), nil
}

// GetRatingTimelineTool returns the MCP tool definition for get_rating_timeline
func (h *SeasonHandler) GetRatingTimelineTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_rating_timeline",
		Description: "Get the aligned rating timeline: one shared slot axis and one rating sample per team per slot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"team": stringProp("Only return this team's series", false),
				"last": map[string]interface{}{
					"type":        "number",
					"description": "Only return the last N slots",
					"required":    false,
				},
			},
		},
	}
}

// HandleGetRatingTimeline handles the get_rating_timeline tool call
func (h *SeasonHandler) HandleGetRatingTimeline(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_rating_timeline")

	tl, err := h.engine.Timeline()
	if err != nil {
		return h.fail("get_rating_timeline", err), nil
	}

	teams := tl.Teams()
	if team := stringArg(args, "team"); team != "" {
		if tl.Series(team) == nil {
			return errorResult("Team %q has no rating timeline", team), nil
		}
		teams = []string{team}
	}

	from := 0
	if last := intArg(args, "last", 0); last > 0 && last < len(tl.Slots) {
		from = len(tl.Slots) - last
	}

	view := TimelineView{
		Slots:  tl.Slots[from:],
		Series: make(map[string][]timeline.Sample, len(teams)),
	}
	for _, team := range teams {
		view.Series[team] = tl.Series(team)[from:]
	}

	return success(h.engine, view, fmt.Sprintf("%d slots for %d teams", len(view.Slots), len(view.Series))), nil
}

// GetLeagueStructureTool returns the MCP tool definition for get_league_structure
func (h *SeasonHandler) GetLeagueStructureTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_league_structure",
		Description: "Get the competition structure (single league, groups, divisions, divisions with groups) and the progression rules in force",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleGetLeagueStructure handles the get_league_structure tool call
func (h *SeasonHandler) HandleGetLeagueStructure(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_league_structure")

	info, err := h.engine.Info()
	if err != nil {
		return h.fail("get_league_structure", err), nil
	}
	structure, err := h.engine.Structure()
	if err != nil {
		return h.fail("get_league_structure", err), nil
	}

	data := map[string]interface{}{
		"structure": structure,
		"rules":     info.Rules,
	}
	summary := string(structure.Kind)
	if len(structure.Divisions) > 0 {
		summary += fmt.Sprintf(", %d divisions", len(structure.Divisions))
	}
	if len(structure.Groups) > 0 {
		summary += fmt.Sprintf(", groups %s", strings.Join(structure.Groups, "/"))
	}
	return success(h.engine, data, summary), nil
}

// GetStandingsTool returns the MCP tool definition for get_standings
func (h *SeasonHandler) GetStandingsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_standings",
		Description: "Get standings tables with each row's progression result (playoffs, promotion, maintenance, relegation or safe)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table": stringProp("Only return this table, e.g. '1ª Divisão' or '2ª Divisão - Grupo A'", false),
			},
		},
	}
}

// HandleGetStandings handles the get_standings tool call
func (h *SeasonHandler) HandleGetStandings(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_standings")

	views, err := h.engine.StandingsWithProgression()
	if err != nil {
		return h.fail("get_standings", err), nil
	}

	if label := stringArg(args, "table"); label != "" {
		key, ok := standings.ParseKey(label)
		if !ok {
			return errorResult("Unrecognised table %q", label), nil
		}
		var filtered []engine.TableView
		for _, v := range views {
			if v.Key == key {
				filtered = append(filtered, v)
			}
		}
		if len(filtered) == 0 {
			return errorResult("No standings for table %q", key), nil
		}
		views = filtered
	}

	rows := 0
	for _, v := range views {
		rows += len(v.Rows)
	}
	return success(h.engine, views, fmt.Sprintf("%d tables, %d teams", len(views), rows)), nil
}

// GetProgressionTool returns the MCP tool definition for get_progression
func (h *SeasonHandler) GetProgressionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_progression",
		Description: "Get what a team's current table position leads to",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"team": stringProp("Team name", true),
			},
		},
	}
}

// HandleGetProgression handles the get_progression tool call
func (h *SeasonHandler) HandleGetProgression(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_progression")

	team := stringArg(args, "team")
	if team == "" {
		return nil, fmt.Errorf("team is required and must be a string")
	}

	p, err := h.engine.Progression(team)
	if err != nil {
		return h.fail("get_progression", err), nil
	}
	return success(h.engine, p, fmt.Sprintf("%s is %d/%d in %s: %s", p.Team, p.Position, p.Total, p.Table, p.Result.Description)), nil
}

// GetQualifiedTeamsTool returns the MCP tool definition for get_qualified_teams
func (h *SeasonHandler) GetQualifiedTeamsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_qualified_teams",
		Description: "Get the teams currently qualified for the playoffs, maintenance and promotion, with the legend of nominal and actual positions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleGetQualifiedTeams handles the get_qualified_teams tool call
func (h *SeasonHandler) HandleGetQualifiedTeams(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_qualified_teams")

	q, err := h.engine.Qualified()
	if err != nil {
		return h.fail("get_qualified_teams", err), nil
	}
	tokens, err := h.engine.Placeholders()
	if err != nil {
		return h.fail("get_qualified_teams", err), nil
	}

	return success(h.engine, QualifiedView{Qualification: q, Placeholders: tokens},
		fmt.Sprintf("%d playoff, %d maintenance, %d promotion places", len(q.Playoffs), len(q.Maintenance), len(q.Promotion))), nil
}

// GetBracketTool returns the MCP tool definition for get_bracket
func (h *SeasonHandler) GetBracketTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_bracket",
		Description: "Get the elimination bracket: scheduled matches with placeholders resolved, or a 1v8/4v5/2v7/3v6 prediction from the qualified teams",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleGetBracket handles the get_bracket tool call
func (h *SeasonHandler) HandleGetBracket(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_bracket")

	b, err := h.engine.Bracket()
	if err != nil {
		return h.fail("get_bracket", err), nil
	}

	var summary string
	switch {
	case b.Empty():
		summary = "No bracket: no elimination matches scheduled and not enough qualified teams"
	case b.Predicted:
		summary = fmt.Sprintf("Predicted bracket with %d rounds", len(b.Rounds))
	default:
		summary = fmt.Sprintf("Scheduled bracket with %d rounds", len(b.Rounds))
	}
	return success(h.engine, BracketView{Bracket: b, Unresolved: b.Unresolved()}, summary), nil
}
