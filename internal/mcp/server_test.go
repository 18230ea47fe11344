package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestDispatch(t *testing.T) {
	calls := 0
	routes := map[string]toolFunc{
		"ok": func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
			calls++
			return &mcp.CallToolResult{}, nil
		},
		"bad_args": func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
			return nil, errors.New("team is required")
		},
	}

	tests := []struct {
		name          string
		tool          string
		expectError   bool
		expectIsError bool
	}{
		{name: "routes known tool", tool: "ok"},
		{name: "passes argument errors through", tool: "bad_args", expectError: true},
		{name: "unknown tool", tool: "get_league_info", expectIsError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			result, err := dispatch(context.Background(), routes, tt.tool, nil, logger)
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
				t.Errorf("Expected IsError %v, got %v", tt.expectIsError, result.IsError)
			}
			if tt.expectIsError && hook.LastEntry().Message != "Unknown tool called" {
				t.Errorf("Expected unknown tool warning, got %q", hook.LastEntry().Message)
			}
		})
	}

	if calls != 1 {
		t.Errorf("Expected one routed call, got %d", calls)
	}
}
