package pilot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the run history tools on srv. Publishing is not
// exposed: it drives a logged-in browser and stays a CLI operation.
func (p *Pilot) RegisterMCP(srv *mcp.Server) {
	registerTool(srv, &mcp.Tool{
		Name:        "blogpilot_runs",
		Description: "List recent publish runs, newest first, with their final state.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum number of runs (default 50)"},
		}, nil),
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		runs, err := p.Runs(ctx, req.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": nonNilRuns(runs)}, nil
	})

	registerTool(srv, &mcp.Tool{
		Name:        "blogpilot_run",
		Description: "Get one publish run with the outcome of every step: matched candidate, attempts, warnings.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Run id"},
		}, []string{"id"}),
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			ID string `json:"id"`
		}
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, fmt.Errorf("id is required")
		}
		return p.Run(ctx, req.ID)
	})

	registerTool(srv, &mcp.Tool{
		Name:        "blogpilot_matches",
		Description: "Count which candidate resolved each step across stored runs. A shift away from the first candidate means the page changed.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ json.RawMessage) (any, error) {
		stats, err := p.Matches(ctx)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			stats = []MatchStat{}
		}
		return map[string]any{"matches": stats}, nil
	})

	registerTool(srv, &mcp.Tool{
		Name:        "blogpilot_selectors",
		Description: "Show the configured candidate lists of every target, most preferred first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ json.RawMessage) (any, error) {
		return p.cfg.Selectors, nil
	})
}

type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// registerTool adapts fn to an MCP tool handler: errors become tool errors
// and results are returned as JSON text.
func registerTool(srv *mcp.Server, tool *mcp.Tool, fn toolFunc) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := fn(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func decode(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func nonNilRuns(runs []*Run) []*Run {
	if runs == nil {
		return []*Run{}
	}
	return runs
}
