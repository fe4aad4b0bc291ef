package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"aigate/internal/domain"
	"aigate/internal/infra/mcpcodec"
)

type session struct {
	cs *mcp.ClientSession
}

// ListTools returns every tool the server advertises, following pagination.
func (s *session) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	var (
		tools  []domain.ToolDefinition
		cursor string
	)
	for {
		res, err := s.cs.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		for _, tool := range res.Tools {
			if tool == nil {
				continue
			}
			tools = append(tools, mcpcodec.ToolFromMCP(tool))
		}
		if res.NextCursor == "" || res.NextCursor == cursor {
			return tools, nil
		}
		cursor = res.NextCursor
	}
}

// CallTool invokes a tool and returns the raw CallToolResult JSON. A result
// flagged isError is returned as a *domain.RemoteToolError.
func (s *session) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	params := &mcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	}
	res, err := s.cs.CallTool(ctx, params)
	if err != nil {
		return nil, err
	}
	if res.IsError {
		return nil, &domain.RemoteToolError{Message: mcpcodec.ResultText(res)}
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return raw, nil
}

func (s *session) Close() error {
	return s.cs.Close()
}
