package mcpcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"aigate/internal/domain"
)

// ToolFromMCP converts an MCP tool to a domain definition.
func ToolFromMCP(tool *mcp.Tool) domain.ToolDefinition {
	if tool == nil {
		return domain.ToolDefinition{}
	}
	return domain.ToolDefinition{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
	}
}

// SchemaFromInput decodes a tool's raw input schema. A nil input yields a nil schema.
func SchemaFromInput(input any) (*jsonschema.Schema, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case *jsonschema.Schema:
		return v, nil
	case jsonschema.Schema:
		return &v, nil
	}

	var raw []byte
	switch v := input.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode input schema: %w", err)
		}
		raw = encoded
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	return &schema, nil
}

// ResultText joins the text content blocks of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// HashToolDescriptors returns a deterministic fingerprint of a catalog snapshot.
func HashToolDescriptors(tools []domain.ToolDescriptor) (string, error) {
	hasher := sha256.New()
	for i, tool := range tools {
		raw, err := json.Marshal(tool)
		if err != nil {
			return "", fmt.Errorf("marshal tool descriptor %d: %w", i, err)
		}
		_, _ = hasher.Write(raw)
		_, _ = hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
