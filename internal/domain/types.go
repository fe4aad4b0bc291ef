package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Registration is a persisted tool-server entry.
// Registrations are created by the registry store and never updated in place.
type Registration struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Name    string `json:"name" yaml:"name" toml:"name"`
	URL     string `json:"url" yaml:"url" toml:"url"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// RegistrationInput is the caller-supplied part of a new registration.
type RegistrationInput struct {
	Name string `validate:"required,max=128"`
	URL  string `validate:"required,url"`
}

// RegistryStore persists the full set of tool-server registrations.
type RegistryStore interface {
	Load() ([]Registration, error)
	Save(regs []Registration) error
	Add(name, url string) (Registration, error)
	// Remove reports whether a registration with id existed.
	Remove(id string) (bool, error)
	Get(id string) (Registration, bool, error)
	Close() error
}

// ConnectionStatus describes the state of a tool-server connection.
type ConnectionStatus string

const (
	ConnectionConnecting ConnectionStatus = "connecting"
	ConnectionConnected  ConnectionStatus = "connected"
	ConnectionFailed     ConnectionStatus = "failed"
	ConnectionClosed     ConnectionStatus = "closed"
)

// ServerStatus joins a registration with its current connection state.
type ServerStatus struct {
	Registration
	Connected   bool             `json:"connected"`
	Status      ConnectionStatus `json:"status"`
	LastError   string           `json:"lastError,omitempty"`
	ConnectedAt time.Time        `json:"connectedAt,omitempty"`
}

// ToolDefinition is a tool as reported by a single tool server.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema any
}

// ToolDescriptor is a tool in the aggregated catalog, tagged with its owner.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Schema      *jsonschema.Schema `json:"inputSchema,omitempty"`
	ServerID    string             `json:"serverId"`
	ServerName  string             `json:"serverName"`
}

// Session is a live client session with one tool server.
type Session interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// Connector opens sessions to tool servers.
type Connector interface {
	Connect(ctx context.Context, reg Registration) (Session, error)
}

// SessionHandle is a live, successfully connected tool server.
type SessionHandle struct {
	ServerID    string
	ServerName  string
	URL         string
	ConnectedAt time.Time
	Session     Session
}

// HandleSource exposes the live handles held by the connection supervisor.
type HandleSource interface {
	Handle(serverID string) (SessionHandle, bool)
	Handles() []SessionHandle
}

// ToolInvoker proxies a tool call to a live tool server.
type ToolInvoker interface {
	Execute(ctx context.Context, serverID, toolName string, args map[string]any) (json.RawMessage, error)
}

// ToolCatalog is the aggregated tool list with a fingerprint of its content.
type ToolCatalog struct {
	Tools       []ToolDescriptor `json:"tools"`
	Fingerprint string           `json:"fingerprint"`
}
