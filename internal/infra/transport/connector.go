package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

// Kind names the MCP client transport used for a tool server.
type Kind string

const (
	KindStreamableHTTP Kind = "streamable_http"
	KindSSE            Kind = "sse"
)

type ConnectorOptions struct {
	Logger *zap.Logger
	// Headers are sent with every request to every tool server.
	Headers    map[string]string
	MaxRetries int
	// BaseTransport defaults to http.DefaultTransport.
	BaseTransport http.RoundTripper
}

// Connector dials remote tool servers with the MCP go-sdk client.
type Connector struct {
	logger     *zap.Logger
	client     *mcp.Client
	httpClient *http.Client
	maxRetries int
}

func NewConnector(opts ConnectorOptions) (*Connector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rt, err := buildHeaderTransport(opts.BaseTransport, opts.Headers)
	if err != nil {
		return nil, err
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = domain.DefaultStreamableHTTPMaxRetries
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    domain.DefaultClientName,
		Version: domain.DefaultClientVersion,
	}, nil)
	return &Connector{
		logger:     logger.Named("transport"),
		client:     client,
		httpClient: &http.Client{Transport: rt},
		maxRetries: maxRetries,
	}, nil
}

// KindFor picks the transport for a server URL. Endpoints whose path ends in
// /sse use the legacy SSE transport.
func KindFor(rawURL string) Kind {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return KindStreamableHTTP
	}
	if strings.HasSuffix(strings.TrimRight(parsed.Path, "/"), "/sse") {
		return KindSSE
	}
	return KindStreamableHTTP
}

// Connect opens and initializes a session with the tool server at reg.URL.
// ctx bounds opening the connection and the initialize handshake; the
// session outlives it and stays up until Close.
func (c *Connector) Connect(ctx context.Context, reg domain.Registration) (domain.Session, error) {
	endpoint := strings.TrimSpace(reg.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("server %s: endpoint is required", reg.ID)
	}

	kind := KindFor(endpoint)
	var transport mcp.Transport
	switch kind {
	case KindSSE:
		transport = &streamOwningTransport{inner: &mcp.SSEClientTransport{
			Endpoint:   endpoint,
			HTTPClient: c.httpClient,
		}}
	default:
		transport = &mcp.StreamableClientTransport{
			Endpoint:   endpoint,
			HTTPClient: c.httpClient,
			MaxRetries: c.maxRetries,
		}
	}

	cs, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", kind, err)
	}
	c.logger.Debug("session established",
		zap.String("serverID", reg.ID),
		zap.String("serverName", reg.Name),
		zap.String("transport", string(kind)),
	)
	return &session{cs: cs}, nil
}

var _ domain.Connector = (*Connector)(nil)

func buildHeaderTransport(base http.RoundTripper, extra map[string]string) (http.RoundTripper, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	if len(extra) == 0 {
		return base, nil
	}
	headers := http.Header{}
	for key, value := range extra {
		name := http.CanonicalHeaderKey(strings.TrimSpace(key))
		if name == "" {
			return nil, errors.New("http headers contain empty key")
		}
		headers.Set(name, value)
	}
	return &headerRoundTripper{base: base, headers: headers}, nil
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, values := range h.headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return h.base.RoundTrip(req)
}
