package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

// Gateway is the consumer surface served over HTTP.
type Gateway interface {
	AddToolServer(ctx context.Context, name, url string) (domain.Registration, bool, error)
	RemoveToolServer(ctx context.Context, id string) error
	ReconnectToolServer(ctx context.Context, id string) (bool, error)
	ListToolServers(ctx context.Context) ([]domain.ServerStatus, error)
	ListTools(ctx context.Context) (domain.ToolCatalog, error)
	InvokeTool(ctx context.Context, serverID, toolName string, args map[string]any) (json.RawMessage, error)
	RouteRequest(ctx context.Context, tier, mode string, contextSize int) (domain.RouteDecision, error)
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

type Options struct {
	Logger *zap.Logger
}

type addServerRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type addServerResponse struct {
	Server    domain.Registration `json:"server"`
	Connected bool                `json:"connected"`
}

type listServersResponse struct {
	Servers []domain.ServerStatus `json:"servers"`
}

type reconnectResponse struct {
	Connected bool `json:"connected"`
}

type invokeRequest struct {
	Arguments map[string]any `json:"arguments"`
}

type invokeResponse struct {
	Result json.RawMessage `json:"result"`
}

type routeRequest struct {
	Tier        string `json:"tier" binding:"required"`
	Mode        string `json:"mode" binding:"required"`
	ContextSize int    `json:"contextSize"`
}

type completionRequest struct {
	Tier        string                     `json:"tier" binding:"required"`
	Mode        string                     `json:"mode" binding:"required"`
	ContextSize int                        `json:"contextSize"`
	Messages    []domain.CompletionMessage `json:"messages" binding:"required"`
}

type handlers struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewHandler returns the gin engine serving the /v1 API.
func NewHandler(gateway Gateway, opts Options) http.Handler {
	if gateway == nil {
		panic("httpapi requires a gateway")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("httpapi")
	h := &handlers{gateway: gateway, logger: logger}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(requestMeta(), accessLog(logger), recovery(logger))
	engine.NoRoute(func(c *gin.Context) {
		writeError(c, domain.E(domain.CodeNotFound, "", "no such route", nil))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: errorBody{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"}})
	})

	v1 := engine.Group("/v1")
	v1.POST("/tool-servers", h.addServer)
	v1.GET("/tool-servers", h.listServers)
	v1.DELETE("/tool-servers/:id", h.removeServer)
	v1.POST("/tool-servers/:id/reconnect", h.reconnectServer)
	v1.POST("/tool-servers/:id/tools/:tool", h.invokeTool)
	v1.GET("/tools", h.listTools)
	v1.POST("/route", h.route)
	v1.POST("/completions", h.complete)
	return engine
}

func (h *handlers) addServer(c *gin.Context) {
	var req addServerRequest
	if !bindJSON(c, &req) {
		return
	}
	reg, connected, err := h.gateway.AddToolServer(c.Request.Context(), req.Name, req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addServerResponse{Server: reg, Connected: connected})
}

func (h *handlers) listServers(c *gin.Context) {
	servers, err := h.gateway.ListToolServers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if servers == nil {
		servers = []domain.ServerStatus{}
	}
	c.JSON(http.StatusOK, listServersResponse{Servers: servers})
}

func (h *handlers) removeServer(c *gin.Context) {
	if err := h.gateway.RemoveToolServer(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) reconnectServer(c *gin.Context) {
	connected, err := h.gateway.ReconnectToolServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reconnectResponse{Connected: connected})
}

func (h *handlers) invokeTool(c *gin.Context) {
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, domain.E(domain.CodeInvalidArgument, "decode request", err.Error(), domain.ErrInvalidRequest))
		return
	}
	result, err := h.gateway.InvokeTool(c.Request.Context(), c.Param("id"), c.Param("tool"), req.Arguments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invokeResponse{Result: result})
}

func (h *handlers) listTools(c *gin.Context) {
	catalog, err := h.gateway.ListTools(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if catalog.Fingerprint != "" {
		etag := `"` + catalog.Fingerprint + `"`
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.JSON(http.StatusOK, catalog)
}

func (h *handlers) route(c *gin.Context) {
	var req routeRequest
	if !bindJSON(c, &req) {
		return
	}
	decision, err := h.gateway.RouteRequest(c.Request.Context(), req.Tier, req.Mode, req.ContextSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *handlers) complete(c *gin.Context) {
	var req completionRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.gateway.Complete(c.Request.Context(), domain.CompletionRequest{
		Tier:        domain.Tier(req.Tier),
		Mode:        domain.Mode(req.Mode),
		ContextSize: req.ContextSize,
		Messages:    req.Messages,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(c, domain.E(domain.CodeInvalidArgument, "decode request", msg, domain.ErrInvalidRequest))
		return false
	}
	return true
}
