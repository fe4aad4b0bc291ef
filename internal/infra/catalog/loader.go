package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

// EnvPrefix is the prefix of environment variables that override config keys.
// AIGATE_HTTP_LISTENADDRESS overrides http.listenAddress.
const EnvPrefix = "AIGATE"

type Loader struct {
	logger *zap.Logger
}

type rawConfig struct {
	Registry      rawRegistryConfig      `mapstructure:"registry"`
	Supervisor    rawSupervisorConfig    `mapstructure:"supervisor"`
	Proxy         rawProxyConfig         `mapstructure:"proxy"`
	Aggregator    rawAggregatorConfig    `mapstructure:"aggregator"`
	Routing       rawRoutingConfig       `mapstructure:"routing"`
	LLM           rawLLMConfig           `mapstructure:"llm"`
	HTTP          rawHTTPConfig          `mapstructure:"http"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Logging       rawLoggingConfig       `mapstructure:"logging"`
}

type rawRegistryConfig struct {
	Path    string `mapstructure:"path"`
	Backend string `mapstructure:"backend"`
}

type rawSupervisorConfig struct {
	ConnectTimeoutSeconds int               `mapstructure:"connectTimeoutSeconds"`
	StartConcurrency      int               `mapstructure:"startConcurrency"`
	Headers               map[string]string `mapstructure:"headers"`
}

type rawProxyConfig struct {
	InvokeTimeoutSeconds int `mapstructure:"invokeTimeoutSeconds"`
}

type rawAggregatorConfig struct {
	ListTimeoutSeconds int `mapstructure:"listTimeoutSeconds"`
}

type rawRoutingConfig struct {
	LargeContextThreshold int               `mapstructure:"largeContextThreshold"`
	MaxAttempts           int               `mapstructure:"maxAttempts"`
	Backends              map[string]string `mapstructure:"backends"`
}

type rawLLMConfig struct {
	BaseURL      string `mapstructure:"baseURL"`
	APIKeyEnvVar string `mapstructure:"apiKeyEnvVar"`
}

type rawHTTPConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

type rawLoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("registry.path", domain.DefaultRegistryPath)
	v.SetDefault("registry.backend", domain.DefaultRegistryBackend)
	v.SetDefault("supervisor.connectTimeoutSeconds", domain.DefaultConnectTimeoutSeconds)
	v.SetDefault("supervisor.startConcurrency", domain.DefaultStartConcurrency)
	v.SetDefault("proxy.invokeTimeoutSeconds", domain.DefaultInvokeTimeoutSeconds)
	v.SetDefault("aggregator.listTimeoutSeconds", domain.DefaultListToolsTimeoutSeconds)
	v.SetDefault("routing.largeContextThreshold", domain.DefaultLargeContextThreshold)
	v.SetDefault("routing.maxAttempts", domain.DefaultMaxAttempts)
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.apiKeyEnvVar", domain.DefaultLLMAPIKeyEnvVar)
	v.SetDefault("http.listenAddress", domain.DefaultHTTPListenAddress)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.healthz", true)
	v.SetDefault("logging.level", domain.DefaultLogLevel)
	v.SetDefault("logging.format", domain.DefaultLogFormat)
	for class, id := range domain.DefaultBackends {
		v.SetDefault("routing.backends."+string(class), id)
	}
}

// Load reads the config file at path, applies defaults and AIGATE_*
// environment overrides, and validates the result. An empty path loads
// defaults and environment only.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	v := newConfigViper()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return domain.Config{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}
		if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
			return domain.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg, errs := normalizeConfig(raw)
	if len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

func normalizeConfig(raw rawConfig) (domain.Config, []string) {
	var errs []string

	backend := strings.ToLower(strings.TrimSpace(raw.Registry.Backend))
	if backend != BackendFile && backend != BackendBolt {
		errs = append(errs, "registry.backend must be file or bolt")
	}
	registryPath := strings.TrimSpace(raw.Registry.Path)
	if registryPath == "" {
		errs = append(errs, "registry.path is required")
	} else if backend == BackendFile {
		if _, err := codecForPath(registryPath); err != nil {
			errs = append(errs, "registry.path: "+err.Error())
		}
	}

	if raw.Supervisor.ConnectTimeoutSeconds <= 0 {
		errs = append(errs, "supervisor.connectTimeoutSeconds must be > 0")
	}
	if raw.Supervisor.StartConcurrency <= 0 {
		errs = append(errs, "supervisor.startConcurrency must be > 0")
	}
	headers, headerErrs := normalizeHeaders(raw.Supervisor.Headers)
	errs = append(errs, headerErrs...)

	if raw.Proxy.InvokeTimeoutSeconds <= 0 {
		errs = append(errs, "proxy.invokeTimeoutSeconds must be > 0")
	}
	if raw.Aggregator.ListTimeoutSeconds <= 0 {
		errs = append(errs, "aggregator.listTimeoutSeconds must be > 0")
	}
	if raw.Routing.LargeContextThreshold <= 0 {
		errs = append(errs, "routing.largeContextThreshold must be > 0")
	}
	if raw.Routing.MaxAttempts <= 0 {
		errs = append(errs, "routing.maxAttempts must be > 0")
	}
	backends, backendErrs := normalizeBackends(raw.Routing.Backends)
	errs = append(errs, backendErrs...)

	if strings.TrimSpace(raw.LLM.APIKeyEnvVar) == "" {
		errs = append(errs, "llm.apiKeyEnvVar is required")
	}

	if err := validateListenAddress(raw.HTTP.ListenAddress); err != nil {
		errs = append(errs, "http.listenAddress "+err.Error())
	}
	if raw.Observability.Metrics || raw.Observability.Healthz {
		if err := validateListenAddress(raw.Observability.ListenAddress); err != nil {
			errs = append(errs, "observability.listenAddress "+err.Error())
		}
	}

	level := strings.ToLower(strings.TrimSpace(raw.Logging.Level))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	format := strings.ToLower(strings.TrimSpace(raw.Logging.Format))
	if format != "json" && format != "console" {
		errs = append(errs, "logging.format must be json or console")
	}

	return domain.Config{
		Registry: domain.RegistryConfig{Path: registryPath, Backend: backend},
		Supervisor: domain.SupervisorConfig{
			ConnectTimeoutSeconds: raw.Supervisor.ConnectTimeoutSeconds,
			StartConcurrency:      raw.Supervisor.StartConcurrency,
			Headers:               headers,
		},
		Proxy:      domain.ProxyConfig{InvokeTimeoutSeconds: raw.Proxy.InvokeTimeoutSeconds},
		Aggregator: domain.AggregatorConfig{ListTimeoutSeconds: raw.Aggregator.ListTimeoutSeconds},
		Routing: domain.RoutingConfig{
			LargeContextThreshold: raw.Routing.LargeContextThreshold,
			MaxAttempts:           raw.Routing.MaxAttempts,
			Backends:              backends,
		},
		LLM: domain.LLMConfig{
			BaseURL:      strings.TrimSpace(raw.LLM.BaseURL),
			APIKeyEnvVar: strings.TrimSpace(raw.LLM.APIKeyEnvVar),
		},
		HTTP: domain.HTTPConfig{ListenAddress: strings.TrimSpace(raw.HTTP.ListenAddress)},
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
			Healthz:       raw.Observability.Healthz,
		},
		Logging: domain.LoggingConfig{Level: level, Format: format},
	}, errs
}

func normalizeBackends(raw map[string]string) (map[domain.CapabilityClass]string, []string) {
	var errs []string
	backends := make(map[domain.CapabilityClass]string, len(domain.CapabilityClasses))
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		class, err := domain.ParseCapabilityClass(key)
		if err != nil {
			errs = append(errs, fmt.Sprintf("routing.backends.%s: unknown capability class", key))
			continue
		}
		backends[class] = strings.TrimSpace(raw[key])
	}
	for _, class := range domain.CapabilityClasses {
		if backends[class] == "" {
			errs = append(errs, fmt.Sprintf("routing.backends.%s is required", class))
		}
	}
	return backends, errs
}

func normalizeHeaders(headers map[string]string) (map[string]string, []string) {
	if len(headers) == 0 {
		return nil, nil
	}
	var errs []string
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(headers))
	for _, key := range keys {
		name := strings.TrimSpace(key)
		value := strings.TrimSpace(headers[key])
		if name == "" {
			errs = append(errs, "supervisor.headers contains empty header name")
			continue
		}
		if isReservedHTTPHeader(name) {
			errs = append(errs, fmt.Sprintf("supervisor.headers.%s is reserved and managed by transport", name))
			continue
		}
		if value == "" {
			errs = append(errs, fmt.Sprintf("supervisor.headers.%s must not be empty", name))
			continue
		}
		normalized[http.CanonicalHeaderKey(name)] = value
	}
	return normalized, errs
}

func isReservedHTTPHeader(header string) bool {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "content-type", "accept", "mcp-protocol-version", "mcp-session-id", "last-event-id",
		"host", "content-length", "transfer-encoding", "connection":
		return true
	default:
		return false
	}
}

func validateListenAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errors.New("is required")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return errors.New("must be host:port")
	}
	return nil
}
