package domain

import "time"

// Config is the resolved application configuration.
type Config struct {
	Registry      RegistryConfig      `json:"registry"`
	Supervisor    SupervisorConfig    `json:"supervisor"`
	Proxy         ProxyConfig         `json:"proxy"`
	Aggregator    AggregatorConfig    `json:"aggregator"`
	Routing       RoutingConfig       `json:"routing"`
	LLM           LLMConfig           `json:"llm"`
	HTTP          HTTPConfig          `json:"http"`
	Observability ObservabilityConfig `json:"observability"`
	Logging       LoggingConfig       `json:"logging"`
}

type RegistryConfig struct {
	Path    string `json:"path"`
	Backend string `json:"backend"`
}

type SupervisorConfig struct {
	ConnectTimeoutSeconds int               `json:"connectTimeoutSeconds"`
	StartConcurrency      int               `json:"startConcurrency"`
	Headers               map[string]string `json:"headers,omitempty"`
}

type ProxyConfig struct {
	InvokeTimeoutSeconds int `json:"invokeTimeoutSeconds"`
}

type AggregatorConfig struct {
	ListTimeoutSeconds int `json:"listTimeoutSeconds"`
}

type RoutingConfig struct {
	LargeContextThreshold int                        `json:"largeContextThreshold"`
	MaxAttempts           int                        `json:"maxAttempts"`
	Backends              map[CapabilityClass]string `json:"backends"`
}

type LLMConfig struct {
	BaseURL      string `json:"baseURL,omitempty"`
	APIKeyEnvVar string `json:"apiKeyEnvVar"`
}

type HTTPConfig struct {
	ListenAddress string `json:"listenAddress"`
}

type ObservabilityConfig struct {
	ListenAddress string `json:"listenAddress"`
	Metrics       bool   `json:"metrics"`
	Healthz       bool   `json:"healthz"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func (c SupervisorConfig) ConnectTimeout() time.Duration {
	return secondsOrDefault(c.ConnectTimeoutSeconds, DefaultConnectTimeoutSeconds)
}

func (c ProxyConfig) InvokeTimeout() time.Duration {
	return secondsOrDefault(c.InvokeTimeoutSeconds, DefaultInvokeTimeoutSeconds)
}

func (c AggregatorConfig) ListTimeout() time.Duration {
	return secondsOrDefault(c.ListTimeoutSeconds, DefaultListToolsTimeoutSeconds)
}

func secondsOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
