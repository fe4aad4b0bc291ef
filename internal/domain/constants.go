package domain

const (
	DefaultRegistryPath                = "data/tool-servers.yaml"
	DefaultRegistryBackend             = "file"
	DefaultConnectTimeoutSeconds       = 10
	DefaultStartConcurrency            = 8
	DefaultInvokeTimeoutSeconds        = 60
	DefaultListToolsTimeoutSeconds     = 15
	DefaultLargeContextThreshold       = 100_000
	DefaultMaxAttempts                 = 3
	DefaultHTTPListenAddress           = "127.0.0.1:8787"
	DefaultObservabilityListenAddress  = "127.0.0.1:9090"
	DefaultLLMAPIKeyEnvVar             = "OPENAI_API_KEY"
	DefaultLogLevel                    = "info"
	DefaultLogFormat                   = "json"
	DefaultClientName                  = "aigate"
	DefaultClientVersion               = "0.1.0"
	DefaultStreamableHTTPMaxRetries    = 3
	DefaultShutdownTimeoutSeconds      = 10
	DefaultCompletionCharsPerTokenHint = 4
)

// DefaultBackends maps every capability class to its default backend id.
var DefaultBackends = map[CapabilityClass]string{
	ClassNano:         "gpt-4.1-nano",
	ClassMini:         "gpt-4.1-mini",
	ClassStandard:     "gpt-4.1",
	ClassCoder:        "codex-mini-latest",
	ClassReasoning:    "o4-mini",
	ClassVision:       "gpt-4o",
	ClassLargeContext: "gemini-2.5-pro",
}
