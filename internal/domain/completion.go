package domain

// CompletionMessage is one chat turn sent to a backend model.
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest asks the gateway to route and run a chat completion.
// ContextSize <= 0 means the size is estimated from the messages.
type CompletionRequest struct {
	Tier        Tier                `json:"tier"`
	Mode        Mode                `json:"mode"`
	ContextSize int                 `json:"contextSize,omitempty"`
	Messages    []CompletionMessage `json:"messages"`
}

// CompletionResult is the answer from the backend that finally succeeded.
type CompletionResult struct {
	Backend      string          `json:"backend"`
	Class        CapabilityClass `json:"class"`
	Content      string          `json:"content"`
	FinishReason string          `json:"finishReason,omitempty"`
	Attempted    []string        `json:"attempted"`
}
