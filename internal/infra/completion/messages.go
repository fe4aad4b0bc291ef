package completion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"aigate/internal/domain"
)

func toMessages(msgs []domain.CompletionMessage) ([]*schema.Message, error) {
	if len(msgs) == 0 {
		return nil, domain.E(domain.CodeInvalidArgument, "complete", "at least one message is required", domain.ErrInvalidRequest)
	}
	out := make([]*schema.Message, 0, len(msgs))
	for i, msg := range msgs {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "user":
			out = append(out, schema.UserMessage(msg.Content))
		case "assistant":
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		case "system":
			out = append(out, schema.SystemMessage(msg.Content))
		default:
			return nil, domain.E(domain.CodeInvalidArgument, "complete", fmt.Sprintf("messages[%d]: unsupported role %q", i, msg.Role), domain.ErrInvalidRequest)
		}
	}
	return out, nil
}

// EstimateContextSize approximates the token count of msgs from their
// character count.
func EstimateContextSize(msgs []domain.CompletionMessage) int {
	chars := 0
	for _, msg := range msgs {
		chars += utf8.RuneCountInString(msg.Content)
	}
	return (chars + domain.DefaultCompletionCharsPerTokenHint - 1) / domain.DefaultCompletionCharsPerTokenHint
}
