package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"aigate/internal/domain"
)

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateRegistrationInput checks a name/url pair before it is registered.
func ValidateRegistrationInput(input domain.RegistrationInput) error {
	if err := inputValidator.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return domain.E(domain.CodeInvalidArgument, "validate registration", strings.Join(msgs, "; "), domain.ErrInvalidRequest)
		}
		return domain.E(domain.CodeInvalidArgument, "validate registration", err.Error(), domain.ErrInvalidRequest)
	}

	parsed, err := url.Parse(input.URL)
	if err != nil {
		return domain.E(domain.CodeInvalidArgument, "validate registration", fmt.Sprintf("url: %v", err), domain.ErrInvalidRequest)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return domain.E(domain.CodeInvalidArgument, "validate registration", fmt.Sprintf("url scheme %q is not supported", parsed.Scheme), domain.ErrInvalidRequest)
	}
	if parsed.Host == "" {
		return domain.E(domain.CodeInvalidArgument, "validate registration", "url host is required", domain.ErrInvalidRequest)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be an absolute url"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
