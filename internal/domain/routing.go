package domain

import (
	"fmt"
	"strings"
)

// Tier is a caller's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierCreator Tier = "creator"
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{TierFree, TierPro, TierCreator}

// Mode is the functional intent of a request.
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeCode     Mode = "code"
	ModeRedesign Mode = "redesign"
	ModeDeepDive Mode = "deep_dive"
	ModeRAG      Mode = "rag"
)

// Modes lists every mode.
var Modes = []Mode{ModeChat, ModeCode, ModeRedesign, ModeDeepDive, ModeRAG}

// CapabilityClass is an abstract tier of backend model.
type CapabilityClass string

const (
	ClassNano         CapabilityClass = "nano"
	ClassMini         CapabilityClass = "mini"
	ClassStandard     CapabilityClass = "standard"
	ClassCoder        CapabilityClass = "coder"
	ClassReasoning    CapabilityClass = "reasoning"
	ClassVision       CapabilityClass = "vision"
	ClassLargeContext CapabilityClass = "large_context"
)

// CapabilityClasses lists every capability class from cheapest to most specialised.
var CapabilityClasses = []CapabilityClass{
	ClassNano,
	ClassMini,
	ClassStandard,
	ClassCoder,
	ClassReasoning,
	ClassVision,
	ClassLargeContext,
}

// RoutingRequest is the input to model selection.
type RoutingRequest struct {
	Tier        Tier `json:"tier"`
	Mode        Mode `json:"mode"`
	ContextSize int  `json:"contextSize"`
}

// Backend is a concrete backend identifier carried with its capability tag.
type Backend struct {
	ID    string          `json:"id"`
	Class CapabilityClass `json:"class"`
}

// RouteDecision is the outcome of routing a request.
// Permitted is false when the tier may not use the requested mode.
type RouteDecision struct {
	Permitted bool            `json:"permitted"`
	Class     CapabilityClass `json:"class,omitempty"`
	Backend   string          `json:"backend,omitempty"`
}

// ParseTier validates a tier name.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(value))) {
	case TierFree:
		return TierFree, nil
	case TierPro:
		return TierPro, nil
	case TierCreator:
		return TierCreator, nil
	default:
		return "", E(CodeInvalidArgument, "parse tier", fmt.Sprintf("unknown tier %q", value), ErrInvalidRequest)
	}
}

// ParseMode validates a mode name. "ui" and "reasoning" are accepted aliases.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "chat":
		return ModeChat, nil
	case "code":
		return ModeCode, nil
	case "redesign", "ui":
		return ModeRedesign, nil
	case "deep_dive", "deep-dive", "reasoning":
		return ModeDeepDive, nil
	case "rag":
		return ModeRAG, nil
	default:
		return "", E(CodeInvalidArgument, "parse mode", fmt.Sprintf("unknown mode %q", value), ErrInvalidRequest)
	}
}

// ParseCapabilityClass validates a capability class name.
func ParseCapabilityClass(value string) (CapabilityClass, error) {
	trimmed := CapabilityClass(strings.ToLower(strings.TrimSpace(value)))
	for _, class := range CapabilityClasses {
		if class == trimmed {
			return class, nil
		}
	}
	return "", E(CodeInvalidArgument, "parse class", fmt.Sprintf("unknown capability class %q", value), ErrInvalidRequest)
}

// NewRoutingRequest parses raw tier and mode strings into a routing request.
func NewRoutingRequest(tier, mode string, contextSize int) (RoutingRequest, error) {
	parsedTier, err := ParseTier(tier)
	if err != nil {
		return RoutingRequest{}, err
	}
	parsedMode, err := ParseMode(mode)
	if err != nil {
		return RoutingRequest{}, err
	}
	if contextSize < 0 {
		return RoutingRequest{}, E(CodeInvalidArgument, "routing request", "contextSize must be >= 0", ErrInvalidRequest)
	}
	return RoutingRequest{Tier: parsedTier, Mode: parsedMode, ContextSize: contextSize}, nil
}
