package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable failure category, independent of the wording of the
// underlying failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindService    Kind = "service"
	KindAuth       Kind = "auth"
	KindQuota      Kind = "quota"
	KindPermission Kind = "permission"
	KindNetwork    Kind = "network"
	KindUnknown    Kind = "unknown"
)

// Error is the only error type that crosses the pipeline boundary.
// Once assigned, the kind is never re-classified downstream.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newValidationError(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

func newServiceError(detail string) *Error {
	return &Error{Kind: KindService, Detail: detail}
}

// classifyRule maps substring markers to a kind. Rules are applied in
// order and the first matching marker wins.
type classifyRule struct {
	kind    Kind
	markers []string
}

var classifyRules = []classifyRule{
	{KindAuth, []string{"API_KEY_INVALID", "API key not valid", "invalid API key", "UNAUTHENTICATED"}},
	{KindQuota, []string{"QUOTA_EXCEEDED", "RESOURCE_EXHAUSTED", "quota"}},
	{KindPermission, []string{"PERMISSION_DENIED", "permission"}},
	{KindNetwork, []string{"connection refused", "connection reset", "no such host", "deadline exceeded", "dial tcp", "timeout", "network"}},
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify maps a raw failure into exactly one Error. Errors that are
// already classified pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	raw := err.Error()
	basis := raw

	// Remote services often embed a structured envelope in the message
	// body. When it parses, match against its code and message instead.
	if env, ok := parseEnvelope(raw); ok {
		basis = fmt.Sprintf("%d: %s", env.Error.Code, env.Error.Message)
	}

	for _, rule := range classifyRules {
		for _, marker := range rule.markers {
			if strings.Contains(basis, marker) {
				return &Error{Kind: rule.kind, Detail: basis}
			}
		}
	}
	return &Error{Kind: KindUnknown, Detail: raw}
}

func parseEnvelope(raw string) (errorEnvelope, bool) {
	var env errorEnvelope
	if json.Unmarshal([]byte(raw), &env) == nil && env.Error.Message != "" {
		return env, true
	}
	// Transport errors prefix the body, e.g. "HTTP 403: {...}".
	if idx := strings.Index(raw, "{"); idx > 0 {
		if json.Unmarshal([]byte(raw[idx:]), &env) == nil && env.Error.Message != "" {
			return env, true
		}
	}
	return env, false
}
