package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a failed Gateway request.
type ErrorKind int

const (
	// KindNetwork covers transport failures, server errors and responses
	// without a structured payload.
	KindNetwork ErrorKind = iota

	// KindValidation is a 4xx response carrying a field -> message mapping.
	KindValidation

	// KindNotFound is a 404 response.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	default:
		return "network"
	}
}

// GatewayError is returned by every Client method when a request fails.
type GatewayError struct {
	Kind   ErrorKind
	Status int
	// Fields holds the per-field messages of a KindValidation error.
	Fields map[string][]string
	Err    error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case KindValidation:
		return "gateway validation error: " + e.FormatValidation("")
	case KindNotFound:
		return fmt.Sprintf("gateway: not found (%d)", e.Status)
	}
	if e.Err != nil {
		return "gateway: " + e.Err.Error()
	}
	return fmt.Sprintf("gateway: status %d", e.Status)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// FormatValidation flattens the field messages into one notification line,
// "<prefix> field: msg \n other: msg". Fields are sorted by name.
func (e *GatewayError) FormatValidation(prefix string) string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ",")))
	}
	msg := strings.Join(parts, " \n ")
	if prefix == "" {
		return msg
	}
	return prefix + " " + msg
}

// AsGatewayError extracts a *GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a Gateway validation error.
func IsValidation(err error) bool {
	gwErr, ok := AsGatewayError(err)
	return ok && gwErr.Kind == KindValidation
}

// IsNotFound reports whether err is a Gateway 404.
func IsNotFound(err error) bool {
	gwErr, ok := AsGatewayError(err)
	return ok && gwErr.Kind == KindNotFound
}

// validationFields normalizes a decoded error body. Values may be a single
// message, a list of messages or a nested object; anything else is rendered
// with fmt.
func validationFields(body map[string]any) map[string][]string {
	out := make(map[string][]string, len(body))
	for k, v := range body {
		switch msg := v.(type) {
		case string:
			out[k] = []string{msg}
		case []any:
			msgs := make([]string, 0, len(msg))
			for _, m := range msg {
				msgs = append(msgs, fmt.Sprint(m))
			}
			out[k] = msgs
		default:
			out[k] = []string{fmt.Sprint(msg)}
		}
	}
	return out
}
