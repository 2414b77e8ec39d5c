package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks caller mistakes caught before any work starts.
	ErrValidation = errors.New("validation error")
	// ErrParse marks backend output that did not match the expected shape.
	ErrParse = errors.New("parse error")
	// ErrCredential marks authentication failures that require the user to re-authenticate.
	ErrCredential = errors.New("credential error")
	// ErrArtifactMissing marks jobs that finished without producing a result locator.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrTransient marks failures that are safe to retry.
	ErrTransient = errors.New("transient failure")
	// ErrConfiguration marks unusable configuration detected at runtime.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message returns a user-presentable message for an error, with sentinel
// marker prefixes stripped so status updates read cleanly.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrValidation, ErrParse, ErrCredential, ErrArtifactMissing, ErrTransient, ErrConfiguration} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
