package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks malformed intervals, empty durations and bad options.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPlanning marks precondition violations inside the planner.
	ErrPlanning = errors.New("planning inconsistency")
	// ErrExternalTool marks non-zero exits from ffmpeg or ffprobe.
	ErrExternalTool = errors.New("external tool error")
	// ErrResource marks failures creating, locking or cleaning local storage.
	ErrResource      = errors.New("resource error")
	ErrConfiguration = errors.New("configuration error")
	ErrCanceled      = errors.New("canceled")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
