package server

import (
	"fmt"
	"strings"
)

const (
	maxNameLength       = 20
	maxMessageLength    = 280
	maxReflectionLength = 500
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateMessage(text string) (string, error) {
	return validateText("message", text, maxMessageLength)
}

func validateReflection(text string) (string, error) {
	return validateText("reflection", text, maxReflectionLength)
}

// validateOptionalReflection allows an empty share text; the final
// sharing step carries its meaning in the percentage alone.
func validateOptionalReflection(text string) (string, error) {
	trimmed := normalizeText(text)
	if len(trimmed) > maxReflectionLength {
		return "", fmt.Errorf("reflection must be %d characters or fewer", maxReflectionLength)
	}
	return trimmed, nil
}

func validatePercentage(value int) error {
	if value < 0 || value > 100 {
		return rejectf(codeInvalidPercentage, "percentage %d is out of range", value)
	}
	return nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
