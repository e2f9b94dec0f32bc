package application

import (
	"fmt"
	"strings"

	"semcache/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "contextEntity" -> "context entity")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"category":      "category",
		"contextEntity": "context entity",
		"entities":      "entities",
		"reason":        "reason",
		"limit":         "limit",
		"offset":        "offset",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateRange checks that n lies within [lo, hi]
func ValidateRange(fieldName string, n, lo, hi int) error {
	if n < lo || n > hi {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be between %d and %d, got %d", formatFieldName(fieldName), lo, hi, n),
		}
	}
	return nil
}

// ParseEntities parses each canonical id, reporting the first invalid one
func ParseEntities(fieldName string, raw []string) ([]domain.EntityID, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("at least one of %s is required", formatFieldName(fieldName)),
		}
	}
	ids := make([]domain.EntityID, 0, len(raw))
	for _, s := range raw {
		id, err := domain.ParseEntityID(s)
		if err != nil {
			return nil, &ValidationError{Field: fieldName, Message: err.Error()}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
