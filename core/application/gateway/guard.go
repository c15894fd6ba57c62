package gateway

import (
	"strings"

	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// readOnlyPrefixes are the leading keywords accepted for ad-hoc statements.
// The check looks at the start of the statement only; it does not parse SQL
// and will not notice a second statement after a semicolon.
var readOnlyPrefixes = []string{"select", "with", "show", "describe", "desc", "explain"}

// ValidateReadOnly checks that statement starts with a read-only keyword and
// returns it trimmed.
func ValidateReadOnly(statement string) (string, error) {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return "", apperrors.NewAppError(apperrors.ErrCodeEmptyStatement, "SQL statement cannot be empty", nil)
	}

	normalized := strings.ToLower(trimmed)
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return trimmed, nil
		}
	}

	return "", apperrors.NewAppError(apperrors.ErrCodeStatementNotAllowed,
		"only SELECT, WITH, SHOW, DESCRIBE and EXPLAIN statements are allowed", nil)
}
