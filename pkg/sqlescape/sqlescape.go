// Package sqlescape helps callers build literal SQL text for this dialect,
// which has no parameter binding. The engine itself never calls this
// package — escaping and quoting a value before it reaches execute() is the
// caller's responsibility, same as it was the original consumer
// application's, not the database's.
package sqlescape

import (
	"fmt"
	"strings"
)

// EscapeString doubles every single quote in value, the escaping convention
// this dialect's string literals recognize.
func EscapeString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// Literal renders value as a SQL literal: NULL for nil, true/false for
// bool, the decimal form for an int64, and a single-quoted, escaped string
// for a string. Any other type is a programmer error.
func Literal(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case string:
		return "'" + EscapeString(v) + "'", nil
	default:
		return "", fmt.Errorf("sqlescape: unsupported literal type %T", value)
	}
}
