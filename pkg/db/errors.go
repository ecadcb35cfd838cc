package db

import "strings"

// IsUniqueViolation reports whether err is a Postgres unique violation.
// With a constraint name it only matches that constraint, which lets callers
// distinguish an outbox dedupe collision from a booking reference collision.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraint != "" {
		return strings.Contains(msg, constraint)
	}
	return strings.Contains(msg, "duplicate key value")
}
