package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// requireAffected turns a zero-row update or delete into a not-found error,
// so ownership-scoped queries surface as 404s rather than silent no-ops.
func requireAffected(result sql.Result, resource string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s not found", resource)
	}
	return nil
}

func normalizeSkillName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
