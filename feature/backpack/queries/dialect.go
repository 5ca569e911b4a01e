package queries

import (
	"fmt"
	"strings"
)

// Dialect describes the statement-shape variants and quoting rules of one
// SQL backend. It is a pure value; the builder injects it instead of
// subclassing per backend.
type Dialect struct {
	name string

	// quoteChar wraps identifiers; occurrences inside an identifier are
	// escaped by doubling.
	quoteChar string

	// nowExpr is the expression yielding the current timestamp.
	nowExpr string

	// insertIgnore is the verb for "insert unless the key exists".
	insertIgnore string

	// insertReplace is the verb for "insert or replace the whole row".
	insertReplace string

	// upsertNameByUUID renders the tail of the identity upsert that updates
	// the display name when the unique id already exists. It receives the
	// quoted name and uuid columns and must also report how the bind
	// parameters are ordered (see upsertArgOrder).
	upsertNameByUUID func(nameCol, uuidCol string) string

	// upsertRepeatsName is true when the upsert tail binds the display name
	// a second time (MySQL's ON DUPLICATE KEY UPDATE name=?).
	upsertRepeatsName bool

	// olderThanDays renders a predicate matching rows whose column is
	// strictly older than the given day count.
	olderThanDays func(col string, days int) string
}

// MySQL is the dialect for MySQL / MariaDB backends.
var MySQL = Dialect{
	name:          "mysql",
	quoteChar:     "`",
	nowExpr:       "NOW()",
	insertIgnore:  "INSERT IGNORE INTO",
	insertReplace: "REPLACE INTO",
	upsertNameByUUID: func(nameCol, _ string) string {
		return fmt.Sprintf(" ON DUPLICATE KEY UPDATE %s=?", nameCol)
	},
	upsertRepeatsName: true,
	olderThanDays: func(col string, days int) string {
		return fmt.Sprintf("%s < DATE_SUB(NOW(), INTERVAL %d DAY)", col, days)
	},
}

// SQLite is the dialect for SQLite backends.
var SQLite = Dialect{
	name:          "sqlite",
	quoteChar:     `"`,
	nowExpr:       "DATETIME('now')",
	insertIgnore:  "INSERT OR IGNORE INTO",
	insertReplace: "INSERT OR REPLACE INTO",
	upsertNameByUUID: func(nameCol, uuidCol string) string {
		return fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET %s=excluded.%s", uuidCol, nameCol, nameCol)
	},
	upsertRepeatsName: false,
	olderThanDays: func(col string, days int) string {
		return fmt.Sprintf("%s < DATE('now', '-%d days')", col, days)
	},
}

// ForDriver returns the dialect matching a database driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("no query dialect for driver %q", driver)
	}
}

// Name returns the dialect's driver name.
func (d Dialect) Name() string {
	return d.name
}

// Quote safely quotes an identifier for this dialect. Quote characters
// inside the identifier are escaped by doubling.
func (d Dialect) Quote(ident string) string {
	escaped := strings.ReplaceAll(ident, d.quoteChar, d.quoteChar+d.quoteChar)
	return d.quoteChar + escaped + d.quoteChar
}
