// Package queries builds the dialect-specific statement set for the
// backpack store.
//
// A Dialect value describes one backend's quoting rules and statement-shape
// variants (MySQL, SQLite). Build resolves the configured table and field
// names, identity mode and retention setting into an immutable Statements
// value during initialization; the gateway only ever reads it.
//
// All identifiers are quoted per dialect and all values bind as parameters.
// The single exception is the retention day count in the purge statement,
// which is a validated non-negative integer from configuration rendered as
// a literal, because neither backend accepts a bound parameter inside its
// date-arithmetic expression.
package queries
