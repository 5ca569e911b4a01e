package queries

import "fmt"

// Names carries the configured table and field identifiers.
type Names struct {
	TablePlayers   string
	TableBackpacks string
	PlayerID       string
	Name           string
	UUID           string
	Owner          string
	Items          string
	Version        string
	LastUpdate     string
}

// Options selects the statement variants to build.
type Options struct {
	Names Names
	// UseUUIDs selects unique-id identity mode; otherwise the display name
	// is the lookup key.
	UseUUIDs bool
	// UUIDSeparators selects the hyphenated canonical form for stored
	// unique ids.
	UUIDSeparators bool
	// MaxAgeDays enables the retention feature when > 0. It is the only
	// value rendered as a literal; everything else binds as a parameter.
	MaxAgeDays int
}

// Statements is the fully-resolved statement set. It is built once during
// initialization and passed around by value; nothing mutates it afterwards.
type Statements struct {
	// UpsertPlayer inserts or refreshes an identity row. Bind with
	// UpsertPlayerArgs.
	UpsertPlayer string
	// SelectPlayerID resolves the internal id from the lookup key.
	SelectPlayerID string
	// SelectBackpack fetches owner id, blob and version by lookup key via
	// the identity join.
	SelectBackpack string
	// InsertBackpack is the insert-or-replace first-save path:
	// (owner, blob, version).
	InsertBackpack string
	// UpdateBackpack is the targeted update path: (blob, version, owner).
	// It touches the last-update column only when retention is enabled.
	UpdateBackpack string
	// PurgeOldBackpacks deletes records older than the retention window.
	// Empty when retention is disabled.
	PurgeOldBackpacks string
	// SelectInvalidUUIDs finds identity rows with a missing or malformed
	// unique id.
	SelectInvalidUUIDs string
	// FixUUID patches a unique id by internal id: (uuid, player id).
	FixUUID string
	// SelectOutdatedBackpacks fetches all records not at the write format
	// version: (version).
	SelectOutdatedBackpacks string
	// RewriteBackpack rewrites one record by owner id:
	// (blob, version, owner).
	RewriteBackpack string

	// CreateTablePlayers and CreateTableBackpacks create the schema when it
	// does not exist yet.
	CreateTablePlayers   string
	CreateTableBackpacks string

	upsertRepeatsName bool
	useUUIDs          bool
}

// Build constructs the immutable statement set for one dialect and
// configuration.
func Build(d Dialect, opts Options) (Statements, error) {
	if opts.MaxAgeDays < 0 {
		return Statements{}, fmt.Errorf("retention window must not be negative: %d", opts.MaxAgeDays)
	}

	n := opts.Names
	tp := d.Quote(n.TablePlayers)
	tb := d.Quote(n.TableBackpacks)
	pid := d.Quote(n.PlayerID)
	name := d.Quote(n.Name)
	uid := d.Quote(n.UUID)
	owner := d.Quote(n.Owner)
	items := d.Quote(n.Items)
	version := d.Quote(n.Version)
	lastUpdate := d.Quote(n.LastUpdate)

	s := Statements{
		upsertRepeatsName: d.upsertRepeatsName && opts.UseUUIDs,
		useUUIDs:          opts.UseUUIDs,
	}

	// Identity registration and lookup depend on the identity mode. In
	// unique-id mode the name is purely the de-duplication / update key.
	getBP := fmt.Sprintf("SELECT %s.%s,%s.%s,%s.%s FROM %s INNER JOIN %s ON %s.%s=%s.%s WHERE ",
		tb, owner, tb, items, tb, version, tb, tp, tb, owner, tp, pid)
	if opts.UseUUIDs {
		s.UpsertPlayer = fmt.Sprintf("INSERT INTO %s (%s,%s) VALUES (?,?)%s;",
			tp, name, uid, d.upsertNameByUUID(name, uid))
		s.SelectPlayerID = fmt.Sprintf("SELECT %s FROM %s WHERE %s=?;", pid, tp, uid)
		s.SelectBackpack = getBP + fmt.Sprintf("%s=?;", uid)
	} else {
		s.UpsertPlayer = fmt.Sprintf("%s %s (%s) VALUES (?);", d.insertIgnore, tp, name)
		s.SelectPlayerID = fmt.Sprintf("SELECT %s FROM %s WHERE %s=?;", pid, tp, name)
		s.SelectBackpack = getBP + fmt.Sprintf("%s=?;", name)
	}

	s.InsertBackpack = fmt.Sprintf("%s %s (%s,%s,%s) VALUES (?,?,?);",
		d.insertReplace, tb, owner, items, version)

	s.UpdateBackpack = fmt.Sprintf("UPDATE %s SET %s=?,%s=?", tb, items, version)
	if opts.MaxAgeDays > 0 {
		s.UpdateBackpack += fmt.Sprintf(",%s=%s", lastUpdate, d.nowExpr)
	}
	s.UpdateBackpack += fmt.Sprintf(" WHERE %s=?;", owner)

	if opts.MaxAgeDays > 0 {
		// The day count is the single validated literal; it is an integer
		// from configuration, never user input.
		s.PurgeOldBackpacks = fmt.Sprintf("DELETE FROM %s WHERE %s;",
			tb, d.olderThanDays(lastUpdate, opts.MaxAgeDays))
	}

	// A stored id is malformed when its separator style contradicts the
	// configured canonical form.
	if opts.UUIDSeparators {
		s.SelectInvalidUUIDs = fmt.Sprintf("SELECT %s,%s,%s FROM %s WHERE %s IS NULL OR %s NOT LIKE '%%-%%-%%-%%-%%';",
			pid, name, uid, tp, uid, uid)
	} else {
		s.SelectInvalidUUIDs = fmt.Sprintf("SELECT %s,%s,%s FROM %s WHERE %s IS NULL OR %s LIKE '%%-%%';",
			pid, name, uid, tp, uid, uid)
	}
	s.FixUUID = fmt.Sprintf("UPDATE %s SET %s=? WHERE %s=?;", tp, uid, pid)

	s.SelectOutdatedBackpacks = fmt.Sprintf("SELECT %s,%s,%s FROM %s WHERE %s<>?;",
		owner, items, version, tb, version)
	s.RewriteBackpack = fmt.Sprintf("UPDATE %s SET %s=?,%s=? WHERE %s=?;",
		tb, items, version, owner)

	s.CreateTablePlayers = buildCreatePlayers(d, opts, tp, pid, name, uid)
	s.CreateTableBackpacks = buildCreateBackpacks(d, opts, tb, owner, items, version, lastUpdate)

	return s, nil
}

// UpsertPlayerArgs orders the bind parameters for UpsertPlayer. MySQL's
// upsert tail binds the display name twice; SQLite's excluded-row form does
// not, and name mode only binds the name.
func (s Statements) UpsertPlayerArgs(name, lookupKey string) []any {
	if !s.useUUIDs {
		return []any{name}
	}
	if s.upsertRepeatsName {
		return []any{name, lookupKey, name}
	}
	return []any{name, lookupKey}
}

func buildCreatePlayers(d Dialect, opts Options, tp, pid, name, uid string) string {
	uuidWidth := 32
	if opts.UUIDSeparators {
		uuidWidth = 36
	}
	if d.name == "sqlite" {
		q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY AUTOINCREMENT, %s TEXT NOT NULL",
			tp, pid, name)
		if opts.UseUUIDs {
			q += fmt.Sprintf(", %s TEXT UNIQUE DEFAULT NULL", uid)
		} else {
			q += " UNIQUE"
		}
		return q + ");"
	}
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INT UNSIGNED NOT NULL AUTO_INCREMENT, %s CHAR(16) NOT NULL",
		tp, pid, name)
	if opts.UseUUIDs {
		q += fmt.Sprintf(", %s CHAR(%d) DEFAULT NULL, PRIMARY KEY (%s), UNIQUE KEY (%s)", uid, uuidWidth, pid, uid)
	} else {
		q += fmt.Sprintf(", PRIMARY KEY (%s), UNIQUE KEY (%s)", pid, name)
	}
	return q + ");"
}

func buildCreateBackpacks(d Dialect, opts Options, tb, owner, items, version, lastUpdate string) string {
	if d.name == "sqlite" {
		q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY, %s BLOB, %s INTEGER DEFAULT 0",
			tb, owner, items, version)
		if opts.MaxAgeDays > 0 {
			q += fmt.Sprintf(", %s DATE DEFAULT (DATETIME('now'))", lastUpdate)
		}
		return q + ");"
	}
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INT UNSIGNED NOT NULL, %s BLOB, %s INT DEFAULT 0",
		tb, owner, items, version)
	if opts.MaxAgeDays > 0 {
		q += fmt.Sprintf(", %s TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP", lastUpdate)
	}
	return q + fmt.Sprintf(", PRIMARY KEY (%s));", owner)
}
