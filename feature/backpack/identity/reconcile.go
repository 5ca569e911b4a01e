package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"backpack-manager/feature/backpack/queries"
)

// uuidPatch is one pending unique-id fix for an identity row.
type uuidPatch struct {
	playerID int64
	name     string
	uuid     string
}

// Reconciler backfills and normalizes unique ids on identity rows. It runs
// once at startup when unique-id mode and identity refresh are both
// enabled.
type Reconciler struct {
	db       *gorm.DB
	stmts    queries.Statements
	resolver *Resolver
	lookup   LookupService
	logger   *zap.Logger
}

// NewReconciler wires the reconciliation pass.
func NewReconciler(db *gorm.DB, stmts queries.Statements, resolver *Resolver, lookup LookupService, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		db:       db,
		stmts:    stmts,
		resolver: resolver,
		lookup:   lookup,
		logger:   logger,
	}
}

// Run scans identity rows with a missing or malformed unique id, normalizes
// the malformed ones in-row, resolves the missing ones through one batched
// external lookup, and applies all fixes in a single batched write. Rows the
// lookup cannot resolve stay untouched and are retried on the next startup.
//
// Run never fails startup; it returns the number of patched rows and an
// error only for reporting.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	rows, err := r.db.WithContext(ctx).Raw(r.stmts.SelectInvalidUUIDs).Rows()
	if err != nil {
		return 0, fmt.Errorf("failed to scan for invalid unique ids: %w", err)
	}
	defer rows.Close()

	var patches []uuidPatch
	// toResolve is keyed by lowercase name for the case-insensitive batch
	// lookup; the value keeps the row identity for the patch.
	toResolve := make(map[string]uuidPatch)

	for rows.Next() {
		var (
			id     int64
			name   string
			stored sql.NullString
		)
		if err := rows.Scan(&id, &name, &stored); err != nil {
			return 0, fmt.Errorf("failed to read identity row: %w", err)
		}

		if stored.Valid && stored.String != "" {
			// Present but in the wrong form: normalize in-row, no lookup.
			if normalized, ok := r.resolver.Normalize(stored.String); ok {
				patches = append(patches, uuidPatch{playerID: id, name: name, uuid: normalized})
				continue
			}
			// Unparseable garbage falls through to the name lookup.
		}
		toResolve[strings.ToLower(name)] = uuidPatch{playerID: id, name: name}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate identity rows: %w", err)
	}

	if len(toResolve) > 0 {
		names := make([]string, 0, len(toResolve))
		for name := range toResolve {
			names = append(names, name)
		}

		resolved, err := r.lookup.UUIDs(ctx, names)
		if err != nil {
			// Best effort: the unresolved rows stay for the next startup.
			r.logger.Warn("unique-id lookup failed, leaving rows unresolved",
				zap.Int("rows", len(toResolve)), zap.Error(err))
			resolved = nil
		}

		for name, raw := range resolved {
			patch, ok := toResolve[strings.ToLower(name)]
			if !ok {
				continue
			}
			normalized, ok := r.resolver.Normalize(raw)
			if !ok {
				r.logger.Warn("lookup returned malformed unique id",
					zap.String("player", patch.name))
				continue
			}
			patch.uuid = normalized
			patches = append(patches, patch)
		}
	}

	if len(patches) == 0 {
		return 0, nil
	}

	// One transaction, one connection for the whole batch.
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			if err := tx.Exec(r.stmts.FixUUID, patch.uuid, patch.playerID).Error; err != nil {
				return fmt.Errorf("failed to patch unique id for %s: %w", patch.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("updated unique ids", zap.Int("rows", len(patches)))
	return len(patches), nil
}
