package backpack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"backpack-manager/core/database"
	"backpack-manager/core/worker"
	"backpack-manager/feature/backpack/identity"
	"backpack-manager/feature/backpack/models"
	"backpack-manager/feature/backpack/queries"
	"backpack-manager/feature/backpack/serializer"
)

// rewriteBatchSize bounds how many record updates share one transaction
// during the rewrite pass.
const rewriteBatchSize = 100

// LoadCallback receives the result of an asynchronous load on the host's
// Dispatcher. A nil backpack with a nil error means the player never saved
// one; a non-nil error is an explicit decode or statement failure.
type LoadCallback func(bp *models.Backpack, err error)

// RewriteStats summarizes one rewrite pass.
type RewriteStats struct {
	// Scanned is the number of records not at the write format version.
	Scanned int
	// Rewritten is the number of records re-encoded and written back.
	Rewritten int
	// Skipped counts records left untouched because their blob would not
	// decode; they stay readable for whichever build understands them.
	Skipped int
}

// Service is the persistence gateway. Saves and registrations run on the
// worker pool so the caller's simulation loop never blocks; results that
// touch caller-owned state travel back through the Dispatcher.
//
// The gateway orders nothing per owner: overlapping saves or a save racing
// a load for the same player are the caller's responsibility to avoid, as
// they are in the game layer's own threading model.
type Service struct {
	db         *gorm.DB
	stmts      queries.Statements
	serializer *serializer.Serializer
	resolver   *identity.Resolver
	pool       *worker.Pool
	dispatcher worker.Dispatcher
	logger     *zap.Logger
	maxAgeDays int
}

// NewService wires the persistence gateway.
func NewService(db *gorm.DB, stmts queries.Statements, ser *serializer.Serializer,
	resolver *identity.Resolver, pool *worker.Pool, dispatcher worker.Dispatcher,
	logger *zap.Logger, maxAgeDays int) *Service {
	return &Service{
		db:         db,
		stmts:      stmts,
		serializer: ser,
		resolver:   resolver,
		pool:       pool,
		dispatcher: dispatcher,
		logger:     logger,
		maxAgeDays: maxAgeDays,
	}
}

// Serializer exposes the configured serializer, mainly for the host to
// build inventories and for the admin surface to report versions.
func (s *Service) Serializer() *serializer.Serializer {
	return s.serializer
}

// EnsureSchema creates the identity and backpack tables when absent and
// verifies that every configured column exists. A verification mismatch is
// an error; the caller decides whether to abort.
func (s *Service) EnsureSchema(ctx context.Context, cfg Config) error {
	if err := s.db.WithContext(ctx).Exec(s.stmts.CreateTablePlayers).Error; err != nil {
		return fmt.Errorf("failed to create identity table: %w", err)
	}
	if err := s.db.WithContext(ctx).Exec(s.stmts.CreateTableBackpacks).Error; err != nil {
		return fmt.Errorf("failed to create backpack table: %w", err)
	}

	playerCols := []string{cfg.Schema.FieldPlayerID, cfg.Schema.FieldName}
	if s.resolver.UseUUIDs() {
		playerCols = append(playerCols, cfg.Schema.FieldUUID)
	}
	if missing, err := database.VerifyColumns(s.db, cfg.Schema.TablePlayers, playerCols); err != nil {
		return err
	} else if len(missing) > 0 {
		return fmt.Errorf("identity table %s is missing columns: %v", cfg.Schema.TablePlayers, missing)
	}

	backpackCols := []string{cfg.Schema.FieldOwner, cfg.Schema.FieldItems, cfg.Schema.FieldVersion}
	if s.maxAgeDays > 0 {
		backpackCols = append(backpackCols, cfg.Schema.FieldLastUpdate)
	}
	if missing, err := database.VerifyColumns(s.db, cfg.Schema.TableBackpacks, backpackCols); err != nil {
		return err
	} else if len(missing) > 0 {
		return fmt.Errorf("backpack table %s is missing columns: %v", cfg.Schema.TableBackpacks, missing)
	}
	return nil
}

// RegisterPlayer upserts the player's identity row asynchronously. It is
// idempotent: a second registration only refreshes the display name. The
// caller never sees an error; transient backend failures are logged and the
// next sighting of the player retries.
func (s *Service) RegisterPlayer(p models.Player) {
	key := s.resolver.LookupKey(p)
	args := s.stmts.UpsertPlayerArgs(p.Name, key)
	s.pool.Enqueue(func(ctx context.Context) error {
		if err := s.db.WithContext(ctx).Exec(s.stmts.UpsertPlayer, args...).Error; err != nil {
			s.logger.Warn("failed to register player",
				zap.String("player", p.Name), zap.Error(err))
			return nil
		}
		// The row may have been created fresh; any cached id for the key
		// predates that.
		s.resolver.Invalidate(key)
		return nil
	})
}

// SaveBackpack persists the backpack asynchronously. The inventory is
// serialized on the calling goroutine so the worker only sees immutable
// bytes. With an unassigned owner id the internal id is resolved first and
// published back to the record through the Dispatcher; if resolution fails
// the attempt is abandoned with a warning and the in-memory inventory stays
// untouched for a later retry.
func (s *Service) SaveBackpack(bp *models.Backpack) {
	data := s.serializer.Serialize(bp.Inventory)
	version := s.serializer.Used()
	ownerID := bp.OwnerID
	key := s.resolver.LookupKey(bp.Owner)
	name := bp.Owner.Name

	s.pool.Enqueue(func(ctx context.Context) error {
		if ownerID <= 0 {
			newID, err := s.resolveOwnerID(ctx, key)
			if err != nil {
				s.logger.Warn("failed saving backpack",
					zap.String("player", name), zap.Error(err))
				return nil
			}
			if newID <= 0 {
				s.logger.Warn("failed saving backpack: no internal id for player",
					zap.String("player", name), zap.String("key", key))
				return nil
			}
			// Publish the id on the owning loop so the next save takes the
			// update path.
			s.dispatcher.Dispatch(func() {
				bp.OwnerID = newID
			})
			if err := s.db.WithContext(ctx).Exec(s.stmts.InsertBackpack, newID, data, version).Error; err != nil {
				s.logger.Warn("failed saving backpack",
					zap.String("player", name), zap.Error(err))
			}
			return nil
		}

		if err := s.db.WithContext(ctx).Exec(s.stmts.UpdateBackpack, data, version, ownerID).Error; err != nil {
			s.logger.Warn("failed saving backpack",
				zap.String("player", name), zap.Error(err))
		}
		return nil
	})
}

// LoadBackpack fetches and decodes a player's backpack synchronously. It is
// intended for contexts with no concurrency risk (startup tooling, admin
// surface); the game loop should use LoadBackpackAsync. A player without a
// stored record yields (nil, nil); a record that will not decode yields a
// non-nil error.
func (s *Service) LoadBackpack(ctx context.Context, p models.Player) (*models.Backpack, error) {
	key := s.resolver.LookupKey(p)
	return s.fetchBackpack(ctx, p, key)
}

// LoadBackpackAsync fetches the backpack on a worker and delivers the
// result through the Dispatcher.
func (s *Service) LoadBackpackAsync(p models.Player, cb LoadCallback) {
	key := s.resolver.LookupKey(p)
	s.pool.Enqueue(func(ctx context.Context) error {
		bp, err := s.fetchBackpack(ctx, p, key)
		s.dispatcher.Dispatch(func() {
			cb(bp, err)
		})
		return nil
	})
}

func (s *Service) fetchBackpack(ctx context.Context, p models.Player, key string) (*models.Backpack, error) {
	var (
		ownerID int64
		blob    []byte
		version int
	)
	row := s.db.WithContext(ctx).Raw(s.stmts.SelectBackpack, key).Row()
	if err := row.Scan(&ownerID, &blob, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Never saved: distinct from any decode failure.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch backpack for %s: %w", p.Name, err)
	}

	inv, err := s.serializer.Deserialize(blob, version)
	if err != nil {
		return nil, fmt.Errorf("failed to decode backpack for %s: %w", p.Name, err)
	}
	return &models.Backpack{Owner: p, OwnerID: ownerID, Inventory: inv}, nil
}

// resolveOwnerID resolves the internal id for a lookup key, consulting the
// resolver cache first. A missing row yields (0, nil).
func (s *Service) resolveOwnerID(ctx context.Context, key string) (int64, error) {
	if id, ok := s.resolver.CachedID(key); ok {
		return id, nil
	}

	var id int64
	row := s.db.WithContext(ctx).Raw(s.stmts.SelectPlayerID, key).Row()
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve internal id: %w", err)
	}
	s.resolver.StoreID(key, id)
	return id, nil
}

// rewriteItem is one re-encoded record waiting to be written back.
type rewriteItem struct {
	ownerID int64
	data    []byte
}

// Rewrite migrates every stored record whose format version differs from
// the write version: read, decode under the stored version, re-encode,
// write back in bounded batches. Each batch commits on its own, so an
// aborted pass keeps all previously committed batches and never leaves a
// half-written row. Records whose blob will not decode are skipped and
// counted, never overwritten.
func (s *Service) Rewrite(ctx context.Context) (RewriteStats, error) {
	var stats RewriteStats
	used := s.serializer.Used()

	rows, err := s.db.WithContext(ctx).Raw(s.stmts.SelectOutdatedBackpacks, used).Rows()
	if err != nil {
		return stats, fmt.Errorf("failed to scan for outdated backpacks: %w", err)
	}
	defer rows.Close()

	var items []rewriteItem
	for rows.Next() {
		var (
			ownerID int64
			blob    []byte
			version int
		)
		if err := rows.Scan(&ownerID, &blob, &version); err != nil {
			return stats, fmt.Errorf("failed to read backpack row: %w", err)
		}
		stats.Scanned++

		inv, err := s.serializer.Deserialize(blob, version)
		if err != nil {
			stats.Skipped++
			s.logger.Warn("skipping unreadable backpack during rewrite",
				zap.Int64("owner", ownerID), zap.Int("version", version), zap.Error(err))
			continue
		}
		items = append(items, rewriteItem{ownerID: ownerID, data: s.serializer.Serialize(inv)})
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to iterate backpack rows: %w", err)
	}

	for start := 0; start < len(items); start += rewriteBatchSize {
		end := start + rewriteBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, item := range batch {
				if err := tx.Exec(s.stmts.RewriteBackpack, item.data, used, item.ownerID).Error; err != nil {
					return fmt.Errorf("failed to rewrite backpack for owner %d: %w", item.ownerID, err)
				}
			}
			return nil
		})
		if err != nil {
			// Committed batches stay committed; report how far we got.
			return stats, err
		}
		stats.Rewritten += len(batch)
	}

	return stats, nil
}

// Purge deletes backpacks whose last update is strictly older than the
// retention window and returns how many rows went. It is a no-op when
// retention is disabled.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if s.maxAgeDays <= 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Exec(s.stmts.PurgeOldBackpacks)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge old backpacks: %w", result.Error)
	}
	return result.RowsAffected, nil
}
