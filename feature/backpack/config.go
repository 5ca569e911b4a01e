package backpack

import (
	"fmt"

	"backpack-manager/feature/backpack/identity"
	"backpack-manager/feature/backpack/queries"
	"backpack-manager/feature/backpack/serializer"
)

// SchemaConfig holds the configured table and field names.
type SchemaConfig struct {
	// TablePlayers is the identity table name.
	TablePlayers string `mapstructure:"table_players" default:"backpack_players"`
	// TableBackpacks is the backpack table name.
	TableBackpacks string `mapstructure:"table_backpacks" default:"backpacks"`
	// FieldPlayerID is the internal id column on the identity table.
	FieldPlayerID string `mapstructure:"field_player_id" default:"player_id"`
	// FieldName is the display name column.
	FieldName string `mapstructure:"field_name" default:"name"`
	// FieldUUID is the unique id column.
	FieldUUID string `mapstructure:"field_uuid" default:"uuid"`
	// FieldOwner is the owner id column on the backpack table.
	FieldOwner string `mapstructure:"field_owner" default:"owner"`
	// FieldItems is the serialized blob column.
	FieldItems string `mapstructure:"field_items" default:"its"`
	// FieldVersion is the format version column.
	FieldVersion string `mapstructure:"field_version" default:"version"`
	// FieldLastUpdate is the last-update timestamp column.
	FieldLastUpdate string `mapstructure:"field_last_update" default:"last_update"`
}

// IdentityConfig holds identity resolution settings.
type IdentityConfig struct {
	// Mode selects the lookup key: uuid or name.
	Mode string `mapstructure:"mode" default:"uuid"`
	// UseSeparators selects the hyphenated canonical unique-id form.
	UseSeparators bool `mapstructure:"use_separators" default:"true"`
	// RefreshOnStartup enables the unique-id reconciliation pass.
	RefreshOnStartup bool `mapstructure:"refresh_on_startup" default:"true"`
	// CacheSize bounds the resolved internal-id cache.
	CacheSize int `mapstructure:"cache_size" default:"1024"`
	// CacheTTLSeconds is the time-to-live per cached resolution.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
	// LookupURL is the external name-to-unique-id service endpoint. Empty
	// disables external resolution; legacy rows then wait for it.
	LookupURL string `mapstructure:"lookup_url" default:""`
	// LookupTimeoutSeconds bounds the batch lookup round-trip.
	LookupTimeoutSeconds int `mapstructure:"lookup_timeout_seconds" default:"10"`
}

// Config holds all backpack persistence settings.
type Config struct {
	// Schema holds the configured table and field names.
	Schema SchemaConfig `mapstructure:"schema"`
	// Identity holds identity resolution settings.
	Identity IdentityConfig `mapstructure:"identity"`
	// MaxAgeDays is the retention window; 0 disables the purge.
	MaxAgeDays int `mapstructure:"max_age_days" default:"0"`
	// SerializerVersion pins the write format version; 0 selects the
	// current one.
	SerializerVersion int `mapstructure:"serializer_version" default:"0"`
}

// Validate rejects impossible settings before startup proceeds.
func (c Config) Validate() error {
	if !identity.Mode(c.Identity.Mode).IsValid() {
		return fmt.Errorf("unknown identity mode: %q", c.Identity.Mode)
	}
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("max_age_days must not be negative: %d", c.MaxAgeDays)
	}
	if c.SerializerVersion != 0 {
		if _, err := serializer.New(c.SerializerVersion); err != nil {
			return fmt.Errorf("invalid serializer_version: %w", err)
		}
	}
	return nil
}

// QueryOptions translates the configuration into query builder options.
func (c Config) QueryOptions() queries.Options {
	return queries.Options{
		Names: queries.Names{
			TablePlayers:   c.Schema.TablePlayers,
			TableBackpacks: c.Schema.TableBackpacks,
			PlayerID:       c.Schema.FieldPlayerID,
			Name:           c.Schema.FieldName,
			UUID:           c.Schema.FieldUUID,
			Owner:          c.Schema.FieldOwner,
			Items:          c.Schema.FieldItems,
			Version:        c.Schema.FieldVersion,
			LastUpdate:     c.Schema.FieldLastUpdate,
		},
		UseUUIDs:       identity.Mode(c.Identity.Mode) == identity.ModeUUID,
		UUIDSeparators: c.Identity.UseSeparators,
		MaxAgeDays:     c.MaxAgeDays,
	}
}
