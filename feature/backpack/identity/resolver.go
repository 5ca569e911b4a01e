package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"backpack-manager/feature/backpack/models"
)

// Mode selects which value identifies a player in storage.
type Mode string

const (
	// ModeUUID keys storage rows by the platform's stable unique id.
	ModeUUID Mode = "uuid"
	// ModeName keys storage rows by the display name. Only safe on
	// platforms where names cannot change owners.
	ModeName Mode = "name"
)

// IsValid reports whether the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == ModeUUID || m == ModeName
}

// Resolver maps players to the lookup key used in storage and caches
// resolved internal ids.
type Resolver struct {
	mode       Mode
	separators bool
	cache      *idCache
}

// NewResolver creates a resolver for the configured identity mode.
// separators selects the hyphenated canonical unique-id form; cacheSize and
// cacheTTL bound the resolved-id cache.
func NewResolver(mode Mode, separators bool, cacheSize int, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		mode:       mode,
		separators: separators,
		cache:      newIDCache(cacheSize, cacheTTL),
	}
}

// UseUUIDs reports whether unique-id mode is active.
func (r *Resolver) UseUUIDs() bool {
	return r.mode == ModeUUID
}

// LookupKey returns the value identifying the player in storage: the
// canonicalized unique id in uuid mode, otherwise the display name.
func (r *Resolver) LookupKey(p models.Player) string {
	if r.mode == ModeUUID {
		return r.Format(p.UUID)
	}
	return p.Name
}

// Format renders a unique id in the configured canonical form.
func (r *Resolver) Format(id uuid.UUID) string {
	if r.separators {
		return id.String()
	}
	return strings.ReplaceAll(id.String(), "-", "")
}

// Normalize canonicalizes a stored unique-id string. It accepts both the
// hyphenated and the compact form regardless of configuration and returns
// the configured form. ok is false when the value does not parse as a
// unique id at all.
func (r *Resolver) Normalize(raw string) (normalized string, ok bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return r.Format(id), true
}

// CachedID returns a previously resolved internal id for a lookup key.
func (r *Resolver) CachedID(key string) (int64, bool) {
	return r.cache.Get(key)
}

// StoreID remembers a resolved internal id for a lookup key.
func (r *Resolver) StoreID(key string, id int64) {
	r.cache.Set(key, id)
}

// Invalidate drops a cached resolution, typically after re-registering the
// identity row.
func (r *Resolver) Invalidate(key string) {
	r.cache.Invalidate(key)
}
