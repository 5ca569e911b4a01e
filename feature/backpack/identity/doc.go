// Package identity maps players to the lookup key used in storage.
//
// Two identity modes exist: unique-id mode keys rows by the platform's
// stable unique id (canonicalized hyphenated or compact), name mode keys
// rows by display name. The Resolver also caches resolved internal ids so
// repeated saves skip the resolution query.
//
// The Reconciler is the startup pass that repairs historical rows written
// before unique ids existed: malformed ids are normalized in-row, missing
// ones are resolved through one batched call to the external lookup
// service, and all fixes land in a single batched write. Rows that cannot
// be resolved are left alone and retried on the next startup; the pass
// never fails startup.
package identity
