// Package backpack persists per-player inventory snapshots into a
// relational store and serves them back on demand.
//
// The Service is the persistence gateway: it registers player identities,
// saves and loads serialized backpacks, runs the retention purge, and
// migrates stored records to the current serialization format via the
// rewrite pass. All blocking statement execution happens on the worker
// pool; results that must touch caller-owned state travel back through the
// worker.Dispatcher.
//
// Sub-packages:
//   - models: the player, identity, inventory and backpack records.
//   - serializer: the versioned binary inventory codec.
//   - queries: the dialect-specific statement set, built once at startup.
//   - identity: lookup-key resolution and the unique-id reconciliation pass.
//
// The Handler/Feature pair mounts an admin and debug HTTP surface for
// triggering the rewrite and purge passes and inspecting stored backpacks.
package backpack
