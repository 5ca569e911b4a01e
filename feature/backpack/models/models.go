package models

import (
	"bytes"

	"github.com/google/uuid"
)

// Player is the identity handle the game layer passes in. The UUID is the
// stable unique id assigned by the platform; it stays zero when the host
// runs in name mode.
type Player struct {
	Name string
	UUID uuid.UUID
}

// HasUUID reports whether the player carries a stable unique id.
func (p Player) HasUUID() bool {
	return p.UUID != uuid.Nil
}

// PlayerIdentity represents a stored identity row.
type PlayerIdentity struct {
	// ID is the storage-assigned internal id; values <= 0 mean unassigned.
	ID int64
	// Name is the last-seen display name.
	Name string
	// UUID is the stored unique id string; empty for legacy rows that were
	// written before unique ids existed.
	UUID string
}

// Slot is a single inventory slot. A nil Item means the slot is empty; the
// payload is an opaque item descriptor owned by the game layer.
type Slot struct {
	Item []byte
}

// IsEmpty reports whether the slot holds no item.
func (s Slot) IsEmpty() bool {
	return s.Item == nil
}

// Inventory is an ordered sequence of slots. Slot order is significant and
// must round-trip exactly through serialization.
type Inventory []Slot

// Equal reports whether two inventories hold the same slots in the same
// order. An empty slot only equals another empty slot.
func (inv Inventory) Equal(other Inventory) bool {
	if len(inv) != len(other) {
		return false
	}
	for i := range inv {
		if inv[i].IsEmpty() != other[i].IsEmpty() {
			return false
		}
		if !bytes.Equal(inv[i].Item, other[i].Item) {
			return false
		}
	}
	return true
}

// Backpack is a player's in-memory inventory snapshot together with its
// storage linkage.
//
// OwnerID is published from a worker through the host's Dispatcher after the
// first successful resolution; it must only be read and written on the loop
// that owns the backpack.
type Backpack struct {
	Owner     Player
	OwnerID   int64
	Inventory Inventory
}

// NewBackpack creates a backpack with an unassigned owner id.
func NewBackpack(owner Player, inv Inventory) *Backpack {
	return &Backpack{Owner: owner, OwnerID: -1, Inventory: inv}
}
