package serializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"backpack-manager/feature/backpack/models"
)

// Format versions ever shipped. Decoding must keep supporting every one of
// these forever; encoding uses the configured write version.
const (
	// VersionLegacy is the original fixed-width layout: big-endian int32
	// slot count, then per slot an int32 payload length (-1 = empty slot)
	// followed by the payload bytes.
	VersionLegacy = 1
	// VersionCurrent is the varint layout: uvarint slot count, then per
	// slot uvarint(len+1) (0 = empty slot) followed by the payload bytes.
	VersionCurrent = 2
)

var (
	// ErrUnsupportedVersion marks a blob whose stated format version is
	// unknown to this build (typically written by a newer deployment).
	ErrUnsupportedVersion = errors.New("unsupported inventory format version")
	// ErrCorrupt marks a blob that does not parse under its stated version.
	ErrCorrupt = errors.New("corrupt inventory data")
)

// Serializer encodes and decodes inventories to the versioned binary format.
type Serializer struct {
	used int
}

// New creates a serializer writing the given format version. A zero version
// selects the current one; pinning an older version keeps writes readable by
// older deployments during a rolling upgrade.
func New(used int) (*Serializer, error) {
	if used == 0 {
		used = VersionCurrent
	}
	if used < VersionLegacy || used > VersionCurrent {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, used)
	}
	return &Serializer{used: used}, nil
}

// Current returns the newest format version this build understands.
func (s *Serializer) Current() int {
	return VersionCurrent
}

// Used returns the format version this serializer writes.
func (s *Serializer) Used() int {
	return s.used
}

// NeedsRewrite reports whether a stored record should be migrated by the
// rewrite pass.
func (s *Serializer) NeedsRewrite(storedVersion int) bool {
	return storedVersion != s.used
}

// Serialize encodes the inventory using the configured write version. It
// never fails for a well-formed inventory; the empty inventory encodes to a
// valid, decodable blob.
func (s *Serializer) Serialize(inv models.Inventory) []byte {
	var buf bytes.Buffer
	switch s.used {
	case VersionLegacy:
		writeLegacy(&buf, inv)
	default:
		writeCurrent(&buf, inv)
	}
	return buf.Bytes()
}

// Deserialize decodes a blob under its stated format version. Unknown or
// future versions return ErrUnsupportedVersion; malformed payloads return
// ErrCorrupt. Both are distinct from "no data", which callers signal with a
// nil blob and never pass here.
func (s *Serializer) Deserialize(data []byte, version int) (models.Inventory, error) {
	switch version {
	case VersionLegacy:
		return readLegacy(data)
	case VersionCurrent:
		return readCurrent(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

func writeLegacy(buf *bytes.Buffer, inv models.Inventory) {
	_ = binary.Write(buf, binary.BigEndian, int32(len(inv)))
	for _, slot := range inv {
		if slot.IsEmpty() {
			_ = binary.Write(buf, binary.BigEndian, int32(-1))
			continue
		}
		_ = binary.Write(buf, binary.BigEndian, int32(len(slot.Item)))
		buf.Write(slot.Item)
	}
}

func readLegacy(data []byte) (models.Inventory, error) {
	r := bytes.NewReader(data)
	var count int32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: missing slot count", ErrCorrupt)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative slot count", ErrCorrupt)
	}
	inv := make(models.Inventory, 0, count)
	for i := int32(0); i < count; i++ {
		var length int32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("%w: truncated slot %d", ErrCorrupt, i)
		}
		if length < 0 {
			inv = append(inv, models.Slot{})
			continue
		}
		item := make([]byte, length)
		if _, err := io.ReadFull(r, item); err != nil {
			return nil, fmt.Errorf("%w: truncated slot %d payload", ErrCorrupt, i)
		}
		inv = append(inv, models.Slot{Item: item})
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}
	return inv, nil
}

func writeCurrent(buf *bytes.Buffer, inv models.Inventory) {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(len(inv)))
	buf.Write(scratch[:n])
	for _, slot := range inv {
		if slot.IsEmpty() {
			n = binary.PutUvarint(scratch[:], 0)
			buf.Write(scratch[:n])
			continue
		}
		n = binary.PutUvarint(scratch[:], uint64(len(slot.Item))+1)
		buf.Write(scratch[:n])
		buf.Write(slot.Item)
	}
}

func readCurrent(data []byte) (models.Inventory, error) {
	r := bytes.NewReader(data)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: missing slot count", ErrCorrupt)
	}
	if count > uint64(len(data)) {
		// A count this large cannot be backed by the payload.
		return nil, fmt.Errorf("%w: implausible slot count %d", ErrCorrupt, count)
	}
	inv := make(models.Inventory, 0, count)
	for i := uint64(0); i < count; i++ {
		marker, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated slot %d", ErrCorrupt, i)
		}
		if marker == 0 {
			inv = append(inv, models.Slot{})
			continue
		}
		length := marker - 1
		if length > uint64(r.Len()) {
			return nil, fmt.Errorf("%w: truncated slot %d payload", ErrCorrupt, i)
		}
		item := make([]byte, length)
		if _, err := io.ReadFull(r, item); err != nil {
			return nil, fmt.Errorf("%w: truncated slot %d payload", ErrCorrupt, i)
		}
		inv = append(inv, models.Slot{Item: item})
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}
	return inv, nil
}
