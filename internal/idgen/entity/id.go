package entity

import (
	"fmt"
	"time"
)

// Bit layout for time-ordered IDs: sign (1) | timestamp ms (41) | machine
// slot (10) | per-millisecond counter (12).
const (
	TimestampBits = 41
	MachineBits   = 10
	CounterBits   = 12

	MaxTimestamp   = int64(1)<<TimestampBits - 1
	MaxMachineSlot = uint16(1)<<MachineBits - 1
	MaxCounter     = uint16(1)<<CounterBits - 1

	machineShift   = CounterBits
	timestampShift = CounterBits + MachineBits
)

// Bit layout for centralized-sequence IDs: sign (1) | sequence (51) |
// salt1 (6) | salt2 (6).
const (
	SequenceBits = 51
	SaltBits     = 6

	MaxSequence = uint64(1)<<SequenceBits - 1
	MaxSalt     = uint8(1)<<SaltBits - 1

	salt1Shift    = SaltBits
	sequenceShift = SaltBits + SaltBits
)

// DefaultEpochMs is the reference instant for the time-ordered scheme,
// Mon Dec 01 2025 00:00:00.000 WIB. It must never change once IDs exist.
const DefaultEpochMs int64 = 1764522000000

func init() {
	if 1+TimestampBits+MachineBits+CounterBits != 64 {
		panic("entity: time-ordered bit widths do not sum to 64")
	}
	if 1+SequenceBits+SaltBits+SaltBits != 64 {
		panic("entity: sequence bit widths do not sum to 64")
	}
}

// TimeOrderedID is the decomposed form of a time-ordered ID.
type TimeOrderedID struct {
	TimestampMs int64  // milliseconds since the epoch
	MachineSlot uint16 // 0..1023
	Counter     uint16 // 0..4095
}

// Pack combines the components into a single 64-bit value. The sign bit is
// always zero because TimestampMs is capped at 41 bits.
func (id TimeOrderedID) Pack() uint64 {
	return uint64(id.TimestampMs)<<timestampShift |
		uint64(id.MachineSlot)<<machineShift |
		uint64(id.Counter)
}

// WallClock converts the epoch-relative timestamp back to wall-clock time.
func (id TimeOrderedID) WallClock(epochMs int64) time.Time {
	return time.UnixMilli(epochMs + id.TimestampMs).UTC()
}

// UnpackTimeOrdered reverses Pack. It rejects values with the sign bit set
// because such values were never produced by this scheme.
func UnpackTimeOrdered(raw uint64) (TimeOrderedID, error) {
	if raw>>63 != 0 {
		return TimeOrderedID{}, fmt.Errorf("id %d has sign bit set", raw)
	}

	return TimeOrderedID{
		TimestampMs: int64(raw >> timestampShift),
		MachineSlot: uint16(raw >> machineShift & uint64(MaxMachineSlot)),
		Counter:     uint16(raw & uint64(MaxCounter)),
	}, nil
}

// SequenceID is the decomposed form of a centralized-sequence ID.
type SequenceID struct {
	Sequence uint64 // globally unique, monotonic across the fleet
	Salt1    uint8  // 0..63, unpredictability only
	Salt2    uint8  // 0..63, unpredictability only
}

// Pack combines the components into a single 64-bit value.
func (id SequenceID) Pack() uint64 {
	return id.Sequence<<sequenceShift |
		uint64(id.Salt1)<<salt1Shift |
		uint64(id.Salt2)
}

// UnpackSequence reverses Pack.
func UnpackSequence(raw uint64) (SequenceID, error) {
	if raw>>63 != 0 {
		return SequenceID{}, fmt.Errorf("id %d has sign bit set", raw)
	}

	return SequenceID{
		Sequence: raw >> sequenceShift,
		Salt1:    uint8(raw >> salt1Shift & uint64(MaxSalt)),
		Salt2:    uint8(raw & uint64(MaxSalt)),
	}, nil
}
