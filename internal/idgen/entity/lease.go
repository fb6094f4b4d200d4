package entity

// SlotMode reports how the current machine slot was obtained.
type SlotMode string

const (
	SlotModeLeased   SlotMode = "LEASED"   // exclusive lease held in the store
	SlotModeFallback SlotMode = "FALLBACK" // hash-derived, uniqueness not guaranteed
	SlotModeExplicit SlotMode = "EXPLICIT" // operator-supplied via config
)

// MachineLease mirrors the ephemeral record kept in the coordination store:
// one record per slot, value is the owning instance identity, expired by TTL.
type MachineLease struct {
	Slot  uint16
	Owner string
}
