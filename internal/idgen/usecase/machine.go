package usecase

import (
	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
)

// SlotSource exposes the coordinator state the monitoring surface needs.
type SlotSource interface {
	CurrentSlot() (uint16, error)
	Mode() entity.SlotMode
	Identity() string
}

// Machine reports which slot this instance runs under and how it got it.
type Machine struct {
	src SlotSource
}

func NewMachine(src SlotSource) *Machine {
	return &Machine{src: src}
}

func (m *Machine) Info() MachineInfo {
	info := MachineInfo{
		Identity: m.src.Identity(),
		Mode:     m.src.Mode(),
	}

	if slot, err := m.src.CurrentSlot(); err == nil {
		info.Slot = slot
	}

	return info
}
