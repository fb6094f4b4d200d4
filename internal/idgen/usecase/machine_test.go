package usecase

import (
	"errors"
	"testing"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
)

type fakeSlotSource struct {
	slot     uint16
	err      error
	mode     entity.SlotMode
	identity string
}

func (f fakeSlotSource) CurrentSlot() (uint16, error) { return f.slot, f.err }
func (f fakeSlotSource) Mode() entity.SlotMode        { return f.mode }
func (f fakeSlotSource) Identity() string             { return f.identity }

func TestMachineInfo(t *testing.T) {
	machine := NewMachine(fakeSlotSource{
		slot:     17,
		mode:     entity.SlotModeLeased,
		identity: "pod-1-42",
	})

	info := machine.Info()
	if info.Slot != 17 {
		t.Fatalf("expected slot 17, got %d", info.Slot)
	}
	if info.Mode != entity.SlotModeLeased {
		t.Fatalf("expected LEASED, got %s", info.Mode)
	}
	if info.Identity != "pod-1-42" {
		t.Fatalf("expected identity pod-1-42, got %q", info.Identity)
	}
}

func TestMachineInfoBeforeAcquire(t *testing.T) {
	machine := NewMachine(fakeSlotSource{
		err:      errors.New("not ready"),
		identity: "pod-1-42",
	})

	info := machine.Info()
	if info.Slot != 0 {
		t.Fatalf("expected zero slot before acquire, got %d", info.Slot)
	}
}
