package usecase

import (
	"time"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
)

type TimeOrderedParts struct {
	ID          string
	TimestampMs int64
	MachineSlot uint16
	Counter     uint16
	WallClock   time.Time
}

type SequenceParts struct {
	ID       string
	Sequence uint64
	Salt1    uint8
	Salt2    uint8
}

type MachineInfo struct {
	Slot     uint16
	Identity string
	Mode     entity.SlotMode
}
