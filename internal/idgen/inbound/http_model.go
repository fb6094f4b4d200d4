package inbound

import (
	"net/http"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
)

type MintTimeOrderedResponse struct {
	ID string `json:"id"`
}

func (MintTimeOrderedResponse) StatusCode() int {
	return http.StatusCreated
}

func (MintTimeOrderedResponse) Message() string {
	return "time-ordered id issued"
}

type TimeOrderedPartsResponse struct {
	ID          string `json:"id"`
	TimestampMs int64  `json:"timestamp_ms"`
	MachineSlot uint16 `json:"machine_slot"`
	Counter     uint16 `json:"counter"`
	WallClock   string `json:"wall_clock"`
}

type MintSequenceResponse struct {
	IDs []string `json:"ids"`
}

func (MintSequenceResponse) StatusCode() int {
	return http.StatusCreated
}

func (MintSequenceResponse) Message() string {
	return "sequence ids issued"
}

type SequencePartsResponse struct {
	ID       string `json:"id"`
	Sequence uint64 `json:"sequence"`
	Salt1    uint8  `json:"salt1"`
	Salt2    uint8  `json:"salt2"`
}

type SequenceCounterResponse struct {
	Current uint64 `json:"current"`
}

type MachineResponse struct {
	Slot     uint16          `json:"slot"`
	Identity string          `json:"identity"`
	Mode     entity.SlotMode `json:"mode"`
}
