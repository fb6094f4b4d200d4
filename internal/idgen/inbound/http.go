package inbound

import (
	"context"

	"github.com/shandysiswandi/gofleet/internal/idgen/usecase"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgrouter"
)

type timeOrderedUC interface {
	NextID(ctx context.Context) (string, error)
	Parse(id string) (usecase.TimeOrderedParts, error)
}

type sequenceUC interface {
	NextIDs(ctx context.Context, count int) ([]string, error)
	Parse(id string) (usecase.SequenceParts, error)
	CurrentSequence(ctx context.Context) (uint64, error)
}

type machineUC interface {
	Info() usecase.MachineInfo
}

// RegisterHTTPEndpoint wires the ID endpoints into the application router.
// Sequence may be nil when the coordination store is disabled; its endpoints
// then answer 503.
func RegisterHTTPEndpoint(r *pkgrouter.Router, timeOrdered timeOrderedUC, sequence sequenceUC, machine machineUC) {
	end := &HTTPEndpoint{
		timeOrdered: timeOrdered,
		sequence:    sequence,
		machine:     machine,
	}

	r.POST("/v1/ids/time-ordered", end.MintTimeOrdered)
	r.GET("/v1/ids/time-ordered/:id", end.InspectTimeOrdered)

	r.POST("/v1/ids/sequence", end.MintSequence) // ?count=
	r.GET("/v1/ids/sequence/:id", end.InspectSequence)
	r.GET("/v1/sequence", end.SequenceCounter)

	r.GET("/v1/machine", end.Machine)
}
