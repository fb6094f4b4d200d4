package inbound

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/gofleet/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgrouter"
)

var errSequenceDisabled = errors.New("sequence generator requires the coordination store")

type HTTPEndpoint struct {
	timeOrdered timeOrderedUC
	sequence    sequenceUC
	machine     machineUC
}

func (h *HTTPEndpoint) MintTimeOrdered(ctx context.Context, _ *http.Request) (any, error) {
	id, err := h.timeOrdered.NextID(ctx)
	if err != nil {
		return nil, err
	}

	return MintTimeOrderedResponse{ID: id}, nil
}

func (h *HTTPEndpoint) InspectTimeOrdered(ctx context.Context, _ *http.Request) (any, error) {
	id := strings.TrimSpace(pkgrouter.GetParam(ctx, "id"))
	if id == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	parts, err := h.timeOrdered.Parse(id)
	if err != nil {
		return nil, err
	}

	return TimeOrderedPartsResponse{
		ID:          parts.ID,
		TimestampMs: parts.TimestampMs,
		MachineSlot: parts.MachineSlot,
		Counter:     parts.Counter,
		WallClock:   parts.WallClock.Format(time.RFC3339Nano),
	}, nil
}

func (h *HTTPEndpoint) MintSequence(ctx context.Context, r *http.Request) (any, error) {
	if h.sequence == nil {
		return nil, pkgerror.NewUnavailable(errSequenceDisabled, "sequence ids unavailable")
	}

	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, pkgerror.NewInvalidInput(errors.New("invalid count"))
		}
		count = value
	}

	ids, err := h.sequence.NextIDs(ctx, count)
	if err != nil {
		return nil, err
	}

	return MintSequenceResponse{IDs: ids}, nil
}

func (h *HTTPEndpoint) InspectSequence(ctx context.Context, _ *http.Request) (any, error) {
	if h.sequence == nil {
		return nil, pkgerror.NewUnavailable(errSequenceDisabled, "sequence ids unavailable")
	}

	id := strings.TrimSpace(pkgrouter.GetParam(ctx, "id"))
	if id == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("id is required"))
	}

	parts, err := h.sequence.Parse(id)
	if err != nil {
		return nil, err
	}

	return SequencePartsResponse{
		ID:       parts.ID,
		Sequence: parts.Sequence,
		Salt1:    parts.Salt1,
		Salt2:    parts.Salt2,
	}, nil
}

func (h *HTTPEndpoint) SequenceCounter(ctx context.Context, _ *http.Request) (any, error) {
	if h.sequence == nil {
		return nil, pkgerror.NewUnavailable(errSequenceDisabled, "sequence ids unavailable")
	}

	current, err := h.sequence.CurrentSequence(ctx)
	if err != nil {
		return nil, err
	}

	return SequenceCounterResponse{Current: current}, nil
}

func (h *HTTPEndpoint) Machine(_ context.Context, _ *http.Request) (any, error) {
	info := h.machine.Info()

	return MachineResponse{
		Slot:     info.Slot,
		Identity: info.Identity,
		Mode:     info.Mode,
	}, nil
}
