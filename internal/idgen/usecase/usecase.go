package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgerror"
)

var (
	// ErrClockRollback means the clock stayed behind the last issued
	// timestamp for longer than the configured wait. The caller may retry
	// later; issuing anyway could duplicate IDs.
	ErrClockRollback = errors.New("clock moved backwards beyond the rollback wait")

	// ErrTimestampOverflow means the 41-bit timestamp field is exhausted.
	ErrTimestampOverflow = errors.New("timestamp exceeds 41-bit range")
)

// pollInterval paces the sleep-and-recheck loops that wait for the clock.
const pollInterval = time.Millisecond

// Clock abstracts the time source so rollback and counter-overflow behavior
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SlotProvider supplies the leased machine slot (satisfied by
// coordinator.Coordinator).
type SlotProvider interface {
	CurrentSlot() (uint16, error)
}

type TimeOrderedDependency struct {
	Slots           SlotProvider
	Clock           Clock
	Sleep           func(time.Duration)
	EpochMs         int64
	RollbackTimeout time.Duration
}

// TimeOrdered issues 64-bit IDs laid out as epoch-relative milliseconds,
// machine slot, and a per-millisecond counter. No store round-trip is made
// per call; uniqueness rests on the exclusivity of the machine slot.
//
// All state is guarded by one mutex; the critical section is a few compares
// and an increment except while waiting out a clock anomaly.
type TimeOrdered struct {
	slots           SlotProvider
	clock           Clock
	sleep           func(time.Duration)
	epochMs         int64
	rollbackTimeout time.Duration

	mu      sync.Mutex
	lastTs  int64
	counter uint16
}

func NewTimeOrdered(dep TimeOrderedDependency) *TimeOrdered {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	sleep := dep.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	epochMs := dep.EpochMs
	if epochMs <= 0 {
		epochMs = entity.DefaultEpochMs
	}

	rollbackTimeout := dep.RollbackTimeout
	if rollbackTimeout <= 0 {
		rollbackTimeout = 2 * time.Second
	}

	return &TimeOrdered{
		slots:           dep.Slots,
		clock:           clock,
		sleep:           sleep,
		epochMs:         epochMs,
		rollbackTimeout: rollbackTimeout,
		lastTs:          -1,
	}
}

// NextID issues the next time-ordered ID as a decimal string. Strings keep
// callers with sub-64-bit number types from silently rounding the value.
//
// The machine slot must already be acquired; calling earlier fails fast
// rather than emitting a malformed ID.
func (u *TimeOrdered) NextID(ctx context.Context) (string, error) {
	slot, err := u.slots.CurrentSlot()
	if err != nil {
		return "", pkgerror.NewUnavailable(err, "machine slot not ready")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.nowMs()

	if now < u.lastTs {
		now, err = u.waitForCatchUp(now)
		if err != nil {
			return "", pkgerror.NewTimeout(err, "clock rollback")
		}
	}

	if now == u.lastTs {
		if u.counter == entity.MaxCounter {
			// Counter space for this millisecond is spent; the wait
			// resolves itself within about a millisecond.
			for now <= u.lastTs {
				u.sleep(pollInterval)
				now = u.nowMs()
			}
			u.counter = 0
		} else {
			u.counter++
		}
	} else {
		u.counter = 0
	}

	if now > entity.MaxTimestamp {
		return "", pkgerror.NewUnavailable(ErrTimestampOverflow, "timestamp space exhausted")
	}

	u.lastTs = now

	id := entity.TimeOrderedID{
		TimestampMs: now,
		MachineSlot: slot,
		Counter:     u.counter,
	}

	return strconv.FormatUint(id.Pack(), 10), nil
}

// waitForCatchUp re-samples the clock until it reaches lastTs or the rollback
// budget runs out. Callers hold mu.
func (u *TimeOrdered) waitForCatchUp(now int64) (int64, error) {
	var waited time.Duration
	for now < u.lastTs {
		if waited >= u.rollbackTimeout {
			return 0, ErrClockRollback
		}
		u.sleep(pollInterval)
		waited += pollInterval
		now = u.nowMs()
	}

	return now, nil
}

// Parse decomposes a time-ordered ID produced by NextID. Pure bit extraction,
// no I/O.
func (u *TimeOrdered) Parse(id string) (TimeOrderedParts, error) {
	raw, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return TimeOrderedParts{}, pkgerror.NewInvalidInput(err)
	}

	parts, err := entity.UnpackTimeOrdered(raw)
	if err != nil {
		return TimeOrderedParts{}, pkgerror.NewInvalidInput(err)
	}

	return TimeOrderedParts{
		ID:          id,
		TimestampMs: parts.TimestampMs,
		MachineSlot: parts.MachineSlot,
		Counter:     parts.Counter,
		WallClock:   parts.WallClock(u.epochMs),
	}, nil
}

func (u *TimeOrdered) nowMs() int64 {
	return u.clock.Now().UnixMilli() - u.epochMs
}
