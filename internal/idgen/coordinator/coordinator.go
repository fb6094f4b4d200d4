package coordinator

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
	"github.com/shandysiswandi/gofleet/internal/idgen/store"
)

var (
	// ErrSlotsExhausted means every machine slot in [0, 1023] is leased by
	// another live instance. This is fatal for the time-ordered generator.
	ErrSlotsExhausted = errors.New("all machine slots are taken")

	// ErrNotReady means Acquire has not completed successfully yet.
	ErrNotReady = errors.New("machine slot not acquired yet")
)

// Runner schedules background work (satisfied by pkgroutine.Manager).
type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Config struct {
	// KeyPrefix prefixes the per-slot lease keys in the store.
	KeyPrefix string
	// AppName feeds the fallback hash so two applications sharing a host
	// do not derive the same slot.
	AppName string
	// ExplicitSlot, when in [0, 1023], overrides both the store-based and
	// the hash-based assignment. Negative means unset.
	ExplicitSlot int
	// HeartbeatInterval is how often the lease is renewed. It must be
	// shorter than LeaseTTL or the lease expires between renewals.
	HeartbeatInterval time.Duration
	// LeaseTTL is the store-side expiry on the lease record.
	LeaseTTL time.Duration
}

// Coordinator leases an exclusive machine slot from the coordination store
// and keeps it alive with a background heartbeat. When the store is absent or
// unreachable it degrades to a deterministic hash-derived slot, which cannot
// guarantee fleet-wide uniqueness.
type Coordinator struct {
	kv       store.KV
	cfg      Config
	identity string
	runner   Runner

	mu     sync.RWMutex
	slot   int // -1 until acquired
	mode   entity.SlotMode
	stopCh chan struct{}
}

func New(kv store.KV, runner Runner, cfg Config) *Coordinator {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	if cfg.LeaseTTL <= cfg.HeartbeatInterval {
		cfg.LeaseTTL = 4 * cfg.HeartbeatInterval
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "gofleet:machines:"
	}

	return &Coordinator{
		kv:       kv,
		cfg:      cfg,
		identity: InstanceIdentity(),
		runner:   runner,
		slot:     -1,
		stopCh:   make(chan struct{}),
	}
}

// Acquire obtains this instance's machine slot. It is meant to be called once
// at startup. An explicitly configured slot wins over everything; otherwise
// the store is scanned for a free slot; if the store is absent or unreachable
// the hash fallback is used. Only full slot exhaustion is fatal.
func (c *Coordinator) Acquire(ctx context.Context) (uint16, error) {
	if c.cfg.ExplicitSlot >= 0 && c.cfg.ExplicitSlot <= int(entity.MaxMachineSlot) {
		slot := uint16(c.cfg.ExplicitSlot)
		c.adopt(slot, entity.SlotModeExplicit)
		if c.kv != nil {
			if err := c.kv.Set(ctx, c.key(slot), c.identity, c.cfg.LeaseTTL); err != nil {
				slog.WarnContext(ctx, "failed to register explicit machine slot", "slot", slot, "error", err)
			}
			c.startHeartbeat(ctx)
		}
		return slot, nil
	}

	if c.kv == nil {
		slot := c.fallbackSlot()
		c.adopt(slot, entity.SlotModeFallback)
		slog.WarnContext(ctx, "coordination store disabled, using hash-derived machine slot",
			"slot", slot, "identity", c.identity)
		return slot, nil
	}

	slot, err := c.scan(ctx)
	if err != nil {
		if errors.Is(err, ErrSlotsExhausted) {
			return 0, err
		}

		slot = c.fallbackSlot()
		c.adopt(slot, entity.SlotModeFallback)
		slog.WarnContext(ctx, "coordination store unreachable, using hash-derived machine slot",
			"slot", slot, "identity", c.identity, "error", err)
		return slot, nil
	}

	c.adopt(slot, entity.SlotModeLeased)
	c.startHeartbeat(ctx)
	slog.InfoContext(ctx, "machine slot leased", "slot", slot, "identity", c.identity)

	return slot, nil
}

// scan walks candidate slots 0..1023 and claims the first free one with an
// atomic set-if-absent. Already-listed keys are re-checked with EXISTS so a
// lease that expired between the enumeration and the attempt is not skipped
// for nothing.
func (c *Coordinator) scan(ctx context.Context) (uint16, error) {
	listed, err := c.kv.Keys(ctx, c.cfg.KeyPrefix+"*")
	if err != nil {
		return 0, err
	}

	taken := make(map[string]struct{}, len(listed))
	for _, key := range listed {
		taken[key] = struct{}{}
	}

	for slot := 0; slot <= int(entity.MaxMachineSlot); slot++ {
		key := c.key(uint16(slot))

		if _, ok := taken[key]; ok {
			exists, err := c.kv.Exists(ctx, key)
			if err != nil {
				return 0, err
			}
			if exists {
				continue
			}
		}

		set, err := c.kv.SetNX(ctx, key, c.identity, c.cfg.LeaseTTL)
		if err != nil {
			return 0, err
		}
		if set {
			return uint16(slot), nil
		}
	}

	return 0, ErrSlotsExhausted
}

// CurrentSlot returns the acquired slot, or ErrNotReady before Acquire has
// completed.
func (c *Coordinator) CurrentSlot() (uint16, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.slot < 0 {
		return 0, ErrNotReady
	}

	return uint16(c.slot), nil
}

// Mode reports how the slot was obtained. Meaningful only after Acquire.
func (c *Coordinator) Mode() entity.SlotMode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.mode
}

// Identity returns this instance's lease-ownership token.
func (c *Coordinator) Identity() string {
	return c.identity
}

// Release gives the slot back: the lease record is deleted only if this
// instance still owns it. Best-effort and idempotent; failures are logged,
// the record will expire on its own.
func (c *Coordinator) Release(ctx context.Context) {
	c.mu.Lock()
	slot := c.slot
	mode := c.mode
	c.slot = -1
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	c.mu.Unlock()

	if slot < 0 || c.kv == nil || mode == entity.SlotModeFallback {
		return
	}

	key := c.key(uint16(slot))

	owner, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			slog.WarnContext(ctx, "failed to verify lease owner on release", "slot", slot, "error", err)
		}
		return
	}
	if owner != c.identity {
		return
	}

	if err := c.kv.Del(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to release machine slot", "slot", slot, "error", err)
		return
	}

	slog.InfoContext(ctx, "machine slot released", "slot", slot)
}

// startHeartbeat renews the lease on a fixed interval until Release or the
// root context stops it. Renewal failures are logged and retried on the next
// tick; the slot is kept optimistically until the TTL truly lapses in the
// store, so a brief dual-ownership window after a real expiry is possible and
// accepted.
func (c *Coordinator) startHeartbeat(ctx context.Context) {
	if c.runner == nil {
		return
	}

	c.runner.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(c.cfg.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-c.stopCh:
				return nil
			case <-ticker.C:
				c.renew(ctx)
			}
		}
	})
}

func (c *Coordinator) renew(ctx context.Context) {
	slot, err := c.CurrentSlot()
	if err != nil {
		return
	}

	if err := c.kv.Set(ctx, c.key(slot), c.identity, c.cfg.LeaseTTL); err != nil {
		slog.ErrorContext(ctx, "machine lease heartbeat failed", "slot", slot, "error", err)
	}
}

// fallbackSlot derives a slot from the instance identity and the application
// name. Deterministic for the same inputs, so an instance rederives the same
// slot across restarts, but collision with another instance is possible.
func (c *Coordinator) fallbackSlot() uint16 {
	idHash := fnv.New32a()
	idHash.Write([]byte(c.identity))

	appHash := fnv.New32a()
	appHash.Write([]byte(c.cfg.AppName))

	return uint16((idHash.Sum32() ^ appHash.Sum32()) % (uint32(entity.MaxMachineSlot) + 1))
}

func (c *Coordinator) adopt(slot uint16, mode entity.SlotMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slot = int(slot)
	c.mode = mode
}

func (c *Coordinator) key(slot uint16) string {
	return c.cfg.KeyPrefix + strconv.Itoa(int(slot))
}
