package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
	"github.com/shandysiswandi/gofleet/internal/idgen/store"
)

type goRunner struct{}

func (goRunner) Go(ctx context.Context, f func(ctx context.Context) error) {
	go func() {
		_ = f(ctx)
	}()
}

var errStoreDown = errors.New("store down")

type downKV struct{}

func (downKV) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errStoreDown
}
func (downKV) Set(context.Context, string, string, time.Duration) error { return errStoreDown }
func (downKV) Get(context.Context, string) (string, error)              { return "", errStoreDown }
func (downKV) Del(context.Context, string) error                        { return errStoreDown }
func (downKV) Keys(context.Context, string) ([]string, error)           { return nil, errStoreDown }
func (downKV) Exists(context.Context, string) (bool, error)             { return false, errStoreDown }
func (downKV) IncrBy(context.Context, string, int64) (int64, error)     { return 0, errStoreDown }

func testConfig() Config {
	return Config{
		KeyPrefix:         "test:machines:",
		AppName:           "gofleet-test",
		ExplicitSlot:      -1,
		HeartbeatInterval: time.Minute,
		LeaseTTL:          4 * time.Minute,
	}
}

func TestAcquireFirstFreeSlot(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	for slot := 0; slot < 3; slot++ {
		key := fmt.Sprintf("test:machines:%d", slot)
		if err := kv.Set(ctx, key, "someone-else", time.Minute); err != nil {
			t.Fatalf("seed slot %d: %v", slot, err)
		}
	}

	coord := New(kv, nil, testConfig())

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if slot != 3 {
		t.Fatalf("expected slot 3, got %d", slot)
	}
	if coord.Mode() != entity.SlotModeLeased {
		t.Fatalf("expected LEASED mode, got %s", coord.Mode())
	}

	owner, err := kv.Get(ctx, "test:machines:3")
	if err != nil {
		t.Fatalf("Get lease: %v", err)
	}
	if owner != coord.Identity() {
		t.Fatalf("lease owner %q != identity %q", owner, coord.Identity())
	}

	current, err := coord.CurrentSlot()
	if err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if current != slot {
		t.Fatalf("CurrentSlot %d != acquired %d", current, slot)
	}
}

func TestAcquireRaceExclusive(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	const racers = 8
	slots := make([]uint16, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coord := New(kv, nil, testConfig())
			slot, err := coord.Acquire(ctx)
			if err != nil {
				t.Errorf("racer %d: %v", i, err)
				return
			}
			slots[i] = slot
		}(i)
	}
	wg.Wait()

	seen := make(map[uint16]int)
	for i, slot := range slots {
		if prev, ok := seen[slot]; ok {
			t.Fatalf("racers %d and %d both got slot %d", prev, i, slot)
		}
		seen[slot] = i
	}
}

func TestAcquireExhausted(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	for slot := 0; slot <= int(entity.MaxMachineSlot); slot++ {
		key := fmt.Sprintf("test:machines:%d", slot)
		if err := kv.Set(ctx, key, "someone-else", time.Minute); err != nil {
			t.Fatalf("seed slot %d: %v", slot, err)
		}
	}

	coord := New(kv, nil, testConfig())

	if _, err := coord.Acquire(ctx); !errors.Is(err, ErrSlotsExhausted) {
		t.Fatalf("expected ErrSlotsExhausted, got %v", err)
	}
}

func TestAcquireFallbackWithoutStore(t *testing.T) {
	ctx := context.Background()

	first := New(nil, nil, testConfig())
	second := New(nil, nil, testConfig())

	slotA, err := first.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	slotB, err := second.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if slotA != slotB {
		t.Fatalf("fallback slot must be deterministic: %d != %d", slotA, slotB)
	}
	if first.Mode() != entity.SlotModeFallback {
		t.Fatalf("expected FALLBACK mode, got %s", first.Mode())
	}
}

func TestFallbackSlotDeterministic(t *testing.T) {
	coord := New(nil, nil, testConfig())

	first := coord.fallbackSlot()
	for i := 0; i < 100; i++ {
		if got := coord.fallbackSlot(); got != first {
			t.Fatalf("fallback slot changed between computations: %d != %d", got, first)
		}
	}
	if first > entity.MaxMachineSlot {
		t.Fatalf("fallback slot out of range: %d", first)
	}
}

func TestAcquireFallbackWhenStoreUnreachable(t *testing.T) {
	ctx := context.Background()

	coord := New(downKV{}, nil, testConfig())

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if slot > entity.MaxMachineSlot {
		t.Fatalf("fallback slot out of range: %d", slot)
	}
	if coord.Mode() != entity.SlotModeFallback {
		t.Fatalf("expected FALLBACK mode, got %s", coord.Mode())
	}
}

func TestAcquireExplicitSlot(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	cfg := testConfig()
	cfg.ExplicitSlot = 7

	coord := New(kv, nil, cfg)

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if slot != 7 {
		t.Fatalf("expected explicit slot 7, got %d", slot)
	}
	if coord.Mode() != entity.SlotModeExplicit {
		t.Fatalf("expected EXPLICIT mode, got %s", coord.Mode())
	}
}

func TestCurrentSlotBeforeAcquire(t *testing.T) {
	coord := New(store.NewInMemoryStore(), nil, testConfig())

	if _, err := coord.CurrentSlot(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestReleaseDeletesOwnLease(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	coord := New(kv, nil, testConfig())

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	key := fmt.Sprintf("test:machines:%d", slot)

	coord.Release(ctx)

	if _, err := kv.Get(ctx, key); !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected lease to be deleted, got %v", err)
	}

	// idempotent
	coord.Release(ctx)

	if _, err := coord.CurrentSlot(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after release, got %v", err)
	}
}

func TestReleaseKeepsForeignLease(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	coord := New(kv, nil, testConfig())

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	key := fmt.Sprintf("test:machines:%d", slot)

	// Lease expired in the store and another instance took the slot over.
	if err := kv.Set(ctx, key, "new-owner", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	coord.Release(ctx)

	owner, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if owner != "new-owner" {
		t.Fatalf("release must not delete a foreign lease, owner is %q", owner)
	}
}

func TestHeartbeatRenewsLease(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore()

	cfg := testConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.LeaseTTL = 50 * time.Millisecond

	coord := New(kv, goRunner{}, cfg)

	slot, err := coord.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer coord.Release(ctx)

	key := fmt.Sprintf("test:machines:%d", slot)

	// Well past the TTL; heartbeats must have kept the lease alive.
	time.Sleep(120 * time.Millisecond)

	exists, err := kv.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("expected heartbeat to keep the lease alive")
	}
}
