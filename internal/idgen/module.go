package idgen

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofleet/internal/idgen/coordinator"
	"github.com/shandysiswandi/gofleet/internal/idgen/inbound"
	"github.com/shandysiswandi/gofleet/internal/idgen/store"
	"github.com/shandysiswandi/gofleet/internal/idgen/usecase"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgroutine"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	Redis     *redis.Client // nil when the coordination store is disabled
}

// New wires the ID-generation module: coordination store client, machine
// lease coordinator, both generators, and the HTTP endpoints. The returned
// closer releases the machine lease on shutdown.
//
// Acquisition happens here, at startup: a fleet-wide slot exhaustion aborts
// module init so the service never comes up unable to issue IDs.
func New(dep Dependency) (func(context.Context) error, error) {
	var kv store.KV
	if dep.Redis != nil {
		kv = store.NewRedis(dep.Redis)
	}

	coord := coordinator.New(kv, dep.Goroutine, coordinator.Config{
		KeyPrefix:         dep.Config.GetString("idgen.machine.key_prefix"),
		AppName:           dep.Config.GetString("idgen.machine.app_name"),
		ExplicitSlot:      int(dep.Config.GetInt("idgen.machine.slot")),
		HeartbeatInterval: time.Duration(dep.Config.GetInt("idgen.machine.heartbeat_interval_ms")) * time.Millisecond,
		LeaseTTL:          time.Duration(dep.Config.GetInt("idgen.machine.lease_ttl_ms")) * time.Millisecond,
	})

	if _, err := coord.Acquire(dep.Context); err != nil {
		return nil, err
	}

	timeOrdered := usecase.NewTimeOrdered(usecase.TimeOrderedDependency{
		Slots:           coord,
		EpochMs:         dep.Config.GetInt("idgen.timeordered.epoch_ms"),
		RollbackTimeout: time.Duration(dep.Config.GetInt("idgen.timeordered.rollback_timeout_ms")) * time.Millisecond,
	})

	machine := usecase.NewMachine(coord)

	if kv == nil {
		inbound.RegisterHTTPEndpoint(dep.Router, timeOrdered, nil, machine)
	} else {
		sequence := usecase.NewSequence(usecase.SequenceDependency{
			KV:         kv,
			CounterKey: dep.Config.GetString("idgen.sequence.key"),
			BatchSize:  dep.Config.GetInt("idgen.sequence.batch_size"),
		})
		inbound.RegisterHTTPEndpoint(dep.Router, timeOrdered, sequence, machine)
	}

	return func(ctx context.Context) error {
		coord.Release(ctx)
		return nil
	}, nil
}
