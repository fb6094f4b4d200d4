package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shandysiswandi/gofleet/internal/idgen/entity"
	"github.com/shandysiswandi/gofleet/internal/idgen/store"
	"github.com/shandysiswandi/gofleet/internal/pkg/pkgerror"
)

// ErrSequenceExhausted means the shared counter passed the 51-bit maximum.
// Wrapping would reuse already-issued sequence values, so issuance aborts.
var ErrSequenceExhausted = errors.New("sequence space exhausted")

const (
	// DefaultBatchSize is the number of sequence values reserved per store
	// round-trip. Bigger batches mean fewer round-trips and more values
	// burned when the process exits.
	DefaultBatchSize = 1000

	// MaxIDsPerCall bounds NextIDs.
	MaxIDsPerCall = 1000
)

type SequenceDependency struct {
	KV         store.KV
	CounterKey string
	BatchSize  int64
}

// Sequence issues 64-bit IDs from a globally monotonic counter kept in the
// coordination store. Round-trips are amortized by reserving whole batches
// with one atomic increment; IDs are then served from process memory. Two
// random 6-bit salts are appended for unpredictability.
//
// No clock is involved, so the scheme is immune to rollback, but its ID space
// is incompatible with the time-ordered one.
type Sequence struct {
	kv         store.KV
	counterKey string
	batchSize  int64

	mu          sync.Mutex
	initialized bool
	batch       entity.SequenceBatch
}

func NewSequence(dep SequenceDependency) *Sequence {
	batchSize := dep.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	counterKey := dep.CounterKey
	if counterKey == "" {
		counterKey = "gofleet:sequence:counter"
	}

	return &Sequence{
		kv:         dep.KV,
		counterKey: counterKey,
		batchSize:  batchSize,
	}
}

// NextID issues one centralized-sequence ID as a decimal string.
func (u *Sequence) NextID(ctx context.Context) (string, error) {
	ids, err := u.NextIDs(ctx, 1)
	if err != nil {
		return "", err
	}

	return ids[0], nil
}

// NextIDs issues up to MaxIDsPerCall IDs in one call. The sequence components
// are strictly increasing within the returned slice.
func (u *Sequence) NextIDs(ctx context.Context, count int) ([]string, error) {
	if count < 1 || count > MaxIDsPerCall {
		return nil, pkgerror.NewInvalidInput(fmt.Errorf("count must be between 1 and %d", MaxIDsPerCall))
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		seq, ok := u.batch.Take()
		if !ok {
			if err := u.refill(ctx); err != nil {
				return nil, err
			}
			seq, _ = u.batch.Take()
		}

		salt1, salt2, err := randomSalts()
		if err != nil {
			return nil, pkgerror.NewServer(err)
		}

		id := entity.SequenceID{Sequence: seq, Salt1: salt1, Salt2: salt2}
		ids = append(ids, strconv.FormatUint(id.Pack(), 10))
	}

	return ids, nil
}

// refill reserves the next batch with a single atomic increment. Safe under
// simultaneous refills from any number of processes because the store
// increment is atomic; the pre-/post-increment range is exclusively ours.
// Callers hold mu.
func (u *Sequence) refill(ctx context.Context) error {
	if !u.initialized {
		if _, err := u.kv.SetNX(ctx, u.counterKey, "0", 0); err != nil {
			return pkgerror.NewServer(err)
		}
		u.initialized = true
	}

	total, err := u.kv.IncrBy(ctx, u.counterKey, u.batchSize)
	if err != nil {
		return pkgerror.NewServer(err)
	}

	if total < 0 || uint64(total) > entity.MaxSequence {
		return pkgerror.NewUnavailable(ErrSequenceExhausted, "sequence space exhausted")
	}

	u.batch = entity.SequenceBatch{
		Start:   uint64(total - u.batchSize + 1),
		End:     uint64(total),
		Current: uint64(total - u.batchSize + 1),
	}

	return nil
}

// Parse decomposes a centralized-sequence ID produced by NextID.
func (u *Sequence) Parse(id string) (SequenceParts, error) {
	raw, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return SequenceParts{}, pkgerror.NewInvalidInput(err)
	}

	parts, err := entity.UnpackSequence(raw)
	if err != nil {
		return SequenceParts{}, pkgerror.NewInvalidInput(err)
	}

	return SequenceParts{
		ID:       id,
		Sequence: parts.Sequence,
		Salt1:    parts.Salt1,
		Salt2:    parts.Salt2,
	}, nil
}

// CurrentSequence reads the shared counter. Monitoring only; the value moves
// under concurrent reservers.
func (u *Sequence) CurrentSequence(ctx context.Context) (uint64, error) {
	value, err := u.kv.Get(ctx, u.counterKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, pkgerror.NewServer(err)
	}

	total, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, pkgerror.NewServer(err)
	}

	return total, nil
}

func randomSalts() (uint8, uint8, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, 0, err
	}

	return buf[0] & entity.MaxSalt, buf[1] & entity.MaxSalt, nil
}
