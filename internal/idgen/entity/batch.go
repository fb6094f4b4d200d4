package entity

// SequenceBatch is a contiguous range of the shared counter reserved by one
// instance. It lives only in process memory; values left unused when the
// process exits are burned, never returned to the store.
type SequenceBatch struct {
	Start   uint64
	End     uint64
	Current uint64
}

// Remaining reports how many values are still available in the batch.
func (b SequenceBatch) Remaining() uint64 {
	if b.Current > b.End {
		return 0
	}
	return b.End - b.Current + 1
}

// Take returns the next value and advances the batch. The second return is
// false when the batch is exhausted (including the zero value).
func (b *SequenceBatch) Take() (uint64, bool) {
	if b.End == 0 || b.Current > b.End {
		return 0, false
	}

	v := b.Current
	b.Current++

	return v, true
}
