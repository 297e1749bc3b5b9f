package gateway

import "sync/atomic"

// Sequence is the last dispatch sequence number, shared by the heartbeater
// and the resume payload.
type Sequence struct {
	seq int64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Get() int64 {
	return atomic.LoadInt64(&s.seq)
}

func (s *Sequence) Set(seq int64) {
	atomic.StoreInt64(&s.seq, seq)
}
