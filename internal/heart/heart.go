// Package heart implements a general purpose pacemaker.
package heart

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Debug is the default logger that Pacemaker uses.
var Debug = func(v ...interface{}) {}

// ErrDead is returned by Pacemaker.Pace once the peer has failed to
// acknowledge two consecutive heartbeats.
var ErrDead = errors.New("heartbeat ack timeout")

// MaxMissedAcks is the number of consecutive unacknowledged heartbeats that
// the pacemaker tolerates before declaring the connection dead.
const MaxMissedAcks = 2

// AtomicTime is a thread-safe UnixNano timestamp guarded by atomic.
type AtomicTime struct {
	unixnano int64
}

func (t *AtomicTime) Get() int64 {
	return atomic.LoadInt64(&t.unixnano)
}

func (t *AtomicTime) Set(time time.Time) {
	atomic.StoreInt64(&t.unixnano, time.UnixNano())
}

func (t *AtomicTime) Time() time.Time {
	return time.Unix(0, t.Get())
}

// Pacemaker drives a periodic heartbeat and tracks whether each beat was
// acknowledged by the peer.
type Pacemaker struct {
	// Heartrate is the received duration between heartbeats.
	Heartrate time.Duration

	// Time in nanoseconds, guarded by atomic read/writes.
	SentBeat AtomicTime
	EchoBeat AtomicTime

	// misses counts consecutive heartbeats without an acknowledgement.
	misses uint32

	// Pacer is the callback that sends a heartbeat to the peer.
	Pacer func() error
}

func NewPacemaker(heartrate time.Duration, pacer func() error) *Pacemaker {
	p := &Pacemaker{
		Heartrate: heartrate,
		Pacer:     pacer,
	}
	// Reset states to be zero-value.
	now := time.Now()
	p.EchoBeat.Set(now)
	p.SentBeat.Set(now)

	return p
}

// Echo marks the last sent heartbeat as acknowledged.
func (p *Pacemaker) Echo() {
	atomic.StoreUint32(&p.misses, 0)
	p.EchoBeat.Set(time.Now())
	Debug("Pacemaker received an echo.")
}

// Dead reports whether the peer has missed too many acknowledgements.
func (p *Pacemaker) Dead() bool {
	return atomic.LoadUint32(&p.misses) >= MaxMissedAcks
}

// Misses returns the current consecutive missed-acknowledgement count.
func (p *Pacemaker) Misses() int {
	return int(atomic.LoadUint32(&p.misses))
}

// Pace sends a heartbeat. If the previous heartbeat was never acknowledged,
// the miss counter is incremented first; once it reaches MaxMissedAcks, Pace
// returns ErrDead and the caller is expected to tear the connection down.
func (p *Pacemaker) Pace() error {
	// An unacknowledged previous beat counts as a miss.
	if p.EchoBeat.Get() < p.SentBeat.Get() {
		if atomic.AddUint32(&p.misses, 1) >= MaxMissedAcks {
			return ErrDead
		}
		Debug("Pacemaker missed an echo.")
	}

	if err := p.Pacer(); err != nil {
		return err
	}

	p.SentBeat.Set(time.Now())
	Debug("Pacemaker paced.")

	return nil
}
