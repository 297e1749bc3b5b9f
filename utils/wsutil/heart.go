package wsutil

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/internal/heart"
	"github.com/Rapptz/discord.py-sub002/internal/moreatomic"
)

type errBrokenConnection struct {
	underneath error
}

// Error formats the broken connection error with the message "explicit
// connection break."
func (err errBrokenConnection) Error() string {
	return "explicit connection break: " + err.underneath.Error()
}

// Unwrap returns the underlying error.
func (err errBrokenConnection) Unwrap() error {
	return err.underneath
}

// ErrBrokenConnection marks the given error as a broken connection error.
// This error will cause the pacemaker loop to break and return the error.
func ErrBrokenConnection(err error) error {
	return errBrokenConnection{underneath: err}
}

// IsBrokenConnection returns true if the error is a broken connection error.
func IsBrokenConnection(err error) bool {
	var broken errBrokenConnection
	return errors.As(err, &broken)
}

// EventLoopHandler handles the events and heartbeats of a pacemaker loop.
type EventLoopHandler interface {
	EventHandler
	Heartbeat() error
}

// PacemakerLoop provides an event loop with a pacemaker. A zero-value
// instance is a valid instance only when RunAsync is called first.
//
// The heartbeat timer and the event reads share one select loop, so closing
// the connection cancels both at once.
type PacemakerLoop struct {
	*heart.Pacemaker
	running moreatomic.Bool

	stop    chan struct{}
	events  <-chan Event
	handler func(*OP) error

	Extras ExtraHandlers

	ErrorLog func(error)
}

func (p *PacemakerLoop) errorLog(err error) {
	if p.ErrorLog == nil {
		WSDebug("Uncaught error:", err)
		return
	}

	p.ErrorLog(err)
}

// Stop stops the pacer loop. It does nothing if the loop is already stopped.
func (p *PacemakerLoop) Stop() {
	if p.Stopped() {
		return
	}

	close(p.stop)
}

func (p *PacemakerLoop) Stopped() bool {
	return p == nil || !p.running.Get()
}

func (p *PacemakerLoop) RunAsync(
	heartrate time.Duration, evs <-chan Event, evl EventLoopHandler, exit func(error)) {

	WSDebug("Starting the pacemaker loop.")

	p.Pacemaker = heart.NewPacemaker(heartrate, evl.Heartbeat)
	p.handler = evl.HandleOP
	p.events = evs
	p.stop = make(chan struct{})

	p.running.Set(true)

	go func() {
		exit(p.startLoop())
	}()
}

func (p *PacemakerLoop) startLoop() error {
	defer WSDebug("Pacemaker loop has exited.")
	defer p.running.Set(false)

	// The first heartbeat fires after a random fraction of the heartrate,
	// so that a fleet of fresh connections doesn't beat in sync.
	jitter := time.Duration(rand.Float64() * float64(p.Pacemaker.Heartrate))
	timer := time.NewTimer(jitter)
	defer timer.Stop()

	beats := timer.C

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-p.stop:
			WSDebug("Stop requested; exiting.")
			return nil

		case <-beats:
			if ticker == nil {
				// First beat sent; steady heartrate from here on.
				ticker = time.NewTicker(p.Pacemaker.Heartrate)
				beats = ticker.C
			}

			if err := p.Pacemaker.Pace(); err != nil {
				return errors.Wrap(err, "pace failed, reconnecting")
			}

		case ev, ok := <-p.events:
			if !ok {
				WSDebug("Events channel closed, stopping pacemaker.")
				return nil
			}

			if ev.Error != nil {
				return errors.Wrap(ev.Error, "event returned error")
			}

			o, err := DecodeOP(ev)
			if err != nil {
				// Malformed frame. Log and carry on; the connection is
				// still healthy.
				p.errorLog(errors.Wrap(err, "failed to decode OP"))
				continue
			}

			// Check the events before handling.
			p.Extras.Check(o)

			// Handle the event
			if err := p.handler(o); err != nil {
				if IsBrokenConnection(err) {
					return errors.Wrap(err, "handler failed")
				}

				p.errorLog(err)
			}
		}
	}
}
