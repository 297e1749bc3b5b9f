// Package handler handles incoming Gateway events. It reflects the function's
// first argument and caches that for use in each event.
//
// Usage
//
// Handler's usage is mostly similar to Discordgo, in that AddHandler expects
// a function with only one argument. The only argument must be a pointer to
// an event struct, or an interface for all events:
//
//    h := handler.New()
//    h.AddHandler(func(*gateway.MessageCreateEvent) {})
//    h.AddHandler(func(interface{}) {}) // all events
//
// AddHandler returns a function that removes the handler when called.
package handler

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// ErrorHook is called when a handler callback panics. The panic is recovered
// so one broken listener can't take down the event loop or its siblings.
var ErrorHook = func(err error) { log.Println("handler error:", err) }

type Handler struct {
	// Synchronous controls whether to spawn each event handler in its own
	// goroutine. Default false (meaning goroutines are spawned).
	Synchronous bool

	mutex    sync.RWMutex
	handlers map[uint64]handler
	serial   uint64
}

func New() *Handler {
	return &Handler{
		handlers: map[uint64]handler{},
	}
}

// Call calls all handlers with the given event. This is an internal method;
// use with care.
func (h *Handler) Call(ev interface{}) {
	var evV = reflect.ValueOf(ev)
	var evT = evV.Type()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, handler := range h.handlers {
		if handler.not(evT) {
			continue
		}

		if h.Synchronous {
			handler.call(evV)
		} else {
			go handler.call(evV)
		}
	}
}

// WaitFor blocks until there's an event. It's advised to use ChanFor instead,
// as WaitFor may skip events if it is not ran fast enough after the event
// arrived.
func (h *Handler) WaitFor(ctx context.Context, fn func(interface{}) bool) interface{} {
	var result = make(chan interface{})

	cancel := h.AddHandler(func(v interface{}) {
		if fn(v) {
			select {
			case result <- v:
			case <-ctx.Done():
			}
		}
	})
	defer cancel()

	select {
	case r := <-result:
		return r
	case <-ctx.Done():
		return nil
	}
}

// ChanFor returns a channel that would receive all incoming events that match
// the callback given. The cancel() function removes the handler and drops all
// hanging goroutines.
func (h *Handler) ChanFor(ctx context.Context, fn func(interface{}) bool) <-chan interface{} {
	var result = make(chan interface{})

	cancel := h.AddHandler(func(v interface{}) {
		if fn(v) {
			select {
			case result <- v:
			case <-ctx.Done():
			}
		}
	})

	// Drop the handler when the context expires.
	go func() {
		<-ctx.Done()
		cancel()
	}()

	return result
}

// AddHandler adds the handler, returning a function that would remove this
// handler when called. A handler type is either a single-argument no-return
// function taking a pointer to an event struct, or an interface{} for all
// events. AddHandler panics when the handler type is invalid; refer to
// AddHandlerCheck for a non-panicking variant.
func (h *Handler) AddHandler(handler interface{}) (rm func()) {
	rm, err := h.addHandler(handler)
	if err != nil {
		panic(err)
	}
	return rm
}

// AddHandlerCheck adds the handler, but safe-guards reflect panics with a
// recoverer, returning the error.
func (h *Handler) AddHandlerCheck(handler interface{}) (rm func(), err error) {
	// Reflect would actually panic if anything is wrong, so this is just in
	// case.
	defer func() {
		if rec := recover(); rec != nil {
			if recErr, ok := rec.(error); ok {
				err = recErr
			} else {
				err = fmt.Errorf("%v", rec)
			}
		}
	}()

	return h.addHandler(handler)
}

func (h *Handler) addHandler(fn interface{}) (rm func(), err error) {
	// Reflect the handler
	r, err := newHandler(fn)
	if err != nil {
		return nil, errors.Wrap(err, "handler reflect failed")
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	// Get the current counter value and increment the counter
	serial := h.serial
	h.serial++

	// Use the serial for the map
	h.handlers[serial] = *r

	return func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()

		delete(h.handlers, serial)
	}, nil
}

type handler struct {
	event    reflect.Type
	callback reflect.Value
	isIface  bool
}

// newHandler reflects either a channel or a function into a handler. A
// function must only have a single argument being the event and no returns.
func newHandler(unknown interface{}) (*handler, error) {
	fnV := reflect.ValueOf(unknown)
	fnT := fnV.Type()

	// Check if it's a function
	if fnT.Kind() != reflect.Func {
		return nil, errors.New("given interface is not a function")
	}

	if fnT.NumIn() != 1 {
		return nil, errors.New("function must accept only one argument")
	}

	if fnT.NumOut() > 0 {
		return nil, errors.New("function must not return anything")
	}

	handler := handler{
		event:    fnT.In(0),
		callback: fnV,
	}

	kind := handler.event.Kind()

	// Accept either pointer type or interface{} type
	if kind != reflect.Ptr && kind != reflect.Interface {
		return nil, errors.New("first argument is not a pointer or interface")
	}

	handler.isIface = kind == reflect.Interface

	return &handler, nil
}

func (h handler) not(event reflect.Type) bool {
	if h.isIface {
		return !event.Implements(h.event)
	}

	return h.event != event
}

func (h handler) call(event reflect.Value) {
	defer func() {
		if rec := recover(); rec != nil {
			ErrorHook(fmt.Errorf("callback panic: %v", rec))
		}
	}()

	h.callback.Call([]reflect.Value{event})
}
