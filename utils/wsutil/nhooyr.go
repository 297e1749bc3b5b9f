package wsutil

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"nhooyr.io/websocket"
)

// NhooyrConn is an alternative Connection implementation on top of
// nhooyr.io/websocket. It behaves like the default Conn, including the
// frame-spanning zlib decompression context.
type NhooyrConn struct {
	mutex sync.Mutex

	Conn *websocket.Conn

	cancel context.CancelFunc
	events chan Event
}

var _ Connection = (*NhooyrConn)(nil)

// NewNhooyrConn creates a new undialed nhooyr-backed connection.
func NewNhooyrConn() *NhooyrConn {
	return &NhooyrConn{}
}

func (c *NhooyrConn) Dial(ctx context.Context, addr string) error {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return errors.Wrap(err, "failed to dial WS")
	}

	// The gateway's payloads regularly exceed the library's 32KB default.
	conn.SetReadLimit(32 << 20)

	readCtx, cancel := context.WithCancel(context.Background())

	events := make(chan Event, WSBuffer)
	go nhooyrReadLoop(readCtx, conn, events)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.Conn = conn
	c.cancel = cancel
	c.events = events

	return nil
}

func (c *NhooyrConn) Listen() <-chan Event {
	return c.events
}

func (c *NhooyrConn) Send(ctx context.Context, b []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.Conn == nil {
		return ErrWebsocketClosed
	}

	return c.Conn.Write(ctx, websocket.MessageText, b)
}

func (c *NhooyrConn) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.Conn == nil {
		return ErrWebsocketClosed
	}

	// A non-1000/1001 close code keeps the gateway session resumable.
	err := c.Conn.Close(websocket.StatusCode(4000), "")
	c.cancel()

	for range c.events {
	}

	c.Conn = nil

	return err
}

func nhooyrReadLoop(ctx context.Context, conn *websocket.Conn, eventCh chan<- Event) {
	defer close(eventCh)

	var zr io.ReadCloser
	var buf bytes.Buffer
	buf.Grow(CopyBufferSize)

	for {
		t, r, err := conn.Reader(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return
			}

			eventCh <- Event{nil, errors.Wrap(err, "WS error")}
			return
		}

		if t == websocket.MessageBinary {
			if zr == nil {
				z, err := zlib.NewReader(r)
				if err != nil {
					eventCh <- Event{nil, errors.Wrap(err, "failed to create a zlib reader")}
					return
				}
				zr = z
			} else {
				if err := zr.(zlib.Resetter).Reset(r, nil); err != nil {
					eventCh <- Event{nil, errors.Wrap(err, "failed to reset zlib reader")}
					return
				}
			}

			r = zr
		}

		buf.Reset()
		if _, err := buf.ReadFrom(r); err != nil {
			eventCh <- Event{nil, errors.Wrap(err, "WS read error")}
			return
		}

		if buf.Len() == 0 {
			continue
		}

		cpy := make([]byte, buf.Len())
		copy(cpy, buf.Bytes())

		eventCh <- Event{cpy, nil}
	}
}
