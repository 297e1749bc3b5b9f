package wsutil

import (
	"github.com/pkg/errors"

	gorillaws "github.com/gorilla/websocket"
	nhooyrws "nhooyr.io/websocket"
)

// CloseStatus extracts the websocket close code carried by err, regardless
// of the driver that produced it. It returns -1 if err carries none.
func CloseStatus(err error) int {
	var gorilla *gorillaws.CloseError
	if errors.As(err, &gorilla) {
		return gorilla.Code
	}

	if code := nhooyrws.CloseStatus(err); code != -1 {
		return int(code)
	}

	return -1
}
