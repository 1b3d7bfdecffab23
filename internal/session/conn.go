package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// conn is one connection generation. The token makes handle identity
// explicit: a close is only honored while the handle is still the one the
// client owns, so a superseded handle can never close the active transport.
type conn struct {
	ws    *websocket.Conn
	token string

	// gorilla permits a single concurrent writer; sends arrive from the
	// caller, the read loop (corrective messages) and gatekeeper goroutines.
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws, token: uuid.NewString()}
}

func (c *conn) writeJSON(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// extractCloseReason surfaces the service-native error text from a close
// reason by stripping the "ERROR]" marker and any prefix framing before it.
func extractCloseReason(reason string) string {
	if !strings.Contains(strings.ToLower(reason), "error") {
		return reason
	}
	const marker = "ERROR]"
	i := strings.Index(reason, marker)
	if i < 0 {
		return reason
	}
	rest := reason[i+len(marker):]
	rest = strings.TrimPrefix(rest, " ")
	return rest
}
