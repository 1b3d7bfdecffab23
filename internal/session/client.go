// Package session owns the live connection to the BidiGenerateContent
// endpoint: connect/handshake lifecycle, outbound sends, inbound frame
// classification and routing, and the content/audio demultiplexer.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/events"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/toolcall"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// DefaultHost is the generative language service host.
const DefaultHost = "generativelanguage.googleapis.com"

// bidiPath is the websocket path of the live endpoint.
const bidiPath = "/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"

// Endpoint builds the websocket URL for host, with the API key appended as a
// query parameter.
func Endpoint(host, apiKey string) string {
	if host == "" {
		host = DefaultHost
	}
	u := url.URL{
		Scheme:   "wss",
		Host:     host,
		Path:     bidiPath,
		RawQuery: url.Values{"key": {apiKey}}.Encode(),
	}
	return u.String()
}

// State is the transport lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Options wires a Client's collaborators.
type Options struct {
	// Endpoint is the full websocket URL including the key query parameter.
	Endpoint string

	// Dispatcher receives classified inbound events. Required.
	Dispatcher *events.Dispatcher

	// Sink receives streaming log entries. Defaults to NopSink.
	Sink logging.Sink

	// Convention is the permitted calling shape used for tool-call
	// validation and corrective messages.
	Convention toolcall.Convention

	// Fetcher executes valid tool calls. When nil no gatekeeper is
	// attached and tool-call frames are only published, never answered.
	Fetcher toolcall.Fetcher
}

// Client holds at most one live connection to the endpoint. All exported
// methods are safe for concurrent use; inbound frames are processed on the
// read loop goroutine, one at a time, so event ordering follows frame order.
type Client struct {
	endpoint string
	display  string
	disp     *events.Dispatcher
	sink     logging.Sink
	gate     *toolcall.Gatekeeper
	demux    *demux

	mu      sync.Mutex
	current *conn
	state   State
	config  *wire.SessionConfig
}

// NewClient builds a disconnected client from opts.
func NewClient(opts Options) *Client {
	sink := opts.Sink
	if sink == nil {
		sink = logging.NopSink{}
	}

	c := &Client{
		endpoint: opts.Endpoint,
		display:  redactEndpoint(opts.Endpoint),
		disp:     opts.Dispatcher,
		sink:     sink,
	}
	if opts.Fetcher != nil {
		c.gate = toolcall.NewGatekeeper(opts.Convention, opts.Fetcher, c, sink)
	}
	c.demux = &demux{
		disp: opts.Dispatcher,
		sink: sink,
		conv: opts.Convention,
		send: c.Send,
	}
	return c
}

// redactEndpoint strips the query string (it carries the API key) for error
// messages and logs.
func redactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.RawQuery = ""
	return u.String()
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns the session config of the current connection attempt, or
// nil while disconnected. The config is never mutated, only discarded.
func (c *Client) Config() *wire.SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Connect dials the endpoint and sends the setup frame for config. It
// returns once the open+send sequence completes; SetupComplete arrives later
// as a separate setupcomplete event. A connection already held is closed
// first. The config is held read-only for the attempt's duration.
func (c *Client) Connect(ctx context.Context, config *wire.SessionConfig) error {
	if config == nil {
		return ErrNoConfig
	}

	c.Disconnect()

	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("could not connect to %q: %w", c.display, err)
	}

	h := newConn(ws)
	c.mu.Lock()
	c.current = h
	c.config = config
	c.state = StateOpen
	c.mu.Unlock()

	c.log("client.open", "connected to socket")
	c.disp.Open.Publish(struct{}{})

	// Handshake is fire-and-forget: the setup frame goes out immediately and
	// unconditionally once the transport is open.
	if err := c.sendFrame(wire.NewSetup(config)); err != nil {
		c.disconnect(h)
		return fmt.Errorf("send setup: %w", err)
	}
	c.log("client.send", "setup")

	go c.readLoop(h)
	return nil
}

// Disconnect closes the currently owned transport, if any. It reports
// whether a close actually occurred and is safe to call repeatedly.
func (c *Client) Disconnect() bool {
	c.mu.Lock()
	h := c.current
	c.mu.Unlock()
	return c.disconnect(h)
}

// disconnect closes h only while it is still the owned connection. A stale
// handle from a superseded attempt returns false and leaves the live
// transport untouched.
func (c *Client) disconnect(h *conn) bool {
	if h == nil {
		return false
	}

	c.mu.Lock()
	if c.current == nil || c.current.token != h.token {
		c.mu.Unlock()
		return false
	}
	c.current = nil
	c.config = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	h.ws.Close()
	c.log("client.close", "disconnected")
	return true
}

// Send wraps parts into a single user turn and sends it.
func (c *Client) Send(parts []wire.Part, turnComplete bool) error {
	if err := c.sendFrame(wire.NewClientContent(parts, turnComplete)); err != nil {
		return err
	}
	c.log("client.send", "clientContent")
	return nil
}

// SendRealtimeInput streams media chunks into the session.
func (c *Client) SendRealtimeInput(chunks []wire.Blob) error {
	if err := c.sendFrame(wire.NewRealtimeInput(chunks)); err != nil {
		return err
	}
	c.log("client.realtimeInput", wire.ChunkLabel(chunks))
	return nil
}

// SendToolResponse answers tool calls. Implements toolcall.Sender.
func (c *Client) SendToolResponse(entries []wire.FunctionResponse) error {
	if err := c.sendFrame(wire.NewToolResponse(entries)); err != nil {
		return err
	}
	c.log("client.toolResponse", fmt.Sprintf("%d entries", len(entries)))
	return nil
}

// sendFrame marshals v and writes it to the owned connection. Sends are
// synchronous and fail fast when no transport is open — no queueing, no
// retry.
func (c *Client) sendFrame(v any) error {
	c.mu.Lock()
	h := c.current
	c.mu.Unlock()
	if h == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := h.writeJSON(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readLoop drains h until the transport closes, handing each text frame to
// handleFrame.
func (c *Client) readLoop(h *conn) {
	for {
		_, data, err := h.ws.ReadMessage()
		if err != nil {
			c.handleClose(h, err)
			return
		}
		c.handleFrame(data)
	}
}

// handleClose tears down h if it is still owned and publishes the close
// event with the cleaned reason.
func (c *Client) handleClose(h *conn, err error) {
	code := websocket.CloseNoStatusReceived
	reason := ""
	if closeErr, ok := err.(*websocket.CloseError); ok {
		code = closeErr.Code
		reason = extractCloseReason(closeErr.Text)
	}

	if !c.disconnect(h) {
		return
	}
	c.log("server.close", fmt.Sprintf("disconnected %s", reason))
	c.disp.Close.Publish(events.CloseEvent{Code: code, Reason: reason})
}

// handleFrame decodes one inbound frame and routes it by variant.
func (c *Client) handleFrame(data []byte) {
	msg, err := wire.DecodeInbound(data)
	if err != nil {
		c.log("server.error", err.Error())
		return
	}

	switch msg.Kind {
	case wire.KindToolCall:
		c.log("server.toolCall", json.RawMessage(msg.Raw))
		// The raw frame is published before validation so observers can
		// audit rejected requests too.
		c.disp.ToolCall.Publish(*msg.ToolCall)
		if c.gate != nil {
			// A pending fetch batch must not serialize later frames.
			go c.gate.HandleToolCall(context.Background(), *msg.ToolCall)
		}

	case wire.KindToolCallCancellation:
		c.log("server.toolCallCancellation", msg.ToolCallCancellation.IDs)
		c.disp.ToolCallCancellation.Publish(msg.ToolCallCancellation.IDs)

	case wire.KindSetupComplete:
		c.mu.Lock()
		if c.state == StateOpen {
			c.state = StateReady
		}
		c.mu.Unlock()
		c.log("server.setupComplete", nil)
		c.disp.SetupComplete.Publish(struct{}{})

	case wire.KindServerContent:
		c.handleServerContent(msg.ServerContent)

	default:
		c.log("server.unrecognized", string(msg.Raw))
	}
}

func (c *Client) handleServerContent(sc *wire.ServerContent) {
	if sc.Interrupted {
		c.log("server.interrupted", nil)
		c.disp.Interrupted.Publish(struct{}{})
		return
	}
	if sc.TurnComplete {
		c.log("server.turnComplete", nil)
		c.disp.TurnComplete.Publish(struct{}{})
	}
	if sc.ModelTurn != nil {
		c.demux.process(sc.ModelTurn.Parts)
	}
}

// log writes an entry to the injected sink and mirrors it on the dispatcher's
// log event, which exists purely for external consumption.
func (c *Client) log(category string, payload any) {
	entry := logging.NewEntry(category, payload)
	c.sink.Log(entry)
	c.disp.Log.Publish(entry)
}
