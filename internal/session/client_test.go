package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/events"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/toolcall"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

var upgrader = websocket.Upgrader{}

// newTestServer runs handler on each websocket connection and returns the
// ws:// URL to dial.
func newTestServer(t *testing.T, handler func(ws *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handler(ws)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig() *wire.SessionConfig {
	return &wire.SessionConfig{Model: "models/test"}
}

func newTestClient(endpoint string, fetcher toolcall.Fetcher) (*Client, *events.Dispatcher) {
	disp := events.New()
	c := NewClient(Options{
		Endpoint:   endpoint,
		Dispatcher: disp,
		Convention: toolcall.DefaultConvention,
		Fetcher:    fetcher,
	})
	return c, disp
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		panic("unreachable")
	}
}

func TestConnectSendsSetupImmediately(t *testing.T) {
	frames := make(chan string, 1)
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		frames <- string(data)
		ws.ReadMessage() // hold the connection open
	})

	c, disp := newTestClient(endpoint, nil)
	opened := make(chan struct{}, 1)
	disp.Open.Subscribe(func(struct{}) { opened <- struct{}{} })

	require.NoError(t, c.Connect(context.Background(), testConfig()))
	defer c.Disconnect()

	recv(t, opened)
	setup := recv(t, frames)
	assert.JSONEq(t, `{"setup":{"model":"models/test"}}`, setup)
	assert.Equal(t, StateOpen, c.State())
}

func TestConnectNilConfig(t *testing.T) {
	c, _ := newTestClient("ws://localhost:1/ws", nil)
	assert.ErrorIs(t, c.Connect(context.Background(), nil), ErrNoConfig)
}

func TestConnectFailureRejectsAndSendsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close() // transport errors before opening

	c, _ := newTestClient(endpoint, nil)
	err := c.Connect(context.Background(), testConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to")
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, c.Disconnect(), "no transport to close after a failed attempt")
}

func TestConnectErrorRedactsKey(t *testing.T) {
	c, _ := newTestClient(Endpoint("localhost:1", "secret-key"), nil)
	err := c.Connect(context.Background(), testConfig())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestSendWhileDisconnected(t *testing.T) {
	c, _ := newTestClient("ws://localhost:1/ws", nil)

	assert.ErrorIs(t, c.Send([]wire.Part{{Text: "hi"}}, true), ErrNotConnected)
	assert.ErrorIs(t, c.SendRealtimeInput([]wire.Blob{{MIMEType: "audio/pcm"}}), ErrNotConnected)
	assert.ErrorIs(t, c.SendToolResponse(nil), ErrNotConnected)
}

func TestDisconnectStaleHandle(t *testing.T) {
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	c, _ := newTestClient(endpoint, nil)
	require.NoError(t, c.Connect(context.Background(), testConfig()))

	c.mu.Lock()
	stale := c.current
	c.mu.Unlock()

	// A second attempt supersedes the first connection.
	require.NoError(t, c.Connect(context.Background(), testConfig()))
	defer c.Disconnect()

	assert.False(t, c.disconnect(stale), "stale handle must not close the live transport")

	c.mu.Lock()
	live := c.current
	c.mu.Unlock()
	require.NotNil(t, live)
	assert.NotEqual(t, stale.token, live.token)
}

func TestDisconnectIdempotent(t *testing.T) {
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		ws.ReadMessage()
		ws.ReadMessage()
	})

	c, _ := newTestClient(endpoint, nil)
	require.NoError(t, c.Connect(context.Background(), testConfig()))

	assert.True(t, c.Disconnect())
	assert.False(t, c.Disconnect())
}

func TestInboundRouting(t *testing.T) {
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		if _, _, err := ws.ReadMessage(); err != nil { // setup
			return
		}
		frames := []string{
			`{"setupComplete":{}}`,
			`{"unknownShape":{"x":1}}`,
			`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"` +
				base64.StdEncoding.EncodeToString([]byte("pcm")) + `"}},{"text":"hi"}]}}}`,
			`{"serverContent":{"turnComplete":true}}`,
			`{"serverContent":{"interrupted":true}}`,
			`{"toolCallCancellation":{"ids":["9"]}}`,
		}
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		ws.ReadMessage() // hold open
	})

	c, disp := newTestClient(endpoint, nil)

	ready := make(chan struct{}, 1)
	audio := make(chan []byte, 1)
	content := make(chan []wire.Part, 1)
	turnDone := make(chan struct{}, 1)
	interrupted := make(chan struct{}, 1)
	cancelled := make(chan []string, 1)

	disp.SetupComplete.Subscribe(func(struct{}) { ready <- struct{}{} })
	disp.Audio.Subscribe(func(buf []byte) { audio <- buf })
	disp.Content.Subscribe(func(parts []wire.Part) { content <- parts })
	disp.TurnComplete.Subscribe(func(struct{}) { turnDone <- struct{}{} })
	disp.Interrupted.Subscribe(func(struct{}) { interrupted <- struct{}{} })
	disp.ToolCallCancellation.Subscribe(func(ids []string) { cancelled <- ids })

	require.NoError(t, c.Connect(context.Background(), testConfig()))
	defer c.Disconnect()

	recv(t, ready)
	assert.Equal(t, []byte("pcm"), recv(t, audio))
	assert.Equal(t, []wire.Part{{Text: "hi"}}, recv(t, content))
	recv(t, turnDone)
	recv(t, interrupted)
	assert.Equal(t, []string{"9"}, recv(t, cancelled))
	assert.Equal(t, StateReady, c.State())
}

type mapFetcher map[string]string

func (m mapFetcher) Fetch(ctx context.Context, resourceID string) (string, error) {
	text, ok := m[resourceID]
	if !ok {
		return "", assert.AnError
	}
	return text, nil
}

func TestToolCallAnsweredOverSocket(t *testing.T) {
	responses := make(chan string, 1)
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		if _, _, err := ws.ReadMessage(); err != nil { // setup
			return
		}
		frame := `{"toolCall":{"functionCalls":[{"id":"1","name":"pdf_lookup","args":{"pdfUri":"files/abc123"}}]}}`
		if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		responses <- string(data)
	})

	c, disp := newTestClient(endpoint, mapFetcher{"files/abc123": "hello world"})

	rawCalls := make(chan wire.ToolCall, 1)
	disp.ToolCall.Subscribe(func(tc wire.ToolCall) { rawCalls <- tc })

	require.NoError(t, c.Connect(context.Background(), testConfig()))
	defer c.Disconnect()

	tc := recv(t, rawCalls)
	require.Len(t, tc.FunctionCalls, 1)
	assert.Equal(t, "pdf_lookup", tc.FunctionCalls[0].Name)

	resp := recv(t, responses)
	assert.JSONEq(t, `{"toolResponse":{"functionResponses":[{"id":"1","response":{"text":"hello world"}}]}}`, resp)
}

func TestExtractCloseReason(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   string
	}{
		{"plain reason", "going away", "going away"},
		{"service error framing", "[1007;ERROR] quota exceeded", "quota exceeded"},
		{"error word without marker", "internal error", "internal error"},
		{"marker at end", "something ERROR]", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCloseReason(tt.reason))
		})
	}
}

func TestCloseEventPublished(t *testing.T) {
	endpoint := newTestServer(t, func(ws *websocket.Conn) {
		if _, _, err := ws.ReadMessage(); err != nil { // setup
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "[1000;ERROR] model unavailable")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	c, disp := newTestClient(endpoint, nil)
	closed := make(chan events.CloseEvent, 1)
	disp.Close.Subscribe(func(ev events.CloseEvent) { closed <- ev })

	require.NoError(t, c.Connect(context.Background(), testConfig()))

	ev := recv(t, closed)
	assert.Equal(t, websocket.CloseNormalClosure, ev.Code)
	assert.Equal(t, "model unavailable", ev.Reason)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestEndpoint(t *testing.T) {
	got := Endpoint("", "k123")
	assert.Equal(t, "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent?key=k123", got)
}
