// Package toolcall enforces the session's single permitted function-calling
// convention against the model's tool-call frames and keeps the conversation
// self-correcting when the model deviates.
package toolcall

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/guard"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// Fetcher resolves a resource id to its plain-text content. Implementations
// fail with an error on any non-success outcome; the gatekeeper converts
// that into a corrective response, never a crash.
type Fetcher interface {
	Fetch(ctx context.Context, resourceID string) (string, error)
}

// Sender is the outbound surface the gatekeeper answers through. The session
// transport implements it.
type Sender interface {
	SendToolResponse(entries []wire.FunctionResponse) error
}

// Error kinds carried in corrective response payloads.
const (
	kindInvalidSyntax = "invalid_syntax"
	kindInvalidCall   = "invalid_call"
	kindFetchFailed   = "fetch_failed"
)

// Gatekeeper validates inbound tool-call frames against one Convention,
// executes conformant calls through the injected Fetcher and answers every
// inspected id exactly once.
type Gatekeeper struct {
	conv    Convention
	fetcher Fetcher
	out     Sender
	sink    logging.Sink
}

// NewGatekeeper wires a gatekeeper. A nil sink falls back to NopSink.
func NewGatekeeper(conv Convention, fetcher Fetcher, out Sender, sink logging.Sink) *Gatekeeper {
	if sink == nil {
		sink = logging.NopSink{}
	}
	return &Gatekeeper{conv: conv, fetcher: fetcher, out: out, sink: sink}
}

// Convention reports the registered calling shape.
func (g *Gatekeeper) Convention() Convention {
	return g.conv
}

// HandleToolCall runs the full validation/execution protocol for one frame.
// It never returns an error: every failure mode is answered in-protocol.
// Calls whose name does not match the convention are discarded silently;
// every other inspected id receives exactly one response entry.
func (g *Gatekeeper) HandleToolCall(ctx context.Context, tc wire.ToolCall) {
	// Whole-frame scan catches code-mode leakage before per-call inspection.
	if marker, hit := guard.ScanJSON(tc); hit {
		g.log("toolcall.blocked", "frame marker "+marker)
		g.respondUniform(tc.IDs(), kindInvalidSyntax)
		return
	}

	var (
		valid      []wire.FunctionCall
		resources  []string
		corrective []wire.FunctionResponse
	)
	for _, call := range tc.FunctionCalls {
		if call.Name != g.conv.Name {
			g.log("toolcall.discarded", call.Name)
			continue
		}
		resource, ok := g.validateArgs(call)
		if !ok {
			corrective = append(corrective, g.correctiveEntry(call.ID, kindInvalidCall))
			continue
		}
		valid = append(valid, call)
		resources = append(resources, resource)
	}

	if len(corrective) > 0 {
		g.send(corrective)
	}
	if len(valid) == 0 {
		return
	}

	texts := make([]string, len(valid))
	eg, ctx := errgroup.WithContext(ctx)
	for i, resource := range resources {
		eg.Go(func() error {
			text, err := g.fetcher.Fetch(ctx, resource)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		// One failed fetch fails the whole valid subset uniformly; partial
		// results are never reported.
		g.log("toolcall.fetchError", err.Error())
		var ids []string
		for _, call := range valid {
			ids = append(ids, call.ID)
		}
		g.respondUniform(ids, kindFetchFailed)
		return
	}

	entries := make([]wire.FunctionResponse, len(valid))
	for i, call := range valid {
		entries[i] = wire.FunctionResponse{
			ID:       call.ID,
			Response: map[string]any{"text": texts[i]},
		}
	}
	g.send(entries)
}

// validateArgs accepts only a plain object with exactly one key equal to the
// convention's parameter, holding a non-empty string free of disallowed
// markers. Returns the parameter value on success.
func (g *Gatekeeper) validateArgs(call wire.FunctionCall) (string, bool) {
	if _, hit := guard.Scan(string(call.Args)); hit {
		return "", false
	}

	var args map[string]any
	if err := json.Unmarshal(call.Args, &args); err != nil || args == nil {
		return "", false
	}
	if len(args) != 1 {
		return "", false
	}
	value, ok := args[g.conv.Param].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (g *Gatekeeper) correctiveEntry(id, kind string) wire.FunctionResponse {
	return wire.FunctionResponse{
		ID: id,
		Response: map[string]any{
			"error":   kind,
			"message": g.conv.CorrectiveText(),
			"example": g.conv.Example(),
		},
	}
}

func (g *Gatekeeper) respondUniform(ids []string, kind string) {
	if len(ids) == 0 {
		return
	}
	entries := make([]wire.FunctionResponse, len(ids))
	for i, id := range ids {
		entries[i] = g.correctiveEntry(id, kind)
	}
	g.send(entries)
}

func (g *Gatekeeper) send(entries []wire.FunctionResponse) {
	if err := g.out.SendToolResponse(entries); err != nil {
		g.log("toolcall.sendError", err.Error())
	}
}

func (g *Gatekeeper) log(category string, payload any) {
	g.sink.Log(logging.NewEntry(category, payload))
}
