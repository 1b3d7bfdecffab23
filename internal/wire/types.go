// Package wire defines the typed frames exchanged with the BidiGenerateContent
// endpoint and the codec between those frames and their text-frame JSON form.
package wire

import "encoding/json"

// Blob carries base64-encoded binary data together with its media type.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is a single piece of a conversation turn: text or inline binary data.
// Parts are never mutated after construction.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a single conversation turn, composed of one or more parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema is a minimal JSON-schema fragment for declaring tool parameters.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDeclaration describes one callable function exposed to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool groups function declarations for the setup message.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// GenerationConfig holds the sampling parameters for one session.
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	TopP               *float64 `json:"topP,omitempty"`
	TopK               *float64 `json:"topK,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// SessionConfig is the immutable per-connection configuration carried by the
// setup frame: model, system instruction, sampling parameters and tools.
type SessionConfig struct {
	Model             string            `json:"model"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// FunctionCall is a function invocation requested by the model. Args stays
// raw so that malformed shapes (arrays, scalars) survive decoding and can be
// rejected in-protocol instead of failing the frame.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse answers one FunctionCall, matched by id.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Response map[string]any `json:"response"`
}

// ModelTurn is the content the model streams within one serverContent frame.
type ModelTurn struct {
	Parts []Part `json:"parts"`
}

// ServerContent is the inbound turn-lifecycle frame. Exactly one of the
// fields is usually present but the wire permits combinations.
type ServerContent struct {
	ModelTurn    *ModelTurn `json:"modelTurn,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
	Interrupted  bool       `json:"interrupted,omitempty"`
}

// ToolCall is the inbound batch of requested function invocations.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// IDs returns the call ids in frame order.
func (t ToolCall) IDs() []string {
	ids := make([]string, 0, len(t.FunctionCalls))
	for _, fc := range t.FunctionCalls {
		ids = append(ids, fc.ID)
	}
	return ids
}

// ToolCallCancellation names previously requested calls the model abandoned.
type ToolCallCancellation struct {
	IDs []string `json:"ids"`
}

// Outbound envelopes. Each wraps exactly one payload under its wire key.

type SetupMessage struct {
	Setup *SessionConfig `json:"setup"`
}

type ClientContent struct {
	Turns        []Content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type ClientContentMessage struct {
	ClientContent ClientContent `json:"clientContent"`
}

type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks"`
}

type RealtimeInputMessage struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

type ToolResponseMessage struct {
	ToolResponse ToolResponse `json:"toolResponse"`
}
