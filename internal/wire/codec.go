package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the inbound message variants.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindToolCall
	KindToolCallCancellation
	KindSetupComplete
	KindServerContent
)

func (k Kind) String() string {
	switch k {
	case KindToolCall:
		return "toolCall"
	case KindToolCallCancellation:
		return "toolCallCancellation"
	case KindSetupComplete:
		return "setupComplete"
	case KindServerContent:
		return "serverContent"
	default:
		return "unrecognized"
	}
}

// InboundMessage is the tagged union produced by DecodeInbound. Exactly the
// pointer matching Kind is non-nil; Raw always holds the original frame.
type InboundMessage struct {
	Kind                 Kind
	ToolCall             *ToolCall
	ToolCallCancellation *ToolCallCancellation
	ServerContent        *ServerContent
	Raw                  json.RawMessage
}

type inboundEnvelope struct {
	SetupComplete        json.RawMessage       `json:"setupComplete"`
	ServerContent        *ServerContent        `json:"serverContent"`
	ToolCall             *ToolCall             `json:"toolCall"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation"`
}

// DecodeInbound parses a text frame and classifies it into exactly one
// variant. Classification precedence is fixed: toolCall, toolCallCancellation,
// setupComplete, serverContent. A frame matching none of these decodes to
// KindUnrecognized — never an error, so protocol evolution stays non-fatal.
func DecodeInbound(data []byte) (InboundMessage, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return InboundMessage{}, fmt.Errorf("wire: decode frame: %w", err)
	}

	msg := InboundMessage{Raw: data}
	switch {
	case env.ToolCall != nil:
		msg.Kind = KindToolCall
		msg.ToolCall = env.ToolCall
	case env.ToolCallCancellation != nil:
		msg.Kind = KindToolCallCancellation
		msg.ToolCallCancellation = env.ToolCallCancellation
	case env.SetupComplete != nil:
		msg.Kind = KindSetupComplete
	case env.ServerContent != nil:
		msg.Kind = KindServerContent
		msg.ServerContent = env.ServerContent
	default:
		msg.Kind = KindUnrecognized
	}
	return msg, nil
}

// NewSetup wraps a session config into its outbound envelope.
func NewSetup(config *SessionConfig) SetupMessage {
	return SetupMessage{Setup: config}
}

// NewClientContent wraps parts into a single user turn.
func NewClientContent(parts []Part, turnComplete bool) ClientContentMessage {
	return ClientContentMessage{
		ClientContent: ClientContent{
			Turns:        []Content{{Role: "user", Parts: parts}},
			TurnComplete: turnComplete,
		},
	}
}

// NewRealtimeInput wraps media chunks into their outbound envelope.
func NewRealtimeInput(chunks []Blob) RealtimeInputMessage {
	return RealtimeInputMessage{RealtimeInput: RealtimeInput{MediaChunks: chunks}}
}

// NewToolResponse wraps function responses into their outbound envelope.
func NewToolResponse(entries []FunctionResponse) ToolResponseMessage {
	return ToolResponseMessage{ToolResponse: ToolResponse{FunctionResponses: entries}}
}

// ChunkLabel derives a human-readable media label for a realtime input batch
// by inspecting each chunk's declared media type. The label is advisory and
// used for logging only; it does not affect routing.
func ChunkLabel(chunks []Blob) string {
	var hasAudio, hasVideo bool
	for _, c := range chunks {
		if strings.Contains(c.MIMEType, "audio") {
			hasAudio = true
		}
		if strings.Contains(c.MIMEType, "image") {
			hasVideo = true
		}
	}
	switch {
	case hasAudio && hasVideo:
		return "audio + video"
	case hasAudio:
		return "audio"
	case hasVideo:
		return "video"
	default:
		return "unknown"
	}
}
