// Package logging provides the streaming log entries produced by every
// session component and the sink interface they are written through.
package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single append-only streaming log record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEntry stamps a log record with the current time.
func NewEntry(category string, payload any) Entry {
	return Entry{
		Timestamp: time.Now(),
		Category:  category,
		Payload:   payload,
	}
}

// Sink receives streaming log entries. Implementations must not block the
// caller for long; entries are emitted from the session's read loop.
type Sink interface {
	Log(entry Entry)
}

// NopSink discards all entries.
type NopSink struct{}

func (NopSink) Log(Entry) {}

// ZerologSink writes entries through a zerolog logger at debug level.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(logger zerolog.Logger) ZerologSink {
	return ZerologSink{logger: logger.With().Str("component", "live-session").Logger()}
}

func (s ZerologSink) Log(entry Entry) {
	s.logger.Debug().
		Str("category", entry.Category).
		Interface("payload", entry.Payload).
		Msg("session log")
}

// MultiSink fans one entry out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Log(entry Entry) {
	for _, s := range m {
		s.Log(entry)
	}
}
