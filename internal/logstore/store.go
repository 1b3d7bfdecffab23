// Package logstore persists streaming log entries for the external log
// viewer. The session core only ever writes through logging.Sink; the store
// is an optional sink backend.
package logstore

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
)

// Store defines persistence operations for streaming log entries.
type Store interface {
	// Append persists one entry.
	Append(ctx context.Context, entry logging.Entry) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int64) ([]logging.Entry, error)

	// Purge removes all stored entries.
	Purge(ctx context.Context) error
}

// Sink adapts a Store to the logging.Sink interface. Append failures are
// reported through the fallback logger and otherwise dropped; logging never
// disturbs the session.
type Sink struct {
	store    Store
	fallback zerolog.Logger
}

// NewSink wraps store as a log sink.
func NewSink(store Store, fallback zerolog.Logger) *Sink {
	return &Sink{store: store, fallback: fallback}
}

func (s *Sink) Log(entry logging.Entry) {
	if err := s.store.Append(context.Background(), entry); err != nil {
		s.fallback.Warn().Err(err).Str("category", entry.Category).Msg("log store append failed")
	}
}
