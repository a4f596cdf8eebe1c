package core

import (
	"time"

	"github.com/htafolla/strray/logging"
)

// Record is the structured telemetry record emitted for every boot phase and
// every delegation step. The coordination core never formats or persists
// records itself; a TelemetrySink owned by the embedding application decides
// where they go.
type Record struct {
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Outcome   string         `json:"outcome"`
	SessionID string         `json:"session_id,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewRecord creates a record stamped with the current UTC time.
func NewRecord(component, event, outcome string) Record {
	return Record{Component: component, Event: event, Outcome: outcome, Timestamp: time.Now().UTC()}
}

// WithJob attaches job and session correlation identifiers.
func (r Record) WithJob(jobID, sessionID string) Record {
	r.JobID = jobID
	r.SessionID = sessionID
	return r
}

// WithMetadata merges key/value attributes into the record.
func (r Record) WithMetadata(md map[string]any) Record {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	for k, v := range md {
		r.Metadata[k] = v
	}
	return r
}

// TelemetrySink receives structured records for external persistence.
// Implementations must be safe for concurrent use.
type TelemetrySink interface {
	Emit(record Record)
}

// SinkFunc adapts a function to the TelemetrySink interface.
type SinkFunc func(record Record)

// Emit calls the underlying function.
func (f SinkFunc) Emit(record Record) { f(record) }

// NoOpSink discards all records. Useful for tests or when telemetry is disabled.
type NoOpSink struct{}

// Emit discards the record.
func (NoOpSink) Emit(Record) {}

// LogSink forwards records to a logging.Logger as structured entries.
type LogSink struct{ Logger logging.Logger }

// Emit logs the record at info level.
func (s LogSink) Emit(record Record) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("telemetry record component=%s event=%s outcome=%s session_id=%s job_id=%s",
		record.Component, record.Event, record.Outcome, record.SessionID, record.JobID)
}
