// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"strings"

	"github.com/bureau-foundation/fulcrum/lib/payload"
)

// SchemaVersion is the envelope version written into every entry.
const SchemaVersion = 1

// DefaultSource tags events that do not name their origin.
const DefaultSource = "sdk"

// Event kinds produced by the typed builders. Emit accepts any other
// non-empty kind.
const (
	KindText        = "text"
	KindAPICall     = "api_call"
	KindExternalRef = "external_ref"
	KindDB          = "db"
	KindModel       = "model"
)

// Entry is the wire form of one dispatched event.
type Entry struct {
	TicketUUID    string      `json:"ticket_uuid"`
	RunUUID       string      `json:"run_uuid"`
	Kind          string      `json:"kind"`
	Summary       string      `json:"summary"`
	MessageUUID   string      `json:"message_uuid,omitempty"`
	Payload       payload.Map `json:"payload,omitempty"`
	Source        string      `json:"source"`
	SchemaVersion int         `json:"schema_version"`
	ClientTS      string      `json:"client_ts,omitempty"`
}

// Event is what a caller asks the client to send. The client fills in
// the correlation identifiers, schema version and timestamp.
type Event struct {
	Kind        string
	Summary     string
	MessageUUID string

	// Payload is any JSON-serializable value that encodes to an object:
	// a payload.Map, a typed map, or a struct.
	Payload any

	// Source defaults to DefaultSource.
	Source string

	// SkipRedaction sends the payload without key redaction. Length and
	// size limits still apply.
	SkipRedaction bool
}

// EventOption adjusts an event built by one of the typed builders.
type EventOption func(*Event)

// WithMessageUUID correlates the event with a parent message.
func WithMessageUUID(messageUUID string) EventOption {
	return func(event *Event) { event.MessageUUID = messageUUID }
}

// WithSource overrides the event source tag.
func WithSource(source string) EventOption {
	return func(event *Event) { event.Source = source }
}

// WithSkipRedaction disables key redaction for this event. Use it only
// when the payload is known to be safe.
func WithSkipRedaction() EventOption {
	return func(event *Event) { event.SkipRedaction = true }
}

// DBOperation is the statement class of a db event.
type DBOperation string

const (
	DBInsert DBOperation = "insert"
	DBUpdate DBOperation = "update"
	DBDelete DBOperation = "delete"
	DBSelect DBOperation = "select"
)

// Valid reports whether op is one of the four known operations.
// Matching is case-insensitive.
func (op DBOperation) Valid() bool {
	switch op.normalized() {
	case DBInsert, DBUpdate, DBDelete, DBSelect:
		return true
	default:
		return false
	}
}

func (op DBOperation) normalized() DBOperation {
	return DBOperation(strings.ToLower(strings.TrimSpace(string(op))))
}
