// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulcrummock

import "encoding/json"

// Dispatch is a stored dispatch entry.
type Dispatch struct {
	ID            int64           `json:"id"`
	ReceivedAt    string          `json:"received_at"`
	TicketUUID    string          `json:"ticket_uuid"`
	RunUUID       string          `json:"run_uuid"`
	Kind          string          `json:"kind"`
	Summary       string          `json:"summary"`
	MessageUUID   string          `json:"message_uuid,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Source        string          `json:"source"`
	SchemaVersion int64           `json:"schema_version"`
	ClientTS      string          `json:"client_ts,omitempty"`
}

// Improvement is a stored improvement record, in the same JSON shape
// the API returns.
type Improvement struct {
	UUID        string `json:"uuid"`
	ProjectUUID string `json:"project_uuid,omitempty"`
	TicketUUID  string `json:"ticket_uuid,omitempty"`
	RunUUID     string `json:"run_uuid,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	DedupeKey   string `json:"dedupe_key,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Event is a stored improvement event.
type Event struct {
	ID              int64           `json:"id"`
	ImprovementUUID string          `json:"improvement_uuid"`
	Action          string          `json:"action"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	RunUUID         string          `json:"run_uuid"`
	CreatedAt       string          `json:"created_at"`
}

// dispatchRequest is the wire body of POST /dispatch. Pointer fields
// distinguish absent from empty.
type dispatchRequest struct {
	TicketUUID    string          `json:"ticket_uuid"`
	RunUUID       string          `json:"run_uuid"`
	Kind          string          `json:"kind"`
	Summary       *string         `json:"summary"`
	MessageUUID   string          `json:"message_uuid"`
	Payload       json.RawMessage `json:"payload"`
	Source        string          `json:"source"`
	SchemaVersion *int64          `json:"schema_version"`
	ClientTS      string          `json:"client_ts"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DedupeKey   string `json:"dedupe_key"`
	Status      string `json:"status"`
	RunUUID     string `json:"run_uuid"`
	ProjectUUID string `json:"project_uuid"`
	TicketUUID  string `json:"ticket_uuid"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DedupeKey   *string `json:"dedupe_key"`
	RunUUID     string  `json:"run_uuid"`
}

type eventRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
	RunUUID string          `json:"run_uuid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var validStatuses = map[string]bool{
	"open":        true,
	"in_progress": true,
	"resolved":    true,
	"dismissed":   true,
}
