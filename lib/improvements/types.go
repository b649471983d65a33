// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package improvements

// Status is the lifecycle state of an improvement.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusDismissed  Status = "dismissed"
)

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// Improvement is a server-owned suggestion record as returned by List.
// Timestamps are kept as the server's ISO 8601 strings.
type Improvement struct {
	UUID        string `json:"uuid"`
	ProjectUUID string `json:"project_uuid,omitempty"`
	TicketUUID  string `json:"ticket_uuid,omitempty"`
	RunUUID     string `json:"run_uuid,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	DedupeKey   string `json:"dedupe_key,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CreateRequest describes a new improvement.
type CreateRequest struct {
	// Title is required and cut to 256 characters.
	Title string

	Description string

	// DedupeKey lets the server collapse repeated creates from
	// independent runs into one record. Cut to 256 characters.
	DedupeKey string

	// Status defaults to StatusOpen.
	Status Status
}

// UpdateFields holds the fields to change. Nil fields are left out of
// the request; at least one must be set.
type UpdateFields struct {
	Title       *string
	Description *string
	Status      *Status
	DedupeKey   *string
}

// createBody is the wire form of a create request.
type createBody struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DedupeKey   string `json:"dedupe_key,omitempty"`
	Status      Status `json:"status"`
	RunUUID     string `json:"run_uuid"`
	ProjectUUID string `json:"project_uuid,omitempty"`
	TicketUUID  string `json:"ticket_uuid,omitempty"`
}

// updateBody is the wire form of an update request.
type updateBody struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	DedupeKey   *string `json:"dedupe_key,omitempty"`
	RunUUID     string  `json:"run_uuid"`
}

// eventBody is the wire form of an improvement event.
type eventBody struct {
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
	RunUUID string         `json:"run_uuid"`
}

// EventOption adjusts an EmitEvent call.
type EventOption func(*eventOptions)

type eventOptions struct {
	skipRedaction bool
}

// WithSkipRedaction sends the event payload without key redaction.
// Size limits still apply.
func WithSkipRedaction() EventOption {
	return func(o *eventOptions) { o.skipRedaction = true }
}
