// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulcrummock

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bureau-foundation/fulcrum/lib/sanitize"
)

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func isObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var request dispatchRequest
	if !s.decodeBody(w, r, &request) {
		return
	}

	var problems []string
	if request.TicketUUID == "" {
		problems = append(problems, "ticket_uuid is required")
	}
	if request.RunUUID == "" {
		problems = append(problems, "run_uuid is required")
	}
	if strings.TrimSpace(request.Kind) == "" || tooLong(request.Kind, sanitize.KindMax) {
		problems = append(problems, "kind must be 1-64 characters")
	}
	switch {
	case request.Summary == nil:
		problems = append(problems, "summary is required")
	case tooLong(*request.Summary, sanitize.SummaryMax) || strings.ContainsAny(*request.Summary, "\r\n"):
		problems = append(problems, "summary must be a single line of at most 512 characters")
	}
	if request.Source == "" || tooLong(request.Source, sanitize.SourceMax) {
		problems = append(problems, "source must be 1-32 characters")
	}
	if request.SchemaVersion == nil || *request.SchemaVersion < 1 {
		problems = append(problems, "schema_version must be a positive integer")
	}
	if len(request.Payload) > 0 && string(request.Payload) != "null" && !isObject(request.Payload) {
		problems = append(problems, "payload must be an object")
	}
	if len(problems) > 0 {
		s.sendError(w, http.StatusBadRequest, "%s", strings.Join(problems, "; "))
		return
	}

	dispatch := Dispatch{
		ReceivedAt:    s.now(),
		TicketUUID:    request.TicketUUID,
		RunUUID:       request.RunUUID,
		Kind:          request.Kind,
		Summary:       *request.Summary,
		MessageUUID:   request.MessageUUID,
		Payload:       request.Payload,
		Source:        request.Source,
		SchemaVersion: *request.SchemaVersion,
		ClientTS:      request.ClientTS,
	}
	if err := s.store.insertDispatch(r.Context(), dispatch); err != nil {
		s.sendError(w, http.StatusInternalServerError, "storing dispatch: %v", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	runUUID := query.Get("run_uuid")
	if runUUID == "" {
		s.sendError(w, http.StatusBadRequest, "run_uuid is required")
		return
	}
	records, err := s.store.listImprovements(r.Context(), runUUID, query.Get("project_uuid"))
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "listing improvements: %v", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]Improvement{"improvements": records})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var request createRequest
	if !s.decodeBody(w, r, &request) {
		return
	}
	if request.Status == "" {
		request.Status = "open"
	}

	var problems []string
	if strings.TrimSpace(request.Title) == "" || tooLong(request.Title, sanitize.TitleMax) {
		problems = append(problems, "title must be 1-256 characters")
	}
	if tooLong(request.DedupeKey, sanitize.DedupeKeyMax) {
		problems = append(problems, "dedupe_key must be at most 256 characters")
	}
	if !validStatuses[request.Status] {
		problems = append(problems, "status must be one of open, in_progress, resolved, dismissed")
	}
	if request.RunUUID == "" {
		problems = append(problems, "run_uuid is required")
	}
	if len(problems) > 0 {
		s.sendError(w, http.StatusBadRequest, "%s", strings.Join(problems, "; "))
		return
	}

	now := s.now()
	record, created, err := s.store.createImprovement(r.Context(), Improvement{
		UUID:        uuid.NewString(),
		ProjectUUID: request.ProjectUUID,
		TicketUUID:  request.TicketUUID,
		RunUUID:     request.RunUUID,
		Title:       request.Title,
		Description: request.Description,
		Status:      request.Status,
		DedupeKey:   request.DedupeKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "creating improvement: %v", err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	s.writeJSON(w, status, record)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var request updateRequest
	if !s.decodeBody(w, r, &request) {
		return
	}

	var problems []string
	if request.RunUUID == "" {
		problems = append(problems, "run_uuid is required")
	}
	if request.Title != nil && (strings.TrimSpace(*request.Title) == "" || tooLong(*request.Title, sanitize.TitleMax)) {
		problems = append(problems, "title must be 1-256 characters")
	}
	if request.Status != nil && !validStatuses[*request.Status] {
		problems = append(problems, "status must be one of open, in_progress, resolved, dismissed")
	}
	if request.DedupeKey != nil && tooLong(*request.DedupeKey, sanitize.DedupeKeyMax) {
		problems = append(problems, "dedupe_key must be at most 256 characters")
	}
	if len(problems) > 0 {
		s.sendError(w, http.StatusBadRequest, "%s", strings.Join(problems, "; "))
		return
	}

	record, found, err := s.store.updateImprovement(r.Context(), r.PathValue("uuid"), request, s.now())
	switch {
	case errors.Is(err, errDedupeConflict):
		s.sendError(w, http.StatusConflict, "%v", err)
	case err != nil:
		s.sendError(w, http.StatusInternalServerError, "updating improvement: %v", err)
	case !found:
		s.sendError(w, http.StatusNotFound, "improvement %q not found", r.PathValue("uuid"))
	default:
		s.writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("run_uuid") == "" {
		s.sendError(w, http.StatusBadRequest, "run_uuid is required")
		return
	}
	found, err := s.store.deleteImprovement(r.Context(), r.PathValue("uuid"))
	switch {
	case err != nil:
		s.sendError(w, http.StatusInternalServerError, "deleting improvement: %v", err)
	case !found:
		s.sendError(w, http.StatusNotFound, "improvement %q not found", r.PathValue("uuid"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var request eventRequest
	if !s.decodeBody(w, r, &request) {
		return
	}

	var problems []string
	if strings.TrimSpace(request.Action) == "" || tooLong(request.Action, sanitize.ActionMax) {
		problems = append(problems, "action must be 1-64 characters")
	}
	if request.RunUUID == "" {
		problems = append(problems, "run_uuid is required")
	}
	if len(request.Payload) > 0 && string(request.Payload) != "null" && !isObject(request.Payload) {
		problems = append(problems, "payload must be an object")
	}
	if len(problems) > 0 {
		s.sendError(w, http.StatusBadRequest, "%s", strings.Join(problems, "; "))
		return
	}

	event := Event{
		ImprovementUUID: r.PathValue("uuid"),
		Action:          request.Action,
		Payload:         request.Payload,
		RunUUID:         request.RunUUID,
		CreatedAt:       s.now(),
	}
	found, err := s.store.insertEvent(r.Context(), event)
	switch {
	case err != nil:
		s.sendError(w, http.StatusInternalServerError, "storing event: %v", err)
	case !found:
		s.sendError(w, http.StatusNotFound, "improvement %q not found", event.ImprovementUUID)
	default:
		s.writeJSON(w, http.StatusCreated, event)
	}
}
