// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulcrummock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/fulcrum/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	received_at    TEXT NOT NULL,
	ticket_uuid    TEXT NOT NULL,
	run_uuid       TEXT NOT NULL,
	kind           TEXT NOT NULL,
	summary        TEXT NOT NULL,
	message_uuid   TEXT,
	payload        TEXT,
	source         TEXT NOT NULL,
	schema_version INTEGER NOT NULL,
	client_ts      TEXT
);

CREATE TABLE IF NOT EXISTS improvements (
	uuid         TEXT PRIMARY KEY,
	scope        TEXT NOT NULL,
	project_uuid TEXT,
	ticket_uuid  TEXT,
	run_uuid     TEXT,
	title        TEXT NOT NULL,
	description  TEXT,
	status       TEXT NOT NULL,
	dedupe_key   TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS improvements_dedupe
	ON improvements (scope, dedupe_key)
	WHERE dedupe_key IS NOT NULL AND dedupe_key <> '';

CREATE INDEX IF NOT EXISTS improvements_run ON improvements (run_uuid);
CREATE INDEX IF NOT EXISTS improvements_project ON improvements (project_uuid);

CREATE TABLE IF NOT EXISTS improvement_events (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	improvement_uuid TEXT NOT NULL,
	action           TEXT NOT NULL,
	payload          TEXT,
	run_uuid         TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
`

const improvementColumns = `uuid, project_uuid, ticket_uuid, run_uuid, title, description,
	status, dedupe_key, created_at, updated_at`

// store holds the mock's records.
type store struct {
	pool *sqlitepool.Pool
}

func scopeOf(projectUUID, runUUID string) string {
	if projectUUID != "" {
		return "project:" + projectUUID
	}
	return "run:" + runUUID
}

// nullable binds "" as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

func scanImprovement(stmt *sqlite.Stmt) Improvement {
	return Improvement{
		UUID:        stmt.ColumnText(0),
		ProjectUUID: stmt.ColumnText(1),
		TicketUUID:  stmt.ColumnText(2),
		RunUUID:     stmt.ColumnText(3),
		Title:       stmt.ColumnText(4),
		Description: stmt.ColumnText(5),
		Status:      stmt.ColumnText(6),
		DedupeKey:   stmt.ColumnText(7),
		CreatedAt:   stmt.ColumnText(8),
		UpdatedAt:   stmt.ColumnText(9),
	}
}

func rawColumn(stmt *sqlite.Stmt, column int) json.RawMessage {
	if stmt.ColumnIsNull(column) {
		return nil
	}
	return json.RawMessage(stmt.ColumnText(column))
}

func (s *store) insertDispatch(ctx context.Context, dispatch Dispatch) error {
	return s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO dispatches (received_at, ticket_uuid, run_uuid, kind, summary,
				message_uuid, payload, source, schema_version, client_ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				dispatch.ReceivedAt, dispatch.TicketUUID, dispatch.RunUUID, dispatch.Kind,
				dispatch.Summary, nullable(dispatch.MessageUUID), nullableJSON(dispatch.Payload),
				dispatch.Source, dispatch.SchemaVersion, nullable(dispatch.ClientTS),
			}})
	})
}

func (s *store) dispatches(ctx context.Context) ([]Dispatch, error) {
	var result []Dispatch
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, received_at, ticket_uuid, run_uuid, kind, summary,
				message_uuid, payload, source, schema_version, client_ts
			FROM dispatches ORDER BY id`,
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				result = append(result, Dispatch{
					ID:            stmt.ColumnInt64(0),
					ReceivedAt:    stmt.ColumnText(1),
					TicketUUID:    stmt.ColumnText(2),
					RunUUID:       stmt.ColumnText(3),
					Kind:          stmt.ColumnText(4),
					Summary:       stmt.ColumnText(5),
					MessageUUID:   stmt.ColumnText(6),
					Payload:       rawColumn(stmt, 7),
					Source:        stmt.ColumnText(8),
					SchemaVersion: stmt.ColumnInt64(9),
					ClientTS:      stmt.ColumnText(10),
				})
				return nil
			}})
	})
	return result, err
}

// createImprovement inserts record unless its dedupe key already exists
// in scope. It returns the stored record and whether it is new.
func (s *store) createImprovement(ctx context.Context, record Improvement) (Improvement, bool, error) {
	var stored Improvement
	err := s.pool.Transaction(ctx, func(conn *sqlite.Conn) error {
		scope := scopeOf(record.ProjectUUID, record.RunUUID)
		err := sqlitex.Execute(conn, `
			INSERT INTO improvements (uuid, scope, project_uuid, ticket_uuid, run_uuid, title,
				description, status, dedupe_key, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			&sqlitex.ExecOptions{Args: []any{
				record.UUID, scope, nullable(record.ProjectUUID), nullable(record.TicketUUID),
				nullable(record.RunUUID), record.Title, nullable(record.Description), record.Status,
				nullable(record.DedupeKey), record.CreatedAt, record.UpdatedAt,
			}})
		if err != nil {
			return fmt.Errorf("inserting improvement: %w", err)
		}
		if record.DedupeKey == "" {
			stored = record
			return nil
		}
		found := false
		err = sqlitex.Execute(conn,
			`SELECT `+improvementColumns+` FROM improvements WHERE scope = ? AND dedupe_key = ?`,
			&sqlitex.ExecOptions{
				Args: []any{scope, record.DedupeKey},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					stored = scanImprovement(stmt)
					found = true
					return nil
				},
			})
		if err != nil {
			return fmt.Errorf("reading deduplicated improvement: %w", err)
		}
		if !found {
			return fmt.Errorf("improvement with dedupe_key %q vanished", record.DedupeKey)
		}
		return nil
	})
	if err != nil {
		return Improvement{}, false, err
	}
	return stored, stored.UUID == record.UUID, nil
}

func getImprovement(conn *sqlite.Conn, uuid string) (Improvement, bool, error) {
	var record Improvement
	found := false
	err := sqlitex.Execute(conn,
		`SELECT `+improvementColumns+` FROM improvements WHERE uuid = ?`,
		&sqlitex.ExecOptions{
			Args: []any{uuid},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record = scanImprovement(stmt)
				found = true
				return nil
			},
		})
	return record, found, err
}

// listImprovements filters by project when projectUUID is set and by
// run otherwise. Empty filters list everything.
func (s *store) listImprovements(ctx context.Context, runUUID, projectUUID string) ([]Improvement, error) {
	query := `SELECT ` + improvementColumns + ` FROM improvements`
	var args []any
	switch {
	case projectUUID != "":
		query += ` WHERE project_uuid = ?`
		args = append(args, projectUUID)
	case runUUID != "":
		query += ` WHERE run_uuid = ?`
		args = append(args, runUUID)
	}
	query += ` ORDER BY created_at, uuid`

	result := []Improvement{}
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				result = append(result, scanImprovement(stmt))
				return nil
			},
		})
	})
	return result, err
}

// errDedupeConflict reports an update that would duplicate a dedupe key.
var errDedupeConflict = errors.New("dedupe_key already used in this scope")

// updateImprovement applies the supplied fields. found is false when no
// record has the uuid.
func (s *store) updateImprovement(ctx context.Context, uuid string, fields updateRequest, now string) (Improvement, bool, error) {
	var record Improvement
	found := false
	err := s.pool.Transaction(ctx, func(conn *sqlite.Conn) error {
		var err error
		record, found, err = getImprovement(conn, uuid)
		if err != nil || !found {
			return err
		}
		if fields.Title != nil {
			record.Title = *fields.Title
		}
		if fields.Description != nil {
			record.Description = *fields.Description
		}
		if fields.Status != nil {
			record.Status = *fields.Status
		}
		if fields.DedupeKey != nil && *fields.DedupeKey != record.DedupeKey {
			record.DedupeKey = *fields.DedupeKey
			if record.DedupeKey != "" {
				conflict := false
				err := sqlitex.Execute(conn,
					`SELECT 1 FROM improvements WHERE scope = ? AND dedupe_key = ? AND uuid <> ?`,
					&sqlitex.ExecOptions{
						Args: []any{scopeOf(record.ProjectUUID, record.RunUUID), record.DedupeKey, uuid},
						ResultFunc: func(*sqlite.Stmt) error {
							conflict = true
							return nil
						},
					})
				if err != nil {
					return err
				}
				if conflict {
					return errDedupeConflict
				}
			}
		}
		record.UpdatedAt = now
		return sqlitex.Execute(conn, `
			UPDATE improvements
			SET title = ?, description = ?, status = ?, dedupe_key = ?, updated_at = ?
			WHERE uuid = ?`,
			&sqlitex.ExecOptions{Args: []any{
				record.Title, nullable(record.Description), record.Status,
				nullable(record.DedupeKey), record.UpdatedAt, uuid,
			}})
	})
	return record, found, err
}

// deleteImprovement removes a record and its events.
func (s *store) deleteImprovement(ctx context.Context, uuid string) (bool, error) {
	found := false
	err := s.pool.Transaction(ctx, func(conn *sqlite.Conn) error {
		var err error
		if _, found, err = getImprovement(conn, uuid); err != nil || !found {
			return err
		}
		if err := sqlitex.Execute(conn, `DELETE FROM improvement_events WHERE improvement_uuid = ?`,
			&sqlitex.ExecOptions{Args: []any{uuid}}); err != nil {
			return err
		}
		return sqlitex.Execute(conn, `DELETE FROM improvements WHERE uuid = ?`,
			&sqlitex.ExecOptions{Args: []any{uuid}})
	})
	return found, err
}

// insertEvent stores an event for an existing improvement. found is
// false when the improvement does not exist.
func (s *store) insertEvent(ctx context.Context, event Event) (bool, error) {
	found := false
	err := s.pool.Transaction(ctx, func(conn *sqlite.Conn) error {
		var err error
		if _, found, err = getImprovement(conn, event.ImprovementUUID); err != nil || !found {
			return err
		}
		return sqlitex.Execute(conn, `
			INSERT INTO improvement_events (improvement_uuid, action, payload, run_uuid, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				event.ImprovementUUID, event.Action, nullableJSON(event.Payload),
				event.RunUUID, event.CreatedAt,
			}})
	})
	return found, err
}

func (s *store) events(ctx context.Context, improvementUUID string) ([]Event, error) {
	var result []Event
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, improvement_uuid, action, payload, run_uuid, created_at
			FROM improvement_events WHERE improvement_uuid = ? ORDER BY id`,
			&sqlitex.ExecOptions{
				Args: []any{improvementUUID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					result = append(result, Event{
						ID:              stmt.ColumnInt64(0),
						ImprovementUUID: stmt.ColumnText(1),
						Action:          stmt.ColumnText(2),
						Payload:         rawColumn(stmt, 3),
						RunUUID:         stmt.ColumnText(4),
						CreatedAt:       stmt.ColumnText(5),
					})
					return nil
				},
			})
	})
	return result, err
}
