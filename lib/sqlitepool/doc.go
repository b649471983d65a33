// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool used by
// Fulcrum's local storage (the mock server's record store).
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with a fixed set of
// pragmas: WAL journal mode, NORMAL synchronous, a 5 second busy
// timeout and in-memory temp storage. An optional Schema script runs on
// every new connection, so it must be idempotent (CREATE ... IF NOT
// EXISTS).
//
// Callers either [Pool.Take] and [Pool.Put] connections directly or use
// [Pool.With] and [Pool.Transaction], which pair the two and, for
// Transaction, wrap the work in an IMMEDIATE transaction that commits
// on nil and rolls back on error. Connections are not safe for
// concurrent use; each goroutine holds its own for the duration of its
// work.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(dir, "fulcrum.db"),
//	    Schema: schema,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Transaction(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "INSERT INTO ...", &sqlitex.ExecOptions{Args: args})
//	})
package sqlitepool
