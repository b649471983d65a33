// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the fulcrum binaries:
// reporting an error from run() before or instead of the structured
// logger, and choosing the exit status.
package process
