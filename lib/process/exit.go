// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit status.
type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the status a binary should exit with for err: 0 for
// nil, the code carried by an error in the chain that implements
// ExitCode() int, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "<name>: err" to w unless err is nil.
func Report(w io.Writer, name string, err error) {
	if err != nil {
		fmt.Fprintf(w, "%s: %v\n", name, err)
	}
}

// Fatal reports err on stderr and exits with [ExitCode]. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(name string, err error) {
	Report(os.Stderr, name, err)
	os.Exit(ExitCode(err))
}
