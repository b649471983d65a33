// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
)

// report renders a validation run: a title, numbered tests with a
// SUCCESS or FAILED result, and free-form notes. Colour is applied only
// when out is a terminal.
type report struct {
	out      io.Writer
	title    lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	muted    lipgloss.Style
	step     int
	failures int
}

func newReport(out io.Writer, title string) *report {
	renderer := lipgloss.NewRenderer(out)
	r := &report{
		out:     out,
		title:   renderer.NewStyle().Bold(true),
		success: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failure: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		muted:   renderer.NewStyle().Faint(true),
	}
	fmt.Fprintln(out, r.title.Render(title))
	fmt.Fprintln(out, strings.Repeat("=", 40))
	return r
}

// test starts the next numbered test.
func (r *report) test(name string) {
	r.step++
	fmt.Fprintf(r.out, "Test %d: %s\n", r.step, name)
}

// result records the outcome of the current test.
func (r *report) result(ok bool) {
	if ok {
		fmt.Fprintf(r.out, "  Result: %s\n", r.success.Render("SUCCESS"))
		return
	}
	r.failures++
	fmt.Fprintf(r.out, "  Result: %s\n", r.failure.Render("FAILED"))
}

// detail prints an indented result line that is not a pass/fail verdict.
func (r *report) detail(format string, args ...any) {
	fmt.Fprintf(r.out, "  Result: %s\n", fmt.Sprintf(format, args...))
}

// fail records a failure described by message.
func (r *report) fail(format string, args ...any) {
	r.failures++
	fmt.Fprintf(r.out, "  Result: %s\n", r.failure.Render(fmt.Sprintf(format, args...)))
}

func (r *report) note(format string, args ...any) {
	fmt.Fprintln(r.out, r.muted.Render(fmt.Sprintf(format, args...)))
}

// disabled prints the missing configuration and returns the exit error
// for a disabled client. Alternatives within one required entry are
// joined with "|", as in the resolved Missing list.
func (r *report) disabled(client string, required, missing []string) error {
	fmt.Fprintf(r.out, "%s %s client is not enabled.\n", r.failure.Render("ERROR:"), client)
	fmt.Fprintln(r.out, "\nRequired environment variables:")
	for _, key := range required {
		marker := ""
		for _, absent := range missing {
			if absent == key {
				marker = " " + r.failure.Render("(missing)")
			}
		}
		if first, rest, ok := strings.Cut(key, "|"); ok {
			key = first + " (or " + strings.ReplaceAll(rest, "|", ", ") + ")"
		}
		fmt.Fprintf(r.out, "  - %s%s\n", key, marker)
	}
	fmt.Fprintln(r.out, "\nSet these variables and try again.")
	return &cli.ExitError{Code: 1}
}

// enabled prints the header shown once a client is usable.
func (r *report) enabled() {
	fmt.Fprintf(r.out, "Client enabled: %s\n\n", r.success.Render("YES"))
}

// finish prints the footer and returns an exit error if any test failed.
func (r *report) finish() error {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Validation complete.")
	if r.failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
