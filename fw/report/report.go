// Package report holds the value types produced by a FireWyrm run and the
// sinks that print report lines.
package report

import "time"

// Result is the outcome of a single test or assertion.
//
// Results are folded into the run counters as soon as they are produced; the
// Report keeps them so hosts can inspect or persist a finished run.
type Result struct {
	// Ordinal is the global test number within the run (1-indexed).
	Ordinal int `json:"ordinal"`

	// Section is the open section when the test ran, empty if none.
	Section string `json:"section,omitempty"`

	// SectionOrdinal is the position within Section (0-indexed), -1 outside a section.
	SectionOrdinal int `json:"section_ordinal"`

	// Statement is the label passed to Test or Assert.
	Statement string `json:"statement"`

	Passed bool `json:"passed"`

	// Message holds the error message of a failed test, empty otherwise.
	Message string `json:"message,omitempty"`

	// AssertionError is set when the failure came from resolving the value
	// or applying an assertion predicate.
	AssertionError bool `json:"assertion_error,omitempty"`

	Duration time.Duration `json:"duration"`
}

// SectionSummary is the tally of a flushed section.
type SectionSummary struct {
	Name   string `json:"name"`
	Total  int    `json:"total"`
	Passed int    `json:"passed"`
}

// OK reports whether every test of the section passed.
func (s SectionSummary) OK() bool {
	return s.Passed == s.Total
}

// Report describes a finished run.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Verbose    bool             `json:"verbose"`
	Total      int              `json:"total"`
	Passed     int              `json:"passed"`
	Results    []Result         `json:"results"`
	Sections   []SectionSummary `json:"sections"`

	// Lines are the report lines in the order they were printed.
	Lines []string `json:"lines"`
}

// Failed returns the number of failed tests.
func (r Report) Failed() int {
	return r.Total - r.Passed
}

// OK reports whether the run had no failures.
func (r Report) OK() bool {
	return r.Passed == r.Total
}
