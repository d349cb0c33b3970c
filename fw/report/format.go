package report

import (
	"fmt"
	"strings"
)

// Fixed report lines.
const (
	Banner        = "🔥🐲 FIREWYRM TESTING 🔥🐲"
	BannerRule    = "=========================="
	PassedLine    = "✅ Passed"
	FailedLine    = "❌ Failed"
	SectionPassed = "✅ Section passed"
	SectionFailed = "❌ Section failed"
	FinalHeader   = "=== FINAL RESULTS ==="
	Complete      = "Testing complete"
	UnnamedTest   = "unnamed test"
)

// Indentation used for result lines and section bodies.
const indent = "  "

// Indent prefixes every continuation line of a multi-line message.
func Indent(message string) string {
	return strings.ReplaceAll(message, "\n", "\n"+indent)
}

// Prefix returns the label that introduces a test line: "{section} {n}"
// inside a section, "Test {ordinal}" otherwise.
func Prefix(section string, sectionOrdinal, ordinal int) string {
	if section != "" {
		return fmt.Sprintf("%s %d", section, sectionOrdinal)
	}
	return fmt.Sprintf("Test %d", ordinal)
}

// TestLine formats the line announcing a test.
func TestLine(prefix, statement string) string {
	if statement == "" {
		statement = UnnamedTest
	}
	return prefix + ": " + statement
}

// OutcomeLine formats the pass/fail line that follows a test line.
func OutcomeLine(passed bool) string {
	if passed {
		return indent + PassedLine
	}
	return indent + FailedLine
}

// FailureLine formats the line for a test whose function failed.
func FailureLine(message string) string {
	return indent + FailedLine + ": " + message
}

// AssertionErrorLine formats the line for an assertion that could not be evaluated.
func AssertionErrorLine(message string) string {
	return indent + "❌ Assertion error: " + message
}

// SectionBlock renders a flushed section: a blank separator, the header,
// the buffered body, the tally and the banner.
func SectionBlock(name string, body []string, passed, total int) []string {
	lines := make([]string, 0, len(body)+4)
	lines = append(lines, "", "=== "+name+" ===")
	lines = append(lines, body...)
	lines = append(lines, fmt.Sprintf("SECTION RESULTS: %d/%d passed", passed, total))
	if passed == total {
		lines = append(lines, SectionPassed)
	} else {
		lines = append(lines, SectionFailed)
	}
	return lines
}

// SectionBody indents a line buffered while a section is open, continuation
// lines included.
func SectionBody(line string) string {
	return indent + Indent(line)
}

// FinalBlock renders the verbose summary appended by a run's end.
func FinalBlock(total, passed int) []string {
	return []string{
		"",
		FinalHeader,
		fmt.Sprintf("Total tests: %d", total),
		fmt.Sprintf("Passed: %d", passed),
		fmt.Sprintf("Failed: %d", total-passed),
	}
}

// CountOutcomes counts the per-test pass and fail lines among lines.
// Failure lines carrying a message count as failures.
func CountOutcomes(lines []string) (passed, failed int) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == PassedLine:
			passed++
		case trimmed == FailedLine,
			strings.HasPrefix(trimmed, FailedLine+": "),
			strings.HasPrefix(trimmed, "❌ Assertion error: "):
			failed++
		}
	}
	return passed, failed
}
