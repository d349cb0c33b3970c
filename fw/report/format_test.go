package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrefix(t *testing.T) {
	if got := Prefix("", -1, 3); got != "Test 3" {
		t.Errorf("Prefix outside section = %q, want %q", got, "Test 3")
	}
	if got := Prefix("math", 0, 3); got != "math 0" {
		t.Errorf("Prefix inside section = %q, want %q", got, "math 0")
	}
}

func TestTestLine(t *testing.T) {
	if got := TestLine("Test 1", ""); got != "Test 1: unnamed test" {
		t.Errorf("TestLine = %q", got)
	}
	if got := TestLine("s 2", "adds"); got != "s 2: adds" {
		t.Errorf("TestLine = %q", got)
	}
}

func TestOutcomeLines(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{OutcomeLine(true), "  ✅ Passed"},
		{OutcomeLine(false), "  ❌ Failed"},
		{FailureLine("boom"), "  ❌ Failed: boom"},
		{AssertionErrorLine("bad"), "  ❌ Assertion error: bad"},
		{Indent("a\nb\nc"), "a\n  b\n  c"},
		{SectionBody("x\ny"), "  x\n  y"},
		{SectionBody(Indent("x\ny")), "  x\n    y"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSectionBlock(t *testing.T) {
	body := []string{"  s 0: a", "    ✅ Passed"}

	got := SectionBlock("s", body, 1, 1)
	want := []string{"", "=== s ===", "  s 0: a", "    ✅ Passed", "SECTION RESULTS: 1/1 passed", SectionPassed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("passing block mismatch (-want +got):\n%s", diff)
	}

	got = SectionBlock("s", body, 0, 2)
	if got[len(got)-1] != SectionFailed || got[len(got)-2] != "SECTION RESULTS: 0/2 passed" {
		t.Errorf("failing block tail = %q", got[len(got)-2:])
	}
}

func TestFinalBlock(t *testing.T) {
	want := []string{"", FinalHeader, "Total tests: 4", "Passed: 3", "Failed: 1"}
	if diff := cmp.Diff(want, FinalBlock(4, 3)); diff != "" {
		t.Errorf("FinalBlock mismatch (-want +got):\n%s", diff)
	}
}

func TestCountOutcomes(t *testing.T) {
	lines := []string{
		Banner,
		"Test 1: a", OutcomeLine(true),
		"Test 2: b", FailureLine("x"),
		"", "=== s ===", SectionBody("s 0: c"), SectionBody(OutcomeLine(true)),
		SectionBody(AssertionErrorLine("y")),
		"SECTION RESULTS: 1/2 passed", SectionFailed,
		"Test 5: d", OutcomeLine(false),
	}
	passed, failed := CountOutcomes(lines)
	if passed != 2 || failed != 3 {
		t.Errorf("CountOutcomes = %d passed, %d failed; want 2, 3", passed, failed)
	}
}

func TestReportTally(t *testing.T) {
	rep := Report{Total: 3, Passed: 2}
	if rep.Failed() != 1 || rep.OK() {
		t.Errorf("Failed() = %d, OK() = %v", rep.Failed(), rep.OK())
	}
	if !(SectionSummary{Total: 2, Passed: 2}).OK() {
		t.Error("full section not OK")
	}
}
