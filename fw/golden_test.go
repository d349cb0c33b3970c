package fw_test

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/dshills/firewyrm/fw"
)

// TestVerboseReportGolden compares a complete verbose report with
// testdata/golden/verbose_report.golden. Regenerate with:
//
//	go test ./fw -run TestVerboseReportGolden -update
func TestVerboseReportGolden(t *testing.T) {
	r, rec := newRunner(t)

	r.Start()
	r.Test("top-level", true)
	r.Section("math")
	r.Test("adds", func() bool { return 1+1 == 2 })
	r.Assert("divides", func() (int, error) { return 0, errors.New("division by zero") }).Is(0)
	r.Section("strings")
	r.Assert("contains", "firewyrm").Contains("wyrm")
	r.Section("")
	r.Test("fails", false)
	rep := await(t, r.End(true))

	if rep.Total != 5 || rep.Passed != 3 {
		t.Fatalf("tally = %d/%d, want 3/5", rep.Passed, rep.Total)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "verbose_report", []byte(rec.String()))
}

// TestDefaultRunner drives the package-level functions.
func TestDefaultRunner(t *testing.T) {
	recorded := make(chan string, 64)
	previous := fw.Sink()
	fw.SetSink(func(line string) { recorded <- line })
	fw.SetOnProgress(nil)
	defer fw.SetSink(previous)

	fw.Start()
	fw.Section("default")
	fw.Test("shared", true)
	fw.Assert("shared assertion", []int{1, 2}).HasLength(2)
	rep := await(t, fw.End(false))

	if rep.Total != 2 || !rep.OK() {
		t.Fatalf("tally = %d/%d, want 2/2", rep.Passed, rep.Total)
	}
	if fw.OnProgress() != nil {
		t.Error("OnProgress() != nil after SetOnProgress(nil)")
	}
	if len(recorded) != len(rep.Lines) {
		t.Errorf("sink received %d lines, report has %d", len(recorded), len(rep.Lines))
	}

	holder := &struct{ Name string }{Name: "real"}
	fw.Mock("mock").Replace(holder, "Name")
	if n := fw.Restore(); n != 1 || holder.Name != "real" {
		t.Errorf("Restore() = %d, Name = %q", n, holder.Name)
	}
}
