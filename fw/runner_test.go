package fw_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/firewyrm/fw"
	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"github.com/dshills/firewyrm/fw/store"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestRunnerReportsTests(t *testing.T) {
	r, rec := newRunner(t)

	r.Start()
	r.Test("passes", func() bool { return true })
	r.Test("fails", false)
	r.Test("", 1)
	rep := await(t, r.End(false))

	want := []string{
		report.Banner,
		report.BannerRule,
		"",
		"Test 1: passes",
		"  ✅ Passed",
		"Test 2: fails",
		"  ❌ Failed",
		"Test 3: unnamed test",
		"  ✅ Passed",
	}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Errorf("printed lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, rep.Lines); diff != "" {
		t.Errorf("report lines mismatch (-want +got):\n%s", diff)
	}
	if rep.Total != 3 || rep.Passed != 2 || rep.Failed() != 1 {
		t.Errorf("tally = %d/%d, want 2/3", rep.Passed, rep.Total)
	}
	if rep.Verbose {
		t.Error("quiet End produced a verbose report")
	}
}

func TestRunnerFailureMessages(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))

	r.Start()
	r.Test("returns error", func() (bool, error) { return false, errors.New("boom") })
	r.Test("panics", func() bool { panic("kaboom") })
	r.Test("multi-line", func() error { return errors.New("first\nsecond") })
	r.Test("nil error", func() error { return nil })
	rep := await(t, r.End(false))

	want := []string{
		"Test 1: returns error",
		"  ❌ Failed: boom",
		"Test 2: panics",
		"  ❌ Failed: kaboom",
		"Test 3: multi-line",
		"  ❌ Failed: first\n  second",
		"Test 4: nil error",
		"  ✅ Passed",
	}
	if diff := cmp.Diff(want, rep.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if got := rep.Results[0].Message; got != "boom" {
		t.Errorf("Results[0].Message = %q, want %q", got, "boom")
	}
	if rep.Results[1].AssertionError {
		t.Error("a failing test function was recorded as an assertion error")
	}
}

func TestRunnerCallableShapes(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))

	r.Start()
	r.Test("func() T", func() string { return "yes" })
	r.Test("func() (T, error)", func() (int, error) { return 7, nil })
	r.Test("func()", func() {})
	r.Test("func(ctx) T", func(ctx context.Context) bool { return ctx != nil })
	r.Test("func(ctx) error", func(context.Context) error { return nil })
	r.Test("promise", fw.Resolved(true))
	r.Test("func returning promise", func() *fw.Promise[int] { return fw.Resolved(0) })
	r.Test("async", func() *fw.Promise[bool] {
		return fw.Async(context.Background(), func(context.Context) (bool, error) {
			time.Sleep(5 * time.Millisecond)
			return true, nil
		})
	})
	r.Test("rejected promise", fw.Rejected[bool](errors.New("nope")))
	r.Test("func with arguments is called", func(n int) bool { return n != 0 })
	r.Test("func with ctx and arguments", func(ctx context.Context, s string, n int) (bool, error) {
		return ctx != nil && s == "" && n == 0, nil
	})
	rep := await(t, r.End(false))

	want := []bool{true, true, false, true, true, true, false, true, false, false, true}
	got := make([]bool, len(rep.Results))
	for i, res := range rep.Results {
		got[i] = res.Passed
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if msg := rep.Results[8].Message; msg != "nope" {
		t.Errorf("rejection message = %q, want %q", msg, "nope")
	}
}

func TestRunnerCallsTestFuncWithArguments(t *testing.T) {
	r, rec := newRunner(t, fw.WithBanner(false))

	ran := false
	r.Start()
	r.Test("needs arg", func(n int) bool {
		ran = true
		return n > 0
	})
	rep := await(t, r.End(false))

	if !ran {
		t.Error("test body was not called")
	}
	if rep.Passed != 0 {
		t.Errorf("Passed = %d, want 0", rep.Passed)
	}
	want := []string{"Test 1: needs arg", "  ❌ Failed"}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerPending(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))

	entered := make(chan struct{})
	release := make(chan struct{})
	r.Start()
	r.Test("blocks", func() bool {
		close(entered)
		<-release
		return true
	})
	r.Test("second", true)
	r.Test("third", true)

	<-entered
	if got := r.Pending(); got != 2 {
		t.Errorf("Pending() while blocked = %d, want 2", got)
	}
	close(release)

	rep := await(t, r.End(false))
	if rep.Passed != 3 {
		t.Errorf("Passed = %d, want 3", rep.Passed)
	}
	if got := r.Pending(); got != 0 {
		t.Errorf("Pending() after End = %d, want 0", got)
	}
}

func TestRunnerPreservesOrder(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))

	r.Start()
	for i := 0; i < 5; i++ {
		delay := time.Duration(5-i) * 5 * time.Millisecond
		r.Test(fmt.Sprintf("t%d", i), func() bool {
			time.Sleep(delay)
			return true
		})
	}
	rep := await(t, r.End(false))

	for i, res := range rep.Results {
		if want := fmt.Sprintf("t%d", i); res.Statement != want {
			t.Errorf("Results[%d].Statement = %q, want %q", i, res.Statement, want)
		}
		if res.Ordinal != i+1 {
			t.Errorf("Results[%d].Ordinal = %d, want %d", i, res.Ordinal, i+1)
		}
	}
	for i := 0; i < 5; i++ {
		if want := fmt.Sprintf("Test %d: t%d", i+1, i); rep.Lines[2*i] != want {
			t.Errorf("Lines[%d] = %q, want %q", 2*i, rep.Lines[2*i], want)
		}
	}
}

func TestRunnerConcurrentRegistration(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))
	r.Start()

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < 25; i++ {
				r.Test(fmt.Sprintf("w%d-%d", w, i), true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	rep := await(t, r.End(false))

	if rep.Total != 100 || rep.Passed != 100 {
		t.Fatalf("tally = %d/%d, want 100/100", rep.Passed, rep.Total)
	}
	for i, res := range rep.Results {
		if res.Ordinal != i+1 {
			t.Fatalf("Results[%d].Ordinal = %d, want %d", i, res.Ordinal, i+1)
		}
	}
}

func TestRunnerPicksUpTasksQueuedWhileDraining(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))
	ends := make(chan *fw.Promise[report.Report], 1)

	r.Start()
	r.Test("outer", func() bool {
		r.Test("inner", true)
		ends <- r.End(false)
		return true
	})

	rep := await(t, <-ends)
	if len(rep.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(rep.Results))
	}
	if rep.Results[0].Statement != "outer" || rep.Results[1].Statement != "inner" {
		t.Errorf("statements = %q, %q", rep.Results[0].Statement, rep.Results[1].Statement)
	}
}

func TestRunnerImplicitEnd(t *testing.T) {
	r, rec := newRunner(t)

	r.Test("solo", true)
	st := settle(t, r)

	want := []string{"Test 1: solo", "  ✅ Passed"}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fw.State{}, st); diff != "" {
		t.Errorf("state after implicit end (-want +got):\n%s", diff)
	}

	rec.Reset()
	r.Assert("again", 2).Is(2)
	settle(t, r)
	want = []string{"Test 1: again", "  ✅ Passed"}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Errorf("second implicit run (-want +got):\n%s", diff)
	}
}

func TestRunnerEndResetsState(t *testing.T) {
	r, _ := newRunner(t)
	initial := settle(t, r)

	r.Start()
	if !r.Running() {
		t.Fatal("Running() = false after Start")
	}
	r.Section("math")
	r.Test("one", true)
	r.Test("two", false)
	during := settle(t, r)
	if during.TestCount != 2 || during.PassCount != 1 || during.Section != "math" {
		t.Errorf("state during run = %+v", during)
	}
	await(t, r.End(true))

	if r.Running() {
		t.Error("Running() = true after End")
	}
	if diff := cmp.Diff(initial, settle(t, r)); diff != "" {
		t.Errorf("state after End differs from initial (-want +got):\n%s", diff)
	}
}

func TestRunnerVerboseSummary(t *testing.T) {
	r, _ := newRunner(t, fw.WithBanner(false))

	r.Start()
	r.Test("a", true)
	r.Test("b", 0)
	r.Assert("c", 3).Is(3)
	r.Assert("d", 3).Is(4)
	rep := await(t, r.End(true))

	tail := rep.Lines[len(rep.Lines)-5:]
	want := []string{"", report.FinalHeader, "Total tests: 4", "Passed: 2", "Failed: 2"}
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Errorf("final block mismatch (-want +got):\n%s", diff)
	}

	passed, failed := report.CountOutcomes(rep.Lines)
	if passed != rep.Passed || failed != rep.Failed() {
		t.Errorf("CountOutcomes = %d/%d, report = %d/%d", passed, failed, rep.Passed, rep.Failed())
	}
}

func TestRunnerProgress(t *testing.T) {
	var mu sync.Mutex
	var got []string
	progress := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
	}
	r, rec := newRunner(t, fw.WithOnProgress(progress))
	if r.OnProgress() == nil {
		t.Fatal("OnProgress() = nil after WithOnProgress")
	}

	r.Start()
	r.Test("a", true)
	r.Test("b", false)
	await(t, r.End(true))

	want := append([]string{}, report.FinalBlock(2, 1)...)
	want = append(want, rec.Lines()...)
	want = append(want, report.Complete)

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerSetSink(t *testing.T) {
	r, first := newRunner(t, fw.WithBanner(false))
	second := report.NewRecorder()

	r.SetSink(second.Log)
	r.Start()
	r.Test("routed", true)
	await(t, r.End(false))

	if len(first.Lines()) != 0 {
		t.Errorf("replaced sink received %d lines", len(first.Lines()))
	}
	if len(second.Lines()) != 2 {
		t.Errorf("new sink received %d lines, want 2", len(second.Lines()))
	}
	if r.Sink() == nil {
		t.Error("Sink() = nil")
	}

	r.SetSink(nil)
	if r.Sink() == nil {
		t.Error("SetSink(nil) left no sink")
	}
}

func TestRunnerSurvivesPanickingSink(t *testing.T) {
	calls := 0
	sink := func(string) {
		calls++
		panic("sink down")
	}
	r, err := fw.New(fw.WithSink(sink), fw.WithBanner(false))
	if err != nil {
		t.Fatal(err)
	}

	r.Start()
	r.Test("a", true)
	rep := await(t, r.End(false))

	if calls != 2 {
		t.Errorf("sink calls = %d, want 2", calls)
	}
	if rep.Passed != 1 {
		t.Errorf("Passed = %d, want 1", rep.Passed)
	}
}

func TestRunnerEmitsEvents(t *testing.T) {
	events := emit.NewBufferedEmitter()
	r, _ := newRunner(t,
		fw.WithEmitter(events),
		fw.WithRunIDFunc(func() string { return "run-1" }),
	)

	r.Start()
	r.Section("s")
	r.Test("ok", true)
	r.Assert("broken", "abc").GreaterThan(1)
	r.Section("")
	r.Test("bad", false)
	rep := await(t, r.End(false))

	if rep.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", rep.RunID)
	}

	history := events.GetHistory("run-1")
	var msgs []string
	for _, e := range history {
		msgs = append(msgs, e.Msg)
	}
	want := []string{
		emit.MsgRunStart,
		emit.MsgTestPass,
		emit.MsgAssertionError,
		emit.MsgSectionFlush,
		emit.MsgTestFail,
		emit.MsgRunEnd,
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("event sequence mismatch (-want +got):\n%s", diff)
	}
	if history[1].Section != "s" || history[1].Ordinal != 1 {
		t.Errorf("test_pass event = %+v", history[1])
	}
	if history[4].Section != "" {
		t.Errorf("test outside section carried section %q", history[4].Section)
	}
	if history[3].Meta["total"] != 2 || history[3].Meta["passed"] != 1 {
		t.Errorf("section_flush meta = %v", history[3].Meta)
	}
}

func TestRunnerSavesReports(t *testing.T) {
	st := store.NewMemStore()
	r, _ := newRunner(t, fw.WithStore(st))

	r.Start()
	r.Test("a", true)
	rep := await(t, r.End(true))

	saved, err := st.LoadReport(context.Background(), rep.RunID)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if diff := cmp.Diff(rep.Lines, saved.Lines); diff != "" {
		t.Errorf("saved lines mismatch (-want +got):\n%s", diff)
	}
	if !saved.Verbose || saved.Total != 1 {
		t.Errorf("saved report = %+v", saved)
	}
}

func TestRunnerRunIDs(t *testing.T) {
	r, _ := newRunner(t)

	r.Start()
	first := await(t, r.End(false))
	r.Start()
	second := await(t, r.End(false))

	if first.RunID == "" || first.RunID == second.RunID {
		t.Errorf("run IDs %q and %q should be distinct and non-empty", first.RunID, second.RunID)
	}
	if first.FinishedAt.Before(first.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  fw.Option
	}{
		{"nil sink", fw.WithSink(nil)},
		{"nil context", fw.WithContext(nil)}, //nolint:staticcheck // exercising validation
		{"nil run ID func", fw.WithRunIDFunc(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fw.New(tt.opt)
			var rerr *fw.RunnerError
			if !errors.As(err, &rerr) {
				t.Fatalf("New() error = %v, want *RunnerError", err)
			}
			if rerr.Code != "INVALID_OPTION" {
				t.Errorf("Code = %q, want INVALID_OPTION", rerr.Code)
			}
		})
	}
}

func TestRunnerPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")
	r, _ := newRunner(t, fw.WithContext(ctx))

	r.Start()
	r.Test("sees context", func(ctx context.Context) bool { return ctx.Value(key{}) == "marker" })
	rep := await(t, r.End(false))

	if !rep.OK() {
		t.Error("test function did not receive the runner context")
	}
}
