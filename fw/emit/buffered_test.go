package emit

import "testing"

// TestBufferedEmitter_StoresEvents verifies events are stored per run.
func TestBufferedEmitter_StoresEvents(t *testing.T) {
	t.Run("stores events in emission order", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		emitter.Emit(Event{RunID: "run-001", Ordinal: 1, Msg: MsgTestPass})
		emitter.Emit(Event{RunID: "run-001", Ordinal: 2, Msg: MsgTestFail})

		history := emitter.GetHistory("run-001")
		if len(history) != 2 {
			t.Fatalf("expected 2 events, got %d", len(history))
		}
		if history[0].Ordinal != 1 || history[1].Ordinal != 2 {
			t.Errorf("unexpected order: %+v", history)
		}
	})

	t.Run("isolates events by runID", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		emitter.Emit(Event{RunID: "run-001", Msg: MsgTestPass})
		emitter.Emit(Event{RunID: "run-002", Msg: MsgTestPass})
		emitter.Emit(Event{RunID: "run-001", Msg: MsgRunEnd})

		if n := len(emitter.GetHistory("run-001")); n != 2 {
			t.Errorf("expected 2 events for run-001, got %d", n)
		}
		if n := len(emitter.GetHistory("run-002")); n != 1 {
			t.Errorf("expected 1 event for run-002, got %d", n)
		}
		if n := len(emitter.RunIDs()); n != 2 {
			t.Errorf("expected 2 run IDs, got %d", n)
		}
	})

	t.Run("returns empty slice for unknown runID", func(t *testing.T) {
		emitter := NewBufferedEmitter()

		history := emitter.GetHistory("unknown")
		if history == nil {
			t.Error("expected empty slice, got nil")
		}
		if len(history) != 0 {
			t.Errorf("expected 0 events, got %d", len(history))
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		emitter.Emit(Event{RunID: "run-001", Msg: MsgTestPass})

		history := emitter.GetHistory("run-001")
		history[0].Msg = "mutated"

		if got := emitter.GetHistory("run-001")[0].Msg; got != MsgTestPass {
			t.Errorf("stored event was mutated: %q", got)
		}
	})
}

func TestBufferedEmitter_GetHistoryWithFilter(t *testing.T) {
	emitter := NewBufferedEmitter()
	events := []Event{
		{RunID: "run-001", Ordinal: 1, Section: "math", Msg: MsgTestPass},
		{RunID: "run-001", Ordinal: 2, Section: "math", Msg: MsgTestFail},
		{RunID: "run-001", Ordinal: 0, Section: "math", Msg: MsgSectionFlush},
		{RunID: "run-001", Ordinal: 3, Section: "io", Msg: MsgTestPass},
		{RunID: "run-001", Ordinal: 4, Msg: MsgAssertionError},
	}
	for _, e := range events {
		emitter.Emit(e)
	}

	t.Run("filters by section", func(t *testing.T) {
		got := emitter.GetHistoryWithFilter("run-001", HistoryFilter{Section: "math"})
		if len(got) != 3 {
			t.Errorf("expected 3 events, got %d", len(got))
		}
	})

	t.Run("filters by message", func(t *testing.T) {
		got := emitter.GetHistoryWithFilter("run-001", HistoryFilter{Msg: MsgTestPass})
		if len(got) != 2 {
			t.Errorf("expected 2 events, got %d", len(got))
		}
	})

	t.Run("filters by ordinal range", func(t *testing.T) {
		lo, hi := 2, 3
		got := emitter.GetHistoryWithFilter("run-001", HistoryFilter{MinOrdinal: &lo, MaxOrdinal: &hi})
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		if got[0].Ordinal != 2 || got[1].Ordinal != 3 {
			t.Errorf("unexpected events: %+v", got)
		}
	})

	t.Run("combines criteria", func(t *testing.T) {
		got := emitter.GetHistoryWithFilter("run-001", HistoryFilter{Section: "math", Msg: MsgTestFail})
		if len(got) != 1 || got[0].Ordinal != 2 {
			t.Errorf("unexpected events: %+v", got)
		}
	})

	t.Run("empty result is non-nil", func(t *testing.T) {
		got := emitter.GetHistoryWithFilter("run-001", HistoryFilter{Msg: "nope"})
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %#v", got)
		}
	})
}

func TestBufferedEmitter_Clear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{RunID: "run-001"})
	emitter.Emit(Event{RunID: "run-002"})

	emitter.Clear("run-001")
	if len(emitter.GetHistory("run-001")) != 0 {
		t.Error("run-001 should be cleared")
	}
	if len(emitter.GetHistory("run-002")) != 1 {
		t.Error("run-002 should be kept")
	}

	emitter.Clear("")
	if len(emitter.RunIDs()) != 0 {
		t.Error("expected all runs cleared")
	}
}
