package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
)

func sampleResult() *Result {
	r := NewResult()
	r.addTrace(TraceEvent{Type: EventFetch, Records: 2})
	r.addTrace(TraceEvent{Type: EventWipe, Engine: "history"})
	r.addTrace(TraceEvent{Type: EventUpload, IDs: []string{"phone", "laptop"}})
	r.Stats = &engine.Stats{Fetched: 2, Applied: 1, Uploaded: 2}
	r.Applied = []ir.Command{ir.WipeHistory}
	r.Uploaded = []ir.Client{{ID: "phone"}, {ID: "laptop"}}
	r.Records = []StoredRecord{
		{ID: "phone", Client: &ir.Client{ID: "phone", Commands: []ir.ClientCommand{
			{Name: ir.CommandResetEngine, Args: []string{"bookmarks"}},
		}}},
		{ID: "broken", Raw: "{"},
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertApplied, Commands: []string{"wipe-history"}},
		{Type: AssertStats, Stats: map[string]int{"fetched": 2, "applied": 1, "failed": 0}},
		{Type: AssertRecordCommands, ID: "phone", Commands: []string{"reset-bookmarks"}},
		{Type: AssertUploadedIDs, IDs: []string{"phone", "laptop"}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Mismatches(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "applied order",
			assertion: Assertion{Type: AssertApplied, Commands: []string{"wipe-all"}},
			wantErr:   "Actual: [wipe-history]",
		},
		{
			name:      "stats value",
			assertion: Assertion{Type: AssertStats, Stats: map[string]int{"applied": 3}},
			wantErr:   "applied: expected 3, got 1",
		},
		{
			name:      "stats unknown counter",
			assertion: Assertion{Type: AssertStats, Stats: map[string]int{"wiped": 1}},
			wantErr:   "wiped: unknown counter",
		},
		{
			name:      "record missing",
			assertion: Assertion{Type: AssertRecordCommands, ID: "tablet"},
			wantErr:   "not found on server",
		},
		{
			name:      "record not a client",
			assertion: Assertion{Type: AssertRecordCommands, ID: "broken"},
			wantErr:   "not found on server",
		},
		{
			name:      "record commands",
			assertion: Assertion{Type: AssertRecordCommands, ID: "phone", Commands: []string{}},
			wantErr:   "phone has [reset-bookmarks]",
		},
		{
			name:      "uploaded ids",
			assertion: Assertion{Type: AssertUploadedIDs, IDs: []string{"laptop", "phone"}},
			wantErr:   "Expected: [laptop phone]",
		},
		{
			name:      "error kind without error",
			assertion: Assertion{Type: AssertErrorKind, Kind: string(engine.ErrKindDecode)},
			wantErr:   "Actual: no error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
			assert.Contains(t, errs[0], "Full trace:")
		})
	}
}

func TestEvaluateAssertions_UnexpectedSyncFailure(t *testing.T) {
	r := NewResult()
	r.Err = engine.NewDecodeError("broken", errors.New("unexpected EOF"))

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertApplied, Commands: []string{}},
		{Type: AssertUploadedIDs, IDs: []string{}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "sync failed")
}

func TestEvaluateAssertions_ExpectedSyncFailure(t *testing.T) {
	r := NewResult()
	r.Err = engine.NewDecodeError("broken", errors.New("unexpected EOF"))

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertErrorKind, Kind: string(engine.ErrKindDecode)},
		{Type: AssertApplied, Commands: []string{}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{
		{Type: AssertErrorKind, Kind: string(engine.ErrKindInterrupted)},
		{Type: AssertStats, Stats: map[string]int{"fetched": 0}},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Actual: DECODE_ERROR")
	assert.Contains(t, errs[1], "no stats")
}

func TestAssertionError_FormatsTrace(t *testing.T) {
	r := sampleResult()
	r.addTrace(TraceEvent{Type: EventReset, Engine: "passwords", Failed: true})

	err := &AssertionError{Type: AssertApplied, Expected: "[]", Actual: "[wipe-history]", Trace: r.Trace}
	msg := err.Error()

	assert.Contains(t, msg, "Assertion failed: applied")
	assert.Contains(t, msg, "  Expected: []")
	assert.Contains(t, msg, "[1] fetch 2 records")
	assert.Contains(t, msg, "[2] wipe history")
	assert.Contains(t, msg, "[3] upload [phone laptop]")
	assert.Contains(t, msg, "[4] reset passwords (failed)")
}
