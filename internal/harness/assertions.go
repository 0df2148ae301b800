package harness

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/clientsync/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full trace for context
	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		switch event.Type {
		case EventFetch:
			fmt.Fprintf(&buf, "  [%d] fetch %d records\n", event.Seq, event.Records)
		case EventUpload:
			fmt.Fprintf(&buf, "  [%d] upload %v\n", event.Seq, event.IDs)
		default:
			status := ""
			if event.Failed {
				status = " (failed)"
			}
			fmt.Fprintf(&buf, "  [%d] %s %s%s\n", event.Seq, event.Type, event.Engine, status)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. Assertions other than error_kind fail when the cycle
// itself failed, unless the scenario also expects that failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	expectsError := slices.ContainsFunc(assertions, func(a Assertion) bool {
		return a.Type == AssertErrorKind
	})
	if result.Err != nil && !expectsError {
		errs = append(errs, fmt.Sprintf("sync failed: %v", result.Err))
		return errs
	}

	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertApplied:
		return assertApplied(result, a)
	case AssertStats:
		return assertStats(result, a)
	case AssertRecordCommands:
		return assertRecordCommands(result, a)
	case AssertUploadedIDs:
		return assertUploadedIDs(result, a)
	case AssertErrorKind:
		return assertErrorKind(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertApplied checks the commands applied locally, in order.
func assertApplied(result *Result, a Assertion) error {
	actual := make([]string, len(result.Applied))
	for i, c := range result.Applied {
		actual[i] = c.String()
	}
	if !slices.Equal(actual, a.Commands) {
		return &AssertionError{
			Type:     AssertApplied,
			Expected: fmt.Sprintf("%v", a.Commands),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertStats checks the named counters (subset match).
func assertStats(result *Result, a Assertion) error {
	if result.Stats == nil {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("stats %v", a.Stats),
			Actual:   "no stats (sync failed)",
			Trace:    result.Trace,
		}
	}

	actual, err := statsMap(result.Stats)
	if err != nil {
		return err
	}

	// Sort keys for deterministic messages
	keys := make([]string, 0, len(a.Stats))
	for k := range a.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: unknown counter", k))
			continue
		}
		if got != int64(a.Stats[k]) {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %d, got %d", k, a.Stats[k], got))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("%v", a.Stats),
			Actual:   strings.Join(mismatches, "; "),
			Trace:    result.Trace,
		}
	}
	return nil
}

func statsMap(stats *engine.Stats) (map[string]int64, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// assertRecordCommands checks the command list of a record on the server
// after the cycle.
func assertRecordCommands(result *Result, a Assertion) error {
	rec := result.Record(a.ID)
	if rec == nil || rec.Client == nil {
		return &AssertionError{
			Type:     AssertRecordCommands,
			Expected: fmt.Sprintf("client record %s", a.ID),
			Actual:   "not found on server",
			Trace:    result.Trace,
		}
	}

	actual := make([]string, len(rec.Client.Commands))
	for i, cc := range rec.Client.Commands {
		actual[i] = commandName(cc)
	}
	if !slices.Equal(actual, a.Commands) {
		return &AssertionError{
			Type:     AssertRecordCommands,
			Expected: fmt.Sprintf("%s has %v", a.ID, a.Commands),
			Actual:   fmt.Sprintf("%s has %v", a.ID, actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertUploadedIDs checks which records were uploaded, in order.
func assertUploadedIDs(result *Result, a Assertion) error {
	actual := make([]string, len(result.Uploaded))
	for i, c := range result.Uploaded {
		actual[i] = c.ID
	}
	if !slices.Equal(actual, a.IDs) {
		return &AssertionError{
			Type:     AssertUploadedIDs,
			Expected: fmt.Sprintf("%v", a.IDs),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertErrorKind checks that the cycle failed with the given kind.
func assertErrorKind(result *Result, a Assertion) error {
	actual := "no error"
	if result.Err != nil {
		actual = string(engine.KindOf(result.Err))
		if actual == "" {
			actual = result.Err.Error()
		}
	}
	if actual != a.Kind {
		return &AssertionError{
			Type:     AssertErrorKind,
			Expected: a.Kind,
			Actual:   actual,
			Trace:    result.Trace,
		}
	}
	return nil
}
