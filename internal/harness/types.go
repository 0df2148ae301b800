package harness

import (
	"github.com/roach88/clientsync/internal/engine"
	"github.com/roach88/clientsync/internal/ir"
)

// Trace event types.
const (
	EventFetch  = "fetch"
	EventWipe   = "wipe"
	EventReset  = "reset"
	EventUpload = "upload"
)

// TraceEvent is one observable step of a cycle: the fetch, a wipe or reset
// of a local engine, or the upload.
type TraceEvent struct {
	Type    string   `json:"type"`
	Engine  string   `json:"engine,omitempty"`  // wipe, reset
	Records int      `json:"records,omitempty"` // fetch
	IDs     []string `json:"ids,omitempty"`     // upload
	Atomic  bool     `json:"atomic,omitempty"`  // upload
	Failed  bool     `json:"failed,omitempty"`  // wipe, reset
	Seq     int64    `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match.
	Pass bool `json:"pass"`

	// Trace contains the cycle's steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stats is nil when the cycle failed.
	Stats *engine.Stats `json:"stats,omitempty"`

	// Err is the error the cycle returned, if any.
	Err error `json:"-"`

	// Applied lists commands applied locally, in order.
	Applied []ir.Command `json:"-"`

	// Uploaded holds the records sent in the upload, in order. It is nil
	// when nothing was uploaded.
	Uploaded []ir.Client `json:"-"`

	// Records is the server's collection after the cycle, in insertion
	// order. Payloads that are not client records are kept verbatim.
	Records []StoredRecord `json:"-"`
}

// StoredRecord is one record on the server after the cycle.
type StoredRecord struct {
	ID     string
	Client *ir.Client // nil if Raw did not decode
	Raw    string
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends ev with the next sequence number.
func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}

// Record returns the stored record with id, or nil.
func (r *Result) Record(id string) *StoredRecord {
	for i := range r.Records {
		if r.Records[i].ID == id {
			return &r.Records[i]
		}
	}
	return nil
}
