package engine

import (
	"context"
	"errors"
	"fmt"
)

// SyncError represents an error raised while syncing the clients collection
// or applying a command on this device.
//
// Only UNSUPPORTED_COMMAND and command application failures are recovered
// inside a cycle (the command is requeued). Every other kind aborts the
// cycle and reaches the caller unchanged.
type SyncError struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorKind categorizes sync errors.
type ErrorKind string

const (
	// ErrKindUnknownEngine indicates a command or request named an engine
	// this manager has never heard of.
	ErrKindUnknownEngine ErrorKind = "UNKNOWN_ENGINE"

	// ErrKindUnsupportedFeature indicates the manager was built or
	// configured without the engine a command targets.
	ErrKindUnsupportedFeature ErrorKind = "UNSUPPORTED_FEATURE"

	// ErrKindUnsupportedCommand indicates a client command this device
	// cannot classify. It is requeued, never fatal.
	ErrKindUnsupportedCommand ErrorKind = "UNSUPPORTED_COMMAND"

	// ErrKindConnectionClosed indicates the local store behind an engine
	// has been closed.
	ErrKindConnectionClosed ErrorKind = "CONNECTION_CLOSED"

	// ErrKindInvalidHandle indicates an engine handle that was never issued
	// or was already released.
	ErrKindInvalidHandle ErrorKind = "INVALID_HANDLE"

	// ErrKindDecode indicates a malformed wire payload.
	ErrKindDecode ErrorKind = "DECODE_ERROR"

	// ErrKindSyncAdapter indicates a protocol or transport failure.
	ErrKindSyncAdapter ErrorKind = "SYNC_ADAPTER_ERROR"

	// ErrKindInterrupted indicates cooperative cancellation.
	ErrKindInterrupted ErrorKind = "INTERRUPTED"

	// ErrKindSerialization indicates a record that cannot be encoded.
	ErrKindSerialization ErrorKind = "SERIALIZATION_ERROR"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first SyncError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsInterrupted returns true if the error is a cancellation.
// Uses errors.As to handle wrapped errors.
func IsInterrupted(err error) bool {
	return KindOf(err) == ErrKindInterrupted
}

// IsUnsupportedCommand returns true if the error is an unclassifiable command.
func IsUnsupportedCommand(err error) bool {
	return KindOf(err) == ErrKindUnsupportedCommand
}

// IsSyncAdapterError returns true if the error came from the protocol client.
func IsSyncAdapterError(err error) bool {
	return KindOf(err) == ErrKindSyncAdapter
}

// IsRecoverable reports whether a cycle may continue after err. Only
// command-level failures qualify; they are requeued by the engine.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case ErrKindInterrupted, ErrKindSyncAdapter, ErrKindDecode, ErrKindSerialization:
		return false
	default:
		return true
	}
}

// NewUnknownEngineError creates a SyncError for an unknown engine name.
func NewUnknownEngineError(engine string) *SyncError {
	return &SyncError{
		Kind:    ErrKindUnknownEngine,
		Message: fmt.Sprintf("unknown engine: %s", engine),
	}
}

// NewUnsupportedFeatureError creates a SyncError for an engine this manager
// does not provide.
func NewUnsupportedFeatureError(feature string) *SyncError {
	return &SyncError{
		Kind:    ErrKindUnsupportedFeature,
		Message: fmt.Sprintf("manager was built without support for %q", feature),
	}
}

// NewUnsupportedCommandError creates a SyncError for a command name this
// device does not understand.
func NewUnsupportedCommandError(name string) *SyncError {
	return &SyncError{
		Kind:    ErrKindUnsupportedCommand,
		Message: fmt.Sprintf("manager doesn't support client command %q", name),
	}
}

// NewConnectionClosedError creates a SyncError for a closed local store.
func NewConnectionClosedError(engine string) *SyncError {
	return &SyncError{
		Kind:    ErrKindConnectionClosed,
		Message: fmt.Sprintf("database connection for %q is not open", engine),
	}
}

// NewInvalidHandleError creates a SyncError for a stale or foreign handle.
func NewInvalidHandleError(handle uint64) *SyncError {
	return &SyncError{
		Kind:    ErrKindInvalidHandle,
		Message: fmt.Sprintf("handle is invalid: %d", handle),
	}
}

// NewDecodeError wraps a payload decoding failure.
func NewDecodeError(id string, err error) *SyncError {
	return &SyncError{
		Kind:    ErrKindDecode,
		Message: fmt.Sprintf("malformed record %q", id),
		Err:     err,
	}
}

// NewSyncAdapterError wraps a protocol client failure.
func NewSyncAdapterError(op string, err error) *SyncError {
	return &SyncError{
		Kind:    ErrKindSyncAdapter,
		Message: fmt.Sprintf("error synchronizing: %s", op),
		Err:     err,
	}
}

// NewInterruptedError wraps the cancellation cause.
func NewInterruptedError(err error) *SyncError {
	if err == nil {
		err = context.Canceled
	}
	return &SyncError{
		Kind:    ErrKindInterrupted,
		Message: "operation interrupted",
		Err:     err,
	}
}

// NewSerializationError wraps a record encoding failure.
func NewSerializationError(id string, err error) *SyncError {
	return &SyncError{
		Kind:    ErrKindSerialization,
		Message: fmt.Sprintf("cannot serialize record %q", id),
		Err:     err,
	}
}
