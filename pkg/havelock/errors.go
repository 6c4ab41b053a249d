package havelock

import (
	"errors"
	"fmt"

	"github.com/gitter-badger/havelock/internal/errcode"
)

// ErrAborted is returned by Transact when the transaction function called
// Abort on its frame. The frame's pending writes were discarded and no
// propagation occurred.
var ErrAborted = errors.New("havelock: transaction aborted")

// ErrNotAttached is returned by Start and Force on a reaction that has not
// been attached to a source.
var ErrNotAttached = errors.New("havelock: " + errcode.Message("H006"))

// ValidationError reports a candidate value rejected by an atom's
// validator. The atom is unchanged and nothing propagated.
type ValidationError struct {
	// AtomID identifies the atom whose validator rejected the value.
	AtomID uint64

	// Value is the rejected candidate.
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("havelock: %s (atom %d, value %v)", errcode.Message("H002"), e.AtomID, e.Value)
}

// Code returns the registered error code for this error.
func (e *ValidationError) Code() string { return "H002" }

// Format renders the full diagnostic for this error, including the
// suggestion and documentation link from the code registry.
func (e *ValidationError) Format() string {
	return errcode.Format("H002", fmt.Sprintf("atom %d rejected value %v", e.AtomID, e.Value))
}

// ReentrantWriteError reports an atom write attempted while the engine was
// reading: inside a derivation compute or during a propagation pass. The
// write did not happen; engine state is intact.
type ReentrantWriteError struct {
	// During names the activity the write interrupted.
	During string
}

func (e *ReentrantWriteError) Error() string {
	return fmt.Sprintf("havelock: %s (during %s)", errcode.Message("H001"), e.During)
}

func (e *ReentrantWriteError) Code() string { return "H001" }

func (e *ReentrantWriteError) Format() string {
	return errcode.Format("H001", "write attempted during "+e.During)
}

// DuplicateAttachmentError reports a reaction attached to a second source.
type DuplicateAttachmentError struct {
	// ReactionID identifies the already-attached reaction.
	ReactionID uint64
}

func (e *DuplicateAttachmentError) Error() string {
	return fmt.Sprintf("havelock: %s (reaction %d)", errcode.Message("H003"), e.ReactionID)
}

func (e *DuplicateAttachmentError) Code() string { return "H003" }

func (e *DuplicateAttachmentError) Format() string {
	return errcode.Format("H003", fmt.Sprintf("reaction %d", e.ReactionID))
}

// InvalidTransactionStateError reports Abort called on a transaction frame
// that is no longer active: its Transact call has already committed or
// aborted. Abort panics with this error since it cannot return.
type InvalidTransactionStateError struct {
	// Op names the misused operation.
	Op string
}

func (e *InvalidTransactionStateError) Error() string {
	return fmt.Sprintf("havelock: %s (%s)", errcode.Message("H004"), e.Op)
}

func (e *InvalidTransactionStateError) Code() string { return "H004" }

func (e *InvalidTransactionStateError) Format() string {
	return errcode.Format("H004", e.Op)
}

// CycleError reports a derivation whose compute read the derivation itself.
// Recomputation panics with this error; the cycle is a programming error
// and the cached value, if any, is unreliable.
type CycleError struct {
	// DerivationID identifies the derivation at which the cycle closed.
	DerivationID uint64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("havelock: %s (derivation %d)", errcode.Message("H005"), e.DerivationID)
}

func (e *CycleError) Code() string { return "H005" }

func (e *CycleError) Format() string {
	return errcode.Format("H005", fmt.Sprintf("derivation %d", e.DerivationID))
}
