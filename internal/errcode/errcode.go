// Package errcode is the registry of Havelock error codes.
//
// Every contract violation the engine can report carries a stable code
// (e.g. "H001") that maps to a category, a short message, a detailed
// explanation, a suggestion and a documentation URL. The havelock package
// resolves codes through this registry when rendering errors.
package errcode

import (
	"fmt"
	"strings"
)

// Category classifies an error code.
type Category string

const (
	// CategoryReentrancy covers writes attempted while the engine is
	// reading: inside a derivation compute or a propagation pass.
	CategoryReentrancy Category = "reentrancy"

	// CategoryValidation covers atom values rejected by a validator.
	CategoryValidation Category = "validation"

	// CategoryLifecycle covers reaction lifecycle misuse.
	CategoryLifecycle Category = "lifecycle"

	// CategoryTransaction covers transaction frame misuse.
	CategoryTransaction Category = "transaction"

	// CategoryGraph covers structural problems in the dependency graph.
	CategoryGraph Category = "graph"
)

// Template defines a registered error code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	"H001": {
		Category: CategoryReentrancy,
		Message:  "atom written during a tracked read",
		Detail: "An atom write was attempted while a derivation compute or a " +
			"propagation pass was running. Derivation computes must be pure, and " +
			"reaction callbacks run inside the pass that delivers their value.",
		Suggestion: "Move the write out of the compute function, or defer it until the current pass has returned.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h001",
	},
	"H002": {
		Category: CategoryValidation,
		Message:  "value rejected by validator",
		Detail: "A candidate value passed to Set or Swap failed the atom's " +
			"validator. The atom's state is unchanged and no propagation occurred.",
		Suggestion: "Check the value against the predicates composed with WithValidator before writing.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h002",
	},
	"H003": {
		Category: CategoryLifecycle,
		Message:  "reaction already attached",
		Detail: "A reaction instance was attached to a second source. A reaction " +
			"is bound to exactly one derivable for its whole life.",
		Suggestion: "Create a fresh reaction per source with NewReaction.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h003",
	},
	"H004": {
		Category: CategoryTransaction,
		Message:  "transaction frame no longer active",
		Detail: "Abort was called on a transaction frame that has already " +
			"committed or aborted, or from outside its Transact call.",
		Suggestion: "Only call Abort on the *Txn handed to the running Transact function.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h004",
	},
	"H005": {
		Category: CategoryGraph,
		Message:  "circular derivation dependency",
		Detail: "A derivation's compute function read the derivation itself, " +
			"directly or through other derivations. Dependency graphs must be acyclic.",
		Suggestion: "Break the cycle, typically by reading a source atom with Peek.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h005",
	},
	"H006": {
		Category: CategoryLifecycle,
		Message:  "reaction has no source",
		Detail: "Start or Force was called on a reaction that has not been " +
			"attached to a derivable.",
		Suggestion: "Call Attach (or construct via React) before Start or Force.",
		DocURL:     "https://github.com/gitter-badger/havelock/blob/master/docs/errors.md#h006",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Message returns "CODE: message" for a registered code, or just the code
// when unregistered.
func Message(code string) string {
	t, ok := registry[code]
	if !ok {
		return code
	}
	return fmt.Sprintf("%s: %s", code, t.Message)
}

// Format renders a full diagnostic for code: message, detail, an optional
// caller-supplied context line, the suggestion and the documentation link.
func Format(code, context string) string {
	t, ok := registry[code]
	if !ok {
		return code
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ERROR %s (%s): %s\n", code, t.Category, t.Message)
	if context != "" {
		fmt.Fprintf(&b, "\n  %s\n", context)
	}
	if t.Detail != "" {
		fmt.Fprintf(&b, "\n  %s\n", t.Detail)
	}
	if t.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Hint: %s\n", t.Suggestion)
	}
	if t.DocURL != "" {
		fmt.Fprintf(&b, "\n  Learn more: %s\n", t.DocURL)
	}
	return b.String()
}

// Codes returns all registered codes. Order is unspecified.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
