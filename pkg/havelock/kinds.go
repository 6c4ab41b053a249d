package havelock

// Kind predicates classify arbitrary values against the engine's node
// types, useful in code that handles containers of mixed derivables and
// plain values.

type derivableKind interface{ derivableMarker() }
type atomKind interface{ atomMarker() }
type derivationKind interface{ derivationMarker() }
type lensedKind interface{ lensedMarker() }
type reactionKind interface{ reactionMarker() }

// IsDerivable reports whether v is any readable node: an atom, a
// derivation or a lensed view.
func IsDerivable(v any) bool {
	_, ok := v.(derivableKind)
	return ok
}

// IsAtom reports whether v is an *Atom.
func IsAtom(v any) bool {
	_, ok := v.(atomKind)
	return ok
}

// IsDerivation reports whether v is a *Derivation.
func IsDerivation(v any) bool {
	_, ok := v.(derivationKind)
	return ok
}

// IsLensed reports whether v is a *Lensed view.
func IsLensed(v any) bool {
	_, ok := v.(lensedKind)
	return ok
}

// IsReaction reports whether v is a *Reaction.
func IsReaction(v any) bool {
	_, ok := v.(reactionKind)
	return ok
}
