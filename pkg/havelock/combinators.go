package havelock

// Combinators build common derivations without writing compute closures by
// hand. The boolean ones use Truthy semantics and are short-circuiting:
// operands whose value cannot affect the result are not read, so
// derivations in untaken branches are never subscribed and never
// recomputed. The laziness holds under dynamic re-tracking: an evaluation
// that takes the other branch drops the stale dependency and picks up the
// new one.

// Is derives whether d's value equals other. other may be a plain value or
// any Derivable, which is unpacked (and therefore tracked) on each
// evaluation. Equality is structural.
func Is[T any](d Derivable[T], other any) *Derivation[bool] {
	return DeriveIn(graphOf(d), func() bool {
		return structEqual(any(d.Get()), Unpack(other))
	})
}

// And derives the first falsy operand's value, or the last operand's value
// when all are truthy. Operands after the first falsy one are not read.
func And[T any](first Derivable[T], rest ...Derivable[T]) *Derivation[T] {
	return DeriveIn(graphOf(first), func() T {
		v := first.Get()
		for _, d := range rest {
			if !Truthy(v) {
				return v
			}
			v = d.Get()
		}
		return v
	})
}

// Or derives the first truthy operand's value, or the last operand's value
// when all are falsy. Operands after the first truthy one are not read.
func Or[T any](first Derivable[T], rest ...Derivable[T]) *Derivation[T] {
	return DeriveIn(graphOf(first), func() T {
		v := first.Get()
		for _, d := range rest {
			if Truthy(v) {
				return v
			}
			v = d.Get()
		}
		return v
	})
}

// Not derives the boolean negation of d's truthiness.
func Not[T any](d Derivable[T]) *Derivation[bool] {
	return DeriveIn(graphOf(d), func() bool {
		return !Truthy(d.Get())
	})
}

// Then derives ifTruthy when d's value is truthy and otherwise otherwise.
// Both branches may be plain values or Derivables; only the branch taken
// is unpacked, so only that branch is tracked. The unpacked branch must be
// a T.
func Then[C, T any](d Derivable[C], ifTruthy, otherwise any) *Derivation[T] {
	return DeriveIn(graphOf(d), func() T {
		if Truthy(d.Get()) {
			return Unpack(ifTruthy).(T)
		}
		return Unpack(otherwise).(T)
	})
}

// Switch derives by matching d's value against (case, result) pairs, with
// an optional trailing default. Case values may themselves be Derivables
// and are unpacked for the structural comparison; only the matching result
// is unpacked and tracked. With no match and no default, the zero T is
// derived.
//
//	status := havelock.Switch[int, string](code,
//	    200, "ok",
//	    404, "missing",
//	    "unknown",
//	)
func Switch[C, T any](d Derivable[C], pairs ...any) *Derivation[T] {
	return DeriveIn(graphOf(d), func() T {
		v := any(d.Get())
		i := 0
		for ; i+1 < len(pairs); i += 2 {
			if structEqual(v, Unpack(pairs[i])) {
				return Unpack(pairs[i+1]).(T)
			}
		}
		if i < len(pairs) {
			return Unpack(pairs[i]).(T)
		}
		var zero T
		return zero
	})
}

// Lift wraps a plain function so it maps derivables to a derivable:
// Lift(f)(d).Get() == f(d.Get()).
func Lift[A, R any](f func(A) R) func(Derivable[A]) *Derivation[R] {
	return func(d Derivable[A]) *Derivation[R] {
		return Map(d, f)
	}
}

// Lift2 wraps a two-argument plain function over derivables.
func Lift2[A, B, R any](f func(A, B) R) func(Derivable[A], Derivable[B]) *Derivation[R] {
	return func(a Derivable[A], b Derivable[B]) *Derivation[R] {
		return Map2(a, b, f)
	}
}
