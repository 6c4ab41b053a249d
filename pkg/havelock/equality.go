package havelock

import "reflect"

// defaultEquals provides type-appropriate equality checking.
// Uses == for the common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	return structEqual(any(a), any(b))
}

// structEqual is the type-erased form of defaultEquals, used where values
// have already been unpacked to any (Is, Switch, Struct).
func structEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}

// Truthy reports whether v counts as true for the boolean combinators
// (And, Or, Not, Then, Switch). The zero value of v's dynamic type is
// falsy, everything else is truthy: false, 0, "", nil pointers, nil or
// unset slices/maps and NaN are falsy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && x == x
	case float64:
		return x != 0 && x == x
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			return false
		}
		return !rv.IsZero()
	}
}
