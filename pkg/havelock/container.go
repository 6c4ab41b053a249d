package havelock

// anyGetter is the type-erased read capability every Derivable in this
// package has. Unpack and Struct use it to reach values whose type
// parameter is unknown at the call site.
type anyGetter interface {
	GetAny() any
}

// Unpack returns v.Get() when v is a Derivable, v itself otherwise.
// Unpacking a derivable records the read like any Get.
func Unpack(v any) any {
	if d, ok := v.(anyGetter); ok {
		return d.GetAny()
	}
	return v
}

// Struct deep-unpacks a nested container of derivables into one derivation
// of the unpacked container. Maps (map[string]any), slices ([]any) and
// plain values nest arbitrarily; every derivable found anywhere in the
// container becomes a dependency.
//
//	user := havelock.Struct(map[string]any{
//	    "name":  nameAtom,
//	    "stats": []any{visits, lastSeen},
//	})
//
// The derivation lives on the graph of the first derivable found in the
// container, or the default graph when the container holds none.
func Struct(container any) *Derivation[any] {
	return StructIn(containerGraph(container), container)
}

// StructIn is Struct on an explicit graph.
func StructIn(g *Graph, container any) *Derivation[any] {
	return DeriveIn(g, func() any {
		return deepUnpack(container)
	})
}

// deepUnpack rebuilds the container with every derivable replaced by its
// current value.
func deepUnpack(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[k] = deepUnpack(e)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = deepUnpack(e)
		}
		return out
	default:
		return Unpack(v)
	}
}

// containerGraph finds the graph of the first derivable in a container.
func containerGraph(v any) *Graph {
	if g := findGraph(v); g != nil {
		return g
	}
	return DefaultGraph
}

func findGraph(v any) *Graph {
	switch c := v.(type) {
	case map[string]any:
		for _, e := range c {
			if g := findGraph(e); g != nil {
				return g
			}
		}
	case []any:
		for _, e := range c {
			if g := findGraph(e); g != nil {
				return g
			}
		}
	default:
		if s, ok := v.(interface{ asSource() source }); ok {
			return s.asSource().sourceNode().g
		}
	}
	return nil
}
