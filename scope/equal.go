package scope

import "reflect"

// Equal reports whether a and b are equal values.
//
// Two containers are equal when they hold the same set of keys and each key
// is bound to equal values, compared recursively; insertion order and the
// container type ([*Map] or [*Scope]) are ignored. Slices of any and maps
// keyed by string are compared element by element with the same rules, so
// containers nested inside them compare by content. Any other pair of values
// is compared with [reflect.DeepEqual].
func Equal(a, b any) bool {
	ca, aok := a.(Container)
	cb, bok := b.(Container)

	if aok != bok {
		return false
	}

	if aok {
		return equalMaps(ca.local(), cb.local())
	}

	switch va := a.(type) {
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}

		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}

		return true

	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}

		for k, v := range va {
			w, ok := vb[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}

		return true
	}

	return reflect.DeepEqual(a, b)
}

func equalMaps(ma, mb *Map) bool {
	if ma == mb {
		return true
	}

	if ma.Len() != mb.Len() {
		return false
	}

	for k, va := range ma.Items() {
		vb, ok := mb.Lookup(k)
		if !ok || !Equal(va, vb) {
			return false
		}
	}

	return true
}
