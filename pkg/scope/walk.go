package scope

import "iter"

// Ancestors yields s, then its parent, and so on up to the root. The
// sequence is lazy and can be ranged over any number of times.
func Ancestors(s Scope) iter.Seq[Scope] {
	return func(yield func(Scope) bool) {
		for cur := s; cur != nil; cur = cur.Parent() {
			if !yield(cur) {
				return
			}
		}
	}
}
