package core

// ResolveTextConflict combines two divergent text values deterministically.
// Both sides are assumed to have edited the field independently since the
// common ancestor:
//
//   - both set and unequal: the values are concatenated local-first as
//     "local / external" (the ordering matches the saved fixtures and is
//     significant; see conflict tests)
//   - one side unset: the set side wins
//   - both unset: unset
//   - equal: that value, unchanged
//
// The result is a fresh pointer; inputs are never aliased.
func ResolveTextConflict(local, external *string) *string {
	switch {
	case local == nil && external == nil:
		return nil
	case local == nil:
		v := *external
		return &v
	case external == nil:
		v := *local
		return &v
	case *local == *external:
		v := *local
		return &v
	default:
		v := *local + " / " + *external
		return &v
	}
}
