package dice

// Lookup resolves variant identifiers to their definitions.
type Lookup interface {
	// Variant returns the variant registered under id and whether it exists.
	Variant(id VariantID) (Variant, bool)
}

// Resolve returns the variant for id from l, falling back to a uniform die
// when the id is unknown or l is nil.
func Resolve(l Lookup, id VariantID) Variant {
	if l != nil {
		if v, ok := l.Variant(id); ok {
			return v
		}
	}
	return Uniform(id)
}

// RollUnlocked re-samples every unlocked die in s and clears its selection.
// Locked dice are returned untouched.
//
// Precondition: src must be non-nil.
// Postcondition: every unlocked die in the result has Face in [1, 6] and
// Selected == false.
func RollUnlocked(s Set, l Lookup, src Source) Set {
	for i := range s {
		if s[i].Locked {
			continue
		}
		s[i].Face = SampleFace(Resolve(l, s[i].Variant), src)
		s[i].Selected = false
	}
	return s
}
