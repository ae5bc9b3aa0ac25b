package macro

// HideSet is the set of macro names whose expansion produced a token. A token is never
// expanded by a macro in its own hide set, which is what terminates self-referential
// definitions. The set is an immutable linked list; the nil set is empty and hide sets
// stay small in practice.
type HideSet struct {
	name string
	rest *HideSet
}

// Contains reports whether name is in the set
func (hs *HideSet) Contains(name string) bool {
	for s := hs; s != nil; s = s.rest {
		if s.name == name {
			return true
		}
	}
	return false
}

// Add returns the set with name added
func (hs *HideSet) Add(name string) *HideSet {
	if hs.Contains(name) {
		return hs
	}
	return &HideSet{name: name, rest: hs}
}

// Union returns the names in either set
func (hs *HideSet) Union(other *HideSet) *HideSet {
	out := other
	for s := hs; s != nil; s = s.rest {
		out = out.Add(s.name)
	}
	return out
}

// Intersect returns the names present in both sets
func (hs *HideSet) Intersect(other *HideSet) *HideSet {
	var out *HideSet
	for s := hs; s != nil; s = s.rest {
		if other.Contains(s.name) {
			out = out.Add(s.name)
		}
	}
	return out
}

// Len returns the number of names in the set
func (hs *HideSet) Len() int {
	n := 0
	for s := hs; s != nil; s = s.rest {
		n++
	}
	return n
}
