package network

import "slices"

// NetSet collects distinct nets that need recomputation
type NetSet map[NetID]struct{}

// Add records a net, unassigned nets are skipped
func (s NetSet) Add(ids ...NetID) {
	for _, id := range ids {
		if id != 0 {
			s[id] = struct{}{}
		}
	}
}

// Sorted returns the nets in ascending order
func (s NetSet) Sorted() []NetID {
	out := make([]NetID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
