package network

import (
	"errors"
	"fmt"
)

// ErrHalfEdge reports an edge recorded on one node but not on its partner
var ErrHalfEdge = errors.New("half edge")

// Resolver looks up live nodes by ref
type Resolver interface {
	ResolveNode(ref NodeRef) (*Node, bool)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ref NodeRef) (*Node, bool)

func (f ResolverFunc) ResolveNode(ref NodeRef) (*Node, bool) {
	return f(ref)
}

// Ledger is the only writer of always-reachable edges
// It does not check compatibility and never requests recomputation, callers do both
type Ledger struct {
	resolver Resolver
}

// NewLedger creates a ledger resolving partner refs through r
func NewLedger(r Resolver) *Ledger {
	return &Ledger{resolver: r}
}

// Connect records the edge on both nodes, returns false if it already existed on both sides
func (l *Ledger) Connect(a, b *Node) bool {
	if a == nil || b == nil || a.Ref == b.Ref {
		return false
	}
	if a.has(b.Ref) && b.has(a.Ref) {
		return false
	}
	a.add(b.Ref)
	b.add(a.Ref)
	return true
}

// Disconnect removes the edge from both nodes, returns false if neither side had it
func (l *Ledger) Disconnect(a, b *Node) bool {
	if a == nil || b == nil {
		return false
	}
	removedA := a.remove(b.Ref)
	removedB := b.remove(a.Ref)
	return removedA || removedB
}

// Connected reports whether the edge exists on both sides
func (l *Ledger) Connected(a, b *Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.has(b.Ref) && b.has(a.Ref)
}

// EdgesOf returns the live partners of n in ref order
// Partners that no longer resolve or are pending deletion are skipped, a node pending deletion has none
func (l *Ledger) EdgesOf(n *Node) []*Node {
	if n == nil || n.Deleting || len(n.reachable) == 0 {
		return nil
	}
	partners := make([]*Node, 0, len(n.reachable))
	for _, ref := range n.Partners() {
		p, ok := l.resolver.ResolveNode(ref)
		if !ok || p.Deleting {
			continue
		}
		partners = append(partners, p)
	}
	return partners
}

// PruneDangling drops every partner of n that is gone or pending deletion
// Returns the nets touched by the removals
func (l *Ledger) PruneDangling(n *Node) []NetID {
	if n == nil || len(n.reachable) == 0 {
		return nil
	}
	nets := make(NetSet)
	for _, ref := range n.Partners() {
		p, ok := l.resolver.ResolveNode(ref)
		if ok && !p.Deleting {
			continue
		}
		n.remove(ref)
		nets.Add(n.Net)
		if ok {
			p.remove(n.Ref)
			nets.Add(p.Net)
		}
	}
	return nets.Sorted()
}

// DisconnectAll removes every edge of n from both sides
// Returns the nets touched by the removals
func (l *Ledger) DisconnectAll(n *Node) []NetID {
	if n == nil || len(n.reachable) == 0 {
		return nil
	}
	nets := make(NetSet)
	for _, ref := range n.Partners() {
		n.remove(ref)
		nets.Add(n.Net)
		if p, ok := l.resolver.ResolveNode(ref); ok {
			p.remove(n.Ref)
			nets.Add(p.Net)
		}
	}
	return nets.Sorted()
}

// PartnersOf resolves every recorded partner of n, deleting ones included
// Teardown uses it where EdgesOf would hide edges of a node pending deletion
func (l *Ledger) PartnersOf(n *Node) []*Node {
	if n == nil || len(n.reachable) == 0 {
		return nil
	}
	partners := make([]*Node, 0, len(n.reachable))
	for _, ref := range n.Partners() {
		if p, ok := l.resolver.ResolveNode(ref); ok {
			partners = append(partners, p)
		}
	}
	return partners
}

// Verify checks that every resolvable partner of n records n back
// Dangling partners are not violations, PruneDangling handles them
func (l *Ledger) Verify(n *Node) error {
	if n == nil {
		return nil
	}
	for _, ref := range n.Partners() {
		p, ok := l.resolver.ResolveNode(ref)
		if !ok {
			continue
		}
		if !p.has(n.Ref) {
			return fmt.Errorf("%w: %s -> %s", ErrHalfEdge, n.Ref, ref)
		}
	}
	return nil
}

// CountEdges returns the live edges touching nodes, each counted once
func (l *Ledger) CountEdges(nodes []*Node) int {
	seen := make(map[[2]NodeRef]struct{})
	for _, n := range nodes {
		if n == nil || n.Deleting {
			continue
		}
		for _, p := range l.EdgesOf(n) {
			if !p.has(n.Ref) {
				continue
			}
			key := [2]NodeRef{n.Ref, p.Ref}
			if CompareRefs(p.Ref, n.Ref) < 0 {
				key = [2]NodeRef{p.Ref, n.Ref}
			}
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}
