package reconcile

import (
	"net/netip"
	"sort"
)

// IPSet is a set of IPv4 addresses, the resolved desired membership of a
// mapping. Set semantics deduplicate addresses shared by several network
// interfaces.
type IPSet map[netip.Addr]struct{}

// NewIPSet creates a set from the given addresses.
func NewIPSet(addrs ...netip.Addr) IPSet {
	s := make(IPSet, len(addrs))
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Add inserts an address into the set.
func (s IPSet) Add(a netip.Addr) {
	s[a] = struct{}{}
}

// Contains reports whether the address is in the set.
func (s IPSet) Contains(a netip.Addr) bool {
	_, ok := s[a]
	return ok
}

// Len returns the number of addresses in the set.
func (s IPSet) Len() int {
	return len(s)
}

// CIDRs returns the set as canonical /32 prefixes, sorted lexicographically.
// The ordering makes diff output deterministic.
func (s IPSet) CIDRs() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, netip.PrefixFrom(a, 32).String())
	}
	sort.Strings(out)
	return out
}
