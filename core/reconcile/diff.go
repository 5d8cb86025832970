package reconcile

import "sort"

// ComputeDiff compares the desired member CIDRs against the managed entries
// currently in the prefix list and returns what must change. Foreign entries
// are not part of either input and therefore can never be scheduled for
// removal. The returned slices are sorted so equal inputs always produce the
// same plan.
func ComputeDiff(desired []string, managed []Entry) Diff {
	want := make(map[string]struct{}, len(desired))
	for _, cidr := range desired {
		want[cidr] = struct{}{}
	}
	have := make(map[string]struct{}, len(managed))
	for _, e := range managed {
		have[e.CIDR] = struct{}{}
	}

	var d Diff
	for cidr := range want {
		if _, ok := have[cidr]; !ok {
			d.Add = append(d.Add, cidr)
		}
	}
	for cidr := range have {
		if _, ok := want[cidr]; !ok {
			d.Remove = append(d.Remove, cidr)
		}
	}
	sort.Strings(d.Add)
	sort.Strings(d.Remove)
	return d
}
