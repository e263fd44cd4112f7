package combiner

import (
	"net/netip"
	"sort"
)

// bulkThreshold is the batch size from which Push re-sorts and merges the
// whole set instead of inserting range by range.
const bulkThreshold = 16

// Combiner keeps a sorted list of disjoint IPv4 ranges. Consecutive ranges
// always leave a gap of at least one address: ranges[i].End+1 < ranges[i+1].Start.
//
// A Combiner is not safe for concurrent use.
type Combiner struct {
	ranges []Range
}

func New() *Combiner {
	return &Combiner{}
}

// Insert merges r into the set, swapping reversed bounds first. It locates
// the affected ranges by binary search, so a single insert never walks the
// whole set.
func (c *Combiner) Insert(r Range) {
	if r.Start > r.End {
		r.Start, r.End = r.End, r.Start
	}
	n := len(c.ranges)
	// first range that overlaps r or ends right before it
	i := sort.Search(n, func(i int) bool {
		return c.ranges[i].Touches(r)
	})
	// first range that starts after r with at least one address in between
	j := sort.Search(n, func(j int) bool {
		return c.ranges[j].Start > r.End && c.ranges[j].Start-r.End > 1
	})
	if i == j {
		c.ranges = append(c.ranges, Range{})
		copy(c.ranges[i+1:], c.ranges[i:])
		c.ranges[i] = r
		return
	}
	merged := r
	if c.ranges[i].Start < merged.Start {
		merged.Start = c.ranges[i].Start
	}
	if c.ranges[j-1].End > merged.End {
		merged.End = c.ranges[j-1].End
	}
	c.ranges[i] = merged
	if j-i > 1 {
		c.ranges = append(c.ranges[:i+1], c.ranges[j:]...)
	}
}

// Push merges a batch of ranges. Large batches are merged in one
// sort-and-sweep pass over the existing and new ranges.
func (c *Combiner) Push(ranges ...Range) {
	if len(ranges) == 0 {
		return
	}
	if len(ranges) < bulkThreshold {
		for _, r := range ranges {
			c.Insert(r)
		}
		return
	}
	all := make([]Range, 0, len(c.ranges)+len(ranges))
	all = append(all, c.ranges...)
	for _, r := range ranges {
		if r.Start > r.End {
			r.Start, r.End = r.End, r.Start
		}
		all = append(all, r)
	}
	c.ranges = merge(all)
}

func merge(ranges []Range) []Range {
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start == ranges[j].Start {
			return ranges[i].End < ranges[j].End
		}
		return ranges[i].Start < ranges[j].Start
	})
	result := ranges[:0]
	for _, r := range ranges {
		if len(result) == 0 {
			result = append(result, r)
			continue
		}
		last := &result[len(result)-1]
		if last.Touches(r) {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		result = append(result, r)
	}
	return result
}

// Contains reports whether addr falls inside any stored range.
func (c *Combiner) Contains(addr uint32) bool {
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].Start > addr
	})
	return i > 0 && addr <= c.ranges[i-1].End
}

func (c *Combiner) ContainsAddr(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	return c.Contains(AddrToUint32(addr))
}

func (c *Combiner) Clear() {
	c.ranges = nil
}

// Len returns the number of disjoint ranges.
func (c *Combiner) Len() int {
	return len(c.ranges)
}

func (c *Combiner) Ranges() []Range {
	ranges := make([]Range, len(c.ranges))
	copy(ranges, c.ranges)
	return ranges
}

// Prefixes returns the smallest list of CIDR blocks covering the set.
func (c *Combiner) Prefixes() []netip.Prefix {
	var prefixes []netip.Prefix
	for _, r := range c.ranges {
		prefixes = append(prefixes, r.Prefixes()...)
	}
	return prefixes
}
