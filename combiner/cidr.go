package combiner

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

var ErrNotIPv4 = errors.New("not an ipv4 address")

// RangeOfPrefix expands an IPv4 prefix to its network..broadcast span.
// Host bits beyond the prefix length are ignored.
func RangeOfPrefix(prefix netip.Prefix) (Range, error) {
	if !prefix.IsValid() {
		return Range{}, fmt.Errorf("invalid prefix: %s", prefix.String())
	}
	if !prefix.Addr().Is4() {
		return Range{}, ErrNotIPv4
	}
	return FromIPRange(netipx.RangeOfPrefix(prefix.Masked()))
}

// ParseCIDR converts one `a.b.c.d/prefix` literal to a Range. A bare
// address is treated as a /32.
func ParseCIDR(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, errors.New("empty cidr")
	}
	if !strings.Contains(s, "/") {
		addr, err := ParseAddr(s)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: addr, End: addr}, nil
	}
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return Range{}, err
	}
	return RangeOfPrefix(prefix)
}

// ParseAddr parses a dotted-quad IPv4 address.
func ParseAddr(s string) (uint32, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if !addr.Is4() {
		return 0, ErrNotIPv4
	}
	return AddrToUint32(addr), nil
}

// ParseLines converts newline separated CIDR text to ranges. Lines that do
// not parse are dropped and counted in skipped; blank lines and `#`
// comments are ignored without being counted.
func ParseLines(text string) (ranges []Range, skipped int) {
	for len(text) > 0 {
		var line string
		line, text, _ = strings.Cut(text, "\n")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := ParseCIDR(line)
		if err != nil {
			skipped++
			continue
		}
		ranges = append(ranges, r)
	}
	return ranges, skipped
}
