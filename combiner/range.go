package combiner

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"

	"go4.org/netipx"
)

// Range is an inclusive interval of IPv4 addresses in host order.
// Combiner.Insert and Combiner.Push normalize a Range whose Start is
// greater than its End by swapping the bounds.
type Range struct {
	Start uint32
	End   uint32
}

func (r Range) Contains(addr uint32) bool {
	return r.Start <= addr && addr <= r.End
}

// Touches reports whether next overlaps r or starts right after r ends.
// r.Start must not be greater than next.Start.
func (r Range) Touches(next Range) bool {
	return r.End == math.MaxUint32 || r.End+1 >= next.Start
}

func (r Range) IPRange() netipx.IPRange {
	return netipx.IPRangeFrom(Uint32ToAddr(r.Start), Uint32ToAddr(r.End))
}

func (r Range) Prefixes() []netip.Prefix {
	return r.IPRange().Prefixes()
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", Uint32ToAddr(r.Start), Uint32ToAddr(r.End))
}

func FromIPRange(ipRange netipx.IPRange) (Range, error) {
	if !ipRange.IsValid() {
		return Range{}, fmt.Errorf("invalid range: %s", ipRange.String())
	}
	if !ipRange.From().Is4() || !ipRange.To().Is4() {
		return Range{}, ErrNotIPv4
	}
	return Range{
		Start: AddrToUint32(ipRange.From()),
		End:   AddrToUint32(ipRange.To()),
	}, nil
}

func AddrToUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:])
}

func Uint32ToAddr(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
