package nftset

import (
	"context"
	"errors"
	"testing"

	"github.com/yaotthaha/ipcheck/combiner"

	"github.com/stretchr/testify/require"
	"go4.org/netipx"
)

type fakeNftSet struct {
	ranges []netipx.IPRange
	err    error
}

func (f *fakeNftSet) Name() string {
	return "filter-blocklist"
}

func (f *fakeNftSet) Close() error {
	return nil
}

func (f *fakeNftSet) Replace(ranges []netipx.IPRange) error {
	f.ranges = ranges
	return f.err
}

func TestNftSetSync(t *testing.T) {
	sink, err := NewNftSet("fw", map[string]any{"table-name": "filter", "set-name": "blocklist"})
	require.NoError(t, err)
	n := sink.(*NftSet)

	require.Error(t, n.Sync(context.Background(), nil))

	fake := &fakeNftSet{}
	n.nftset = fake
	ranges, _ := combiner.ParseLines("10.0.0.0/8\n192.168.1.0/24")
	require.NoError(t, n.Sync(context.Background(), ranges))
	require.Equal(t, []string{"10.0.0.0-10.255.255.255", "192.168.1.0-192.168.1.255"}, []string{fake.ranges[0].String(), fake.ranges[1].String()})

	fake.err = errors.New("netlink busy")
	require.ErrorContains(t, n.Sync(context.Background(), ranges), "netlink busy")
}

func TestNftSetOptions(t *testing.T) {
	_, err := NewNftSet("fw", map[string]any{"table-name": "filter"})
	require.Error(t, err)
}
