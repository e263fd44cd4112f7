package ipset

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/log"

	"github.com/stretchr/testify/require"
)

type fakeIPSet struct {
	flushed  int
	prefixes []netip.Prefix
	reject   netip.Prefix
}

func (f *fakeIPSet) Name() string {
	return "blocklist"
}

func (f *fakeIPSet) Close() error {
	return nil
}

func (f *fakeIPSet) FlushAll() error {
	f.flushed++
	f.prefixes = nil
	return nil
}

func (f *fakeIPSet) AddCIDR(prefix netip.Prefix) error {
	if prefix == f.reject {
		return errors.New("element exists")
	}
	f.prefixes = append(f.prefixes, prefix)
	return nil
}

func TestIPSetSync(t *testing.T) {
	sink, err := NewIPSet("set", map[string]any{"name": "blocklist"})
	require.NoError(t, err)
	i := sink.(*IPSet)
	i.WithContextLogger(log.NewContextLogger(log.NewNopLogger()))

	fake := &fakeIPSet{reject: netip.MustParsePrefix("10.0.0.8/32")}
	i.ipset = fake

	ranges, skipped := combiner.ParseLines("10.0.0.0/29\n10.0.0.8/32\n192.168.0.0/24")
	require.Zero(t, skipped)
	c := combiner.New()
	c.Push(ranges...)
	require.NoError(t, i.Sync(context.Background(), c.Ranges()))
	require.Equal(t, 1, fake.flushed)
	require.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/29"),
		netip.MustParsePrefix("192.168.0.0/24"),
	}, fake.prefixes)

	require.NoError(t, i.Sync(context.Background(), nil))
	require.Equal(t, 2, fake.flushed)
	require.Empty(t, fake.prefixes)
}

func TestIPSetOptions(t *testing.T) {
	_, err := NewIPSet("set", map[string]any{})
	require.Error(t, err)

	sink, err := NewIPSet("set", map[string]any{"name": "bl", "destroy-on-close": true})
	require.NoError(t, err)
	require.True(t, sink.(*IPSet).option.DestroyOnClose)
	require.Error(t, sink.Sync(context.Background(), nil))
}
