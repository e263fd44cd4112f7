package adapter

import (
	"context"
	"net/netip"

	"github.com/yaotthaha/ipcheck/combiner"
)

type Core interface {
	Run() error
	Load(ctx context.Context, text string) (int, error)
	Clear(ctx context.Context)
	Contains(ctx context.Context, addr string) (bool, error)
	ContainsAddr(ctx context.Context, addr netip.Addr) (bool, error)
	Ranges() ([]combiner.Range, error)
	// Available reports whether the range set is open for queries.
	Available() bool
	Reload(ctx context.Context, reason string) (int, error)
}
