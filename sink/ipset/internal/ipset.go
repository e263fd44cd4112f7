package internal

import (
	"net/netip"
)

type IPSet interface {
	Name() string
	Close() error
	FlushAll() error
	AddCIDR(netip.Prefix) error
}
