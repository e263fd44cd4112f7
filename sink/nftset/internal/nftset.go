package internal

import (
	"go4.org/netipx"
)

type NftSet interface {
	Name() string
	Close() error
	// Replace flushes the set and fills it with ranges in one transaction.
	Replace([]netipx.IPRange) error
}
