//go:build !linux

package internal

import (
	"errors"
	"net/netip"
)

var _ IPSet = (*IPSetOther)(nil)

var ErrOSNotSupported = errors.New("ipset: OS not supported")

type IPSetOther struct{}

func New(_ string, _ bool) (*IPSetOther, error) {
	return nil, ErrOSNotSupported
}

func (i *IPSetOther) Name() string {
	return ""
}

func (i *IPSetOther) Close() error {
	return ErrOSNotSupported
}

func (i *IPSetOther) AddCIDR(_ netip.Prefix) error {
	return ErrOSNotSupported
}

func (i *IPSetOther) FlushAll() error {
	return ErrOSNotSupported
}
