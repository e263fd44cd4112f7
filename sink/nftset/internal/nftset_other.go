//go:build !linux

package internal

import (
	"errors"

	"go4.org/netipx"
)

var ErrOSNotSupported = errors.New("nftset: OS not supported")

type NftSetOther struct{}

func New(_ string, _ string) (*NftSetOther, error) {
	return nil, ErrOSNotSupported
}

func (n *NftSetOther) Name() string {
	return ""
}

func (n *NftSetOther) Close() error {
	return ErrOSNotSupported
}

func (n *NftSetOther) Replace(_ []netipx.IPRange) error {
	return ErrOSNotSupported
}
