//go:build linux

package internal

import (
	"errors"
	"net/netip"

	"github.com/vishvananda/netlink"
)

var _ IPSet = (*IPSetLinux)(nil)

type IPSetLinux struct {
	name    string
	destroy bool
	handler *netlink.Handle
}

var ErrNotIPv4 = errors.New("ipset: not an ipv4 prefix")

// New opens the hash:net set called name, creating it if missing. With
// destroy set, Close removes the set from the kernel.
func New(name string, destroy bool) (*IPSetLinux, error) {
	handler, err := netlink.NewHandle()
	if err != nil {
		return nil, err
	}
	createOptions := netlink.IpsetCreateOptions{
		Replace:  true,
		Revision: 1,
	}
	err = handler.IpsetCreate(name, "hash:net", createOptions)
	if err != nil {
		handler.Close()
		return nil, err
	}
	return &IPSetLinux{
		name:    name,
		destroy: destroy,
		handler: handler,
	}, nil
}

func (i *IPSetLinux) Name() string {
	return i.name
}

func (i *IPSetLinux) Close() error {
	var err error
	if i.destroy {
		err = i.handler.IpsetDestroy(i.name)
	}
	i.handler.Close()
	return err
}

func (i *IPSetLinux) AddCIDR(prefix netip.Prefix) error {
	if !prefix.Addr().Is4() {
		return ErrNotIPv4
	}
	e := &netlink.IPSetEntry{
		Replace: true,
		IP:      prefix.Addr().AsSlice(),
		CIDR:    uint8(prefix.Bits()),
	}
	return i.handler.IpsetAdd(i.name, e)
}

func (i *IPSetLinux) FlushAll() error {
	return i.handler.IpsetFlush(i.name)
}
