//go:build darwin

package control

import (
	"fmt"
	"net"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

func bindToInterface(conn syscall.RawConn, network string, interfaceName string) error {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return err
	}
	var inErr error
	err = conn.Control(func(fd uintptr) {
		if strings.HasSuffix(network, "6") {
			inErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_BOUND_IF, iface.Index)
		} else {
			inErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_BOUND_IF, iface.Index)
		}
	})
	if inErr != nil {
		if err != nil {
			return fmt.Errorf("errors: %s, and %s", inErr, err)
		}
		return inErr
	}
	return err
}
