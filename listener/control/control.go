package control

import (
	"syscall"
)

type Func = func(network, address string, conn syscall.RawConn) error

// BindInterface returns a net.ListenConfig control function that pins the
// socket to interfaceName.
func BindInterface(interfaceName string) Func {
	return func(network, address string, conn syscall.RawConn) error {
		return bindToInterface(conn, network, interfaceName)
	}
}
