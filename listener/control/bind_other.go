//go:build !linux && !darwin

package control

import (
	"errors"
	"syscall"
)

var ErrOSNotSupported = errors.New("bind interface: OS not supported")

func bindToInterface(_ syscall.RawConn, _ string, _ string) error {
	return ErrOSNotSupported
}
