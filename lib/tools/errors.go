package tools

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

var errs = []error{io.EOF, net.ErrClosed, io.ErrClosedPipe, os.ErrClosed, http.ErrServerClosed, syscall.EPIPE, syscall.ECONNRESET, context.Canceled, context.DeadlineExceeded}

// IsCloseOrCanceled reports whether err only says that a connection,
// server or context has been shut down.
func IsCloseOrCanceled(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
