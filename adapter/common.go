package adapter

import (
	"context"

	"github.com/yaotthaha/ipcheck/log"
)

type Starter interface {
	Start() error
}

type Closer interface {
	Close() error
}

type FatalStarter interface {
	WithFatalCloser(func(error))
}

type WithContext interface {
	WithContext(context.Context)
}

type WithContextLogger interface {
	WithContextLogger(log.ContextLogger)
}
