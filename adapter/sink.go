package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yaotthaha/ipcheck/combiner"
)

// Sink mirrors the canonical range set somewhere outside the process.
// Sync replaces whatever the sink held before.
type Sink interface {
	Tag() string
	Type() string
	Sync(ctx context.Context, ranges []combiner.Range) error
}

type CreateSinkFunc func(tag string, args map[string]any) (Sink, error)

var (
	sinkMap     = make(map[string]CreateSinkFunc)
	sinkMapLock sync.RWMutex
)

func RegisterSink(typ string, f CreateSinkFunc) {
	sinkMapLock.Lock()
	defer sinkMapLock.Unlock()
	sinkMap[typ] = f
}

func NewSink(typ string, tag string, args map[string]any) (Sink, error) {
	sinkMapLock.RLock()
	f, ok := sinkMap[typ]
	sinkMapLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("invalid sink type: %s", typ)
	}
	return f(tag, args)
}

func GetAllSink() []string {
	sinkMapLock.RLock()
	defer sinkMapLock.RUnlock()
	ret := make([]string, 0, len(sinkMap))
	for k := range sinkMap {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
