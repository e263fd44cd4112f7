package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source supplies newline separated CIDR text.
type Source interface {
	Tag() string
	Type() string
	Fetch(ctx context.Context) (string, error)
}

type CreateSourceFunc func(tag string, args map[string]any) (Source, error)

var (
	sourceMap     = make(map[string]CreateSourceFunc)
	sourceMapLock sync.RWMutex
)

func RegisterSource(typ string, f CreateSourceFunc) {
	sourceMapLock.Lock()
	defer sourceMapLock.Unlock()
	sourceMap[typ] = f
}

func NewSource(typ string, tag string, args map[string]any) (Source, error) {
	sourceMapLock.RLock()
	f, ok := sourceMap[typ]
	sourceMapLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("invalid source type: %s", typ)
	}
	return f(tag, args)
}

func GetAllSource() []string {
	sourceMapLock.RLock()
	defer sourceMapLock.RUnlock()
	ret := make([]string, 0, len(sourceMap))
	for k := range sourceMap {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
