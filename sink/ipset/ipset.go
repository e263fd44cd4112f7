package ipset

import (
	"context"
	"fmt"
	"sync"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/sink/ipset/internal"
)

var (
	_ adapter.Sink              = (*IPSet)(nil)
	_ adapter.Starter           = (*IPSet)(nil)
	_ adapter.Closer            = (*IPSet)(nil)
	_ adapter.WithContextLogger = (*IPSet)(nil)
)

func init() {
	adapter.RegisterSink(constant.SinkIPSet, NewIPSet)
}

type IPSet struct {
	tag      string
	logger   log.ContextLogger
	option   option
	syncLock sync.Mutex
	ipset    internal.IPSet
}

type option struct {
	Name           string `config:"name"`
	DestroyOnClose bool   `config:"destroy-on-close"`
}

func NewIPSet(tag string, args map[string]any) (adapter.Sink, error) {
	i := &IPSet{
		tag: tag,
	}
	err := tools.NewMapStructureDecoderWithResult(&i.option).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if i.option.Name == "" {
		return nil, fmt.Errorf("empty args")
	}
	return i, nil
}

func (i *IPSet) Tag() string {
	return i.tag
}

func (i *IPSet) Type() string {
	return constant.SinkIPSet
}

func (i *IPSet) WithContextLogger(logger log.ContextLogger) {
	i.logger = logger
}

func (i *IPSet) Start() error {
	ipset, err := internal.New(i.option.Name, i.option.DestroyOnClose)
	if err != nil {
		return fmt.Errorf("create ipset fail: %s", err)
	}
	i.ipset = ipset
	return nil
}

func (i *IPSet) Close() error {
	if i.ipset == nil {
		return nil
	}
	return i.ipset.Close()
}

// Sync flushes the set and adds the CIDR cover of every range. Entries that
// fail to add are logged and skipped.
func (i *IPSet) Sync(ctx context.Context, ranges []combiner.Range) error {
	if i.ipset == nil {
		return fmt.Errorf("ipset %s not started", i.option.Name)
	}
	i.syncLock.Lock()
	defer i.syncLock.Unlock()
	err := i.ipset.FlushAll()
	if err != nil {
		return fmt.Errorf("flush %s fail: %s", i.ipset.Name(), err)
	}
	var added, failed int
	for _, r := range ranges {
		for _, prefix := range r.Prefixes() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = i.ipset.AddCIDR(prefix)
			if err != nil {
				failed++
				if i.logger != nil {
					i.logger.ErrorContext(ctx, fmt.Sprintf("add cidr %s to %s fail: %s", prefix.String(), i.ipset.Name(), err))
				}
				continue
			}
			added++
		}
	}
	if i.logger != nil {
		i.logger.DebugContext(ctx, fmt.Sprintf("sync %d cidrs to %s, %d failed", added, i.ipset.Name(), failed))
	}
	return nil
}
