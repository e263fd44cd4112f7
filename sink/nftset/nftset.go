package nftset

import (
	"context"
	"fmt"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/sink/nftset/internal"

	"go4.org/netipx"
)

var (
	_ adapter.Sink              = (*NftSet)(nil)
	_ adapter.Starter           = (*NftSet)(nil)
	_ adapter.Closer            = (*NftSet)(nil)
	_ adapter.WithContextLogger = (*NftSet)(nil)
)

func init() {
	adapter.RegisterSink(constant.SinkNftSet, NewNftSet)
}

// NftSet mirrors the range set into an existing nftables interval set of
// type ipv4_addr.
type NftSet struct {
	tag       string
	logger    log.ContextLogger
	tableName string
	setName   string
	nftset    internal.NftSet
}

type option struct {
	TableName string `config:"table-name"`
	SetName   string `config:"set-name"`
}

func NewNftSet(tag string, args map[string]any) (adapter.Sink, error) {
	var op option
	err := tools.NewMapStructureDecoderWithResult(&op).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if op.TableName == "" || op.SetName == "" {
		return nil, fmt.Errorf("table-name and set-name must be not empty")
	}
	return &NftSet{
		tag:       tag,
		tableName: op.TableName,
		setName:   op.SetName,
	}, nil
}

func (n *NftSet) Tag() string {
	return n.tag
}

func (n *NftSet) Type() string {
	return constant.SinkNftSet
}

func (n *NftSet) WithContextLogger(logger log.ContextLogger) {
	n.logger = logger
}

func (n *NftSet) Start() error {
	nftset, err := internal.New(n.tableName, n.setName)
	if err != nil {
		return fmt.Errorf("open nftset fail: %s", err)
	}
	n.nftset = nftset
	return nil
}

func (n *NftSet) Close() error {
	if n.nftset == nil {
		return nil
	}
	return n.nftset.Close()
}

func (n *NftSet) Sync(ctx context.Context, ranges []combiner.Range) error {
	if n.nftset == nil {
		return fmt.Errorf("nftset %s-%s not started", n.tableName, n.setName)
	}
	ipRanges := make([]netipx.IPRange, 0, len(ranges))
	for _, r := range ranges {
		ipRanges = append(ipRanges, r.IPRange())
	}
	err := n.nftset.Replace(ipRanges)
	if err != nil {
		return fmt.Errorf("replace %s fail: %s", n.nftset.Name(), err)
	}
	if n.logger != nil {
		n.logger.DebugContext(ctx, fmt.Sprintf("sync %d ranges to %s", len(ipRanges), n.nftset.Name()))
	}
	return nil
}
