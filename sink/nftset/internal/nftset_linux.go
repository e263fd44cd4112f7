//go:build linux

package internal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/nftables"
	"go4.org/netipx"
)

var (
	ErrConnClosed  = errors.New("conn is closed")
	ErrNotInterval = errors.New("nftset: set must have the interval flag")
)

// elements per netlink message
const batchSize = 1024

var _ NftSet = (*NftSetLinux)(nil)

type NftSetLinux struct {
	table *nftables.Table
	set   *nftables.Set
	conn  *nftables.Conn
	lock  sync.Mutex
}

func New(tableName string, setName string) (*NftSetLinux, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, err
	}
	tables, err := conn.ListTables()
	if err != nil {
		_ = conn.CloseLasting()
		return nil, err
	}
	var matchTable *nftables.Table
	for _, table := range tables {
		if table.Name == tableName && (table.Family == nftables.TableFamilyIPv4 || table.Family == nftables.TableFamilyINet) {
			matchTable = table
			break
		}
	}
	if matchTable == nil {
		_ = conn.CloseLasting()
		return nil, fmt.Errorf("nftset: table %s not found", tableName)
	}
	set, err := conn.GetSetByName(matchTable, setName)
	if err != nil {
		_ = conn.CloseLasting()
		return nil, err
	}
	if !set.Interval {
		_ = conn.CloseLasting()
		return nil, ErrNotInterval
	}
	return &NftSetLinux{
		table: matchTable,
		set:   set,
		conn:  conn,
	}, nil
}

func (n *NftSetLinux) Name() string {
	return fmt.Sprintf("%s-%s", n.table.Name, n.set.Name)
}

func (n *NftSetLinux) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.conn == nil {
		return nil
	}
	conn := n.conn
	n.conn = nil
	return conn.CloseLasting()
}

func (n *NftSetLinux) Replace(ranges []netipx.IPRange) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.conn == nil {
		return ErrConnClosed
	}
	n.conn.FlushSet(n.set)
	elems := make([]nftables.SetElement, 0, batchSize)
	for _, r := range ranges {
		elems = append(elems, nftables.SetElement{
			Key: r.From().AsSlice(),
		})
		// a range reaching 255.255.255.255 has no end marker
		if next := r.To().Next(); next.IsValid() {
			elems = append(elems, nftables.SetElement{
				Key:         next.AsSlice(),
				IntervalEnd: true,
			})
		}
		if len(elems) >= batchSize {
			if err := n.conn.SetAddElements(n.set, elems); err != nil {
				return err
			}
			elems = elems[:0]
		}
	}
	if len(elems) > 0 {
		if err := n.conn.SetAddElements(n.set, elems); err != nil {
			return err
		}
	}
	return n.conn.Flush()
}
