// Package gate owns the process-wide combiner and serializes every read and
// write to it behind a single mutex.
//
// The gate starts Present with an empty combiner. Close moves it to Absent;
// from then on Load, Replace, Contains and the snapshot calls fail with
// ErrUnavailable until Clear installs a fresh combiner.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"unicode/utf8"

	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/log"
)

var (
	ErrUnavailable      = errors.New("can't acquire combiner")
	ErrMalformedAddress = errors.New("failed to parse ip from input")
	ErrMalformedInput   = errors.New("input is not valid utf-8 text")
)

type Gate struct {
	lock     sync.Mutex
	combiner *combiner.Combiner
	logger   log.ContextLogger
}

func New(logger log.ContextLogger) *Gate {
	return &Gate{
		combiner: combiner.New(),
		logger:   logger,
	}
}

// with runs f while holding the gate. f is not called when the gate is
// Absent.
func (g *Gate) with(f func(c *combiner.Combiner)) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.combiner == nil {
		return ErrUnavailable
	}
	f(g.combiner)
	return nil
}

// Load merges every valid CIDR line of text into the combiner and returns
// the number of disjoint ranges afterwards. Invalid lines are skipped.
func (g *Gate) Load(ctx context.Context, text string) (int, error) {
	return g.load(ctx, text, false)
}

// Replace swaps the whole range set for the ranges in text within one gate
// acquisition, so concurrent queries never see a partial set.
func (g *Gate) Replace(ctx context.Context, text string) (int, error) {
	return g.load(ctx, text, true)
}

func (g *Gate) load(ctx context.Context, text string, replace bool) (int, error) {
	if !utf8.ValidString(text) {
		return 0, ErrMalformedInput
	}
	// parse outside the gate, only the merge needs the combiner
	ranges, skipped := combiner.ParseLines(text)
	var n int
	err := g.with(func(c *combiner.Combiner) {
		if replace {
			c.Clear()
		}
		c.Push(ranges...)
		n = c.Len()
	})
	if err != nil {
		g.logger.ErrorContext(ctx, fmt.Sprintf("load fail: %s", err))
		return 0, err
	}
	if skipped > 0 {
		g.logger.DebugContext(ctx, fmt.Sprintf("skipped %d malformed lines", skipped))
	}
	g.logger.InfoContext(ctx, fmt.Sprintf("load success, loaded %d CIDRs, %d ranges", len(ranges), n))
	return n, nil
}

// Clear installs a fresh empty combiner, whatever the current state.
func (g *Gate) Clear(ctx context.Context) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.combiner = combiner.New()
	g.logger.InfoContext(ctx, "clear success")
}

// Contains parses a dotted-quad address and reports whether it falls in
// any loaded range.
func (g *Gate) Contains(ctx context.Context, addr string) (bool, error) {
	v, err := combiner.ParseAddr(addr)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrMalformedAddress, err)
	}
	return g.contains(ctx, v)
}

func (g *Gate) ContainsAddr(ctx context.Context, addr netip.Addr) (bool, error) {
	if !addr.Is4() {
		return false, fmt.Errorf("%w: %s", ErrMalformedAddress, combiner.ErrNotIPv4)
	}
	return g.contains(ctx, combiner.AddrToUint32(addr))
}

func (g *Gate) contains(ctx context.Context, addr uint32) (bool, error) {
	var found bool
	err := g.with(func(c *combiner.Combiner) {
		found = c.Contains(addr)
	})
	if err != nil {
		return false, err
	}
	g.logger.DebugContext(ctx, fmt.Sprintf("contains %s: %t", combiner.Uint32ToAddr(addr), found))
	return found, nil
}

func (g *Gate) Len() (int, error) {
	var n int
	err := g.with(func(c *combiner.Combiner) {
		n = c.Len()
	})
	return n, err
}

// Ranges returns a copy of the current range set.
func (g *Gate) Ranges() ([]combiner.Range, error) {
	var ranges []combiner.Range
	err := g.with(func(c *combiner.Combiner) {
		ranges = c.Ranges()
	})
	return ranges, err
}

func (g *Gate) Available() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.combiner != nil
}

// Close drops the combiner and moves the gate to Absent.
func (g *Gate) Close() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.combiner = nil
	g.logger.Info("combiner released")
	return nil
}
