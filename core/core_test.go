package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/gate"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/option"

	"github.com/stretchr/testify/require"
)

const memorySinkType = "memory"

type memorySink struct {
	tag    string
	lock   sync.Mutex
	ranges []combiner.Range
	syncs  int
}

func (m *memorySink) Tag() string {
	return m.tag
}

func (m *memorySink) Type() string {
	return memorySinkType
}

func (m *memorySink) Sync(_ context.Context, ranges []combiner.Range) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.ranges = ranges
	m.syncs++
	return nil
}

func (m *memorySink) snapshot() ([]combiner.Range, int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.ranges, m.syncs
}

var (
	memorySinks     = make(map[string]*memorySink)
	memorySinksLock sync.Mutex
)

const blockingSourceType = "blocking"

// blockingSource holds Fetch until release is closed or ctx is done.
type blockingSource struct {
	tag     string
	started chan struct{}
	release chan struct{}
	fetches atomic.Int32
}

func newBlockingSource(tag string) *blockingSource {
	return &blockingSource{
		tag:     tag,
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingSource) Tag() string {
	return b.tag
}

func (b *blockingSource) Type() string {
	return blockingSourceType
}

func (b *blockingSource) Fetch(ctx context.Context) (string, error) {
	b.fetches.Add(1)
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-b.release:
		return "10.0.0.0/8\n", nil
	}
}

func init() {
	adapter.RegisterSource(blockingSourceType, func(_ string, args map[string]any) (adapter.Source, error) {
		return args["source"].(*blockingSource), nil
	})
	adapter.RegisterSink(memorySinkType, func(tag string, _ map[string]any) (adapter.Sink, error) {
		memorySinksLock.Lock()
		defer memorySinksLock.Unlock()
		s := &memorySink{tag: tag}
		memorySinks[tag] = s
		return s, nil
	})
}

func getMemorySink(tag string) *memorySink {
	memorySinksLock.Lock()
	defer memorySinksLock.Unlock()
	return memorySinks[tag]
}

func writeList(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestCore(t *testing.T, ctx context.Context, options option.Option) *Core {
	c, err := New(ctx, log.NewNopLogger(), options)
	require.NoError(t, err)
	return c.(*Core)
}

func fileSource(tag, path string) option.SourceOptions {
	return option.SourceOptions{
		Tag:  tag,
		Type: constant.SourceFile,
		Args: map[string]any{"path": path},
	}
}

func TestCoreReload(t *testing.T) {
	dir := t.TempDir()
	first := writeList(t, dir, "a.txt", "10.0.0.0/8\n")
	second := writeList(t, dir, "b.txt", "11.0.0.0/8\n192.168.1.0/24\n")
	c := newTestCore(t, context.Background(), option.Option{
		SourceOptions: []option.SourceOptions{
			fileSource("a", first),
			fileSource("b", second),
			fileSource("missing", filepath.Join(dir, "missing.txt")),
		},
		SinkOptions: []option.SinkOptions{{Tag: "reload-mem", Type: memorySinkType}},
	})
	ctx := context.Background()

	n, err := c.Reload(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	ok, err := c.Contains(ctx, "11.255.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	ranges, syncs := getMemorySink("reload-mem").snapshot()
	require.Equal(t, 1, syncs)
	require.Len(t, ranges, 2)

	// reload replaces, it never accumulates
	writeList(t, dir, "b.txt", "172.16.0.0/12\n")
	n, err = c.Reload(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	ok, err = c.Contains(ctx, "11.255.0.1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCoreReloadAllSourcesFail(t *testing.T) {
	dir := t.TempDir()
	c := newTestCore(t, context.Background(), option.Option{
		SourceOptions: []option.SourceOptions{fileSource("missing", filepath.Join(dir, "missing.txt"))},
	})
	ctx := context.Background()
	_, err := c.Load(ctx, "10.0.0.0/8")
	require.NoError(t, err)
	_, err = c.Reload(ctx, "test")
	require.Error(t, err)
	ok, err := c.Contains(ctx, "10.1.2.3")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCoreReloadWithoutSources(t *testing.T) {
	c := newTestCore(t, context.Background(), option.Option{})
	ctx := context.Background()
	_, err := c.Load(ctx, "10.0.0.0/8\n12.0.0.0/8")
	require.NoError(t, err)
	n, err := c.Reload(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCoreSinkSync(t *testing.T) {
	c := newTestCore(t, context.Background(), option.Option{
		SinkOptions: []option.SinkOptions{{Tag: "sync-mem", Type: memorySinkType}},
	})
	ctx := context.Background()
	sink := getMemorySink("sync-mem")

	_, err := c.Load(ctx, "10.0.0.0/8\n11.0.0.0/8")
	require.NoError(t, err)
	ranges, syncs := sink.snapshot()
	require.Equal(t, 1, syncs)
	require.Equal(t, []combiner.Range{{Start: 0x0a000000, End: 0x0bffffff}}, ranges)

	c.Clear(ctx)
	ranges, syncs = sink.snapshot()
	require.Equal(t, 2, syncs)
	require.Empty(t, ranges)

	_, err = c.Load(ctx, string([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, gate.ErrMalformedInput)
	_, syncs = sink.snapshot()
	require.Equal(t, 2, syncs)
}

func TestCoreRun(t *testing.T) {
	dir := t.TempDir()
	list := writeList(t, dir, "a.txt", "10.0.0.0/8\n")
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestCore(t, ctx, option.Option{
		RefreshInterval: 0,
		SourceOptions:   []option.SourceOptions{fileSource("a", list)},
		SinkOptions:     []option.SinkOptions{{Tag: "run-mem", Type: memorySinkType}},
	})
	done := make(chan error, 1)
	go func() {
		done <- c.Run()
	}()
	sink := getMemorySink("run-mem")
	require.Eventually(t, func() bool {
		ranges, _ := sink.snapshot()
		return len(ranges) == 1
	}, 5*time.Second, 10*time.Millisecond)
	ok, err := c.Contains(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("core did not stop")
	}
	require.False(t, c.Available())
	_, err = c.Contains(context.Background(), "10.0.0.1")
	require.ErrorIs(t, err, gate.ErrUnavailable)
	_, err = c.Ranges()
	require.ErrorIs(t, err, gate.ErrUnavailable)

	c.Clear(context.Background())
	ok, err = c.Contains(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCoreRefresh(t *testing.T) {
	dir := t.TempDir()
	list := writeList(t, dir, "a.txt", "10.0.0.0/8\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := newTestCore(t, ctx, option.Option{
		RefreshInterval: 0,
		SourceOptions:   []option.SourceOptions{fileSource("a", list)},
	})
	c.refreshInterval = 20 * time.Millisecond
	done := make(chan error, 1)
	go func() {
		done <- c.Run()
	}()
	require.Eventually(t, func() bool {
		ok, _ := c.Contains(context.Background(), "10.0.0.1")
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	writeList(t, dir, "a.txt", "172.16.0.0/12\n")
	require.Eventually(t, func() bool {
		ok, _ := c.Contains(context.Background(), "172.16.0.1")
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestNewCoreInvalid(t *testing.T) {
	cases := []option.Option{
		{SourceOptions: []option.SourceOptions{{Type: constant.SourceFile}}},
		{SourceOptions: []option.SourceOptions{fileSource("a", "x"), fileSource("a", "y")}},
		{SourceOptions: []option.SourceOptions{{Tag: "a", Type: "unknown"}}},
		{SinkOptions: []option.SinkOptions{{Tag: "m", Type: memorySinkType}, {Tag: "m", Type: memorySinkType}}},
		{SinkOptions: []option.SinkOptions{{Tag: "m", Type: "unknown"}}},
		{APIOptions: option.APIOptions{Listen: "not an address"}},
		{DNSBLOptions: &option.DNSBLOptions{Listen: ":5353"}},
	}
	for _, options := range cases {
		_, err := New(context.Background(), log.NewNopLogger(), options)
		require.Error(t, err)
	}
}

func newBlockingCore(t *testing.T, ctx context.Context) (*Core, *blockingSource) {
	src := newBlockingSource("slow")
	c := newTestCore(t, ctx, option.Option{
		SourceOptions: []option.SourceOptions{{
			Tag:  src.tag,
			Type: blockingSourceType,
			Args: map[string]any{"source": src},
		}},
	})
	return c, src
}

func TestCoreReloadSurvivesCallerCancel(t *testing.T) {
	c, src := newBlockingCore(t, context.Background())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Reload(firstCtx, "api")
		firstDone <- err
	}()
	<-src.started

	cancelFirst()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	type result struct {
		n   int
		err error
	}
	secondDone := make(chan result, 1)
	go func() {
		n, err := c.Reload(context.Background(), "refresh")
		secondDone <- result{n: n, err: err}
	}()
	// let the second caller join the running fetch
	time.Sleep(100 * time.Millisecond)
	close(src.release)

	second := <-secondDone
	require.NoError(t, second.err)
	require.Equal(t, 1, second.n)
	ok, err := c.Contains(context.Background(), "10.1.2.3")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(1), src.fetches.Load())
}

func TestCoreReloadStopsWithCore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, src := newBlockingCore(t, ctx)

	done := make(chan error, 1)
	go func() {
		_, err := c.Reload(context.Background(), "refresh")
		done <- err
	}()
	<-src.started
	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not stop with the core")
	}
}
