package core

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/combiner"
	"github.com/yaotthaha/ipcheck/gate"
	"github.com/yaotthaha/ipcheck/listener"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/option"
	"github.com/yaotthaha/ipcheck/sink"
	"github.com/yaotthaha/ipcheck/source"

	"github.com/fatih/color"
	"golang.org/x/sync/singleflight"
)

var _ adapter.Core = (*Core)(nil)

type Core struct {
	ctx             context.Context
	logger          log.ContextLogger
	gate            *gate.Gate
	apiServer       *APIServer
	sources         []adapter.Source
	sinks           []adapter.Sink
	listeners       []adapter.Listener
	refreshInterval time.Duration
	reloadGroup     singleflight.Group
	syncLock        sync.Mutex
}

func init() {
	source.Register()
	sink.Register()
}

func New(ctx context.Context, logger log.Logger, options option.Option) (adapter.Core, error) {
	tagLogger := log.NewTagLogger(logger, "core")
	if clogger, isSetColorLogger := tagLogger.(log.SetColorLogger); isSetColorLogger {
		clogger.SetColor(color.FgYellow)
	}
	core := &Core{
		ctx:             ctx,
		logger:          log.NewContextLogger(tagLogger),
		refreshInterval: time.Duration(options.RefreshInterval),
	}
	gateLogger := log.NewTagLogger(logger, "gate")
	if clogger, isSetColorLogger := gateLogger.(log.SetColorLogger); isSetColorLogger {
		clogger.SetColor(color.FgGreen)
	}
	core.gate = gate.New(log.NewContextLogger(gateLogger))
	// Init API Server
	apiServer, err := NewAPIServer(ctx, core, logger, options.APIOptions)
	if err != nil {
		return nil, fmt.Errorf("init api server fail: %s", err)
	}
	core.apiServer = apiServer
	// Init Sources
	sourceTags := make(map[string]struct{})
	for _, s := range options.SourceOptions {
		if s.Tag == "" {
			return nil, fmt.Errorf("init source fail: tag is empty")
		}
		if _, ok := sourceTags[s.Tag]; ok {
			return nil, fmt.Errorf("init source fail: tag %s duplicated", s.Tag)
		}
		sourceTags[s.Tag] = struct{}{}
		src, err := adapter.NewSource(s.Type, s.Tag, s.Args)
		if err != nil {
			return nil, fmt.Errorf("init source %s fail: %s", s.Tag, err)
		}
		if wc, ok := src.(adapter.WithContext); ok {
			wc.WithContext(ctx)
		}
		if wl, ok := src.(adapter.WithContextLogger); ok {
			tagLogger := log.NewTagLogger(logger, fmt.Sprintf("source/%s", src.Tag()))
			if clogger, isSetColorLogger := tagLogger.(log.SetColorLogger); isSetColorLogger {
				clogger.SetColor(color.FgCyan)
			}
			wl.WithContextLogger(log.NewContextLogger(tagLogger))
		}
		core.sources = append(core.sources, src)
	}
	// Init Sinks
	sinkTags := make(map[string]struct{})
	for _, s := range options.SinkOptions {
		if s.Tag == "" {
			return nil, fmt.Errorf("init sink fail: tag is empty")
		}
		if _, ok := sinkTags[s.Tag]; ok {
			return nil, fmt.Errorf("init sink fail: tag %s duplicated", s.Tag)
		}
		sinkTags[s.Tag] = struct{}{}
		snk, err := adapter.NewSink(s.Type, s.Tag, s.Args)
		if err != nil {
			return nil, fmt.Errorf("init sink %s fail: %s", s.Tag, err)
		}
		if wc, ok := snk.(adapter.WithContext); ok {
			wc.WithContext(ctx)
		}
		if wl, ok := snk.(adapter.WithContextLogger); ok {
			tagLogger := log.NewTagLogger(logger, fmt.Sprintf("sink/%s", snk.Tag()))
			if clogger, isSetColorLogger := tagLogger.(log.SetColorLogger); isSetColorLogger {
				clogger.SetColor(color.FgBlue)
			}
			wl.WithContextLogger(log.NewContextLogger(tagLogger))
		}
		core.sinks = append(core.sinks, snk)
	}
	// Init Listener
	if options.DNSBLOptions != nil {
		l, err := listener.NewDNSBLListener(ctx, core, logger, *options.DNSBLOptions)
		if err != nil {
			return nil, fmt.Errorf("init listener fail: %s", err)
		}
		core.listeners = append(core.listeners, l)
	}
	return core, nil
}

// Run starts every component, performs the first reload and blocks until
// the context is done or a component fails fatally. The gate is torn down
// on return.
func (c *Core) Run() error {
	c.logger.Info("core start")
	startTime := time.Now()
	defer c.logger.Info("core close")
	startFatalCtx, startFatalCancel := context.WithCancelCause(c.ctx)
	defer startFatalCancel(nil)
	defer func() {
		_ = c.gate.Close()
	}()
	for i, s := range c.sources {
		if starter, isStarter := s.(adapter.Starter); isStarter {
			err := starter.Start()
			if err != nil {
				c.closeSources(c.sources[:i])
				return fmt.Errorf("source [%s] start fail: %s", s.Tag(), err)
			}
			c.logger.Info(fmt.Sprintf("source [%s] start", s.Tag()))
		}
	}
	defer c.closeSources(c.sources)
	for i, s := range c.sinks {
		if starter, isStarter := s.(adapter.Starter); isStarter {
			err := starter.Start()
			if err != nil {
				c.closeSinks(c.sinks[:i])
				return fmt.Errorf("sink [%s] start fail: %s", s.Tag(), err)
			}
			c.logger.Info(fmt.Sprintf("sink [%s] start", s.Tag()))
		}
	}
	defer c.closeSinks(c.sinks)
	var refreshGroup sync.WaitGroup
	defer refreshGroup.Wait()
	for i, l := range c.listeners {
		if fatalStarter, ok := l.(adapter.FatalStarter); ok {
			fatalStarter.WithFatalCloser(startFatalCancel)
		}
		err := l.Start()
		if err != nil {
			c.closeListeners(c.listeners[:i])
			return fmt.Errorf("listener [%s] start fail: %s", l.Tag(), err)
		}
		c.logger.Info(fmt.Sprintf("listener [%s] start", l.Tag()))
	}
	defer c.closeListeners(c.listeners)
	if c.apiServer != nil {
		c.apiServer.WithFatalCloser(startFatalCancel)
		err := c.apiServer.Start()
		if err != nil {
			return fmt.Errorf("api server start fail: %s", err)
		}
		defer func() {
			err := c.apiServer.Close()
			if err != nil {
				c.logger.Error(fmt.Sprintf("api server close fail: %s", err))
			}
		}()
	}
	_, err := c.Reload(log.AddContextTag(startFatalCtx), "startup")
	if err != nil {
		c.logger.Error(fmt.Sprintf("initial reload fail: %s", err))
	}
	if c.refreshInterval > 0 && len(c.sources) > 0 {
		refreshGroup.Add(1)
		go func() {
			defer refreshGroup.Done()
			c.refreshLoop(startFatalCtx)
		}()
	}
	c.logger.Info(fmt.Sprintf("core is running, cost %s", time.Since(startTime).String()))
	<-startFatalCtx.Done()
	if c.ctx.Err() != nil {
		return nil
	}
	return context.Cause(startFatalCtx)
}

func (c *Core) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := c.Reload(log.AddContextTag(ctx), "refresh")
			if err != nil {
				c.logger.Error(fmt.Sprintf("refresh fail: %s", err))
			}
		}
	}
}

func (c *Core) closeSources(sources []adapter.Source) {
	for i := range sources {
		s := sources[len(sources)-1-i]
		if closer, isCloser := s.(adapter.Closer); isCloser {
			err := closer.Close()
			if err != nil {
				c.logger.Error(fmt.Sprintf("source [%s] close fail: %s", s.Tag(), err))
			}
			c.logger.Info(fmt.Sprintf("source [%s] close", s.Tag()))
		}
	}
}

func (c *Core) closeSinks(sinks []adapter.Sink) {
	for i := range sinks {
		s := sinks[len(sinks)-1-i]
		if closer, isCloser := s.(adapter.Closer); isCloser {
			err := closer.Close()
			if err != nil {
				c.logger.Error(fmt.Sprintf("sink [%s] close fail: %s", s.Tag(), err))
			}
			c.logger.Info(fmt.Sprintf("sink [%s] close", s.Tag()))
		}
	}
}

func (c *Core) closeListeners(listeners []adapter.Listener) {
	for i := range listeners {
		l := listeners[len(listeners)-1-i]
		err := l.Close()
		if err != nil {
			c.logger.Error(fmt.Sprintf("listener [%s] close fail: %s", l.Tag(), err))
		}
		c.logger.Info(fmt.Sprintf("listener [%s] close", l.Tag()))
	}
}

func (c *Core) Load(ctx context.Context, text string) (int, error) {
	n, err := c.gate.Load(ctx, text)
	if err != nil {
		return 0, err
	}
	c.syncSinks(ctx)
	return n, nil
}

func (c *Core) Clear(ctx context.Context) {
	c.gate.Clear(ctx)
	c.syncSinks(ctx)
}

func (c *Core) Contains(ctx context.Context, addr string) (bool, error) {
	return c.gate.Contains(ctx, addr)
}

func (c *Core) ContainsAddr(ctx context.Context, addr netip.Addr) (bool, error) {
	return c.gate.ContainsAddr(ctx, addr)
}

func (c *Core) Ranges() ([]combiner.Range, error) {
	return c.gate.Ranges()
}

func (c *Core) Available() bool {
	return c.gate.Available()
}

// Reload refetches every source and replaces the range set with their
// union. Concurrent calls share one fetch, which runs until the core stops
// even if the caller that started it goes away. A caller whose ctx is done
// stops waiting and gets ctx.Err().
func (c *Core) Reload(ctx context.Context, reason string) (int, error) {
	resultChan := c.reloadGroup.DoChan("reload", func() (any, error) {
		// keep the request tag, drop the caller's cancellation
		reloadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(c.ctx, cancel)
		defer stop()
		return c.reload(reloadCtx, reason)
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case result := <-resultChan:
		if result.Err != nil {
			return 0, result.Err
		}
		if result.Shared {
			c.logger.DebugContext(ctx, "reload shared with a running one")
		}
		return result.Val.(int), nil
	}
}

func (c *Core) reload(ctx context.Context, reason string) (int, error) {
	if len(c.sources) == 0 {
		return c.gate.Len()
	}
	c.logger.InfoContext(ctx, fmt.Sprintf("reload start, reason: %s", reason))
	startTime := time.Now()
	var (
		builder strings.Builder
		fetched int
	)
	for _, s := range c.sources {
		text, err := s.Fetch(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, fmt.Sprintf("fetch source [%s] fail: %s", s.Tag(), err))
			continue
		}
		builder.WriteString(text)
		builder.WriteByte('\n')
		fetched++
	}
	if fetched == 0 {
		return 0, fmt.Errorf("reload fail: all %d sources failed", len(c.sources))
	}
	n, err := c.gate.Replace(ctx, builder.String())
	if err != nil {
		return 0, err
	}
	c.syncSinks(ctx)
	c.logger.InfoContext(ctx, fmt.Sprintf("reload success, %d/%d sources, %d ranges, cost %s", fetched, len(c.sources), n, time.Since(startTime).String()))
	return n, nil
}

func (c *Core) syncSinks(ctx context.Context) {
	if len(c.sinks) == 0 {
		return
	}
	c.syncLock.Lock()
	defer c.syncLock.Unlock()
	ranges, err := c.gate.Ranges()
	if err != nil {
		c.logger.ErrorContext(ctx, fmt.Sprintf("sync sinks fail: %s", err))
		return
	}
	for _, s := range c.sinks {
		err := s.Sync(ctx, ranges)
		if err != nil {
			c.logger.ErrorContext(ctx, fmt.Sprintf("sync sink [%s] fail: %s", s.Tag(), err))
		}
	}
}
