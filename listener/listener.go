package listener

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/listener/control"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/option"

	"github.com/miekg/dns"
)

var (
	_ adapter.Listener     = (*dnsblListener)(nil)
	_ adapter.FatalStarter = (*dnsblListener)(nil)
)

// dnsblListener answers DNS blocklist queries over UDP and TCP on the same
// address.
type dnsblListener struct {
	tag              string
	ctx              context.Context
	core             adapter.Core
	logger           log.ContextLogger
	fatalStartCloser func(error)
	listen           netip.AddrPort
	zone             string
	ttl              uint32
	listenConfig     net.ListenConfig
	udpConn          net.PacketConn
	tcpListener      net.Listener
	udpServer        *dns.Server
	tcpServer        *dns.Server
}

func NewDNSBLListener(ctx context.Context, core adapter.Core, logger log.Logger, options option.DNSBLOptions) (adapter.Listener, error) {
	l := &dnsblListener{
		tag:    constant.ListenerDNSBL,
		ctx:    ctx,
		core:   core,
		logger: log.NewContextLogger(log.NewTagLogger(logger, fmt.Sprintf("listener/%s", constant.ListenerDNSBL))),
		ttl:    options.TTL,
	}
	if options.Listen == "" {
		options.Listen = ":53"
	}
	host, port, err := net.SplitHostPort(options.Listen)
	if err != nil {
		return nil, fmt.Errorf("create dnsbl listener fail: parse listen %s fail: %s", options.Listen, err)
	}
	if host == "" {
		host = "::"
	}
	listenAddr, err := netip.ParseAddrPort(net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("create dnsbl listener fail: parse listen %s fail: %s", options.Listen, err)
	}
	l.listen = listenAddr
	if options.Zone == "" {
		return nil, fmt.Errorf("create dnsbl listener fail: zone is empty")
	}
	if _, ok := dns.IsDomainName(options.Zone); !ok {
		return nil, fmt.Errorf("create dnsbl listener fail: invalid zone %s", options.Zone)
	}
	l.zone = dns.CanonicalName(options.Zone)
	if l.zone == "." {
		return nil, fmt.Errorf("create dnsbl listener fail: zone must not be the root")
	}
	if l.ttl == 0 {
		l.ttl = constant.DNSBLDefaultTTL
	}
	if options.BindInterface != "" {
		l.listenConfig.Control = control.BindInterface(options.BindInterface)
	}
	return l, nil
}

func (l *dnsblListener) Tag() string {
	return l.tag
}

func (l *dnsblListener) Type() string {
	return constant.ListenerDNSBL
}

func (l *dnsblListener) WithFatalCloser(f func(err error)) {
	l.fatalStartCloser = f
}

// Addr returns the bound address, which differs from the configured one
// when port 0 was requested.
func (l *dnsblListener) Addr() netip.AddrPort {
	if l.udpConn == nil {
		return l.listen
	}
	return strToNetIPAddrPort(l.udpConn.LocalAddr().String())
}

func (l *dnsblListener) Start() error {
	var err error
	l.udpConn, err = l.listenConfig.ListenPacket(l.ctx, constant.NetworkUDP, l.listen.String())
	if err != nil {
		return fmt.Errorf("start dnsbl listener fail: listen udp %s fail: %s", l.listen.String(), err)
	}
	// tcp follows the port picked for udp
	tcpAddr := l.Addr()
	l.tcpListener, err = l.listenConfig.Listen(l.ctx, constant.NetworkTCP, tcpAddr.String())
	if err != nil {
		_ = l.udpConn.Close()
		return fmt.Errorf("start dnsbl listener fail: listen tcp %s fail: %s", tcpAddr.String(), err)
	}
	l.udpServer = &dns.Server{
		PacketConn:   l.udpConn,
		Handler:      l,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	l.tcpServer = &dns.Server{
		Listener:     l.tcpListener,
		Handler:      l,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	l.serve(l.udpServer, constant.NetworkUDP)
	l.serve(l.tcpServer, constant.NetworkTCP)
	l.logger.Info(fmt.Sprintf("start dnsbl listener on %s, zone: %s", tcpAddr.String(), l.zone))
	return nil
}

func (l *dnsblListener) serve(server *dns.Server, network string) {
	waitLock := sync.Mutex{}
	waitLock.Lock()
	server.NotifyStartedFunc = waitLock.Unlock
	go func() {
		err := server.ActivateAndServe()
		if err != nil {
			if tools.IsCloseOrCanceled(err) {
				return
			}
			if l.fatalStartCloser != nil {
				l.fatalStartCloser(fmt.Errorf("start dnsbl %s listener fail: %s", network, err))
				return
			}
			l.logger.Fatal(fmt.Sprintf("start dnsbl %s listener fail: %s", network, err))
		}
	}()
	waitLock.Lock()
	waitLock.Unlock()
}

func (l *dnsblListener) Close() error {
	if l.udpServer == nil {
		return nil
	}
	var errs []string
	if err := l.udpServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Sprintf("shutdown udp server fail: %s", err))
	}
	if err := l.tcpServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Sprintf("shutdown tcp server fail: %s", err))
	}
	if err := l.udpConn.Close(); err != nil && !tools.IsCloseOrCanceled(err) {
		errs = append(errs, err.Error())
	}
	if err := l.tcpListener.Close(); err != nil && !tools.IsCloseOrCanceled(err) {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close dnsbl listener fail: %s", strings.Join(errs, ", "))
	}
	return nil
}

func (l *dnsblListener) ServeDNS(w dns.ResponseWriter, reqMsg *dns.Msg) {
	defer w.Close()
	defer func() {
		err := recover()
		if err != nil {
			l.logger.Error(fmt.Sprintf("panic: %s", err))
		}
	}()
	ctx := log.AddContextTag(l.ctx)
	respMsg := l.handle(ctx, reqMsg, strToNetIPAddrPort(w.RemoteAddr().String()).Addr())
	if _, isUDP := w.RemoteAddr().(*net.UDPAddr); isUDP {
		// from mosdns(https://github.com/IrineSistiana/mosdns), thank for @IrineSistiana
		respMsg.Truncate(getUDPSize(reqMsg))
	}
	err := w.WriteMsg(respMsg)
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf("write msg fail: %s", err))
	}
}

// from mosdns(https://github.com/IrineSistiana/mosdns), thank for @IrineSistiana
func getUDPSize(m *dns.Msg) int {
	var s uint16
	if opt := m.IsEdns0(); opt != nil {
		s = opt.UDPSize()
	}
	if s < dns.MinMsgSize {
		s = dns.MinMsgSize
	}
	return int(s)
}

func strToNetIPAddrPort(str string) netip.AddrPort {
	addr, err := netip.ParseAddrPort(str)
	if err != nil {
		return netip.AddrPort{}
	}
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}
