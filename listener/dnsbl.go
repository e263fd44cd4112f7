package listener

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/yaotthaha/ipcheck/constant"

	"github.com/miekg/dns"
)

var listedAddr = net.ParseIP(constant.DNSBLListedAddr).To4()

// handle resolves d.c.b.a.<zone> against the range set.
func (l *dnsblListener) handle(ctx context.Context, reqMsg *dns.Msg, remoteIP netip.Addr) *dns.Msg {
	respMsg := new(dns.Msg)
	if len(reqMsg.Question) != 1 {
		respMsg.SetRcodeFormatError(reqMsg)
		return respMsg
	}
	question := reqMsg.Question[0]
	l.logger.DebugContext(ctx, fmt.Sprintf("receive request from %s, qtype: %s, qname: %s", remoteIP.String(), dns.TypeToString[question.Qtype], question.Name))
	qname := dns.CanonicalName(question.Name)
	if !dns.IsSubDomain(l.zone, qname) {
		respMsg.SetRcode(reqMsg, dns.RcodeRefused)
		return respMsg
	}
	respMsg.SetReply(reqMsg)
	respMsg.Authoritative = true
	if qname == l.zone {
		if question.Qtype == dns.TypeSOA {
			respMsg.Answer = []dns.RR{l.soa()}
		} else {
			respMsg.Ns = []dns.RR{l.soa()}
		}
		return respMsg
	}
	addr, ok := parseReverseName(strings.TrimSuffix(qname, "."+l.zone))
	if !ok {
		respMsg.Rcode = dns.RcodeNameError
		respMsg.Ns = []dns.RR{l.soa()}
		return respMsg
	}
	listed, err := l.core.ContainsAddr(ctx, addr)
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf("check %s fail: %s", addr.String(), err))
		respMsg.SetRcode(reqMsg, dns.RcodeServerFailure)
		return respMsg
	}
	if !listed {
		l.logger.DebugContext(ctx, fmt.Sprintf("%s not listed", addr.String()))
		respMsg.Rcode = dns.RcodeNameError
		respMsg.Ns = []dns.RR{l.soa()}
		return respMsg
	}
	l.logger.InfoContext(ctx, fmt.Sprintf("%s listed", addr.String()))
	header := dns.RR_Header{
		Name:  question.Name,
		Class: dns.ClassINET,
		Ttl:   l.ttl,
	}
	switch question.Qtype {
	case dns.TypeA, dns.TypeANY:
		header.Rrtype = dns.TypeA
		respMsg.Answer = append(respMsg.Answer, &dns.A{Hdr: header, A: listedAddr})
		if question.Qtype == dns.TypeANY {
			header.Rrtype = dns.TypeTXT
			respMsg.Answer = append(respMsg.Answer, &dns.TXT{Hdr: header, Txt: []string{constant.DNSBLListedText}})
		}
	case dns.TypeTXT:
		header.Rrtype = dns.TypeTXT
		respMsg.Answer = append(respMsg.Answer, &dns.TXT{Hdr: header, Txt: []string{constant.DNSBLListedText}})
	default:
		respMsg.Ns = []dns.RR{l.soa()}
	}
	return respMsg
}

func (l *dnsblListener) soa() dns.RR {
	return &dns.SOA{
		Hdr: dns.RR_Header{
			Name:   l.zone,
			Rrtype: dns.TypeSOA,
			Class:  dns.ClassINET,
			Ttl:    l.ttl,
		},
		Ns:      "ns." + l.zone,
		Mbox:    "hostmaster." + l.zone,
		Serial:  1,
		Refresh: 3600,
		Retry:   600,
		Expire:  86400,
		Minttl:  l.ttl,
	}
}

// parseReverseName turns "4.3.2.1" into 1.2.3.4.
func parseReverseName(name string) (netip.Addr, bool) {
	labels := strings.Split(name, ".")
	if len(labels) != 4 {
		return netip.Addr{}, false
	}
	labels[0], labels[1], labels[2], labels[3] = labels[3], labels[2], labels[1], labels[0]
	addr, err := netip.ParseAddr(strings.Join(labels, "."))
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}
