package constant

import "time"

const (
	SourceFile  = "file"
	SourceHTTP  = "http"
	SourceRedis = "redis"
	SourceMMDB  = "mmdb"
)

const (
	SinkNftSet = "nftset"
	SinkIPSet  = "ipset"
)

const (
	NetworkTCP = "tcp"
	NetworkUDP = "udp"
)

const (
	ListenerDNSBL = "dnsbl"
)

const (
	HTTPFetchTimeout = 30 * time.Second
	MaxFetchBytes    = 32 << 20
	MaxLoadBodyBytes = 64 << 20
)

const (
	DNSBLDefaultTTL = 300
	DNSBLListedAddr = "127.0.0.2"
	DNSBLListedText = "listed"
)
