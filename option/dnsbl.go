package option

// DNSBLOptions configures the DNS blocklist listener. TTL is in seconds.
type DNSBLOptions struct {
	Listen        string `config:"listen"`
	Zone          string `config:"zone"`
	TTL           uint32 `config:"ttl"`
	BindInterface string `config:"bind-interface"`
}
