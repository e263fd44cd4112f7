package mmdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/lib/types"

	"github.com/oschwald/maxminddb-golang"
)

var (
	_ adapter.Source  = (*MMDB)(nil)
	_ adapter.Starter = (*MMDB)(nil)
	_ adapter.Closer  = (*MMDB)(nil)
)

func init() {
	adapter.RegisterSource(constant.SourceMMDB, NewMMDB)
}

const singGeoIPType = "sing-geoip"

var ErrNotStarted = errors.New("mmdb source not started")

// MMDB emits the IPv4 networks of the configured countries from a MaxMind
// country database or a sing-geoip database.
type MMDB struct {
	tag       string
	path      string
	countries map[string]struct{}
	reader    *maxminddb.Reader
}

type option struct {
	Path    string                 `config:"path"`
	Country types.Listable[string] `config:"country"`
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func NewMMDB(tag string, args map[string]any) (adapter.Source, error) {
	var op option
	err := tools.NewMapStructureDecoderWithResult(&op).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if op.Path == "" {
		return nil, fmt.Errorf("path must be not empty")
	}
	if len(op.Country) == 0 {
		return nil, fmt.Errorf("country must be not empty")
	}
	m := &MMDB{
		tag:       tag,
		path:      op.Path,
		countries: make(map[string]struct{}, len(op.Country)),
	}
	for _, code := range op.Country {
		m.countries[strings.ToLower(code)] = struct{}{}
	}
	return m, nil
}

func (m *MMDB) Tag() string {
	return m.tag
}

func (m *MMDB) Type() string {
	return constant.SourceMMDB
}

func (m *MMDB) Start() error {
	reader, err := maxminddb.Open(m.path)
	if err != nil {
		return fmt.Errorf("open mmdb %s fail: %s", m.path, err)
	}
	m.reader = reader
	return nil
}

func (m *MMDB) Close() error {
	if m.reader == nil {
		return nil
	}
	return m.reader.Close()
}

func (m *MMDB) Fetch(ctx context.Context) (string, error) {
	if m.reader == nil {
		return "", ErrNotStarted
	}
	singGeoIP := m.reader.Metadata.DatabaseType == singGeoIPType
	var b strings.Builder
	networks := m.reader.Networks(maxminddb.SkipAliasedNetworks)
	for i := 0; networks.Next(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		var code string
		if singGeoIP {
			subnet, err := networks.Network(&code)
			if err != nil {
				return "", err
			}
			m.writeNetwork(&b, code, subnet.String(), subnet.IP.To4() != nil)
			continue
		}
		var record countryRecord
		subnet, err := networks.Network(&record)
		if err != nil {
			return "", err
		}
		m.writeNetwork(&b, record.Country.ISOCode, subnet.String(), subnet.IP.To4() != nil)
	}
	if err := networks.Err(); err != nil {
		return "", fmt.Errorf("walk mmdb %s fail: %s", m.path, err)
	}
	return b.String(), nil
}

func (m *MMDB) writeNetwork(b *strings.Builder, code string, network string, isIPv4 bool) {
	if !isIPv4 || code == "" {
		return
	}
	if _, ok := m.countries[strings.ToLower(code)]; !ok {
		return
	}
	b.WriteString(network)
	b.WriteByte('\n')
}
