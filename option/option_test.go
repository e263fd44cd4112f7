package option

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const yamlConfig = `
log:
  level: warn
  color: true
api:
  listen: 127.0.0.1:9090
  secret: token
dnsbl:
  listen: ":5353"
  zone: bl.example.org
  ttl: 300
refresh-interval: 30m
sources:
  - tag: local
    type: file
    args:
      path: /etc/ipcheck/block.txt
  - tag: remote
    type: http
    args:
      url: https://example.org/list.txt
      timeout: 10s
sinks:
  - tag: fw
    type: nftset
    args:
      table-name: filter
      set-name: blocklist
`

func TestReadContentYAML(t *testing.T) {
	option, err := ReadContent([]byte(yamlConfig), YAML)
	require.NoError(t, err)
	require.Equal(t, "warn", option.LogOptions.Level)
	require.True(t, option.LogOptions.Color)
	require.Equal(t, "127.0.0.1:9090", option.APIOptions.Listen)
	require.Equal(t, "token", option.APIOptions.Secret)
	require.NotNil(t, option.DNSBLOptions)
	require.Equal(t, "bl.example.org", option.DNSBLOptions.Zone)
	require.Equal(t, uint32(300), option.DNSBLOptions.TTL)
	require.Equal(t, 30*time.Minute, time.Duration(option.RefreshInterval))
	require.Len(t, option.SourceOptions, 2)
	require.Equal(t, "remote", option.SourceOptions[1].Tag)
	require.Equal(t, "https://example.org/list.txt", option.SourceOptions[1].Args["url"])
	require.Len(t, option.SinkOptions, 1)
	require.Equal(t, "nftset", option.SinkOptions[0].Type)
}

func TestReadContentJSON(t *testing.T) {
	option, err := ReadContent([]byte(`{"api":{"listen":":8080"},"sources":[{"tag":"a","type":"file","args":{"path":["a.txt","b.txt"]}}]}`), JSON)
	require.NoError(t, err)
	require.Equal(t, ":8080", option.APIOptions.Listen)
	require.Nil(t, option.DNSBLOptions)
	require.Zero(t, option.RefreshInterval)
	require.Len(t, option.SourceOptions, 1)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(yamlConfig), 0o644))
	option, err := ReadFile(file)
	require.NoError(t, err)
	require.Len(t, option.SourceOptions, 2)

	_, err = ReadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadFile(bad)
	require.Error(t, err)
}
