package http_source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/lib/types"
)

var _ adapter.Source = (*HTTP)(nil)

func init() {
	adapter.RegisterSource(constant.SourceHTTP, NewHTTP)
}

type HTTP struct {
	tag    string
	url    string
	header map[string]string
	client *http.Client
}

type option struct {
	URL     string             `config:"url"`
	Timeout types.TimeDuration `config:"timeout"`
	Header  map[string]string  `config:"header"`
}

func NewHTTP(tag string, args map[string]any) (adapter.Source, error) {
	var op option
	err := tools.NewMapStructureDecoderWithResult(&op).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if op.URL == "" {
		return nil, fmt.Errorf("url must be not empty")
	}
	if !strings.HasPrefix(op.URL, "http://") && !strings.HasPrefix(op.URL, "https://") {
		return nil, fmt.Errorf("invalid url: %s", op.URL)
	}
	timeout := time.Duration(op.Timeout)
	if timeout <= 0 {
		timeout = constant.HTTPFetchTimeout
	}
	return &HTTP{
		tag:    tag,
		url:    op.URL,
		header: op.Header,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (h *HTTP) Tag() string {
	return h.tag
}

func (h *HTTP) Type() string {
	return constant.SourceHTTP
}

func (h *HTTP) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range h.header {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, constant.MaxFetchBytes+1))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if len(content) > constant.MaxFetchBytes {
		return "", fmt.Errorf("response larger than %d bytes", constant.MaxFetchBytes)
	}
	return string(content), nil
}
