package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yaotthaha/ipcheck/option"

	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, secret string) (*Core, *httptest.Server) {
	c := newTestCore(t, context.Background(), option.Option{
		APIOptions: option.APIOptions{
			Listen: "127.0.0.1:0",
			Secret: secret,
			Debug:  true,
		},
	})
	server := httptest.NewServer(c.apiServer.chiMux)
	t.Cleanup(server.Close)
	return c, server
}

func do(t *testing.T, method, url, secret, body string) (int, string) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(content)
}

func TestAPI(t *testing.T) {
	c, server := newTestAPI(t, "")

	code, body := do(t, http.MethodPost, server.URL+"/load", "", "10.0.0.0/24\n10.0.1.0/24\n# comment\nbogus\n192.168.0.0/16\n")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ranges":2}`, body)

	code, body = do(t, http.MethodGet, server.URL+"/contains/10.0.1.9", "", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ip":"10.0.1.9","contains":true}`, body)

	code, body = do(t, http.MethodGet, server.URL+"/contains/10.0.2.0", "", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ip":"10.0.2.0","contains":false}`, body)

	code, _ = do(t, http.MethodGet, server.URL+"/contains/not-an-ip", "", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, http.MethodGet, server.URL+"/ranges", "", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "10.0.0.0/23\n192.168.0.0/16\n", body)

	code, body = do(t, http.MethodGet, server.URL+"/stats", "", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ranges":2,"prefixes":2}`, body)

	code, _ = do(t, http.MethodPost, server.URL+"/load", "", string([]byte{0xc3, 0x28}))
	require.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, http.MethodPost, server.URL+"/reload", "", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ranges":2}`, body)

	code, _ = do(t, http.MethodPost, server.URL+"/clear", "", "")
	require.Equal(t, http.StatusNoContent, code)
	code, body = do(t, http.MethodGet, server.URL+"/stats", "", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"ranges":0,"prefixes":0}`, body)

	code, _ = do(t, http.MethodGet, server.URL+"/health", "", "")
	require.Equal(t, http.StatusNoContent, code)

	require.NoError(t, c.gate.Close())
	code, _ = do(t, http.MethodGet, server.URL+"/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = do(t, http.MethodGet, server.URL+"/contains/10.0.1.9", "", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = do(t, http.MethodPost, server.URL+"/load", "", "10.0.0.0/8")
	require.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = do(t, http.MethodGet, server.URL+"/ranges", "", "")
	require.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = do(t, http.MethodPost, server.URL+"/clear", "", "")
	require.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, http.MethodGet, server.URL+"/contains/10.0.1.9", "", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, http.MethodGet, server.URL+"/nothing", "", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestAPIAuth(t *testing.T) {
	_, server := newTestAPI(t, "token")

	code, _ := do(t, http.MethodGet, server.URL+"/stats", "", "")
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, http.MethodGet, server.URL+"/stats", "wrong", "")
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, http.MethodGet, server.URL+"/stats", "token", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodGet, server.URL+"/stats", "tokens", "")
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, http.MethodGet, server.URL+"/debug/gc", "", "")
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, http.MethodGet, server.URL+"/debug/gc", "token", "")
	require.Equal(t, http.StatusNoContent, code)
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, statusOf(io.ErrUnexpectedEOF))
}
