// Package toxiproxy is a thin client for the toxiproxy control-plane HTTP API.
//
// Every method issues exactly one request and never retries. Failures, both
// transport errors and unexpected status codes, are reported as *ApiError.
package toxiproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	UserAgent string

	endpoint string
	http     *http.Client
}

// NewClient creates a client for the control plane at endpoint. A missing
// scheme defaults to http.
func NewClient(endpoint string) *Client {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{},
	}
}

// SetTimeout bounds every request, including reading the response body.
// Zero means no timeout.
func (client *Client) SetTimeout(timeout time.Duration) {
	client.http.Timeout = timeout
}

func (client *Client) Endpoint() string {
	return client.endpoint
}

// Version returns the version string reported by the control plane.
func (client *Client) Version(ctx context.Context) (string, error) {
	resp, err := client.request(ctx, "Version", http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "Version"); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError("Version", err)
	}

	// Older servers answer with plain text.
	var version struct {
		Version string `json:"version"`
	}
	if json.Unmarshal(body, &version) == nil && version.Version != "" {
		return version.Version, nil
	}
	return strings.TrimSpace(string(body)), nil
}

// Proxies returns every proxy known to the control plane keyed by name.
func (client *Client) Proxies(ctx context.Context) (map[string]*Proxy, error) {
	resp, err := client.request(ctx, "Proxies", http.MethodGet, "/proxies", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "Proxies"); err != nil {
		return nil, err
	}

	proxies := make(map[string]*Proxy)
	if err := decode(resp, &proxies, "Proxies"); err != nil {
		return nil, err
	}
	return proxies, nil
}

// SetProxyEnabled flips the enabled flag of a proxy. A disabled proxy drops
// every connection and refuses new ones.
func (client *Client) SetProxyEnabled(ctx context.Context, proxy string, enabled bool) (*Proxy, error) {
	body := map[string]bool{"enabled": enabled}
	resp, err := client.request(ctx, "SetProxyEnabled", http.MethodPost, proxyPath(proxy), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkError(resp, http.StatusOK, "SetProxyEnabled"); err != nil {
		return nil, err
	}

	result := new(Proxy)
	if err := decode(resp, result, "SetProxyEnabled"); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *Client) request(
	ctx context.Context,
	caller, method, path string,
	body interface{},
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, transportError(caller, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, client.endpoint+path, reader)
	if err != nil {
		return nil, transportError(caller, err)
	}
	if client.UserAgent != "" {
		req.Header.Set("User-Agent", client.UserAgent)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, transportError(caller, err)
	}
	return resp, nil
}

func decode(resp *http.Response, v interface{}, caller string) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return transportError(caller, err)
	}
	return nil
}

func proxyPath(proxy string) string {
	return "/proxies/" + url.PathEscape(proxy)
}

func toxicsPath(proxy string) string {
	return proxyPath(proxy) + "/toxics"
}

func toxicPath(proxy, toxic string) string {
	return toxicsPath(proxy) + "/" + url.PathEscape(toxic)
}
