// Package ipinfo looks up IP address details on ipinfo.io.
package ipinfo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://ipinfo.io"

// ErrInvalidIP is returned for input that is not an IP address and for
// addresses ipinfo.io does not know or reports as bogon.
var ErrInvalidIP = errors.New("invalid IP address")

type (
	Info struct {
		IP       string `json:"ip"`
		Hostname string `json:"hostname"`
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
		Org      string `json:"org"`
		Bogon    bool   `json:"bogon"`
	}

	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
	}

	Option func(*Client)
)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client. An empty token uses the anonymous rate limit.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Lookup(ctx context.Context, ip string) (Info, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return Info{}, errors.Wrapf(ErrInvalidIP, "%q", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+url.PathEscape(addr.String())+"/json", nil)
	if err != nil {
		return Info{}, errors.Wrap(err, "create ipinfo request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Info{}, errors.Wrap(err, "ipinfo request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Info{}, errors.Wrapf(ErrInvalidIP, "%s not found", addr)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Info{}, errors.Errorf("ipinfo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Info{}, errors.Wrap(err, "decode ipinfo response")
	}
	if info.Bogon {
		return Info{}, errors.Wrapf(ErrInvalidIP, "%s is a bogon address", addr)
	}
	return info, nil
}
