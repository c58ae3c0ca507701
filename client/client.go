// Package client is a client for the greeting service.
package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

var (
	epHome  = &url.URL{Path: "/"}
	epHello = &url.URL{Path: "/hello"}
)

type Client struct {
	base *url.URL
	host string // Host header override
	cl   *http.Client
}

type Option func(*Client)

func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		c.cl = cl
	}
}

// WithHost sets the Host header of all requests, this is needed to reach a
// server running in the virtual host mode.
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = host
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{base: u, cl: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Home calls the root endpoint and returns the greeting.
func (c *Client) Home() (string, error) {
	return c.get(epHome)
}

// Hello calls the /hello endpoint and returns the greeting.
func (c *Client) Hello() (string, error) {
	return c.get(epHello)
}

func (c *Client) get(ep *url.URL) (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.base.ResolveReference(ep).String(), nil)
	if err != nil {
		return "", err
	}
	if c.host != "" {
		req.Host = c.host
	}
	return do(c.cl, req)
}

// do is a helper function that makes a request and returns the response
// body.
func do(cl *http.Client, r *http.Request) (string, error) {
	resp, err := cl.Do(r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s %s: %w: %d", r.Method, r.URL.Path, ErrUnexpectedStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
