package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
)

const maxResponseBytes = 16 << 20

var _ ports.Requester = (*Client)(nil)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Client is the request gateway to the backend API. It attaches the bearer
// token of the bound session and turns every failure into one of
// domain.ErrNetwork or *domain.HTTPError.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	log       *slog.Logger
	metrics   *Metrics

	mu      sync.RWMutex
	session ports.SessionCredentials
}

func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("backend base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("backend base url must use http or https")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "compass"
	}

	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		http:      httpClient,
		userAgent: userAgent,
		log:       log,
		metrics:   opts.Metrics,
	}, nil
}

// BindSession connects the gateway to the session whose token it sends and
// which it logs out on 401. The session is built after the gateway, so this
// happens once during wiring.
func (c *Client) BindSession(session ports.SessionCredentials) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = session
}

func (c *Client) boundSession() ports.SessionCredentials {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session
}

func (c *Client) URL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) Request(ctx context.Context, req ports.Request) (*ports.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Data != nil {
		encoded, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, req.Endpoint, err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", method, req.Endpoint, err)
	}

	session := c.boundSession()
	token := ""
	if session != nil {
		token = session.Token()
	}
	if token != "" {
		// A logged in call carries only the bearer header.
		httpReq.Header = http.Header{}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	} else if req.Headers != nil {
		httpReq.Header = req.Headers.Clone()
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.observe(method, "error", time.Since(started))
		c.log.Error("no response from server", "method", method, "endpoint", req.Endpoint, "error", err)
		return nil, fmt.Errorf("%s %s: %w: %w", method, req.Endpoint, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.observe(method, fmt.Sprint(resp.StatusCode), time.Since(started))
	if err != nil {
		c.log.Error("read response", "method", method, "endpoint", req.Endpoint, "error", err)
		return nil, fmt.Errorf("%s %s: %w: read response: %w", method, req.Endpoint, domain.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &domain.HTTPError{Status: resp.StatusCode, Body: payload}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.log.Warn("unauthorized, logging out", "endpoint", req.Endpoint)
			if logoutErr := session.Logout(ctx, true); logoutErr != nil {
				c.log.Error("forced logout", "error", logoutErr)
			}
		}
		return nil, fmt.Errorf("%s %s: %w", method, req.Endpoint, httpErr)
	}

	c.log.Debug("request completed", "method", method, "endpoint", req.Endpoint, "status", resp.StatusCode)
	return &ports.Response{Status: resp.StatusCode, Header: resp.Header, Body: payload}, nil
}
