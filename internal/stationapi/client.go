// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package stationapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
	"github.com/tomtom215/stationlink/internal/models"
)

// Authorizer supplies bearer headers. *auth.SessionManager implements it.
type Authorizer interface {
	AuthorizationHeader(ctx context.Context) (string, error)
	RefreshAfterUnauthorized(ctx context.Context, rejected string) (string, error)
}

// Client talks to the station service.
type Client struct {
	baseURL    string
	auth       Authorizer
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit limits outbound requests to rps with the given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, authorizer Authorizer, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if authorizer == nil {
		return nil, errors.New("stationapi: authorizer is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       authorizer,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "stationlink",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one API call.
type request struct {
	endpoint string // metric label
	method   string
	path     string
	query    url.Values
	body     any
	resource string // named in NotFound errors
}

// do runs an authorized request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	err := c.doAuthorized(ctx, r, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		metrics.RecordAPIError(r.endpoint, apierror.KindOf(err).String())
	}
	return err
}

func (c *Client) doAuthorized(ctx context.Context, r request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return apierror.Wrap(apierror.KindUnavailable, err, "rate limiter")
		}
	}

	header, err := c.auth.AuthorizationHeader(ctx)
	if err != nil {
		return err
	}

	var payload []byte
	if r.body != nil {
		payload, err = json.Marshal(r.body)
		if err != nil {
			return apierror.Wrap(apierror.KindInvalid, err, "encode request body")
		}
	}

	resp, err := c.send(ctx, r, header, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drainAndClose(resp)
		metrics.APIUnauthorizedRetries.Inc()
		logging.Ctx(ctx).Debug().Str("endpoint", r.endpoint).Msg("401 from station API, refreshing token and retrying once")

		header, err = c.auth.RefreshAfterUnauthorized(ctx, header)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, r, header, payload)
		if err != nil {
			return err
		}
	}
	defer drainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp, r.resource)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apierror.Wrap(apierror.KindParse, err, "decode "+r.endpoint+" response")
	}
	return nil
}

// send performs one HTTP round trip and records its latency.
func (c *Client) send(ctx context.Context, r request, header string, payload []byte) (*http.Response, error) {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindInvalid, err, "build request")
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.GenerateRequestID()
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(r.endpoint, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apierror.Classify(err, r.method+" "+r.path)
	}
	metrics.RecordAPIRequest(r.endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	return resp, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// getEnvelope runs r and unwraps a {"success", "data"} body.
func getEnvelope[T any](ctx context.Context, c *Client, r request) (T, error) {
	var env models.Envelope[T]
	if err := c.do(ctx, r, &env); err != nil {
		var zero T
		return zero, err
	}
	if !env.Success {
		var zero T
		return zero, apierror.Rejected(env.Message())
	}
	return env.Data, nil
}
