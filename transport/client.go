// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/fault"
)

// request headers
const (
	RequestIDHeader = "X-Request-ID"
	TokenHeader     = "X-CSRF-Token"
)

// defaults
const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10.0 // requests per second
	DefaultRateBurst = 20
)

// some servers report a stale token as 419
const statusTokenExpired = 419

// longest error body kept in a message
const maximumMessage = 200

// Options - client parameters, zero values select the defaults
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client - Transport over HTTP with JSON bodies
type Client struct {
	log     *logger.L
	base    *url.URL
	timeout time.Duration
	limiter *rate.Limiter
	tokens  TokenSource
	http    *http.Client
}

// NewClient - create a client for the service at options.BaseURL
func NewClient(log *logger.L, options Options) (*Client, error) {
	base, err := url.Parse(options.BaseURL)
	if nil != err || "" == base.Scheme || "" == base.Host {
		return nil, fault.ErrInvalidBaseURL
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.RateLimit <= 0 {
		options.RateLimit = DefaultRateLimit
	}
	if options.RateBurst <= 0 {
		options.RateBurst = DefaultRateBurst
	}
	if nil == options.Tokens {
		options.Tokens = NewSessionTokens(0)
	}
	if nil == options.HTTPClient {
		options.HTTPClient = &http.Client{}
	}

	return &Client{
		log:     log,
		base:    base,
		timeout: options.Timeout,
		limiter: rate.NewLimiter(rate.Limit(options.RateLimit), options.RateBurst),
		tokens:  options.Tokens,
		http:    options.HTTPClient,
	}, nil
}

// Get - fetch a resource
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post - create a resource
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put - replace a resource
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch - modify part of a resource
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete - remove a resource
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}) (*Response, error) {
	var payload []byte
	if nil != body {
		var err error
		payload, err = json.Marshal(body)
		if nil != err {
			return nil, fault.NewRemoteError(fault.Validation, 0, "encode request body", err)
		}
	}

	// paths are always relative to the base, including any base path
	target, err := url.Parse(strings.TrimSuffix(c.base.String(), "/") + "/" + strings.TrimPrefix(path, "/"))
	if nil != err {
		return nil, fault.NewRemoteError(fault.Validation, 0, "invalid path: "+path, err)
	}

	mutating := http.MethodGet != method && http.MethodHead != method

	// one retry after the server rejects the token
	for attempt := 0; ; attempt += 1 {
		status, data, err := c.send(ctx, method, target.String(), payload, mutating)
		if nil != err {
			c.log.Warnf("%s %s: %s", method, path, err)
			return nil, err
		}

		if status >= 200 && status <= 299 {
			return &Response{Status: status, Data: data}, nil
		}

		if mutating && 0 == attempt && tokenRejected(status, data) {
			c.log.Infof("%s %s: token rejected, retrying", method, path)
			c.tokens.Invalidate()
			continue
		}

		e := fault.NewRemoteError(fault.KindForStatus(status), status, message(data), nil)
		c.log.Debugf("%s %s: %s", method, path, e)
		return nil, e
	}
}

// one round trip; err is only set when no status was received
func (c *Client) send(ctx context.Context, method string, target string, payload []byte, mutating bool) (int, json.RawMessage, error) {
	err := limit(ctx, c.limiter)
	if nil != err {
		return 0, nil, fault.NewRemoteError(fault.KindOf(err), 0, "rate limit", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if nil != payload {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, target, reader)
	if nil != err {
		return 0, nil, fault.NewRemoteError(fault.Validation, 0, "create request", err)
	}

	request.Header.Set("Accept", "application/json")
	if nil != payload {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set(RequestIDHeader, uuid.New().String())
	if mutating {
		token, err := c.tokens.Token()
		if nil != err {
			return 0, nil, fault.NewRemoteError(fault.Unknown, 0, "session token", err)
		}
		request.Header.Set(TokenHeader, token)
	}

	response, err := c.http.Do(request)
	if nil != err {
		return 0, nil, fault.NewRemoteError(classify(err), 0, "", err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if nil != err {
		return 0, nil, fault.NewRemoteError(fault.Network, response.StatusCode, "read response", err)
	}
	return response.StatusCode, data, nil
}

// anything failing before a status arrives is a connectivity problem
// unless the caller cancelled
func classify(err error) fault.Kind {
	if errors.Is(err, context.Canceled) {
		return fault.Unknown
	}
	return fault.Network
}

func tokenRejected(status int, data []byte) bool {
	switch status {
	case statusTokenExpired:
		return true
	case http.StatusForbidden:
		return bytes.Contains(bytes.ToLower(data), []byte("csrf")) ||
			bytes.Contains(bytes.ToLower(data), []byte("token"))
	default:
		return false
	}
}

// best effort human readable text from an error body
func message(data []byte) string {
	body := struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{}
	if err := json.Unmarshal(data, &body); nil == err {
		if "" != body.Message {
			return body.Message
		}
		if "" != body.Error {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maximumMessage {
		// never split a rune
		cut := maximumMessage
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut -= 1
		}
		text = text[:cut]
	}
	if "" == text {
		return "empty response"
	}
	return text
}
