// Copyright 2026 The ESSnoop Authors
// This file is part of ESSnoop.
//
// ESSnoop is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ESSnoop is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ESSnoop. If not, see <http://www.gnu.org/licenses/>.

// Package etherscan downloads contract runtime bytecode through the
// Etherscan proxy API.
package etherscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/time/rate"
)

var (
	ErrFetch          = errors.New("fetch error")
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", ErrFetch)
	ErrNoCode         = fmt.Errorf("%w: no code at address", ErrFetch)
	ErrNoResponse     = fmt.Errorf("%w: no response", ErrFetch)
	ErrRateLimited    = fmt.Errorf("%w: rate limited", ErrFetch)
	ErrTooLarge       = fmt.Errorf("%w: response too large", ErrFetch)
)

const (
	DefaultURL             = "https://api.etherscan.io/api"
	DefaultTimeout         = 30 * time.Second
	DefaultRetryBackOff    = 2 * time.Second
	DefaultMaxRetries      = 5
	DefaultMaxResponseSize = 4 * datasize.MB
)

// DefaultRateLimit is the free tier allowance: 3 requests every 2 seconds.
var DefaultRateLimit = rate.Every(2 * time.Second / 3)

const DefaultRateBurst = 3

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// response covers both shapes the proxy module answers with: a JSON-RPC
// envelope on success or RPC failure, and {status,message,result} when the
// API itself rejects the call.
type response struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Result  string    `json:"result"`
	Error   *rpcError `json:"error"`
}

type Client struct {
	url             string
	apiKey          string
	logger          log.Logger
	handler         httpRequestHandler
	limiter         *rate.Limiter
	retryBackOff    time.Duration
	maxRetries      uint64
	timeout         time.Duration
	maxResponseSize datasize.ByteSize
}

type Option func(*Client)

func WithHttpRequestHandler(handler httpRequestHandler) Option {
	return func(c *Client) { c.handler = handler }
}

func WithRetryBackOff(retryBackOff time.Duration) Option {
	return func(c *Client) { c.retryBackOff = retryBackOff }
}

func WithMaxRetries(maxRetries uint64) Option {
	return func(c *Client) { c.maxRetries = maxRetries }
}

// WithRateLimit replaces the limiter shared by every FetchCode call.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithTimeout bounds a single HTTP attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func WithMaxResponseSize(size datasize.ByteSize) Option {
	return func(c *Client) { c.maxResponseSize = size }
}

func NewClient(urlString, apiKey string, logger log.Logger, opts ...Option) *Client {
	c := &Client{
		url:             urlString,
		apiKey:          apiKey,
		logger:          logger,
		handler:         &http.Client{},
		limiter:         rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		retryBackOff:    DefaultRetryBackOff,
		maxRetries:      DefaultMaxRetries,
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseAddress validates a hex address as read from the input list.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// FetchCode returns the runtime bytecode deployed at addr. Transport
// failures, HTTP 429/5xx and rate limit answers are retried; every other
// failure is returned at once. All errors wrap ErrFetch.
func (c *Client) FetchCode(ctx context.Context, addr common.Address) ([]byte, error) {
	attempt := 0
	code, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		code, retry, err := c.fetchOnce(ctx, addr)
		if err == nil {
			return code, nil
		}
		if !retry {
			return nil, backoff.Permanent(err)
		}
		c.logger.Debug("[etherscan] retrying eth_getCode", "address", addr, "attempt", attempt, "err", err)
		return nil, err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryBackOff), c.maxRetries), ctx))
	if err != nil {
		if !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return nil, err
	}
	return code, nil
}

func (c *Client) requestURL(addr common.Address) string {
	q := url.Values{}
	q.Set("module", "proxy")
	q.Set("action", "eth_getCode")
	q.Set("address", addr.Hex())
	q.Set("tag", "latest")
	q.Set("apikey", c.apiKey)
	return c.url + "?" + q.Encode()
}

func (c *Client) fetchOnce(ctx context.Context, addr common.Address) (code []byte, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(addr), nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	resp, err := c.handler.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	limit := int64(c.maxResponseSize.Bytes())
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if int64(len(body)) > limit {
		return nil, false, fmt.Errorf("%w: more than %v", ErrTooLarge, c.maxResponseSize)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: http status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("%w: http status %d", ErrFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: http status %d", ErrFetch, resp.StatusCode)
	}

	return decodeResponse(body)
}

func decodeResponse(body []byte) (code []byte, retry bool, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false, ErrNoResponse
	}

	var r response
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &r); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %w", ErrFetch, err)
	}
	if r.Error != nil {
		return nil, false, fmt.Errorf("%w: rpc error %d: %s", ErrFetch, r.Error.Code, r.Error.Message)
	}
	// the proxy module also reports throttling as a plain string result
	if strings.Contains(strings.ToLower(r.Result), "rate limit") {
		return nil, true, fmt.Errorf("%w: %s", ErrRateLimited, r.Result)
	}
	if r.Status == "0" {
		return nil, false, fmt.Errorf("%w: %s: %s", ErrFetch, r.Message, r.Result)
	}

	switch r.Result {
	case "":
		return nil, false, ErrNoResponse
	case "0x":
		return nil, false, ErrNoCode
	}

	code, err = hexutil.Decode(r.Result)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad bytecode hex: %w", ErrFetch, err)
	}
	return code, false, nil
}

func (c *Client) Close() {
	c.handler.CloseIdleConnections()
}
