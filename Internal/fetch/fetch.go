// Package fetch wraps single outbound HTTP calls with a per-attempt timeout
// and bounded linear backoff. Every call returns a Result; nothing here
// returns an error to the caller.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

const ErrTimeout = "timeout"

// Result is the uniform envelope for one logical call, including retries.
type Result struct {
	OK       bool   `json:"ok"`
	Status   int    `json:"status"`
	MS       int64  `json:"ms"`
	Data     []byte `json:"-"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// Decode unmarshals the body into target.
func (r Result) Decode(target interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Data, target)
}

// SoftFailureFunc inspects a transport-successful body and reports whether it
// encodes an application-level failure, with a message.
type SoftFailureFunc func(body []byte) (bool, string)

type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

type Options struct {
	Retries     int
	Timeout     time.Duration
	BackoffBase time.Duration
	// JSON requires a parseable JSON body and runs SoftFailure on it.
	JSON        bool
	SoftFailure SoftFailureFunc
}

type RetryConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
	Timeout     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		BackoffBase: 400 * time.Millisecond,
		Timeout:     8 * time.Second,
	}
}

// JSONOptions builds JSON options from a retry config with the explorer-style
// soft failure check.
func (rc RetryConfig) JSONOptions() Options {
	return Options{
		Retries:     rc.MaxRetries,
		Timeout:     rc.Timeout,
		BackoffBase: rc.BackoffBase,
		JSON:        true,
		SoftFailure: ExplorerSoftFailure,
	}
}

type Client struct {
	HTTP      *http.Client
	UserAgent string

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(userAgent string) *Client {
	return &Client{
		HTTP:      NewHTTPClient(),
		UserAgent: userAgent,
	}
}

// NewHTTPClient returns a pooled client. Per-attempt deadlines come from the
// request context, so the client itself carries no timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// FetchResilient performs the call, retrying transport failures, timeouts,
// 429 and 5xx responses up to opts.Retries times with a backoff of
// BackoffBase*attempt between attempts. Soft failures and other HTTP errors
// are returned immediately.
func (c *Client) FetchResilient(ctx context.Context, url string, req RequestOptions, opts Options) Result {
	start := time.Now()
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	var res Result
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, opts.BackoffBase*time.Duration(attempt)); err != nil {
				res.Error = err.Error()
				break
			}
		}

		var retryable bool
		res, retryable = c.attempt(ctx, url, req, opts)
		res.Attempts = attempt + 1
		if res.OK || !retryable || ctx.Err() != nil {
			break
		}
	}

	res.MS = time.Since(start).Milliseconds()
	return res
}

// GetJSON is FetchResilient for a plain GET expecting JSON.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, opts Options) Result {
	opts.JSON = true
	return c.FetchResilient(ctx, url, RequestOptions{Method: http.MethodGet, Headers: headers}, opts)
}

func (c *Client) attempt(ctx context.Context, url string, ro RequestOptions, opts Options) (res Result, retryable bool) {
	attemptCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	method := ro.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if ro.Body != nil {
		body = bytes.NewReader(ro.Body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		return Result{Error: fmt.Sprintf("request creation error: %v", err)}, false
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if opts.JSON {
		req.Header.Set("Accept", "application/json")
	}
	for k, v := range ro.Headers {
		req.Header.Set(k, v)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Error: transportMessage(attemptCtx, ctx, err)}, ctx.Err() == nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Status: resp.StatusCode, Error: transportMessage(attemptCtx, ctx, err)}, ctx.Err() == nil
	}

	res = Result{Status: resp.StatusCode, Data: data}
	if resp.StatusCode >= 400 {
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return res, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	}

	if opts.JSON {
		if !json.Valid(data) {
			res.Error = "unparseable response body"
			return res, false
		}
		if opts.SoftFailure != nil {
			if failed, msg := opts.SoftFailure(data); failed {
				res.Error = msg
				return res, false
			}
		}
	}

	res.OK = true
	return res, false
}

func transportMessage(attemptCtx, parent context.Context, err error) string {
	if parent.Err() != nil {
		return fmt.Sprintf("canceled: %v", parent.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Sprintf("connection failed: %v", err)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExplorerSoftFailure detects the Etherscan-style envelope
// {"status":"0","message":"NOTOK","result":"<reason>"}.
func ExplorerSoftFailure(body []byte) (bool, string) {
	var env struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return false, ""
	}
	if env.Status != "0" || !strings.HasPrefix(strings.ToUpper(env.Message), "NOTOK") {
		return false, ""
	}

	reason := env.Message
	var detail string
	if err := json.Unmarshal(env.Result, &detail); err == nil && detail != "" {
		reason = fmt.Sprintf("%s: %s", env.Message, detail)
	}
	return true, reason
}
