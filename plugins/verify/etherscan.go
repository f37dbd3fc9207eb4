// Copyright 2025 The contractkit Authors
// This file is part of the contractkit library.
//
// The contractkit library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The contractkit library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the contractkit library. If not, see <http://www.gnu.org/licenses/>.

package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

var (
	// ErrVerificationFailed is returned when the explorer rejects a submission.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrUnknownResponse is returned for replies that cannot be decoded.
	ErrUnknownResponse = errors.New("unexpected response from explorer API")
)

const (
	statusPending         = "Pending in queue"
	statusPass            = "Pass - Verified"
	statusAlreadyVerified = "Already Verified"
	resultAlreadyVerified = "Contract source code already verified"
)

// ClientConfig tunes an explorer client.
type ClientConfig struct {
	APIURL            string
	APIKey            string
	RequestsPerSecond float64           // Etherscan free tier allows 5
	RetryMax          int               // retries on 5xx and connection errors
	RetryWait         time.Duration     // minimum backoff between retries
	PollInterval      time.Duration     // checkverifystatus polling interval
	Transport         http.RoundTripper // optional, replaces the default transport
}

// Client talks to an Etherscan compatible contract verification API.
type Client struct {
	cfg     ClientConfig
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     log.Logger
}

// NewClient returns a client for cfg.APIURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid explorer API url: %w", err)
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	logger := log.New("api", cfg.APIURL)

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	if cfg.RetryWait > 0 {
		hc.RetryWaitMin = cfg.RetryWait
		hc.RetryWaitMax = 4 * cfg.RetryWait
	}
	hc.Logger = logger
	if cfg.Transport != nil {
		hc.HTTPClient.Transport = cfg.Transport
	}
	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:     logger,
	}, nil
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func (c *Client) do(ctx context.Context, method string, form url.Values) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	form.Set("apikey", c.cfg.APIKey)

	var (
		req *retryablehttp.Request
		err error
	)
	if method == http.MethodGet {
		req, err = retryablehttp.NewRequestWithContext(ctx, method, c.cfg.APIURL+"?"+form.Encode(), nil)
	} else {
		req, err = retryablehttp.NewRequestWithContext(ctx, method, c.cfg.APIURL, []byte(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d: %s", ErrUnknownResponse, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownResponse, err)
	}
	return &out, nil
}

// Submission is a verifysourcecode request.
type Submission struct {
	Address         common.Address
	ContractName    string // "path:Name"
	CompilerVersion string // "v0.8.15+commit.e14f2714"
	StandardInput   []byte
	ConstructorArgs string // hex without 0x
}

// Submit uploads the source and returns the explorer's job id. The boolean
// is true when the explorer reports the contract as already verified.
func (c *Client) Submit(ctx context.Context, s *Submission) (string, bool, error) {
	form := url.Values{
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"contractaddress":       {s.Address.Hex()},
		"sourceCode":            {string(s.StandardInput)},
		"codeformat":            {"solidity-standard-json-input"},
		"contractname":          {s.ContractName},
		"compilerversion":       {s.CompilerVersion},
		"constructorArguements": {s.ConstructorArgs}, // sic, the API spells it this way
	}
	resp, err := c.do(ctx, http.MethodPost, form)
	if err != nil {
		return "", false, err
	}
	if resp.Status == "1" {
		return resp.Result, false, nil
	}
	if strings.Contains(resp.Result, resultAlreadyVerified) {
		return "", true, nil
	}
	return "", false, fmt.Errorf("%w: %s: %s", ErrVerificationFailed, resp.Message, resp.Result)
}

// Status returns the verification state of a job: done reports a final
// state, err a rejection.
func (c *Client) Status(ctx context.Context, guid string) (done bool, err error) {
	form := url.Values{
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	}
	resp, err := c.do(ctx, http.MethodGet, form)
	if err != nil {
		return false, err
	}
	switch {
	case resp.Result == statusPending:
		return false, nil
	case resp.Result == statusPass, resp.Result == statusAlreadyVerified:
		return true, nil
	case resp.Status == "0":
		return true, fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Result)
	}
	c.log.Debug("Unrecognised verification status", "guid", guid, "result", resp.Result)
	return false, nil
}

// Wait polls the job until it reaches a final state.
func (c *Client) Wait(ctx context.Context, guid string) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		done, err := c.Status(ctx, guid)
		if done || err != nil {
			return err
		}
		c.log.Trace("Verification pending", "guid", guid)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
