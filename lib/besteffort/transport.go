// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package besteffort

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/bureau-foundation/fulcrum/lib/netutil"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/version"
)

// TransportConfig configures a Transport.
type TransportConfig struct {
	// HTTPClient issues the requests. Nil uses a client with default
	// connection pooling. Client-level timeouts are left alone;
	// Timeout is applied per request through the context.
	HTTPClient *http.Client

	// Token is sent as "Authorization: Bearer <token>".
	Token string

	// Timeout bounds each request. Zero or negative disables the
	// per-request bound (the caller's context still applies).
	Timeout time.Duration
}

// Transport issues single best-effort JSON requests. It is immutable
// and safe for concurrent use.
type Transport struct {
	httpClient *http.Client
	token      string
	timeout    time.Duration
	userAgent  string
}

// NewTransport creates a Transport.
func NewTransport(config TransportConfig) *Transport {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Transport{
		httpClient: httpClient,
		token:      config.Token,
		timeout:    config.Timeout,
		userAgent:  version.UserAgent(),
	}
}

// Timeout returns the per-request bound.
func (transport *Transport) Timeout() time.Duration {
	return transport.timeout
}

// Request describes one HTTP call.
type Request struct {
	Method string
	URL    string

	// Query is merged into the URL's existing query string.
	Query url.Values

	// Body is serialized as JSON when non-nil. A []byte body is sent
	// verbatim.
	Body any
}

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	Body       []byte
}

// DecodeJSON decodes the response body into v. An empty body is a
// KindDecode failure.
func (response Response) DecodeJSON(v any) error {
	if len(bytes.TrimSpace(response.Body)) == 0 {
		return &Failure{Kind: KindDecode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(response.Body, v); err != nil {
		return &Failure{Kind: KindDecode, Err: err}
	}
	return nil
}

// Do issues exactly one request and waits at most Timeout for the
// response. Non-2xx responses and every transport error are returned
// as *Failure. There is no retry.
func (transport *Transport) Do(ctx context.Context, request Request) (Response, error) {
	target, err := url.Parse(request.URL)
	if err != nil {
		return Response{}, &Failure{Kind: KindRequest, Err: err}
	}
	if len(request.Query) > 0 {
		query := target.Query()
		for key, values := range request.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if request.Body != nil {
		data, ok := request.Body.([]byte)
		if !ok {
			data, err = payload.Marshal(request.Body)
			if err != nil {
				return Response{}, &Failure{Kind: KindEncode, Err: err}
			}
		}
		body = bytes.NewReader(data)
	}

	requestContext := ctx
	if transport.timeout > 0 {
		var cancel context.CancelFunc
		requestContext, cancel = context.WithTimeout(ctx, transport.timeout)
		defer cancel()
	}

	httpRequest, err := http.NewRequestWithContext(requestContext, request.Method, target.String(), body)
	if err != nil {
		return Response{}, &Failure{Kind: KindRequest, Err: err}
	}
	if transport.token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+transport.token)
	}
	if body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("User-Agent", transport.userAgent)

	httpResponse, err := transport.httpClient.Do(httpRequest)
	if err != nil {
		return Response{}, classify(ctx, requestContext, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return Response{}, &Failure{
			Kind:       KindStatus,
			StatusCode: httpResponse.StatusCode,
			Body:       netutil.ErrorBody(httpResponse.Body),
		}
	}

	data, err := netutil.ReadResponse(httpResponse.Body)
	if err != nil {
		return Response{}, classify(ctx, requestContext, err)
	}
	return Response{StatusCode: httpResponse.StatusCode, Body: data}, nil
}

// classify maps a transport error to a FailureKind. parent is the
// caller's context and bounded the one carrying the request timeout.
func classify(parent, bounded context.Context, err error) *Failure {
	if parent.Err() != nil {
		if errors.Is(parent.Err(), context.DeadlineExceeded) {
			return &Failure{Kind: KindTimeout, Err: err}
		}
		return &Failure{Kind: KindCanceled, Err: err}
	}
	if errors.Is(bounded.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	var netError net.Error
	if errors.As(err, &netError) && netError.Timeout() {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	return &Failure{Kind: KindConnection, Err: err}
}
