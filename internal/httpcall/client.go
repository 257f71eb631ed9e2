// Package httpcall is the HTTP execution primitive for pipeline steps.
// It owns request building, auth header construction, retries, circuit
// breaking, and wire-format parsing (JSON and XML).
package httpcall

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clbanning/mxj/v2"
	"github.com/sony/gobreaker"

	"service-orchestrator/internal/common/errors"
	"service-orchestrator/internal/common/logging"
	"service-orchestrator/internal/common/utils"
	"service-orchestrator/internal/services"
)

// Request describes one outbound service call.
type Request struct {
	Service     string
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        interface{} // JSON-marshaled when non-nil
	Auth        *services.AuthConfig
	Timeout     time.Duration
	Format      string // json (default), xml, text
	Retry       *utils.RetryConfig
}

// Client executes requests against backend services.
type Client struct {
	httpClient *http.Client
	breakers   *breakerManager
	retry      utils.RetryConfig
	logger     logging.Logger
}

// NewClient creates a client with the given options.
func NewClient(opts ...ClientOption) *Client {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := logging.GetGlobalLogger()

	return &Client{
		httpClient: newHTTPClient(cfg),
		breakers:   newBreakerManager(logger),
		retry:      utils.DefaultRetryConfig(),
		logger:     logger,
	}
}

// Do executes a request and returns the parsed response body. Transport
// failures, open breakers and non-2xx statuses come back as errors; the
// caller decides how to fold them into its own bookkeeping.
func (c *Client) Do(ctx context.Context, req *Request) (interface{}, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	retryConfig := c.retry
	if req.Retry != nil {
		retryConfig = *req.Retry
	}
	retryConfig.RetryableErrors = isRetryableError

	var result interface{}

	err := utils.RetryWithBackoff(ctx, retryConfig, func() error {
		var reqErr error
		result, reqErr = c.execute(ctx, req)
		return reqErr
	})

	return result, err
}

// execute performs one request attempt through the service's breaker.
func (c *Client) execute(ctx context.Context, req *Request) (interface{}, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Service == "" {
		return c.roundTrip(httpReq, req)
	}

	// The whole round trip runs inside the breaker so non-2xx statuses
	// count against the service's health, not just transport failures.
	cb := c.breakers.get(req.Service)
	result, err := cb.Execute(func() (interface{}, error) {
		return c.roundTrip(httpReq, req)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.ConnectionError(fmt.Sprintf("circuit breaker open for service %s", req.Service), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// roundTrip performs the HTTP exchange and classifies the response:
// 2xx parses per the declared format, 5xx/429/408 are retryable
// internal errors, other statuses are validation errors.
func (c *Client) roundTrip(httpReq *http.Request, req *Request) (interface{}, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.ConnectionError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.InternalError("failed to read response body", err)
	}

	c.logger.Debug("service call completed",
		logging.String("service", req.Service),
		logging.String("method", req.Method),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return c.parseBody(body, req.Format)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
		return nil, errors.InternalError(fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.Service), nil)
	}

	return nil, errors.ValidationError(fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, req.Service, string(body)))
}

// buildRequest assembles the http.Request with query params, body,
// headers and auth.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	reqURL := req.URL
	if len(req.QueryParams) > 0 {
		u, err := url.Parse(reqURL)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("invalid URL %q: %v", reqURL, err))
		}

		q := u.Query()
		for key, value := range req.QueryParams {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("cannot marshal request body: %v", err))
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, bodyReader)
	if err != nil {
		return nil, errors.InternalError("failed to create request", err)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if bodyReader != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.Auth != nil {
		if err := applyAuth(httpReq, req.Auth); err != nil {
			return nil, err
		}
	}

	return httpReq, nil
}

// applyAuth sets the auth headers described by the service descriptor.
func applyAuth(req *http.Request, auth *services.AuthConfig) error {
	switch auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "basic":
		credentials := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		req.Header.Set("Authorization", "Basic "+credentials)
	case "api_key":
		headerName := auth.Header
		if headerName == "" {
			headerName = "X-API-Key"
		}
		req.Header.Set(headerName, auth.Key)
	case "header":
		req.Header.Set(auth.Header, auth.Value)
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported auth type: %s", auth.Type))
	}
	return nil
}

// parseBody decodes the response per the expected wire format. XML
// documents become nested maps (which is what the transform engine's
// wrapper-key fallback is built for).
func (c *Client) parseBody(body []byte, format string) (interface{}, error) {
	if len(body) == 0 {
		return nil, nil
	}

	switch format {
	case "xml":
		xmlMap, err := mxj.NewMapXml(body)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("failed to parse XML response: %v", err))
		}
		return map[string]interface{}(xmlMap), nil
	case "text":
		return string(body), nil
	default:
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			// Services that declare json but return plain text still
			// produce a usable value.
			return string(body), nil
		}
		return parsed, nil
	}
}

// isRetryableError retries connection and server-side errors, never
// client-side ones.
func isRetryableError(err error) bool {
	switch errors.GetType(err) {
	case errors.ErrTypeConnection, errors.ErrTypeInternal, errors.ErrTypeTimeout:
		return true
	}
	return false
}
