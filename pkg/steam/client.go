package steam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
)

// Endpoint labels used in logs and metrics
const (
	endpointReviews    = "appreviews"
	endpointAppDetails = "appdetails"
)

// Client represents a Steam store API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new Steam store client. A zero cfg.Timeout keeps the
// transport default, so a stalled request blocks its caller.
func NewClient(cfg config.SteamConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	headers := map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: headers,
		baseURL: baseURL,
		logger:  log,
	}
}

// SetMetrics attaches Prometheus collectors to the client
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// SetTransport replaces the HTTP transport
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the store base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target.
// An empty or null body is reported as a rate limit error: the store answers
// that way when it throttles a client.
func (c *Client) GetJSON(ctx context.Context, endpoint, url string, target interface{}) error {
	start := time.Now()
	err := c.getJSON(ctx, url, target)
	c.metrics.ObserveRequest(endpoint, resultLabel(err), time.Since(start))
	return err
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		c.logger.WarnWithFields("empty response body", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "empty response body",
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		bodyPreview := string(trimmed)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps every non-2xx status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// FetchSummary fetches the cumulative review statistics of appID as of asOf.
func (c *Client) FetchSummary(ctx context.Context, appID uint32, asOf time.Time) (*models.Snapshot, error) {
	url := GetReviewsURL(c.baseURL, appID, asOf)

	var response ReviewsResponse
	if err := c.GetJSON(ctx, endpointReviews, url, &response); err != nil {
		return nil, err
	}

	if response.Success != 1 {
		c.logger.WarnWithFields("review summary not successful", map[string]interface{}{
			"app_id":  appID,
			"success": response.Success,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("unexpected success flag %d", response.Success),
			Code:    http.StatusOK,
		}
	}
	if response.QuerySummary == nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "response has no query_summary",
			Code:    http.StatusOK,
		}
	}

	snap := response.QuerySummary.Snapshot()
	return &snap, nil
}

// FetchAppDetails fetches the store details entry of appID. An entry with
// Success false is returned as is; callers decide what it means.
func (c *Client) FetchAppDetails(ctx context.Context, appID uint32) (*AppDetailsEntry, error) {
	url := GetAppDetailsURL(c.baseURL, appID)

	var response map[string]AppDetailsEntry
	if err := c.GetJSON(ctx, endpointAppDetails, url, &response); err != nil {
		return nil, err
	}

	entry, ok := response[fmt.Sprint(appID)]
	if !ok {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("response has no entry for app %d", appID),
			Code:    http.StatusOK,
		}
	}

	return &entry, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(errs.TypeOf(err))
}
