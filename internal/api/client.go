package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/http"
	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/models"
)

// maxResponseBody bounds how much of a runner response is read.
const maxResponseBody = 1 << 20

// Client talks to the job runner's HTTP endpoints.
type Client struct {
	submitClient *retryablehttp.Client // single attempt
	pingClient   *retryablehttp.Client // bounded retries
	baseURL      string
	timeout      time.Duration
	logger       *logging.Logger
}

// PingResult describes a reachability check.
type PingResult struct {
	URL        string
	StatusCode int
	Latency    time.Duration
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("failed to create API client: %w", config.ErrMissingServerURL)
	}

	httpClient, err := http.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Submission is never retried: a failed submission needs a fresh attempt
	// from the user. The passthrough handler keeps non-2xx bodies readable.
	submit := retryablehttp.NewClient()
	submit.HTTPClient = httpClient.Client
	submit.RetryMax = 0
	submit.CheckRetry = func(ctx context.Context, _ *nethttp.Response, _ error) (bool, error) {
		return false, ctx.Err()
	}
	submit.ErrorHandler = retryablehttp.PassthroughErrorHandler
	submit.Logger = logger.Leveled()

	ping := retryablehttp.NewClient()
	ping.HTTPClient = httpClient.Client
	ping.RetryMax = constants.PingRetryMax
	ping.RetryWaitMin = constants.PingRetryWaitMin
	ping.RetryWaitMax = constants.PingRetryWaitMax
	ping.Logger = logger.Leveled()

	return &Client{
		submitClient: submit,
		pingClient:   ping,
		baseURL:      baseURL,
		timeout:      httpClient.RequestTimeout,
		logger:       logger,
	}, nil
}

// BaseURL returns the runner base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitRun creates a job on the runner and returns its id.
// Exactly one request is sent. Every failure is a *SubmissionError.
func (c *Client) SubmitRun(ctx context.Context, params models.AnalysisParameters) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", &SubmissionError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + constants.RunPath
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, url, body)
	if err != nil {
		return "", &SubmissionError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.submitClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.logger.Error().Err(err).Str("url", url).Msg("Submission request failed")
		return "", &SubmissionError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().
		Int("status_code", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Submission response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp models.ErrorResponse
		// A body that is not JSON leaves Detail empty and the fallback applies.
		_ = json.Unmarshal(data, &errResp)
		detail, _ := errResp.DetailString()
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var runResp models.RunResponse
	if err := json.Unmarshal(data, &runResp); err != nil {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	jobID := strings.TrimSpace(runResp.JobID)
	if jobID == "" {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Err: ErrMissingJobID}
	}

	c.logger.Info().Str("job_id", jobID).Msg("Job submitted")
	return jobID, nil
}

// Ping checks that the runner answers HTTP at all. Connection failures and
// 5xx responses are retried a few times.
func (c *Client) Ping(ctx context.Context) (*PingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + constants.PingPath
	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.pingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runner unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	return &PingResult{
		URL:        url,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}, nil
}
