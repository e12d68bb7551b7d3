// Package stream follows a job's live event channel on the runner.
package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/logging"
)

// ConnectionError means the event channel could not be opened or broke before
// a terminal status. The job's outcome is unknown.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("log stream connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Client opens event streams for jobs.
type Client struct {
	serverURL   *url.URL
	origin      string
	dialTimeout time.Duration
	logger      *logging.Logger
}

// NewClient creates a stream client for the runner at serverURL (http or https).
func NewClient(serverURL string, dialTimeout time.Duration, logger *logging.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}
	if dialTimeout <= 0 {
		dialTimeout = constants.HTTPDialTimeout
	}

	return &Client{
		serverURL:   u,
		origin:      u.Scheme + "://" + u.Host,
		dialTimeout: dialTimeout,
		logger:      logger,
	}, nil
}

// StreamURL returns the event channel URL for jobID. The secure page scheme
// maps to the secure stream scheme; the server's path prefix is kept.
func (c *Client) StreamURL(jobID string) string {
	u := *c.serverURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(c.serverURL.Path, "/") + constants.LogStreamPathPrefix + jobID
	u.RawPath = strings.TrimRight(c.serverURL.EscapedPath(), "/") + constants.LogStreamPathPrefix + url.PathEscape(jobID)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Open connects to the job's event channel. A dial failure is returned as a
// *ConnectionError. Cancelling ctx closes the stream; the consumer then sees
// a connection error event.
func (c *Client) Open(ctx context.Context, jobID string) (*Stream, error) {
	if jobID == "" {
		return nil, errors.New("job id is required")
	}

	wsURL := c.StreamURL(jobID)
	cfg, err := websocket.NewConfig(wsURL, c.origin)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	cfg.Dialer = &net.Dialer{Timeout: c.dialTimeout, KeepAlive: constants.HTTPDialKeepAlive}
	cfg.TlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, err := cfg.DialContext(dialCtx)
	if err != nil {
		c.logger.Error().Err(err).Str("job_id", jobID).Str("url", wsURL).Msg("Log stream dial failed")
		return nil, &ConnectionError{Err: err}
	}

	c.logger.Debug().Str("job_id", jobID).Str("url", wsURL).Msg("Log stream connected")
	return newStream(ctx, conn, jobID, c.logger), nil
}
