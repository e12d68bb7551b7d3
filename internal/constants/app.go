package constants

import (
	"time"
)

// Job runner endpoints
const (
	// RunPath is the job-creation endpoint (POST, JSON body).
	RunPath = "/api/run"

	// LogStreamPathPrefix is the per-job event channel; the job id is appended.
	LogStreamPathPrefix = "/ws/logs/"

	// PingPath is fetched by `msccat ping` to check that the runner answers at all.
	PingPath = "/"
)

// Default client settings
const (
	// DefaultServerURL matches the runner's default listen address.
	DefaultServerURL = "http://localhost:8000"

	// DefaultProxyMode disables proxying unless configured.
	DefaultProxyMode = "no-proxy"

	// DefaultProxyPort is used when proxy.host is set without proxy.port.
	DefaultProxyPort = 8080

	// ConfigDirName is the directory under ~/.config holding config.yaml and history.db.
	ConfigDirName = "msccat"

	// ConfigFileName is the config file base name (YAML).
	ConfigFileName = "config"

	// HistoryFileName is the SQLite database file for run history.
	HistoryFileName = "history.db"

	// EnvPrefix is the environment variable prefix read by viper (MSCCAT_SERVER_URL, ...).
	EnvPrefix = "MSCCAT"
)

// HTTP timeouts
const (
	// HTTPDialTimeout - TCP connect timeout for both the submission request and the stream.
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - TCP keepalive interval.
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long an idle pooled connection is kept.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - TLS handshake timeout.
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - wait for 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second

	// DefaultRequestTimeout bounds the submission exchange. The stream has no
	// overall timeout: it suspends indefinitely between messages.
	DefaultRequestTimeout = 60 * time.Second
)

// Ping retry configuration. Submission never retries.
const (
	PingRetryMax     = 3
	PingRetryWaitMin = 500 * time.Millisecond
	PingRetryWaitMax = 5 * time.Second
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - per-subscriber channel buffer.
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - upper bound for a requested buffer size.
	EventBusMaxBuffer = 10000
)

// History
const (
	// DefaultHistoryLimit is the number of rows `msccat history` shows.
	DefaultHistoryLimit = 20
)
