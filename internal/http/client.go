// Package http builds the HTTP clients used to talk to the job runner.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"time"

	"golang.org/x/net/http2"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/logging"
)

// Client is a configured HTTP client together with its request timeout.
type Client struct {
	*nethttp.Client
	RequestTimeout time.Duration // per-request bound applied by callers
}

// NewClient creates the HTTP client for runner requests with proxy support.
//
// HTTP/2 is negotiated over TLS unless a proxy is active or DISABLE_HTTP2=true;
// FORCE_HTTP2=true keeps it on behind a proxy.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	base, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	out := &Client{Client: base, RequestTimeout: requestTimeout(cfg)}

	tr, ok := base.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a negotiator; leave it as configured.
		return out, nil
	}

	tr.ForceAttemptHTTP2 = true
	if err := http2.ConfigureTransport(tr); err != nil {
		logger.Debug().Err(err).Msg("HTTP/2 not configured")
	}

	disable := os.Getenv("DISABLE_HTTP2") == "true"
	if cfg.ProxyActive() && os.Getenv("FORCE_HTTP2") != "true" {
		disable = true
	}
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return out, nil
}
