package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/logging"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings.
// The client has no overall timeout; callers bound each request with a context.
func ConfigureHTTPClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	transport := newTransport(cfg)

	switch cfg.Proxy.Mode {
	case config.ProxyNone, "":
		transport.Proxy = nil

	case config.ProxySystem:
		transport.Proxy = nethttp.ProxyFromEnvironment

	case config.ProxyNTLM:
		// Fall back to a direct connection when the host is missing so that
		// commands which do not talk to the runner (config show) still work.
		if cfg.Proxy.Host == "" {
			logger.Warn().Msg("Proxy mode is ntlm but proxy.host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.Proxy.NoProxy, logger)
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
		}, nil

	case config.ProxyBasic:
		if cfg.Proxy.Host == "" {
			logger.Warn().Msg("Proxy mode is basic but proxy.host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.Proxy.NoProxy, logger)
		if cfg.Proxy.User != "" && cfg.Proxy.Password == "" {
			logger.Warn().Msg("Proxy user configured but password missing - proxy auth disabled")
		}

	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedProxyMode, cfg.Proxy.Mode)
	}

	return &nethttp.Client{Transport: transport}, nil
}

func newTransport(cfg *config.Config) *nethttp.Transport {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = constants.HTTPDialTimeout
	}

	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

// buildProxyURL constructs a proxy URL from config
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.Proxy.Port
	if port == 0 {
		port = constants.DefaultProxyPort
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cfg.Proxy.Host, fmt.Sprint(port)),
	}

	// Only embed credentials if both user AND password are provided.
	// An empty password in the URL makes some proxies reject the request.
	if cfg.Proxy.User != "" && cfg.Proxy.Password != "" {
		proxyURL.User = url.UserPassword(cfg.Proxy.User, cfg.Proxy.Password)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL.
// When noProxy is set, uses golang.org/x/net/http/httpproxy to match hosts/CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("Proxy bypass (direct connection)")
		} else {
			logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("Proxied")
		}
		return result, err
	}
}

// requestTimeout returns the configured submission timeout, or the default.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return constants.DefaultRequestTimeout
}
