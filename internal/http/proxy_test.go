package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/logging"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", logging.Nop())

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com", logging.Nop())

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com", logging.Nop())

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// A bare domain also matches its subdomains
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8", logging.Nop())

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8", logging.Nop())

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://runner.example.org/api/run", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for runner.example.org, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", logging.Nop())

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://runner.example.org/api/run", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	tests := []struct {
		name     string
		proxy    config.ProxyConfig
		wantHost string
		wantUser bool
	}{
		{"default port", config.ProxyConfig{Host: "proxy.corp"}, "proxy.corp:8080", false},
		{"explicit port", config.ProxyConfig{Host: "proxy.corp", Port: 3128}, "proxy.corp:3128", false},
		{"user without password", config.ProxyConfig{Host: "proxy.corp", User: "u"}, "proxy.corp:8080", false},
		{"full credentials", config.ProxyConfig{Host: "proxy.corp", User: "u", Password: "p"}, "proxy.corp:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildProxyURL(&config.Config{Proxy: tt.proxy})
			if got.Host != tt.wantHost {
				t.Errorf("buildProxyURL().Host = %s, want %s", got.Host, tt.wantHost)
			}
			if (got.User != nil) != tt.wantUser {
				t.Errorf("buildProxyURL().User = %v, want set=%v", got.User, tt.wantUser)
			}
		})
	}
}

func TestConfigureHTTPClient_Modes(t *testing.T) {
	tests := []struct {
		name      string
		proxy     config.ProxyConfig
		wantProxy bool
		wantErr   bool
	}{
		{"no proxy", config.ProxyConfig{Mode: config.ProxyNone}, false, false},
		{"basic", config.ProxyConfig{Mode: config.ProxyBasic, Host: "proxy.corp"}, true, false},
		{"basic without host", config.ProxyConfig{Mode: config.ProxyBasic}, false, false},
		{"unsupported", config.ProxyConfig{Mode: "socks"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := ConfigureHTTPClient(&config.Config{Proxy: tt.proxy}, logging.Nop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tr, ok := client.Transport.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", client.Transport)
			}
			if (tr.Proxy != nil) != tt.wantProxy {
				t.Errorf("transport proxy set = %v, want %v", tr.Proxy != nil, tt.wantProxy)
			}
		})
	}
}

func TestConfigureHTTPClient_NTLMWrapsTransport(t *testing.T) {
	cfg := &config.Config{Proxy: config.ProxyConfig{Mode: config.ProxyNTLM, Host: "proxy.corp", User: "u", Password: "p"}}
	client, err := ConfigureHTTPClient(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := client.Transport.(*http.Transport); ok {
		t.Error("expected NTLM negotiator around the transport")
	}
}

func TestNewClient_DisablesHTTP2BehindProxy(t *testing.T) {
	cfg := &config.Config{Proxy: config.ProxyConfig{Mode: config.ProxyBasic, Host: "proxy.corp"}}
	client, err := NewClient(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := client.Transport.(*http.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("expected HTTP/2 disabled behind proxy")
	}
	if client.RequestTimeout <= 0 {
		t.Errorf("RequestTimeout = %v, want default request timeout", client.RequestTimeout)
	}
}
