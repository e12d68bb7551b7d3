// Package config provides configuration management for the msccat client.
//
// Values are resolved by viper in this order: command-line flags, MSCCAT_*
// environment variables, the YAML config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/params"
)

var (
	// ErrMissingServerURL is returned when server_url resolves to an empty string.
	ErrMissingServerURL = errors.New("server_url is required")

	// ErrUnsupportedProxyMode is returned for a proxy.mode outside no-proxy|system|basic|ntlm.
	ErrUnsupportedProxyMode = errors.New("unsupported proxy mode")
)

// Proxy modes.
const (
	ProxyNone   = "no-proxy"
	ProxySystem = "system"
	ProxyBasic  = "basic"
	ProxyNTLM   = "ntlm"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the resolved client configuration.
type Config struct {
	ServerURL      string        `yaml:"server_url"`
	Proxy          ProxyConfig   `yaml:"proxy"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	History        HistoryConfig `yaml:"history"`
	Color          string        `yaml:"color"`
	Spinner        bool          `yaml:"spinner"`
	Defaults       FormDefaults  `yaml:"defaults"`
	File           string        `yaml:"-"` // config file actually read, empty if none
}

// ProxyConfig holds outbound proxy settings for the submission request.
type ProxyConfig struct {
	Mode     string `yaml:"mode"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	NoProxy  string `yaml:"no_proxy,omitempty"`
}

// HistoryConfig controls the local run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// FormDefaults are the initial values of the analysis input controls, as text.
type FormDefaults struct {
	URL                string `yaml:"url"`
	DetectionMethod    string `yaml:"detection_method"`
	TKS                string `yaml:"tks"`
	RNR                string `yaml:"rnr"`
	MinTokens          string `yaml:"min_tokens"`
	ImportFilter       string `yaml:"import_filter"`
	ForceRecompute     string `yaml:"force_recompute"`
	ComodMethod        string `yaml:"comod_method"`
	AnalysisMethod     string `yaml:"analysis_method"`
	AnalysisFrequency  string `yaml:"analysis_frequency"`
	SearchDepth        string `yaml:"search_depth"`
	MaxAnalyzedCommits string `yaml:"max_analyzed_commits"`
}

// Form converts the defaults into an input form.
func (d FormDefaults) Form() params.Form {
	return params.Form{
		URL:                d.URL,
		DetectionMethod:    d.DetectionMethod,
		TKS:                d.TKS,
		RNR:                d.RNR,
		MinTokens:          d.MinTokens,
		ImportFilter:       d.ImportFilter,
		ForceRecompute:     d.ForceRecompute,
		ComodMethod:        d.ComodMethod,
		AnalysisMethod:     d.AnalysisMethod,
		AnalysisFrequency:  d.AnalysisFrequency,
		SearchDepth:        d.SearchDepth,
		MaxAnalyzedCommits: d.MaxAnalyzedCommits,
	}
}

// FlagKeys maps command-line flag names to config keys.
// Load binds every flag present in the given flag set.
var FlagKeys = map[string]string{
	"server-url":      "server_url",
	"proxy-mode":      "proxy.mode",
	"proxy-host":      "proxy.host",
	"proxy-port":      "proxy.port",
	"proxy-user":      "proxy.user",
	"no-proxy":        "proxy.no_proxy",
	"request-timeout": "request_timeout",
	"color":           "color",
	"spinner":         "spinner",

	"url":                  "defaults.url",
	"detection-method":     "defaults.detection_method",
	"tks":                  "defaults.tks",
	"rnr":                  "defaults.rnr",
	"min-tokens":           "defaults.min_tokens",
	"import-filter":        "defaults.import_filter",
	"force-recompute":      "defaults.force_recompute",
	"comod-method":         "defaults.comod_method",
	"analysis-method":      "defaults.analysis_method",
	"analysis-frequency":   "defaults.analysis_frequency",
	"search-depth":         "defaults.search_depth",
	"max-analyzed-commits": "defaults.max_analyzed_commits",
}

func setDefaults(v *viper.Viper) {
	form := params.DefaultForm()

	v.SetDefault("server_url", constants.DefaultServerURL)
	v.SetDefault("proxy.mode", constants.DefaultProxyMode)
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 0)
	v.SetDefault("proxy.user", "")
	v.SetDefault("proxy.password", "")
	v.SetDefault("proxy.no_proxy", "")
	v.SetDefault("request_timeout", constants.DefaultRequestTimeout)
	v.SetDefault("dial_timeout", constants.HTTPDialTimeout)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("color", ColorAuto)
	v.SetDefault("spinner", true)

	v.SetDefault("defaults.url", form.URL)
	v.SetDefault("defaults.detection_method", form.DetectionMethod)
	v.SetDefault("defaults.tks", form.TKS)
	v.SetDefault("defaults.rnr", form.RNR)
	v.SetDefault("defaults.min_tokens", form.MinTokens)
	v.SetDefault("defaults.import_filter", form.ImportFilter)
	v.SetDefault("defaults.force_recompute", form.ForceRecompute)
	v.SetDefault("defaults.comod_method", form.ComodMethod)
	v.SetDefault("defaults.analysis_method", form.AnalysisMethod)
	v.SetDefault("defaults.analysis_frequency", form.AnalysisFrequency)
	v.SetDefault("defaults.search_depth", form.SearchDepth)
	v.SetDefault("defaults.max_analyzed_commits", form.MaxAnalyzedCommits)
}

// Load resolves the configuration. path selects an explicit config file; when
// empty the default location is tried and a missing file is not an error.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(constants.ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(Directory())
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		ServerURL: strings.TrimSpace(v.GetString("server_url")),
		Proxy: ProxyConfig{
			Mode:     strings.ToLower(strings.TrimSpace(v.GetString("proxy.mode"))),
			Host:     v.GetString("proxy.host"),
			Port:     v.GetInt("proxy.port"),
			User:     v.GetString("proxy.user"),
			Password: v.GetString("proxy.password"),
			NoProxy:  v.GetString("proxy.no_proxy"),
		},
		RequestTimeout: v.GetDuration("request_timeout"),
		DialTimeout:    v.GetDuration("dial_timeout"),
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    v.GetString("history.path"),
		},
		Color:   strings.ToLower(v.GetString("color")),
		Spinner: v.GetBool("spinner"),
		Defaults: FormDefaults{
			URL:                v.GetString("defaults.url"),
			DetectionMethod:    v.GetString("defaults.detection_method"),
			TKS:                v.GetString("defaults.tks"),
			RNR:                v.GetString("defaults.rnr"),
			MinTokens:          v.GetString("defaults.min_tokens"),
			ImportFilter:       v.GetString("defaults.import_filter"),
			ForceRecompute:     v.GetString("defaults.force_recompute"),
			ComodMethod:        v.GetString("defaults.comod_method"),
			AnalysisMethod:     v.GetString("defaults.analysis_method"),
			AnalysisFrequency:  v.GetString("defaults.analysis_frequency"),
			SearchDepth:        v.GetString("defaults.search_depth"),
			MaxAnalyzedCommits: v.GetString("defaults.max_analyzed_commits"),
		},
		File: v.ConfigFileUsed(),
	}

	// --no-history inverts history.enabled, so it is not bound directly.
	if flags != nil {
		if f := flags.Lookup("no-history"); f != nil && f.Changed && f.Value.String() == "true" {
			cfg.History.Enabled = false
		}
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	if cfg.Proxy.Mode == "" {
		cfg.Proxy.Mode = ProxyNone
	}

	return cfg, nil
}

// Validate checks the server URL and proxy settings.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return ErrMissingServerURL
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url %q: scheme must be http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server_url %q: missing host", c.ServerURL)
	}

	switch c.Proxy.Mode {
	case ProxyNone, ProxySystem, ProxyBasic, ProxyNTLM:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProxyMode, c.Proxy.Mode)
	}
	if c.Proxy.Port < 0 || c.Proxy.Port > 65535 {
		return fmt.Errorf("invalid proxy.port %d", c.Proxy.Port)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q: must be auto, always or never", c.Color)
	}

	if c.RequestTimeout < 0 || c.DialTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// ProxyActive reports whether requests may go through a proxy.
func (c *Config) ProxyActive() bool {
	return c.Proxy.Mode != ProxyNone && c.Proxy.Mode != ""
}

// NeedsProxyPassword returns true if the proxy mode authenticates and a user
// is set but no password is. The CLI prompts in that case.
func (c *Config) NeedsProxyPassword() bool {
	if c.Proxy.Mode != ProxyBasic && c.Proxy.Mode != ProxyNTLM {
		return false
	}
	return c.Proxy.User != "" && c.Proxy.Password == ""
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Proxy.Password != "" {
		out.Proxy.Password = "********"
	}
	return out
}
