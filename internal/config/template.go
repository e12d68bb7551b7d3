package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/msccatools/msccat-client/internal/constants"
	"github.com/msccatools/msccat-client/internal/params"
)

// WriteTemplate writes a commented config file holding the built-in defaults.
// An existing file is only replaced when force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(templateDocument()); err != nil {
		return fmt.Errorf("failed to encode config template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config template: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// YAML renders the configuration with the proxy password masked.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

func templateDocument() *yaml.Node {
	form := params.DefaultForm()

	root := mapping()

	add(root, "server_url", "Base URL of the job runner.", str(constants.DefaultServerURL))

	proxy := mapping()
	add(proxy, "mode", "no-proxy | system | basic | ntlm", str(constants.DefaultProxyMode))
	add(proxy, "host", "", str(""))
	add(proxy, "port", "", typed("!!int", fmt.Sprint(constants.DefaultProxyPort)))
	add(proxy, "user", "", str(""))
	add(proxy, "password", "Leave empty to be prompted.", str(""))
	add(proxy, "no_proxy", "Comma-separated hosts or CIDRs that bypass the proxy.", str(""))
	add(root, "proxy", "Proxy for the submission request. The log stream always connects directly.", proxy)

	add(root, "request_timeout", "Upper bound for the submission request.", str(constants.DefaultRequestTimeout.String()))
	add(root, "dial_timeout", "", str(constants.HTTPDialTimeout.String()))

	history := mapping()
	add(history, "enabled", "", typed("!!bool", "true"))
	add(history, "path", "Defaults to "+constants.HistoryFileName+" next to this file.", str(""))
	add(root, "history", "Local record of run attempts.", history)

	add(root, "color", "auto | always | never", str(ColorAuto))
	add(root, "spinner", "", typed("!!bool", "true"))

	defaults := mapping()
	add(defaults, "url", "https://github.com/<owner>/<repo>", str(form.URL))
	add(defaults, "detection_method", "normal | tks | rnr (only normal is implemented)", str(form.DetectionMethod))
	add(defaults, "tks", "", typed("!!int", form.TKS))
	add(defaults, "rnr", "0 < rnr <= 1", typed("!!float", form.RNR))
	add(defaults, "min_tokens", "", typed("!!int", form.MinTokens))
	add(defaults, "import_filter", "", typed("!!bool", form.ImportFilter))
	add(defaults, "force_recompute", "", typed("!!bool", form.ForceRecompute))
	add(defaults, "comod_method", "clone_set | clone_pair (only clone_set is implemented)", str(form.ComodMethod))
	add(defaults, "analysis_method", "merge_commit | tag | frequency", str(form.AnalysisMethod))
	add(defaults, "analysis_frequency", "Used when analysis_method is frequency.", typed("!!int", form.AnalysisFrequency))
	add(defaults, "search_depth", "-1 means unlimited.", typed("!!int", form.SearchDepth))
	add(defaults, "max_analyzed_commits", "-1 means unlimited.", typed("!!int", form.MaxAnalyzedCommits))
	add(root, "defaults", "Initial values of the analysis parameters.", defaults)

	return &yaml.Node{
		Kind: yaml.DocumentNode,
		HeadComment: "# msccat client configuration.\n" +
			"# Every key can be overridden by an MSCCAT_* environment variable (MSCCAT_PROXY_MODE, ...).",
		Content: []*yaml.Node{root},
	}
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func str(v string) *yaml.Node {
	return typed("!!str", v)
}

func typed(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

func add(m *yaml.Node, key, comment string, value *yaml.Node) {
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	if comment != "" {
		k.HeadComment = "# " + comment
	}
	m.Content = append(m.Content, k, value)
}
