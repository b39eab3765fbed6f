// Package config manages the trankit configuration file.
//
// The config file is a JSON object keyed by provider ID, plus a
// "default_provider" field:
//
//	{
//	    "qwen": {
//	        "api_key": "sk-...",
//	        "base_url": "https://dashscope.aliyuncs.com/compatible-mode/v1",
//	        "model": "qwen3-max"
//	    },
//	    "claude": { "api_key": "sk-ant-..." },
//	    "default_provider": "qwen"
//	}
//
// Freshly initialized files carry placeholder keys ("your_..._here") that
// are treated as unset.
//
// API key lookup order at resolve time:
//  1. --api-key flag (highest priority)
//  2. TRANKIT_API_KEY environment variable
//  3. The config file
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/trankit/trankit/translate"
)

// DefaultPath is the config file path used when no --config flag is given.
const DefaultPath = "config.json"

// EnvAPIKey is the environment variable consulted for the API key.
const EnvAPIKey = "TRANKIT_API_KEY"

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// ProviderConfig holds the per-provider settings from the config file.
type ProviderConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Config is the parsed configuration file.
type Config struct {
	// DefaultProvider is used when no --provider flag is given.
	DefaultProvider string
	// Providers maps provider ID to its settings.
	Providers map[string]ProviderConfig
}

// placeholderKeys are the values written by Init; they mean "not configured".
var placeholderKeys = map[string]string{
	translate.ProviderQwen:   "your_dashscope_api_key_here",
	translate.ProviderClaude: "your_anthropic_api_key_here",
	translate.ProviderGemini: "your_google_api_key_here",
	translate.ProviderOpenAI: "your_openai_api_key_here",
}

// isPlaceholder reports whether key is one of the Init placeholders.
func isPlaceholder(key string) bool {
	return strings.HasPrefix(key, "your_") && strings.HasSuffix(key, "_here")
}

// HasKey reports whether the provider has a usable (non-placeholder) API key.
func (c *Config) HasKey(providerID string) bool {
	pc, ok := c.Providers[providerID]
	return ok && pc.APIKey != "" && !isPlaceholder(pc.APIKey)
}

// ---------------------------------------------------------------------------
// JSON round-trip (provider IDs are top-level keys)
// ---------------------------------------------------------------------------

// UnmarshalJSON decodes the flat file format into the Config model.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Providers = make(map[string]ProviderConfig, len(raw))
	for key, val := range raw {
		if key == "default_provider" {
			if err := json.Unmarshal(val, &c.DefaultProvider); err != nil {
				return fmt.Errorf("default_provider: %w", err)
			}
			continue
		}
		var pc ProviderConfig
		if err := json.Unmarshal(val, &pc); err != nil {
			return fmt.Errorf("provider %q: %w", key, err)
		}
		c.Providers[key] = pc
	}
	return nil
}

// MarshalJSON encodes the Config back into the flat file format, providers
// in canonical order so generated files diff cleanly.
func (c Config) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')

	first := true
	writeField := func(key string, v any) error {
		if !first {
			b.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(vb)
		return nil
	}

	for _, id := range orderedIDs(c.Providers) {
		if err := writeField(id, c.Providers[id]); err != nil {
			return nil, err
		}
	}
	if c.DefaultProvider != "" {
		if err := writeField("default_provider", c.DefaultProvider); err != nil {
			return nil, err
		}
	}

	b.WriteByte('}')
	return b.Bytes(), nil
}

// orderedIDs returns provider IDs in canonical order, unknown ones sorted last.
func orderedIDs(providers map[string]ProviderConfig) []string {
	var ids []string
	for _, id := range translate.ProviderOrder {
		if _, ok := providers[id]; ok {
			ids = append(ids, id)
		}
	}
	var extra []string
	known := make(map[string]bool, len(translate.ProviderOrder))
	for _, id := range translate.ProviderOrder {
		known[id] = true
	}
	for id := range providers {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// ---------------------------------------------------------------------------
// Defaults / Init
// ---------------------------------------------------------------------------

// Default returns a fresh config with placeholder keys for every provider.
func Default(defaultProvider string) *Config {
	if defaultProvider == "" {
		defaultProvider = translate.ProviderQwen
	}

	providers := make(map[string]ProviderConfig, len(translate.ProviderOrder))
	defs := translate.DefaultProviders()
	for _, id := range translate.ProviderOrder {
		pc := ProviderConfig{APIKey: placeholderKeys[id]}
		// Qwen and OpenAI carry their endpoint in the file so users can
		// point them at compatible gateways; the others stay implicit.
		switch id {
		case translate.ProviderQwen:
			pc.BaseURL = defs[id].BaseURL
			pc.Model = defs[id].Model
		case translate.ProviderOpenAI:
			pc.BaseURL = defs[id].BaseURL
		}
		providers[id] = pc
	}

	return &Config{
		DefaultProvider: defaultProvider,
		Providers:       providers,
	}
}

// Init writes a default config file. It refuses to overwrite an existing
// file unless force is set.
func Init(path string, force bool, defaultProvider string) error {
	if defaultProvider != "" {
		if _, ok := translate.DefaultProviders()[defaultProvider]; !ok {
			return fmt.Errorf("unknown provider %q (available: %s)",
				defaultProvider, strings.Join(translate.ProviderOrder, ", "))
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	if err := Save(Default(defaultProvider), path); err != nil {
		return err
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("formatting config: %w", err)
	}
	out.WriteByte('\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Load / validate
// ---------------------------------------------------------------------------

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s does not exist (run 'trankit init' to create one)", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config file %s is malformed: %w", path, err)
	}
	return &cfg, nil
}

// AvailableProviders returns the providers with a usable API key, in
// canonical order.
func (c *Config) AvailableProviders() []string {
	var out []string
	for _, id := range translate.ProviderOrder {
		if c.HasKey(id) {
			out = append(out, id)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Provider resolution
// ---------------------------------------------------------------------------

// Overrides are the CLI-level knobs that take precedence over the file.
type Overrides struct {
	APIKey  string
	BaseURL string
	Model   string
	Proxy   string
	Timeout time.Duration
}

// Resolve merges built-in defaults, the config file, the environment, and
// CLI overrides into a ready-to-use provider. providerID may be empty, in
// which case the file's default_provider (or qwen) is used.
func (c *Config) Resolve(providerID string, ov Overrides) (translate.Provider, error) {
	if providerID == "" {
		providerID = c.DefaultProvider
	}
	if providerID == "" {
		providerID = translate.ProviderQwen
	}

	prov, ok := translate.DefaultProviders()[providerID]
	if !ok {
		return translate.Provider{}, fmt.Errorf("unknown provider %q (available: %s)",
			providerID, strings.Join(translate.ProviderOrder, ", "))
	}

	pc := c.Providers[providerID]
	if pc.BaseURL != "" {
		prov.BaseURL = pc.BaseURL
	}
	if pc.Model != "" {
		prov.Model = pc.Model
	}
	if pc.APIKey != "" && !isPlaceholder(pc.APIKey) {
		prov.APIKey = pc.APIKey
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		prov.APIKey = key
	}
	if ov.APIKey != "" {
		prov.APIKey = ov.APIKey
	}
	if ov.BaseURL != "" {
		prov.BaseURL = ov.BaseURL
	}
	if ov.Model != "" {
		prov.Model = ov.Model
	}
	if ov.Proxy != "" {
		prov.Proxy = ov.Proxy
	}
	if ov.Timeout > 0 {
		prov.Timeout = ov.Timeout
	}

	if prov.APIKey == "" {
		return translate.Provider{}, fmt.Errorf(
			"no API key configured for provider %q: set %s.api_key in the config file, or use --api-key / %s",
			providerID, providerID, EnvAPIKey)
	}

	return prov, nil
}
