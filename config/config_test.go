package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trankit/trankit/translate"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Init / Load round-trip
// ---------------------------------------------------------------------------

func TestInitAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := Init(path, false, "claude"); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DefaultProvider != "claude" {
		t.Errorf("default_provider = %q", cfg.DefaultProvider)
	}
	for _, id := range translate.ProviderOrder {
		if _, ok := cfg.Providers[id]; !ok {
			t.Errorf("provider %q missing from fresh config", id)
		}
		if cfg.HasKey(id) {
			t.Errorf("placeholder key for %q counted as usable", id)
		}
	}
	if cfg.Providers["qwen"].BaseURL == "" || cfg.Providers["qwen"].Model != "qwen3-max" {
		t.Errorf("qwen defaults missing: %+v", cfg.Providers["qwen"])
	}
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := writeConfig(t, `{"default_provider": "openai"}`)

	if err := Init(path, false, "qwen"); err == nil {
		t.Fatal("expected error for existing file")
	}
	// Original content untouched.
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProvider != "openai" {
		t.Errorf("file was overwritten: %q", cfg.DefaultProvider)
	}

	if err := Init(path, true, "qwen"); err != nil {
		t.Fatalf("forced Init error: %v", err)
	}
	cfg, _ = Load(path)
	if cfg.DefaultProvider != "qwen" {
		t.Errorf("forced init did not overwrite: %q", cfg.DefaultProvider)
	}
}

func TestInit_UnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := Init(path, false, "nonsense"); err == nil {
		t.Fatal("expected error for unknown default provider")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	} else if !strings.Contains(err.Error(), "trankit init") {
		t.Errorf("missing-file error should mention init: %v", err)
	}

	path := writeConfig(t, `{"qwen": `)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestMarshal_CanonicalOrder(t *testing.T) {
	data, err := json.Marshal(Default("qwen"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	iq, ic, ig, io_, id := strings.Index(s, `"qwen"`), strings.Index(s, `"claude"`),
		strings.Index(s, `"gemini"`), strings.Index(s, `"openai"`), strings.Index(s, `"default_provider"`)
	if !(iq < ic && ic < ig && ig < io_ && io_ < id) {
		t.Errorf("field order wrong: %s", s)
	}
}

// ---------------------------------------------------------------------------
// AvailableProviders
// ---------------------------------------------------------------------------

func TestAvailableProviders(t *testing.T) {
	path := writeConfig(t, `{
  "qwen": {"api_key": "real-key-1"},
  "claude": {"api_key": "your_anthropic_api_key_here"},
  "openai": {"api_key": "real-key-2"},
  "default_provider": "qwen"
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	got := cfg.AvailableProviders()
	if len(got) != 2 || got[0] != "qwen" || got[1] != "openai" {
		t.Errorf("AvailableProviders = %v", got)
	}
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolve_FromFile(t *testing.T) {
	path := writeConfig(t, `{
  "qwen": {"api_key": "file-key", "base_url": "https://proxy.example.com/v1", "model": "qwen-custom"},
  "default_provider": "qwen"
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	prov, err := cfg.Resolve("", Overrides{})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if prov.ID != "qwen" || prov.APIKey != "file-key" {
		t.Errorf("prov = %+v", prov)
	}
	if prov.BaseURL != "https://proxy.example.com/v1" || prov.Model != "qwen-custom" {
		t.Errorf("file settings not applied: %+v", prov)
	}
}

func TestResolve_Precedence(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"openai": {APIKey: "file-key"},
	}}

	t.Setenv(EnvAPIKey, "env-key")
	prov, err := cfg.Resolve("openai", Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if prov.APIKey != "env-key" {
		t.Errorf("env should beat file: %q", prov.APIKey)
	}

	prov, err = cfg.Resolve("openai", Overrides{APIKey: "flag-key", Model: "gpt-test", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if prov.APIKey != "flag-key" || prov.Model != "gpt-test" || prov.Timeout != 5*time.Second {
		t.Errorf("flag overrides not applied: %+v", prov)
	}
}

func TestResolve_PlaceholderKeyRejected(t *testing.T) {
	cfg := Default("claude")
	if _, err := cfg.Resolve("claude", Overrides{}); err == nil {
		t.Fatal("expected error for placeholder key")
	} else if !strings.Contains(err.Error(), "claude") {
		t.Errorf("error should name the provider: %v", err)
	}
}

func TestResolve_UnknownProvider(t *testing.T) {
	cfg := Default("")
	if _, err := cfg.Resolve("mystral", Overrides{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestResolve_DefaultsToQwen(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"qwen": {APIKey: "k"},
	}}
	prov, err := cfg.Resolve("", Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if prov.ID != "qwen" {
		t.Errorf("default provider = %q, want qwen", prov.ID)
	}
}
