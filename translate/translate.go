// Package translate implements AI-powered text translation using multiple
// HTTP API-based providers: Qwen (DashScope), OpenAI, Anthropic Claude,
// and Google AI (Gemini).
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trankit/trankit/langname"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderQwen   = "qwen"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderOrder is the canonical listing order for CLI output and config files.
var ProviderOrder = []string{ProviderQwen, ProviderClaude, ProviderGemini, ProviderOpenAI}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (qwen, claude, gemini, openai).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the model identifier (empty = API default where allowed).
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderQwen: {
			ID:      ProviderQwen,
			Name:    "Qwen (DashScope)",
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:   "qwen3-max",
			Timeout: 120 * time.Second,
		},
		ProviderClaude: {
			ID:      ProviderClaude,
			Name:    "Anthropic Claude",
			BaseURL: "https://api.anthropic.com/v1",
			Timeout: 120 * time.Second,
		},
		ProviderGemini: {
			ID:      ProviderGemini,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-pro",
			Timeout: 120 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Timeout: 60 * time.Second,
		},
	}
}

// ---------------------------------------------------------------------------
// Translation options
// ---------------------------------------------------------------------------

// Options controls a translation call.
type Options struct {
	// TargetLang is the target language code (e.g. "zh", "es").
	TargetLang string
	// LanguageName is the human-readable name interpolated into prompts.
	// If empty, it is resolved from TargetLang.
	LanguageName string
	// Context is optional disambiguating context. When set, the contextual
	// system prompt is used instead of the default one.
	Context string
	// Temperature is the sampling temperature (0 = default 0.3).
	Temperature float64
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// SystemPrompt overrides the built-in prompt templates.
	SystemPrompt string
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) effectiveTemperature() float64 {
	if o.Temperature > 0 {
		return o.Temperature
	}
	return 0.3
}

func (o *Options) effectiveTimeout(prov Provider) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if prov.Timeout > 0 {
		return prov.Timeout
	}
	return 120 * time.Second
}

// resolvedPrompt returns the system prompt with placeholders replaced.
func (o *Options) resolvedPrompt() string {
	prompt := o.SystemPrompt
	if prompt == "" {
		if o.Context != "" {
			prompt = ContextSystemPrompt
		} else {
			prompt = DefaultSystemPrompt
		}
	}

	langName := o.LanguageName
	if langName == "" {
		langName = langname.Resolve(o.TargetLang).Prompt()
	}

	prompt = strings.ReplaceAll(prompt, "{{targetLang}}", langName)
	prompt = strings.ReplaceAll(prompt, "{{context}}", o.Context)
	return prompt
}

// ---------------------------------------------------------------------------
// System prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is used for plain single-string and bulk i18n translation.
const DefaultSystemPrompt = `You are a professional translator. Translate the user's text into {{targetLang}}.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Maintain the original tone, register, and formatting
- Keep brand names and proper nouns unchanged
- Do NOT translate technical terms that are standard in English (unless they have established translations)

TECHNICAL REQUIREMENTS:
- Preserve all format specifiers exactly as-is (%s, %d, {name}, {{var}}, etc.)
- Preserve leading/trailing whitespace, newlines, and punctuation patterns
- Return ONLY the translated text, no explanations or markdown code blocks`

// ContextSystemPrompt is used when the caller supplies disambiguating context.
const ContextSystemPrompt = `You are a professional translator. Translate the user's text into {{targetLang}}.

CONTEXT INFORMATION (use it to disambiguate, do not translate it):
{{context}}

IMPORTANT TRANSLATION PRINCIPLES:
- Choose the translation that fits the context above
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Maintain the original tone, register, and formatting
- Keep brand names and proper nouns unchanged

TECHNICAL REQUIREMENTS:
- Preserve all format specifiers exactly as-is (%s, %d, {name}, {{var}}, etc.)
- Return ONLY the translated text, no explanations or markdown code blocks`

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both the --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars.
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions (qwen, openai)
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

func apiFormatFor(providerID string) apiFormat {
	switch providerID {
	case ProviderGemini:
		return formatGeminiNative
	case ProviderClaude:
		return formatAnthropic
	default:
		return formatOpenAIChat
	}
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model,omitempty"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature, MaxOutputTokens: 2048},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		System      string  `json:"system,omitempty"`
		Messages    []msg   `json:"messages"`
	}{
		Model:       model,
		MaxTokens:   2048,
		Temperature: temperature,
		System:      systemPrompt,
		Messages: []msg{
			{Role: "user", Content: userPrompt},
		},
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for a provider call.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, temperature float64, format apiFormat) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var endpoint string
	var body []byte
	var err error

	switch format {
	case formatGeminiNative:
		// Google AI: POST /v1beta/models/{model}:generateContent
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent",
			strings.TrimRight(prov.BaseURL, "/"), prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, temperature)

	case formatAnthropic:
		endpoint = strings.TrimRight(prov.BaseURL, "/") + "/messages"
		if prov.APIKey != "" {
			headers["x-api-key"] = prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(prov.Model, systemPrompt, userPrompt, temperature)

	default: // formatOpenAIChat
		endpoint = strings.TrimRight(prov.BaseURL, "/") + "/chat/completions"
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, temperature)
	}

	if err != nil {
		return "", nil, nil, fmt.Errorf("building request body: %w", err)
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsers (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	// Check for API error
	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// 2. Gemini format: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	// 3. Anthropic format: content[].type=="text" -> .text
	if contentArr, ok := raw["content"].([]any); ok {
		for _, c := range contentArr {
			if block, ok := c.(map[string]any); ok {
				if block["type"] == "text" {
					if text, ok := block["text"].(string); ok {
						return text, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

// Translate sends text to the provider and returns the translation.
// It is a single blocking call bounded by the effective timeout; no retries
// or rate limiting happen at this layer.
func Translate(ctx context.Context, prov Provider, text string, opts Options) (string, error) {
	system := opts.resolvedPrompt()
	format := apiFormatFor(prov.ID)

	endpoint, headers, body, err := buildHTTPRequest(prov, system, text, opts.effectiveTemperature(), format)
	if err != nil {
		return "", err
	}

	client := makeHTTPClient(prov.Proxy, opts.effectiveTimeout(prov))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if opts.Verbose {
		log.Printf("[DEBUG] %s: POST %s", prov.Name, endpoint)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", prov.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", prov.Name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d: %s", prov.Name, resp.StatusCode, truncate(string(respBody), 500))
	}

	out, err := extractResponseText(respBody)
	if err != nil {
		return "", fmt.Errorf("%s: %w", prov.Name, err)
	}

	return strings.TrimSpace(out), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
