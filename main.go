// trankit — Translation Kit: AI text translation with structure-preserving
// i18n file generation.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/trankit/trankit/config"
	"github.com/trankit/trankit/i18ngen"
	"github.com/trankit/trankit/langname"
	"github.com/trankit/trankit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var configPath string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trankit",
		Short: "Translation Kit: AI translation with i18n file generation",
		Long: `trankit — Translation Kit: AI text translation and i18n file generation.

Translates single strings or the string values of a nested JSON document
(preserving its structure) into multiple languages, through one of several
AI providers.

Commands:
  init        Create a config file with placeholder API keys
  validate    Check the config file
  list        List providers with configured API keys
  translate   Translate a single text string
  generate    Generate translated i18n files from a JSON document

AI Providers:
  qwen     Qwen via Alibaba DashScope (OpenAI-compatible) — API key
  claude   Anthropic Claude — API key
  gemini   Google AI (Gemini) — API key
  openai   OpenAI (or compatible endpoint) — API key`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")

	root.AddCommand(
		newInitCmd(),
		newValidateCmd(),
		newListCmd(),
		newTranslateCmd(),
		newGenerateCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trankit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// init (create config file)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		force           bool
		defaultProvider string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file with placeholder API keys",
		Long: `Create a config file listing every supported provider with a
placeholder API key. Edit the file and fill in the keys you need.

Refuses to overwrite an existing file unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(configPath, force, defaultProvider); err != nil {
				return err
			}
			logSuccess("config file created: %s", configPath)
			logInfo("default provider set to: %s", defaultProvider)
			logInfo("edit the file and fill in your API keys:")
			fmt.Fprintln(os.Stderr, "   - qwen:   Alibaba Cloud DashScope console")
			fmt.Fprintln(os.Stderr, "   - claude: Anthropic console")
			fmt.Fprintln(os.Stderr, "   - gemini: Google AI Studio")
			fmt.Fprintln(os.Stderr, "   - openai: OpenAI platform")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().StringVar(&defaultProvider, "default-provider", translate.ProviderQwen,
		"Default provider: "+strings.Join(translate.ProviderOrder, ", "))

	return cmd
}

// ---------------------------------------------------------------------------
// validate (check config file)
// ---------------------------------------------------------------------------

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file",
		Long:  `Parse the config file and report whether it is usable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logSuccess("config file is valid: %s", configPath)
			if cfg.DefaultProvider != "" {
				logInfo("default provider: %s", cfg.DefaultProvider)
			}
			if avail := cfg.AvailableProviders(); len(avail) == 0 {
				logWarning("no provider has an API key yet — edit %s", configPath)
			}
			return nil
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// list (providers with usable keys)
// ---------------------------------------------------------------------------

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers with configured API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			avail := cfg.AvailableProviders()
			if len(avail) == 0 {
				logWarning("no provider has a usable API key")
				logInfo("run 'trankit init' and edit %s to add keys", configPath)
				return nil
			}

			defs := translate.DefaultProviders()
			logSuccess("available providers:")
			for _, id := range avail {
				marker := " "
				if id == cfg.DefaultProvider {
					marker = "*"
				}
				fmt.Fprintf(os.Stderr, "  %s %-8s %s\n", marker, id, defs[id].Name)
			}
			return nil
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// translate (single string)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		provider    string
		apiKey      string
		model       string
		baseURL     string
		target      string
		contextText string
		temperature float64
		timeout     time.Duration
		proxy       string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "translate TEXT",
		Short: "Translate a single text string",
		Long: `Translate one string and print the result to stdout.

Examples:
  # Translate using the config file's default provider
  trankit translate "Hello, world!" --target zh

  # Use a specific provider
  trankit translate "你好世界" --provider gemini --target en

  # Disambiguate with context
  trankit translate "bug" --context "software development" --target zh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			prov, err := cfg.Resolve(provider, config.Overrides{
				APIKey:  apiKey,
				BaseURL: baseURL,
				Model:   model,
				Proxy:   proxy,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			if verbose {
				logInfo("using %s", prov.Name)
			}

			result, err := translate.Translate(context.Background(), prov, args[0], translate.Options{
				TargetLang:  target,
				Context:     contextText,
				Temperature: temperature,
				Timeout:     timeout,
				Verbose:     verbose,
			})
			if err != nil {
				return err
			}

			fmt.Println(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "AI provider: qwen, claude, gemini, openai (default: config file)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or "+config.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider default)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().StringVar(&target, "target", "zh", "Target language code")
	cmd.Flags().StringVar(&contextText, "context", "", "Disambiguating context for the translation")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (default 0.3)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable detailed logging")

	registerProviderCompletion(cmd)

	return cmd
}

// ---------------------------------------------------------------------------
// generate (i18n files from a JSON document)
// ---------------------------------------------------------------------------

func newGenerateCmd() *cobra.Command {
	var (
		input         string
		outputDir     string
		langs         string
		format        string
		useCache      bool
		parallel      bool
		maxConcurrent int

		provider    string
		apiKey      string
		model       string
		baseURL     string
		temperature float64
		timeout     time.Duration
		proxy       string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate translated i18n files from a JSON document",
		Long: `Generate one translated copy of a JSON document per target language,
preserving the document structure and translating only string values.
Output files are named <input-basename>_<lang>.<format>.

A language either completes fully or produces no file at all; a failure in
one language does not stop the others.

Examples:
  # Chinese and Spanish JSON files (the defaults)
  trankit generate --input locales/en.json --output-dir locales

  # YAML output with the persistent translation cache
  trankit generate --input en.json --output-dir i18n --lang de,fr,ja --format yaml --cache

  # Translate languages concurrently
  trankit generate --input en.json --output-dir i18n --lang zh,es,ru --parallel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			prov, err := cfg.Resolve(provider, config.Overrides{
				APIKey:  apiKey,
				BaseURL: baseURL,
				Model:   model,
				Proxy:   proxy,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			logInfo("using %s", prov.Name)

			fn := func(ctx context.Context, text, lang string) (string, error) {
				return translate.Translate(ctx, prov, text, translate.Options{
					TargetLang:   lang,
					LanguageName: langname.Resolve(lang).Prompt(),
					Temperature:  temperature,
					Timeout:      timeout,
					Verbose:      verbose,
				})
			}

			req := i18ngen.Request{
				InputFile:     input,
				OutputDir:     outputDir,
				Languages:     splitLangs(langs),
				Format:        format,
				UseCache:      useCache,
				Parallel:      parallel,
				MaxConcurrent: maxConcurrent,
				OnLog:         logInfo,
			}

			if err := i18ngen.Generate(context.Background(), fn, req); err != nil {
				return err
			}
			logSuccess("all languages generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Source JSON document (required)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "i18n", "Output directory (created if missing)")
	cmd.Flags().StringVar(&langs, "lang", "", "Target languages, comma-separated (default: zh,es)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Enable the persistent translation cache (.i18n_cache)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Translate languages concurrently")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 3, "Maximum concurrent languages (with --parallel)")

	cmd.Flags().StringVar(&provider, "provider", "", "AI provider: qwen, claude, gemini, openai (default: config file)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or "+config.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider default)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (default 0.3)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable detailed logging")

	_ = cmd.MarkFlagRequired("input")

	registerProviderCompletion(cmd)

	// Format completion
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// splitLangs parses a comma-separated language list; empty input yields nil
// so the generator applies its defaults.
func splitLangs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// registerProviderCompletion adds shell completion for the --provider flag.
func registerProviderCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"qwen\tQwen via Alibaba DashScope — API key",
			"claude\tAnthropic Claude — API key",
			"gemini\tGoogle AI (Gemini) — API key",
			"openai\tOpenAI or compatible endpoint — API key",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
