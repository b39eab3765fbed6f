// Package i18ngen generates translated i18n files from a source JSON
// document. The document structure (keys, order, nesting, non-string
// leaves) is preserved exactly; only string values are translated.
//
// One output file is written per target language, named
// <source-basename>_<lang>.<ext>. A language's file is only materialized
// after its full leaf set has translated successfully: a provider failure
// mid-language leaves no partial output behind (fail-fast per language),
// and does not stop the remaining languages.
package i18ngen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trankit/trankit/document"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TranslateFunc is the translation capability consumed by the generator:
// translate one string into the target language. Implementations block
// until done or ctx is cancelled.
type TranslateFunc func(ctx context.Context, text, lang string) (string, error)

// DefaultLanguages is used when the request names no target languages.
var DefaultLanguages = []string{"zh", "es"}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

// Request describes one generation run.
type Request struct {
	// InputFile is the source JSON document.
	InputFile string
	// OutputDir receives one file per language; created if missing.
	OutputDir string
	// Languages are the target language codes, in order. Duplicates are
	// removed; empty falls back to DefaultLanguages.
	Languages []string
	// Format is FormatJSON (default) or FormatYAML.
	Format string
	// UseCache enables the persistent on-disk translation cache.
	UseCache bool
	// Parallel translates languages concurrently instead of in order.
	Parallel bool
	// MaxConcurrent bounds the parallel mode (default 3).
	MaxConcurrent int
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
}

func (r *Request) log(format string, args ...any) {
	if r.OnLog != nil {
		r.OnLog(format, args...)
	}
}

func (r *Request) effectiveLanguages() []string {
	langs := dedupe(r.Languages)
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	return langs
}

func (r *Request) effectiveFormat() (string, error) {
	switch r.Format {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q (supported: json, yaml)", r.Format)
}

func (r *Request) effectiveMaxConcurrent() int {
	if r.MaxConcurrent > 0 {
		return r.MaxConcurrent
	}
	return 3
}

// dedupe removes duplicate language codes, keeping first-occurrence order.
func dedupe(langs []string) []string {
	seen := make(map[string]bool, len(langs))
	var out []string
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// Generate runs the full pipeline: parse, extract, translate per language,
// rebuild, serialize. Input errors abort before anything is written. A
// translation or output error fails only the affected language; the
// returned error aggregates all failed languages (nil when all succeeded).
func Generate(ctx context.Context, translate TranslateFunc, req Request) error {
	langs := req.effectiveLanguages()
	format, err := req.effectiveFormat()
	if err != nil {
		return err
	}

	root, err := document.ParseFile(req.InputFile)
	if err != nil {
		return err
	}
	leaves := document.Extract(root)

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", req.OutputDir, err)
	}

	if len(leaves) == 0 {
		req.log("no translatable strings in %s; writing structural copies", req.InputFile)
	}

	cache := newCache(req.UseCache, req.InputFile)

	base := filepath.Base(req.InputFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	runLang := func(ctx context.Context, lang string) error {
		req.log("generating %s version (%d strings)...", lang, len(leaves))
		cache.loadLang(lang)

		translations := make(map[string]string, len(leaves))
		for _, leaf := range leaves {
			if cached, ok := cache.get(leaf.Value, lang); ok {
				translations[leaf.Path.String()] = cached
				continue
			}

			translated, err := translate(ctx, leaf.Value, lang)
			if err != nil {
				return fmt.Errorf("translating %q at %s: %w", leaf.Value, leaf.Path, err)
			}
			cache.put(leaf.Value, lang, translated)
			translations[leaf.Path.String()] = translated
		}

		cache.saveLang(lang)

		rebuilt := document.Rebuild(root, translations)

		var data []byte
		switch format {
		case FormatYAML:
			data, err = document.MarshalYAML(rebuilt)
			if err != nil {
				return fmt.Errorf("serializing: %w", err)
			}
		default:
			data = document.MarshalJSON(rebuilt)
		}

		outPath := filepath.Join(req.OutputDir, stem+"_"+lang+"."+format)
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		req.log("saved %s version to %s", lang, outPath)
		return nil
	}

	var failures []error
	if req.Parallel {
		failures = runLangsParallel(ctx, langs, req.effectiveMaxConcurrent(), runLang)
	} else {
		for _, lang := range langs {
			if ctx.Err() != nil {
				failures = append(failures, fmt.Errorf("%s: %w", lang, ctx.Err()))
				continue
			}
			if err := runLang(ctx, lang); err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", lang, err))
			}
		}
	}

	return errors.Join(failures...)
}

// runLangsParallel fans languages out to a bounded worker set. Each
// language builds its own translation map, so the shared state is only
// the mutex-guarded cache; a failing language cannot touch another's
// output file.
func runLangsParallel(ctx context.Context, langs []string, maxConcurrent int, fn func(context.Context, string) error) []error {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for _, lang := range langs {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(lang string) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := fn(ctx, lang); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", lang, err))
				mu.Unlock()
			}
		}(lang)
	}

	wg.Wait()
	return failures
}
