package i18ngen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// cacheDirName is created next to the input file when persistence is on.
const cacheDirName = ".i18n_cache"

// cacheKey identifies one memoized translation.
type cacheKey struct {
	text string
	lang string
}

// cache memoizes (source text, target language) -> translated text.
//
// It is a pure memoization layer: a hit never changes the translated value
// for a key, only whether the translation capability is invoked. When
// disabled, every lookup misses and nothing is stored, so each leaf goes
// through the capability. The mutex makes it safe for the parallel
// per-language mode.
type cache struct {
	mu      sync.Mutex
	entries map[cacheKey]string

	// enabled turns on memoization plus the on-disk layer: one JSON file
	// per language, <dir>/<stem>_<lang>.json, mapping source text to
	// translation.
	enabled bool
	dir     string
	stem    string
}

// newCache builds the cache for one generation run. inputFile locates the
// on-disk cache directory.
func newCache(enabled bool, inputFile string) *cache {
	c := &cache{
		entries: make(map[cacheKey]string),
		enabled: enabled,
	}
	if enabled {
		c.dir = filepath.Join(filepath.Dir(inputFile), cacheDirName)
		base := filepath.Base(inputFile)
		c.stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return c
}

func (c *cache) get(text, lang string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey{text, lang}]
	return v, ok
}

func (c *cache) put(text, lang, translated string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{text, lang}] = translated
}

func (c *cache) filePath(lang string) string {
	return filepath.Join(c.dir, c.stem+"_"+lang+".json")
}

// loadLang merges the on-disk cache for one language into memory.
// The disk cache is advisory: unreadable or corrupt files are ignored.
func (c *cache) loadLang(lang string) {
	if !c.enabled {
		return
	}

	data, err := os.ReadFile(c.filePath(lang))
	if err != nil {
		return
	}
	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for text, translated := range stored {
		c.entries[cacheKey{text, lang}] = translated
	}
}

// saveLang writes the in-memory entries for one language back to disk.
// Best effort: failures never fail the generation run.
func (c *cache) saveLang(lang string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	stored := make(map[string]string)
	for k, v := range c.entries {
		if k.lang == lang {
			stored[k.text] = v
		}
	}
	c.mu.Unlock()

	if len(stored) == 0 {
		return
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(c.filePath(lang), append(data, '\n'), 0644)
}
