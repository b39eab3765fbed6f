package i18ngen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// In-memory memoization
// ---------------------------------------------------------------------------

func TestCache_GetPut(t *testing.T) {
	c := newCache(true, "app.json")

	if _, ok := c.get("Hello", "zh"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.put("Hello", "zh", "你好")
	if v, ok := c.get("Hello", "zh"); !ok || v != "你好" {
		t.Errorf("get = %q, %v", v, ok)
	}

	// Same text, different language: independent entries.
	if _, ok := c.get("Hello", "es"); ok {
		t.Error("language leak in cache key")
	}
}

func TestCache_DisabledNeverHitsOrWrites(t *testing.T) {
	dir := t.TempDir()
	c := newCache(false, filepath.Join(dir, "app.json"))
	c.put("Hello", "zh", "你好")
	if _, ok := c.get("Hello", "zh"); ok {
		t.Error("disabled cache produced a hit")
	}
	c.saveLang("zh")

	if _, err := os.Stat(filepath.Join(dir, cacheDirName)); !os.IsNotExist(err) {
		t.Error("cache dir created although cache is disabled")
	}
}

func TestCache_DiskRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.json")

	c := newCache(true, input)
	c.put("Hello", "zh", "你好")
	c.put("Hello", "es", "Hola")
	c.saveLang("zh")

	want := filepath.Join(dir, cacheDirName, "app_zh.json")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("cache file: %v", err)
	}
	if !strings.Contains(string(data), "你好") {
		t.Errorf("cache file content:\n%s", data)
	}
	if strings.Contains(string(data), "Hola") {
		t.Error("es entry leaked into zh cache file")
	}

	// Fresh cache picks the entry back up.
	c2 := newCache(true, input)
	c2.loadLang("zh")
	if v, ok := c2.get("Hello", "zh"); !ok || v != "你好" {
		t.Errorf("reload get = %q, %v", v, ok)
	}
	if _, ok := c2.get("Hello", "es"); ok {
		t.Error("unsaved language loaded from disk")
	}
}

func TestCache_CorruptFileIgnored(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.json")
	cacheDir := filepath.Join(dir, cacheDirName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "app_zh.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	c := newCache(true, input)
	c.loadLang("zh") // must not panic or fail
	if _, ok := c.get("anything", "zh"); ok {
		t.Error("corrupt cache produced entries")
	}
}

// ---------------------------------------------------------------------------
// Cache behavior through Generate
// ---------------------------------------------------------------------------

func TestGenerate_CacheIdempotence(t *testing.T) {
	dir := t.TempDir()
	// "Hello World" appears twice: with caching the capability runs once
	// per distinct (text, language) pair.
	input := writeInput(t, dir, "app.json", `{"a":"Hello World","b":{"c":"Hello World"}}`)

	stub := helloStub()
	if err := Generate(context.Background(), stub.fn, Request{
		InputFile: input, OutputDir: filepath.Join(dir, "out"),
		Languages: []string{"zh"}, UseCache: true,
	}); err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 1 {
		t.Errorf("capability called %d times, want 1", stub.callCount())
	}

	out, _ := os.ReadFile(filepath.Join(dir, "out", "app_zh.json"))
	if strings.Count(string(out), "你好世界") != 2 {
		t.Errorf("cached value not applied to both leaves:\n%s", out)
	}
}

func TestGenerate_DiskCacheAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "app.json", helloJSON)

	first := helloStub()
	if err := Generate(context.Background(), first.fn, Request{
		InputFile: input, OutputDir: filepath.Join(dir, "out1"),
		Languages: []string{"zh"}, UseCache: true,
	}); err != nil {
		t.Fatal(err)
	}
	if first.callCount() != 2 {
		t.Fatalf("first run calls = %d, want 2", first.callCount())
	}

	// Second run reuses the on-disk cache: zero capability calls,
	// identical output.
	second := helloStub()
	if err := Generate(context.Background(), second.fn, Request{
		InputFile: input, OutputDir: filepath.Join(dir, "out2"),
		Languages: []string{"zh"}, UseCache: true,
	}); err != nil {
		t.Fatal(err)
	}
	if second.callCount() != 0 {
		t.Errorf("second run calls = %d, want 0", second.callCount())
	}

	a, _ := os.ReadFile(filepath.Join(dir, "out1", "app_zh.json"))
	b, _ := os.ReadFile(filepath.Join(dir, "out2", "app_zh.json"))
	if string(a) != string(b) {
		t.Error("cached run output differs from fresh run")
	}
}

func TestGenerate_CacheDisabledCallsEveryTime(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "app.json", `{"a":"Hello World","b":"Hello World"}`)

	stub := helloStub()
	if err := Generate(context.Background(), stub.fn, Request{
		InputFile: input, OutputDir: filepath.Join(dir, "out"), Languages: []string{"zh"},
	}); err != nil {
		t.Fatal(err)
	}
	// Without the cache every leaf invokes the capability, duplicates
	// included.
	if stub.callCount() != 2 {
		t.Errorf("calls = %d, want 2 (no memoization)", stub.callCount())
	}
	if _, err := os.Stat(filepath.Join(dir, cacheDirName)); !os.IsNotExist(err) {
		t.Error("disk cache written although UseCache is false")
	}
}
