// Package langname resolves language codes (BCP 47 tags like "zh", "es",
// "pt-BR") to display names used in translation prompts and CLI output.
package langname

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Name describes a language in English and in its own script.
type Name struct {
	// Code is the normalized tag (e.g. "pt-BR"). Falls back to the raw
	// input when the tag cannot be parsed.
	Code string
	// English is the English display name (e.g. "Chinese").
	English string
	// Native is the name in the language itself (e.g. "中文").
	Native string
}

// Resolve returns display metadata for a language code. Unknown or
// unparseable codes fall back to the code itself so prompts still work
// for exotic tags.
func Resolve(code string) Name {
	tag, err := language.Parse(code)
	if err != nil {
		return Name{Code: code, English: code, Native: code}
	}

	n := Name{Code: tag.String()}

	if s := display.English.Languages().Name(tag); s != "" {
		n.English = s
	} else {
		n.English = code
	}

	if s := display.Self.Name(tag); s != "" {
		n.Native = s
	} else {
		n.Native = n.English
	}

	return n
}

// Prompt renders the form interpolated into system prompts:
// "Chinese (中文)" when the native name differs from English,
// otherwise just the English name.
func (n Name) Prompt() string {
	if n.Native != "" && n.Native != n.English {
		return n.English + " (" + n.Native + ")"
	}
	return n.English
}
