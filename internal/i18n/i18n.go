// Package i18n loads UI strings. Built-in languages are embedded; a language
// directory may add new languages or override the built-in ones.
package i18n

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"hostsgen/internal/model"
)

// DefaultLanguage is used when a requested language cannot be loaded.
const DefaultLanguage = "es"

//go:embed lang/*.json
var builtin embed.FS

// Strings maps message keys to translated text.
type Strings map[string]string

// Get returns the string for key with {param} placeholders substituted.
// Unknown keys render as the key itself.
func (s Strings) Get(key string, params map[string]string) string {
	str, ok := s[key]
	if !ok {
		str = key
	}
	for k, v := range params {
		str = strings.ReplaceAll(str, "{"+k+"}", v)
	}
	return str
}

// T is Get without parameters.
func (s Strings) T(key string) string {
	return s.Get(key, nil)
}

func fallbackStrings() Strings {
	return Strings{
		"app_title":    "Generador de Hosts",
		"app_subtitle": "Generador de archivos hosts personalizados",
		"error":        "Error",
	}
}

// Catalog resolves languages from the override directory and the embedded set.
type Catalog struct {
	dir    string
	logger zerolog.Logger
}

// New returns a Catalog. dir may be empty or missing.
func New(dir string, logger zerolog.Logger) *Catalog {
	return &Catalog{dir: dir, logger: logger.With().Str("component", "i18n").Logger()}
}

// Strings returns the strings for code, falling back to DefaultLanguage and
// then to a minimal built-in table.
func (c *Catalog) Strings(code string) Strings {
	if s, ok := c.load(code); ok {
		return s
	}
	if code != DefaultLanguage {
		if s, ok := c.load(DefaultLanguage); ok {
			return s
		}
	}
	return fallbackStrings()
}

func (c *Catalog) load(code string) (Strings, bool) {
	code = strings.TrimSpace(code)
	if code == "" || strings.ContainsAny(code, `/\.`) {
		return nil, false
	}
	if c.dir != "" {
		data, err := os.ReadFile(filepath.Join(c.dir, code+".json"))
		if err == nil {
			if s, ok := c.decode(code, data); ok {
				return s, true
			}
		}
	}
	data, err := builtin.ReadFile("lang/" + code + ".json")
	if err != nil {
		return nil, false
	}
	return c.decode(code, data)
}

func (c *Catalog) decode(code string, data []byte) (Strings, bool) {
	var s Strings
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn().Err(err).Str("lang", code).Msg("failed to load language")
		return nil, false
	}
	return s, true
}

// Languages lists every available language sorted by code.
func (c *Catalog) Languages() []model.Language {
	codes := map[string]bool{}
	if entries, err := builtin.ReadDir("lang"); err == nil {
		for _, e := range entries {
			codes[strings.TrimSuffix(e.Name(), ".json")] = true
		}
	}
	if c.dir != "" {
		if matches, err := filepath.Glob(filepath.Join(c.dir, "*.json")); err == nil {
			for _, m := range matches {
				codes[strings.TrimSuffix(filepath.Base(m), ".json")] = true
			}
		}
	}

	out := make([]model.Language, 0, len(codes))
	for code := range codes {
		out = append(out, model.Language{Code: code, Name: displayName(code)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func displayName(code string) string {
	switch code {
	case "es":
		return "Español"
	case "en":
		return "English"
	default:
		return strings.ToUpper(code)
	}
}

// Next returns the language after current in list order, wrapping around.
func Next(langs []model.Language, current string) string {
	if len(langs) == 0 {
		return current
	}
	for i, l := range langs {
		if l.Code == current {
			return langs[(i+1)%len(langs)].Code
		}
	}
	return langs[0].Code
}
