// Package sources describes the blocklist sources that can be downloaded and
// merged into a hosts file.
package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hostsgen/internal/util"
)

// BaseName is the source every generated hosts file starts from.
const BaseName = "base"

// Source is one downloadable blocklist.
type Source struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description" json:"description"`
}

// IsBase reports whether s is the base list.
func (s Source) IsBase() bool {
	return s.Name == BaseName
}

// FileName is the name under which the source is stored locally.
func (s Source) FileName() string {
	return s.Name + ".txt"
}

// Catalog is an ordered set of sources.
type Catalog []Source

const stevenBlack = "https://raw.githubusercontent.com/StevenBlack/hosts/master/"

// Default returns the built-in StevenBlack catalog.
func Default() Catalog {
	return Catalog{
		{Name: BaseName, URL: stevenBlack + "hosts", Description: "Base hosts (adware + malware)"},
		{Name: "fakenews", URL: stevenBlack + "alternates/fakenews/hosts", Description: "Fake news sites"},
		{Name: "gambling", URL: stevenBlack + "alternates/gambling/hosts", Description: "Gambling sites"},
		{Name: "porn", URL: stevenBlack + "alternates/porn/hosts", Description: "Adult content sites"},
		{Name: "social", URL: stevenBlack + "alternates/social/hosts", Description: "Social media sites"},
	}
}

type catalogFile struct {
	Sources Catalog `yaml:"sources"`
}

// LoadFile reads a YAML catalog of the form:
//
//	sources:
//	  - name: base
//	    url: https://...
//	    description: ...
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := f.Sources.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return f.Sources, nil
}

// Validate checks that the catalog has exactly one base entry, unique
// filesystem-safe names and http(s) URLs.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("no sources defined")
	}
	seen := make(map[string]bool, len(c))
	bases := 0
	for i, s := range c {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("source #%d has no name", i+1)
		}
		if util.SanitizeFilename(name) != name {
			return fmt.Errorf("source name %q must be a plain file name", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate source %q", name)
		}
		seen[name] = true
		if _, err := util.ParseSourceURL(s.URL); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
		if s.IsBase() {
			bases++
		}
	}
	if bases != 1 {
		return fmt.Errorf("catalog must define exactly one %q source", BaseName)
	}
	return nil
}

// Lookup returns the named source.
func (c Catalog) Lookup(name string) (Source, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Names returns the source names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, s := range c {
		out = append(out, s.Name)
	}
	return out
}
