/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package i18n holds the static widget translations. Keys are the English texts;
// a missing translation falls back to the key itself.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
)

// DefaultLanguage needs no dictionary.
const DefaultLanguage = "en"

//go:embed locales/*.json
var locales embed.FS

// Catalog is a set of dictionaries keyed by base language.
type Catalog struct {
	dicts   map[string]map[string]string
	tags    []language.Tag
	bases   []string
	matcher language.Matcher
}

// Load reads the embedded dictionaries.
func Load() (*Catalog, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	dicts := make(map[string]map[string]string, len(entries))

	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}

		raw, err := locales.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}

		dict := make(map[string]string)
		if err := json.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("invalid locale %s: %w", e.Name(), err)
		}

		dicts[strings.TrimSuffix(e.Name(), ".json")] = dict
	}

	return newCatalog(dicts), nil
}

func newCatalog(dicts map[string]map[string]string) *Catalog {
	bases := make([]string, 0, len(dicts)+1)
	bases = append(bases, DefaultLanguage)

	others := make([]string, 0, len(dicts))
	for lang := range dicts {
		if lang != DefaultLanguage {
			others = append(others, lang)
		}
	}

	sort.Strings(others)
	bases = append(bases, others...)

	tags := make([]language.Tag, 0, len(bases))
	for _, b := range bases {
		tags = append(tags, language.Make(b))
	}

	return &Catalog{dicts: dicts, tags: tags, bases: bases, matcher: language.NewMatcher(tags)}
}

// Languages returns the supported base languages, the default first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.bases...)
}

// Normalize reduces "ru-RU", "ru_RU" or "RU" to "ru".
func Normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}

	return strings.ToLower(lang)
}

// T translates key into lang.
func (c *Catalog) T(lang, key string) string {
	if dict, ok := c.dicts[Normalize(lang)]; ok {
		if v, ok := dict[key]; ok && v != "" {
			return v
		}
	}

	return key
}

// Func returns a translation function bound to lang.
func (c *Catalog) Func(lang string) func(string) string {
	lang = Normalize(lang)

	return func(key string) string { return c.T(lang, key) }
}

// Dictionary returns a copy of the dictionary of lang (empty for the default).
func (c *Catalog) Dictionary(lang string) map[string]string {
	return maps.Clone(c.dicts[Normalize(lang)])
}

// Match picks the best supported language for an Accept-Language header or a
// plain language code.
func (c *Catalog) Match(accept string) string {
	if accept == "" {
		return DefaultLanguage
	}

	if _, ok := c.dicts[Normalize(accept)]; ok && !strings.ContainsAny(accept, ",;") {
		return Normalize(accept)
	}

	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.bases) {
		return DefaultLanguage
	}

	return c.bases[idx]
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	current        atomic.Value
)

// Default returns the catalog of embedded dictionaries.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load()
		if err != nil {
			c = newCatalog(nil)
		}

		defaultCatalog = c
	})

	return defaultCatalog
}

// SetLanguage sets the language used by T.
func SetLanguage(lang string) {
	current.Store(Default().Match(lang))
}

// Language returns the language used by T.
func Language() string {
	if v, ok := current.Load().(string); ok {
		return v
	}

	return DefaultLanguage
}

// T translates key into the current language.
func T(key string) string {
	return Default().T(Language(), key)
}
