// Package i18n loads the embedded message catalogs and registers them with
// x/text so user-facing fallbacks can be rendered per locale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the canonical source locale.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedFS embed.FS

// Bundle holds messages keyed by locale.
type Bundle struct {
	locales map[string]map[string]string
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the embedded bundle, registering it with x/text on first use.
func Default() *Bundle {
	defaultOnce.Do(func() {
		bundle, err := LoadFromFS(embeddedFS)
		if err != nil {
			panic(err)
		}
		if err := bundle.Register(); err != nil {
			panic(err)
		}
		defaultBundle = bundle
	})
	return defaultBundle
}

// LoadFromFS loads every locales/*.yaml file in catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]map[string]string{}}
	for _, path := range paths {
		data, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		locale, messages, err := parseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if want := strings.TrimSuffix(strings.TrimPrefix(path, "locales/"), ".yaml"); locale != want {
			return nil, fmt.Errorf("catalog %s: locale %q must match file name %q", path, locale, want)
		}
		bundle.locales[locale] = messages
	}
	if _, ok := bundle.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	return bundle, nil
}

// Register registers every message with x/text/message. Locales missing a
// key get the base locale text so printers never fall back to the raw key.
func (b *Bundle) Register() error {
	base := b.locales[BaseLocale]
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		messages := b.locales[locale]
		for key, fallback := range base {
			text, ok := messages[key]
			if !ok {
				text = fallback
			}
			if err := message.SetString(tag, key, text); err != nil {
				return fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
	}
	return nil
}

// Locales returns the available locale identifiers in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Tags returns the available locales as language tags, base locale first.
func (b *Bundle) Tags() []language.Tag {
	tags := []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range b.Locales() {
		if locale == BaseLocale {
			continue
		}
		if tag, err := language.Parse(locale); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Has reports whether key is defined in the base locale.
func (b *Bundle) Has(key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[BaseLocale][strings.TrimSpace(key)]
	return ok
}

// Localizer renders catalog keys for one locale.
type Localizer struct {
	bundle  *Bundle
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer matches locale against the embedded catalogs. Unknown or
// malformed locales resolve to the base locale.
func NewLocalizer(locale string) Localizer {
	bundle := Default()
	tags := bundle.Tags()
	tag := tags[0]
	if requested, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		_, index, confidence := language.NewMatcher(tags).Match(requested)
		if confidence != language.No {
			tag = tags[index]
		}
	}
	return Localizer{bundle: bundle, tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the resolved locale tag.
func (l Localizer) Locale() string {
	return l.tag.String()
}

// Text returns the message for key, or fallback when the key is unknown.
func (l Localizer) Text(key string, fallback string) string {
	key = strings.TrimSpace(key)
	if l.printer == nil || !l.bundle.Has(key) {
		return fallback
	}
	return l.printer.Sprintf(key)
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// parseCatalog decodes one locale file. yaml.v3 rejects duplicate keys.
func parseCatalog(data []byte) (string, map[string]string, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(file.Locale) == "" {
		return "", nil, fmt.Errorf("missing locale")
	}
	if len(file.Messages) == 0 {
		return "", nil, fmt.Errorf("missing messages")
	}
	for key := range file.Messages {
		if strings.TrimSpace(key) == "" {
			return "", nil, fmt.Errorf("message key cannot be blank")
		}
	}
	return file.Locale, file.Messages, nil
}

// Sprintf formats with locale-aware number grouping.
func (l Localizer) Sprintf(format string, args ...any) string {
	if l.printer == nil {
		return fmt.Sprintf(format, args...)
	}
	return l.printer.Sprintf(format, args...)
}
