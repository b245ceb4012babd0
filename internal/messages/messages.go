// Package messages holds the user-facing message catalogs.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/m3rciful/numerobot/core/logger"
)

//go:embed locales/*.toml
var localesFS embed.FS

// Catalog is the loaded set of locales.
type Catalog struct {
	bundle   *i18n.Bundle
	fallback language.Tag
}

// New loads the embedded catalogs. fallback is the language used when a
// requested one is missing; empty means Russian.
func New(fallback string) (*Catalog, error) {
	return Load(localesFS, "locales", fallback)
}

// Load reads every *.toml file under dir of fsys. The file name selects the
// language, e.g. "en.toml".
func Load(fsys fs.FS, dir, fallback string) (*Catalog, error) {
	tag := language.Russian
	if strings.TrimSpace(fallback) != "" {
		parsed, err := language.Parse(fallback)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", fallback, err)
		}
		tag = parsed
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(fsys, path.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no locale files in %s", dir)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(fsys, f); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", f, err)
		}
	}
	return &Catalog{bundle: bundle, fallback: tag}, nil
}

// Languages lists the loaded languages.
func (c *Catalog) Languages() []language.Tag {
	return c.bundle.LanguageTags()
}

// For returns a localizer for the preferred languages, most preferred first.
// Accept-Language style strings ("en-US,en;q=0.9") are accepted too.
func (c *Catalog) For(langs ...string) *Localizer {
	langs = append(langs, c.fallback.String())
	return &Localizer{loc: i18n.NewLocalizer(c.bundle, langs...)}
}

// Variants returns the rendering of id in every loaded language without
// duplicates. Reply keyboard labels are matched against these.
func (c *Catalog) Variants(id string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tag := range c.bundle.LanguageTags() {
		text, err := i18n.NewLocalizer(c.bundle, tag.String()).Localize(&i18n.LocalizeConfig{MessageID: id})
		if err != nil || text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

// Localizer renders messages in one language.
type Localizer struct {
	loc *i18n.Localizer
}

// Text renders the message id. A missing id renders as the id itself.
func (l *Localizer) Text(id string) string {
	return l.Format(id, nil)
}

// Format renders the message id with template data.
func (l *Localizer) Format(id string, data map[string]any) string {
	text, err := l.loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		logger.Warn(logger.Background(), "messages", "message.missing",
			slog.String("id", id),
			slog.String("err", err.Error()),
		)
		if text == "" {
			return id
		}
	}
	return text
}
