package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/active.*.toml
var embeddedLocales embed.FS

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// NewTranslations builds a bundle from the embedded locales plus any
// active.*.toml file found in extraDirs.
func NewTranslations(defaultLang string, extraDirs ...string) (*Translations, error) {
	if defaultLang == "" {
		return nil, fmt.Errorf("language must not be empty")
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	embedded, err := fs.Glob(embeddedLocales, "locales/active.*.toml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded locales: %w", err)
	}
	for _, file := range embedded {
		if _, err := bundle.LoadMessageFileFS(embeddedLocales, file); err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}

	for _, dir := range extraDirs {
		files, err := filepath.Glob(filepath.Join(dir, "active.*.toml"))
		if err != nil {
			return nil, fmt.Errorf("error reading locales: %w", err)
		}
		for _, file := range files {
			if _, err := bundle.LoadMessageFile(file); err != nil {
				return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
			}
		}
	}

	t := &Translations{bundle: bundle}
	if err := t.SetLanguage(defaultLang); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Translations) SetLanguage(lang string) error {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			t.localize = i18n.NewLocalizer(t.bundle, lang)
			return nil
		}
	}
	return fmt.Errorf("language '%s' not supported", lang)
}

func (t *Translations) GetMessage(messageID string, count int, templateData map[string]interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}
