package messages

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

var catalogFiles = []string{"active.en.toml"}

// Translator renders chat messages from the embedded catalog
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	locale    language.Tag
}

// NewTranslator builds a Translator for the given locale (e.g. "en").
// Unknown locales fall back to English.
func NewTranslator(locale string) *Translator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range catalogFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.WithError(err).WithField("file", file).Error("Failed to load message catalog")
		}
	}

	return &Translator{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		locale:    tag,
	}
}

// T renders the message identified by key. A missing key renders as the key itself.
func (t *Translator) T(key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"key":    key,
			"locale": t.locale.String(),
		}).WithError(err).Warn("Failed to localize message")
		return key
	}
	return msg
}
