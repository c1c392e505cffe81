package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	"github.com/jeandeaual/go-locale"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu  sync.RWMutex
	loc *i18n.Localizer
)

func newBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"en.json", "zh-CN.json"} {
		buf, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			panic(err)
		}
		bundle.MustParseMessageFileBytes(buf, name)
	}
	return bundle
}

// InitBundle selects the language used by Message. Unknown locales fall back
// to English.
func InitBundle(locales ...string) {
	l := i18n.NewLocalizer(newBundle(), locales...)
	mu.Lock()
	loc = l
	mu.Unlock()
}

// Detect returns the user's preferred locale, or "en" if none is found.
func Detect() string {
	if l, err := locale.GetLocale(); err == nil && l != "" {
		return l
	}
	return "en"
}

// Message renders msgID with data. A missing message renders as msgID.
func Message(msgID string, data map[string]interface{}) string {
	mu.RLock()
	l := loc
	mu.RUnlock()
	if l == nil {
		InitBundle("en")
		mu.RLock()
		l = loc
		mu.RUnlock()
	}

	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return msgID
	}
	return msg
}
