package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localeFS embed.FS

// LanguageCookieName holds the durable language selection; unlike the
// session cookie it survives browser restarts.
const LanguageCookieName = "roadwatch_lang"

type localeFile struct {
	Messages    map[string]string `yaml:"messages"`
	DefectTypes map[string]string `yaml:"defect_types"`
}

// Bundle holds every loaded locale table. It is built once at startup and
// read-only afterwards; per-request language selection happens through
// Translator values carried in the request context, never through package
// state.
type Bundle struct {
	matcher  language.Matcher
	tags     []language.Tag
	tables   map[string]localeFile
	fallback string
}

func Load(defaultLang string) (*Bundle, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		tables:   make(map[string]localeFile),
		fallback: defaultLang,
	}

	var langs []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yml")
		raw, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		var lf localeFile
		if err := yaml.Unmarshal(raw, &lf); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", name, err)
		}
		b.tables[name] = lf
		langs = append(langs, name)
	}

	if _, ok := b.tables[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no locale table", defaultLang)
	}

	// Matcher preference order: default language first.
	ordered := []string{defaultLang}
	for _, l := range langs {
		if l != defaultLang {
			ordered = append(ordered, l)
		}
	}
	for _, l := range ordered {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("locale %q is not a valid language tag: %w", l, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)

	return b, nil
}

// Match picks the best available language given the durable cookie value and
// the Accept-Language header.
func (b *Bundle) Match(cookieVal, acceptHeader string) string {
	_, i := language.MatchStrings(b.matcher, cookieVal, acceptHeader)
	base, _ := b.tags[i].Base()
	lang := base.String()
	if _, ok := b.tables[lang]; !ok {
		return b.fallback
	}
	return lang
}

func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.tables))
	for lang := range b.tables {
		out = append(out, lang)
	}
	return out
}

func (b *Bundle) Translator(lang string) Translator {
	if _, ok := b.tables[lang]; !ok {
		lang = b.fallback
	}
	return Translator{bundle: b, lang: lang}
}

// Translator resolves message keys and defect labels for one language.
type Translator struct {
	bundle *Bundle
	lang   string
}

func (t Translator) Lang() string {
	return t.lang
}

// T returns the message for key, falling back to the default language and
// finally to the key itself so a missing entry never blanks the UI.
func (t Translator) T(key string) string {
	if t.bundle == nil {
		return key
	}
	if msg, ok := t.bundle.tables[t.lang].Messages[key]; ok {
		return msg
	}
	if msg, ok := t.bundle.tables[t.bundle.fallback].Messages[key]; ok {
		return msg
	}
	return key
}

// DefectLabel maps a defect category key to its display label. Unknown
// categories are prettified from the raw key.
func (t Translator) DefectLabel(defectType string) string {
	if t.bundle != nil {
		if label, ok := t.bundle.tables[t.lang].DefectTypes[defectType]; ok {
			return label
		}
		if label, ok := t.bundle.tables[t.bundle.fallback].DefectTypes[defectType]; ok {
			return label
		}
	}
	words := strings.Split(strings.ReplaceAll(defectType, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

type contextKey struct{}

func WithTranslator(ctx context.Context, t Translator) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

func FromContext(ctx context.Context) Translator {
	t, ok := ctx.Value(contextKey{}).(Translator)
	if !ok {
		return Translator{}
	}
	return t
}
