// Package i18n renders localized messages for proxy error codes.
package i18n

import (
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Code mirrors errors.Code; the errors package imports this one.
type Code = string

// Catalog holds the message templates of one locale.
type Catalog struct {
	locale    string
	raw       map[Code]string
	templates map[Code]*template.Template
}

// NewCatalog compiles messages for locale. Templates that fail to parse are
// rendered verbatim.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		raw:       make(map[Code]string, len(messages)),
		templates: make(map[Code]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if tmpl, err := template.New(code).Option("missingkey=default").Parse(text); err == nil {
			c.templates[code] = tmpl
		}
	}
	return c
}

// Locale returns the BCP 47 tag of the catalog.
func (c *Catalog) Locale() string { return c.locale }

// Format renders the message for code with the error metadata. Unknown codes
// render as the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, metadata); err != nil {
		return text
	}
	return b.String()
}

var (
	enUS = NewCatalog(BaseLocale, enUSMessages)
	ptBR = NewCatalog("pt-BR", ptBRMessages)

	// catalogs is ordered for the matcher: the first entry is its default.
	catalogs = []*Catalog{enUS, ptBR}

	matcher = sync.OnceValue(func() language.Matcher {
		tags := make([]language.Tag, len(catalogs))
		for i, c := range catalogs {
			tags[i] = language.MustParse(c.locale)
		}
		return language.NewMatcher(tags)
	})
)

// Lookup returns the catalog best matching locale, which may be a single tag
// or an Accept-Language list. Anything unmatched gets the en-US catalog.
func Lookup(locale string) *Catalog {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return enUS
	}
	for _, c := range catalogs {
		if strings.EqualFold(c.locale, locale) {
			return c
		}
	}
	wanted, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(wanted) == 0 {
		return enUS
	}
	_, index, confidence := matcher().Match(wanted...)
	if confidence == language.No || index < 0 || index >= len(catalogs) {
		return enUS
	}
	return catalogs[index]
}
