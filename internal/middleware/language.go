package middleware

import (
	"net/http"

	"github.com/roadwatch/roadwatch-web/internal/i18n"
)

// Language resolves the page language for each request (cookie first, then
// the Accept-Language header) and stores the matching translator in the
// request context for handlers and templates to use.
func Language(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			cookieVal := ""
			if c, err := r.Cookie(i18n.LanguageCookieName); err == nil {
				cookieVal = c.Value
			}
			lang := bundle.Match(cookieVal, r.Header.Get("Accept-Language"))
			ctx := i18n.WithTranslator(r.Context(), bundle.Translator(lang))
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
