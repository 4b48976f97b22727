package i18n

import "net/http"

const langCookie = "lang"

// Middleware picks the UI language for each request: a supported "lang"
// cookie wins, otherwise lang is used.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chosen := lang
			if c, err := r.Cookie(langCookie); err == nil && Supported(c.Value) {
				chosen = c.Value
			}
			next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), chosen)))
		})
	}
}

// SetLanguageCookie remembers the visitor's UI language choice.
func SetLanguageCookie(w http.ResponseWriter, lang, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     langCookie,
		Value:    lang,
		Path:     path,
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
