package gateway

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFCookieName is the cookie the backend stores the CSRF token in.
const CSRFCookieName = "csrftoken"

// CookieValue scans a raw Cookie header for the named cookie and returns its
// decoded value. The second return is false when the cookie is absent.
func CookieValue(header, name string) (string, bool) {
	if header == "" || name == "" {
		return "", false
	}
	prefix := name + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, prefix) {
			continue
		}
		val := part[len(prefix):]
		if dec, err := url.QueryUnescape(val); err == nil {
			return dec, true
		}
		return val, true
	}
	return "", false
}

// TokenSource supplies the CSRF token attached to mutating requests.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a fixed-value TokenSource, mainly for tests.
type StaticToken string

func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// JarTokenSource pulls the CSRF cookie for the backend origin out of a
// cookie jar, so the token always tracks whatever the server last set.
type JarTokenSource struct {
	Jar  http.CookieJar
	Base *url.URL
	Name string
}

func (s JarTokenSource) Token() (string, bool) {
	if s.Jar == nil || s.Base == nil {
		return "", false
	}
	name := s.Name
	if name == "" {
		name = CSRFCookieName
	}
	for _, c := range s.Jar.Cookies(s.Base) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
