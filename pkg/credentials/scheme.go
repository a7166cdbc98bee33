package credentials

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"metrosmoke/pkg/suite"
)

// HeaderAPIKey carries the platform key of the anon and service schemes
const HeaderAPIKey = "apikey"

// Apply sets the headers of an authentication scheme on req.
// Headers already present on the request win, so a check can send a user's bearer
// token together with the anon apikey.
func (p *Provider) Apply(req *http.Request, scheme string) error {
	switch scheme {
	case "", suite.AuthNone:
		return nil

	case suite.AuthAnon:
		key, err := p.Resolve(RefAnonKey)
		if err != nil {
			return fmt.Errorf("anon scheme: %w", err)
		}
		setIfAbsent(req, HeaderAPIKey, key)
		return nil

	case suite.AuthService:
		key, err := p.Resolve(RefServiceKey)
		if err != nil {
			return fmt.Errorf("service scheme: %w", err)
		}
		setIfAbsent(req, HeaderAPIKey, key)
		setIfAbsent(req, "Authorization", "Bearer "+key)
		return nil

	default:
		return fmt.Errorf("unknown auth scheme '%s'", scheme)
	}
}

func setIfAbsent(req *http.Request, name, value string) {
	if req.Header.Get(name) == "" {
		req.Header.Set(name, value)
	}
}

// sensitiveHeaders are never logged in clear
var sensitiveHeaders = map[string]bool{
	"apikey":        true,
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

// StripCredentials removes every header that can carry a key or a session
func StripCredentials(h http.Header) {
	for name := range sensitiveHeaders {
		h.Del(name)
	}
}

// Redact masks a secret for logging, keeping at most 4 leading characters
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if strings.HasPrefix(secret, "Bearer ") {
		return "Bearer " + Redact(strings.TrimPrefix(secret, "Bearer "))
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***"
}

// RedactHeaders returns a copy of h safe for logging
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		value := strings.Join(values, ", ")
		if sensitiveHeaders[strings.ToLower(name)] {
			value = Redact(value)
		}
		out[name] = value
	}
	return out
}

// Scrub replaces every known secret occurring in text
func Scrub(text string, secrets []string) string {
	for _, s := range secrets {
		if len(s) < 4 {
			continue
		}
		text = strings.ReplaceAll(text, s, Redact(s))
	}
	return text
}

// MaskURL keeps only the scheme and host of a URL for logging
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
