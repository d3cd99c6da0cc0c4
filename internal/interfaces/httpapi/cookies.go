package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
)

// First-party cookie names. SWID keeps the provider's braced casing;
// has_provider is the only one readable by scripts.
const (
	cookieSWID        = "SWID"
	cookieS2          = "s2"
	cookieHasProvider = "has_provider"
)

// Header fallbacks for callers that cannot carry cookies. The swid
// header value may arrive url-encoded.
const (
	headerSWID   = "X-Provider-SWID"
	headerS2     = "X-Provider-S2"
	headerMember = "X-FF-Member"
)

const defaultCookieMaxAge = 365 * 24 * time.Hour

// CookieConfig shapes the first-party credential cookies and the /link
// redirect fallback.
type CookieConfig struct {
	Secure          bool
	Domain          string
	MaxAge          time.Duration
	DefaultRedirect string
}

func (c CookieConfig) maxAgeSeconds() int {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCookieMaxAge
	}
	return int(maxAge / time.Second)
}

func (c CookieConfig) redirectFallback() string {
	if fallback := strings.TrimSpace(c.DefaultRedirect); fallback != "" {
		return fallback
	}
	return "/fein"
}

// setProviderCookies installs the token pair plus the readable
// has_provider flag.
func setProviderCookies(w http.ResponseWriter, token credential.Token, cfg CookieConfig) {
	maxAge := cfg.maxAgeSeconds()

	http.SetCookie(w, &http.Cookie{
		Name:     cookieSWID,
		Value:    token.SWID,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieS2,
		Value:    token.S2,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cookieHasProvider,
		Value:    "1",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// credentialFromRequest pulls the provider token off the request.
// Cookies win over headers; the source is reported for /api/cred.
func credentialFromRequest(r *http.Request) (credential.Token, string) {
	token := credential.Token{}
	source := ""

	if c, err := r.Cookie(cookieSWID); err == nil {
		token.SWID = decodeSWID(c.Value)
		source = "cookie"
	}
	if c, err := r.Cookie(cookieS2); err == nil {
		// s2 is stored verbatim; it legitimately contains %xx runs.
		token.S2 = strings.TrimSpace(c.Value)
		if source == "" {
			source = "cookie"
		}
	}

	if token.SWID == "" {
		if v := strings.TrimSpace(r.Header.Get(headerSWID)); v != "" {
			token.SWID = decodeSWID(v)
			source = "header"
		}
	}
	if token.S2 == "" {
		if v := strings.TrimSpace(r.Header.Get(headerS2)); v != "" {
			token.S2 = v
			if source != "cookie" {
				source = "header"
			}
		}
	}

	if token.IsZero() {
		return credential.Token{}, ""
	}
	return token, source
}

// decodeSWID unescapes a percent-encoded owner guid. Raw guids carry no
// percent signs, so decoding is attempted only when one is present.
func decodeSWID(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "%") {
		return raw
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// safeRedirectTarget accepts to only when it is a rooted path or an
// absolute URL on this host. Anything else falls back.
func safeRedirectTarget(r *http.Request, to, fallback string) string {
	to = strings.TrimSpace(to)
	if to == "" {
		return fallback
	}
	if strings.HasPrefix(to, "/") {
		if strings.HasPrefix(to, "//") {
			return fallback
		}
		return to
	}

	parsed, err := url.Parse(to)
	if err != nil {
		return fallback
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fallback
	}
	if parsed.Host == "" || !strings.EqualFold(parsed.Host, r.Host) {
		return fallback
	}
	return to
}
