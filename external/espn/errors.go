package espn

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
)

var ownerTokenParamRegex = regexp.MustCompile(`forTeamOwner=[^&\s"']+`)

// FetchError is a non-2xx provider response. Status carries the
// upstream code so the edge can map 4xx verbatim and fold 5xx into a
// gateway error.
type FetchError struct {
	Status int
	URL    string
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("provider status=%d url=%s body=%s", e.Status, e.URL, e.Body)
}

// IsAuthStatus reports whether the upstream rejected the credential.
func (e *FetchError) IsAuthStatus() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// isCircuitFailure decides what counts against the breaker: transport
// trouble and provider 5xx do, caller mistakes (4xx) do not.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Status >= http.StatusInternalServerError
	}
	return true
}

// redactProviderURL strips the owner token from query strings before
// the URL reaches a log line or an error message.
func redactProviderURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("forTeamOwner") {
		query.Set("forTeamOwner", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func sanitizeSensitiveText(value string, token credential.Token) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if s2 := strings.TrimSpace(token.S2); s2 != "" {
		value = strings.ReplaceAll(value, s2, "REDACTED")
	}
	if swid := strings.TrimSpace(token.SWID); swid != "" {
		value = strings.ReplaceAll(value, swid, "REDACTED")
	}
	return ownerTokenParamRegex.ReplaceAllString(value, "forTeamOwner=REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func newLimitedBody(body io.Reader) io.Reader {
	return io.LimitReader(body, maxResponseBytes)
}
