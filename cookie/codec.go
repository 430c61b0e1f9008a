// Package cookie encodes and decodes session cookies with explicit security
// attributes.
//
// The codec renders Set-Cookie values itself instead of going through
// net/http.Cookie: the session contract requires percent-encoded values,
// a deterministic attribute order, and last-seen-wins decode semantics,
// none of which http.Cookie guarantees across Go versions.
package cookie

import (
	"net/url"
	"strconv"
	"strings"
)

// Attributes holds the security attributes rendered into a Set-Cookie value.
// MaxAge distinguishes three cases: nil means a session-lifetime cookie,
// zero signals immediate expiry (used for clearing), positive is seconds.
type Attributes struct {
	Path     string
	Domain   string
	SameSite string
	HTTPOnly bool
	Secure   bool
	MaxAge   *int
}

// Encode renders a single Set-Cookie value with the value percent-encoded
// and attributes in deterministic order:
// Path, HttpOnly, Secure, SameSite, Max-Age, Domain.
func Encode(name, value string, attrs Attributes) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))

	path := attrs.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; Path=")
	b.WriteString(path)

	if attrs.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if attrs.Secure {
		b.WriteString("; Secure")
	}
	if attrs.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(attrs.SameSite)
	}
	if attrs.MaxAge != nil {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(*attrs.MaxAge))
	}
	if attrs.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(attrs.Domain)
	}
	return b.String()
}

// Clear renders a Set-Cookie value that expires the named cookie immediately.
// Clearing a cookie that was never set is a harmless no-op on the client.
func Clear(name string, attrs Attributes) string {
	zero := 0
	attrs.MaxAge = &zero
	return Encode(name, "", attrs)
}

// Decode parses a Cookie request header into a name-to-value map.
// Entries are split on ';', trimmed, and split on the first '=' only, so
// values may themselves contain '='. Values are percent-decoded; a value
// that fails decoding is kept raw. Malformed entries (no '=', empty name)
// are skipped. When a name repeats, the last occurrence wins, mirroring
// cookie-jar overwrite semantics relied on during refresh.
func Decode(header string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(header, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		name := kv[:i]
		value := kv[i+1:]
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out[name] = value
	}
	return out
}
