// Package cookies parses and renders the Cookie and Set-Cookie headers.
// Parsing never fails: malformed input yields whatever could be recovered.
package cookies

import (
	"strconv"
	"strings"
	"time"
)

// Cookie is one name=value pair from a Cookie request header
type Cookie struct {
	Name  string
	Value string
}

// Parse parses a Cookie header value.
// Format: "name1=value1; name2=value2". A part without "=" becomes a
// cookie with an empty value; surrounding quotes on values are removed.
func Parse(header string) []Cookie {
	if header == "" {
		return []Cookie{}
	}

	cookies := make([]Cookie, 0, strings.Count(header, ";")+1)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !found {
			cookies = append(cookies, Cookie{Name: name})
			continue
		}
		cookies = append(cookies, Cookie{Name: name, Value: unquote(strings.TrimSpace(value))})
	}

	return cookies
}

// Params parses one or more Cookie header values into a name -> value map.
// When a name repeats the first occurrence wins, as browsers send the most
// specific cookie first.
func Params(headerValues ...string) map[string]string {
	params := make(map[string]string)
	for _, header := range headerValues {
		for _, c := range Parse(header) {
			if _, exists := params[c.Name]; !exists {
				params[c.Name] = c.Value
			}
		}
	}
	return params
}

// Header renders cookies as a Cookie header value: "name1=value1; name2=value2"
func Header(cookies []Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// expiresLayout is the IMF-fixdate form used for Expires
const expiresLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// SameSite values
const (
	SameSiteLax    = "Lax"
	SameSiteStrict = "Strict"
	SameSiteNone   = "None"
)

// SetCookie is a cookie sent in a Set-Cookie response header
type SetCookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time // Zero means not set
	MaxAge   int       // Seconds; 0 means not set, negative means delete now
	Secure   bool
	HttpOnly bool
	SameSite string
}

// String renders the Set-Cookie header value.
// Format: "name=value; Path=/; Domain=example.com; Expires=...; Max-Age=3600; Secure; HttpOnly; SameSite=Strict"
func (c SetCookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(expiresLayout))
	}
	switch {
	case c.MaxAge > 0:
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	case c.MaxAge < 0:
		b.WriteString("; Max-Age=0")
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(c.SameSite)
	}

	return b.String()
}

// ParseSetCookie parses a Set-Cookie header value. Best effort: unknown
// attributes are ignored and an unparsable Expires or Max-Age is dropped.
func ParseSetCookie(header string) SetCookie {
	var cookie SetCookie
	if header == "" {
		return cookie
	}

	parts := strings.Split(header, ";")

	name, value, _ := strings.Cut(strings.TrimSpace(parts[0]), "=")
	cookie.Name = strings.TrimSpace(name)
	cookie.Value = unquote(strings.TrimSpace(value))

	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}

		key, value, hasValue := strings.Cut(attr, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if !hasValue {
			switch key {
			case "secure":
				cookie.Secure = true
			case "httponly":
				cookie.HttpOnly = true
			}
			continue
		}

		switch key {
		case "path":
			cookie.Path = value
		case "domain":
			cookie.Domain = value
		case "expires":
			if t, err := time.Parse(expiresLayout, value); err == nil {
				cookie.Expires = t
			} else if t, err := time.Parse(time.RFC1123, value); err == nil {
				cookie.Expires = t
			}
		case "max-age":
			if n, err := strconv.Atoi(value); err == nil {
				if n <= 0 {
					n = -1
				}
				cookie.MaxAge = n
			}
		case "samesite":
			cookie.SameSite = value
		}
	}

	return cookie
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}
