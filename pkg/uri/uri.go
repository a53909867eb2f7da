// Package uri provides URI, an immutable value type for a parsed URI.
//
// Every With* method returns a modified copy; the receiver never changes, so
// a URI can be shared freely between requests and goroutines.
package uri

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// URI is a parsed URI. The zero value is the empty URI.
type URI struct {
	scheme   string
	userInfo string
	host     string
	port     int // 0 when absent
	path     string
	query    string
	fragment string
}

// Parse decomposes s into URI components. An empty string yields the empty
// URI. Scheme and host are lowercased; path, query and fragment are kept in
// their escaped form.
func Parse(s string) (URI, error) {
	if s == "" {
		return URI{}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return URI{}, errors.NewError(errors.ErrorTypeInvalidArgument, "unable to parse URI: "+s, "uri.Parse", err)
	}

	var result URI
	result.scheme = strings.ToLower(u.Scheme)
	if u.User != nil {
		result.userInfo = u.User.String()
	}

	host := u.Host
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return URI{}, errors.InvalidArgument("invalid port: "+p, "uri.Parse")
		}
		if err := validatePort(port); err != nil {
			return URI{}, err
		}
		result.port = port
		host = strings.TrimSuffix(host, ":"+p)
	}
	result.host = strings.ToLower(strings.TrimSuffix(host, ":"))

	if u.Opaque != "" {
		result.path = u.Opaque
	} else {
		result.path = u.EscapedPath()
	}
	result.query = u.RawQuery
	result.fragment = u.EscapedFragment()

	return result, nil
}

// MustParse is like Parse but panics on error. For literals in tests and
// program setup.
func MustParse(s string) URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return errors.InvalidArgument("invalid port: "+strconv.Itoa(port)+" (must be between 1 and 65535)", "uri.Port")
	}
	return nil
}

// Scheme returns the lowercased scheme, or ""
func (u URI) Scheme() string { return u.scheme }

// UserInfo returns "user" or "user:password", or ""
func (u URI) UserInfo() string { return u.userInfo }

// Host returns the lowercased host, or ""
func (u URI) Host() string { return u.host }

// Port returns the port and whether one is set
func (u URI) Port() (int, bool) { return u.port, u.port != 0 }

// Path returns the path, or ""
func (u URI) Path() string { return u.path }

// Query returns the query without the leading "?"
func (u URI) Query() string { return u.query }

// Fragment returns the fragment without the leading "#"
func (u URI) Fragment() string { return u.fragment }

// IsEmpty reports whether every component is empty
func (u URI) IsEmpty() bool { return u == URI{} }

// Authority returns "[userinfo@]host[:port]", or "" when there is no host
func (u URI) Authority() string {
	if u.host == "" {
		return ""
	}

	authority := u.host
	if u.userInfo != "" {
		authority = u.userInfo + "@" + authority
	}
	if u.port != 0 {
		authority += ":" + strconv.Itoa(u.port)
	}
	return authority
}

// WithScheme returns a copy with the scheme replaced (lowercased)
func (u URI) WithScheme(scheme string) URI {
	u.scheme = strings.ToLower(scheme)
	return u
}

// WithUserInfo returns a copy with user info set to user, or user:password
// when password is non-empty
func (u URI) WithUserInfo(user, password string) URI {
	if password != "" {
		u.userInfo = user + ":" + password
	} else {
		u.userInfo = user
	}
	return u
}

// WithHost returns a copy with the host replaced (lowercased)
func (u URI) WithHost(host string) URI {
	u.host = strings.ToLower(host)
	return u
}

// WithPort returns a copy with the port replaced. Ports outside 1-65535
// are rejected.
func (u URI) WithPort(port int) (URI, error) {
	if err := validatePort(port); err != nil {
		return u, err
	}
	u.port = port
	return u, nil
}

// WithoutPort returns a copy with no port
func (u URI) WithoutPort() URI {
	u.port = 0
	return u
}

// WithPath returns a copy with the path replaced
func (u URI) WithPath(path string) URI {
	u.path = path
	return u
}

// WithQuery returns a copy with the query replaced. A leading "?" is dropped.
func (u URI) WithQuery(query string) URI {
	u.query = strings.TrimPrefix(query, "?")
	return u
}

// WithFragment returns a copy with the fragment replaced. A leading "#" is dropped.
func (u URI) WithFragment(fragment string) URI {
	u.fragment = strings.TrimPrefix(fragment, "#")
	return u
}

// String reconstructs the URI:
//
//	[scheme:][//authority]path[?query][#fragment]
//
// With an authority the path always starts with "/". Without one a path
// starting with "//" is reduced to a single slash so it cannot be read back
// as an authority.
func (u URI) String() string {
	var b strings.Builder

	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}

	authority := u.Authority()
	if authority != "" {
		b.WriteString("//")
		b.WriteString(authority)
	}

	path := u.path
	switch {
	case authority != "" && !strings.HasPrefix(path, "/"):
		path = "/" + path
	case authority == "" && strings.HasPrefix(path, "//"):
		path = "/" + strings.TrimLeft(path, "/")
	}
	b.WriteString(path)

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// RequestTarget returns the origin-form target "path[?query]", defaulting
// the path to "/"
func (u URI) RequestTarget() string {
	target := u.path
	if target == "" {
		target = "/"
	}
	if u.query != "" {
		target += "?" + u.query
	}
	return target
}

// QueryParams decodes the query into a map. Malformed pairs are skipped.
func (u URI) QueryParams() map[string][]string {
	values, _ := url.ParseQuery(u.query)
	return values
}
