package docuseal

import (
	"net/url"
	"strings"
)

// DefaultHosts are the DocuSeal cloud domains accepted by IsValidDocuSealURL.
var DefaultHosts = []string{"docuseal.co", "docuseal.com"}

// Params is a set of query parameters. A nil value is undefined and skipped.
type Params map[string]*string

// String returns a defined Params value
func String(v string) *string {
	return &v
}

// Set defines key and returns p for chaining
func (p Params) Set(key, value string) Params {
	p[key] = String(value)
	return p
}

// BuildFormURL returns base with every defined parameter set on its query
// string. Existing keys with the same name are overwritten, all other keys
// of base are kept.
func BuildFormURL(base string, params Params) (string, error) {
	u, err := parseAbsolute(base)
	if err != nil {
		return "", err
	}

	if len(params) > 0 {
		q := u.Query()
		for key, value := range params {
			if value == nil {
				continue
			}
			q.Set(key, *value)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// IsValidDocuSealURL reports whether raw is an absolute http(s) URL served
// from one of hosts (DefaultHosts when none are given) or one of their
// subdomains.
func IsValidDocuSealURL(raw string, hosts ...string) bool {
	u, err := parseAbsolute(raw)
	if err != nil || !webScheme(u.Scheme) {
		return false
	}
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	return hostAllowed(u.Hostname(), hosts)
}

// OriginOf returns the scheme://host[:port] origin of an absolute http(s) URL.
func OriginOf(raw string) (string, error) {
	u, err := parseAbsolute(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" || !webScheme(u.Scheme) {
		return "", &InvalidURLError{URL: raw}
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}

func webScheme(scheme string) bool {
	return strings.EqualFold(scheme, "https") || strings.EqualFold(scheme, "http")
}

// hostAllowed matches hostname against hosts exactly or as a subdomain.
func hostAllowed(hostname string, hosts []string) bool {
	hostname = strings.ToLower(hostname)
	if hostname == "" {
		return false
	}
	for _, host := range hosts {
		host = normalizeHost(host)
		if host == "" {
			continue
		}
		if hostname == host || strings.HasSuffix(hostname, "."+host) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(host)), ".")
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &InvalidURLError{URL: raw, Err: err}
	}
	if !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return nil, &InvalidURLError{URL: raw}
	}
	return u, nil
}
