package service

import (
	"math/rand/v2"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// DomainPicker chooses one of the user's configured domains.
type DomainPicker func(domains []string) string

// RandomDomain picks uniformly at random.
func RandomDomain(domains []string) string {
	if len(domains) == 0 {
		return ""
	}
	return domains[rand.IntN(len(domains))]
}

// FirstDomain always picks the first domain.
func FirstDomain(domains []string) string {
	if len(domains) == 0 {
		return ""
	}
	return domains[0]
}

// normalizeDomain strips scheme and path and converts the host to its ASCII form,
// keeping any port.
func normalizeDomain(raw string) string {
	host := strings.TrimSpace(raw)
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return ""
	}
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		name, port = host, ""
	}
	if ascii, err := idna.Lookup.ToASCII(name); err == nil {
		name = ascii
	} else {
		name = strings.ToLower(name)
	}
	if port != "" {
		return net.JoinHostPort(name, port)
	}
	return name
}

// buildURL joins protocol, domain, upload route and the file token.
func buildURL(https bool, domain, route, token string) string {
	proto := "http"
	if https {
		proto = "https"
	}
	prefix := "/"
	if route != "/" && route != "" {
		prefix = "/" + strings.Trim(route, "/") + "/"
	}
	return proto + "://" + domain + prefix + url.PathEscape(token)
}
