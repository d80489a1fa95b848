package common

import (
	"net/url"
	"strings"
)

const apiScript = "api.php"

// EnsureScheme prefixes http:// when the instance URL was typed without a
// scheme, e.g. "mp.example.com".
func EnsureScheme(instanceURL string) string {
	instanceURL = strings.TrimSpace(instanceURL)

	lower := strings.ToLower(instanceURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return instanceURL
	}

	return "http://" + instanceURL
}

// HostFromURL returns the host part (including any port) of an instance
// URL. This is what the device stores as server_ip.
func HostFromURL(instanceURL string) string {
	if u, err := url.Parse(instanceURL); err == nil && len(u.Host) > 0 {
		return u.Host
	}

	// Not parseable as a URL, cut between "//" and the next "/"
	host := instanceURL
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

// APIEndpoint appends the api.php script to the instance URL, normalising
// the trailing slash.
func APIEndpoint(instanceURL string) string {
	if !strings.HasSuffix(instanceURL, "/") {
		instanceURL += "/"
	}
	return instanceURL + apiScript
}
