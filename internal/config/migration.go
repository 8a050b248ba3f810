package config

import (
	"net/url"
	"strconv"
	"strings"
)

// splitViewerURL converts a legacy viewer_url into a host and port.
// Both "http://host:port" and bare "host:port" are accepted. A missing or
// unparsable port becomes DefaultViewerPort and an empty host becomes
// DefaultViewerHost.
func splitViewerURL(raw string) (string, int) {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return orDefaultHost(u.Hostname()), orDefaultPort(leadingInt(u.Port()))
	}

	s := strings.TrimPrefix(raw, "http://")
	s = strings.TrimPrefix(s, "https://")
	parts := strings.Split(s, ":")

	host := parts[0]
	port := 0
	if len(parts) > 1 {
		port = leadingInt(parts[1])
	}
	return orDefaultHost(host), orDefaultPort(port)
}

// leadingInt parses the decimal digits at the start of s, ignoring the rest.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func orDefaultHost(host string) string {
	if host == "" {
		return DefaultViewerHost
	}
	return host
}

func orDefaultPort(port int) int {
	if port == 0 {
		return DefaultViewerPort
	}
	return port
}
