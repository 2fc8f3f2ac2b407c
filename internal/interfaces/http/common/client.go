package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address. Forwarding headers are only honoured when
// trustedProxies > 0: each trusted proxy appends one X-Forwarded-For hop, so the
// client is the hop trustedProxies positions from the right and anything further
// left was supplied by the client. Without trusted proxies the connection address
// is used.
func ClientIP(r *http.Request, trustedProxies int) string {
	remote := remoteHost(r.RemoteAddr)
	if trustedProxies <= 0 {
		return remote
	}

	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(header, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	if len(hops) == 0 {
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
			return realIP
		}
		return remote
	}

	idx := len(hops) - trustedProxies
	if idx < 0 {
		idx = 0
	}
	if net.ParseIP(hops[idx]) == nil {
		return remote
	}
	return hops[idx]
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.TrimSpace(addr)
	}
	return host
}
