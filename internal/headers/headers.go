// Package headers filters HTTP header sets for the relay.
package headers

import (
	"net/http"
)

// RequestDenyList holds connection-specific request headers that are never
// forwarded upstream. The outbound transport sets its own values for these.
var RequestDenyList = []string{
	"Host",
	"Connection",
	"Transfer-Encoding",
	"Content-Length",
	"Accept-Encoding",
}

// ResponseDenyList holds upstream response headers that describe the upstream
// hop's framing and are never replayed to the caller.
var ResponseDenyList = []string{
	"Content-Encoding",
	"Transfer-Encoding",
	"Connection",
}

// ProxyHopByHop is the RFC 7230 hop-by-hop set stripped from inbound requests
// before any handler sees them.
var ProxyHopByHop = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Filter returns a copy of src without the names in deny. Names are compared
// case-insensitively, and keys of src that differ only in case are merged
// under their canonical form. src is not modified.
func Filter(src http.Header, deny []string) http.Header {
	denied := make(map[string]struct{}, len(deny))
	for _, name := range deny {
		denied[http.CanonicalHeaderKey(name)] = struct{}{}
	}

	dst := make(http.Header, len(src))
	for key, vals := range src {
		canon := http.CanonicalHeaderKey(key)
		if _, drop := denied[canon]; drop {
			continue
		}
		dst[canon] = append(dst[canon], vals...)
	}
	return dst
}

// Strip deletes the names in deny from h in place.
func Strip(h http.Header, deny []string) {
	for key := range h {
		for _, name := range deny {
			if http.CanonicalHeaderKey(key) == http.CanonicalHeaderKey(name) {
				delete(h, key)
				break
			}
		}
	}
}
