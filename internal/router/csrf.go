package router

import (
	"net/http"
	"net/url"
	"strings"
)

const messageForbidden = "Forbidden"

// sameOriginOnly rejects state-changing browser requests issued by another
// origin. Requests without Origin and Sec-Fetch-Site come from non-browser
// clients and pass.
func sameOriginOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if isSafeMethod(request.Method) {
			next.ServeHTTP(response, request)
			return
		}

		if strings.EqualFold(request.Header.Get("Sec-Fetch-Site"), "cross-site") {
			writeErrors(response, http.StatusForbidden, messageForbidden)
			return
		}

		if origin := request.Header.Get("Origin"); origin != "" && !sameHost(origin, request.Host) {
			writeErrors(response, http.StatusForbidden, messageForbidden)
			return
		}

		next.ServeHTTP(response, request)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// sameHost compares the host of an Origin header with the request host.
// The scheme is ignored since TLS may end at a proxy.
func sameHost(origin, host string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.EqualFold(parsed.Host, host)
}
