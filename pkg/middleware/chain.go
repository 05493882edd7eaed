package middleware

import "net/http"

// SetChain wraps h with middlewares, the first one being the outermost.
func SetChain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

// SetRouteChain is SetChain for a single route handler.
func SetRouteChain(h http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) http.HandlerFunc {
	return SetChain(h, middlewares...).ServeHTTP
}
