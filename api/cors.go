package api

import (
	"net/http"

	"github.com/gorilla/handlers"
)

const allOrigins = "*"

// CORS wraps the router with the cross origin headers.
//
// Credentials (the access token cookie) are only allowed for an explicit origin list,
// never together with "*".
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	options := []handlers.CORSOption{
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", TraceHeader}),
	}
	if !matchesAllOrigins(allowedOrigins) {
		options = append(options, handlers.AllowCredentials())
	}
	return handlers.CORS(options...)
}

func matchesAllOrigins(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == allOrigins {
			return true
		}
	}
	return false
}
