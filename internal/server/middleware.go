package server

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"ofertaglobal/dealfinder/logger"

	"github.com/rs/cors"
)

// Recovery turns a handler panic into a 500 problem response
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().
						Interface("panic", err).
						Str("path", r.URL.Path).
						Str("method", r.Method).
						Str("stack", string(debug.Stack())).
						Msg("Panic recovered")

					RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLog logs every request at debug level
func RequestLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("elapsed", time.Since(start)).
				Msg("Request served")
		})
	}
}

// CORS allows the JSON API to be called from the given comma separated origins
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := make([]string, 0)
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed = append(allowed, origin)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	return c.Handler
}
