package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests. Use ["*"] to allow all (not recommended for production).
	// Example: ["https://soulmate.yourdomain.com", "http://localhost:5173"]
	AllowedOrigins []string
}

// CORS returns middleware that handles Cross-Origin Resource Sharing
// headers. The frontend SPA runs on a different origin in development
// (Vite dev server), so every /api route must answer preflights.
//
// Bearer-token auth means no cookies cross origins, so credentials
// support is deliberately not offered here.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	// Build a set for fast origin lookup.
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			// No Origin header means same-origin request -- skip CORS.
			if origin == "" {
				return next(c)
			}

			// Origin not in whitelist -- proceed without CORS headers.
			// The browser will block the response on the client side.
			allowed := allowAll || originSet[origin]
			if !allowed {
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Set("Vary", "Origin")

			// Handle preflight OPTIONS requests.
			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, DELETE, OPTIONS")
				res.Header().Set("Access-Control-Allow-Headers",
					"Authorization, Content-Type")
				res.Header().Set("Access-Control-Max-Age", "86400")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
