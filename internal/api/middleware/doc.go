// Package middleware provides HTTP middleware for the embed server.
//
// Middleware stack includes:
//   - RequestID: Assigns req_<ulid> IDs, echoed in X-Request-ID
//   - Logger: One zap line per request, level by status
//   - CORS: Cross-origin resource sharing for the JSON API
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
