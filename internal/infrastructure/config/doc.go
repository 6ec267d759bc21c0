// Package config provides 12-factor configuration management for the embed server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, gzip)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - DocuSeal: Form host, allowed hosts, message target origin, presets file
//   - Frame: Default iframe title, height bounds, fullscreen
//   - Retry: Attempts and base delay for outbound calls
//   - Probe: Form reachability checks
//   - CORS: Allowed origins for the JSON API
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SERVER_GZIP
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DOCUSEAL_HOST, DOCUSEAL_ALLOWED_HOSTS, DOCUSEAL_TARGET_ORIGIN, DOCUSEAL_PRESETS
//   - FRAME_TITLE, FRAME_MIN_HEIGHT, FRAME_MAX_HEIGHT, FRAME_ALLOW_FULLSCREEN
//   - RETRY_MAX, RETRY_DELAY
//   - PROBE_ENABLED, PROBE_TIMEOUT, PROBE_RPS
//   - CORS_ALLOW_ORIGINS
package config
