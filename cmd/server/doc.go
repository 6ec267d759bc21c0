// Package main is the entry point for the docuseal-embed server.
//
// The server renders host pages that embed DocuSeal forms, relays the
// messages those forms post back over a websocket, and exposes the URL,
// frame, height and classification helpers as a JSON API.
//
//	Browser page → iframe (DocuSeal) → bridge script → /bridge (relay)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -docuseal https://docuseal.com -presets presets.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
