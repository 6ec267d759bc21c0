// Package http provides HTTP handlers for the embed service.
//
// Endpoints:
//   - Health: / and /health
//   - Pages: /embed/form, /bridge.js
//   - Core: /api/url, /api/frame, /api/height, /api/messages/classify
//   - Probe: /api/probe
//   - Relay: /bridge (websocket), /api/sessions, /api/sessions/:id/messages, /api/messages
//   - Presets: /api/presets
//   - Metrics: /metrics
//
// Errors are returned as {"error": "..."} with a 4xx or 5xx status.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Dependencies{Renderer: renderer, Hub: hub, ...})
//	handlers.Register(router)
package http
