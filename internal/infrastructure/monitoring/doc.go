/*
Package monitoring provides Prometheus metrics for the embed server.

# Overview

Every Metrics value owns its registry, so servers built in tests never
collide on metric names. The registry carries the Go and process collectors
as well as the service metrics below.

# Metrics

- HTTP requests by route template (count, latency, response size)
- Embed pages rendered and form URLs built
- Inbound frame messages by event kind and outcome
- Outbound frame messages by type and delivery
- Retried attempts, probe results and latency, circuit breaker state
- Bridge WebSocket connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordClassified("completed", "accepted")
*/
package monitoring
