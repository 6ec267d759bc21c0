// Package probe checks DocuSeal form URLs before they are embedded.
//
// A probe fetches the form page through a resty client and reports the
// status, whether frame embedding is blocked by X-Frame-Options or a CSP
// frame-ancestors directive, the sniffed MIME type and charset, and the page
// title. Transport errors and 5xx/429 responses are retried with
// docuseal.Retry. Each host has its own circuit breaker.
//
//	prober := probe.New(probe.DefaultConfig(), logger, metrics)
//	report, err := prober.Probe(ctx, "https://docuseal.com/d/abc")
package probe
