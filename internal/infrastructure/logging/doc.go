// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Command line tools use CLIConfig, which writes to stderr.
//
// Components receive a plain *zap.Logger obtained with Component, so the
// docuseal core never depends on this package.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	relayLog := logger.Component("relay")
package logging
