// Package types defines the JSON bodies of the HTTP API.
//
// Handlers answer with these types, and the CLI and tests decode them.
package types
