// Package server wires configuration, logging, metrics and the HTTP API
// into a runnable server.
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(cfg)
//	go srv.Run()
//	defer srv.Close()
package server
