// Package server implements the session engine and connection acceptor
// described in §4.5/§4.6: a goroutine-per-connection acceptor hands each
// accepted control socket to a session that reads one control line at a
// time, dispatches terminal/non-data/data-bearing commands, and enforces
// that at most one data socket is open per session at any instant.
//
// Basic usage:
//
//	srv := server.New(server.WithLogger(logger))
//	log.Fatal(srv.ListenAndServe(":49999"))
package server
