// Package mftp implements the client half of a minimal, FTP-like
// file-transfer protocol: a persistent line-oriented control
// connection plus on-demand data connections for directory listings
// and file bodies.
//
// # Basic usage
//
// A session is driven interactively:
//
//	client, err := mftp.Dial("files.example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run reads shell-like command lines from stdin ("cd", "rcd", "ls",
// "rls", "get", "show", "put", "exit"), dispatching each to local
// execution, a single control-message round trip, or a full
// handshake-plus-transfer sequence, per the wire protocol in package
// protocol.
//
// # Error handling
//
// Errors returned during a session distinguish protocol violations
// (*protocol.ProtocolError) from transport failures
// (*protocol.TransportError); a failure the server reports in an E
// response is a *ServerError, whose message carries a "Server error:"
// prefix.
//
// The server half lives in the sibling package server.
package mftp
