// Package server provides a session-oriented MCP server implementation.
//
// It multiplexes two HTTP transports (streamable HTTP and legacy SSE) onto
// per-session protocol handlers, with optional middleware such as:
//   - API-key access control
//   - CORS handling and Origin validation
//   - Protocol version negotiation
//
// Callers typically construct a server via `server.New` and then expose it
// over HTTP:
//
//	s, _ := server.New(server.WithNewToolset(myToolset))
//	log.Fatal(s.HTTP(ctx, ":4981").ListenAndServe())
package server
