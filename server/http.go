package server

import (
	"context"
	"net/http"

	"github.com/gqlmcp/graphql-mcp/server/transport/sse"
	"github.com/gqlmcp/graphql-mcp/server/transport/streamable"
)

// HTTP creates and returns an HTTP server mounting both transports behind
// the configured middleware chain.
func (s *Server) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		// Default bind only to localhost to reduce DNS rebinding risk
		addr = "127.0.0.1:5000"
	}
	// Defaults if not provided via options
	if s.sseURI == "" {
		s.sseURI = "/sse"
	}
	if s.sseMessageURI == "" {
		s.sseMessageURI = "/message"
	}
	if s.streamableURI == "" {
		s.streamableURI = "/mcp"
	}

	// SSE and Streamable handlers with configured URIs
	s.sseHandler = sse.New(s.NewHandler,
		sse.WithURI(s.sseURI),
		sse.WithMessageURI(s.sseMessageURI),
		sse.WithIdleTimeout(s.idleTimeout),
		sse.WithLogger(s.logger),
	)
	s.streamableHandler = streamable.New(s.NewHandler,
		streamable.WithURI(s.streamableURI),
		streamable.WithIdleTimeout(s.idleTimeout),
		streamable.WithLogger(s.logger),
	)
	mux := http.NewServeMux()

	var middlewareHandlers []Middleware
	if s.apiKey != "" {
		middlewareHandlers = append(middlewareHandlers, apiKeyMiddleware(s.apiKey))
	}
	// Validate MCP-Protocol-Version and set response header
	middlewareHandlers = append(middlewareHandlers, protocolVersionMiddleware())
	if s.corsConfig != nil {
		handler := &corsHandler{Cors: s.corsConfig}
		middlewareHandlers = append(middlewareHandlers, handler.Middleware)
		// Validate Origin on all requests (uses configured CORS allowlist)
		middlewareHandlers = append(middlewareHandlers, originValidationMiddleware(s.corsConfig.AllowOrigins))
	}
	// Wrap handlers with middleware
	sseChain := ChainMiddlewareHandlers(s.sseHandler, middlewareHandlers...)
	streamChain := ChainMiddlewareHandlers(s.streamableHandler, middlewareHandlers...)

	// Mount handlers at their base URIs
	mux.Handle(s.sseURI, sseChain)
	mux.Handle(s.sseMessageURI, sseChain)
	mux.Handle(s.streamableURI, streamChain)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return server
}

// Shutdown sweeps both session registries, closing every live session.
func (s *Server) Shutdown() {
	if s.streamableHandler != nil {
		s.streamableHandler.Shutdown()
	}
	if s.sseHandler != nil {
		s.sseHandler.Shutdown()
	}
}
