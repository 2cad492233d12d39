package server

import (
	"time"

	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithCORS overrides the default permissive CORS policy.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		s.corsConfig = cors
		return nil
	}
}

// WithAPIKey enables shared-secret access control; an empty key leaves it
// disabled.
func WithAPIKey(key string) Option {
	return func(s *Server) error {
		s.apiKey = key
		return nil
	}
}

// WithImplementation sets the server implementation.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithNewToolset sets the per-session toolset factory.
func WithNewToolset(newToolset NewToolset) Option {
	return func(s *Server) error {
		s.newToolset = newToolset
		return nil
	}
}

// WithInstructions sets the instructions handed to clients at initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		s.instructions = &instructions
		return nil
	}
}

// WithLoggerName sets the logger name.
func WithLoggerName(name string) Option {
	return func(s *Server) error {
		s.loggerName = name
		return nil
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithAddr sets the default listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithIdleTimeout overrides the session idle deadline on both transports.
func WithIdleTimeout(ttl time.Duration) Option {
	return func(s *Server) error {
		s.idleTimeout = ttl
		return nil
	}
}

// WithStreamableURI overrides the streamable-HTTP endpoint path.
func WithStreamableURI(uri string) Option {
	return func(s *Server) error {
		s.streamableURI = uri
		return nil
	}
}

// WithSSEURI overrides the SSE stream and message endpoint paths.
func WithSSEURI(streamURI, messageURI string) Option {
	return func(s *Server) error {
		s.sseURI = streamURI
		s.sseMessageURI = messageURI
		return nil
	}
}
