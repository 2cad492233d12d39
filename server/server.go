package server

import (
	"context"
	"errors"
	"time"

	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcp-protocol/syncmap"
	"go.uber.org/zap"

	"github.com/gqlmcp/graphql-mcp/server/transport"
	"github.com/gqlmcp/graphql-mcp/server/transport/sse"
	"github.com/gqlmcp/graphql-mcp/server/transport/streamable"
)

// Server hosts the protocol surface shared by every session and builds the
// per-session handler bound to each new transport.
type Server struct {
	capabilities schema.ServerCapabilities
	info         schema.Implementation
	newToolset   NewToolset

	instructions    *string
	protocolVersion string
	loggerName      string

	addr          string
	streamableURI string
	sseURI        string
	sseMessageURI string
	idleTimeout   time.Duration
	apiKey        string
	corsConfig    *Cors
	logger        *zap.Logger

	streamableHandler *streamable.Handler
	sseHandler        *sse.Handler
}

// NewHandler creates a new handler instance bound 1:1 to the session
// transport.
func (s *Server) NewHandler(ctx context.Context, transport transport.Transport) transport.Handler {
	return s.newHandler(ctx, transport)
}

func (s *Server) newHandler(ctx context.Context, transport transport.Transport) *Handler {
	ret := &Handler{
		Server:         s,
		Notifier:       transport,
		activeContexts: syncmap.NewMap[int, *activeContext](),
	}
	ret.Logger = NewLogger(s.loggerName, &ret.loggingLevel, ret.Notifier)
	ret.toolset, ret.err = s.newToolset(ctx, transport, ret.Logger)
	return ret
}

// New creates a new Server instance
func New(options ...Option) (*Server, error) {
	// initialize server
	s := &Server{
		capabilities: schema.ServerCapabilities{Tools: &schema.ServerCapabilitiesTools{}},
		info: schema.Implementation{
			Name:    "graphql-mcp",
			Version: "0.1",
		},
		loggerName:      "server",
		protocolVersion: schema.LatestProtocolVersion,
		corsConfig:      defaultCors(),
		logger:          zap.NewNop(),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	if s.newToolset == nil {
		return nil, errors.New("no toolset specified")
	}
	return s, nil
}
