package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/compiler"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
)

const (
	// FlowURI exposes the loaded flow definition.
	FlowURI = "flowkit://flow"
	// ModelURI exposes the synthesized user-data model as a JSON schema.
	ModelURI = "flowkit://model"
)

var emptyParameters = json.RawMessage(`{"type":"object","properties":{}}`)

// Server exposes the tools of the active node over MCP.
// The active node is shared by every session; stdio serves a single one.
type Server struct {
	flow      *domain.Flow
	model     *model.Model
	compiler  *compiler.Compiler
	mcpServer *server.MCPServer

	name, version string
	follow        bool
	compilerOpts  []compiler.Option
	logger        *slog.Logger

	mu      sync.RWMutex
	current string
	active  []string
}

// Option configures the Server.
type Option func(*Server)

// WithImplementation sets the name and version announced to clients.
func WithImplementation(name, version string) Option {
	return func(s *Server) {
		s.name, s.version = name, version
	}
}

// WithModel publishes m under ModelURI.
func WithModel(m *model.Model) Option {
	return func(s *Server) {
		s.model = m
	}
}

// WithFollowTransitions controls whether a successful transition exposes the
// target node's tools. Enabled by default.
func WithFollowTransitions(follow bool) Option {
	return func(s *Server) {
		s.follow = follow
	}
}

// WithCompilerOptions passes options to the tool compiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(s *Server) {
		s.compilerOpts = append(s.compilerOpts, opts...)
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server for flow. t and dc receive the tool calls.
func NewServer(flow *domain.Flow, t ports.Transitioner, dc ports.DataCollector, opts ...Option) (*Server, error) {
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}
	s := &Server{
		flow:    flow,
		name:    "flowkit-mcp",
		version: "dev",
		follow:  true,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if t != nil {
		t = &follower{next: t, server: s}
	}
	s.compiler, err = compiler.New(t, dc, s.compilerOpts...)
	if err != nil {
		return nil, err
	}

	s.mcpServer = server.NewMCPServer(s.name, s.version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Current returns the active node ID, or "" before the first Expose.
func (s *Server) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Active returns the names of the tools currently exposed.
func (s *Server) Active() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.active...)
}

// Expose replaces the exposed tools with those of nodeID.
func (s *Server) Expose(nodeID string) error {
	node, err := s.flow.Node(nodeID)
	if err != nil {
		return err
	}
	tools, err := s.compiler.CompileToolsForNode(*node)
	if err != nil {
		return fmt.Errorf("node %s: %w", nodeID, err)
	}

	serverTools := make([]server.ServerTool, 0, len(tools))
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		st, err := s.serverTool(tool)
		if err != nil {
			return err
		}
		serverTools = append(serverTools, st)
		names = append(names, tool.Name)
	}

	s.mu.Lock()
	s.current = nodeID
	s.active = names
	s.mu.Unlock()

	s.mcpServer.SetTools(serverTools...)
	s.logger.Debug("Exposed node tools", "node_id", nodeID, "tools", names)
	return nil
}

func (s *Server) serverTool(tool domain.Tool) (server.ServerTool, error) {
	params := emptyParameters
	if len(tool.Parameters) > 0 {
		raw, err := json.Marshal(tool.Parameters)
		if err != nil {
			return server.ServerTool{}, fmt.Errorf("tool %s: failed to marshal parameters: %w", tool.Name, err)
		}
		params = raw
	}
	return server.ServerTool{
		Tool:    mcp.NewToolWithRawSchema(tool.Name, tool.Description, params),
		Handler: s.handler(tool),
	}, nil
}

func (s *Server) handler(tool domain.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if callbacks.ConversationID(ctx) == "" {
			if session := server.ClientSessionFromContext(ctx); session != nil {
				ctx = callbacks.WithConversationID(ctx, session.SessionID())
			}
		}

		if err := tool.Invoke(ctx, request.GetArguments()); err != nil {
			var rejected *callbacks.RejectedError
			if errors.As(err, &rejected) {
				return mcp.NewToolResultError(rejected.Message()), nil
			}
			s.logger.Error("Tool call failed", "tool", tool.Name, "err", err)
			return nil, fmt.Errorf("%s failed: %w", tool.Name, err)
		}

		if tool.Kind == domain.ToolKindTransition {
			return mcp.NewToolResultText(fmt.Sprintf("Transitioned to %s", tool.TargetNodeID)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Data collected via %s", tool.EdgeID)), nil
	}
}

// follower exposes the target node after the wrapped transition succeeds.
type follower struct {
	next   ports.Transitioner
	server *Server
}

func (f *follower) Transition(ctx context.Context, targetNodeID, edgeID string) error {
	if err := f.next.Transition(ctx, targetNodeID, edgeID); err != nil {
		return err
	}
	if !f.server.follow {
		return nil
	}
	if err := f.server.Expose(targetNodeID); err != nil {
		f.server.logger.Warn("Failed to expose target node", "node_id", targetNodeID, "err", err)
	}
	return nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowURI, "Flow Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.flow)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: FlowURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})

	if s.model == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(ModelURI, "User Data Model",
		mcp.WithMIMEType("application/schema+json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := s.model.Document()
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal model: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: ModelURI, MIMEType: "application/schema+json", Text: string(jsonBytes)},
		}, nil
	})
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
