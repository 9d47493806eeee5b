package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/compiler"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/aretw0/flowkit/pkg/schema"
)

// ConversationHeader carries the conversation ID of a tool invocation.
const ConversationHeader = "X-Conversation-ID"

// Watcher emits a notification every time the flow definition changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// Server exposes flow inspection, tool invocation and validation over HTTP.
type Server struct {
	loader    ports.FlowLoader
	compiler  *compiler.Compiler
	listing   *compiler.Compiler
	validator *schema.Validator
	synth     *model.Synthesizer
	metrics   *metrics.Recorder
	watcher   Watcher
	version   string
	logger    *slog.Logger

	transitioner ports.Transitioner
	collector    ports.DataCollector
	compilerOpts []compiler.Option
}

// Option configures the Server.
type Option func(*Server)

// WithCallbacks enables tool invocation. Without callbacks the invoke route answers 501.
func WithCallbacks(t ports.Transitioner, dc ports.DataCollector) Option {
	return func(s *Server) {
		s.transitioner, s.collector = t, dc
	}
}

// WithCompilerOptions passes options to the tool compiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(s *Server) {
		s.compilerOpts = append(s.compilerOpts, opts...)
	}
}

// WithValidator sets the schema validator.
func WithValidator(v *schema.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithSynthesizer sets the model synthesizer.
func WithSynthesizer(synth *model.Synthesizer) Option {
	return func(s *Server) {
		if synth != nil {
			s.synth = synth
		}
	}
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithWatcher enables the /events stream.
func WithWatcher(w Watcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
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

// NewServer creates a server reading the flow from loader on every request,
// so a reloaded definition is served without restart.
func NewServer(loader ports.FlowLoader, opts ...Option) (*Server, error) {
	s := &Server{
		loader:  loader,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = schema.NewValidator(schema.WithLogger(s.logger), schema.WithMetrics(s.metrics))
	}
	if s.synth == nil {
		s.synth = model.New(model.WithLogger(s.logger), model.WithMetrics(s.metrics))
	}
	if s.metrics != nil {
		s.compilerOpts = append(s.compilerOpts, compiler.WithMetrics(s.metrics))
	}

	var err error
	s.listing, err = compiler.New(callbacks.Discard, callbacks.Discard, s.compilerOpts...)
	if err != nil {
		return nil, err
	}
	if s.transitioner != nil || s.collector != nil {
		s.compiler, err = compiler.New(s.transitioner, s.collector, s.compilerOpts...)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/flow", s.GetFlow)
	r.Get("/nodes/{nodeID}/tools", s.ListTools)
	r.Post("/nodes/{nodeID}/tools/{tool}", s.InvokeTool)
	r.Get("/model", s.GetModel)
	r.Post("/validate", s.Validate)
	r.Post("/schemas/check", s.CheckSchema)
	r.Get("/events", s.SubscribeEvents)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ConversationHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowkit-http",
		"version": s.version,
	})
}

// GetFlow handles the GET /flow request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.loadFlow(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, flow)
}

// ListTools handles the GET /nodes/{nodeID}/tools request.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	tools, ok := s.nodeTools(w, r, s.listing)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tools)
}

// invokeRequest is the body of a tool invocation.
type invokeRequest struct {
	Arguments      map[string]any `json:"arguments"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// InvokeTool handles the POST /nodes/{nodeID}/tools/{tool} request.
func (s *Server) InvokeTool(w http.ResponseWriter, r *http.Request) {
	if s.compiler == nil {
		s.writeError(w, http.StatusNotImplemented, "tool invocation is not configured")
		return
	}

	var body invokeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body")
			s.logger.Warn("InvokeTool: Invalid request body", "err", err)
			return
		}
	}

	tools, ok := s.nodeTools(w, r, s.compiler)
	if !ok {
		return
	}
	name := chi.URLParam(r, "tool")
	var tool *domain.Tool
	for i := range tools {
		if tools[i].Name == name {
			tool = &tools[i]
			break
		}
	}
	if tool == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("tool %s not found", name))
		return
	}

	ctx := r.Context()
	convID := body.ConversationID
	if convID == "" {
		convID = r.Header.Get(ConversationHeader)
	}
	if convID != "" {
		ctx = callbacks.WithConversationID(ctx, convID)
	}

	if err := tool.Invoke(ctx, body.Arguments); err != nil {
		var rejected *callbacks.RejectedError
		if errors.As(err, &rejected) {
			s.writeError(w, http.StatusUnprocessableEntity, rejected.Message())
			return
		}
		s.logger.Error("Tool invocation failed", "tool", name, "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"kind":           string(tool.Kind),
		"target_node_id": tool.TargetNodeID,
	})
}

// GetModel handles the GET /model request. The model is returned as a JSON schema
// with properties in field order; ?name= overrides the title.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	flow, ok := s.loadFlow(w, r)
	if !ok {
		return
	}
	m, err := s.synth.Synthesize(flow, r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// validateRequest is the body of POST /validate.
type validateRequest struct {
	Data   map[string]any  `json:"data"`
	Schema schema.Document `json:"schema"`
}

// Validate handles the POST /validate request. Invalid data is a 200 with valid=false.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.writeJSON(w, http.StatusOK, s.validator.Validate(r.Context(), body.Data, body.Schema))
}

// CheckSchema handles the POST /schemas/check request. The body is the schema itself.
func (s *Server) CheckSchema(w http.ResponseWriter, r *http.Request) {
	var doc schema.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": s.validator.IsValidSchema(r.Context(), doc)})
}

// SubscribeEvents handles the GET /events request (SSE). Every change of the
// flow definition is pushed as a data line.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		s.writeError(w, http.StatusNotImplemented, "watching is not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	events, err := s.watcher.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Watch error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) loadFlow(w http.ResponseWriter, r *http.Request) (*domain.Flow, bool) {
	flow, err := s.loader.LoadFlow(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrFlowNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Error("Failed to load flow", "err", err)
		s.writeError(w, status, err.Error())
		return nil, false
	}
	return flow, true
}

func (s *Server) nodeTools(w http.ResponseWriter, r *http.Request, c *compiler.Compiler) ([]domain.Tool, bool) {
	flow, ok := s.loadFlow(w, r)
	if !ok {
		return nil, false
	}
	node, err := flow.Node(chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	tools, err := c.CompileToolsForNode(*node)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return tools, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
