package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/forestml"
	"github.com/aretw0/forestml/internal/logging"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// modelsURI lists every registered model as a resource.
const modelsURI = "forestml://models"

// EncodeResponse is the result of the encode_model tool.
type EncodeResponse struct {
	*domain.ModelMetadata
	Commands     []string `json:"commands"`
	UsedFeatures []string `json:"used_features"`
}

// Server exposes the publish and score services as an MCP Server.
type Server struct {
	publisher *service.Publisher
	scorer    *service.Scorer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(pub *service.Publisher, sc *service.Scorer, opts ...Option) *Server {
	s := &Server{
		publisher: pub,
		scorer:    sc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("forestml-mcp", strings.TrimSpace(forestml.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("encode_model",
		mcp.WithDescription("Encode a trained tree model into add commands without registering it."),
		mcp.WithString("model", mcp.Required(),
			mcp.Description("JSON model document: algorithm, feature_names, outputs and trees in parallel-array layout")),
	), s.handleEncode)

	s.mcpServer.AddTool(mcp.NewTool("build_run_command",
		mcp.WithDescription("Build the run command scoring a record against a model key."),
		mcp.WithString("model_key", mcp.Required(), mcp.Description("Key of the registered model")),
		mcp.WithString("inputs", mcp.Required(), mcp.Description("JSON object of feature name to value; key order is kept")),
		mcp.WithString("output_type", mcp.Description("classification (default) or regression")),
	), s.handleBuildRun)

	s.mcpServer.AddTool(mcp.NewTool("score_record",
		mcp.WithDescription("Score a record against a registered model."),
		mcp.WithString("model_key", mcp.Required(), mcp.Description("Key of the registered model")),
		mcp.WithString("inputs", mcp.Required(), mcp.Description("JSON object of feature name to value")),
	), s.handleScore)

	s.mcpServer.AddTool(mcp.NewTool("describe_model",
		mcp.WithDescription("Return the stored metadata of a registered model."),
		mcp.WithString("model_key", mcp.Required(), mcp.Description("Key of the registered model")),
	), s.handleDescribe)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(modelsURI, "Registered models",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		models, err := s.publisher.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		jsonBytes, err := json.Marshal(models)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      modelsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// toolError reports a failure to the agent as a tool result, not a protocol error.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("MCP tool failed", "tool", tool, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func parseInputs(raw string) (domain.FeatureValues, error) {
	var values domain.FeatureValues
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: inputs: %v", domain.ErrInvalidMetadata, err)
	}
	return values, nil
}

func (s *Server) handleEncode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var model domain.Model
	if err := json.Unmarshal([]byte(raw), &model); err != nil {
		return s.toolError("encode_model", fmt.Errorf("%w: %v", domain.ErrInvalidMetadata, err)), nil
	}
	if err := model.Validate(); err != nil {
		return s.toolError("encode_model", err), nil
	}

	forest, err := s.publisher.Encode(&model)
	if err != nil {
		return s.toolError("encode_model", err), nil
	}
	meta, err := service.Metadata(&model, forest)
	if err != nil {
		return s.toolError("encode_model", err), nil
	}
	return jsonResult(EncodeResponse{
		ModelMetadata: meta,
		Commands:      forest.Commands,
		UsedFeatures:  forest.Used.Sorted(),
	})
}

func (s *Server) handleBuildRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("model_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("inputs")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := parseInputs(raw)
	if err != nil {
		return s.toolError("build_run_command", err), nil
	}

	outputType := request.GetString("output_type", domain.OutputClassification)
	return mcp.NewToolResultText(codec.EncodeRun(key, values, outputType)), nil
}

func (s *Server) handleScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("model_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("inputs")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := parseInputs(raw)
	if err != nil {
		return s.toolError("score_record", err), nil
	}

	res, err := s.scorer.Score(ctx, domain.ScoreRequest{ModelKey: key, ModelInputs: values})
	if err != nil {
		return s.toolError("score_record", err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("model_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meta, err := s.scorer.Describe(ctx, key)
	if errors.Is(err, domain.ErrModelNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Model not found by ID: '%s'", key)), nil
	}
	if err != nil {
		return s.toolError("describe_model", err), nil
	}
	return jsonResult(meta)
}
