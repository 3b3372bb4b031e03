package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/forestml"
	"github.com/aretw0/forestml/internal/logging"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request documents; large forests run to a few MB.
const maxBodyBytes = 32 << 20

// defaultExecutions is the page size of GET /executions/{key}.
const defaultExecutions = 100

// schemaExample is the payload returned by GET /schema.
var schemaExample = domain.ScoreRequest{
	ModelKey:    "tree-67a9f783-8849-48a1-8753-920596347eee",
	ModelInputs: domain.Values("CLAGE", 12, "YOJ", 15),
}

// Server serves the publish and score operations over HTTP.
type Server struct {
	Publisher *service.Publisher
	Scorer    *service.Scorer
	Streams   *StreamManager
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	// Instance identifies the replica in GET / (e.g. CF_INSTANCE_INDEX).
	Instance string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetrics serves the collectors at /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.Metrics = m
	}
}

// WithInstance sets the replica identifier reported by GET /.
func WithInstance(instance string) Option {
	return func(s *Server) {
		s.Instance = instance
	}
}

// NewServer creates a Server on the given services.
func NewServer(pub *service.Publisher, sc *service.Scorer, opts ...Option) *Server {
	s := &Server{
		Publisher: pub,
		Scorer:    sc,
		Logger:    logging.NewNop(),
		Instance:  "not in CF",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.Logger)
	return s
}

// NewHandler creates the HTTP handler for the publish and score API.
func NewHandler(pub *service.Publisher, sc *service.Scorer, opts ...Option) http.Handler {
	return NewServer(pub, sc, opts...).Handler()
}

// Handler returns the routes wrapped in the CORS and recovery middleware.
func (s *Server) Handler() http.Handler {
	return enableCORS(s.Routes())
}

// Routes registers every endpoint on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.GetEndpoints)
	r.Post("/", s.PostRoot)
	r.Get("/schema", s.GetSchema)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Post("/store", s.StoreModel)
	r.Post("/publish", s.PublishModel)
	r.Post("/encode", s.EncodeModel)
	r.Get("/description/{key}", s.DescribeModel)
	r.Get("/inputs/{key}", s.DescribeInputs)
	r.Get("/outputs/{key}", s.DescribeOutputs)
	r.Get("/get_all", s.ListModels)

	r.Post("/score", s.ScoreRecord)
	r.Get("/executions/{key}", s.ListExecutions)
	r.Get("/events/{key}", s.SubscribeEvents)

	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>forestml API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Result string `json:"Result"`
}

// statusFor maps service errors onto HTTP status codes. Engine failures
// carry the engine's own cause, so they are matched first.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEngine):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidMetadata), errors.Is(err, domain.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTree),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrEmptyFeatureSet),
		errors.Is(err, domain.ErrUnsupportedAlgorithm):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+" rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorBody{Result: err.Error()})
}

func (s *Server) notFound(w http.ResponseWriter, key string) {
	s.writeJSON(w, http.StatusNotFound, errorBody{Result: fmt.Sprintf("Model not found by ID: '%s'", key)})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidMetadata, err)
	}
	return nil
}

// GetEndpoints handles GET /.
func (s *Server) GetEndpoints(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"Endpoints": map[string]string{
			"GET:/description/<key>": "Describes a model with <key>",
			"GET:/inputs/<key>":      "Describes inputs for model <key>",
			"GET:/outputs/<key>":     "Describes outputs for model <key>",
			"GET:/executions/<key>":  "Lists recent scoring calls of model <key>",
			"GET:/get_all":           "Describes every model",
			"GET:/events/<key>":      "Streams scoring results of model <key>",
			"POST:/store":            "Registers a model from its metadata document",
			"POST:/publish":          "Encodes and registers a trained model",
			"POST:/encode":           "Encodes a trained model without registering it",
			"POST:/score":            "Scores a record based on an input JSON document",
		},
		"Instance": s.Instance,
	})
}

// PostRoot handles POST /.
func (s *Server) PostRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "POST on \"/\" does nothing. Try /score instead. %s\n", s.Instance)
}

// GetSchema handles GET /schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, schemaExample)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "forestml-http",
		"version":     strings.TrimSpace(forestml.Version),
		"api_version": apiVersion,
	})
}

// StoreModel handles POST /store: registers a model from its metadata.
func (s *Server) StoreModel(w http.ResponseWriter, r *http.Request) {
	var meta domain.ModelMetadata
	if err := decode(w, r, &meta); err != nil {
		s.writeError(w, "Store", err)
		return
	}

	stored, err := s.Publisher.Publish(r.Context(), &meta)
	if err != nil {
		s.writeError(w, "Store", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"Model creation at /store": "success",
		"model_key":                stored.ModelKey,
	})
}

// decodeModel reads and validates a model document.
func decodeModel(w http.ResponseWriter, r *http.Request) (*domain.Model, error) {
	var model domain.Model
	if err := decode(w, r, &model); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidTree) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidMetadata, err)
	}
	return &model, nil
}

// PublishModel handles POST /publish: encodes a model and registers it.
func (s *Server) PublishModel(w http.ResponseWriter, r *http.Request) {
	model, err := decodeModel(w, r)
	if err != nil {
		s.writeError(w, "Publish", err)
		return
	}

	meta, err := s.Publisher.PublishModel(r.Context(), model)
	if err != nil {
		s.writeError(w, "Publish", err)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// encodeResponse is the metadata a publish would store, plus the commands.
type encodeResponse struct {
	*domain.ModelMetadata
	Commands     []string `json:"commands"`
	UsedFeatures []string `json:"used_features"`
}

// EncodeModel handles POST /encode: encodes a model without side effects.
func (s *Server) EncodeModel(w http.ResponseWriter, r *http.Request) {
	model, err := decodeModel(w, r)
	if err != nil {
		s.writeError(w, "Encode", err)
		return
	}

	forest, err := s.Publisher.Encode(model)
	if err != nil {
		s.writeError(w, "Encode", err)
		return
	}
	meta, err := service.Metadata(model, forest)
	if err != nil {
		s.writeError(w, "Encode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, encodeResponse{
		ModelMetadata: meta,
		Commands:      forest.Commands,
		UsedFeatures:  forest.Used.Sorted(),
	})
}

// DescribeModel handles GET /description/{key}.
func (s *Server) DescribeModel(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	meta, err := s.Publisher.Describe(r.Context(), key)
	if errors.Is(err, domain.ErrModelNotFound) {
		s.notFound(w, key)
		return
	}
	if err != nil {
		s.writeError(w, "Describe", err)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

func (s *Server) writeField(w http.ResponseWriter, r *http.Request, get func(*http.Request, string) (json.RawMessage, error)) {
	key := chi.URLParam(r, "key")
	raw, err := get(r, key)
	if errors.Is(err, domain.ErrModelNotFound) {
		s.notFound(w, key)
		return
	}
	if err != nil {
		s.writeError(w, "Describe", err)
		return
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	s.writeJSON(w, http.StatusOK, raw)
}

// DescribeInputs handles GET /inputs/{key}.
func (s *Server) DescribeInputs(w http.ResponseWriter, r *http.Request) {
	s.writeField(w, r, func(r *http.Request, key string) (json.RawMessage, error) {
		return s.Scorer.Inputs(r.Context(), key)
	})
}

// DescribeOutputs handles GET /outputs/{key}.
func (s *Server) DescribeOutputs(w http.ResponseWriter, r *http.Request) {
	s.writeField(w, r, func(r *http.Request, key string) (json.RawMessage, error) {
		return s.Scorer.Outputs(r.Context(), key)
	})
}

// ListModels handles GET /get_all.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.Publisher.List(r.Context())
	if err != nil {
		s.writeError(w, "List", err)
		return
	}
	s.writeJSON(w, http.StatusOK, models)
}

// ScoreRecord handles POST /score and broadcasts the result to subscribers
// of the model.
func (s *Server) ScoreRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.ScoreRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "Score", err)
		return
	}

	res, err := s.Scorer.Score(r.Context(), req)
	if err != nil && statusFor(err) == http.StatusNotFound {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"Model not found": req.ModelKey})
		return
	}
	if err != nil {
		s.writeError(w, "Score", err)
		return
	}

	if payload, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(req.ModelKey, string(payload))
	}
	s.writeJSON(w, http.StatusOK, res)
}

// ListExecutions handles GET /executions/{key}?limit=N.
func (s *Server) ListExecutions(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	limit := defaultExecutions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, "Executions", fmt.Errorf("%w: invalid limit %q", domain.ErrInvalidMetadata, v))
			return
		}
		limit = n
	}

	records, err := s.Scorer.Executions(r.Context(), key, limit)
	if err != nil {
		s.writeError(w, "Executions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// SubscribeEvents handles GET /events/{key} (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	key := chi.URLParam(r, "key")
	s.Logger.Info("SSE: Subscribing to score events", "model_key", key)

	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "model_key", key)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: score\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
