package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/forestml/pkg/adapters/memory"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stumpJSON = `{
	"algorithm": "DecisionTree",
	"feature_names": ["DELINQ", "DEBTINC"],
	"outputs": ["BAD"],
	"trees": [{
		"children_left": [1, -1, -1],
		"children_right": [2, -1, -1],
		"feature": [1, -2, -2],
		"threshold": [45.0, -2, -2],
		"value": [[10, 10], [9, 1], [1, 9]]
	}]
}`

type fixture struct {
	server *Server
	engine *memory.Engine
	store  *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine := memory.NewEngine()
	store := memory.NewStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	enc := codec.NewEncoder(codec.WithKeyGenerator(func() string { return "fixed" }))

	pub := service.NewPublisher(engine, store, service.WithEncoder(enc), service.WithMetrics(metrics))
	sc := service.NewScorer(engine, store, service.WithExecutionLog(memory.NewExecutionLog()), service.WithMetrics(metrics))
	return &fixture{
		server: NewServer(pub, sc, WithMetrics(metrics), WithInstance("0")),
		engine: engine,
		store:  store,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPublishAndScore(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/publish", stumpJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	meta := decodeBody[domain.ModelMetadata](t, rec)
	assert.Equal(t, "tree-fixed", meta.ModelKey)
	assert.NotZero(t, meta.CreationTime)

	rec = f.do(t, "POST", "/score", `{"model_key": "tree-fixed", "model_inputs": {"DEBTINC": 50.5, "DELINQ": 0}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "tree-fixed", res["Model key"])
	assert.Equal(t, "DEBTINC:50.5,DELINQ:0,", res["Input string"], "inputs keep document order")
	assert.Equal(t, "1", res["Output Value"])
	assert.Contains(t, res, "Duration")

	rec = f.do(t, "GET", "/executions/tree-fixed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeBody[[]string](t, rec)
	require.Len(t, records, 1)
	assert.Contains(t, records[0], ":1:DEBTINC:50.5,DELINQ:0,:")
}

func TestStore(t *testing.T) {
	f := newFixture(t)

	body := `{
		"model_key": "forest-1",
		"model_type": "classification",
		"model_algorithm": "RandomForest",
		"model_inputs": ["A"],
		"redisml_add_str": "ML.FOREST.ADD forest-1 0 . NUMERIC A 1.0 .l LEAF 0 .r LEAF 1 \nML.FOREST.ADD forest-1 1 . LEAF 1 "
	}`
	rec := f.do(t, "POST", "/store", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"Model creation at /store": "success", "model_key": "forest-1"}`, rec.Body.String())
	assert.Equal(t, 2, f.engine.Trees("forest-1"))

	rec = f.do(t, "GET", "/description/forest-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RandomForest", decodeBody[domain.ModelMetadata](t, rec).ModelAlgorithm)

	rec = f.do(t, "GET", "/inputs/forest-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["A"]`, rec.Body.String())

	rec = f.do(t, "GET", "/outputs/forest-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `null`, rec.Body.String())

	rec = f.do(t, "GET", "/get_all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.ModelMetadata](t, rec), 1)
}

func TestStatusCodes(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/publish", stumpJSON).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad json", "POST", "/score", `{`, http.StatusBadRequest},
		{"missing key", "POST", "/score", `{"model_inputs": {}}`, http.StatusBadRequest},
		{"unknown model", "POST", "/score", `{"model_key": "tree-nope"}`, http.StatusNotFound},
		{"missing feature", "POST", "/score", `{"model_key": "tree-fixed", "model_inputs": {"DELINQ": 1}}`, http.StatusBadGateway},
		{"invalid add string", "POST", "/store", `{"model_key": "t", "model_type": "classification", "model_algorithm": "DecisionTree", "redisml_add_str": "ML.FOREST.ADD t 0 . BOGUS "}`, http.StatusBadRequest},
		{"store missing fields", "POST", "/store", `{"model_key": "t"}`, http.StatusBadRequest},
		{"publish without trees", "POST", "/publish", `{"algorithm": "DecisionTree", "feature_names": ["A"], "trees": []}`, http.StatusBadRequest},
		{"publish unknown algorithm", "POST", "/publish", strings.Replace(stumpJSON, "DecisionTree", "Boosted", 1), http.StatusUnprocessableEntity},
		{"encode out of range", "POST", "/encode", strings.Replace(stumpJSON, `"feature": [1,`, `"feature": [7,`, 1), http.StatusUnprocessableEntity},
		{"encode cyclic", "POST", "/encode", strings.Replace(stumpJSON, `"children_left": [1,`, `"children_left": [0,`, 1), http.StatusUnprocessableEntity},
		{"describe unknown", "GET", "/description/tree-nope", "", http.StatusNotFound},
		{"inputs unknown", "GET", "/inputs/tree-nope", "", http.StatusNotFound},
		{"outputs unknown", "GET", "/outputs/tree-nope", "", http.StatusNotFound},
		{"bad limit", "GET", "/executions/tree-fixed?limit=-1", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestEncodeHasNoSideEffects(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/encode", stumpJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "tree-fixed", body["model_key"])
	assert.Equal(t, []any{"ML.FOREST.ADD tree-fixed 0 . NUMERIC DEBTINC 45.0 .l LEAF 0 .r LEAF 1 "}, body["commands"])
	assert.Equal(t, []any{"DEBTINC"}, body["used_features"])
	assert.Equal(t, "ML.FOREST.RUN tree-fixed DEBTINC:0, CLASSIFICATION", body["redisml_run_example"])

	assert.Equal(t, 0, f.engine.Trees("tree-fixed"))
	models, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestInformational(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "0", root["Instance"])
	assert.Contains(t, root["Endpoints"], "POST:/score")

	rec = f.do(t, "POST", "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Try /score instead")

	rec = f.do(t, "GET", "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"model_key":"tree-67a9f783-8849-48a1-8753-920596347eee","model_inputs":{"CLAGE":12,"YOJ":15}}`, strings.TrimSpace(rec.Body.String()))

	rec = f.do(t, "GET", "/health", "")
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = f.do(t, "GET", "/info", "")
	info := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "forestml-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.NotEmpty(t, info["version"])

	rec = f.do(t, "GET", "/openapi.yaml", "")
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")

	rec = f.do(t, "GET", "/swagger", "")
	assert.Contains(t, rec.Body.String(), "swagger-ui")

	rec = f.do(t, "OPTIONS", "/score", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/publish", stumpJSON).Code)

	rec := f.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `forestml_publish_requests_total{algorithm="DecisionTree",status="ok"} 1`)
}

func TestRoutesAreDocumented(t *testing.T) {
	doc, err := Spec()
	require.NoError(t, err)

	f := newFixture(t)
	err = chi.Walk(f.server.Routes(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		item := doc.Paths.Find(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/publish", stumpJSON).Code)

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events/tree-fixed", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(prefix string) string {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", prefix)
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", prefix)
			}
		}
	}
	assert.Equal(t, "data: connected", waitFor("data: "))
	require.Eventually(t, func() bool { return f.server.Streams.Subscribers("tree-fixed") == 1 }, time.Second, 10*time.Millisecond)

	scoreResp, err := http.Post(srv.URL+"/score", "application/json",
		strings.NewReader(`{"model_key": "tree-fixed", "model_inputs": {"DEBTINC": 10}}`))
	require.NoError(t, err)
	scoreResp.Body.Close()
	require.Equal(t, http.StatusOK, scoreResp.StatusCode)

	assert.Equal(t, "event: score", waitFor("event: score"))
	data := strings.TrimPrefix(waitFor("data: "), "data: ")
	var res domain.ScoreResult
	require.NoError(t, json.Unmarshal([]byte(data), &res))
	assert.Equal(t, "tree-fixed", res.ModelKey)
	assert.Equal(t, "0", res.OutputValue)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(newFixture(t).server.Logger)
	ch, cancel := sm.Subscribe("tree-1")

	for i := 0; i < 20; i++ {
		sm.Broadcast("tree-1", "msg")
	}
	assert.Len(t, ch, cap(ch))

	cancel()
	assert.Equal(t, 0, sm.Subscribers("tree-1"))
	sm.Broadcast("tree-1", "after cancel")
}
