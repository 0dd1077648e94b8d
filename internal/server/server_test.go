package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/pipeline"
)

func okRun(_ context.Context, req RunRequest, onProgress pipeline.ProgressCallback) (*pipeline.Summary, error) {
	if onProgress != nil {
		onProgress(pipeline.ProgressEvent{Step: pipeline.StepFetch, Category: pipeline.CategorySource, Message: "Fetched 2 articles"})
	}
	mode := req.Mode
	if mode == "" {
		mode = "append"
	}
	return &pipeline.Summary{RunID: "run-1", Source: "newsapi", Sink: "jsonl", Mode: mode, Fetched: 2, Rows: 2, Written: 2}, nil
}

func failingRun(_ context.Context, _ RunRequest, _ pipeline.ProgressCallback) (*pipeline.Summary, error) {
	return &pipeline.Summary{RunID: "run-2"}, errors.New("source unavailable")
}

func newTestServer(t *testing.T, run RunFunc, store RunStore, jwt *config.JWTConfig) http.Handler {
	t.Helper()
	s, err := New(Config{Port: 0, JWT: jwt}, run, store, nil)
	require.NoError(t, err)
	return s.Handler()
}

func decodeResponse(t *testing.T, body io.Reader) RunResponse {
	t.Helper()
	var resp RunResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestNew_RequiresRunFunc(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, okRun, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, okRun, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/run", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRunEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		run        RunFunc
		body       string
		wantStatus int
		wantOK     bool
		wantMode   string
		wantErr    string
	}{
		{name: "empty body", run: okRun, wantStatus: http.StatusOK, wantOK: true, wantMode: "append"},
		{name: "mode override", run: okRun, body: `{"mode":"replace"}`, wantStatus: http.StatusOK, wantOK: true, wantMode: "replace"},
		{name: "invalid mode", run: okRun, body: `{"mode":"upsert"}`, wantStatus: http.StatusBadRequest, wantErr: "upsert"},
		{name: "malformed body", run: okRun, body: `{`, wantStatus: http.StatusBadRequest, wantErr: "validation error"},
		{name: "run failure", run: failingRun, wantStatus: http.StatusInternalServerError, wantErr: "source unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.run, nil, nil)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w.Body)
			assert.Equal(t, tt.wantOK, resp.Success)
			assert.NotEmpty(t, resp.Timestamp)
			if tt.wantOK {
				assert.Equal(t, "News pipeline executed successfully", resp.Message)
				assert.Equal(t, "run-1", resp.RunID)
				require.NotNil(t, resp.Summary)
				assert.Equal(t, tt.wantMode, resp.Summary.Mode)
				assert.Empty(t, resp.Error)
			} else {
				assert.Contains(t, resp.Error, tt.wantErr)
				assert.Empty(t, resp.Message)
			}
		})
	}
}

func TestRunEndpoint_RejectsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := func(ctx context.Context, req RunRequest, cb pipeline.ProgressCallback) (*pipeline.Summary, error) {
		close(started)
		<-release
		return okRun(ctx, req, cb)
	}
	h := newTestServer(t, blocking, nil, nil)

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", nil))
		done <- w.Code
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeResponse(t, w.Body).Error, "already in progress")

	close(release)
	assert.Equal(t, http.StatusOK, <-done)

	// The slot is free again once the first run finishes.
	s, err := New(Config{}, okRun, nil, nil)
	require.NoError(t, err)
	require.True(t, s.tryStart())
	s.finish()
	assert.True(t, s.tryStart())
}

func TestRunStreamEndpoint(t *testing.T) {
	h := newTestServer(t, okRun, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run/stream", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: step\n")
	assert.Contains(t, body, `"step":"fetch_articles"`)
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"success":true`)
}

func TestRunStreamEndpoint_Failure(t *testing.T) {
	h := newTestServer(t, failingRun, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run/stream", nil))

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, "source unavailable")
	assert.NotContains(t, body, "event: complete")
}

func TestRunEndpoint_Auth(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testSecret, ExpirationHours: 1}
	token, err := NewJWTService(jwtCfg).GenerateToken("scheduler")
	require.NoError(t, err)

	h := newTestServer(t, okRun, nil, jwtCfg)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "run without token", method: http.MethodPost, path: "/run", wantStatus: http.StatusUnauthorized},
		{name: "stream without token", method: http.MethodPost, path: "/run/stream", wantStatus: http.StatusUnauthorized},
		{name: "run with bad token", method: http.MethodPost, path: "/run", token: "nope", wantStatus: http.StatusUnauthorized},
		{name: "run with token", method: http.MethodPost, path: "/run", token: token, wantStatus: http.StatusOK},
		{name: "health is open", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

type fakeStore struct {
	runs  []db.Run
	steps map[uuid.UUID][]db.RunStep
	err   error
	limit int
}

func (f *fakeStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].ID == runID {
			return &f.runs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRuns(_ context.Context, limit int) ([]db.Run, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

func (f *fakeStore) ListRunSteps(_ context.Context, runID uuid.UUID) ([]db.RunStep, error) {
	return f.steps[runID], nil
}

func TestRunsEndpoints(t *testing.T) {
	runID := uuid.New()
	store := &fakeStore{
		runs: []db.Run{{ID: runID, Source: "newsapi", Sink: "postgres", Status: db.RunStatusCompleted, Fetched: 5, Rows: 4, Written: 4}},
		steps: map[uuid.UUID][]db.RunStep{runID: {
			{RunID: runID, Step: pipeline.StepFetch, Status: db.StepStatusCompleted, DurationMs: 12},
		}},
	}
	h := newTestServer(t, okRun, store, nil)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs?limit=500", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Runs  []db.Run `json:"runs"`
			Count int      `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, runID, resp.Runs[0].ID)
		assert.Equal(t, maxRunsLimit, store.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs?limit=-1", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+runID.String(), nil))
		require.Equal(t, http.StatusOK, w.Code)

		var detail RunDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
		assert.Equal(t, "postgres", detail.Run.Sink)
		require.Len(t, detail.Steps, 1)
		assert.Equal(t, pipeline.StepFetch, detail.Steps[0].Step)
	})

	t.Run("unknown", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRunsEndpoints_StoreError(t *testing.T) {
	h := newTestServer(t, okRun, &fakeStore{err: errors.New("connection refused")}, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRunsEndpoints_NotRegisteredWithoutStore(t *testing.T) {
	h := newTestServer(t, okRun, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRunResponse(t *testing.T) {
	ok := NewRunResponse(&pipeline.Summary{RunID: "abc"}, nil)
	assert.True(t, ok.Success)
	assert.Equal(t, "abc", ok.RunID)

	failed := NewRunResponse(nil, errors.New("boom"))
	assert.False(t, failed.Success)
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, failed.RunID)

	data, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(data, []byte(`"message"`)))
	_, err = time.Parse(time.RFC3339, failed.Timestamp)
	assert.NoError(t, err)
}
