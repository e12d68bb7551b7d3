package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/params"
)

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		ServerURL:      serverURL,
		Proxy:          config.ProxyConfig{Mode: config.ProxyNone},
		RequestTimeout: 5 * time.Second,
	}
}

func validParams() models.AnalysisParameters {
	f := params.DefaultForm()
	f.URL = "https://github.com/octo/repo"
	return f.Snapshot()
}

// TestNewClientRejectsEmptyBaseURL verifies that NewClient fails with a clear error
// when the server URL is empty instead of creating a client that fails every request.
func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewClient(testConfig(""), logging.Nop())
	if err == nil {
		t.Fatal("NewClient() should return error for empty server URL")
	}
	if !errors.Is(err, config.ErrMissingServerURL) {
		t.Errorf("NewClient() error = %v, want %v", err, config.ErrMissingServerURL)
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:8000/"), logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", client.BaseURL())
}

func TestSubmitRun_Success(t *testing.T) {
	var requests atomic.Int32
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/run", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job_id":"abc123"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), logging.Nop())
	require.NoError(t, err)

	jobID, err := client.SubmitRun(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, "abc123", jobID)
	assert.Equal(t, int32(1), requests.Load())

	assert.Equal(t, "https://github.com/octo/repo", got["url"])
	assert.Equal(t, "normal", got["detection_method"])
	assert.Equal(t, float64(12), got["tks"])
	assert.Equal(t, 0.5, got["rnr"])
	assert.Equal(t, float64(50), got["min_tokens"])
	assert.Equal(t, true, got["import_filter"])
	assert.Equal(t, true, got["force_recompute"])
	assert.Equal(t, "clone_set", got["comod_method"])
	assert.Equal(t, "merge_commit", got["analysis_method"])
	assert.Equal(t, float64(50), got["analysis_frequency"])
	assert.Equal(t, float64(-1), got["search_depth"])
	assert.Equal(t, float64(-1), got["max_analyzed_commits"])
	assert.Len(t, got, 12)
}

func TestSubmitRun_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetail  string
		wantErr     error
	}{
		{
			name:        "detail string",
			status:      http.StatusBadRequest,
			body:        `{"detail":"bad repo"}`,
			wantMessage: "bad repo",
			wantDetail:  "bad repo",
		},
		{
			name:        "no detail",
			status:      http.StatusBadRequest,
			body:        `{}`,
			wantMessage: FallbackMessage,
		},
		{
			name:        "structured detail",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","tks"],"msg":"value is not a valid integer"}]}`,
			wantMessage: FallbackMessage,
		},
		{
			name:        "non-json body",
			status:      http.StatusInternalServerError,
			body:        `Internal Server Error`,
			wantMessage: FallbackMessage,
		},
		{
			name:        "missing job id",
			status:      http.StatusOK,
			body:        `{"job_id":""}`,
			wantMessage: ErrMissingJobID.Error(),
			wantErr:     ErrMissingJobID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewClient(testConfig(srv.URL), logging.Nop())
			require.NoError(t, err)

			jobID, err := client.SubmitRun(context.Background(), validParams())
			require.Error(t, err)
			assert.Empty(t, jobID)

			var se *SubmissionError
			require.True(t, errors.As(err, &se), "error %T is not a *SubmissionError", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantMessage, se.Message())
			assert.Equal(t, tt.wantDetail, se.Detail)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			// One request per call even for 5xx.
			assert.Equal(t, int32(1), requests.Load())
		})
	}
}

func TestSubmitRun_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(testConfig(url), logging.Nop())
	require.NoError(t, err)

	_, err = client.SubmitRun(context.Background(), validParams())
	require.Error(t, err)
	assert.True(t, IsSubmissionError(err))

	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Zero(t, se.StatusCode)
	assert.NotEmpty(t, se.Message())
	assert.NotEqual(t, FallbackMessage, se.Message())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), logging.Nop())
	require.NoError(t, err)

	res, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, srv.URL+"/", res.URL)
}

func TestPing_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), logging.Nop())
	require.NoError(t, err)

	res, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int32(2), requests.Load())
}

func TestSubmissionError_Error(t *testing.T) {
	assert.Equal(t, "submission failed (HTTP 400): bad repo",
		(&SubmissionError{StatusCode: 400, Detail: "bad repo"}).Error())
	assert.Equal(t, "submission failed: boom",
		(&SubmissionError{Err: errors.New("boom")}).Error())
}
