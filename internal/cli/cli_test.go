package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/msccatools/msccat-client/internal/history"
	"github.com/msccatools/msccat-client/internal/params"
	"github.com/msccatools/msccat-client/internal/run"
)

// isolateHome points the user config directory at a temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)
	return dir
}

// executeCLI runs the root command with args and returns its stdout.
func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	AddCommands(root)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeRunner serves the submission endpoint and the log stream.
type fakeRunner struct {
	*httptest.Server
	submissions atomic.Int32
	lastBody    atomic.Value
}

func newFakeRunner(t *testing.T, status int, body string, frames ...string) *fakeRunner {
	t.Helper()
	r := &fakeRunner{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/run", func(w http.ResponseWriter, req *http.Request) {
		r.submissions.Add(1)
		var p map[string]any
		_ = json.NewDecoder(req.Body).Decode(&p)
		r.lastBody.Store(p)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.Handle("/ws/logs/", websocket.Handler(func(ws *websocket.Conn) {
		for _, f := range frames {
			if err := websocket.Message.Send(ws, f); err != nil {
				return
			}
		}
		var s string
		_ = websocket.Message.Receive(ws, &s)
	}))
	r.Server = httptest.NewServer(mux)
	t.Cleanup(r.Close)
	return r
}

func runArgs(serverURL string, extra ...string) []string {
	args := []string{
		"run",
		"--server-url", serverURL,
		"--url", "https://github.com/owner/repo",
		"--color", "never",
		"--spinner=false",
		"--quiet",
	}
	return append(args, extra...)
}

func decodeEvents(t *testing.T, out string) []map[string]any {
	t.Helper()
	var evs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		evs = append(evs, ev)
	}
	return evs
}

func TestRunCmd_Completed(t *testing.T) {
	isolateHome(t)
	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`,
		`{"type":"log","line":"[step] start"}`,
		`{"type":"log","line":"hello"}`,
		`{"type":"status","status":"completed"}`,
	)

	out, err := executeCLI(t, runArgs(srv.URL, "--no-history", "--tks", "20")...)
	require.NoError(t, err)

	assert.Equal(t, int32(1), srv.submissions.Load())
	body := srv.lastBody.Load().(map[string]any)
	assert.Equal(t, "https://github.com/owner/repo", body["url"])
	assert.Equal(t, float64(20), body["tks"])
	assert.Equal(t, "[step] start\nhello\n", out)
}

func TestRunCmd_JobFailedExitsWithError(t *testing.T) {
	isolateHome(t)
	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`,
		`{"type":"log","line":"[error] clone failed"}`,
		`{"type":"status","status":"failed"}`,
	)

	_, err := executeCLI(t, runArgs(srv.URL, "--no-history")...)
	assert.ErrorIs(t, err, errReported)
}

func TestRunCmd_InvalidParamsDoNotSubmit(t *testing.T) {
	isolateHome(t)
	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`)

	_, err := executeCLI(t, runArgs(srv.URL, "--no-history", "--tks", "0", "--rnr", "2")...)
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, int32(0), srv.submissions.Load())
}

func TestRunCmd_SubmissionRejected(t *testing.T) {
	isolateHome(t)
	srv := newFakeRunner(t, http.StatusUnprocessableEntity, `{"detail":"bad repo"}`)

	out, err := executeCLI(t, runArgs(srv.URL, "--no-history")...)
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "[error] bad repo\n", out)
}

func TestRunCmd_JSON(t *testing.T) {
	isolateHome(t)
	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`,
		`{"type":"log","line":"[step] start"}`,
		`{"type":"status","status":"completed"}`,
	)

	out, err := executeCLI(t, runArgs(srv.URL, "--no-history", "--json")...)
	require.NoError(t, err)

	evs := decodeEvents(t, out)
	require.NotEmpty(t, evs)

	var types []string
	for _, ev := range evs {
		types = append(types, ev["type"].(string))
	}
	assert.Contains(t, types, "log_line")
	last := evs[len(evs)-1]
	assert.Equal(t, "complete", last["type"])
	assert.Equal(t, "DONE_OK", last["final"])
	assert.Equal(t, "abc123", last["job_id"])
}

// stallWriter pauses on its first write, like a terminal or pipe that falls
// behind while the job keeps streaming.
type stallWriter struct {
	once sync.Once
	buf  bytes.Buffer
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { time.Sleep(200 * time.Millisecond) })
	return w.buf.Write(p)
}

func TestRunCmd_JSONSlowWriterKeepsEveryLine(t *testing.T) {
	isolateHome(t)
	const n = 3000
	frames := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		frames = append(frames, fmt.Sprintf(`{"type":"log","line":"line %d"}`, i))
	}
	frames = append(frames, `{"type":"status","status":"completed"}`)
	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`, frames...)

	w := &stallWriter{}
	root := NewRootCmd()
	AddCommands(root)
	root.SetOut(w)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(runArgs(srv.URL, "--no-history", "--json"))
	require.NoError(t, root.ExecuteContext(context.Background()))

	evs := decodeEvents(t, w.buf.String())
	var lines []string
	for _, ev := range evs {
		if ev["type"] == "log_line" {
			lines = append(lines, ev["line"].(string))
		}
	}
	require.Len(t, lines, n)
	for i, line := range lines {
		require.Equal(t, fmt.Sprintf("line %d", i), line)
	}
	last := evs[len(evs)-1]
	assert.Equal(t, "complete", last["type"])
	assert.Equal(t, "DONE_OK", last["final"])
}

func TestRunCmd_RecordsHistory(t *testing.T) {
	isolateHome(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("MSCCAT_HISTORY_PATH", dbPath)

	srv := newFakeRunner(t, http.StatusOK, `{"job_id":"abc123"}`,
		`{"type":"status","status":"completed"}`,
	)
	_, err := executeCLI(t, runArgs(srv.URL)...)
	require.NoError(t, err)

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0].JobID)
	assert.Equal(t, "DONE_OK", entries[0].Final)

	out, err := executeCLI(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "Completed")
}

func TestValidateCmd(t *testing.T) {
	isolateHome(t)

	out, err := executeCLI(t, "validate", "--url", "https://github.com/owner/repo")
	require.NoError(t, err)
	assert.Contains(t, out, "Parameters are valid.")

	out, err = executeCLI(t, "validate", "--url", "https://gitlab.com/a/b", "--search-depth", "-2")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "search_depth")
	assert.Contains(t, out, "https://gitlab.com/a/b")
}

func TestValidateForm_AbsentValues(t *testing.T) {
	var buf bytes.Buffer
	form := params.DefaultForm()
	form.URL = "https://github.com/a/b"
	form.TKS = "abc"

	errs, err := validateForm(&buf, form)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "tks", errs[0].Field)
}

func TestParamRows(t *testing.T) {
	form := params.DefaultForm()
	form.URL = "https://github.com/a/b"
	rows := paramRows(form.Snapshot())

	require.Len(t, rows, 12)
	assert.Equal(t, []string{"url", "https://github.com/a/b"}, rows[0])
	assert.Equal(t, []string{"rnr", "0.5"}, rows[3])
	assert.Equal(t, []string{"search_depth", "-1"}, rows[10])
}

type scriptedStarter struct {
	forms    []params.Form
	outcomes []*run.Outcome
	err      error
}

func (s *scriptedStarter) Start(_ context.Context, form params.Form) (*run.Outcome, error) {
	s.forms = append(s.forms, form)
	if s.err != nil {
		return nil, s.err
	}
	out := &run.Outcome{Final: run.DoneOK, Params: form.Snapshot()}
	s.outcomes = append(s.outcomes, out)
	return out, nil
}

func TestPromptLoop(t *testing.T) {
	s := &scriptedStarter{}
	base := params.DefaultForm()
	base.URL = "https://github.com/default/repo"

	var done int
	var out bytes.Buffer
	in := strings.NewReader("https://github.com/a/b\n\nquit\nhttps://github.com/never/run\n")

	err := promptLoop(context.Background(), in, &out, s, base, func(*run.Outcome) { done++ })
	require.NoError(t, err)

	require.Len(t, s.forms, 2)
	assert.Equal(t, "https://github.com/a/b", s.forms[0].URL)
	assert.Equal(t, "https://github.com/default/repo", s.forms[1].URL, "empty input reuses the default")
	assert.Equal(t, "12", s.forms[0].TKS)
	assert.Equal(t, 2, done)
	assert.Contains(t, out.String(), "Repository URL [https://github.com/default/repo]: ")
}

func TestPromptLoop_EOFWithoutNewline(t *testing.T) {
	s := &scriptedStarter{}
	err := promptLoop(context.Background(), strings.NewReader("https://github.com/a/b"), &bytes.Buffer{}, s, params.DefaultForm(), nil)
	require.NoError(t, err)
	require.Len(t, s.forms, 1)
}

func TestPromptLoop_StartRejected(t *testing.T) {
	s := &scriptedStarter{err: run.ErrRunInProgress}
	var out bytes.Buffer
	err := promptLoop(context.Background(), strings.NewReader("https://github.com/a/b\n"), &out, s, params.DefaultForm(), nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Cannot start")
}

func TestPromptLoop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := promptLoop(ctx, strings.NewReader("https://github.com/a/b\n"), &bytes.Buffer{}, &scriptedStarter{}, params.DefaultForm(), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderHistory(&buf, nil))
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err := renderHistory(&buf, []history.Entry{{
		ID:         7,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		URL:        "https://github.com/a/b",
		Indicator:  string(run.IndicatorConnectionError),
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Connection Error")
	assert.Contains(t, buf.String(), "1m30s")
}
