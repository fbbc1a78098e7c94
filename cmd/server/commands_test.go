package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)
		ts.requests = append(ts.requests, recordedRequest{Method: r.Method, Path: r.URL.RequestURI(), Body: body.String()})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(resp))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Resource not found"}`))
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClientRandom(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/random_images/2": `{"items":[{"id":"id-1","url":"http://x/api/image/a.png"},{"id":"id-2","url":"http://x/api/image/b.png"}]}`,
	})

	out, err := execute(t, "client", "random", "2", "--server", ts.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "id-1")
	assert.Contains(t, out, "http://x/api/image/b.png")
	require.Len(t, ts.requests, 1)
}

func TestClientRandom_InvalidCount(t *testing.T) {
	ts := newTestServer(t, nil)
	_, err := execute(t, "client", "random", "-3", "--server", ts.server.URL)
	require.Error(t, err)
	assert.Empty(t, ts.requests)
}

func TestClientSubmit(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/submit_score": `{"message":"Score submitted successfully"}`,
	})

	out, err := execute(t, "client", "submit", "id-1", "8", "--server", ts.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Score submitted successfully")
	require.Len(t, ts.requests, 1)
	assert.JSONEq(t, `{"image_id":"id-1","score":8}`, ts.requests[0].Body)
}

func TestClientSubmit_NonIntegerScore(t *testing.T) {
	ts := newTestServer(t, nil)
	_, err := execute(t, "client", "submit", "id-1", "8.5", "--server", ts.server.URL)
	require.Error(t, err)
	assert.Empty(t, ts.requests)
}

func TestClientScores(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/scores/id-1": `{"image_id":"id-1","scores":[2,4]}`,
	})

	out, err := execute(t, "client", "scores", "id-1", "--server", ts.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "2 scores, mean 3.00")
}

func TestClientScores_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	out, err := execute(t, "client", "scores", "unknown", "--server", ts.server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "no scores for unknown")
}

func TestReconcile(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "a.png"), []byte("a"), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf("imageDirectory: %q\ndatabase:\n  type: sqlite\n  connectionString: %q\n",
		images, filepath.Join(dir, "database.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	// the first run initializes the catalog, so nothing is left to reconcile
	out, err := execute(t, "reconcile", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 images added")

	require.NoError(t, os.WriteFile(filepath.Join(images, "b.png"), []byte("b"), 0o644))
	out, err = execute(t, "reconcile", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 images added")
	assert.True(t, strings.Contains(out, "b.png"))
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/goscore/config.yaml")

	path, err := getConfigPath(&options{configPath: "/flag.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/flag.yaml", path)

	path, err = getConfigPath(&options{})
	require.NoError(t, err)
	assert.Equal(t, "/etc/goscore/config.yaml", path)
}
