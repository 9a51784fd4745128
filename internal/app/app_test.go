package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server, closer, err := NewServer(context.Background(), Config{
		DBPath:   filepath.Join(t.TempDir(), "movies.sqlite"),
		SeedFile: filepath.Join(t.TempDir(), "absent.json"),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		if err := closer.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return ts
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestServerMovieLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/movies/"

	status, body := do(t, http.MethodPost, base, `{"title":"Heat","director":"Michael Mann","genre":"Crime","releaseYear":1995,"rating":8.3}`)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", status, body)
	}
	var created domain.Movie
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	status, body = do(t, http.MethodPut, base+created.ID, `{"title":"Heat","director":"Michael Mann","genre":"Crime","releaseYear":1995,"rating":9}`)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", status, body)
	}

	status, body = do(t, http.MethodGet, base+created.ID, "")
	var got domain.Movie
	if err := json.Unmarshal(body, &got); err != nil || status != http.StatusOK {
		t.Fatalf("get: status=%d err=%v", status, err)
	}
	if got.Rating != 9 || got.Title != "Heat" {
		t.Fatalf("unexpected movie after update: %+v", got)
	}

	if status, _ = do(t, http.MethodDelete, base+created.ID, ""); status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, body = do(t, http.MethodGet, base+created.ID, "")
	if status != http.StatusNotFound || !strings.Contains(string(body), created.ID) {
		t.Fatalf("expected 404 naming the id, got %d body=%s", status, body)
	}
}

func TestServerSeedAndAggregate(t *testing.T) {
	ts := newTestServer(t)

	docs := make([]string, 0, 1200)
	genres := []string{"Drama", "Action", "Comedy"}
	for i := 0; i < 1200; i++ {
		docs = append(docs, fmt.Sprintf(
			`{"title":"Movie %d","director":"D","genre":%q,"releaseYear":2000,"rating":%d}`,
			i, genres[i%3], 1+(i%3)*2,
		))
	}

	status, body := do(t, http.MethodPost, ts.URL+"/api/movies/seed/upload", "["+strings.Join(docs, ",")+"]")
	if status != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d body=%s", status, body)
	}
	var seeded struct {
		InsertedCount int `json:"insertedCount"`
	}
	if err := json.Unmarshal(body, &seeded); err != nil || seeded.InsertedCount != 1200 {
		t.Fatalf("unexpected seed response %s (err=%v)", body, err)
	}

	status, body = do(t, http.MethodGet, ts.URL+"/api/movies/aggregate/average-ratings", "")
	if status != http.StatusOK {
		t.Fatalf("aggregate: expected 200, got %d", status)
	}
	want := `[{"genre":"Action","averageRating":3},{"genre":"Comedy","averageRating":5},{"genre":"Drama","averageRating":1}]`
	if strings.TrimSpace(string(body)) != want {
		t.Fatalf("expected %s, got %s", want, body)
	}

	status, body = do(t, http.MethodGet, ts.URL+"/metrics", "")
	if status != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", status)
	}
	for _, line := range []string{
		"movieapi_ingest_batches_total 3",
		"movieapi_ingest_documents_total 1200",
		`movieapi_ingest_runs_total{status="success"} 1`,
	} {
		if !strings.Contains(string(body), line) {
			t.Fatalf("expected metrics to contain %q", line)
		}
	}
}

func TestServerSeedFromMissingFile(t *testing.T) {
	ts := newTestServer(t)

	status, body := do(t, http.MethodPost, ts.URL+"/api/movies/seed", "")
	if status != http.StatusInternalServerError || strings.TrimSpace(string(body)) != `{"error":"Internal server error"}` {
		t.Fatalf("unexpected response %d %s", status, body)
	}
}

func TestOpenFailsFastOnBadPath(t *testing.T) {
	_, err := Open(context.Background(), Config{
		DBPath: filepath.Join(t.TempDir(), "missing-dir", "movies.sqlite"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err == nil {
		t.Fatal("expected open to fail for an unreachable database path")
	}
}
