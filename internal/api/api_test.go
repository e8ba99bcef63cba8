package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailrank/tailrank/internal/analyzer"
	"github.com/tailrank/tailrank/internal/config"
	"github.com/tailrank/tailrank/internal/models"
	"github.com/tailrank/tailrank/internal/storage"
)

// stubRunner replays a scripted event stream for any reference.
type stubRunner struct {
	events  []analyzer.Event
	lastRef string
}

func (s *stubRunner) Run(ctx context.Context, ref string) <-chan analyzer.Event {
	s.lastRef = ref
	ch := make(chan analyzer.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func setupTestServer(t *testing.T, runner Runner) (*Server, *storage.Database) {
	t.Helper()

	db, err := storage.NewDatabase(config.DatabaseConfig{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	return NewServer(cfg, db, runner, slog.Default()), db
}

func seedRepo(t *testing.T, db *storage.Database, owner, name string, counts []models.ClassCount) *models.Repository {
	t.Helper()
	ctx := context.Background()

	repo := &models.Repository{
		URL:    "https://github.com/" + owner + "/" + name,
		Owner:  owner,
		Name:   name,
		Status: string(models.StatusCompleted),
	}
	require.NoError(t, db.CreateRepository(ctx, repo))

	for i := range counts {
		counts[i].RepositoryID = repo.ID
	}
	require.NoError(t, db.ReplaceClassCounts(ctx, repo.ID, counts, 100))
	return repo
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestLeaderboard(t *testing.T) {
	server, db := setupTestServer(t, &stubRunner{})
	seedRepo(t, db, "octocat", "hello-world", []models.ClassCount{
		{ClassName: "flex", Count: 5},
		{ClassName: "p-4", Count: 3},
		{ClassName: "m-2", Count: 1},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=2", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Classes []models.ClassStat `json:"classes"`
		Limit   int                `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Classes, 2)
	assert.Equal(t, "flex", resp.Classes[0].ClassName)
	assert.Equal(t, 5, resp.Classes[0].Count)
	assert.Equal(t, "p-4", resp.Classes[1].ClassName)
}

func TestLeaderboardInvalidLimit(t *testing.T) {
	server, _ := setupTestServer(t, &stubRunner{})

	for _, limit := range []string{"0", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit="+limit, nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestStats(t *testing.T) {
	server, db := setupTestServer(t, &stubRunner{})

	repo := seedRepo(t, db, "octocat", "hello-world", []models.ClassCount{
		{ClassName: "flex", Count: 4},
		{ClassName: "p-4", Count: 2},
	})
	require.NoError(t, db.UpdateRepositoryFields(context.Background(), repo.ID, map[string]any{
		"total_class_instances": 6,
		"total_files":           3,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.GlobalStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRepositories)
	assert.Equal(t, 6, stats.TotalClassInstances)
	assert.Equal(t, 2, stats.UniqueClassCount)
	assert.Equal(t, 3, stats.TotalFilesScanned)
}

func TestLongestClass(t *testing.T) {
	server, db := setupTestServer(t, &stubRunner{})

	// Nothing recorded yet.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/classes/longest", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedRepo(t, db, "octocat", "hello-world", []models.ClassCount{
		{ClassName: "p-4", Count: 10},
		{ClassName: "hover:bg-gradient-to-r", Count: 1},
	})

	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/classes/longest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var longest models.LongestClass
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &longest))
	assert.Equal(t, "hover:bg-gradient-to-r", longest.ClassName)
	assert.Equal(t, "octocat/hello-world", longest.RepositoryName)
}

func TestListRepositories(t *testing.T) {
	server, db := setupTestServer(t, &stubRunner{})
	seedRepo(t, db, "octocat", "alpha", nil)
	seedRepo(t, db, "octocat", "beta", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repositories", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Repositories []models.Repository `json:"repositories"`
		Total        int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestGetRepository(t *testing.T) {
	server, db := setupTestServer(t, &stubRunner{})
	seedRepo(t, db, "octocat", "hello-world", []models.ClassCount{
		{ClassName: "flex", Count: 2},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repositories/octocat/hello-world", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Repository  models.Repository   `json:"repository"`
		ClassCounts []models.ClassCount `json:"class_counts"`
		UniqueCount int                 `json:"unique_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello-world", resp.Repository.Name)
	assert.Equal(t, 1, resp.UniqueCount)
}

func TestGetRepositoryNotFound(t *testing.T) {
	server, _ := setupTestServer(t, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repositories/nobody/nothing", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeRequiresRepoParam(t *testing.T) {
	server, _ := setupTestServer(t, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeStreamsEvents(t *testing.T) {
	runner := &stubRunner{events: []analyzer.Event{
		{Type: analyzer.EventProgress, RunID: "r1", Stage: analyzer.StageFetching},
		{Type: analyzer.EventFileProcessed, RunID: "r1", File: "a.html", ProcessedFiles: 1, TotalFiles: 1},
		{Type: analyzer.EventCompleted, RunID: "r1", Stage: analyzer.StageCompleted, Result: &analyzer.Result{
			RepositoryURL:       "https://github.com/octocat/hello-world",
			TotalClassInstances: 4,
		}},
	}}
	server, _ := setupTestServer(t, runner)

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/analyze?repo=octocat/hello-world")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, "octocat/hello-world", runner.lastRef)
	assert.Contains(t, text, "event: progress")
	assert.Contains(t, text, "event: file-processed")
	assert.Contains(t, text, "event: completed")
	assert.Contains(t, text, `"total_class_instances":4`)

	// The terminal event must be the last one on the wire.
	lastIdx := strings.LastIndex(text, "event: ")
	assert.True(t, strings.HasPrefix(text[lastIdx:], "event: completed"))
}
