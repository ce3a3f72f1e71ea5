// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/a2s/internal/models"
)

// MockCatalog is a test double for [services.Catalog]. Search results are keyed by the exact
// query text; unknown queries return no candidates.
type MockCatalog struct {
	mu sync.Mutex

	Results    map[string][]models.CandidateTrack
	SearchErrs map[string]error
	CreateErr  error
	AddErr     error
	FailAddAt  int // 1-based AddTracks call that returns AddErr; 0 fails every call when AddErr is set

	Searches []string
	Created  []models.Playlist
	Batches  [][]string
}

// NewMockCatalog returns a catalog answering each query in results.
func NewMockCatalog(results map[string][]models.CandidateTrack) *MockCatalog {
	if results == nil {
		results = map[string][]models.CandidateTrack{}
	}
	return &MockCatalog{Results: results, SearchErrs: map[string]error{}}
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Searches = append(m.Searches, query)
	if err, ok := m.SearchErrs[query]; ok {
		return nil, err
	}
	res := m.Results[query]
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return append([]models.CandidateTrack{}, res...), nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	id := fmt.Sprintf("mock-pl-%d", len(m.Created)+1)
	pl := models.Playlist{ID: id, Name: name, URL: "https://example.test/playlist/" + id}
	m.Created = append(m.Created, pl)
	return &pl, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.Batches) + 1
	if m.AddErr != nil && (m.FailAddAt == 0 || m.FailAddAt == call) {
		m.Batches = append(m.Batches, nil)
		return m.AddErr
	}
	m.Batches = append(m.Batches, append([]string{}, ids...))
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Added returns every id successfully appended, in order.
func (m *MockCatalog) Added() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.Batches {
		out = append(out, b...)
	}
	return out
}

// Candidate builds a search result with the given id, title and artists.
func Candidate(id, title string, artists ...string) models.CandidateTrack {
	return models.CandidateTrack{ID: id, URI: "spotify:track:" + id, Title: title, Artists: artists}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// AssertContains fails when any of wants is missing from s.
func AssertContains(t *testing.T, s string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(s, w) {
			t.Errorf("expected output to contain %q, got:\n%s", w, s)
		}
	}
}
