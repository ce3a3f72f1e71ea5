package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/desertthunder/a2s/internal/matcher"
	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
	th "github.com/desertthunder/a2s/internal/testing"
)

// numberedRecord builds n tracks "Song i" by "Artist i". Indexes in missing get no search results.
func numberedRecord(name string, n int, missing ...int) (*models.PlaylistRecord, *th.MockCatalog, []string) {
	skip := map[int]bool{}
	for _, i := range missing {
		skip[i] = true
	}

	record := &models.PlaylistRecord{Name: name}
	results := map[string][]models.CandidateTrack{}
	var want []string
	for i := range n {
		title, artist := fmt.Sprintf("Song %d", i), fmt.Sprintf("Artist %d", i)
		record.Tracks = append(record.Tracks, models.SourceTrack{Title: title, Artist: artist})
		if skip[i] {
			continue
		}
		id := fmt.Sprintf("id-%d", i)
		results[title+" "+artist] = []models.CandidateTrack{th.Candidate(id, title, artist)}
		want = append(want, id)
	}
	return record, th.NewMockCatalog(results), want
}

func newTestMigrator(t *testing.T, catalog *th.MockCatalog, opts MigratorOpts) *Migrator {
	t.Helper()
	mopts, err := matcher.OptionsFromConfig(shared.DefaultConfig().Matching)
	if err != nil {
		t.Fatal(err)
	}
	if opts.PlaylistName == "" {
		opts.PlaylistName = "Dest"
	}
	return NewMigrator(catalog, matcher.New(catalog, mopts, nil), opts)
}

func TestMigrator(t *testing.T) {
	ctx := context.Background()

	t.Run("batches preserve source order", func(t *testing.T) {
		record, catalog, want := numberedRecord("Big", 250)
		result, err := newTestMigrator(t, catalog, MigratorOpts{BatchSize: 100}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}

		if len(catalog.Created) != 1 {
			t.Fatalf("expected exactly one playlist, got %d", len(catalog.Created))
		}
		sizes := []int{len(catalog.Batches[0]), len(catalog.Batches[1]), len(catalog.Batches[2])}
		if len(catalog.Batches) != 3 || !reflect.DeepEqual(sizes, []int{100, 100, 50}) {
			t.Errorf("unexpected batch sizes %v", sizes)
		}
		if !reflect.DeepEqual(catalog.Added(), want) {
			t.Error("added ids are out of source order")
		}
		if result.Added != 250 || !result.Completed || len(result.Results) != 250 {
			t.Errorf("unexpected result: added=%d completed=%v results=%d", result.Added, result.Completed, len(result.Results))
		}
	})

	t.Run("one result per track, unmatched tracks are skipped", func(t *testing.T) {
		record, catalog, want := numberedRecord("Mixed", 5, 2)
		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Results) != 5 || result.Matched() != 4 {
			t.Errorf("expected 5 results with 4 matched, got %d/%d", len(result.Results), result.Matched())
		}
		if result.Results[2].Status != models.StatusNotFound || result.Results[2].Reason != models.ReasonNoResults {
			t.Errorf("unexpected result for missing track %+v", result.Results[2])
		}
		if !reflect.DeepEqual(catalog.Added(), want) {
			t.Errorf("added = %v, want %v", catalog.Added(), want)
		}
	})

	t.Run("no matches creates no playlist", func(t *testing.T) {
		record, catalog, _ := numberedRecord("None", 3, 0, 1, 2)
		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(catalog.Created) != 0 || result.Playlist != nil {
			t.Error("expected no playlist to be created")
		}
		if !result.Completed || len(result.Results) != 3 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("empty record", func(t *testing.T) {
		catalog := th.NewMockCatalog(nil)
		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, &models.PlaylistRecord{Name: "Empty"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Results) != 0 || len(catalog.Created) != 0 || len(catalog.Searches) != 0 {
			t.Errorf("expected no work for an empty record, got %+v", result)
		}
	})

	t.Run("nil record", func(t *testing.T) {
		_, err := newTestMigrator(t, th.NewMockCatalog(nil), MigratorOpts{}).Migrate(ctx, nil, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("playlist creation fails", func(t *testing.T) {
		record, catalog, _ := numberedRecord("Fail", 2)
		catalog.CreateErr = shared.ErrTokenExpired
		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil)

		var pwe *PlaylistWriteError
		if !errors.As(err, &pwe) || pwe.PlaylistID != "" {
			t.Fatalf("expected PlaylistWriteError without a playlist, got %v", err)
		}
		if !errors.Is(err, shared.ErrPlaylistWrite) || !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected error to match ErrPlaylistWrite and the cause, got %v", err)
		}
		if len(result.Results) != 2 || result.Completed {
			t.Errorf("expected partial result, got %+v", result)
		}
	})

	t.Run("append fails mid-way", func(t *testing.T) {
		record, catalog, want := numberedRecord("Partial", 250)
		catalog.AddErr = errors.New("forbidden")
		catalog.FailAddAt = 2

		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil)
		var pwe *PlaylistWriteError
		if !errors.As(err, &pwe) {
			t.Fatalf("expected PlaylistWriteError, got %v", err)
		}
		if pwe.PlaylistID != "mock-pl-1" || pwe.Added != 100 || result.Added != 100 {
			t.Errorf("unexpected failure state %+v (result added %d)", pwe, result.Added)
		}
		if !reflect.DeepEqual(catalog.Added(), want[:100]) {
			t.Error("expected only the first batch to be added")
		}
	})

	t.Run("fatal search error stops the run", func(t *testing.T) {
		record, catalog, _ := numberedRecord("Expired", 5)
		catalog.SearchErrs["Song 2 Artist 2"] = shared.ErrTokenExpired

		result, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if len(result.Results) != 2 || len(catalog.Created) != 0 {
			t.Errorf("expected 2 results and no playlist, got %d results, %d playlists", len(result.Results), len(catalog.Created))
		}
	})

	t.Run("bad query only skips that query", func(t *testing.T) {
		record, catalog, want := numberedRecord("Bad", 2)
		catalog.SearchErrs[`Song 0 artist:"Artist 0"`] = shared.ErrBadQuery
		catalog.Results["Song 0 Artist 0"] = nil
		catalog.Results["Song 0"] = []models.CandidateTrack{th.Candidate("id-0", "Song 0", "Artist 0")}

		if _, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, nil); err != nil {
			t.Fatalf("expected bad query to be skipped, got %v", err)
		}
		if !reflect.DeepEqual(catalog.Added(), want) {
			t.Errorf("added = %v, want %v", catalog.Added(), want)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		record, catalog, _ := numberedRecord("Progress", 2)
		progress := make(chan ProgressUpdate, 32)
		if _, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, progress); err != nil {
			t.Fatal(err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != u.Phase {
				phases = append(phases, u.Phase)
			}
		}
		want := []Phase{Match, CreatePlaylist, AddTracks}
		if !reflect.DeepEqual(phases, want) {
			t.Errorf("phases = %v, want %v", phases, want)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		record, catalog, _ := numberedRecord("Blocked", 3)
		progress := make(chan ProgressUpdate)
		if _, err := newTestMigrator(t, catalog, MigratorOpts{}).Migrate(ctx, record, progress); err != nil {
			t.Fatal(err)
		}
	})
}

func TestMigratorResume(t *testing.T) {
	ctx := context.Background()
	path := CheckpointPath(filepath.Join(t.TempDir(), "artifact.json"))

	record, first, want := numberedRecord("Resume", 250)
	first.AddErr = errors.New("server error")
	first.FailAddAt = 2
	if _, err := newTestMigrator(t, first, MigratorOpts{CheckpointPath: path}).Migrate(ctx, record, nil); err == nil {
		t.Fatal("expected the first run to fail")
	}
	th.AssertFileExists(t, path)

	_, second, _ := numberedRecord("Resume", 250)
	result, err := newTestMigrator(t, second, MigratorOpts{CheckpointPath: path}).Migrate(ctx, record, nil)
	if err != nil {
		t.Fatalf("resumed Migrate() error = %v", err)
	}
	if len(second.Created) != 0 {
		t.Error("resume must not create another playlist")
	}
	if !result.Resumed || result.Playlist.ID != "mock-pl-1" {
		t.Errorf("expected to resume mock-pl-1, got %+v", result.Playlist)
	}
	if !reflect.DeepEqual(second.Added(), want[100:]) {
		t.Errorf("expected only the remaining 150 ids to be added, got %d", len(second.Added()))
	}
	if result.Added != 250 || !result.Completed {
		t.Errorf("unexpected result added=%d completed=%v", result.Added, result.Completed)
	}

	t.Run("completed checkpoint adds nothing", func(t *testing.T) {
		_, third, _ := numberedRecord("Resume", 250)
		result, err := newTestMigrator(t, third, MigratorOpts{CheckpointPath: path}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(third.Created) != 0 || len(third.Batches) != 0 || result.Added != 250 {
			t.Errorf("expected an up-to-date playlist, got %d created, %d batches", len(third.Created), len(third.Batches))
		}
	})

	t.Run("fresh discards the checkpoint", func(t *testing.T) {
		_, fourth, _ := numberedRecord("Resume", 250)
		result, err := newTestMigrator(t, fourth, MigratorOpts{CheckpointPath: path, Fresh: true}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(fourth.Created) != 1 || result.Resumed {
			t.Error("expected a new playlist with --fresh")
		}
	})

	t.Run("checkpoint from another playlist is ignored", func(t *testing.T) {
		other, fifth, _ := numberedRecord("Other", 3)
		result, err := newTestMigrator(t, fifth, MigratorOpts{CheckpointPath: path}).Migrate(ctx, other, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(fifth.Created) != 1 || result.Resumed {
			t.Error("expected a new playlist for a different source")
		}
	})
}

func TestMigratorResumeKey(t *testing.T) {
	ctx := context.Background()

	interrupted := func(t *testing.T, record *models.PlaylistRecord, catalog *th.MockCatalog, opts MigratorOpts) {
		t.Helper()
		catalog.AddErr = errors.New("server error")
		catalog.FailAddAt = 2
		if _, err := newTestMigrator(t, catalog, opts).Migrate(ctx, record, nil); err == nil {
			t.Fatal("expected the first run to fail")
		}
		th.AssertFileExists(t, opts.CheckpointPath)
	}

	t.Run("same source name with different tracks", func(t *testing.T) {
		path := CheckpointPath(filepath.Join(t.TempDir(), "artifact.json"))
		record, first, _ := numberedRecord("Anghami Playlist", 150)
		interrupted(t, record, first, MigratorOpts{CheckpointPath: path})

		other, second, want := numberedRecord("Anghami Playlist", 150)
		other.Tracks[0] = models.SourceTrack{Title: "Another Song", Artist: "Another Artist"}
		second.Results["Another Song Another Artist"] = []models.CandidateTrack{th.Candidate("other-0", "Another Song", "Another Artist")}
		want[0] = "other-0"

		result, err := newTestMigrator(t, second, MigratorOpts{CheckpointPath: path}).Migrate(ctx, other, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Resumed || len(second.Created) != 1 {
			t.Errorf("expected a new playlist, got resumed=%v created=%d", result.Resumed, len(second.Created))
		}
		if !reflect.DeepEqual(second.Added(), want) {
			t.Errorf("expected all %d ids in the new playlist, got %d", len(want), len(second.Added()))
		}
	})

	t.Run("different destination name", func(t *testing.T) {
		path := CheckpointPath(filepath.Join(t.TempDir(), "artifact.json"))
		record, first, _ := numberedRecord("Road Trip", 150)
		interrupted(t, record, first, MigratorOpts{CheckpointPath: path, PlaylistName: "Road Trip"})

		_, second, want := numberedRecord("Road Trip", 150)
		result, err := newTestMigrator(t, second, MigratorOpts{CheckpointPath: path, PlaylistName: "Road Trip (copy)"}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Resumed || len(second.Created) != 1 || second.Created[0].Name != "Road Trip (copy)" {
			t.Errorf("expected a new playlist named by the override, got %v", second.Created)
		}
		if !reflect.DeepEqual(second.Added(), want) {
			t.Errorf("expected all %d ids in the new playlist, got %d", len(want), len(second.Added()))
		}
	})
}

func TestMigratorResumeOrder(t *testing.T) {
	ctx := context.Background()
	path := CheckpointPath(filepath.Join(t.TempDir(), "artifact.json"))

	record, first, _ := numberedRecord("Order", 3, 0)
	if _, err := newTestMigrator(t, first, MigratorOpts{CheckpointPath: path}).Migrate(ctx, record, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Added(), []string{"id-1", "id-2"}) {
		t.Fatalf("unexpected first run %v", first.Added())
	}

	// Track 0 is found now; appending it after id-2 would break source order.
	_, second, want := numberedRecord("Order", 3)
	result, err := newTestMigrator(t, second, MigratorOpts{CheckpointPath: path}).Migrate(ctx, record, nil)
	if !errors.Is(err, shared.ErrStaleCheckpoint) {
		t.Fatalf("expected ErrStaleCheckpoint, got %v", err)
	}
	if len(second.Created) != 0 || len(second.Batches) != 0 {
		t.Errorf("expected no playlist writes, got %d created, %d batches", len(second.Created), len(second.Batches))
	}
	if len(result.Results) != 3 || result.Completed {
		t.Errorf("expected match results without completion, got %+v", result)
	}
	th.AssertFileExists(t, path)

	t.Run("fresh rebuilds in order", func(t *testing.T) {
		_, third, _ := numberedRecord("Order", 3)
		result, err := newTestMigrator(t, third, MigratorOpts{CheckpointPath: path, Fresh: true}).Migrate(ctx, record, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Resumed || len(third.Created) != 1 {
			t.Error("expected a new playlist with --fresh")
		}
		if !reflect.DeepEqual(third.Added(), want) {
			t.Errorf("added = %v, want %v", third.Added(), want)
		}
	})
}
