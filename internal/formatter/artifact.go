package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// legacyArtifact is the parallel-array layout written by earlier versions of the extractor.
type legacyArtifact struct {
	Songs   []string `json:"songs"`
	Artists []string `json:"artists"`
}

// EncodeArtifact serializes a [models.PlaylistRecord] as indented JSON. A nil track list is written as [].
func EncodeArtifact(record *models.PlaylistRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil playlist record", shared.ErrInvalidArtifact)
	}
	out := *record
	if out.Tracks == nil {
		out.Tracks = []models.SourceTrack{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeArtifact parses either artifact layout. Legacy files carry no playlist name, so Name is left empty.
func DecodeArtifact(data []byte) (*models.PlaylistRecord, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArtifact, err)
	}

	if _, ok := probe["tracks"]; ok {
		var record models.PlaylistRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArtifact, err)
		}
		for i, t := range record.Tracks {
			if t.Title == "" {
				return nil, fmt.Errorf("%w: track %d has no title", shared.ErrInvalidArtifact, i+1)
			}
		}
		return &record, nil
	}

	if _, ok := probe["songs"]; ok {
		var legacy legacyArtifact
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArtifact, err)
		}
		record := &models.PlaylistRecord{Tracks: make([]models.SourceTrack, 0, len(legacy.Songs))}
		for i, song := range legacy.Songs {
			if song == "" {
				continue
			}
			t := models.SourceTrack{Title: song}
			if i < len(legacy.Artists) {
				t.Artist = legacy.Artists[i]
			}
			record.Tracks = append(record.Tracks, t)
		}
		return record, nil
	}

	return nil, fmt.Errorf("%w: expected a \"tracks\" or \"songs\" key", shared.ErrInvalidArtifact)
}

// WriteArtifact atomically writes record to path; an existing artifact is only replaced once the new one is complete.
func WriteArtifact(path string, record *models.PlaylistRecord) error {
	data, err := EncodeArtifact(record)
	if err != nil {
		return err
	}
	if err := shared.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// ReadArtifact loads and decodes the artifact at path.
func ReadArtifact(path string) (*models.PlaylistRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return DecodeArtifact(data)
}

// RenderReview renders the numbered "Title - Artist" list users skim before migrating.
func RenderReview(record *models.PlaylistRecord) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlist: %s\n", record.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(record.Tracks))

	for i, t := range record.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s", i+1, t.Title, t.Artist)
		if t.Album != nil && *t.Album != "" {
			fmt.Fprintf(&buf, " (%s)", *t.Album)
		}
		if t.DurationMS != nil {
			fmt.Fprintf(&buf, " [%s]", shared.FormatDuration(*t.DurationMS))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteReview writes [RenderReview] output to path.
func WriteReview(path string, record *models.PlaylistRecord) error {
	if err := shared.WriteFileAtomic(path, RenderReview(record), 0o644); err != nil {
		return fmt.Errorf("failed to write review list: %w", err)
	}
	return nil
}
