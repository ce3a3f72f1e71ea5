// Package formatter reads and writes the files exchanged between and after migration stages.
//
// The intermediate artifact ([WriteArtifact], [ReadArtifact]) is the only contract between extraction and
// migration. [DecodeArtifact] also accepts the older {"songs": [...], "artists": [...]} layout.
//
// Reports are built by the pure [BuildReport] and rendered as JSON, plain text, or CSV. [WriteReport] writes all
// three under a timestamped name.
package formatter
