package artifact

import (
	"encoding/json"
	"time"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

// GeneratorVersion is recorded in every metadata document.
const GeneratorVersion = "1.0.1"

// Metadata describes a completed documentation run.
type Metadata struct {
	GenerationInfo GenerationInfo `json:"generation_info"`
	Statistics     Statistics     `json:"statistics"`
	FilesGenerated []string       `json:"files_generated"`
	Projection     string         `json:"projection,omitempty"`
}

// GenerationInfo identifies the run.
type GenerationInfo struct {
	Timestamp        time.Time `json:"timestamp"`
	MainModel        string    `json:"main_model"`
	GeneratorVersion string    `json:"generator_version"`
	RepoPath         string    `json:"repo_path"`
	CommitID         string    `json:"commit_id,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
}

// Statistics summarises the documented repository.
type Statistics struct {
	TotalComponents int `json:"total_components"`
	LeafNodes       int `json:"leaf_nodes"`
	MaxDepth        int `json:"max_depth"`
	GenerationCalls int `json:"generation_calls"`
}

// WriteMetadata writes the metadata document. FilesGenerated is filled from
// the documents present in the store when empty.
func (s *Store) WriteMetadata(m Metadata) error {
	if m.GenerationInfo.GeneratorVersion == "" {
		m.GenerationInfo.GeneratorVersion = GeneratorVersion
	}
	if len(m.FilesGenerated) == 0 {
		docs, err := s.ListDocs()
		if err != nil {
			return err
		}
		m.FilesGenerated = docs
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return cwerrors.NewArtifactError("failed to encode metadata", err).WithPath(s.Path(MetadataFile))
	}
	return s.write(MetadataFile, data)
}

// ReadMetadata reads the metadata document.
func (s *Store) ReadMetadata() (*Metadata, error) {
	data, err := s.read(MetadataFile)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, cwerrors.NewArtifactError("metadata is not valid JSON", cwerrors.ErrArtifactCorrupted).WithPath(s.Path(MetadataFile))
	}
	return &m, nil
}
