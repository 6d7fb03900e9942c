package data

import (
	"time"

	json "github.com/goccy/go-json"
)

// SidecarSuffix is appended to an asset's source path to form the
// path of its companion metadata file.
const SidecarSuffix = ".meta"

// MetaSidecar is the companion record written next to every imported
// source file. It is the source of truth for identifier stability: a
// reimport of the same path must reuse the recorded identifier, never
// mint a new one, so cross-asset references stay valid.
type MetaSidecar struct {
	ID GUID `json:"id"`

	// Virtual path of the source file at import time
	SourcePath string `json:"source_path"`

	// Importer settings used for the last import
	Settings map[string]string `json:"settings,omitempty"`

	// Dependencies extracted during the last import
	Dependencies []GUID `json:"dependencies,omitempty"`

	// Modification time of the source when it was last imported.
	// A matching time on disk means the scan can skip the file.
	SourceModTime time.Time `json:"source_mod_time"`
}

// SidecarPath returns the sidecar path for an asset source path.
func SidecarPath(sourcePath string) string {
	return sourcePath + SidecarSuffix
}

// IsSidecarPath reports whether the path names a sidecar file.
func IsSidecarPath(p string) bool {
	return len(p) > len(SidecarSuffix) && p[len(p)-len(SidecarSuffix):] == SidecarSuffix
}

// Marshal provides JSON serialization for MetaSidecar.
func (s *MetaSidecar) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal provides JSON deserialization for MetaSidecar.
func (s *MetaSidecar) Unmarshal(blob []byte) error {
	return json.Unmarshal(blob, s)
}

// UpToDate reports whether the recorded source time matches the given
// on-disk modification time, meaning a reimport is unnecessary.
func (s *MetaSidecar) UpToDate(sourceModTime time.Time) bool {
	return s.SourceModTime.Equal(sourceModTime)
}
