package data

import (
	"slices"
	"time"

	json "github.com/goccy/go-json"
)

// AssetType classifies an asset for importer and loader dispatch.
type AssetType int

const (
	TypeUnknown AssetType = iota
	TypeTexture
	TypeModel
	TypeMaterial
	TypeShader
	TypeScript
	TypeAudio
	TypeScene
	TypePrefab
	TypeAnimation
	TypeFont
)

var assetTypeNames = map[AssetType]string{
	TypeUnknown:   "unknown",
	TypeTexture:   "texture",
	TypeModel:     "model",
	TypeMaterial:  "material",
	TypeShader:    "shader",
	TypeScript:    "script",
	TypeAudio:     "audio",
	TypeScene:     "scene",
	TypePrefab:    "prefab",
	TypeAnimation: "animation",
	TypeFont:      "font",
}

func (t AssetType) String() string {
	if name, exists := assetTypeNames[t]; exists {
		return name
	}
	return "unknown"
}

// ParseAssetType resolves a type name back to its enum value.
// Unrecognized names map to TypeUnknown.
func ParseAssetType(name string) AssetType {
	for t, n := range assetTypeNames {
		if n == name {
			return t
		}
	}
	return TypeUnknown
}

// AssetMetadata is the registry record for a single asset.
//
// The Dependencies slice is a cached copy of what the dependency graph
// stores; the dependency scanner keeps the two in sync after a rescan.
type AssetMetadata struct {
	// Stable 128-bit identity, unique within a registry
	ID GUID `json:"id"`

	// Normalized project-relative path, also unique within a registry
	VirtualPath string `json:"virtual_path"`

	Type AssetType `json:"type"`

	// Display name shown in editor surfaces
	Name string `json:"name"`

	// Source file size in bytes
	Size int64 `json:"size"`

	// Last modification time of the source file
	ModTime time.Time `json:"mod_time"`

	// When the importer last produced this record
	ImportTime time.Time `json:"import_time"`

	// Opaque per-importer settings blob
	Settings map[string]string `json:"settings,omitempty"`

	// Cached dependency identifiers (graph is authoritative)
	Dependencies []GUID `json:"dependencies,omitempty"`

	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`

	// Optional thumbnail asset reference; zero when absent
	Thumbnail GUID `json:"thumbnail"`
}

// Clone returns a deep copy so callers can diff or stage edits without
// mutating the registry's stored record.
func (m *AssetMetadata) Clone() *AssetMetadata {
	clone := *m

	if m.Settings != nil {
		clone.Settings = make(map[string]string, len(m.Settings))
		for k, v := range m.Settings {
			clone.Settings[k] = v
		}
	}
	clone.Dependencies = slices.Clone(m.Dependencies)
	clone.Tags = slices.Clone(m.Tags)

	return &clone
}

// GetSetting safely retrieves an importer setting with a default value.
func (m *AssetMetadata) GetSetting(key, defaultValue string) string {
	if m.Settings == nil {
		return defaultValue
	}

	if value, exists := m.Settings[key]; exists {
		return value
	}

	return defaultValue
}

// SetSetting safely sets an importer setting, initializing the map if needed.
func (m *AssetMetadata) SetSetting(key, value string) {
	if m.Settings == nil {
		m.Settings = make(map[string]string)
	}

	m.Settings[key] = value
}

// HasTag reports whether the asset carries the given tag.
func (m *AssetMetadata) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// HasDependency reports whether id is in the cached dependency list.
func (m *AssetMetadata) HasDependency(id GUID) bool {
	return slices.Contains(m.Dependencies, id)
}

// Marshal provides JSON serialization for AssetMetadata.
func (m *AssetMetadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal provides JSON deserialization for AssetMetadata.
func (m *AssetMetadata) Unmarshal(blob []byte) error {
	return json.Unmarshal(blob, m)
}
