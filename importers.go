package assets

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/vfs"
)

// Settings keys shared between importers and the dependency scanner.
const (
	// Material settings referencing other assets
	SettingShader        = "shader"
	SettingTexturePrefix = "texture."

	// Scene and prefab reference list, newline separated
	SettingReferences = "references"
)

// BuiltinImporters returns one shared instance per built-in asset
// type.
func BuiltinImporters() []Importer {
	return []Importer{
		&fileImporter{
			assetType:  data.TypeTexture,
			extensions: []string{".png", ".jpg", ".jpeg", ".tga", ".bmp", ".hdr"},
			defaults:   map[string]string{"srgb": "true", "mipmaps": "true", "filter": "linear"},
		},
		&fileImporter{
			assetType:  data.TypeModel,
			extensions: []string{".obj", ".fbx", ".gltf", ".glb"},
			defaults:   map[string]string{"scale": "1.0", "generate_normals": "false"},
		},
		&materialImporter{},
		&fileImporter{
			assetType:  data.TypeShader,
			extensions: []string{".shader", ".glsl", ".vert", ".frag"},
		},
		&fileImporter{
			assetType:  data.TypeScript,
			extensions: []string{".lua"},
		},
		&fileImporter{
			assetType:  data.TypeAudio,
			extensions: []string{".wav", ".mp3", ".ogg", ".flac"},
			defaults:   map[string]string{"stream": "false", "volume": "1.0"},
		},
		&referenceListImporter{assetType: data.TypeScene, extensions: []string{".scene"}},
		&referenceListImporter{assetType: data.TypePrefab, extensions: []string{".prefab"}},
		&fileImporter{
			assetType:  data.TypeAnimation,
			extensions: []string{".anim"},
		},
		&fileImporter{
			assetType:  data.TypeFont,
			extensions: []string{".ttf", ".otf"},
		},
	}
}

// fileImporter covers asset types whose import only records file facts
// and default settings; the content itself is handled at load time.
type fileImporter struct {
	assetType  data.AssetType
	extensions []string
	defaults   map[string]string
}

func (i *fileImporter) SupportedExtensions() []string {
	return i.extensions
}

func (i *fileImporter) AssetType() data.AssetType {
	return i.assetType
}

func (i *fileImporter) DefaultSettings() map[string]string {
	settings := make(map[string]string, len(i.defaults))
	for k, v := range i.defaults {
		settings[k] = v
	}
	return settings
}

func (i *fileImporter) Import(ctx context.Context, fs vfs.FileSystem, sourcePath string, settings map[string]string) (*data.AssetMetadata, error) {
	return importFileFacts(ctx, fs, sourcePath, i.assetType, settings, i.DefaultSettings())
}

func (i *fileImporter) Reimport(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	return reimportFileFacts(ctx, fs, meta)
}

// materialImporter parses .mat files. A material is a JSON document
// whose shader and texture slots reference other assets by identifier;
// the importer flattens those references into the settings blob where
// the dependency scanner picks them up.
type materialImporter struct{}

type materialDocument struct {
	Shader   string            `json:"shader,omitempty"`
	Textures map[string]string `json:"textures,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

func (*materialImporter) SupportedExtensions() []string {
	return []string{".mat", ".material"}
}

func (*materialImporter) AssetType() data.AssetType {
	return data.TypeMaterial
}

func (*materialImporter) DefaultSettings() map[string]string {
	return map[string]string{}
}

func (m *materialImporter) Import(ctx context.Context, fs vfs.FileSystem, sourcePath string, settings map[string]string) (*data.AssetMetadata, error) {
	meta, err := importFileFacts(ctx, fs, sourcePath, data.TypeMaterial, settings, nil)
	if err != nil {
		return nil, err
	}

	if err := m.parseContent(ctx, fs, meta); err != nil {
		return nil, err
	}

	return meta, nil
}

func (m *materialImporter) Reimport(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	if err := reimportFileFacts(ctx, fs, meta); err != nil {
		return err
	}

	return m.parseContent(ctx, fs, meta)
}

func (m *materialImporter) parseContent(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	content, err := fs.ReadFile(ctx, meta.VirtualPath)
	if err != nil {
		return err
	}

	var doc materialDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%s: %w", meta.VirtualPath, err)
	}

	if doc.Shader != "" {
		meta.SetSetting(SettingShader, doc.Shader)
	}
	for slot, ref := range doc.Textures {
		meta.SetSetting(SettingTexturePrefix+slot, ref)
	}
	for name, value := range doc.Params {
		meta.SetSetting("param."+name, value)
	}

	return nil
}

// referenceListImporter parses scene and prefab files, which carry an
// explicit list of referenced asset identifiers.
type referenceListImporter struct {
	assetType  data.AssetType
	extensions []string
}

type referenceDocument struct {
	References []string `json:"references,omitempty"`
}

func (i *referenceListImporter) SupportedExtensions() []string {
	return i.extensions
}

func (i *referenceListImporter) AssetType() data.AssetType {
	return i.assetType
}

func (*referenceListImporter) DefaultSettings() map[string]string {
	return map[string]string{}
}

func (i *referenceListImporter) Import(ctx context.Context, fs vfs.FileSystem, sourcePath string, settings map[string]string) (*data.AssetMetadata, error) {
	meta, err := importFileFacts(ctx, fs, sourcePath, i.assetType, settings, nil)
	if err != nil {
		return nil, err
	}

	if err := i.parseContent(ctx, fs, meta); err != nil {
		return nil, err
	}

	return meta, nil
}

func (i *referenceListImporter) Reimport(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	if err := reimportFileFacts(ctx, fs, meta); err != nil {
		return err
	}

	return i.parseContent(ctx, fs, meta)
}

func (i *referenceListImporter) parseContent(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	content, err := fs.ReadFile(ctx, meta.VirtualPath)
	if err != nil {
		return err
	}

	var doc referenceDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%s: %w", meta.VirtualPath, err)
	}

	if len(doc.References) > 0 {
		meta.SetSetting(SettingReferences, strings.Join(doc.References, "\n"))
	}

	return nil
}

// importFileFacts builds the common part of every metadata record:
// identity-free file facts plus merged settings.
func importFileFacts(ctx context.Context, fs vfs.FileSystem, sourcePath string, assetType data.AssetType, settings, defaults map[string]string) (*data.AssetMetadata, error) {
	info, err := fs.Stat(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(defaults)+len(settings))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range settings {
		merged[k] = v
	}

	return &data.AssetMetadata{
		VirtualPath: sourcePath,
		Type:        assetType,
		Name:        data.BaseName(sourcePath),
		Size:        info.Size,
		ModTime:     info.ModTime,
		ImportTime:  time.Now(),
		Settings:    merged,
	}, nil
}

func reimportFileFacts(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error {
	info, err := fs.Stat(ctx, meta.VirtualPath)
	if err != nil {
		return err
	}

	meta.Size = info.Size
	meta.ModTime = info.ModTime
	meta.ImportTime = time.Now()
	return nil
}
