package assets

import (
	"context"
	"strings"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/vfs"
)

// Importer turns a source file into registry metadata. One importer
// instance may serve many extensions (a texture importer handles
// .png, .jpg and .hdr alike).
type Importer interface {
	// SupportedExtensions returns the extensions this importer claims,
	// with leading dot, in any case.
	SupportedExtensions() []string

	// AssetType returns the type this importer produces.
	AssetType() data.AssetType

	// DefaultSettings returns the settings applied when the caller
	// supplies none.
	DefaultSettings() map[string]string

	// Import produces fresh metadata for the source file. The returned
	// record has no identifier; the scanner assigns one.
	Import(ctx context.Context, fs vfs.FileSystem, sourcePath string, settings map[string]string) (*data.AssetMetadata, error)

	// Reimport refreshes an existing record in place from the current
	// source content, preserving its identifier.
	Reimport(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) error
}

// ImporterFactory maps file extensions to importer instances.
// Extensions match case-insensitively. Registering an importer for
// an already-claimed extension overwrites the mapping — last
// registration wins. Each type keeps at most one canonical importer,
// again last-wins, used for factory-initiated reimports.
type ImporterFactory struct {
	byExtension map[string]Importer
	byType      map[data.AssetType]Importer
}

func NewImporterFactory() *ImporterFactory {
	return &ImporterFactory{
		byExtension: make(map[string]Importer),
		byType:      make(map[data.AssetType]Importer),
	}
}

// NewDefaultImporterFactory returns a factory with every built-in
// importer registered.
func NewDefaultImporterFactory() *ImporterFactory {
	f := NewImporterFactory()
	for _, imp := range BuiltinImporters() {
		f.Register(imp)
	}
	return f
}

// Register claims every supported extension for the importer.
func (f *ImporterFactory) Register(imp Importer) {
	for _, ext := range imp.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.byExtension[ext] = imp
	}

	f.byType[imp.AssetType()] = imp
}

// ForExtension resolves the importer claiming ext, matching
// case-insensitively with or without the leading dot.
func (f *ImporterFactory) ForExtension(ext string) (Importer, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	imp, exists := f.byExtension[ext]
	return imp, exists
}

// ForPath resolves the importer for a file path by its extension.
func (f *ImporterFactory) ForPath(p string) (Importer, bool) {
	ext := data.Extension(p)
	if ext == "" {
		return nil, false
	}
	return f.ForExtension(ext)
}

// ForType resolves the canonical importer for an asset type.
func (f *ImporterFactory) ForType(t data.AssetType) (Importer, bool) {
	imp, exists := f.byType[t]
	return imp, exists
}

// Extensions returns every claimed extension, unordered.
func (f *ImporterFactory) Extensions() []string {
	exts := make([]string, 0, len(f.byExtension))
	for ext := range f.byExtension {
		exts = append(exts, ext)
	}
	return exts
}
