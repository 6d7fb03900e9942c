package assets

import (
	"strings"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
)

// DependencyScanner extracts dependency identifiers from an asset's
// settings blob and keeps the dependency graph and the metadata's
// cached dependency list synchronized.
type DependencyScanner struct {
	registry *Registry
	graph    *DependencyGraph
	logger   *log.Logger
}

// ScanProgress reports (processed, total) during a full scan.
type ScanProgress func(processed, total int)

func NewDependencyScanner(registry *Registry, graph *DependencyGraph, logger *log.Logger) *DependencyScanner {
	if logger == nil {
		logger = log.Default().Named("depscan")
	}

	return &DependencyScanner{
		registry: registry,
		graph:    graph,
		logger:   logger,
	}
}

// Extract returns the dependency identifiers found in the asset's
// settings blob, without touching the graph. Self-references and
// duplicates are dropped. Types without a dedicated extraction fall
// back to the dependency list already cached on the metadata.
func (s *DependencyScanner) Extract(meta *data.AssetMetadata) []data.GUID {
	switch meta.Type {
	case data.TypeMaterial:
		return dedupe(meta.ID, s.extractMaterial(meta))
	case data.TypeScene, data.TypePrefab:
		return dedupe(meta.ID, s.extractReferences(meta))
	default:
		return dedupe(meta.ID, meta.Dependencies)
	}
}

// extractMaterial pulls the shader reference and every texture slot.
func (s *DependencyScanner) extractMaterial(meta *data.AssetMetadata) []data.GUID {
	var refs []data.GUID

	for key, value := range meta.Settings {
		if key != SettingShader && !strings.HasPrefix(key, SettingTexturePrefix) {
			continue
		}

		if id, ok := data.ParseGUID(value); ok {
			refs = append(refs, id)
		} else {
			s.logger.Warn("%s: unparsable reference in setting %q", meta.VirtualPath, key)
		}
	}

	return refs
}

// extractReferences parses the newline-separated reference list that
// scene and prefab importers record.
func (s *DependencyScanner) extractReferences(meta *data.AssetMetadata) []data.GUID {
	raw := meta.GetSetting(SettingReferences, "")
	if raw == "" {
		return nil
	}

	var refs []data.GUID
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if id, ok := data.ParseGUID(line); ok {
			refs = append(refs, id)
		} else {
			s.logger.Warn("%s: unparsable reference %q", meta.VirtualPath, line)
		}
	}

	return refs
}

// Rescan clears the asset's existing forward edges, re-extracts from
// the current settings, re-adds the edges, and writes the refreshed
// list back into the registry record so the metadata cache and the
// graph stay in sync. Returns false when the asset is not registered.
func (s *DependencyScanner) Rescan(id data.GUID) bool {
	meta, exists := s.registry.Get(id)
	if !exists {
		return false
	}

	for _, dependency := range s.graph.DirectDependencies(id) {
		s.graph.RemoveDependency(id, dependency)
	}

	refs := s.Extract(meta)
	for _, dependency := range refs {
		s.graph.AddDependency(id, dependency)
	}

	updated := meta.Clone()
	updated.Dependencies = refs
	return s.registry.Update(id, updated)
}

// ScanAll rescans every registered asset. The optional progress
// callback is invoked after each asset.
func (s *DependencyScanner) ScanAll(progress ScanProgress) {
	records := s.registry.All()
	total := len(records)

	for i, meta := range records {
		s.Rescan(meta.ID)
		if progress != nil {
			progress(i+1, total)
		}
	}
}

func dedupe(self data.GUID, ids []data.GUID) []data.GUID {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[data.GUID]struct{}, len(ids))
	result := make([]data.GUID, 0, len(ids))

	for _, id := range ids {
		if id == self || !id.IsValid() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
