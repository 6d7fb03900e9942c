package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/vfs"
)

// FilterCriteria is a conjunctive filter over asset metadata: a zero
// field means "don't care", every set field must match.
type FilterCriteria struct {
	// Types matches when the asset type is any of these.
	Types []data.AssetType `json:"types,omitempty"`

	// Tags must all be present on the asset.
	Tags []string `json:"tags,omitempty"`

	// NamePattern matches the asset name, case-insensitively. A
	// pattern containing * or ? is a glob, anything else a substring.
	NamePattern string `json:"name_pattern,omitempty"`

	// PathPrefix restricts matches to a virtual directory subtree.
	PathPrefix string `json:"path_prefix,omitempty"`

	MinSize int64 `json:"min_size,omitempty"`
	MaxSize int64 `json:"max_size,omitempty"`

	ModifiedAfter  time.Time `json:"modified_after,omitempty"`
	ModifiedBefore time.Time `json:"modified_before,omitempty"`

	// Predicate is an in-process extension hook; it never persists.
	Predicate func(*data.AssetMetadata) bool `json:"-"`
}

// Matches reports whether the asset satisfies every set criterion.
func (c *FilterCriteria) Matches(meta *data.AssetMetadata) bool {
	if len(c.Types) > 0 {
		matched := false
		for _, t := range c.Types {
			if meta.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, tag := range c.Tags {
		if !meta.HasTag(tag) {
			return false
		}
	}

	if c.NamePattern != "" && !matchName(c.NamePattern, meta.Name) {
		return false
	}

	if c.PathPrefix != "" {
		prefix, err := data.NormalizePath(c.PathPrefix)
		if err != nil || !data.HasPathPrefix(meta.VirtualPath, prefix) {
			return false
		}
	}

	if c.MinSize > 0 && meta.Size < c.MinSize {
		return false
	}
	if c.MaxSize > 0 && meta.Size > c.MaxSize {
		return false
	}

	if !c.ModifiedAfter.IsZero() && !meta.ModTime.After(c.ModifiedAfter) {
		return false
	}
	if !c.ModifiedBefore.IsZero() && !meta.ModTime.Before(c.ModifiedBefore) {
		return false
	}

	if c.Predicate != nil && !c.Predicate(meta) {
		return false
	}

	return true
}

func matchName(pattern, name string) bool {
	pattern = strings.ToLower(pattern)
	name = strings.ToLower(name)

	if strings.ContainsAny(pattern, "*?[") {
		matched, err := path.Match(pattern, name)
		return err == nil && matched
	}
	return strings.Contains(name, pattern)
}

// Collection is either a manual set of members or a smart collection
// whose members come from re-evaluating its query and criteria.
type Collection struct {
	Name    string          `json:"name"`
	Members []data.GUID     `json:"members,omitempty"`
	Smart   bool            `json:"smart,omitempty"`
	Query   string          `json:"query,omitempty"`
	Filter  *FilterCriteria `json:"filter,omitempty"`
}

// SavedSearch names a reusable full-text query.
type SavedSearch struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// CollectionManager owns the named collections and saved searches of a
// project and persists them alongside the other caches.
type CollectionManager struct {
	registry *Registry
	index    *SearchIndex

	collections map[string]*Collection
	searches    map[string]*SavedSearch
}

func NewCollectionManager(registry *Registry, index *SearchIndex) *CollectionManager {
	return &CollectionManager{
		registry:    registry,
		index:       index,
		collections: make(map[string]*Collection),
		searches:    make(map[string]*SavedSearch),
	}
}

// CreateManual creates an empty manual collection, replacing any
// existing collection of the same name.
func (m *CollectionManager) CreateManual(name string) *Collection {
	c := &Collection{Name: name}
	m.collections[name] = c
	return c
}

// CreateSmart creates a criteria-driven collection.
func (m *CollectionManager) CreateSmart(name string, filter *FilterCriteria) *Collection {
	c := &Collection{Name: name, Smart: true, Filter: filter}
	m.collections[name] = c
	return c
}

// CreateSmartQuery creates a smart collection seeded by a full-text
// query. An optional filter further restricts the query hits.
func (m *CollectionManager) CreateSmartQuery(name, query string, filter *FilterCriteria) *Collection {
	c := &Collection{Name: name, Smart: true, Query: query, Filter: filter}
	m.collections[name] = c
	return c
}

// Get returns a collection by name.
func (m *CollectionManager) Get(name string) (*Collection, bool) {
	c, exists := m.collections[name]
	return c, exists
}

// Remove drops a collection; the assets themselves are untouched.
func (m *CollectionManager) Remove(name string) bool {
	if _, exists := m.collections[name]; !exists {
		return false
	}
	delete(m.collections, name)
	return true
}

// Names lists all collection names, sorted.
func (m *CollectionManager) Names() []string {
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddMember appends an asset to a manual collection, ignoring
// duplicates. Smart collections reject manual membership.
func (m *CollectionManager) AddMember(name string, id data.GUID) error {
	c, exists := m.collections[name]
	if !exists {
		return fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	if c.Smart {
		return fmt.Errorf("collection %q is smart: %w", name, errors.ErrUnsupported)
	}

	for _, member := range c.Members {
		if member == id {
			return nil
		}
	}
	c.Members = append(c.Members, id)
	return nil
}

// RemoveMember removes an asset from a manual collection.
func (m *CollectionManager) RemoveMember(name string, id data.GUID) error {
	c, exists := m.collections[name]
	if !exists {
		return fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	if c.Smart {
		return fmt.Errorf("collection %q is smart: %w", name, errors.ErrUnsupported)
	}

	for i, member := range c.Members {
		if member == id {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return nil
		}
	}
	return nil
}

// Resolve returns the current members of a collection. Manual
// collections drop members that no longer exist in the registry; smart
// collections re-evaluate their criteria against every asset.
func (m *CollectionManager) Resolve(name string) ([]data.GUID, error) {
	c, exists := m.collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}

	if !c.Smart {
		var live []data.GUID
		for _, id := range c.Members {
			if _, registered := m.registry.Get(id); registered {
				live = append(live, id)
			}
		}
		return live, nil
	}

	var members []data.GUID
	filter := c.Filter
	if filter == nil {
		filter = &FilterCriteria{}
	}

	// A query narrows the candidate set through the index; without
	// one (or without an index), scan the full registry.
	if c.Query != "" && m.index != nil {
		for _, id := range m.index.Search(c.Query) {
			meta, registered := m.registry.Get(id)
			if registered && filter.Matches(meta) {
				members = append(members, id)
			}
		}
		return members, nil
	}

	for _, meta := range m.registry.All() {
		if filter.Matches(meta) {
			members = append(members, meta.ID)
		}
	}
	return members, nil
}

// SaveSearch stores a named query, replacing any previous one.
func (m *CollectionManager) SaveSearch(name, query string) {
	m.searches[name] = &SavedSearch{Name: name, Query: query}
}

// RunSavedSearch executes a stored query against the search index.
func (m *CollectionManager) RunSavedSearch(name string) ([]data.GUID, error) {
	search, exists := m.searches[name]
	if !exists {
		return nil, fmt.Errorf("%w: saved search %q", ErrNotFound, name)
	}
	if m.index == nil {
		return nil, fmt.Errorf("saved search %q: no search index", name)
	}
	return m.index.Search(search.Query), nil
}

// RemoveSearch drops a saved search.
func (m *CollectionManager) RemoveSearch(name string) bool {
	if _, exists := m.searches[name]; !exists {
		return false
	}
	delete(m.searches, name)
	return true
}

// SearchNames lists saved search names, sorted.
func (m *CollectionManager) SearchNames() []string {
	names := make([]string, 0, len(m.searches))
	for name := range m.searches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type collectionDocument struct {
	Collections []*Collection  `json:"collections"`
	Searches    []*SavedSearch `json:"searches"`
}

// Save persists collections and saved searches to one JSON file.
func (m *CollectionManager) Save(ctx context.Context, fs vfs.FileSystem, filePath string) error {
	doc := collectionDocument{}
	for _, name := range m.Names() {
		doc.Collections = append(doc.Collections, m.collections[name])
	}
	for _, name := range m.SearchNames() {
		doc.Searches = append(doc.Searches, m.searches[name])
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collections: %w", err)
	}

	normalized, err := data.NormalizePath(filePath)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(ctx, data.ParentDir(normalized)); err != nil {
		return err
	}
	return fs.WriteFile(ctx, normalized, raw)
}

// Load restores collections and saved searches; a missing file is a
// fresh project, not an error.
func (m *CollectionManager) Load(ctx context.Context, fs vfs.FileSystem, filePath string) error {
	normalized, err := data.NormalizePath(filePath)
	if err != nil {
		return err
	}

	raw, err := fs.ReadFile(ctx, normalized)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil
		}
		return err
	}

	var doc collectionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: collections: %v", data.ErrMalformed, err)
	}

	m.collections = make(map[string]*Collection, len(doc.Collections))
	for _, c := range doc.Collections {
		m.collections[c.Name] = c
	}
	m.searches = make(map[string]*SavedSearch, len(doc.Searches))
	for _, search := range doc.Searches {
		m.searches[search.Name] = search
	}
	return nil
}
