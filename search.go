package assets

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nexelgames/assets/data"
)

// SearchIndex is an inverted index over asset names, paths, tags and
// categories. Queries use AND semantics: every query token must match.
//
// The index follows the single-writer discipline of the registry it
// shadows; callers serialize updates.
type SearchIndex struct {
	// postings maps a token to the set of assets containing it.
	postings map[string]map[data.GUID]struct{}

	// docs remembers each asset's tokens so removal never needs the
	// original metadata.
	docs map[data.GUID][]string
}

func NewSearchIndex() *SearchIndex {
	return &SearchIndex{
		postings: make(map[string]map[data.GUID]struct{}),
		docs:     make(map[data.GUID][]string),
	}
}

// tokenize splits text on non-alphanumeric runes, lowercases and drops
// single-rune fragments.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, field := range fields {
		if utf8.RuneCountInString(field) >= 2 {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func assetTokens(meta *data.AssetMetadata) []string {
	seen := make(map[string]struct{})
	var tokens []string

	add := func(text string) {
		for _, token := range tokenize(text) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}

	add(meta.Name)
	add(meta.VirtualPath)
	add(meta.Category)
	for _, tag := range meta.Tags {
		add(tag)
	}

	return tokens
}

// UpdateAsset (re)indexes one asset, replacing whatever tokens it had.
func (s *SearchIndex) UpdateAsset(meta *data.AssetMetadata) {
	s.RemoveAsset(meta.ID)

	tokens := assetTokens(meta)
	for _, token := range tokens {
		set, exists := s.postings[token]
		if !exists {
			set = make(map[data.GUID]struct{})
			s.postings[token] = set
		}
		set[meta.ID] = struct{}{}
	}
	s.docs[meta.ID] = tokens
}

// RemoveAsset drops an asset from the index, pruning empty postings.
func (s *SearchIndex) RemoveAsset(id data.GUID) {
	tokens, indexed := s.docs[id]
	if !indexed {
		return
	}

	for _, token := range tokens {
		if set, exists := s.postings[token]; exists {
			delete(set, id)
			if len(set) == 0 {
				delete(s.postings, token)
			}
		}
	}
	delete(s.docs, id)
}

// RebuildFrom discards the index and re-indexes every registry entry.
func (s *SearchIndex) RebuildFrom(registry *Registry) {
	s.postings = make(map[string]map[data.GUID]struct{})
	s.docs = make(map[data.GUID][]string)

	for _, meta := range registry.All() {
		s.UpdateAsset(meta)
	}
}

// Search returns the assets matching every token of the query, sorted
// by identifier for stable output. An empty or all-noise query matches
// nothing.
func (s *SearchIndex) Search(query string) []data.GUID {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	// Intersect starting from the rarest token.
	sort.Slice(tokens, func(i, j int) bool {
		return len(s.postings[tokens[i]]) < len(s.postings[tokens[j]])
	})

	first, exists := s.postings[tokens[0]]
	if !exists {
		return nil
	}

	matches := make(map[data.GUID]struct{}, len(first))
	for id := range first {
		matches[id] = struct{}{}
	}

	for _, token := range tokens[1:] {
		set, exists := s.postings[token]
		if !exists {
			return nil
		}
		for id := range matches {
			if _, ok := set[id]; !ok {
				delete(matches, id)
			}
		}
		if len(matches) == 0 {
			return nil
		}
	}

	ids := make([]data.GUID, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})

	return ids
}

// IndexedCount returns the number of indexed assets.
func (s *SearchIndex) IndexedCount() int {
	return len(s.docs)
}
