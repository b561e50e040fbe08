package dataset

import (
	"sort"
	"strings"
)

// Record is one (keyword, url) row of the curated dataset.
type Record struct {
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
}

// Index is a read-only view over a dataset snapshot. It is safe for
// concurrent use once built.
type Index struct {
	records   []Record
	lowered   []string // lower-cased keyword of records[i]
	byKeyword map[string][]string
	keywords  []string
}

// Build indexes records. Exact duplicate (keyword, url) pairs are dropped,
// keeping the first occurrence; everything else keeps dataset order.
func Build(records []Record) *Index {
	idx := &Index{
		records:   make([]Record, 0, len(records)),
		lowered:   make([]string, 0, len(records)),
		byKeyword: make(map[string][]string),
	}

	seen := make(map[Record]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}

		idx.records = append(idx.records, r)
		idx.lowered = append(idx.lowered, strings.ToLower(r.Keyword))
		if _, ok := idx.byKeyword[r.Keyword]; !ok {
			idx.keywords = append(idx.keywords, r.Keyword)
		}
		idx.byKeyword[r.Keyword] = append(idx.byKeyword[r.Keyword], r.URL)
	}
	sort.Strings(idx.keywords)

	return idx
}

// SearchBySubstring returns the URLs of every record whose keyword contains
// query, ignoring case. URLs appear once, in first-seen order. An empty query
// matches nothing.
func (idx *Index) SearchBySubstring(query string) []string {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)

	var out []string
	seen := make(map[string]struct{})
	for i, kw := range idx.lowered {
		if !strings.Contains(kw, q) {
			continue
		}
		url := idx.records[i].URL
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}

// LookupExact returns the URLs registered under keyword, compared
// case-sensitively, in insertion order.
func (idx *Index) LookupExact(keyword string) []string {
	urls := idx.byKeyword[keyword]
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return out
}

// Keywords returns the distinct keywords in sorted order.
func (idx *Index) Keywords() []string {
	out := make([]string, len(idx.keywords))
	copy(out, idx.keywords)
	return out
}

// Records returns the deduplicated records in dataset order.
func (idx *Index) Records() []Record {
	out := make([]Record, len(idx.records))
	copy(out, idx.records)
	return out
}

// Len returns the number of deduplicated records.
func (idx *Index) Len() int { return len(idx.records) }
