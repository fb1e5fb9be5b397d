package core

import (
	"sort"
	"strings"
)

// ApplyListRequest filters names by prefix, orders them and applies the page
// window. Names are sorted ascending unless the request asks otherwise. The
// input slice is not modified.
func ApplyListRequest(names []string, req *ListRequest) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if req != nil && req.Prefix != "" && !strings.HasPrefix(n, req.Prefix) {
			continue
		}
		out = append(out, n)
	}

	desc := req != nil && req.Sort != nil && req.Sort.Order == SortDescending
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i] > out[j]
		}
		return out[i] < out[j]
	})

	if req == nil || req.Page == nil {
		return out
	}
	offset := req.Page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []string{}
	}
	out = out[offset:]
	if req.Page.Limit > 0 && req.Page.Limit < len(out) {
		out = out[:req.Page.Limit]
	}
	return out
}

// DatabaseNames qualifies database names under a catalog
func DatabaseNames(catalog string, names []string) []QualifiedName {
	out := make([]QualifiedName, len(names))
	for i, n := range names {
		out[i] = NewDatabaseName(catalog, n)
	}
	return out
}

// TableNames qualifies table names under a database
func TableNames(database QualifiedName, names []string) []QualifiedName {
	out := make([]QualifiedName, len(names))
	for i, n := range names {
		out[i] = NewTableName(database.Catalog, database.Database, n)
	}
	return out
}

// ContainsName reports whether names holds name
func ContainsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
