package dedup

import (
	"context"
	"fmt"
	"strings"
)

// TagStore is the narrow storage dependency FixTags needs: a way to find
// rows whose tags column holds a legacy stringified-list literal instead of
// a proper array, and to rewrite them.
type TagStore interface {
	RawTagRows(ctx context.Context) (map[int64]string, error)
	SetTags(ctx context.Context, id int64, tags []string) error
}

// FixTagsResult reports what FixTags repaired.
type FixTagsResult struct {
	Fixed  int
	Errors []string
}

// FixTags repairs legacy rows whose tags were written by an older importer
// as a Python-style stringified list (e.g. "['a', 'b']") rather than a real
// array column. On this schema tags is text[] from the first migration, so
// in steady state RawTagRows returns nothing and this is a no-op; it exists
// so the admin endpoint has real behavior against any row a legacy importer
// still manages to write this way. Grounded on
// original_source/app/services/maintenance_service.py::fix_tags.
func FixTags(ctx context.Context, store TagStore) (FixTagsResult, error) {
	rows, err := store.RawTagRows(ctx)
	if err != nil {
		return FixTagsResult{}, fmt.Errorf("list raw tag rows: %w", err)
	}

	var res FixTagsResult

	for id, raw := range rows {
		tags, ok := parseStringifiedList(raw)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("id=%d: not a stringified list", id))
			continue
		}

		if err := store.SetTags(ctx, id, tags); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("id=%d: %v", id, err))
			continue
		}

		res.Fixed++
	}

	return res, nil
}

// parseStringifiedList parses a literal like "['a', 'b', 'c']" into its
// elements, mirroring Python's ast.literal_eval for the simple string-list
// case the legacy importer produced. Anything else is rejected.
func parseStringifiedList(raw string) ([]string, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}, true
	}

	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		out = append(out, p)
	}

	return out, true
}
