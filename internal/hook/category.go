// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package hook

import (
	"sort"
	"strings"

	"github.com/inkpress-dev/inkpress/pkg/hook"
)

// categoryPrefixes maps name prefixes to documentation categories. This is
// a presentation heuristic for the catalog generator, not used for dispatch.
var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"article_", "article"},
	{"comment_", "comment"},
	{"category_", "taxonomy"},
	{"tag_", "taxonomy"},
	{"user_", "user"},
	{"auth_", "user"},
	{"markdown_", "content_processing"},
	{"excerpt_", "content_processing"},
	{"sitemap_", "publishing"},
	{"rss_", "publishing"},
	{"frontend_", "frontend"},
	{"theme_", "frontend"},
	{"widget_", "frontend"},
	{"cache_", "system"},
	{"system_", "system"},
}

// CategoryOf returns the documentation category for a hook name.
func CategoryOf(name string) string {
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.category
		}
	}
	return "general"
}

// ByCategory groups all definitions by documentation category. Within a
// category, definitions keep document order.
func (r *Registry) ByCategory() map[string][]hook.Definition {
	out := make(map[string][]hook.Definition)
	for _, def := range r.hooks {
		cat := CategoryOf(def.Name)
		out[cat] = append(out[cat], def)
	}
	return out
}

// Categories returns the category names present in the catalog, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	for _, def := range r.hooks {
		seen[CategoryOf(def.Name)] = true
	}

	cats := make([]string, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}
