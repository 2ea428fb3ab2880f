// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package builtin holds the in-process hook handlers Inkpress ships with.
// They use the same handler contract as sandboxed plugin handlers and
// double as reference implementations of it.
package builtin

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/inkpress-dev/inkpress/internal/hook/dispatch"
)

// PluginID attributes builtin handlers in dispatch logs.
const PluginID = "builtin"

// excerptMaxRunes bounds a derived excerpt.
const excerptMaxRunes = 200

// wordsPerMinute is the reading-speed assumption for the reading time stat.
const wordsPerMinute = 200

// Register wires the builtin handlers into the dispatcher. Called before
// plugin discovery so builtins run first in every pipe they share.
func Register(d *dispatch.Dispatcher) {
	d.Register("excerpt_generate", PluginID, dispatch.NewNativeHandler(generateExcerpt))
	d.Register("article_after_create", PluginID, dispatch.NewNativeHandler(logReadingTime))
}

// generateExcerpt fills the excerpt field from content when the author
// left it empty. Fields it does not touch pass through untouched.
func generateExcerpt(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
	if gjson.GetBytes(payload, "excerpt").String() != "" {
		return payload, nil
	}

	content := gjson.GetBytes(payload, "content").String()
	if content == "" {
		return payload, nil
	}

	out, err := sjson.SetBytes(payload, "excerpt", deriveExcerpt(content))
	if err != nil {
		return nil, err
	}

	return json.RawMessage(out), nil
}

// deriveExcerpt takes the first words of content, flattened to a single
// line, capped at excerptMaxRunes runes with an ellipsis.
func deriveExcerpt(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(flat) <= excerptMaxRunes {
		return flat
	}

	runes := []rune(flat)
	cut := string(runes[:excerptMaxRunes])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

// logReadingTime records an estimated reading time for a new article.
// Action handler: the return value is discarded by the dispatcher.
func logReadingTime(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
	content := gjson.GetBytes(payload, "content").String()
	words := len(strings.Fields(content))

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	slog.Info("article reading time",
		"article_id", gjson.GetBytes(payload, "article_id").Int(),
		"words", words,
		"minutes", minutes)

	return payload, nil
}
