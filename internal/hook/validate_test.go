// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress-dev/inkpress/pkg/hook"
)

func TestValidatePluginHooks_AllValid(t *testing.T) {
	reg := MustLoad()

	warnings := ValidatePluginHooks(reg, "seo-toolkit",
		[]string{"article_before_create", "markdown_before_render"},
		[]string{"frontend_head", "markdown_after_render"})

	assert.Empty(t, warnings)
}

func TestValidatePluginHooks_UnknownHook(t *testing.T) {
	reg := MustLoad()

	warnings := ValidatePluginHooks(reg, "seo-toolkit",
		[]string{"article_before_create", "article_before_publish"},
		nil)

	require.Len(t, warnings, 1)
	assert.Equal(t, "seo-toolkit", warnings[0].PluginID)
	assert.Equal(t, "article_before_publish", warnings[0].HookName)
	assert.Equal(t, hook.ReasonUnknownHook, warnings[0].Reason)
}

func TestValidatePluginHooks_ScopeMismatch(t *testing.T) {
	reg := MustLoad()

	// frontend_head is frontend-only; article_before_create backend-only.
	warnings := ValidatePluginHooks(reg, "theme-pack",
		[]string{"frontend_head"},
		[]string{"article_before_create"})

	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, hook.ReasonScopeMismatch, w.Reason)
		assert.Equal(t, "theme-pack", w.PluginID)
	}
}

func TestValidatePluginHooks_BothScopeMatchesEitherList(t *testing.T) {
	reg := MustLoad()

	warnings := ValidatePluginHooks(reg, "md-extras",
		[]string{"markdown_before_render"},
		[]string{"markdown_before_render"})

	assert.Empty(t, warnings)
}

func TestValidatePluginHooks_OneWarningPerDeclaration(t *testing.T) {
	reg := MustLoad()

	// The same unknown name declared under both lists warns twice, once
	// per declaration.
	warnings := ValidatePluginHooks(reg, "p",
		[]string{"ghost_hook"},
		[]string{"ghost_hook"})

	require.Len(t, warnings, 2)
	assert.Equal(t, hook.ReasonUnknownHook, warnings[0].Reason)
	assert.Equal(t, hook.ReasonUnknownHook, warnings[1].Reason)
}

func TestValidatePluginHooks_ArbitraryInput(t *testing.T) {
	reg := MustLoad()

	// Hostile or malformed declarations are data, never a panic.
	inputs := [][]string{
		nil,
		{},
		{""},
		{"", "", ""},
		{"ALL CAPS SPACES", "\x00\xff", "🪝", "a/b/../c"},
	}

	for _, backend := range inputs {
		for _, frontend := range inputs {
			assert.NotPanics(t, func() {
				ValidatePluginHooks(reg, "fuzz", backend, frontend)
			})
		}
	}

	warnings := ValidatePluginHooks(reg, "fuzz", []string{"", "🪝"}, nil)
	assert.Len(t, warnings, 2)
}
