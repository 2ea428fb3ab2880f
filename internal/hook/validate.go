// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package hook

import (
	"github.com/inkpress-dev/inkpress/pkg/hook"
)

// ValidatePluginHooks checks a plugin's declared backend and frontend hook
// lists against the registry. Every declared name not in the registry yields
// an unknown_hook warning; every name present but declared under a list the
// registry scope excludes yields a scope_mismatch warning.
//
// Validation deliberately fails open: warnings never block loading, so a
// plugin written against a newer host catalog still loads, degraded. Unknown
// names are data, not errors — this function never panics on any input.
func ValidatePluginHooks(reg *Registry, pluginID string, backendHooks, frontendHooks []string) []hook.ValidationWarning {
	var warnings []hook.ValidationWarning

	warnings = append(warnings, validateList(reg, pluginID, backendHooks, hook.ScopeBackend)...)
	warnings = append(warnings, validateList(reg, pluginID, frontendHooks, hook.ScopeFrontend)...)

	return warnings
}

func validateList(reg *Registry, pluginID string, names []string, declared hook.Scope) []hook.ValidationWarning {
	var warnings []hook.ValidationWarning

	for _, name := range names {
		def, ok := reg.Get(name)
		if !ok {
			warnings = append(warnings, hook.ValidationWarning{
				PluginID: pluginID,
				HookName: name,
				Reason:   hook.ReasonUnknownHook,
			})
			continue
		}

		if !def.Scope.Includes(declared) {
			warnings = append(warnings, hook.ValidationWarning{
				PluginID: pluginID,
				HookName: name,
				Reason:   hook.ReasonScopeMismatch,
			})
		}
	}

	return warnings
}
