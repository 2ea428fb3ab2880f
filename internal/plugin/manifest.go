// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package plugin loads plugin manifests from disk and wires their hook
// bindings into the dispatcher.
package plugin

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// idRe matches plugin ids: lowercase slug, no leading separator.
var idRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// exportRe matches wasm export names bound to hooks.
var exportRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// semverRe matches strict semver (no "v" prefix): MAJOR.MINOR.PATCH[-prerelease][+build].
// Leading zeros on numeric segments are disallowed per semver spec.
var semverRe = regexp.MustCompile(
	`^(?:0|[1-9]\d*)\.(?:0|[1-9]\d*)\.(?:0|[1-9]\d*)` +
		`(?:-(?:[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+(?:[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`,
)

// HookBinding binds one registry hook name to a wasm export.
type HookBinding struct {
	Hook   string `yaml:"hook"`
	Export string `yaml:"export,omitempty"`
}

// ExportName returns the wasm export bound to this hook. When the
// manifest leaves it unset, the convention is "hook_" + hook name.
func (b HookBinding) ExportName() string {
	if b.Export != "" {
		return b.Export
	}
	return "hook_" + b.Hook
}

// Manifest is the parsed plugin.yaml of a single plugin directory.
type Manifest struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	Version        string         `yaml:"version"`
	Description    string         `yaml:"description,omitempty"`
	Author         string         `yaml:"author,omitempty"`
	Module         string         `yaml:"module"`
	BackendHooks   []HookBinding  `yaml:"backend_hooks,omitempty"`
	FrontendHooks  []HookBinding  `yaml:"frontend_hooks,omitempty"`
	SettingsSchema map[string]any `yaml:"settings_schema,omitempty"`
}

// ParseManifest parses YAML data into a Manifest and validates it.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodePluginManifestInvalid, "manifest parse")
	}

	if errs := m.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}

	return &m, nil
}

// Validate checks that the Manifest is well-formed. It returns all
// validation errors found rather than stopping at the first one.
func (m *Manifest) Validate() []error {
	var errs []error

	if !idRe.MatchString(m.ID) {
		errs = append(errs, inkerr.Errorf(inkerr.CodePluginManifestInvalid,
			"manifest validation: id must be a lowercase slug, got %q", m.ID))
	}

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, inkerr.New(inkerr.CodePluginManifestInvalid,
			"manifest validation: name must not be empty"))
	}

	if strings.TrimSpace(m.Version) == "" {
		errs = append(errs, inkerr.New(inkerr.CodePluginManifestInvalid,
			"manifest validation: version must not be empty"))
	} else if !semverRe.MatchString(m.Version) {
		errs = append(errs, inkerr.Errorf(inkerr.CodePluginManifestInvalid,
			"manifest validation: version must be valid semver (MAJOR.MINOR.PATCH), got %q", m.Version))
	}

	if strings.TrimSpace(m.Module) == "" {
		errs = append(errs, inkerr.New(inkerr.CodePluginManifestInvalid,
			"manifest validation: module must name the plugin's wasm file"))
	} else if strings.Contains(m.Module, "..") {
		errs = append(errs, inkerr.Errorf(inkerr.CodePluginManifestInvalid,
			"manifest validation: module path %q must stay inside the plugin directory", m.Module))
	}

	if len(m.BackendHooks) == 0 && len(m.FrontendHooks) == 0 {
		errs = append(errs, inkerr.New(inkerr.CodePluginManifestInvalid,
			"manifest validation: plugin declares no hook bindings"))
	}

	for i, b := range m.BackendHooks {
		if err := validateBinding(b); err != nil {
			errs = append(errs, inkerr.Errorf(inkerr.CodePluginManifestInvalid,
				"manifest validation: backend_hooks[%d]: %s", i, err))
		}
	}
	for i, b := range m.FrontendHooks {
		if err := validateBinding(b); err != nil {
			errs = append(errs, inkerr.Errorf(inkerr.CodePluginManifestInvalid,
				"manifest validation: frontend_hooks[%d]: %s", i, err))
		}
	}

	return errs
}

func validateBinding(b HookBinding) error {
	if strings.TrimSpace(b.Hook) == "" {
		return fmt.Errorf("hook name must not be empty")
	}
	if !exportRe.MatchString(b.ExportName()) {
		return fmt.Errorf("export %q is not a valid wasm export name", b.ExportName())
	}
	return nil
}

// Bindings returns the backend bindings followed by the frontend ones,
// each list in manifest order.
func (m *Manifest) Bindings() []HookBinding {
	out := make([]HookBinding, 0, len(m.BackendHooks)+len(m.FrontendHooks))
	out = append(out, m.BackendHooks...)
	return append(out, m.FrontendHooks...)
}

// BackendHookNames returns the declared backend hook names in order.
func (m *Manifest) BackendHookNames() []string {
	return bindingNames(m.BackendHooks)
}

// FrontendHookNames returns the declared frontend hook names in order.
func (m *Manifest) FrontendHookNames() []string {
	return bindingNames(m.FrontendHooks)
}

func bindingNames(bindings []HookBinding) []string {
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.Hook
	}
	return names
}
