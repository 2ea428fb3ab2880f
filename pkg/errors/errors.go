// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package errors provides coded, structured errors for the Inkpress plugin
// core. Codes follow an area.subject.action.reason dot path so that the
// trailing segment can drive classification helpers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeHookRegistryLoadInvalid  Code = "hook.registry.load.invalid_format"
	CodeHookRegistryNameUnknown  Code = "hook.registry.lookup.not_found"
	CodeHookDispatchFailure      Code = "hook.dispatch.handler.failure"
	CodeHookDispatchTimeout      Code = "hook.dispatch.handler.timeout"
	CodeHookInspectInvalidModule Code = "hook.inspect.module.invalid_format"

	CodeSandboxSpawnFailure     Code = "sandbox.worker.spawn.failure"
	CodeSandboxProtocolInvalid  Code = "sandbox.protocol.response.invalid_format"
	CodeSandboxExecFailure      Code = "sandbox.exec.failure"
	CodeSandboxTimeout          Code = "sandbox.exec.timeout"
	CodeSandboxPathInvalid      Code = "sandbox.path.invalid_input"
	CodeSandboxUnsupported      Code = "sandbox.platform.unsupported"

	CodePluginManifestInvalid  Code = "plugin.manifest.validate.invalid_input"
	CodePluginNotFound         Code = "plugin.registry.get.not_found"
	CodePluginDiscoveryFailure Code = "plugin.discovery.failure"

	CodeStoreDatabaseFailure Code = "store.database.failure"
	CodeStoreStateNotFound   Code = "store.plugin_state.get.not_found"
	CodeStoreInvalidInput    Code = "store.plugin_state.put.invalid_input"

	CodeConfigLoadReadFailure    Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat Code = "config.parse.invalid_format"
	CodeConfigInvalidValue       Code = "config.validate.invalid_value"

	CodeCLIInputInvalid Code = "cli.input.invalid_input"
	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldPlugin(value string) Attr {
	return Field("plugin_id", value)
}

func FieldHook(value string) Attr {
	return Field("hook_name", value)
}

func FieldInvocation(value string) Attr {
	return Field("invocation_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
