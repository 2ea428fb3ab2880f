// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/inkpress-dev/inkpress/internal/config"
	hookreg "github.com/inkpress-dev/inkpress/internal/hook"
	"github.com/inkpress-dev/inkpress/internal/hook/dispatch"
	"github.com/inkpress-dev/inkpress/internal/hook/sandbox"
	"github.com/inkpress-dev/inkpress/internal/plugin"
	"github.com/inkpress-dev/inkpress/internal/plugin/builtin"
	"github.com/inkpress-dev/inkpress/internal/store"
	"github.com/inkpress-dev/inkpress/internal/store/sqlite"
)

// core bundles the wired plugin subsystem for CLI commands.
type core struct {
	cfg        *config.Config
	registry   *hookreg.Registry
	dispatcher *dispatch.Dispatcher
	manager    *plugin.Manager
	states     store.PluginStateStore
}

// buildRegistry loads the embedded catalog. Malformed embedded data is a
// build defect; the error propagates and the process exits.
func buildRegistry() (*hookreg.Registry, error) {
	return hookreg.Load()
}

// buildCore wires registry, dispatcher, state store, sandbox runner, and
// plugin manager from configuration, then runs discovery.
func buildCore(ctx context.Context) (*core, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry()
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(registry)
	builtin.Register(dispatcher)

	runner, err := sandbox.NewRunner(cfg.Sandbox.WorkerPath,
		sandbox.WithTimeout(cfg.Sandbox.Timeout),
		sandbox.WithBubblewrap(cfg.Sandbox.Bubblewrap))
	if err != nil {
		return nil, err
	}

	states, err := sqlite.NewStateStore(cfg.Plugins.DBPath)
	if err != nil {
		return nil, err
	}

	manager := plugin.NewManager(cfg.Plugins.Dir, registry, dispatcher, states, runner)
	if err := manager.Discover(ctx); err != nil {
		_ = states.Close()
		return nil, err
	}

	return &core{
		cfg:        cfg,
		registry:   registry,
		dispatcher: dispatcher,
		manager:    manager,
		states:     states,
	}, nil
}

// Close releases everything buildCore opened.
func (c *core) Close() error {
	return c.states.Close()
}
