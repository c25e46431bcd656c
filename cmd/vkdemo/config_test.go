// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/vkrender/base/confx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("title = \"hello\"\nvsync = false\nclear_color = \"Teal\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", cfg.Title)
	assert.False(t, cfg.VSyncOn())
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, "vkdemo.png", cfg.Screenshot)

	c, err := cfg.Color()
	require.NoError(t, err)
	assert.InDelta(t, 128.0/255, c.G, 1e-6)
	assert.Zero(t, c.R)
	assert.False(t, cfg.Options().VSync)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 640\nvalidation: true\nlog_level: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
	assert.True(t, cfg.VSyncOn())
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	opts := cfg.Options()
	assert.True(t, opts.Validation)
	assert.True(t, opts.VSync)
	assert.Equal(t, "vkdemo", opts.AppName)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o644))
	_, err := LoadConfig(bad)
	assert.ErrorIs(t, err, confx.ErrUnknownFormat)

	broken := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(broken, []byte("title = "), 0o644))
	_, err = LoadConfig(broken)
	assert.Error(t, err)
}

func TestConfigColor(t *testing.T) {
	cfg := DefaultConfig()
	c, err := cfg.Color()
	require.NoError(t, err)
	assert.Equal(t, float32(1), c.A)

	cfg.ClearColor = "not a color"
	_, err = cfg.Color()
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(path))
	assert.Equal(t, "vkdemo", filepath.Base(filepath.Dir(path)))
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, confx.Save(&Config{Title: "first"}, path))

	stop := make(chan struct{})
	reload, err := WatchConfig(path, stop)
	require.NoError(t, err)

	off := false
	require.NoError(t, confx.Save(&Config{Title: "second", VSync: &off}, path))

	var cfg Config
	require.Eventually(t, func() bool {
		select {
		case cfg = <-reload:
			return cfg.Title == "second"
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, cfg.VSyncOn())

	close(stop)
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-reload:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
