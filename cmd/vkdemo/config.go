// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"

	"cogentcore.org/vkrender/base/confx"
	"cogentcore.org/vkrender/base/logx"
	"cogentcore.org/vkrender/vkrender"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/image/colornames"
)

// Config is the demo configuration, read from a TOML or YAML file.
type Config struct {

	// Title is the window title.
	Title string `toml:"title" yaml:"title"`

	// Width and Height are the initial window size.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// VSync selects FIFO presentation. It is re-applied when
	// the config file changes. Nil means on, so that a file
	// can turn it off over the default.
	VSync *bool `toml:"vsync,omitempty" yaml:"vsync,omitempty"`

	// Validation enables the validation layer.
	Validation bool `toml:"validation" yaml:"validation"`

	// ClearColor is an SVG color name.
	ClearColor string `toml:"clear_color" yaml:"clear_color"`

	// VertexBuffers is the vertex ring size.
	VertexBuffers int `toml:"vertex_buffers" yaml:"vertex_buffers"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// ShaderDir holds compiled SPIR-V shaders. Empty uses the
	// embedded shaders.
	ShaderDir string `toml:"shader_dir" yaml:"shader_dir"`

	// Image is drawn as a textured quad when set.
	Image string `toml:"image" yaml:"image"`

	// Screenshot is where the S key saves the window contents.
	Screenshot string `toml:"screenshot" yaml:"screenshot"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Title:         "vkdemo",
		Width:         1024,
		Height:        768,
		ClearColor:    "midnightblue",
		VertexBuffers: vkrender.NumVertexBuffers,
		LogLevel:      "warn",
		Screenshot:    "vkdemo.png",
	}
}

// ConfigPath returns the default config file, ~/.config/vkdemo/config.toml.
func ConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vkdemo", "config.toml"), nil
}

// LoadConfig returns the defaults with the values set in the given
// file merged on top. A missing file gives the defaults.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	if filename == "" {
		return cfg, nil
	}
	path, err := homedir.Expand(filename)
	if err != nil {
		return cfg, err
	}
	if err := confx.OpenMerged(&cfg, path); err != nil {
		return cfg, fmt.Errorf("vkdemo: config %s: %w", path, err)
	}
	return cfg, nil
}

// Color returns the clear color. Unknown names are an error.
func (c *Config) Color() (vkrender.Color, error) {
	rgba, ok := colornames.Map[strings.ToLower(c.ClearColor)]
	if !ok {
		return vkrender.Color{}, fmt.Errorf("vkdemo: unknown color %q", c.ClearColor)
	}
	return toColor(rgba), nil
}

func toColor(c color.RGBA) vkrender.Color {
	return vkrender.Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// Level returns the log level of the config, and the current
// user level if it is not set or not recognized.
func (c *Config) Level() slog.Level {
	if c.LogLevel == "" {
		return logx.UserLevel
	}
	lv, ok := logx.LevelFromString(c.LogLevel)
	if !ok {
		slog.Warn("unknown log level", "level", c.LogLevel)
	}
	return lv
}

// VSyncOn returns whether vsync is on.
func (c *Config) VSyncOn() bool {
	return c.VSync == nil || *c.VSync
}

// Options returns the renderer options for the config.
func (c *Config) Options() vkrender.Options {
	opts := vkrender.DefaultOptions()
	opts.AppName = c.Title
	opts.VSync = c.VSyncOn()
	opts.Validation = c.Validation
	opts.VertexBuffers = c.VertexBuffers
	return opts
}

// WatchConfig sends the reloaded config on the returned channel each
// time the file is written, until stop is closed. The parent directory
// is watched so that editors that replace the file are seen.
func WatchConfig(filename string, stop <-chan struct{}) (<-chan Config, error) {
	path, err := homedir.Expand(filename)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	out := make(chan Config, 1)
	go func() {
		defer w.Close()
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					slog.Error("reloading config", "err", err)
					continue
				}
				select {
				case out <- cfg:
				default:
					// replace an unread config with the newer one
					select {
					case <-out:
					default:
					}
					out <- cfg
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("watching config", "err", err)
			}
		}
	}()
	return out, nil
}
