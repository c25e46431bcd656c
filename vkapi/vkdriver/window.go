// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"cogentcore.org/vkrender/vkapi"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window adapts a GLFW window to [vkapi.Window]. Surface creation
// comes from the embedded window.
type Window struct {
	*glfw.Window
}

var (
	_ vkapi.Window  = (*Window)(nil)
	_ SurfaceWindow = (*Window)(nil)
)

// OpenWindow creates a resizable GLFW window without a client API,
// for Vulkan rendering. GLFW must already be initialized, and this
// must be called on the main thread.
func OpenWindow(title string, width, height int) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Window{Window: w}, nil
}

func (w *Window) FramebufferSize() (width, height int) {
	return w.GetFramebufferSize()
}

func (w *Window) InstanceExtensions() []string {
	return w.GetRequiredInstanceExtensions()
}
