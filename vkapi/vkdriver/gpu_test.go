// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver_test

import (
	"image"
	"io/fs"
	"os"
	"runtime"
	"testing"

	"cogentcore.org/vkrender/vkapi/vkdriver"
	"cogentcore.org/vkrender/vkrender"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	runtime.LockOSThread()
}

// TestGPU renders a frame on a real device. It needs a display, a
// Vulkan driver and compiled shaders, so it only runs when
// VKRENDER_GPU_TESTS=1.
func TestGPU(t *testing.T) {
	if os.Getenv("VKRENDER_GPU_TESTS") != "1" {
		t.Skip("set VKRENDER_GPU_TESTS=1 to run")
	}
	shaders := os.DirFS("../../vkrender/shaders")
	if _, err := fs.Stat(shaders, vkrender.VertexShaderFile); err != nil {
		t.Skip("shaders are not compiled; run go generate ./vkrender")
	}

	require.NoError(t, glfw.Init())
	defer glfw.Terminate()
	glfw.WindowHint(glfw.Visible, glfw.False)
	win, err := vkdriver.OpenWindow("vkrender test", 320, 240)
	require.NoError(t, err)
	defer win.Destroy()

	d := vkdriver.New()
	opts := vkrender.DefaultOptions()
	opts.Shaders = shaders
	opts.Validation = true
	r, err := vkrender.CreateRenderer(d, win, vkrender.ColorspaceSRGB, opts)
	require.NoError(t, err)
	t.Log("device:", r.DeviceName())

	size := r.OutputSize()
	cl := &vkrender.CommandList{}
	cl.SetViewport(image.Rectangle{Max: size})
	cl.Clear(vkrender.Color{R: 0, G: 0, B: 1, A: 1})
	cl.QueueDrawPoints([]vkrender.FPoint{{X: 1, Y: 1}}, vkrender.Color{R: 1, G: 1, B: 1, A: 1}, vkrender.BlendNone)
	require.NoError(t, r.RunCommandQueue(cl.First, cl.Vertices))

	img, err := r.ReadPixels(image.Rect(0, 0, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(2, 2).B)
	assert.Equal(t, uint8(255), img.RGBAAt(1, 1).R)
	require.NoError(t, r.RenderPresent())

	r.Destroy()
	assert.Zero(t, d.Live())
}
