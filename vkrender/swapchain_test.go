// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"image"
	"testing"

	"cogentcore.org/vkrender/vkapi"
	"cogentcore.org/vkrender/vkapi/fakedriver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseImageCount(t *testing.T) {
	for minCount := uint32(1); minCount <= 4; minCount++ {
		for maxCount := uint32(0); maxCount <= 8; maxCount++ {
			if maxCount != 0 && maxCount < minCount {
				continue
			}
			for depth := 0; depth <= 3; depth++ {
				caps := vkapi.SurfaceCapabilities{MinImageCount: minCount, MaxImageCount: maxCount}
				n := chooseImageCount(caps, depth)
				if maxCount == 0 {
					assert.GreaterOrEqual(t, n, minCount+uint32(depth))
				} else {
					assert.LessOrEqual(t, n, maxCount)
					assert.Equal(t, min(minCount+uint32(depth), maxCount), n)
				}
			}
		}
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	rgba := vkapi.SurfaceFormat{Format: vkapi.FormatR8G8B8A8Unorm, ColorSpace: vkapi.ColorSpaceSRGBNonlinear}
	bgra := vkapi.SurfaceFormat{Format: vkapi.FormatB8G8R8A8Unorm, ColorSpace: vkapi.ColorSpaceSRGBNonlinear}
	srgb := vkapi.SurfaceFormat{Format: vkapi.FormatB8G8R8A8Srgb, ColorSpace: vkapi.ColorSpaceSRGBNonlinear}
	half := vkapi.SurfaceFormat{Format: vkapi.FormatR16G16B16A16Sfloat, ColorSpace: vkapi.ColorSpaceExtendedSRGBLinear}

	assert.Equal(t, rgba, chooseSurfaceFormat([]vkapi.SurfaceFormat{{Format: vkapi.FormatUndefined}}, ColorspaceSRGB))
	assert.Equal(t, rgba, chooseSurfaceFormat(nil, ColorspaceSRGB))
	assert.Equal(t, rgba, chooseSurfaceFormat([]vkapi.SurfaceFormat{bgra, rgba}, ColorspaceSRGB))
	assert.Equal(t, srgb, chooseSurfaceFormat([]vkapi.SurfaceFormat{srgb, bgra}, ColorspaceSRGB))
	assert.Equal(t, rgba, chooseSurfaceFormat([]vkapi.SurfaceFormat{half, rgba}, ColorspaceSRGB))
	assert.Equal(t, half, chooseSurfaceFormat([]vkapi.SurfaceFormat{rgba, half}, ColorspaceSCRGB))
	assert.Equal(t, bgra, chooseSurfaceFormat([]vkapi.SurfaceFormat{bgra}, ColorspaceSCRGB))
}

func TestChooseExtent(t *testing.T) {
	caps := vkapi.SurfaceCapabilities{
		MinImageExtent: vkapi.Extent{Width: 16, Height: 16},
		MaxImageExtent: vkapi.Extent{Width: 1024, Height: 768},
	}
	assert.Equal(t, vkapi.Extent{Width: 800, Height: 600}, chooseExtent(caps, 800, 600))
	assert.Equal(t, vkapi.Extent{Width: 16, Height: 768}, chooseExtent(caps, 1, 2000))
	assert.Equal(t, vkapi.Extent{Width: 1024, Height: 16}, chooseExtent(caps, 4000, -3))
}

func TestChoosePresentMode(t *testing.T) {
	all := []vkapi.PresentMode{vkapi.PresentImmediate, vkapi.PresentMailbox, vkapi.PresentFIFO}
	assert.Equal(t, vkapi.PresentFIFO, choosePresentMode(all, true))
	assert.Equal(t, vkapi.PresentMailbox, choosePresentMode(all, false))
	assert.Equal(t, vkapi.PresentImmediate, choosePresentMode([]vkapi.PresentMode{vkapi.PresentFIFO, vkapi.PresentImmediate}, false))
	assert.Equal(t, vkapi.PresentFIFO, choosePresentMode([]vkapi.PresentMode{vkapi.PresentFIFO}, false))
}

// liveSwapchain returns the state of the swapchain in use.
func liveSwapchain(t *testing.T, r *Renderer, d *fakedriver.Driver) *fakedriver.Swapchain {
	sc := d.Swapchains[r.sc.handle]
	require.NotNil(t, sc)
	require.False(t, sc.Destroyed)
	return sc
}

func TestWindowSizeChanged(t *testing.T) {
	d := fakedriver.New()
	win := &fakedriver.Window{Width: 800, Height: 600}
	r, err := CreateRenderer(d, win, ColorspaceSRGB, testOptions())
	require.NoError(t, err)
	defer r.Destroy()
	old := r.sc.handle

	// resizing in the middle of a frame submits what was recorded
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)

	win.Width, win.Height = 1024, 768
	require.NoError(t, r.WindowSizeChanged())
	sc := liveSwapchain(t, r, d)
	assert.Equal(t, old, sc.Info.Old)
	assert.True(t, d.Swapchains[old].Destroyed)
	assert.Equal(t, vkapi.Extent{Width: 1024, Height: 768}, r.sc.extent)
	for _, fb := range r.sc.framebuffers {
		assert.Equal(t, uint32(1024), d.Framebuffers[fb].Width)
	}
	for _, img := range r.sc.images {
		assert.Equal(t, vkapi.LayoutUndefined, img.layout)
	}
	assert.Equal(t, 1, r.Batches())

	cl = &CommandList{}
	cl.SetViewport(image.Rectangle{Max: r.OutputSize()})
	cl.Clear(Color{1, 0, 1, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}

func TestSetVSync(t *testing.T) {
	r, d := newTestRenderer(t)
	assert.True(t, r.VSync())
	assert.Equal(t, vkapi.PresentFIFO, liveSwapchain(t, r, d).Info.PresentMode)

	require.NoError(t, r.SetVSync(false))
	assert.False(t, r.VSync())
	assert.Equal(t, vkapi.PresentMailbox, liveSwapchain(t, r, d).Info.PresentMode)
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])

	require.NoError(t, r.SetVSync(false))
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])

	require.NoError(t, r.SetVSync(true))
	assert.Equal(t, vkapi.PresentFIFO, liveSwapchain(t, r, d).Info.PresentMode)
}

func TestSwapchainRecreateFailure(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("CreateSwapchain", vkapi.ErrorSurfaceLost)
	assert.ErrorIs(t, r.WindowSizeChanged(), vkapi.ErrorSurfaceLost)
	assert.Zero(t, r.sc.handle)

	// the next frame creates the swapchain again
	cl := fullViewport()
	cl.Clear(Color{0, 0, 0, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}
