// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vkrender is a Vulkan backend for a 2D renderer. It executes
// lists of draw commands against a window swapchain or a render target
// texture, managing the frame lifecycle, the synchronization with the
// GPU, pipeline state, image layouts, vertex streaming and textures.
//
// All GPU calls go through a [vkapi.API] method table, so that a
// renderer can run on a real device or on a fake driver in tests.
// A renderer must only be used from a single goroutine.
//
// The shaders are kept as GLSL sources in the shaders directory and
// compiled to SPIR-V with glslc by go generate. Only the compiled
// modules are loaded, so the default [Options.Shaders] fails on a real
// device until go generate has run; alternatively point Options.Shaders
// at a directory of compiled modules.
package vkrender

import (
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/vkrender/base/errors"
	"cogentcore.org/vkrender/vkapi"
)

// Colorspace is the output colorspace of a renderer.
type Colorspace int32

const (
	// ColorspaceSRGB is sRGB output.
	ColorspaceSRGB Colorspace = iota

	// ColorspaceSCRGB is extended linear sRGB output.
	ColorspaceSCRGB
)

func (cs Colorspace) String() string {
	switch cs {
	case ColorspaceSRGB:
		return "sRGB"
	case ColorspaceSCRGB:
		return "scRGB"
	}
	return fmt.Sprintf("Colorspace(%d)", int32(cs))
}

// Renderer renders to a window through a Vulkan swapchain.
type Renderer struct {
	api        vkapi.API
	win        vkapi.Window
	opts       Options
	colorspace Colorspace

	destroyed    bool
	lastErr      error
	batches      int
	deviceResets int
	resetting    bool

	// device resources
	inst           vkapi.Instance
	surface        vkapi.Surface
	gpu            physicalDevice
	dev            vkapi.Device
	gfxQueue       vkapi.Queue
	presQueue      vkapi.Queue
	cmdPool        vkapi.CommandPool
	imageAvailable vkapi.Semaphore

	samplers        [numScaleModes]vkapi.Sampler
	descLayout      vkapi.DescriptorSetLayout
	layout          vkapi.PipelineLayout
	descPool        vkapi.DescriptorPool
	vertexShader    vkapi.ShaderModule
	fragmentShaders [numShaders]vkapi.ShaderModule
	pipelines       map[PipelineKey]vkapi.Pipeline
	ring            vertexRing

	// window size resources
	sc    swapchain
	frame frameState

	renderTarget *Texture
	textures     map[*Texture]struct{}
}

// CreateRenderer creates a renderer drawing to the window, using the
// given API implementation. Zero option fields take their defaults.
// No renderer is returned on failure: everything created so far
// is released.
func CreateRenderer(api vkapi.API, win vkapi.Window, cs Colorspace, opts Options) (*Renderer, error) {
	if cs != ColorspaceSRGB && cs != ColorspaceSCRGB {
		return nil, errors.Log(fmt.Errorf("%w: %v", ErrUnsupportedColorspace, cs))
	}
	r := &Renderer{
		api:        api,
		win:        win,
		opts:       opts.withDefaults(),
		colorspace: cs,
		textures:   map[*Texture]struct{}{},
	}
	if err := r.createDeviceResources(); err != nil {
		r.destroyDeviceResources()
		return nil, errors.Log(err)
	}
	if err := r.createWindowSizeResources(); err != nil {
		r.destroyWindowSizeResources()
		r.destroyDeviceResources()
		return nil, errors.Log(err)
	}
	return r, nil
}

// setError records err as the last error and logs it.
// It returns err, and does nothing for nil.
func (r *Renderer) setError(err error) error {
	if err == nil {
		return nil
	}
	r.lastErr = err
	return errors.Log(err)
}

// LastError returns the last error returned by any operation.
func (r *Renderer) LastError() error {
	return r.lastErr
}

// ClearError forgets the last error.
func (r *Renderer) ClearError() {
	r.lastErr = nil
}

// Options returns the options in use, with defaults applied.
func (r *Renderer) Options() Options {
	return r.opts
}

// Colorspace returns the output colorspace.
func (r *Renderer) Colorspace() Colorspace {
	return r.colorspace
}

// DeviceName returns the name of the physical device in use.
func (r *Renderer) DeviceName() string {
	return r.gpu.props.Name
}

// Batches returns the number of intermediate batches submitted,
// which wait for the GPU in the middle of a frame.
func (r *Renderer) Batches() int {
	return r.batches
}

// DeviceResets returns how many times the device was lost
// and its resources recreated.
func (r *Renderer) DeviceResets() int {
	return r.deviceResets
}

// OutputSize returns the size of the current render target in pixels.
func (r *Renderer) OutputSize() image.Point {
	if t := r.renderTarget; t != nil {
		return image.Pt(t.width, t.height)
	}
	return image.Pt(int(r.sc.extent.Width), int(r.sc.extent.Height))
}

// RenderPresent ends the frame and presents it. It does nothing
// if nothing was recorded since the last present.
func (r *Renderer) RenderPresent() error {
	if r.destroyed {
		return r.setError(ErrRendererDestroyed)
	}
	return r.setError(r.present())
}

// Destroy waits for the device to be idle and releases every
// resource, including all textures. It can be called more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.dev != 0 {
		errors.Log(r.api.DeviceWaitIdle(r.dev))
	}
	r.releaseTextures()
	r.destroyWindowSizeResources()
	r.destroyDeviceResources()
	slog.Debug("vkrender: renderer destroyed")
}

// releaseTextures releases every texture. The GPU must be idle.
func (r *Renderer) releaseTextures() {
	r.renderTarget = nil
	for t := range r.textures {
		t.release()
	}
}

// resetDevice recreates every device and window size resource after
// the device was lost. Textures are released and must be recreated.
func (r *Renderer) resetDevice() error {
	if r.resetting {
		return nil
	}
	r.resetting = true
	defer func() { r.resetting = false }()
	r.deviceResets++
	slog.Warn("vkrender: resetting device", "textures", len(r.textures), "resets", r.deviceResets)

	r.releaseTextures()
	r.destroyWindowSizeResources()
	r.destroyDeviceResources()
	if err := r.createDeviceResources(); err != nil {
		r.destroyDeviceResources()
		return fmt.Errorf("vkrender: recreate device resources: %w", err)
	}
	if err := r.createWindowSizeResources(); err != nil {
		r.destroyWindowSizeResources()
		return fmt.Errorf("vkrender: recreate window size resources: %w", err)
	}
	return nil
}

// IsDeviceLost reports whether err is a lost device, after which
// all textures have been released.
func IsDeviceLost(err error) bool {
	return errors.Is(err, vkapi.ErrorDeviceLost)
}
