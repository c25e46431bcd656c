// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"fmt"
	"log/slog"

	"cogentcore.org/vkrender/vkapi"
)

// swapchain holds the presentable images and everything
// that depends on their number, size or format.
type swapchain struct {
	handle      vkapi.Swapchain
	format      vkapi.SurfaceFormat
	extent      vkapi.Extent
	presentMode vkapi.PresentMode

	images       []trackedImage
	views        []vkapi.ImageView
	framebuffers []vkapi.Framebuffer

	// passes are the render pass variants, indexed by load op.
	passes [2]vkapi.RenderPass

	// command buffer slots, one per image
	cmdBufs []vkapi.CommandBuffer
	fences  []vkapi.Fence

	// renderFinished is signaled by the last submission
	// of a frame and waited on by its presentation.
	renderFinished []vkapi.Semaphore

	// stale is set when the swapchain no longer matches
	// the surface, and it must be recreated after present.
	stale bool
}

// chooseImageCount returns the minimum image count plus the frame
// queue depth, limited by the maximum count unless it is 0.
func chooseImageCount(caps vkapi.SurfaceCapabilities, depth int) uint32 {
	n := caps.MinImageCount + uint32(depth)
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// chooseSurfaceFormat picks the surface format. A single undefined
// format means any format can be used. For scRGB output a half float
// extended linear format is preferred when the surface offers one.
func chooseSurfaceFormat(formats []vkapi.SurfaceFormat, cs Colorspace) vkapi.SurfaceFormat {
	def := vkapi.SurfaceFormat{Format: vkapi.FormatR8G8B8A8Unorm, ColorSpace: vkapi.ColorSpaceSRGBNonlinear}
	if len(formats) == 0 || (len(formats) == 1 && formats[0].Format == vkapi.FormatUndefined) {
		return def
	}
	if cs == ColorspaceSCRGB {
		for _, f := range formats {
			if f.Format == vkapi.FormatR16G16B16A16Sfloat && f.ColorSpace == vkapi.ColorSpaceExtendedSRGBLinear {
				return f
			}
		}
	}
	for _, f := range formats {
		if f.Format == vkapi.FormatR8G8B8A8Unorm {
			return f
		}
	}
	return formats[0]
}

// chooseExtent clamps the requested size to the surface limits.
func chooseExtent(caps vkapi.SurfaceCapabilities, width, height int) vkapi.Extent {
	clamp := func(v int, lo, hi uint32) uint32 {
		switch {
		case v < int(lo):
			return lo
		case hi > 0 && v > int(hi):
			return hi
		}
		return uint32(v)
	}
	return vkapi.Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// choosePresentMode returns FIFO with vsync, and otherwise prefers
// mailbox, then immediate, falling back to FIFO which is always supported.
func choosePresentMode(modes []vkapi.PresentMode, vsync bool) vkapi.PresentMode {
	if vsync {
		return vkapi.PresentFIFO
	}
	for _, want := range []vkapi.PresentMode{vkapi.PresentMailbox, vkapi.PresentImmediate} {
		for _, m := range modes {
			if m == want {
				return m
			}
		}
	}
	return vkapi.PresentFIFO
}

// createWindowSizeResources creates the swapchain for the current
// window size, passing any existing swapchain as the old one and
// destroying it only once its replacement exists. On failure the
// caller must call destroyWindowSizeResources.
func (r *Renderer) createWindowSizeResources() error {
	sc := &r.sc
	old := sc.handle
	r.destroySwapchainObjects()

	pd := r.gpu.handle
	caps, err := r.api.SurfaceCapabilities(pd, r.surface)
	if err != nil {
		return fmt.Errorf("vkrender: surface capabilities: %w", err)
	}
	formats, err := r.api.SurfaceFormats(pd, r.surface)
	if err != nil {
		return fmt.Errorf("vkrender: surface formats: %w", err)
	}
	modes, err := r.api.PresentModes(pd, r.surface)
	if err != nil {
		return fmt.Errorf("vkrender: present modes: %w", err)
	}
	w, h := r.win.FramebufferSize()
	sc.format = chooseSurfaceFormat(formats, r.colorspace)
	sc.extent = chooseExtent(caps, w, h)
	sc.presentMode = choosePresentMode(modes, r.opts.VSync)

	sc.handle, err = r.api.CreateSwapchain(r.dev, vkapi.SwapchainInfo{
		Surface:       r.surface,
		MinImageCount: chooseImageCount(caps, r.opts.FrameQueueDepth),
		Format:        sc.format,
		Extent:        sc.extent,
		Transform:     caps.CurrentTransform,
		PresentMode:   sc.presentMode,
		Old:           old,
	})
	if old != 0 {
		r.api.DestroySwapchain(r.dev, old)
	}
	if err != nil {
		sc.handle = 0
		return fmt.Errorf("vkrender: create swapchain: %w", err)
	}
	sc.stale = false

	imgs, err := r.api.SwapchainImages(r.dev, sc.handle)
	if err != nil {
		return fmt.Errorf("vkrender: swapchain images: %w", err)
	}
	n := len(imgs)
	sc.images = make([]trackedImage, n)
	sc.views = make([]vkapi.ImageView, n)
	for i, img := range imgs {
		sc.images[i] = trackedImage{image: img, layout: vkapi.LayoutUndefined}
		sc.views[i], err = r.api.CreateImageView(r.dev, vkapi.ImageViewInfo{Image: img, Format: sc.format.Format})
		if err != nil {
			return fmt.Errorf("vkrender: swapchain image view: %w", err)
		}
	}

	sc.cmdBufs, err = r.api.AllocateCommandBuffers(r.dev, r.cmdPool, n)
	if err != nil {
		sc.cmdBufs = nil
		return fmt.Errorf("vkrender: allocate command buffers: %w", err)
	}
	sc.fences = make([]vkapi.Fence, n)
	sc.renderFinished = make([]vkapi.Semaphore, n)
	for i := range n {
		sc.fences[i], err = r.api.CreateFence(r.dev, true)
		if err != nil {
			return fmt.Errorf("vkrender: create fence: %w", err)
		}
		sc.renderFinished[i], err = r.api.CreateSemaphore(r.dev)
		if err != nil {
			return fmt.Errorf("vkrender: create semaphore: %w", err)
		}
	}

	for _, op := range []vkapi.LoadOp{vkapi.LoadOpLoad, vkapi.LoadOpClear} {
		sc.passes[op], err = r.api.CreateRenderPass(r.dev, vkapi.RenderPassInfo{Format: sc.format.Format, LoadOp: op})
		if err != nil {
			return fmt.Errorf("vkrender: create %s render pass: %w", op, err)
		}
	}
	sc.framebuffers = make([]vkapi.Framebuffer, n)
	for i, v := range sc.views {
		sc.framebuffers[i], err = r.api.CreateFramebuffer(r.dev, vkapi.FramebufferInfo{
			RenderPass: sc.passes[vkapi.LoadOpLoad],
			View:       v,
			Width:      sc.extent.Width,
			Height:     sc.extent.Height,
		})
		if err != nil {
			return fmt.Errorf("vkrender: create framebuffer: %w", err)
		}
	}

	r.frame.slot = 0
	r.frame.acquireFence = 0
	r.frame.staging = make([][]vkapi.Buffer, n)
	slog.Info("vkrender: swapchain created", "images", n, "format", sc.format.Format,
		"width", sc.extent.Width, "height", sc.extent.Height, "present", sc.presentMode)
	return nil
}

// destroySwapchainObjects releases everything owned by the swapchain
// except the swapchain itself, which is kept to be passed as the
// old swapchain when it is recreated. The GPU must be idle.
func (r *Renderer) destroySwapchainObjects() {
	sc := &r.sc
	if r.dev == 0 {
		return
	}
	r.releaseStaging()
	for _, fb := range sc.framebuffers {
		if fb != 0 {
			r.api.DestroyFramebuffer(r.dev, fb)
		}
	}
	sc.framebuffers = nil
	for op, rp := range sc.passes {
		if rp != 0 {
			r.api.DestroyRenderPass(r.dev, rp)
			sc.passes[op] = 0
		}
	}
	for i := range sc.fences {
		if sc.fences[i] != 0 {
			r.api.DestroyFence(r.dev, sc.fences[i])
		}
		if sc.renderFinished[i] != 0 {
			r.api.DestroySemaphore(r.dev, sc.renderFinished[i])
		}
	}
	sc.fences = nil
	sc.renderFinished = nil
	if len(sc.cmdBufs) > 0 {
		r.api.FreeCommandBuffers(r.dev, r.cmdPool, sc.cmdBufs)
		sc.cmdBufs = nil
	}
	for _, v := range sc.views {
		if v != 0 {
			r.api.DestroyImageView(r.dev, v)
		}
	}
	sc.views = nil
	sc.images = nil
	r.frame.reset()
}

// destroyWindowSizeResources releases the swapchain and everything it owns.
func (r *Renderer) destroyWindowSizeResources() {
	r.destroySwapchainObjects()
	if r.sc.handle != 0 && r.dev != 0 {
		r.api.DestroySwapchain(r.dev, r.sc.handle)
	}
	r.sc.handle = 0
}

// recreateSwapchain submits any frame being recorded, waits for the
// device to be idle and recreates the window size dependent resources.
// The image acquired for that frame is never presented.
func (r *Renderer) recreateSwapchain() error {
	if r.frame.cb != 0 {
		if err := r.submitBatch(); err != nil {
			return err
		}
		r.frame.cb = 0
	}
	if err := r.api.DeviceWaitIdle(r.dev); err != nil {
		return fmt.Errorf("vkrender: wait idle: %w", err)
	}
	if err := r.createWindowSizeResources(); err != nil {
		r.destroyWindowSizeResources()
		return err
	}
	return nil
}

// WindowSizeChanged rebuilds the window size dependent resources.
// It must be called whenever the pixel size of the window changes.
func (r *Renderer) WindowSizeChanged() error {
	if r.destroyed {
		return r.setError(ErrRendererDestroyed)
	}
	return r.setError(r.recreateSwapchain())
}

// SetVSync selects FIFO presentation when on, and mailbox or
// immediate presentation when off, and recreates the swapchain.
func (r *Renderer) SetVSync(on bool) error {
	if r.destroyed {
		return r.setError(ErrRendererDestroyed)
	}
	if r.opts.VSync == on {
		return nil
	}
	r.opts.VSync = on
	return r.setError(r.recreateSwapchain())
}

// VSync returns whether FIFO presentation is selected.
func (r *Renderer) VSync() bool {
	return r.opts.VSync
}
