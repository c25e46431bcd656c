// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/vkrender/base/errors"
	"cogentcore.org/vkrender/vkapi"
)

// frameState is the recording state of the current frame.
type frameState struct {
	// slot is the command buffer slot, advanced at every present.
	slot int

	// image is the acquired swapchain image index.
	image uint32

	// cb is the command buffer being recorded, or 0 between frames.
	cb vkapi.CommandBuffer

	// waitAcquire is set when the next submission must wait
	// on the image available semaphore.
	waitAcquire bool

	// acquireFence is the fence of the last submission that waited
	// on the image available semaphore. It must be signaled before
	// the semaphore is used by another acquire.
	acquireFence vkapi.Fence

	// pass is whether a render pass is open, passOp its load op
	// and passArea its render area.
	pass     bool
	passOp   vkapi.LoadOp
	passArea image.Rectangle

	pipeline      vkapi.Pipeline
	vertexBuffer  vkapi.Buffer
	viewport      image.Rectangle
	viewportDirty bool
	clipEnabled   bool
	clip          image.Rectangle
	clipDirty     bool

	// uploads is the number of texture uploads since the last batch.
	uploads int

	// staging holds the staging buffers used by the submissions
	// of each slot, released once the slot fence is signaled.
	staging [][]vkapi.Buffer

	// changed holds the layouts of the images moved by the command
	// buffer being recorded, as they were before it.
	changed []layoutChange

	push []byte
}

// layoutChange is the layout of an image before the first barrier
// recorded on it since the last submission.
type layoutChange struct {
	ti     *trackedImage
	layout vkapi.ImageLayout
}

// noteLayout records the layout of ti before it is changed.
func (f *frameState) noteLayout(ti *trackedImage) {
	for _, c := range f.changed {
		if c.ti == ti {
			return
		}
	}
	f.changed = append(f.changed, layoutChange{ti: ti, layout: ti.layout})
}

// restoreLayouts undoes the layout changes of commands that were
// never submitted.
func (f *frameState) restoreLayouts() {
	for _, c := range f.changed {
		c.ti.layout = c.layout
	}
	f.changed = f.changed[:0]
}

// reset forgets the frame being recorded.
func (f *frameState) reset() {
	f.cb = 0
	f.pass = false
	f.waitAcquire = false
	f.pipeline = 0
	f.vertexBuffer = 0
	f.viewportDirty = true
	f.clipDirty = true
	f.changed = f.changed[:0]
}

// acquire acquires the next swapchain image. An out of date swapchain
// is recreated and the acquire retried once; a suboptimal one is used
// and recreated after present.
func (r *Renderer) acquire() (uint32, error) {
	for attempt := 0; ; attempt++ {
		if f := r.frame.acquireFence; f != 0 {
			if err := r.api.WaitForFence(r.dev, f, vkapi.Forever); err != nil {
				return 0, r.checkDeviceLost(fmt.Errorf("vkrender: wait for fence: %w", err))
			}
		}
		idx, err := r.api.AcquireNextImage(r.dev, r.sc.handle, vkapi.Forever, r.imageAvailable)
		switch {
		case err == nil:
			return idx, nil
		case errors.Is(err, vkapi.Suboptimal):
			r.sc.stale = true
			return idx, nil
		case errors.Is(err, vkapi.ErrorOutOfDate) && attempt == 0:
			slog.Debug("vkrender: swapchain out of date on acquire")
			if err := r.recreateSwapchain(); err != nil {
				return 0, err
			}
			continue
		}
		return 0, r.checkDeviceLost(fmt.Errorf("vkrender: acquire image: %w", err))
	}
}

// activate makes sure a command buffer is being recorded for the
// frame, acquiring the next image and moving it to the color
// attachment layout if there is none.
func (r *Renderer) activate() error {
	f := &r.frame
	if f.cb != 0 {
		return nil
	}
	if r.sc.handle == 0 {
		if err := r.recreateSwapchain(); err != nil {
			return err
		}
	}
	idx, err := r.acquire()
	if err != nil {
		return err
	}
	f.image = idx

	cb := r.sc.cmdBufs[f.slot]
	if err := r.waitSlot(f.slot); err != nil {
		return err
	}
	if err := r.api.ResetCommandBuffer(cb); err != nil {
		return fmt.Errorf("vkrender: reset command buffer: %w", err)
	}
	if err := r.api.BeginCommandBuffer(cb); err != nil {
		return fmt.Errorf("vkrender: begin command buffer: %w", err)
	}
	f.reset()
	f.cb = cb
	f.waitAcquire = true

	// the acquire semaphore is waited on at color attachment output,
	// so the transition must not happen before that stage
	img := &r.sc.images[idx]
	srcAccess := vkapi.AccessColorAttachmentRead
	if img.layout == vkapi.LayoutUndefined {
		srcAccess = 0
	}
	r.transitionImage(img.image, srcAccess, vkapi.AccessColorAttachmentRead|vkapi.AccessColorAttachmentWrite,
		vkapi.StageColorAttachmentOutput, vkapi.StageColorAttachmentOutput, img.layout, vkapi.LayoutColorAttachment)
	f.noteLayout(img)
	img.layout = vkapi.LayoutColorAttachment
	return nil
}

// waitSlot waits for the last submission of the slot and releases
// its staging buffers.
func (r *Renderer) waitSlot(slot int) error {
	if err := r.api.WaitForFence(r.dev, r.sc.fences[slot], vkapi.Forever); err != nil {
		return r.checkDeviceLost(fmt.Errorf("vkrender: wait for fence: %w", err))
	}
	for _, buf := range r.frame.staging[slot] {
		r.api.DestroyBuffer(r.dev, buf)
	}
	r.frame.staging[slot] = r.frame.staging[slot][:0]
	return nil
}

// waitAll waits for every submission and releases all staging buffers.
func (r *Renderer) waitAll() error {
	for slot := range r.sc.fences {
		if err := r.waitSlot(slot); err != nil {
			return err
		}
	}
	return nil
}

// releaseStaging destroys every staging buffer. The GPU must be idle.
func (r *Renderer) releaseStaging() {
	for slot, bufs := range r.frame.staging {
		for _, buf := range bufs {
			r.api.DestroyBuffer(r.dev, buf)
		}
		r.frame.staging[slot] = nil
	}
}

// target returns the framebuffer, render pass variants and size
// of the current render target.
func (r *Renderer) target() (vkapi.Framebuffer, *[2]vkapi.RenderPass, vkapi.Extent) {
	if t := r.renderTarget; t != nil {
		return t.framebuffer, &t.passes, vkapi.Extent{Width: uint32(t.width), Height: uint32(t.height)}
	}
	return r.sc.framebuffers[r.frame.image], &r.sc.passes, r.sc.extent
}

// targetFormat returns the pixel format of the current render target.
func (r *Renderer) targetFormat() vkapi.Format {
	if t := r.renderTarget; t != nil {
		return t.planes[0].format
	}
	return r.sc.format.Format
}

// renderArea returns the render area of a pass begun now: the
// current viewport, or the whole target if the viewport is empty.
func (r *Renderer) renderArea() image.Rectangle {
	_, _, ext := r.target()
	bounds := image.Rect(0, 0, int(ext.Width), int(ext.Height))
	if vp := r.frame.viewport.Intersect(bounds); !vp.Empty() {
		return vp
	}
	return bounds
}

// beginPass ends any open render pass and begins the given variant
// on the current target, which is moved to the color attachment
// layout first.
func (r *Renderer) beginPass(op vkapi.LoadOp, clear *[4]float32) error {
	if err := r.activate(); err != nil {
		return err
	}
	r.endPass()
	if t := r.renderTarget; t != nil {
		r.transition(&t.planes[0].trackedImage, vkapi.LayoutColorAttachment)
	}
	fb, passes, _ := r.target()
	ra := r.renderArea()
	area := vkapi.Rect{X: int32(ra.Min.X), Y: int32(ra.Min.Y), Width: uint32(ra.Dx()), Height: uint32(ra.Dy())}
	var cc *[4]float32
	if op == vkapi.LoadOpClear {
		cc = clear
		if cc == nil {
			cc = &[4]float32{}
		}
	}
	r.api.CmdBeginRenderPass(r.frame.cb, vkapi.RenderPassBegin{
		RenderPass:  passes[op],
		Framebuffer: fb,
		Area:        area,
		ClearColor:  cc,
	})
	r.frame.pass = true
	r.frame.passOp = op
	r.frame.passArea = ra
	return nil
}

// endPass ends the open render pass, if any.
func (r *Renderer) endPass() {
	if r.frame.pass {
		r.api.CmdEndRenderPass(r.frame.cb)
		r.frame.pass = false
	}
}

// ensurePass makes sure a render pass is open, loading the
// existing contents if one has to be begun.
func (r *Renderer) ensurePass() error {
	if r.frame.cb != 0 && r.frame.pass {
		return nil
	}
	return r.beginPass(vkapi.LoadOpLoad, nil)
}

// submit submits the command buffer of the current slot, which must
// have ended, signaling the slot fence and the given semaphores.
// The caller drops the frame if it fails, which replaces the
// reset fence along with the swapchain.
func (r *Renderer) submit(signal ...vkapi.Semaphore) error {
	f := &r.frame
	fence := r.sc.fences[f.slot]
	info := vkapi.SubmitInfo{
		CommandBuffers:   []vkapi.CommandBuffer{f.cb},
		SignalSemaphores: signal,
	}
	if f.waitAcquire {
		info.WaitSemaphores = []vkapi.Semaphore{r.imageAvailable}
		info.WaitStages = []vkapi.PipelineStages{vkapi.StageColorAttachmentOutput}
	}
	if err := r.api.ResetFence(r.dev, fence); err != nil {
		return fmt.Errorf("vkrender: reset fence: %w", err)
	}
	if err := r.api.QueueSubmit(r.gfxQueue, info, fence); err != nil {
		return r.checkDeviceLost(fmt.Errorf("vkrender: queue submit: %w", err))
	}
	f.changed = f.changed[:0]
	if f.waitAcquire {
		f.waitAcquire = false
		f.acquireFence = fence
	}
	return nil
}

// submitBatch closes and submits the command buffer being recorded,
// waits for all submitted work to complete and releases the resources
// it used: staging buffers and descriptor sets. The frame is dropped
// if it cannot be submitted.
func (r *Renderer) submitBatch() error {
	f := &r.frame
	r.endPass()
	if err := r.api.EndCommandBuffer(f.cb); err != nil {
		return r.dropFrame(fmt.Errorf("vkrender: end command buffer: %w", err))
	}
	if err := r.submit(); err != nil {
		return r.dropFrame(err)
	}
	if err := r.waitAll(); err != nil {
		return err
	}
	if err := r.api.ResetDescriptorPool(r.dev, r.descPool); err != nil {
		return fmt.Errorf("vkrender: reset descriptor pool: %w", err)
	}
	f.uploads = 0
	r.batches++
	return nil
}

// issueBatch submits the work recorded so far, waits for it, and
// begins recording again into the same command buffer, so that
// the vertex ring and staging buffers can be reused.
func (r *Renderer) issueBatch() error {
	f := &r.frame
	if f.cb == 0 {
		r.ring.issueBatch = false
		return nil
	}
	slog.Debug("vkrender: issuing intermediate batch", "batch", r.batches+1)
	cb := f.cb
	if err := r.submitBatch(); err != nil {
		return err
	}
	r.ring.issueBatch = false
	if err := r.api.ResetCommandBuffer(cb); err != nil {
		return fmt.Errorf("vkrender: reset command buffer: %w", err)
	}
	if err := r.api.BeginCommandBuffer(cb); err != nil {
		return fmt.Errorf("vkrender: begin command buffer: %w", err)
	}
	f.pipeline = 0
	f.viewportDirty = true
	f.clipDirty = true
	if f.vertexBuffer != 0 {
		r.api.CmdBindVertexBuffer(cb, f.vertexBuffer, 0)
	}
	return nil
}

// present ends the frame: the swapchain image is moved to the present
// layout, the command buffer is submitted and the image presented.
// A stale swapchain is recreated and the frame counts as presented.
func (r *Renderer) present() error {
	f := &r.frame
	if f.cb == 0 {
		return nil
	}
	r.endPass()
	img := &r.sc.images[f.image]
	r.transition(img, vkapi.LayoutPresentSrc)
	if err := r.api.EndCommandBuffer(f.cb); err != nil {
		return r.dropFrame(fmt.Errorf("vkrender: end command buffer: %w", err))
	}
	done := r.sc.renderFinished[f.image]
	if err := r.submit(done); err != nil {
		return r.dropFrame(err)
	}
	if r.opts.WaitIdleOnPresent {
		if err := r.api.DeviceWaitIdle(r.dev); err != nil {
			return r.checkDeviceLost(fmt.Errorf("vkrender: wait idle: %w", err))
		}
	}
	err := r.api.QueuePresent(r.presQueue, vkapi.PresentInfo{
		WaitSemaphores: []vkapi.Semaphore{done},
		Swapchain:      r.sc.handle,
		ImageIndex:     f.image,
	})
	f.cb = 0
	f.pass = false
	f.slot = (f.slot + 1) % len(r.sc.cmdBufs)
	if r.opts.WaitIdleOnPresent && err == nil {
		if err := r.api.DeviceWaitIdle(r.dev); err != nil {
			return r.checkDeviceLost(fmt.Errorf("vkrender: wait idle: %w", err))
		}
	}
	switch {
	case vkapi.IsSwapchainStale(err) || (err == nil && r.sc.stale):
		slog.Debug("vkrender: swapchain stale on present", "err", err)
		return r.recreateSwapchain()
	case err != nil:
		return r.checkDeviceLost(fmt.Errorf("vkrender: present: %w", err))
	}
	return nil
}

// dropFrame forgets a frame whose submission failed and returns err.
// The acquired image is never presented, so the swapchain and the
// signaled acquire semaphore are replaced. Image layouts go back to
// what the last submitted work left them in.
func (r *Renderer) dropFrame(err error) error {
	f := &r.frame
	if errors.Is(err, vkapi.ErrorDeviceLost) {
		// the device was reset along with every image
		f.reset()
		f.acquireFence = 0
		return err
	}
	slog.Warn("vkrender: dropping frame", "err", err)
	f.restoreLayouts()
	f.reset()
	f.acquireFence = 0
	if rerr := r.recreateSwapchain(); rerr != nil {
		return errors.Join(err, rerr)
	}
	// the device is idle
	r.ring.index = 0
	r.ring.issueBatch = false
	f.uploads = 0
	if rerr := r.api.ResetDescriptorPool(r.dev, r.descPool); rerr != nil {
		return errors.Join(err, fmt.Errorf("vkrender: reset descriptor pool: %w", rerr))
	}
	sem, rerr := r.api.CreateSemaphore(r.dev)
	if rerr != nil {
		return errors.Join(err, fmt.Errorf("vkrender: create semaphore: %w", rerr))
	}
	r.api.DestroySemaphore(r.dev, r.imageAvailable)
	r.imageAvailable = sem
	return err
}

// checkDeviceLost recovers from a lost device by recreating every
// device and window size resource, and returns err.
func (r *Renderer) checkDeviceLost(err error) error {
	if !errors.Is(err, vkapi.ErrorDeviceLost) {
		return err
	}
	slog.Error("vkrender: device lost, recreating resources")
	if rerr := r.resetDevice(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}
