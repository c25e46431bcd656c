// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"image"
	"testing"

	"cogentcore.org/vkrender/vkapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearAndPresent(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.Clear(Color{1, 0, 0, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())

	clears := d.PassesWith(vkapi.LoadOpClear)
	require.Len(t, clears, 1)
	assert.Equal(t, &[4]float32{1, 0, 0, 1}, clears[0].ClearColor)
	assert.Empty(t, d.PassesWith(vkapi.LoadOpLoad))

	require.Len(t, d.Presents, 1)
	idx := d.Presents[0].ImageIndex
	img := r.sc.images[idx]
	assert.Equal(t, vkapi.LayoutPresentSrc, img.layout)
	assert.Equal(t, vkapi.LayoutPresentSrc, d.LastLayout(img.image))

	require.Len(t, d.Submits, 1)
	sub := d.Submits[0]
	assert.Equal(t, []vkapi.Semaphore{r.imageAvailable}, sub.WaitSemaphores)
	assert.Equal(t, []vkapi.PipelineStages{vkapi.StageColorAttachmentOutput}, sub.WaitStages)
	assert.Equal(t, []vkapi.Semaphore{r.sc.renderFinished[idx]}, sub.SignalSemaphores)
	assert.Equal(t, sub.SignalSemaphores, d.Presents[0].WaitSemaphores)
	assert.Equal(t, 0, d.Calls["DeviceWaitIdle"])
	assert.Empty(t, d.Violations)
}

func TestPresentWithoutFrame(t *testing.T) {
	r, d := newTestRenderer(t)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Presents)
	assert.Zero(t, d.Calls["AcquireNextImage"])
}

func TestLayoutTracking(t *testing.T) {
	r, d := newTestRenderer(t)
	n := len(r.sc.images)
	for frame := range n + 1 {
		cl := fullViewport()
		cl.Clear(Color{0, 0, 0, 1})
		run(t, r, cl)
		idx := r.frame.image
		img := r.sc.images[idx]
		assert.Equal(t, vkapi.LayoutColorAttachment, img.layout)

		bs := d.BarriersFor(img.image)
		last := bs[len(bs)-1]
		assert.Equal(t, vkapi.LayoutColorAttachment, last.NewLayout)
		assert.Equal(t, vkapi.StageColorAttachmentOutput, last.Src)
		if frame < n {
			assert.Equal(t, vkapi.LayoutUndefined, last.OldLayout)
			assert.Zero(t, last.SrcAccess)
		} else {
			// the first image comes around again, after being presented
			assert.Equal(t, vkapi.LayoutPresentSrc, last.OldLayout)
			assert.Equal(t, vkapi.AccessColorAttachmentRead, last.SrcAccess)
		}

		require.NoError(t, r.RenderPresent())
		assert.Equal(t, vkapi.LayoutPresentSrc, r.sc.images[idx].layout)
		assert.Equal(t, (frame+1)%n, r.frame.slot)
	}
	assert.Empty(t, d.Violations)
}

func TestRenderPassSwitch(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.Clear(Color{0, 1, 0, 1})
	cl.QueueDrawPoints([]FPoint{{2, 2}}, Color{1, 1, 1, 1}, BlendAlpha)
	cl.Clear(Color{0, 0, 1, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())

	assert.Len(t, d.PassesWith(vkapi.LoadOpLoad), 1)
	assert.Len(t, d.PassesWith(vkapi.LoadOpClear), 2)
	assert.Equal(t, 3, d.Calls["CmdEndRenderPass"])
	assert.Len(t, d.Draws, 2)
	assert.Empty(t, d.Violations)
}

func TestRenderAreaIsViewport(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := &CommandList{}
	cl.SetViewport(image.Rect(10, 20, 110, 220))
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	require.Len(t, d.PassBegins, 1)
	assert.Equal(t, vkapi.Rect{X: 10, Y: 20, Width: 100, Height: 200}, d.PassBegins[0].Area)
	assert.Equal(t, r.sc.framebuffers[r.frame.image], d.PassBegins[0].Framebuffer)
}

func TestViewportGrowsPastRenderArea(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := &CommandList{}
	cl.SetViewport(image.Rect(0, 0, 100, 100))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetViewport(image.Rect(10, 10, 50, 50))
	cl.QueueDrawPoints([]FPoint{{2, 2}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetViewport(image.Rect(0, 0, 800, 600))
	cl.QueueDrawPoints([]FPoint{{3, 3}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	// a smaller viewport stays in the open pass, a larger one reopens it
	require.Len(t, d.PassBegins, 2)
	assert.Equal(t, vkapi.Rect{Width: 100, Height: 100}, d.PassBegins[0].Area)
	assert.Equal(t, vkapi.Rect{Width: 800, Height: 600}, d.PassBegins[1].Area)
	assert.Equal(t, vkapi.LoadOpLoad, d.PassBegins[1].LoadOp)
	assert.Len(t, d.Draws, 3)
	assert.Empty(t, d.Violations)
}

func TestOutOfDateOnAcquire(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("AcquireNextImage", vkapi.ErrorOutOfDate)
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])
	assert.Len(t, d.Presents, 1)
	assert.Empty(t, d.Violations)
}

func TestOutOfDateTwiceOnAcquire(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("AcquireNextImage", vkapi.ErrorOutOfDate)
	d.FailNext("AcquireNextImage", vkapi.ErrorOutOfDate)
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	err := r.RunCommandQueue(cl.First, cl.Vertices)
	assert.ErrorIs(t, err, vkapi.ErrorOutOfDate)

	// the frame is dropped, and the next one succeeds
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}

func TestOutOfDateOnPresent(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("QueuePresent", vkapi.ErrorOutOfDate)
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])

	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Len(t, d.Presents, 1)
	assert.Empty(t, d.Violations)
}

func TestSuboptimalAcquire(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("AcquireNextImage", vkapi.Suboptimal)
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	assert.True(t, r.sc.stale)
	require.NoError(t, r.RenderPresent())

	// presented, then recreated
	assert.Len(t, d.Presents, 1)
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])
	assert.False(t, r.sc.stale)
	assert.Empty(t, d.Violations)
}

func TestWaitIdleOnPresent(t *testing.T) {
	r, d := newTestRenderer(t, func(o *Options) { o.WaitIdleOnPresent = true })
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Equal(t, 2, d.Calls["DeviceWaitIdle"])
}

func TestSlotFenceReuse(t *testing.T) {
	r, d := newTestRenderer(t)
	n := len(r.sc.images)
	for range 3 * n {
		cl := fullViewport()
		cl.Clear(Color{0, 0, 0, 1})
		run(t, r, cl)
		require.NoError(t, r.RenderPresent())
	}
	assert.Len(t, d.Submits, 3*n)
	for i, sub := range d.Submits {
		assert.Equal(t, r.sc.fences[i%n], sub.Fence)
	}
	assert.Empty(t, d.Violations)
}

func TestSubmitFailureOnPresent(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("QueueSubmit", vkapi.ErrorOutOfDeviceMemory)
	cl := fullViewport()
	cl.Clear(Color{1, 1, 1, 1})
	run(t, r, cl)
	err := r.RenderPresent()
	assert.ErrorIs(t, err, vkapi.ErrorOutOfDeviceMemory)
	assert.Empty(t, d.Presents)
	assert.Equal(t, 2, d.Calls["CreateSwapchain"])

	// every slot is usable again
	n := len(r.sc.images)
	for range n + 1 {
		run(t, r, cl)
		require.NoError(t, r.RenderPresent())
	}
	assert.Len(t, d.Presents, n+1)
	assert.Zero(t, r.DeviceResets())
	assert.Empty(t, d.Violations)
}
