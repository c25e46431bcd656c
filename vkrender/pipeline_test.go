// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"cogentcore.org/vkrender/vkapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePush(t *testing.T, b []byte) pushConstants {
	t.Helper()
	require.Len(t, b, pushConstantsSize)
	var pc pushConstants
	require.NoError(t, binary.Read(bytes.NewReader(b), binary.LittleEndian, &pc))
	return pc
}

func TestProjection(t *testing.T) {
	p, err := projection(image.Rect(0, 0, 800, 600))
	require.NoError(t, err)
	assert.Equal(t, [4]float32{2.0 / 800, 2.0 / 600, -1, -1}, p)

	// the origin maps to the top left corner, and the far corner to the bottom right
	x, y := 0*p[0]+p[2], 0*p[1]+p[3]
	assert.Equal(t, float32(-1), x)
	assert.Equal(t, float32(-1), y)
	x, y = 800*p[0]+p[2], 600*p[1]+p[3]
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)

	// only the size of the viewport matters
	q, err := projection(image.Rect(100, 50, 900, 650))
	require.NoError(t, err)
	assert.Equal(t, p, q)

	_, err = projection(image.Rect(0, 0, 0, 600))
	assert.ErrorIs(t, err, ErrInvalidViewport)
	_, err = projection(image.Rect(0, 0, 800, 0))
	assert.ErrorIs(t, err, ErrInvalidViewport)
}

func TestScissor(t *testing.T) {
	ext := vkapi.Extent{Width: 800, Height: 600}
	vp := image.Rect(100, 100, 500, 500)
	assert.Equal(t, vkapi.Rect{X: 110, Y: 120, Width: 40, Height: 30},
		scissor(image.Rect(10, 20, 50, 50), vp, ext))
	assert.Equal(t, vkapi.Rect{X: 700, Y: 500, Width: 100, Height: 100},
		scissor(image.Rect(600, 400, 1000, 1000), vp, ext))
	assert.Equal(t, vkapi.Rect{}, scissor(image.Rect(900, 900, 1000, 1000), vp, ext))
}

func TestPipelineCache(t *testing.T) {
	r, d := newTestRenderer(t)
	for frame := range 3 {
		cl := fullViewport()
		for i := range 10 {
			cl.QueueDrawPoints([]FPoint{{float32(i), float32(frame)}}, Color{1, 1, 1, 1}, BlendNone)
		}
		run(t, r, cl)
		require.NoError(t, r.RenderPresent())
	}
	assert.Equal(t, 1, d.PipelinesCreated())
	assert.Equal(t, 3, d.Calls["CmdBindPipeline"])
	assert.Len(t, d.Draws, 30)

	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendAlpha)
	cl.QueueDrawLines([]FPoint{{1, 1}, {1, 1}}, Color{1, 1, 1, 1}, BlendAlpha)
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Equal(t, 3, d.PipelinesCreated())
	assert.Len(t, r.pipelines, 3)
	assert.Empty(t, d.Violations)
}

func TestPipelineBlendState(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendAdd)
	run(t, r, cl)

	require.Len(t, d.Draws, 2)
	none := d.Pipelines[d.Draws[0].Pipeline].Info
	add := d.Pipelines[d.Draws[1].Pipeline].Info
	assert.False(t, none.Blend.Enable)
	assert.True(t, add.Blend.Enable)
	assert.Equal(t, vkapi.BlendSrcAlpha, add.Blend.SrcColor)
	assert.Equal(t, vkapi.BlendOne, add.Blend.DstColor)
	assert.Equal(t, vkapi.PointList, add.Topology)
	assert.Equal(t, uint32(VertexSize), add.VertexStride)
	assert.Equal(t, r.fragmentShaders[ShaderSolid], add.FragmentShader)
	assert.Equal(t, r.sc.passes[vkapi.LoadOpLoad], add.RenderPass)
}

func TestZeroBlendIsNone(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendMode{})
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)
	assert.Equal(t, 1, d.PipelinesCreated())
}

func TestDrawState(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := &CommandList{}
	cl.SetViewport(image.Rect(100, 100, 500, 400))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetViewport(image.Rect(100, 100, 500, 400))
	cl.QueueDrawPoints([]FPoint{{2, 2}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetClipRect(true, image.Rect(10, 20, 50, 50))
	cl.QueueDrawPoints([]FPoint{{3, 3}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetClipRect(false, image.Rectangle{})
	cl.QueueDrawPoints([]FPoint{{4, 4}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	// the same viewport is only set once
	require.Len(t, d.Viewports, 1)
	assert.Equal(t, vkapi.Viewport{X: 100, Y: 100, Width: 400, Height: 300, MaxDepth: 1}, d.Viewports[0])

	require.Len(t, d.Scissors, 3)
	assert.Equal(t, vkapi.Rect{X: 100, Y: 100, Width: 400, Height: 300}, d.Scissors[0])
	assert.Equal(t, vkapi.Rect{X: 110, Y: 120, Width: 40, Height: 30}, d.Scissors[1])
	assert.Equal(t, vkapi.Rect{X: 100, Y: 100, Width: 400, Height: 300}, d.Scissors[2])

	require.Len(t, d.Pushes, 4)
	pc := decodePush(t, d.Pushes[0])
	assert.Equal(t, [4]float32{2.0 / 400, 2.0 / 300, -1, -1}, pc.Projection)
	assert.Equal(t, [4]float32{}, pc.RCoeff)
	assert.Empty(t, d.Violations)
}

func TestViewportChangeResetsClip(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.SetClipRect(true, image.Rect(0, 0, 10, 10))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetViewport(image.Rect(200, 200, 400, 400))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	require.Len(t, d.Scissors, 2)
	assert.Equal(t, vkapi.Rect{X: 0, Y: 0, Width: 10, Height: 10}, d.Scissors[0])
	// the clip rectangle is relative to the new viewport
	assert.Equal(t, vkapi.Rect{X: 200, Y: 200, Width: 10, Height: 10}, d.Scissors[1])
}

func TestZeroViewport(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := &CommandList{}
	cl.SetViewport(image.Rect(0, 0, 0, 600))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.SetViewport(image.Rect(0, 0, 800, 600))
	cl.QueueDrawPoints([]FPoint{{2, 2}}, Color{1, 1, 1, 1}, BlendNone)
	err := r.RunCommandQueue(cl.First, cl.Vertices)
	assert.ErrorIs(t, err, ErrInvalidViewport)

	// the draw is skipped, and the rest of the queue still runs
	require.Len(t, d.Draws, 1)
	assert.Equal(t, uint32(1), d.Draws[0].FirstVertex)
	assert.ErrorIs(t, r.LastError(), ErrInvalidViewport)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}

func TestPipelineCreateFailure(t *testing.T) {
	r, d := newTestRenderer(t)
	d.FailNext("CreateGraphicsPipeline", vkapi.ErrorOutOfDeviceMemory)
	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	err := r.RunCommandQueue(cl.First, cl.Vertices)
	assert.ErrorIs(t, err, ErrPipelineCreate)
	assert.ErrorIs(t, err, vkapi.ErrorOutOfDeviceMemory)
	assert.Empty(t, d.Draws)
	assert.Empty(t, r.pipelines)

	// the next draw tries again
	run(t, r, cl)
	assert.Len(t, d.Draws, 1)
	assert.Equal(t, 2, d.PipelinesCreated())
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}

func TestPipelinesPerTargetFormat(t *testing.T) {
	r, d := newTestRenderer(t)
	tex, err := r.CreateTexture(64, 64, PixelFormatRGBA64Float, TextureTarget)
	require.NoError(t, err)

	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)
	require.NoError(t, r.SetRenderTarget(tex))
	cl = &CommandList{}
	cl.SetViewport(image.Rect(0, 0, 64, 64))
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	assert.Equal(t, 2, d.PipelinesCreated())
	assert.Equal(t, tex.passes[vkapi.LoadOpLoad], d.Pipelines[d.Draws[1].Pipeline].Info.RenderPass)
	assert.Empty(t, d.Violations)
}
