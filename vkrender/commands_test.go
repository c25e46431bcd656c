// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"encoding/binary"
	"image"
	"math"
	"testing"

	"cogentcore.org/vkrender/vkapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTypeString(t *testing.T) {
	assert.Equal(t, "Clear", CmdClear.String())
	assert.Equal(t, "Geometry", CmdGeometry.String())
	assert.Equal(t, "CommandType(99)", CommandType(99).String())
}

func TestCommandList(t *testing.T) {
	cl := &CommandList{}
	vp := cl.SetViewport(image.Rect(0, 0, 10, 10))
	clip := cl.SetClipRect(true, image.Rect(1, 1, 2, 2))
	pts := cl.QueueDrawPoints([]FPoint{{1, 2}, {3, 4}}, Color{1, 0, 0, 1}, BlendAlpha)
	lines := cl.QueueDrawLines([]FPoint{{0, 0}, {5, 5}}, Color{0, 1, 0, 1}, BlendNone)

	assert.Equal(t, vp, cl.First)
	assert.Equal(t, clip, vp.Next)
	assert.Equal(t, pts, clip.Next)
	assert.Equal(t, lines, pts.Next)
	assert.Nil(t, lines.Next)

	assert.Equal(t, uint64(0), pts.Draw.First)
	assert.Equal(t, 2, pts.Draw.Count)
	assert.Equal(t, uint64(2*VertexSize), lines.Draw.First)
	require.Len(t, cl.Vertices, 4)
	assert.Equal(t, [2]float32{1.5, 2.5}, cl.Vertices[0].Pos)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, cl.Vertices[3].Color)

	cl.Reset()
	assert.Nil(t, cl.First)
	assert.Empty(t, cl.Vertices)
	c := cl.Clear(Color{})
	assert.Equal(t, c, cl.First)
}

func TestQueueGeometry(t *testing.T) {
	red := Color{1, 0, 0, 1}
	cl := &CommandList{}
	cl.QueueDrawPoints([]FPoint{{0, 0}}, red, BlendNone)

	cmd, err := cl.QueueGeometry(&Geometry{
		XY:          []float32{0, 0, 9, 10, 20, 9, 30, 9},
		XYStride:    4,
		Colors:      []Color{red, red},
		NumVertices: 2,
		ScaleX:      2,
	})
	require.NoError(t, err)
	assert.Equal(t, CmdGeometry, cmd.Type)
	assert.Equal(t, uint64(VertexSize), cmd.Draw.First)
	assert.Equal(t, 2, cmd.Draw.Count)
	assert.Nil(t, cmd.Draw.Texture)
	require.Len(t, cl.Vertices, 3)
	assert.Equal(t, [2]float32{0, 0}, cl.Vertices[1].Pos)
	assert.Equal(t, [2]float32{40, 9}, cl.Vertices[2].Pos)
	assert.Equal(t, [2]float32{}, cl.Vertices[2].Tex)
}

func TestQueueGeometryIndices(t *testing.T) {
	white := Color{1, 1, 1, 1}
	xy := []float32{0, 0, 1, 0, 1, 1, 0, 1}
	colors := []Color{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, white}
	for _, size := range []int{1, 2, 4} {
		idx := make([]byte, 6*size)
		for i, v := range []uint32{0, 1, 2, 0, 2, 3} {
			switch size {
			case 1:
				idx[i] = byte(v)
			case 2:
				binary.LittleEndian.PutUint16(idx[2*i:], uint16(v))
			case 4:
				binary.LittleEndian.PutUint32(idx[4*i:], v)
			}
		}
		cl := &CommandList{}
		cmd, err := cl.QueueGeometry(&Geometry{XY: xy, Colors: colors, NumVertices: 4, Indices: idx, IndexSize: size})
		require.NoError(t, err, "index size %d", size)
		assert.Equal(t, 6, cmd.Draw.Count)
		require.Len(t, cl.Vertices, 6)
		assert.Equal(t, [2]float32{0, 1}, cl.Vertices[5].Pos)
		assert.Equal(t, white.array(), cl.Vertices[5].Color)
		assert.Equal(t, cl.Vertices[0], cl.Vertices[3])
	}
}

func TestQueueGeometryTextured(t *testing.T) {
	r, _ := newTestRenderer(t)
	tex, err := r.CreateTexture(4, 4, PixelFormatARGB8888, TextureStatic)
	require.NoError(t, err)
	cl := &CommandList{}
	cmd, err := cl.QueueGeometry(&Geometry{
		Texture:     tex,
		XY:          []float32{0, 0, 4, 0, 4, 4},
		Colors:      []Color{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 1, 1}},
		UV:          []float32{0, 0, 9, 1, 0, 9, 1, 1, 9},
		UVStride:    3,
		NumVertices: 3,
		Blend:       BlendMod,
	})
	require.NoError(t, err)
	assert.Equal(t, tex, cmd.Draw.Texture)
	assert.Equal(t, BlendMod, cmd.Draw.Blend)
	assert.Equal(t, [2]float32{1, 0}, cl.Vertices[1].Tex)
	assert.Equal(t, [2]float32{1, 1}, cl.Vertices[2].Tex)

	// missing UV coordinates
	_, err = cl.QueueGeometry(&Geometry{
		Texture:     tex,
		XY:          []float32{0, 0},
		Colors:      []Color{{1, 1, 1, 1}},
		NumVertices: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Len(t, cl.Vertices, 3)
}

func TestQueueGeometryErrors(t *testing.T) {
	white := Color{1, 1, 1, 1}
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		g    Geometry
	}{
		{"index size", Geometry{XY: []float32{0, 0}, Colors: []Color{white}, NumVertices: 1, Indices: []byte{0, 0, 0}, IndexSize: 3}},
		{"index out of range", Geometry{XY: []float32{0, 0}, Colors: []Color{white}, NumVertices: 1, Indices: []byte{0, 1}, IndexSize: 1}},
		{"short positions", Geometry{XY: []float32{0, 0, 1}, Colors: []Color{white, white}, NumVertices: 2}},
		{"short colors", Geometry{XY: []float32{0, 0, 1, 1}, Colors: []Color{white}, NumVertices: 2}},
		{"nan", Geometry{XY: []float32{0, 0, nan, 1}, Colors: []Color{white, white}, NumVertices: 2}},
		{"inf", Geometry{XY: []float32{inf, 0}, Colors: []Color{white}, NumVertices: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := &CommandList{}
			cl.QueueDrawPoints([]FPoint{{0, 0}}, white, BlendNone)
			cmd, err := cl.QueueGeometry(&tt.g)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
			// nothing is left behind
			assert.Len(t, cl.Vertices, 1)
			assert.Nil(t, cl.First.Next)
		})
	}
}

func TestDrawLinesEndPoint(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.QueueDrawLines([]FPoint{{0, 0}, {10, 0}, {10, 10}}, Color{1, 1, 1, 1}, BlendNone)
	// a closed loop already lights its end pixel
	cl.QueueDrawLines([]FPoint{{0, 0}, {10, 0}, {0, 0}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	require.Len(t, d.Draws, 3)
	assert.Equal(t, uint32(3), d.Draws[0].VertexCount)
	assert.Equal(t, uint32(0), d.Draws[0].FirstVertex)
	assert.Equal(t, uint32(1), d.Draws[1].VertexCount)
	assert.Equal(t, uint32(2), d.Draws[1].FirstVertex)
	assert.Equal(t, uint32(3), d.Draws[2].VertexCount)
	assert.Equal(t, uint32(3), d.Draws[2].FirstVertex)
	assert.Equal(t, vkapi.LineStrip, d.Pipelines[d.Draws[0].Pipeline].Info.Topology)
	assert.Equal(t, vkapi.PointList, d.Pipelines[d.Draws[1].Pipeline].Info.Topology)
	assert.Equal(t, vkapi.LineStrip, d.Pipelines[d.Draws[2].Pipeline].Info.Topology)
	assert.Empty(t, d.Violations)
}

func TestRunCommandQueueBadDraws(t *testing.T) {
	r, d := newTestRenderer(t)
	cl := fullViewport()
	cl.Add(&RenderCommand{Type: CmdDrawPoints, Draw: DrawData{First: 3, Count: 1}})
	cl.Add(&RenderCommand{Type: CmdDrawPoints, Draw: DrawData{First: 0, Count: 5}})
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	cl.Add(&RenderCommand{Type: CmdFillRects})
	cl.Add(&RenderCommand{Type: CmdNoOp})
	err := r.RunCommandQueue(cl.First, cl.Vertices)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Len(t, d.Draws, 1)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
}

func TestRunCommandQueueEmpty(t *testing.T) {
	r, d := newTestRenderer(t)
	require.NoError(t, r.RunCommandQueue(nil, nil))
	// the frame is begun, and presents the acquired image
	require.NoError(t, r.RenderPresent())
	assert.Len(t, d.Presents, 1)
	assert.Empty(t, d.Violations)
}
