// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"encoding/binary"
	"fmt"
	"image"

	"cogentcore.org/vkrender/vkapi"
	"github.com/chewxy/math32"
)

// CommandType is the type of a [RenderCommand].
type CommandType int32

const (
	CmdNoOp CommandType = iota
	CmdSetViewport
	CmdSetClipRect
	CmdSetDrawColor
	CmdClear
	CmdDrawPoints
	CmdDrawLines
	CmdFillRects
	CmdCopy
	CmdCopyEx
	CmdGeometry
)

var commandNames = [...]string{"NoOp", "SetViewport", "SetClipRect", "SetDrawColor", "Clear",
	"DrawPoints", "DrawLines", "FillRects", "Copy", "CopyEx", "Geometry"}

func (ct CommandType) String() string {
	if ct < 0 || int(ct) >= len(commandNames) {
		return fmt.Sprintf("CommandType(%d)", int32(ct))
	}
	return commandNames[ct]
}

// Color is a float color, which may exceed 1 for extended colorspaces.
type Color struct {
	R, G, B, A float32
}

func (c Color) array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// FPoint is a point in pixels.
type FPoint struct {
	X, Y float32
}

// ClipRect is the data of [CmdSetClipRect]. The rectangle
// is relative to the viewport.
type ClipRect struct {
	Enabled bool
	Rect    image.Rectangle
}

// DrawData is the data of the draw commands.
type DrawData struct {
	// First is the byte offset of the first vertex in the vertex blob.
	First uint64

	// Count is the number of vertices.
	Count int

	Color Color

	// Blend is the blend mode. The zero value is [BlendNone].
	Blend BlendMode

	// Texture is sampled by [CmdGeometry] when set.
	Texture *Texture
}

// RenderCommand is one command of a command list.
type RenderCommand struct {
	Type CommandType

	// Viewport is the data of [CmdSetViewport].
	Viewport image.Rectangle

	// Clip is the data of [CmdSetClipRect].
	Clip ClipRect

	// Color is the data of [CmdSetDrawColor] and [CmdClear].
	Color Color

	// Draw is the data of the draw commands.
	Draw DrawData

	Next *RenderCommand
}

// CommandList builds a linked list of commands and the vertex
// blob they refer to, for [Renderer.RunCommandQueue].
type CommandList struct {
	First    *RenderCommand
	last     *RenderCommand
	Vertices []Vertex
}

// Reset empties the list, keeping the vertex storage.
func (cl *CommandList) Reset() {
	cl.First = nil
	cl.last = nil
	cl.Vertices = cl.Vertices[:0]
}

// Add appends a command and returns it.
func (cl *CommandList) Add(cmd *RenderCommand) *RenderCommand {
	cmd.Next = nil
	if cl.last == nil {
		cl.First = cmd
	} else {
		cl.last.Next = cmd
	}
	cl.last = cmd
	return cmd
}

func (cl *CommandList) SetViewport(rect image.Rectangle) *RenderCommand {
	return cl.Add(&RenderCommand{Type: CmdSetViewport, Viewport: rect})
}

func (cl *CommandList) SetClipRect(enabled bool, rect image.Rectangle) *RenderCommand {
	return cl.Add(&RenderCommand{Type: CmdSetClipRect, Clip: ClipRect{Enabled: enabled, Rect: rect}})
}

func (cl *CommandList) Clear(c Color) *RenderCommand {
	return cl.Add(&RenderCommand{Type: CmdClear, Color: c})
}

// offset returns the byte offset of the next vertex.
func (cl *CommandList) offset() uint64 {
	return uint64(len(cl.Vertices)) * VertexSize
}

// QueueDrawPoints appends a point draw. Each point is placed at
// the center of its pixel.
func (cl *CommandList) QueueDrawPoints(points []FPoint, c Color, blend BlendMode) *RenderCommand {
	return cl.queuePoints(CmdDrawPoints, points, c, blend)
}

// QueueDrawLines appends a connected line strip through the points.
func (cl *CommandList) QueueDrawLines(points []FPoint, c Color, blend BlendMode) *RenderCommand {
	return cl.queuePoints(CmdDrawLines, points, c, blend)
}

func (cl *CommandList) queuePoints(ct CommandType, points []FPoint, c Color, blend BlendMode) *RenderCommand {
	first := cl.offset()
	col := c.array()
	for _, pt := range points {
		cl.Vertices = append(cl.Vertices, Vertex{Pos: [2]float32{pt.X + 0.5, pt.Y + 0.5}, Color: col})
	}
	return cl.Add(&RenderCommand{Type: ct, Color: c, Draw: DrawData{
		First: first, Count: len(points), Color: c, Blend: blend,
	}})
}

// Geometry is the input of [CommandList.QueueGeometry]. Strides are
// in elements; zero means tightly packed.
type Geometry struct {
	// Texture is sampled with UV when set.
	Texture *Texture

	XY       []float32
	XYStride int

	Colors      []Color
	ColorStride int

	UV       []float32
	UVStride int

	NumVertices int

	// Indices are little endian indices of IndexSize bytes each.
	// Without indices the vertices are drawn in order.
	Indices   []byte
	IndexSize int

	// ScaleX and ScaleY scale the positions. Zero means 1.
	ScaleX, ScaleY float32

	Blend BlendMode
}

// index returns the i-th vertex index of the geometry.
func (g *Geometry) index(i int) (int, error) {
	if len(g.Indices) == 0 {
		return i, nil
	}
	o := i * g.IndexSize
	switch g.IndexSize {
	case 1:
		return int(g.Indices[o]), nil
	case 2:
		return int(binary.LittleEndian.Uint16(g.Indices[o:])), nil
	case 4:
		return int(binary.LittleEndian.Uint32(g.Indices[o:])), nil
	}
	return 0, fmt.Errorf("%w: index size %d", ErrInvalidGeometry, g.IndexSize)
}

// QueueGeometry appends a triangle list draw. UV coordinates
// are only written when the geometry has a texture.
func (cl *CommandList) QueueGeometry(g *Geometry) (*RenderCommand, error) {
	count := g.NumVertices
	if len(g.Indices) > 0 {
		if g.IndexSize != 1 && g.IndexSize != 2 && g.IndexSize != 4 {
			return nil, fmt.Errorf("%w: index size %d", ErrInvalidGeometry, g.IndexSize)
		}
		count = len(g.Indices) / g.IndexSize
	}
	xys, cs, uvs := g.XYStride, g.ColorStride, g.UVStride
	if xys == 0 {
		xys = 2
	}
	if cs == 0 {
		cs = 1
	}
	if uvs == 0 {
		uvs = 2
	}
	sx, sy := g.ScaleX, g.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}

	first := cl.offset()
	n := len(cl.Vertices)
	for i := range count {
		j, err := g.index(i)
		if err != nil {
			cl.Vertices = cl.Vertices[:n]
			return nil, err
		}
		if j < 0 || j >= g.NumVertices || j*xys+1 >= len(g.XY) || j*cs >= len(g.Colors) {
			cl.Vertices = cl.Vertices[:n]
			return nil, fmt.Errorf("%w: vertex %d out of range", ErrInvalidGeometry, j)
		}
		x, y := g.XY[j*xys]*sx, g.XY[j*xys+1]*sy
		if math32.IsNaN(x) || math32.IsNaN(y) || math32.IsInf(x, 0) || math32.IsInf(y, 0) {
			cl.Vertices = cl.Vertices[:n]
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidGeometry, j)
		}
		v := Vertex{Pos: [2]float32{x, y}, Color: g.Colors[j*cs].array()}
		if g.Texture != nil {
			if j*uvs+1 >= len(g.UV) {
				cl.Vertices = cl.Vertices[:n]
				return nil, fmt.Errorf("%w: uv %d out of range", ErrInvalidGeometry, j)
			}
			v.Tex = [2]float32{g.UV[j*uvs], g.UV[j*uvs+1]}
		}
		cl.Vertices = append(cl.Vertices, v)
	}
	return cl.Add(&RenderCommand{Type: CmdGeometry, Draw: DrawData{
		First: first, Count: count, Blend: g.Blend, Texture: g.Texture,
	}}), nil
}

// RunCommandQueue executes the commands starting at cmd against the
// current target. The vertex blob is uploaded once into the next slot
// of the vertex ring. A draw that fails is skipped and the remaining
// commands still run; the first error is returned.
func (r *Renderer) RunCommandQueue(cmd *RenderCommand, vertices []Vertex) error {
	if r.destroyed {
		return r.setError(ErrRendererDestroyed)
	}
	if err := r.activate(); err != nil {
		return r.setError(err)
	}
	if err := r.updateVertexBuffer(vertices); err != nil {
		return r.setError(err)
	}
	f := &r.frame
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	for ; cmd != nil; cmd = cmd.Next {
		if f.cb == 0 {
			// the frame was dropped, and the vertices with it
			break
		}
		switch cmd.Type {
		case CmdSetViewport:
			if cmd.Viewport != f.viewport {
				f.viewport = cmd.Viewport
				f.viewportDirty = true
				f.clipDirty = true
			}

		case CmdSetClipRect:
			if cmd.Clip.Enabled != f.clipEnabled {
				f.clipEnabled = cmd.Clip.Enabled
				f.clipDirty = true
			}
			if cmd.Clip.Enabled && cmd.Clip.Rect != f.clip {
				f.clip = cmd.Clip.Rect
				f.clipDirty = true
			}

		case CmdClear:
			cc := cmd.Color.array()
			keep(r.beginPass(vkapi.LoadOpClear, &cc))

		case CmdDrawPoints:
			keep(r.draw(cmd.Draw, vertices, ShaderSolid, vkapi.PointList, 0, cmd.Draw.Count))

		case CmdDrawLines:
			d := cmd.Draw
			keep(r.draw(d, vertices, ShaderSolid, vkapi.LineStrip, 0, d.Count))
			// light the end pixel, which a line strip leaves out
			if d.Count > 1 {
				i := int(d.First/VertexSize) + d.Count - 1
				if i < len(vertices) && vertices[i-d.Count+1].Pos != vertices[i].Pos {
					keep(r.draw(d, vertices, ShaderSolid, vkapi.PointList, d.Count-1, 1))
				}
			}

		case CmdGeometry:
			shader := ShaderSolid
			if t := cmd.Draw.Texture; t != nil {
				shader = t.format.shader()
			}
			keep(r.draw(cmd.Draw, vertices, shader, vkapi.TriangleList, 0, cmd.Draw.Count))

		case CmdNoOp, CmdSetDrawColor, CmdFillRects, CmdCopy, CmdCopyEx:
			// converted to geometry before they reach the queue
		}
	}
	return r.setError(first)
}

// draw records a draw of count vertices starting skip vertices
// after the first vertex of d.
func (r *Renderer) draw(d DrawData, vertices []Vertex, shader ShaderKind, topology vkapi.Topology, skip, count int) error {
	if count <= 0 {
		return nil
	}
	if d.First%VertexSize != 0 {
		return fmt.Errorf("%w: vertex offset %d", ErrInvalidGeometry, d.First)
	}
	first := int(d.First/VertexSize) + skip
	if first+count > len(vertices) {
		return fmt.Errorf("%w: vertices %d..%d of %d", ErrInvalidGeometry, first, first+count, len(vertices))
	}
	blend := d.Blend
	if blend == (BlendMode{}) {
		blend = BlendNone
	}
	err := r.setDrawState(drawState{shader: shader, blend: blend, topology: topology, texture: d.Texture})
	if err != nil {
		return err
	}
	r.api.CmdDraw(r.frame.cb, uint32(count), uint32(first))
	return nil
}
