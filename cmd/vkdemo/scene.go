// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"

	"cogentcore.org/vkrender/base/errors"
	"cogentcore.org/vkrender/vkrender"
	"github.com/chewxy/math32"
)

// numRays is the number of lines in the spinning star.
const numRays = 12

// Scene records the demo frame into a command list.
type Scene struct {
	Clear vkrender.Color

	// Texture is drawn as a quad in the lower right corner when set.
	Texture *vkrender.Texture

	cl vkrender.CommandList
}

// Frame returns the command list for a frame of the given size
// at time t in seconds. The list is reused by the next call.
func (s *Scene) Frame(size image.Point, t float32) *vkrender.CommandList {
	cl := &s.cl
	cl.Reset()
	cl.SetViewport(image.Rectangle{Max: size})
	cl.SetClipRect(false, image.Rectangle{})
	cl.Clear(s.Clear)

	w, h := float32(size.X), float32(size.Y)
	cx, cy := w/2, h/2
	radius := 0.4 * math32.Min(w, h)

	star := make([]vkrender.FPoint, 0, 2*numRays)
	for i := range numRays {
		a := t + 2*math32.Pi*float32(i)/numRays
		sn, cs := math32.Sincos(a)
		star = append(star,
			vkrender.FPoint{X: cx, Y: cy},
			vkrender.FPoint{X: cx + radius*cs, Y: cy + radius*sn})
	}
	cl.QueueDrawLines(star, vkrender.Color{R: 1, G: 0.8, B: 0.2, A: 1}, vkrender.BlendAlpha)

	dots := make([]vkrender.FPoint, 0, numRays)
	for i := range numRays {
		a := -t + 2*math32.Pi*float32(i)/numRays
		sn, cs := math32.Sincos(a)
		dots = append(dots, vkrender.FPoint{X: cx + 1.1*radius*cs, Y: cy + 1.1*radius*sn})
	}
	cl.QueueDrawPoints(dots, vkrender.Color{R: 1, G: 1, B: 1, A: 1}, vkrender.BlendNone)

	// the clipped triangle fades in and out
	clip := image.Rect(0, 0, size.X/2, size.Y/2)
	cl.SetClipRect(true, clip)
	alpha := 0.5 + 0.5*math32.Sin(t)
	errors.Log1(cl.QueueGeometry(&vkrender.Geometry{
		XY: []float32{0, 0, w / 2, 0, 0, h / 2},
		Colors: []vkrender.Color{
			{R: 1, A: alpha}, {G: 1, A: alpha}, {B: 1, A: alpha},
		},
		NumVertices: 3,
		Blend:       vkrender.BlendAlpha,
	}))
	cl.SetClipRect(false, image.Rectangle{})

	if s.Texture != nil {
		s.queueQuad(w, h)
	}
	return cl
}

// quadIndices are the two triangles of a quad.
var quadIndices = []byte{0, 1, 2, 2, 1, 3}

func (s *Scene) queueQuad(w, h float32) {
	tw, th := float32(s.Texture.Width()), float32(s.Texture.Height())
	scale := math32.Min(1, math32.Min(w/(3*tw), h/(3*th)))
	qw, qh := tw*scale, th*scale
	x0, y0 := w-qw-8, h-qh-8
	white := vkrender.Color{R: 1, G: 1, B: 1, A: 1}
	errors.Log1(s.cl.QueueGeometry(&vkrender.Geometry{
		Texture:     s.Texture,
		XY:          []float32{x0, y0, x0 + qw, y0, x0, y0 + qh, x0 + qw, y0 + qh},
		Colors:      []vkrender.Color{white, white, white, white},
		UV:          []float32{0, 0, 1, 0, 0, 1, 1, 1},
		NumVertices: 4,
		Indices:     quadIndices,
		IndexSize:   1,
		Blend:       vkrender.BlendAlpha,
	}))
}
