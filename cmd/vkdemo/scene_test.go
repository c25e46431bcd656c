// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"testing"
	"testing/fstest"

	"cogentcore.org/vkrender/vkapi/fakedriver"
	"cogentcore.org/vkrender/vkrender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandTypes(cl *vkrender.CommandList) []vkrender.CommandType {
	var types []vkrender.CommandType
	for c := cl.First; c != nil; c = c.Next {
		types = append(types, c.Type)
	}
	return types
}

func TestSceneFrame(t *testing.T) {
	s := &Scene{Clear: vkrender.Color{B: 1, A: 1}}
	cl := s.Frame(image.Pt(200, 100), 0.5)
	assert.Equal(t, []vkrender.CommandType{
		vkrender.CmdSetViewport, vkrender.CmdSetClipRect, vkrender.CmdClear,
		vkrender.CmdDrawLines, vkrender.CmdDrawPoints,
		vkrender.CmdSetClipRect, vkrender.CmdGeometry, vkrender.CmdSetClipRect,
	}, commandTypes(cl))
	assert.Len(t, cl.Vertices, 2*numRays+numRays+3)

	// the star is centered
	assert.Equal(t, [2]float32{100.5, 50.5}, cl.Vertices[0].Pos)

	// the list is reused
	cl2 := s.Frame(image.Pt(200, 100), 1)
	assert.Same(t, cl, cl2)
	assert.Len(t, cl2.Vertices, 2*numRays+numRays+3)
}

func testShaders() fstest.MapFS {
	fsys := fstest.MapFS{vkrender.VertexShaderFile: {Data: []byte("vertex")}}
	for _, sk := range []vkrender.ShaderKind{vkrender.ShaderSolid, vkrender.ShaderRGB, vkrender.ShaderYUV, vkrender.ShaderNV12, vkrender.ShaderNV21} {
		fsys[vkrender.ShaderFile(sk)] = &fstest.MapFile{Data: []byte(sk.String())}
	}
	return fsys
}

func TestSceneRender(t *testing.T) {
	d := fakedriver.New()
	cfg := DefaultConfig()
	opts := cfg.Options()
	opts.Shaders = testShaders()
	r, err := vkrender.CreateRenderer(d, &fakedriver.Window{Width: 320, Height: 240}, vkrender.ColorspaceSRGB, opts)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	tex, err := r.CreateTexture(8, 4, vkrender.PixelFormatABGR8888, vkrender.TextureStatic)
	require.NoError(t, err)
	require.NoError(t, r.UpdateTextureFromImage(tex, image.Rectangle{}, img))

	c, err := cfg.Color()
	require.NoError(t, err)
	s := &Scene{Clear: c, Texture: tex}
	cl := s.Frame(r.OutputSize(), 0)
	assert.Equal(t, vkrender.CmdGeometry, commandTypes(cl)[len(commandTypes(cl))-1])
	assert.Len(t, cl.Vertices, 2*numRays+numRays+3+6)

	require.NoError(t, r.RunCommandQueue(cl.First, cl.Vertices))
	require.NoError(t, r.RenderPresent())
	r.Destroy()
	assert.Empty(t, d.Violations)
	assert.Zero(t, d.Live())
}
