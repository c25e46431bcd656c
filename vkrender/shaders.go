// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

//go:generate glslc -fshader-stage=vertex -o shaders/vertex.vert.spv shaders/vertex.vert
//go:generate glslc -fshader-stage=fragment -o shaders/solid.frag.spv shaders/solid.frag
//go:generate glslc -fshader-stage=fragment -o shaders/rgb.frag.spv shaders/rgb.frag
//go:generate glslc -fshader-stage=fragment -o shaders/yuv.frag.spv shaders/yuv.frag
//go:generate glslc -fshader-stage=fragment -o shaders/nv12.frag.spv shaders/nv12.frag
//go:generate glslc -fshader-stage=fragment -o shaders/nv21.frag.spv shaders/nv21.frag

import (
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"

	"cogentcore.org/vkrender/base/errors"
)

//go:embed shaders
var shadersFS embed.FS

func embeddedShaders() fs.FS {
	return errors.Log1(fs.Sub(shadersFS, "shaders"))
}

// ShaderKind is a fragment shader variant.
type ShaderKind int32

const (
	ShaderSolid ShaderKind = iota
	ShaderRGB
	ShaderYUV
	ShaderNV12
	ShaderNV21
	numShaders
)

var shaderNames = [numShaders]string{"solid", "rgb", "yuv", "nv12", "nv21"}

func (sk ShaderKind) String() string {
	if sk < 0 || sk >= numShaders {
		return fmt.Sprintf("ShaderKind(%d)", int32(sk))
	}
	return shaderNames[sk]
}

// VertexShaderFile is the file name of the vertex shader module.
const VertexShaderFile = "vertex.vert.spv"

// ShaderFile returns the file name of the module of a fragment shader.
func ShaderFile(sk ShaderKind) string {
	return sk.String() + ".frag.spv"
}

// YUVConversion is the matrix used to convert YUV to RGB.
type YUVConversion int32

const (
	YUVConversionJPEG YUVConversion = iota
	YUVConversionBT601
	YUVConversionBT709
)

// yuvConstants are the offset and coefficient rows of a conversion.
type yuvConstants struct {
	offset  [4]float32
	r, g, b [4]float32
}

var yuvMatrices = [...]yuvConstants{
	YUVConversionJPEG: {
		offset: [4]float32{0, -0.501960814, -0.501960814, 0},
		r:      [4]float32{1, 0, 1.402, 0},
		g:      [4]float32{1, -0.3441363, -0.7141363, 0},
		b:      [4]float32{1, 1.772, 0, 0},
	},
	YUVConversionBT601: {
		offset: [4]float32{-0.0627451017, -0.501960814, -0.501960814, 0},
		r:      [4]float32{1.1644, 0, 1.596, 0},
		g:      [4]float32{1.1644, -0.3918, -0.813, 0},
		b:      [4]float32{1.1644, 2.0172, 0, 0},
	},
	YUVConversionBT709: {
		offset: [4]float32{-0.0627451017, -0.501960814, -0.501960814, 0},
		r:      [4]float32{1.1644, 0, 1.7927, 0},
		g:      [4]float32{1.1644, -0.2132, -0.5329, 0},
		b:      [4]float32{1.1644, 2.1124, 0, 0},
	},
}

// pushConstants is the push constant block shared by all shaders.
// Projection holds the x and y scale followed by the x and y offset.
type pushConstants struct {
	Projection [4]float32
	YUVOffset  [4]float32
	RCoeff     [4]float32
	GCoeff     [4]float32
	BCoeff     [4]float32
}

// pushConstantsSize is the encoded size of [pushConstants].
const pushConstantsSize = 80

func (pc *pushConstants) setYUV(mode YUVConversion) {
	m := yuvMatrices[mode]
	pc.YUVOffset = m.offset
	pc.RCoeff, pc.GCoeff, pc.BCoeff = m.r, m.g, m.b
}

func (pc *pushConstants) bytes(b []byte) []byte {
	out, _ := binary.Append(b[:0], binary.LittleEndian, pc)
	return out
}

// loadShaders creates the vertex shader and every fragment shader module.
func (r *Renderer) loadShaders() error {
	code, err := fs.ReadFile(r.opts.Shaders, VertexShaderFile)
	if err != nil {
		return fmt.Errorf("vkrender: shader %s (run go generate to compile the shaders): %w", VertexShaderFile, err)
	}
	r.vertexShader, err = r.api.CreateShaderModule(r.dev, code)
	if err != nil {
		return fmt.Errorf("vkrender: shader %s: %w", VertexShaderFile, err)
	}
	for sk := range numShaders {
		fn := ShaderFile(sk)
		code, err := fs.ReadFile(r.opts.Shaders, fn)
		if err != nil {
			return fmt.Errorf("vkrender: shader %s (run go generate to compile the shaders): %w", fn, err)
		}
		r.fragmentShaders[sk], err = r.api.CreateShaderModule(r.dev, code)
		if err != nil {
			return fmt.Errorf("vkrender: shader %s: %w", fn, err)
		}
	}
	return nil
}

func (r *Renderer) destroyShaders() {
	for sk := range numShaders {
		if r.fragmentShaders[sk] != 0 {
			r.api.DestroyShaderModule(r.dev, r.fragmentShaders[sk])
			r.fragmentShaders[sk] = 0
		}
	}
	if r.vertexShader != 0 {
		r.api.DestroyShaderModule(r.dev, r.vertexShader)
		r.vertexShader = 0
	}
}
