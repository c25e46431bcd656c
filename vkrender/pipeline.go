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

// PipelineKey identifies a graphics pipeline.
type PipelineKey struct {
	Shader   ShaderKind
	Blend    BlendMode
	Topology vkapi.Topology
	Format   vkapi.Format
}

// pipeline returns the pipeline for the key, creating it on first use
// against the given render pass, which must have the key's format.
// A pipeline is created at most once per key and is kept until the
// device is destroyed.
func (r *Renderer) pipeline(key PipelineKey, rp vkapi.RenderPass) (vkapi.Pipeline, error) {
	if pl, ok := r.pipelines[key]; ok {
		return pl, nil
	}
	pl, err := r.api.CreateGraphicsPipeline(r.dev, vkapi.GraphicsPipelineInfo{
		VertexShader:   r.vertexShader,
		FragmentShader: r.fragmentShaders[key.Shader],
		Layout:         r.layout,
		RenderPass:     rp,
		Topology:       key.Topology,
		VertexStride:   VertexSize,
		Attributes:     vertexAttributes,
		Blend:          key.Blend.state(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v %v %v: %w", ErrPipelineCreate, key.Shader, key.Topology, key.Format, err)
	}
	slog.Debug("vkrender: created pipeline", "shader", key.Shader, "topology", key.Topology, "format", key.Format, "total", len(r.pipelines)+1)
	r.pipelines[key] = pl
	return pl, nil
}

func (r *Renderer) destroyPipelines() {
	for key, pl := range r.pipelines {
		r.api.DestroyPipeline(r.dev, pl)
		delete(r.pipelines, key)
	}
}

// projection returns the push constant projection mapping
// viewport pixels to clip space, where y points down.
func projection(vp image.Rectangle) ([4]float32, error) {
	w, h := float32(vp.Dx()), float32(vp.Dy())
	if w <= 0 || h <= 0 {
		return [4]float32{}, ErrInvalidViewport
	}
	return [4]float32{2 / w, 2 / h, -1, -1}, nil
}

// scissor returns the scissor rectangle for the clip rectangle,
// which is relative to the viewport, clamped to the target.
func scissor(clip, viewport image.Rectangle, ext vkapi.Extent) vkapi.Rect {
	sr := clip.Add(viewport.Min).Intersect(image.Rect(0, 0, int(ext.Width), int(ext.Height)))
	if sr.Empty() {
		return vkapi.Rect{}
	}
	return vkapi.Rect{X: int32(sr.Min.X), Y: int32(sr.Min.Y), Width: uint32(sr.Dx()), Height: uint32(sr.Dy())}
}

// drawState is the state needed by one draw.
type drawState struct {
	shader   ShaderKind
	blend    BlendMode
	topology vkapi.Topology
	texture  *Texture
}

// setDrawState binds the pipeline for the draw, updates the dynamic
// viewport and scissor if they changed, binds the texture planes and
// pushes the constants. Texture planes are moved to the shader read
// layout before the render pass is opened.
func (r *Renderer) setDrawState(ds drawState) error {
	f := &r.frame
	if f.viewport.Empty() {
		return ErrInvalidViewport
	}
	proj, err := projection(f.viewport)
	if err != nil {
		return err
	}
	if err := r.activate(); err != nil {
		return err
	}
	if t := ds.texture; t != nil {
		if err := t.checkReleased(); err != nil {
			return err
		}
		if t == r.renderTarget {
			return ErrSampleRenderTarget
		}
		for i := range t.planes {
			if t.planes[i].layout != vkapi.LayoutShaderReadOnly {
				r.endPass()
				r.transition(&t.planes[i].trackedImage, vkapi.LayoutShaderReadOnly)
			}
		}
	}
	// allocating may issue a batch, which resets the bound state
	var set vkapi.DescriptorSet
	if ds.texture != nil {
		set, err = r.allocateDescriptorSet()
		if err != nil {
			return err
		}
	}
	if f.pass && !r.renderArea().In(f.passArea) {
		// draws must stay inside the render area of the open pass
		r.endPass()
	}
	if err := r.ensurePass(); err != nil {
		return err
	}

	_, passes, ext := r.target()
	key := PipelineKey{Shader: ds.shader, Blend: ds.blend, Topology: ds.topology, Format: r.targetFormat()}
	pl, err := r.pipeline(key, passes[vkapi.LoadOpLoad])
	if err != nil {
		return err
	}
	if pl != f.pipeline {
		r.api.CmdBindPipeline(f.cb, pl)
		f.pipeline = pl
	}

	if f.viewportDirty {
		vp := f.viewport
		r.api.CmdSetViewport(f.cb, vkapi.Viewport{
			X: float32(vp.Min.X), Y: float32(vp.Min.Y),
			Width: float32(vp.Dx()), Height: float32(vp.Dy()),
			MinDepth: 0, MaxDepth: 1,
		})
		f.viewportDirty = false
	}
	if f.clipDirty {
		clip := image.Rect(0, 0, f.viewport.Dx(), f.viewport.Dy())
		if f.clipEnabled {
			clip = f.clip
		}
		r.api.CmdSetScissor(f.cb, scissor(clip, f.viewport, ext))
		f.clipDirty = false
	}

	pc := pushConstants{Projection: proj}
	if t := ds.texture; t != nil {
		if t.format.yuv() {
			pc.setYUV(t.yuvMode)
		}
		writes := make([]vkapi.ImageSamplerWrite, len(t.planes))
		for i, p := range t.planes {
			writes[i] = vkapi.ImageSamplerWrite{Binding: uint32(i), View: p.view, Sampler: r.samplers[t.scale]}
		}
		r.api.UpdateDescriptorSet(r.dev, set, writes...)
		r.api.CmdBindDescriptorSet(f.cb, r.layout, set)
	}
	f.push = pc.bytes(f.push)
	r.api.CmdPushConstants(f.cb, r.layout, vkapi.ShaderVertex|vkapi.ShaderFragment, 0, f.push)
	return nil
}

// allocateDescriptorSet allocates a descriptor set for one draw.
// When the pool is exhausted a batch is issued, which resets it.
func (r *Renderer) allocateDescriptorSet() (vkapi.DescriptorSet, error) {
	set, err := r.api.AllocateDescriptorSet(r.dev, r.descPool, r.descLayout)
	if err == nil {
		return set, nil
	}
	if !isPoolExhausted(err) {
		return 0, fmt.Errorf("vkrender: allocate descriptor set: %w", err)
	}
	if err := r.issueBatch(); err != nil {
		return 0, err
	}
	set, err = r.api.AllocateDescriptorSet(r.dev, r.descPool, r.descLayout)
	if err != nil {
		return 0, fmt.Errorf("vkrender: allocate descriptor set: %w", err)
	}
	return set, nil
}

func isPoolExhausted(err error) bool {
	return errors.Is(err, vkapi.ErrorOutOfPoolMemory)
}
