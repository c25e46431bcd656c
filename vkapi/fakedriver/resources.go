// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakedriver

import (
	"cogentcore.org/vkrender/vkapi"
)

func (d *Driver) CreateBuffer(dev vkapi.Device, info vkapi.BufferInfo) (vkapi.Buffer, error) {
	if err := d.call("CreateBuffer"); err != nil {
		return 0, err
	}
	if info.Size == 0 {
		d.violate("buffer of size 0")
	}
	b := vkapi.Buffer(d.handle())
	d.Buffers[b] = &Buffer{Info: info, Data: make([]byte, info.Size)}
	return b, nil
}

func (d *Driver) DestroyBuffer(dev vkapi.Device, buf vkapi.Buffer) {
	d.call("DestroyBuffer")
	if b := d.Buffers[buf]; b != nil && b.Mapped {
		d.violate("destroy of mapped buffer %d", buf)
	}
	delete(d.Buffers, buf)
	d.release()
}

func (d *Driver) MapBuffer(dev vkapi.Device, buf vkapi.Buffer) ([]byte, error) {
	if err := d.call("MapBuffer"); err != nil {
		return nil, err
	}
	b := d.Buffers[buf]
	if b == nil {
		return nil, vkapi.ErrInvalidHandle
	}
	if !b.Info.HostVisible {
		return nil, vkapi.ErrorMemoryMapFailed
	}
	if b.Mapped {
		d.violate("map of buffer %d that is already mapped", buf)
	}
	b.Mapped = true
	return b.Data, nil
}

func (d *Driver) UnmapBuffer(dev vkapi.Device, buf vkapi.Buffer) {
	d.call("UnmapBuffer")
	if b := d.Buffers[buf]; b != nil {
		b.Mapped = false
	}
}

func (d *Driver) CreateImage(dev vkapi.Device, info vkapi.ImageInfo) (vkapi.Image, error) {
	if err := d.call("CreateImage"); err != nil {
		return 0, err
	}
	img := vkapi.Image(d.handle())
	d.Images[img] = &Image{Info: info}
	return img, nil
}

func (d *Driver) DestroyImage(dev vkapi.Device, img vkapi.Image) {
	d.call("DestroyImage")
	if im := d.Images[img]; im != nil {
		im.Destroyed = true
	}
	d.release()
}

func (d *Driver) CreateSampler(dev vkapi.Device, info vkapi.SamplerInfo) (vkapi.Sampler, error) {
	if err := d.call("CreateSampler"); err != nil {
		return 0, err
	}
	s := vkapi.Sampler(d.handle())
	d.Samplers[s] = info
	return s, nil
}

func (d *Driver) DestroySampler(dev vkapi.Device, s vkapi.Sampler) {
	d.call("DestroySampler")
	delete(d.Samplers, s)
	d.release()
}

func (d *Driver) CreateDescriptorSetLayout(dev vkapi.Device, samplers uint32) (vkapi.DescriptorSetLayout, error) {
	if err := d.call("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	return vkapi.DescriptorSetLayout(d.handle()), nil
}

func (d *Driver) DestroyDescriptorSetLayout(dev vkapi.Device, l vkapi.DescriptorSetLayout) {
	d.call("DestroyDescriptorSetLayout")
	d.release()
}

func (d *Driver) CreateDescriptorPool(dev vkapi.Device, maxSets, maxSamplers uint32) (vkapi.DescriptorPool, error) {
	if err := d.call("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	p := vkapi.DescriptorPool(d.handle())
	d.descPools[p] = maxSets
	d.poolSize[p] = maxSets
	return p, nil
}

func (d *Driver) DestroyDescriptorPool(dev vkapi.Device, p vkapi.DescriptorPool) {
	d.call("DestroyDescriptorPool")
	delete(d.descPools, p)
	delete(d.poolSize, p)
	d.release()
}

func (d *Driver) ResetDescriptorPool(dev vkapi.Device, p vkapi.DescriptorPool) error {
	if err := d.call("ResetDescriptorPool"); err != nil {
		return err
	}
	if _, ok := d.poolSize[p]; !ok {
		return vkapi.ErrInvalidHandle
	}
	d.descPools[p] = d.poolSize[p]
	return nil
}

// descriptor sets are owned by their pool and are not live objects.
func (d *Driver) AllocateDescriptorSet(dev vkapi.Device, p vkapi.DescriptorPool, l vkapi.DescriptorSetLayout) (vkapi.DescriptorSet, error) {
	if err := d.call("AllocateDescriptorSet"); err != nil {
		return 0, err
	}
	left, ok := d.descPools[p]
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	if left == 0 {
		return 0, vkapi.ErrorOutOfPoolMemory
	}
	d.descPools[p] = left - 1
	d.next++
	set := vkapi.DescriptorSet(d.next)
	d.DescriptorSets[set] = nil
	return set, nil
}

func (d *Driver) UpdateDescriptorSet(dev vkapi.Device, set vkapi.DescriptorSet, writes ...vkapi.ImageSamplerWrite) {
	d.call("UpdateDescriptorSet")
	if _, ok := d.DescriptorSets[set]; !ok {
		d.violate("update of unknown descriptor set %d", set)
	}
	for _, w := range writes {
		if _, ok := d.Views[w.View]; !ok {
			d.violate("descriptor write of unknown image view %d", w.View)
		}
	}
	d.DescriptorSets[set] = append(d.DescriptorSets[set], writes...)
}

func (d *Driver) CreateShaderModule(dev vkapi.Device, code []byte) (vkapi.ShaderModule, error) {
	if err := d.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 {
		return 0, vkapi.ErrorInvalidShader
	}
	m := vkapi.ShaderModule(d.handle())
	d.Shaders[m] = code
	return m, nil
}

func (d *Driver) DestroyShaderModule(dev vkapi.Device, m vkapi.ShaderModule) {
	d.call("DestroyShaderModule")
	delete(d.Shaders, m)
	d.release()
}

func (d *Driver) CreatePipelineLayout(dev vkapi.Device, info vkapi.PipelineLayoutInfo) (vkapi.PipelineLayout, error) {
	if err := d.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return vkapi.PipelineLayout(d.handle()), nil
}

func (d *Driver) DestroyPipelineLayout(dev vkapi.Device, l vkapi.PipelineLayout) {
	d.call("DestroyPipelineLayout")
	d.release()
}

func (d *Driver) CreateGraphicsPipeline(dev vkapi.Device, info vkapi.GraphicsPipelineInfo) (vkapi.Pipeline, error) {
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	if _, ok := d.Shaders[info.VertexShader]; !ok {
		d.violate("pipeline with unknown vertex shader %d", info.VertexShader)
	}
	if _, ok := d.Shaders[info.FragmentShader]; !ok {
		d.violate("pipeline with unknown fragment shader %d", info.FragmentShader)
	}
	pl := vkapi.Pipeline(d.handle())
	d.Pipelines[pl] = &Pipeline{Info: info}
	return pl, nil
}

func (d *Driver) DestroyPipeline(dev vkapi.Device, pl vkapi.Pipeline) {
	d.call("DestroyPipeline")
	delete(d.Pipelines, pl)
	d.release()
}
