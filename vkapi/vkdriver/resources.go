// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"unsafe"

	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateBuffer(dev vkapi.Device, info vkapi.BufferInfo) (vkapi.Buffer, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	var buf vk.Buffer
	ret := vk.CreateBuffer(dv.dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       bufferUsage(info.Usage),
		Size:        vk.DeviceSize(info.Size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buf)
	if err := newError(ret); err != nil {
		return 0, err
	}
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dv.dev, buf, &reqs)
	mem, err := dv.allocate(reqs, info.HostVisible)
	if err != nil {
		vk.DestroyBuffer(dv.dev, buf, nil)
		return 0, err
	}
	if err := newError(vk.BindBufferMemory(dv.dev, buf, mem, 0)); err != nil {
		vk.FreeMemory(dv.dev, mem, nil)
		vk.DestroyBuffer(dv.dev, buf, nil)
		return 0, err
	}
	return put(d, d.buffers, &buffer{buf: buf, mem: mem, size: info.Size}), nil
}

func (d *Driver) DestroyBuffer(dev vkapi.Device, bh vkapi.Buffer) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	b, ok := take(d, d.buffers, bh)
	if !ok {
		return
	}
	if b.mapped {
		vk.UnmapMemory(dv.dev, b.mem)
	}
	vk.DestroyBuffer(dv.dev, b.buf, nil)
	vk.FreeMemory(dv.dev, b.mem, nil)
}

// MapBuffer maps the whole buffer. The memory is host coherent,
// so writes need no flush.
func (d *Driver) MapBuffer(dev vkapi.Device, bh vkapi.Buffer) ([]byte, error) {
	dv, err := d.device(dev)
	if err != nil {
		return nil, err
	}
	b, ok := get(d, d.buffers, bh)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	var ptr unsafe.Pointer
	if err := newError(vk.MapMemory(dv.dev, b.mem, 0, vk.DeviceSize(b.size), 0, &ptr)); err != nil {
		return nil, err
	}
	d.mu.Lock()
	b.mapped = true
	d.mu.Unlock()
	return unsafe.Slice((*byte)(ptr), b.size), nil
}

func (d *Driver) UnmapBuffer(dev vkapi.Device, bh vkapi.Buffer) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	b, ok := get(d, d.buffers, bh)
	if !ok {
		return
	}
	d.mu.Lock()
	mapped := b.mapped
	b.mapped = false
	d.mu.Unlock()
	if mapped {
		vk.UnmapMemory(dv.dev, b.mem)
	}
}

func (d *Driver) CreateImage(dev vkapi.Device, info vkapi.ImageInfo) (vkapi.Image, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	var img vk.Image
	ret := vk.CreateImage(dv.dev, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    formats[info.Format],
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         imageUsage(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img)
	if err := newError(ret); err != nil {
		return 0, err
	}
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dv.dev, img, &reqs)
	mem, err := dv.allocate(reqs, false)
	if err != nil {
		vk.DestroyImage(dv.dev, img, nil)
		return 0, err
	}
	if err := newError(vk.BindImageMemory(dv.dev, img, mem, 0)); err != nil {
		vk.FreeMemory(dv.dev, mem, nil)
		vk.DestroyImage(dv.dev, img, nil)
		return 0, err
	}
	return put(d, d.images, &image{img: img, mem: mem}), nil
}

// DestroyImage destroys an image created with CreateImage.
// Swapchain images are owned by their swapchain.
func (d *Driver) DestroyImage(dev vkapi.Device, ih vkapi.Image) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	d.mu.Lock()
	im, ok := d.images[ih]
	if ok && im.mem != vk.NullDeviceMemory {
		delete(d.images, ih)
	}
	d.mu.Unlock()
	if !ok || im.mem == vk.NullDeviceMemory {
		return
	}
	vk.DestroyImage(dv.dev, im.img, nil)
	vk.FreeMemory(dv.dev, im.mem, nil)
}

func (d *Driver) CreateSampler(dev vkapi.Device, info vkapi.SamplerInfo) (vkapi.Sampler, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	filter := filters[info.Filter]
	var s vk.Sampler
	ret := vk.CreateSampler(dv.dev, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter,
		MinFilter:               filter,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &s)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.samplers, s), nil
}

func (d *Driver) DestroySampler(dev vkapi.Device, s vkapi.Sampler) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vs, ok := take(d, d.samplers, s); ok {
		vk.DestroySampler(dv.dev, vs, nil)
	}
}

// CreateDescriptorSetLayout makes a layout with combined image
// samplers at bindings 0 through samplers-1, used by fragment shaders.
func (d *Driver) CreateDescriptorSetLayout(dev vkapi.Device, samplers uint32) (vkapi.DescriptorSetLayout, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	binds := make([]vk.DescriptorSetLayoutBinding, samplers)
	for i := range binds {
		binds[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
	}
	var l vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(dv.dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: samplers,
		PBindings:    binds,
	}, nil, &l)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.setLayouts, l), nil
}

func (d *Driver) DestroyDescriptorSetLayout(dev vkapi.Device, l vkapi.DescriptorSetLayout) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vl, ok := take(d, d.setLayouts, l); ok {
		vk.DestroyDescriptorSetLayout(dv.dev, vl, nil)
	}
}

func (d *Driver) CreateDescriptorPool(dev vkapi.Device, maxSets, maxSamplers uint32) (vkapi.DescriptorPool, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	var p vk.DescriptorPool
	ret := vk.CreateDescriptorPool(dv.dev, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxSamplers,
		}},
	}, nil, &p)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.descPools, &descriptorPool{pool: p}), nil
}

func (d *Driver) forgetSets(dp *descriptorPool) {
	d.mu.Lock()
	for _, s := range dp.sets {
		delete(d.descSets, s)
	}
	dp.sets = nil
	d.mu.Unlock()
}

func (d *Driver) DestroyDescriptorPool(dev vkapi.Device, p vkapi.DescriptorPool) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if dp, ok := take(d, d.descPools, p); ok {
		d.forgetSets(dp)
		vk.DestroyDescriptorPool(dv.dev, dp.pool, nil)
	}
}

// ResetDescriptorPool frees all sets allocated from the pool;
// their handles become invalid.
func (d *Driver) ResetDescriptorPool(dev vkapi.Device, p vkapi.DescriptorPool) error {
	dv, err := d.device(dev)
	if err != nil {
		return err
	}
	dp, ok := get(d, d.descPools, p)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	d.forgetSets(dp)
	return newError(vk.ResetDescriptorPool(dv.dev, dp.pool, 0))
}

func (d *Driver) AllocateDescriptorSet(dev vkapi.Device, p vkapi.DescriptorPool, l vkapi.DescriptorSetLayout) (vkapi.DescriptorSet, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	dp, ok := get(d, d.descPools, p)
	vl, lok := get(d, d.setLayouts, l)
	if !ok || !lok {
		return 0, vkapi.ErrInvalidHandle
	}
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(dv.dev, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dp.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{vl},
	}, &set)
	if err := newError(ret); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := vkapi.DescriptorSet(d.issue())
	d.descSets[h] = set
	dp.sets = append(dp.sets, h)
	return h, nil
}

func (d *Driver) UpdateDescriptorSet(dev vkapi.Device, set vkapi.DescriptorSet, writes ...vkapi.ImageSamplerWrite) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	vs, ok := get(d, d.descSets, set)
	if !ok {
		return
	}
	vws := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		view, vok := get(d, d.views, w.View)
		smp, sok := get(d, d.samplers, w.Sampler)
		if !vok || !sok {
			continue
		}
		vws = append(vws, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          vs,
			DstBinding:      w.Binding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     smp,
				ImageView:   view,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		})
	}
	if len(vws) > 0 {
		vk.UpdateDescriptorSets(dv.dev, uint32(len(vws)), vws, 0, nil)
	}
}
