// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"unsafe"

	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateCommandPool(dev vkapi.Device, family uint32, resettable bool) (vkapi.CommandPool, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	var flags vk.CommandPoolCreateFlagBits
	if resettable {
		flags = vk.CommandPoolCreateResetCommandBufferBit
	}
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(dv.dev, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}, nil, &pool)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.pools, pool), nil
}

func (d *Driver) DestroyCommandPool(dev vkapi.Device, pool vkapi.CommandPool) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vp, ok := take(d, d.pools, pool); ok {
		vk.DestroyCommandPool(dv.dev, vp, nil)
	}
}

func (d *Driver) AllocateCommandBuffers(dev vkapi.Device, pool vkapi.CommandPool, n int) ([]vkapi.CommandBuffer, error) {
	dv, err := d.device(dev)
	if err != nil {
		return nil, err
	}
	vp, ok := get(d, d.pools, pool)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	vcbs := make([]vk.CommandBuffer, n)
	ret := vk.AllocateCommandBuffers(dv.dev, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vp,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}, vcbs)
	if err := newError(ret); err != nil {
		return nil, err
	}
	cbs := make([]vkapi.CommandBuffer, n)
	for i, cb := range vcbs {
		cbs[i] = put(d, d.cmdBufs, cb)
	}
	return cbs, nil
}

func (d *Driver) FreeCommandBuffers(dev vkapi.Device, pool vkapi.CommandPool, cbs []vkapi.CommandBuffer) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	vp, ok := get(d, d.pools, pool)
	if !ok {
		return
	}
	var vcbs []vk.CommandBuffer
	for _, cb := range cbs {
		if vcb, ok := take(d, d.cmdBufs, cb); ok {
			vcbs = append(vcbs, vcb)
		}
	}
	if len(vcbs) > 0 {
		vk.FreeCommandBuffers(dv.dev, vp, uint32(len(vcbs)), vcbs)
	}
}

func (d *Driver) cmdBuf(cb vkapi.CommandBuffer) (vk.CommandBuffer, error) {
	vcb, ok := get(d, d.cmdBufs, cb)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	return vcb, nil
}

func (d *Driver) ResetCommandBuffer(cb vkapi.CommandBuffer) error {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return err
	}
	return newError(vk.ResetCommandBuffer(vcb, 0))
}

func (d *Driver) BeginCommandBuffer(cb vkapi.CommandBuffer) error {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return err
	}
	return newError(vk.BeginCommandBuffer(vcb, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

func (d *Driver) EndCommandBuffer(cb vkapi.CommandBuffer) error {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return err
	}
	return newError(vk.EndCommandBuffer(vcb))
}

// The Cmd methods record nothing for unknown handles; the
// validation layer reports misuse of live ones.

func (d *Driver) CmdPipelineBarrier(cb vkapi.CommandBuffer, src, dst vkapi.PipelineStages, barriers ...vkapi.ImageBarrier) {
	vcb, err := d.cmdBuf(cb)
	if err != nil || len(barriers) == 0 {
		return
	}
	vbs := make([]vk.ImageMemoryBarrier, 0, len(barriers))
	for _, b := range barriers {
		img, ok := get(d, d.images, b.Image)
		if !ok {
			continue
		}
		vbs = append(vbs, vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       access(b.SrcAccess),
			DstAccessMask:       access(b.DstAccess),
			OldLayout:           layouts[b.OldLayout],
			NewLayout:           layouts[b.NewLayout],
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.img,
			SubresourceRange:    colorSubresource,
		})
	}
	vk.CmdPipelineBarrier(vcb, stages(src), stages(dst), 0, 0, nil, 0, nil, uint32(len(vbs)), vbs)
}

func (d *Driver) CmdBeginRenderPass(cb vkapi.CommandBuffer, info vkapi.RenderPassBegin) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	rp, ok := get(d, d.renderPasses, info.RenderPass)
	fb, fok := get(d, d.framebuffers, info.Framebuffer)
	if !ok || !fok {
		return
	}
	begin := &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea:  rect2D(info.Area),
	}
	if info.ClearColor != nil {
		begin.ClearValueCount = 1
		begin.PClearValues = []vk.ClearValue{vk.NewClearValue(info.ClearColor[:])}
	}
	vk.CmdBeginRenderPass(vcb, begin, vk.SubpassContentsInline)
}

func rect2D(r vkapi.Rect) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: vk.Extent2D{Width: r.Width, Height: r.Height},
	}
}

func (d *Driver) CmdEndRenderPass(cb vkapi.CommandBuffer) {
	if vcb, err := d.cmdBuf(cb); err == nil {
		vk.CmdEndRenderPass(vcb)
	}
}

func (d *Driver) CmdBindPipeline(cb vkapi.CommandBuffer, pl vkapi.Pipeline) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	if vpl, ok := get(d, d.pipelines, pl); ok {
		vk.CmdBindPipeline(vcb, vk.PipelineBindPointGraphics, vpl)
	}
}

func (d *Driver) CmdBindVertexBuffer(cb vkapi.CommandBuffer, buf vkapi.Buffer, offset uint64) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	if b, ok := get(d, d.buffers, buf); ok {
		vk.CmdBindVertexBuffers(vcb, 0, 1, []vk.Buffer{b.buf}, []vk.DeviceSize{vk.DeviceSize(offset)})
	}
}

func (d *Driver) CmdBindDescriptorSet(cb vkapi.CommandBuffer, layout vkapi.PipelineLayout, set vkapi.DescriptorSet) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	vl, ok := get(d, d.layouts, layout)
	vs, sok := get(d, d.descSets, set)
	if !ok || !sok {
		return
	}
	vk.CmdBindDescriptorSets(vcb, vk.PipelineBindPointGraphics, vl, 0, 1, []vk.DescriptorSet{vs}, 0, nil)
}

func (d *Driver) CmdSetViewport(cb vkapi.CommandBuffer, vp vkapi.Viewport) {
	if vcb, err := d.cmdBuf(cb); err == nil {
		vk.CmdSetViewport(vcb, 0, 1, []vk.Viewport{{
			X:        vp.X,
			Y:        vp.Y,
			Width:    vp.Width,
			Height:   vp.Height,
			MinDepth: vp.MinDepth,
			MaxDepth: vp.MaxDepth,
		}})
	}
}

func (d *Driver) CmdSetScissor(cb vkapi.CommandBuffer, r vkapi.Rect) {
	if vcb, err := d.cmdBuf(cb); err == nil {
		vk.CmdSetScissor(vcb, 0, 1, []vk.Rect2D{rect2D(r)})
	}
}

func (d *Driver) CmdPushConstants(cb vkapi.CommandBuffer, layout vkapi.PipelineLayout, st vkapi.ShaderStages, offset uint32, data []byte) {
	vcb, err := d.cmdBuf(cb)
	if err != nil || len(data) == 0 {
		return
	}
	if vl, ok := get(d, d.layouts, layout); ok {
		vk.CmdPushConstants(vcb, vl, shaderStages(st), offset, uint32(len(data)), unsafe.Pointer(&data[0]))
	}
}

func (d *Driver) CmdDraw(cb vkapi.CommandBuffer, vertexCount, firstVertex uint32) {
	if vcb, err := d.cmdBuf(cb); err == nil {
		vk.CmdDraw(vcb, vertexCount, 1, firstVertex, 0)
	}
}

func bufferImageCopy(r vkapi.BufferImageCopy) []vk.BufferImageCopy {
	return []vk.BufferImageCopy{{
		BufferOffset:     vk.DeviceSize(r.BufferOffset),
		BufferRowLength:  r.RowLength,
		ImageSubresource: colorLayers,
		ImageOffset:      vk.Offset3D{X: r.X, Y: r.Y},
		ImageExtent:      vk.Extent3D{Width: r.Width, Height: r.Height, Depth: 1},
	}}
}

func (d *Driver) CmdCopyBufferToImage(cb vkapi.CommandBuffer, buf vkapi.Buffer, img vkapi.Image, region vkapi.BufferImageCopy) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	b, ok := get(d, d.buffers, buf)
	im, iok := get(d, d.images, img)
	if !ok || !iok {
		return
	}
	vk.CmdCopyBufferToImage(vcb, b.buf, im.img, vk.ImageLayoutTransferDstOptimal, 1, bufferImageCopy(region))
}

func (d *Driver) CmdCopyImageToBuffer(cb vkapi.CommandBuffer, img vkapi.Image, buf vkapi.Buffer, region vkapi.BufferImageCopy) {
	vcb, err := d.cmdBuf(cb)
	if err != nil {
		return
	}
	b, ok := get(d, d.buffers, buf)
	im, iok := get(d, d.images, img)
	if !ok || !iok {
		return
	}
	vk.CmdCopyImageToBuffer(vcb, im.img, vk.ImageLayoutTransferSrcOptimal, b.buf, 1, bufferImageCopy(region))
}
