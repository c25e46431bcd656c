// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakedriver

import (
	"slices"

	"cogentcore.org/vkrender/vkapi"
)

func (d *Driver) CreateCommandPool(dev vkapi.Device, family uint32, resettable bool) (vkapi.CommandPool, error) {
	if err := d.call("CreateCommandPool"); err != nil {
		return 0, err
	}
	if !resettable {
		d.violate("command pool without individual reset")
	}
	return vkapi.CommandPool(d.handle()), nil
}

func (d *Driver) DestroyCommandPool(dev vkapi.Device, pool vkapi.CommandPool) {
	d.call("DestroyCommandPool")
	d.release()
}

func (d *Driver) AllocateCommandBuffers(dev vkapi.Device, pool vkapi.CommandPool, n int) ([]vkapi.CommandBuffer, error) {
	if err := d.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	cbs := make([]vkapi.CommandBuffer, n)
	for i := range cbs {
		cbs[i] = vkapi.CommandBuffer(d.handle())
		d.CommandBuffers[cbs[i]] = &CommandBuffer{}
	}
	return cbs, nil
}

func (d *Driver) FreeCommandBuffers(dev vkapi.Device, pool vkapi.CommandPool, cbs []vkapi.CommandBuffer) {
	d.call("FreeCommandBuffers")
	for _, cb := range cbs {
		delete(d.CommandBuffers, cb)
		d.release()
	}
}

func (d *Driver) ResetCommandBuffer(h vkapi.CommandBuffer) error {
	if err := d.call("ResetCommandBuffer"); err != nil {
		return err
	}
	cb := d.CommandBuffers[h]
	if cb == nil {
		return vkapi.ErrInvalidHandle
	}
	cb.Recording = false
	cb.InPass = false
	cb.Pending = false
	cb.Recorded = nil
	cb.layouts = nil
	cb.Generation++
	return nil
}

func (d *Driver) BeginCommandBuffer(h vkapi.CommandBuffer) error {
	if err := d.call("BeginCommandBuffer"); err != nil {
		return err
	}
	cb := d.CommandBuffers[h]
	if cb == nil {
		return vkapi.ErrInvalidHandle
	}
	if cb.Recording {
		d.violate("begin of command buffer %d that is already recording", h)
	}
	if cb.Pending {
		d.violate("begin of command buffer %d that was submitted and not reset", h)
	}
	cb.Recording = true
	cb.Begins++
	return nil
}

func (d *Driver) EndCommandBuffer(h vkapi.CommandBuffer) error {
	if err := d.call("EndCommandBuffer"); err != nil {
		return err
	}
	cb := d.recording(h, "EndCommandBuffer")
	if cb == nil {
		return vkapi.ErrInvalidHandle
	}
	if cb.InPass {
		d.violate("end of command buffer %d inside a render pass", h)
	}
	cb.Recording = false
	return nil
}

// recording returns the command buffer, recording a violation
// if it is not in the recording state.
func (d *Driver) recording(h vkapi.CommandBuffer, op string) *CommandBuffer {
	cb := d.CommandBuffers[h]
	if cb == nil {
		d.violate("%s on unknown command buffer %d", op, h)
		return nil
	}
	if !cb.Recording {
		d.violate("%s on command buffer %d that is not recording", op, h)
	}
	cb.Recorded = append(cb.Recorded, op)
	return cb
}

func (d *Driver) CmdPipelineBarrier(h vkapi.CommandBuffer, src, dst vkapi.PipelineStages, barriers ...vkapi.ImageBarrier) {
	d.call("CmdPipelineBarrier")
	cb := d.recording(h, "CmdPipelineBarrier")
	if cb != nil && cb.InPass {
		d.violate("image barrier inside a render pass on command buffer %d", h)
	}
	for _, b := range barriers {
		if cb != nil {
			if cur := d.layoutIn(cb, b.Image); b.OldLayout != vkapi.LayoutUndefined && b.OldLayout != cur {
				d.violate("barrier on image %d from %v, which is in %v", b.Image, b.OldLayout, cur)
			}
			if cb.layouts == nil {
				cb.layouts = map[vkapi.Image]vkapi.ImageLayout{}
			}
			cb.layouts[b.Image] = b.NewLayout
		}
		d.Barriers = append(d.Barriers, Barrier{CommandBuffer: h, Src: src, Dst: dst, ImageBarrier: b})
	}
}

func (d *Driver) CmdBeginRenderPass(h vkapi.CommandBuffer, info vkapi.RenderPassBegin) {
	d.call("CmdBeginRenderPass")
	cb := d.recording(h, "CmdBeginRenderPass")
	if cb == nil {
		return
	}
	if cb.InPass {
		d.violate("render pass begun on command buffer %d while another is open", h)
	}
	rp, ok := d.RenderPasses[info.RenderPass]
	if !ok {
		d.violate("begin of unknown render pass %d", info.RenderPass)
	}
	if rp.LoadOp == vkapi.LoadOpClear && info.ClearColor == nil {
		d.violate("clear render pass begun without a clear color")
	}
	if fb, ok := d.Framebuffers[info.Framebuffer]; !ok {
		d.violate("begin of render pass with unknown framebuffer %d", info.Framebuffer)
	} else if img := d.Views[fb.View].Image; d.layoutIn(cb, img) != vkapi.LayoutColorAttachment {
		d.violate("render pass begun on image %d in %v", img, d.layoutIn(cb, img))
	}
	cb.InPass = true
	cb.Pass = info.RenderPass
	d.PassBegins = append(d.PassBegins, PassBegin{CommandBuffer: h, RenderPassBegin: info, LoadOp: rp.LoadOp})
}

func (d *Driver) CmdEndRenderPass(h vkapi.CommandBuffer) {
	d.call("CmdEndRenderPass")
	cb := d.recording(h, "CmdEndRenderPass")
	if cb == nil {
		return
	}
	if !cb.InPass {
		d.violate("end of render pass on command buffer %d with no open pass", h)
	}
	cb.InPass = false
	cb.Pass = 0
}

func (d *Driver) CmdBindPipeline(h vkapi.CommandBuffer, pl vkapi.Pipeline) {
	d.call("CmdBindPipeline")
	d.recording(h, "CmdBindPipeline")
	if _, ok := d.Pipelines[pl]; !ok {
		d.violate("bind of unknown pipeline %d", pl)
	}
	d.boundPipe[h] = pl
}

func (d *Driver) CmdBindVertexBuffer(h vkapi.CommandBuffer, buf vkapi.Buffer, offset uint64) {
	d.call("CmdBindVertexBuffer")
	d.recording(h, "CmdBindVertexBuffer")
	d.boundVB[h] = buf
	d.boundOff[h] = offset
}

func (d *Driver) CmdBindDescriptorSet(h vkapi.CommandBuffer, layout vkapi.PipelineLayout, set vkapi.DescriptorSet) {
	d.call("CmdBindDescriptorSet")
	d.recording(h, "CmdBindDescriptorSet")
	if _, ok := d.DescriptorSets[set]; !ok {
		d.violate("bind of unknown descriptor set %d", set)
	}
}

func (d *Driver) CmdSetViewport(h vkapi.CommandBuffer, vp vkapi.Viewport) {
	d.call("CmdSetViewport")
	d.recording(h, "CmdSetViewport")
	d.Viewports = append(d.Viewports, vp)
}

func (d *Driver) CmdSetScissor(h vkapi.CommandBuffer, r vkapi.Rect) {
	d.call("CmdSetScissor")
	d.recording(h, "CmdSetScissor")
	d.Scissors = append(d.Scissors, r)
}

func (d *Driver) CmdPushConstants(h vkapi.CommandBuffer, layout vkapi.PipelineLayout, stages vkapi.ShaderStages, offset uint32, data []byte) {
	d.call("CmdPushConstants")
	d.recording(h, "CmdPushConstants")
	d.Pushes = append(d.Pushes, slices.Clone(data))
}

func (d *Driver) CmdDraw(h vkapi.CommandBuffer, vertexCount, firstVertex uint32) {
	d.call("CmdDraw")
	cb := d.recording(h, "CmdDraw")
	if cb != nil && !cb.InPass {
		d.violate("draw outside a render pass on command buffer %d", h)
	}
	if d.boundPipe[h] == 0 {
		d.violate("draw with no pipeline bound on command buffer %d", h)
	}
	d.Draws = append(d.Draws, Draw{CommandBuffer: h, Pipeline: d.boundPipe[h], VertexBuffer: d.boundVB[h],
		VertexOffset: d.boundOff[h], VertexCount: vertexCount, FirstVertex: firstVertex})
}

func (d *Driver) CmdCopyBufferToImage(h vkapi.CommandBuffer, buf vkapi.Buffer, img vkapi.Image, region vkapi.BufferImageCopy) {
	d.call("CmdCopyBufferToImage")
	cb := d.recording(h, "CmdCopyBufferToImage")
	if cb != nil && cb.InPass {
		d.violate("copy inside a render pass on command buffer %d", h)
	}
	d.Copies = append(d.Copies, Copy{CommandBuffer: h, Buffer: buf, Image: img, ToImage: true, Region: region})
}

func (d *Driver) CmdCopyImageToBuffer(h vkapi.CommandBuffer, img vkapi.Image, buf vkapi.Buffer, region vkapi.BufferImageCopy) {
	d.call("CmdCopyImageToBuffer")
	cb := d.recording(h, "CmdCopyImageToBuffer")
	if cb != nil && cb.InPass {
		d.violate("copy inside a render pass on command buffer %d", h)
	}
	d.Copies = append(d.Copies, Copy{CommandBuffer: h, Buffer: buf, Image: img, Region: region})
}
