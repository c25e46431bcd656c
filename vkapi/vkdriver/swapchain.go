// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateSwapchain(dev vkapi.Device, info vkapi.SwapchainInfo) (vkapi.Swapchain, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	vs, ok := get(d, d.surfaces, info.Surface)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	old := vk.NullSwapchain
	if info.Old != 0 {
		osc, ok := get(d, d.swapchains, info.Old)
		if !ok {
			return 0, vkapi.ErrInvalidHandle
		}
		old = osc.sc
	}
	var sc vk.Swapchain
	ret := vk.CreateSwapchain(dv.dev, &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         vs,
		MinImageCount:   info.MinImageCount,
		ImageFormat:     formats[info.Format.Format],
		ImageColorSpace: colorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers: 1,
		// TransferSrc for ReadPixels
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.Transform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentModes[info.PresentMode],
		Clipped:          vk.True,
		OldSwapchain:     old,
	}, nil, &sc)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.swapchains, &swapchain{sc: sc}), nil
}

func (d *Driver) DestroySwapchain(dev vkapi.Device, sch vkapi.Swapchain) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	sc, ok := take(d, d.swapchains, sch)
	if !ok {
		return
	}
	d.mu.Lock()
	for _, img := range sc.images {
		delete(d.images, img)
	}
	d.mu.Unlock()
	vk.DestroySwapchain(dv.dev, sc.sc, nil)
}

// SwapchainImages returns the same handles on every call.
// They stay valid until the swapchain is destroyed.
func (d *Driver) SwapchainImages(dev vkapi.Device, sch vkapi.Swapchain) ([]vkapi.Image, error) {
	dv, err := d.device(dev)
	if err != nil {
		return nil, err
	}
	sc, ok := get(d, d.swapchains, sch)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	d.mu.Lock()
	if sc.images != nil {
		imgs := sc.images
		d.mu.Unlock()
		return imgs, nil
	}
	d.mu.Unlock()

	var count uint32
	if err := newError(vk.GetSwapchainImages(dv.dev, sc.sc, &count, nil)); err != nil {
		return nil, err
	}
	vimgs := make([]vk.Image, count)
	if err := newError(vk.GetSwapchainImages(dv.dev, sc.sc, &count, vimgs)); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	imgs := make([]vkapi.Image, count)
	for i, vi := range vimgs[:count] {
		imgs[i] = vkapi.Image(d.issue())
		d.images[imgs[i]] = &image{img: vi, mem: vk.NullDeviceMemory}
	}
	sc.images = imgs
	return imgs, nil
}

// AcquireNextImage returns the image index together with a
// [vkapi.Suboptimal] error when the swapchain still works but
// no longer matches the surface.
func (d *Driver) AcquireNextImage(dev vkapi.Device, sch vkapi.Swapchain, timeout uint64, s vkapi.Semaphore) (uint32, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	sc, ok := get(d, d.swapchains, sch)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	vs, ok := get(d, d.semaphores, s)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	var idx uint32
	ret := vk.AcquireNextImage(dv.dev, sc.sc, timeout, vs, vk.NullFence, &idx)
	return idx, newError(ret)
}

func (d *Driver) CreateImageView(dev vkapi.Device, info vkapi.ImageViewInfo) (vkapi.ImageView, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	img, ok := get(d, d.images, info.Image)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	var view vk.ImageView
	ret := vk.CreateImageView(dv.dev, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.img,
		ViewType: vk.ImageViewType2d,
		Format:   formats[info.Format],
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresource,
	}, nil, &view)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.views, view), nil
}

func (d *Driver) DestroyImageView(dev vkapi.Device, v vkapi.ImageView) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vv, ok := take(d, d.views, v); ok {
		vk.DestroyImageView(dv.dev, vv, nil)
	}
}

func (d *Driver) CreateRenderPass(dev vkapi.Device, info vkapi.RenderPassInfo) (vkapi.RenderPass, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	attachments := []vk.AttachmentDescription{{
		Format:         formats[info.Format],
		Samples:        vk.SampleCount1Bit,
		LoadOp:         loadOps[info.LoadOp],
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}}
	refs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    refs,
	}}
	deps := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}
	var rp vk.RenderPass
	ret := vk.CreateRenderPass(dv.dev, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(deps)),
		PDependencies:   deps,
	}, nil, &rp)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.renderPasses, rp), nil
}

func (d *Driver) DestroyRenderPass(dev vkapi.Device, rp vkapi.RenderPass) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vrp, ok := take(d, d.renderPasses, rp); ok {
		vk.DestroyRenderPass(dv.dev, vrp, nil)
	}
}

func (d *Driver) CreateFramebuffer(dev vkapi.Device, info vkapi.FramebufferInfo) (vkapi.Framebuffer, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	rp, ok := get(d, d.renderPasses, info.RenderPass)
	view, vok := get(d, d.views, info.View)
	if !ok || !vok {
		return 0, vkapi.ErrInvalidHandle
	}
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(dv.dev, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           info.Width,
		Height:          info.Height,
		Layers:          1,
	}, nil, &fb)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.framebuffers, fb), nil
}

func (d *Driver) DestroyFramebuffer(dev vkapi.Device, fb vkapi.Framebuffer) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vfb, ok := take(d, d.framebuffers, fb); ok {
		vk.DestroyFramebuffer(dv.dev, vfb, nil)
	}
}
