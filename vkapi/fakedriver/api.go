// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakedriver

import (
	"cogentcore.org/vkrender/vkapi"
)

var _ vkapi.API = (*Driver)(nil)

////////  Loader

func (d *Driver) LoadGlobal() error { return d.call("LoadGlobal") }
func (d *Driver) LoadInstance(inst vkapi.Instance) error { return d.call("LoadInstance") }
func (d *Driver) LoadDevice(dev vkapi.Device) error { return d.call("LoadDevice") }

////////  Instance

func (d *Driver) InstanceLayers() ([]string, error) {
	if err := d.call("InstanceLayers"); err != nil {
		return nil, err
	}
	return d.Layers, nil
}

func (d *Driver) CreateInstance(info vkapi.InstanceInfo) (vkapi.Instance, error) {
	if err := d.call("CreateInstance"); err != nil {
		return 0, err
	}
	d.InstanceInfo = info
	return vkapi.Instance(d.handle()), nil
}

func (d *Driver) DestroyInstance(inst vkapi.Instance) {
	d.call("DestroyInstance")
	d.release()
}

func (d *Driver) CreateSurface(inst vkapi.Instance, win vkapi.Window) (vkapi.Surface, error) {
	if err := d.call("CreateSurface"); err != nil {
		return 0, err
	}
	if inst == 0 {
		return 0, vkapi.ErrInvalidHandle
	}
	return vkapi.Surface(d.handle()), nil
}

func (d *Driver) DestroySurface(inst vkapi.Instance, sf vkapi.Surface) {
	d.call("DestroySurface")
	d.release()
}

// physical device handles are 1-based indexes into Devices,
// and are not counted as live objects.
func (d *Driver) device(pd vkapi.PhysicalDevice) *PhysicalDevice {
	i := int(pd) - 1
	if i < 0 || i >= len(d.Devices) {
		return &PhysicalDevice{}
	}
	return &d.Devices[i]
}

func (d *Driver) PhysicalDevices(inst vkapi.Instance) ([]vkapi.PhysicalDevice, error) {
	if err := d.call("PhysicalDevices"); err != nil {
		return nil, err
	}
	pds := make([]vkapi.PhysicalDevice, len(d.Devices))
	for i := range pds {
		pds[i] = vkapi.PhysicalDevice(i + 1)
	}
	return pds, nil
}

func (d *Driver) PhysicalDeviceProperties(pd vkapi.PhysicalDevice) vkapi.PhysicalDeviceProperties {
	d.call("PhysicalDeviceProperties")
	return d.device(pd).Props
}

func (d *Driver) QueueFamilies(pd vkapi.PhysicalDevice) []vkapi.QueueFamily {
	d.call("QueueFamilies")
	return d.device(pd).Families
}

func (d *Driver) SurfaceSupport(pd vkapi.PhysicalDevice, family uint32, sf vkapi.Surface) (bool, error) {
	if err := d.call("SurfaceSupport"); err != nil {
		return false, err
	}
	pr := d.device(pd).Present
	return int(family) < len(pr) && pr[family], nil
}

func (d *Driver) DeviceExtensions(pd vkapi.PhysicalDevice) ([]string, error) {
	if err := d.call("DeviceExtensions"); err != nil {
		return nil, err
	}
	return d.device(pd).Extensions, nil
}

func (d *Driver) SurfaceCapabilities(pd vkapi.PhysicalDevice, sf vkapi.Surface) (vkapi.SurfaceCapabilities, error) {
	if err := d.call("SurfaceCapabilities"); err != nil {
		return vkapi.SurfaceCapabilities{}, err
	}
	return d.Capabilities, nil
}

func (d *Driver) SurfaceFormats(pd vkapi.PhysicalDevice, sf vkapi.Surface) ([]vkapi.SurfaceFormat, error) {
	if err := d.call("SurfaceFormats"); err != nil {
		return nil, err
	}
	return d.Formats, nil
}

func (d *Driver) PresentModes(pd vkapi.PhysicalDevice, sf vkapi.Surface) ([]vkapi.PresentMode, error) {
	if err := d.call("PresentModes"); err != nil {
		return nil, err
	}
	return d.Modes, nil
}

////////  Device

func (d *Driver) CreateDevice(pd vkapi.PhysicalDevice, info vkapi.DeviceInfo) (vkapi.Device, error) {
	if err := d.call("CreateDevice"); err != nil {
		return 0, err
	}
	d.DeviceInfo = info
	return vkapi.Device(d.handle()), nil
}

func (d *Driver) DestroyDevice(dev vkapi.Device) {
	d.call("DestroyDevice")
	d.release()
}

func (d *Driver) DeviceWaitIdle(dev vkapi.Device) error {
	return d.call("DeviceWaitIdle")
}

// queues are derived from the family and index, and are not live objects.
func (d *Driver) Queue(dev vkapi.Device, family, index uint32) vkapi.Queue {
	d.call("Queue")
	return vkapi.Queue(1000 + family*16 + index)
}

func (d *Driver) QueueWaitIdle(q vkapi.Queue) error {
	return d.call("QueueWaitIdle")
}

func (d *Driver) CreateSemaphore(dev vkapi.Device) (vkapi.Semaphore, error) {
	if err := d.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	return vkapi.Semaphore(d.handle()), nil
}

func (d *Driver) DestroySemaphore(dev vkapi.Device, s vkapi.Semaphore) {
	d.call("DestroySemaphore")
	d.release()
}

func (d *Driver) CreateFence(dev vkapi.Device, signaled bool) (vkapi.Fence, error) {
	if err := d.call("CreateFence"); err != nil {
		return 0, err
	}
	f := vkapi.Fence(d.handle())
	d.Fences[f] = signaled
	return f, nil
}

func (d *Driver) DestroyFence(dev vkapi.Device, f vkapi.Fence) {
	d.call("DestroyFence")
	delete(d.Fences, f)
	d.release()
}

// WaitForFence returns [vkapi.Timeout] for a fence that is not signaled,
// since no pending work could ever signal it.
func (d *Driver) WaitForFence(dev vkapi.Device, f vkapi.Fence, timeout uint64) error {
	if err := d.call("WaitForFence"); err != nil {
		return err
	}
	sig, ok := d.Fences[f]
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	if !sig {
		d.violate("wait on unsignaled fence %d would never return", f)
		return vkapi.Timeout
	}
	return nil
}

func (d *Driver) ResetFence(dev vkapi.Device, f vkapi.Fence) error {
	if err := d.call("ResetFence"); err != nil {
		return err
	}
	if _, ok := d.Fences[f]; !ok {
		return vkapi.ErrInvalidHandle
	}
	d.Fences[f] = false
	return nil
}

func (d *Driver) QueueSubmit(q vkapi.Queue, info vkapi.SubmitInfo, f vkapi.Fence) error {
	if err := d.call("QueueSubmit"); err != nil {
		return err
	}
	for _, h := range info.CommandBuffers {
		cb := d.CommandBuffers[h]
		if cb == nil {
			return vkapi.ErrInvalidHandle
		}
		if cb.Recording {
			d.violate("submit of command buffer %d that is still recording", h)
		}
		cb.Pending = true
		for img, l := range cb.layouts {
			d.layouts[img] = l
		}
	}
	if f != 0 {
		if d.Fences[f] {
			d.violate("submit with fence %d that is already signaled", f)
		}
		d.Fences[f] = true
	}
	d.Submits = append(d.Submits, Submit{Queue: q, SubmitInfo: info, Fence: f})
	return nil
}

func (d *Driver) QueuePresent(q vkapi.Queue, info vkapi.PresentInfo) error {
	if err := d.call("QueuePresent"); err != nil {
		return err
	}
	if st := d.Swapchains[info.Swapchain]; st != nil && int(info.ImageIndex) < len(st.Images) {
		if img := st.Images[info.ImageIndex]; d.layouts[img] != vkapi.LayoutPresentSrc {
			d.violate("present of image %d in %v", img, d.layouts[img])
		}
	}
	d.Presents = append(d.Presents, info)
	return nil
}

////////  Swapchain

func (d *Driver) CreateSwapchain(dev vkapi.Device, info vkapi.SwapchainInfo) (vkapi.Swapchain, error) {
	if err := d.call("CreateSwapchain"); err != nil {
		return 0, err
	}
	if info.Old != 0 {
		if old := d.Swapchains[info.Old]; old == nil || old.Destroyed {
			d.violate("old swapchain %d destroyed before its replacement was created", info.Old)
		}
	}
	sc := vkapi.Swapchain(d.handle())
	st := &Swapchain{Info: info}
	for range info.MinImageCount {
		img := vkapi.Image(d.handle())
		d.release() // owned by the swapchain
		d.Images[img] = &Image{Info: vkapi.ImageInfo{Width: info.Extent.Width, Height: info.Extent.Height, Format: info.Format.Format}, Swapchain: sc}
		st.Images = append(st.Images, img)
	}
	d.Swapchains[sc] = st
	return sc, nil
}

func (d *Driver) DestroySwapchain(dev vkapi.Device, sc vkapi.Swapchain) {
	d.call("DestroySwapchain")
	if st := d.Swapchains[sc]; st != nil {
		st.Destroyed = true
	}
	d.release()
}

func (d *Driver) SwapchainImages(dev vkapi.Device, sc vkapi.Swapchain) ([]vkapi.Image, error) {
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	st := d.Swapchains[sc]
	if st == nil {
		return nil, vkapi.ErrInvalidHandle
	}
	return st.Images, nil
}

func (d *Driver) AcquireNextImage(dev vkapi.Device, sc vkapi.Swapchain, timeout uint64, s vkapi.Semaphore) (uint32, error) {
	if err := d.call("AcquireNextImage"); err != nil {
		return 0, err
	}
	st := d.Swapchains[sc]
	if st == nil || st.Destroyed {
		return 0, vkapi.ErrInvalidHandle
	}
	idx := st.Next
	st.Next = (st.Next + 1) % uint32(len(st.Images))
	return idx, nil
}

func (d *Driver) CreateImageView(dev vkapi.Device, info vkapi.ImageViewInfo) (vkapi.ImageView, error) {
	if err := d.call("CreateImageView"); err != nil {
		return 0, err
	}
	v := vkapi.ImageView(d.handle())
	d.Views[v] = info
	return v, nil
}

func (d *Driver) DestroyImageView(dev vkapi.Device, v vkapi.ImageView) {
	d.call("DestroyImageView")
	delete(d.Views, v)
	d.release()
}

func (d *Driver) CreateRenderPass(dev vkapi.Device, info vkapi.RenderPassInfo) (vkapi.RenderPass, error) {
	if err := d.call("CreateRenderPass"); err != nil {
		return 0, err
	}
	rp := vkapi.RenderPass(d.handle())
	d.RenderPasses[rp] = info
	return rp, nil
}

func (d *Driver) DestroyRenderPass(dev vkapi.Device, rp vkapi.RenderPass) {
	d.call("DestroyRenderPass")
	delete(d.RenderPasses, rp)
	d.release()
}

func (d *Driver) CreateFramebuffer(dev vkapi.Device, info vkapi.FramebufferInfo) (vkapi.Framebuffer, error) {
	if err := d.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	fb := vkapi.Framebuffer(d.handle())
	d.Framebuffers[fb] = info
	return fb, nil
}

func (d *Driver) DestroyFramebuffer(dev vkapi.Device, fb vkapi.Framebuffer) {
	d.call("DestroyFramebuffer")
	delete(d.Framebuffers, fb)
	d.release()
}
