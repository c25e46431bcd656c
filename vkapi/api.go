// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vkapi defines the set of Vulkan operations used by the
// renderer as a method table. Each renderer holds its own [API]
// value, resolved once during bootstrap, so that several renderers
// can coexist and tests can substitute a fake implementation.
//
// Handles are opaque values issued by the implementation; the
// zero handle is always null. Non-success results are returned
// as [Result] errors.
package vkapi

// Window is the windowing system side of a presentation surface.
// Implementations must also be accepted by the CreateSurface
// method of the [API] they are used with.
type Window interface {
	// FramebufferSize returns the size of the drawable area in pixels.
	FramebufferSize() (width, height int)

	// InstanceExtensions returns the instance extensions required
	// to create a surface for the window.
	InstanceExtensions() []string
}

// Loader resolves API entry points. Each stage must
// fail if any required entry point is missing.
type Loader interface {
	// LoadGlobal resolves the global entry points.
	LoadGlobal() error

	// LoadInstance resolves the entry points of the instance.
	LoadInstance(inst Instance) error

	// LoadDevice resolves the entry points of the device.
	LoadDevice(dev Device) error
}

// InstanceAPI is instance, surface and physical device level.
type InstanceAPI interface {
	InstanceLayers() ([]string, error)
	CreateInstance(info InstanceInfo) (Instance, error)
	DestroyInstance(inst Instance)

	CreateSurface(inst Instance, win Window) (Surface, error)
	DestroySurface(inst Instance, sf Surface)

	PhysicalDevices(inst Instance) ([]PhysicalDevice, error)
	PhysicalDeviceProperties(pd PhysicalDevice) PhysicalDeviceProperties
	QueueFamilies(pd PhysicalDevice) []QueueFamily
	SurfaceSupport(pd PhysicalDevice, family uint32, sf Surface) (bool, error)
	DeviceExtensions(pd PhysicalDevice) ([]string, error)

	SurfaceCapabilities(pd PhysicalDevice, sf Surface) (SurfaceCapabilities, error)
	SurfaceFormats(pd PhysicalDevice, sf Surface) ([]SurfaceFormat, error)
	PresentModes(pd PhysicalDevice, sf Surface) ([]PresentMode, error)
}

// DeviceAPI is logical device, queue and synchronization level.
type DeviceAPI interface {
	CreateDevice(pd PhysicalDevice, info DeviceInfo) (Device, error)
	DestroyDevice(dev Device)
	DeviceWaitIdle(dev Device) error
	Queue(dev Device, family, index uint32) Queue
	QueueWaitIdle(q Queue) error

	CreateSemaphore(dev Device) (Semaphore, error)
	DestroySemaphore(dev Device, s Semaphore)
	CreateFence(dev Device, signaled bool) (Fence, error)
	DestroyFence(dev Device, f Fence)
	WaitForFence(dev Device, f Fence, timeout uint64) error
	ResetFence(dev Device, f Fence) error

	QueueSubmit(q Queue, info SubmitInfo, f Fence) error
	QueuePresent(q Queue, info PresentInfo) error
}

// SwapchainAPI is swapchain and render target level.
type SwapchainAPI interface {
	CreateSwapchain(dev Device, info SwapchainInfo) (Swapchain, error)
	DestroySwapchain(dev Device, sc Swapchain)
	SwapchainImages(dev Device, sc Swapchain) ([]Image, error)
	AcquireNextImage(dev Device, sc Swapchain, timeout uint64, s Semaphore) (uint32, error)

	CreateImageView(dev Device, info ImageViewInfo) (ImageView, error)
	DestroyImageView(dev Device, v ImageView)
	CreateRenderPass(dev Device, info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(dev Device, rp RenderPass)
	CreateFramebuffer(dev Device, info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(dev Device, fb Framebuffer)
}

// CommandAPI is command pool, command buffer and recording level.
type CommandAPI interface {
	CreateCommandPool(dev Device, family uint32, resettable bool) (CommandPool, error)
	DestroyCommandPool(dev Device, pool CommandPool)
	AllocateCommandBuffers(dev Device, pool CommandPool, n int) ([]CommandBuffer, error)
	FreeCommandBuffers(dev Device, pool CommandPool, cbs []CommandBuffer)
	ResetCommandBuffer(cb CommandBuffer) error
	BeginCommandBuffer(cb CommandBuffer) error
	EndCommandBuffer(cb CommandBuffer) error

	CmdPipelineBarrier(cb CommandBuffer, src, dst PipelineStages, barriers ...ImageBarrier)
	CmdBeginRenderPass(cb CommandBuffer, info RenderPassBegin)
	CmdEndRenderPass(cb CommandBuffer)
	CmdBindPipeline(cb CommandBuffer, pl Pipeline)
	CmdBindVertexBuffer(cb CommandBuffer, buf Buffer, offset uint64)
	CmdBindDescriptorSet(cb CommandBuffer, layout PipelineLayout, set DescriptorSet)
	CmdSetViewport(cb CommandBuffer, vp Viewport)
	CmdSetScissor(cb CommandBuffer, r Rect)
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stages ShaderStages, offset uint32, data []byte)
	CmdDraw(cb CommandBuffer, vertexCount, firstVertex uint32)
	CmdCopyBufferToImage(cb CommandBuffer, buf Buffer, img Image, region BufferImageCopy)
	CmdCopyImageToBuffer(cb CommandBuffer, img Image, buf Buffer, region BufferImageCopy)
}

// ResourceAPI is buffer, image, sampler and descriptor level.
type ResourceAPI interface {
	CreateBuffer(dev Device, info BufferInfo) (Buffer, error)
	DestroyBuffer(dev Device, buf Buffer)
	MapBuffer(dev Device, buf Buffer) ([]byte, error)
	UnmapBuffer(dev Device, buf Buffer)

	CreateImage(dev Device, info ImageInfo) (Image, error)
	DestroyImage(dev Device, img Image)
	CreateSampler(dev Device, info SamplerInfo) (Sampler, error)
	DestroySampler(dev Device, s Sampler)

	CreateDescriptorSetLayout(dev Device, samplers uint32) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(dev Device, l DescriptorSetLayout)
	CreateDescriptorPool(dev Device, maxSets, maxSamplers uint32) (DescriptorPool, error)
	DestroyDescriptorPool(dev Device, p DescriptorPool)
	ResetDescriptorPool(dev Device, p DescriptorPool) error
	AllocateDescriptorSet(dev Device, p DescriptorPool, l DescriptorSetLayout) (DescriptorSet, error)
	UpdateDescriptorSet(dev Device, set DescriptorSet, writes ...ImageSamplerWrite)
}

// PipelineAPI is shader and pipeline level.
type PipelineAPI interface {
	CreateShaderModule(dev Device, code []byte) (ShaderModule, error)
	DestroyShaderModule(dev Device, m ShaderModule)
	CreatePipelineLayout(dev Device, info PipelineLayoutInfo) (PipelineLayout, error)
	DestroyPipelineLayout(dev Device, l PipelineLayout)
	CreateGraphicsPipeline(dev Device, info GraphicsPipelineInfo) (Pipeline, error)
	DestroyPipeline(dev Device, pl Pipeline)
}

// API is the complete method table used by a renderer.
type API interface {
	Loader
	InstanceAPI
	DeviceAPI
	SwapchainAPI
	CommandAPI
	ResourceAPI
	PipelineAPI
}
