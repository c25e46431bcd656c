// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

// Extent is a size in pixels.
type Extent struct {
	Width, Height uint32
}

// Rect is a pixel rectangle, used for render areas and scissors.
type Rect struct {
	X, Y          int32
	Width, Height uint32
}

// Viewport is a dynamic viewport.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// InstanceInfo configures instance creation.
type InstanceInfo struct {
	AppName    string
	APIVersion Version
	Layers     []string
	Extensions []string
}

// PhysicalDeviceProperties are the queried properties and
// limits of a physical device that the renderer depends on.
type PhysicalDeviceProperties struct {
	Name          string
	APIVersion    Version
	DriverVersion uint32

	MaxImageDimension2D uint32

	// OptimalBufferCopyRowPitchAlignment is the preferred alignment
	// of staging buffer rows for buffer to image copies.
	OptimalBufferCopyRowPitchAlignment uint64

	// OptimalBufferCopyOffsetAlignment is the preferred alignment
	// of staging buffer offsets for buffer to image copies.
	OptimalBufferCopyOffsetAlignment uint64
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

// DeviceInfo configures logical device creation.
// One queue is created for each distinct family.
type DeviceInfo struct {
	QueueFamilies []uint32
	Extensions    []string
}

// SurfaceCapabilities are the swapchain limits of a surface.
// MaxImageCount 0 means there is no upper limit.
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent
	MinImageExtent   Extent
	MaxImageExtent   Extent
	CurrentTransform uint32
}

// SwapchainInfo configures swapchain creation. The swapchain always
// uses exclusive sharing, opaque composite alpha and clipping.
type SwapchainInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent
	Transform     uint32
	PresentMode   PresentMode
	Old           Swapchain
}

// ImageInfo configures a 2D, single mip level, device local image.
type ImageInfo struct {
	Width, Height uint32
	Format        Format
	Usage         ImageUsage
}

// ImageViewInfo configures a color view with identity swizzle,
// covering a single mip level and array layer.
type ImageViewInfo struct {
	Image  Image
	Format Format
}

// RenderPassInfo configures a render pass with a single color attachment
// kept in the color attachment layout, and an external dependency
// serializing color attachment writes.
type RenderPassInfo struct {
	Format Format
	LoadOp LoadOp
}

// FramebufferInfo configures a framebuffer with a single attachment.
type FramebufferInfo struct {
	RenderPass    RenderPass
	View          ImageView
	Width, Height uint32
}

// RenderPassBegin begins a render pass. ClearColor is only
// used by render passes with [LoadOpClear].
type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect
	ClearColor  *[4]float32
}

// ImageBarrier is an image memory barrier covering the color
// aspect and the full mip and array range of the image.
type ImageBarrier struct {
	Image     Image
	SrcAccess AccessFlags
	DstAccess AccessFlags
	OldLayout ImageLayout
	NewLayout ImageLayout
}

// BufferImageCopy is a copy region between a buffer and a
// color image. RowLength is in texels, and 0 means tightly packed.
type BufferImageCopy struct {
	BufferOffset  uint64
	RowLength     uint32
	X, Y          int32
	Width, Height uint32
}

// SubmitInfo is a single queue submission.
type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStages
	SignalSemaphores []Semaphore
}

// PresentInfo presents one swapchain image.
type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

// BufferInfo configures a buffer and its memory. HostVisible buffers
// are allocated in host visible and coherent memory so they can be mapped.
type BufferInfo struct {
	Size        uint64
	Usage       BufferUsage
	HostVisible bool
}

// SamplerInfo configures a clamp to edge sampler.
type SamplerInfo struct {
	Filter Filter
}

// PushConstantRange is a push constant range of a pipeline layout.
type PushConstantRange struct {
	Stages ShaderStages
	Offset uint32
	Size   uint32
}

// PipelineLayoutInfo configures a pipeline layout.
type PipelineLayoutInfo struct {
	SetLayouts    []DescriptorSetLayout
	PushConstants []PushConstantRange
}

// VertexFormat is the format of a vertex attribute.
type VertexFormat int32

const (
	VertexFloat2 VertexFormat = iota
	VertexFloat4
)

// VertexAttribute is one attribute of the single vertex binding.
type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint32
}

// BlendState is the color blend state of the single color attachment.
// Color and alpha are blended independently.
type BlendState struct {
	Enable   bool
	SrcColor BlendFactor
	DstColor BlendFactor
	ColorOp  BlendOp
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
	AlphaOp  BlendOp
}

// GraphicsPipelineInfo configures a graphics pipeline with dynamic
// viewport and scissor, no culling, solid fill, counter-clockwise front
// faces, no depth bias, no primitive restart and a single sample.
type GraphicsPipelineInfo struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	Layout         PipelineLayout
	RenderPass     RenderPass
	Topology       Topology
	VertexStride   uint32
	Attributes     []VertexAttribute
	Blend          BlendState
}

// ImageSamplerWrite writes a combined image sampler, in the
// shader read only layout, to a binding of a descriptor set.
type ImageSamplerWrite struct {
	Binding uint32
	View    ImageView
	Sampler Sampler
}
