// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

// ImageLayout is the usage role of an image, which
// must be changed explicitly with an image barrier.
type ImageLayout int32

const (
	LayoutUndefined ImageLayout = iota
	LayoutColorAttachment
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresentSrc
)

var layoutNames = [...]string{"Undefined", "ColorAttachment", "ShaderReadOnly", "TransferSrc", "TransferDst", "PresentSrc"}

func (l ImageLayout) String() string {
	if l < 0 || int(l) >= len(layoutNames) {
		return "ImageLayout(?)"
	}
	return layoutNames[l]
}

// AccessFlags are memory access types for barriers.
type AccessFlags uint32

const (
	AccessColorAttachmentRead AccessFlags = 1 << iota
	AccessColorAttachmentWrite
	AccessShaderRead
	AccessTransferRead
	AccessTransferWrite
	AccessHostRead
	AccessHostWrite
	AccessMemoryRead
)

// PipelineStages are pipeline stage masks for barriers and waits.
type PipelineStages uint32

const (
	StageTopOfPipe PipelineStages = 1 << iota
	StageVertexInput
	StageVertexShader
	StageFragmentShader
	StageColorAttachmentOutput
	StageTransfer
	StageBottomOfPipe
	StageHost
)

// Format is a pixel format.
type Format int32

const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatR8G8B8A8Srgb
	FormatB8G8R8A8Srgb
	FormatR16G16B16A16Sfloat
	FormatR8Unorm
	FormatR8G8Unorm
)

var formatNames = [...]string{"Undefined", "R8G8B8A8Unorm", "B8G8R8A8Unorm", "R8G8B8A8Srgb", "B8G8R8A8Srgb", "R16G16B16A16Sfloat", "R8Unorm", "R8G8Unorm"}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "Format(?)"
	}
	return formatNames[f]
}

// BytesPerPixel returns the size of one texel of the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR8G8Unorm:
		return 2
	case FormatR16G16B16A16Sfloat:
		return 8
	case FormatUndefined:
		return 0
	}
	return 4
}

// ColorSpace is a presentation color space.
type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear ColorSpace = iota
	ColorSpaceExtendedSRGBLinear
)

// SurfaceFormat is a format and color space supported by a surface.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is how the swapchain queues images for display.
type PresentMode int32

const (
	PresentFIFO PresentMode = iota
	PresentMailbox
	PresentImmediate
	PresentFIFORelaxed
)

// Topology is a primitive topology.
type Topology int32

const (
	PointList Topology = iota
	LineList
	LineStrip
	TriangleList
	TriangleStrip
)

var topologyNames = [...]string{"PointList", "LineList", "LineStrip", "TriangleList", "TriangleStrip"}

func (t Topology) String() string {
	if t < 0 || int(t) >= len(topologyNames) {
		return "Topology(?)"
	}
	return topologyNames[t]
}

// BlendFactor is a source or destination blend factor.
type BlendFactor int32

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// BlendOp is a blend equation.
type BlendOp int32

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// LoadOp is what a render pass does with its attachment on begin.
type LoadOp int32

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
)

func (op LoadOp) String() string {
	if op == LoadOpClear {
		return "Clear"
	}
	return "Load"
}

// Filter is a sampler filter.
type Filter int32

const (
	FilterNearest Filter = iota
	FilterLinear
)

// ShaderStages selects shader stages.
type ShaderStages uint32

const (
	ShaderVertex ShaderStages = 1 << iota
	ShaderFragment
)

// BufferUsage is how a buffer is used.
type BufferUsage uint32

const (
	BufferVertex BufferUsage = 1 << iota
	BufferTransferSrc
	BufferTransferDst
)

// ImageUsage is how an image is used.
type ImageUsage uint32

const (
	ImageSampled ImageUsage = 1 << iota
	ImageColorAttachment
	ImageTransferSrc
	ImageTransferDst
)

// QueueFlags are queue family capabilities.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
)

// Forever is the timeout for an unbounded wait.
const Forever = ^uint64(0)

// Extension and layer names.
const (
	SwapchainExtension = "VK_KHR_swapchain"
	ValidationLayer    = "VK_LAYER_KHRONOS_validation"
)
