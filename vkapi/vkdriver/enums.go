// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

// VK_COLOR_SPACE_EXTENDED_SRGB_LINEAR_EXT
const colorSpaceExtendedSRGBLinear vk.ColorSpace = 1000104002

var layouts = map[vkapi.ImageLayout]vk.ImageLayout{
	vkapi.LayoutUndefined:       vk.ImageLayoutUndefined,
	vkapi.LayoutColorAttachment: vk.ImageLayoutColorAttachmentOptimal,
	vkapi.LayoutShaderReadOnly:  vk.ImageLayoutShaderReadOnlyOptimal,
	vkapi.LayoutTransferSrc:     vk.ImageLayoutTransferSrcOptimal,
	vkapi.LayoutTransferDst:     vk.ImageLayoutTransferDstOptimal,
	vkapi.LayoutPresentSrc:      vk.ImageLayoutPresentSrc,
}

var formats = map[vkapi.Format]vk.Format{
	vkapi.FormatUndefined:          vk.FormatUndefined,
	vkapi.FormatR8G8B8A8Unorm:      vk.FormatR8g8b8a8Unorm,
	vkapi.FormatB8G8R8A8Unorm:      vk.FormatB8g8r8a8Unorm,
	vkapi.FormatR8G8B8A8Srgb:       vk.FormatR8g8b8a8Srgb,
	vkapi.FormatB8G8R8A8Srgb:       vk.FormatB8g8r8a8Srgb,
	vkapi.FormatR16G16B16A16Sfloat: vk.FormatR16g16b16a16Sfloat,
	vkapi.FormatR8Unorm:            vk.FormatR8Unorm,
	vkapi.FormatR8G8Unorm:          vk.FormatR8g8Unorm,
}

// fromFormat maps a Vulkan format back; formats the
// renderer does not use map to [vkapi.FormatUndefined].
func fromFormat(f vk.Format) vkapi.Format {
	for af, vf := range formats {
		if vf == f {
			return af
		}
	}
	return vkapi.FormatUndefined
}

func colorSpace(cs vkapi.ColorSpace) vk.ColorSpace {
	if cs == vkapi.ColorSpaceExtendedSRGBLinear {
		return colorSpaceExtendedSRGBLinear
	}
	return vk.ColorSpace(0)
}

func fromColorSpace(cs vk.ColorSpace) (vkapi.ColorSpace, bool) {
	switch cs {
	case 0:
		return vkapi.ColorSpaceSRGBNonlinear, true
	case colorSpaceExtendedSRGBLinear:
		return vkapi.ColorSpaceExtendedSRGBLinear, true
	}
	return 0, false
}

var presentModes = map[vkapi.PresentMode]vk.PresentMode{
	vkapi.PresentFIFO:        vk.PresentModeFifo,
	vkapi.PresentMailbox:     vk.PresentModeMailbox,
	vkapi.PresentImmediate:   vk.PresentModeImmediate,
	vkapi.PresentFIFORelaxed: vk.PresentModeFifoRelaxed,
}

var topologies = map[vkapi.Topology]vk.PrimitiveTopology{
	vkapi.PointList:     vk.PrimitiveTopologyPointList,
	vkapi.LineList:      vk.PrimitiveTopologyLineList,
	vkapi.LineStrip:     vk.PrimitiveTopologyLineStrip,
	vkapi.TriangleList:  vk.PrimitiveTopologyTriangleList,
	vkapi.TriangleStrip: vk.PrimitiveTopologyTriangleStrip,
}

var blendFactors = map[vkapi.BlendFactor]vk.BlendFactor{
	vkapi.BlendZero:             vk.BlendFactorZero,
	vkapi.BlendOne:              vk.BlendFactorOne,
	vkapi.BlendSrcColor:         vk.BlendFactorSrcColor,
	vkapi.BlendOneMinusSrcColor: vk.BlendFactorOneMinusSrcColor,
	vkapi.BlendSrcAlpha:         vk.BlendFactorSrcAlpha,
	vkapi.BlendOneMinusSrcAlpha: vk.BlendFactorOneMinusSrcAlpha,
	vkapi.BlendDstColor:         vk.BlendFactorDstColor,
	vkapi.BlendOneMinusDstColor: vk.BlendFactorOneMinusDstColor,
	vkapi.BlendDstAlpha:         vk.BlendFactorDstAlpha,
	vkapi.BlendOneMinusDstAlpha: vk.BlendFactorOneMinusDstAlpha,
}

var blendOps = map[vkapi.BlendOp]vk.BlendOp{
	vkapi.BlendOpAdd:             vk.BlendOpAdd,
	vkapi.BlendOpSubtract:        vk.BlendOpSubtract,
	vkapi.BlendOpReverseSubtract: vk.BlendOpReverseSubtract,
	vkapi.BlendOpMin:             vk.BlendOpMin,
	vkapi.BlendOpMax:             vk.BlendOpMax,
}

var loadOps = map[vkapi.LoadOp]vk.AttachmentLoadOp{
	vkapi.LoadOpLoad:  vk.AttachmentLoadOpLoad,
	vkapi.LoadOpClear: vk.AttachmentLoadOpClear,
}

var filters = map[vkapi.Filter]vk.Filter{
	vkapi.FilterNearest: vk.FilterNearest,
	vkapi.FilterLinear:  vk.FilterLinear,
}

var vertexFormats = map[vkapi.VertexFormat]vk.Format{
	vkapi.VertexFloat2: vk.FormatR32g32Sfloat,
	vkapi.VertexFloat4: vk.FormatR32g32b32a32Sfloat,
}

// bits translates a bit set by mapping each set bit through table.
func bits[F ~uint32, V ~int32 | ~uint32](f F, table map[F]V) uint32 {
	var v uint32
	for b, vb := range table {
		if f&b != 0 {
			v |= uint32(vb)
		}
	}
	return v
}

var accessBits = map[vkapi.AccessFlags]vk.AccessFlagBits{
	vkapi.AccessColorAttachmentRead:  vk.AccessColorAttachmentReadBit,
	vkapi.AccessColorAttachmentWrite: vk.AccessColorAttachmentWriteBit,
	vkapi.AccessShaderRead:           vk.AccessShaderReadBit,
	vkapi.AccessTransferRead:         vk.AccessTransferReadBit,
	vkapi.AccessTransferWrite:        vk.AccessTransferWriteBit,
	vkapi.AccessHostRead:             vk.AccessHostReadBit,
	vkapi.AccessHostWrite:            vk.AccessHostWriteBit,
	vkapi.AccessMemoryRead:           vk.AccessMemoryReadBit,
}

func access(f vkapi.AccessFlags) vk.AccessFlags {
	return vk.AccessFlags(bits(f, accessBits))
}

var stageBits = map[vkapi.PipelineStages]vk.PipelineStageFlagBits{
	vkapi.StageTopOfPipe:             vk.PipelineStageTopOfPipeBit,
	vkapi.StageVertexInput:           vk.PipelineStageVertexInputBit,
	vkapi.StageVertexShader:          vk.PipelineStageVertexShaderBit,
	vkapi.StageFragmentShader:        vk.PipelineStageFragmentShaderBit,
	vkapi.StageColorAttachmentOutput: vk.PipelineStageColorAttachmentOutputBit,
	vkapi.StageTransfer:              vk.PipelineStageTransferBit,
	vkapi.StageBottomOfPipe:          vk.PipelineStageBottomOfPipeBit,
	vkapi.StageHost:                  vk.PipelineStageHostBit,
}

func stages(s vkapi.PipelineStages) vk.PipelineStageFlags {
	return vk.PipelineStageFlags(bits(s, stageBits))
}

var shaderBits = map[vkapi.ShaderStages]vk.ShaderStageFlagBits{
	vkapi.ShaderVertex:   vk.ShaderStageVertexBit,
	vkapi.ShaderFragment: vk.ShaderStageFragmentBit,
}

func shaderStages(s vkapi.ShaderStages) vk.ShaderStageFlags {
	return vk.ShaderStageFlags(bits(s, shaderBits))
}

var bufferUsageBits = map[vkapi.BufferUsage]vk.BufferUsageFlagBits{
	vkapi.BufferVertex:      vk.BufferUsageVertexBufferBit,
	vkapi.BufferTransferSrc: vk.BufferUsageTransferSrcBit,
	vkapi.BufferTransferDst: vk.BufferUsageTransferDstBit,
}

func bufferUsage(u vkapi.BufferUsage) vk.BufferUsageFlags {
	return vk.BufferUsageFlags(bits(u, bufferUsageBits))
}

var imageUsageBits = map[vkapi.ImageUsage]vk.ImageUsageFlagBits{
	vkapi.ImageSampled:         vk.ImageUsageSampledBit,
	vkapi.ImageColorAttachment: vk.ImageUsageColorAttachmentBit,
	vkapi.ImageTransferSrc:     vk.ImageUsageTransferSrcBit,
	vkapi.ImageTransferDst:     vk.ImageUsageTransferDstBit,
}

func imageUsage(u vkapi.ImageUsage) vk.ImageUsageFlags {
	return vk.ImageUsageFlags(bits(u, imageUsageBits))
}

// queueFlags maps Vulkan queue capabilities back.
func queueFlags(f vk.QueueFlags) vkapi.QueueFlags {
	var qf vkapi.QueueFlags
	if f&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
		qf |= vkapi.QueueGraphics
	}
	if f&vk.QueueFlags(vk.QueueComputeBit) != 0 {
		qf |= vkapi.QueueCompute
	}
	if f&vk.QueueFlags(vk.QueueTransferBit) != 0 {
		qf |= vkapi.QueueTransfer
	}
	return qf
}

var colorSubresource = vk.ImageSubresourceRange{
	AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	LevelCount: 1,
	LayerCount: 1,
}

var colorLayers = vk.ImageSubresourceLayers{
	AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	LayerCount: 1,
}
