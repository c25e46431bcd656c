// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"testing"

	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestFormats(t *testing.T) {
	for f := vkapi.FormatUndefined; f <= vkapi.FormatR8G8Unorm; f++ {
		vf, ok := formats[f]
		assert.True(t, ok, "format %v", f)
		assert.Equal(t, f, fromFormat(vf))
	}
	assert.Equal(t, vkapi.FormatUndefined, fromFormat(vk.FormatR32g32b32a32Sfloat))
}

func TestColorSpaces(t *testing.T) {
	for _, cs := range []vkapi.ColorSpace{vkapi.ColorSpaceSRGBNonlinear, vkapi.ColorSpaceExtendedSRGBLinear} {
		got, ok := fromColorSpace(colorSpace(cs))
		assert.True(t, ok)
		assert.Equal(t, cs, got)
	}
	_, ok := fromColorSpace(vk.ColorSpace(1000104001))
	assert.False(t, ok)
}

func TestBits(t *testing.T) {
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessTransferWriteBit),
		access(vkapi.AccessShaderRead|vkapi.AccessTransferWrite))
	assert.Equal(t, vk.AccessFlags(0), access(0))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		stages(vkapi.StageColorAttachmentOutput))
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
		shaderStages(vkapi.ShaderVertex|vkapi.ShaderFragment))
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), bufferUsage(vkapi.BufferTransferSrc))
	assert.Equal(t, vk.ImageUsageFlags(vk.ImageUsageSampledBit|vk.ImageUsageTransferDstBit),
		imageUsage(vkapi.ImageSampled|vkapi.ImageTransferDst))
	assert.Equal(t, vkapi.QueueGraphics|vkapi.QueueTransfer,
		queueFlags(vk.QueueFlags(vk.QueueGraphicsBit|vk.QueueTransferBit)))
}

func TestEnumTablesComplete(t *testing.T) {
	assert.Len(t, layouts, int(vkapi.LayoutPresentSrc)+1)
	assert.Len(t, presentModes, int(vkapi.PresentFIFORelaxed)+1)
	assert.Len(t, topologies, int(vkapi.TriangleStrip)+1)
	assert.Len(t, blendFactors, int(vkapi.BlendOneMinusDstAlpha)+1)
	assert.Len(t, blendOps, int(vkapi.BlendOpMax)+1)
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "VK_KHR_swapchain\x00", safeString(vkapi.SwapchainExtension))
	assert.Equal(t, "a\x00", safeString("a\x00"))
	assert.Equal(t, "\x00", safeString(""))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b"}))
}

func TestSPIRVWords(t *testing.T) {
	code := []byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0}
	assert.Equal(t, []uint32{0x07230203, 1}, spirvWords(code))
}

func TestInvalidHandles(t *testing.T) {
	d := New()
	assert.ErrorIs(t, d.LoadInstance(1), vkapi.ErrInvalidHandle)
	assert.ErrorIs(t, d.LoadDevice(1), vkapi.ErrInvalidHandle)
	_, err := d.CreateBuffer(1, vkapi.BufferInfo{Size: 16})
	assert.ErrorIs(t, err, vkapi.ErrInvalidHandle)
	assert.ErrorIs(t, d.QueueWaitIdle(7), vkapi.ErrInvalidHandle)
	assert.Zero(t, d.Queue(3, 0, 0))
	// destroying unknown handles is a no-op
	d.DestroyBuffer(1, 2)
	d.DestroyInstance(5)
	assert.Zero(t, d.Live())
}
