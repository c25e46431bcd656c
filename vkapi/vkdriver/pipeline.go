// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"encoding/binary"

	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

// spirvWords returns SPIR-V byte code as 32 bit words. The byte
// slice may not be aligned for a direct conversion.
func spirvWords(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[4*i:])
	}
	return words
}

func (d *Driver) CreateShaderModule(dev vkapi.Device, code []byte) (vkapi.ShaderModule, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, vkapi.ErrorInvalidShader
	}
	var m vk.ShaderModule
	ret := vk.CreateShaderModule(dv.dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    spirvWords(code),
	}, nil, &m)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.shaders, m), nil
}

func (d *Driver) DestroyShaderModule(dev vkapi.Device, m vkapi.ShaderModule) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vm, ok := take(d, d.shaders, m); ok {
		vk.DestroyShaderModule(dv.dev, vm, nil)
	}
}

func (d *Driver) CreatePipelineLayout(dev vkapi.Device, info vkapi.PipelineLayoutInfo) (vkapi.PipelineLayout, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	sets := make([]vk.DescriptorSetLayout, len(info.SetLayouts))
	for i, l := range info.SetLayouts {
		var ok bool
		if sets[i], ok = get(d, d.setLayouts, l); !ok {
			return 0, vkapi.ErrInvalidHandle
		}
	}
	ranges := make([]vk.PushConstantRange, len(info.PushConstants))
	for i, r := range info.PushConstants {
		ranges[i] = vk.PushConstantRange{
			StageFlags: shaderStages(r.Stages),
			Offset:     r.Offset,
			Size:       r.Size,
		}
	}
	var l vk.PipelineLayout
	ret := vk.CreatePipelineLayout(dv.dev, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(sets)),
		PSetLayouts:            sets,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &l)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.layouts, l), nil
}

func (d *Driver) DestroyPipelineLayout(dev vkapi.Device, l vkapi.PipelineLayout) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vl, ok := take(d, d.layouts, l); ok {
		vk.DestroyPipelineLayout(dv.dev, vl, nil)
	}
}

func blendAttachment(b vkapi.BlendState) vk.PipelineColorBlendAttachmentState {
	cb := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:    vk.False,
	}
	if !b.Enable {
		return cb
	}
	cb.BlendEnable = vk.True
	cb.SrcColorBlendFactor = blendFactors[b.SrcColor]
	cb.DstColorBlendFactor = blendFactors[b.DstColor]
	cb.ColorBlendOp = blendOps[b.ColorOp]
	cb.SrcAlphaBlendFactor = blendFactors[b.SrcAlpha]
	cb.DstAlphaBlendFactor = blendFactors[b.DstAlpha]
	cb.AlphaBlendOp = blendOps[b.AlphaOp]
	return cb
}

func (d *Driver) CreateGraphicsPipeline(dev vkapi.Device, info vkapi.GraphicsPipelineInfo) (vkapi.Pipeline, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	vsh, ok1 := get(d, d.shaders, info.VertexShader)
	fsh, ok2 := get(d, d.shaders, info.FragmentShader)
	layout, ok3 := get(d, d.layouts, info.Layout)
	rp, ok4 := get(d, d.renderPasses, info.RenderPass)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, vkapi.ErrInvalidHandle
	}

	attrs := make([]vk.VertexInputAttributeDescription, len(info.Attributes))
	for i, a := range info.Attributes {
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   vertexFormats[a.Format],
			Offset:   a.Offset,
		}
	}
	cfg := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageVertexBit,
				Module: vsh,
				PName:  "main\x00",
			},
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageFragmentBit,
				Module: fsh,
				PName:  "main\x00",
			},
		},
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount: 1,
			PVertexBindingDescriptions: []vk.VertexInputBindingDescription{{
				Binding:   0,
				Stride:    info.VertexStride,
				InputRate: vk.VertexInputRateVertex,
			}},
			VertexAttributeDescriptionCount: uint32(len(attrs)),
			PVertexAttributeDescriptions:    attrs,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               topologies[info.Topology],
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeNone),
			FrontFace:               vk.FrontFaceCounterClockwise,
			DepthBiasEnable:         vk.False,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			LineWidth:               1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment(info.Blend)},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     layout,
		RenderPass: rp,
		Subpass:    0,
	}
	pls := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(dv.dev, dv.cache, 1, []vk.GraphicsPipelineCreateInfo{cfg}, nil, pls)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.pipelines, pls[0]), nil
}

func (d *Driver) DestroyPipeline(dev vkapi.Device, pl vkapi.Pipeline) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vpl, ok := take(d, d.pipelines, pl); ok {
		vk.DestroyPipeline(dv.dev, vpl, nil)
	}
}
