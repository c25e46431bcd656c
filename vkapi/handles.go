// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkapi

// Handles are opaque identifiers issued by an [API] implementation.
// The zero value of every handle type is the null handle.
type (
	Instance            uint64
	PhysicalDevice      uint64
	Device              uint64
	Queue               uint64
	Surface             uint64
	Swapchain           uint64
	Image               uint64
	ImageView           uint64
	Sampler             uint64
	Buffer              uint64
	RenderPass          uint64
	Framebuffer         uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Fence               uint64
	Semaphore           uint64
	ShaderModule        uint64
	PipelineLayout      uint64
	Pipeline            uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
)
