// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vkdriver implements [vkapi.API] on top of the
// github.com/goki/vulkan bindings, with the loader resolved
// through GLFW.
//
// Vulkan objects are kept in per type tables keyed by the
// handles issued to the caller, so no Vulkan pointer ever
// leaves this package.
package vkdriver

import (
	"fmt"
	"sync"

	"cogentcore.org/vkrender/vkapi"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Driver is the Vulkan implementation of [vkapi.API].
// The zero value is not usable; use [New].
type Driver struct {
	mu   sync.Mutex
	next uint64

	instances    map[vkapi.Instance]vk.Instance
	surfaces     map[vkapi.Surface]vk.Surface
	physical     map[vkapi.PhysicalDevice]*physicalDevice
	devices      map[vkapi.Device]*device
	queues       map[vkapi.Queue]vk.Queue
	queueIDs     map[queueKey]vkapi.Queue
	semaphores   map[vkapi.Semaphore]vk.Semaphore
	fences       map[vkapi.Fence]vk.Fence
	swapchains   map[vkapi.Swapchain]*swapchain
	images       map[vkapi.Image]*image
	views        map[vkapi.ImageView]vk.ImageView
	renderPasses map[vkapi.RenderPass]vk.RenderPass
	framebuffers map[vkapi.Framebuffer]vk.Framebuffer
	pools        map[vkapi.CommandPool]vk.CommandPool
	cmdBufs      map[vkapi.CommandBuffer]vk.CommandBuffer
	buffers      map[vkapi.Buffer]*buffer
	samplers     map[vkapi.Sampler]vk.Sampler
	setLayouts   map[vkapi.DescriptorSetLayout]vk.DescriptorSetLayout
	descPools    map[vkapi.DescriptorPool]*descriptorPool
	descSets     map[vkapi.DescriptorSet]vk.DescriptorSet
	shaders      map[vkapi.ShaderModule]vk.ShaderModule
	layouts      map[vkapi.PipelineLayout]vk.PipelineLayout
	pipelines    map[vkapi.Pipeline]vk.Pipeline
}

type physicalDevice struct {
	pd   vk.PhysicalDevice
	inst vkapi.Instance
	mem  vk.PhysicalDeviceMemoryProperties
}

type device struct {
	dev   vk.Device
	pd    *physicalDevice
	cache vk.PipelineCache
}

type queueKey struct {
	dev           vkapi.Device
	family, index uint32
}

type swapchain struct {
	sc     vk.Swapchain
	images []vkapi.Image
}

// image is a device image; swapchain images own no memory.
type image struct {
	img vk.Image
	mem vk.DeviceMemory
}

type buffer struct {
	buf    vk.Buffer
	mem    vk.DeviceMemory
	size   uint64
	mapped bool
}

type descriptorPool struct {
	pool vk.DescriptorPool
	sets []vkapi.DescriptorSet
}

// New returns a new driver with empty handle tables.
func New() *Driver {
	return &Driver{
		instances:    make(map[vkapi.Instance]vk.Instance),
		surfaces:     make(map[vkapi.Surface]vk.Surface),
		physical:     make(map[vkapi.PhysicalDevice]*physicalDevice),
		devices:      make(map[vkapi.Device]*device),
		queues:       make(map[vkapi.Queue]vk.Queue),
		queueIDs:     make(map[queueKey]vkapi.Queue),
		semaphores:   make(map[vkapi.Semaphore]vk.Semaphore),
		fences:       make(map[vkapi.Fence]vk.Fence),
		swapchains:   make(map[vkapi.Swapchain]*swapchain),
		images:       make(map[vkapi.Image]*image),
		views:        make(map[vkapi.ImageView]vk.ImageView),
		renderPasses: make(map[vkapi.RenderPass]vk.RenderPass),
		framebuffers: make(map[vkapi.Framebuffer]vk.Framebuffer),
		pools:        make(map[vkapi.CommandPool]vk.CommandPool),
		cmdBufs:      make(map[vkapi.CommandBuffer]vk.CommandBuffer),
		buffers:      make(map[vkapi.Buffer]*buffer),
		samplers:     make(map[vkapi.Sampler]vk.Sampler),
		setLayouts:   make(map[vkapi.DescriptorSetLayout]vk.DescriptorSetLayout),
		descPools:    make(map[vkapi.DescriptorPool]*descriptorPool),
		descSets:     make(map[vkapi.DescriptorSet]vk.DescriptorSet),
		shaders:      make(map[vkapi.ShaderModule]vk.ShaderModule),
		layouts:      make(map[vkapi.PipelineLayout]vk.PipelineLayout),
		pipelines:    make(map[vkapi.Pipeline]vk.Pipeline),
	}
}

var _ vkapi.API = (*Driver)(nil)

// issue returns a new non-null handle value. Must be called with mu held.
func (d *Driver) issue() uint64 {
	d.next++
	return d.next
}

// put stores obj under a newly issued handle.
func put[H ~uint64, T any](d *Driver, m map[H]T, obj T) H {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := H(d.issue())
	m[h] = obj
	return h
}

// get looks up the object for a handle.
func get[H ~uint64, T any](d *Driver, m map[H]T, h H) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj, ok := m[h]
	return obj, ok
}

// take removes and returns the object for a handle.
func take[H ~uint64, T any](d *Driver, m map[H]T, h H) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	obj, ok := m[h]
	delete(m, h)
	return obj, ok
}

// Live returns the number of objects that have not been destroyed.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.instances) + len(d.surfaces) + len(d.devices) +
		len(d.semaphores) + len(d.fences) + len(d.swapchains) + len(d.images) +
		len(d.views) + len(d.renderPasses) + len(d.framebuffers) + len(d.pools) +
		len(d.cmdBufs) + len(d.buffers) + len(d.samplers) + len(d.setLayouts) +
		len(d.descPools) + len(d.shaders) + len(d.layouts) + len(d.pipelines)
}

// newError converts a Vulkan result to a [vkapi.Result] error.
func newError(ret vk.Result) error {
	return vkapi.NewError(vkapi.Result(ret))
}

// safeString returns s as a null terminated string.
func safeString(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}

func safeStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = safeString(s)
	}
	return out
}

//////// Loader

// LoadGlobal resolves the global entry points through GLFW,
// which must already be initialized.
func (d *Driver) LoadGlobal() error {
	if !glfw.VulkanSupported() {
		return fmt.Errorf("vkdriver: %w: no Vulkan loader found", vkapi.ErrorInitializationFailed)
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return vk.Init()
}

// LoadInstance resolves the instance level entry points.
func (d *Driver) LoadInstance(inst vkapi.Instance) error {
	vi, ok := get(d, d.instances, inst)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	return vk.InitInstance(vi)
}

// LoadDevice checks the device; device level entry points are
// dispatched through the instance.
func (d *Driver) LoadDevice(dev vkapi.Device) error {
	if _, ok := get(d, d.devices, dev); !ok {
		return vkapi.ErrInvalidHandle
	}
	return nil
}
