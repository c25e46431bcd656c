// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

func (d *Driver) CreateDevice(pdh vkapi.PhysicalDevice, info vkapi.DeviceInfo) (vkapi.Device, error) {
	pd, ok := get(d, d.physical, pdh)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	var queues []vk.DeviceQueueCreateInfo
	for _, fam := range info.QueueFamilies {
		dup := false
		for _, q := range queues {
			dup = dup || q.QueueFamilyIndex == fam
		}
		if dup {
			continue
		}
		queues = append(queues, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: fam,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	exts := safeStrings(info.Extensions)
	var dev vk.Device
	ret := vk.CreateDevice(pd.pd, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
	}, nil, &dev)
	if err := newError(ret); err != nil {
		return 0, err
	}
	var cache vk.PipelineCache
	ret = vk.CreatePipelineCache(dev, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := newError(ret); err != nil {
		vk.DestroyDevice(dev, nil)
		return 0, err
	}
	return put(d, d.devices, &device{dev: dev, pd: pd, cache: cache}), nil
}

func (d *Driver) DestroyDevice(dev vkapi.Device) {
	dv, ok := take(d, d.devices, dev)
	if !ok {
		return
	}
	d.mu.Lock()
	for k, q := range d.queueIDs {
		if k.dev == dev {
			delete(d.queues, q)
			delete(d.queueIDs, k)
		}
	}
	d.mu.Unlock()
	vk.DestroyPipelineCache(dv.dev, dv.cache, nil)
	vk.DestroyDevice(dv.dev, nil)
}

func (d *Driver) device(dev vkapi.Device) (*device, error) {
	dv, ok := get(d, d.devices, dev)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	return dv, nil
}

func (d *Driver) DeviceWaitIdle(dev vkapi.Device) error {
	dv, err := d.device(dev)
	if err != nil {
		return err
	}
	return newError(vk.DeviceWaitIdle(dv.dev))
}

// Queue returns the same handle for a queue on every call.
func (d *Driver) Queue(dev vkapi.Device, family, index uint32) vkapi.Queue {
	dv, err := d.device(dev)
	if err != nil {
		return 0
	}
	key := queueKey{dev: dev, family: family, index: index}
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.queueIDs[key]; ok {
		return h
	}
	var q vk.Queue
	vk.GetDeviceQueue(dv.dev, family, index, &q)
	h := vkapi.Queue(d.issue())
	d.queues[h] = q
	d.queueIDs[key] = h
	return h
}

func (d *Driver) QueueWaitIdle(q vkapi.Queue) error {
	vq, ok := get(d, d.queues, q)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	return newError(vk.QueueWaitIdle(vq))
}

func (d *Driver) CreateSemaphore(dev vkapi.Device) (vkapi.Semaphore, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	var s vk.Semaphore
	ret := vk.CreateSemaphore(dv.dev, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &s)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.semaphores, s), nil
}

func (d *Driver) DestroySemaphore(dev vkapi.Device, s vkapi.Semaphore) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vs, ok := take(d, d.semaphores, s); ok {
		vk.DestroySemaphore(dv.dev, vs, nil)
	}
}

func (d *Driver) CreateFence(dev vkapi.Device, signaled bool) (vkapi.Fence, error) {
	dv, err := d.device(dev)
	if err != nil {
		return 0, err
	}
	info := &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	if err := newError(vk.CreateFence(dv.dev, info, nil, &f)); err != nil {
		return 0, err
	}
	return put(d, d.fences, f), nil
}

func (d *Driver) DestroyFence(dev vkapi.Device, f vkapi.Fence) {
	dv, err := d.device(dev)
	if err != nil {
		return
	}
	if vf, ok := take(d, d.fences, f); ok {
		vk.DestroyFence(dv.dev, vf, nil)
	}
}

func (d *Driver) WaitForFence(dev vkapi.Device, f vkapi.Fence, timeout uint64) error {
	dv, err := d.device(dev)
	if err != nil {
		return err
	}
	vf, ok := get(d, d.fences, f)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	return newError(vk.WaitForFences(dv.dev, 1, []vk.Fence{vf}, vk.True, timeout))
}

func (d *Driver) ResetFence(dev vkapi.Device, f vkapi.Fence) error {
	dv, err := d.device(dev)
	if err != nil {
		return err
	}
	vf, ok := get(d, d.fences, f)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	return newError(vk.ResetFences(dv.dev, 1, []vk.Fence{vf}))
}

func (d *Driver) semaphoreList(ss []vkapi.Semaphore) ([]vk.Semaphore, error) {
	out := make([]vk.Semaphore, len(ss))
	for i, s := range ss {
		vs, ok := get(d, d.semaphores, s)
		if !ok {
			return nil, vkapi.ErrInvalidHandle
		}
		out[i] = vs
	}
	return out, nil
}

func (d *Driver) QueueSubmit(q vkapi.Queue, info vkapi.SubmitInfo, f vkapi.Fence) error {
	vq, ok := get(d, d.queues, q)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	vf := vk.NullFence
	if f != 0 {
		if vf, ok = get(d, d.fences, f); !ok {
			return vkapi.ErrInvalidHandle
		}
	}
	cbs := make([]vk.CommandBuffer, len(info.CommandBuffers))
	for i, cb := range info.CommandBuffers {
		if cbs[i], ok = get(d, d.cmdBufs, cb); !ok {
			return vkapi.ErrInvalidHandle
		}
	}
	wait, err := d.semaphoreList(info.WaitSemaphores)
	if err != nil {
		return err
	}
	signal, err := d.semaphoreList(info.SignalSemaphores)
	if err != nil {
		return err
	}
	waitStages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		waitStages[i] = stages(s)
	}
	return newError(vk.QueueSubmit(vq, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(wait)),
		PWaitSemaphores:      wait,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   uint32(len(cbs)),
		PCommandBuffers:      cbs,
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}}, vf))
}

func (d *Driver) QueuePresent(q vkapi.Queue, info vkapi.PresentInfo) error {
	vq, ok := get(d, d.queues, q)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	sc, ok := get(d, d.swapchains, info.Swapchain)
	if !ok {
		return vkapi.ErrInvalidHandle
	}
	wait, err := d.semaphoreList(info.WaitSemaphores)
	if err != nil {
		return err
	}
	return newError(vk.QueuePresent(vq, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.sc},
		PImageIndices:      []uint32{info.ImageIndex},
	}))
}

// memoryType returns the index of the first memory type allowed by
// typeBits that has all of the required properties.
func memoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, required vk.MemoryPropertyFlagBits) (uint32, bool) {
	for i := uint32(0); i < props.MemoryTypeCount && i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		flags := props.MemoryTypes[i].PropertyFlags
		if flags&vk.MemoryPropertyFlags(required) == vk.MemoryPropertyFlags(required) {
			return i, true
		}
	}
	return 0, false
}

// allocate allocates memory for the given requirements.
// Device local memory falls back to any allowed type.
func (dv *device) allocate(reqs vk.MemoryRequirements, hostVisible bool) (vk.DeviceMemory, error) {
	reqs.Deref()
	required := vk.MemoryPropertyFlagBits(vk.MemoryPropertyDeviceLocalBit)
	if hostVisible {
		required = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	idx, ok := memoryType(dv.pd.mem, reqs.MemoryTypeBits, required)
	if !ok && !hostVisible {
		idx, ok = memoryType(dv.pd.mem, reqs.MemoryTypeBits, 0)
	}
	if !ok {
		return vk.NullDeviceMemory, vkapi.ErrorOutOfDeviceMemory
	}
	var mem vk.DeviceMemory
	ret := vk.AllocateMemory(dv.dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: idx,
	}, nil, &mem)
	if err := newError(ret); err != nil {
		return vk.NullDeviceMemory, err
	}
	return mem, nil
}
