// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdriver

import (
	"fmt"
	"unsafe"

	"cogentcore.org/vkrender/vkapi"
	vk "github.com/goki/vulkan"
)

// SurfaceWindow is implemented by windows that can create a Vulkan
// surface for themselves, as *glfw.Window does.
type SurfaceWindow interface {
	CreateWindowSurface(instance any, allocCallbacks unsafe.Pointer) (uintptr, error)
}

func (d *Driver) InstanceLayers() ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func (d *Driver) CreateInstance(info vkapi.InstanceInfo) (vkapi.Instance, error) {
	layers := safeStrings(info.Layers)
	exts := safeStrings(info.Extensions)
	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(info.AppName),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PEngineName:        "vkrender\x00",
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			ApiVersion:         uint32(info.APIVersion),
		},
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
	}, nil, &inst)
	if err := newError(ret); err != nil {
		return 0, err
	}
	return put(d, d.instances, inst), nil
}

func (d *Driver) DestroyInstance(inst vkapi.Instance) {
	vi, ok := take(d, d.instances, inst)
	if !ok {
		return
	}
	d.mu.Lock()
	for h, pd := range d.physical {
		if pd.inst == inst {
			delete(d.physical, h)
		}
	}
	d.mu.Unlock()
	vk.DestroyInstance(vi, nil)
}

func (d *Driver) CreateSurface(inst vkapi.Instance, win vkapi.Window) (vkapi.Surface, error) {
	vi, ok := get(d, d.instances, inst)
	if !ok {
		return 0, vkapi.ErrInvalidHandle
	}
	sw, ok := win.(SurfaceWindow)
	if !ok {
		return 0, fmt.Errorf("vkdriver: window %T cannot create a surface: %w", win, vkapi.ErrorExtensionNotPresent)
	}
	ptr, err := sw.CreateWindowSurface(vi, nil)
	if err != nil {
		return 0, fmt.Errorf("vkdriver: creating window surface: %w", err)
	}
	return put(d, d.surfaces, vk.SurfaceFromPointer(ptr)), nil
}

func (d *Driver) DestroySurface(inst vkapi.Instance, sf vkapi.Surface) {
	vi, ok := get(d, d.instances, inst)
	if !ok {
		return
	}
	if vs, ok := take(d, d.surfaces, sf); ok {
		vk.DestroySurface(vi, vs, nil)
	}
}

// PhysicalDevices returns the same handle for a device on every call.
func (d *Driver) PhysicalDevices(inst vkapi.Instance) ([]vkapi.PhysicalDevice, error) {
	vi, ok := get(d, d.instances, inst)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	var count uint32
	if err := newError(vk.EnumeratePhysicalDevices(vi, &count, nil)); err != nil {
		return nil, err
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := newError(vk.EnumeratePhysicalDevices(vi, &count, gpus)); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]vkapi.PhysicalDevice, 0, count)
outer:
	for _, gpu := range gpus[:count] {
		for h, pd := range d.physical {
			if pd.pd == gpu {
				out = append(out, h)
				continue outer
			}
		}
		pd := &physicalDevice{pd: gpu, inst: inst}
		vk.GetPhysicalDeviceMemoryProperties(gpu, &pd.mem)
		pd.mem.Deref()
		h := vkapi.PhysicalDevice(d.issue())
		d.physical[h] = pd
		out = append(out, h)
	}
	return out, nil
}

func (d *Driver) PhysicalDeviceProperties(pdh vkapi.PhysicalDevice) vkapi.PhysicalDeviceProperties {
	pd, ok := get(d, d.physical, pdh)
	if !ok {
		return vkapi.PhysicalDeviceProperties{}
	}
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd.pd, &props)
	props.Deref()
	props.Limits.Deref()
	return vkapi.PhysicalDeviceProperties{
		Name:                               vk.ToString(props.DeviceName[:]),
		APIVersion:                         vkapi.Version(props.ApiVersion),
		DriverVersion:                      props.DriverVersion,
		MaxImageDimension2D:                props.Limits.MaxImageDimension2D,
		OptimalBufferCopyRowPitchAlignment: uint64(props.Limits.OptimalBufferCopyRowPitchAlignment),
		OptimalBufferCopyOffsetAlignment:   uint64(props.Limits.OptimalBufferCopyOffsetAlignment),
	}
}

func (d *Driver) QueueFamilies(pdh vkapi.PhysicalDevice) []vkapi.QueueFamily {
	pd, ok := get(d, d.physical, pdh)
	if !ok {
		return nil
	}
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd.pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd.pd, &count, props)
	fams := make([]vkapi.QueueFamily, count)
	for i := range fams {
		props[i].Deref()
		fams[i] = vkapi.QueueFamily{Flags: queueFlags(props[i].QueueFlags), Count: props[i].QueueCount}
	}
	return fams
}

func (d *Driver) SurfaceSupport(pdh vkapi.PhysicalDevice, family uint32, sf vkapi.Surface) (bool, error) {
	pd, ok := get(d, d.physical, pdh)
	vs, sok := get(d, d.surfaces, sf)
	if !ok || !sok {
		return false, vkapi.ErrInvalidHandle
	}
	var supported vk.Bool32
	if err := newError(vk.GetPhysicalDeviceSurfaceSupport(pd.pd, family, vs, &supported)); err != nil {
		return false, err
	}
	return supported.B(), nil
}

func (d *Driver) DeviceExtensions(pdh vkapi.PhysicalDevice) ([]string, error) {
	pd, ok := get(d, d.physical, pdh)
	if !ok {
		return nil, vkapi.ErrInvalidHandle
	}
	var count uint32
	if err := newError(vk.EnumerateDeviceExtensionProperties(pd.pd, "", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := newError(vk.EnumerateDeviceExtensionProperties(pd.pd, "", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func (d *Driver) SurfaceCapabilities(pdh vkapi.PhysicalDevice, sf vkapi.Surface) (vkapi.SurfaceCapabilities, error) {
	pd, ok := get(d, d.physical, pdh)
	vs, sok := get(d, d.surfaces, sf)
	if !ok || !sok {
		return vkapi.SurfaceCapabilities{}, vkapi.ErrInvalidHandle
	}
	var caps vk.SurfaceCapabilities
	if err := newError(vk.GetPhysicalDeviceSurfaceCapabilities(pd.pd, vs, &caps)); err != nil {
		return vkapi.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return vkapi.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    extent(caps.CurrentExtent),
		MinImageExtent:   extent(caps.MinImageExtent),
		MaxImageExtent:   extent(caps.MaxImageExtent),
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func extent(e vk.Extent2D) vkapi.Extent {
	return vkapi.Extent{Width: e.Width, Height: e.Height}
}

// SurfaceFormats returns the supported formats that the renderer
// can use; other formats are left out.
func (d *Driver) SurfaceFormats(pdh vkapi.PhysicalDevice, sf vkapi.Surface) ([]vkapi.SurfaceFormat, error) {
	pd, ok := get(d, d.physical, pdh)
	vs, sok := get(d, d.surfaces, sf)
	if !ok || !sok {
		return nil, vkapi.ErrInvalidHandle
	}
	var count uint32
	if err := newError(vk.GetPhysicalDeviceSurfaceFormats(pd.pd, vs, &count, nil)); err != nil {
		return nil, err
	}
	fmts := make([]vk.SurfaceFormat, count)
	if err := newError(vk.GetPhysicalDeviceSurfaceFormats(pd.pd, vs, &count, fmts)); err != nil {
		return nil, err
	}
	out := make([]vkapi.SurfaceFormat, 0, count)
	for _, sf := range fmts[:count] {
		sf.Deref()
		f := fromFormat(sf.Format)
		cs, ok := fromColorSpace(sf.ColorSpace)
		if f == vkapi.FormatUndefined || !ok {
			continue
		}
		out = append(out, vkapi.SurfaceFormat{Format: f, ColorSpace: cs})
	}
	return out, nil
}

func (d *Driver) PresentModes(pdh vkapi.PhysicalDevice, sf vkapi.Surface) ([]vkapi.PresentMode, error) {
	pd, ok := get(d, d.physical, pdh)
	vs, sok := get(d, d.surfaces, sf)
	if !ok || !sok {
		return nil, vkapi.ErrInvalidHandle
	}
	var count uint32
	if err := newError(vk.GetPhysicalDeviceSurfacePresentModes(pd.pd, vs, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := newError(vk.GetPhysicalDeviceSurfacePresentModes(pd.pd, vs, &count, modes)); err != nil {
		return nil, err
	}
	out := make([]vkapi.PresentMode, 0, count)
	for _, m := range modes[:count] {
		for am, vm := range presentModes {
			if vm == m {
				out = append(out, am)
			}
		}
	}
	return out, nil
}
