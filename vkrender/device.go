// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"fmt"
	"log/slog"
	"slices"

	"cogentcore.org/vkrender/vkapi"
)

// MinAPIVersion is the version constraint a physical device must satisfy.
const MinAPIVersion = ">= 1.0"

// maxDescriptorSets is the number of descriptor sets in the pool.
// Exhausting it forces a batch.
const maxDescriptorSets = 1024

// physicalDevice is a selected physical device and its queue families.
type physicalDevice struct {
	handle     vkapi.PhysicalDevice
	props      vkapi.PhysicalDeviceProperties
	gfxFamily  uint32
	presFamily uint32
}

// findPhysicalDevice returns the first physical device that satisfies
// [MinAPIVersion], has a graphics queue family and a family that can
// present to the surface, and supports the swapchain extension.
// A single family supporting both graphics and present is preferred.
// A device that cannot be queried is skipped.
func findPhysicalDevice(api vkapi.API, inst vkapi.Instance, surface vkapi.Surface) (physicalDevice, error) {
	pds, err := api.PhysicalDevices(inst)
	if err != nil {
		return physicalDevice{}, fmt.Errorf("vkrender: enumerate physical devices: %w", err)
	}
devices:
	for _, pd := range pds {
		props := api.PhysicalDeviceProperties(pd)
		ok, err := props.APIVersion.Satisfies(MinAPIVersion)
		if err != nil || !ok {
			slog.Debug("vkrender: skipping physical device", "name", props.Name, "api", props.APIVersion)
			continue
		}
		fams := api.QueueFamilies(pd)
		if len(fams) == 0 {
			continue
		}
		gfx, pres := -1, -1
		for i, fam := range fams {
			if fam.Count == 0 {
				continue
			}
			graphics := fam.Flags&vkapi.QueueGraphics != 0
			if graphics && gfx < 0 {
				gfx = i
			}
			present, err := api.SurfaceSupport(pd, uint32(i), surface)
			if err != nil {
				slog.Warn("vkrender: skipping physical device", "name", props.Name, "err", fmt.Errorf("surface support: %w", err))
				continue devices
			}
			if present && pres < 0 {
				pres = i
			}
			if graphics && present {
				gfx, pres = i, i
				break
			}
		}
		if gfx < 0 || pres < 0 {
			continue
		}
		exts, err := api.DeviceExtensions(pd)
		if err != nil {
			slog.Warn("vkrender: skipping physical device", "name", props.Name, "err", fmt.Errorf("device extensions: %w", err))
			continue
		}
		if !slices.Contains(exts, vkapi.SwapchainExtension) {
			continue
		}
		return physicalDevice{handle: pd, props: props, gfxFamily: uint32(gfx), presFamily: uint32(pres)}, nil
	}
	return physicalDevice{}, ErrNoViableDevice
}

// createDeviceResources loads the API entry points, creates the instance,
// surface, device and queues, and the window size independent objects
// used for drawing. On failure the caller must call destroyDeviceResources.
func (r *Renderer) createDeviceResources() error {
	if err := r.api.LoadGlobal(); err != nil {
		return fmt.Errorf("vkrender: load global entry points: %w", err)
	}

	var layers []string
	if r.opts.Validation {
		avail, err := r.api.InstanceLayers()
		if err != nil {
			return fmt.Errorf("vkrender: enumerate instance layers: %w", err)
		}
		if slices.Contains(avail, vkapi.ValidationLayer) {
			layers = append(layers, vkapi.ValidationLayer)
		} else {
			slog.Warn("vkrender: validation requested but the layer is not installed", "layer", vkapi.ValidationLayer)
		}
	}

	inst, err := r.api.CreateInstance(vkapi.InstanceInfo{
		AppName:    r.opts.AppName,
		APIVersion: vkapi.MakeVersion(1, 0, 0),
		Layers:     layers,
		Extensions: r.win.InstanceExtensions(),
	})
	if err != nil {
		return fmt.Errorf("vkrender: create instance: %w", err)
	}
	r.inst = inst
	if err := r.api.LoadInstance(inst); err != nil {
		return fmt.Errorf("vkrender: load instance entry points: %w", err)
	}

	r.surface, err = r.api.CreateSurface(inst, r.win)
	if err != nil {
		return fmt.Errorf("vkrender: create surface: %w", err)
	}

	pd, err := findPhysicalDevice(r.api, inst, r.surface)
	if err != nil {
		return err
	}
	r.gpu = pd
	slog.Info("vkrender: using physical device", "name", pd.props.Name, "api", pd.props.APIVersion,
		"graphics", pd.gfxFamily, "present", pd.presFamily)

	fams := []uint32{pd.gfxFamily}
	if pd.presFamily != pd.gfxFamily {
		fams = append(fams, pd.presFamily)
	}
	r.dev, err = r.api.CreateDevice(pd.handle, vkapi.DeviceInfo{
		QueueFamilies: fams,
		Extensions:    []string{vkapi.SwapchainExtension},
	})
	if err != nil {
		return fmt.Errorf("vkrender: create device: %w", err)
	}
	if err := r.api.LoadDevice(r.dev); err != nil {
		return fmt.Errorf("vkrender: load device entry points: %w", err)
	}
	r.gfxQueue = r.api.Queue(r.dev, pd.gfxFamily, 0)
	r.presQueue = r.api.Queue(r.dev, pd.presFamily, 0)

	r.cmdPool, err = r.api.CreateCommandPool(r.dev, pd.gfxFamily, true)
	if err != nil {
		return fmt.Errorf("vkrender: create command pool: %w", err)
	}
	r.imageAvailable, err = r.api.CreateSemaphore(r.dev)
	if err != nil {
		return fmt.Errorf("vkrender: create semaphore: %w", err)
	}

	for mode, filter := range []vkapi.Filter{ScaleNearest: vkapi.FilterNearest, ScaleLinear: vkapi.FilterLinear} {
		r.samplers[mode], err = r.api.CreateSampler(r.dev, vkapi.SamplerInfo{Filter: filter})
		if err != nil {
			return fmt.Errorf("vkrender: create sampler: %w", err)
		}
	}
	r.descLayout, err = r.api.CreateDescriptorSetLayout(r.dev, 3)
	if err != nil {
		return fmt.Errorf("vkrender: create descriptor set layout: %w", err)
	}
	r.layout, err = r.api.CreatePipelineLayout(r.dev, vkapi.PipelineLayoutInfo{
		SetLayouts: []vkapi.DescriptorSetLayout{r.descLayout},
		PushConstants: []vkapi.PushConstantRange{
			{Stages: vkapi.ShaderVertex | vkapi.ShaderFragment, Offset: 0, Size: pushConstantsSize},
		},
	})
	if err != nil {
		return fmt.Errorf("vkrender: create pipeline layout: %w", err)
	}
	r.descPool, err = r.api.CreateDescriptorPool(r.dev, maxDescriptorSets, 3*maxDescriptorSets)
	if err != nil {
		return fmt.Errorf("vkrender: create descriptor pool: %w", err)
	}
	if err := r.loadShaders(); err != nil {
		return err
	}
	r.ring.init(r.opts.VertexBuffers)
	r.pipelines = make(map[PipelineKey]vkapi.Pipeline)
	return nil
}

// destroyDeviceResources releases everything created by
// createDeviceResources. Each step checks its handle,
// so it can unwind a partial creation and be called again.
func (r *Renderer) destroyDeviceResources() {
	if r.dev != 0 {
		r.destroyPipelines()
		r.ring.destroy(r.api, r.dev)
		r.destroyShaders()
		if r.descPool != 0 {
			r.api.DestroyDescriptorPool(r.dev, r.descPool)
			r.descPool = 0
		}
		if r.layout != 0 {
			r.api.DestroyPipelineLayout(r.dev, r.layout)
			r.layout = 0
		}
		if r.descLayout != 0 {
			r.api.DestroyDescriptorSetLayout(r.dev, r.descLayout)
			r.descLayout = 0
		}
		for i, s := range r.samplers {
			if s != 0 {
				r.api.DestroySampler(r.dev, s)
				r.samplers[i] = 0
			}
		}
		if r.imageAvailable != 0 {
			r.api.DestroySemaphore(r.dev, r.imageAvailable)
			r.imageAvailable = 0
		}
		if r.cmdPool != 0 {
			r.api.DestroyCommandPool(r.dev, r.cmdPool)
			r.cmdPool = 0
		}
		r.api.DestroyDevice(r.dev)
		r.dev = 0
	}
	r.gfxQueue, r.presQueue = 0, 0
	r.gpu = physicalDevice{}
	if r.surface != 0 {
		r.api.DestroySurface(r.inst, r.surface)
		r.surface = 0
	}
	if r.inst != 0 {
		r.api.DestroyInstance(r.inst)
		r.inst = 0
	}
}
