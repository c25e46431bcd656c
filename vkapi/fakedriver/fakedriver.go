// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedriver provides an in-memory implementation of
// [vkapi.API] that records every call, for testing the renderer
// without a GPU. Submitted work completes immediately: fences
// passed to QueueSubmit are signaled on return.
package fakedriver

import (
	"fmt"
	"slices"

	"cogentcore.org/vkrender/vkapi"
)

// PhysicalDevice describes a fake physical device.
type PhysicalDevice struct {
	Props      vkapi.PhysicalDeviceProperties
	Families   []vkapi.QueueFamily
	Present    []bool // present support per family
	Extensions []string
}

// DefaultPhysicalDevice returns a device with a single graphics
// and present queue family and the swapchain extension.
func DefaultPhysicalDevice() PhysicalDevice {
	return PhysicalDevice{
		Props: vkapi.PhysicalDeviceProperties{
			Name:                               "Fake GPU",
			APIVersion:                         vkapi.MakeVersion(1, 3, 0),
			MaxImageDimension2D:                16384,
			OptimalBufferCopyRowPitchAlignment: 256,
			OptimalBufferCopyOffsetAlignment:   16,
		},
		Families:   []vkapi.QueueFamily{{Flags: vkapi.QueueGraphics | vkapi.QueueTransfer, Count: 1}},
		Present:    []bool{true},
		Extensions: []string{vkapi.SwapchainExtension},
	}
}

// Window is a fake window.
type Window struct {
	Width, Height int
}

func (w *Window) FramebufferSize() (int, int) { return w.Width, w.Height }
func (w *Window) InstanceExtensions() []string {
	return []string{"VK_KHR_surface", "VK_KHR_fake_surface"}
}

// Image is the state of a fake image.
type Image struct {
	Info      vkapi.ImageInfo
	Swapchain vkapi.Swapchain // non-zero for swapchain images
	Destroyed bool
}

// Buffer is the state of a fake buffer.
type Buffer struct {
	Info   vkapi.BufferInfo
	Data   []byte
	Mapped bool
}

// CommandBuffer is the recording state of a fake command buffer.
type CommandBuffer struct {
	Recording  bool
	InPass     bool
	Pass       vkapi.RenderPass
	Pending    bool // submitted and not yet reset
	Recorded   []string
	Begins     int
	Generation int

	// layouts holds the image layouts set by recorded barriers,
	// which take effect when the buffer is submitted.
	layouts map[vkapi.Image]vkapi.ImageLayout
}

// Pipeline is a created pipeline.
type Pipeline struct {
	Info vkapi.GraphicsPipelineInfo
}

// Swapchain is the state of a fake swapchain.
type Swapchain struct {
	Info      vkapi.SwapchainInfo
	Images    []vkapi.Image
	Next      uint32
	Destroyed bool
}

// Barrier is a recorded pipeline barrier.
type Barrier struct {
	CommandBuffer vkapi.CommandBuffer
	Src, Dst      vkapi.PipelineStages
	vkapi.ImageBarrier
}

// PassBegin is a recorded render pass begin.
type PassBegin struct {
	CommandBuffer vkapi.CommandBuffer
	vkapi.RenderPassBegin
	LoadOp vkapi.LoadOp
}

// Submit is a recorded queue submission.
type Submit struct {
	Queue vkapi.Queue
	vkapi.SubmitInfo
	Fence vkapi.Fence
}

// Draw is a recorded draw.
type Draw struct {
	CommandBuffer vkapi.CommandBuffer
	Pipeline      vkapi.Pipeline
	VertexBuffer  vkapi.Buffer
	VertexOffset  uint64
	VertexCount   uint32
	FirstVertex   uint32
}

// Copy is a recorded buffer to image or image to buffer copy.
type Copy struct {
	CommandBuffer vkapi.CommandBuffer
	Buffer        vkapi.Buffer
	Image         vkapi.Image
	ToImage       bool
	Region        vkapi.BufferImageCopy
}

// Driver is the fake [vkapi.API]. Configure the exported fields
// before use; inspect the recorded fields afterwards.
type Driver struct {
	// configuration

	Devices      []PhysicalDevice
	Layers       []string
	Capabilities vkapi.SurfaceCapabilities
	Formats      []vkapi.SurfaceFormat
	Modes        []vkapi.PresentMode

	// fails holds queued errors per method name, returned
	// in order by subsequent calls of that method.
	fails map[string][]error

	// recorded state

	Calls          map[string]int
	Images         map[vkapi.Image]*Image
	Views          map[vkapi.ImageView]vkapi.ImageViewInfo
	Buffers        map[vkapi.Buffer]*Buffer
	RenderPasses   map[vkapi.RenderPass]vkapi.RenderPassInfo
	Framebuffers   map[vkapi.Framebuffer]vkapi.FramebufferInfo
	CommandBuffers map[vkapi.CommandBuffer]*CommandBuffer
	Fences         map[vkapi.Fence]bool // signaled
	Pipelines      map[vkapi.Pipeline]*Pipeline
	Swapchains     map[vkapi.Swapchain]*Swapchain
	Shaders        map[vkapi.ShaderModule][]byte
	Samplers       map[vkapi.Sampler]vkapi.SamplerInfo
	DescriptorSets map[vkapi.DescriptorSet][]vkapi.ImageSamplerWrite

	InstanceInfo vkapi.InstanceInfo
	DeviceInfo   vkapi.DeviceInfo
	Barriers     []Barrier
	PassBegins   []PassBegin
	Submits      []Submit
	Presents     []vkapi.PresentInfo
	Draws        []Draw
	Copies       []Copy
	Scissors     []vkapi.Rect
	Viewports    []vkapi.Viewport
	Pushes       [][]byte

	// Violations lists API usage errors, such as nested render
	// passes or recording into a buffer that is not begun.
	Violations []string

	layouts   map[vkapi.Image]vkapi.ImageLayout // as of the last submit
	live      int                               // live object count
	next      uint64
	boundPipe map[vkapi.CommandBuffer]vkapi.Pipeline
	boundVB   map[vkapi.CommandBuffer]vkapi.Buffer
	boundOff  map[vkapi.CommandBuffer]uint64
	descPools map[vkapi.DescriptorPool]uint32 // remaining sets
	poolSize  map[vkapi.DescriptorPool]uint32
}

// New returns a new fake driver with one default device, a
// surface allowing 2 to 8 images at 800x600, and RGBA/BGRA formats.
func New() *Driver {
	return &Driver{
		Devices: []PhysicalDevice{DefaultPhysicalDevice()},
		Layers:  []string{vkapi.ValidationLayer},
		Capabilities: vkapi.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  vkapi.Extent{Width: 800, Height: 600},
			MinImageExtent: vkapi.Extent{Width: 1, Height: 1},
			MaxImageExtent: vkapi.Extent{Width: 16384, Height: 16384},
		},
		Formats: []vkapi.SurfaceFormat{
			{Format: vkapi.FormatB8G8R8A8Unorm, ColorSpace: vkapi.ColorSpaceSRGBNonlinear},
			{Format: vkapi.FormatR8G8B8A8Unorm, ColorSpace: vkapi.ColorSpaceSRGBNonlinear},
		},
		Modes:          []vkapi.PresentMode{vkapi.PresentFIFO, vkapi.PresentMailbox},
		fails:          map[string][]error{},
		Calls:          map[string]int{},
		Images:         map[vkapi.Image]*Image{},
		Views:          map[vkapi.ImageView]vkapi.ImageViewInfo{},
		Buffers:        map[vkapi.Buffer]*Buffer{},
		RenderPasses:   map[vkapi.RenderPass]vkapi.RenderPassInfo{},
		Framebuffers:   map[vkapi.Framebuffer]vkapi.FramebufferInfo{},
		CommandBuffers: map[vkapi.CommandBuffer]*CommandBuffer{},
		Fences:         map[vkapi.Fence]bool{},
		Pipelines:      map[vkapi.Pipeline]*Pipeline{},
		Swapchains:     map[vkapi.Swapchain]*Swapchain{},
		Shaders:        map[vkapi.ShaderModule][]byte{},
		Samplers:       map[vkapi.Sampler]vkapi.SamplerInfo{},
		DescriptorSets: map[vkapi.DescriptorSet][]vkapi.ImageSamplerWrite{},
		layouts:        map[vkapi.Image]vkapi.ImageLayout{},
		boundPipe:      map[vkapi.CommandBuffer]vkapi.Pipeline{},
		boundVB:        map[vkapi.CommandBuffer]vkapi.Buffer{},
		boundOff:       map[vkapi.CommandBuffer]uint64{},
		descPools:      map[vkapi.DescriptorPool]uint32{},
		poolSize:       map[vkapi.DescriptorPool]uint32{},
	}
}

// FailNext makes the next call of the named method return err.
// Calling it several times queues several failures.
func (d *Driver) FailNext(method string, err error) {
	d.fails[method] = append(d.fails[method], err)
}

// call records a call of the named method and
// returns a queued failure for it, if any.
func (d *Driver) call(method string) error {
	d.Calls[method]++
	q := d.fails[method]
	if len(q) == 0 {
		return nil
	}
	d.fails[method] = q[1:]
	return q[0]
}

func (d *Driver) handle() uint64 {
	d.next++
	d.live++
	return d.next
}

func (d *Driver) release() {
	d.live--
}

func (d *Driver) violate(format string, args ...any) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

// Live returns the number of created objects that have not been destroyed.
func (d *Driver) Live() int {
	return d.live
}

// PipelinesCreated returns the number of CreateGraphicsPipeline calls.
func (d *Driver) PipelinesCreated() int {
	return d.Calls["CreateGraphicsPipeline"]
}

// PassesWith returns the recorded render pass begins using the given load op.
func (d *Driver) PassesWith(op vkapi.LoadOp) []PassBegin {
	var res []PassBegin
	for _, pb := range d.PassBegins {
		if pb.LoadOp == op {
			res = append(res, pb)
		}
	}
	return res
}

// BarriersFor returns the recorded barriers on the given image.
func (d *Driver) BarriersFor(img vkapi.Image) []Barrier {
	var res []Barrier
	for _, b := range d.Barriers {
		if b.Image == img {
			res = append(res, b)
		}
	}
	return res
}

// LastLayout returns the new layout of the last barrier on the
// given image, or [vkapi.LayoutUndefined] if it has none.
func (d *Driver) LastLayout(img vkapi.Image) vkapi.ImageLayout {
	bs := d.BarriersFor(img)
	if len(bs) == 0 {
		return vkapi.LayoutUndefined
	}
	return bs[len(bs)-1].NewLayout
}

// Layout returns the layout of the image as of the last submission.
// Images start in [vkapi.LayoutUndefined].
func (d *Driver) Layout(img vkapi.Image) vkapi.ImageLayout {
	return d.layouts[img]
}

// layoutIn returns the layout of the image at the current end of the
// command buffer.
func (d *Driver) layoutIn(cb *CommandBuffer, img vkapi.Image) vkapi.ImageLayout {
	if l, ok := cb.layouts[img]; ok {
		return l
	}
	return d.layouts[img]
}

// SwapchainImageIDs returns the images of the live swapchain.
func (d *Driver) SwapchainImageIDs() []vkapi.Image {
	for _, sc := range d.Swapchains {
		if !sc.Destroyed {
			return slices.Clone(sc.Images)
		}
	}
	return nil
}
