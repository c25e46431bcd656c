// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"image"
	"testing"
	"testing/fstest"

	"cogentcore.org/vkrender/vkapi"
	"cogentcore.org/vkrender/vkapi/fakedriver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testShaders returns placeholder shader modules for the fake driver,
// which only checks that they are not empty.
func testShaders() fstest.MapFS {
	fsys := fstest.MapFS{VertexShaderFile: {Data: []byte("vertex")}}
	for sk := range numShaders {
		fsys[ShaderFile(sk)] = &fstest.MapFile{Data: []byte(sk.String())}
	}
	return fsys
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Shaders = testShaders()
	return opts
}

func newTestRenderer(t *testing.T, opts ...func(o *Options)) (*Renderer, *fakedriver.Driver) {
	t.Helper()
	d := fakedriver.New()
	o := testOptions()
	for _, f := range opts {
		f(&o)
	}
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 800, Height: 600}, ColorspaceSRGB, o)
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	return r, d
}

// newDestroyedRenderer creates a renderer, runs fn with it and
// destroys it, for checking what is left in the driver.
func newDestroyedRenderer(t *testing.T, fn func(r *Renderer)) *fakedriver.Driver {
	t.Helper()
	d := fakedriver.New()
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 800, Height: 600}, ColorspaceSRGB, testOptions())
	require.NoError(t, err)
	fn(r)
	r.Destroy()
	assert.Empty(t, d.Violations)
	return d
}

// fullViewport starts a command list with a viewport covering the window.
func fullViewport() *CommandList {
	cl := &CommandList{}
	cl.SetViewport(image.Rect(0, 0, 800, 600))
	return cl
}

func run(t *testing.T, r *Renderer, cl *CommandList) {
	t.Helper()
	require.NoError(t, r.RunCommandQueue(cl.First, cl.Vertices))
}

func TestCreateRenderer(t *testing.T) {
	r, d := newTestRenderer(t)

	caps := d.Capabilities
	n := uint32(len(r.sc.images))
	assert.GreaterOrEqual(t, n, caps.MinImageCount+FrameQueueDepth)
	assert.LessOrEqual(t, n, caps.MaxImageCount)

	ops := map[vkapi.LoadOp]bool{}
	for _, rp := range r.sc.passes {
		info, ok := d.RenderPasses[rp]
		require.True(t, ok)
		assert.Equal(t, r.sc.format.Format, info.Format)
		ops[info.LoadOp] = true
	}
	assert.True(t, ops[vkapi.LoadOpLoad])
	assert.True(t, ops[vkapi.LoadOpClear])

	require.Len(t, r.sc.fences, int(n))
	for _, f := range r.sc.fences {
		assert.True(t, d.Fences[f], "fence %d must start signaled", f)
	}
	for _, img := range r.sc.images {
		assert.Equal(t, vkapi.LayoutUndefined, img.layout)
	}
	assert.Equal(t, "Fake GPU", r.DeviceName())
	assert.Equal(t, image.Pt(800, 600), r.OutputSize())
	assert.Equal(t, []uint32{0}, d.DeviceInfo.QueueFamilies)
	assert.Contains(t, d.DeviceInfo.Extensions, vkapi.SwapchainExtension)
	assert.Empty(t, d.Violations)
}

func TestCreateRendererColorspace(t *testing.T) {
	d := fakedriver.New()
	_, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, Colorspace(5), testOptions())
	assert.ErrorIs(t, err, ErrUnsupportedColorspace)
	assert.Empty(t, d.Calls)

	d = fakedriver.New()
	d.Formats = append(d.Formats, vkapi.SurfaceFormat{Format: vkapi.FormatR16G16B16A16Sfloat, ColorSpace: vkapi.ColorSpaceExtendedSRGBLinear})
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSCRGB, testOptions())
	require.NoError(t, err)
	defer r.Destroy()
	assert.Equal(t, vkapi.FormatR16G16B16A16Sfloat, r.sc.format.Format)
}

func TestCreateRendererNoViableDevice(t *testing.T) {
	d := fakedriver.New()
	noSwapchain := fakedriver.DefaultPhysicalDevice()
	noSwapchain.Extensions = nil
	tooOld := fakedriver.DefaultPhysicalDevice()
	tooOld.Props.APIVersion = vkapi.MakeVersion(0, 9, 0)
	noPresent := fakedriver.DefaultPhysicalDevice()
	noPresent.Present = []bool{false}
	d.Devices = []fakedriver.PhysicalDevice{noSwapchain, tooOld, noPresent}

	_, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, testOptions())
	assert.ErrorIs(t, err, ErrNoViableDevice)
	assert.Equal(t, 0, d.Live())
}

func TestFindPhysicalDeviceSeparateFamilies(t *testing.T) {
	d := fakedriver.New()
	pd := fakedriver.DefaultPhysicalDevice()
	pd.Families = []vkapi.QueueFamily{
		{Flags: vkapi.QueueGraphics, Count: 1},
		{Flags: vkapi.QueueTransfer, Count: 1},
	}
	pd.Present = []bool{false, true}
	d.Devices = []fakedriver.PhysicalDevice{pd}
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, testOptions())
	require.NoError(t, err)
	defer r.Destroy()
	assert.Equal(t, uint32(0), r.gpu.gfxFamily)
	assert.Equal(t, uint32(1), r.gpu.presFamily)
	assert.Equal(t, []uint32{0, 1}, d.DeviceInfo.QueueFamilies)
}

func TestFindPhysicalDevicePrefersSharedFamily(t *testing.T) {
	d := fakedriver.New()
	pd := fakedriver.DefaultPhysicalDevice()
	pd.Families = []vkapi.QueueFamily{
		{Flags: vkapi.QueueGraphics, Count: 1},
		{Flags: vkapi.QueueTransfer, Count: 1},
		{Flags: vkapi.QueueGraphics, Count: 1},
	}
	pd.Present = []bool{false, true, true}
	d.Devices = []fakedriver.PhysicalDevice{pd}
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, testOptions())
	require.NoError(t, err)
	defer r.Destroy()
	assert.Equal(t, uint32(2), r.gpu.gfxFamily)
	assert.Equal(t, uint32(2), r.gpu.presFamily)
}

func TestFindPhysicalDeviceSkipsQueryErrors(t *testing.T) {
	for _, method := range []string{"SurfaceSupport", "DeviceExtensions"} {
		t.Run(method, func(t *testing.T) {
			d := fakedriver.New()
			second := fakedriver.DefaultPhysicalDevice()
			second.Props.Name = "Second GPU"
			d.Devices = []fakedriver.PhysicalDevice{fakedriver.DefaultPhysicalDevice(), second}
			d.FailNext(method, vkapi.ErrorSurfaceLost)
			r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, testOptions())
			require.NoError(t, err)
			defer r.Destroy()
			assert.Equal(t, "Second GPU", r.DeviceName())
		})
	}
}

func TestCreateRendererUnwinds(t *testing.T) {
	for _, method := range []string{"LoadGlobal", "CreateDevice", "CreateDescriptorPool", "CreateShaderModule", "CreateSwapchain", "CreateFramebuffer"} {
		t.Run(method, func(t *testing.T) {
			d := fakedriver.New()
			d.FailNext(method, vkapi.ErrorInitializationFailed)
			r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, testOptions())
			assert.Nil(t, r)
			assert.ErrorIs(t, err, vkapi.ErrorInitializationFailed)
			assert.Equal(t, 0, d.Live())
		})
	}
}

func TestMissingShaders(t *testing.T) {
	d := fakedriver.New()
	opts := testOptions()
	opts.Shaders = fstest.MapFS{}
	_, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go generate")
	assert.Equal(t, 0, d.Live())
}

func TestValidationLayer(t *testing.T) {
	_, d := newTestRenderer(t, func(o *Options) { o.Validation = true })
	assert.Equal(t, []string{vkapi.ValidationLayer}, d.InstanceInfo.Layers)

	d = fakedriver.New()
	d.Layers = nil
	opts := testOptions()
	opts.Validation = true
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 8, Height: 8}, ColorspaceSRGB, opts)
	require.NoError(t, err)
	defer r.Destroy()
	assert.Empty(t, d.InstanceInfo.Layers)
}

func TestDestroy(t *testing.T) {
	d := fakedriver.New()
	r, err := CreateRenderer(d, &fakedriver.Window{Width: 800, Height: 600}, ColorspaceSRGB, testOptions())
	require.NoError(t, err)

	tex, err := r.CreateTexture(16, 16, PixelFormatIYUV, TextureStreaming)
	require.NoError(t, err)
	_, _, err = r.LockTexture(tex, image.Rectangle{})
	require.NoError(t, err)
	packed, err := r.CreateTexture(16, 16, PixelFormatARGB8888, TextureStreaming)
	require.NoError(t, err)
	_, _, err = r.LockTexture(packed, image.Rectangle{})
	require.NoError(t, err)

	cl := fullViewport()
	cl.QueueDrawPoints([]FPoint{{1, 1}}, Color{1, 1, 1, 1}, BlendNone)
	run(t, r, cl)

	r.Destroy()
	assert.Equal(t, 0, d.Live())
	assert.Empty(t, d.Violations)
	assert.True(t, tex.released)
	assert.True(t, packed.released)

	r.Destroy()
	assert.Equal(t, 0, d.Live())
	assert.ErrorIs(t, r.RenderPresent(), ErrRendererDestroyed)
	_, err = r.CreateTexture(4, 4, PixelFormatARGB8888, TextureStatic)
	assert.ErrorIs(t, err, ErrRendererDestroyed)
	assert.ErrorIs(t, r.LastError(), ErrRendererDestroyed)
}

func TestLastError(t *testing.T) {
	r, _ := newTestRenderer(t)
	assert.NoError(t, r.LastError())
	_, err := r.CreateTexture(MaxTextureSize+1, 4, PixelFormatARGB8888, TextureStatic)
	assert.ErrorIs(t, err, ErrTextureTooLarge)
	assert.ErrorIs(t, r.LastError(), ErrTextureTooLarge)
	r.ClearError()
	assert.NoError(t, r.LastError())
}

func TestDeviceLost(t *testing.T) {
	r, d := newTestRenderer(t)
	tex, err := r.CreateTexture(8, 8, PixelFormatARGB8888, TextureStatic)
	require.NoError(t, err)

	cl := fullViewport()
	cl.Clear(Color{0, 0, 1, 1})
	run(t, r, cl)
	d.FailNext("QueueSubmit", vkapi.ErrorDeviceLost)
	err = r.RenderPresent()
	assert.True(t, IsDeviceLost(err))
	assert.Equal(t, 1, r.DeviceResets())
	assert.True(t, tex.released)
	assert.ErrorIs(t, r.UpdateTexture(tex, image.Rectangle{}, make([]byte, 8*8*4), 8*4), ErrTextureReleased)

	// the renderer works again with new resources
	run(t, r, cl)
	require.NoError(t, r.RenderPresent())
	assert.Empty(t, d.Violations)
	assert.Equal(t, 2, d.Calls["CreateDevice"])
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, FrameQueueDepth, o.FrameQueueDepth)
	assert.Equal(t, NumVertexBuffers, o.VertexBuffers)
	assert.Equal(t, MaxUploadsPerBatch, o.MaxUploadsPerBatch)
	assert.Equal(t, MaxTextureSize, o.MaxTextureSize)
	assert.NotNil(t, o.Shaders)
	assert.NotEmpty(t, o.AppName)

	o = Options{VertexBuffers: 4}.withDefaults()
	assert.Equal(t, 4, o.VertexBuffers)
}
