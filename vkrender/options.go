// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"io/fs"
)

const (
	// FrameQueueDepth is the default number of swapchain images
	// requested beyond the surface minimum.
	FrameQueueDepth = 2

	// NumVertexBuffers is the default number of vertex ring slots.
	NumVertexBuffers = 256

	// MaxUploadsPerBatch is the default number of texture uploads
	// recorded before an intermediate batch is forced.
	MaxUploadsPerBatch = 32

	// MaxTextureSize is the default largest texture dimension.
	MaxTextureSize = 16384
)

// Options are the engine tunables of a [Renderer].
type Options struct {

	// AppName is passed to the instance as the application name.
	AppName string

	// FrameQueueDepth is added to the minimum swapchain image count.
	FrameQueueDepth int

	// VertexBuffers is the number of vertex ring slots. Wrapping
	// the ring forces an intermediate batch submission.
	VertexBuffers int

	// MaxUploadsPerBatch is the number of texture uploads after
	// which an intermediate batch is forced.
	MaxUploadsPerBatch int

	// MaxTextureSize is the largest allowed texture width or height.
	// It is further limited by the device.
	MaxTextureSize int

	// VSync selects FIFO presentation.
	VSync bool

	// Validation enables the validation layer when it is installed.
	Validation bool

	// WaitIdleOnPresent waits for the device to be idle after
	// submission and after presentation.
	WaitIdleOnPresent bool

	// Shaders holds the SPIR-V shader modules, named
	// vertex.vert.spv and <variant>.frag.spv. Nil uses the
	// modules embedded in this package.
	Shaders fs.FS
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		AppName:            "vkrender",
		FrameQueueDepth:    FrameQueueDepth,
		VertexBuffers:      NumVertexBuffers,
		MaxUploadsPerBatch: MaxUploadsPerBatch,
		MaxTextureSize:     MaxTextureSize,
		VSync:              true,
	}
}

// withDefaults fills zero fields with default values.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AppName == "" {
		o.AppName = def.AppName
	}
	if o.FrameQueueDepth <= 0 {
		o.FrameQueueDepth = def.FrameQueueDepth
	}
	if o.VertexBuffers <= 0 {
		o.VertexBuffers = def.VertexBuffers
	}
	if o.MaxUploadsPerBatch <= 0 {
		o.MaxUploadsPerBatch = def.MaxUploadsPerBatch
	}
	if o.MaxTextureSize <= 0 {
		o.MaxTextureSize = def.MaxTextureSize
	}
	if o.Shaders == nil {
		o.Shaders = embeddedShaders()
	}
	return o
}
