// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import "cogentcore.org/vkrender/base/errors"

var (
	ErrTextureLocked         = errors.New("vkrender: texture is already locked")
	ErrNotLocked             = errors.New("vkrender: texture is not locked")
	ErrNotRenderTarget       = errors.New("vkrender: specified texture is not a render target")
	ErrSampleRenderTarget    = errors.New("vkrender: texture is the current render target and cannot be sampled")
	ErrNoViableDevice        = errors.New("vkrender: no viable physical devices found")
	ErrUnsupportedColorspace = errors.New("vkrender: unsupported output colorspace")
	ErrPipelineCreate        = errors.New("vkrender: unable to create required pipeline state")
	ErrInvalidViewport       = errors.New("vkrender: viewport has zero width or height")
	ErrTextureTooLarge       = errors.New("vkrender: texture dimensions exceed the maximum size")
	ErrUnsupportedFormat     = errors.New("vkrender: unsupported texture format")
	ErrInvalidPixels         = errors.New("vkrender: pixel data does not cover the rectangle")
	ErrTextureReleased       = errors.New("vkrender: texture has been released")
	ErrRendererDestroyed     = errors.New("vkrender: renderer has been destroyed")
	ErrInvalidGeometry       = errors.New("vkrender: invalid geometry")
)
