// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"cogentcore.org/vkrender/vkapi"
	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
)

// SetRenderTarget makes the texture the target of subsequent
// commands, or the swapchain image if t is nil. The previous target
// texture is moved to the shader read layout so it can be sampled,
// and the new one to the color attachment layout.
func (r *Renderer) SetRenderTarget(t *Texture) error {
	if r.destroyed {
		return r.setError(ErrRendererDestroyed)
	}
	if t != nil {
		if err := t.checkReleased(); err != nil {
			return r.setError(err)
		}
		if t.access != TextureTarget {
			return r.setError(ErrNotRenderTarget)
		}
	}
	if t == r.renderTarget {
		return nil
	}
	if err := r.activate(); err != nil {
		return r.setError(err)
	}
	r.endPass()
	if prev := r.renderTarget; prev != nil {
		r.transition(&prev.planes[0].trackedImage, vkapi.LayoutShaderReadOnly)
	}
	r.renderTarget = t
	if t != nil {
		r.transition(&t.planes[0].trackedImage, vkapi.LayoutColorAttachment)
	}
	f := &r.frame
	f.viewportDirty = true
	f.clipDirty = true
	return nil
}

// RenderTarget returns the current target texture, or nil
// for the swapchain image.
func (r *Renderer) RenderTarget() *Texture {
	return r.renderTarget
}

// ReadPixels reads back a rectangle of the current render target.
// An empty rectangle is the whole target. The work recorded so far
// is submitted and waited for.
func (r *Renderer) ReadPixels(rect image.Rectangle) (*image.RGBA, error) {
	if r.destroyed {
		return nil, r.setError(ErrRendererDestroyed)
	}
	if err := r.activate(); err != nil {
		return nil, r.setError(err)
	}
	r.endPass()
	var ti *trackedImage
	var format vkapi.Format
	var bounds image.Rectangle
	if t := r.renderTarget; t != nil {
		ti, format, bounds = &t.planes[0].trackedImage, t.planes[0].format, t.Bounds()
	} else {
		ti, format = &r.sc.images[r.frame.image], r.sc.format.Format
		bounds = image.Rect(0, 0, int(r.sc.extent.Width), int(r.sc.extent.Height))
	}
	if rect.Empty() {
		rect = bounds
	}
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil, r.setError(fmt.Errorf("%w: rectangle outside of %v", ErrInvalidPixels, bounds))
	}
	bpp := format.BytesPerPixel()
	buf, err := r.api.CreateBuffer(r.dev, vkapi.BufferInfo{
		Size:        uint64(rect.Dx() * rect.Dy() * bpp),
		Usage:       vkapi.BufferTransferDst,
		HostVisible: true,
	})
	if err != nil {
		return nil, r.setError(fmt.Errorf("vkrender: create readback buffer: %w", err))
	}
	defer r.api.DestroyBuffer(r.dev, buf)

	prev := ti.layout
	r.transition(ti, vkapi.LayoutTransferSrc)
	r.api.CmdCopyImageToBuffer(r.frame.cb, ti.image, buf, vkapi.BufferImageCopy{
		X:      int32(rect.Min.X),
		Y:      int32(rect.Min.Y),
		Width:  uint32(rect.Dx()),
		Height: uint32(rect.Dy()),
	})
	if prev == vkapi.LayoutUndefined {
		prev = vkapi.LayoutColorAttachment
	}
	r.transition(ti, prev)
	if err := r.issueBatch(); err != nil {
		return nil, r.setError(err)
	}

	data, err := r.api.MapBuffer(r.dev, buf)
	if err != nil {
		return nil, r.setError(fmt.Errorf("vkrender: map readback buffer: %w", err))
	}
	defer r.api.UnmapBuffer(r.dev, buf)
	img := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if err := convertPixels(img.Pix, data, format); err != nil {
		return nil, r.setError(err)
	}
	return img, nil
}

// convertPixels converts tightly packed pixels of the given format to RGBA.
func convertPixels(dst, src []byte, format vkapi.Format) error {
	switch format {
	case vkapi.FormatR8G8B8A8Unorm, vkapi.FormatR8G8B8A8Srgb:
		copy(dst, src)
	case vkapi.FormatB8G8R8A8Unorm, vkapi.FormatB8G8R8A8Srgb:
		for i := 0; i+3 < len(dst) && i+3 < len(src); i += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
		}
	case vkapi.FormatR16G16B16A16Sfloat:
		for i := 0; i < len(dst) && 2*i+1 < len(src); i++ {
			v := halfToFloat(binary.LittleEndian.Uint16(src[2*i:]))
			dst[i] = uint8(math32.Round(math32.Max(0, math32.Min(1, v)) * 255))
		}
	default:
		return fmt.Errorf("%w: read back of %v", ErrUnsupportedFormat, format)
	}
	return nil
}

// halfToFloat converts an IEEE 754 half precision value.
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff
	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal
		v := float32(frac) / (1 << 24)
		if sign != 0 {
			return -v
		}
		return v
	case exp == 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | frac<<13)
}

// UpdateTextureFromImage uploads src to the rectangle of a packed
// 8 bit texture, scaling it if the sizes differ. An empty rectangle
// is the whole texture.
func (r *Renderer) UpdateTextureFromImage(t *Texture, rect image.Rectangle, src image.Image) error {
	if err := r.checkTexture(t); err != nil {
		return r.setError(err)
	}
	switch t.format {
	case PixelFormatARGB8888, PixelFormatXRGB8888, PixelFormatABGR8888:
	default:
		return r.setError(fmt.Errorf("%w: image upload to %v", ErrUnsupportedFormat, t.format))
	}
	rect, err := t.textureRect(rect)
	if err != nil {
		return r.setError(err)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	sb := src.Bounds()
	if sb.Dx() == rect.Dx() && sb.Dy() == rect.Dy() {
		draw.Draw(rgba, rgba.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), src, sb, draw.Src, nil)
	}
	if t.format != PixelFormatABGR8888 {
		p := rgba.Pix
		for i := 0; i+3 < len(p); i += 4 {
			p[i], p[i+2] = p[i+2], p[i]
			if t.format == PixelFormatXRGB8888 {
				p[i+3] = 0xff
			}
		}
	}
	return r.UpdateTexture(t, rect, rgba.Pix, rgba.Stride)
}
