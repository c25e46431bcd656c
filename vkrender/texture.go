// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/vkrender/vkapi"
)

// PixelFormat is the client pixel format of a texture.
// Packed formats are named from the most significant byte
// of a little endian 32 bit pixel.
type PixelFormat int32

const (
	PixelFormatARGB8888 PixelFormat = iota
	PixelFormatXRGB8888
	PixelFormatABGR8888
	PixelFormatRGBA64Float

	// PixelFormatYV12 is planar Y, then V, then U.
	PixelFormatYV12

	// PixelFormatIYUV is planar Y, then U, then V.
	PixelFormatIYUV

	// PixelFormatNV12 is planar Y, then interleaved U and V.
	PixelFormatNV12

	// PixelFormatNV21 is planar Y, then interleaved V and U.
	PixelFormatNV21
)

var pixelFormatNames = [...]string{"ARGB8888", "XRGB8888", "ABGR8888", "RGBA64Float", "YV12", "IYUV", "NV12", "NV21"}

func (pf PixelFormat) String() string {
	if pf < 0 || int(pf) >= len(pixelFormatNames) {
		return fmt.Sprintf("PixelFormat(%d)", int32(pf))
	}
	return pixelFormatNames[pf]
}

// planar3 returns whether the format has separate U and V planes.
func (pf PixelFormat) planar3() bool {
	return pf == PixelFormatYV12 || pf == PixelFormatIYUV
}

// nv returns whether the format has an interleaved chroma plane.
func (pf PixelFormat) nv() bool {
	return pf == PixelFormatNV12 || pf == PixelFormatNV21
}

// yuv returns whether the format needs YUV to RGB conversion.
func (pf PixelFormat) yuv() bool {
	return pf.planar3() || pf.nv()
}

// format returns the image format of packed formats and of the Y plane.
func (pf PixelFormat) format() (vkapi.Format, error) {
	switch pf {
	case PixelFormatARGB8888, PixelFormatXRGB8888:
		return vkapi.FormatB8G8R8A8Unorm, nil
	case PixelFormatABGR8888:
		return vkapi.FormatR8G8B8A8Unorm, nil
	case PixelFormatRGBA64Float:
		return vkapi.FormatR16G16B16A16Sfloat, nil
	case PixelFormatYV12, PixelFormatIYUV, PixelFormatNV12, PixelFormatNV21:
		return vkapi.FormatR8Unorm, nil
	}
	return vkapi.FormatUndefined, fmt.Errorf("%w: %v", ErrUnsupportedFormat, pf)
}

// shader returns the fragment shader that samples the format.
func (pf PixelFormat) shader() ShaderKind {
	switch pf {
	case PixelFormatYV12, PixelFormatIYUV:
		return ShaderYUV
	case PixelFormatNV12:
		return ShaderNV12
	case PixelFormatNV21:
		return ShaderNV21
	}
	return ShaderRGB
}

// TextureAccess is how a texture is used.
type TextureAccess int32

const (
	// TextureStatic is rarely updated.
	TextureStatic TextureAccess = iota

	// TextureStreaming is updated often, typically through [Renderer.LockTexture].
	TextureStreaming

	// TextureTarget can be set as the render target.
	TextureTarget
)

// ScaleMode is the filter used when sampling a texture.
type ScaleMode int32

const (
	ScaleNearest ScaleMode = iota
	ScaleLinear
	numScaleModes
)

// plane is one image of a texture.
type plane struct {
	trackedImage
	view          vkapi.ImageView
	format        vkapi.Format
	width, height int
}

func (p *plane) bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// Texture is a texture with one image per plane: one for packed
// formats, two for NV12 and NV21, and three for YV12 and IYUV.
// Planes are always ordered Y, U, V or Y, UV.
type Texture struct {
	r       *Renderer
	width   int
	height  int
	format  PixelFormat
	access  TextureAccess
	scale   ScaleMode
	yuvMode YUVConversion

	planes []plane

	// render target passes and framebuffer, for [TextureTarget]
	passes      [2]vkapi.RenderPass
	framebuffer vkapi.Framebuffer

	locked   bool
	lockRect image.Rectangle

	// lockBuf is the mapped staging buffer of a locked packed texture.
	lockBuf   vkapi.Buffer
	lockPitch int

	// shadow is the CPU copy of a YUV texture used for locking:
	// the Y plane followed by the chroma plane or planes, in the
	// order of the pixel format, each with a pitch of its width.
	shadow []byte

	released bool
}

func (t *Texture) Width() int { return t.width }
func (t *Texture) Height() int { return t.height }
func (t *Texture) Format() PixelFormat { return t.format }
func (t *Texture) Access() TextureAccess { return t.access }
func (t *Texture) ScaleMode() ScaleMode { return t.scale }
func (t *Texture) YUVConversion() YUVConversion { return t.yuvMode }

// Bounds returns the rectangle of the whole texture.
func (t *Texture) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.width, t.height)
}

// SetScaleMode sets the filter used when the texture is sampled.
func (t *Texture) SetScaleMode(sm ScaleMode) {
	if sm >= 0 && sm < numScaleModes {
		t.scale = sm
	}
}

// SetYUVConversion sets the matrix used to convert YUV textures to RGB.
func (t *Texture) SetYUVConversion(mode YUVConversion) {
	if mode >= 0 && int(mode) < len(yuvMatrices) {
		t.yuvMode = mode
	}
}

// Locked returns whether the texture is locked.
func (t *Texture) Locked() bool {
	return t.locked
}

func (t *Texture) checkReleased() error {
	if t.released {
		return ErrTextureReleased
	}
	return nil
}

// defaultYUVConversion is BT.601 for standard definition
// sizes and BT.709 above.
func defaultYUVConversion(height int) YUVConversion {
	if height <= 576 {
		return YUVConversionBT601
	}
	return YUVConversionBT709
}

// chromaSize returns the size of a chroma plane, rounded up.
func chromaSize(w, h int) (int, int) {
	return (w + 1) / 2, (h + 1) / 2
}

// chromaRect returns the chroma plane rectangle covering r.
func chromaRect(r image.Rectangle) image.Rectangle {
	x, y := r.Min.X/2, r.Min.Y/2
	return image.Rect(x, y, x+(r.Dx()+1)/2, y+(r.Dy()+1)/2)
}

// maxTextureSize returns the largest texture dimension.
func (r *Renderer) maxTextureSize() int {
	mx := r.opts.MaxTextureSize
	if d := int(r.gpu.props.MaxImageDimension2D); d > 0 && d < mx {
		mx = d
	}
	return mx
}

// CreateTexture creates a texture. All planes start in the undefined
// layout and are moved to the transfer destination layout by their
// first upload.
func (r *Renderer) CreateTexture(width, height int, format PixelFormat, access TextureAccess) (*Texture, error) {
	if r.destroyed {
		return nil, r.setError(ErrRendererDestroyed)
	}
	if width <= 0 || height <= 0 {
		return nil, r.setError(fmt.Errorf("vkrender: invalid texture size %dx%d", width, height))
	}
	if mx := r.maxTextureSize(); width > mx || height > mx {
		return nil, r.setError(fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, width, height, mx))
	}
	vf, err := format.format()
	if err != nil {
		return nil, r.setError(err)
	}
	if access == TextureTarget && format.yuv() {
		return nil, r.setError(fmt.Errorf("%w: %v render target", ErrUnsupportedFormat, format))
	}
	t := &Texture{
		r:       r,
		width:   width,
		height:  height,
		format:  format,
		access:  access,
		scale:   ScaleLinear,
		yuvMode: defaultYUVConversion(height),
	}
	cw, ch := chromaSize(width, height)
	t.planes = append(t.planes, plane{format: vf, width: width, height: height})
	switch {
	case format.planar3():
		t.planes = append(t.planes,
			plane{format: vkapi.FormatR8Unorm, width: cw, height: ch},
			plane{format: vkapi.FormatR8Unorm, width: cw, height: ch})
	case format.nv():
		t.planes = append(t.planes, plane{format: vkapi.FormatR8G8Unorm, width: cw, height: ch})
	}

	usage := vkapi.ImageSampled | vkapi.ImageTransferDst | vkapi.ImageTransferSrc
	if access == TextureTarget {
		usage |= vkapi.ImageColorAttachment
	}
	for i := range t.planes {
		p := &t.planes[i]
		p.image, err = r.api.CreateImage(r.dev, vkapi.ImageInfo{Width: uint32(p.width), Height: uint32(p.height), Format: p.format, Usage: usage})
		if err != nil {
			t.release()
			return nil, r.setError(fmt.Errorf("vkrender: create texture image: %w", err))
		}
		p.layout = vkapi.LayoutUndefined
		p.view, err = r.api.CreateImageView(r.dev, vkapi.ImageViewInfo{Image: p.image, Format: p.format})
		if err != nil {
			t.release()
			return nil, r.setError(fmt.Errorf("vkrender: create texture view: %w", err))
		}
	}
	if access == TextureTarget {
		for _, op := range []vkapi.LoadOp{vkapi.LoadOpLoad, vkapi.LoadOpClear} {
			t.passes[op], err = r.api.CreateRenderPass(r.dev, vkapi.RenderPassInfo{Format: vf, LoadOp: op})
			if err != nil {
				t.release()
				return nil, r.setError(fmt.Errorf("vkrender: create texture render pass: %w", err))
			}
		}
		t.framebuffer, err = r.api.CreateFramebuffer(r.dev, vkapi.FramebufferInfo{
			RenderPass: t.passes[vkapi.LoadOpLoad],
			View:       t.planes[0].view,
			Width:      uint32(width),
			Height:     uint32(height),
		})
		if err != nil {
			t.release()
			return nil, r.setError(fmt.Errorf("vkrender: create texture framebuffer: %w", err))
		}
	}
	r.textures[t] = struct{}{}
	slog.Debug("vkrender: created texture", "width", width, "height", height, "format", format, "planes", len(t.planes))
	return t, nil
}

// release destroys the GPU objects of the texture. The GPU must
// no longer use them.
func (t *Texture) release() {
	r := t.r
	if t.lockBuf != 0 {
		r.api.UnmapBuffer(r.dev, t.lockBuf)
		r.api.DestroyBuffer(r.dev, t.lockBuf)
		t.lockBuf = 0
	}
	if t.framebuffer != 0 {
		r.api.DestroyFramebuffer(r.dev, t.framebuffer)
		t.framebuffer = 0
	}
	for op, rp := range t.passes {
		if rp != 0 {
			r.api.DestroyRenderPass(r.dev, rp)
			t.passes[op] = 0
		}
	}
	for i := range t.planes {
		p := &t.planes[i]
		if p.view != 0 {
			r.api.DestroyImageView(r.dev, p.view)
			p.view = 0
		}
		if p.image != 0 {
			r.api.DestroyImage(r.dev, p.image)
			p.image = 0
		}
	}
	t.locked = false
	t.shadow = nil
	t.released = true
	delete(r.textures, t)
}

// DestroyTexture releases the texture. Work that may still use it is
// submitted and waited for first. Destroying the current render
// target restores the swapchain target.
func (r *Renderer) DestroyTexture(t *Texture) error {
	if t == nil || t.released {
		return nil
	}
	if r.renderTarget == t {
		if err := r.SetRenderTarget(nil); err != nil {
			return err
		}
	}
	if err := r.drain(); err != nil {
		return r.setError(err)
	}
	t.release()
	return nil
}

// drain makes sure the GPU no longer uses any resource referenced
// by recorded commands.
func (r *Renderer) drain() error {
	if r.frame.cb != 0 {
		return r.issueBatch()
	}
	if len(r.sc.fences) > 0 {
		return r.waitAll()
	}
	return nil
}

// rowPitch returns the staging row pitch for rows of n bytes of
// pixels of bpp bytes, aligned to the device copy row alignment.
func (r *Renderer) rowPitch(n, bpp int) int {
	align := int(r.gpu.props.OptimalBufferCopyRowPitchAlignment)
	if align > 1 {
		n = (n + align - 1) / align * align
	}
	if bpp > 1 && n%bpp != 0 {
		n += bpp - n%bpp
	}
	return n
}

// uploadPlane copies the rectangle of the plane from src, whose rows
// are pitch bytes apart, through a staging buffer.
func (r *Renderer) uploadPlane(p *plane, rect image.Rectangle, src []byte, pitch int) error {
	if rect.Empty() {
		return nil
	}
	if !rect.In(p.bounds()) {
		return fmt.Errorf("%w: rectangle %v outside of %v", ErrInvalidPixels, rect, p.bounds())
	}
	bpp := p.format.BytesPerPixel()
	row := rect.Dx() * bpp
	if pitch < row || len(src) < (rect.Dy()-1)*pitch+row {
		return fmt.Errorf("%w: %d bytes with pitch %d for %v", ErrInvalidPixels, len(src), pitch, rect)
	}
	spitch := r.rowPitch(row, bpp)
	buf, err := r.api.CreateBuffer(r.dev, vkapi.BufferInfo{
		Size:        uint64(spitch * rect.Dy()),
		Usage:       vkapi.BufferTransferSrc,
		HostVisible: true,
	})
	if err != nil {
		return fmt.Errorf("vkrender: create staging buffer: %w", err)
	}
	data, err := r.api.MapBuffer(r.dev, buf)
	if err != nil {
		r.api.DestroyBuffer(r.dev, buf)
		return fmt.Errorf("vkrender: map staging buffer: %w", err)
	}
	for y := range rect.Dy() {
		copy(data[y*spitch:y*spitch+row], src[y*pitch:y*pitch+row])
	}
	r.api.UnmapBuffer(r.dev, buf)
	return r.recordUpload(p, buf, spitch, rect)
}

// recordUpload records the copy of a staging buffer into the plane.
// The buffer is owned by the current slot from then on, and released
// when its work has completed.
func (r *Renderer) recordUpload(p *plane, buf vkapi.Buffer, pitch int, rect image.Rectangle) error {
	if err := r.activate(); err != nil {
		r.api.DestroyBuffer(r.dev, buf)
		return err
	}
	r.endPass()
	f := &r.frame
	r.transition(&p.trackedImage, vkapi.LayoutTransferDst)
	r.api.CmdCopyBufferToImage(f.cb, buf, p.image, vkapi.BufferImageCopy{
		RowLength: uint32(pitch / p.format.BytesPerPixel()),
		X:         int32(rect.Min.X),
		Y:         int32(rect.Min.Y),
		Width:     uint32(rect.Dx()),
		Height:    uint32(rect.Dy()),
	})
	r.transition(&p.trackedImage, vkapi.LayoutShaderReadOnly)
	f.staging[f.slot] = append(f.staging[f.slot], buf)
	f.uploads++
	if f.uploads >= r.opts.MaxUploadsPerBatch {
		return r.issueBatch()
	}
	return nil
}

// textureRect returns rect limited to the texture, with an empty
// rectangle meaning the whole texture.
func (t *Texture) textureRect(rect image.Rectangle) (image.Rectangle, error) {
	if rect.Empty() {
		return t.Bounds(), nil
	}
	if !rect.In(t.Bounds()) {
		return rect, fmt.Errorf("%w: rectangle %v outside of %v", ErrInvalidPixels, rect, t.Bounds())
	}
	return rect, nil
}

func (r *Renderer) checkTexture(t *Texture) error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if t == nil {
		return ErrTextureReleased
	}
	return t.checkReleased()
}

// UpdateTexture uploads pixels to the rectangle of the texture,
// with rows pitch bytes apart. An empty rectangle is the whole
// texture. For YUV formats the chroma planes follow the Y plane
// in pixels, in the order of the format, with a pitch of
// (pitch+1)/2 for separate planes and the same rounded up to an
// even count for an interleaved plane.
func (r *Renderer) UpdateTexture(t *Texture, rect image.Rectangle, pixels []byte, pitch int) error {
	if err := r.checkTexture(t); err != nil {
		return r.setError(err)
	}
	rect, err := t.textureRect(rect)
	if err != nil {
		return r.setError(err)
	}
	if err := r.uploadPlane(&t.planes[0], rect, pixels, pitch); err != nil {
		return r.setError(err)
	}
	if !t.format.yuv() {
		return nil
	}
	crect := chromaRect(rect)
	off := rect.Dy() * pitch
	cpitch := (pitch + 1) / 2
	next := func(n int) []byte {
		if off >= len(pixels) {
			return nil
		}
		s := pixels[off:]
		off += n
		return s
	}
	if t.format.nv() {
		uvpitch := cpitch * 2
		return r.setError(r.uploadPlane(&t.planes[1], crect, next(crect.Dy()*uvpitch), uvpitch))
	}
	first, second := &t.planes[1], &t.planes[2]
	if t.format == PixelFormatYV12 {
		first, second = second, first
	}
	if err := r.uploadPlane(first, crect, next(crect.Dy()*cpitch), cpitch); err != nil {
		return r.setError(err)
	}
	return r.setError(r.uploadPlane(second, crect, next(crect.Dy()*cpitch), cpitch))
}

// UpdateTextureYUV uploads separate Y, U and V planes to the
// rectangle of a YV12 or IYUV texture.
func (r *Renderer) UpdateTextureYUV(t *Texture, rect image.Rectangle, y []byte, yPitch int, u []byte, uPitch int, v []byte, vPitch int) error {
	if err := r.checkTexture(t); err != nil {
		return r.setError(err)
	}
	if !t.format.planar3() {
		return r.setError(fmt.Errorf("%w: %v is not planar YUV", ErrUnsupportedFormat, t.format))
	}
	rect, err := t.textureRect(rect)
	if err != nil {
		return r.setError(err)
	}
	crect := chromaRect(rect)
	if err := r.uploadPlane(&t.planes[0], rect, y, yPitch); err != nil {
		return r.setError(err)
	}
	if err := r.uploadPlane(&t.planes[1], crect, u, uPitch); err != nil {
		return r.setError(err)
	}
	return r.setError(r.uploadPlane(&t.planes[2], crect, v, vPitch))
}

// UpdateTextureNV uploads a Y plane and an interleaved chroma
// plane to the rectangle of an NV12 or NV21 texture.
func (r *Renderer) UpdateTextureNV(t *Texture, rect image.Rectangle, y []byte, yPitch int, uv []byte, uvPitch int) error {
	if err := r.checkTexture(t); err != nil {
		return r.setError(err)
	}
	if !t.format.nv() {
		return r.setError(fmt.Errorf("%w: %v is not NV12 or NV21", ErrUnsupportedFormat, t.format))
	}
	rect, err := t.textureRect(rect)
	if err != nil {
		return r.setError(err)
	}
	if err := r.uploadPlane(&t.planes[0], rect, y, yPitch); err != nil {
		return r.setError(err)
	}
	return r.setError(r.uploadPlane(&t.planes[1], chromaRect(rect), uv, uvPitch))
}

// LockTexture locks the rectangle of the texture for writing, and
// returns the pixels and their pitch. An empty rectangle is the whole
// texture. Packed formats are written into a mapped staging buffer.
// YUV formats are written into a CPU copy of the texture laid out as
// for [Renderer.UpdateTexture] with a pitch of the texture width, and
// the returned slice starts at the rectangle in the Y plane.
// A texture can only be locked once at a time.
func (r *Renderer) LockTexture(t *Texture, rect image.Rectangle) ([]byte, int, error) {
	if err := r.checkTexture(t); err != nil {
		return nil, 0, r.setError(err)
	}
	if t.locked {
		return nil, 0, r.setError(ErrTextureLocked)
	}
	rect, err := t.textureRect(rect)
	if err != nil {
		return nil, 0, r.setError(err)
	}
	if t.format.yuv() {
		if t.shadow == nil {
			cw, ch := chromaSize(t.width, t.height)
			t.shadow = make([]byte, t.width*t.height+2*cw*ch)
		}
		t.locked = true
		t.lockRect = rect
		return t.shadow[rect.Min.Y*t.width+rect.Min.X:], t.width, nil
	}

	p := &t.planes[0]
	pitch := r.rowPitch(rect.Dx()*p.format.BytesPerPixel(), p.format.BytesPerPixel())
	buf, err := r.api.CreateBuffer(r.dev, vkapi.BufferInfo{
		Size:        uint64(pitch * rect.Dy()),
		Usage:       vkapi.BufferTransferSrc,
		HostVisible: true,
	})
	if err != nil {
		return nil, 0, r.setError(fmt.Errorf("vkrender: create staging buffer: %w", err))
	}
	data, err := r.api.MapBuffer(r.dev, buf)
	if err != nil {
		r.api.DestroyBuffer(r.dev, buf)
		return nil, 0, r.setError(fmt.Errorf("vkrender: map staging buffer: %w", err))
	}
	t.locked = true
	t.lockRect = rect
	t.lockBuf = buf
	t.lockPitch = pitch
	return data, pitch, nil
}

// UnlockTexture uploads the locked rectangle and unlocks the texture.
func (r *Renderer) UnlockTexture(t *Texture) error {
	if err := r.checkTexture(t); err != nil {
		return r.setError(err)
	}
	if !t.locked {
		return r.setError(ErrNotLocked)
	}
	t.locked = false
	rect := t.lockRect
	if !t.format.yuv() {
		buf := t.lockBuf
		t.lockBuf = 0
		r.api.UnmapBuffer(r.dev, buf)
		return r.setError(r.recordUpload(&t.planes[0], buf, t.lockPitch, rect))
	}

	w, h := t.width, t.height
	cw, ch := chromaSize(w, h)
	crect := chromaRect(rect)
	if err := r.uploadPlane(&t.planes[0], rect, t.shadow[rect.Min.Y*w+rect.Min.X:], w); err != nil {
		return r.setError(err)
	}
	base := w * h
	if t.format.nv() {
		src := t.shadow[base+crect.Min.Y*2*cw+crect.Min.X*2:]
		return r.setError(r.uploadPlane(&t.planes[1], crect, src, 2*cw))
	}
	first, second := &t.planes[1], &t.planes[2]
	if t.format == PixelFormatYV12 {
		first, second = second, first
	}
	off := crect.Min.Y*cw + crect.Min.X
	if err := r.uploadPlane(first, crect, t.shadow[base+off:], cw); err != nil {
		return r.setError(err)
	}
	return r.setError(r.uploadPlane(second, crect, t.shadow[base+cw*ch+off:], cw))
}
