// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"cogentcore.org/vkrender/vkapi"
)

// trackedImage is an image together with the last layout the
// engine transitioned it to. The layout must only be changed by
// recording a barrier through [Renderer.transition].
type trackedImage struct {
	image  vkapi.Image
	layout vkapi.ImageLayout
}

// transitionImage records one image barrier on the active command
// buffer. The masks are used exactly as given.
func (r *Renderer) transitionImage(img vkapi.Image, srcAccess, dstAccess vkapi.AccessFlags, srcStage, dstStage vkapi.PipelineStages, oldLayout, newLayout vkapi.ImageLayout) {
	r.api.CmdPipelineBarrier(r.frame.cb, srcStage, dstStage, vkapi.ImageBarrier{
		Image:     img,
		SrcAccess: srcAccess,
		DstAccess: dstAccess,
		OldLayout: oldLayout,
		NewLayout: newLayout,
	})
}

// srcMasks returns the access and stages that must complete
// before an image leaves the given layout.
func srcMasks(l vkapi.ImageLayout) (vkapi.AccessFlags, vkapi.PipelineStages) {
	switch l {
	case vkapi.LayoutColorAttachment:
		return vkapi.AccessColorAttachmentRead | vkapi.AccessColorAttachmentWrite, vkapi.StageColorAttachmentOutput
	case vkapi.LayoutShaderReadOnly:
		return vkapi.AccessShaderRead, vkapi.StageFragmentShader
	case vkapi.LayoutTransferDst:
		return vkapi.AccessTransferWrite, vkapi.StageTransfer
	case vkapi.LayoutTransferSrc:
		return vkapi.AccessTransferRead, vkapi.StageTransfer
	case vkapi.LayoutPresentSrc:
		return vkapi.AccessColorAttachmentRead, vkapi.StageColorAttachmentOutput
	}
	return 0, vkapi.StageTopOfPipe
}

// dstMasks returns the access and stages that wait for an
// image to enter the given layout.
func dstMasks(l vkapi.ImageLayout) (vkapi.AccessFlags, vkapi.PipelineStages) {
	switch l {
	case vkapi.LayoutColorAttachment:
		return vkapi.AccessColorAttachmentRead | vkapi.AccessColorAttachmentWrite, vkapi.StageColorAttachmentOutput
	case vkapi.LayoutShaderReadOnly:
		return vkapi.AccessShaderRead, vkapi.StageFragmentShader
	case vkapi.LayoutTransferDst:
		return vkapi.AccessTransferWrite, vkapi.StageTransfer
	case vkapi.LayoutTransferSrc:
		return vkapi.AccessTransferRead, vkapi.StageTransfer
	case vkapi.LayoutPresentSrc:
		return vkapi.AccessMemoryRead, vkapi.StageBottomOfPipe
	}
	return 0, vkapi.StageBottomOfPipe
}

// transition moves a tracked image to the given layout, deriving the
// masks from the old and new layouts. It does nothing if the image
// is already in that layout. No render pass may be open.
func (r *Renderer) transition(ti *trackedImage, layout vkapi.ImageLayout) {
	if ti.layout == layout {
		return
	}
	sa, ss := srcMasks(ti.layout)
	da, ds := dstMasks(layout)
	r.transitionImage(ti.image, sa, da, ss, ds, ti.layout, layout)
	r.frame.noteLayout(ti)
	ti.layout = layout
}
