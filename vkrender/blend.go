// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"cogentcore.org/vkrender/vkapi"
)

// BlendMode is a composed blend mode. Color and alpha are
// blended independently: result = src*Src op dst*Dst.
type BlendMode struct {
	SrcColor vkapi.BlendFactor
	DstColor vkapi.BlendFactor
	ColorOp  vkapi.BlendOp
	SrcAlpha vkapi.BlendFactor
	DstAlpha vkapi.BlendFactor
	AlphaOp  vkapi.BlendOp
}

// The predefined blend modes.
var (
	// BlendNone copies the source: dst = src.
	BlendNone = BlendMode{
		SrcColor: vkapi.BlendOne, DstColor: vkapi.BlendZero, ColorOp: vkapi.BlendOpAdd,
		SrcAlpha: vkapi.BlendOne, DstAlpha: vkapi.BlendZero, AlphaOp: vkapi.BlendOpAdd,
	}

	// BlendAlpha is alpha blending.
	BlendAlpha = BlendMode{
		SrcColor: vkapi.BlendSrcAlpha, DstColor: vkapi.BlendOneMinusSrcAlpha, ColorOp: vkapi.BlendOpAdd,
		SrcAlpha: vkapi.BlendOne, DstAlpha: vkapi.BlendOneMinusSrcAlpha, AlphaOp: vkapi.BlendOpAdd,
	}

	// BlendAdd is additive blending.
	BlendAdd = BlendMode{
		SrcColor: vkapi.BlendSrcAlpha, DstColor: vkapi.BlendOne, ColorOp: vkapi.BlendOpAdd,
		SrcAlpha: vkapi.BlendZero, DstAlpha: vkapi.BlendOne, AlphaOp: vkapi.BlendOpAdd,
	}

	// BlendMod is color modulation.
	BlendMod = BlendMode{
		SrcColor: vkapi.BlendZero, DstColor: vkapi.BlendSrcColor, ColorOp: vkapi.BlendOpAdd,
		SrcAlpha: vkapi.BlendZero, DstAlpha: vkapi.BlendOne, AlphaOp: vkapi.BlendOpAdd,
	}

	// BlendMul is color multiplication.
	BlendMul = BlendMode{
		SrcColor: vkapi.BlendDstColor, DstColor: vkapi.BlendOneMinusSrcAlpha, ColorOp: vkapi.BlendOpAdd,
		SrcAlpha: vkapi.BlendZero, DstAlpha: vkapi.BlendOne, AlphaOp: vkapi.BlendOpAdd,
	}
)

// state returns the attachment blend state for the mode.
// Blending is disabled for [BlendNone].
func (bm BlendMode) state() vkapi.BlendState {
	return vkapi.BlendState{
		Enable:   bm != BlendNone,
		SrcColor: bm.SrcColor,
		DstColor: bm.DstColor,
		ColorOp:  bm.ColorOp,
		SrcAlpha: bm.SrcAlpha,
		DstAlpha: bm.DstAlpha,
		AlphaOp:  bm.AlphaOp,
	}
}
