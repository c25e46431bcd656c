// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkrender

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"cogentcore.org/vkrender/vkapi"
)

// Vertex is the vertex layout of every pipeline.
type Vertex struct {
	Pos   [2]float32
	Tex   [2]float32
	Color [4]float32
}

// VertexSize is the size of a [Vertex] in bytes.
const VertexSize = 32

// vertexAttributes are the attributes of the single vertex binding.
var vertexAttributes = []vkapi.VertexAttribute{
	{Location: 0, Format: vkapi.VertexFloat2, Offset: 0},
	{Location: 1, Format: vkapi.VertexFloat2, Offset: 8},
	{Location: 2, Format: vkapi.VertexFloat4, Offset: 16},
}

// vertexSlot is one buffer of the vertex ring.
type vertexSlot struct {
	buf  vkapi.Buffer
	size uint64
}

// vertexRing is the rotating set of host visible vertex buffers.
// A slot is only rewritten after the ring has wrapped, and
// wrapping forces a batch that waits for all submitted work.
type vertexRing struct {
	slots []vertexSlot
	index int

	// issueBatch is set when the ring wraps, and the batch
	// is issued before the next slot is written.
	issueBatch bool

	scratch []byte
}

func (vr *vertexRing) init(n int) {
	vr.slots = make([]vertexSlot, n)
	vr.index = 0
	vr.issueBatch = false
}

func (vr *vertexRing) destroy(api vkapi.API, dev vkapi.Device) {
	for i := range vr.slots {
		s := &vr.slots[i]
		if s.buf != 0 {
			api.DestroyBuffer(dev, s.buf)
			s.buf = 0
			s.size = 0
		}
	}
	vr.index = 0
	vr.issueBatch = false
}

// updateVertexBuffer writes the vertices into the current ring slot,
// growing it if needed, binds it and advances the ring. A pending
// wrap is turned into a batch before anything is written.
func (r *Renderer) updateVertexBuffer(verts []Vertex) error {
	if len(verts) == 0 {
		return nil
	}
	vr := &r.ring
	if vr.issueBatch {
		if err := r.issueBatch(); err != nil {
			return fmt.Errorf("vkrender: intermediate batch: %w", err)
		}
	}
	vr.scratch, _ = binary.Append(vr.scratch[:0], binary.LittleEndian, verts)
	size := uint64(len(vr.scratch))

	s := &vr.slots[vr.index]
	if size > s.size {
		if s.buf != 0 {
			r.api.DestroyBuffer(r.dev, s.buf)
			s.buf = 0
			s.size = 0
		}
		buf, err := r.api.CreateBuffer(r.dev, vkapi.BufferInfo{Size: size, Usage: vkapi.BufferVertex, HostVisible: true})
		if err != nil {
			return fmt.Errorf("vkrender: vertex buffer: %w", err)
		}
		s.buf = buf
		s.size = size
		slog.Debug("vkrender: vertex buffer grown", "slot", vr.index, "size", size)
	}
	data, err := r.api.MapBuffer(r.dev, s.buf)
	if err != nil {
		return fmt.Errorf("vkrender: map vertex buffer: %w", err)
	}
	copy(data, vr.scratch)
	r.api.UnmapBuffer(r.dev, s.buf)

	r.api.CmdBindVertexBuffer(r.frame.cb, s.buf, 0)
	r.frame.vertexBuffer = s.buf

	vr.index++
	if vr.index >= len(vr.slots) {
		vr.index = 0
		vr.issueBatch = true
	}
	return nil
}
