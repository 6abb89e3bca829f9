package exec

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/vbo/gpucore"
)

// streamBuffer is the device buffer batches are uploaded into. Uploads
// append until the buffer is full, then the buffer is orphaned: released
// and replaced, so draws still in flight keep the old storage.
type streamBuffer struct {
	id     gpucore.BufferID
	size   int
	used   int
	mapped []byte
}

func (s *streamBuffer) ensure(a *Accumulator) error {
	if s.id != gpucore.InvalidID {
		return nil
	}
	return s.allocate(a, 2*a.cfg.BufferSize)
}

func (s *streamBuffer) allocate(a *Accumulator, size int) error {
	id, err := a.cfg.Allocator.CreateBuffer(size, gpucore.StreamUsage)
	if err != nil {
		return fmt.Errorf("exec: stream buffer: %w", err)
	}
	s.id, s.size, s.used = id, size, 0
	if a.cfg.Caps.PersistentMapping {
		m, err := a.cfg.Allocator.MapBuffer(id, 0, size)
		if err != nil {
			a.cfg.Allocator.DestroyBuffer(id)
			s.id = gpucore.InvalidID
			return fmt.Errorf("exec: persistent map: %w", err)
		}
		s.mapped = m
	}
	slogger().Debug("exec: stream buffer", "buffer", uint64(id), "size", size)
	return nil
}

func (s *streamBuffer) release(a *Accumulator) {
	if s.id == gpucore.InvalidID {
		return
	}
	if s.mapped != nil {
		_ = a.cfg.Allocator.UnmapBuffer(s.id)
		s.mapped = nil
	}
	a.cfg.Allocator.DestroyBuffer(s.id)
	s.id, s.size, s.used = gpucore.InvalidID, 0, 0
}

// upload writes data and returns its offset. Without persistent mapping
// the range is mapped for the copy and unmapped before returning, so the
// buffer is never mapped while a draw reads it.
func (s *streamBuffer) upload(a *Accumulator, data []byte) (int, error) {
	if err := s.ensure(a); err != nil {
		return 0, err
	}
	off := (s.used + 3) &^ 3
	if off+len(data) > s.size {
		size := max(s.size, len(data))
		s.release(a)
		if err := s.allocate(a, size); err != nil {
			return 0, err
		}
		a.stats.Orphans++
		off = 0
	}
	if s.mapped != nil {
		copy(s.mapped[off:], data)
	} else {
		m, err := a.cfg.Allocator.MapBuffer(s.id, off, len(data))
		if err != nil {
			return 0, fmt.Errorf("exec: map stream buffer: %w", err)
		}
		copy(m, data)
		if err := a.cfg.Allocator.UnmapBuffer(s.id); err != nil {
			return 0, fmt.Errorf("exec: unmap stream buffer: %w", err)
		}
	}
	s.used = off + len(data)
	return off, nil
}

// appendWords encodes words little-endian onto dst.
func appendWords(dst []byte, words []uint32) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}
