// Package driver implements the core bidirectional control-plane driver
// for a capture source: frame codec, keyed-object codec, command
// tracker, protocol dispatcher, and source lifecycle. It consumes the
// transport, sink, timer, log and tracked packages as interfaces; it
// never imports them in the other direction.
package driver

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is returned by reader methods when fewer bytes remain
// than the read requires. DecodeFrame reports need-more from its own
// header and payload_size length checks; a short read inside a complete
// frame's keyed objects or sub-payloads is wrapped as a structural error.
var ErrShortBuffer = errors.New("driver: insufficient data in buffer")

// buffer is a growable byte buffer for big-endian wire encoding, used by
// both the frame codec and the self-describing sub-payload codec. All
// multi-byte integers are big-endian, per spec.
type buffer struct {
	data []byte
}

func newBuffer(cap int) *buffer {
	return &buffer{data: make([]byte, 0, cap)}
}

func (b *buffer) bytes() []byte { return b.data }
func (b *buffer) len() int      { return len(b.data) }

func (b *buffer) grow(n int) int {
	off := len(b.data)
	need := off + n
	if need <= cap(b.data) {
		b.data = b.data[:need]
		return off
	}
	newCap := cap(b.data) * 2
	if newCap < need {
		newCap = need
	}
	tmp := make([]byte, need, newCap)
	copy(tmp, b.data)
	b.data = tmp
	return off
}

func (b *buffer) writeUint8(v uint8) {
	off := b.grow(1)
	b.data[off] = v
}

func (b *buffer) writeUint32(v uint32) {
	off := b.grow(4)
	binary.BigEndian.PutUint32(b.data[off:], v)
}

func (b *buffer) writeUint64(v uint64) {
	off := b.grow(8)
	binary.BigEndian.PutUint64(b.data[off:], v)
}

func (b *buffer) writeInt32(v int32) { b.writeUint32(uint32(v)) }

func (b *buffer) writeFloat64(v float64) {
	b.writeUint64(math.Float64bits(v))
}

func (b *buffer) writeBool(v bool) {
	if v {
		b.writeUint8(1)
	} else {
		b.writeUint8(0)
	}
}

// writeString writes a uint32-length-prefixed UTF-8 string.
func (b *buffer) writeString(s string) {
	b.writeUint32(uint32(len(s)))
	off := b.grow(len(s))
	copy(b.data[off:], s)
}

// writeBytes writes a uint32-length-prefixed byte slice.
func (b *buffer) writeBytes(p []byte) {
	b.writeUint32(uint32(len(p)))
	off := b.grow(len(p))
	copy(b.data[off:], p)
}

// writeTag writes s left-justified and NUL-padded into exactly n bytes.
// Panics (via caller validation upstream) should never occur here:
// callers must bound-check s before calling.
func (b *buffer) writeTag(s string, n int) {
	off := b.grow(n)
	copy(b.data[off:off+n], s)
}

// reader provides sequential, zero-copy big-endian decoding.
type reader struct {
	data   []byte
	offset int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int { return len(r.data) - r.offset }

func (r *reader) need(n int) (int, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return 0, ErrShortBuffer
	}
	off := r.offset
	r.offset += n
	return off, nil
}

func (r *reader) readUint8() (uint8, error) {
	off, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return r.data[off], nil
}

func (r *reader) readUint32() (uint32, error) {
	off, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.data[off:]), nil
}

func (r *reader) readUint64() (uint64, error) {
	off, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.data[off:]), nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readFloat64() (float64, error) {
	v, err := r.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (r *reader) readBool() (bool, error) {
	v, err := r.readUint8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (r *reader) readString() (string, error) {
	length, err := r.readUint32()
	if err != nil {
		return "", err
	}
	off, err := r.need(int(length))
	if err != nil {
		return "", err
	}
	return string(r.data[off : off+int(length)]), nil
}

func (r *reader) readBytes() ([]byte, error) {
	length, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	off, err := r.need(int(length))
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, r.data[off:off+int(length)])
	return out, nil
}

// readTag reads exactly n bytes and trims trailing NULs, yielding the
// ASCII tag text.
func (r *reader) readTag(n int) (string, error) {
	off, err := r.need(n)
	if err != nil {
		return "", err
	}
	raw := r.data[off : off+n]
	end := n
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end]), nil
}
