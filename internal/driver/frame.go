package driver

import "hash/adler32"

const (
	frameSignature = 0xDECAFBAD

	tagSize       = 16
	headerSize    = 4 + 4 + 4 + tagSize + 4 + 4 // signature+checksum+sequence+type+payload_size+num_kv
	kvHeaderSize  = tagSize + 4                 // key+obj_size
	checksumStart = 4
)

// KeyedObject is one tagged, length-prefixed chunk inside a frame's
// payload, per spec §3/§6. Key is matched case-insensitively by callers;
// it is stored verbatim here.
type KeyedObject struct {
	Key   string
	Bytes []byte
}

// Frame is the decoded outer wire unit: signature, checksum, sequence,
// type tag, and keyed-object array (spec §3).
type Frame struct {
	TypeTag  string
	Sequence uint32
	KV       []KeyedObject
}

// Lookup returns the keyed object named key, matched case-insensitively,
// per spec §4.1's "materialize as a case-insensitive mapping". Duplicate
// keys: last write wins.
func (f *Frame) Lookup(key string) ([]byte, bool) {
	var found []byte
	var ok bool
	for _, kv := range f.KV {
		if equalFoldASCII(kv.Key, key) {
			found = kv.Bytes
			ok = true
		}
	}
	return found, ok
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// EncodeFrame serializes typeTag/sequence/kv into a complete wire frame,
// computing the Adler-32 checksum over the whole frame with the checksum
// field zeroed, per spec §4.1.
func EncodeFrame(typeTag string, sequence uint32, kv []KeyedObject) ([]byte, error) {
	if len(typeTag) > tagSize {
		return nil, newError(KindBadFrame, "type tag %q exceeds %d bytes", typeTag, tagSize)
	}
	for _, o := range kv {
		if len(o.Key) > tagSize {
			return nil, newError(KindBadFrame, "keyed object key %q exceeds %d bytes", o.Key, tagSize)
		}
	}

	payloadSize := headerSize
	for _, o := range kv {
		payloadSize += kvHeaderSize + len(o.Bytes)
	}

	b := newBuffer(payloadSize)
	b.writeUint32(frameSignature)
	b.writeUint32(0) // checksum placeholder
	b.writeUint32(sequence)
	b.writeTag(typeTag, tagSize)
	b.writeUint32(uint32(payloadSize))
	b.writeUint32(uint32(len(kv)))
	for _, o := range kv {
		b.writeTag(o.Key, tagSize)
		b.writeUint32(uint32(len(o.Bytes)))
		off := b.grow(len(o.Bytes))
		copy(b.data[off:], o.Bytes)
	}

	out := b.bytes()
	checksum := adler32.Checksum(out)
	// The checksum itself must be computed with the field zeroed, which
	// it already is at this point; now fill it in place.
	out[4] = byte(checksum >> 24)
	out[5] = byte(checksum >> 16)
	out[6] = byte(checksum >> 8)
	out[7] = byte(checksum)

	return out, nil
}

// DecodeFrame attempts to decode one frame from the front of buf.
//
// It returns (frame, consumed, nil) on success, where consumed is the
// frame's length, which the caller removes from the stream. It returns (nil, 0, errNeedMore) if buf does not yet
// hold a complete frame — the caller must not consume anything and must
// retry after more bytes arrive. Any other error is structural and
// terminal for the session (spec §4.1: "the codec must never leave the
// stream half-consumed").
func DecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < headerSize {
		return nil, 0, errNeedMore
	}

	r := newReader(buf[:headerSize])
	signature, _ := r.readUint32()
	if signature != frameSignature {
		return nil, 0, newError(KindBadSignature, "got 0x%08x", signature)
	}

	storedChecksum, _ := r.readUint32()
	sequence, _ := r.readUint32()
	typeTag, _ := r.readTag(tagSize)
	payloadSize, _ := r.readUint32()
	numKV, _ := r.readUint32()

	if payloadSize < uint32(headerSize) {
		return nil, 0, newError(KindBadFrame, "payload_size %d smaller than header", payloadSize)
	}
	if uint64(payloadSize) > uint64(len(buf)) {
		return nil, 0, errNeedMore
	}

	frameBytes := buf[:payloadSize]

	check := make([]byte, len(frameBytes))
	copy(check, frameBytes)
	check[4], check[5], check[6], check[7] = 0, 0, 0, 0
	computed := adler32.Checksum(check)
	if computed != storedChecksum {
		return nil, 0, newError(KindBadChecksum, "invalid checksum: got 0x%08x want 0x%08x", storedChecksum, computed)
	}

	kvs, err := decodeKeyedObjects(frameBytes[headerSize:], int(numKV))
	if err != nil {
		return nil, 0, err
	}

	return &Frame{TypeTag: typeTag, Sequence: sequence, KV: kvs}, int(payloadSize), nil
}

// decodeKeyedObjects walks count keyed objects out of payload, each
// advancing by kvHeaderSize+obj_size, bound-checked against the
// remaining payload per spec §4.1.
func decodeKeyedObjects(payload []byte, count int) ([]KeyedObject, error) {
	r := newReader(payload)
	out := make([]KeyedObject, 0, count)
	for i := 0; i < count; i++ {
		key, err := r.readTag(tagSize)
		if err != nil {
			return nil, newError(KindBadFrame, "truncated keyed object %d key: %v", i, err)
		}
		size, err := r.readUint32()
		if err != nil {
			return nil, newError(KindBadFrame, "truncated keyed object %d size: %v", i, err)
		}
		if r.remaining() < int(size) {
			return nil, newError(KindBadFrame, "keyed object %d size %d overflows payload", i, size)
		}
		data, err := r.need(int(size))
		if err != nil {
			return nil, newError(KindBadFrame, "keyed object %d body: %v", i, err)
		}
		body := make([]byte, size)
		copy(body, r.data[data:data+int(size)])
		out = append(out, KeyedObject{Key: key, Bytes: body})
	}
	return out, nil
}
