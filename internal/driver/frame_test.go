package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	kv := []KeyedObject{
		{Key: "DEFINITION", Bytes: []byte("wlan0")},
		{Key: "success", Bytes: []byte{1, 0, 0, 0, 7}},
	}
	buf, err := EncodeFrame("OPENDEVICE", 7, kv)
	require.NoError(t, err)

	frame, consumed, err := DecodeFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, "OPENDEVICE", frame.TypeTag)
	assert.Equal(t, uint32(7), frame.Sequence)

	got, ok := frame.Lookup("definition")
	require.True(t, ok)
	assert.Equal(t, []byte("wlan0"), got)
}

func TestFrameLookupIsCaseInsensitiveLastWriteWins(t *testing.T) {
	frame := &Frame{KV: []KeyedObject{
		{Key: "Channels", Bytes: []byte("first")},
		{Key: "CHANNELS", Bytes: []byte("second")},
	}}
	got, ok := frame.Lookup("channels")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)

	_, ok = frame.Lookup("missing")
	assert.False(t, ok)
}

func TestDecodeFrameRejectsBadSignature(t *testing.T) {
	buf, err := EncodeFrame("DATA", 1, nil)
	require.NoError(t, err)
	buf[0] ^= 0xFF

	_, _, err = DecodeFrame(buf)
	require.Error(t, err)
	derr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindBadSignature, derr.Kind)
}

func TestDecodeFrameRejectsBadChecksum(t *testing.T) {
	buf, err := EncodeFrame("DATA", 1, []KeyedObject{{Key: "message", Bytes: []byte("hi")}})
	require.NoError(t, err)
	buf[headerSize] ^= 0xFF // corrupt a payload byte, not the checksum field itself

	_, _, err = DecodeFrame(buf)
	require.Error(t, err)
	derr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindBadChecksum, derr.Kind)
}

func TestDecodeFrameNeedsMoreOnShortHeader(t *testing.T) {
	buf, err := EncodeFrame("DATA", 1, nil)
	require.NoError(t, err)

	_, consumed, err := DecodeFrame(buf[:headerSize-1])
	require.Error(t, err)
	assert.True(t, IsNeedMore(err))
	assert.Equal(t, 0, consumed)
}

func TestDecodeFrameNeedsMoreOnShortPayload(t *testing.T) {
	buf, err := EncodeFrame("DATA", 1, []KeyedObject{{Key: "message", Bytes: []byte("hello world")}})
	require.NoError(t, err)

	_, consumed, err := DecodeFrame(buf[:len(buf)-1])
	require.Error(t, err)
	assert.True(t, IsNeedMore(err))
	assert.Equal(t, 0, consumed)
}

func TestDecodeFrameConsumesExactlyOneFrameFromATrailingStream(t *testing.T) {
	first, err := EncodeFrame("MESSAGE", 1, nil)
	require.NoError(t, err)
	second, err := EncodeFrame("DATA", 2, nil)
	require.NoError(t, err)

	stream := append(append([]byte{}, first...), second...)

	frame, consumed, err := DecodeFrame(stream)
	require.NoError(t, err)
	assert.Equal(t, "MESSAGE", frame.TypeTag)
	assert.Equal(t, len(first), consumed)

	frame, consumed, err = DecodeFrame(stream[consumed:])
	require.NoError(t, err)
	assert.Equal(t, "DATA", frame.TypeTag)
	assert.Equal(t, len(second), consumed)
}

func TestEncodeFrameRejectsOversizedTag(t *testing.T) {
	_, err := EncodeFrame("THIS_TAG_IS_WAY_TOO_LONG", 1, nil)
	require.Error(t, err)
	derr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindBadFrame, derr.Kind)
}
