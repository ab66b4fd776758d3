package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMapRoundTripsMixedTypes(t *testing.T) {
	m := kvMap{
		"name":  "wlan0",
		"count": uint32(3),
		"rate":  5.5,
		"ok":    true,
		"tags":  []interface{}{"a", "b"},
	}
	data := encodeMap(m)
	got, err := decodeMap(data)
	require.NoError(t, err)

	assert.Equal(t, "wlan0", got["name"])
	assert.Equal(t, uint32(3), got["count"])
	assert.Equal(t, 5.5, got["rate"])
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, []interface{}{"a", "b"}, got["tags"])
}

func TestEncodeDecodeMapRoundTripsNestedMap(t *testing.T) {
	m := kvMap{"inner": kvMap{"x": uint32(1)}}
	data := encodeMap(m)
	got, err := decodeMap(data)
	require.NoError(t, err)

	inner, ok := got["inner"].(kvMap)
	require.True(t, ok)
	assert.Equal(t, uint32(1), inner["x"])
}

func TestDecodeMapRejectsTruncatedData(t *testing.T) {
	data := encodeMap(kvMap{"name": "wlan0"})
	_, err := decodeMap(data[:len(data)-1])
	require.Error(t, err)
	derr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindBadKeyedObject, derr.Kind)
}

func TestChannelsRoundTrip(t *testing.T) {
	in := []string{"1", "6", "11"}
	got, err := decodeChannels(encodeChannels(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestChanhopRoundTrip(t *testing.T) {
	in := chanhopPayload{Rate: 5, Channels: []string{"1", "6", "11"}}
	got, err := decodeChanhop(encodeChanhop(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestMessageRoundTrip(t *testing.T) {
	in := messagePayload{Msg: "hello", Flags: 2}
	got, err := decodeMessage(encodeMessage(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestInterfaceListRoundTrip(t *testing.T) {
	in := []ListedInterface{
		{Interface: "wlan0", Flags: ""},
		{Interface: "wlan1", Flags: "mon"},
	}
	got, err := decodeInterfaceList(encodeInterfaceList(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestPacketRoundTrip(t *testing.T) {
	in := packetPayload{TvSec: 100, TvUsec: 200, DLT: 1, Size: 3, Packet: []byte{1, 2, 3}}
	got, err := decodePacket(encodePacket(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestSuccessRecordFixedLayout(t *testing.T) {
	data := encodeSuccess(successRecord{OK: true, Sequence: 42})
	assert.Len(t, data, successRecordSize)

	got, err := decodeSuccess(data)
	require.NoError(t, err)
	assert.True(t, got.OK)
	assert.Equal(t, uint32(42), got.Sequence)
}

func TestDecodeSuccessRejectsWrongSize(t *testing.T) {
	_, err := decodeSuccess([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeSignalHandlesOptionalFields(t *testing.T) {
	data := encodeMap(kvMap{"signal_dbm": int32(-40), "channel": "6"})
	got, err := decodeSignal(data)
	require.NoError(t, err)
	require.NotNil(t, got.SignalDBM)
	assert.Equal(t, int32(-40), *got.SignalDBM)
	assert.Equal(t, "6", got.Channel)
	assert.Nil(t, got.NoiseDBM)
}

func TestDecodeGPSHandlesOptionalFields(t *testing.T) {
	data := encodeMap(kvMap{"lat": 1.5, "lon": -2.5, "name": "gpsd"})
	got, err := decodeGPS(data)
	require.NoError(t, err)
	require.NotNil(t, got.Lat)
	assert.Equal(t, 1.5, *got.Lat)
	require.NotNil(t, got.Lon)
	assert.Equal(t, -2.5, *got.Lon)
	assert.Equal(t, "gpsd", got.Name)
	assert.Nil(t, got.Alt)
}
