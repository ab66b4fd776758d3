package driver

import "sort"

// Self-describing sub-payload codec (spec §4.2). The wire carries a
// schemaless serialization; per spec §9's design note, an implementer
// may choose any equivalent tagged encoding as long as both ends agree.
// This implementation uses a small tagged-value scheme: every value is
// a one-byte type tag followed by its payload, maps are a uint32 entry
// count followed by length-prefixed-key/value pairs, and arrays are a
// type tag plus a uint32 element count followed by that many values,
// each carrying its own type tag.

type valueTag uint8

const (
	tagString valueTag = 1
	tagBytes  valueTag = 2
	tagU8     valueTag = 3
	tagU32    valueTag = 4
	tagU64    valueTag = 5
	tagI32    valueTag = 6
	tagF64    valueTag = 7
	tagBool   valueTag = 8
	tagArray  valueTag = 9
	tagMap    valueTag = 10
)

// kvMap is the decoded form of a self-describing map sub-payload.
type kvMap map[string]interface{}

func encodeMap(m kvMap) []byte {
	b := newBuffer(64)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic wire output, easier to test against
	b.writeUint32(uint32(len(keys)))
	for _, k := range keys {
		b.writeUint8(uint8(len(k)))
		off := b.grow(len(k))
		copy(b.data[off:], k)
		encodeValue(b, m[k])
	}
	return b.bytes()
}

func decodeMap(data []byte) (kvMap, error) {
	r := newReader(data)
	count, err := r.readUint32()
	if err != nil {
		return nil, newError(KindBadKeyedObject, "map header: %v", err)
	}
	out := make(kvMap, count)
	for i := uint32(0); i < count; i++ {
		keyLen, err := r.readUint8()
		if err != nil {
			return nil, newError(KindBadKeyedObject, "map entry %d key length: %v", i, err)
		}
		keyOff, err := r.need(int(keyLen))
		if err != nil {
			return nil, newError(KindBadKeyedObject, "map entry %d key: %v", i, err)
		}
		key := string(r.data[keyOff : keyOff+int(keyLen)])

		val, err := decodeValue(r)
		if err != nil {
			return nil, newError(KindBadKeyedObject, "map entry %q value: %v", key, err)
		}
		out[key] = val
	}
	return out, nil
}

func encodeValue(b *buffer, v interface{}) {
	switch val := v.(type) {
	case string:
		b.writeUint8(uint8(tagString))
		b.writeString(val)
	case []byte:
		b.writeUint8(uint8(tagBytes))
		b.writeBytes(val)
	case uint8:
		b.writeUint8(uint8(tagU8))
		b.writeUint8(val)
	case uint32:
		b.writeUint8(uint8(tagU32))
		b.writeUint32(val)
	case uint64:
		b.writeUint8(uint8(tagU64))
		b.writeUint64(val)
	case int32:
		b.writeUint8(uint8(tagI32))
		b.writeInt32(val)
	case float64:
		b.writeUint8(uint8(tagF64))
		b.writeFloat64(val)
	case bool:
		b.writeUint8(uint8(tagBool))
		b.writeBool(val)
	case []interface{}:
		b.writeUint8(uint8(tagArray))
		b.writeUint32(uint32(len(val)))
		for _, elem := range val {
			encodeValue(b, elem)
		}
	case kvMap:
		b.writeUint8(uint8(tagMap))
		sub := encodeMap(val)
		b.writeBytes(sub)
	default:
		// Unreachable for well-formed callers; encode as an empty byte
		// value rather than panic on a malformed internal caller.
		b.writeUint8(uint8(tagBytes))
		b.writeBytes(nil)
	}
}

func decodeValue(r *reader) (interface{}, error) {
	tagByte, err := r.readUint8()
	if err != nil {
		return nil, err
	}
	switch valueTag(tagByte) {
	case tagString:
		return r.readString()
	case tagBytes:
		return r.readBytes()
	case tagU8:
		return r.readUint8()
	case tagU32:
		return r.readUint32()
	case tagU64:
		return r.readUint64()
	case tagI32:
		return r.readInt32()
	case tagF64:
		return r.readFloat64()
	case tagBool:
		return r.readBool()
	case tagArray:
		count, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, count)
		for i := uint32(0); i < count; i++ {
			elem, err := decodeValue(r)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case tagMap:
		sub, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		return decodeMap(sub)
	default:
		return nil, newError(KindBadKeyedObject, "unknown value tag %d", tagByte)
	}
}

// ─── Domain-specific sub-payload helpers (spec §4.2's key table) ───

type messagePayload struct {
	Msg   string
	Flags uint32
}

func encodeMessage(p messagePayload) []byte {
	return encodeMap(kvMap{"msg": p.Msg, "flags": p.Flags})
}

func decodeMessage(data []byte) (messagePayload, error) {
	m, err := decodeMap(data)
	if err != nil {
		return messagePayload{}, err
	}
	var p messagePayload
	if s, ok := m["msg"].(string); ok {
		p.Msg = s
	}
	if f, ok := m["flags"].(uint32); ok {
		p.Flags = f
	}
	return p, nil
}

func encodeChannels(channels []string) []byte {
	return encodeMap(kvMap{"channels": stringsToValues(channels)})
}

func decodeChannels(data []byte) ([]string, error) {
	m, err := decodeMap(data)
	if err != nil {
		return nil, err
	}
	arr, _ := m["channels"].([]interface{})
	return valuesToStrings(arr), nil
}

type chanhopPayload struct {
	Rate     float64
	Channels []string
}

func encodeChanhop(p chanhopPayload) []byte {
	return encodeMap(kvMap{"rate": p.Rate, "channels": stringsToValues(p.Channels)})
}

func decodeChanhop(data []byte) (chanhopPayload, error) {
	m, err := decodeMap(data)
	if err != nil {
		return chanhopPayload{}, err
	}
	var p chanhopPayload
	if rate, ok := m["rate"].(float64); ok {
		p.Rate = rate
	}
	arr, _ := m["channels"].([]interface{})
	p.Channels = valuesToStrings(arr)
	return p, nil
}

// ListedInterface is a transient interface descriptor produced by
// list_interfaces, per spec §3.
type ListedInterface struct {
	Interface string
	Flags     string
}

func encodeInterfaceList(list []ListedInterface) []byte {
	elems := make([]interface{}, 0, len(list))
	for _, li := range list {
		elems = append(elems, kvMap{"interface": li.Interface, "flags": li.Flags})
	}
	b := newBuffer(64)
	encodeValue(b, elems)
	return b.bytes()
}

func decodeInterfaceList(data []byte) ([]ListedInterface, error) {
	r := newReader(data)
	v, err := decodeValue(r)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, newError(KindBadKeyedObject, "interfacelist: not an array")
	}
	out := make([]ListedInterface, 0, len(arr))
	for _, elem := range arr {
		m, ok := elem.(kvMap)
		if !ok {
			return nil, newError(KindBadKeyedObject, "interfacelist: element not a map")
		}
		var li ListedInterface
		if s, ok := m["interface"].(string); ok {
			li.Interface = s
		}
		if s, ok := m["flags"].(string); ok {
			li.Flags = s
		}
		out = append(out, li)
	}
	return out, nil
}

type packetPayload struct {
	TvSec  uint64
	TvUsec uint64
	DLT    uint64
	Size   uint64
	Packet []byte
}

func decodePacket(data []byte) (packetPayload, error) {
	m, err := decodeMap(data)
	if err != nil {
		return packetPayload{}, err
	}
	var p packetPayload
	if v, ok := m["tv_sec"].(uint64); ok {
		p.TvSec = v
	}
	if v, ok := m["tv_usec"].(uint64); ok {
		p.TvUsec = v
	}
	if v, ok := m["dlt"].(uint64); ok {
		p.DLT = v
	}
	if v, ok := m["size"].(uint64); ok {
		p.Size = v
	}
	if v, ok := m["packet"].([]byte); ok {
		p.Packet = v
	}
	return p, nil
}

func encodePacket(p packetPayload) []byte {
	return encodeMap(kvMap{
		"tv_sec": p.TvSec, "tv_usec": p.TvUsec, "dlt": p.DLT,
		"size": p.Size, "packet": p.Packet,
	})
}

// signalPayload's fields are all optional on the wire; nil means absent.
type signalPayload struct {
	SignalDBM  *int32
	NoiseDBM   *int32
	SignalRSSI *int32
	NoiseRSSI  *int32
	FreqKHz    *float64
	Channel    string
	DataRate   *float64
}

func decodeSignal(data []byte) (signalPayload, error) {
	m, err := decodeMap(data)
	if err != nil {
		return signalPayload{}, err
	}
	var p signalPayload
	if v, ok := m["signal_dbm"].(int32); ok {
		p.SignalDBM = &v
	}
	if v, ok := m["noise_dbm"].(int32); ok {
		p.NoiseDBM = &v
	}
	if v, ok := m["signal_rssi"].(int32); ok {
		p.SignalRSSI = &v
	}
	if v, ok := m["noise_rssi"].(int32); ok {
		p.NoiseRSSI = &v
	}
	if v, ok := m["freq_khz"].(float64); ok {
		p.FreqKHz = &v
	}
	if v, ok := m["channel"].(string); ok {
		p.Channel = v
	}
	if v, ok := m["datarate"].(float64); ok {
		p.DataRate = &v
	}
	return p, nil
}

// gpsPayload's fields are all optional on the wire; nil means absent.
type gpsPayload struct {
	Lat       *float64
	Lon       *float64
	Alt       *float64
	Speed     *float64
	Heading   *float64
	Precision *float64
	Fix       *int32
	Time      *uint64
	Name      string
}

func decodeGPS(data []byte) (gpsPayload, error) {
	m, err := decodeMap(data)
	if err != nil {
		return gpsPayload{}, err
	}
	var p gpsPayload
	assignF := func(key string, dst **float64) {
		if v, ok := m[key].(float64); ok {
			*dst = &v
		}
	}
	assignF("lat", &p.Lat)
	assignF("lon", &p.Lon)
	assignF("alt", &p.Alt)
	assignF("speed", &p.Speed)
	assignF("heading", &p.Heading)
	assignF("precision", &p.Precision)
	if v, ok := m["fix"].(int32); ok {
		p.Fix = &v
	}
	if v, ok := m["time"].(uint64); ok {
		p.Time = &v
	}
	if v, ok := m["name"].(string); ok {
		p.Name = v
	}
	return p, nil
}

// successRecord is the fixed-layout {ok u8, sequence u32} sub-record, not
// self-describing (spec §3/§6).
type successRecord struct {
	OK       bool
	Sequence uint32
}

const successRecordSize = 1 + 4

func decodeSuccess(data []byte) (successRecord, error) {
	if len(data) != successRecordSize {
		return successRecord{}, newError(KindBadFrame, "success record size %d, want %d", len(data), successRecordSize)
	}
	r := newReader(data)
	ok, _ := r.readUint8()
	seq, _ := r.readUint32()
	return successRecord{OK: ok != 0, Sequence: seq}, nil
}

func encodeSuccess(rec successRecord) []byte {
	b := newBuffer(successRecordSize)
	if rec.OK {
		b.writeUint8(1)
	} else {
		b.writeUint8(0)
	}
	b.writeUint32(rec.Sequence)
	return b.bytes()
}

func stringsToValues(ss []string) []interface{} {
	out := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func valuesToStrings(vs []interface{}) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
