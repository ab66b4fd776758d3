// Package sink implements the packet-chain external collaborator: the
// interface decoded packet records are handed to once the driver core
// has synthesized them from a DATA frame's keyed-object payload.
package sink

import (
	"time"

	"github.com/google/gopacket"
)

// Signal carries the radio metadata a DATA frame's "signal" sub-payload
// may attach to a record. All fields are optional on the wire; a zero
// value here means absent, not "measured as zero".
type Signal struct {
	SignalDBM  *int32
	NoiseDBM   *int32
	SignalRSSI *int32
	NoiseRSSI  *int32
	FreqKHz    *float64
	Channel    string
	DataRate   *float64
}

// GPS carries the geo metadata a DATA frame's "gps" sub-payload may
// attach to a record.
type GPS struct {
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

// Record is one decoded packet, synthesized from a DATA frame's "packet"
// sub-payload per spec.md §4.2. CaptureInfo reuses gopacket's shape
// (Timestamp/CaptureLength/Length) so a Record can be handed directly to
// gopacket.NewPacket for higher-layer decoding if a chain wants it —
// this driver itself never decodes the link-layer payload.
type Record struct {
	Info   gopacket.CaptureInfo
	DLT    uint64
	Data   []byte
	Signal *Signal
	GPS    *GPS
}

// NewRecord builds a Record from a DATA frame's synthesized timestamp,
// DLT and raw bytes, matching the self-describing "packet" sub-payload's
// {tv_sec, tv_usec, dlt, size, packet} shape.
func NewRecord(tvSec, tvUsec, dlt uint64, data []byte) Record {
	return Record{
		Info: gopacket.CaptureInfo{
			Timestamp:     time.Unix(int64(tvSec), int64(tvUsec)*1000),
			CaptureLength: len(data),
			Length:        len(data),
		},
		DLT:  dlt,
		Data: data,
	}
}

// Chain is the packet-chain external collaborator named in spec.md §1.
// Handoff transfers ownership: once Deliver returns, the driver core no
// longer holds a reference to rec.Data.
type Chain interface {
	Deliver(rec Record)
}

// ChainFunc adapts a plain function to a Chain.
type ChainFunc func(Record)

func (f ChainFunc) Deliver(rec Record) { f(rec) }
