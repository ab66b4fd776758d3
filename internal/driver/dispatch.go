package driver

import "firestige.xyz/dsdriver/internal/sink"

// BytesAvailable implements transport.Callbacks. It decodes to a fixed
// point: repeatedly attempts to decode a frame out of whatever is
// currently peekable, stopping as soon as decode reports need-more
// (spec §4.6).
func (s *Source) BytesAvailable(n int) {
	s.withLock(func() []func() {
		var out []func()
		for {
			avail := s.stream.Available()
			if avail < headerSize {
				break
			}
			peeked, err := s.stream.Peek(avail)
			if err != nil {
				break
			}

			frame, consumed, err := DecodeFrame(peeked)
			if err != nil {
				if IsNeedMore(err) {
					break
				}
				out = append(out, s.triggerErrorLocked(err.Error())...)
				break
			}

			if err := s.stream.Consume(consumed); err != nil {
				out = append(out, s.triggerErrorLocked(err.Error())...)
				break
			}

			out = append(out, s.dispatchFrameLocked(frame)...)
		}
		return out
	})
}

// Error implements transport.Callbacks.
func (s *Source) Error(reason string) {
	s.withLock(func() []func() {
		return s.triggerErrorLocked(reason)
	})
}

// dispatchFrameLocked routes one decoded frame by its type tag, compared
// case-insensitively (normalizeTag upper-cases it), per spec §4.4.
func (s *Source) dispatchFrameLocked(frame *Frame) []func() {
	switch normalizeTag(frame.TypeTag) {
	case typeListResp:
		return s.handleResponseLocked(frame, true)
	case typeProbeResp:
		return s.handleResponseLocked(frame, true)
	case typeOpenResp:
		return s.handleResponseLocked(frame, false)
	case typeConfigResp:
		return s.handleResponseLocked(frame, false)
	case typeData:
		return s.handleDataLocked(frame)
	case typeMessage:
		s.logMessageLocked(frame)
		return nil
	case typeError:
		return s.handleErrorFrameLocked(frame)
	default:
		return nil // unknown types are silently ignored, per spec §4.2
	}
}

func normalizeTag(tag string) string {
	out := make([]byte, len(tag))
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// handleResponseLocked implements the common response handler shape from
// spec §4.4: process message, apply state mutations in fixed priority
// order, locate success, resolve the tracker entry, and apply the
// terminal policy (closeAfter closes the source unconditionally;
// otherwise a failed success triggers error).
func (s *Source) handleResponseLocked(frame *Frame, closeAfter bool) []func() {
	message := s.applyMessageLocked(frame)
	var interfaces []ListedInterface

	if data, ok := frame.Lookup(keyChannels); ok {
		if channels, err := decodeChannels(data); err == nil {
			s.state.SupportedChannels = channels
		} else {
			return s.triggerErrorLocked(err.Error())
		}
	}
	if data, ok := frame.Lookup(keyChansetInner); ok {
		s.state.setChannel(string(data))
	}
	if data, ok := frame.Lookup(keyChanhopInner); ok {
		if hop, err := decodeChanhop(data); err == nil {
			s.state.setHop(hop.Rate, hop.Channels)
		} else {
			return s.triggerErrorLocked(err.Error())
		}
	}
	if data, ok := frame.Lookup(keyUUID); ok {
		s.state.setUUID(string(data))
	}
	if data, ok := frame.Lookup(keyInterfaceList); ok {
		list, err := decodeInterfaceList(data)
		if err != nil {
			return s.triggerErrorLocked(err.Error())
		}
		interfaces = list
	}

	data, ok := frame.Lookup(keySuccess)
	if !ok {
		return s.triggerErrorLocked("no success for " + frame.TypeTag)
	}
	rec, err := decodeSuccess(data)
	if err != nil {
		return s.triggerErrorLocked(err.Error())
	}

	out := []func(){}
	if thunk := s.tracker.resolve(rec.Sequence, rec.OK, message, interfaces); thunk != nil {
		out = append(out, thunk)
	}

	if closeAfter {
		out = append(out, s.closeLocked("terminal response")...)
		return out
	}
	if !rec.OK {
		out = append(out, s.triggerErrorLocked("remote reported failure for "+frame.TypeTag)...)
	}
	return out
}

// handleDataLocked synthesizes a packet record from the DATA frame's
// "packet" sub-payload and optionally attaches radio/GPS metadata,
// handing the result to the packet-chain, per spec §4.2/§4.4.
func (s *Source) handleDataLocked(frame *Frame) []func() {
	s.applyMessageLocked(frame)

	data, ok := frame.Lookup(keyPacket)
	if !ok {
		if s.logger != nil {
			s.logger.Debug("data frame without packet payload, discarding")
		}
		return nil
	}

	pkt, err := decodePacket(data)
	if err != nil {
		// Structural sub-decode failure; spec §4.2 says malformed inner
		// objects trigger error, but a non-structural synthesis failure
		// (e.g. the packet key simply absent) is just logged.
		return s.triggerErrorLocked(err.Error())
	}

	rec := sink.NewRecord(pkt.TvSec, pkt.TvUsec, pkt.DLT, pkt.Packet)

	if sigData, ok := frame.Lookup(keySignal); ok {
		if sig, err := decodeSignal(sigData); err == nil {
			rec.Signal = &sink.Signal{
				SignalDBM: sig.SignalDBM, NoiseDBM: sig.NoiseDBM,
				SignalRSSI: sig.SignalRSSI, NoiseRSSI: sig.NoiseRSSI,
				FreqKHz: sig.FreqKHz, Channel: sig.Channel, DataRate: sig.DataRate,
			}
		}
	}
	if gpsData, ok := frame.Lookup(keyGPS); ok {
		if g, err := decodeGPS(gpsData); err == nil {
			rec.GPS = &sink.GPS{
				Lat: g.Lat, Lon: g.Lon, Alt: g.Alt, Speed: g.Speed,
				Heading: g.Heading, Precision: g.Precision, Fix: g.Fix,
				Time: g.Time, Name: g.Name,
			}
		}
	}

	if s.chain == nil {
		return nil
	}
	chain := s.chain
	return []func(){func() { chain.Deliver(rec) }}
}

// handleErrorFrameLocked implements the ERROR handler from spec §4.4.
func (s *Source) handleErrorFrameLocked(frame *Frame) []func() {
	reason := "received error frame"
	if msg := s.applyMessageLocked(frame); msg != "" {
		reason = msg
	}
	return s.triggerErrorLocked(reason)
}

// applyMessageLocked decodes and logs an optional "message" sub-payload,
// returning its text (spec §4.4 step 1).
func (s *Source) applyMessageLocked(frame *Frame) string {
	data, ok := frame.Lookup(keyMessage)
	if !ok {
		return ""
	}
	msg, err := decodeMessage(data)
	if err != nil {
		return ""
	}
	if s.logger != nil {
		s.logger.WithField("flags", msg.Flags).Info(msg.Msg)
	}
	return msg.Msg
}

func (s *Source) logMessageLocked(frame *Frame) {
	s.applyMessageLocked(frame)
}
