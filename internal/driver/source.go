package driver

import (
	"sync"
	"time"

	"firestige.xyz/dsdriver/internal/log"
	"firestige.xyz/dsdriver/internal/sink"
	"firestige.xyz/dsdriver/internal/timer"
	"firestige.xyz/dsdriver/internal/transport"
)

const (
	typeListDevice   = "LISTDEVICE"
	typeProbeDevice  = "PROBEDEVICE"
	typeOpenDevice   = "OPENDEVICE"
	typeConfigure    = "CONFIGURE"
	typeListResp     = "LISTRESP"
	typeProbeResp    = "PROBERESP"
	typeOpenResp     = "OPENRESP"
	typeConfigResp   = "CONFIGRESP"
	typeData         = "DATA"
	typeMessage      = "MESSAGE"
	typeError        = "ERROR"

	keyDefinition    = "DEFINITION"
	keyChanset       = "CHANSET"
	keyChanhop       = "CHANHOP"
	keySuccess       = "success"
	keyMessage       = "message"
	keyChannels      = "channels"
	keyChanhopInner  = "chanhop"
	keyChansetInner  = "chanset"
	keyUUID          = "uuid"
	keyInterfaceList = "interfacelist"
	keyPacket        = "packet"
	keySignal        = "signal"
	keyGPS           = "gps"

	// defaultRetryBackoff is the retry policy a Source starts with before
	// SetRetryPolicy installs an operator-configured one.
	defaultRetryBackoff = 5 * time.Second

	// commandTimeout bounds how long a pending command waits for its
	// matching response before arm_timeout resolves it as a failure
	// (spec §4.3). It is not a deployment-tunable; sessions that need a
	// different bound should wrap Source rather than fork this constant.
	commandTimeout = 10 * time.Second
)

// ListCallback completes list_interfaces, per spec §4.5.
type ListCallback func(tx interface{}, interfaces []ListedInterface)

// ResultCallback completes probe_interface/open_interface/set_channel/
// set_channel_hop, per spec §4.5.
type ResultCallback func(tx interface{}, ok bool, message string)

// RetryPolicy bounds the automatic reopen a Source performs after error
// supervision closes the transport, for a definition with retry enabled.
// MaxAttempts of 0 means unbounded, matching the wire definition's bare
// retry=true semantics when no config-file policy overrides it.
type RetryPolicy struct {
	Backoff     time.Duration
	MaxAttempts int
}

// Source is one driver instance managing exactly one capture source
// (spec §1). It implements transport.Callbacks so the transport package
// can drive it directly.
type Source struct {
	mu sync.Mutex

	caps  Capabilities
	state State
	def   Definition

	stream     transport.Stream
	streamLive bool
	connect    func() (transport.Stream, error)
	chain      sink.Chain
	logger     log.Logger
	timers     timer.Service

	tracker *tracker

	retryPolicy RetryPolicy
	retryCancel timer.Cancel
	closed      bool
}

// NewSource builds a Source with the given capabilities, wired to
// stream/chain/logger/timers. seqSeed should be randomized by the
// caller, per spec §4.3's "process-wide monotonic counter seeded with a
// random value".
func NewSource(caps Capabilities, stream transport.Stream, chain sink.Chain, logger log.Logger, timers timer.Service, seqSeed uint32) *Source {
	s := &Source{
		caps:        caps,
		stream:      stream,
		streamLive:  true,
		chain:       chain,
		logger:      logger,
		timers:      timers,
		tracker:     newTracker(seqSeed),
		retryPolicy: RetryPolicy{Backoff: defaultRetryBackoff},
	}
	stream.SetCallbacks(s)
	return s
}

// SetRetryPolicy installs the retry backoff/max-attempts bound an operator
// configured for this source, supplementing the bare retry=true/false the
// wire definition string carries. Safe to call at any time; it only takes
// effect on the next triggerErrorLocked.
func (s *Source) SetRetryPolicy(policy RetryPolicy) {
	s.mu.Lock()
	if policy.Backoff <= 0 {
		policy.Backoff = defaultRetryBackoff
	}
	s.retryPolicy = policy
	s.mu.Unlock()
}

// SetReconnector installs the function OpenInterface uses to re-establish
// the transport when a retry fires after the stream died in error
// supervision. Without one, a retry attempt made after the stream closed
// fails immediately with a transport-closed error — the right behavior for
// a driver handed one fixed, already-open connection (e.g. a one-shot CLI
// invocation), as opposed to one that owns a transport.Manager able to
// redial.
func (s *Source) SetReconnector(connect func() (transport.Stream, error)) {
	s.mu.Lock()
	s.connect = connect
	s.mu.Unlock()
}

// State returns a copy of the observable state, safe to read from any
// goroutine (spec §2.7).
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// withLock runs fn while holding the instance mutex, then invokes the
// thunks it returns after releasing it. This is the "drain pattern" spec
// §9 sanctions for languages without a reentrant mutex: fn may freely
// mutate state and the tracker, but must not call back into a public
// Source method directly — any such call is deferred into the returned
// slice and made by the time the caller's own call stack has unwound
// past the lock.
func (s *Source) withLock(fn func() []func()) {
	s.mu.Lock()
	deferred := fn()
	s.mu.Unlock()
	for _, d := range deferred {
		if d != nil {
			d()
		}
	}
}

// emitLocked builds and writes a command frame, reserving a sequence
// first so a write failure leaves no pending entry (spec §4.5). Returns
// the reserved sequence on success.
func (s *Source) emitLocked(typeTag string, kv []KeyedObject) (uint32, error) {
	if !s.streamLive {
		if s.connect == nil {
			return 0, newError(KindTransportClosed, "transport is closed")
		}
		stream, err := s.connect()
		if err != nil {
			return 0, newError(KindTransportClosed, "reconnect failed: %v", err)
		}
		s.stream = stream
		stream.SetCallbacks(s)
		s.streamLive = true
	}

	seq := s.tracker.reserve()
	frame, err := EncodeFrame(typeTag, seq, kv)
	if err != nil {
		return 0, newError(KindBadFrame, "unable to generate command frame: %v", err)
	}
	if err := s.stream.Put(frame); err != nil {
		return 0, newError(KindTransportClosed, "unable to generate command frame: %v", err)
	}
	return seq, nil
}

// armTimeoutLocked schedules timeout cancellation of seq after d. The
// timer fires on its own goroutine, so it re-acquires the instance
// mutex itself via withLock rather than needing reentrant access.
func (s *Source) armTimeoutLocked(seq uint32, d time.Duration) {
	cancel := s.timers.Schedule(d, func() {
		s.withLock(func() []func() {
			if thunk := s.tracker.cancel(seq, "timeout"); thunk != nil {
				return []func(){thunk}
			}
			return nil
		})
	})
	s.tracker.setCancelFn(seq, cancel)
}

// ListInterfaces implements spec §4.5's list_interfaces.
func (s *Source) ListInterfaces(tx interface{}, cb ListCallback) {
	s.withLock(func() []func() {
		if !s.caps.Has(CapList) {
			return []func(){func() { cb(tx, nil) }}
		}
		seq, err := s.emitLocked(typeListDevice, nil)
		if err != nil {
			return []func(){func() { cb(tx, nil) }}
		}
		s.tracker.registerAt(seq, kindList, func(ok bool, msg string, ifaces []ListedInterface) {
			cb(tx, ifaces)
		})
		s.armTimeoutLocked(seq, commandTimeout)
		return nil
	})
}

// ProbeInterface implements spec §4.5's probe_interface.
func (s *Source) ProbeInterface(def string, tx interface{}, cb ResultCallback) {
	s.withLock(func() []func() {
		if !s.caps.Has(CapProbe) {
			return []func(){func() { cb(tx, false, "Driver not capable of probing") }}
		}
		parsed, err := parseDefinition(def)
		if err != nil {
			return []func(){func() { cb(tx, false, err.Error()) }}
		}
		kv := []KeyedObject{{Key: keyDefinition, Bytes: []byte(parsed.Raw)}}
		seq, err := s.emitLocked(typeProbeDevice, kv)
		if err != nil {
			return []func(){func() { cb(tx, false, err.Error()) }}
		}
		s.tracker.registerAt(seq, kindProbe, func(ok bool, msg string, _ []ListedInterface) {
			cb(tx, ok, msg)
		})
		s.armTimeoutLocked(seq, commandTimeout)
		return nil
	})
}

// OpenInterface implements spec §4.5's open_interface.
func (s *Source) OpenInterface(def string, tx interface{}, cb ResultCallback) {
	s.withLock(func() []func() {
		if !s.caps.Has(CapLocal) {
			return []func(){func() {
				if cb != nil {
					cb(tx, false, "Driver not capable of local capture")
				}
			}}
		}

		if s.retryCancel != nil {
			s.retryCancel()
			s.retryCancel = nil
		}

		parsed, err := parseDefinition(def)
		if err != nil {
			return []func(){func() {
				if cb != nil {
					cb(tx, false, err.Error())
				}
			}}
		}

		kv := []KeyedObject{{Key: keyDefinition, Bytes: []byte(parsed.Raw)}}
		seq, err := s.emitLocked(typeOpenDevice, kv)
		if err != nil {
			return []func(){func() {
				if cb != nil {
					cb(tx, false, err.Error())
				}
			}}
		}

		s.def = parsed
		s.state.Definition = parsed.Raw
		s.state.Interface = parsed.Interface
		s.state.Name = parsed.Name
		s.state.RetryEnabled = parsed.Retry
		if parsed.UUID != "" {
			s.state.pinUUID(parsed.UUID)
		}

		s.tracker.registerAt(seq, kindOpen, func(ok bool, msg string, _ []ListedInterface) {
			if ok {
				s.mu.Lock()
				s.state.RetryAttempt = 0
				s.state.RetryExhausted = false
				s.mu.Unlock()
			}
			if cb != nil {
				cb(tx, ok, msg)
			}
		})
		s.armTimeoutLocked(seq, commandTimeout)
		return nil
	})
}

// SetChannel implements spec §4.5's set_channel.
func (s *Source) SetChannel(channel string, tx interface{}, cb ResultCallback) {
	s.withLock(func() []func() {
		if !s.caps.Has(CapTune) {
			return []func(){func() { cb(tx, false, "Driver not capable of changing channel") }}
		}
		kv := []KeyedObject{{Key: keyChanset, Bytes: []byte(channel)}}
		seq, err := s.emitLocked(typeConfigure, kv)
		if err != nil {
			return []func(){func() { cb(tx, false, err.Error()) }}
		}
		s.tracker.registerAt(seq, kindConfigure, func(ok bool, msg string, _ []ListedInterface) {
			cb(tx, ok, msg)
		})
		s.armTimeoutLocked(seq, commandTimeout)
		return nil
	})
}

// SetChannelHop implements spec §4.5's set_channel_hop.
func (s *Source) SetChannelHop(rate float64, channels []string, tx interface{}, cb ResultCallback) {
	s.withLock(func() []func() {
		if !s.caps.Has(CapTune) {
			return []func(){func() { cb(tx, false, "Driver not capable of changing channel") }}
		}
		kv := []KeyedObject{{Key: keyChanhop, Bytes: encodeChanhop(chanhopPayload{Rate: rate, Channels: channels})}}
		seq, err := s.emitLocked(typeConfigure, kv)
		if err != nil {
			return []func(){func() { cb(tx, false, err.Error()) }}
		}
		s.tracker.registerAt(seq, kindConfigure, func(ok bool, msg string, _ []ListedInterface) {
			cb(tx, ok, msg)
		})
		s.armTimeoutLocked(seq, commandTimeout)
		return nil
	})
}

// CloseSource implements spec §4.5's close_source: always succeeds,
// cancels any pending retry, cancels all pending commands, and closes
// the transport.
func (s *Source) CloseSource() {
	s.withLock(func() []func() {
		return s.closeLocked("close requested")
	})
}

func (s *Source) closeLocked(reason string) []func() {
	if s.closed {
		return nil
	}
	s.closed = true
	s.streamLive = false
	if s.retryCancel != nil {
		s.retryCancel()
		s.retryCancel = nil
	}
	out := s.tracker.cancelAll(reason)
	_ = s.stream.Close(reason)
	return out
}

// triggerErrorLocked implements spec §4.5's error supervision.
func (s *Source) triggerErrorLocked(reason string) []func() {
	if s.closed {
		return nil
	}
	out := s.tracker.cancelAll(reason)
	_ = s.stream.Close(reason)
	s.streamLive = false
	s.state.Error = true
	s.state.ErrorReason = reason

	if s.logger != nil {
		s.logger.WithField("reason", reason).Error("source entered error state")
	}

	if s.state.RetryEnabled {
		if s.retryPolicy.MaxAttempts > 0 && s.state.RetryAttempt >= s.retryPolicy.MaxAttempts {
			s.state.RetryEnabled = false
			s.state.RetryExhausted = true
			if s.logger != nil {
				s.logger.WithField("attempts", s.state.RetryAttempt).Warn("retry attempts exhausted, giving up")
			}
		} else {
			s.state.RetryAttempt++
			def := s.def.Raw
			s.retryCancel = s.timers.Schedule(s.retryPolicy.Backoff, func() {
				s.OpenInterface(def, 0, nil)
			})
		}
	}
	return out
}
