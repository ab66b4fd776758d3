package driver

import "firestige.xyz/dsdriver/internal/timer"

// commandKind identifies which lifecycle operation a pending command
// belongs to, so its completion can be invoked with the right shape
// (spec §3's pending command "kind").
type commandKind int

const (
	kindList commandKind = iota
	kindProbe
	kindOpen
	kindConfigure
)

// completionFunc is the typed completion a pending command resolves or
// cancels with. interfaces is only meaningful for kindList; other kinds
// ignore it.
type completionFunc func(ok bool, message string, interfaces []ListedInterface)

type pendingCommand struct {
	sequence   uint32
	kind       commandKind
	completion completionFunc
	cancelFn   timer.Cancel
}

// tracker implements the command tracker (spec §4.3): sequence
// allocation, pending-command bookkeeping, response matching and
// timeout enforcement. It is not internally synchronized — the owning
// Source serializes all access under its instance mutex, per spec §5.
//
// resolve/cancel/cancelAll never invoke completions directly; they
// return thunks for the caller to run after releasing the instance
// mutex. Go has no reentrant mutex, so this repo follows spec §9's
// alternate design note for that case: an inner lock protects state,
// and callbacks are collected under the lock and invoked after release,
// rather than the literal "callback runs while mutex held" behavior the
// original assumes a reentrant lock for.
type tracker struct {
	nextSeq uint32
	pending map[uint32]*pendingCommand
}

func newTracker(seed uint32) *tracker {
	return &tracker{nextSeq: seed, pending: make(map[uint32]*pendingCommand)}
}

// reserve allocates the next sequence (monotone mod 2^32, via uint32
// wraparound) without yet creating a pending entry — used so a failed
// write records no pending entry (spec §4.5).
func (t *tracker) reserve() uint32 {
	seq := t.nextSeq
	t.nextSeq++
	return seq
}

// registerAt creates a pending entry for a sequence already allocated by
// reserve, once the caller knows the write succeeded.
func (t *tracker) registerAt(seq uint32, kind commandKind, completion completionFunc) {
	t.pending[seq] = &pendingCommand{sequence: seq, kind: kind, completion: completion}
}

// setCancelFn records the cancel for sequence's armed timeout, so
// resolving or cancelling the command also stops the timer.
func (t *tracker) setCancelFn(seq uint32, cancel timer.Cancel) {
	if pc, ok := t.pending[seq]; ok {
		pc.cancelFn = cancel
	}
}

// resolve looks up sequence, removes it, and returns a thunk invoking
// its completion with (success, message) or, for kindList, with the
// decoded interface list. Returns nil if the sequence is not found
// (already resolved, cancelled, or never registered).
func (t *tracker) resolve(sequence uint32, ok bool, message string, interfaces []ListedInterface) func() {
	pc, found := t.pending[sequence]
	if !found {
		return nil
	}
	delete(t.pending, sequence)
	if pc.cancelFn != nil {
		pc.cancelFn()
	}
	return func() { pc.completion(ok, message, interfaces) }
}

// cancel removes sequence and returns a thunk invoking its completion
// with a failure marker carrying reason. Returns nil if not found.
func (t *tracker) cancel(sequence uint32, reason string) func() {
	pc, found := t.pending[sequence]
	if !found {
		return nil
	}
	delete(t.pending, sequence)
	if pc.cancelFn != nil {
		pc.cancelFn()
	}
	return func() { pc.completion(false, reason, nil) }
}

// cancelAll removes every pending command and returns a thunk per
// command, per spec §4.3's "must be safe under concurrent arrival of new
// responses" — callers hold the instance mutex while calling cancelAll,
// so no additional locking happens here.
func (t *tracker) cancelAll(reason string) []func() {
	pending := t.pending
	t.pending = make(map[uint32]*pendingCommand)
	out := make([]func(), 0, len(pending))
	for _, pc := range pending {
		if pc.cancelFn != nil {
			pc.cancelFn()
		}
		completion := pc.completion
		out = append(out, func() { completion(false, reason, nil) })
	}
	return out
}

func (t *tracker) count() int {
	return len(t.pending)
}
